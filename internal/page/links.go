package page

import (
	"regexp"
	"strings"

	"cbcgrab/internal/domain"
)

var (
	reFeedURL  = regexp.MustCompile(`https?://www\.cbc\.ca/podcasting/includes/[^"']+\.xml`)
	reStoryURL = regexp.MustCompile(`-\d\.\d+(?:\?.*)?$`)

	reStoryAnchor = regexp.MustCompile(`(?is)<a[^>]+href="(/radio/[^"]+-\d\.\d+[^"]*)"[^>]*>(.*?)</a>`)
	reShowAnchor  = regexp.MustCompile(`(?is)<a[^>]+href=['"](?:https?://www\.cbc\.ca)?(/radio/([a-z0-9-]+)/)['"][^>]*>(.*?)</a>`)
	reShowPath    = regexp.MustCompile(`(?i)/radio/([a-z0-9-]+)/`)
	reXMLURL      = regexp.MustCompile(`(?i)https?://[^"'\s>]+\.xml`)
	reTag         = regexp.MustCompile(`<[^>]+>`)
)

// slugs that are navigation, not shows
var skipSlugs = map[string]struct{}{
	"radio":       {},
	"podcastnews": {},
	"podcasts":    {},
	"listen":      {},
}

// IsStoryURL reports whether url points at a single story rather than a
// section: the path ends in -<digit>.<id>, optionally with a query string.
func IsStoryURL(url string) bool {
	return reStoryURL.MatchString(url)
}

// DiscoverFeedURL returns a feed link found directly in page markup, "" when
// the page advertises none.
func DiscoverFeedURL(html string) string {
	return reFeedURL.FindString(html)
}

// DiscoverStoryLinks collects story anchors from a section page, in document
// order, deduplicated by URL.
func DiscoverStoryLinks(html string) []domain.StoryLink {
	var links []domain.StoryLink
	seen := map[string]struct{}{}
	for _, m := range reStoryAnchor.FindAllStringSubmatch(html, -1) {
		url := "https://www.cbc.ca" + m[1]
		if _, ok := seen[url]; ok {
			continue
		}
		seen[url] = struct{}{}
		title := StripTags(m[2])
		if title == "" {
			title = url
		}
		links = append(links, domain.StoryLink{Title: title, URL: url})
	}
	return links
}

// DiscoverShowLinks collects show anchors from a section page. When no
// anchors survive, a looser scan over bare /radio/<slug>/ paths stands in so
// that index pages with unusual markup still yield something to pick from.
func DiscoverShowLinks(html string) []domain.ShowLink {
	var links []domain.ShowLink
	seen := map[string]struct{}{}
	for _, m := range reShowAnchor.FindAllStringSubmatch(html, -1) {
		slug := m[2]
		if _, skip := skipSlugs[slug]; skip {
			continue
		}
		if _, ok := seen[slug]; ok {
			continue
		}
		seen[slug] = struct{}{}
		title := StripTags(m[3])
		if title == "" {
			title = slug
		}
		links = append(links, domain.ShowLink{Title: title, Slug: slug})
	}
	if len(links) > 0 {
		return links
	}
	for _, m := range reShowPath.FindAllStringSubmatch(html, -1) {
		slug := strings.ToLower(m[1])
		if _, skip := skipSlugs[slug]; skip {
			continue
		}
		if _, ok := seen[slug]; ok {
			continue
		}
		seen[slug] = struct{}{}
		links = append(links, domain.ShowLink{Title: slug, Slug: slug})
	}
	return links
}

// DiscoverFeedSlugs scans the aggregator page for feed URLs and derives show
// slugs from them.
func DiscoverFeedSlugs(html string) []domain.ShowLink {
	var links []domain.ShowLink
	seen := map[string]struct{}{}
	for _, u := range reXMLURL.FindAllString(html, -1) {
		lower := strings.ToLower(u)
		idx := strings.Index(lower, "/podcasting/includes/")
		if idx < 0 {
			continue
		}
		slug := u[idx+len("/podcasting/includes/"):]
		slug = strings.TrimSuffix(slug, ".xml")
		slug = strings.TrimSpace(slug)
		if slug == "" {
			continue
		}
		if _, ok := seen[slug]; ok {
			continue
		}
		seen[slug] = struct{}{}
		links = append(links, domain.ShowLink{Title: slug, Slug: slug})
	}
	return links
}

// MergeShowLinks appends secondary entries whose slug is not already present.
func MergeShowLinks(primary, secondary []domain.ShowLink) []domain.ShowLink {
	seen := map[string]struct{}{}
	for _, s := range primary {
		seen[s.Slug] = struct{}{}
	}
	merged := append([]domain.ShowLink(nil), primary...)
	for _, s := range secondary {
		if _, ok := seen[s.Slug]; ok {
			continue
		}
		seen[s.Slug] = struct{}{}
		merged = append(merged, s)
	}
	return merged
}

// StripTags removes markup from anchor text.
func StripTags(text string) string {
	return strings.TrimSpace(reTag.ReplaceAllString(text, ""))
}
