package app

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"cbcgrab/internal/domain"
	"cbcgrab/internal/feed"
	"cbcgrab/internal/fetch"
	"cbcgrab/internal/match"
	"cbcgrab/internal/page"
	"cbcgrab/internal/pick"
)

// Providers are the preset show slugs accepted by --provider. "auto" defers
// to the page.
var Providers = map[string]string{
	"auto":        "",
	"ideas":       "ideas",
	"thecurrent":  "thecurrent",
	"q":           "q",
	"asithappens": "asithappens",
	"day6":        "day6",
}

// Options is the caller-supplied override bundle for one resolution.
type Options struct {
	ShowOverride    string
	FeedURLOverride string
	TitleOverride   string
	Provider        string

	// IgnoreCache bypasses the fetch cache; set for the repair pass.
	IgnoreCache bool
}

// Resolution is the outcome of a story resolution: the chosen enclosure plus
// everything a caller needs to download, tag, or second-guess the choice.
type Resolution struct {
	EnclosureURL string                  `json:"enclosureUrl"`
	Entry        domain.FeedEntry        `json:"entry"`
	Target       domain.TargetDescriptor `json:"target"`
	ShowSlug     string                  `json:"showSlug"`
	FeedURL      string                  `json:"feedUrl"`
	Feed         feed.Meta               `json:"feed"`

	// Candidates holds every scored entry, best first (stable on ties).
	Candidates []domain.FeedEntry `json:"candidates,omitempty"`
	// Ambiguous flags a top-two score gap small enough that an interactive
	// caller should confirm the pick.
	Ambiguous bool `json:"ambiguous"`
}

// ShowFeed is a show's feed resolved without a target story: entries are in
// feed order with zero scores, for display and manual selection only.
type ShowFeed struct {
	ShowSlug string             `json:"showSlug"`
	FeedURL  string             `json:"feedUrl"`
	Feed     feed.Meta          `json:"feed"`
	Entries  []domain.FeedEntry `json:"entries"`
}

// Listing is what a section page offers for drill-down.
type Listing struct {
	Stories []domain.StoryLink `json:"stories,omitempty"`
	Shows   []domain.ShowLink  `json:"shows,omitempty"`
	// FeedURL is a feed link advertised directly on the listing page.
	FeedURL string `json:"feedUrl,omitempty"`
}

var reRadioSlug = regexp.MustCompile(`/radio/([a-z0-9-]+)/`)

// Resolver turns a story page URL into a downloadable enclosure URL. It
// holds no per-call state: any number of callers may resolve concurrently,
// sharing only the on-disk fetch cache.
type Resolver struct {
	logger      zerolog.Logger
	client      *fetch.Client
	siteURL     string
	defaultShow string
}

func NewResolver(logger zerolog.Logger, client *fetch.Client, siteURL, defaultShow string) *Resolver {
	if siteURL == "" {
		siteURL = "https://www.cbc.ca"
	}
	if defaultShow == "" {
		defaultShow = "ideas"
	}
	return &Resolver{
		logger:      logger,
		client:      client,
		siteURL:     strings.TrimRight(siteURL, "/"),
		defaultShow: defaultShow,
	}
}

// IsStoryURL classifies pageURL as a single story vs a section listing.
func (r *Resolver) IsStoryURL(pageURL string) bool { return page.IsStoryURL(pageURL) }

// FetchPage exposes the cached fetcher to callers driving the listing flow.
func (r *Resolver) FetchPage(ctx context.Context, pageURL string, ignoreCache bool) (string, error) {
	return r.client.Text(ctx, pageURL, ignoreCache)
}

// ResolveStory runs the full pipeline for a single story page: fetch page,
// extract the audio target, locate and parse the show feed, score every
// entry and pick the best. A top score of zero or less fails with a
// not-confident error; callers holding a terminal may instead offer the
// Candidates list for interactive confirmation.
func (r *Resolver) ResolveStory(ctx context.Context, pageURL string, opts Options) (Resolution, error) {
	if err := validate(opts); err != nil {
		return Resolution{}, err
	}

	html, err := r.client.Text(ctx, pageURL, opts.IgnoreCache)
	if err != nil {
		return Resolution{}, err
	}

	state, err := page.ExtractState(html)
	if err != nil {
		return Resolution{}, err
	}
	audio, err := page.FindAudioBlock(state)
	if err != nil {
		return Resolution{}, err
	}

	target := page.Target(audio, state)
	if opts.TitleOverride != "" {
		target.Title = opts.TitleOverride
	}
	if part, ok := match.PartNumber(target.Title); ok {
		target.Part = part
	}

	slug := r.resolveShowSlug(opts.Provider, opts.ShowOverride, target.ShowSlug, pageURL)
	target.ShowSlug = slug

	r.logger.Debug().
		Str("title", target.Title).
		Str("show", slug).
		Int64("timestamp_ms", target.TimestampMS).
		Msg("target extracted")

	feedURL, feedXML, err := r.locateFeed(ctx, html, slug, opts)
	if err != nil {
		return Resolution{}, err
	}

	entries, err := feed.Parse(feedXML)
	if err != nil {
		return Resolution{}, err
	}
	meta, _ := feed.Metadata(feedXML)

	match.ScoreAll(target, entries)
	sorted := pick.SortByScore(entries)

	res := Resolution{
		Target:     target,
		ShowSlug:   slug,
		FeedURL:    feedURL,
		Feed:       meta,
		Candidates: sorted,
		Ambiguous:  pick.Ambiguous(sorted),
	}

	best, err := pick.Best(sorted)
	if err != nil {
		// A not-confident failure still carries the scored candidates so an
		// interactive caller can offer them for manual selection.
		if domain.KindOf(err) == domain.KindNotConfident {
			return res, err
		}
		return Resolution{}, err
	}
	res.Entry = best
	res.EnclosureURL = best.EnclosureURL
	r.logger.Debug().
		Str("enclosure", best.EnclosureURL).
		Int("score", best.Score).
		Bool("ambiguous", res.Ambiguous).
		Msg("story resolved")
	return res, nil
}

// ResolveShow fetches and parses a show's feed with no story to match
// against: the show page is probed for an advertised feed link, then the
// conventional URL with slug variants. Entries are returned in feed order,
// unscored, for the caller to rank or present.
func (r *Resolver) ResolveShow(ctx context.Context, slug string, opts Options) (ShowFeed, error) {
	if err := validate(opts); err != nil {
		return ShowFeed{}, err
	}

	var html string
	if opts.FeedURLOverride == "" {
		// Best effort: a missing show page just means no advertised link.
		if h, err := r.client.Text(ctx, r.siteURL+"/radio/"+slug+"/", opts.IgnoreCache); err == nil {
			html = h
		}
	}

	feedURL, feedXML, err := r.locateFeed(ctx, html, slug, opts)
	if err != nil {
		return ShowFeed{}, err
	}
	entries, err := feed.Parse(feedXML)
	if err != nil {
		return ShowFeed{}, err
	}
	meta, _ := feed.Metadata(feedXML)

	return ShowFeed{ShowSlug: slug, FeedURL: feedURL, Feed: meta, Entries: entries}, nil
}

// DiscoverListing collects the stories and shows reachable from a section
// page, augmenting show discovery from the aggregator page (merged by slug,
// duplicates dropped). The aggregator fetch is best effort.
func (r *Resolver) DiscoverListing(ctx context.Context, html string, opts Options) Listing {
	shows := page.DiscoverShowLinks(html)

	aggregatorURL := r.siteURL + "/podcasting/"
	if aggHTML, err := r.client.Text(ctx, aggregatorURL, true); err == nil {
		shows = page.MergeShowLinks(shows, page.DiscoverFeedSlugs(aggHTML))
	} else {
		r.logger.Debug().Err(err).Str("url", aggregatorURL).Msg("aggregator discovery skipped")
	}

	return Listing{
		Stories: page.DiscoverStoryLinks(html),
		Shows:   shows,
		FeedURL: page.DiscoverFeedURL(html),
	}
}

// locateFeed finds and fetches the feed XML for a show: an explicit override
// wins, then a feed link advertised in the page markup, then the
// conventional URL retried across candidate slug spellings. Each candidate
// is tried only after the previous fetch fails; the last fetch error rides
// along when everything misses.
func (r *Resolver) locateFeed(ctx context.Context, html, slug string, opts Options) (string, string, error) {
	if opts.FeedURLOverride != "" {
		xml, err := r.client.Text(ctx, opts.FeedURLOverride, opts.IgnoreCache)
		return opts.FeedURLOverride, xml, err
	}

	if discovered := page.DiscoverFeedURL(html); discovered != "" {
		xml, err := r.client.Text(ctx, discovered, opts.IgnoreCache)
		if err == nil {
			return discovered, xml, nil
		}
		r.logger.Debug().Err(err).Str("url", discovered).Msg("advertised feed unreachable, falling back to slug")
	}

	var lastErr error
	for _, candidate := range CandidateSlugs(slug) {
		url := fmt.Sprintf("%s/podcasting/includes/%s.xml", r.siteURL, candidate)
		xml, err := r.client.Text(ctx, url, opts.IgnoreCache)
		if err == nil {
			return url, xml, nil
		}
		lastErr = err
	}
	return "", "", &domain.Error{
		Kind:    domain.KindNotFound,
		Message: fmt.Sprintf("no working feed for show slug %q", slug),
		Err:     lastErr,
	}
}

// resolveShowSlug picks the slug for feed lookup: explicit override, then
// provider preset, then the /radio/<slug>/ segment of the page URL, then the
// page's embedded slug, then the configured default.
func (r *Resolver) resolveShowSlug(provider, override, embedded, pageURL string) string {
	if override != "" {
		return override
	}
	if preset := Providers[provider]; preset != "" {
		return preset
	}
	if m := reRadioSlug.FindStringSubmatch(pageURL); m != nil {
		return m[1]
	}
	if s := strings.TrimSpace(embedded); s != "" {
		return s
	}
	return r.defaultShow
}

func validate(opts Options) error {
	if opts.Provider != "" {
		if _, ok := Providers[opts.Provider]; !ok {
			return &domain.Error{Kind: domain.KindInvalidParams, Message: fmt.Sprintf("unknown provider %q", opts.Provider)}
		}
	}
	if opts.FeedURLOverride != "" && opts.ShowOverride != "" {
		return &domain.Error{Kind: domain.KindInvalidParams, Message: "use a feed URL override or a show override, not both"}
	}
	return nil
}
