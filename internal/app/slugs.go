package app

import "strings"

// CandidateSlugs lists the spellings tried when resolving a show's feed:
// the slug as given, then with hyphens removed, then with a leading "the-"
// or "the" stripped. A slug containing a slash is an explicit path and is
// used verbatim.
func CandidateSlugs(slug string) []string {
	if strings.Contains(slug, "/") {
		return []string{slug}
	}
	candidates := []string{slug}
	if strings.Contains(slug, "-") {
		candidates = append(candidates, strings.ReplaceAll(slug, "-", ""))
	}
	if strings.HasPrefix(slug, "the-") {
		candidates = append(candidates, slug[4:])
	} else if strings.HasPrefix(slug, "the") {
		candidates = append(candidates, slug[3:])
	}

	out := candidates[:0]
	for _, c := range candidates {
		if c != "" {
			out = append(out, c)
		}
	}
	return out
}
