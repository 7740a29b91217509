// Package match scores feed entries against a story's target descriptor.
// Scoring is a pure function of (target, entry): same inputs, same score.
package match

import (
	"html"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"cbcgrab/internal/domain"
)

var stopwords = map[string]struct{}{
	"the": {}, "and": {}, "a": {}, "an": {}, "of": {}, "to": {}, "in": {},
	"for": {}, "on": {}, "with": {}, "is": {}, "are": {}, "was": {},
	"were": {}, "be": {}, "as": {}, "at": {}, "by": {}, "it": {},
	"this": {}, "that": {}, "from": {}, "or": {},
}

var (
	reToken = regexp.MustCompile(`[a-z0-9']+`)
	// "Pt 2" / "pt2", applied to lowercased titles.
	rePart = regexp.MustCompile(`\bpt\s*(\d+)\b`)
)

// Accent folding so "Québec" and "Quebec" tokenize identically; show titles
// mix French and English.
var foldAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Tokenize lowercases, entity-decodes, folds accents and extracts
// alphanumeric-plus-apostrophe runs, dropping stopwords.
func Tokenize(text string) []string {
	text = html.UnescapeString(text)
	if folded, _, err := transform.String(foldAccents, text); err == nil {
		text = folded
	}
	text = strings.ToLower(text)

	var tokens []string
	for _, tok := range reToken.FindAllString(text, -1) {
		if _, skip := stopwords[tok]; skip {
			continue
		}
		tokens = append(tokens, tok)
	}
	return tokens
}

// TokenSet is the deduplicated union of tokens across texts. Overlap is a
// set comparison: repeated tokens count once.
func TokenSet(texts ...string) map[string]struct{} {
	set := map[string]struct{}{}
	for _, text := range texts {
		for _, tok := range Tokenize(text) {
			set[tok] = struct{}{}
		}
	}
	return set
}

// PartNumber extracts the multi-part ordinal from a title ("Pt 2" / "pt2").
func PartNumber(title string) (int, bool) {
	m := rePart.FindStringSubmatch(strings.ToLower(title))
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

var pubDateLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
	time.RFC3339,
}

// ParsePubDateMS converts a feed pubDate string to epoch milliseconds.
func ParsePubDateMS(pubdate string) (int64, bool) {
	pubdate = strings.TrimSpace(pubdate)
	if pubdate == "" {
		return 0, false
	}
	for _, layout := range pubDateLayouts {
		if t, err := time.Parse(layout, pubdate); err == nil {
			return t.UnixMilli(), true
		}
	}
	return 0, false
}

const dayMS = int64(24 * time.Hour / time.Millisecond)

// Score rates one entry against the target:
//
//  1. token-set overlap between target and entry title+description,
//  2. part-number tie-break: equal parts +10, differing parts -5
//     (a same-title wrong-part entry must rank below an unrelated one),
//  3. publish-date proximity when the target has a timestamp: +10 on the
//     same day, decaying by one per whole day, nothing past seven days.
//
// Scores may go negative; that is the penalty doing its job.
func Score(target domain.TargetDescriptor, entry domain.FeedEntry) int {
	targetTokens := TokenSet(target.Title, target.Description)
	entryTokens := TokenSet(entry.Title, entry.Description)

	score := 0
	for tok := range entryTokens {
		if _, ok := targetTokens[tok]; ok {
			score++
		}
	}

	if targetPart, ok := PartNumber(target.Title); ok {
		if entryPart, ok := PartNumber(entry.Title); ok {
			if targetPart == entryPart {
				score += 10
			} else {
				score -= 5
			}
		}
	}

	if target.TimestampMS != 0 {
		if entryMS, ok := ParsePubDateMS(entry.PubDate); ok {
			diff := target.TimestampMS - entryMS
			if diff < 0 {
				diff = -diff
			}
			if diff <= 7*dayMS {
				if bonus := 10 - int(diff/dayMS); bonus > 0 {
					score += bonus
				}
			}
		}
	}

	return score
}

// ScoreAll assigns scores in place, preserving feed order.
func ScoreAll(target domain.TargetDescriptor, entries []domain.FeedEntry) {
	for i := range entries {
		entries[i].Score = Score(target, entries[i])
	}
}
