// Package pick chooses among scored candidates: automatically when the top
// score stands clear, interactively (via the Chooser state machine) when it
// does not.
package pick

import (
	"sort"

	"cbcgrab/internal/domain"
)

// ambiguityMargin: when the top two scores sit this close, automatic
// selection is not trusted and interactive disambiguation should be offered.
const ambiguityMargin = 3

// SortByScore returns a copy sorted by score descending. The sort is stable
// so entries with equal scores keep their feed order.
func SortByScore(entries []domain.FeedEntry) []domain.FeedEntry {
	sorted := append([]domain.FeedEntry(nil), entries...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Score > sorted[j].Score
	})
	return sorted
}

// Best returns the top-scoring entry from a SortByScore result. A top score
// of zero or less means nothing credibly matches and is rejected rather than
// guessed at.
func Best(sorted []domain.FeedEntry) (domain.FeedEntry, error) {
	if len(sorted) == 0 {
		return domain.FeedEntry{}, &domain.Error{Kind: domain.KindNotFound, Message: "no candidate entries"}
	}
	best := sorted[0]
	if best.Score <= 0 {
		return domain.FeedEntry{}, &domain.Error{Kind: domain.KindNotConfident, Message: "no confident feed match for the story audio"}
	}
	return best, nil
}

// Ambiguous reports whether the top two entries score too close to pick
// automatically.
func Ambiguous(sorted []domain.FeedEntry) bool {
	return len(sorted) > 1 && sorted[0].Score-sorted[1].Score <= ambiguityMargin
}
