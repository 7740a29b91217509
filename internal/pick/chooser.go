package pick

import (
	"strconv"
	"strings"
)

// PageSize is the fixed number of entries shown per page.
const PageSize = 5

type Outcome int

const (
	// Continue: state changed (or didn't); render and prompt again.
	Continue Outcome = iota
	// Picked: a selection was made; Apply returns it.
	Picked
	// Canceled: blank input; no selection.
	Canceled
)

// Chooser is the paging/filtering selection loop as an explicit state
// machine: state is (visible list, page index), Apply is the transition
// function. Keeping the prompt I/O outside makes every transition testable.
type Chooser[T any] struct {
	full    []T
	visible []T
	page    int

	// matches reports whether an item survives a case-insensitive filter
	// query. The query arrives already lowercased.
	matches func(item T, query string) bool
}

func NewChooser[T any](items []T, matches func(item T, query string) bool) *Chooser[T] {
	c := &Chooser[T]{full: items, matches: matches}
	c.visible = items
	return c
}

func (c *Chooser[T]) Total() int { return len(c.visible) }

// PageBounds returns the 0-based [start, end) range of the current page.
func (c *Chooser[T]) PageBounds() (int, int) {
	start := c.page * PageSize
	end := start + PageSize
	if end > len(c.visible) {
		end = len(c.visible)
	}
	return start, end
}

func (c *Chooser[T]) PageItems() []T {
	start, end := c.PageBounds()
	return c.visible[start:end]
}

// Apply feeds one line of user input through the state machine:
//
//	""        cancel
//	"/text"   filter to items matching text; "/" alone resets; a filter
//	          matching nothing resets and returns a note saying so
//	"n"/"next", "p"/"prev"  page movement, no-ops at the edges
//	"3"       pick the third item on the current page
//
// The picked item and an optional user-facing note accompany the outcome.
func (c *Chooser[T]) Apply(input string) (Outcome, T, string) {
	var zero T
	input = strings.ToLower(strings.TrimSpace(input))

	switch {
	case input == "":
		return Canceled, zero, ""

	case strings.HasPrefix(input, "/"):
		query := strings.TrimSpace(input[1:])
		if query == "" {
			c.visible = c.full
			c.page = 0
			return Continue, zero, ""
		}
		var filtered []T
		for _, item := range c.full {
			if c.matches(item, query) {
				filtered = append(filtered, item)
			}
		}
		c.page = 0
		if len(filtered) == 0 {
			c.visible = c.full
			return Continue, zero, "nothing matches that filter"
		}
		c.visible = filtered
		return Continue, zero, ""

	case input == "n" || input == "next":
		if (c.page+1)*PageSize < len(c.visible) {
			c.page++
		}
		return Continue, zero, ""

	case input == "p" || input == "prev":
		if c.page > 0 {
			c.page--
		}
		return Continue, zero, ""
	}

	if n, err := strconv.Atoi(input); err == nil {
		start, end := c.PageBounds()
		if n >= 1 && n <= end-start {
			return Picked, c.visible[start+n-1], ""
		}
	}
	return Continue, zero, ""
}
