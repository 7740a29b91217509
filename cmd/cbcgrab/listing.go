package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"cbcgrab/internal/domain"
)

// runListing handles a non-story URL: offer the stories linked from the
// page, or fall back to show browsing when it links none.
func runListing(ctx context.Context, e *env, flags *rootFlags, pageURL string) error {
	if !flags.interactive() {
		return &domain.Error{Kind: domain.KindInvalidParams, Message: "listing pages need an interactive terminal; pass a story URL instead"}
	}

	html, err := e.resolver.FetchPage(ctx, pageURL, flags.noCache || flags.repair)
	if err != nil {
		return err
	}
	listing := e.resolver.DiscoverListing(ctx, html, flags.options())

	if len(listing.Stories) > 0 {
		story, ok, err := chooseStory(listing.Stories)
		if err != nil {
			return err
		}
		if !ok {
			return errCanceled
		}
		return grabStory(ctx, e, flags, story.URL)
	}

	if len(listing.Shows) > 0 {
		show, ok, err := chooseShow(listing.Shows)
		if err != nil {
			return err
		}
		if !ok {
			return errCanceled
		}
		return grabFromShow(ctx, e, flags, show.Slug)
	}

	return &domain.Error{Kind: domain.KindNotFound, Message: "no stories or shows found on that page"}
}

// grabFromShow lists a show's feed and downloads the chosen episode.
func grabFromShow(ctx context.Context, e *env, flags *rootFlags, slug string) error {
	feed, err := e.resolver.ResolveShow(ctx, slug, flags.options())
	if err != nil {
		return err
	}
	if flags.rssOnly {
		fmt.Println(feed.FeedURL)
		return nil
	}
	if len(feed.Entries) == 0 {
		return &domain.Error{Kind: domain.KindNotFound, Message: "feed has no entries"}
	}

	entry, ok, perr := chooseFeedEntry(feed.Entries)
	if perr != nil {
		return perr
	}
	if !ok {
		return errCanceled
	}

	return downloadEntry(ctx, e, flags, slug, entry, feed.Feed.Title, feed.Feed.ImageURL)
}

func chooseStory(stories []domain.StoryLink) (domain.StoryLink, bool, error) {
	p := newPrompter()
	matches := func(s domain.StoryLink, query string) bool {
		return strings.Contains(strings.ToLower(s.Title), query)
	}
	render := func(page []domain.StoryLink, start, total int) {
		rows := make([][]string, 0, len(page))
		for i, s := range page {
			rows = append(rows, []string{strconv.Itoa(i + 1), s.Title})
		}
		fmt.Fprintln(p.out, renderTable([]string{"#", "Story"}, rows, []columnAlignment{alignRight, alignLeft}))
		fmt.Fprintf(p.out, "showing %d-%d of %d\n", start, start+len(page)-1, total)
	}
	return choose(p, stories, matches, render)
}

func chooseShow(shows []domain.ShowLink) (domain.ShowLink, bool, error) {
	p := newPrompter()
	matches := func(s domain.ShowLink, query string) bool {
		return strings.Contains(strings.ToLower(s.Title), query) ||
			strings.Contains(strings.ToLower(s.Slug), query)
	}
	render := func(page []domain.ShowLink, start, total int) {
		rows := make([][]string, 0, len(page))
		for i, s := range page {
			rows = append(rows, []string{strconv.Itoa(i + 1), s.Title, s.Slug})
		}
		fmt.Fprintln(p.out, renderTable([]string{"#", "Show", "Slug"}, rows, []columnAlignment{alignRight, alignLeft, alignLeft}))
		fmt.Fprintf(p.out, "showing %d-%d of %d\n", start, start+len(page)-1, total)
	}
	return choose(p, shows, matches, render)
}

func chooseFeedEntry(entries []domain.FeedEntry) (domain.FeedEntry, bool, error) {
	p := newPrompter()
	render := func(page []domain.FeedEntry, start, total int) {
		rows := make([][]string, 0, len(page))
		for i, entry := range page {
			rows = append(rows, []string{strconv.Itoa(i + 1), entry.PubDate, entry.Title})
		}
		fmt.Fprintln(p.out, renderTable([]string{"#", "Published", "Title"}, rows, []columnAlignment{alignRight, alignLeft, alignLeft}))
		fmt.Fprintf(p.out, "showing %d-%d of %d\n", start, start+len(page)-1, total)
	}
	return choose(p, entries, entryMatches, render)
}
