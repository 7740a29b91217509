package main

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"cbcgrab/internal/app"
	"cbcgrab/internal/cache"
	"cbcgrab/internal/domain"
	"cbcgrab/internal/fetch"
	"cbcgrab/internal/pick"
)

func TestEntryFilterMatchesDescriptions(t *testing.T) {
	entries := []domain.FeedEntry{
		{Title: "First episode"},
		{Title: "Second episode", Description: "all about zebras"},
	}

	c := pick.NewChooser(entries, entryMatches)
	outcome, _, note := c.Apply("/zebra")
	if outcome != pick.Continue || note != "" {
		t.Fatalf("filter should narrow silently, got outcome=%v note=%q", outcome, note)
	}
	if c.Total() != 1 {
		t.Fatalf("expected one description match, got %d visible", c.Total())
	}

	outcome, picked, _ := c.Apply("1")
	if outcome != pick.Picked || picked.Title != "Second episode" {
		t.Fatalf("expected the entry matched by description, got %v %q", outcome, picked.Title)
	}
}

func storyHTML(title string, publishedMS int64) string {
	return fmt.Sprintf(`<html><body>
<script>window.__INITIAL_STATE__ = {"detail":{"content":{"body":[
 {"type":"polopoly_media","content":{"type":"audio","title":%q,"showSlug":"ideas","publishedAt":%d}}
]}}};
</script></body></html>`, title, publishedMS)
}

func TestRepairResolutionBypassesCache(t *testing.T) {
	published := time.Now().UTC()
	feedServes := 0

	mux := http.NewServeMux()
	mux.HandleFunc("/radio/ideas/story-1.7000010", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, storyHTML("Story", published.UnixMilli()))
	})
	mux.HandleFunc("/podcasting/includes/ideas.xml", func(w http.ResponseWriter, r *http.Request) {
		// The enclosure URL changes on every serve, like a CDN rotating
		// expiring links.
		feedServes++
		fmt.Fprintf(w, `<?xml version="1.0"?><rss version="2.0"><channel><title>Ideas</title><item><title>Story</title><enclosure url="https://media.example.org/v%d.mp3" length="1" type="audio/mpeg"/><pubDate>%s</pubDate></item></channel></rss>`,
			feedServes, published.Format(time.RFC1123Z))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	store, err := cache.New(t.TempDir(), time.Hour)
	if err != nil {
		t.Fatalf("cache.New: %v", err)
	}
	client := fetch.New(store, zerolog.Nop())
	e := &env{
		logger:   zerolog.Nop(),
		client:   client,
		resolver: app.NewResolver(zerolog.Nop(), client, srv.URL, "ideas"),
	}
	flags := &rootFlags{repair: true}
	url := srv.URL + "/radio/ideas/story-1.7000010"

	first, err := e.resolver.ResolveStory(context.Background(), url, app.Options{})
	if err != nil {
		t.Fatalf("ResolveStory: %v", err)
	}
	if first.EnclosureURL != "https://media.example.org/v1.mp3" {
		t.Fatalf("first resolution: %q", first.EnclosureURL)
	}

	fresh, err := repairResolution(context.Background(), e, flags, url)
	if err != nil {
		t.Fatalf("repairResolution: %v", err)
	}
	if fresh.EnclosureURL != "https://media.example.org/v2.mp3" {
		t.Fatalf("repair must bypass the cache and re-resolve, got %q", fresh.EnclosureURL)
	}
}
