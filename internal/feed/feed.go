// Package feed turns syndication XML into scoreable candidate entries.
package feed

import (
	"github.com/mmcdole/gofeed"

	"cbcgrab/internal/domain"
)

// Meta is channel-level display/tagging metadata, independent of items.
type Meta struct {
	Title    string `json:"title,omitempty"`
	ImageURL string `json:"imageUrl,omitempty"`
}

// Parse extracts the feed's items, dropping any without an enclosure URL.
// Duplicate enclosures are kept verbatim; the feed is trusted on order.
func Parse(xml string) ([]domain.FeedEntry, error) {
	parsed, err := gofeed.NewParser().ParseString(xml)
	if err != nil {
		return nil, &domain.Error{Kind: domain.KindParse, Message: "invalid feed XML", Err: err}
	}

	var entries []domain.FeedEntry
	for _, item := range parsed.Items {
		url := enclosureURL(item)
		if url == "" {
			continue
		}
		entries = append(entries, domain.FeedEntry{
			Title:        item.Title,
			Description:  item.Description,
			EnclosureURL: url,
			PubDate:      item.Published,
		})
	}
	if len(entries) == 0 {
		return nil, &domain.Error{Kind: domain.KindNotFound, Message: "no feed items with enclosures"}
	}
	return entries, nil
}

// Metadata reads the channel title and artwork, preferring the channel image
// and falling back to the itunes namespace.
func Metadata(xml string) (Meta, error) {
	parsed, err := gofeed.NewParser().ParseString(xml)
	if err != nil {
		return Meta{}, &domain.Error{Kind: domain.KindParse, Message: "invalid feed XML", Err: err}
	}

	meta := Meta{Title: parsed.Title}
	if parsed.Image != nil {
		meta.ImageURL = parsed.Image.URL
	}
	if meta.ImageURL == "" && parsed.ITunesExt != nil {
		meta.ImageURL = parsed.ITunesExt.Image
	}
	return meta, nil
}

func enclosureURL(item *gofeed.Item) string {
	for _, enc := range item.Enclosures {
		if enc != nil && enc.URL != "" {
			return enc.URL
		}
	}
	return ""
}
