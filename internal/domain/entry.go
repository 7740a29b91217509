package domain

// FeedEntry is one candidate episode from a show's RSS feed. Identity is the
// enclosure URL; the parser drops items without one.
type FeedEntry struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	EnclosureURL string `json:"enclosureUrl"`

	// PubDate keeps the feed's raw date string; parsing happens at scoring
	// time and failures simply contribute no temporal bonus.
	PubDate string `json:"pubDate"`

	// Score is assigned by the matcher, 0 until scored.
	Score int `json:"score"`
}

// StoryLink is a story anchor discovered on a section/listing page.
type StoryLink struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// ShowLink is a show anchor or feed slug discovered on a listing page.
type ShowLink struct {
	Title string `json:"title"`
	Slug  string `json:"slug"`
}
