package domain

// TargetDescriptor is the audio metadata pulled out of a story page. It is
// built once per resolution and used as the query against feed entries.
type TargetDescriptor struct {
	Title       string `json:"title"`
	Description string `json:"description"`

	// Part is the multi-part ordinal from the title ("Pt 2"), 0 when absent.
	Part int `json:"part,omitempty"`

	// TimestampMS is the story publish/update/air time in epoch milliseconds,
	// 0 when the page exposes none. Matching degrades to token overlap only.
	TimestampMS int64 `json:"timestampMs,omitempty"`

	ShowSlug string `json:"showSlug,omitempty"`
	ImageURL string `json:"imageUrl,omitempty"`
}
