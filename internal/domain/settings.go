package domain

type Settings struct {
	// DefaultShow is the slug used when a page exposes none.
	DefaultShow string `json:"defaultShow"`

	// CacheTTLSeconds bounds how long fetched bodies stay fresh.
	CacheTTLSeconds int `json:"cacheTtlSeconds"`

	// Concurrency knobs for the server's worker pool.
	MaxWorkers            int `json:"maxWorkers"`
	MaxConcurrentResolves int `json:"maxConcurrentResolves"`

	// Download handoff defaults.
	OutputDir   string `json:"outputDir"`
	AudioFormat string `json:"audioFormat"`
}

func DefaultSettings() Settings {
	return Settings{
		DefaultShow:           "ideas",
		CacheTTLSeconds:       3600,
		MaxWorkers:            2,
		MaxConcurrentResolves: 4,
		OutputDir:             "downloads",
		AudioFormat:           "mp3",
	}
}
