package config

import (
	"os"
	"path/filepath"
	"strconv"
)

type Config struct {
	Addr     string
	DBPath   string
	CacheDir string
	// CacheTTLSeconds is the freshness window for cached fetches.
	CacheTTLSeconds int
	// SiteURL is the base of the content site; feeds live under
	// <SiteURL>/podcasting/includes/<slug>.xml.
	SiteURL     string
	DefaultShow string
}

func Default() Config {
	return Config{
		Addr:            envOr("CBCGRAB_ADDR", "127.0.0.1:8080"),
		DBPath:          envOr("CBCGRAB_DB_PATH", "cbcgrab.db"),
		CacheDir:        envOr("CBCGRAB_CACHE_DIR", defaultCacheDir()),
		CacheTTLSeconds: envIntOr("CBCGRAB_CACHE_TTL", 3600),
		SiteURL:         envOr("CBCGRAB_SITE_URL", "https://www.cbc.ca"),
		DefaultShow:     envOr("CBCGRAB_DEFAULT_SHOW", "ideas"),
	}
}

func defaultCacheDir() string {
	if base, err := os.UserCacheDir(); err == nil {
		return filepath.Join(base, "cbcgrab")
	}
	return ".cbcgrab-cache"
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntOr(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}
