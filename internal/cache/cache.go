package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// Store keeps one body file and one metadata file per cached URL, keyed by
// the hex sha256 of the URL. Entries are never deleted; stale or corrupt
// pairs read as a miss and get overwritten by the next fetch. Concurrent
// writers to the same key may interleave the two writes; last writer wins
// and a mismatched pair heals itself as a miss on the next read.
type Store struct {
	dir string
	ttl time.Duration
}

// Meta holds the validators needed for a conditional refetch.
type Meta struct {
	FetchedAt    int64  `json:"fetched_at"`
	ETag         string `json:"etag,omitempty"`
	LastModified string `json:"last_modified,omitempty"`
}

func New(dir string, ttl time.Duration) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Store{dir: dir, ttl: ttl}, nil
}

func (s *Store) TTL() time.Duration { return s.ttl }

func (s *Store) paths(url string) (body, meta string) {
	sum := sha256.Sum256([]byte(url))
	key := hex.EncodeToString(sum[:])
	return filepath.Join(s.dir, key+".body"), filepath.Join(s.dir, key+".meta.json")
}

// Get returns the cached body and validators for url, or ok=false when the
// entry is missing, stale (older than the TTL), or unreadable.
func (s *Store) Get(url string) (string, Meta, bool) {
	bodyPath, metaPath := s.paths(url)

	raw, err := os.ReadFile(metaPath)
	if err != nil {
		return "", Meta{}, false
	}
	var meta Meta
	if err := json.Unmarshal(raw, &meta); err != nil {
		return "", Meta{}, false
	}
	if time.Since(time.Unix(meta.FetchedAt, 0)) > s.ttl {
		return "", Meta{}, false
	}

	body, err := os.ReadFile(bodyPath)
	if err != nil {
		return "", Meta{}, false
	}
	return string(body), meta, true
}

// Put overwrites the entry for url with a fresh timestamp. A served 304 must
// NOT go through Put: freshness stays anchored at the original fetch, so the
// entry is revalidated once per TTL even when content never changes.
func (s *Store) Put(url, body, etag, lastModified string) error {
	bodyPath, metaPath := s.paths(url)
	meta := Meta{
		FetchedAt:    time.Now().Unix(),
		ETag:         etag,
		LastModified: lastModified,
	}
	raw, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	if err := os.WriteFile(bodyPath, []byte(body), 0o644); err != nil {
		return err
	}
	return os.WriteFile(metaPath, raw, 0o644)
}
