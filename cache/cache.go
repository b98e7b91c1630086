// Package cache persists scraped products between runs so repeated
// collect calls don't refetch the sites.
package cache

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/soorajb/dealscout/models"
)

// Envelope is the persisted cache document: a write timestamp paired
// with platform-keyed product lists. Unknown fields in an existing
// file are ignored on load.
type Envelope struct {
	Timestamp time.Time                    `json:"timestamp"`
	Products  map[string][]*models.Product `json:"products"`
}

// Cache is a JSON file store with a single global expiry window.
type Cache struct {
	path   string
	expiry time.Duration
}

// New builds a cache around the given file path.
func New(path string, expiry time.Duration) *Cache {
	return &Cache{path: path, expiry: expiry}
}

// Load reads the envelope and returns its product mapping. A missing,
// unreadable, corrupt or expired file yields an empty mapping; the
// cache never fails a scrape.
func (c *Cache) Load() map[string][]*models.Product {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("cache unreadable", slog.String("path", c.path), slog.Any("error", err))
		}
		return map[string][]*models.Product{}
	}

	var envelope Envelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		slog.Warn("cache corrupt", slog.String("path", c.path), slog.Any("error", err))
		return map[string][]*models.Product{}
	}
	if time.Since(envelope.Timestamp) >= c.expiry {
		slog.Info("cache expired",
			slog.String("path", c.path),
			slog.Time("written", envelope.Timestamp),
		)
		return map[string][]*models.Product{}
	}
	if envelope.Products == nil {
		return map[string][]*models.Product{}
	}
	return envelope.Products
}

// Save replaces the cache file with a fresh envelope stamped now. The
// write goes through a temp file and a rename so concurrent savers
// cannot interleave partial content.
func (c *Cache) Save(products map[string][]*models.Product) error {
	envelope := Envelope{
		Timestamp: time.Now(),
		Products:  products,
	}
	data, err := json.MarshalIndent(envelope, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal cache envelope: %w", err)
	}

	dir := filepath.Dir(c.path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create cache directory %q: %w", dir, err)
		}
	}

	tmp, err := os.CreateTemp(dir, ".cache-*.json")
	if err != nil {
		return fmt.Errorf("create cache temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write cache temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close cache temp file: %w", err)
	}
	if err := os.Rename(tmpName, c.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace cache file: %w", err)
	}
	return nil
}
