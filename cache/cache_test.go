package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/soorajb/dealscout/models"
)

func sampleProducts() map[string][]*models.Product {
	return map[string][]*models.Product{
		"Flipkart": {
			{
				Title:       "ASUS VivoBook 15",
				Description: "8GB RAM, 512GB SSD",
				Price:       "₹42,999",
				Rating:      "4.3",
				Reviews:     "(12,204)",
				Link:        "https://www.flipkart.com/asus-vivobook-15?pid=COMG",
				Image:       "https://img.test/asus.png",
				ScrapedAt:   time.Date(2025, 11, 4, 12, 30, 0, 0, time.UTC),
				Platform:    models.PlatformFlipkart,
			},
			{
				Title:     "boAt Rockerz 450",
				Price:     "₹1,499",
				Rating:    models.NoRating,
				Reviews:   models.NoReviews,
				Link:      "https://www.flipkart.com/boat-rockerz-450",
				ScrapedAt: time.Date(2025, 11, 4, 12, 30, 0, 0, time.UTC),
				Platform:  models.PlatformFlipkart,
			},
		},
	}
}

func TestCacheRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "products_cache.json")
	c := New(path, 24*time.Hour)

	want := sampleProducts()
	if err := c.Save(want); err != nil {
		t.Fatalf("save: %v", err)
	}

	got := c.Load()
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("round trip mismatch:\ngot  %#v\nwant %#v", got, want)
	}
}

func TestCacheLoadMissingFile(t *testing.T) {
	c := New(filepath.Join(t.TempDir(), "absent.json"), 24*time.Hour)
	got := c.Load()
	if got == nil || len(got) != 0 {
		t.Fatalf("missing file should load as empty mapping, got %#v", got)
	}
}

func TestCacheLoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "products_cache.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write corrupt file: %v", err)
	}

	got := New(path, 24*time.Hour).Load()
	if len(got) != 0 {
		t.Fatalf("corrupt file should load as empty mapping, got %#v", got)
	}
}

func TestCacheLoadExpired(t *testing.T) {
	path := filepath.Join(t.TempDir(), "products_cache.json")
	expiry := 24 * time.Hour

	envelope := Envelope{
		Timestamp: time.Now().Add(-expiry - time.Second),
		Products:  sampleProducts(),
	}
	data, err := json.Marshal(envelope)
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write envelope: %v", err)
	}

	got := New(path, expiry).Load()
	if len(got) != 0 {
		t.Fatalf("expired envelope should load as empty mapping, got %d platforms", len(got))
	}
}

func TestCacheLoadFreshEnvelope(t *testing.T) {
	path := filepath.Join(t.TempDir(), "products_cache.json")
	expiry := 24 * time.Hour

	envelope := Envelope{
		Timestamp: time.Now().Add(-expiry / 2),
		Products:  sampleProducts(),
	}
	data, err := json.Marshal(envelope)
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write envelope: %v", err)
	}

	got := New(path, expiry).Load()
	if len(got["Flipkart"]) != 2 {
		t.Fatalf("fresh envelope should load, got %#v", got)
	}
}

func TestCacheLoadIgnoresUnknownFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "products_cache.json")

	doc := map[string]interface{}{
		"timestamp":      time.Now().Format(time.RFC3339),
		"products":       map[string]interface{}{},
		"schema_version": 7,
		"extra":          []string{"ignored"},
	}
	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal doc: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write doc: %v", err)
	}

	got := New(path, 24*time.Hour).Load()
	if got == nil {
		t.Fatalf("unknown fields must not fail the load")
	}
}

func TestCacheSaveReplacesPreviousContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "products_cache.json")
	c := New(path, 24*time.Hour)

	if err := c.Save(sampleProducts()); err != nil {
		t.Fatalf("first save: %v", err)
	}

	replacement := map[string][]*models.Product{
		"Amazon": {
			{
				Title:    "Echo Dot",
				Price:    "₹4,499",
				Link:     "https://www.amazon.in/echo-dot",
				Platform: models.PlatformAmazon,
			},
		},
	}
	if err := c.Save(replacement); err != nil {
		t.Fatalf("second save: %v", err)
	}

	got := c.Load()
	if _, stale := got["Flipkart"]; stale {
		t.Fatalf("save must replace, not merge: %#v", got)
	}
	if len(got["Amazon"]) != 1 {
		t.Fatalf("replacement content missing: %#v", got)
	}
}

func TestCacheSaveCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "cache.json")
	c := New(path, 24*time.Hour)

	if err := c.Save(sampleProducts()); err != nil {
		t.Fatalf("save into missing directory: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("cache file not created: %v", err)
	}
}
