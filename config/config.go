package config

import (
	"fmt"
	"time"
)

// Config holds scraper and delivery configuration.
type Config struct {
	Categories []string

	// Fetch behaviour.
	MaxAttempts      int
	RequestDelay     time.Duration // fixed part of the pre-request pause
	RandomDelay      time.Duration // random part added on top of RequestDelay
	RateLimitBackoff time.Duration // multiplied by the attempt index on 429
	TransientBackoff time.Duration // multiplied by the attempt index on transport errors
	Timeout          time.Duration
	UserAgents       []string

	// Cache behaviour.
	CacheFile   string
	CacheExpiry time.Duration

	// Collection quotas.
	DefaultCount int
	MaxCount     int

	// Affiliate link construction.
	TrackingID string

	// Delivery pipeline.
	OutputFile         string
	OutputFormat       string // csv, json, or dual
	PipelineBufferSize int
	BatchSize          int
	DedupeMaxSize      int
	Workers            int

	MetricsAddr string
	Verbose     bool
}

// DefaultConfig returns the defaults the bot shipped with.
func DefaultConfig() *Config {
	return &Config{
		Categories: []string{
			"laptops",
			"smartphones",
			"headphones",
			"smartwatches",
			"tablets",
		},
		MaxAttempts:        3,
		RequestDelay:       1 * time.Second,
		RandomDelay:        2 * time.Second,
		RateLimitBackoff:   5 * time.Second,
		TransientBackoff:   2 * time.Second,
		Timeout:            30 * time.Second,
		UserAgents:         defaultUserAgents,
		CacheFile:          "products_cache.json",
		CacheExpiry:        24 * time.Hour,
		DefaultCount:       5,
		MaxCount:           10,
		TrackingID:         "",
		OutputFile:         "output/deals.csv",
		OutputFormat:       "csv",
		PipelineBufferSize: 512,
		BatchSize:          64,
		DedupeMaxSize:      10000,
		Workers:            2,
		MetricsAddr:        "",
		Verbose:            false,
	}
}

var defaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/117.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:121.0) Gecko/20100101 Firefox/121.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10.15; rv:120.0) Gecko/20100101 Firefox/120.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Safari/605.1.15",
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if len(c.Categories) == 0 {
		return fmt.Errorf("category list cannot be empty")
	}
	if c.MaxAttempts <= 0 {
		return fmt.Errorf("max attempts must be positive")
	}
	if c.RequestDelay < 0 {
		return fmt.Errorf("request delay cannot be negative")
	}
	if c.RandomDelay < 0 {
		return fmt.Errorf("random delay cannot be negative")
	}
	if c.RateLimitBackoff < 0 {
		return fmt.Errorf("rate limit backoff cannot be negative")
	}
	if c.TransientBackoff < 0 {
		return fmt.Errorf("transient backoff cannot be negative")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if len(c.UserAgents) == 0 {
		return fmt.Errorf("user agent list cannot be empty")
	}
	if c.CacheFile == "" {
		return fmt.Errorf("cache file cannot be empty")
	}
	if c.CacheExpiry <= 0 {
		return fmt.Errorf("cache expiry must be positive")
	}
	if c.DefaultCount <= 0 {
		return fmt.Errorf("default count must be positive")
	}
	if c.MaxCount < c.DefaultCount {
		return fmt.Errorf("max count (%d) cannot be below default count (%d)", c.MaxCount, c.DefaultCount)
	}
	if c.OutputFile == "" {
		return fmt.Errorf("output file cannot be empty")
	}
	if c.OutputFormat != "csv" && c.OutputFormat != "json" && c.OutputFormat != "dual" {
		return fmt.Errorf("output format must be csv, json, or dual")
	}
	if c.PipelineBufferSize <= 0 {
		return fmt.Errorf("pipeline buffer size must be positive")
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch size must be positive")
	}
	if c.DedupeMaxSize <= 0 {
		return fmt.Errorf("dedupe max size must be positive")
	}
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be positive")
	}
	return nil
}
