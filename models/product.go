// Package models defines data structures shared across the scraper.
package models

import "time"

// Platform identifies the source site a product was scraped from.
type Platform string

const (
	PlatformFlipkart Platform = "Flipkart"
	PlatformAmazon   Platform = "Amazon"
)

// Default values used when an optional field is absent from the markup.
const (
	NoRating  = "No rating"
	NoReviews = "No reviews"
)

// Product represents one listing extracted from a search-results page.
// Price, rating and review counts are kept as displayed text; the sites
// render them in locale-specific formats that downstream consumers
// forward verbatim.
type Product struct {
	Title       string    `json:"title" csv:"title"`
	Description string    `json:"description" csv:"description"`
	Price       string    `json:"price" csv:"price"`
	Rating      string    `json:"rating" csv:"rating"`
	Reviews     string    `json:"reviews" csv:"reviews"`
	Link        string    `json:"link" csv:"link"`
	Image       string    `json:"image" csv:"image"`
	ScrapedAt   time.Time `json:"timestamp" csv:"timestamp"`
	Platform    Platform  `json:"platform" csv:"platform"`
}

// CollectResult summarises one orchestrator run. Categories lists the
// categories visited, in order; it stays empty when the run was served
// from cache.
type CollectResult struct {
	Products   []*Product
	StartTime  time.Time
	EndTime    time.Time
	FromCache  bool
	Categories []string
}
