// Package affiliate rewrites product URLs into tracked deep links.
package affiliate

import (
	"net/url"
	"strings"
)

const (
	earnkaroEndpoint = "https://earnkaro.com/flipkart"
	fallbackBase     = "https://www.flipkart.com"
)

// Converter builds EarnKaro-style tracked links for a tracking ID.
type Converter struct {
	trackingID string
}

// NewConverter returns a converter; an empty tracking ID disables
// rewriting so links pass through untouched.
func NewConverter(trackingID string) *Converter {
	return &Converter{trackingID: strings.TrimSpace(trackingID)}
}

// Convert returns the tracked URL for a product link. On any failure,
// or when no tracking ID is configured, the input comes back unchanged;
// this never surfaces an error to the caller.
func (c *Converter) Convert(productURL string) string {
	trimmed := strings.TrimSpace(productURL)
	if trimmed == "" || c.trackingID == "" {
		return productURL
	}
	if !strings.HasPrefix(trimmed, "http") {
		trimmed = fallbackBase + trimmed
	}

	params := url.Values{
		"url":   {trimmed},
		"subid": {c.trackingID},
	}
	return earnkaroEndpoint + "?" + params.Encode()
}
