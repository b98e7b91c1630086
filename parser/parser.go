package parser

import (
	"fmt"
	"strings"

	"github.com/soorajb/dealscout/models"
)

// ValidateProduct ensures the extractor captured the required fields.
func ValidateProduct(p *models.Product) error {
	if p == nil {
		return fmt.Errorf("product is nil")
	}
	if strings.TrimSpace(p.Title) == "" {
		return fmt.Errorf("product missing title")
	}
	if strings.TrimSpace(p.Price) == "" {
		return fmt.Errorf("product missing price for %s", p.Title)
	}
	if strings.TrimSpace(p.Link) == "" {
		return fmt.Errorf("product missing link for %s", p.Title)
	}
	return nil
}

// NormalizeWhitespace collapses runs of whitespace inside display text.
// Search result snippets frequently carry embedded newlines and double
// spaces from the markup.
func NormalizeWhitespace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
