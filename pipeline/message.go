package pipeline

import (
	"fmt"
	"strings"

	"github.com/soorajb/dealscout/models"
)

// FormatMessage renders a product as the Markdown message posted to
// the deals channel.
func FormatMessage(p *models.Product) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*%s*\n\n", p.Title)

	if p.Price != "" {
		fmt.Fprintf(&b, "💰 *Price:* %s\n", p.Price)
	}
	if p.Rating != "" && p.Rating != models.NoRating {
		fmt.Fprintf(&b, "⭐ *Rating:* %s\n", p.Rating)
	}
	if p.Reviews != "" && p.Reviews != models.NoReviews {
		fmt.Fprintf(&b, "🗣 *Reviews:* %s\n", p.Reviews)
	}

	fmt.Fprintf(&b, "\n🛍️ *Available on:* %s\n", p.Platform)
	fmt.Fprintf(&b, "\n🔗 [Buy Now](%s)", p.Link)
	return b.String()
}
