package scraper

import (
	"fmt"
	"net/url"

	"github.com/soorajb/dealscout/models"
	"github.com/soorajb/dealscout/parser"
)

// SiteProfile describes one supported site as data: where to search,
// which fixed query parameters the site expects, and the selector
// chains for its current markup variants. Selector lists here are
// expected to rot as the sites ship new markup; updating them is a
// profile edit, not an extraction-logic change.
type SiteProfile struct {
	Platform   models.Platform
	BaseURL    string
	SearchURL  string
	Query      func(category string) url.Values
	Containers parser.SelectorChain
	Fields     parser.FieldRules
}

// FlipkartProfile returns the profile for flipkart.com search results.
func FlipkartProfile() SiteProfile {
	return SiteProfile{
		Platform:  models.PlatformFlipkart,
		BaseURL:   "https://www.flipkart.com",
		SearchURL: "https://www.flipkart.com/search",
		Query: func(category string) url.Values {
			return url.Values{
				"q":           {category},
				"otracker":    {"search"},
				"otracker1":   {"search"},
				"marketplace": {"FLIPKART"},
				"as-show":     {"on"},
				"as":          {"off"},
				"sort":        {"popularity"},
			}
		},
		Containers: parser.SelectorChain{
			"div._1xHGtK._373qXS", // grid view
			"div._2kHMtA",         // list view
			"div._1AtVbE",
			"div._4ddWXP", // newer grid view
			"div._2B099V", // newer list view
		},
		Fields: parser.FieldRules{
			Title:       parser.SelectorChain{"div._4rR01T", "div._2WkVRV", "div._2B099V", "div._3pLy-c", "div._4ddWXP"},
			Description: parser.SelectorChain{"a.IRpwTa", "a._2UzuFa", "a._3Djpdu", "div._3pLy-c", "div._4ddWXP"},
			Price:       parser.SelectorChain{"div._30jeq3", "div._30jeq3._1_WHN1", "div._30jeq3._16Jk6d", "div._30jeq3._3qU9Bn"},
			Rating:      parser.SelectorChain{"div._3LWZlK", "span._2_R_DZ", "div._3LWZlK._1rdVr6"},
			Reviews:     parser.SelectorChain{"span._2_R_DZ", "span._2_R_DZ span", "span._3LWZlK._1rdVr6"},
			Link:        parser.SelectorChain{"a._1fQZEK", "a._2UzuFa", "a._3Djpdu", "a._2rpwqI"},
			Image:       parser.SelectorChain{"img._396cs4", "img._2r_T1I", "img._396cs4._3exPp9"},
		},
	}
}

// AmazonProfile returns the profile for amazon.in search results.
func AmazonProfile() SiteProfile {
	return SiteProfile{
		Platform:  models.PlatformAmazon,
		BaseURL:   "https://www.amazon.in",
		SearchURL: "https://www.amazon.in/s",
		Query: func(category string) url.Values {
			return url.Values{
				"k":    {category},
				"ref":  {"nb_sb_noss"},
				"sort": {"popularity-rank"},
			}
		},
		Containers: parser.SelectorChain{
			"div.s-result-item",
			"div.a-section.a-spacing-base",
			"div.a-section.a-spacing-none",
			`div[data-component-type="s-search-result"]`,
		},
		Fields: parser.FieldRules{
			Title:       parser.SelectorChain{"span.a-size-medium", "span.a-size-base-plus", "h2.a-size-mini"},
			Description: parser.SelectorChain{"a.a-link-normal", "a.a-text-normal", "h2.a-size-mini"},
			Price:       parser.SelectorChain{"span.a-price-whole", "span.a-offscreen", "span.a-price"},
			Rating:      parser.SelectorChain{"span.a-icon-alt", "i.a-icon-star"},
			Reviews:     parser.SelectorChain{"span.a-size-base", "span.a-size-base.s-underline-text"},
			Link:        parser.SelectorChain{"a.a-link-normal", "a.a-text-normal"},
			Image:       parser.SelectorChain{"img.s-image", "img.a-dynamic-image"},
		},
	}
}

// ProfileFor maps a platform to its site profile.
func ProfileFor(platform models.Platform) (SiteProfile, error) {
	switch platform {
	case models.PlatformFlipkart:
		return FlipkartProfile(), nil
	case models.PlatformAmazon:
		return AmazonProfile(), nil
	default:
		return SiteProfile{}, fmt.Errorf("unsupported platform %q", platform)
	}
}
