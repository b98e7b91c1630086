// Package parser extracts product records from search-results markup.
//
// Retail sites rotate their class names frequently, so every extraction
// target is described by an ordered chain of selectors rather than a
// single one. A chain is tried in declared order and the first selector
// that matches anything wins; later selectors are never evaluated.
package parser

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/soorajb/dealscout/models"
)

// SelectorChain is an ordered list of CSS selectors tried in sequence
// until one yields at least one match.
type SelectorChain []string

// FieldRules groups the per-field selector chains for one site layout.
// Title, Price and Link are required; a container missing any of them
// yields no record. The remaining fields degrade to defaults.
type FieldRules struct {
	Title       SelectorChain
	Description SelectorChain
	Price       SelectorChain
	Rating      SelectorChain
	Reviews     SelectorChain
	Link        SelectorChain
	Image       SelectorChain
}

// Extractor locates product containers on a page and pulls fields out
// of each one.
type Extractor struct {
	base       *url.URL
	containers SelectorChain
	fields     FieldRules
}

// NewExtractor builds an extractor bound to a site's base URL.
func NewExtractor(baseURL string, containers SelectorChain, fields FieldRules) (*Extractor, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("base url must include a host")
	}
	if len(containers) == 0 {
		return nil, fmt.Errorf("container selector chain cannot be empty")
	}
	return &Extractor{
		base:       parsed,
		containers: containers,
		fields:     fields,
	}, nil
}

// ExtractAll parses the page and returns one record per container that
// carried all required fields. A page where no container selector
// matches produces an empty slice, not an error.
func (e *Extractor) ExtractAll(html string) ([]*models.Product, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	var products []*models.Product
	for _, container := range e.Containers(doc) {
		if product := e.ExtractProduct(container); product != nil {
			products = append(products, product)
		}
	}
	return products, nil
}

// Containers returns the product containers found by the first matching
// selector in the chain.
func (e *Extractor) Containers(doc *goquery.Document) []*goquery.Selection {
	for _, selector := range e.containers {
		matches := doc.Find(selector)
		if matches.Length() == 0 {
			continue
		}
		containers := make([]*goquery.Selection, 0, matches.Length())
		matches.Each(func(_ int, s *goquery.Selection) {
			containers = append(containers, s)
		})
		return containers
	}
	return nil
}

// ExtractProduct pulls one record out of a container. It returns nil
// when any of title, price or link is absent; optional fields fall back
// to their documented defaults.
func (e *Extractor) ExtractProduct(container *goquery.Selection) *models.Product {
	title := e.text(container, e.fields.Title)
	price := e.text(container, e.fields.Price)
	link := e.attr(container, e.fields.Link, "href")
	if title == "" || price == "" || link == "" {
		return nil
	}

	product := &models.Product{
		Title:       title,
		Description: e.text(container, e.fields.Description),
		Price:       price,
		Rating:      models.NoRating,
		Reviews:     models.NoReviews,
		Link:        e.resolve(link),
		Image:       e.attr(container, e.fields.Image, "src"),
	}
	if rating := e.text(container, e.fields.Rating); rating != "" {
		product.Rating = rating
	}
	if reviews := e.text(container, e.fields.Reviews); reviews != "" {
		product.Reviews = reviews
	}
	return product
}

// text returns the trimmed text of the first chain match, or "".
func (e *Extractor) text(container *goquery.Selection, chain SelectorChain) string {
	match := firstMatch(container, chain)
	if match == nil {
		return ""
	}
	return strings.TrimSpace(match.First().Text())
}

// attr returns a structural attribute of the first chain match, or "".
func (e *Extractor) attr(container *goquery.Selection, chain SelectorChain, name string) string {
	match := firstMatch(container, chain)
	if match == nil {
		return ""
	}
	return strings.TrimSpace(match.First().AttrOr(name, ""))
}

func firstMatch(container *goquery.Selection, chain SelectorChain) *goquery.Selection {
	for _, selector := range chain {
		if found := container.Find(selector); found.Length() > 0 {
			return found
		}
	}
	return nil
}

// resolve turns a relative link into an absolute one against the site
// base; absolute links and unparseable values pass through unchanged.
func (e *Extractor) resolve(link string) string {
	parsed, err := url.Parse(link)
	if err != nil {
		return link
	}
	return e.base.ResolveReference(parsed).String()
}
