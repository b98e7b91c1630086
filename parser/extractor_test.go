package parser

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"

	"github.com/soorajb/dealscout/models"
)

func testExtractor(t *testing.T) *Extractor {
	t.Helper()
	extractor, err := NewExtractor(
		"http://shop.test",
		SelectorChain{"div.card-v2", "div.card"},
		FieldRules{
			Title:       SelectorChain{"h2.name-v2", "h2.name"},
			Description: SelectorChain{"p.desc"},
			Price:       SelectorChain{"span.price"},
			Rating:      SelectorChain{"span.stars"},
			Reviews:     SelectorChain{"span.reviews"},
			Link:        SelectorChain{"a.buy"},
			Image:       SelectorChain{"img.photo"},
		},
	)
	if err != nil {
		t.Fatalf("new extractor: %v", err)
	}
	return extractor
}

func TestExtractAllFullRecord(t *testing.T) {
	html := `<html><body>
		<div class="card">
			<h2 class="name">Gaming Laptop</h2>
			<p class="desc">16GB RAM, 1TB SSD</p>
			<span class="price">₹79,999</span>
			<span class="stars">4.4</span>
			<span class="reviews">(2,318)</span>
			<a class="buy" href="/item/laptop-1">Buy</a>
			<img class="photo" src="http://img.test/laptop-1.png"/>
		</div>
	</body></html>`

	products, err := testExtractor(t).ExtractAll(html)
	if err != nil {
		t.Fatalf("extract all: %v", err)
	}
	if len(products) != 1 {
		t.Fatalf("products=%d, want 1", len(products))
	}

	p := products[0]
	if p.Title != "Gaming Laptop" {
		t.Errorf("title=%q", p.Title)
	}
	if p.Description != "16GB RAM, 1TB SSD" {
		t.Errorf("description=%q", p.Description)
	}
	if p.Price != "₹79,999" {
		t.Errorf("price=%q", p.Price)
	}
	if p.Rating != "4.4" {
		t.Errorf("rating=%q", p.Rating)
	}
	if p.Reviews != "(2,318)" {
		t.Errorf("reviews=%q", p.Reviews)
	}
	if p.Link != "http://shop.test/item/laptop-1" {
		t.Errorf("link=%q, want resolved absolute URL", p.Link)
	}
	if p.Image != "http://img.test/laptop-1.png" {
		t.Errorf("image=%q", p.Image)
	}
}

func TestExtractAllOptionalFieldDefaults(t *testing.T) {
	html := `<div class="card">
		<h2 class="name">Budget Phone</h2>
		<span class="price">₹9,999</span>
		<a class="buy" href="http://shop.test/item/phone-1">Buy</a>
	</div>`

	products, err := testExtractor(t).ExtractAll(html)
	if err != nil {
		t.Fatalf("extract all: %v", err)
	}
	if len(products) != 1 {
		t.Fatalf("products=%d, want 1", len(products))
	}

	p := products[0]
	if p.Rating != models.NoRating {
		t.Errorf("rating=%q, want %q", p.Rating, models.NoRating)
	}
	if p.Reviews != models.NoReviews {
		t.Errorf("reviews=%q, want %q", p.Reviews, models.NoReviews)
	}
	if p.Description != "" {
		t.Errorf("description=%q, want empty", p.Description)
	}
	if p.Image != "" {
		t.Errorf("image=%q, want empty", p.Image)
	}
}

func TestExtractAllRequiredFieldGate(t *testing.T) {
	tests := []struct {
		name string
		card string
	}{
		{
			name: "missing title",
			card: `<span class="price">₹100</span><a class="buy" href="/x">b</a>`,
		},
		{
			name: "missing price",
			card: `<h2 class="name">Thing</h2><a class="buy" href="/x">b</a>`,
		},
		{
			name: "missing link",
			card: `<h2 class="name">Thing</h2><span class="price">₹100</span>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// A broken container must not drag down its complete sibling.
			html := `<div class="card">` + tt.card + `</div>` +
				`<div class="card">
					<h2 class="name">Complete</h2>
					<span class="price">₹200</span>
					<a class="buy" href="/item/ok">Buy</a>
				</div>`

			products, err := testExtractor(t).ExtractAll(html)
			if err != nil {
				t.Fatalf("extract all: %v", err)
			}
			if len(products) != 1 {
				t.Fatalf("products=%d, want 1", len(products))
			}
			if products[0].Title != "Complete" {
				t.Fatalf("title=%q, want the surviving sibling", products[0].Title)
			}
		})
	}
}

func TestContainerChainFallback(t *testing.T) {
	// The first container selector has no matches; the second supplies
	// the full list.
	html := `
		<div class="card"><h2 class="name">A</h2><span class="price">1</span><a class="buy" href="/a">b</a></div>
		<div class="card"><h2 class="name">B</h2><span class="price">2</span><a class="buy" href="/b">b</a></div>`

	products, err := testExtractor(t).ExtractAll(html)
	if err != nil {
		t.Fatalf("extract all: %v", err)
	}
	if len(products) != 2 {
		t.Fatalf("products=%d, want 2", len(products))
	}
}

func TestContainerChainShortCircuits(t *testing.T) {
	// One card-v2 match wins even though the later selector would match
	// three more containers; chains never union.
	html := `
		<div class="card-v2"><h2 class="name">First</h2><span class="price">1</span><a class="buy" href="/f">b</a></div>
		<div class="card"><h2 class="name">X</h2><span class="price">2</span><a class="buy" href="/x">b</a></div>
		<div class="card"><h2 class="name">Y</h2><span class="price">3</span><a class="buy" href="/y">b</a></div>
		<div class="card"><h2 class="name">Z</h2><span class="price">4</span><a class="buy" href="/z">b</a></div>`

	products, err := testExtractor(t).ExtractAll(html)
	if err != nil {
		t.Fatalf("extract all: %v", err)
	}
	if len(products) != 1 {
		t.Fatalf("products=%d, want 1", len(products))
	}
	if products[0].Title != "First" {
		t.Fatalf("title=%q, want %q", products[0].Title, "First")
	}
}

func TestFieldChainShortCircuits(t *testing.T) {
	// Both title selectors match inside the container; the earlier one
	// in the chain wins.
	html := `<div class="card">
		<h2 class="name-v2">New Markup</h2>
		<h2 class="name">Old Markup</h2>
		<span class="price">₹5</span>
		<a class="buy" href="/item">b</a>
	</div>`

	products, err := testExtractor(t).ExtractAll(html)
	if err != nil {
		t.Fatalf("extract all: %v", err)
	}
	if len(products) != 1 {
		t.Fatalf("products=%d, want 1", len(products))
	}
	if products[0].Title != "New Markup" {
		t.Fatalf("title=%q, want %q", products[0].Title, "New Markup")
	}
}

func TestExtractAllNoContainersIsEmptyNotError(t *testing.T) {
	products, err := testExtractor(t).ExtractAll(`<html><body><p>nothing for sale</p></body></html>`)
	if err != nil {
		t.Fatalf("extract all: %v", err)
	}
	if len(products) != 0 {
		t.Fatalf("products=%d, want 0", len(products))
	}
}

func TestLinkResolution(t *testing.T) {
	tests := []struct {
		name string
		href string
		want string
	}{
		{name: "relative path", href: "/item/1?pid=9", want: "http://shop.test/item/1?pid=9"},
		{name: "absolute passthrough", href: "https://other.test/item/1", want: "https://other.test/item/1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			html := `<div class="card">
				<h2 class="name">T</h2>
				<span class="price">₹1</span>
				<a class="buy" href="` + tt.href + `">b</a>
			</div>`

			products, err := testExtractor(t).ExtractAll(html)
			if err != nil {
				t.Fatalf("extract all: %v", err)
			}
			if len(products) != 1 {
				t.Fatalf("products=%d, want 1", len(products))
			}
			if products[0].Link != tt.want {
				t.Fatalf("link=%q, want %q", products[0].Link, tt.want)
			}
		})
	}
}

func TestExtractProductReadsAttributesNotText(t *testing.T) {
	html := `<div class="card">
		<h2 class="name">T</h2>
		<span class="price">₹1</span>
		<a class="buy" href="/real-target">ignored anchor text</a>
		<img class="photo" src="http://img.test/x.png" alt="ignored alt"/>
	</div>`

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	extractor := testExtractor(t)
	containers := extractor.Containers(doc)
	if len(containers) != 1 {
		t.Fatalf("containers=%d, want 1", len(containers))
	}

	p := extractor.ExtractProduct(containers[0])
	if p == nil {
		t.Fatalf("expected a record")
	}
	if p.Link != "http://shop.test/real-target" {
		t.Fatalf("link=%q", p.Link)
	}
	if p.Image != "http://img.test/x.png" {
		t.Fatalf("image=%q", p.Image)
	}
}

func TestNewExtractorRejectsBadInput(t *testing.T) {
	if _, err := NewExtractor("http://", SelectorChain{"div"}, FieldRules{}); err == nil {
		t.Fatalf("expected error for base url without host")
	}
	if _, err := NewExtractor("http://shop.test", nil, FieldRules{}); err == nil {
		t.Fatalf("expected error for empty container chain")
	}
}
