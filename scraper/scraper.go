// Package scraper fetches search-results pages from the supported
// retail sites and turns them into product records.
package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/soorajb/dealscout/cache"
	"github.com/soorajb/dealscout/config"
	"github.com/soorajb/dealscout/models"
	"github.com/soorajb/dealscout/parser"
)

// Searcher is the per-site search capability shared by all site
// variants. A non-200 status comes back with an empty list; callers
// decide whether to log or skip.
type Searcher interface {
	Platform() models.Platform
	Search(ctx context.Context, category string) ([]*models.Product, int)
}

// SiteScraper composes a fetcher and an extractor into a per-category
// product search for one site profile.
type SiteScraper struct {
	profile   SiteProfile
	fetcher   *Fetcher
	extractor *parser.Extractor
	metrics   *Metrics
}

// NewSiteScraper builds a scraper for the given site profile.
func NewSiteScraper(cfg *config.Config, profile SiteProfile, metrics *Metrics) (*SiteScraper, error) {
	fetcher, err := NewFetcher(cfg, metrics)
	if err != nil {
		return nil, fmt.Errorf("build fetcher: %w", err)
	}
	extractor, err := parser.NewExtractor(profile.BaseURL, profile.Containers, profile.Fields)
	if err != nil {
		return nil, fmt.Errorf("build extractor for %s: %w", profile.Platform, err)
	}
	return &SiteScraper{
		profile:   profile,
		fetcher:   fetcher,
		extractor: extractor,
		metrics:   metrics,
	}, nil
}

// Platform reports which site this scraper targets.
func (s *SiteScraper) Platform() models.Platform {
	return s.profile.Platform
}

// Search fetches the site's search results for a category and extracts
// product records, each stamped with the platform and capture instant.
func (s *SiteScraper) Search(ctx context.Context, category string) ([]*models.Product, int) {
	body, status := s.fetcher.Fetch(ctx, s.profile.SearchURL, s.profile.Query(category))
	if status != http.StatusOK {
		return nil, status
	}

	products, err := s.extractor.ExtractAll(body)
	if err != nil {
		slog.Error("extraction failed",
			slog.String("platform", string(s.profile.Platform)),
			slog.String("category", category),
			slog.Any("error", err),
		)
		return nil, status
	}

	now := time.Now()
	for _, product := range products {
		product.Platform = s.profile.Platform
		product.ScrapedAt = now
	}
	s.metrics.IncItems(string(s.profile.Platform), len(products))

	slog.Info("category scraped",
		slog.String("platform", string(s.profile.Platform)),
		slog.String("category", category),
		slog.Int("products", len(products)),
	)
	return products, status
}

// Orchestrator iterates the configured categories against a site
// scraper until the requested number of records has accumulated, and
// keeps the persistent cache in sync.
type Orchestrator struct {
	cfg       *config.Config
	store     *cache.Cache
	metrics   *Metrics
	searchers map[models.Platform]Searcher

	mu     sync.Mutex
	cached map[string][]*models.Product
}

// NewOrchestrator builds an orchestrator over the given site scrapers.
// The cache is loaded once here; saves replace it wholesale.
func NewOrchestrator(cfg *config.Config, store *cache.Cache, metrics *Metrics, searchers ...Searcher) *Orchestrator {
	byPlatform := make(map[models.Platform]Searcher, len(searchers))
	for _, s := range searchers {
		byPlatform[s.Platform()] = s
	}
	return &Orchestrator{
		cfg:       cfg,
		store:     store,
		metrics:   metrics,
		searchers: byPlatform,
		cached:    store.Load(),
	}
}

// Collect gathers up to targetCount records for a platform, in category
// order. Failing or empty categories are skipped, never fatal; fewer
// records than requested is a normal outcome and an empty slice is the
// only total-failure signal. A still-valid cache entry that can satisfy
// the quota is served without touching the network.
func (o *Orchestrator) Collect(ctx context.Context, platform models.Platform, targetCount int) (*models.CollectResult, error) {
	searcher, ok := o.searchers[platform]
	if !ok {
		return nil, fmt.Errorf("no scraper registered for platform %q", platform)
	}
	if targetCount <= 0 {
		targetCount = o.cfg.DefaultCount
	}

	start := time.Now()
	if cached := o.cachedFor(platform); len(cached) >= targetCount {
		o.metrics.IncCacheHit()
		slog.Info("serving collect from cache",
			slog.String("platform", string(platform)),
			slog.Int("count", targetCount),
		)
		return &models.CollectResult{
			Products:  cached[:targetCount:targetCount],
			StartTime: start,
			EndTime:   time.Now(),
			FromCache: true,
		}, nil
	}

	var collected []*models.Product
	var visited []string
	for _, category := range o.cfg.Categories {
		if err := ctx.Err(); err != nil {
			// Abandoned mid-scrape: discard partial results, no cache write.
			return nil, err
		}
		visited = append(visited, category)

		products, status := searcher.Search(ctx, category)
		if len(products) == 0 {
			slog.Warn("category yielded no products",
				slog.String("platform", string(platform)),
				slog.String("category", category),
				slog.Int("status", status),
			)
			continue
		}

		collected = append(collected, products...)
		if len(collected) >= targetCount {
			break
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(collected) > targetCount {
		collected = collected[:targetCount:targetCount]
	}

	if len(collected) > 0 {
		o.saveCache(platform, collected)
	}

	return &models.CollectResult{
		Products:   collected,
		StartTime:  start,
		EndTime:    time.Now(),
		Categories: visited,
	}, nil
}

func (o *Orchestrator) cachedFor(platform models.Platform) []*models.Product {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.cached[string(platform)]
}

// saveCache replaces the platform's entry and persists the whole
// mapping. A write failure is logged and swallowed so it can never
// abort the scrape that produced the records.
func (o *Orchestrator) saveCache(platform models.Platform, products []*models.Product) {
	o.mu.Lock()
	next := make(map[string][]*models.Product, len(o.cached)+1)
	for k, v := range o.cached {
		next[k] = v
	}
	next[string(platform)] = products
	o.cached = next
	o.mu.Unlock()

	if err := o.store.Save(next); err != nil {
		slog.Error("cache save failed", slog.Any("error", err))
	}
}
