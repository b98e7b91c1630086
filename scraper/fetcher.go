package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/soorajb/dealscout/config"
)

// statusTransportFailure is returned after transport-level retries are
// exhausted. It is a sentinel, not a status observed on the wire.
const statusTransportFailure = http.StatusInternalServerError

// Fetcher issues GET requests with a browser-like fingerprint and
// bounded retry. The User-Agent is picked once per fetcher lifetime;
// every attempt is preceded by the collector's randomized delay so
// request spacing stays irregular.
//
// A Fetcher is not safe for concurrent use: the orchestrator issues
// fetches strictly sequentially so the delay and backoff spacing stay
// meaningful as anti-throttling behaviour.
type Fetcher struct {
	cfg       *config.Config
	collector *colly.Collector
	userAgent string
	metrics   *Metrics

	// capture state for the in-flight visit
	body   string
	status int
}

// NewFetcher builds a fetcher configured from cfg.
func NewFetcher(cfg *config.Config, metrics *Metrics) (*Fetcher, error) {
	if len(cfg.UserAgents) == 0 {
		return nil, fmt.Errorf("user agent list cannot be empty")
	}
	ua := cfg.UserAgents[rand.Intn(len(cfg.UserAgents))]

	collector := colly.NewCollector(
		colly.UserAgent(ua),
		colly.AllowURLRevisit(),
	)
	collector.IgnoreRobotsTxt = true
	collector.SetRequestTimeout(cfg.Timeout)
	collector.WithTransport(&http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.Timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	})

	if err := collector.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: 1,
		Delay:       cfg.RequestDelay,
		RandomDelay: cfg.RandomDelay,
	}); err != nil {
		return nil, fmt.Errorf("configure rate limits: %w", err)
	}

	f := &Fetcher{
		cfg:       cfg,
		collector: collector,
		userAgent: ua,
		metrics:   metrics,
	}

	collector.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
		r.Headers.Set("Accept-Language", "en-US,en;q=0.5")
		r.Headers.Set("Accept-Encoding", "gzip, deflate")
		r.Headers.Set("Connection", "keep-alive")
		r.Headers.Set("Upgrade-Insecure-Requests", "1")
		r.Headers.Set("Cache-Control", "max-age=0")
	})
	collector.OnResponse(func(r *colly.Response) {
		f.body = string(r.Body)
		f.status = r.StatusCode
	})
	collector.OnError(func(r *colly.Response, _ error) {
		if r != nil {
			f.status = r.StatusCode
		}
	})

	return f, nil
}

// WithTransport swaps the underlying transport. Tests inject mock
// transports here.
func (f *Fetcher) WithTransport(rt http.RoundTripper) {
	f.collector.WithTransport(rt)
}

// UserAgent reports the identity picked for this fetcher's lifetime.
func (f *Fetcher) UserAgent() string {
	return f.userAgent
}

// Fetch issues a GET for rawURL with the given query parameters and
// returns the body with the final status. It retries rate-limited and
// transport-failed attempts with linear backoff, up to cfg.MaxAttempts
// total attempts. Other non-200 statuses return immediately with an
// empty body. Exhausted transport failures report the 500 sentinel.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string, params url.Values) (string, int) {
	fullURL := rawURL
	if len(params) > 0 {
		fullURL = rawURL + "?" + params.Encode()
	}

	lastStatus := statusTransportFailure
	for attempt := 1; attempt <= f.cfg.MaxAttempts; attempt++ {
		if ctx.Err() != nil {
			return "", lastStatus
		}

		f.metrics.IncRequest("started")
		start := time.Now()
		body, status, err := f.visit(fullURL)
		f.metrics.ObserveDuration(time.Since(start))

		if err == nil && status == http.StatusOK {
			return body, status
		}
		category := errorTypeLabel(classifyError(err, status))
		f.metrics.IncError(category)

		switch {
		case status == http.StatusTooManyRequests:
			lastStatus = status
			wait := time.Duration(attempt) * f.cfg.RateLimitBackoff
			slog.Warn("rate limited",
				slog.String("url", rawURL),
				slog.Int("attempt", attempt),
				slog.Duration("backoff", wait),
			)
			if attempt < f.cfg.MaxAttempts {
				f.metrics.IncRetries()
				if sleep(ctx, wait) != nil {
					return "", lastStatus
				}
			}
		case status != 0:
			slog.Error("fetch failed",
				slog.String("url", rawURL),
				slog.Int("status", status),
			)
			return "", status
		default:
			lastStatus = statusTransportFailure
			wait := time.Duration(attempt) * f.cfg.TransientBackoff
			slog.Error("fetch error",
				slog.String("url", rawURL),
				slog.String("category", category),
				slog.Any("error", err),
			)
			if attempt < f.cfg.MaxAttempts {
				f.metrics.IncRetries()
				if sleep(ctx, wait) != nil {
					return "", lastStatus
				}
			}
		}
	}
	return "", lastStatus
}

// visit runs one synchronous attempt and returns the captured body and
// status. The collector is non-async, so both callbacks have fired by
// the time Visit returns.
func (f *Fetcher) visit(fullURL string) (string, int, error) {
	f.body = ""
	f.status = 0
	if err := f.collector.Visit(fullURL); err != nil {
		return "", f.status, err
	}
	return f.body, f.status, nil
}

func classifyError(err error, statusCode int) error {
	if err == nil && statusCode == 0 {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout{Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrTimeout{Err: err}
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return ErrConnection{Err: err}
	}

	if statusCode != 0 && statusCode != http.StatusOK {
		wrapped := err
		if wrapped == nil {
			wrapped = fmt.Errorf("http status %d", statusCode)
		}
		if statusCode == http.StatusTooManyRequests {
			return ErrRateLimited{Err: wrapped}
		}
		return ErrHTTPStatus{Status: statusCode, Err: wrapped}
	}

	if err == nil {
		return nil
	}
	return err
}

// sleep waits for d or until ctx is cancelled.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
