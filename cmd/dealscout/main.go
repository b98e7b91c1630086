package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/soorajb/dealscout/cache"
	"github.com/soorajb/dealscout/config"
	"github.com/soorajb/dealscout/models"
	"github.com/soorajb/dealscout/pipeline"
	"github.com/soorajb/dealscout/scraper"
)

func main() {
	defaultCfg := config.DefaultConfig()
	countDefault := defaultCfg.DefaultCount
	if value, ok, err := config.EnvInt("DEALSCOUT_COUNT"); err != nil {
		fmt.Fprintf(os.Stderr, "invalid DEALSCOUT_COUNT: %v\n", err)
		os.Exit(1)
	} else if ok {
		countDefault = value
	}
	cacheDefault := defaultCfg.CacheFile
	if value, ok := config.EnvString("DEALSCOUT_CACHE_FILE"); ok {
		cacheDefault = value
	}
	outputDefault := defaultCfg.OutputFile
	if value, ok := config.EnvString("DEALSCOUT_OUTPUT"); ok {
		outputDefault = value
	}
	trackingDefault := defaultCfg.TrackingID
	if value, ok := config.EnvString("DEALSCOUT_TRACKING_ID"); ok {
		trackingDefault = value
	}
	metricsDefault := defaultCfg.MetricsAddr
	if value, ok := config.EnvString("DEALSCOUT_METRICS_ADDR"); ok {
		metricsDefault = value
	}

	platformName := flag.String("platform", "flipkart", "Platform to scrape: flipkart or amazon")
	count := flag.Int("count", countDefault, "Number of products to collect")
	categories := flag.String("categories", "", "Comma-separated category override")
	cacheFile := flag.String("cache-file", cacheDefault, "Path to the product cache file")
	cacheExpiryHours := flag.Int("cache-expiry", 24, "Cache expiry window (hours)")
	requestDelayMs := flag.Int("delay", int(defaultCfg.RequestDelay/time.Millisecond), "Fixed pre-request delay (milliseconds)")
	randomDelayMs := flag.Int("random-delay", int(defaultCfg.RandomDelay/time.Millisecond), "Random jitter added to delay (milliseconds)")
	outputFile := flag.String("output", outputDefault, "Output file path")
	outputFormat := flag.String("format", defaultCfg.OutputFormat, "Output format: csv, json, or dual")
	trackingID := flag.String("tracking-id", trackingDefault, "Affiliate tracking ID (empty disables link rewriting)")
	metricsAddr := flag.String("metrics-addr", metricsDefault, "Prometheus metrics listen address (e.g. :9090)")
	showMessages := flag.Bool("messages", false, "Print formatted channel messages to stdout")
	verbose := flag.Bool("v", false, "Enable verbose logging")

	flag.Parse()

	logger, level := newLogger(*verbose)
	slog.SetDefault(logger)
	slog.SetLogLoggerLevel(level.Level())

	cfg := defaultCfg
	cfg.CacheFile = *cacheFile
	cfg.CacheExpiry = time.Duration(*cacheExpiryHours) * time.Hour
	cfg.RequestDelay = time.Duration(*requestDelayMs) * time.Millisecond
	cfg.RandomDelay = time.Duration(*randomDelayMs) * time.Millisecond
	cfg.OutputFile = *outputFile
	cfg.OutputFormat = strings.ToLower(*outputFormat)
	cfg.TrackingID = *trackingID
	cfg.MetricsAddr = *metricsAddr
	cfg.Verbose = *verbose
	if *categories != "" {
		cfg.Categories = splitCategories(*categories)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.Any("error", err))
		os.Exit(1)
	}

	platform, err := parsePlatform(*platformName)
	if err != nil {
		slog.Error("invalid platform", slog.Any("error", err))
		os.Exit(1)
	}
	targetCount := *count
	if targetCount > cfg.MaxCount {
		slog.Warn("count capped", slog.Int("requested", targetCount), slog.Int("max", cfg.MaxCount))
		targetCount = cfg.MaxCount
	}

	slog.Info("starting collection",
		slog.String("platform", string(platform)),
		slog.Int("count", targetCount),
		slog.Int("categories", len(cfg.Categories)),
	)

	metrics := scraper.NewMetrics()
	profile, err := scraper.ProfileFor(platform)
	if err != nil {
		slog.Error("resolving site profile", slog.Any("error", err))
		os.Exit(1)
	}
	site, err := scraper.NewSiteScraper(cfg, profile, metrics)
	if err != nil {
		slog.Error("initialising scraper", slog.Any("error", err))
		os.Exit(1)
	}

	store := cache.New(cfg.CacheFile, cfg.CacheExpiry)
	orchestrator := scraper.NewOrchestrator(cfg, store, metrics, site)

	writer, err := createWriter(cfg.OutputFormat, cfg.OutputFile)
	if err != nil {
		slog.Error("creating writer", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := writer.Close(); err != nil {
			slog.Error("close writer", slog.Any("error", err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received, abandoning in-flight work")
	}()

	var metricsServer *http.Server
	if cfg.MetricsAddr != "" {
		metricsServer = &http.Server{
			Addr:    cfg.MetricsAddr,
			Handler: promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}),
		}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics server failed", slog.Any("error", err))
			}
		}()
		slog.Info("metrics server enabled", slog.String("addr", cfg.MetricsAddr))
	}

	p := pipeline.NewPipeline(ctx, writer, cfg)
	p.Start(cfg.Workers)
	if cfg.Verbose {
		p.StartMetricsReporting(10 * time.Second)
	}

	result, err := orchestrator.Collect(ctx, platform, targetCount)
	if err != nil {
		slog.Error("collection failed", slog.Any("error", err))
		os.Exit(1)
	}

	if err := p.Process(result.Products); err != nil && !errors.Is(err, pipeline.ErrPipelineClosed) {
		slog.Error("pipeline process failed", slog.Any("error", err))
	}
	if err := p.Close(); err != nil {
		slog.Error("pipeline shutdown failed", slog.Any("error", err))
		os.Exit(1)
	}

	if len(result.Products) > 0 {
		if err := writer.Validate(); err != nil {
			slog.Error("output validation failed", slog.Any("error", err))
			os.Exit(1)
		}
	}

	if *showMessages {
		for _, product := range result.Products {
			fmt.Println(pipeline.FormatMessage(product))
			fmt.Println()
		}
	}

	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("metrics server shutdown failed", slog.Any("error", err))
		}
		cancel()
	}

	printSummary(result, cfg.OutputFile, p.GetMetrics())
}

func parsePlatform(name string) (models.Platform, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "flipkart":
		return models.PlatformFlipkart, nil
	case "amazon":
		return models.PlatformAmazon, nil
	default:
		return "", fmt.Errorf("unknown platform %q (want flipkart or amazon)", name)
	}
}

func splitCategories(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func createWriter(format, filename string) (pipeline.OutputWriter, error) {
	switch format {
	case "json":
		return pipeline.NewJSONWriter(filename)
	case "csv":
		return pipeline.NewCSVWriter(filename)
	case "dual":
		jsonFilename := strings.TrimSuffix(filename, ".csv") + ".json"
		return pipeline.NewDualWriter(filename, jsonFilename)
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

func printSummary(result *models.CollectResult, outputFile string, metrics map[string]interface{}) {
	separator := "--------------------------------------------------"
	fmt.Println("\n" + separator)
	fmt.Println("Collection complete")

	fmt.Printf("  Products:      %d\n", len(result.Products))
	fmt.Printf("  From cache:    %t\n", result.FromCache)
	if len(result.Categories) > 0 {
		fmt.Printf("  Categories:    %s\n", strings.Join(result.Categories, ", "))
	}
	if processed, ok := metrics["processed_products"].(int64); ok {
		fmt.Printf("  Delivered:     %d\n", processed)
	}
	if valErrors, ok := metrics["validation_errors"].(map[string]int); ok && len(valErrors) > 0 {
		fmt.Printf("  Validation:    %v\n", valErrors)
	}
	fmt.Printf("  Duration:      %v\n", result.EndTime.Sub(result.StartTime))
	fmt.Printf("  Output file:   %s\n", outputFile)
	fmt.Println(separator)
}

func newLogger(verbose bool) (*slog.Logger, *slog.LevelVar) {
	level := &slog.LevelVar{}
	if verbose {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelInfo)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if isTerminal(os.Stdout) {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler), level
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
