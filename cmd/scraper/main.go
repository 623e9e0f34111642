package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/pricelens/scraper/config"
	"github.com/pricelens/scraper/internal/infrastructure/browser"
	"github.com/pricelens/scraper/internal/infrastructure/jsonstore"
	"github.com/pricelens/scraper/internal/infrastructure/rejectshop"
	"github.com/pricelens/scraper/internal/infrastructure/woolworths"
	"github.com/pricelens/scraper/internal/usecase"
)

func main() {
	skuList := flag.String("skus", "", "comma separated SKUs to scrape (default: every catalog SKU)")
	skuFile := flag.String("sku-file", "", "file with one SKU per line")
	productsOut := flag.String("products-out", "", "override the product listings output path")
	comparisonOut := flag.String("comparison-out", "", "override the comparison output path")
	headed := flag.Bool("headed", false, "run the browser with a visible window")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadWithEnvFile()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *productsOut != "" {
		cfg.Output.ProductsPath = *productsOut
	}
	if *comparisonOut != "" {
		cfg.Output.ComparisonsPath = *comparisonOut
	}
	if *headed {
		cfg.Browser.Headless = false
	}
	if *debug {
		cfg.Log.Debug = true
	}

	skus, err := resolveSKUs(*skuList, *skuFile, cfg.RejectShop.Catalog)
	if err != nil {
		log.Fatalf("Failed to resolve SKU list: %v", err)
	}

	log.Printf("Starting PriceLens Scraper v1.0.0")
	log.Printf("SKUs: %d, headless: %t, restart every: %d identifiers", len(skus), cfg.Browser.Headless, cfg.Fetch.RestartEvery)
	log.Printf("Output: %s and %s", cfg.Output.ProductsPath, cfg.Output.ComparisonsPath)

	// Ctrl-C finishes the current identifier and persists what was collected
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize infrastructure dependencies
	identity := browser.NewIdentityPool(cfg.Browser.UserAgents, cfg.Browser.ViewportWidth, cfg.Browser.ViewportHeight)
	pacer := browser.NewPacer(cfg.Fetch.MinInterval, cfg.Fetch.SettleMin, cfg.Fetch.SettleMax)

	session, err := browser.NewSession(browser.SessionConfig{
		Headless:        cfg.Browser.Headless,
		BinPath:         cfg.Browser.BinPath,
		PageTimeout:     cfg.Browser.PageTimeout,
		MaxAttempts:     cfg.Fetch.MaxAttempts,
		BackoffStep:     cfg.Fetch.BackoffStep,
		ScrollPauseDown: cfg.Fetch.ScrollPauseDown,
		ScrollPauseUp:   cfg.Fetch.ScrollPauseUp,
	}, identity, pacer)
	if err != nil {
		log.Fatalf("Failed to start browser session: %v", err)
	}
	defer session.Close()

	source := rejectshop.NewScraper(cfg.RejectShop.Catalog)
	search, err := woolworths.NewScraper(cfg.Woolworths.BaseURL)
	if err != nil {
		log.Fatalf("Failed to configure Woolworths scraper: %v", err)
	}
	store := jsonstore.NewStore(cfg.Output.ProductsPath, cfg.Output.ComparisonsPath)

	// Initialize usecase layer
	pipeline := usecase.NewPipeline(session, source, search, store, usecase.PipelineConfig{
		ConfidenceFloor:    cfg.Match.ConfidenceFloor,
		RestartEvery:       cfg.Fetch.RestartEvery,
		SimplifyQueries:    cfg.Match.SimplifyQueries,
		EnableDebugLogging: cfg.Log.Debug,
	})

	summary, err := pipeline.Run(ctx, skus)
	if err != nil {
		session.Close()
		log.Fatalf("Run failed: %v", err)
	}

	log.Printf("Done: %d processed, %d matched, %d skipped", summary.Processed, summary.Matched, summary.SkippedTotal())
	reasons := make([]string, 0, len(summary.Skipped))
	for reason := range summary.Skipped {
		reasons = append(reasons, reason)
	}
	sort.Strings(reasons)
	for _, reason := range reasons {
		log.Printf("  %s: %d", reason, summary.Skipped[reason])
	}
}

// resolveSKUs picks the identifiers to process: an explicit -skus list, a
// -sku-file, or every catalog SKU in stable order.
func resolveSKUs(list, file string, catalog map[string]string) ([]string, error) {
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, err
		}
		var skus []string
		for _, line := range strings.Split(string(data), "\n") {
			line = strings.TrimSpace(line)
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			skus = append(skus, line)
		}
		return skus, nil
	}

	if list != "" {
		var skus []string
		for _, sku := range strings.Split(list, ",") {
			if sku = strings.TrimSpace(sku); sku != "" {
				skus = append(skus, sku)
			}
		}
		return skus, nil
	}

	skus := make([]string, 0, len(catalog))
	for sku := range catalog {
		skus = append(skus, sku)
	}
	sort.Strings(skus)
	return skus, nil
}

func init() {
	// Set log flags for better debugging
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.SetOutput(os.Stdout)
}
