package app

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"careerfit.kr/careerfit/internal/cli"
	"careerfit.kr/careerfit/internal/config"
	"careerfit.kr/careerfit/internal/logging"
)

// runCrawl fetches and normalizes listings without touching storage. It
// emits one JSON document per record to stdout.
func runCrawl(args []string) int {
	fs := flag.NewFlagSet("crawl", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	pages := fs.Int("pages", 0, "Number of listing pages to fetch (defaults to CRAWL_PAGES)")
	timeout := fs.Duration("timeout", 10*time.Minute, "Command timeout")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if envLoader != nil {
		if _, err := envLoader.Load(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		return 1
	}

	pageCount := *pages
	if pageCount <= 0 {
		pageCount = cfg.CrawlPages
	}

	fetcher, err := newFetcher(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build fetcher: %v\n", err)
		return 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	records, err := fetcher.Crawl(ctx, pageCount)
	if err != nil {
		logger.Error().Err(err).Msg("crawl failed")
		fmt.Fprintf(os.Stderr, "Crawl failed: %v\n", err)
		return 1
	}

	encoder := json.NewEncoder(os.Stdout)
	for _, record := range records {
		if err := encoder.Encode(record); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write record: %v\n", err)
			return 1
		}
	}

	logger.Info().Int("records", len(records)).Int("pages", pageCount).Msg("crawl completed")
	return 0
}
