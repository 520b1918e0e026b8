package app

import (
	"github.com/rs/zerolog"

	"careerfit.kr/careerfit/internal/config"
	"careerfit.kr/careerfit/internal/crawler"
	"careerfit.kr/careerfit/internal/db"
	"careerfit.kr/careerfit/internal/ingest"
	"careerfit.kr/careerfit/internal/refresh"
)

// newFetcher builds the listings crawler from config.
func newFetcher(cfg *config.Config, logger zerolog.Logger) (*crawler.Fetcher, error) {
	return crawler.NewFetcher(crawler.Options{
		BaseURL:    cfg.CrawlBaseURL,
		UserAgent:  cfg.CrawlUserAgent,
		PageDelay:  cfg.CrawlDelay(),
		MaxRecords: cfg.CrawlMaxRecords,
	}, logger)
}

// newRefreshService wires the full refresh pipeline: sweep store, crawler,
// liveness prober and upsert coordinator.
func newRefreshService(cfg *config.Config, pool *db.Pool, logger zerolog.Logger) (*refresh.Service, *ingest.Service, error) {
	fetcher, err := newFetcher(cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	upserter := ingest.NewService(db.NewPostingStore(pool), logger)
	prober := refresh.NewHTTPProber(cfg.ProbeTimeout(), cfg.CrawlUserAgent)
	svc := refresh.NewService(pool, fetcher, prober, upserter, cfg.CrawlPages, logger)
	return svc, upserter, nil
}
