package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Environment string `envconfig:"ENVIRONMENT" default:"local"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`
	DBMinConns  int32  `envconfig:"CF_DB_MIN_CONNS" default:"1"`
	DBMaxConns  int32  `envconfig:"CF_DB_MAX_CONNS" default:"8"`

	CrawlBaseURL    string `envconfig:"CRAWL_BASE_URL" default:"https://www.saramin.co.kr/zf_user/search/recruit?searchType=search&searchword=IT&recruitPage=%d"`
	CrawlPages      int    `envconfig:"CRAWL_PAGES" default:"3"`
	CrawlDelayMS    int    `envconfig:"CRAWL_DELAY_MS" default:"600"`
	CrawlMaxRecords int    `envconfig:"CRAWL_MAX_RECORDS" default:"10000"`
	CrawlUserAgent  string `envconfig:"CRAWL_USER_AGENT" default:"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"`

	ProbeTimeoutMS  int           `envconfig:"PROBE_TIMEOUT_MS" default:"5000"`
	RefreshInterval time.Duration `envconfig:"REFRESH_INTERVAL" default:"24h"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.DBMinConns < 0 {
		return fmt.Errorf("CF_DB_MIN_CONNS must be >= 0")
	}
	if c.DBMaxConns < 1 {
		return fmt.Errorf("CF_DB_MAX_CONNS must be >= 1")
	}
	if c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("CF_DB_MIN_CONNS (%d) cannot exceed CF_DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
	}
	if !strings.Contains(c.CrawlBaseURL, "%d") {
		return fmt.Errorf("CRAWL_BASE_URL must contain a %%d page placeholder")
	}
	if c.CrawlPages < 1 {
		return fmt.Errorf("CRAWL_PAGES must be >= 1")
	}
	if c.CrawlDelayMS < 0 {
		return fmt.Errorf("CRAWL_DELAY_MS must be >= 0")
	}
	if c.CrawlMaxRecords < 1 {
		return fmt.Errorf("CRAWL_MAX_RECORDS must be >= 1")
	}
	if c.ProbeTimeoutMS < 1 {
		return fmt.Errorf("PROBE_TIMEOUT_MS must be >= 1")
	}
	if c.RefreshInterval < time.Minute {
		return fmt.Errorf("REFRESH_INTERVAL must be >= 1m")
	}
	return nil
}

func (c *Config) CrawlDelay() time.Duration {
	return time.Duration(c.CrawlDelayMS) * time.Millisecond
}

func (c *Config) ProbeTimeout() time.Duration {
	return time.Duration(c.ProbeTimeoutMS) * time.Millisecond
}
