package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"careerfit.kr/careerfit/internal/cli"
	"careerfit.kr/careerfit/internal/config"
	"careerfit.kr/careerfit/internal/db"
	"careerfit.kr/careerfit/internal/logging"
)

func runRefresh(args []string) int {
	fs := flag.NewFlagSet("refresh", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 30*time.Minute, "Command timeout")

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

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Error().Err(err).Msg("refresh failed to connect to database")
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		return 1
	}
	defer pool.Close()

	svc, _, err := newRefreshService(cfg, pool, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build refresh pipeline: %v\n", err)
		return 1
	}

	if err := svc.RunCycle(ctx); err != nil {
		logger.Error().Err(err).Msg("refresh cycle failed")
		fmt.Fprintf(os.Stderr, "Refresh failed: %v\n", err)
		return 1
	}

	return 0
}
