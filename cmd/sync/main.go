// One-shot sync runner: pulls new duels into the local cache and prints
// a short summary. Intended for terminal use and cron.
package main

import (
	"context"
	"fmt"
	"os"

	"duels-tracker/internal/api"
	"duels-tracker/internal/config"
	"duels-tracker/internal/constants"
	"duels-tracker/internal/countries"
	"duels-tracker/internal/database"
	"duels-tracker/internal/logger"
	"duels-tracker/internal/repository"
	"duels-tracker/internal/syncer"

	"github.com/spf13/pflag"
)

func main() {
	cacheDir := pflag.String("cache-dir", "", "override the cache directory")
	cacheKey := pflag.String("cache-key", "", "override the cache key")
	workers := pflag.Int("workers", 0, "parallel detail fetches (default from SYNC_WORKERS)")
	logLevel := pflag.String("log-level", "", "override the log level")
	pflag.Parse()

	log := logger.New()

	cfg, err := config.Load(log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	if *cacheDir != "" {
		cfg.CacheDir = *cacheDir
	}
	if *cacheKey != "" {
		cfg.CacheKey = *cacheKey
	}
	if *workers > 0 {
		cfg.SyncWorkers = *workers
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	log = logger.WithLevel(cfg.LogLevel)

	db, err := database.New(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open cache database")
	}
	defer db.Close()

	lookup, err := countries.New()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load country table")
	}

	s := syncer.New(
		api.NewGeoClient(cfg),
		repository.NewRoundRepository(db, log),
		lookup,
		cfg.SyncWorkers,
		log,
	)

	ctx, cancel := context.WithTimeout(context.Background(), constants.SyncTimeout)
	defer cancel()

	progress := make(chan float64)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for frac := range progress {
			fmt.Fprintf(os.Stderr, "\rsyncing... %3.0f%%", frac*100)
		}
		fmt.Fprintln(os.Stderr)
	}()

	result, err := s.Sync(ctx, progress)
	<-done
	if err != nil {
		log.Fatal().Err(err).Msg("sync failed")
	}

	fmt.Printf("player:   %s (%s)\n", result.Player.Nick, result.Player.ID)
	fmt.Printf("new:      %d games\n", result.NewGames)
	fmt.Printf("records:  %d rounds cached\n", len(result.Table))
	if result.PersistWarning != nil {
		fmt.Printf("warning:  cache write failed: %v\n", result.PersistWarning)
		os.Exit(1)
	}
}
