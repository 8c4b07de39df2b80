package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"duels-tracker/internal/constants"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

type Config struct {
	// NcfaToken is the GeoGuessr _ncfa session cookie value.
	NcfaToken string

	// CacheDir holds one cache database per CacheKey.
	CacheDir string
	CacheKey string

	ServerPort  string
	LogLevel    string
	SyncWorkers int
}

func Load(logger zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg(".env file not found, using environment variables or defaults")
	}

	cfg := &Config{
		NcfaToken:   getEnv("NCFA_TOKEN", ""),
		CacheDir:    getEnv("CACHE_DIR", "."),
		CacheKey:    getEnv("CACHE_KEY", "duels"),
		ServerPort:  getEnv("SERVER_PORT", "8080"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		SyncWorkers: getEnvInt("SYNC_WORKERS", constants.DefaultSyncWorkers),
	}

	if cfg.NcfaToken == "" {
		return nil, fmt.Errorf("NCFA_TOKEN is required")
	}
	if cfg.SyncWorkers < 1 {
		cfg.SyncWorkers = 1
	}
	if cfg.SyncWorkers > constants.MaxSyncWorkers {
		cfg.SyncWorkers = constants.MaxSyncWorkers
	}

	logger.Info().
		Str("cache_dir", cfg.CacheDir).
		Str("cache_key", cfg.CacheKey).
		Str("server_port", cfg.ServerPort).
		Str("log_level", cfg.LogLevel).
		Int("sync_workers", cfg.SyncWorkers).
		Msg("configuration loaded")

	return cfg, nil
}

// DBPath is the cache database file for the configured cache key.
func (c *Config) DBPath() string {
	return filepath.Join(c.CacheDir, fmt.Sprintf("%s.db", c.CacheKey))
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

var Module = fx.Provide(Load)
