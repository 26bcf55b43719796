// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Immutability: Once loaded, configuration is read-only.
  - DI-Friendly: Passed to core components (DB, Redis) via constructors.
  - Zero Hidden State: No global variables are used to store config.

This ensures the application is Twelve-Factor compliant by storing config in the env.
*/
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// # Configuration Schema

// Config holds all runtime configuration for the inkvault API server.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// Relational Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required"`

	// MigrationPath is the filesystem path to the SQL migrations directory.
	MigrationPath string `env:"MIGRATION_PATH" envDefault:"./migrations"`

	// Key-Value Cache (Redis). Backs the upstream search-result cache only;
	// it holds no data needed for correctness.
	RedisURL string `env:"REDIS_URL,required"`

	// Upstream provider client policy (Source Client, C3)
	RainAPIKey        string `env:"RAIN_API_KEY"`
	RainAPIBaseURL    string `env:"RAIN_API_BASE_URL" envDefault:"https://api.rain.example"`
	APITimeoutSeconds int    `env:"API_TIMEOUT"     envDefault:"30"`
	APIRetryTimes     int    `env:"API_RETRY_TIMES" envDefault:"3"`

	// Filesystem layout (Blob Store, C2)
	DataDir  string `env:"DATA_DIR"  envDefault:"./data"`
	BooksDir string `env:"BOOKS_DIR" envDefault:"./data/books"`
	EpubsDir string `env:"EPUBS_DIR" envDefault:"./data/epubs"`
	TxtsDir  string `env:"TXTS_DIR"  envDefault:"./data/txts"`

	// Quota Ledger (C4)
	DailyWordLimit int64 `env:"DAILY_WORD_LIMIT" envDefault:"20000000"`

	// Download Engine (C5). DownloadDelay is seconds between submissions
	// on the same worker; see [Config.DownloadDelayDuration].
	ConcurrentDownloads int     `env:"CONCURRENT_DOWNLOADS" envDefault:"3"`
	DownloadDelay       float64 `env:"DOWNLOAD_DELAY"       envDefault:"0.5"`

	// Auth gate (optional app-wide password, §4.8)
	AppPassword        string `env:"APP_PASSWORD"`
	SecretKey          string `env:"SECRET_KEY,required"`
	SessionExpireHours int    `env:"SESSION_EXPIRE_HOURS" envDefault:"168"`

	// Logging
	LogLevel       string `env:"LOG_LEVEL"        envDefault:"info"`
	LogFile        string `env:"LOG_FILE"`
	LogMaxSizeMB   int    `env:"LOG_MAX_SIZE"     envDefault:"10"`
	LogBackupCount int    `env:"LOG_BACKUP_COUNT" envDefault:"5"`
	LogFormat      string `env:"LOG_FORMAT"       envDefault:"json"`

	// EPUB assembly (C9)
	EpubLanguage    string `env:"EPUB_LANGUAGE"     envDefault:"zh"`
	EpubPublisher   string `env:"EPUB_PUBLISHER"    envDefault:"inkvault"`
	EpubCoverWidth  int    `env:"EPUB_COVER_WIDTH"  envDefault:"600"`
	EpubCoverHeight int    `env:"EPUB_COVER_HEIGHT" envDefault:"800"`

	// Cross-Origin Resource Sharing
	ExtraOrigins string `env:"EXTRA_ORIGINS"`
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct.
func Load() (*Config, error) {

	// Initialize an empty config struct
	cfg := &Config{}

	// Use the 'env' package to map environment variables to struct fields.
	// This will fail if any field marked with 'required' is missing.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	return cfg, nil
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// AuthEnabled reports whether the app-wide password gate (§4.8) is active.
func (c *Config) AuthEnabled() bool {
	return c.AppPassword != ""
}

// DownloadDelayDuration converts DownloadDelay (seconds) to a [time.Duration].
func (c *Config) DownloadDelayDuration() time.Duration {
	return time.Duration(c.DownloadDelay * float64(time.Second))
}

// APITimeout converts APITimeoutSeconds to a [time.Duration].
func (c *Config) APITimeout() time.Duration {
	return time.Duration(c.APITimeoutSeconds) * time.Second
}
