// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Pavel Kazmin

package config

import (
	"time"
)

// Config is the top-level configuration container for the go-media-cache
// engine. It aggregates all sub-configurations and is populated by merging
// values from environment variables over built-in defaults.
//
// Struct tags:
//   - envPrefix — prefix applied to all nested env tag lookups (caarlos0/env).
//   - env       — direct environment variable name for scalar fields.
type Config struct {
	// Storage holds the cache store connection settings.
	Storage Storage `envPrefix:"STORAGE_"`

	// Providers holds the source authority endpoints and identities.
	Providers Providers `envPrefix:"PROVIDERS_"`

	// Sync holds page sizes, intervals and TTLs governing sync behavior.
	Sync Sync `envPrefix:"SYNC_"`
}

// Storage holds connection settings for the cache store backend.
type Storage struct {
	// DSN selects and configures the cache store backend. A plain file path
	// or ":memory:" opens SQLite; a "postgres://" URI opens PostgreSQL.
	// Env: STORAGE_DSN
	DSN string `env:"DSN"`
}

// Providers holds the identities and endpoints of the two source
// authorities. The local authority is fixed for the lifetime of the
// process; the cloud authority may be absent and may change identity.
type Providers struct {
	// LocalAuthority is the identifier of the always-present local source.
	// Env: PROVIDERS_LOCAL_AUTHORITY
	LocalAuthority string `env:"LOCAL_AUTHORITY"`

	// LocalBaseURL is the base URL of the local provider's HTTP endpoint.
	// Env: PROVIDERS_LOCAL_BASE_URL
	LocalBaseURL string `env:"LOCAL_BASE_URL"`

	// CloudAuthority is the identifier of the optional cloud source; empty
	// means no cloud provider is configured at startup.
	// Env: PROVIDERS_CLOUD_AUTHORITY
	CloudAuthority string `env:"CLOUD_AUTHORITY"`

	// CloudBaseURL is the base URL of the cloud provider's HTTP endpoint.
	// Env: PROVIDERS_CLOUD_BASE_URL
	CloudBaseURL string `env:"CLOUD_BASE_URL"`

	// RequestTimeout bounds a single page fetch from a provider.
	// Env: PROVIDERS_REQUEST_TIMEOUT
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"`
}

// Sync holds the knobs of the sync scheduler and executors.
type Sync struct {
	// PageSize is the number of rows requested per provider page.
	// Env: SYNC_PAGE_SIZE
	PageSize int `env:"PAGE_SIZE"`

	// ProactiveDelay is the initial delay before a proactive sync starts.
	// Env: SYNC_PROACTIVE_DELAY
	ProactiveDelay time.Duration `env:"PROACTIVE_DELAY"`

	// PeriodicInterval is the interval between periodic proactive syncs.
	// Env: SYNC_PERIODIC_INTERVAL
	PeriodicInterval time.Duration `env:"PERIODIC_INTERVAL"`

	// AlbumResetInterval is the interval between periodic album-media
	// cache resets.
	// Env: SYNC_ALBUM_RESET_INTERVAL
	AlbumResetInterval time.Duration `env:"ALBUM_RESET_INTERVAL"`

	// SuggestionTTL is how long search suggestion and history rows live
	// before the periodic prune removes them.
	// Env: SYNC_SUGGESTION_TTL
	SuggestionTTL time.Duration `env:"SUGGESTION_TTL"`

	// SearchResetDelay is the delay before a full search-cache reset runs.
	// Env: SYNC_SEARCH_RESET_DELAY
	SearchResetDelay time.Duration `env:"SEARCH_RESET_DELAY"`

	// CloudSyncEnabled toggles all cloud-facing periodic work. Turning it
	// off cancels the registered periodic work items.
	// Env: SYNC_CLOUD_ENABLED
	CloudSyncEnabled bool `env:"CLOUD_ENABLED"`
}

// Default returns the built-in configuration the environment is merged over.
func Default() *Config {
	return &Config{
		Storage: Storage{
			DSN: "media-cache.db",
		},
		Providers: Providers{
			LocalAuthority: "local",
			LocalBaseURL:   "http://localhost:8090",
			RequestTimeout: 15 * time.Second,
		},
		Sync: Sync{
			PageSize:           500,
			ProactiveDelay:     1500 * time.Millisecond,
			PeriodicInterval:   4 * time.Hour,
			AlbumResetInterval: 12 * time.Hour,
			SuggestionTTL:      24 * time.Hour,
			SearchResetDelay:   30 * time.Minute,
			CloudSyncEnabled:   true,
		},
	}
}

// GetConfig loads, merges, and validates the engine configuration: values
// from environment variables take precedence over the built-in defaults.
//
// Returns a fully populated *Config or an error if any source fails to load
// or the final config fails validation.
func GetConfig() (*Config, error) {
	return newConfigBuilder().
		withEnv().
		withDefaults().
		build()
}
