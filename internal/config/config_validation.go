// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Pavel Kazmin

package config

// validate checks that the final merged [Config] satisfies all engine
// invariants before it is used at startup.
//
// Returns nil if the configuration is valid, or a sentinel error otherwise.
func (cfg *Config) validate() error {
	if cfg.Storage.DSN == "" {
		return ErrInvalidStorageConfigs
	}

	if cfg.Providers.LocalAuthority == "" || cfg.Providers.LocalBaseURL == "" {
		return ErrInvalidProviderConfigs
	}
	if cfg.Providers.CloudAuthority != "" && cfg.Providers.CloudBaseURL == "" {
		return ErrInvalidProviderConfigs
	}

	if cfg.Sync.PageSize <= 0 || cfg.Sync.SuggestionTTL <= 0 {
		return ErrInvalidSyncConfigs
	}

	return nil
}
