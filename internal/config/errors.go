package config

import "errors"

// Validation errors returned by [Config.validate] when required
// configuration groups are incomplete or invalid.
var (
	// ErrInvalidStorageConfigs indicates invalid cache store settings
	// (for example, an empty DSN).
	ErrInvalidStorageConfigs = errors.New("invalid storage configuration")
	// ErrInvalidProviderConfigs indicates invalid source authority settings
	// (for example, a missing local authority).
	ErrInvalidProviderConfigs = errors.New("invalid provider configuration")
	// ErrInvalidSyncConfigs indicates invalid sync settings (for example,
	// a non-positive page size).
	ErrInvalidSyncConfigs = errors.New("invalid sync configuration")
)
