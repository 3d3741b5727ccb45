package provider

import "errors"

var (
	// ErrNoCloudProvider is returned when an operation needs a cloud
	// authority but none is configured.
	ErrNoCloudProvider = errors.New("no cloud provider configured")

	// ErrProviderUnavailable is returned when a configured provider did not
	// become ready within the allowed wait.
	ErrProviderUnavailable = errors.New("provider unavailable")
)
