package reconciler

import "errors"

// Sentinel errors returned by Reconcile or recorded on failed actions.
var (
	// ErrConfigurationConflict is returned when the cached zone disagrees
	// with the configured one. No network call is made.
	ErrConfigurationConflict = errors.New("configuration conflict")

	// ErrZoneNotFound is returned when no zone is configured or the
	// configured name does not exist at the provider.
	ErrZoneNotFound = errors.New("zone not found")

	// ErrProviderCallFailed wraps a failed provider call.
	ErrProviderCallFailed = errors.New("provider call failed")

	// ErrProviderInconsistency is recorded when the provider echoes a
	// different id than the one updated.
	ErrProviderInconsistency = errors.New("provider inconsistency")
)
