package syncengine

import "errors"

var (
	// ErrAuthRequired means the caller is not authenticated. Re-authenticate before retrying.
	ErrAuthRequired = errors.New("authentication required")

	// ErrNotConfigured means sync is disabled for this deployment. Callers stay quiet and do not retry.
	ErrNotConfigured = errors.New("sync not configured")

	// ErrInvalidPayload means a pushed entity could not be stored as sent (for example, a missing id).
	ErrInvalidPayload = errors.New("invalid sync payload")

	// ErrTransient wraps network and storage failures seen by a device. They are retried
	// only by the next scheduled or manual sync.
	ErrTransient = errors.New("transient sync failure")
)
