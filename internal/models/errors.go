package models

import (
	"errors"
	"fmt"
)

// Failure taxonomy for sync runs. Only ErrConfigInvalid, ErrAuthFailed at
// fetch time and ErrSourceUnavailable abort a run; per-item failures are
// aggregated into SyncRun.Errors.
var (
	// ErrConfigInvalid indicates malformed configuration (bad URL, missing key)
	ErrConfigInvalid = errors.New("configuration invalid")

	// ErrAuthFailed indicates an expired or invalid credential; the operator
	// must re-authenticate rather than retry
	ErrAuthFailed = errors.New("authentication failed")

	// ErrSessionExpired is an AuthFailed variant: the credential was once
	// valid but the session has expired. errors.Is(err, ErrAuthFailed)
	// matches it too.
	ErrSessionExpired = fmt.Errorf("%w: session expired", ErrAuthFailed)

	// ErrSourceUnavailable indicates the source fetch failed after retries
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrResolutionFailed indicates a single item's availability lookup
	// exhausted its retries
	ErrResolutionFailed = errors.New("availability resolution failed")

	// ErrAddFailed indicates the target service rejected one item
	ErrAddFailed = errors.New("add to target watchlist failed")

	// ErrAlreadyRunning indicates a sync was triggered while one is active
	ErrAlreadyRunning = errors.New("sync already running")
)

// IsRunAborting reports whether an error from a source fetch should abort
// the whole run rather than be recorded per item.
func IsRunAborting(err error) bool {
	return errors.Is(err, ErrConfigInvalid) ||
		errors.Is(err, ErrAuthFailed) ||
		errors.Is(err, ErrSourceUnavailable)
}
