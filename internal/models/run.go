package models

import "time"

// RunError records one per-item failure within a sync run
type RunError struct {
	Item   string `json:"item"`
	Reason string `json:"reason"`
}

// SyncRun records one sync execution. Created when a run starts, finalized
// when it ends, immutable thereafter.
type SyncRun struct {
	ID         uint64 `boltholdKey:"ID"`
	StartedAt  time.Time
	FinishedAt time.Time
	SourceType SourceType

	ItemsConsidered       int
	ItemsAdded            []WatchlistItem
	ItemsSkippedAvailable int
	Errors                []RunError

	// Set when the run aborted before reconciliation (fetch failure)
	Aborted     bool
	AbortReason string
}

// AddError appends a per-item failure to the run record
func (r *SyncRun) AddError(item WatchlistItem, reason string) {
	r.Errors = append(r.Errors, RunError{Item: item.Title, Reason: reason})
}

// Duration returns the wall time the run took
func (r *SyncRun) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
