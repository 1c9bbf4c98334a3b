package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/plexarr/plexarr/internal/models"
	"github.com/sirupsen/logrus"
)

// SyncScheduler is the scheduler surface the API needs
type SyncScheduler interface {
	State() models.SchedulerState
	TriggerSync() error
}

// StatusHandler handles status requests
type StatusHandler struct {
	scheduler SyncScheduler
	db        *models.Database
	logger    *logrus.Logger
}

// NewStatusHandler creates a new status handler
func NewStatusHandler(scheduler SyncScheduler, db *models.Database, logger *logrus.Logger) *StatusHandler {
	return &StatusHandler{
		scheduler: scheduler,
		db:        db,
		logger:    logger,
	}
}

// RunSummary is the last-run section of the status response
type RunSummary struct {
	SourceType            models.SourceType `json:"source_type"`
	StartedAt             time.Time         `json:"started_at"`
	FinishedAt            time.Time         `json:"finished_at"`
	ItemsConsidered       int               `json:"items_considered"`
	ItemsAdded            int               `json:"items_added"`
	ItemsSkippedAvailable int               `json:"items_skipped_available"`
	Errors                int               `json:"errors"`
	Aborted               bool              `json:"aborted"`
	AbortReason           string            `json:"abort_reason,omitempty"`
}

// StatusResponse represents the status response
type StatusResponse struct {
	State   models.SchedulerState `json:"state"`
	LastRun *RunSummary           `json:"last_run,omitempty"`
}

// ServeHTTP handles the status endpoint
func (h *StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := StatusResponse{State: h.scheduler.State()}

	last, err := h.db.LastRun()
	if err != nil {
		h.logger.WithError(err).Error("Failed to load last run")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if last != nil {
		response.LastRun = &RunSummary{
			SourceType:            last.SourceType,
			StartedAt:             last.StartedAt,
			FinishedAt:            last.FinishedAt,
			ItemsConsidered:       last.ItemsConsidered,
			ItemsAdded:            len(last.ItemsAdded),
			ItemsSkippedAvailable: last.ItemsSkippedAvailable,
			Errors:                len(last.Errors),
			Aborted:               last.Aborted,
			AbortReason:           last.AbortReason,
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}
