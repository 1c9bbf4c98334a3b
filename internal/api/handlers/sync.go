package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/plexarr/plexarr/internal/models"
	"github.com/sirupsen/logrus"
)

// SyncHandler triggers manual sync runs
type SyncHandler struct {
	scheduler SyncScheduler
	logger    *logrus.Logger
}

// NewSyncHandler creates a new sync trigger handler
func NewSyncHandler(scheduler SyncScheduler, logger *logrus.Logger) *SyncHandler {
	return &SyncHandler{
		scheduler: scheduler,
		logger:    logger,
	}
}

// ServeHTTP handles manual sync triggers. The run executes in the
// background; the response only acknowledges that it started.
func (h *SyncHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := h.scheduler.TriggerSync(); err != nil {
		if errors.Is(err, models.ErrAlreadyRunning) {
			http.Error(w, "Sync already running", http.StatusConflict)
			return
		}
		h.logger.WithError(err).Error("Failed to trigger sync")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.logger.Info("Manual sync triggered")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]string{"status": "started"})
}
