package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/plexarr/plexarr/internal/models"
	"github.com/sirupsen/logrus"
)

// HistoryHandler serves retained sync runs
type HistoryHandler struct {
	db     *models.Database
	logger *logrus.Logger
}

// NewHistoryHandler creates a new history handler
func NewHistoryHandler(db *models.Database, logger *logrus.Logger) *HistoryHandler {
	return &HistoryHandler{
		db:     db,
		logger: logger,
	}
}

// HistoryResponse represents the run history response
type HistoryResponse struct {
	Runs []*models.SyncRun `json:"runs"`
}

// ServeHTTP handles the history endpoint
func (h *HistoryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	runs, err := h.db.GetRuns()
	if err != nil {
		h.logger.WithError(err).Error("Failed to load run history")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if runs == nil {
		runs = []*models.SyncRun{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(HistoryResponse{Runs: runs})
}
