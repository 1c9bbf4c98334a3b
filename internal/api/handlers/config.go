package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/plexarr/plexarr/internal/config"
	"github.com/plexarr/plexarr/internal/models"
	"github.com/sirupsen/logrus"
)

// ConfigHandler reads and updates the sync settings
type ConfigHandler struct {
	cfg    *config.Config
	logger *logrus.Logger
}

// NewConfigHandler creates a new config handler
func NewConfigHandler(cfg *config.Config, logger *logrus.Logger) *ConfigHandler {
	return &ConfigHandler{
		cfg:    cfg,
		logger: logger,
	}
}

// SyncSettingsPayload is the wire form of the sync settings
type SyncSettingsPayload struct {
	SourceType          models.SourceType `json:"source_type"`
	IMDBListURL         string            `json:"imdb_list_url,omitempty"`
	TMDBListID          string            `json:"tmdb_list_id,omitempty"`
	TMDBAccountID       string            `json:"tmdb_account_id,omitempty"`
	Region              string            `json:"region"`
	SubscribedProviders []string          `json:"subscribed_providers"`
	SyncIntervalHours   float64           `json:"sync_interval_hours"`
}

func payloadFrom(s config.SyncSettings) SyncSettingsPayload {
	return SyncSettingsPayload{
		SourceType:          s.SourceType,
		IMDBListURL:         s.IMDBListURL,
		TMDBListID:          s.TMDBListID,
		TMDBAccountID:       s.TMDBAccountID,
		Region:              s.Region,
		SubscribedProviders: s.SubscribedProviders,
		SyncIntervalHours:   s.SyncInterval.Hours(),
	}
}

func (p SyncSettingsPayload) toSettings() config.SyncSettings {
	return config.SyncSettings{
		SourceType:          p.SourceType,
		IMDBListURL:         p.IMDBListURL,
		TMDBListID:          p.TMDBListID,
		TMDBAccountID:       p.TMDBAccountID,
		Region:              p.Region,
		SubscribedProviders: p.SubscribedProviders,
		SyncInterval:        time.Duration(p.SyncIntervalHours * float64(time.Hour)),
	}
}

// ServeHTTP handles reading and replacing the sync settings. Updates apply
// to runs started after the call; a run in flight keeps its snapshot.
func (h *ConfigHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(payloadFrom(h.cfg.Snapshot()))

	case http.MethodPut, http.MethodPost:
		var payload SyncSettingsPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			http.Error(w, "Invalid JSON body", http.StatusBadRequest)
			return
		}

		if err := h.cfg.UpdateSync(payload.toSettings()); err != nil {
			if errors.Is(err, models.ErrConfigInvalid) {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			h.logger.WithError(err).Error("Failed to update settings")
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		h.logger.WithField("source", payload.SourceType).Info("Sync settings updated")
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(payloadFrom(h.cfg.Snapshot()))

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}
