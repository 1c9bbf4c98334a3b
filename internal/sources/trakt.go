package sources

import (
	"context"

	"github.com/plexarr/plexarr/internal/config"
	"github.com/plexarr/plexarr/internal/models"
	"github.com/plexarr/plexarr/internal/services/trakt"
)

// TraktAdapter normalizes the Trakt user watchlist
type TraktAdapter struct {
	client *trakt.Client
}

// NewTraktAdapter creates the Trakt source adapter
func NewTraktAdapter(client *trakt.Client) *TraktAdapter {
	return &TraktAdapter{client: client}
}

// Type implements Adapter
func (a *TraktAdapter) Type() models.SourceType {
	return models.SourceTrakt
}

// Fetch implements Adapter. An absent or expired token fails with
// AuthFailed; the device flow is re-run by the operator, never from here.
func (a *TraktAdapter) Fetch(ctx context.Context, settings config.SyncSettings) ([]models.WatchlistItem, error) {
	entries, err := a.client.GetWatchlist(ctx)
	if err != nil {
		return nil, err
	}

	items := make([]models.WatchlistItem, 0, len(entries))
	for _, e := range entries {
		sourceID := e.IMDBId
		if sourceID == "" {
			sourceID = e.Title
		}
		items = append(items, models.WatchlistItem{
			Title:     e.Title,
			Year:      e.Year,
			MediaType: e.MediaType,
			SourceID:  sourceID,
			TMDBId:    e.TMDBId,
		})
	}
	return items, nil
}
