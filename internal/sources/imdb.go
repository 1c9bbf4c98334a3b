package sources

import (
	"context"
	"fmt"

	"github.com/plexarr/plexarr/internal/config"
	"github.com/plexarr/plexarr/internal/models"
	"github.com/plexarr/plexarr/internal/services/imdb"
)

// IMDBAdapter normalizes entries of a public IMDB list feed
type IMDBAdapter struct {
	client *imdb.Client
}

// NewIMDBAdapter creates the IMDB source adapter
func NewIMDBAdapter(client *imdb.Client) *IMDBAdapter {
	return &IMDBAdapter{client: client}
}

// Type implements Adapter
func (a *IMDBAdapter) Type() models.SourceType {
	return models.SourceIMDB
}

// Fetch implements Adapter
func (a *IMDBAdapter) Fetch(ctx context.Context, settings config.SyncSettings) ([]models.WatchlistItem, error) {
	if settings.IMDBListURL == "" {
		return nil, fmt.Errorf("%w: IMDB list URL is not configured", models.ErrConfigInvalid)
	}

	entries, err := a.client.Fetch(ctx, settings.IMDBListURL)
	if err != nil {
		return nil, err
	}

	items := make([]models.WatchlistItem, 0, len(entries))
	for _, e := range entries {
		items = append(items, models.WatchlistItem{
			Title:     e.Title,
			Year:      e.Year,
			MediaType: e.MediaType,
			SourceID:  e.IMDBId,
		})
	}
	return items, nil
}
