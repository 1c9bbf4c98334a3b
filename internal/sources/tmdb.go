package sources

import (
	"context"
	"fmt"
	"strconv"

	"github.com/plexarr/plexarr/internal/config"
	"github.com/plexarr/plexarr/internal/models"
	"github.com/plexarr/plexarr/internal/services/tmdb"
)

// TMDBListAdapter normalizes entries of a public TMDB list
type TMDBListAdapter struct {
	client *tmdb.Client
}

// NewTMDBListAdapter creates the TMDB list source adapter
func NewTMDBListAdapter(client *tmdb.Client) *TMDBListAdapter {
	return &TMDBListAdapter{client: client}
}

// Type implements Adapter
func (a *TMDBListAdapter) Type() models.SourceType {
	return models.SourceTMDBList
}

// Fetch implements Adapter
func (a *TMDBListAdapter) Fetch(ctx context.Context, settings config.SyncSettings) ([]models.WatchlistItem, error) {
	listItems, err := a.client.GetList(ctx, settings.TMDBListID)
	if err != nil {
		return nil, err
	}
	return normalizeTMDBItems(listItems), nil
}

// TMDBWatchlistAdapter normalizes the TMDB account watchlist. Requires an
// authenticated session from the credential store.
type TMDBWatchlistAdapter struct {
	client      *tmdb.Client
	credentials models.CredentialStore
}

// NewTMDBWatchlistAdapter creates the TMDB watchlist source adapter
func NewTMDBWatchlistAdapter(client *tmdb.Client, credentials models.CredentialStore) *TMDBWatchlistAdapter {
	return &TMDBWatchlistAdapter{client: client, credentials: credentials}
}

// Type implements Adapter
func (a *TMDBWatchlistAdapter) Type() models.SourceType {
	return models.SourceTMDBWatchlist
}

// Fetch implements Adapter
func (a *TMDBWatchlistAdapter) Fetch(ctx context.Context, settings config.SyncSettings) ([]models.WatchlistItem, error) {
	cred, err := a.credentials.GetCredential(models.ServiceTMDB)
	if err != nil {
		return nil, fmt.Errorf("no TMDB session: %w", models.ErrAuthFailed)
	}

	// The session id lives in the refresh slot; TMDB sessions do not expire
	// on a schedule but the API may still reject them
	listItems, err := a.client.GetAccountWatchlist(ctx, settings.TMDBAccountID, cred.RefreshToken)
	if err != nil {
		return nil, err
	}
	return normalizeTMDBItems(listItems), nil
}

func normalizeTMDBItems(listItems []tmdb.ListItem) []models.WatchlistItem {
	items := make([]models.WatchlistItem, 0, len(listItems))
	for _, li := range listItems {
		items = append(items, models.WatchlistItem{
			Title:     li.Title,
			Year:      li.Year,
			MediaType: li.MediaType,
			SourceID:  strconv.Itoa(li.ID),
			TMDBId:    li.ID,
		})
	}
	return items
}
