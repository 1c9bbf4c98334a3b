package trakt

import (
	"context"
	"fmt"

	"github.com/plexarr/plexarr/internal/models"
)

// WatchlistEntry is one raw entry from the Trakt watchlist
type WatchlistEntry struct {
	Title     string
	Year      int
	IMDBId    string
	TMDBId    int
	MediaType models.MediaType
}

type watchlistItem struct {
	Type  string `json:"type"`
	Movie *struct {
		Title string `json:"title"`
		Year  int    `json:"year"`
		IDs   struct {
			IMDB string `json:"imdb"`
			TMDB int    `json:"tmdb"`
		} `json:"ids"`
	} `json:"movie,omitempty"`
	Show *struct {
		Title string `json:"title"`
		Year  int    `json:"year"`
		IDs   struct {
			IMDB string `json:"imdb"`
			TMDB int    `json:"tmdb"`
		} `json:"ids"`
	} `json:"show,omitempty"`
}

// GetWatchlist retrieves the authenticated user's watchlist in list order.
// Malformed entries are logged and skipped.
func (c *Client) GetWatchlist(ctx context.Context) ([]WatchlistEntry, error) {
	bearer, err := c.bearerToken()
	if err != nil {
		return nil, err
	}

	var items []watchlistItem
	if err := c.doRequest(ctx, "GET", "/sync/watchlist?sort=rank", bearer, nil, &items); err != nil {
		return nil, fmt.Errorf("failed to get watchlist: %w", err)
	}

	entries := make([]WatchlistEntry, 0, len(items))
	for _, item := range items {
		switch {
		case item.Type == "movie" && item.Movie != nil && item.Movie.Title != "":
			entries = append(entries, WatchlistEntry{
				Title:     item.Movie.Title,
				Year:      item.Movie.Year,
				IMDBId:    item.Movie.IDs.IMDB,
				TMDBId:    item.Movie.IDs.TMDB,
				MediaType: models.MediaTypeMovie,
			})
		case item.Type == "show" && item.Show != nil && item.Show.Title != "":
			entries = append(entries, WatchlistEntry{
				Title:     item.Show.Title,
				Year:      item.Show.Year,
				IMDBId:    item.Show.IDs.IMDB,
				TMDBId:    item.Show.IDs.TMDB,
				MediaType: models.MediaTypeShow,
			})
		default:
			c.logger.WithField("type", item.Type).Warn("Skipping malformed watchlist entry")
		}
	}

	return entries, nil
}
