package tmdb

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/plexarr/plexarr/internal/models"
)

// ListItem is one raw entry from a TMDB list or account watchlist
type ListItem struct {
	ID        int
	Title     string
	Year      int
	MediaType models.MediaType
}

type listEntry struct {
	ID           int    `json:"id"`
	MediaType    string `json:"media_type"`
	Title        string `json:"title"`
	Name         string `json:"name"`
	ReleaseDate  string `json:"release_date"`
	FirstAirDate string `json:"first_air_date"`
}

func (e listEntry) toItem(fallback models.MediaType) (ListItem, bool) {
	item := ListItem{ID: e.ID, MediaType: fallback}
	switch e.MediaType {
	case "movie":
		item.MediaType = models.MediaTypeMovie
	case "tv":
		item.MediaType = models.MediaTypeShow
	}

	switch item.MediaType {
	case models.MediaTypeShow:
		item.Title = e.Name
		item.Year = parseYear(e.FirstAirDate)
	default:
		item.Title = e.Title
		item.Year = parseYear(e.ReleaseDate)
	}

	if item.ID == 0 || item.Title == "" {
		return ListItem{}, false
	}
	return item, true
}

// GetList retrieves all items of a public TMDB list, following pagination
func (c *Client) GetList(ctx context.Context, listID string) ([]ListItem, error) {
	if listID == "" {
		return nil, fmt.Errorf("%w: TMDB list id is required", models.ErrConfigInvalid)
	}

	var items []ListItem
	for page := 1; ; page++ {
		params := url.Values{}
		params.Set("page", strconv.Itoa(page))

		var resp struct {
			Items      []listEntry `json:"items"`
			Page       int         `json:"page"`
			TotalPages int         `json:"total_pages"`
		}

		if err := c.get(ctx, "/list/"+url.PathEscape(listID), params, "", &resp); err != nil {
			return nil, fmt.Errorf("failed to get list %s: %w", listID, err)
		}

		for _, entry := range resp.Items {
			item, ok := entry.toItem(models.MediaTypeMovie)
			if !ok {
				c.logger.WithField("entry_id", entry.ID).Warn("Skipping malformed list entry")
				continue
			}
			items = append(items, item)
		}

		if resp.TotalPages == 0 || page >= resp.TotalPages {
			break
		}
	}

	return items, nil
}

// GetAccountWatchlist retrieves the account's watchlist (movies and shows)
// using an authenticated session
func (c *Client) GetAccountWatchlist(ctx context.Context, accountID, sessionID string) ([]ListItem, error) {
	if accountID == "" {
		return nil, fmt.Errorf("%w: TMDB account id is required", models.ErrConfigInvalid)
	}
	if sessionID == "" {
		return nil, fmt.Errorf("no TMDB session: %w", models.ErrAuthFailed)
	}

	var items []ListItem
	for _, part := range []struct {
		path     string
		fallback models.MediaType
	}{
		{fmt.Sprintf("/account/%s/watchlist/movies", url.PathEscape(accountID)), models.MediaTypeMovie},
		{fmt.Sprintf("/account/%s/watchlist/tv", url.PathEscape(accountID)), models.MediaTypeShow},
	} {
		for page := 1; ; page++ {
			params := url.Values{}
			params.Set("page", strconv.Itoa(page))
			params.Set("sort_by", "created_at.asc")

			var resp struct {
				Results    []listEntry `json:"results"`
				Page       int         `json:"page"`
				TotalPages int         `json:"total_pages"`
			}

			if err := c.get(ctx, part.path, params, sessionID, &resp); err != nil {
				return nil, fmt.Errorf("failed to get account watchlist: %w", err)
			}

			for _, entry := range resp.Results {
				item, ok := entry.toItem(part.fallback)
				if !ok {
					c.logger.WithField("entry_id", entry.ID).Warn("Skipping malformed watchlist entry")
					continue
				}
				items = append(items, item)
			}

			if resp.TotalPages == 0 || page >= resp.TotalPages {
				break
			}
		}
	}

	return items, nil
}
