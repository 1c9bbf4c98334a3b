package plex

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/plexarr/plexarr/internal/models"
)

// AddItem matches the item through the Plex metadata provider and adds it
// to the watchlist. Matching prefers the IMDB guid, then TMDB.
func (c *Client) AddItem(ctx context.Context, item models.WatchlistItem) error {
	var guid string
	switch {
	case item.SourceID != "" && len(item.SourceID) > 2 && item.SourceID[:2] == "tt":
		guid = "imdb://" + item.SourceID
	case item.TMDBId != 0:
		guid = fmt.Sprintf("tmdb://%d", item.TMDBId)
	default:
		return fmt.Errorf("%w: no external id to match %q", models.ErrAddFailed, item.Title)
	}

	ratingKey, err := c.matchRatingKey(ctx, guid, item.MediaType)
	if err != nil {
		return err
	}

	return c.addToWatchlist(ctx, ratingKey, item.Title)
}

// matchRatingKey resolves a Plex ratingKey from an external guid
func (c *Client) matchRatingKey(ctx context.Context, guid string, mediaType models.MediaType) (string, error) {
	// Plex metadata match types: 1 = movie, 2 = show
	matchType := "1"
	if mediaType == models.MediaTypeShow {
		matchType = "2"
	}

	params := url.Values{}
	params.Set("type", matchType)
	params.Set("guid", guid)

	matchURL := c.metadataURL + "/library/metadata/matches?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, matchURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("plex match request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return "", fmt.Errorf("Plex rejected the token: %w", models.ErrAuthFailed)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: match returned status %d", models.ErrAddFailed, resp.StatusCode)
	}

	var parsed struct {
		MediaContainer struct {
			Metadata []struct {
				RatingKey string `json:"ratingKey"`
			} `json:"Metadata"`
		} `json:"MediaContainer"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("failed to decode match response: %w", err)
	}

	if len(parsed.MediaContainer.Metadata) == 0 {
		return "", fmt.Errorf("%w: no Plex match for %s", models.ErrAddFailed, guid)
	}
	return parsed.MediaContainer.Metadata[0].RatingKey, nil
}

func (c *Client) addToWatchlist(ctx context.Context, ratingKey, title string) error {
	params := url.Values{}
	params.Set("ratingKey", ratingKey)

	addURL := c.metadataURL + "/actions/addToWatchlist?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, addURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("plex add request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("Plex rejected the token: %w", models.ErrAuthFailed)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%w: add returned status %d: %s", models.ErrAddFailed, resp.StatusCode, string(body))
	}

	c.logger.WithField("title", title).Info("Added item to Plex watchlist")
	return nil
}
