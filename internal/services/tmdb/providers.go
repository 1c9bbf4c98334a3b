package tmdb

import (
	"context"
	"fmt"

	"github.com/plexarr/plexarr/internal/models"
)

// WatchProviders returns the flatrate streaming providers offering the
// title in the given region. Rentals and purchases do not count.
func (c *Client) WatchProviders(ctx context.Context, tmdbID int, mediaType models.MediaType, region string) ([]string, error) {
	kind := "movie"
	if mediaType == models.MediaTypeShow {
		kind = "tv"
	}
	path := fmt.Sprintf("/%s/%d/watch/providers", kind, tmdbID)

	var resp struct {
		Results map[string]struct {
			Flatrate []struct {
				ProviderID   int    `json:"provider_id"`
				ProviderName string `json:"provider_name"`
			} `json:"flatrate"`
		} `json:"results"`
	}

	if err := c.get(ctx, path, nil, "", &resp); err != nil {
		return nil, fmt.Errorf("failed to get watch providers for %d: %w", tmdbID, err)
	}

	regionData, ok := resp.Results[region]
	if !ok {
		return nil, nil
	}

	providers := make([]string, 0, len(regionData.Flatrate))
	for _, p := range regionData.Flatrate {
		providers = append(providers, p.ProviderName)
	}
	return providers, nil
}
