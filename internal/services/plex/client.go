package plex

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/plexarr/plexarr/internal/models"
	"github.com/sirupsen/logrus"
)

const (
	defaultDiscoverBaseURL = "https://discover.provider.plex.tv"
	defaultMetadataBaseURL = "https://metadata.provider.plex.tv"
)

// Client is the target watchlist client: it lists the current Plex
// watchlist and adds items to it, authenticated by an externally
// supplied token.
type Client struct {
	token       string
	discoverURL string
	metadataURL string
	httpClient  *http.Client
	logger      *logrus.Logger
}

// NewClient creates a new Plex API client
func NewClient(token string, logger *logrus.Logger) (*Client, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: Plex token is required", models.ErrConfigInvalid)
	}

	return &Client{
		token:       token,
		discoverURL: defaultDiscoverBaseURL,
		metadataURL: defaultMetadataBaseURL,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		logger:      logger,
	}, nil
}

// WatchlistItem is one entry of the Plex watchlist with its external ids
type WatchlistItem struct {
	RatingKey string
	Title     string
	Year      int
	MediaType models.MediaType
	IMDBId    string
	TMDBId    int
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("X-Plex-Token", c.token)
	req.Header.Set("X-Plex-Client-Identifier", "plexarr")
	req.Header.Set("X-Plex-Product", "plexarr")
	req.Header.Set("Accept", "application/json")
}

type watchlistResponse struct {
	MediaContainer struct {
		TotalSize int `json:"totalSize"`
		Metadata  []struct {
			RatingKey string `json:"ratingKey"`
			GUID      string `json:"guid"`
			Type      string `json:"type"`
			Title     string `json:"title"`
			Year      int    `json:"year"`
			Guids     []struct {
				ID string `json:"id"`
			} `json:"Guid"`
		} `json:"Metadata"`
	} `json:"MediaContainer"`
}

// GetWatchlist retrieves the full current watchlist, following pagination.
// Always fetched fresh; never cached across runs.
func (c *Client) GetWatchlist(ctx context.Context) ([]WatchlistItem, error) {
	var all []WatchlistItem
	offset := 0
	const pageSize = 50

	for {
		page, totalSize, err := c.getWatchlistPage(ctx, offset, pageSize)
		if err != nil {
			return nil, err
		}

		all = append(all, page...)
		if len(all) >= totalSize || len(page) == 0 {
			break
		}
		offset += len(page)
	}

	return all, nil
}

func (c *Client) getWatchlistPage(ctx context.Context, offset, limit int) ([]WatchlistItem, int, error) {
	url := fmt.Sprintf("%s/library/sections/watchlist/all?X-Plex-Container-Start=%d&X-Plex-Container-Size=%d",
		c.discoverURL, offset, limit)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("plex watchlist request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, 0, fmt.Errorf("Plex rejected the token: %w", models.ErrAuthFailed)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, 0, fmt.Errorf("plex watchlist returned status %d: %s", resp.StatusCode, string(body))
	}

	var parsed watchlistResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, 0, fmt.Errorf("failed to decode watchlist: %w", err)
	}

	items := make([]WatchlistItem, 0, len(parsed.MediaContainer.Metadata))
	for _, md := range parsed.MediaContainer.Metadata {
		item := WatchlistItem{
			RatingKey: md.RatingKey,
			Title:     md.Title,
			Year:      md.Year,
			MediaType: normalizeMediaType(md.Type),
		}

		ids := ParseGUID(md.GUID)
		for _, g := range md.Guids {
			for k, v := range ParseGUID(g.ID) {
				ids[k] = v
			}
		}
		item.IMDBId = ids["imdb"]
		if raw, ok := ids["tmdb"]; ok {
			if id, err := strconv.Atoi(raw); err == nil {
				item.TMDBId = id
			}
		}

		items = append(items, item)
	}

	return items, parsed.MediaContainer.TotalSize, nil
}

var guidPatterns = map[string]*regexp.Regexp{
	"imdb": regexp.MustCompile(`imdb://?(tt\d+)`),
	"tmdb": regexp.MustCompile(`tmdb://(\d+)`),
	"tvdb": regexp.MustCompile(`tvdb://(\d+)`),
}

// ParseGUID extracts external ids from a Plex GUID string, e.g.
// "imdb://tt1234567" or "tmdb://603"
func ParseGUID(guid string) map[string]string {
	ids := make(map[string]string)
	for service, pattern := range guidPatterns {
		if matches := pattern.FindStringSubmatch(guid); len(matches) > 1 {
			ids[service] = matches[1]
		}
	}
	return ids
}

func normalizeMediaType(plexType string) models.MediaType {
	if plexType == "show" {
		return models.MediaTypeShow
	}
	return models.MediaTypeMovie
}
