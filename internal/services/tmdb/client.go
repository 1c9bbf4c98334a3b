package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/plexarr/plexarr/internal/models"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://api.themoviedb.org/3"

// maxAttempts bounds retries on 429/5xx responses
const maxAttempts = 3

// Client handles communication with the TMDB API
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *logrus.Logger
}

// NewClient creates a new TMDB API client
func NewClient(apiKey string, logger *logrus.Logger) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: TMDB API key is required", models.ErrConfigInvalid)
	}

	return &Client{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		// TMDB allows ~50 req/s; stay well under it
		limiter: rate.NewLimiter(rate.Limit(4), 4),
		logger:  logger,
	}, nil
}

// apiError carries the HTTP status for retry decisions
type apiError struct {
	StatusCode int
	Body       string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("TMDB API returned status %d: %s", e.StatusCode, e.Body)
}

func (e *apiError) transient() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// doRequest performs one TMDB API call. The API key is always appended;
// sessionID, when non-empty, authenticates account-scoped endpoints.
func (c *Client) doRequest(ctx context.Context, path string, params url.Values, sessionID string, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	if params == nil {
		params = url.Values{}
	}
	params.Set("api_key", c.apiKey)
	if sessionID != "" {
		params.Set("session_id", sessionID)
	}

	fullURL := c.baseURL + path + "?" + params.Encode()
	c.logger.WithField("path", path).Debug("Making TMDB API request")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		if sessionID != "" {
			return fmt.Errorf("TMDB rejected the session: %w", models.ErrSessionExpired)
		}
		return fmt.Errorf("TMDB rejected the API key: %w", models.ErrAuthFailed)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &apiError{StatusCode: resp.StatusCode, Body: string(bodyBytes)}
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// get performs a GET with bounded exponential backoff on 429/5xx
func (c *Client) get(ctx context.Context, path string, params url.Values, sessionID string, result interface{}) error {
	attempt := 0
	operation := func() error {
		attempt++
		err := c.doRequest(ctx, path, params, sessionID, result)
		if err == nil {
			return nil
		}

		var apiErr *apiError
		if errors.As(err, &apiErr) && apiErr.transient() {
			c.logger.WithFields(logrus.Fields{
				"path":    path,
				"status":  apiErr.StatusCode,
				"attempt": attempt,
			}).Warn("Transient TMDB error, will retry")
			return err
		}
		return backoff.Permanent(err)
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 500 * time.Millisecond
	bo.MaxElapsedTime = 0

	return backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(bo, maxAttempts-1), ctx))
}
