package trakt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/plexarr/plexarr/internal/models"
	"github.com/sirupsen/logrus"
)

const (
	defaultBaseURL = "https://api.trakt.tv"
	apiVersion     = "2"
)

// Client handles communication with the Trakt API
type Client struct {
	clientID     string
	clientSecret string
	baseURL      string
	credentials  models.CredentialStore
	httpClient   *http.Client
	logger       *logrus.Logger
}

// NewClient creates a new Trakt API client. Credentials live in the
// injected store; the client reads them and writes back on refresh.
func NewClient(clientID, clientSecret string, credentials models.CredentialStore, logger *logrus.Logger) (*Client, error) {
	if clientID == "" || clientSecret == "" {
		return nil, fmt.Errorf("%w: Trakt client id and secret are required", models.ErrConfigInvalid)
	}

	return &Client{
		clientID:     clientID,
		clientSecret: clientSecret,
		baseURL:      defaultBaseURL,
		credentials:  credentials,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		logger:       logger,
	}, nil
}

// bearerToken returns a currently valid access token. There is no silent
// refresh here: an absent or expired token is an AuthFailed the caller
// surfaces so the operator re-runs the device flow.
func (c *Client) bearerToken() (string, error) {
	cred, err := c.credentials.GetCredential(models.ServiceTrakt)
	if err != nil {
		return "", fmt.Errorf("no Trakt token: %w", models.ErrAuthFailed)
	}
	if cred.Expired() {
		return "", fmt.Errorf("Trakt token expired: %w", models.ErrSessionExpired)
	}
	return cred.AccessToken, nil
}

// doRequest performs an HTTP request to the Trakt API. bearer may be empty
// for the unauthenticated OAuth endpoints.
func (c *Client) doRequest(ctx context.Context, method, path, bearer string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	}

	fullURL := c.baseURL + path
	c.logger.WithFields(logrus.Fields{
		"method": method,
		"path":   path,
	}).Debug("Making Trakt API request")

	req, err := http.NewRequestWithContext(ctx, method, fullURL, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("trakt-api-version", apiVersion)
	req.Header.Set("trakt-api-key", c.clientID)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return fmt.Errorf("Trakt rejected the token (status %d): %w", resp.StatusCode, models.ErrAuthFailed)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}
