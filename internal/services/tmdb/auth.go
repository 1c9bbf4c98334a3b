package tmdb

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/plexarr/plexarr/internal/models"
)

// SessionFlowState tracks the TMDB session exchange. The user-approval step
// happens in the browser; this client only performs the token and session
// calls around it.
type SessionFlowState string

const (
	FlowNotStarted       SessionFlowState = "not_started"
	FlowTokenRequested   SessionFlowState = "token_requested"
	FlowAwaitingApproval SessionFlowState = "awaiting_approval"
	FlowAuthorized       SessionFlowState = "authorized"
)

// SessionFlow is the explicit state of one request-token/session exchange
type SessionFlow struct {
	State        SessionFlowState
	RequestToken string
	TokenExpires time.Time
	ApprovalURL  string
	StartedAt    time.Time
}

// Stalled reports whether the flow is waiting on an approval that can no
// longer arrive (the request token expired).
func (f *SessionFlow) Stalled() bool {
	return f.State == FlowAwaitingApproval && time.Now().After(f.TokenExpires)
}

// StartSessionFlow requests a new token and returns the flow awaiting
// user approval at the returned URL
func (c *Client) StartSessionFlow(ctx context.Context) (*SessionFlow, error) {
	var resp struct {
		Success      bool   `json:"success"`
		ExpiresAt    string `json:"expires_at"`
		RequestToken string `json:"request_token"`
	}

	if err := c.get(ctx, "/authentication/token/new", nil, "", &resp); err != nil {
		return nil, fmt.Errorf("failed to request token: %w", err)
	}
	if !resp.Success || resp.RequestToken == "" {
		return nil, fmt.Errorf("TMDB did not issue a request token")
	}

	expires, err := time.Parse("2006-01-02 15:04:05 MST", resp.ExpiresAt)
	if err != nil {
		expires = time.Now().Add(time.Hour)
	}

	flow := &SessionFlow{
		State:        FlowAwaitingApproval,
		RequestToken: resp.RequestToken,
		TokenExpires: expires,
		ApprovalURL:  "https://www.themoviedb.org/authenticate/" + resp.RequestToken,
		StartedAt:    time.Now(),
	}

	c.logger.WithField("approval_url", flow.ApprovalURL).Info("TMDB session flow awaiting user approval")
	return flow, nil
}

// CompleteSessionFlow exchanges an approved request token for a session id
// and stores it in the credential store
func (c *Client) CompleteSessionFlow(ctx context.Context, flow *SessionFlow, store models.CredentialStore) (string, error) {
	if flow.Stalled() {
		return "", fmt.Errorf("request token expired before approval: %w", models.ErrAuthFailed)
	}

	body, err := json.Marshal(map[string]string{"request_token": flow.RequestToken})
	if err != nil {
		return "", fmt.Errorf("failed to marshal session request: %w", err)
	}

	fullURL := fmt.Sprintf("%s/authentication/session/new?api_key=%s", c.baseURL, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fullURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("session request failed: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode == http.StatusUnauthorized {
		return "", fmt.Errorf("request token was not approved: %w", models.ErrAuthFailed)
	}
	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return "", fmt.Errorf("session request returned status %d", httpResp.StatusCode)
	}

	var resp struct {
		Success   bool   `json:"success"`
		SessionID string `json:"session_id"`
	}
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return "", fmt.Errorf("failed to decode session response: %w", err)
	}
	if !resp.Success || resp.SessionID == "" {
		return "", fmt.Errorf("TMDB did not issue a session id")
	}

	flow.State = FlowAuthorized
	if err := store.PutCredential(&models.Credential{
		Service:      models.ServiceTMDB,
		RefreshToken: resp.SessionID,
	}); err != nil {
		return "", fmt.Errorf("failed to store session: %w", err)
	}

	c.logger.Info("TMDB session established")
	return resp.SessionID, nil
}
