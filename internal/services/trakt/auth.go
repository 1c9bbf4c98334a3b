package trakt

import (
	"context"
	"fmt"
	"time"

	"github.com/plexarr/plexarr/internal/models"
)

// DeviceFlowState tracks the OAuth device-code flow
type DeviceFlowState string

const (
	FlowNotStarted       DeviceFlowState = "not_started"
	FlowTokenRequested   DeviceFlowState = "token_requested"
	FlowAwaitingApproval DeviceFlowState = "awaiting_approval"
	FlowAuthorized       DeviceFlowState = "authorized"
)

// DeviceFlow is the explicit state of one device authentication attempt,
// with transition timestamps so a stalled approval is distinguishable from
// a failed one.
type DeviceFlow struct {
	State           DeviceFlowState
	UserCode        string
	VerificationURL string
	StartedAt       time.Time
	ExpiresAt       time.Time
}

// Stalled reports whether the user never completed the approval in time
func (f *DeviceFlow) Stalled() bool {
	return f.State == FlowAwaitingApproval && time.Now().After(f.ExpiresAt)
}

// DeviceCodeResponse represents the response from the device code request
type DeviceCodeResponse struct {
	DeviceCode      string `json:"device_code"`
	UserCode        string `json:"user_code"`
	VerificationURL string `json:"verification_url"`
	ExpiresIn       int    `json:"expires_in"`
	Interval        int    `json:"interval"`
}

// TokenResponse represents the response from the token request
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	TokenType    string `json:"token_type"`
}

// Authenticate performs the device authentication flow: request a device
// code, show the activation URL, poll until the user approves.
func (c *Client) Authenticate(ctx context.Context) error {
	flow := &DeviceFlow{State: FlowNotStarted, StartedAt: time.Now()}

	deviceCodeReq := map[string]string{
		"client_id": c.clientID,
	}

	var deviceResp DeviceCodeResponse
	if err := c.doRequest(ctx, "POST", "/oauth/device/code", "", deviceCodeReq, &deviceResp); err != nil {
		return fmt.Errorf("failed to get device code: %w", err)
	}
	flow.State = FlowTokenRequested
	flow.UserCode = deviceResp.UserCode
	flow.VerificationURL = deviceResp.VerificationURL
	flow.ExpiresAt = time.Now().Add(time.Duration(deviceResp.ExpiresIn) * time.Second)

	c.logger.Infof("Please visit %s and enter code: %s", deviceResp.VerificationURL, deviceResp.UserCode)
	fmt.Printf("\nPlease visit %s and enter code: %s\n\n", deviceResp.VerificationURL, deviceResp.UserCode)
	flow.State = FlowAwaitingApproval

	interval := time.Duration(deviceResp.Interval) * time.Second
	if interval <= 0 {
		interval = 5 * time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if flow.Stalled() {
				return fmt.Errorf("device approval timed out after %s: %w",
					time.Since(flow.StartedAt).Round(time.Second), models.ErrAuthFailed)
			}

			tokenReq := map[string]string{
				"code":          deviceResp.DeviceCode,
				"client_id":     c.clientID,
				"client_secret": c.clientSecret,
			}

			var tokenResp TokenResponse
			if err := c.doRequest(ctx, "POST", "/oauth/device/token", "", tokenReq, &tokenResp); err != nil {
				c.logger.Debug("Waiting for user authorization...")
				continue
			}

			flow.State = FlowAuthorized
			if err := c.saveToken(&tokenResp); err != nil {
				return err
			}

			c.logger.Info("Trakt authentication successful")
			return nil
		}
	}
}

// RefreshToken exchanges the stored refresh token for a new access token.
// This is a credential-lifecycle operation; fetches never call it.
func (c *Client) RefreshToken(ctx context.Context) error {
	cred, err := c.credentials.GetCredential(models.ServiceTrakt)
	if err != nil {
		return fmt.Errorf("no token to refresh: %w", models.ErrAuthFailed)
	}

	refreshReq := map[string]string{
		"refresh_token": cred.RefreshToken,
		"client_id":     c.clientID,
		"client_secret": c.clientSecret,
		"grant_type":    "refresh_token",
	}

	var tokenResp TokenResponse
	if err := c.doRequest(ctx, "POST", "/oauth/token", "", refreshReq, &tokenResp); err != nil {
		return fmt.Errorf("failed to refresh token: %w", err)
	}

	if err := c.saveToken(&tokenResp); err != nil {
		return err
	}

	c.logger.Info("Trakt token refreshed")
	return nil
}

// HasValidToken reports whether a usable token is stored
func (c *Client) HasValidToken() bool {
	_, err := c.bearerToken()
	return err == nil
}

func (c *Client) saveToken(resp *TokenResponse) error {
	err := c.credentials.PutCredential(&models.Credential{
		Service:      models.ServiceTrakt,
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		ExpiresAt:    time.Now().Add(time.Duration(resp.ExpiresIn) * time.Second),
	})
	if err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}
	return nil
}
