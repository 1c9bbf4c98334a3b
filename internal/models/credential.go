package models

import "time"

// Credential holds a per-service token with expiry metadata. For Trakt this
// is an OAuth access/refresh token pair; for TMDB the refresh slot carries
// the session id.
type Credential struct {
	Service      Service `boltholdKey:"Service"`
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time // zero when the credential does not expire
	UpdatedAt    time.Time
}

// Expired reports whether the credential has an expiry and it has passed
func (c *Credential) Expired() bool {
	return !c.ExpiresAt.IsZero() && time.Now().After(c.ExpiresAt)
}

// CredentialStore is the injected key-value store owning credentials.
// The engine only reads and, on refresh, writes back.
type CredentialStore interface {
	GetCredential(service Service) (*Credential, error)
	PutCredential(cred *Credential) error
	ClearCredential(service Service) error
}
