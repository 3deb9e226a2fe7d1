package models

import (
	"time"
)

// AuthorizationCode model depends on RFC OAUTH2.1
// Code is single-use: redemption deletes the row
type AuthorizationCode struct {
	Code          string    `json:"code" db:"code"`
	ClientID      string    `json:"client_id" db:"client_id"`
	RedirectURI   string    `json:"redirect_uri" db:"redirect_uri"`
	CodeChallenge string    `json:"code_challenge" db:"code_challenge"`
	Scope         []string  `json:"scope" db:"scope"`
	State         string    `json:"state,omitempty" db:"state"`
	Resource      string    `json:"resource,omitempty" db:"resource"`
	ExpiresAt     time.Time `json:"expires_at" db:"expires_at"`
}

// Expired reports whether the code is past its expiry at the given moment
func (c *AuthorizationCode) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}
