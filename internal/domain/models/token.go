package models

import (
	"time"
)

// TokenKind separates access and refresh rows in the tokens table
type TokenKind string

const (
	KindAccess  TokenKind = "access"
	KindRefresh TokenKind = "refresh"
)

// Token is an access or refresh credential stored by value.
// Access and refresh tokens are always persisted as a linked pair
// sharing client, scope, resource and revocation fate.
type Token struct {
	Value       string    `json:"token" db:"token"`
	Kind        TokenKind `json:"kind" db:"kind"`
	ClientID    string    `json:"client_id" db:"client_id"`
	Scope       []string  `json:"scope" db:"scope"`
	Resource    string    `json:"resource,omitempty" db:"resource"`
	ExpiresAt   time.Time `json:"expires_at" db:"expires_at"`
	Revoked     bool      `json:"revoked" db:"revoked"`
	PairedToken string    `json:"paired_token" db:"paired_token"`
}

// Expired reports whether the token is past its expiry at the given moment
func (t *Token) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// TokenPair holds both freshly minted credentials of one grant
type TokenPair struct {
	Access  Token
	Refresh Token
}
