package models

import (
	"time"
)

// Client model depends on RFC 7591 dynamic client registration
type Client struct {
	ID                      string    `json:"client_id" db:"id"`
	Secret                  string    `json:"client_secret" db:"secret"`
	Name                    string    `json:"client_name,omitempty" db:"name"`
	RedirectURIs            []string  `json:"redirect_uris" db:"redirect_uris"`
	TokenEndpointAuthMethod string    `json:"token_endpoint_auth_method" db:"token_endpoint_auth_method"`
	GrantTypes              []string  `json:"grant_types" db:"grant_types"`
	ResponseTypes           []string  `json:"response_types" db:"response_types"`
	Scope                   string    `json:"scope,omitempty" db:"scope"`
	CreatedAt               time.Time `json:"-" db:"created_at"`
	// SecretExpiresAt is a unix timestamp, zero means the secret never expires
	SecretExpiresAt int64 `json:"client_secret_expires_at" db:"secret_expires_at"`
}

// HasRedirectURI reports whether uri was registered for this client
func (c *Client) HasRedirectURI(uri string) bool {
	for _, registered := range c.RedirectURIs {
		if registered == uri {
			return true
		}
	}
	return false
}
