package provider

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"docsearch/internal/domain/models"
	"docsearch/internal/services/authcode"
	"docsearch/internal/services/clients"
	"docsearch/internal/services/tokens"
)

// Validation failures raised before any storage interaction.
// The transport layer maps them onto RFC 6749 error codes.
var (
	ErrMissingRedirectURI      = errors.New("redirect uri is required")
	ErrUnregisteredRedirectURI = errors.New("redirect uri is not registered for client")
	ErrUnsupportedResponseType = errors.New("unsupported response type")
	ErrMissingCodeChallenge    = errors.New("code challenge is required")
	ErrClientAuthentication    = errors.New("client authentication failed")
)

// Provider orchestrates the client registry, code manager and token
// manager into the standard grant flows. It is the only component the
// transport layer calls. Failures of the three services propagate
// unchanged; nothing is retried or compensated here.
type Provider struct {
	log      *slog.Logger
	registry *clients.Registry
	codes    *authcode.Manager
	tokens   *tokens.Manager
}

// New returns a new instance of the Provider service
func New(
	log *slog.Logger,
	registry *clients.Registry,
	codes *authcode.Manager,
	tokenManager *tokens.Manager,
) *Provider {
	return &Provider{
		log:      log,
		registry: registry,
		codes:    codes,
		tokens:   tokenManager,
	}
}

// AuthorizeRequest carries the parameters of an inbound authorization request
type AuthorizeRequest struct {
	ClientID      string
	RedirectURI   string
	ResponseType  string
	CodeChallenge string
	Scope         []string
	State         string
	Resource      string
}

// TokenResponse is the token endpoint's success payload
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
	Scope        string `json:"scope,omitempty"`
}

// Register validates and persists a dynamic client registration
func (p *Provider) Register(ctx context.Context, requested *models.Client) (*models.Client, error) {
	if len(requested.RedirectURIs) == 0 {
		return nil, ErrMissingRedirectURI
	}
	return p.registry.Register(ctx, requested)
}

// Authorize validates the request against the registered client, mints an
// authorization code and returns the redirect URL the user agent must be
// sent to. An empty PKCE challenge is rejected: accepting one would leave
// the code unbound to any verifier.
func (p *Provider) Authorize(ctx context.Context, req AuthorizeRequest) (string, error) {
	const op = "provider.Authorize"
	logger := p.log.With(slog.String("op", op), slog.String("client_id", req.ClientID))

	client, err := p.registry.Client(ctx, req.ClientID)
	if err != nil {
		return "", err
	}
	if req.RedirectURI == "" {
		return "", ErrMissingRedirectURI
	}
	if !client.HasRedirectURI(req.RedirectURI) {
		logger.Warn("redirect uri not registered", slog.String("redirect_uri", req.RedirectURI))
		return "", ErrUnregisteredRedirectURI
	}
	if req.ResponseType != "code" {
		return "", ErrUnsupportedResponseType
	}
	if req.CodeChallenge == "" {
		return "", ErrMissingCodeChallenge
	}

	code, err := p.codes.Issue(ctx, client, req.RedirectURI, req.CodeChallenge, req.Scope, req.State, req.Resource)
	if err != nil {
		return "", err
	}
	return authcode.RedirectURL(req.RedirectURI, code, req.State)
}

// AuthenticateClient checks the client_secret_post credentials presented
// at the token and revocation endpoints
func (p *Provider) AuthenticateClient(ctx context.Context, clientID string, clientSecret string) (*models.Client, error) {
	client, err := p.registry.Client(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if subtle.ConstantTimeCompare([]byte(client.Secret), []byte(clientSecret)) != 1 {
		return nil, ErrClientAuthentication
	}
	if client.SecretExpiresAt != 0 && time.Now().Unix() >= client.SecretExpiresAt {
		return nil, ErrClientAuthentication
	}
	return client, nil
}

// Challenge returns the PKCE challenge stored for the code without
// consuming it. The transport layer compares it against the presented
// verifier before calling ExchangeCode; this core never sees verifiers.
func (p *Provider) Challenge(ctx context.Context, client *models.Client, code string) (string, error) {
	return p.codes.ChallengeFor(ctx, client, code)
}

// ExchangeCode redeems an authorization code and mints the token pair of
// the grant. The redirect URI must repeat the one the code was bound to.
func (p *Provider) ExchangeCode(ctx context.Context, client *models.Client, code string, redirectURI string) (*TokenResponse, error) {
	const op = "provider.ExchangeCode"
	logger := p.log.With(slog.String("op", op), slog.String("client_id", client.ID))

	record, err := p.codes.Redeem(ctx, client, code)
	if err != nil {
		return nil, err
	}
	if record.RedirectURI != redirectURI {
		logger.Warn("redirect uri mismatch at exchange")
		return nil, ErrUnregisteredRedirectURI
	}

	pair, err := p.tokens.IssuePair(ctx, client, record.Scope, record.Resource)
	if err != nil {
		return nil, err
	}
	logger.Info("authorization code exchanged")
	return p.tokenResponse(pair), nil
}

// RefreshGrant rotates a refresh token into a fresh pair
func (p *Provider) RefreshGrant(ctx context.Context, client *models.Client, refreshToken string, requestedScope []string) (*TokenResponse, error) {
	pair, err := p.tokens.Rotate(ctx, client, refreshToken, requestedScope)
	if err != nil {
		return nil, err
	}
	return p.tokenResponse(pair), nil
}

// Revoke is fire-and-forget from the caller's perspective
func (p *Provider) Revoke(ctx context.Context, client *models.Client, tokenValue string) error {
	return p.tokens.Revoke(ctx, client, tokenValue)
}

// VerifyAccess validates a bearer token before any tool logic runs
func (p *Provider) VerifyAccess(ctx context.Context, tokenValue string) (*models.Token, error) {
	return p.tokens.Verify(ctx, tokenValue)
}

func (p *Provider) tokenResponse(pair *models.TokenPair) *TokenResponse {
	return &TokenResponse{
		AccessToken:  pair.Access.Value,
		TokenType:    tokens.TokenType,
		ExpiresIn:    p.tokens.ExpiresIn(),
		RefreshToken: pair.Refresh.Value,
		Scope:        strings.Join(pair.Access.Scope, " "),
	}
}

// String renders the request for debug logs without leaking the challenge
func (r AuthorizeRequest) String() string {
	return fmt.Sprintf("authorize{client=%s redirect=%s scope=%v}", r.ClientID, r.RedirectURI, r.Scope)
}
