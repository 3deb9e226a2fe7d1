package tokens

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"docsearch/internal/domain/models"
	"docsearch/internal/lib/random"
	"docsearch/internal/services/tokens/interfaces"
	"docsearch/internal/storage"
)

const tokenByteLen = 32

// TokenType is the bearer token_type advertised with every issued pair
const TokenType = "Bearer"

// Manager issues, rotates, verifies and revokes access/refresh token pairs
type Manager struct {
	log           *slog.Logger
	tokenStorage  interfaces.TokenStorage
	tokenProvider interfaces.TokenProvider
	tokenRevoker  interfaces.TokenRevoker
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

// New returns a new instance of the Manager service
func New(
	log *slog.Logger,
	tokenStorage interfaces.TokenStorage,
	tokenProvider interfaces.TokenProvider,
	tokenRevoker interfaces.TokenRevoker,
	accessTTL time.Duration,
	refreshTTL time.Duration,
) *Manager {
	return &Manager{
		log:           log,
		tokenStorage:  tokenStorage,
		tokenProvider: tokenProvider,
		tokenRevoker:  tokenRevoker,
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

// IssuePair mints two fresh opaque values with independent expiries and
// persists both rows pre-linked as one logical unit
func (m *Manager) IssuePair(ctx context.Context, client *models.Client, scope []string, resource string) (*models.TokenPair, error) {
	const op = "tokens.IssuePair"
	logger := m.log.With(slog.String("op", op), slog.String("client_id", client.ID))

	accessValue, err := random.Opaque(tokenByteLen)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	refreshValue, err := random.Opaque(tokenByteLen)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	now := time.Now()
	access := models.Token{
		Value:       accessValue,
		Kind:        models.KindAccess,
		ClientID:    client.ID,
		Scope:       scope,
		Resource:    resource,
		ExpiresAt:   now.Add(m.accessTTL),
		PairedToken: refreshValue,
	}
	refresh := models.Token{
		Value:       refreshValue,
		Kind:        models.KindRefresh,
		ClientID:    client.ID,
		Scope:       scope,
		Resource:    resource,
		ExpiresAt:   now.Add(m.refreshTTL),
		PairedToken: accessValue,
	}

	if err = m.tokenStorage.SaveTokenPair(ctx, &access, &refresh); err != nil {
		logger.Error("failed to save token pair", slog.String("error", err.Error()))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	logger.Info("token pair issued")
	return &models.TokenPair{Access: access, Refresh: refresh}, nil
}

// Rotate exchanges a refresh token for a fresh pair. The presented token
// and its linked access token are revoked through one conditional
// statement before the new pair is minted; a caller whose statement flips
// no rows lost a concurrent rotation of the same value and gets
// storage.ErrNotFound, so one presented refresh token yields at most one
// live pair. If minting then fails the caller retains no usable pair and
// must re-authorize. That fail-closed ordering is deliberate: a rotation
// can never leave two live pairs from one grant.
// Scope of the new pair is requestedScope when supplied, else the prior
// grant's scope; the resource indicator always carries over.
func (m *Manager) Rotate(ctx context.Context, client *models.Client, presented string, requestedScope []string) (*models.TokenPair, error) {
	const op = "tokens.Rotate"
	logger := m.log.With(slog.String("op", op), slog.String("client_id", client.ID))

	old, err := m.tokenProvider.ClientToken(ctx, client.ID, presented, models.KindRefresh)
	if err != nil {
		return nil, err
	}
	if old.Expired(time.Now()) {
		logger.Info("refresh token expired")
		return nil, storage.ErrExpired
	}

	flipped, err := m.tokenRevoker.RevokePair(ctx, []string{old.Value, old.PairedToken})
	if err != nil {
		logger.Error("failed to revoke rotated pair", slog.String("error", err.Error()))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if flipped == 0 {
		// a concurrent rotation of the same refresh token already
		// revoked the pair; only that caller gets a fresh pair
		logger.Warn("refresh token already rotated")
		return nil, storage.ErrNotFound
	}

	scope := old.Scope
	if len(requestedScope) > 0 {
		scope = requestedScope
	}
	pair, err := m.IssuePair(ctx, client, scope, old.Resource)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	logger.Info("refresh token rotated")
	return pair, nil
}

// Verify checks a bearer token on the hot path: one read of a non-revoked
// access row plus a time comparison, no mutation. Unknown or revoked
// tokens fail with storage.ErrInvalidToken, present-but-expired with
// storage.ErrExpired; the transport layer presents both identically.
func (m *Manager) Verify(ctx context.Context, value string) (*models.Token, error) {
	token, err := m.tokenProvider.Token(ctx, value, models.KindAccess)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, storage.ErrInvalidToken
		}
		return nil, err
	}
	if token.Expired(time.Now()) {
		return nil, storage.ErrExpired
	}
	return token, nil
}

// Revoke marks the row matching value and client revoked along with its
// paired sibling, regardless of kind. Unknown values and foreign owners
// are a silent no-op: revocation never leaks token existence.
func (m *Manager) Revoke(ctx context.Context, client *models.Client, value string) error {
	const op = "tokens.Revoke"
	if err := m.tokenRevoker.RevokeOwned(ctx, client.ID, value); err != nil {
		m.log.With(slog.String("op", op)).Error("failed to revoke token", slog.String("error", err.Error()))
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ExpiresIn returns the advertised access token lifetime in whole seconds
func (m *Manager) ExpiresIn() int64 {
	return int64(m.accessTTL.Seconds())
}
