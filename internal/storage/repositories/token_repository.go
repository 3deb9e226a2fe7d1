package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"docsearch/internal/domain/models"
	"docsearch/internal/storage"
	"docsearch/internal/storage/postgres"
)

// TokenRepository reads/saves access and refresh token rows
type TokenRepository struct {
	db *postgres.Storage
}

// NewTokenRepository creates new instance of TokenRepository
func NewTokenRepository(db *postgres.Storage) *TokenRepository {
	return &TokenRepository{
		db: db,
	}
}

// SaveTokenPair persists both rows of a pair in a single insert,
// so a pair is never observable half-written
func (r *TokenRepository) SaveTokenPair(ctx context.Context, access *models.Token, refresh *models.Token) error {
	_, err := r.db.Pool.Exec(
		ctx,
		`INSERT INTO tokens (token, kind, client_id, scope, resource, expires_at, revoked, paired_token)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8),
		        ($9, $10, $11, $12, $13, $14, $15, $16)`,
		access.Value, access.Kind, access.ClientID, access.Scope, access.Resource, access.ExpiresAt, access.Revoked, access.PairedToken,
		refresh.Value, refresh.Kind, refresh.ClientID, refresh.Scope, refresh.Resource, refresh.ExpiresAt, refresh.Revoked, refresh.PairedToken,
	)
	if err != nil {
		return fmt.Errorf("failed to save token pair: %w", err)
	}
	return nil
}

// Token gets a non-revoked row of the given kind by its value.
// Expiry is not pre-filtered here, callers compare against their own clock.
func (r *TokenRepository) Token(ctx context.Context, value string, kind models.TokenKind) (*models.Token, error) {
	var token models.Token
	err := r.db.Pool.QueryRow(
		ctx,
		`SELECT token, kind, client_id, scope, resource, expires_at, revoked, paired_token
		 FROM tokens WHERE token = $1 AND kind = $2 AND revoked = FALSE`,
		value,
		kind,
	).Scan(
		&token.Value,
		&token.Kind,
		&token.ClientID,
		&token.Scope,
		&token.Resource,
		&token.ExpiresAt,
		&token.Revoked,
		&token.PairedToken,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to query token: %w", err)
	}
	return &token, nil
}

// ClientToken is Token additionally filtered by the owning client
func (r *TokenRepository) ClientToken(ctx context.Context, clientID string, value string, kind models.TokenKind) (*models.Token, error) {
	token, err := r.Token(ctx, value, kind)
	if err != nil {
		return nil, err
	}
	if token.ClientID != clientID {
		return nil, storage.ErrNotFound
	}
	return token, nil
}

// RevokePair marks every listed token value revoked in one statement,
// no observer can see exactly one member of a pair revoked. Only rows
// still unrevoked count toward the returned total, so of two concurrent
// callers exactly one sees its rows flipped.
func (r *TokenRepository) RevokePair(ctx context.Context, values []string) (int64, error) {
	tag, err := r.db.Pool.Exec(
		ctx,
		`UPDATE tokens SET revoked = TRUE WHERE token = ANY($1) AND revoked = FALSE`,
		values,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to revoke token pair: %w", err)
	}
	return tag.RowsAffected(), nil
}

// RevokeOwned revokes the row matching value and client along with its paired
// sibling. Zero affected rows is a silent success: revocation never leaks
// token existence.
func (r *TokenRepository) RevokeOwned(ctx context.Context, clientID string, value string) error {
	_, err := r.db.Pool.Exec(
		ctx,
		`UPDATE tokens SET revoked = TRUE
		 WHERE client_id = $2 AND (token = $1 OR paired_token = $1)`,
		value,
		clientID,
	)
	if err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}
