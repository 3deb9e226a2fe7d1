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

// AuthCodeRepository reads/saves auth code between endpoints: Authorize-Token
type AuthCodeRepository struct {
	db *postgres.Storage
}

// NewAuthCodeRepository creates new instance of AuthCodeRepository
func NewAuthCodeRepository(db *postgres.Storage) *AuthCodeRepository {
	return &AuthCodeRepository{
		db: db,
	}
}

// SaveAuthCode saves a models.AuthorizationCode to db
func (r *AuthCodeRepository) SaveAuthCode(ctx context.Context, code *models.AuthorizationCode) error {
	_, err := r.db.Pool.Exec(
		ctx,
		`INSERT INTO authorization_codes
		 (code, client_id, redirect_uri, code_challenge, scope, state, resource, expires_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		code.Code,
		code.ClientID,
		code.RedirectURI,
		code.CodeChallenge,
		code.Scope,
		code.State,
		code.Resource,
		code.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save authorization code: %w", err)
	}
	return nil
}

// AuthCode gets models.AuthorizationCode from db without consuming it
func (r *AuthCodeRepository) AuthCode(ctx context.Context, clientID string, code string) (*models.AuthorizationCode, error) {
	var authCode models.AuthorizationCode
	err := r.db.Pool.QueryRow(
		ctx,
		`SELECT code, client_id, redirect_uri, code_challenge, scope, state, resource, expires_at
		 FROM authorization_codes WHERE code = $1 AND client_id = $2`,
		code,
		clientID,
	).Scan(
		&authCode.Code,
		&authCode.ClientID,
		&authCode.RedirectURI,
		&authCode.CodeChallenge,
		&authCode.Scope,
		&authCode.State,
		&authCode.Resource,
		&authCode.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to query authorization code: %w", err)
	}
	return &authCode, nil
}

// TakeAuthCode deletes the code row and returns its prior value in one statement.
// Two concurrent redemptions of the same code can never both receive the row.
func (r *AuthCodeRepository) TakeAuthCode(ctx context.Context, clientID string, code string) (*models.AuthorizationCode, error) {
	var authCode models.AuthorizationCode
	err := r.db.Pool.QueryRow(
		ctx,
		`DELETE FROM authorization_codes WHERE code = $1 AND client_id = $2
		 RETURNING code, client_id, redirect_uri, code_challenge, scope, state, resource, expires_at`,
		code,
		clientID,
	).Scan(
		&authCode.Code,
		&authCode.ClientID,
		&authCode.RedirectURI,
		&authCode.CodeChallenge,
		&authCode.Scope,
		&authCode.State,
		&authCode.Resource,
		&authCode.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to take authorization code: %w", err)
	}
	return &authCode, nil
}
