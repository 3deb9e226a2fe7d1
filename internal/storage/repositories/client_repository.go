package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"docsearch/internal/domain/models"
	"docsearch/internal/storage"
	"docsearch/internal/storage/postgres"
)

// ClientRepository reads/saves registered OAuth client descriptors
type ClientRepository struct {
	db *postgres.Storage
}

// NewClientRepository creates new instance of ClientRepository
func NewClientRepository(db *postgres.Storage) *ClientRepository {
	return &ClientRepository{
		db: db,
	}
}

// SaveClient persists a freshly registered client.
// A duplicate identifier surfaces as storage.ErrDuplicateKey, never retried here.
func (r *ClientRepository) SaveClient(ctx context.Context, client *models.Client) error {
	_, err := r.db.Pool.Exec(
		ctx,
		`INSERT INTO clients
		 (id, secret, name, redirect_uris, token_endpoint_auth_method, grant_types, response_types, scope, created_at, secret_expires_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		client.ID,
		client.Secret,
		client.Name,
		client.RedirectURIs,
		client.TokenEndpointAuthMethod,
		client.GrantTypes,
		client.ResponseTypes,
		client.Scope,
		client.CreatedAt,
		client.SecretExpiresAt,
	)
	if err != nil {
		var pgxError *pgconn.PgError
		if errors.As(err, &pgxError) && pgxError.Code == "23505" {
			return fmt.Errorf("failed to save client: %w", storage.ErrDuplicateKey)
		}
		return fmt.Errorf("failed to save client: %w", err)
	}
	return nil
}

// Client gets models.Client from db by its identifier
func (r *ClientRepository) Client(ctx context.Context, clientID string) (*models.Client, error) {
	var client models.Client
	err := r.db.Pool.QueryRow(
		ctx,
		`SELECT id, secret, name, redirect_uris, token_endpoint_auth_method, grant_types, response_types, scope, created_at, secret_expires_at
		 FROM clients WHERE id = $1`,
		clientID,
	).Scan(
		&client.ID,
		&client.Secret,
		&client.Name,
		&client.RedirectURIs,
		&client.TokenEndpointAuthMethod,
		&client.GrantTypes,
		&client.ResponseTypes,
		&client.Scope,
		&client.CreatedAt,
		&client.SecretExpiresAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to query client: %w", err)
	}
	return &client, nil
}
