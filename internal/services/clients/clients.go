package clients

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"docsearch/internal/domain/models"
	"docsearch/internal/lib/random"
	"docsearch/internal/services/clients/interfaces"
)

const secretByteLen = 32

// Registry manages registered OAuth client descriptors.
// Records are write-once: registration creates them, nothing updates
// or deletes them here.
type Registry struct {
	log            *slog.Logger
	clientStorage  interfaces.ClientStorage
	clientProvider interfaces.ClientProvider
}

// New returns a new instance of the Registry service
func New(
	log *slog.Logger,
	clientStorage interfaces.ClientStorage,
	clientProvider interfaces.ClientProvider,
) *Registry {
	return &Registry{
		log:            log,
		clientStorage:  clientStorage,
		clientProvider: clientProvider,
	}
}

// Client returns the stored descriptor for clientID or storage.ErrNotFound
func (r *Registry) Client(ctx context.Context, clientID string) (*models.Client, error) {
	return r.clientProvider.Client(ctx, clientID)
}

// Register assigns a fresh identifier and secret to the requested descriptor,
// fills RFC 7591 defaults for unset fields and persists the record.
// An insert failure (including the astronomically unlikely identifier
// collision) is surfaced to the caller, never silently retried.
func (r *Registry) Register(ctx context.Context, requested *models.Client) (*models.Client, error) {
	const op = "clients.Register"
	logger := r.log.With(slog.String("op", op))

	secret, err := random.Opaque(secretByteLen)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	client := *requested
	client.ID = uuid.NewString()
	client.Secret = secret
	client.CreatedAt = time.Now()
	client.SecretExpiresAt = 0
	if client.TokenEndpointAuthMethod == "" {
		client.TokenEndpointAuthMethod = "client_secret_post"
	}
	if len(client.GrantTypes) == 0 {
		client.GrantTypes = []string{"authorization_code", "refresh_token"}
	}
	if len(client.ResponseTypes) == 0 {
		client.ResponseTypes = []string{"code"}
	}

	if err = r.clientStorage.SaveClient(ctx, &client); err != nil {
		logger.Error("failed to save client", slog.String("error", err.Error()))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	logger.Info("client registered", slog.String("client_id", client.ID))
	return &client, nil
}
