package interfaces

import (
	"context"

	"docsearch/internal/domain/models"
)

// ClientStorage persists registered client descriptors
type ClientStorage interface {
	SaveClient(ctx context.Context, client *models.Client) error
}

// ClientProvider reads registered client descriptors
type ClientProvider interface {
	Client(ctx context.Context, clientID string) (*models.Client, error)
}
