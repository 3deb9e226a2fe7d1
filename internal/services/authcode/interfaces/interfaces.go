package interfaces

import (
	"context"

	"docsearch/internal/domain/models"
)

// CodeStorage persists authorization codes
type CodeStorage interface {
	SaveAuthCode(ctx context.Context, code *models.AuthorizationCode) error
}

// CodeProvider reads and consumes authorization codes.
// TakeAuthCode must delete and return the row as one logical unit so two
// concurrent redemptions of the same code cannot both succeed.
type CodeProvider interface {
	AuthCode(ctx context.Context, clientID string, code string) (*models.AuthorizationCode, error)
	TakeAuthCode(ctx context.Context, clientID string, code string) (*models.AuthorizationCode, error)
}
