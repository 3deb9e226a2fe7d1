package interfaces

import (
	"context"

	"docsearch/internal/domain/models"
)

// TokenStorage persists freshly minted token pairs.
// SaveTokenPair must write both rows as one logical unit.
type TokenStorage interface {
	SaveTokenPair(ctx context.Context, access *models.Token, refresh *models.Token) error
}

// TokenProvider reads non-revoked token rows by value
type TokenProvider interface {
	Token(ctx context.Context, value string, kind models.TokenKind) (*models.Token, error)
	ClientToken(ctx context.Context, clientID string, value string, kind models.TokenKind) (*models.Token, error)
}

// TokenRevoker flips the revoked flag.
// RevokePair must flip all listed rows that are still unrevoked in one
// statement and report how many it flipped, so a partially revoked pair is
// never observable and concurrent callers can tell who won. RevokeOwned is
// a silent no-op when nothing matches.
type TokenRevoker interface {
	RevokePair(ctx context.Context, values []string) (int64, error)
	RevokeOwned(ctx context.Context, clientID string, value string) error
}
