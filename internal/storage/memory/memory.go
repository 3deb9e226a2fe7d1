// Package memory provides an in-memory implementation of the repository
// contracts. It is suitable for tests and single-instance development runs.
package memory

import (
	"context"
	"sync"

	"docsearch/internal/domain/models"
	"docsearch/internal/storage"
)

// Store keeps all three OAuth record kinds in mutex-guarded maps.
// The conditional-delete and multi-row-revoke guarantees of the postgres
// repositories hold here by doing each mutation under one lock acquisition.
type Store struct {
	mu sync.Mutex

	clients   map[string]models.Client
	authCodes map[string]models.AuthorizationCode
	tokens    map[string]models.Token
}

// New creates an empty in-memory store
func New() *Store {
	return &Store{
		clients:   make(map[string]models.Client),
		authCodes: make(map[string]models.AuthorizationCode),
		tokens:    make(map[string]models.Token),
	}
}

// SaveClient persists a client, failing on identifier collision like the db would
func (s *Store) SaveClient(_ context.Context, client *models.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.clients[client.ID]; exists {
		return storage.ErrDuplicateKey
	}
	s.clients[client.ID] = *client
	return nil
}

// Client gets a stored client descriptor by its identifier
func (s *Store) Client(_ context.Context, clientID string) (*models.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	client, ok := s.clients[clientID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &client, nil
}

// SaveAuthCode persists an authorization code keyed by its value
func (s *Store) SaveAuthCode(_ context.Context, code *models.AuthorizationCode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authCodes[code.Code] = *code
	return nil
}

// AuthCode gets a code owned by the client without consuming it
func (s *Store) AuthCode(_ context.Context, clientID string, code string) (*models.AuthorizationCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	authCode, ok := s.authCodes[code]
	if !ok || authCode.ClientID != clientID {
		return nil, storage.ErrNotFound
	}
	return &authCode, nil
}

// TakeAuthCode deletes and returns the code under a single lock hold,
// so exactly one of any concurrent redeemers receives it
func (s *Store) TakeAuthCode(_ context.Context, clientID string, code string) (*models.AuthorizationCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	authCode, ok := s.authCodes[code]
	if !ok || authCode.ClientID != clientID {
		return nil, storage.ErrNotFound
	}
	delete(s.authCodes, code)
	return &authCode, nil
}

// SaveTokenPair persists both rows of a pair atomically
func (s *Store) SaveTokenPair(_ context.Context, access *models.Token, refresh *models.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[access.Value] = *access
	s.tokens[refresh.Value] = *refresh
	return nil
}

// Token gets a non-revoked row of the given kind by its value
func (s *Store) Token(_ context.Context, value string, kind models.TokenKind) (*models.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	token, ok := s.tokens[value]
	if !ok || token.Kind != kind || token.Revoked {
		return nil, storage.ErrNotFound
	}
	return &token, nil
}

// ClientToken is Token additionally filtered by the owning client
func (s *Store) ClientToken(ctx context.Context, clientID string, value string, kind models.TokenKind) (*models.Token, error) {
	token, err := s.Token(ctx, value, kind)
	if err != nil {
		return nil, err
	}
	if token.ClientID != clientID {
		return nil, storage.ErrNotFound
	}
	return token, nil
}

// RevokePair marks every listed value revoked under one lock hold and
// counts only the rows this call actually flipped
func (s *Store) RevokePair(_ context.Context, values []string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var flipped int64
	for _, value := range values {
		if token, ok := s.tokens[value]; ok && !token.Revoked {
			token.Revoked = true
			s.tokens[value] = token
			flipped++
		}
	}
	return flipped, nil
}

// RevokeOwned revokes the row matching value and client together with its
// paired sibling; unknown values are a silent no-op
func (s *Store) RevokeOwned(_ context.Context, clientID string, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, token := range s.tokens {
		if token.ClientID != clientID {
			continue
		}
		if token.Value == value || token.PairedToken == value {
			token.Revoked = true
			s.tokens[key] = token
		}
	}
	return nil
}
