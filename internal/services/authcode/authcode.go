package authcode

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"docsearch/internal/domain/models"
	"docsearch/internal/lib/random"
	"docsearch/internal/services/authcode/interfaces"
	"docsearch/internal/storage"
)

const codeByteLen = 32

// Manager issues short-lived single-use authorization codes bound to a
// client, redirect URI, PKCE challenge and optional resource indicator
type Manager struct {
	log          *slog.Logger
	codeStorage  interfaces.CodeStorage
	codeProvider interfaces.CodeProvider
	codeTTL      time.Duration
}

// New returns a new instance of the Manager service
func New(
	log *slog.Logger,
	codeStorage interfaces.CodeStorage,
	codeProvider interfaces.CodeProvider,
	codeTTL time.Duration,
) *Manager {
	return &Manager{
		log:          log,
		codeStorage:  codeStorage,
		codeProvider: codeProvider,
		codeTTL:      codeTTL,
	}
}

// Issue mints a fresh opaque code for the client and persists it with
// expiry now + TTL. The caller redirects the user agent afterwards, see
// RedirectURL.
func (m *Manager) Issue(
	ctx context.Context,
	client *models.Client,
	redirectURI string,
	codeChallenge string,
	scope []string,
	state string,
	resource string,
) (string, error) {
	const op = "authcode.Issue"
	logger := m.log.With(slog.String("op", op), slog.String("client_id", client.ID))

	value, err := random.Opaque(codeByteLen)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	code := &models.AuthorizationCode{
		Code:          value,
		ClientID:      client.ID,
		RedirectURI:   redirectURI,
		CodeChallenge: codeChallenge,
		Scope:         scope,
		State:         state,
		Resource:      resource,
		ExpiresAt:     time.Now().Add(m.codeTTL),
	}
	if err = m.codeStorage.SaveAuthCode(ctx, code); err != nil {
		logger.Error("failed to save authorization code", slog.String("error", err.Error()))
		return "", fmt.Errorf("%s: %w", op, err)
	}
	logger.Info("authorization code issued")
	return value, nil
}

// ChallengeFor returns the PKCE challenge stored for the code, for
// external verification against a caller-supplied verifier.
// Fails with storage.ErrNotFound when no row matches both code and client.
func (m *Manager) ChallengeFor(ctx context.Context, client *models.Client, code string) (string, error) {
	record, err := m.codeProvider.AuthCode(ctx, client.ID, code)
	if err != nil {
		return "", err
	}
	return record.CodeChallenge, nil
}

// Redeem consumes the code: the row is deleted and its prior fields
// returned as one logical unit. A code found expired is deleted by the
// same statement and reported as storage.ErrExpired; a later attempt
// sees storage.ErrNotFound.
func (m *Manager) Redeem(ctx context.Context, client *models.Client, code string) (*models.AuthorizationCode, error) {
	const op = "authcode.Redeem"
	logger := m.log.With(slog.String("op", op), slog.String("client_id", client.ID))

	record, err := m.codeProvider.TakeAuthCode(ctx, client.ID, code)
	if err != nil {
		return nil, err
	}
	if record.Expired(time.Now()) {
		logger.Info("authorization code expired at redemption")
		return nil, storage.ErrExpired
	}
	logger.Info("authorization code redeemed")
	return record, nil
}

// RedirectURL appends code and, when present, state to redirectURI,
// preserving any pre-existing query parameters
func RedirectURL(redirectURI string, code string, state string) (string, error) {
	u, err := url.Parse(redirectURI)
	if err != nil {
		return "", fmt.Errorf("invalid redirect uri: %w", err)
	}
	q := u.Query()
	q.Set("code", code)
	if state != "" {
		q.Set("state", state)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
