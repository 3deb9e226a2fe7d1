package authcode_test

import (
	"context"
	"io"
	"log/slog"
	"net/url"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docsearch/internal/domain/models"
	"docsearch/internal/services/authcode"
	"docsearch/internal/storage"
	"docsearch/internal/storage/memory"
)

func newManager(ttl time.Duration) (*authcode.Manager, *memory.Store) {
	store := memory.New()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return authcode.New(log, store, store, ttl), store
}

func testClient() *models.Client {
	return &models.Client{
		ID:           uuid.NewString(),
		RedirectURIs: []string{"https://app.example/cb"},
	}
}

func TestRedeem_SingleUse(t *testing.T) {
	manager, _ := newManager(10 * time.Minute)
	ctx := context.Background()
	client := testClient()

	code, err := manager.Issue(ctx, client, "https://app.example/cb", "abc", []string{"read"}, "xyz", "")
	require.NoError(t, err)
	require.NotEmpty(t, code)

	record, err := manager.Redeem(ctx, client, code)
	require.NoError(t, err)
	assert.Equal(t, client.ID, record.ClientID)
	assert.Equal(t, "https://app.example/cb", record.RedirectURI)
	assert.Equal(t, "abc", record.CodeChallenge)
	assert.Equal(t, []string{"read"}, record.Scope)
	assert.Equal(t, "xyz", record.State)

	// a second redemption must fail with not-found, not expired
	_, err = manager.Redeem(ctx, client, code)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestRedeem_Expired(t *testing.T) {
	// negative TTL mints an already expired code
	manager, _ := newManager(-time.Second)
	ctx := context.Background()
	client := testClient()

	code, err := manager.Issue(ctx, client, "https://app.example/cb", "abc", []string{"read"}, "", "")
	require.NoError(t, err)

	_, err = manager.Redeem(ctx, client, code)
	assert.ErrorIs(t, err, storage.ErrExpired)

	// the expired row was removed by the redemption attempt
	_, err = manager.Redeem(ctx, client, code)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestRedeem_WrongClient(t *testing.T) {
	manager, _ := newManager(10 * time.Minute)
	ctx := context.Background()
	owner := testClient()

	code, err := manager.Issue(ctx, owner, "https://app.example/cb", "abc", nil, "", "")
	require.NoError(t, err)

	_, err = manager.Redeem(ctx, testClient(), code)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	// still redeemable by its owner
	_, err = manager.Redeem(ctx, owner, code)
	assert.NoError(t, err)
}

func TestIssue_ExpiryWindow(t *testing.T) {
	manager, store := newManager(10 * time.Minute)
	ctx := context.Background()
	client := testClient()

	issuedAt := time.Now()
	code, err := manager.Issue(ctx, client, "https://app.example/cb", "abc", []string{"read"}, "", "")
	require.NoError(t, err)

	record, err := store.AuthCode(ctx, client.ID, code)
	require.NoError(t, err)
	assert.InDelta(t, issuedAt.Add(600*time.Second).Unix(), record.ExpiresAt.Unix(), 1)
}

func TestChallengeFor(t *testing.T) {
	manager, _ := newManager(10 * time.Minute)
	ctx := context.Background()
	client := testClient()

	challenge := gofakeit.LetterN(43)
	code, err := manager.Issue(ctx, client, "https://app.example/cb", challenge, nil, "", "")
	require.NoError(t, err)

	got, err := manager.ChallengeFor(ctx, client, code)
	require.NoError(t, err)
	assert.Equal(t, challenge, got)

	_, err = manager.ChallengeFor(ctx, testClient(), code)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestRedirectURL(t *testing.T) {
	got, err := authcode.RedirectURL("https://app.example/cb?keep=1", "C1", "st")
	require.NoError(t, err)

	u, err := url.Parse(got)
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, "1", q.Get("keep"), "pre-existing query parameters must survive")
	assert.Equal(t, "C1", q.Get("code"))
	assert.Equal(t, "st", q.Get("state"))
}

func TestRedirectURL_NoState(t *testing.T) {
	got, err := authcode.RedirectURL("https://app.example/cb", "C1", "")
	require.NoError(t, err)

	u, err := url.Parse(got)
	require.NoError(t, err)
	assert.False(t, u.Query().Has("state"))
	assert.Equal(t, "C1", u.Query().Get("code"))
}
