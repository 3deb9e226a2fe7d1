package httpserver

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docsearch/internal/config"
	"docsearch/internal/services/authcode"
	"docsearch/internal/services/clients"
	"docsearch/internal/services/provider"
	"docsearch/internal/services/tokens"
	"docsearch/internal/storage/memory"
)

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()
	store := memory.New()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	registry := clients.New(log, store, store)
	codeManager := authcode.New(log, store, store, 10*time.Minute)
	tokenManager := tokens.New(log, store, store, store, time.Hour, 30*24*time.Hour)
	oauthProvider := provider.New(log, registry, codeManager, tokenManager)

	protected := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("tool ran"))
	})

	app := New(log, oauthProvider, protected, config.HTTPConfig{
		Port:            0,
		Timeout:         5 * time.Second,
		ShutdownTimeout: time.Second,
		Issuer:          "http://auth.example",
	})
	return app.server.Handler
}

type registeredClient struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

func registerTestClient(t *testing.T, h http.Handler) registeredClient {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/register",
		strings.NewReader(`{"redirect_uris":["https://app.example/cb"]}`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var client registeredClient
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &client))
	require.NotEmpty(t, client.ClientID)
	require.NotEmpty(t, client.ClientSecret)
	return client
}

func authorizeCode(t *testing.T, h http.Handler, client registeredClient, verifier string) string {
	t.Helper()
	q := url.Values{
		"client_id":             {client.ClientID},
		"redirect_uri":          {"https://app.example/cb"},
		"response_type":         {"code"},
		"code_challenge":        {challengeOf(verifier)},
		"code_challenge_method": {"S256"},
		"scope":                 {"read"},
		"state":                 {"st"},
	}
	req := httptest.NewRequest(http.MethodGet, "/authorize?"+q.Encode(), nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusFound, rec.Code)

	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	require.Equal(t, "st", loc.Query().Get("state"))
	code := loc.Query().Get("code")
	require.NotEmpty(t, code)
	return code
}

func postToken(h http.Handler, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/token", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestFullGrantFlow(t *testing.T) {
	h := newTestHandler(t)
	client := registerTestClient(t, h)
	const verifier = "a-very-long-code-verifier-value-for-tests-1"
	code := authorizeCode(t, h, client, verifier)

	rec := postToken(h, url.Values{
		"grant_type":    {"authorization_code"},
		"client_id":     {client.ClientID},
		"client_secret": {client.ClientSecret},
		"code":          {code},
		"code_verifier": {verifier},
		"redirect_uri":  {"https://app.example/cb"},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var tokenResp struct {
		AccessToken  string `json:"access_token"`
		TokenType    string `json:"token_type"`
		ExpiresIn    int64  `json:"expires_in"`
		RefreshToken string `json:"refresh_token"`
		Scope        string `json:"scope"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tokenResp))
	assert.Equal(t, "Bearer", tokenResp.TokenType)
	assert.EqualValues(t, 3600, tokenResp.ExpiresIn)
	assert.Equal(t, "read", tokenResp.Scope)

	// the code is spent, replaying it is an invalid_grant
	rec = postToken(h, url.Values{
		"grant_type":    {"authorization_code"},
		"client_id":     {client.ClientID},
		"client_secret": {client.ClientSecret},
		"code":          {code},
		"code_verifier": {verifier},
		"redirect_uri":  {"https://app.example/cb"},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_grant")

	// bearer token grants access to the protected MCP endpoint
	req := httptest.NewRequest(http.MethodPost, "/mcp", nil)
	req.Header.Set("Authorization", "Bearer "+tokenResp.AccessToken)
	mcpRec := httptest.NewRecorder()
	h.ServeHTTP(mcpRec, req)
	assert.Equal(t, http.StatusOK, mcpRec.Code)

	// revocation kills the whole pair
	revokeReq := httptest.NewRequest(http.MethodPost, "/revoke", strings.NewReader(url.Values{
		"client_id":     {client.ClientID},
		"client_secret": {client.ClientSecret},
		"token":         {tokenResp.AccessToken},
	}.Encode()))
	revokeReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	revokeRec := httptest.NewRecorder()
	h.ServeHTTP(revokeRec, revokeReq)
	assert.Equal(t, http.StatusOK, revokeRec.Code)

	req = httptest.NewRequest(http.MethodPost, "/mcp", nil)
	req.Header.Set("Authorization", "Bearer "+tokenResp.AccessToken)
	mcpRec = httptest.NewRecorder()
	h.ServeHTTP(mcpRec, req)
	assert.Equal(t, http.StatusUnauthorized, mcpRec.Code)
}

func TestToken_WrongVerifier(t *testing.T) {
	h := newTestHandler(t)
	client := registerTestClient(t, h)
	code := authorizeCode(t, h, client, "right-verifier-value-that-is-long-enough-42")

	rec := postToken(h, url.Values{
		"grant_type":    {"authorization_code"},
		"client_id":     {client.ClientID},
		"client_secret": {client.ClientSecret},
		"code":          {code},
		"code_verifier": {"wrong-verifier-value-that-is-long-enough-42"},
		"redirect_uri":  {"https://app.example/cb"},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_grant")
}

func TestToken_BadClientCredentials(t *testing.T) {
	h := newTestHandler(t)
	client := registerTestClient(t, h)

	rec := postToken(h, url.Values{
		"grant_type":    {"authorization_code"},
		"client_id":     {client.ClientID},
		"client_secret": {"not-the-secret"},
		"code":          {"whatever"},
		"code_verifier": {"whatever-verifier"},
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_client")
}

func TestRefreshGrantOverHTTP(t *testing.T) {
	h := newTestHandler(t)
	client := registerTestClient(t, h)
	const verifier = "another-long-code-verifier-value-for-tests"
	code := authorizeCode(t, h, client, verifier)

	rec := postToken(h, url.Values{
		"grant_type":    {"authorization_code"},
		"client_id":     {client.ClientID},
		"client_secret": {client.ClientSecret},
		"code":          {code},
		"code_verifier": {verifier},
		"redirect_uri":  {"https://app.example/cb"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var first struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &first))

	rec = postToken(h, url.Values{
		"grant_type":    {"refresh_token"},
		"client_id":     {client.ClientID},
		"client_secret": {client.ClientSecret},
		"refresh_token": {first.RefreshToken},
		"scope":         {"read write"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var second struct {
		Scope string `json:"scope"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &second))
	assert.Equal(t, "read write", second.Scope)

	// the rotated-out refresh token is gone
	rec = postToken(h, url.Values{
		"grant_type":    {"refresh_token"},
		"client_id":     {client.ClientID},
		"client_secret": {client.ClientSecret},
		"refresh_token": {first.RefreshToken},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_grant")
}

func TestMetadataEndpoint(t *testing.T) {
	h := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/.well-known/oauth-authorization-server", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var meta map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &meta))
	assert.Equal(t, "http://auth.example", meta["issuer"])
	assert.Equal(t, "http://auth.example/token", meta["token_endpoint"])
}

func TestAuthorize_UnsupportedResponseTypeRedirectsBack(t *testing.T) {
	h := newTestHandler(t)
	client := registerTestClient(t, h)

	q := url.Values{
		"client_id":             {client.ClientID},
		"redirect_uri":          {"https://app.example/cb"},
		"response_type":         {"token"},
		"code_challenge":        {"abc"},
		"code_challenge_method": {"S256"},
		"state":                 {"st"},
	}
	req := httptest.NewRequest(http.MethodGet, "/authorize?"+q.Encode(), nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusFound, rec.Code)

	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "unsupported_response_type", loc.Query().Get("error"))
	assert.Equal(t, "st", loc.Query().Get("state"))
}

func TestAuthorize_UnregisteredRedirectNotFollowed(t *testing.T) {
	h := newTestHandler(t)
	client := registerTestClient(t, h)

	q := url.Values{
		"client_id":             {client.ClientID},
		"redirect_uri":          {"https://evil.example/cb"},
		"response_type":         {"code"},
		"code_challenge":        {"abc"},
		"code_challenge_method": {"S256"},
	}
	req := httptest.NewRequest(http.MethodGet, "/authorize?"+q.Encode(), nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthorize_ChallengeMethodRequired(t *testing.T) {
	h := newTestHandler(t)
	client := registerTestClient(t, h)

	// an omitted method would mean plain per RFC 7636; both absent and
	// non-S256 values fail fast at authorize
	for _, method := range []string{"", "plain"} {
		q := url.Values{
			"client_id":      {client.ClientID},
			"redirect_uri":   {"https://app.example/cb"},
			"response_type":  {"code"},
			"code_challenge": {challengeOf("some-long-enough-code-verifier-value-00")},
		}
		if method != "" {
			q.Set("code_challenge_method", method)
		}
		req := httptest.NewRequest(http.MethodGet, "/authorize?"+q.Encode(), nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "invalid_request")
	}
}
