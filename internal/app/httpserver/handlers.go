package httpserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"docsearch/internal/domain/models"
	"docsearch/internal/services/provider"
	"docsearch/internal/storage"
)

// OAuth 2.0 error codes from RFC 6749
const (
	errInvalidRequest          = "invalid_request"
	errInvalidClient           = "invalid_client"
	errInvalidGrant            = "invalid_grant"
	errUnsupportedGrantType    = "unsupported_grant_type"
	errUnsupportedResponseType = "unsupported_response_type"
	errServerError             = "server_error"
)

type handlers struct {
	log      *slog.Logger
	provider *provider.Provider
	issuer   string
}

// register handles RFC 7591 dynamic client registration
func (h *handlers) register(w http.ResponseWriter, r *http.Request) {
	const op = "httpserver.register"
	logger := h.log.With(slog.String("op", op))

	var requested models.Client
	if err := json.NewDecoder(r.Body).Decode(&requested); err != nil {
		writeOAuthError(w, http.StatusBadRequest, errInvalidRequest, "malformed registration body")
		return
	}

	client, err := h.provider.Register(r.Context(), &requested)
	if err != nil {
		if errors.Is(err, provider.ErrMissingRedirectURI) {
			writeOAuthError(w, http.StatusBadRequest, "invalid_client_metadata", "redirect_uris is required")
			return
		}
		logger.Error("registration failed", slog.String("error", err.Error()))
		writeOAuthError(w, http.StatusInternalServerError, errServerError, "")
		return
	}

	writeJSON(w, http.StatusCreated, client)
}

// authorize handles the authorization endpoint: validation, code mint,
// 302 back to the client's redirect URI
func (h *handlers) authorize(w http.ResponseWriter, r *http.Request) {
	const op = "httpserver.authorize"
	logger := h.log.With(slog.String("op", op))

	q := r.URL.Query()
	// absence would default to plain per RFC 7636, which is not supported
	if q.Get("code_challenge_method") != "S256" {
		writeOAuthError(w, http.StatusBadRequest, errInvalidRequest, "code_challenge_method must be S256")
		return
	}
	req := provider.AuthorizeRequest{
		ClientID:      q.Get("client_id"),
		RedirectURI:   q.Get("redirect_uri"),
		ResponseType:  q.Get("response_type"),
		CodeChallenge: q.Get("code_challenge"),
		Scope:         splitScope(q.Get("scope")),
		State:         q.Get("state"),
		Resource:      q.Get("resource"),
	}

	redirect, err := h.provider.Authorize(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			writeOAuthError(w, http.StatusBadRequest, errInvalidClient, "unknown client")
		case errors.Is(err, provider.ErrMissingRedirectURI),
			errors.Is(err, provider.ErrUnregisteredRedirectURI):
			// never redirect to an unvalidated URI
			writeOAuthError(w, http.StatusBadRequest, errInvalidRequest, "invalid redirect_uri")
		case errors.Is(err, provider.ErrUnsupportedResponseType):
			redirectError(w, r, req.RedirectURI, errUnsupportedResponseType, req.State)
		case errors.Is(err, provider.ErrMissingCodeChallenge):
			redirectError(w, r, req.RedirectURI, errInvalidRequest, req.State)
		default:
			logger.Error("authorize failed", slog.String("error", err.Error()))
			writeOAuthError(w, http.StatusInternalServerError, errServerError, "")
		}
		return
	}

	http.Redirect(w, r, redirect, http.StatusFound)
}

// token handles both grant types of the token endpoint
func (h *handlers) token(w http.ResponseWriter, r *http.Request) {
	const op = "httpserver.token"
	logger := h.log.With(slog.String("op", op))

	if err := r.ParseForm(); err != nil {
		writeOAuthError(w, http.StatusBadRequest, errInvalidRequest, "malformed form body")
		return
	}

	client, err := h.provider.AuthenticateClient(r.Context(), r.PostFormValue("client_id"), r.PostFormValue("client_secret"))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) || errors.Is(err, provider.ErrClientAuthentication) {
			writeOAuthError(w, http.StatusUnauthorized, errInvalidClient, "")
			return
		}
		logger.Error("client authentication failed", slog.String("error", err.Error()))
		writeOAuthError(w, http.StatusInternalServerError, errServerError, "")
		return
	}

	switch r.PostFormValue("grant_type") {
	case "authorization_code":
		h.authorizationCodeGrant(w, r, client)
	case "refresh_token":
		h.refreshTokenGrant(w, r, client)
	default:
		writeOAuthError(w, http.StatusBadRequest, errUnsupportedGrantType, "")
	}
}

func (h *handlers) authorizationCodeGrant(w http.ResponseWriter, r *http.Request, client *models.Client) {
	const op = "httpserver.authorizationCodeGrant"
	logger := h.log.With(slog.String("op", op), slog.String("client_id", client.ID))

	code := r.PostFormValue("code")
	verifier := r.PostFormValue("code_verifier")
	if code == "" || verifier == "" {
		writeOAuthError(w, http.StatusBadRequest, errInvalidRequest, "code and code_verifier are required")
		return
	}

	// the lifecycle core hands out the stored challenge, the comparison
	// against the presented verifier happens here
	challenge, err := h.provider.Challenge(r.Context(), client, code)
	if err != nil {
		h.writeGrantError(w, logger, err)
		return
	}
	if !verifyPKCE(verifier, challenge) {
		writeOAuthError(w, http.StatusBadRequest, errInvalidGrant, "PKCE verification failed")
		return
	}

	resp, err := h.provider.ExchangeCode(r.Context(), client, code, r.PostFormValue("redirect_uri"))
	if err != nil {
		h.writeGrantError(w, logger, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handlers) refreshTokenGrant(w http.ResponseWriter, r *http.Request, client *models.Client) {
	const op = "httpserver.refreshTokenGrant"
	logger := h.log.With(slog.String("op", op), slog.String("client_id", client.ID))

	refreshToken := r.PostFormValue("refresh_token")
	if refreshToken == "" {
		writeOAuthError(w, http.StatusBadRequest, errInvalidRequest, "refresh_token is required")
		return
	}

	resp, err := h.provider.RefreshGrant(r.Context(), client, refreshToken, splitScope(r.PostFormValue("scope")))
	if err != nil {
		h.writeGrantError(w, logger, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// revoke always succeeds from the caller's perspective once the client is
// authenticated, absence of the token included
func (h *handlers) revoke(w http.ResponseWriter, r *http.Request) {
	const op = "httpserver.revoke"
	logger := h.log.With(slog.String("op", op))

	if err := r.ParseForm(); err != nil {
		writeOAuthError(w, http.StatusBadRequest, errInvalidRequest, "malformed form body")
		return
	}
	client, err := h.provider.AuthenticateClient(r.Context(), r.PostFormValue("client_id"), r.PostFormValue("client_secret"))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) || errors.Is(err, provider.ErrClientAuthentication) {
			writeOAuthError(w, http.StatusUnauthorized, errInvalidClient, "")
			return
		}
		writeOAuthError(w, http.StatusInternalServerError, errServerError, "")
		return
	}

	if err = h.provider.Revoke(r.Context(), client, r.PostFormValue("token")); err != nil {
		// storage failure is the one thing revoke may not hide
		logger.Error("revocation failed", slog.String("error", err.Error()))
		writeOAuthError(w, http.StatusInternalServerError, errServerError, "")
		return
	}
	w.WriteHeader(http.StatusOK)
}

// metadata serves RFC 8414 authorization server metadata
func (h *handlers) metadata(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"issuer":                                h.issuer,
		"authorization_endpoint":                h.issuer + "/authorize",
		"token_endpoint":                        h.issuer + "/token",
		"registration_endpoint":                 h.issuer + "/register",
		"revocation_endpoint":                   h.issuer + "/revoke",
		"response_types_supported":              []string{"code"},
		"grant_types_supported":                 []string{"authorization_code", "refresh_token"},
		"code_challenge_methods_supported":      []string{"S256"},
		"token_endpoint_auth_methods_supported": []string{"client_secret_post"},
	})
}

// writeGrantError maps lifecycle-core failures onto token endpoint errors.
// NotFound and Expired both present as invalid_grant so callers cannot
// probe which aspect of a code or token was wrong.
func (h *handlers) writeGrantError(w http.ResponseWriter, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound),
		errors.Is(err, storage.ErrExpired),
		errors.Is(err, storage.ErrInvalidToken),
		errors.Is(err, provider.ErrUnregisteredRedirectURI):
		writeOAuthError(w, http.StatusBadRequest, errInvalidGrant, "")
	default:
		logger.Error("grant failed", slog.String("error", err.Error()))
		writeOAuthError(w, http.StatusInternalServerError, errServerError, "")
	}
}

func redirectError(w http.ResponseWriter, r *http.Request, redirectURI string, code string, state string) {
	u, err := url.Parse(redirectURI)
	if err != nil {
		writeOAuthError(w, http.StatusBadRequest, errInvalidRequest, "invalid redirect_uri")
		return
	}
	q := u.Query()
	q.Set("error", code)
	if state != "" {
		q.Set("state", state)
	}
	u.RawQuery = q.Encode()
	http.Redirect(w, r, u.String(), http.StatusFound)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeOAuthError(w http.ResponseWriter, status int, code string, description string) {
	body := map[string]string{"error": code}
	if description != "" {
		body["error_description"] = description
	}
	writeJSON(w, status, body)
}

func splitScope(scope string) []string {
	if scope == "" {
		return nil
	}
	return strings.Fields(scope)
}
