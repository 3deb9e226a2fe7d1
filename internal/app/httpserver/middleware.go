package httpserver

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"docsearch/internal/services/provider"
)

type contextKey string

// tokenContextKey carries the verified access token through to tool handlers
const tokenContextKey contextKey = "docsearch.access_token"

// bearerAuth verifies the bearer token on every protected request before
// any tool logic runs. All verification failures present identically: a
// bare 401 that never distinguishes unknown from expired from revoked.
func bearerAuth(log *slog.Logger, oauthProvider *provider.Provider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "httpserver.bearerAuth"

			value, ok := bearerToken(r)
			if !ok {
				unauthorized(w)
				return
			}
			token, err := oauthProvider.VerifyAccess(r.Context(), value)
			if err != nil {
				log.With(slog.String("op", op)).Debug("bearer verification failed")
				unauthorized(w)
				return
			}

			ctx := context.WithValue(r.Context(), tokenContextKey, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	return header[len(prefix):], true
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
	w.WriteHeader(http.StatusUnauthorized)
}
