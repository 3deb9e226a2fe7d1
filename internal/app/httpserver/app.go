package httpserver

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"docsearch/internal/config"
	"docsearch/internal/services/provider"
)

// App hosts the OAuth endpoints, discovery metadata and the protected MCP
// handler on one chi router
type App struct {
	log             *slog.Logger
	server          *http.Server
	port            int
	shutdownTimeout time.Duration
}

// New creates new HTTP server app
func New(
	log *slog.Logger,
	oauthProvider *provider.Provider,
	mcpHandler http.Handler,
	conf config.HTTPConfig,
) *App {
	h := &handlers{
		log:      log,
		provider: oauthProvider,
		issuer:   conf.Issuer,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(log))

	r.Post("/register", h.register)
	r.Get("/authorize", h.authorize)
	r.Post("/token", h.token)
	r.Post("/revoke", h.revoke)
	r.Get("/.well-known/oauth-authorization-server", h.metadata)

	r.With(bearerAuth(log, oauthProvider)).Handle("/mcp", mcpHandler)

	return &App{
		log: log,
		server: &http.Server{
			Addr:         fmt.Sprintf(":%d", conf.Port),
			Handler:      r,
			ReadTimeout:  conf.Timeout,
			WriteTimeout: conf.Timeout,
		},
		port:            conf.Port,
		shutdownTimeout: conf.ShutdownTimeout,
	}
}

// MustRun runs HTTP server and panic if any occurs
func (a *App) MustRun() {
	if err := a.Run(); err != nil {
		panic(err)
	}
}

// Run HTTP server until Stop or a listener failure
func (a *App) Run() error {
	const op = "httpserver.Run"

	log := a.log.With(slog.String("op", op), slog.Int("port", a.port))
	log.Info("starting HTTP server", slog.String("addr", a.server.Addr))

	g := new(errgroup.Group)
	g.Go(func() error {
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("%s: %w", op, err)
		}
		return nil
	})
	return g.Wait()
}

// Stop HTTP server draining in-flight requests
func (a *App) Stop() {
	const op = "httpserver.Stop"

	a.log.With(slog.String("op", op)).Info("stopping HTTP server")
	ctx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
	defer cancel()
	if err := a.server.Shutdown(ctx); err != nil {
		a.log.Error("failed to shut down HTTP server", slog.String("error", err.Error()))
	}
}

// requestLogger logs method, path and duration of every request
func requestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			log.Debug("request handled",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Duration("took", time.Since(start)),
			)
		})
	}
}
