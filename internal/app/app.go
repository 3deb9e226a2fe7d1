package app

import (
	"context"
	"log/slog"

	"docsearch/internal/api/embeddings"
	"docsearch/internal/app/httpserver"
	"docsearch/internal/config"
	"docsearch/internal/mcpserver"
	"docsearch/internal/services/authcode"
	"docsearch/internal/services/clients"
	"docsearch/internal/services/provider"
	"docsearch/internal/services/search"
	"docsearch/internal/services/tokens"
	"docsearch/internal/storage/postgres"
	"docsearch/internal/storage/protected"
	"docsearch/internal/storage/redis"
	"docsearch/internal/storage/repositories"
)

type App struct {
	HTTPSrv *httpserver.App
	storage *postgres.Storage
	cache   *redis.Cache
}

func New(
	log *slog.Logger,
	cfg *config.Config,
) *App {
	ctx := context.Background()

	storage, err := postgres.New(ctx, cfg.StoragePath)
	if err != nil {
		panic(err)
	}
	cache, err := redis.NewCache(&cfg.Redis)
	if err != nil {
		panic(err)
	}
	vault, err := protected.NewVaultClient(cfg.Vault.Mount, cfg.Vault.Path)
	if err != nil {
		panic(err)
	}
	apiKey, err := vault.EmbeddingAPIKey(ctx)
	if err != nil {
		panic(err)
	}

	clientRepo := repositories.NewClientRepository(storage)
	codeRepo := repositories.NewAuthCodeRepository(storage)
	tokenRepo := repositories.NewTokenRepository(storage)
	documentRepo := repositories.NewDocumentRepository(storage)

	registry := clients.New(log, clientRepo, clientRepo)
	codeManager := authcode.New(log, codeRepo, codeRepo, cfg.AuthorizationCodeTTL)
	tokenManager := tokens.New(log, tokenRepo, tokenRepo, tokenRepo, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	oauthProvider := provider.New(log, registry, codeManager, tokenManager)

	embedder := embeddings.NewClient(log, cfg.Embeddings, apiKey)
	searchService := search.New(log, embedder, documentRepo, cache)
	mcpSrv := mcpserver.New(log, searchService)

	httpApp := httpserver.New(log, oauthProvider, mcpSrv.Handler(), cfg.HTTP)

	return &App{
		HTTPSrv: httpApp,
		storage: storage,
		cache:   cache,
	}
}

// Close releases storage and cache connections
func (a *App) Close() {
	a.storage.CloseStorage()
	_ = a.cache.Close()
}
