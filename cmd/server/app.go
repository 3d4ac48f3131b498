package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/mentora-learn/mentora-api/internal/api"
	"github.com/mentora-learn/mentora-api/internal/api/middleware"
	"github.com/mentora-learn/mentora-api/internal/config"
	"github.com/mentora-learn/mentora-api/internal/platform/cache"
	"github.com/mentora-learn/mentora-api/internal/platform/gemini"
	"github.com/mentora-learn/mentora-api/internal/platform/logger"
	"github.com/mentora-learn/mentora-api/internal/platform/postgres"
	"github.com/mentora-learn/mentora-api/internal/platform/vault"
	"github.com/mentora-learn/mentora-api/internal/service"
	"github.com/mentora-learn/mentora-api/internal/service/auth"
)

// application holds the wired dependencies of the running server.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	authHandler       *api.AuthHandler
	credentialHandler *api.CredentialHandler
	generationHandler *api.GenerationHandler
	quizHandler       *api.QuizHandler
	creditHandler     *api.CreditHandler
	authMiddleware    *middleware.AuthMiddleware
}

// newApplication loads configuration and wires every component of the
// server: logging, database and migrations, the credential vault, the
// model gateway, the service layer and the HTTP handlers.
func newApplication(ctx context.Context) (*application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger := logger.Setup(cfg.Server)
	appLogger.Info("Server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"models", cfg.LLM.Models)

	db, err := setupDatabase(cfg, appLogger)
	if err != nil {
		return nil, err
	}

	if err := postgres.RunMigrations(db, appLogger); err != nil {
		_ = db.Close()
		return nil, err
	}

	masterKey, err := cfg.Vault.DecodeMasterKey()
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to decode vault master key: %w", err)
	}
	credentialVault, err := vault.New(masterKey)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize credential vault: %w", err)
	}

	gateway, err := gemini.NewClient(cfg.LLM, appLogger)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize model gateway: %w", err)
	}

	jwtService, err := auth.NewJWTService(cfg.Auth)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}

	// Stores
	userStore := postgres.NewPostgresUserStore(db, appLogger)
	credStore := postgres.NewPostgresCredentialStore(db, appLogger)
	creditStore := postgres.NewPostgresCreditStore(db, appLogger)
	genStore := postgres.NewPostgresGenerationStore(db, appLogger)
	progressStore := postgres.NewPostgresProgressStore(db, appLogger)

	// Services
	balanceCache := cache.New[uuid.UUID, int64](
		time.Duration(cfg.Credit.CacheTTLSeconds) * time.Second)
	creditService := service.NewCreditService(creditStore, balanceCache, db, appLogger)
	userService := service.NewUserService(
		userStore,
		creditStore,
		auth.NewBcryptHasher(0),
		auth.NewBcryptVerifier(),
		cfg.Credit.SignupGrant,
		db,
		appLogger,
	)
	credentialService := service.NewCredentialService(credStore, credentialVault, appLogger)
	generationService := service.NewGenerationService(
		genStore,
		credentialService,
		creditService,
		gateway,
		cfg.Credit,
		cfg.LLM.MaxContextChars,
		appLogger,
	)
	quizService := service.NewQuizService(genStore, progressStore, db, appLogger)

	return &application{
		config:            cfg,
		logger:            appLogger,
		db:                db,
		authHandler:       api.NewAuthHandler(userService, jwtService),
		credentialHandler: api.NewCredentialHandler(credentialService),
		generationHandler: api.NewGenerationHandler(generationService),
		quizHandler:       api.NewQuizHandler(quizService),
		creditHandler:     api.NewCreditHandler(creditService),
		authMiddleware:    middleware.NewAuthMiddleware(jwtService),
	}, nil
}

// Run starts the HTTP server and blocks until shutdown completes.
func (app *application) Run(ctx context.Context) error {
	return app.startHTTPServer(ctx, app.routes())
}

// cleanup releases held resources. Safe to call once, after Run returns.
func (app *application) cleanup() {
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("failed to close database", "error", err)
		}
	}
}
