package app

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/shortyapp/shorty/codegen"
	"github.com/shortyapp/shorty/internal/auth"
	"github.com/shortyapp/shorty/internal/config"
	"github.com/shortyapp/shorty/internal/db"
	"github.com/shortyapp/shorty/internal/links"
	"github.com/shortyapp/shorty/internal/server"
)

// App holds the application dependencies and configuration.
type App struct {
	Config   *config.Config
	Logger   *slog.Logger
	Store    links.Store
	Registry *links.Registry
	Server   *server.Server
	Handler  *links.Handler

	closeStore func() error
}

// New initializes and returns a new App instance with all dependencies wired up.
func New(ctx context.Context) (*App, error) {
	LoadEnv()

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := NewLogger(cfg.App.LogLevel)

	logger.Info("starting application",
		"env", cfg.App.Environment,
		"version", cfg.Observability.ServiceVersion,
		"store", cfg.Database.Driver,
	)

	return Build(ctx, cfg, logger)
}

// Build wires the application from an already loaded configuration.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	store, closeStore, err := OpenStore(ctx, &cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open link store: %w", err)
	}

	codes, err := codegen.NewRandom(cfg.Links.CodeLength)
	if err != nil {
		_ = closeStore()
		return nil, fmt.Errorf("failed to create code generator: %w", err)
	}

	verifier, err := auth.NewVerifier([]byte(cfg.Auth.JWTSecret), cfg.Auth.Issuer)
	if err != nil {
		_ = closeStore()
		return nil, fmt.Errorf("failed to create token verifier: %w", err)
	}

	registry := links.NewRegistry(store, &links.RegistryConfig{
		CodeGenerator:  codes,
		MaxAttempts:    cfg.Links.MaxAttempts,
		StoreTimeout:   cfg.Links.StoreTimeout,
		AllowAnonymous: cfg.Links.AllowAnonymous,
		Logger:         logger,
	})
	handler := links.NewHandler(links.HandlerConfig{
		Service: registry,
		Logger:  logger,
		BaseURL: cfg.Server.BaseURL,
	})

	srv := server.New(cfg, logger, handler, verifier)

	logger.Info("application initialized",
		"port", cfg.Server.Port,
		"base_url", cfg.Server.BaseURL,
		"code_length", cfg.Links.CodeLength,
		"allow_anonymous", cfg.Links.AllowAnonymous,
	)

	return &App{
		Config:     cfg,
		Logger:     logger,
		Store:      store,
		Registry:   registry,
		Server:     srv,
		Handler:    handler,
		closeStore: closeStore,
	}, nil
}

// Start starts the application server.
func (a *App) Start(ctx context.Context) error {
	a.Logger.Info("server starting",
		"port", a.Config.Server.Port,
		"base_url", a.Config.Server.BaseURL,
	)

	if err := a.Server.Start(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the application.
func (a *App) Shutdown() error {
	a.Logger.Info("shutting down application")

	if a.closeStore != nil {
		if err := a.closeStore(); err != nil {
			return fmt.Errorf("failed to close link store: %w", err)
		}
		a.Logger.Info("link store closed")
	}

	return nil
}

// OpenStore opens the link store selected by cfg.Driver and, when
// cfg.AutoMigrate is set, brings its schema up to date. The returned func
// releases the store's connections.
func OpenStore(ctx context.Context, cfg *config.DatabaseConfig, logger *slog.Logger) (links.Store, func() error, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		logger.Warn("using in-memory link store; links are lost on restart")
		return links.NewMemoryStore(nil), func() error { return nil }, nil

	case config.DriverPostgres:
		pool, err := db.ConnectPostgres(ctx, db.PostgresParams{
			DSN:      cfg.ConnectionString(),
			MaxConns: cfg.MaxConns,
			MinConns: cfg.MinConns,
		}, logger)
		if err != nil {
			return nil, nil, err
		}
		if cfg.AutoMigrate {
			applied, err := db.MigratePostgres(ctx, pool)
			if err != nil {
				pool.Close()
				return nil, nil, err
			}
			logger.Info("postgres migrations applied", "applied", applied)
		}
		return links.NewPostgresStore(pool, nil), func() error { pool.Close(); return nil }, nil

	case config.DriverSQLite:
		gdb, err := db.OpenSQLite(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		if cfg.AutoMigrate {
			if err := links.MigrateSQLite(gdb); err != nil {
				_ = db.CloseSQLite(gdb)
				return nil, nil, err
			}
			logger.Info("sqlite schema migrated", "path", cfg.Path)
		}
		return links.NewSQLiteStore(gdb, nil), func() error { return db.CloseSQLite(gdb) }, nil

	default:
		return nil, nil, fmt.Errorf("unsupported store driver %q", cfg.Driver)
	}
}

// LoadEnv loads .env file only in non-production environments.
func LoadEnv() {
	env := os.Getenv("APP_ENV")
	if env == "development" || env == "test" {
		for _, path := range []string{".env", "../.env"} {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
		log.Println("no .env file found.")
	}
}

// NewLogger creates a structured logger based on the log level.
func NewLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: logLevel,
	}

	handler := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(handler)
}
