package app

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/notesvault/notesvault/internal/auth"
	"github.com/notesvault/notesvault/internal/blob"
	"github.com/notesvault/notesvault/internal/config"
	"github.com/notesvault/notesvault/internal/handlers"
	"github.com/notesvault/notesvault/internal/router"
	"github.com/notesvault/notesvault/internal/service"
	"github.com/notesvault/notesvault/internal/store"
	"github.com/notesvault/notesvault/internal/telemetry"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// App represents the main application
type App struct {
	config    *config.Config
	logger    *zap.Logger
	telemetry *telemetry.Telemetry
	store     store.Store
	server    *http.Server
}

func NewApp(cfg *config.Config, logger *zap.Logger) (*App, error) {
	// Initialize telemetry
	tel, err := telemetry.NewTelemetry(logger)
	if err != nil {
		return nil, err
	}

	// Use the factory to create the catalog store
	factory := store.NewFactory(logger, tel)
	configJSON := cfg.StoreConfig
	if configJSON == "" {
		// Default to the durable jsonfile store under the data directory
		storeConfig := store.StoreConfig{
			StoreType: store.StoreTypeJSONFile,
			ExtraDetails: map[string]interface{}{
				"path": filepath.Join(cfg.DataDir, "catalog.json"),
			},
		}
		b, _ := json.Marshal(storeConfig)
		configJSON = string(b)
	}
	catalogStore, err := factory.CreateStore(configJSON)
	if err != nil {
		return nil, err
	}

	// Blob directory sits next to the catalog document
	blobs, err := blob.NewStore(filepath.Join(cfg.DataDir, "files"), logger)
	if err != nil {
		return nil, err
	}

	svc := service.New(catalogStore, blobs, logger)

	authenticator, err := buildAuthenticator(cfg, logger)
	if err != nil {
		return nil, err
	}
	tokens := auth.NewTokenManager(jwtSecret(cfg, logger), 12*time.Hour)

	// Initialize router with handlers
	var limiter = rate.NewLimiter(rate.Limit(cfg.RPSLimit), cfg.RPSBurst)

	// Create handlers
	handlerList := []router.Handler{
		handlers.NewAuthHandler(authenticator, tokens),
		handlers.NewCatalogHandler(svc, tokens.Middleware(), cfg.MaxUploadMB<<20),
		handlers.NewDownloadHandler(svc, tel.Meter),
	}

	appRouter := router.NewRouter(limiter, tel, logger, handlerList)
	server := appRouter.CreateServer(":" + cfg.Port)

	return &App{
		config:    cfg,
		logger:    logger,
		telemetry: tel,
		store:     catalogStore,
		server:    server,
	}, nil
}

func buildAuthenticator(cfg *config.Config, logger *zap.Logger) (auth.Authenticator, error) {
	hash := cfg.AdminPasswordHash
	if hash == "" && cfg.AdminPassword != "" {
		var err error
		hash, err = auth.HashPassword(cfg.AdminPassword)
		if err != nil {
			return nil, err
		}
	}
	if hash == "" {
		// No credentials configured: every login attempt fails against this
		// placeholder, which bcrypt rejects unconditionally.
		logger.Warn("admin credentials not configured, admin login is disabled")
		hash = "!disabled"
	}
	return auth.NewStaticAuthenticator(cfg.AdminUsername, hash), nil
}

func jwtSecret(cfg *config.Config, logger *zap.Logger) string {
	if cfg.JWTSecret != "" {
		return cfg.JWTSecret
	}
	buf := make([]byte, 32)
	_, _ = rand.Read(buf)
	logger.Warn("JWT_SECRET not set, generated a random secret; admin sessions will not survive restarts")
	return hex.EncodeToString(buf)
}

// Start starts the application server
func (app *App) start() error {
	app.logger.Info("starting server", zap.String("port", app.config.Port))

	go func() {
		if err := app.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.logger.Fatal("server failed to start", zap.Error(err))
		}
	}()

	return nil
}

// Stop gracefully shuts down the application
func (app *App) stop() error {
	app.logger.Info("shutting down server...")

	// Create shutdown context with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.server.Shutdown(shutdownCtx); err != nil {
		app.logger.Error("server forced to shutdown", zap.Error(err))
		return err
	}

	if err := app.store.Close(); err != nil {
		app.logger.Error("store close failed", zap.Error(err))
	}

	app.logger.Info("server exited gracefully")
	return nil
}

// Run starts the application and waits for shutdown signals
func (app *App) Run() error {
	// Start the server
	if err := app.start(); err != nil {
		return err
	}

	// Wait for interrupt signal
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Wait for shutdown signal
	<-ctx.Done()

	// Stop the application
	return app.stop()
}
