package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anonto42/timeline-globe/backend/internal/handlers"
	"github.com/anonto42/timeline-globe/backend/internal/middleware"
	"github.com/anonto42/timeline-globe/backend/internal/repositories"
	"github.com/anonto42/timeline-globe/backend/internal/router"
	"github.com/anonto42/timeline-globe/backend/internal/services"
	"github.com/anonto42/timeline-globe/backend/pkg/config"
	"github.com/anonto42/timeline-globe/backend/pkg/firebase"
	"github.com/anonto42/timeline-globe/backend/pkg/telemetry"
	"github.com/labstack/echo/v4"
)

const serviceName = "timeline-globe"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	level, _ := cfg.SlogLevel()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, serviceName, cfg.OTelEndpoint)
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Error("flush traces", "error", err)
		}
	}()

	deps := router.Dependencies{
		PostConfig: services.PostServiceConfig{
			DefaultRadiusMeters: cfg.DefaultRadiusMeters,
			MaxLimit:            cfg.QueryMaxLimit,
		},
		VoteMaxAttempts: uint(cfg.VoteMaxAttempts),
		Logger:          logger,
	}

	// Initialize stores
	switch cfg.StoreDriver {
	case config.StoreMongo:
		db, err := config.InitDB(ctx, cfg, logger)
		if err != nil {
			return fmt.Errorf("initialize databases: %w", err)
		}
		defer db.CloseDB()

		posts := repositories.NewMongoPostRepository(db.Mongo.Database(cfg.MongoDatabase))
		if err := posts.EnsureIndexes(ctx); err != nil {
			return err
		}
		users := repositories.NewPostgresUserRepository(db.Postgres)
		if err := users.Migrate(); err != nil {
			return fmt.Errorf("migrate users: %w", err)
		}
		deps.Posts, deps.Users = posts, users
		deps.Stores = map[string]handlers.PingFunc{"mongo": db.PingMongo, "postgres": db.PingPostgres}
	case config.StoreMemory:
		logger.Warn("using in-memory stores; data is lost on restart")
		deps.Posts = repositories.NewMemoryPostRepository()
		deps.Users = repositories.NewMemoryUserRepository()
		deps.Stores = map[string]handlers.PingFunc{"memory": func(context.Context) error { return nil }}
	}

	// Initialize authentication
	switch cfg.AuthProvider {
	case config.AuthJWT:
		deps.Auth = middleware.NewJWTAuthenticator(cfg.JWTSecret)
	case config.AuthFirebase:
		authClient, err := firebase.InitFirebase(ctx, cfg.FirebaseCredentialsPath)
		if err != nil {
			return fmt.Errorf("initialize firebase: %w", err)
		}
		deps.Auth = middleware.NewFirebaseAuthenticator(authClient, deps.Users)
	}
	logger.Info("authentication configured", "provider", cfg.AuthProvider)

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	config.SetupMiddleware(e, cfg, logger)
	router.SetupRoutes(e, deps)

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server exited with error", "error", err)
			stop()
		}
	}()
	logger.Info("server started", "port", cfg.Port, "env", cfg.Env, "store", cfg.StoreDriver)

	// Wait for shutdown signal
	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("error shutting down http server", "error", err)
	}
	return nil
}
