package router

import (
	"log/slog"

	"github.com/anonto42/timeline-globe/backend/internal/handlers"
	"github.com/anonto42/timeline-globe/backend/internal/middleware"
	"github.com/anonto42/timeline-globe/backend/internal/repositories"
	"github.com/anonto42/timeline-globe/backend/internal/services"
	"github.com/anonto42/timeline-globe/backend/validators"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// Dependencies are the stores and settings the routes are built from.
type Dependencies struct {
	Posts           repositories.PostRepository
	Users           repositories.UserRepository
	Auth            middleware.Authenticator
	Validate        *validator.Validate
	Stores          map[string]handlers.PingFunc
	PostConfig      services.PostServiceConfig
	VoteMaxAttempts uint
	Logger          *slog.Logger
}

// SetupRoutes configures all application routes and injects dependencies
func SetupRoutes(e *echo.Echo, deps Dependencies) {
	if deps.Validate == nil {
		deps.Validate = validators.New()
	}
	e.Validator = validators.NewEchoValidator(deps.Validate)
	e.HTTPErrorHandler = handlers.ErrorHandler(deps.Logger)

	postService := services.NewPostService(deps.Posts, deps.Users, deps.Validate, deps.PostConfig, deps.Logger)
	ledger := services.NewVoteLedger(deps.Posts, deps.Users, deps.Logger, services.WithMaxAttempts(deps.VoteMaxAttempts))
	requireAuth := middleware.RequireAuth(deps.Auth)

	api := e.Group("/api")

	// Health check - always accessible
	api.GET("/health", handlers.NewHealthHandler(deps.Stores, deps.Logger).HealthCheck)

	// Post routes
	handlers.NewPostHandler(postService).RegisterPostRoutes(api, requireAuth)

	// Vote routes
	handlers.NewVoteHandler(ledger).RegisterVoteRoutes(api, requireAuth)

	deps.Logger.Info("routes configured", "prefix", "/api")
}
