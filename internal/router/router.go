package router

import (
	"log/slog"

	"github.com/anonto42/yatube/internal/cache"
	"github.com/anonto42/yatube/internal/handlers"
	"github.com/anonto42/yatube/internal/media"
	"github.com/anonto42/yatube/internal/middleware"
	"github.com/anonto42/yatube/internal/repositories"
	"github.com/anonto42/yatube/pkg/config"
	"github.com/anonto42/yatube/validators"
	"github.com/labstack/echo/v4"
)

// Dependencies are the collaborators the routes are built from.
type Dependencies struct {
	DB         *config.DB
	Media      media.Storage
	IndexCache *cache.PageCache
	Sessions   *middleware.SessionManager
	Renderer   echo.Renderer
	// Firebase verifies ID tokens for /auth/firebase/. Nil disables it.
	Firebase middleware.TokenVerifier
}

// SetupRoutes configures all application routes and injects dependencies
func SetupRoutes(e *echo.Echo, deps Dependencies) {
	e.Validator = validators.NewValidator()
	e.Renderer = deps.Renderer
	e.HTTPErrorHandler = handlers.HTTPErrorHandler(e)

	// Health check - always accessible
	e.GET("/health", handlers.HealthCheck(deps.DB))

	// --- Initialize Repositories ---
	userRepo := repositories.NewPostgresUserRepository(deps.DB.SQL)
	groupRepo := repositories.NewPostgresGroupRepository(deps.DB.SQL)
	postRepo := repositories.NewPostgresPostRepository(deps.DB.SQL)
	commentRepo := repositories.NewPostgresCommentRepository(deps.DB.SQL)
	followRepo := repositories.NewPostgresFollowRepository(deps.DB.SQL)

	e.Use(middleware.LoadUser(deps.Sessions, userRepo))
	requireLogin := middleware.RequireLogin()

	authHandler := handlers.NewAuthHandler(userRepo, deps.Sessions, deps.Firebase)
	authHandler.RegisterAuthRoutes(e.Group("/auth"))
	slog.Debug("Auth routes configured", "firebase", deps.Firebase != nil)

	feedHandler := handlers.NewFeedHandler(postRepo, groupRepo, deps.IndexCache)
	feedHandler.RegisterFeedRoutes(e, requireLogin)

	userHandler := handlers.NewUserHandler(userRepo, postRepo, followRepo)
	userHandler.RegisterProfileRoutes(e)

	postHandler := handlers.NewPostHandler(postRepo, groupRepo, commentRepo, deps.Media)
	postHandler.RegisterPostRoutes(e, requireLogin)

	commentHandler := handlers.NewCommentHandler(commentRepo, postRepo)
	commentHandler.RegisterCommentRoutes(e, requireLogin)

	followHandler := handlers.NewFollowHandler(followRepo, userRepo)
	followHandler.RegisterFollowRoutes(e, requireLogin)

	mediaHandler := handlers.NewMediaHandler(deps.Media)
	mediaHandler.RegisterMediaRoutes(e)

	slog.Debug("All routes configured", "routes", len(e.Routes()))
}
