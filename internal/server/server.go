// Package server contains the HTTP handlers and route wiring of the API.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"resonate/internal/cache"
	"resonate/internal/catalog"
	"resonate/internal/config"
	"resonate/internal/database"
	_ "resonate/internal/docs" // swagger docs
	"resonate/internal/middleware"
	"resonate/internal/models"
	"resonate/internal/repository"
	"resonate/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	auth           *middleware.Auth
	limiter        *middleware.RateLimiter

	userService      *service.UserService
	followService    *service.FollowService
	postService      *service.PostService
	commentService   *service.CommentService
	favoriteService  *service.FavoriteService
	discoveryService *service.DiscoveryService
}

// NewServer connects to the database and Redis described by cfg and builds a Server.
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)

	return NewServerWithDeps(cfg, db, cache.GetClient(), catalog.New(cfg))
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// A nil redis client disables caching and rate limiting; a nil lookup disables
// the external catalog.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, lookup catalog.Lookup) (*Server, error) {
	if db == nil {
		return nil, errors.New("database is required")
	}
	cache.SetClient(redisClient)

	userRepo := repository.NewUserRepository(db)
	followRepo := repository.NewFollowRepository(db)
	postRepo := repository.NewPostRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	catalogRepo := repository.NewCatalogRepository(db)
	favoriteRepo := repository.NewFavoriteRepository(db)

	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("resonate-api"),
		auth:           middleware.NewAuth(cfg.JWTSecret, cfg.JWTTTL()),
		limiter:        middleware.NewRateLimiter(redisClient, cfg.RateLimitEnabled && redisClient != nil),
	}

	s.userService = service.NewUserService(userRepo, followRepo, favoriteRepo)
	s.followService = service.NewFollowService(followRepo, userRepo)
	s.postService = service.NewPostService(postRepo, userRepo, catalogRepo,
		service.WithFeedPageSize(cfg.FeedPageSize),
		service.WithPostCacheTTL(cfg.PostCacheTTL()),
	)
	s.commentService = service.NewCommentService(commentRepo, postRepo)
	s.favoriteService = service.NewFavoriteService(catalogRepo, favoriteRepo, lookup)
	s.discoveryService = service.NewDiscoveryService(catalogRepo, userRepo, followRepo, cfg.TrendingCacheTTL())

	return s, nil
}

// App builds the Fiber application with middleware and routes installed.
func (s *Server) App() *fiber.App {
	if s.app != nil {
		return s.app
	}
	app := fiber.New(fiber.Config{
		AppName:      "Resonate API",
		ErrorHandler: errorHandler,
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	s.app = app
	return app
}

// errorHandler renders errors escaping a handler. Fiber's own errors (unknown
// route, bad method) keep their status.
func errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(models.ErrorResponse{
			Error: models.ErrorBody{Code: codeForStatus(fe.Code), Message: fe.Message},
		})
	}
	if !models.HasCode(err, models.CodeNotFound) && !models.HasCode(err, models.CodeValidation) {
		middleware.Logger.ErrorContext(c.UserContext(), "request error", slog.String("error", err.Error()))
	}
	return models.RespondWithError(c, err)
}

func codeForStatus(status int) string {
	switch status {
	case fiber.StatusNotFound:
		return models.CodeNotFound
	case fiber.StatusBadRequest, fiber.StatusUnprocessableEntity:
		return models.CodeValidation
	case fiber.StatusUnauthorized:
		return models.CodeUnauthorized
	case fiber.StatusForbidden:
		return models.CodeForbidden
	case fiber.StatusConflict:
		return models.CodeConflict
	default:
		return models.CodeInternal
	}
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())

	app.Use(requestid.New())

	app.Use(middleware.TracingMiddleware())

	// Propagates request, user and trace ids into the user context.
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New())

	app.Use(middleware.StructuredLogger())

	// CORS runs before anything that can short-circuit so error responses keep their headers.
	app.Use(cors.New(cors.Config{
		AllowOrigins:     s.config.AllowedOrigins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	if s.config.RateLimitEnabled {
		// Coarse per-IP ceiling; per-route quotas are enforced through Redis.
		app.Use(limiter.New(limiter.Config{
			Max:        300,
			Expiration: time.Minute,
			Next: func(c *fiber.Ctx) bool {
				return c.Method() == fiber.MethodOptions
			},
			KeyGenerator: func(c *fiber.Ctx) string {
				return c.IP()
			},
			LimitReached: func(c *fiber.Ctx) error {
				return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
					"error": fiber.Map{"code": "RATE_LIMITED", "message": "Too many requests, please try again later."},
				})
			},
		}))
	}
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	api := app.Group("/api")
	optional := s.auth.Optional()
	required := s.auth.Required()

	auth := api.Group("/auth")
	auth.Post("/register", s.limiter.Limit("register", 5, 10*time.Minute, middleware.FailOpen), s.Register)
	auth.Post("/login", s.limiter.Limit("login", 10, 5*time.Minute, middleware.FailOpen), s.Login)

	api.Get("/feed", optional, s.GetFeed)

	posts := api.Group("/posts")
	posts.Post("/", required, s.limiter.Limit("create_post", 10, time.Minute, middleware.FailOpen), s.CreatePost)
	// Specific /:id/:resource routes before the generic /:id ones.
	posts.Post("/:id/like", required, s.ToggleLike)
	posts.Get("/:id/comments", s.GetComments)
	posts.Post("/:id/comments", required, s.limiter.Limit("create_comment", 20, time.Minute, middleware.FailOpen), s.CreateComment)
	posts.Get("/:id", optional, s.GetPost)
	posts.Put("/:id", required, s.UpdatePost)
	posts.Delete("/:id", required, s.DeletePost)

	api.Delete("/comments/:id", required, s.DeleteComment)

	users := api.Group("/users")
	// Fixed paths before /:username.
	users.Get("/search", optional, s.limiter.Limit("search", 30, time.Minute, middleware.FailOpen), s.SearchUsers)
	users.Get("/suggested", required, s.GetSuggestedUsers)
	users.Put("/me", required, s.UpdateMyProfile)
	users.Delete("/me", required, s.DeleteMyAccount)
	users.Get("/:username/posts", optional, s.GetUserPosts)
	users.Get("/:username/followers", optional, s.GetFollowers)
	users.Get("/:username/following", optional, s.GetFollowing)
	users.Post("/:username/follow/toggle", required, s.ToggleFollow)
	users.Post("/:username/follow", required, s.Follow)
	users.Delete("/:username/follow", required, s.Unfollow)
	users.Get("/:username", optional, s.GetProfile)

	favorites := api.Group("/favorites", required)
	favorites.Get("/:kind", s.GetFavorites)
	favorites.Post("/:kind", s.limiter.Limit("catalog", 30, time.Minute, middleware.FailOpen), s.AddFavorite)
	favorites.Delete("/:kind/:id", s.RemoveFavorite)

	api.Get("/catalog/search", required, s.limiter.Limit("catalog", 30, time.Minute, middleware.FailOpen), s.SearchCatalog)
	api.Get("/trending/:kind", s.GetTrending)

	api.Get("/swagger/*", swagger.HandlerDefault)
}

// LivenessCheck handles liveness check requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck reports database and cache health. Redis is optional: without it
// the API serves uncached, so only the database decides readiness.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "disabled"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overall := "healthy"
	if dbStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
		overall = "unhealthy"
	} else if redisStatus == "unhealthy" {
		overall = "degraded"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overall,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// Start serves the API on the configured port and blocks until the listener stops.
func (s *Server) Start() error {
	app := s.App()
	middleware.Logger.Info("Server starting", slog.String("port", s.config.Port))
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			middleware.Logger.Error("error closing redis", slog.String("error", err.Error()))
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.Error("error closing sql DB", slog.String("error", cerr.Error()))
		}
	}
	// Also releases the read replica opened by Connect.
	database.Close()
	return nil
}
