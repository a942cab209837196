// Package server contains the HTTP handlers for the application's API endpoints.
package server

import (
	"context"
	"fmt"
	"log"
	"time"

	"quorum/internal/cache"
	"quorum/internal/config"
	"quorum/internal/database"
	"quorum/internal/middleware"
	"quorum/internal/models"
	"quorum/internal/observability"
	"quorum/internal/repository"
	"quorum/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
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

	userRepo     repository.UserRepository
	sessionRepo  repository.SessionRepository
	questionRepo repository.QuestionRepository
	answerRepo   repository.AnswerRepository
	categoryRepo repository.CategoryRepository
	faqRepo      repository.FAQRepository

	authService      *service.AuthService
	questionService  *service.QuestionService
	answerService    *service.AnswerService
	userService      *service.UserService
	directoryService *service.DirectoryService
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL, middleware.Logger)
	return NewServerWithDeps(cfg, db, cache.GetClient())
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis first.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	userRepo := repository.NewUserRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	questionRepo := repository.NewQuestionRepository(db)
	answerRepo := repository.NewAnswerRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	faqRepo := repository.NewFAQRepository(db)

	server := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: observability.InitMetrics("quorum-api"),
		userRepo:       userRepo,
		sessionRepo:    sessionRepo,
		questionRepo:   questionRepo,
		answerRepo:     answerRepo,
		categoryRepo:   categoryRepo,
		faqRepo:        faqRepo,
	}
	server.authService = service.NewAuthService(userRepo, sessionRepo)
	server.questionService = service.NewQuestionService(questionRepo, answerRepo, categoryRepo, userRepo)
	server.answerService = service.NewAnswerService(answerRepo, questionRepo, userRepo)
	server.userService = service.NewUserService(userRepo, questionRepo, answerRepo)
	server.directoryService = service.NewDirectoryService(categoryRepo, faqRepo, questionRepo, answerRepo, userRepo)

	return server, nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	// Prometheus metrics
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
		app.Use(s.promMiddleware.Middleware)
	}

	if s.config.TracingEnabled {
		app.Use(middleware.TracingMiddleware())
	}

	// Security headers
	app.Use(helmet.New())

	// Structured logging (after requestid so the ID is available)
	app.Use(middleware.StructuredLogger())

	// CORS runs before middlewares that can short-circuit (e.g. limiter)
	// so browser clients still receive CORS headers on error responses.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		// Never rate-limit preflight requests; they are handled by CORS.
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	api := app.Group("/api")

	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "Quorum Metrics Dashboard",
	}))

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/register", middleware.RateLimit(
		s.redis, 3, 10*time.Minute, "register"), s.Register)
	auth.Post("/login", middleware.RateLimit(
		s.redis, 10, 5*time.Minute, "login"), s.Login)
	auth.Post("/logout", s.Logout)
	auth.Get("/me", s.AuthRequired(), s.Me)
	auth.Post("/request-reset", middleware.RateLimit(
		s.redis, 3, 10*time.Minute, "request_reset"), s.RequestPasswordReset)
	auth.Post("/reset-password", s.ResetPassword)

	// Category routes
	categories := api.Group("/categories")
	categories.Get("/", s.GetCategories)
	categories.Post("/", s.AuthRequired(), s.CreateCategory)
	categories.Get("/:slug", s.GetCategory)

	// Question routes. Browsing and voting are public; posting requires auth.
	questions := api.Group("/questions")
	questions.Get("/", s.GetQuestions)
	questions.Get("/search", middleware.RateLimit(
		s.redis, 20, time.Minute, "search"), s.SearchQuestions)
	questions.Post("/", s.AuthRequired(), middleware.RateLimit(
		s.redis, 5, 5*time.Minute, "create_question"), s.CreateQuestion)
	// Specific /:id/:resource routes BEFORE the generic /:id route
	questions.Post("/:id/vote", s.VoteQuestion)
	questions.Post("/:id/pin", s.AuthRequired(), s.PinQuestion)
	questions.Post("/:id/answers", s.AuthRequired(), middleware.RateLimit(
		s.redis, 10, 5*time.Minute, "create_answer"), s.CreateAnswer)
	questions.Get("/:id", s.GetQuestion)
	questions.Patch("/:id", s.AuthRequired(), s.UpdateQuestion)
	questions.Delete("/:id", s.AuthRequired(), s.DeleteQuestion)

	// Answer routes
	answers := api.Group("/answers")
	answers.Post("/:id/vote", s.VoteAnswer)
	answers.Post("/:id/accept", s.AuthRequired(), s.AcceptAnswer)
	answers.Patch("/:id", s.AuthRequired(), s.UpdateAnswer)
	answers.Delete("/:id", s.AuthRequired(), s.DeleteAnswer)

	// User routes
	users := api.Group("/users")
	users.Put("/me", s.AuthRequired(), s.UpdateMyProfile)
	users.Get("/:id", s.GetUserProfile)

	// Admin routes
	admin := api.Group("/admin", s.AuthRequired())
	admin.Get("/users", s.GetAllUsers)
	admin.Patch("/users/:id/role", s.ChangeUserRole)

	// Reference surfaces
	api.Get("/faqs", s.GetFAQs)
	api.Get("/stats", s.GetStats)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	// Redis is a soft dependency: caching and per-route rate limits degrade
	// gracefully without it, so it never fails readiness.
	redisStatus := "unavailable"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// AuthRequired resolves the session cookie to a user and stores it in locals.
// Requests without a valid, unexpired session are rejected with 401.
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := s.authService.Authenticate(c.Context(), c.Cookies(s.config.CookieName))
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized, err)
		}
		c.Locals("user", user)
		c.Locals("userID", user.ID)
		return c.Next()
	}
}

// currentUser returns the authenticated user placed in locals by
// AuthRequired, or nil on public routes.
func (s *Server) currentUser(c *fiber.Ctx) *models.User {
	user, _ := c.Locals("user").(*models.User)
	return user
}

// optionalUser resolves the session cookie if present without enforcing it.
func (s *Server) optionalUser(c *fiber.Ctx) *models.User {
	if user := s.currentUser(c); user != nil {
		return user
	}
	sessionID := c.Cookies(s.config.CookieName)
	if sessionID == "" {
		return nil
	}
	user, err := s.authService.Authenticate(c.Context(), sessionID)
	if err != nil {
		return nil
	}
	return user
}

// Start starts the server
func (s *Server) Start() error {
	app := fiber.New(fiber.Config{
		AppName: "Quorum API",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})
	s.app = app

	s.SetupMiddleware(app)
	s.SetupRoutes(app)

	log.Printf("Server starting on port %s...", s.config.Port)
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			log.Printf("error shutting down HTTP server: %v", err)
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Printf("error closing sql DB: %v", cerr)
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			log.Printf("error closing redis: %v", rerr)
		}
	}

	log.Println("Server shutdown complete")
	return nil
}
