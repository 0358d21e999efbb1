package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/temcen/vendex/internal/config"
	"github.com/temcen/vendex/internal/database"
	"github.com/temcen/vendex/internal/docs"
	"github.com/temcen/vendex/internal/handlers"
	"github.com/temcen/vendex/internal/middleware"
	"github.com/temcen/vendex/internal/services"
	"github.com/temcen/vendex/internal/validation"
)

type App struct {
	config   *config.Config
	logger   *logrus.Logger
	db       *database.Database
	services *services.Services
	handlers *handlers.Handlers
	router   *gin.Engine
}

func New(cfg *config.Config) (*App, error) {
	app := &App{
		config: cfg,
		logger: SetupLogger(cfg),
	}

	// Initialize database connections
	db, err := database.New(cfg, app.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	svc, err := services.New(cfg, app.logger, db)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}
	app.services = svc

	validator, err := validation.NewEmbeddedSchemaValidator()
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to load request schemas: %w", err)
	}

	apiDocs, err := docs.NewHandler()
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to load API docs: %w", err)
	}

	app.handlers = handlers.New(app.logger, svc, prometheus.DefaultGatherer)
	app.router = newRouter(cfg, app.logger, svc, app.handlers, validator)
	apiDocs.RegisterRoutes(app.router)

	return app, nil
}

func (a *App) Router() *gin.Engine {
	return a.router
}

// Migrate creates the history and vendor directory tables if needed.
func (a *App) Migrate(ctx context.Context) error {
	return a.db.Migrate(ctx)
}

func (a *App) Logger() *logrus.Logger {
	return a.logger
}

func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("Shutting down application...")

	err := errors.Join(a.services.Close(), a.db.Close())
	if err != nil {
		a.logger.WithError(err).Error("Error closing connections")
	}
	return err
}

// SetupLogger builds the process logger from the logging config section.
func SetupLogger(cfg *config.Config) *logrus.Logger {
	logger := logrus.New()

	level, err := logrus.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.Logging.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	return logger
}

func newRouter(cfg *config.Config, logger *logrus.Logger, svc *services.Services, h *handlers.Handlers, validator *validation.SchemaValidator) *gin.Engine {
	if cfg.Server.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	vm := middleware.NewValidationMiddleware(validator)

	// Global middleware
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.CORS(cfg))

	// Health check and metrics (no auth required)
	router.GET("/health", h.Health.Check)
	if cfg.Monitoring.Enabled {
		path := cfg.Monitoring.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		router.GET(path, h.Metrics)
	}

	api := router.Group("/api/v1")
	api.Use(vm.ValidateHeaders())

	api.POST("/auth/token", vm.ValidateAuthRequest(), h.Auth.Token)
	api.DELETE("/auth/token", middleware.Auth(svc.Auth, logger), h.Auth.Revoke)

	procurement := api.Group("/procurement")
	{
		procurement.Use(middleware.Auth(svc.Auth, logger))
		procurement.Use(middleware.RateLimit(svc.RateLimit, logger))

		procurement.POST("/compare", vm.ValidateCompareRequest(), h.Comparison.Compare)
		procurement.POST("/compare/directory", vm.ValidateDirectoryCompareRequest(), h.Comparison.CompareDirectory)
		procurement.GET("/comparisons/:comparisonId", vm.ValidatePathParams(), h.Comparison.GetComparison)
		procurement.GET("/profiles", h.Comparison.Profiles)
	}

	return router
}
