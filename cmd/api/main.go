package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "productmap/docs" // Import swagger docs
	"productmap/internal/app"
	"productmap/internal/config"
	"productmap/internal/db"
	"productmap/internal/http/handlers"
	"productmap/internal/http/middleware"
	"productmap/internal/telemetry"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	echoSwagger "github.com/swaggo/echo-swagger"
)

// @title ProductMap API
// @version 1.0
// @description Supplier price list import and product matching
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.url http://www.swagger.io/support
// @contact.email support@swagger.io

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey TenantHeader
// @in header
// @name X-Tenant-ID
// @description Tenant UUID every request is scoped to.

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Info().Msg("No .env file found, using environment variables")
	}

	// Setup logger
	zerolog.TimeFieldFormat = time.RFC3339
	if os.Getenv("ENV") == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	// Initialize telemetry (optional service)
	shutdown, enabled, err := telemetry.InitTelemetry(cfg)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize telemetry, continuing without it")
		shutdown = func() {}
	} else if enabled {
		log.Info().Msg("Telemetry initialized successfully")
	} else {
		log.Info().Msg("Telemetry disabled")
	}
	defer shutdown()

	// Initialize database
	database, err := db.NewDatabase()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}

	// Run migrations
	if err := db.RunMigrations(database); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	// Initialize services
	services, err := app.NewServices(cfg, database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize services")
	}

	// Setup Echo
	e := echo.New()
	e.HideBanner = true
	e.Validator = handlers.NewValidator()

	// Middleware
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(middleware.RequestID())
	e.Use(middleware.Telemetry())

	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"status":         "ok",
			"remote_imports": cfg.RemoteEnabled(),
			"ws_clients":     services.Hub.GetConnectedClients(),
		})
	})
	e.GET("/metrics", echo.WrapHandler(services.Metrics.Handler()))

	// Swagger - only enabled in development environment
	if cfg.IsDevelopment() {
		e.GET("/docs/*", echoSwagger.WrapHandler)
		e.GET("/swagger/*", echoSwagger.WrapHandler)
	}

	// Setup routes
	api := e.Group("/api/v1")
	handlers.SetupRoutes(api, services)

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Str("port", cfg.Port).Msg("Server started")

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// Jobs still being tracked keep their history row In Progress
	if services.ImportJobService != nil {
		if err := services.ImportJobService.Shutdown(ctx); err != nil {
			log.Warn().Err(err).Msg("Import trackers did not stop in time")
		}
	}
	services.Hub.Close()

	log.Info().Msg("Server exited")
}
