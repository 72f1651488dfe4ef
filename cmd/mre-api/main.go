// @title My Race Engineer API
// @version 1.0
// @description Driver identity resolution and event discovery for RC racing

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1
// @schemes http https

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key
// @description API key issued to the frontend and timing ingest jobs.

package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"my-race-engineer/internal/api"
	"my-race-engineer/internal/api/handlers"
	"my-race-engineer/internal/auth"
	"my-race-engineer/internal/cache"
	"my-race-engineer/internal/config"
	"my-race-engineer/internal/db"
	"my-race-engineer/internal/health"
	"my-race-engineer/internal/identity"
	"my-race-engineer/internal/logger"
	"my-race-engineer/internal/matching"
	"my-race-engineer/internal/metrics"
	"my-race-engineer/internal/repository"
	"my-race-engineer/internal/scheduler"
	"my-race-engineer/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "my-race-engineer/docs" // Import generated docs
)

func main() {
	// Load and validate configuration first (before logger)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize structured logger with configuration
	logger.Init(cfg.Logger)

	logger.Info().
		Str("environment", cfg.Logger.Environment).
		Str("log_level", cfg.Logger.Level).
		Msg("configuration loaded successfully")

	// Run migrations before connecting to database
	logger.Info().Msg("running database migrations")
	if err := db.RunMigrations(cfg.Database.URL, cfg.Database.MigrationsPath); err != nil {
		logger.Fatal().Err(err).Msg("failed to run migrations")
	}

	// Initialize database
	ctx := context.Background()
	database, err := db.NewDatabase(ctx, cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer database.Close()

	logger.Info().Msg("database connected successfully")

	// Initialize metrics
	matchingMetrics := metrics.Default()
	if _, err := db.RegisterPoolStatsCollector(database.Pool, "mre"); err != nil {
		logger.Warn().Err(err).Msg("failed to register pool stats collector")
	}

	// Initialize repositories
	profileRepo := repository.NewProfileRepository(database.Pool)
	driverRepo := repository.NewDriverRepository(database.Pool)
	eventRepo := repository.NewEventRepository(database.Pool)
	entryRepo := repository.NewEntryRepository(database.Pool)
	linkRepo := repository.NewLinkRepository(database.Pool)

	// Initialize the discovery cache (feature-flagged). A nil cache
	// disables caching in every service that takes one.
	var discoveryCache service.DiscoveryCache
	if cfg.Features.EnableDiscoveryCache {
		if cfg.Redis.URL == "" {
			logger.Info().Msg("discovery cache enabled but REDIS_URL not set; caching disabled")
		} else {
			redisCache, err := cache.NewDiscoveryCache(cfg.Redis.URL, cfg.Redis.DiscoveryTTL)
			if err != nil {
				logger.Warn().Err(err).Msg("failed to connect to Redis; discovery caching disabled")
			} else {
				defer redisCache.Close()
				discoveryCache = redisCache
				logger.Info().Dur("ttl", cfg.Redis.DiscoveryTTL).Msg("discovery cache connected")
			}
		}
	}

	// Initialize the matcher and services
	matcher := identity.NewMatcher(matching.DefaultConfig.WithOverrides(cfg.Matching.FuzzyThreshold, cfg.Matching.ExactThreshold))

	resolutionService := service.NewResolutionService(profileRepo, driverRepo, eventRepo, entryRepo, linkRepo, matcher, matchingMetrics, discoveryCache)
	discoveryService := service.NewDiscoveryService(profileRepo, linkRepo, entryRepo, matchingMetrics, discoveryCache)
	linkService := service.NewLinkService(linkRepo, profileRepo, matchingMetrics, discoveryCache)
	profileService := service.NewProfileService(profileRepo, resolutionService, discoveryCache)

	// Initialize handlers
	discoveryHandler := handlers.NewDiscoveryHandler(discoveryService)
	linkHandler := handlers.NewLinkHandler(linkService)
	profileHandler := handlers.NewProfileHandler(profileService)
	eventHandler := handlers.NewEventHandler(eventRepo, entryRepo)
	ingestHandler := handlers.NewIngestHandler(resolutionService)

	// Initialize and start the rematch scheduler (feature-flagged)
	if cfg.Features.EnableRematchSweep {
		cronScheduler := scheduler.NewScheduler(resolutionService, cfg.Scheduler.RematchSpec)
		if err := cronScheduler.Start(); err != nil {
			logger.Fatal().Err(err).Msg("failed to start scheduler")
		}
		defer cronScheduler.Stop()
	}

	// Set up Gin router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Add middleware
	router.Use(api.RequestIDMiddleware())
	router.Use(api.LoggingMiddleware())
	router.Use(api.CORSMiddleware(cfg.CORS))
	router.Use(api.ErrorHandlerMiddleware())

	// Health and metrics endpoints
	router.GET("/health", health.LivenessHandler)
	router.GET("/ready", health.ReadinessHandler(database, cfg.Database.HealthTimeout))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API routes
	v1 := router.Group("/api/v1")
	if cfg.Auth.APIKey != "" {
		v1.Use(auth.APIKeyMiddleware(cfg))
	} else {
		logger.Warn().Msg("API_KEY not set; API authentication disabled")
	}
	{
		// User-facing routes
		users := v1.Group("/users")
		{
			users.GET("/:id/events", discoveryHandler.DiscoverEvents)
			users.GET("/:id/links", linkHandler.ListLinks)
			users.POST("/:id/drivers/:driverId/confirm", linkHandler.ConfirmLink)
			users.POST("/:id/drivers/:driverId/reject", linkHandler.RejectLink)
			users.GET("/:id/profile", profileHandler.GetProfile)
			users.PUT("/:id/profile", profileHandler.UpdateProfile)
		}

		// Event routes
		events := v1.Group("/events")
		{
			events.GET("/:id", eventHandler.GetEvent)
		}

		// Internal routes for timing providers and operators
		internal := v1.Group("/internal")
		{
			internal.POST("/events/ingest", ingestHandler.IngestResults)
			internal.POST("/matching/evaluate", ingestHandler.EvaluateMatch)
		}
	}

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Start server with configured bind address
	addr := cfg.GetBindAddress()
	// Use a listener so we can discover the selected port when PORT=0
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		logger.Fatal().Err(err).Str("addr", addr).Msg("failed to bind listener")
	}

	// Discover the actual port (useful when PORT=0)
	tcpAddr, ok := ln.Addr().(*net.TCPAddr)
	if !ok {
		_ = ln.Close()
		logger.Fatal().Msg("failed to determine TCP address")
	}
	selectedPort := tcpAddr.Port

	srv := &http.Server{
		Addr:    ln.Addr().String(),
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		logger.Info().
			Int("port", selectedPort).
			Str("addr", cfg.Server.Host).
			Msg("starting server")
		logger.Info().
			Str("url", fmt.Sprintf("http://%s:%d/swagger/index.html", cfg.Server.Host, selectedPort)).
			Msg("API documentation available")
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("shutting down server")

	// Give outstanding requests a configured timeout to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server forced to shutdown")
	}

	logger.Info().Msg("server exited")

	// Print the selected port on graceful exit for supervising processes
	fmt.Printf("PORT=%d\n", selectedPort) //nolint:forbidigo // Intentional stdout output for supervisor
}
