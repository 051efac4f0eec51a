package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/vutto/pricing-service/config"
	_ "github.com/vutto/pricing-service/docs"
	"github.com/vutto/pricing-service/internal/app"
	"github.com/vutto/pricing-service/internal/handlers"
	"github.com/vutto/pricing-service/internal/middleware"
	"github.com/vutto/pricing-service/internal/revision"
	"github.com/vutto/pricing-service/internal/telemetry"
)

// @title Pricing Service API
// @version 1.0
// @description Internal API for used vehicle pricing, margin configuration, inventory warnings and price revisions.
// @BasePath /
// @securityDefinitions.apikey InternalKey
// @in header
// @name X-Internal-API-Key
func main() {
	cfg, err := config.Load("")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger := initLogger(cfg.Logging)

	logger.Info().Msg("Starting pricing service")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTelemetry, err := telemetry.Init(ctx, telemetry.FromConfig(cfg.Telemetry))
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize telemetry")
	}

	a, err := app.New(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize service")
	}
	defer a.Close()

	logger.Info().Msg("Database connected")

	var sweeper *revision.Sweeper
	if cfg.Revision.EnableSweeper {
		sweeper = revision.NewSweeper(a.Scanner, cfg.Revision.SweepInterval)
		go sweeper.Start(ctx)
	}

	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	limit := middleware.RateLimiterConfig{
		RequestsPerSecond: float64(cfg.RateLimit.RequestsPerSecond),
		BurstSize:         cfg.RateLimit.Burst,
	}
	clientLimiter := middleware.NewIPRateLimiter(limit)
	clientLimiter.StartCleanup(ctx, time.Minute, 10*time.Minute)

	health := map[string]handlers.Check{
		"database": a.Pool.Ping,
		"redis":    nil,
	}
	if a.Redis != nil {
		health["redis"] = func(ctx context.Context) error { return a.Redis.Ping(ctx).Err() }
	}

	router := handlers.NewRouter(handlers.RouterConfig{
		Logger:         *logger,
		InternalAPIKey: cfg.Server.InternalAPIKey,
		ClientLimiter:  clientLimiter,
		ServiceLimit:   middleware.DefaultRateLimiterConfig(),
		Health:         health,
		Engine:         handlers.NewEngineHandler(a.Catalog, a.Margins, a.Engine, a.Checker),
		Revision:       handlers.NewRevisionHandler(a.Revisions, a.Scanner),
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info().Str("addr", addr).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down server...")
	if sweeper != nil {
		sweeper.Stop()
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}
	if err := shutdownTelemetry(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Failed to flush telemetry")
	}

	logger.Info().Msg("Server exited")
}

func initLogger(cfg config.LoggingConfig) *zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var output io.Writer
	if cfg.Format == "json" {
		output = os.Stdout
	} else {
		output = zerolog.ConsoleWriter{Out: os.Stdout, NoColor: cfg.NoColor}
	}

	logger := zerolog.New(output).Level(level).With().Timestamp().Str("service", "pricing-service").Logger()
	log.Logger = logger
	zerolog.SetGlobalLevel(level)
	return &logger
}
