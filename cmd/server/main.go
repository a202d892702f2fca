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
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/kosarica/catalog-service/config"
	"github.com/kosarica/catalog-service/internal/attributes"
	"github.com/kosarica/catalog-service/internal/database"
	"github.com/kosarica/catalog-service/internal/handlers"
	"github.com/kosarica/catalog-service/internal/importer"
	"github.com/kosarica/catalog-service/internal/media"
	"github.com/kosarica/catalog-service/internal/middleware"
	"github.com/kosarica/catalog-service/internal/storage"
	"github.com/kosarica/catalog-service/internal/telemetry"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger := initLogger(cfg.Logging)

	logger.Info().Msg("Starting catalog service")

	dbURL := config.GetDatabaseURL()
	if dbURL == "" {
		logger.Fatal().Msg("DATABASE_URL not set")
	}

	ctx := context.Background()
	if err := database.Connect(
		ctx,
		dbURL,
		cfg.Database.MaxConnections,
		cfg.Database.MinConnections,
		cfg.Database.MaxConnLifetime,
		cfg.Database.MaxConnIdleTime,
	); err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer database.Close()

	logger.Info().Msg("Database connected")

	telemetryCleanup := telemetry.MustInit(ctx, telemetry.GetConfigFromEnv())
	defer func() {
		if err := telemetryCleanup(context.Background()); err != nil {
			logger.Error().Err(err).Msg("Failed to shut down telemetry")
		}
	}()

	pipelineMetrics, err := telemetry.NewPipelineMetrics()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to register pipeline metrics")
	}

	registry := attributes.NewRegistry()
	if err := registry.Load(ctx, database.Pool()); err != nil {
		logger.Fatal().Err(err).Msg("Failed to load attribute configuration")
	}

	store, err := storage.NewLocalStorage(cfg.Storage.BasePath)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize storage")
	}

	handlers.Setup(
		registry,
		media.NewBaseURLResolver(cfg.Media.BaseURL),
		store,
		pipelineMetrics,
		*logger,
		cfg.Import,
	)

	if err := handleInterruptedRuns(ctx, logger); err != nil {
		logger.Warn().Err(err).Msg("Failed to handle interrupted runs")
	}

	if cfg.Logging.Level == "info" || cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	setupMiddleware(router, logger)

	router.GET("/health", handlers.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	internal := router.Group("/internal")
	internal.Use(middleware.InternalAuthMiddleware())
	internal.Use(middleware.ServiceRateLimitMiddleware(
		float64(cfg.RateLimit.RequestsPerSecond), cfg.RateLimit.Burst))
	{
		internal.GET("/health", handlers.HealthCheck)
		internal.GET("/sections", handlers.ListSections)

		export := internal.Group("/export")
		{
			export.POST("", handlers.ExportProducts)
			export.GET("/files/*key", handlers.DownloadExport)
		}

		imports := internal.Group("/import")
		{
			imports.POST("", handlers.ImportProducts)
			imports.GET("/runs", handlers.ListImportRuns)
			imports.GET("/runs/:runId", handlers.GetImportRun)
		}

		attrs := internal.Group("/attributes")
		{
			attrs.GET("", handlers.ListAttributes)
			attrs.POST("/refresh", handlers.RefreshAttributes)
		}
	}

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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}

	logger.Info().Msg("Server exited")
}

// handleInterruptedRuns marks import runs that were still running when the
// service last stopped as failed. Their transactions rolled back with the
// process, so nothing of them persisted.
func handleInterruptedRuns(ctx context.Context, logger *zerolog.Logger) error {
	pool := database.Pool()

	tag, err := pool.Exec(ctx, `
		UPDATE import_runs
		SET status = $1,
		    completed_at = NOW(),
		    messages = ARRAY['service restarted during processing']
		WHERE status = $2
	`, importer.RunStatusFailed, importer.RunStatusRunning)
	if err != nil {
		return fmt.Errorf("failed to mark interrupted runs: %w", err)
	}

	if tag.RowsAffected() > 0 {
		logger.Info().Int64("count", tag.RowsAffected()).Msg("Marked interrupted import runs as failed")
	}
	return nil
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

	logger := zerolog.New(output).Level(level).With().Timestamp().Str("service", "catalog-service").Logger()
	return &logger
}

func setupMiddleware(router *gin.Engine, logger *zerolog.Logger) {
	router.Use(func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		end := time.Now()
		latency := end.Sub(start)

		logger.Info().
			Str("method", c.Request.Method).
			Str("path", path).
			Str("query", query).
			Int("status", c.Writer.Status()).
			Dur("latency", latency).
			Str("ip", c.ClientIP()).
			Msg("HTTP request")
	})
}
