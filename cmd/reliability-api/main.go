package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/tutorpulse/reliability-api/api/swagger"
	"github.com/tutorpulse/reliability-api/internal/handler"
	"github.com/tutorpulse/reliability-api/internal/middleware"
	"github.com/tutorpulse/reliability-api/internal/repository"
	"github.com/tutorpulse/reliability-api/internal/service"
	"github.com/tutorpulse/reliability-api/pkg/cache"
	"github.com/tutorpulse/reliability-api/pkg/config"
	"github.com/tutorpulse/reliability-api/pkg/database"
	"github.com/tutorpulse/reliability-api/pkg/jobs"
	"github.com/tutorpulse/reliability-api/pkg/logger"
	apikeymiddleware "github.com/tutorpulse/reliability-api/pkg/middleware/apikey"
	corsmiddleware "github.com/tutorpulse/reliability-api/pkg/middleware/cors"
	reqidmiddleware "github.com/tutorpulse/reliability-api/pkg/middleware/requestid"
)

// @title TutorPulse Reliability API
// @version 0.1.0
// @description Tutor reliability scoring over rolling reschedule-rate windows
// @BasePath /
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	// Redis is a read-side accelerator only; scoring must keep working
	// without it, so a failed connection is a warning, not a fatal.
	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, serving without score cache", "error", err)
		redisClient = nil
	} else {
		defer redisClient.Close()
	}

	metricsSvc := service.NewMetricsService()

	tutorRepo := repository.NewTutorRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	scoreRepo := repository.NewScoreRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	classifier := service.NewRiskClassifier(cfg.Scoring.HighRiskThreshold, cfg.Scoring.MediumRiskThreshold)
	scorer := service.NewScorerService(sessionRepo, tutorRepo, classifier, metricsSvc, cfg.Scoring.CountNoShows, logr)
	scoreCache := service.NewScoreCacheService(cacheRepo, metricsSvc, cfg.Scoring.CacheTTL, logr)
	coordinator := service.NewCoordinator(scorer, scoreRepo, scoreCache, metricsSvc, cfg.Scoring.RecalcTimeout, logr)

	ingestSvc := service.NewIngestService(sessionRepo, tutorRepo, coordinator, metricsSvc, logr)
	queue := jobs.NewQueue("session-ingest", ingestSvc.ProcessSession, jobs.QueueConfig{
		Workers:    cfg.Ingest.Workers,
		BufferSize: cfg.Ingest.BufferSize,
		MaxRetries: cfg.Ingest.MaxRetries,
		RetryDelay: cfg.Ingest.RetryDelay,
		Logger:     logr,
		OnExhausted: func(job jobs.Job, err error) {
			metricsSvc.RecordJobFailure()
		},
	})
	ingestSvc.AttachQueue(queue)

	tutorSvc := service.NewTutorService(tutorRepo, sessionRepo, coordinator, metricsSvc, logr)
	exportSvc := service.NewExportService(tutorRepo, logr)

	sessionHandler := handler.NewSessionHandler(ingestSvc)
	tutorHandler := handler.NewTutorHandler(tutorSvc)
	exportHandler := handler.NewExportHandler(exportSvc)
	opsHandler := handler.NewOpsHandler(queue)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", metricsHandler.Scrape)

	api := r.Group(cfg.APIPrefix)
	{
		api.POST("/sessions", apikeymiddleware.Middleware(cfg.Auth.APIKey), sessionHandler.Ingest)

		api.GET("/tutors", tutorHandler.List)
		api.GET("/tutors/:id", tutorHandler.Detail)
		api.GET("/tutors/:id/score", tutorHandler.Score)
		api.GET("/tutors/:id/history", tutorHandler.History)

		if cfg.Exports.Enabled {
			api.GET("/reports/risk-roster", exportHandler.RiskRoster)
		}

		api.GET("/ops/failed-jobs", apikeymiddleware.Middleware(cfg.Auth.APIKey), opsHandler.FailedJobs)
	}

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The queue gets its own lifetime: workers must outlive the signal
	// context so accepted jobs finish during shutdown.
	queue.Start(context.Background())

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("server shutdown", "error", err)
	}

	queue.Stop()
	logr.Sugar().Infow("server stopped")
}
