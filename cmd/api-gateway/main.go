package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/acadsync/timetable-api/api/swagger"
	"github.com/acadsync/timetable-api/internal/handler"
	"github.com/acadsync/timetable-api/internal/middleware"
	"github.com/acadsync/timetable-api/internal/repository"
	"github.com/acadsync/timetable-api/internal/service"
	"github.com/acadsync/timetable-api/internal/solver"
	"github.com/acadsync/timetable-api/pkg/cache"
	"github.com/acadsync/timetable-api/pkg/config"
	"github.com/acadsync/timetable-api/pkg/database"
	"github.com/acadsync/timetable-api/pkg/jobs"
	"github.com/acadsync/timetable-api/pkg/logger"
	corsmiddleware "github.com/acadsync/timetable-api/pkg/middleware/cors"
	reqidmiddleware "github.com/acadsync/timetable-api/pkg/middleware/requestid"
	"github.com/acadsync/timetable-api/pkg/storage"
)

// @title AcadSync Timetable API
// @version 1.0.0
// @description REST gateway over the timetable solver: variant browsing, approval and multi-format exports
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, variant caching disabled", zap.Error(err))
		redisClient = nil
	}
	if redisClient != nil {
		defer redisClient.Close() //nolint:errcheck
	}

	exportStorage, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		logr.Fatal("failed to prepare export storage", zap.Error(err))
	}
	signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)

	solverClient := solver.New(solver.Config{
		BaseURL:       cfg.Solver.BaseURL,
		SessionCookie: cfg.Solver.SessionCookie,
		Timeout:       cfg.Solver.Timeout,
	}, logr)

	metricsService := service.NewMetricsService()
	variantCache := repository.NewVariantCacheRepository(redisClient, logr)
	exportJobs := repository.NewExportJobRepository(db)

	variantService := service.NewVariantService(solverClient, variantCache, metricsService, service.VariantConfig{
		CacheEnabled: cfg.Cache.Enabled && redisClient != nil,
		DetailTTL:    cfg.Cache.DetailTTL,
		ListingTTL:   cfg.Cache.ListingTTL,
	}, logr)
	editorService := service.NewEditorService(variantService, solverClient, logr)
	exportService := service.NewExportService(variantService, exportJobs, exportStorage, signer, metricsService, service.ExportConfig{
		APIPrefix: cfg.APIPrefix,
		ResultTTL: cfg.Exports.SignedURLTTL,
	}, logr)

	exportQueue := jobs.NewQueue("timetable-exports", exportService.Process, jobs.QueueConfig{
		Workers:    cfg.Exports.WorkerConcurrency,
		MaxRetries: cfg.Exports.WorkerRetries,
		Logger:     logr,
	})
	exportQueue.Start(ctx)
	defer exportQueue.Stop()

	if err := exportService.RecoverQueued(ctx, exportQueue); err != nil {
		logr.Warn("failed to recover queued exports", zap.Error(err))
	}
	go runExportCleanup(ctx, exportService, cfg.Exports.CleanupInterval, logr)

	variantHandler := handler.NewVariantHandler(variantService)
	editorHandler := handler.NewEditorHandler(editorService)
	exportHandler := handler.NewExportHandler(exportService, exportQueue)
	metricsHandler := handler.NewMetricsHandler(metricsService)

	tokenValidator := middleware.NewTokenValidator(cfg.JWT.Secret)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsService))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "postgres": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	v1 := r.Group(cfg.APIPrefix)
	// Signed-token downloads authenticate via the token itself.
	v1.GET("/export/:token", exportHandler.DownloadByToken)

	secured := v1.Group("")
	secured.Use(middleware.JWT(tokenValidator))
	{
		secured.GET("/scopes/:course/:year/:semester/variants", variantHandler.List)
		secured.POST("/generate", variantHandler.Generate)
		secured.GET("/variants/:id", variantHandler.Get)
		secured.POST("/variants/:id/approve", variantHandler.Approve)
		secured.GET("/variants/:id/export", exportHandler.Download)
		secured.PUT("/variants/:id/sections/:entityId/cells", editorHandler.EditSectionCell)
		secured.PUT("/variants/:id/faculty/:entityId/cells", editorHandler.EditFacultyCell)
		secured.POST("/exports", exportHandler.Enqueue)
		secured.GET("/exports/:id", exportHandler.Status)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}

func runExportCleanup(ctx context.Context, exports *service.ExportService, interval time.Duration, logr *zap.Logger) {
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := exports.Cleanup(ctx, 0)
			if err != nil {
				logr.Warn("export cleanup failed", zap.Error(err))
				continue
			}
			if len(removed) > 0 {
				logr.Info("expired exports removed", zap.Int("count", len(removed)))
			}
		}
	}
}
