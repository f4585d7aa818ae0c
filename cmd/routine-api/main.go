package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/routine-planner-api/api/swagger"
	"github.com/noah-isme/routine-planner-api/internal/handler"
	internalmiddleware "github.com/noah-isme/routine-planner-api/internal/middleware"
	"github.com/noah-isme/routine-planner-api/internal/repository"
	"github.com/noah-isme/routine-planner-api/internal/service"
	"github.com/noah-isme/routine-planner-api/pkg/cache"
	"github.com/noah-isme/routine-planner-api/pkg/config"
	"github.com/noah-isme/routine-planner-api/pkg/database"
	"github.com/noah-isme/routine-planner-api/pkg/export"
	"github.com/noah-isme/routine-planner-api/pkg/jobs"
	"github.com/noah-isme/routine-planner-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/routine-planner-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/routine-planner-api/pkg/middleware/requestid"
)

// @title Routine Planner API
// @version 1.0.0
// @description Builds clash-free weekly class routines from a university section catalog.
// @BasePath /api/v1
// @schemes http

const (
	cachePrefix     = "routine-planner"
	shutdownTimeout = 10 * time.Second
	refreshRetry    = 10 * time.Second
)

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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics := service.NewMetricsService()
	validate := validator.New()

	var cacheSvc *service.CacheService
	if cfg.Routines.CacheEnabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, routine cache disabled", zap.Error(err))
		} else {
			cacheRepo := repository.NewCacheRepository(client, cachePrefix, logr)
			defer cacheRepo.Close() //nolint:errcheck
			cacheSvc = service.NewCacheService(cacheRepo, metrics, cfg.Routines.CacheTTL, logr, true)
		}
	}

	var db *sqlx.DB
	if cfg.Routines.PersistenceEnabled {
		db, err = database.NewPostgres(ctx, cfg.Database)
		if err != nil {
			logr.Fatal("failed to connect to postgres", zap.Error(err))
		}
		defer db.Close() //nolint:errcheck
		if err := database.EnsureSchema(ctx, db); err != nil {
			logr.Fatal("failed to prepare schema", zap.Error(err))
		}
	}

	feed := repository.NewCatalogFeedRepository(cfg.Catalog.FeedURL, cfg.Catalog.FetchTimeout, logr)
	catalogSvc := service.NewCatalogService(feed, cacheSvc, metrics, logr)

	refreshQueue := jobs.NewQueue("catalog-refresh", catalogSvc.HandleRefreshJob, jobs.QueueConfig{
		Workers:    1,
		BufferSize: 4,
		MaxRetries: cfg.Catalog.WorkerRetries,
		RetryDelay: refreshRetry,
		Coalesce:   true,
		Logger:     logr,
	})
	refreshQueue.Start(ctx)
	defer refreshQueue.Stop()
	catalogSvc.SetRefreshQueue(refreshQueue)
	go scheduleRefresh(ctx, catalogSvc, cfg.Catalog.RefreshInterval, logr)

	routineSvc := newRoutineService(db, catalogSvc, cacheSvc, metrics, validate, logr, cfg.Routines)
	exportSvc := service.NewRoutineExportService(routineSvc, nil, nil, newICSExporter(cfg.Routines, logr), logr)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metrics))
	r.Use(internalmiddleware.WithResponseMeta())

	metricsHandler := handler.NewMetricsHandler(metrics, catalogSvc)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	catalogHandler := handler.NewCatalogHandler(catalogSvc)
	catalogGroup := api.Group("/catalog")
	catalogGroup.GET("", catalogHandler.Status)
	catalogGroup.GET("/courses", catalogHandler.Courses)
	catalogGroup.GET("/courses/:code", catalogHandler.Course)
	catalogGroup.GET("/suggestions", catalogHandler.Suggestions)
	catalogGroup.POST("/parse", catalogHandler.Parse)
	catalogGroup.POST("/refresh", catalogHandler.Refresh)

	limiter := internalmiddleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	routineHandler := handler.NewRoutineHandler(routineSvc, exportSvc)
	routineGroup := api.Group("/routines")
	routineGroup.POST("/generate", limiter.Middleware(), routineHandler.Generate)
	routineGroup.GET("/proposals/:id", routineHandler.Proposal)
	routineGroup.POST("", routineHandler.Confirm)
	routineGroup.GET("", routineHandler.List)
	routineGroup.GET("/:id", routineHandler.Get)
	routineGroup.DELETE("/:id", routineHandler.Delete)
	routineGroup.GET("/:id/export", routineHandler.Export)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}

func newRoutineService(
	db *sqlx.DB,
	catalog *service.CatalogService,
	cacheSvc *service.CacheService,
	metrics *service.MetricsService,
	validate *validator.Validate,
	logr *zap.Logger,
	cfg config.RoutineConfig,
) *service.RoutineService {
	routineCfg := service.RoutineServiceConfig{
		ProposalTTL:     cfg.ProposalTTL,
		ProposalLimit:   cfg.ProposalLimit,
		CacheTTL:        cfg.CacheTTL,
		SuggestionLimit: cfg.SuggestionLimit,
		MaxVisits:       cfg.MaxVisits,
	}
	if db == nil {
		return service.NewRoutineService(catalog, nil, cacheSvc, metrics, validate, logr, routineCfg)
	}
	return service.NewRoutineService(catalog, repository.NewRoutineRepository(db), cacheSvc, metrics, validate, logr, routineCfg)
}

func newICSExporter(cfg config.RoutineConfig, logr *zap.Logger) *export.ICSExporter {
	ics, err := export.NewICSExporter(cfg.Timezone, cfg.TermStart, cfg.TermWeeks)
	if err != nil {
		logr.Warn("unknown routine timezone, exporting calendars in UTC", zap.String("timezone", cfg.Timezone), zap.Error(err))
		ics, _ = export.NewICSExporter("", cfg.TermStart, cfg.TermWeeks)
	}
	return ics
}

// scheduleRefresh loads the catalog at startup and then on every interval tick.
func scheduleRefresh(ctx context.Context, catalog *service.CatalogService, interval time.Duration, logr *zap.Logger) {
	request := func() {
		if jobID, err := catalog.RequestRefresh(ctx); err != nil {
			logr.Warn("catalog refresh not queued", zap.Error(err))
		} else {
			logr.Debug("catalog refresh queued", zap.String("job_id", jobID))
		}
	}
	request()
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			request()
		}
	}
}
