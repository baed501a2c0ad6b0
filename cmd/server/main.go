package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"finhealth/internal/cache"
	"finhealth/internal/catalog"
	"finhealth/internal/config"
	"finhealth/internal/observability"
	"finhealth/internal/repository"
	"finhealth/internal/service"
	"finhealth/internal/transport/rest"
	"finhealth/internal/transport/ws"
)

// @title Financial Health Survey API
// @version 1.0
// @description Adaptive financial health questionnaire assembly and scoring
// @host localhost:8080
// @BasePath /v1
func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		observability.NewLogger(observability.LogConfig{}).Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(observability.LogConfig{Level: cfg.LogLevel, Format: cfg.LogFormat})
	fatal := func(msg string, err error) {
		logger.Error(msg, "error", err)
		os.Exit(1)
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.MustNewMetrics(registry)

	// MongoDB connection
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		fatal("failed to connect to MongoDB", err)
	}
	defer mongoClient.Disconnect(context.Background())

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := mongoClient.Ping(pingCtx, nil); err != nil {
		fatal("failed to ping MongoDB", err)
	}
	logger.Info("connected to MongoDB", "database", cfg.MongoDB)

	db := mongoClient.Database(cfg.MongoDB)

	// Redis connection
	rdb := redis.NewClient(&redis.Options{
		Addr: cfg.RedisURI,
	})
	defer rdb.Close()

	if _, err := rdb.Ping(ctx).Result(); err != nil {
		fatal("failed to ping Redis", err)
	}
	logger.Info("connected to Redis", "addr", cfg.RedisURI)

	// Initialize repositories
	catalogRepo := repository.NewCatalogRepo(db)
	responseRepo := repository.NewResponseRepo(db)
	scoreRepo := repository.NewScoreRepo(db)

	indexCtx, indexCancel := context.WithTimeout(ctx, 10*time.Second)
	defer indexCancel()
	if err := catalogRepo.EnsureIndexes(indexCtx); err != nil {
		fatal("failed to create catalog indexes", err)
	}
	if err := scoreRepo.EnsureIndexes(indexCtx); err != nil {
		fatal("failed to create score indexes", err)
	}

	// Initialize caches
	sessionCache := cache.NewSessionCache(rdb)
	notifier := cache.NewCatalogNotifier(rdb)

	// Catalog snapshot store
	var source catalog.Source = catalog.NewRepoSource(catalogRepo)
	if cfg.FileCatalog() {
		source = catalog.NewFileSource(cfg.CatalogFile)
	}
	store := catalog.NewStore(source, logger, metrics)
	if _, err := store.Reload(ctx); err != nil {
		fatal("failed to load catalog", err)
	}

	if cfg.FileCatalog() && cfg.CatalogWatch {
		watcher, err := catalog.NewWatcher(cfg.CatalogFile, store, catalog.WithWatchLogger(logger))
		if err != nil {
			fatal("failed to create catalog watcher", err)
		}
		if err := watcher.Start(ctx); err != nil {
			fatal("failed to watch catalog file", err)
		}
		defer watcher.Stop()
	}

	// Initialize WebSocket hub
	wsHub := ws.NewHub(logger)

	// Initialize services
	authSvc := service.NewAuthService(cfg)
	surveySvc, err := service.NewSurveyService(store, sessionCache, responseRepo, scoreRepo, authSvc, service.SurveyOptions{
		SessionTTL: cfg.SessionTTL,
		CacheSize:  cfg.QuestionCacheSize,
		Logger:     logger,
		Metrics:    metrics,
	})
	if err != nil {
		fatal("failed to create survey service", err)
	}
	adminSvc := service.NewAdminService(catalogRepo, store, notifier, cfg.FileCatalog(), logger)

	// Inject broadcaster (wsHub implements service.Broadcaster)
	surveySvc.SetBroadcaster(wsHub)
	adminSvc.SetBroadcaster(wsHub)

	go func() {
		if err := adminSvc.WatchPeers(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("catalog change subscription ended", "error", err)
		}
	}()

	router := rest.NewRouter(&rest.Container{
		AuthService:    authSvc,
		SurveyService:  surveySvc,
		AdminService:   adminSvc,
		WSHub:          wsHub,
		Logger:         logger,
		Gatherer:       registry,
		AllowedOrigins: cfg.AllowedOrigins(),
	})

	// Start server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info("server starting",
			"port", cfg.Port,
			"catalog_source", source.Name(),
			"catalog_version", store.Snapshot().Version(),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fatal("ListenAndServe", err)
		}
	}()

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")
	stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	logger.Info("server exited")
}
