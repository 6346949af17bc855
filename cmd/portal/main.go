package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bfcgroup/portal-api-go/internal/config"
	"github.com/bfcgroup/portal-api-go/internal/domain"
	"github.com/bfcgroup/portal-api-go/internal/handler"
	"github.com/bfcgroup/portal-api-go/internal/infra/cache"
	"github.com/bfcgroup/portal-api-go/internal/infra/localfeed"
	"github.com/bfcgroup/portal-api-go/internal/infra/observability"
	"github.com/bfcgroup/portal-api-go/internal/infra/redisstore"
	"github.com/bfcgroup/portal-api-go/internal/infra/resilience"
	"github.com/bfcgroup/portal-api-go/internal/infra/s3store"
	"github.com/bfcgroup/portal-api-go/internal/infra/sqlitelog"
	"github.com/bfcgroup/portal-api-go/internal/infra/supabase"
	"github.com/bfcgroup/portal-api-go/internal/port"
	"github.com/bfcgroup/portal-api-go/internal/service"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	// --- Load .env file (for local development) ---
	_ = config.LoadDotEnv(".env")

	// --- Config ---
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.String("supabase_url", cfg.SupabaseURL),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Duration("cache_ttl", cfg.CacheTTL),
		zap.String("reports_backend", cfg.ReportsBackend),
		zap.String("receipts_backend", cfg.ReceiptsBackend),
		zap.Bool("use_redis_feed", cfg.UseRedisFeed),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Tracing ---
	shutdownTracer, err := observability.InitTracer(ctx, cfg.OTLPEndpoint, "portal-api", logger)
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdownTracer(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Caches ---
	identityCache := cache.New[*domain.Identity](cfg.CacheTTL)
	employeeCache := cache.New[[]domain.Employee](cfg.CacheTTL)

	// --- Resilience ---
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}
	cb := resilience.NewCircuitBreaker("supabase")

	// --- Supabase client ---
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	supabaseClient := supabase.NewClient(
		httpClient,
		cfg.SupabaseURL,
		cfg.SupabaseAnonKey,
		cfg.SupabaseServiceKey,
		cb,
		resilienceCfg,
		logger,
	)

	// --- Redis (feed and optionally durable logs) ---
	var rdb *redis.Client
	if cfg.UseRedisFeed || cfg.ReportsBackend == "redis" {
		rdb, err = redisstore.NewClient(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			logger.Fatal("failed to connect to redis", zap.Error(err))
		}
		defer rdb.Close()
	}

	// --- Durable logs: reports + travel requests ---
	var reportLog port.ReportLog
	var travelLog port.TravelLog
	if cfg.ReportsBackend == "redis" {
		redisLog := redisstore.NewReportLog(rdb, logger)
		reportLog = redisLog
		travelLog = redisLog
		logger.Info("report log backed by redis", zap.String("addr", cfg.RedisAddr))
	} else {
		sqliteLog, err := sqlitelog.Open(cfg.SQLitePath, logger)
		if err != nil {
			logger.Fatal("failed to open sqlite log", zap.Error(err))
		}
		defer sqliteLog.Close()
		reportLog = sqliteLog
		travelLog = sqliteLog
		logger.Info("report log backed by sqlite", zap.String("path", cfg.SQLitePath))
	}

	// --- Receipt storage ---
	var receipts port.ReceiptStorage
	if cfg.ReceiptsBackend == "s3" {
		receipts, err = s3store.New(ctx, cfg.S3Region, cfg.ReceiptsBucket, cfg.S3AccessKey, cfg.S3SecretKey, logger)
		if err != nil {
			logger.Fatal("failed to init s3 receipt storage", zap.Error(err))
		}
		logger.Info("receipts stored in s3", zap.String("bucket", cfg.ReceiptsBucket))
	} else {
		receipts = supabase.NewReceiptBucket(supabaseClient, cfg.ReceiptsBucket)
		logger.Info("receipts stored in supabase storage", zap.String("bucket", cfg.ReceiptsBucket))
	}

	// --- Change feed ---
	var feed port.ChangeFeed
	if cfg.UseRedisFeed {
		feed = redisstore.NewFeed(rdb, logger)
		logger.Info("lead change feed backed by redis pub/sub")
	} else {
		feed = localfeed.New()
		logger.Info("lead change feed running in-process")
	}
	defer feed.Close()

	// --- Services ---
	authSvc := service.NewAuthService(supabaseClient, supabaseClient, metrics, logger)
	identitySvc := service.NewIdentityService(supabaseClient, supabaseClient, identityCache, metrics, logger)
	salesSvc := service.NewSalesService(supabaseClient, supabaseClient, feed, metrics, logger)
	reportSvc := service.NewReportService(salesSvc, reportLog, metrics, logger)
	expenseSvc := service.NewExpenseService(supabaseClient, receipts, travelLog, metrics, logger)
	directorySvc := service.NewDirectoryService(supabaseClient, employeeCache, metrics, logger)

	// Identity follows the session event stream.
	go identitySvc.Watch(ctx, authSvc.Events())

	// Warm the sales snapshots, then follow the change feed.
	if err := salesSvc.Bootstrap(ctx); err != nil {
		logger.Warn("initial snapshot load failed, serving empty snapshots", zap.Error(err))
	}
	go func() {
		if err := salesSvc.WatchFeed(ctx); err != nil && ctx.Err() == nil {
			logger.Error("lead change feed stopped", zap.Error(err))
		}
	}()

	// --- Router ---
	router := handler.NewRouter(handler.Deps{
		Auth:      authSvc,
		Identity:  identitySvc,
		Sales:     salesSvc,
		Reports:   reportSvc,
		Expenses:  expenseSvc,
		Directory: directorySvc,
		Metrics:   metrics,
		Logger:    logger,
		JWTSecret: cfg.SupabaseJWTSecret,
	})

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()

	logger.Info("server shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
