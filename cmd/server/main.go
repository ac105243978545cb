package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"aliasbot/backend/internal/config"
	"aliasbot/backend/internal/domain"
	"aliasbot/backend/internal/generator"
	"aliasbot/backend/internal/health"
	"aliasbot/backend/internal/logger"
	"aliasbot/backend/internal/monitoring"
	"aliasbot/backend/internal/service"
	"aliasbot/backend/internal/storage"
	"aliasbot/backend/internal/storage/memory"
	"aliasbot/backend/internal/storage/postgres"
	redisstore "aliasbot/backend/internal/storage/redis"
	sqlstore "aliasbot/backend/internal/storage/sql"
	httptransport "aliasbot/backend/internal/transport/http"
)

// pgxQuotaStore 在通用 SQL 存储之上叠加 pgx 的单语句配额路径。
// PostgreSQL 下配额争用最激烈，单条 upsert 比事务加行锁少一次往返。
type pgxQuotaStore struct {
	storage.Store
	pgx *postgres.Client
}

func (s *pgxQuotaStore) ConsumeQuota(identityID int64, window string, duration time.Duration, max int) (bool, error) {
	return s.pgx.ConsumeQuota(identityID, window, duration, max)
}

func (s *pgxQuotaStore) GetQuotaWindow(identityID int64, window string) (*domain.QuotaWindow, error) {
	return s.pgx.GetQuotaWindow(identityID, window)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	// 设置 Gin 模式（基于开发环境标志）
	if !cfg.Log.Development {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	// 初始化日志系统
	log, err := logger.NewLogger(logger.Config{
		Level:       cfg.Log.Level,
		Development: cfg.Log.Development,
		LogFile:     cfg.Log.File,
		MaxSize:     100,
		MaxBackups:  3,
		MaxAge:      28,
		Compress:    true,
	})
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	log.Info("starting alias server",
		zap.String("log_level", cfg.Log.Level),
		zap.Bool("development", cfg.Log.Development),
	)

	// 初始化存储层
	var store storage.Store
	var pgxClient *postgres.Client

	if cfg.Database.Type != "" && cfg.Database.DSN != "" {
		sqlStore, err := sqlstore.NewStore(
			cfg.Database.Type,
			cfg.Database.DSN,
			cfg.Database.MaxOpenConns,
			cfg.Database.MaxIdleConns,
			cfg.Database.ConnMaxLifetime,
		)
		if err != nil {
			panic(fmt.Sprintf("failed to initialize database storage: %v", err))
		}
		store = sqlStore

		// PostgreSQL 下为配额路径接入 pgx 连接池
		if cfg.Database.Type == "postgres" {
			pgxClient, err = postgres.New(&cfg.Database, log)
			if err != nil {
				panic(fmt.Sprintf("failed to initialize pgx pool: %v", err))
			}
			store = &pgxQuotaStore{Store: sqlStore, pgx: pgxClient}
			log.Info("using pgx fast path for quota windows")
		}
		log.Info("using database storage", zap.String("type", cfg.Database.Type))
	} else {
		store = memory.NewStore()
		log.Info("using memory storage (development mode)")
	}

	// 初始化 Redis（可选：IP 限流计数与身份缓存）
	var redisClient *redisstore.Client
	var rateLimitStore storage.RateLimitRepository
	if cfg.Redis.Enabled {
		redisClient, err = redisstore.New(&cfg.Redis, log)
		if err != nil {
			panic(fmt.Sprintf("failed to connect to Redis: %v", err))
		}
		rateLimitStore = redisstore.NewCache(redisClient)
	}

	// 初始化监控系统
	metrics := monitoring.NewMetrics()

	// 初始化健康检查
	healthChecker := health.NewHealthChecker(store, redisClient, log)

	// 初始化服务层
	quotaTracker := service.NewQuotaTracker(store, cfg.Quota)
	quotaTracker.SetDenialRecorder(metrics)
	identityService := service.NewIdentityService(store)
	if redisClient != nil {
		identityService.SetCache(redisstore.NewCache(redisClient))
	}
	aliasService := service.NewAliasService(
		store,
		store,
		generator.New(generator.NewCryptoTokenSource()),
		quotaTracker,
		cfg.Alias,
		log,
	)
	adminService := service.NewAdminService(store)

	// 创建 HTTP 服务器
	httpAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	router := httptransport.NewRouter(httptransport.RouterDependencies{
		Config:          cfg,
		IdentityService: identityService,
		AliasService:    aliasService,
		AdminService:    adminService,
		RateLimitStore:  rateLimitStore,
		Metrics:         metrics,
		Logger:          log,
	})

	// 健康检查处理器（用于 Kubernetes 等）
	router.GET("/health/live", gin.WrapH(healthChecker.LiveHandler()))
	router.GET("/health/ready", gin.WrapH(healthChecker.ReadyHandler()))

	// Prometheus 指标端点
	router.GET("/metrics", gin.WrapH(metrics.HTTPHandler()))

	httpServer := &http.Server{
		Addr:              httpAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// 信号处理
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(ctx)

	// HTTP 服务器 goroutine
	group.Go(func() error {
		log.Info("starting HTTP server", zap.String("address", httpAddr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error", zap.Error(err))
			return err
		}
		return nil
	})

	// 优雅关闭 goroutine
	group.Go(func() error {
		<-groupCtx.Done()

		log.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error("HTTP server shutdown error", zap.Error(err))
			return err
		}
		return nil
	})

	if err := group.Wait(); err != nil {
		log.Error("server exited with error", zap.Error(err))
	}

	// 释放外部资源
	if err := store.Close(); err != nil {
		log.Error("failed to close storage", zap.Error(err))
	}
	if pgxClient != nil {
		if err := pgxClient.Close(); err != nil {
			log.Error("failed to close pgx pool", zap.Error(err))
		}
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			log.Error("failed to close Redis client", zap.Error(err))
		}
	}

	log.Info("server stopped")
	_ = log.Sync()
}
