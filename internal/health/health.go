package health

import (
	"net/http"

	"github.com/heptiolabs/healthcheck"
	"go.uber.org/zap"

	"aliasbot/backend/internal/storage"
	redisstore "aliasbot/backend/internal/storage/redis"
)

// HealthChecker 健康检查器
type HealthChecker struct {
	health healthcheck.Handler
	store  storage.Store
	redis  *redisstore.Client
	logger *zap.Logger
}

// NewHealthChecker 创建健康检查器。redis 可为 nil（未启用缓存时）。
func NewHealthChecker(store storage.Store, redis *redisstore.Client, logger *zap.Logger) *HealthChecker {
	hc := &HealthChecker{
		health: healthcheck.NewHandler(),
		store:  store,
		redis:  redis,
		logger: logger,
	}

	hc.addChecks()

	return hc
}

// addChecks 添加健康检查
func (hc *HealthChecker) addChecks() {
	// 存储层检查
	hc.health.AddReadinessCheck("storage", func() error {
		return hc.store.Health()
	})

	// Redis 连接检查（启用时）
	if hc.redis != nil {
		hc.health.AddReadinessCheck("redis", func() error {
			return hc.redis.Health()
		})
	}

	// 进程存活检查：goroutine 数量异常增长通常意味着泄漏
	hc.health.AddLivenessCheck("goroutine-threshold", healthcheck.GoroutineCountCheck(500))
}

// LiveHandler 返回存活检查处理器
func (hc *HealthChecker) LiveHandler() http.Handler {
	return http.HandlerFunc(hc.health.LiveEndpoint)
}

// ReadyHandler 返回就绪检查处理器
func (hc *HealthChecker) ReadyHandler() http.Handler {
	return http.HandlerFunc(hc.health.ReadyEndpoint)
}
