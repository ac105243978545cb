package middleware

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"aliasbot/backend/internal/storage"
)

// RateLimitByIP 按客户端 IP 的固定窗口限流中间件。
// 计数存放在 RateLimitRepository（Redis 或内存存储），多实例部署时共享计数。
func RateLimitByIP(store storage.RateLimitRepository, log *zap.Logger, maxRequests int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := fmt.Sprintf("ratelimit:ip:%s", c.ClientIP())

		count, err := store.IncrementRateLimit(key, window)
		if err != nil {
			// 计数失败时放行：限流是保护层，不应成为单点故障
			log.Warn("rate limit counter unavailable", zap.Error(err))
			c.Next()
			return
		}

		if count > int64(maxRequests) {
			log.Warn("rate limit exceeded",
				zap.String("ip", c.ClientIP()),
				zap.Int64("count", count),
				zap.Int("limit", maxRequests),
			)
			c.Header("Retry-After", fmt.Sprintf("%d", int(window.Seconds())))
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			c.Abort()
			return
		}

		c.Next()
	}
}

// localLimiter 单进程令牌桶限流器集合，按 IP 惰性创建。
type localLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

// LocalRateLimitByIP 无共享存储时的进程内限流中间件。
// 使用令牌桶近似固定窗口：速率为 maxRequests/window，突发容量为 maxRequests。
func LocalRateLimitByIP(maxRequests int, window time.Duration) gin.HandlerFunc {
	l := &localLimiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Limit(float64(maxRequests) / window.Seconds()),
		burst:    maxRequests,
	}

	return func(c *gin.Context) {
		if !l.allow(c.ClientIP()) {
			c.Header("Retry-After", fmt.Sprintf("%d", int(window.Seconds())))
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			c.Abort()
			return
		}
		c.Next()
	}
}

func (l *localLimiter) allow(ip string) bool {
	l.mu.Lock()
	limiter, ok := l.limiters[ip]
	if !ok {
		limiter = rate.NewLimiter(l.limit, l.burst)
		l.limiters[ip] = limiter
	}
	l.mu.Unlock()
	return limiter.Allow()
}
