package httptransport

import (
	"net/http"
	"time"

	gincors "github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"aliasbot/backend/internal/config"
	"aliasbot/backend/internal/middleware"
	"aliasbot/backend/internal/monitoring"
	"aliasbot/backend/internal/service"
	"aliasbot/backend/internal/storage"
)

// RouterDependencies 路由器依赖项
type RouterDependencies struct {
	Config          *config.Config
	IdentityService *service.IdentityService
	AliasService    *service.AliasService
	AdminService    *service.AdminService
	RateLimitStore  storage.RateLimitRepository // 为 nil 时使用进程内限流
	Metrics         *monitoring.Metrics
	Logger          *zap.Logger
}

// NewRouter 创建并返回 Gin 路由实例。
func NewRouter(deps RouterDependencies) *gin.Engine {
	router := gin.New()

	// 使用自定义中间件替代默认中间件
	router.Use(middleware.RecoveryHandler(deps.Logger))
	router.Use(middleware.RequestLogger(deps.Logger))
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.BodySizeLimit(middleware.DefaultBodyLimit))

	// 监控中间件
	if deps.Metrics != nil {
		mm := middleware.NewMonitoringMiddleware(deps.Metrics, deps.Logger)
		router.Use(mm.HTTPMetrics())
	}

	// CORS 配置
	corsConfig := gincors.Config{
		AllowOrigins: deps.Config.CORS.AllowedOrigins,
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Identity-ID"},
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Disposition",
			"Retry-After",
		},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}

	// 如果允许所有来源，则需清空凭证支持。
	for _, origin := range corsConfig.AllowOrigins {
		if origin == "*" {
			corsConfig.AllowCredentials = false
			break
		}
	}
	router.Use(gincors.New(corsConfig))

	// 创建处理器
	identityHandler := NewIdentityHandler(deps.IdentityService)
	aliasHandler := NewAliasHandler(deps.AliasService, deps.Metrics)
	adminHandler := NewAdminHandler(deps.AdminService)

	// 创建中间件
	botAuth := middleware.NewBotAuth(deps.Config.Bot.Token)
	adminAuth := middleware.NewAdminAuth(deps.Config.Bot)

	// IP 限流：有共享计数存储时用它，否则退回进程内令牌桶
	var ipRateLimit gin.HandlerFunc
	if deps.RateLimitStore != nil {
		ipRateLimit = middleware.RateLimitByIP(
			deps.RateLimitStore,
			deps.Logger,
			deps.Config.HTTPRateLimit.MaxRequests,
			deps.Config.HTTPRateLimit.Window,
		)
	} else {
		ipRateLimit = middleware.LocalRateLimitByIP(
			deps.Config.HTTPRateLimit.MaxRequests,
			deps.Config.HTTPRateLimit.Window,
		)
	}

	// Swagger 文档
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// 健康检查
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// V1 API：机器人令牌认证 + 身份绑定 + IP 限流
	v1 := router.Group("/v1")
	v1.Use(ipRateLimit)
	v1.Use(botAuth.RequireToken())
	v1.Use(middleware.BindIdentity())
	{
		// ========== Identity Routes ==========
		identityRoutes := v1.Group("/identity")
		{
			identityRoutes.GET("", identityHandler.getIdentity)                 // 获取身份信息
			identityRoutes.POST("/terms", identityHandler.acceptTerms)          // 接受使用条款
			identityRoutes.PUT("/base-address", identityHandler.setBaseAddress) // 设置基础地址
			identityRoutes.POST("/catch-all", identityHandler.toggleCatchAll)   // 切换 catch-all
		}

		// ========== Alias Routes ==========
		aliasRoutes := v1.Group("/aliases")
		{
			aliasRoutes.POST("", aliasHandler.generateAliases)      // 生成别名
			aliasRoutes.GET("", aliasHandler.listAliases)           // 别名列表
			aliasRoutes.GET("/export", aliasHandler.exportAliases)  // 导出 CSV
			aliasRoutes.DELETE("/:id", aliasHandler.deleteAlias)    // 删除别名
		}

		// ========== Admin Routes ==========
		adminRoutes := v1.Group("/admin")
		adminRoutes.Use(adminAuth.RequireAdmin())
		{
			adminRoutes.GET("/statistics", adminHandler.getStatistics) // 系统统计
		}
	}

	return router
}
