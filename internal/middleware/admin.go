package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"aliasbot/backend/internal/config"
)

// AdminAuth 管理权限中间件
type AdminAuth struct {
	cfg config.BotConfig
}

// NewAdminAuth 创建管理权限中间件
func NewAdminAuth(cfg config.BotConfig) *AdminAuth {
	return &AdminAuth{cfg: cfg}
}

// RequireAdmin 要求调用方身份在管理白名单中。
// 身份必须先由 BindIdentity 写入上下文。
func (a *AdminAuth) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		identityID, ok := IdentityID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}

		if !a.cfg.IsAdmin(identityID) {
			c.JSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			c.Abort()
			return
		}

		c.Next()
	}
}
