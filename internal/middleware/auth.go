package middleware

import (
	"crypto/subtle"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// BotAuth 机器人令牌认证中间件。
// 适配层（聊天机器人进程）以 Bearer 令牌方式调用本服务。
type BotAuth struct {
	token string
}

// NewBotAuth 创建机器人令牌认证中间件
func NewBotAuth(token string) *BotAuth {
	return &BotAuth{token: token}
}

// RequireToken 校验 Authorization: Bearer <token> 头。
// 比较使用常数时间，避免通过响应时间泄露令牌内容。
func (a *BotAuth) RequireToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			c.Abort()
			return
		}

		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header"})
			c.Abort()
			return
		}

		if subtle.ConstantTimeCompare([]byte(token), []byte(a.token)) != 1 {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}

		c.Next()
	}
}

// BindIdentity 从 X-Identity-ID 头解析调用方身份并存入上下文。
// 身份由适配层传递，代表聊天平台上的终端用户。
func BindIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("X-Identity-ID")
		if header == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing X-Identity-ID header"})
			c.Abort()
			return
		}

		identityID, err := strconv.ParseInt(header, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid X-Identity-ID header"})
			c.Abort()
			return
		}

		c.Set("identityID", identityID)
		c.Next()
	}
}

// IdentityID 从上下文读取已绑定的身份 ID。
func IdentityID(c *gin.Context) (int64, bool) {
	val, exists := c.Get("identityID")
	if !exists {
		return 0, false
	}
	id, ok := val.(int64)
	return id, ok
}
