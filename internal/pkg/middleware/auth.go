package middleware

import (
	"net/http"
	"strings"

	"post_market/pkg/response"
	"post_market/pkg/utils"

	"github.com/gin-gonic/gin"
)

// ContextUserID gin 上下文中保存当前用户 ID 的键
const ContextUserID = "userID"

// AuthMiddleware JWT认证中间件
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Error(c, http.StatusUnauthorized, response.ErrTokenInvalid, "Authorization header is required")
			c.Abort()
			return
		}

		// 检查格式 "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Error(c, http.StatusUnauthorized, response.ErrTokenInvalid, "Invalid authorization header format")
			c.Abort()
			return
		}

		claims, err := utils.ParseToken(parts[1])
		if err != nil || claims.UserID == "" {
			response.Error(c, http.StatusUnauthorized, response.ErrTokenInvalid, "Invalid or expired token")
			c.Abort()
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set("username", claims.Username)
		c.Next()
	}
}

// GetUserID 从上下文获取当前用户 ID，未登录返回空串
func GetUserID(c *gin.Context) string {
	val, _ := c.Get(ContextUserID)
	if str, ok := val.(string); ok {
		return str
	}
	return ""
}
