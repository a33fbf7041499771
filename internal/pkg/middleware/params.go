package middleware

import (
	"net/http"

	"post_market/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// UUIDParams 校验路径参数为合法 UUID，路由中不存在的参数跳过
func UUIDParams(names ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, name := range names {
			v := c.Param(name)
			if v == "" {
				continue
			}
			if _, err := uuid.Parse(v); err != nil {
				response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, name+" must be a valid UUID")
				c.Abort()
				return
			}
		}
		c.Next()
	}
}
