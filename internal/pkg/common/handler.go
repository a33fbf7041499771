package handler

import (
	"context"
	"net/http"
	"time"

	"post_market/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Pinger 可探活的依赖，*sql.DB 与 redis 适配器都满足
type Pinger interface {
	PingContext(ctx context.Context) error
}

// PingerFunc 将普通函数适配为 Pinger
type PingerFunc func(ctx context.Context) error

func (f PingerFunc) PingContext(ctx context.Context) error { return f(ctx) }

// HealthStatus 健康检查结果
type HealthStatus struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

const healthTimeout = 2 * time.Second

// Health 依次探测各依赖，任一失败返回 503
// @Summary 健康检查
// @Tags Common
// @Produce json
// @Success 200 {object} HealthStatus
// @Failure 503 {object} HealthStatus
// @Router /health [get]
func Health(deps map[string]Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
		defer cancel()

		result := HealthStatus{Status: "ok", Checks: make(map[string]string, len(deps))}
		for name, dep := range deps {
			if err := dep.PingContext(ctx); err != nil {
				logger.Log.Warn("health check failed", zap.String("dependency", name), zap.Error(err))
				result.Checks[name] = "down"
				result.Status = "degraded"
				continue
			}
			result.Checks[name] = "up"
		}

		status := http.StatusOK
		if result.Status != "ok" {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, result)
	}
}
