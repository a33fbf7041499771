package common

import (
	"context"
	"fmt"

	commonHandler "post_market/internal/pkg/common"
	"post_market/internal/pkg/registry"
	"post_market/pkg/metrics"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// CommonModule 通用路由：健康检查、指标、接口文档
type CommonModule struct{}

func init() {
	registry.Register(&CommonModule{})
}

func (m *CommonModule) Name() string {
	return "common"
}

func (m *CommonModule) Priority() int {
	return 100 // 最后初始化
}

func (m *CommonModule) Init(ctx *registry.ModuleContext) error {
	sqlDB, err := ctx.DB.DB()
	if err != nil {
		return fmt.Errorf("common: get sql.DB: %w", err)
	}

	deps := map[string]commonHandler.Pinger{"postgres": sqlDB}
	if ctx.Redis != nil {
		rdb := ctx.Redis
		deps["redis"] = commonHandler.PingerFunc(func(c context.Context) error {
			return rdb.Ping(c).Err()
		})
	}

	setupRoutes(ctx.Router, deps)
	return nil
}

func setupRoutes(r *gin.Engine, deps map[string]commonHandler.Pinger) {
	r.GET("/health", commonHandler.Health(deps))
	r.GET("/metrics", metrics.Handler())
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}
