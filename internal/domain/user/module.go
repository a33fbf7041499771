package user

import (
	"post_market/internal/domain/user/handler"
	"post_market/internal/domain/user/repository"
	"post_market/internal/domain/user/service"
	"post_market/internal/pkg/middleware"
	"post_market/internal/pkg/registry"

	"github.com/gin-gonic/gin"
)

// UserModule 用户模块
type UserModule struct{}

func init() {
	// 自动注册模块
	registry.Register(&UserModule{})
}

func (m *UserModule) Name() string {
	return "user"
}

func (m *UserModule) Priority() int {
	return 1
}

func (m *UserModule) Init(ctx *registry.ModuleContext) error {
	// 1. 依赖注入
	userRepo := repository.NewUserRepository(ctx.DB)
	userService := service.NewUserService(userRepo)
	if ctx.Store != nil {
		userService = service.NewCachedUserService(userService, ctx.Store)
	}
	userHandler := handler.NewUserHandler(userService)

	// 2. 路由注册
	setupRoutes(ctx.Router, userHandler)
	return nil
}

func setupRoutes(r *gin.Engine, h *handler.UserHandler) {
	// 公开路由
	authGroup := r.Group("/auth")
	{
		authGroup.POST("/signup", h.Signup)
		authGroup.POST("/login", h.Login)
	}

	userGroup := r.Group("/users", middleware.UUIDParams("id"))
	{
		userGroup.GET("/me", middleware.AuthMiddleware(), h.GetMe)
		userGroup.DELETE("/me", middleware.AuthMiddleware(), h.DeleteMe)
		userGroup.GET("/:id", h.GetUser)
	}
}
