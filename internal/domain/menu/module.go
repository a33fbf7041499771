package menu

import (
	catRepo "post_market/internal/domain/category/repository"
	catService "post_market/internal/domain/category/service"
	"post_market/internal/domain/menu/handler"
	"post_market/internal/domain/menu/repository"
	"post_market/internal/domain/menu/service"
	"post_market/internal/pkg/middleware"
	"post_market/internal/pkg/registry"
	"post_market/pkg/cache"

	"github.com/gin-gonic/gin"
)

// MenuModule 导航菜单模块
type MenuModule struct{}

func init() {
	registry.Register(&MenuModule{})
}

func (m *MenuModule) Name() string {
	return "menu"
}

func (m *MenuModule) Priority() int {
	return 40
}

func (m *MenuModule) Init(ctx *registry.ModuleContext) error {
	categories := catService.NewCategoryService(catRepo.NewCategoryRepository(ctx.DB), ctx.Cache)
	svc := service.NewMenuService(repository.NewMenuRepository(ctx.DB), categories, ctx.Cache)
	h := handler.NewMenuHandler(svc)

	setupRoutes(ctx.Router, ctx.Cache, h)
	return nil
}

func setupRoutes(r *gin.Engine, rc *cache.ResponseCache, h *handler.MenuHandler) {
	g := r.Group("/menus", middleware.UUIDParams("id"))
	{
		g.GET("", rc.Middleware(cache.FamilyMenus), h.GetMenu)

		auth := g.Group("", middleware.AuthMiddleware())
		auth.POST("", h.CreateMenuItem)
		auth.PUT("/:id", h.UpdateMenuItem)
		auth.DELETE("/:id", h.DeleteMenuItem)
		auth.POST("/sync-categories", h.SyncCategories)
	}
}
