package category

import (
	"post_market/internal/domain/category/handler"
	"post_market/internal/domain/category/repository"
	"post_market/internal/domain/category/service"
	"post_market/internal/pkg/middleware"
	"post_market/internal/pkg/registry"
	"post_market/pkg/cache"

	"github.com/gin-gonic/gin"
)

// CategoryModule 分类模块
type CategoryModule struct{}

func init() {
	registry.Register(&CategoryModule{})
}

func (m *CategoryModule) Name() string {
	return "category"
}

func (m *CategoryModule) Priority() int {
	return 5
}

func (m *CategoryModule) Init(ctx *registry.ModuleContext) error {
	repo := repository.NewCategoryRepository(ctx.DB)
	categoryService := service.NewCategoryService(repo, ctx.Cache)
	filterService := service.NewFilterService(repo, categoryService, ctx.Cache)
	h := handler.NewCategoryHandler(categoryService, filterService)

	setupRoutes(ctx.Router, ctx.Cache, h)
	return nil
}

func setupRoutes(r *gin.Engine, rc *cache.ResponseCache, h *handler.CategoryHandler) {
	auth := middleware.AuthMiddleware()

	g := r.Group("/categories", middleware.UUIDParams("id"))
	{
		g.GET("", rc.Middleware(cache.FamilyCategories), h.ListCategories)
		g.GET("/:id", rc.Middleware(cache.FamilyCategories), h.GetCategory)
		g.GET("/:id/filters", rc.Middleware(cache.FamilyFilters), h.ListFilters)
		g.POST("/:id/validate", h.ValidateAttributes)

		g.POST("", auth, h.CreateCategory)
		g.DELETE("/:id", auth, h.DeleteCategory)
		g.POST("/:id/filters", auth, h.CreateFilter)
	}

	f := r.Group("/filters", auth, middleware.UUIDParams("id"))
	{
		f.PUT("/:id", h.UpdateFilter)
		f.DELETE("/:id", h.DeleteFilter)
	}
}
