package cart

import (
	"fmt"

	"post_market/internal/domain/cart/handler"
	"post_market/internal/domain/cart/repository"
	"post_market/internal/domain/cart/service"
	"post_market/internal/pkg/middleware"
	"post_market/internal/pkg/registry"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
)

// CartModule 购物车模块
type CartModule struct{}

func init() {
	registry.Register(&CartModule{})
}

func (m *CartModule) Name() string {
	return "cart"
}

func (m *CartModule) Priority() int {
	return 30
}

func (m *CartModule) Init(ctx *registry.ModuleContext) error {
	sqlDB, err := ctx.DB.DB()
	if err != nil {
		return fmt.Errorf("cart: get sql.DB: %w", err)
	}

	repo := repository.NewCartRepository(ctx.DB, sqlx.NewDb(sqlDB, "pgx"))
	h := handler.NewCartHandler(service.NewCartService(repo, ctx.Cache))

	setupRoutes(ctx.Router, h)
	return nil
}

func setupRoutes(r *gin.Engine, h *handler.CartHandler) {
	g := r.Group("/cart", middleware.AuthMiddleware(), middleware.UUIDParams("postId"))
	{
		g.GET("", h.GetCart)
		g.DELETE("", h.ClearCart)
		g.POST("/items", h.AddItem)
		g.PUT("/items/:postId", h.UpdateQuantity)
		g.DELETE("/items/:postId", h.RemoveItem)
	}
}
