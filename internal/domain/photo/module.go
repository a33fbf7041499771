package photo

import (
	"post_market/internal/domain/photo/handler"
	"post_market/internal/domain/photo/repository"
	"post_market/internal/domain/photo/service"
	"post_market/internal/pkg/middleware"
	"post_market/internal/pkg/registry"
	"post_market/internal/pkg/uploader"

	"github.com/gin-gonic/gin"
)

// PhotoModule 图片模块
type PhotoModule struct{}

func init() {
	registry.Register(&PhotoModule{})
}

func (m *PhotoModule) Name() string {
	return "photo"
}

func (m *PhotoModule) Priority() int {
	return 10
}

func (m *PhotoModule) Init(ctx *registry.ModuleContext) error {
	repo := repository.NewPhotoRepository(ctx.DB)
	h := handler.NewPhotoHandler(service.NewPhotoService(repo, uploader.GlobalUploader, ctx.Cache))

	setupRoutes(ctx.Router, h)
	return nil
}

func setupRoutes(r *gin.Engine, h *handler.PhotoHandler) {
	g := r.Group("/photos", middleware.AuthMiddleware(), middleware.UUIDParams("id"))
	{
		g.POST("", h.Upload)
		g.GET("", h.List)
		g.DELETE("/:id", h.Delete)
	}
}
