package post

import (
	catRepo "post_market/internal/domain/category/repository"
	catService "post_market/internal/domain/category/service"
	photoRepo "post_market/internal/domain/photo/repository"
	photoService "post_market/internal/domain/photo/service"
	"post_market/internal/domain/post/handler"
	"post_market/internal/domain/post/repository"
	"post_market/internal/domain/post/service"
	"post_market/internal/pkg/middleware"
	"post_market/internal/pkg/registry"
	"post_market/internal/pkg/uploader"
	"post_market/pkg/cache"

	"github.com/gin-gonic/gin"
)

// PostModule 帖子模块（含图集、点赞、版本）
type PostModule struct{}

func init() {
	registry.Register(&PostModule{})
}

func (m *PostModule) Name() string {
	return "post"
}

func (m *PostModule) Priority() int {
	return 20
}

func (m *PostModule) Init(ctx *registry.ModuleContext) error {
	categoryRepo := catRepo.NewCategoryRepository(ctx.DB)
	categories := catService.NewCategoryService(categoryRepo, ctx.Cache)
	filters := catService.NewFilterService(categoryRepo, categories, ctx.Cache)
	photos := photoService.NewPhotoService(photoRepo.NewPhotoRepository(ctx.DB), uploader.GlobalUploader, ctx.Cache)

	repo := repository.NewPostRepository(ctx.DB)
	versions := service.NewVersionService(repo, ctx.Cache)
	posts := service.NewPostService(repo, versions, categories, filters, photos, ctx.Cache)
	h := handler.NewPostHandler(posts, versions)

	setupRoutes(ctx.Router, ctx.Cache, h)
	return nil
}

func setupRoutes(r *gin.Engine, rc *cache.ResponseCache, h *handler.PostHandler) {
	auth := middleware.AuthMiddleware()

	g := r.Group("/posts", middleware.UUIDParams("id"))
	{
		g.GET("", rc.Middleware(cache.FamilyPosts), h.Search)
		g.GET("/:id", rc.Middleware(cache.FamilyPosts), h.GetPost)
		g.GET("/:id/likes", h.ListLikers)

		g.POST("", auth, h.CreatePost)
		g.PUT("/:id", auth, h.UpdatePost)
		g.DELETE("/:id", auth, h.DeletePost)
		g.PUT("/:id/gallery", auth, h.SetGallery)
		g.POST("/:id/like", auth, h.ToggleLike)

		g.GET("/:id/versions", auth, h.ListVersions)
		g.GET("/:id/versions/:version", auth, h.GetVersion)
		g.POST("/:id/versions/:version/restore", auth, h.RestoreVersion)
		g.GET("/:id/compare", auth, h.CompareVersions)
	}

	me := r.Group("/users/me", auth)
	{
		me.GET("/posts", h.ListMyPosts)
		me.GET("/liked-posts", h.ListLikedPosts)
	}
}
