package handler

import (
	"net/http"
	"strconv"

	"post_market/internal/domain/post/search"
	"post_market/internal/domain/post/service"
	"post_market/internal/pkg/middleware"
	"post_market/pkg/apperr"
	"post_market/pkg/response"

	"github.com/gin-gonic/gin"
)

// PostHandler 帖子处理器
type PostHandler struct {
	posts    service.PostService
	versions service.VersionService
}

func NewPostHandler(posts service.PostService, versions service.VersionService) *PostHandler {
	return &PostHandler{posts: posts, versions: versions}
}

// GalleryInput 图集参数，顺序即展示顺序
type GalleryInput struct {
	PhotoIDs []string `json:"photoIds" binding:"dive,uuid"`
}

// RestoreInput 恢复版本参数
type RestoreInput struct {
	Reason *string `json:"reason"`
}

// Search 检索帖子
// @Summary 检索帖子
// @Description 支持 query、category_ids、include_subcategories、filters(JSON)、attr.<key>、min_price/max_price、sort_by/sort_order、page/limit
// @Tags Post
// @Produce json
// @Param query query string false "关键词"
// @Param category_ids query string false "分类ID，逗号分隔"
// @Param include_subcategories query bool false "包含子分类"
// @Param filters query string false "属性过滤 JSON"
// @Param sort_by query string false "createdAt | price | title"
// @Param sort_order query string false "asc | desc"
// @Param page query int false "页码"
// @Param limit query int false "每页数量"
// @Success 200 {object} response.Response{data=utils.PageResult}
// @Failure 400 {object} response.Response
// @Router /posts [get]
func (h *PostHandler) Search(c *gin.Context) {
	params, err := search.Parse(c.Request.URL.Query())
	if err != nil {
		response.HandleError(c, err)
		return
	}

	result, err := h.posts.Search(c.Request.Context(), params)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, result)
}

// CreatePost 发布帖子
// @Summary 发布帖子
// @Tags Post
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param input body service.PostInput true "帖子"
// @Success 201 {object} response.Response{data=model.Post}
// @Failure 400 {object} response.Response
// @Router /posts [post]
func (h *PostHandler) CreatePost(c *gin.Context) {
	var input service.PostInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	post, err := h.posts.CreatePost(c.Request.Context(), middleware.GetUserID(c), input)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Created(c, post)
}

// GetPost 帖子详情
// @Summary 帖子详情（含封面、图集、点赞数）
// @Tags Post
// @Produce json
// @Param id path string true "帖子ID"
// @Success 200 {object} response.Response{data=model.Post}
// @Failure 404 {object} response.Response
// @Router /posts/{id} [get]
func (h *PostHandler) GetPost(c *gin.Context) {
	post, err := h.posts.GetPost(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, post)
}

// UpdatePost 修改帖子
// @Summary 修改帖子（生成新版本）
// @Tags Post
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "帖子ID"
// @Param input body service.UpdatePostInput true "修改内容"
// @Success 200 {object} response.Response{data=model.Post}
// @Failure 403 {object} response.Response
// @Router /posts/{id} [put]
func (h *PostHandler) UpdatePost(c *gin.Context) {
	var input service.UpdatePostInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	post, err := h.posts.UpdatePost(c.Request.Context(), middleware.GetUserID(c), c.Param("id"), input)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, post)
}

// DeletePost 删除帖子
// @Summary 删除自己的帖子
// @Tags Post
// @Security BearerAuth
// @Param id path string true "帖子ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /posts/{id} [delete]
func (h *PostHandler) DeletePost(c *gin.Context) {
	if err := h.posts.DeletePost(c.Request.Context(), middleware.GetUserID(c), c.Param("id")); err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, "success")
}

// ListMyPosts 我的帖子
// @Summary 我的帖子
// @Tags Post
// @Produce json
// @Security BearerAuth
// @Param page query int false "页码"
// @Param limit query int false "每页数量"
// @Success 200 {object} response.Response{data=utils.PageResult}
// @Router /users/me/posts [get]
func (h *PostHandler) ListMyPosts(c *gin.Context) {
	page, limit := pageParams(c)
	result, err := h.posts.ListMyPosts(c.Request.Context(), middleware.GetUserID(c), page, limit)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, result)
}

// SetGallery 设置图集
// @Summary 按顺序替换帖子图集
// @Tags Post
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "帖子ID"
// @Param input body GalleryInput true "图片ID列表"
// @Success 200 {object} response.Response{data=model.Post}
// @Router /posts/{id}/gallery [put]
func (h *PostHandler) SetGallery(c *gin.Context) {
	var input GalleryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	post, err := h.posts.SetGallery(c.Request.Context(), middleware.GetUserID(c), c.Param("id"), input.PhotoIDs)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, post)
}

// ToggleLike 点赞/取消点赞
// @Summary 点赞或取消点赞
// @Tags Post
// @Produce json
// @Security BearerAuth
// @Param id path string true "帖子ID"
// @Success 200 {object} response.Response{data=service.LikeState}
// @Router /posts/{id}/like [post]
func (h *PostHandler) ToggleLike(c *gin.Context) {
	state, err := h.posts.ToggleLike(c.Request.Context(), middleware.GetUserID(c), c.Param("id"))
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, state)
}

// ListLikers 点赞用户
// @Summary 点赞用户列表
// @Tags Post
// @Produce json
// @Param id path string true "帖子ID"
// @Success 200 {object} response.Response{data=utils.PageResult}
// @Router /posts/{id}/likes [get]
func (h *PostHandler) ListLikers(c *gin.Context) {
	page, limit := pageParams(c)
	result, err := h.posts.ListLikers(c.Request.Context(), c.Param("id"), page, limit)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, result)
}

// ListLikedPosts 我点赞的帖子
// @Summary 我点赞的帖子
// @Tags Post
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=utils.PageResult}
// @Router /users/me/liked-posts [get]
func (h *PostHandler) ListLikedPosts(c *gin.Context) {
	page, limit := pageParams(c)
	result, err := h.posts.ListLikedPosts(c.Request.Context(), middleware.GetUserID(c), page, limit)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, result)
}

// ListVersions 版本历史
// @Summary 帖子版本历史（倒序）
// @Tags Version
// @Produce json
// @Security BearerAuth
// @Param id path string true "帖子ID"
// @Success 200 {object} response.Response{data=[]model.PostVersion}
// @Router /posts/{id}/versions [get]
func (h *PostHandler) ListVersions(c *gin.Context) {
	versions, err := h.versions.ListVersions(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, versions)
}

// GetVersion 指定版本
// @Summary 获取指定版本
// @Tags Version
// @Produce json
// @Security BearerAuth
// @Param id path string true "帖子ID"
// @Param version path int true "版本号"
// @Success 200 {object} response.Response{data=model.PostVersion}
// @Failure 404 {object} response.Response
// @Router /posts/{id}/versions/{version} [get]
func (h *PostHandler) GetVersion(c *gin.Context) {
	number, ok := versionParam(c, c.Param("version"), "version")
	if !ok {
		return
	}
	v, err := h.versions.GetVersion(c.Request.Context(), c.Param("id"), number)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, v)
}

// RestoreVersion 恢复到指定版本
// @Summary 恢复到指定版本
// @Tags Version
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "帖子ID"
// @Param version path int true "版本号"
// @Param input body RestoreInput false "恢复原因"
// @Success 200 {object} response.Response{data=model.Post}
// @Router /posts/{id}/versions/{version}/restore [post]
func (h *PostHandler) RestoreVersion(c *gin.Context) {
	number, ok := versionParam(c, c.Param("version"), "version")
	if !ok {
		return
	}

	var input RestoreInput
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&input); err != nil {
			response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
			return
		}
	}

	post, err := h.versions.Restore(c.Request.Context(), c.Param("id"), number, middleware.GetUserID(c), input.Reason)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, post)
}

// CompareVersions 比较两个版本
// @Summary 比较两个版本，只返回不同字段
// @Tags Version
// @Produce json
// @Security BearerAuth
// @Param id path string true "帖子ID"
// @Param v1 query int true "版本1"
// @Param v2 query int true "版本2"
// @Success 200 {object} response.Response{data=map[string]service.FieldDiff}
// @Router /posts/{id}/compare [get]
func (h *PostHandler) CompareVersions(c *gin.Context) {
	v1, ok := versionParam(c, c.Query("v1"), "v1")
	if !ok {
		return
	}
	v2, ok := versionParam(c, c.Query("v2"), "v2")
	if !ok {
		return
	}

	diff, err := h.versions.Compare(c.Request.Context(), c.Param("id"), v1, v2)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, diff)
}

func versionParam(c *gin.Context, raw, field string) (int, bool) {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		response.HandleError(c, apperr.Validation(response.ErrInvalidParam, "invalid version number",
			apperr.FieldError{Field: field, Message: field + " must be a positive integer"}))
		return 0, false
	}
	return n, true
}

func pageParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	return page, limit
}
