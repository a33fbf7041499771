package handler

import (
	"net/http"
	"strconv"

	"post_market/internal/domain/photo/service"
	"post_market/internal/pkg/middleware"
	"post_market/pkg/response"

	"github.com/gin-gonic/gin"
)

// PhotoHandler 图片处理器
type PhotoHandler struct {
	service service.PhotoService
}

func NewPhotoHandler(s service.PhotoService) *PhotoHandler {
	return &PhotoHandler{service: s}
}

// Upload 上传图片 (支持批量)
// @Summary 上传图片到 OSS (支持批量)
// @Tags Photo
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param files formData file true "Files"
// @Success 201 {object} response.Response{data=[]model.Photo}
// @Router /photos [post]
func (h *PhotoHandler) Upload(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, "Invalid form data")
		return
	}

	photos, err := h.service.Upload(c.Request.Context(), middleware.GetUserID(c), form.File["files"])
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Created(c, photos)
}

// List 我的图片
// @Summary 我的图片列表
// @Tags Photo
// @Produce json
// @Security BearerAuth
// @Param page query int false "页码"
// @Param limit query int false "每页数量"
// @Success 200 {object} response.Response{data=utils.PageResult}
// @Router /photos [get]
func (h *PhotoHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	result, err := h.service.List(c.Request.Context(), middleware.GetUserID(c), page, limit)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, result)
}

// Delete 删除图片
// @Summary 删除自己的图片
// @Tags Photo
// @Security BearerAuth
// @Param id path string true "图片ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /photos/{id} [delete]
func (h *PhotoHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), middleware.GetUserID(c), c.Param("id")); err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, "success")
}
