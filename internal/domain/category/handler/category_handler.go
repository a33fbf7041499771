package handler

import (
	"net/http"

	"post_market/internal/domain/category/service"
	"post_market/pkg/apperr"
	"post_market/pkg/response"

	"github.com/gin-gonic/gin"
)

// CategoryHandler 分类与过滤器处理器
type CategoryHandler struct {
	categories service.CategoryService
	filters    service.FilterService
}

// NewCategoryHandler 创建处理器
func NewCategoryHandler(categories service.CategoryService, filters service.FilterService) *CategoryHandler {
	return &CategoryHandler{categories: categories, filters: filters}
}

// CategoryInput 创建分类输入
type CategoryInput struct {
	Name     string  `json:"name" binding:"required,max=100"`
	ParentID *string `json:"parentId"`
}

// CreateCategory 创建分类
// @Summary 创建分类
// @Tags Category
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param input body CategoryInput true "分类"
// @Success 201 {object} response.Response{data=model.Category}
// @Router /categories [post]
func (h *CategoryHandler) CreateCategory(c *gin.Context) {
	var input CategoryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	category, err := h.categories.CreateCategory(c.Request.Context(), input.Name, input.ParentID)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Created(c, category)
}

// ListCategories 分类树（根分类及子分类）
// @Summary 分类列表
// @Tags Category
// @Produce json
// @Success 200 {object} response.Response{data=[]model.Category}
// @Router /categories [get]
func (h *CategoryHandler) ListCategories(c *gin.Context) {
	categories, err := h.categories.ListCategories(c.Request.Context())
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, categories)
}

// GetCategory 获取分类
// @Summary 获取分类
// @Tags Category
// @Produce json
// @Param id path string true "分类ID"
// @Success 200 {object} response.Response{data=model.Category}
// @Router /categories/{id} [get]
func (h *CategoryHandler) GetCategory(c *gin.Context) {
	category, err := h.categories.GetCategory(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, category)
}

// DeleteCategory 删除分类（软删除）
// @Summary 删除分类
// @Tags Category
// @Security BearerAuth
// @Param id path string true "分类ID"
// @Success 200 {object} response.Response
// @Router /categories/{id} [delete]
func (h *CategoryHandler) DeleteCategory(c *gin.Context) {
	if err := h.categories.DeleteCategory(c.Request.Context(), c.Param("id")); err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, "success")
}

// ListFilters 分类下的过滤器
// @Summary 过滤器列表
// @Tags Filter
// @Produce json
// @Param id path string true "分类ID"
// @Success 200 {object} response.Response{data=[]model.CategoryFilter}
// @Router /categories/{id}/filters [get]
func (h *CategoryHandler) ListFilters(c *gin.Context) {
	filters, err := h.filters.ListFilters(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, filters)
}

// CreateFilter 创建过滤器
// @Summary 创建过滤器
// @Tags Filter
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "分类ID"
// @Param input body service.FilterInput true "过滤器定义"
// @Success 201 {object} response.Response{data=model.CategoryFilter}
// @Router /categories/{id}/filters [post]
func (h *CategoryHandler) CreateFilter(c *gin.Context) {
	var input service.FilterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	filter, err := h.filters.CreateFilter(c.Request.Context(), c.Param("id"), input)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Created(c, filter)
}

// UpdateFilter 更新过滤器
// @Summary 更新过滤器
// @Tags Filter
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "过滤器ID"
// @Param input body service.FilterInput true "过滤器定义"
// @Success 200 {object} response.Response{data=model.CategoryFilter}
// @Router /filters/{id} [put]
func (h *CategoryHandler) UpdateFilter(c *gin.Context) {
	var input service.FilterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	filter, err := h.filters.UpdateFilter(c.Request.Context(), c.Param("id"), input)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, filter)
}

// DeleteFilter 停用过滤器
// @Summary 删除过滤器
// @Tags Filter
// @Security BearerAuth
// @Param id path string true "过滤器ID"
// @Success 200 {object} response.Response
// @Router /filters/{id} [delete]
func (h *CategoryHandler) DeleteFilter(c *gin.Context) {
	if err := h.filters.DeleteFilter(c.Request.Context(), c.Param("id")); err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, "success")
}

// ValidateAttributesInput 属性预校验输入
type ValidateAttributesInput struct {
	Attributes map[string]interface{} `json:"attributes"`
}

// ValidateAttributes 按分类过滤器预校验属性，不落库
// @Summary 校验属性
// @Tags Filter
// @Accept json
// @Produce json
// @Param id path string true "分类ID"
// @Param input body ValidateAttributesInput true "属性"
// @Success 200 {object} response.Response
// @Router /categories/{id}/validate [post]
func (h *CategoryHandler) ValidateAttributes(c *gin.Context) {
	var input ValidateAttributesInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	categoryID := c.Param("id")
	if _, err := h.categories.GetCategory(c.Request.Context(), categoryID); err != nil {
		response.HandleError(c, err)
		return
	}

	fieldErrs, err := h.filters.ValidateAttributes(c.Request.Context(), &categoryID, input.Attributes)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	if fieldErrs == nil {
		fieldErrs = []apperr.FieldError{}
	}
	response.Success(c, gin.H{"valid": len(fieldErrs) == 0, "errors": fieldErrs})
}
