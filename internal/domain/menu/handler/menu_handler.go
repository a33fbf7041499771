package handler

import (
	"net/http"

	"post_market/internal/domain/menu/service"
	"post_market/pkg/response"

	"github.com/gin-gonic/gin"
)

// MenuHandler 菜单处理器
type MenuHandler struct {
	svc service.MenuService
}

func NewMenuHandler(svc service.MenuService) *MenuHandler {
	return &MenuHandler{svc: svc}
}

// GetMenu 获取菜单树
// @Summary 获取菜单树
// @Tags Menu
// @Produce json
// @Success 200 {object} response.Response{data=[]model.Node}
// @Router /menus [get]
func (h *MenuHandler) GetMenu(c *gin.Context) {
	tree, err := h.svc.GetMenuTree(c.Request.Context())
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, tree)
}

// CreateMenuItem 新建菜单项
// @Summary 新建菜单项
// @Tags Menu
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param input body service.MenuInput true "菜单项"
// @Success 201 {object} response.Response{data=model.Menu}
// @Router /menus [post]
func (h *MenuHandler) CreateMenuItem(c *gin.Context) {
	var input service.MenuInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	m, err := h.svc.CreateMenuItem(c.Request.Context(), input)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Created(c, m)
}

// UpdateMenuItem 修改菜单项
// @Summary 修改菜单项
// @Tags Menu
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "菜单ID"
// @Param input body service.UpdateMenuInput true "修改内容"
// @Success 200 {object} response.Response{data=model.Menu}
// @Router /menus/{id} [put]
func (h *MenuHandler) UpdateMenuItem(c *gin.Context) {
	var input service.UpdateMenuInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	m, err := h.svc.UpdateMenuItem(c.Request.Context(), c.Param("id"), input)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, m)
}

// DeleteMenuItem 删除菜单项
// @Summary 删除菜单项，子菜单移到顶级
// @Tags Menu
// @Produce json
// @Security BearerAuth
// @Param id path string true "菜单ID"
// @Success 200 {object} response.Response
// @Router /menus/{id} [delete]
func (h *MenuHandler) DeleteMenuItem(c *gin.Context) {
	if err := h.svc.DeleteMenuItem(c.Request.Context(), c.Param("id")); err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, "success")
}

// SyncCategories 按分类树重建分类菜单
// @Summary 按有效分类重建 category 类型菜单
// @Tags Menu
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=[]model.Node}
// @Router /menus/sync-categories [post]
func (h *MenuHandler) SyncCategories(c *gin.Context) {
	tree, err := h.svc.SyncCategories(c.Request.Context())
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, tree)
}
