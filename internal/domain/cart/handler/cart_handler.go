package handler

import (
	"net/http"
	"strconv"

	"post_market/internal/domain/cart/service"
	"post_market/internal/pkg/middleware"
	"post_market/pkg/response"

	"github.com/gin-gonic/gin"
)

// CartHandler 购物车处理器
type CartHandler struct {
	svc service.CartService
}

func NewCartHandler(svc service.CartService) *CartHandler {
	return &CartHandler{svc: svc}
}

// AddItemInput 加入购物车参数
type AddItemInput struct {
	PostID   string `json:"postId" binding:"required,uuid"`
	Quantity int    `json:"quantity"`
}

// QuantityInput 修改数量参数
type QuantityInput struct {
	Quantity *int `json:"quantity" binding:"required"`
}

// GetCart 获取购物车
// @Summary 获取购物车
// @Tags Cart
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=model.Cart}
// @Router /cart [get]
func (h *CartHandler) GetCart(c *gin.Context) {
	cart, err := h.svc.GetCart(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, cart)
}

// AddItem 加入购物车
// @Summary 加入购物车并占用库存
// @Tags Cart
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param input body AddItemInput true "帖子与数量，数量默认为 1"
// @Success 201 {object} response.Response{data=model.CartItem}
// @Failure 409 {object} response.Response
// @Router /cart/items [post]
func (h *CartHandler) AddItem(c *gin.Context) {
	var input AddItemInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}
	if input.Quantity == 0 {
		input.Quantity = 1
	}

	item, err := h.svc.AddItem(c.Request.Context(), middleware.GetUserID(c), input.PostID, input.Quantity)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Created(c, item)
}

// UpdateQuantity 修改数量
// @Summary 修改购物车数量，0 表示移除
// @Tags Cart
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param postId path string true "帖子ID"
// @Param input body QuantityInput true "目标数量"
// @Success 200 {object} response.Response{data=model.CartItem}
// @Router /cart/items/{postId} [put]
func (h *CartHandler) UpdateQuantity(c *gin.Context) {
	var input QuantityInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	item, err := h.svc.UpdateQuantity(c.Request.Context(), middleware.GetUserID(c), c.Param("postId"), *input.Quantity)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, item)
}

// RemoveItem 移出购物车
// @Summary 移出购物车，不传 quantity 时移除整行
// @Tags Cart
// @Produce json
// @Security BearerAuth
// @Param postId path string true "帖子ID"
// @Param quantity query int false "移除数量"
// @Success 200 {object} response.Response
// @Router /cart/items/{postId} [delete]
func (h *CartHandler) RemoveItem(c *gin.Context) {
	var quantity *int
	if raw := c.Query("quantity"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, "quantity must be an integer")
			return
		}
		quantity = &n
	}

	if err := h.svc.RemoveItem(c.Request.Context(), middleware.GetUserID(c), c.Param("postId"), quantity); err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, "success")
}

// ClearCart 清空购物车
// @Summary 清空购物车并归还库存
// @Tags Cart
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /cart [delete]
func (h *CartHandler) ClearCart(c *gin.Context) {
	if err := h.svc.ClearCart(c.Request.Context(), middleware.GetUserID(c)); err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, "success")
}
