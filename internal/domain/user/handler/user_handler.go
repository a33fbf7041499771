package handler

import (
	"net/http"

	"post_market/internal/domain/user/service"
	"post_market/internal/pkg/middleware"
	"post_market/pkg/response"

	"github.com/gin-gonic/gin"
)

// UserHandler 用户处理器
type UserHandler struct {
	service service.UserService
}

// NewUserHandler 创建用户处理器
func NewUserHandler(s service.UserService) *UserHandler {
	return &UserHandler{service: s}
}

// CredentialsInput 注册/登录输入
type CredentialsInput struct {
	Username string `json:"username" binding:"required,min=3,max=50"`
	Password string `json:"password" binding:"required,min=6,max=72"`
}

// Signup 注册
// @Summary 用户注册
// @Tags Auth
// @Accept json
// @Produce json
// @Param input body CredentialsInput true "用户名和密码"
// @Success 201 {object} response.Response{data=service.AuthResult}
// @Failure 409 {object} response.Response
// @Router /auth/signup [post]
func (h *UserHandler) Signup(c *gin.Context) {
	var input CredentialsInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	result, err := h.service.Signup(c.Request.Context(), input.Username, input.Password)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Created(c, result)
}

// Login 登录
// @Summary 用户登录
// @Tags Auth
// @Accept json
// @Produce json
// @Param input body CredentialsInput true "用户名和密码"
// @Success 200 {object} response.Response{data=service.AuthResult}
// @Failure 401 {object} response.Response
// @Router /auth/login [post]
func (h *UserHandler) Login(c *gin.Context) {
	var input CredentialsInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	result, err := h.service.Login(c.Request.Context(), input.Username, input.Password)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, result)
}

// GetMe 当前用户信息
// @Summary 当前用户信息
// @Tags User
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=model.User}
// @Router /users/me [get]
func (h *UserHandler) GetMe(c *gin.Context) {
	user, err := h.service.GetUser(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, user)
}

// GetUser 获取用户
// @Summary 获取用户
// @Tags User
// @Produce json
// @Param id path string true "用户ID"
// @Success 200 {object} response.Response{data=model.User}
// @Router /users/{id} [get]
func (h *UserHandler) GetUser(c *gin.Context) {
	user, err := h.service.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, user)
}

// DeleteMe 注销当前用户
// @Summary 注销账号
// @Tags User
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /users/me [delete]
func (h *UserHandler) DeleteMe(c *gin.Context) {
	if err := h.service.DeleteUser(c.Request.Context(), middleware.GetUserID(c)); err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, "success")
}
