package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"post_market/internal/domain/cart/model"
	"post_market/internal/domain/cart/service"
	"post_market/internal/pkg/middleware"
	"post_market/pkg/apperr"
	"post_market/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockCartService struct {
	service.CartService
	mock.Mock
}

func (m *MockCartService) AddItem(ctx context.Context, userID, postID string, quantity int) (*model.CartItem, error) {
	args := m.Called(ctx, userID, postID, quantity)
	item, _ := args.Get(0).(*model.CartItem)
	return item, args.Error(1)
}

func (m *MockCartService) RemoveItem(ctx context.Context, userID, postID string, quantity *int) error {
	args := m.Called(ctx, userID, postID, quantity)
	return args.Error(0)
}

const (
	postA = "3e7b1f0a-2c4d-4e8f-9a6b-5c7d8e9f0a1b"
	postB = "4f8c2a1b-3d5e-4f9a-8b7c-6d8e9f0a1b2c"
)

func newRouter(svc service.CartService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewCartHandler(svc)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(middleware.ContextUserID, "u1")
		c.Next()
	})
	g := r.Group("/cart", middleware.UUIDParams("postId"))
	g.POST("/items", h.AddItem)
	g.DELETE("/items/:postId", h.RemoveItem)
	return r
}

func responseCode(t *testing.T, w *httptest.ResponseRecorder) int {
	var body struct {
		Code int `json:"code"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Code
}

func TestAddItemHandler(t *testing.T) {
	t.Run("quantity defaults to one", func(t *testing.T) {
		svc := new(MockCartService)
		svc.On("AddItem", mock.Anything, "u1", postA, 1).Return(&model.CartItem{PostID: postA, Quantity: 1}, nil)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/cart/items", strings.NewReader(`{"postId":postA}`))
		req.Header.Set("Content-Type", "application/json")
		newRouter(svc).ServeHTTP(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("insufficient stock is a conflict", func(t *testing.T) {
		svc := new(MockCartService)
		svc.On("AddItem", mock.Anything, "u1", postA, 3).
			Return(nil, apperr.Conflict(response.ErrInsufficientStock, "insufficient stock"))

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/cart/items", strings.NewReader(`{"postId":postA,"quantity":3}`))
		req.Header.Set("Content-Type", "application/json")
		newRouter(svc).ServeHTTP(w, req)

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, response.ErrInsufficientStock, responseCode(t, w))
	})

	t.Run("missing post id", func(t *testing.T) {
		svc := new(MockCartService)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/cart/items", strings.NewReader(`{"quantity":3}`))
		req.Header.Set("Content-Type", "application/json")
		newRouter(svc).ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "AddItem", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("malformed post id", func(t *testing.T) {
		svc := new(MockCartService)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/cart/items", strings.NewReader(`{"postId":"abc"}`))
		req.Header.Set("Content-Type", "application/json")
		newRouter(svc).ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "AddItem", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestRemoveItemHandler(t *testing.T) {
	svc := new(MockCartService)
	svc.On("RemoveItem", mock.Anything, "u1", postA, mock.MatchedBy(func(q *int) bool { return q != nil && *q == 2 })).Return(nil)
	svc.On("RemoveItem", mock.Anything, "u1", postB, (*int)(nil)).Return(nil)

	r := newRouter(svc)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/cart/items/"+postA+"?quantity=2", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/cart/items/"+postB, nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/cart/items/"+postA+"?quantity=many", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/cart/items/abc", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	svc.AssertExpectations(t)
}
