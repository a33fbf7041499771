package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"post_market/internal/domain/category/model"
	"post_market/internal/domain/category/service"
	"post_market/pkg/apperr"
	"post_market/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockCategoryService struct {
	service.CategoryService
	mock.Mock
}

func (m *MockCategoryService) GetCategory(ctx context.Context, id string) (*model.Category, error) {
	args := m.Called(ctx, id)
	c, _ := args.Get(0).(*model.Category)
	return c, args.Error(1)
}

type MockFilterService struct {
	service.FilterService
	mock.Mock
}

func (m *MockFilterService) ValidateAttributes(ctx context.Context, categoryID *string, attrs map[string]interface{}) ([]apperr.FieldError, error) {
	args := m.Called(ctx, *categoryID, attrs)
	errs, _ := args.Get(0).([]apperr.FieldError)
	return errs, args.Error(1)
}

func (m *MockFilterService) CreateFilter(ctx context.Context, categoryID string, in service.FilterInput) (*model.CategoryFilter, error) {
	args := m.Called(ctx, categoryID, in)
	f, _ := args.Get(0).(*model.CategoryFilter)
	return f, args.Error(1)
}

func newRouter(categories service.CategoryService, filters service.FilterService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewCategoryHandler(categories, filters)
	r := gin.New()
	r.POST("/categories/:id/validate", h.ValidateAttributes)
	r.POST("/categories/:id/filters", h.CreateFilter)
	return r
}

type validateBody struct {
	Code int `json:"code"`
	Data struct {
		Valid  bool                `json:"valid"`
		Errors []apperr.FieldError `json:"errors"`
	} `json:"data"`
}

func TestValidateAttributesHandler(t *testing.T) {
	t.Run("Field errors reported", func(t *testing.T) {
		categories := new(MockCategoryService)
		filters := new(MockFilterService)
		categories.On("GetCategory", mock.Anything, "shoes").Return(&model.Category{Name: "Shoes"}, nil)
		filters.On("ValidateAttributes", mock.Anything, "shoes", map[string]interface{}{"size": "50"}).
			Return([]apperr.FieldError{{Field: "size", Message: "size must be one of 38, 39"}}, nil)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/categories/shoes/validate", strings.NewReader(`{"attributes":{"size":"50"}}`))
		req.Header.Set("Content-Type", "application/json")
		newRouter(categories, filters).ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var body validateBody
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.False(t, body.Data.Valid)
		require.Len(t, body.Data.Errors, 1)
		assert.Equal(t, "size", body.Data.Errors[0].Field)
	})

	t.Run("Valid attributes return empty list", func(t *testing.T) {
		categories := new(MockCategoryService)
		filters := new(MockFilterService)
		categories.On("GetCategory", mock.Anything, "shoes").Return(&model.Category{Name: "Shoes"}, nil)
		filters.On("ValidateAttributes", mock.Anything, "shoes", mock.Anything).Return(nil, nil)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/categories/shoes/validate", strings.NewReader(`{"attributes":{}}`))
		req.Header.Set("Content-Type", "application/json")
		newRouter(categories, filters).ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"errors":[]`)
		assert.Contains(t, w.Body.String(), `"valid":true`)
	})

	t.Run("Unknown category", func(t *testing.T) {
		categories := new(MockCategoryService)
		filters := new(MockFilterService)
		categories.On("GetCategory", mock.Anything, "missing").
			Return(nil, apperr.NotFound(response.ErrCategoryNotFound, "category not found"))

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/categories/missing/validate", strings.NewReader(`{"attributes":{}}`))
		req.Header.Set("Content-Type", "application/json")
		newRouter(categories, filters).ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
		filters.AssertNotCalled(t, "ValidateAttributes", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestCreateFilterHandler(t *testing.T) {
	t.Run("Missing type", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/categories/shoes/filters", strings.NewReader(`{"name":"size"}`))
		req.Header.Set("Content-Type", "application/json")
		newRouter(new(MockCategoryService), new(MockFilterService)).ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Invalid definition", func(t *testing.T) {
		filters := new(MockFilterService)
		in := service.FilterInput{Name: "size", Type: "select"}
		filters.On("CreateFilter", mock.Anything, "shoes", in).
			Return(nil, apperr.Validation(response.ErrFilterInvalid, "invalid filter definition",
				apperr.FieldError{Field: "options", Message: "options are required"}))

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/categories/shoes/filters", strings.NewReader(`{"name":"size","type":"select"}`))
		req.Header.Set("Content-Type", "application/json")
		newRouter(new(MockCategoryService), filters).ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "options")
	})
}
