package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"post_market/internal/domain/post/model"
	"post_market/internal/domain/post/search"
	"post_market/internal/domain/post/service"
	"post_market/pkg/response"
	"post_market/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockPostService 只实现检索，其余方法通过嵌入接口占位
type MockPostService struct {
	service.PostService
	mock.Mock
}

func (m *MockPostService) Search(ctx context.Context, p search.Params) (*utils.PageResult, error) {
	args := m.Called(ctx, p)
	return args.Get(0).(*utils.PageResult), args.Error(1)
}

type MockVersionService struct {
	service.VersionService
	mock.Mock
}

func (m *MockVersionService) Compare(ctx context.Context, postID string, v1, v2 int) (map[string]service.FieldDiff, error) {
	args := m.Called(ctx, postID, v1, v2)
	return args.Get(0).(map[string]service.FieldDiff), args.Error(1)
}

func newRouter(posts service.PostService, versions service.VersionService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewPostHandler(posts, versions)
	r := gin.New()
	r.GET("/posts", h.Search)
	r.GET("/posts/:id/compare", h.CompareVersions)
	return r
}

func TestSearchHandler(t *testing.T) {
	t.Run("valid query reaches service", func(t *testing.T) {
		posts := new(MockPostService)
		posts.On("Search", mock.Anything, mock.MatchedBy(func(p search.Params) bool {
			return p.Page == 2 && p.Limit == 5 && p.SortBy == "price" && !p.Desc
		})).Return(&utils.PageResult{List: []model.Post{}, Total: 0, Page: 2, Limit: 5}, nil)

		w := httptest.NewRecorder()
		newRouter(posts, nil).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/posts?page=2&limit=5&sort_by=price&sort_order=asc", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		posts.AssertExpectations(t)
	})

	t.Run("malformed filters is a 400 with details", func(t *testing.T) {
		posts := new(MockPostService)

		w := httptest.NewRecorder()
		newRouter(posts, nil).ServeHTTP(w, httptest.NewRequest(http.MethodGet, `/posts?filters=%7Bbroken`, nil))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		var body struct {
			Code int `json:"code"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, response.ErrSearchInvalid, body.Code)
		posts.AssertNotCalled(t, "Search", mock.Anything, mock.Anything)
	})
}

func TestCompareHandler(t *testing.T) {
	versions := new(MockVersionService)
	versions.On("Compare", mock.Anything, "p1", 1, 2).
		Return(map[string]service.FieldDiff{"title": {Old: "A", New: "B"}}, nil)
	r := newRouter(nil, versions)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/posts/p1/compare?v1=1&v2=2", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"title":{"old":"A","new":"B"}`)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/posts/p1/compare?v1=0&v2=x", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
