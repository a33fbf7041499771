package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"post_market/internal/pkg/config"
	"post_market/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(TraceMiddleware())
	r.GET("/me", AuthMiddleware(), func(c *gin.Context) {
		c.String(http.StatusOK, GetUserID(c))
	})
	return r
}

func TestAuthMiddleware(t *testing.T) {
	config.GlobalConfig.JWT.Secret = "middleware-secret-middleware-secret"
	r := setupRouter()

	t.Run("missing header", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("malformed header", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Token abc")
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("valid token sets user id", func(t *testing.T) {
		token, _, err := utils.GenerateToken("user-42", "bob")
		require.NoError(t, err)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "user-42", w.Body.String())
		assert.NotEmpty(t, w.Header().Get("X-Trace-ID"))
	})
}

func TestTraceMiddlewareKeepsIncomingID(t *testing.T) {
	r := setupRouter()
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Trace-ID", "trace-1")
	r.ServeHTTP(w, req)

	assert.Equal(t, "trace-1", w.Header().Get("X-Trace-ID"))
}

func TestRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RateLimitMiddleware(NewIPRateLimiter(1, 2)))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
		codes = append(codes, w.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestUUIDParams(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	g := r.Group("/posts", UUIDParams("id"))
	g.GET("", func(c *gin.Context) { c.Status(http.StatusOK) })
	g.GET("/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	cases := map[string]int{
		"/posts": http.StatusOK,
		"/posts/0b5f3c1e-8a2d-4f6b-9c7e-1d2e3f4a5b6c": http.StatusOK,
		"/posts/abc":              http.StatusBadRequest,
		"/posts/1%27%20OR%20%271": http.StatusBadRequest,
	}
	for path, status := range cases {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, status, w.Code, path)
	}
}
