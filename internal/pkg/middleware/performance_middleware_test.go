package middleware

import (
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupGzipRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(SecurityHeadersMiddleware(), GzipMiddleware("/metrics"))
	r.GET("/posts", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"title": "vintage lamp"})
	})
	r.GET("/metrics", func(c *gin.Context) {
		c.String(http.StatusOK, "http_requests_total 1")
	})
	r.DELETE("/posts", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func TestGzipMiddleware(t *testing.T) {
	r := setupGzipRouter()

	t.Run("compressed when accepted", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/posts", nil)
		req.Header.Set("Accept-Encoding", "gzip, deflate")
		r.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "gzip", w.Header().Get("Content-Encoding"))
		assert.Equal(t, "Accept-Encoding", w.Header().Get("Vary"))

		zr, err := gzip.NewReader(w.Body)
		require.NoError(t, err)
		body, err := io.ReadAll(zr)
		require.NoError(t, err)
		assert.JSONEq(t, `{"title":"vintage lamp"}`, string(body))
	})

	t.Run("plain without accept-encoding", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/posts", nil))

		assert.Empty(t, w.Header().Get("Content-Encoding"))
		assert.JSONEq(t, `{"title":"vintage lamp"}`, w.Body.String())
	})

	t.Run("excluded path left alone", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
		req.Header.Set("Accept-Encoding", "gzip")
		r.ServeHTTP(w, req)

		assert.Empty(t, w.Header().Get("Content-Encoding"))
		assert.Equal(t, "http_requests_total 1", w.Body.String())
	})

	t.Run("empty response has no encoding", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodDelete, "/posts", nil)
		req.Header.Set("Accept-Encoding", "gzip")
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Empty(t, w.Header().Get("Content-Encoding"))
		assert.Zero(t, w.Body.Len())
	})
}

func TestSecurityHeadersMiddleware(t *testing.T) {
	w := httptest.NewRecorder()
	setupGzipRouter().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/posts", nil))

	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "strict-origin-when-cross-origin", w.Header().Get("Referrer-Policy"))
}
