package middleware

import (
	"compress/gzip"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// GzipMiddleware 对接受 gzip 的客户端压缩响应体
// excluded 中的路径前缀不压缩（/metrics 由 promhttp 自行协商，/swagger 为静态文件）
func GzipMiddleware(excluded ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !shouldCompress(c, excluded) {
			c.Next()
			return
		}

		c.Header("Vary", "Accept-Encoding")
		gw := &gzipWriter{ResponseWriter: c.Writer}
		c.Writer = gw
		defer gw.close()

		c.Next()
	}
}

// gzipWriter 首次写入时才创建压缩流，空响应（204、304）不带 Content-Encoding
type gzipWriter struct {
	gin.ResponseWriter
	gz *gzip.Writer
}

func (gw *gzipWriter) Write(data []byte) (int, error) {
	if gw.gz == nil {
		h := gw.Header()
		h.Set("Content-Encoding", "gzip")
		h.Del("Content-Length")
		gw.gz = gzip.NewWriter(gw.ResponseWriter)
	}
	return gw.gz.Write(data)
}

func (gw *gzipWriter) WriteString(s string) (int, error) {
	return gw.Write([]byte(s))
}

func (gw *gzipWriter) close() {
	if gw.gz != nil {
		_ = gw.gz.Close()
	}
}

// shouldCompress 检查是否应该压缩
func shouldCompress(c *gin.Context, excluded []string) bool {
	if !strings.Contains(c.GetHeader("Accept-Encoding"), "gzip") {
		return false
	}
	if c.Request.Method == http.MethodHead {
		return false
	}
	path := c.Request.URL.Path
	for _, prefix := range excluded {
		if strings.HasPrefix(path, prefix) {
			return false
		}
	}
	return true
}

// SecurityHeadersMiddleware 安全头中间件
// 接口只返回 JSON，swagger 页面需要内联脚本，不设置 CSP
func SecurityHeadersMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		c.Next()
	}
}
