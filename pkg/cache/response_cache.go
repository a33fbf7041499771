package cache

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"time"

	"post_market/pkg/logger"
	"post_market/pkg/metrics"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// 响应缓存族，写操作按族失效
const (
	FamilyCategories = "categories"
	FamilyFilters    = "filters"
	FamilyPosts      = "posts"
	FamilyMenus      = "menus"
)

const responseKeyPrefix = "resp:"

// Invalidator 写操作后显式失效缓存
type Invalidator interface {
	Invalidate(ctx context.Context, family string)
}

// ResponseCache GET 接口的响应缓存
type ResponseCache struct {
	store   CacheService
	ttl     time.Duration
	enabled bool
	driver  string
}

// cachedResponse 缓存的响应体
type cachedResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"contentType"`
	Body        []byte `json:"body"`
}

// NewResponseCache 创建响应缓存，store 为 nil 时等同于关闭
func NewResponseCache(store CacheService, ttl time.Duration, enabled bool, driver string) *ResponseCache {
	return &ResponseCache{
		store:   store,
		ttl:     ttl,
		enabled: enabled && store != nil,
		driver:  driver,
	}
}

// Key 生成缓存键：resp:<family>:<request uri>
func Key(family, uri string) string {
	return responseKeyPrefix + family + ":" + uri
}

// Get 读取缓存
func (rc *ResponseCache) Get(ctx context.Context, key string, dest interface{}) error {
	if !rc.enabled {
		return ErrCacheMiss
	}
	return rc.store.Get(ctx, key, dest)
}

// Set 写入缓存
func (rc *ResponseCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !rc.enabled {
		return nil
	}
	return rc.store.Set(ctx, key, value, ttl)
}

// Invalidate 失效某个族下所有缓存，失败只记录日志
func (rc *ResponseCache) Invalidate(ctx context.Context, family string) {
	if rc == nil || !rc.enabled {
		return
	}
	if err := rc.store.InvalidatePattern(ctx, responseKeyPrefix+family+":*"); err != nil {
		logger.Log.Warn("cache invalidate failed", zap.String("family", family), zap.Error(err))
	}
}

// Middleware 缓存 GET 请求的成功响应
func (rc *ResponseCache) Middleware(family string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rc == nil || !rc.enabled || c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		key := Key(family, c.Request.URL.RequestURI())
		start := time.Now()

		var cached cachedResponse
		err := rc.store.Get(ctx, key, &cached)
		metrics.GetGlobalCollector().RecordCacheOperation("get", rc.driver, family, time.Since(start), err == nil)
		if err == nil {
			c.Header("X-Cache", "HIT")
			c.Data(cached.Status, cached.ContentType, cached.Body)
			c.Abort()
			return
		}
		if !errors.Is(err, ErrCacheMiss) {
			logger.Log.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		}

		writer := &bodyWriter{ResponseWriter: c.Writer}
		c.Writer = writer
		c.Header("X-Cache", "MISS")
		c.Next()

		if writer.Status() != http.StatusOK {
			return
		}
		resp := cachedResponse{
			Status:      writer.Status(),
			ContentType: writer.Header().Get("Content-Type"),
			Body:        writer.body.Bytes(),
		}
		if err := rc.store.Set(ctx, key, resp, rc.ttl); err != nil {
			logger.Log.Warn("cache set failed", zap.String("key", key), zap.Error(err))
		}
	}
}

// bodyWriter 同时写出并记录响应体
type bodyWriter struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *bodyWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *bodyWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// NopInvalidator 不做任何事的失效器，用于未启用缓存的场景
type NopInvalidator struct{}

func (NopInvalidator) Invalidate(ctx context.Context, family string) {}
