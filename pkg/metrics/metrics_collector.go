package metrics

import (
	"database/sql"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsCollector 指标收集器
type MetricsCollector struct {
	// HTTP 指标
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// 缓存指标
	cacheHitsTotal         *prometheus.CounterVec
	cacheMissesTotal       *prometheus.CounterVec
	cacheOperationDuration *prometheus.HistogramVec

	// 业务指标
	cartOperationsTotal *prometheus.CounterVec
	postVersionsTotal   *prometheus.CounterVec
}

// NewMetricsCollector 创建指标收集器，指标注册到 registerer
func NewMetricsCollector(registerer prometheus.Registerer) *MetricsCollector {
	factory := promauto.With(registerer)
	return &MetricsCollector{
		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),

		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),

		cacheHitsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cache_hits_total",
				Help: "Total number of cache hits",
			},
			[]string{"cache_type", "key_prefix"},
		),

		cacheMissesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cache_misses_total",
				Help: "Total number of cache misses",
			},
			[]string{"cache_type", "key_prefix"},
		),

		cacheOperationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cache_operation_duration_seconds",
				Help:    "Cache operation duration in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
			},
			[]string{"operation", "cache_type"},
		),

		cartOperationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cart_operations_total",
				Help: "Total number of cart mutations by operation and result",
			},
			[]string{"operation", "result"},
		),

		postVersionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "post_versions_created_total",
				Help: "Total number of post version snapshots by change type",
			},
			[]string{"change_type"},
		),
	}
}

// RecordHTTPRequest 记录 HTTP 请求指标
func (m *MetricsCollector) RecordHTTPRequest(method, endpoint string, status int, duration time.Duration) {
	m.httpRequestsTotal.WithLabelValues(method, endpoint, getStatusCategory(status)).Inc()
	m.httpRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordCacheOperation 记录缓存操作指标
func (m *MetricsCollector) RecordCacheOperation(operation, cacheType, keyPrefix string, duration time.Duration, hit bool) {
	if hit {
		m.cacheHitsTotal.WithLabelValues(cacheType, keyPrefix).Inc()
	} else {
		m.cacheMissesTotal.WithLabelValues(cacheType, keyPrefix).Inc()
	}

	m.cacheOperationDuration.WithLabelValues(operation, cacheType).Observe(duration.Seconds())
}

// RecordCartOperation 记录购物车操作
func (m *MetricsCollector) RecordCartOperation(operation string, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	m.cartOperationsTotal.WithLabelValues(operation, result).Inc()
}

// RecordPostVersion 记录版本快照
func (m *MetricsCollector) RecordPostVersion(changeType string) {
	m.postVersionsTotal.WithLabelValues(changeType).Inc()
}

// getStatusCategory 获取状态分类
func getStatusCategory(status int) string {
	switch {
	case status >= 200 && status < 300:
		return "2xx"
	case status >= 300 && status < 400:
		return "3xx"
	case status >= 400 && status < 500:
		return "4xx"
	case status >= 500:
		return "5xx"
	default:
		return "unknown"
	}
}

// RegisterDBStats 注册连接池指标，抓取时读取 sql.DB.Stats
func RegisterDBStats(db *sql.DB, dbName string) error {
	return prometheus.Register(collectors.NewDBStatsCollector(db, dbName))
}

var (
	globalCollector *MetricsCollector
	once            sync.Once
)

// GetGlobalCollector 获取全局指标收集器（注册到默认 Registry）
func GetGlobalCollector() *MetricsCollector {
	once.Do(func() {
		globalCollector = NewMetricsCollector(prometheus.DefaultRegisterer)
	})
	return globalCollector
}
