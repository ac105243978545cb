package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 监控指标
type Metrics struct {
	// HTTP 请求指标
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// 别名业务指标
	AliasesGenerated *prometheus.CounterVec
	AliasesDeleted   prometheus.Counter

	// 配额与限流指标
	QuotaDenials    *prometheus.CounterVec
	RateLimitBlocks *prometheus.CounterVec

	// 错误指标
	ErrorsTotal *prometheus.CounterVec
	PanicsTotal prometheus.Counter
}

// NewMetrics 创建监控指标。promauto 会将指标注册到默认注册表。
func NewMetrics() *Metrics {
	return &Metrics{
		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aliasbot_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status_code"},
		),

		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "aliasbot_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),

		AliasesGenerated: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aliasbot_aliases_generated_total",
				Help: "Total number of aliases generated by strategy",
			},
			[]string{"strategy"},
		),

		AliasesDeleted: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "aliasbot_aliases_deleted_total",
				Help: "Total number of aliases deleted",
			},
		),

		QuotaDenials: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aliasbot_quota_denials_total",
				Help: "Total number of requests denied by identity quota",
			},
			[]string{"window"},
		),

		RateLimitBlocks: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aliasbot_rate_limit_blocks_total",
				Help: "Total number of requests blocked by IP rate limiting",
			},
			[]string{"limit_type"},
		),

		ErrorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aliasbot_errors_total",
				Help: "Total number of errors by type and component",
			},
			[]string{"error_type", "component"},
		),

		PanicsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "aliasbot_panics_total",
				Help: "Total number of recovered panics",
			},
		),
	}
}

// RecordHTTPRequest 记录 HTTP 请求指标
func (m *Metrics) RecordHTTPRequest(method, endpoint, statusCode string, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordAliasesGenerated 记录别名生成
func (m *Metrics) RecordAliasesGenerated(strategy string, count int) {
	m.AliasesGenerated.WithLabelValues(strategy).Add(float64(count))
}

// RecordAliasDeleted 记录别名删除
func (m *Metrics) RecordAliasDeleted() {
	m.AliasesDeleted.Inc()
}

// RecordQuotaDenial 记录配额拒绝
func (m *Metrics) RecordQuotaDenial(window string) {
	m.QuotaDenials.WithLabelValues(window).Inc()
}

// RecordRateLimitBlock 记录限流阻止
func (m *Metrics) RecordRateLimitBlock(limitType string) {
	m.RateLimitBlocks.WithLabelValues(limitType).Inc()
}

// RecordError 记录错误
func (m *Metrics) RecordError(errorType, component string) {
	m.ErrorsTotal.WithLabelValues(errorType, component).Inc()
}

// RecordPanic 记录 panic
func (m *Metrics) RecordPanic() {
	m.PanicsTotal.Inc()
}

// HTTPHandler 返回 Prometheus HTTP 处理器
func (m *Metrics) HTTPHandler() http.Handler {
	return promhttp.Handler()
}
