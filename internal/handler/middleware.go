package handler

import (
	"log"
	"strconv"
	"time"

	"loyaltyengine/pkg/correlation"
	"loyaltyengine/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

const correlationHeader = "X-Correlation-ID"

// CorrelationMiddleware 为每个请求绑定关联 ID
// 调用方带了就透传，没带就生成；ID 写回响应头并注入 request context，
// 贯穿日志、失败审计和错误响应
func CorrelationMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(correlationHeader)
		if id == "" {
			id = correlation.NewID()
		}
		c.Header(correlationHeader, id)
		c.Request = c.Request.WithContext(correlation.WithContext(c.Request.Context(), id))
		c.Next()
	}
}

// LoggerMiddleware 请求日志
func LoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		latency := time.Since(start)
		statusCode := c.Writer.Status()
		log.Printf("[HTTP] %s %s %d %v correlationID=%s",
			method, path, statusCode, latency, correlation.FromContext(c.Request.Context()))
	}
}

// RecoveryMiddleware panic 兜底，返回统一的内部错误响应
func RecoveryMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				correlationID := correlation.FromContext(c.Request.Context())
				log.Printf("[HTTP] panic recovered: %v, correlationID=%s", err, correlationID)
				response.ServerError(c, correlationID)
				c.Abort()
			}
		}()
		c.Next()
	}
}

// CORSMiddleware 跨域支持
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Correlation-ID")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}

// Metrics HTTP 维度的 Prometheus 指标
type Metrics struct {
	Registry        *prometheus.Registry
	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loyalty_http_requests_total",
			Help: "HTTP 请求总数",
		},
		[]string{"method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "loyalty_http_request_duration_seconds",
			Help:    "HTTP 请求耗时",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	registry.MustRegister(requestTotal, requestDuration)

	return &Metrics{
		Registry:        registry,
		requestTotal:    requestTotal,
		requestDuration: requestDuration,
	}
}

// Middleware 按路由模板维度打点，避免路径参数打爆标签基数
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		m.requestTotal.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		m.requestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}
