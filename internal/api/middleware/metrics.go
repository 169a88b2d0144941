package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"planning-imset/internal/metrics"
)

// Metrics 按路由模板（而非原始路径）记录请求数与耗时
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		m.ObserveHTTP(c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start))
	}
}
