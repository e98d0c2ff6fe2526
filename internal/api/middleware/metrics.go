package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/YuYe10/DB-EX3/pkg/metrics"
)

// Metrics 记录请求耗时与状态码；路径取路由模板，未匹配的路由记为 unmatched
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		m.ObserveHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
