package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/YuYe10/DB-EX3/pkg/response"
)

// BodyLimit 请求体大小限制中间件，上传的 xlsx 同样受限
// maxBytes: 允许的最大请求体字节数（如 10<<20 = 10MB）
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxBytes <= 0 {
			c.Next()
			return
		}
		if c.Request.ContentLength > maxBytes {
			response.Error(c, http.StatusRequestEntityTooLarge, 10005, "请求体过大")
			c.Abort()
			return
		}
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}

		c.Next()
	}
}
