package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"planning-imset/pkg/response"
)

// BodyLimit 请求体大小限制
// 排班接口的请求体都很小，超限多半是误用
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			response.Error(c, http.StatusRequestEntityTooLarge, response.CodeBadRequest, "请求体过大")
			c.Abort()
			return
		}
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}

		c.Next()

		if c.Writer.Written() {
			return
		}
		var tooLarge *http.MaxBytesError
		for _, e := range c.Errors {
			if errors.As(e.Err, &tooLarge) {
				response.Error(c, http.StatusRequestEntityTooLarge, response.CodeBadRequest, "请求体过大")
				return
			}
		}
	}
}
