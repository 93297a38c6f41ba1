package middleware

import (
	"crypto/subtle"

	"github.com/gin-gonic/gin"

	apperrors "keepsake/internal/errors"
)

// PipelineAuthMiddleware guards batch endpoints with the X-API-Key header.
// With no key configured the endpoints are disabled.
func PipelineAuthMiddleware(apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if apiKey == "" {
			RenderError(c, apperrors.ErrPipelineDisabled)
			c.Abort()
			return
		}
		key := c.GetHeader("X-API-Key")
		if subtle.ConstantTimeCompare([]byte(key), []byte(apiKey)) != 1 {
			RenderError(c, apperrors.ErrInvalidAPIKey)
			c.Abort()
			return
		}
		c.Next()
	}
}
