package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nemoralis/wlmaz/internal/logger"
	"github.com/nemoralis/wlmaz/internal/ratelimit"
)

// RateLimit returns a gin middleware bounding requests per client address
func RateLimit(limiter *ratelimit.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow(c.ClientIP()) {
			logger.Warn("upload rate limit exceeded",
				zap.String("client_ip", c.ClientIP()),
				zap.String("path", c.Request.URL.Path),
			)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Upload limit reached. Please try again later.",
			})
			return
		}
		c.Next()
	}
}
