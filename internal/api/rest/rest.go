package rest

import (
	"github.com/gin-gonic/gin"

	"github.com/nemoralis/wlmaz/internal/api/middleware"
	"github.com/nemoralis/wlmaz/internal/ratelimit"
)

// SetupRoutes configures all REST API routes
func SetupRoutes(router *gin.Engine, handler Handler, sessionCfg middleware.SessionConfig, limiter *ratelimit.Limiter) {
	// Health check endpoint (no auth, no version prefix)
	router.GET("/health", handler.HealthCheck)

	// API v1 routes; the session middleware resolves an identity when one is
	// present and leaves the request anonymous otherwise
	v1 := router.Group("/api/v1")
	v1.Use(middleware.Session(sessionCfg))
	{
		// Feature flag probe (public)
		v1.GET("/upload/status", handler.UploadStatus)

		// Photo submission (rate limited per client address; the handler
		// enforces authentication so the owner-fallback test mode stays
		// possible without a session)
		v1.POST("/upload", middleware.RateLimit(limiter), handler.Upload)
	}
}
