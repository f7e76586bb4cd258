package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nemoralis/wlmaz/internal/api/middleware"
	"github.com/nemoralis/wlmaz/internal/api/rest"
	"github.com/nemoralis/wlmaz/internal/logger"
	"github.com/nemoralis/wlmaz/internal/ratelimit"
	"github.com/nemoralis/wlmaz/internal/upload"
)

// Config holds the server configuration
type Config struct {
	Debug          bool
	Host           string
	Port           int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	AllowedOrigins []string
	Session        middleware.SessionConfig
	Handler        rest.Config
	RateLimit      *ratelimit.Limiter
}

// Server wraps the HTTP server
type Server struct {
	config     Config
	submitter  upload.Submitter
	httpServer *http.Server
}

// New creates a new API server
func New(cfg Config, submitter upload.Submitter) *Server {
	return &Server{
		config:    cfg,
		submitter: submitter,
	}
}

// Start initializes and starts the HTTP server
func (s *Server) Start() error {
	if s.config.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Setup middleware
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.SetupCORS(s.config.AllowedOrigins))

	// Bound in-memory multipart buffering; larger parts spill to disk
	router.MaxMultipartMemory = 8 << 20

	restHandler := rest.NewHandler(s.config.Handler, s.submitter)
	rest.SetupRoutes(router, restHandler, s.config.Session, s.config.RateLimit)

	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	logger.Info("Starting API server",
		zap.String("address", addr),
		zap.Bool("uploads_enabled", s.config.Handler.UploadsEnabled),
	)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	logger.Info("Shutting down API server")

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to shutdown server: %w", err)
		}
	}

	return nil
}
