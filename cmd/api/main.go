package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/nemoralis/wlmaz/internal/adapter"
	"github.com/nemoralis/wlmaz/internal/api/middleware"
	"github.com/nemoralis/wlmaz/internal/api/rest"
	"github.com/nemoralis/wlmaz/internal/api/server"
	"github.com/nemoralis/wlmaz/internal/commons"
	"github.com/nemoralis/wlmaz/internal/config"
	"github.com/nemoralis/wlmaz/internal/logger"
	"github.com/nemoralis/wlmaz/internal/media/normalizer"
	"github.com/nemoralis/wlmaz/internal/oauth"
	"github.com/nemoralis/wlmaz/internal/ratelimit"
	"github.com/nemoralis/wlmaz/internal/upload"
	"github.com/nemoralis/wlmaz/internal/wikitext"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
)

func main() {
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadAPIConfig(*configFile, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize logger with sentry integration
	err = logger.Initialize(logger.Config{
		Debug:           cfg.Debug,
		SentryDSN:       cfg.SentryDSN,
		BreadcrumbLevel: zapcore.InfoLevel,
		Tags: map[string]string{
			"service": "api-server",
		},
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.InfoCtx(ctx, "Starting WLMAZ upload API",
		zap.String("environment", cfg.Commons.Environment),
		zap.String("commons_api", cfg.Commons.ResolveAPIURL()),
	)

	// Initialize adapters
	fs := adapter.NewFileSystem()
	clock := adapter.NewClock()
	jsonAdapter := adapter.NewJSON()
	httpClient := adapter.NewHTTPClient(cfg.Commons.HTTPTimeout)

	// Staging directory for inbound files
	if err := fs.MkdirAll(cfg.Upload.TempDir, 0o700); err != nil {
		logger.FatalCtx(ctx, "Failed to create staging directory",
			zap.Error(err),
			zap.String("temp_dir", cfg.Upload.TempDir),
		)
	}

	// Build the upload pipeline
	signer := oauth.NewSigner(oauth.TokenPair{
		Key:    cfg.Commons.ConsumerKey,
		Secret: cfg.Commons.ConsumerSecret,
	}, clock, oauth.NewNonceSource())

	commonsClient := commons.NewClient(
		cfg.Commons.ResolveAPIURL(),
		cfg.Commons.UserAgent,
		signer,
		httpClient,
		jsonAdapter,
	)

	// Startup connectivity probe; a flaky endpoint is worth knowing about but
	// not worth refusing to serve over
	probeCtx, probeCancel := context.WithTimeout(ctx, 30*time.Second)
	if err := commonsClient.Ping(probeCtx); err != nil {
		logger.WarnCtx(ctx, "Commons endpoint probe failed", zap.Error(err))
	} else {
		logger.InfoCtx(ctx, "Commons endpoint reachable")
	}
	probeCancel()

	ownerFallback := !cfg.Commons.IsProduction() &&
		cfg.Commons.OwnerToken != "" && cfg.Commons.OwnerSecret != ""

	submitter := upload.NewService(
		commonsClient,
		normalizer.New(),
		wikitext.NewComposer(clock),
		fs,
		upload.Options{
			OwnerToken:         cfg.Commons.OwnerToken,
			OwnerSecret:        cfg.Commons.OwnerSecret,
			AllowOwnerFallback: ownerFallback,
		},
	)

	// Create server config
	serverConfig := server.Config{
		Debug:          cfg.Debug,
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		ReadTimeout:    time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout:   time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:    time.Duration(cfg.Server.IdleTimeout) * time.Second,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Session: middleware.SessionConfig{
			Secret:     cfg.Session.Secret,
			CookieName: cfg.Session.CookieName,
		},
		Handler: rest.Config{
			UploadsEnabled:         cfg.Upload.Enabled,
			MaxFileSize:            cfg.Upload.MaxFileSize,
			TempDir:                cfg.Upload.TempDir,
			OwnerFallbackAvailable: ownerFallback,
		},
		RateLimit: ratelimit.New(cfg.Upload.RateLimitRequests, cfg.Upload.RateLimitWindow),
	}

	// Create and start server
	srv := server.New(serverConfig, submitter)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil {
			errCh <- err
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		logger.InfoCtx(ctx, "Received shutdown signal", zap.String("signal", sig.String()))
		cancel()
	case err := <-errCh:
		logger.ErrorCtx(ctx, err, zap.String("component", "server"))
		cancel()
	}

	// Create shutdown context with timeout (don't use canceled ctx)
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.FatalCtx(shutdownCtx, "Server forced to shutdown", zap.Error(err))
	}

	logger.Info("API server stopped")
}
