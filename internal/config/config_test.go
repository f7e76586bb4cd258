package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nemoralis/wlmaz/internal/config"
)

// setRequiredEnv sets the minimum environment a load can succeed with
func setRequiredEnv(t *testing.T) {
	t.Helper()

	t.Setenv("WLMAZ_COMMONS_CONSUMER_KEY", "consumer-key")
	t.Setenv("WLMAZ_COMMONS_CONSUMER_SECRET", "consumer-secret")
	t.Setenv("WLMAZ_SESSION_SECRET", "session-secret")
}

func TestLoadAPIConfig(t *testing.T) {
	t.Run("loads with defaults from environment variables only", func(t *testing.T) {
		setRequiredEnv(t)

		cfg, err := config.LoadAPIConfig("", t.TempDir())
		require.NoError(t, err)

		assert.Equal(t, "consumer-key", cfg.Commons.ConsumerKey)
		assert.Equal(t, "0.0.0.0", cfg.Server.Host)
		assert.Equal(t, 8080, cfg.Server.Port)
		assert.Equal(t, "test", cfg.Commons.Environment)
		assert.Equal(t, config.TestAPIURL, cfg.Commons.ResolveAPIURL())
		assert.False(t, cfg.Commons.IsProduction())
		assert.Equal(t, 2*time.Minute, cfg.Commons.HTTPTimeout)
		assert.False(t, cfg.Upload.Enabled)
		assert.Equal(t, int64(20*1024*1024), cfg.Upload.MaxFileSize)
		assert.Equal(t, 20, cfg.Upload.RateLimitRequests)
		assert.Equal(t, 15*time.Minute, cfg.Upload.RateLimitWindow)
		assert.Equal(t, "wlmaz_session", cfg.Session.CookieName)
	})

	t.Run("environment overrides defaults", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("WLMAZ_SERVER_PORT", "9090")
		t.Setenv("WLMAZ_UPLOAD_ENABLED", "true")
		t.Setenv("WLMAZ_COMMONS_HTTP_TIMEOUT", "30s")

		cfg, err := config.LoadAPIConfig("", t.TempDir())
		require.NoError(t, err)

		assert.Equal(t, 9090, cfg.Server.Port)
		assert.True(t, cfg.Upload.Enabled)
		assert.Equal(t, 30*time.Second, cfg.Commons.HTTPTimeout)
	})

	t.Run("missing consumer pair fails", func(t *testing.T) {
		t.Setenv("WLMAZ_COMMONS_CONSUMER_KEY", "")
		t.Setenv("WLMAZ_COMMONS_CONSUMER_SECRET", "")
		t.Setenv("WLMAZ_SESSION_SECRET", "session-secret")

		_, err := config.LoadAPIConfig("", t.TempDir())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "consumer_key")
	})

	t.Run("missing session secret fails", func(t *testing.T) {
		t.Setenv("WLMAZ_COMMONS_CONSUMER_KEY", "consumer-key")
		t.Setenv("WLMAZ_COMMONS_CONSUMER_SECRET", "consumer-secret")
		t.Setenv("WLMAZ_SESSION_SECRET", "")

		_, err := config.LoadAPIConfig("", t.TempDir())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "session.secret")
	})

	t.Run("owner fallback pair is rejected in production", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("WLMAZ_COMMONS_ENVIRONMENT", "production")
		t.Setenv("WLMAZ_COMMONS_OWNER_TOKEN", "owner-token")
		t.Setenv("WLMAZ_COMMONS_OWNER_SECRET", "owner-secret")

		_, err := config.LoadAPIConfig("", t.TempDir())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "owner_token")
	})

	t.Run("owner fallback pair is accepted in the test environment", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("WLMAZ_COMMONS_OWNER_TOKEN", "owner-token")
		t.Setenv("WLMAZ_COMMONS_OWNER_SECRET", "owner-secret")

		cfg, err := config.LoadAPIConfig("", t.TempDir())
		require.NoError(t, err)
		assert.Equal(t, "owner-token", cfg.Commons.OwnerToken)
	})

	t.Run("production environment selects the production endpoint", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("WLMAZ_COMMONS_ENVIRONMENT", "production")

		cfg, err := config.LoadAPIConfig("", t.TempDir())
		require.NoError(t, err)
		assert.Equal(t, config.ProductionAPIURL, cfg.Commons.ResolveAPIURL())
		assert.True(t, cfg.Commons.IsProduction())
	})

	t.Run("explicit api_url overrides the environment endpoint", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("WLMAZ_COMMONS_API_URL", "http://localhost:9999/w/api.php")

		cfg, err := config.LoadAPIConfig("", t.TempDir())
		require.NoError(t, err)
		assert.Equal(t, "http://localhost:9999/w/api.php", cfg.Commons.ResolveAPIURL())
	})
}
