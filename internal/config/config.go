package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Commons API endpoints per environment. The test wiki accepts the same API
// surface as the production repository, so sandbox selection is purely a
// constructor argument.
const (
	ProductionAPIURL = "https://commons.wikimedia.org/w/api.php"
	TestAPIURL       = "https://test.wikipedia.org/w/api.php"
)

// BaseConfig holds base configuration
type BaseConfig struct {
	Debug     bool   `mapstructure:"debug"`
	SentryDSN string `mapstructure:"sentry_dsn"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host           string   `mapstructure:"host"`
	Port           int      `mapstructure:"port"`
	ReadTimeout    int      `mapstructure:"read_timeout"`  // in seconds
	WriteTimeout   int      `mapstructure:"write_timeout"` // in seconds
	IdleTimeout    int      `mapstructure:"idle_timeout"`  // in seconds
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// CommonsConfig holds the remote repository configuration: the consumer pair
// identifying this application, the optional owner fallback pair, and the
// production/test endpoint switch.
type CommonsConfig struct {
	// Environment selects the remote endpoint: "production" or "test"
	Environment string `mapstructure:"environment"`

	// APIURL overrides the endpoint derived from Environment when non-empty
	APIURL string `mapstructure:"api_url"`

	// UserAgent is sent on every remote call
	UserAgent string `mapstructure:"user_agent"`

	// ConsumerKey and ConsumerSecret identify this application to the API
	ConsumerKey    string `mapstructure:"consumer_key"`
	ConsumerSecret string `mapstructure:"consumer_secret"`

	// OwnerToken and OwnerSecret form the service-owner fallback pair used for
	// anonymous operation in the test environment. Never used in production.
	OwnerToken  string `mapstructure:"owner_token"`
	OwnerSecret string `mapstructure:"owner_secret"`

	// HTTPTimeout bounds every remote call end to end
	HTTPTimeout time.Duration `mapstructure:"http_timeout"`
}

// UploadConfig holds upload pipeline configuration
type UploadConfig struct {
	// Enabled gates whether uploads are accepted at all
	Enabled bool `mapstructure:"enabled"`

	// MaxFileSize is the maximum accepted upload size in bytes
	MaxFileSize int64 `mapstructure:"max_file_size"`

	// TempDir is where inbound files are staged between receipt and cleanup
	TempDir string `mapstructure:"temp_dir"`

	// RateLimitRequests uploads allowed per client address per RateLimitWindow
	RateLimitRequests int           `mapstructure:"rate_limit_requests"`
	RateLimitWindow   time.Duration `mapstructure:"rate_limit_window"`
}

// SessionConfig holds session token validation configuration. The session
// token itself is minted by the authentication component, which is external to
// this service; we only verify it.
type SessionConfig struct {
	Secret     string `mapstructure:"secret"`
	CookieName string `mapstructure:"cookie_name"`
}

// APIConfig holds configuration for the API server
type APIConfig struct {
	BaseConfig `mapstructure:",squash"`
	Server     ServerConfig  `mapstructure:"server"`
	Commons    CommonsConfig `mapstructure:"commons"`
	Upload     UploadConfig  `mapstructure:"upload"`
	Session    SessionConfig `mapstructure:"session"`
}

// ResolveAPIURL returns the effective remote endpoint
func (c *CommonsConfig) ResolveAPIURL() string {
	if c.APIURL != "" {
		return c.APIURL
	}
	if c.Environment == "production" {
		return ProductionAPIURL
	}
	return TestAPIURL
}

// IsProduction reports whether the production endpoint is in effect
func (c *CommonsConfig) IsProduction() bool {
	return c.Environment == "production"
}

// LoadAPIConfig loads configuration for the API server
func LoadAPIConfig(configFile string, envPath string) (*APIConfig, error) {
	v := configureViper("api", configFile, envPath)

	// Set defaults
	v.SetDefault("debug", false)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30)
	v.SetDefault("server.write_timeout", 120)
	v.SetDefault("server.idle_timeout", 120)
	v.SetDefault("commons.environment", "test")
	v.SetDefault("commons.user_agent", "WLMAZ-Tool/1.0 (https://wikilovesmonuments.az)")
	v.SetDefault("commons.http_timeout", "2m")
	v.SetDefault("upload.enabled", false)
	v.SetDefault("upload.max_file_size", 20*1024*1024) // 20MB
	v.SetDefault("upload.temp_dir", filepath.Join(os.TempDir(), "wlmaz-uploads"))
	v.SetDefault("upload.rate_limit_requests", 20)
	v.SetDefault("upload.rate_limit_window", "15m")
	v.SetDefault("session.cookie_name", "wlmaz_session")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			// Config file not found, use environment variables
		} else {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config APIConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// The consumer pair is mandatory: nothing can be signed without it
	config.Commons.ConsumerKey = strings.TrimSpace(config.Commons.ConsumerKey)
	config.Commons.ConsumerSecret = strings.TrimSpace(config.Commons.ConsumerSecret)
	if config.Commons.ConsumerKey == "" || config.Commons.ConsumerSecret == "" {
		return nil, errors.New("commons.consumer_key and commons.consumer_secret are required")
	}

	// The owner fallback pair bypasses per-user identity and must never be
	// active against the production repository
	if config.Commons.IsProduction() && (config.Commons.OwnerToken != "" || config.Commons.OwnerSecret != "") {
		return nil, errors.New("commons.owner_token/owner_secret must not be set in production")
	}

	if config.Session.Secret == "" {
		return nil, errors.New("session.secret is required")
	}

	return &config, nil
}

// configureViper returns a viper instance with the config file and environment variables set
func configureViper(service string, configFile string, envPath string) *viper.Viper {
	v := viper.New()

	// Load environment variables
	loadEnv(envPath, service)

	// Set config file
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(fmt.Sprintf("cmd/%s/", service))
		v.AddConfigPath("config/")
	}

	// Set environment variables
	v.SetEnvPrefix("WLMAZ")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Explicitly bind all environment variables
	bindAllEnvVars(v)
	return v
}

// bindAllEnvVars explicitly binds all possible environment variables
// This is required for viper to map env vars to config struct fields when no config file exists
func bindAllEnvVars(v *viper.Viper) {
	keys := []string{
		"debug",
		"sentry_dsn",
		// Server
		"server.host",
		"server.port",
		"server.read_timeout",
		"server.write_timeout",
		"server.idle_timeout",
		"server.allowed_origins",
		// Commons
		"commons.environment",
		"commons.api_url",
		"commons.user_agent",
		"commons.consumer_key",
		"commons.consumer_secret",
		"commons.owner_token",
		"commons.owner_secret",
		"commons.http_timeout",
		// Upload
		"upload.enabled",
		"upload.max_file_size",
		"upload.temp_dir",
		"upload.rate_limit_requests",
		"upload.rate_limit_window",
		// Session
		"session.secret",
		"session.cookie_name",
	}

	for _, key := range keys {
		_ = v.BindEnv(key)
	}
}

// loadEnv loads environment variables from the config directory
func loadEnv(envPath string, service string) {
	// Always try shared base first, then local, then optional per-service local.
	envFiles := []string{".env", ".env.local"}
	if service != "" {
		envFiles = append(envFiles, ".env."+service+".local")
	}

	// Default to config directory
	if envPath == "" {
		envPath = "config/"
	}

	for _, envFile := range envFiles {
		candidate := filepath.Join(envPath, envFile)
		_ = godotenv.Overload(candidate) // Overload lets later files override earlier ones
	}
}
