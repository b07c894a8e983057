package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Storage backends
const (
	StorageFile   = "file"
	StorageSQLite = "sqlite"
	StorageRedis  = "redis"
	StorageMemory = "memory"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Session   SessionConfig
	HTTP      HTTPConfig
	Storage   StorageConfig
	Remote    RemoteConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds execution API server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8000"`
	Host string `envconfig:"HOST" default:"0.0.0.0"`
	// Comma separated; entries may use a "*" subdomain wildcard.
	AllowOrigins []string `envconfig:"CORS_ALLOW_ORIGINS" default:"*"`
}

// SessionConfig bounds provider sessions.
type SessionConfig struct {
	Timeout       time.Duration `envconfig:"SESSION_TIMEOUT" default:"50m"`
	MaxConcurrent int           `envconfig:"SESSION_MAX_CONCURRENT" default:"8"`
	MaxCallStack  int           `envconfig:"SESSION_MAX_CALL_STACK" default:"1024"`
}

// HTTPConfig holds defaults for outbound provider requests.
type HTTPConfig struct {
	Timeout            time.Duration `envconfig:"HTTP_TIMEOUT" default:"60s"`
	UserAgent          string        `envconfig:"HTTP_USER_AGENT" default:"Mozilla/5.0 (compatible; asybalance/1.0)"`
	MaxRedirects       int           `envconfig:"HTTP_MAX_REDIRECTS" default:"20"`
	RateLimit          float64       `envconfig:"HTTP_RATE_LIMIT" default:"0"`
	Proxy              string        `envconfig:"HTTP_PROXY_URL"`
	InsecureSkipVerify bool          `envconfig:"HTTP_INSECURE" default:"false"`
}

// StorageConfig selects where account data is persisted.
type StorageConfig struct {
	Backend     string `envconfig:"STORAGE_BACKEND" default:"file"`
	Dir         string `envconfig:"STORAGE_DIR" default:"asybalance"`
	SQLitePath  string `envconfig:"STORAGE_SQLITE_PATH" default:"asybalance.db"`
	RedisAddr   string `envconfig:"STORAGE_REDIS_ADDR" default:"localhost:6379"`
	RedisDB     int    `envconfig:"STORAGE_REDIS_DB" default:"0"`
	RedisPrefix string `envconfig:"STORAGE_REDIS_PREFIX" default:"asybalance:"`
}

// RemoteConfig holds remote dispatch settings.
type RemoteConfig struct {
	Signature   string        `envconfig:"REMOTE_SIGNATURE"`
	CallTimeout time.Duration `envconfig:"REMOTE_CALL_TIMEOUT" default:"2m"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds API rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Validate checks values envconfig cannot.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case StorageFile, StorageSQLite, StorageRedis, StorageMemory:
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	if c.Session.Timeout <= 0 {
		return fmt.Errorf("session timeout must be positive, got %s", c.Session.Timeout)
	}
	if c.Session.MaxConcurrent <= 0 {
		return fmt.Errorf("session concurrency must be positive, got %d", c.Session.MaxConcurrent)
	}
	return nil
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         "8000",
			Host:         "0.0.0.0",
			AllowOrigins: []string{"*"},
		},
		Session: SessionConfig{
			Timeout:       3000000 * time.Millisecond,
			MaxConcurrent: 8,
			MaxCallStack:  1024,
		},
		HTTP: HTTPConfig{
			Timeout:      60 * time.Second,
			UserAgent:    "Mozilla/5.0 (compatible; asybalance/1.0)",
			MaxRedirects: 20,
		},
		Storage: StorageConfig{
			Backend:     StorageFile,
			Dir:         "asybalance",
			SQLitePath:  "asybalance.db",
			RedisAddr:   "localhost:6379",
			RedisPrefix: "asybalance:",
		},
		Remote: RemoteConfig{
			CallTimeout: 2 * time.Minute,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
	}
}
