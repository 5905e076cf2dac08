// Package config provides centralized configuration management for the
// conform server and CLI. It loads configuration from environment variables
// with sensible defaults and validates all settings on startup to fail fast
// on misconfiguration.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Conform  ConformConfig
	Storage  StorageConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 5m, uploads are large)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"5m"`

	// WriteTimeout is the maximum duration for writing response (default: 0, output downloads stream)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"0s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for non-conform requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// DatabaseConfig holds the run history database settings. An empty URL
// keeps run history in memory.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string (optional)
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// MaxConns is the maximum number of connections in the pool (default: 10)
	MaxConns int `env:"DB_MAX_CONNS" default:"10"`

	// MinConns is the minimum number of connections to keep open (default: 1)
	MinConns int `env:"DB_MIN_CONNS" default:"1"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// ConformConfig holds conform run settings.
type ConformConfig struct {
	// Workdir holds uploads, unzipped archives and converted output (default: ./work)
	Workdir string `env:"CONFORM_WORKDIR" default:"./work"`

	// MaxConcurrent is the maximum number of parallel runs (default: 4)
	MaxConcurrent int `env:"CONFORM_MAX_CONCURRENT" default:"4"`

	// MaxWaitTime is how long a run waits for a slot (default: 30s)
	MaxWaitTime time.Duration `env:"CONFORM_MAX_WAIT_TIME" default:"30s"`

	// MaxUploadSize is the maximum accepted upload in bytes (default: 512MB)
	MaxUploadSize int64 `env:"CONFORM_MAX_UPLOAD_SIZE" default:"536870912"`

	// OGR2OGRPath is the ogr2ogr binary; empty searches PATH
	OGR2OGRPath string `env:"CONFORM_OGR2OGR_PATH"`

	// StreetCacheSize is the number of memoised street expansions (default: 4096)
	StreetCacheSize int `env:"CONFORM_STREET_CACHE_SIZE" default:"4096"`

	// Timeout is the maximum duration of a single run (default: 30m)
	Timeout time.Duration `env:"CONFORM_TIMEOUT" default:"30m"`
}

// StorageConfig holds S3-compatible object storage settings for publishing
// conformed output. An empty endpoint disables publishing.
type StorageConfig struct {
	// Endpoint is the S3/MinIO host:port (optional)
	Endpoint string `env:"STORAGE_ENDPOINT" envAlt:"MINIO_ENDPOINT"`

	// Bucket receives conformed CSVs (default: conform-output)
	Bucket string `env:"STORAGE_BUCKET" default:"conform-output"`

	// AccessKey and SecretKey authenticate against the endpoint
	AccessKey string `env:"STORAGE_ACCESS_KEY" envAlt:"MINIO_ACCESS_KEY"`
	SecretKey string `env:"STORAGE_SECRET_KEY" envAlt:"MINIO_SECRET_KEY"`

	// Region is used when creating the bucket (default: us-east-1)
	Region string `env:"STORAGE_REGION" default:"us-east-1"`

	// UseSSL selects https (default: false)
	UseSSL bool `env:"STORAGE_USE_SSL" default:"false"`
}

// Enabled reports whether object storage is configured.
func (c *StorageConfig) Enabled() bool {
	return c.Endpoint != ""
}

// RateLimitConfig holds rate limiting settings per time window.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default rate limit per IP (default: 100)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// RequireAPIKey guards /api routes with X-API-Key (default: false)
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"false"`

	// APIKeys is a comma-separated list of accepted keys
	APIKeys []string `env:"API_KEYS"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
