// Package models - Service configuration and operational settings.
// This file defines configuration structures for all service components.
//
// Configuration Philosophy:
// - Hierarchical configuration with logical grouping (server, storage, rate limit, etc.)
// - Defaults that run a single process with in-memory state out of the box
// - Validation at load time to catch misconfigurations early
package models

import (
	"errors"
	"fmt"
	"slices"
	"time"
)

// Storage type constants
const (
	StorageTypeMemory   = "memory"
	StorageTypePostgres = "postgres"
	StorageTypeSQLite   = "sqlite"
)

// Limiter store type constants
const (
	LimiterStoreMemory = "memory"
	LimiterStoreRedis  = "redis"
)

// Config is the root configuration structure containing all service settings.
//
// Configuration Structure:
// - Server: HTTP server and network settings
// - Storage: bookmark and tag persistence
// - RateLimit: sliding-window tiers and the window store
// - Security: moderator identity as asserted by the identity provider
// - Logging: Structured logging and output configuration
// - Metrics / Observability: Prometheus and OpenTelemetry
type Config struct {
	Server        ServerConfig        `yaml:"server" json:"server"`
	Storage       StorageConfig       `yaml:"storage" json:"storage"`
	RateLimit     RateLimitConfig     `yaml:"rate_limit" json:"rate_limit"`
	Security      SecurityConfig      `yaml:"security" json:"security"`
	Logging       LoggingConfig       `yaml:"logging" json:"logging"`
	Metrics       MetricsConfig       `yaml:"metrics" json:"metrics"`
	Observability ObservabilityConfig `yaml:"observability" json:"observability"`
}

type ServerConfig struct {
	Port         int           `yaml:"port" json:"port"`
	Host         string        `yaml:"host" json:"host"`
	ReadTimeout  time.Duration `yaml:"read_timeout" json:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" json:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" json:"idle_timeout"`
	TLSEnabled   bool          `yaml:"tls_enabled" json:"tls_enabled"`
	TLSCertFile  string        `yaml:"tls_cert_file" json:"tls_cert_file"`
	TLSKeyFile   string        `yaml:"tls_key_file" json:"tls_key_file"`
	CORS         CORSConfig    `yaml:"cors" json:"cors"`
}

type CORSConfig struct {
	Enabled        bool     `yaml:"enabled" json:"enabled"`
	AllowedOrigins []string `yaml:"allowed_origins" json:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods" json:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers" json:"allowed_headers"`
	MaxAge         int      `yaml:"max_age" json:"max_age"`
}

type StorageConfig struct {
	Type             string         `yaml:"type" json:"type"`
	Database         DatabaseConfig `yaml:"database" json:"database"`
	OperationTimeout time.Duration  `yaml:"operation_timeout" json:"operation_timeout"`
}

type DatabaseConfig struct {
	DSN             string        `yaml:"dsn" json:"dsn"`
	MaxOpenConns    int           `yaml:"max_open_conns" json:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns" json:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" json:"conn_max_lifetime"`
}

// TierConfig is one sliding window: at most Limit events per Window.
type TierConfig struct {
	Limit  int           `yaml:"limit" json:"limit"`
	Window time.Duration `yaml:"window" json:"window"`
}

type RateLimitConfig struct {
	Enabled         bool          `yaml:"enabled" json:"enabled"`
	Store           string        `yaml:"store" json:"store"`
	Timeout         time.Duration `yaml:"timeout" json:"timeout"`
	CleanupInterval time.Duration `yaml:"cleanup_interval" json:"cleanup_interval"`
	Reads           TierConfig    `yaml:"reads" json:"reads"`
	SubmitBurst     TierConfig    `yaml:"submit_burst" json:"submit_burst"`
	SubmitDay       TierConfig    `yaml:"submit_day" json:"submit_day"`
	Redis           RedisConfig   `yaml:"redis" json:"redis"`
}

type RedisConfig struct {
	Addr           string        `yaml:"addr" json:"addr"`
	Username       string        `yaml:"username" json:"username"`
	Password       string        `yaml:"password" json:"password"`
	DB             int           `yaml:"db" json:"db"`
	PoolSize       int           `yaml:"pool_size" json:"pool_size"`
	DialTimeout    time.Duration `yaml:"dial_timeout" json:"dial_timeout"`
	ReadTimeout    time.Duration `yaml:"read_timeout" json:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout" json:"write_timeout"`
	ConnectTimeout time.Duration `yaml:"connect_timeout" json:"connect_timeout"`
	RetryInterval  time.Duration `yaml:"retry_interval" json:"retry_interval"`
	MaxRetryWait   time.Duration `yaml:"max_retry_wait" json:"max_retry_wait"`
}

// SecurityConfig describes how moderator identity reaches the service.
// Authentication happens upstream; the identity provider forwards the
// authenticated user in ModeratorHeader.
type SecurityConfig struct {
	ModeratorHeader string   `yaml:"moderator_header" json:"moderator_header"`
	Moderators      []string `yaml:"moderators" json:"moderators"`
}

type LoggingConfig struct {
	Level    string `yaml:"level" json:"level"`
	Format   string `yaml:"format" json:"format"`
	Output   string `yaml:"output" json:"output"`
	FilePath string `yaml:"file_path" json:"file_path"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Path    string `yaml:"path" json:"path"`
	Port    int    `yaml:"port" json:"port"`
}

type ObservabilityConfig struct {
	ServiceName string        `yaml:"service_name" json:"service_name"`
	Tracing     TracingConfig `yaml:"tracing" json:"tracing"`
}

type TracingConfig struct {
	Enabled      bool    `yaml:"enabled" json:"enabled"`
	Exporter     string  `yaml:"exporter" json:"exporter"`
	OTLPEndpoint string  `yaml:"otlp_endpoint" json:"otlp_endpoint"`
	SampleRate   float64 `yaml:"sample_rate" json:"sample_rate"`
}

// NewDefaultConfig creates a configuration with single-process defaults.
//
// Default Values:
// - Port 8080, 30-second timeouts
// - Memory storage and memory limiter store (no external dependencies)
// - reads 120/min, submit_burst 3/min, submit_day 20/24h
// - Moderator identity from X-Forwarded-User
func NewDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         8080,
			Host:         "0.0.0.0",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
			CORS: CORSConfig{
				Enabled:        true,
				AllowedOrigins: []string{"*"},
				AllowedMethods: []string{"GET", "POST", "OPTIONS"},
				AllowedHeaders: []string{"Content-Type"},
				MaxAge:         86400,
			},
		},
		Storage: StorageConfig{
			Type: StorageTypeMemory,
			Database: DatabaseConfig{
				MaxOpenConns:    25,
				MaxIdleConns:    5,
				ConnMaxLifetime: 5 * time.Minute,
			},
			OperationTimeout: 5 * time.Second,
		},
		RateLimit: RateLimitConfig{
			Enabled:         true,
			Store:           LimiterStoreMemory,
			Timeout:         2 * time.Second,
			CleanupInterval: 5 * time.Minute,
			Reads:           TierConfig{Limit: 120, Window: time.Minute},
			SubmitBurst:     TierConfig{Limit: 3, Window: time.Minute},
			SubmitDay:       TierConfig{Limit: 20, Window: 24 * time.Hour},
			Redis: RedisConfig{
				Addr:           "localhost:6379",
				PoolSize:       10,
				DialTimeout:    2 * time.Second,
				ReadTimeout:    time.Second,
				WriteTimeout:   time.Second,
				ConnectTimeout: 30 * time.Second,
				RetryInterval:  time.Second,
				MaxRetryWait:   10 * time.Second,
			},
		},
		Security: SecurityConfig{
			ModeratorHeader: "X-Forwarded-User",
			Moderators:      []string{},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Path:    "/metrics",
			Port:    9090,
		},
		Observability: ObservabilityConfig{
			ServiceName: "bookmarks",
			Tracing: TracingConfig{
				Enabled:    false,
				Exporter:   "stdout",
				SampleRate: 1.0,
			},
		},
	}
}

func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("invalid server config: %w", err)
	}

	if err := c.Storage.Validate(); err != nil {
		return fmt.Errorf("invalid storage config: %w", err)
	}

	if err := c.RateLimit.Validate(); err != nil {
		return fmt.Errorf("invalid rate limit config: %w", err)
	}

	if err := c.Security.Validate(); err != nil {
		return fmt.Errorf("invalid security config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("invalid logging config: %w", err)
	}

	if err := c.Metrics.Validate(); err != nil {
		return fmt.Errorf("invalid metrics config: %w", err)
	}

	if err := c.Observability.Validate(); err != nil {
		return fmt.Errorf("invalid observability config: %w", err)
	}

	return nil
}

func (sc *ServerConfig) Validate() error {
	if sc.Port <= 0 || sc.Port > 65535 {
		return errors.New("port must be between 1 and 65535")
	}

	if sc.Host == "" {
		return errors.New("host cannot be empty")
	}

	if sc.ReadTimeout < 0 || sc.WriteTimeout < 0 || sc.IdleTimeout < 0 {
		return errors.New("timeouts cannot be negative")
	}

	if sc.TLSEnabled {
		if sc.TLSCertFile == "" {
			return errors.New("TLS cert file is required when TLS is enabled")
		}
		if sc.TLSKeyFile == "" {
			return errors.New("TLS key file is required when TLS is enabled")
		}
	}

	return nil
}

func (stc *StorageConfig) Validate() error {
	switch stc.Type {
	case StorageTypeMemory:
	case StorageTypePostgres, StorageTypeSQLite:
		if stc.Database.DSN == "" {
			return errors.New("database DSN is required for database storage")
		}
	default:
		return fmt.Errorf("invalid storage type: %s", stc.Type)
	}

	if stc.OperationTimeout <= 0 {
		return errors.New("operation timeout must be positive")
	}

	return nil
}

func (tc TierConfig) validate(name string) error {
	if tc.Limit <= 0 {
		return fmt.Errorf("%s limit must be positive", name)
	}
	if tc.Window <= 0 {
		return fmt.Errorf("%s window must be positive", name)
	}
	return nil
}

func (rc *RateLimitConfig) Validate() error {
	if !rc.Enabled {
		return nil
	}

	switch rc.Store {
	case LimiterStoreMemory:
		if rc.CleanupInterval <= 0 {
			return errors.New("cleanup interval must be positive")
		}
	case LimiterStoreRedis:
		if rc.Redis.Addr == "" {
			return errors.New("Redis address is required when store is redis")
		}
	default:
		return fmt.Errorf("invalid limiter store: %s", rc.Store)
	}

	if rc.Timeout <= 0 {
		return errors.New("limiter timeout must be positive")
	}

	if err := rc.Reads.validate("reads"); err != nil {
		return err
	}
	if err := rc.SubmitBurst.validate("submit_burst"); err != nil {
		return err
	}
	if err := rc.SubmitDay.validate("submit_day"); err != nil {
		return err
	}

	return nil
}

func (sec *SecurityConfig) Validate() error {
	if sec.ModeratorHeader == "" {
		return errors.New("moderator header cannot be empty")
	}
	for _, m := range sec.Moderators {
		if m == "" {
			return errors.New("moderator identity cannot be empty")
		}
	}
	return nil
}

// IsModerator reports whether identity may moderate. An empty allow-list
// trusts every identity the provider forwards.
func (sec *SecurityConfig) IsModerator(identity string) bool {
	if identity == "" {
		return false
	}
	if len(sec.Moderators) == 0 {
		return true
	}
	return slices.Contains(sec.Moderators, identity)
}

func (lc *LoggingConfig) Validate() error {
	if !slices.Contains([]string{"debug", "info", "warn", "error"}, lc.Level) {
		return fmt.Errorf("invalid log level: %s", lc.Level)
	}

	if !slices.Contains([]string{"json", "text"}, lc.Format) {
		return fmt.Errorf("invalid log format: %s", lc.Format)
	}

	if !slices.Contains([]string{"stdout", "stderr", "file"}, lc.Output) {
		return fmt.Errorf("invalid log output: %s", lc.Output)
	}

	if lc.Output == "file" && lc.FilePath == "" {
		return errors.New("file path is required when output is file")
	}

	return nil
}

func (mc *MetricsConfig) Validate() error {
	if !mc.Enabled {
		return nil
	}

	if mc.Path == "" {
		return errors.New("metrics path cannot be empty")
	}

	if mc.Port <= 0 || mc.Port > 65535 {
		return errors.New("metrics port must be between 1 and 65535")
	}

	return nil
}

func (oc *ObservabilityConfig) Validate() error {
	if oc.ServiceName == "" {
		return errors.New("service name cannot be empty")
	}

	if !oc.Tracing.Enabled {
		return nil
	}

	switch oc.Tracing.Exporter {
	case "stdout":
	case "otlp":
		if oc.Tracing.OTLPEndpoint == "" {
			return errors.New("OTLP endpoint is required for the otlp exporter")
		}
	default:
		return fmt.Errorf("unsupported trace exporter: %s", oc.Tracing.Exporter)
	}

	if oc.Tracing.SampleRate < 0 || oc.Tracing.SampleRate > 1 {
		return errors.New("sample rate must be between 0 and 1")
	}

	return nil
}
