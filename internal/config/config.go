// Package config loads service configuration from a YAML file and
// BOOKMARKS_* environment variables. Environment values override the file;
// both override the defaults of models.NewDefaultConfig.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"bookmarks/internal/models"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "BOOKMARKS_"

// Load loads configuration from file and environment variables
func Load(configPath string) (*models.Config, error) {
	config := models.NewDefaultConfig()

	if configPath != "" {
		if err := loadFromFile(config, configPath); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	loadFromEnvironment(config)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// loadFromFile loads configuration from a YAML file
func loadFromFile(config *models.Config, filePath string) error {
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return fmt.Errorf("config file not found: %s", filePath)
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, config); err != nil {
		return fmt.Errorf("failed to parse YAML config: %w", err)
	}
	return nil
}

// loadFromEnvironment applies BOOKMARKS_* overrides. Unparsable values are
// logged and ignored so the file or default value stays in effect.
func loadFromEnvironment(config *models.Config) {
	// Server configuration
	envInt("PORT", &config.Server.Port)
	envString("HOST", &config.Server.Host)
	envDuration("READ_TIMEOUT", &config.Server.ReadTimeout)
	envDuration("WRITE_TIMEOUT", &config.Server.WriteTimeout)
	envDuration("IDLE_TIMEOUT", &config.Server.IdleTimeout)
	envBool("TLS_ENABLED", &config.Server.TLSEnabled)
	envString("TLS_CERT_FILE", &config.Server.TLSCertFile)
	envString("TLS_KEY_FILE", &config.Server.TLSKeyFile)
	envBool("CORS_ENABLED", &config.Server.CORS.Enabled)
	envList("CORS_ALLOWED_ORIGINS", &config.Server.CORS.AllowedOrigins)

	// Storage configuration
	envString("STORAGE_TYPE", &config.Storage.Type)
	envString("DATABASE_DSN", &config.Storage.Database.DSN)
	envInt("DATABASE_MAX_OPEN_CONNS", &config.Storage.Database.MaxOpenConns)
	envInt("DATABASE_MAX_IDLE_CONNS", &config.Storage.Database.MaxIdleConns)
	envDuration("DATABASE_CONN_MAX_LIFETIME", &config.Storage.Database.ConnMaxLifetime)
	envDuration("STORAGE_OPERATION_TIMEOUT", &config.Storage.OperationTimeout)

	// Rate limit configuration
	envBool("RATE_LIMIT_ENABLED", &config.RateLimit.Enabled)
	envString("RATE_LIMIT_STORE", &config.RateLimit.Store)
	envDuration("RATE_LIMIT_TIMEOUT", &config.RateLimit.Timeout)
	envInt("RATE_LIMIT_READS_LIMIT", &config.RateLimit.Reads.Limit)
	envDuration("RATE_LIMIT_READS_WINDOW", &config.RateLimit.Reads.Window)
	envInt("RATE_LIMIT_SUBMIT_BURST_LIMIT", &config.RateLimit.SubmitBurst.Limit)
	envDuration("RATE_LIMIT_SUBMIT_BURST_WINDOW", &config.RateLimit.SubmitBurst.Window)
	envInt("RATE_LIMIT_SUBMIT_DAY_LIMIT", &config.RateLimit.SubmitDay.Limit)
	envDuration("RATE_LIMIT_SUBMIT_DAY_WINDOW", &config.RateLimit.SubmitDay.Window)

	// Redis configuration
	envString("REDIS_ADDR", &config.RateLimit.Redis.Addr)
	envString("REDIS_USERNAME", &config.RateLimit.Redis.Username)
	envString("REDIS_PASSWORD", &config.RateLimit.Redis.Password)
	envInt("REDIS_DB", &config.RateLimit.Redis.DB)
	envInt("REDIS_POOL_SIZE", &config.RateLimit.Redis.PoolSize)
	envDuration("REDIS_CONNECT_TIMEOUT", &config.RateLimit.Redis.ConnectTimeout)

	// Security configuration
	envString("MODERATOR_HEADER", &config.Security.ModeratorHeader)
	envList("MODERATORS", &config.Security.Moderators)

	// Logging configuration
	envString("LOG_LEVEL", &config.Logging.Level)
	envString("LOG_FORMAT", &config.Logging.Format)
	envString("LOG_OUTPUT", &config.Logging.Output)
	envString("LOG_FILE_PATH", &config.Logging.FilePath)

	// Metrics and tracing configuration
	envBool("METRICS_ENABLED", &config.Metrics.Enabled)
	envString("METRICS_PATH", &config.Metrics.Path)
	envInt("METRICS_PORT", &config.Metrics.Port)
	envBool("TRACING_ENABLED", &config.Observability.Tracing.Enabled)
	envString("TRACING_EXPORTER", &config.Observability.Tracing.Exporter)
	envString("TRACING_OTLP_ENDPOINT", &config.Observability.Tracing.OTLPEndpoint)
	envFloat("TRACING_SAMPLE_RATE", &config.Observability.Tracing.SampleRate)
}

func lookup(name string) (string, bool) {
	v, ok := os.LookupEnv(EnvPrefix + name)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

func ignored(name, value string, err error) {
	slog.Warn("Ignoring invalid environment override", "variable", EnvPrefix+name, "value", value, "error", err)
}

func envString(name string, dst *string) {
	if v, ok := lookup(name); ok {
		*dst = v
	}
}

func envInt(name string, dst *int) {
	if v, ok := lookup(name); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			ignored(name, v, err)
			return
		}
		*dst = n
	}
}

func envFloat(name string, dst *float64) {
	if v, ok := lookup(name); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			ignored(name, v, err)
			return
		}
		*dst = f
	}
}

func envBool(name string, dst *bool) {
	if v, ok := lookup(name); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			ignored(name, v, err)
			return
		}
		*dst = b
	}
}

func envDuration(name string, dst *time.Duration) {
	if v, ok := lookup(name); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			ignored(name, v, err)
			return
		}
		*dst = d
	}
}

// envList reads a comma separated list, dropping blank entries.
func envList(name string, dst *[]string) {
	if v, ok := lookup(name); ok {
		var items []string
		for _, item := range strings.Split(v, ",") {
			if item = strings.TrimSpace(item); item != "" {
				items = append(items, item)
			}
		}
		*dst = items
	}
}

// SaveExample saves an example configuration file
func SaveExample(filePath string) error {
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	config := models.NewDefaultConfig()

	config.Storage.Type = models.StorageTypeSQLite
	config.Storage.Database.DSN = "file:/var/lib/bookmarks/bookmarks.db"
	config.Security.Moderators = []string{"alice@example.com"}
	config.Server.TLSCertFile = "/path/to/cert.pem"
	config.Server.TLSKeyFile = "/path/to/key.pem"

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
