// Package config provides configuration management using Viper.
// It loads configuration from environment variables, .env files, and config files.
package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	defaultServerPort                = 8080
	defaultServerHost                = "0.0.0.0"
	defaultReadTimeout               = 30 * time.Second
	defaultWriteTimeout              = 30 * time.Second
	defaultShutdownTimeout           = 10 * time.Second
	defaultDatabasePath              = "./data/snapback.db"
	defaultDatabaseConnectionTimeout = 5 * time.Second
	defaultDatabaseEnableWAL         = true
	defaultMigrationsPath            = "file://./migrations"
	defaultLogLevel                  = "info"
	defaultLogPretty                 = false
	defaultCuepointToleranceMs       = 1.0
	defaultMaxSessions               = 1000
	defaultRequestTimeout            = 5 * time.Second
	defaultSessionIdleTimeout        = 30 * time.Minute
	defaultCleanupInterval           = time.Minute
	defaultMetricsEnabled            = true
	defaultMetricsPath               = "/metrics"
	envPrefix                        = "SNAPBACK"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Logging  LoggingConfig
	Playback PlaybackConfig
	Metrics  MetricsConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            int
	Host            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	Path              string
	ConnectionTimeout time.Duration
	EnableWAL         bool
	MigrationsPath    string
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Pretty bool
}

// PlaybackConfig holds playback session configuration
type PlaybackConfig struct {
	// CuepointToleranceMs is the window for matching a played break to a cuepoint start
	CuepointToleranceMs float64
	// MaxSessions caps the number of concurrently registered sessions
	MaxSessions int
	// RequestTimeout bounds database work done on behalf of one API request
	RequestTimeout time.Duration
	// SessionIdleTimeout ends sessions that saw no calls for this long
	SessionIdleTimeout time.Duration
	// CleanupInterval is how often idle sessions are looked for
	CleanupInterval time.Duration
}

// MetricsConfig holds Prometheus exposition configuration
type MetricsConfig struct {
	Enabled bool
	Path    string
}

// CuepointTolerance returns the cuepoint matching tolerance in seconds
func (p PlaybackConfig) CuepointTolerance() float64 {
	return p.CuepointToleranceMs / 1000
}

// Load reads configuration from .env file, config files, environment variables, and defaults
func Load() (*Config, error) {
	// .env files are optional in production and CI where env vars are set directly
	_ = godotenv.Load() // nolint:errcheck // .env file is optional

	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/snapback")

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults configures default values for all configuration options
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", defaultServerPort)
	v.SetDefault("server.host", defaultServerHost)
	v.SetDefault("server.readtimeout", defaultReadTimeout)
	v.SetDefault("server.writetimeout", defaultWriteTimeout)
	v.SetDefault("server.shutdowntimeout", defaultShutdownTimeout)

	v.SetDefault("database.path", defaultDatabasePath)
	v.SetDefault("database.connectiontimeout", defaultDatabaseConnectionTimeout)
	v.SetDefault("database.enablewal", defaultDatabaseEnableWAL)
	v.SetDefault("database.migrationspath", defaultMigrationsPath)

	v.SetDefault("logging.level", defaultLogLevel)
	v.SetDefault("logging.pretty", defaultLogPretty)

	v.SetDefault("playback.cuepointtolerancems", defaultCuepointToleranceMs)
	v.SetDefault("playback.maxsessions", defaultMaxSessions)
	v.SetDefault("playback.requesttimeout", defaultRequestTimeout)
	v.SetDefault("playback.sessionidletimeout", defaultSessionIdleTimeout)
	v.SetDefault("playback.cleanupinterval", defaultCleanupInterval)

	v.SetDefault("metrics.enabled", defaultMetricsEnabled)
	v.SetDefault("metrics.path", defaultMetricsPath)
}

// Validate checks that configuration values are valid
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be between 1 and 65535)", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("invalid read timeout: %v (must be > 0)", c.Server.ReadTimeout)
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("invalid write timeout: %v (must be > 0)", c.Server.WriteTimeout)
	}
	if c.Server.ShutdownTimeout < 0 {
		return fmt.Errorf("invalid shutdown timeout: %v (must be >= 0)", c.Server.ShutdownTimeout)
	}
	if c.Database.ConnectionTimeout <= 0 {
		return fmt.Errorf("invalid database connection timeout: %v (must be > 0)", c.Database.ConnectionTimeout)
	}
	if strings.TrimSpace(c.Database.Path) == "" {
		return errors.New("database path cannot be empty")
	}

	validLevels := []string{"debug", "info", "warn", "error"}
	if !slices.Contains(validLevels, c.Logging.Level) {
		return fmt.Errorf("invalid log level: %s (must be one of: %s)", c.Logging.Level, strings.Join(validLevels, ", "))
	}

	// Tolerances above one second would let a played break match its neighbour
	if c.Playback.CuepointToleranceMs <= 0 || c.Playback.CuepointToleranceMs > 1000 {
		return fmt.Errorf("invalid cuepoint tolerance: %vms (must be > 0 and <= 1000)", c.Playback.CuepointToleranceMs)
	}
	if c.Playback.MaxSessions < 1 {
		return fmt.Errorf("invalid max sessions: %d (must be >= 1)", c.Playback.MaxSessions)
	}
	if c.Playback.RequestTimeout <= 0 {
		return fmt.Errorf("invalid request timeout: %v (must be > 0)", c.Playback.RequestTimeout)
	}
	if c.Playback.SessionIdleTimeout <= 0 {
		return fmt.Errorf("invalid session idle timeout: %v (must be > 0)", c.Playback.SessionIdleTimeout)
	}
	if c.Playback.CleanupInterval <= 0 {
		return fmt.Errorf("invalid cleanup interval: %v (must be > 0)", c.Playback.CleanupInterval)
	}

	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		return fmt.Errorf("invalid metrics path: %q (must start with /)", c.Metrics.Path)
	}

	return nil
}
