// Package config provides configuration management for camerad using Viper.
// It supports configuration from files, environment variables, and defaults.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Default configuration values.
const (
	defaultServerPort      = 3333
	defaultServerTimeout   = 30 * time.Second
	defaultShutdownTimeout = 10 * time.Second
	defaultMaxOpenConns    = 10
	defaultMaxIdleConns    = 5
	defaultConnMaxIdleTime = 30 * time.Minute
	defaultDiscoveryProbes = 50
	defaultDiscoveryDwell  = 2000 * time.Millisecond
	defaultSOAPTimeout     = 5 * time.Second
	defaultGPUCacheTTL     = time.Hour
)

// Config holds all configuration for the application.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	FFmpeg    FFmpegConfig    `mapstructure:"ffmpeg"`
	ONVIF     ONVIFConfig     `mapstructure:"onvif"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
}

// ServerConfig holds HTTP server configuration for the stream/recording file
// server and the control API.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
}

// DatabaseConfig holds database connection configuration.
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"` // sqlite, postgres, mysql
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	LogLevel        string        `mapstructure:"log_level"` // silent, error, warn, info
}

// StorageConfig holds on-disk layout for HLS segments, recordings, and thumbnails.
type StorageConfig struct {
	BaseDir        string `mapstructure:"base_dir"`
	StreamDir      string `mapstructure:"stream_dir"`
	RecordingDir   string `mapstructure:"recording_dir"`
	ThumbnailDir   string `mapstructure:"thumbnail_dir"`
}

// StreamPath returns the directory holding live HLS segments.
func (c *StorageConfig) StreamPath() string {
	return fmt.Sprintf("%s/%s", c.BaseDir, c.StreamDir)
}

// RecordingPath returns the directory holding recording output (temp and final).
func (c *StorageConfig) RecordingPath() string {
	return fmt.Sprintf("%s/%s", c.BaseDir, c.RecordingDir)
}

// ThumbnailPath returns the directory holding recording thumbnails.
func (c *StorageConfig) ThumbnailPath() string {
	return fmt.Sprintf("%s/%s", c.BaseDir, c.ThumbnailDir)
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level                string `mapstructure:"level"`  // debug, info, warn, error
	Format               string `mapstructure:"format"` // json, text
	AddSource            bool   `mapstructure:"add_source"`
	TimeFormat           string `mapstructure:"time_format"`
	EnableRequestLogging bool   `mapstructure:"enable_request_logging"`
}

// FFmpegConfig holds transcoder binary and GPU-probe configuration.
type FFmpegConfig struct {
	BinaryPath  string        `mapstructure:"binary_path"` // empty = auto-detect on PATH
	GPUCacheTTL time.Duration `mapstructure:"gpu_cache_ttl"`
}

// ONVIFConfig holds WS-Discovery and SOAP client tuning.
type ONVIFConfig struct {
	DiscoveryConcurrency int           `mapstructure:"discovery_concurrency"`
	DiscoveryTimeout     time.Duration `mapstructure:"discovery_timeout"`
	SOAPTimeout          time.Duration `mapstructure:"soap_timeout"`
}

// SchedulerConfig holds the cron engine's timezone.
type SchedulerConfig struct {
	Timezone string `mapstructure:"timezone"`
}

// Load reads configuration from file and environment variables.
// Environment variables take precedence over file configuration.
// Environment variables are prefixed with CAMERAD_ and use underscores for nesting.
// Example: CAMERAD_SERVER_PORT=3333.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	SetDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/camerad")
		v.AddConfigPath("$HOME/.camerad")
	}

	v.SetEnvPrefix("CAMERAD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// SetDefaults configures default values for all configuration options.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", defaultServerPort)
	v.SetDefault("server.read_timeout", defaultServerTimeout)
	v.SetDefault("server.write_timeout", defaultServerTimeout)
	v.SetDefault("server.shutdown_timeout", defaultShutdownTimeout)
	v.SetDefault("server.cors_origins", []string{"*"})

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "camerad.db")
	v.SetDefault("database.max_open_conns", defaultMaxOpenConns)
	v.SetDefault("database.max_idle_conns", defaultMaxIdleConns)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("database.conn_max_idle_time", defaultConnMaxIdleTime)
	v.SetDefault("database.log_level", "warn")

	v.SetDefault("storage.base_dir", "./data")
	v.SetDefault("storage.stream_dir", "streams")
	v.SetDefault("storage.recording_dir", "recordings")
	v.SetDefault("storage.thumbnail_dir", "thumbnails")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.add_source", false)
	v.SetDefault("logging.time_format", time.RFC3339)
	v.SetDefault("logging.enable_request_logging", true)

	v.SetDefault("ffmpeg.binary_path", "")
	v.SetDefault("ffmpeg.gpu_cache_ttl", defaultGPUCacheTTL)

	v.SetDefault("onvif.discovery_concurrency", defaultDiscoveryProbes)
	v.SetDefault("onvif.discovery_timeout", defaultDiscoveryDwell)
	v.SetDefault("onvif.soap_timeout", defaultSOAPTimeout)

	v.SetDefault("scheduler.timezone", "Asia/Tokyo")
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	const maxPort = 65535
	if c.Server.Port < 1 || c.Server.Port > maxPort {
		return fmt.Errorf("server.port must be between 1 and %d", maxPort)
	}

	validDrivers := map[string]bool{"sqlite": true, "postgres": true, "mysql": true}
	if !validDrivers[c.Database.Driver] {
		return fmt.Errorf("database.driver must be one of: sqlite, postgres, mysql")
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required")
	}

	if c.Storage.BaseDir == "" {
		return fmt.Errorf("storage.base_dir is required")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	if c.ONVIF.DiscoveryConcurrency < 1 {
		return fmt.Errorf("onvif.discovery_concurrency must be at least 1")
	}

	if _, err := time.LoadLocation(c.Scheduler.Timezone); err != nil {
		return fmt.Errorf("scheduler.timezone is invalid: %w", err)
	}

	return nil
}

// Address returns the server address in host:port format.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
