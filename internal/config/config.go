package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Kiosk    KioskConfig    `mapstructure:"kiosk"`
	Logger   LoggerConfig   `mapstructure:"logger"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Addr returns host:port for the listener
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// KioskConfig holds check-in workflow configuration
type KioskConfig struct {
	PollInterval        time.Duration `mapstructure:"poll_interval"`
	StoreTimeout        time.Duration `mapstructure:"store_timeout"`
	SessionIdleTimeout  time.Duration `mapstructure:"session_idle_timeout"`
	ReapInterval        time.Duration `mapstructure:"reap_interval"`
	DefaultSiteID       string        `mapstructure:"default_site_id"`
	PhotoCaptureEnabled bool          `mapstructure:"photo_capture_enabled"`
	Timezone            string        `mapstructure:"timezone"`
}

// Location resolves the export timezone, falling back to UTC
func (k KioskConfig) Location() *time.Location {
	if k.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(k.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// MetricsConfig holds the prometheus endpoint configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// Load loads configuration from file and environment variables.
// A missing file leaves the defaults in place.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if configPath != "" {
		v.SetConfigFile(configPath)
	}

	setDefaults(v)

	v.SetEnvPrefix("KIOSK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := bindEnvVars(v); err != nil {
		return nil, err
	}

	if configPath != "" {
		if err := v.ReadInConfig(); err != nil && !isNotFound(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func isNotFound(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	return errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist)
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	// Database defaults
	v.SetDefault("database.path", "data/kiosk.db")
	v.SetDefault("database.max_open_conns", 4)
	v.SetDefault("database.max_idle_conns", 2)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)

	// Kiosk defaults
	v.SetDefault("kiosk.poll_interval", 5*time.Second)
	v.SetDefault("kiosk.store_timeout", 10*time.Second)
	v.SetDefault("kiosk.session_idle_timeout", 30*time.Minute)
	v.SetDefault("kiosk.reap_interval", time.Minute)
	v.SetDefault("kiosk.default_site_id", "hq")
	v.SetDefault("kiosk.photo_capture_enabled", false)
	v.SetDefault("kiosk.timezone", "UTC")

	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.output_path", "stdout")
	v.SetDefault("logger.format", "json")

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
}

// bindEnvVars binds the short environment names used in deployments
func bindEnvVars(v *viper.Viper) error {
	bindings := map[string]string{
		"database.path": "KIOSK_DB_PATH",
		"server.port":   "KIOSK_PORT",
		"logger.level":  "KIOSK_LOG_LEVEL",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}
	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}
	if c.Kiosk.PollInterval <= 0 {
		return fmt.Errorf("kiosk.poll_interval must be positive")
	}
	if c.Kiosk.SessionIdleTimeout <= 0 {
		return fmt.Errorf("kiosk.session_idle_timeout must be positive")
	}
	if c.Kiosk.ReapInterval <= 0 {
		return fmt.Errorf("kiosk.reap_interval must be positive")
	}
	if strings.TrimSpace(c.Kiosk.DefaultSiteID) == "" {
		return fmt.Errorf("kiosk.default_site_id is required")
	}
	if c.Kiosk.Timezone != "" {
		if _, err := time.LoadLocation(c.Kiosk.Timezone); err != nil {
			return fmt.Errorf("kiosk.timezone: %w", err)
		}
	}
	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		return fmt.Errorf("metrics.path must start with /")
	}
	return nil
}
