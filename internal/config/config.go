// Package config loads greeter configuration from defaults, an optional
// YAML file and GREETER_* environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g. GREETER_REDIS_HOST
const EnvPrefix = "GREETER"

// Config represents the application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server" yaml:"server" validate:"required"`
	Log      LogConfig      `mapstructure:"log" yaml:"log" validate:"required"`
	Redis    RedisConfig    `mapstructure:"redis" yaml:"redis" validate:"required"`
	Database DatabaseConfig `mapstructure:"database" yaml:"database" validate:"required"`
	Tracing  TracingConfig  `mapstructure:"tracing" yaml:"tracing"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host" yaml:"host"`
	Port            int           `mapstructure:"port" yaml:"port" validate:"required,min=1,max=65535"`
	Mode            string        `mapstructure:"mode" yaml:"mode" validate:"oneof=debug release test"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" yaml:"read_timeout" validate:"gt=0"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" yaml:"write_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" validate:"gt=0"`
}

// Addr returns the listen address
func (c ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" yaml:"format" validate:"oneof=json console"`
}

// RedisConfig holds cache configuration
type RedisConfig struct {
	Host     string        `mapstructure:"host" yaml:"host" validate:"required"`
	Port     int           `mapstructure:"port" yaml:"port" validate:"required,min=1,max=65535"`
	Password string        `mapstructure:"password" yaml:"password"`
	DB       int           `mapstructure:"db" yaml:"db" validate:"min=0"`
	Key      string        `mapstructure:"key" yaml:"key" validate:"required"`
	Timeout  time.Duration `mapstructure:"timeout" yaml:"timeout" validate:"gt=0"`
}

// Addr returns host:port of the cache
func (c RedisConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// DatabaseConfig holds relational database configuration. Path is only
// used by the sqlite driver, the network fields by the others.
type DatabaseConfig struct {
	Driver   string        `mapstructure:"driver" yaml:"driver" validate:"oneof=mysql postgres sqlite"`
	Host     string        `mapstructure:"host" yaml:"host" validate:"required_unless=Driver sqlite"`
	Port     int           `mapstructure:"port" yaml:"port" validate:"required_unless=Driver sqlite,max=65535"`
	User     string        `mapstructure:"user" yaml:"user" validate:"required_unless=Driver sqlite"`
	Password string        `mapstructure:"password" yaml:"password"`
	Name     string        `mapstructure:"name" yaml:"name" validate:"required_unless=Driver sqlite"`
	SSLMode  string        `mapstructure:"ssl_mode" yaml:"ssl_mode"`
	Path     string        `mapstructure:"path" yaml:"path" validate:"required_if=Driver sqlite"`
	Timeout  time.Duration `mapstructure:"timeout" yaml:"timeout" validate:"gt=0"`
}

// Addr returns host:port of the database server
func (c DatabaseConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// TracingConfig holds OpenTelemetry configuration
type TracingConfig struct {
	Enabled     bool   `mapstructure:"enabled" yaml:"enabled"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name" validate:"required_if=Enabled true"`
}

var defaults = map[string]any{
	"server.host":             "0.0.0.0",
	"server.port":             8088,
	"server.mode":             "release",
	"server.read_timeout":     10 * time.Second,
	"server.write_timeout":    30 * time.Second,
	"server.shutdown_timeout": 15 * time.Second,

	"log.level":  "info",
	"log.format": "json",

	"redis.host":     "redis",
	"redis.port":     6379,
	"redis.password": "",
	"redis.db":       0,
	"redis.key":      "message",
	"redis.timeout":  3 * time.Second,

	"database.driver":   "mysql",
	"database.host":     "mysql",
	"database.port":     3306,
	"database.user":     "app_user",
	"database.password": "app_password",
	"database.name":     "app_db",
	"database.ssl_mode": "disable",
	"database.path":     "",
	"database.timeout":  5 * time.Second,

	"tracing.enabled":      false,
	"tracing.service_name": "greeter",
}

// DefaultSearchPaths are tried in order when no explicit file is given
var DefaultSearchPaths = []string{".", "./config", "/etc/greeter"}

// Load builds the configuration. When file is empty the default search
// paths are scanned for config.yaml and a missing file is not an error.
func Load(file string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigType("yaml")
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", file, err)
		}
	} else {
		v.SetConfigName("config")
		for _, path := range DefaultSearchPaths {
			v.AddConfigPath(path)
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks field constraints
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	return nil
}
