package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config holds the complete application configuration.
type Config struct {
	Extraction ExtractionConfig `mapstructure:"extraction" yaml:"extraction"`
	Output     OutputConfig     `mapstructure:"output"     yaml:"output"`
	Batch      BatchConfig      `mapstructure:"batch"      yaml:"batch"`
	Watch      WatchConfig      `mapstructure:"watch"      yaml:"watch"`
	Database   DatabaseConfig   `mapstructure:"database"   yaml:"database"`
	NATS       NATSConfig       `mapstructure:"nats"       yaml:"nats"`
	Metrics    MetricsConfig    `mapstructure:"metrics"    yaml:"metrics"`
	Log        LogConfig        `mapstructure:"log"        yaml:"log"`
}

// ExtractionConfig holds engine and service options.
type ExtractionConfig struct {
	Strict           bool `mapstructure:"strict"             yaml:"strict"`
	DepthAwareParams bool `mapstructure:"depth_aware_params" yaml:"depth_aware_params"`
	IncludeSelectors bool `mapstructure:"include_selectors"  yaml:"include_selectors"`
	MaxSourceBytes   int  `mapstructure:"max_source_bytes"   yaml:"max_source_bytes"`
}

// OutputConfig holds ABI output configuration.
type OutputConfig struct {
	Format string `mapstructure:"format" yaml:"format"` // json, yaml
	Path   string `mapstructure:"path"   yaml:"path"`   // "" or "-" for stdout
	Pretty bool   `mapstructure:"pretty" yaml:"pretty"`
}

// BatchConfig holds batch extraction configuration.
type BatchConfig struct {
	Concurrency int    `mapstructure:"concurrency" yaml:"concurrency"`
	Pattern     string `mapstructure:"pattern"     yaml:"pattern"`
}

// WatchConfig holds watch mode configuration.
type WatchConfig struct {
	Debounce time.Duration `mapstructure:"debounce" yaml:"debounce"`
}

// DatabaseConfig holds database configuration.
type DatabaseConfig struct {
	Host           string `mapstructure:"host"            yaml:"host"`
	Port           int    `mapstructure:"port"            yaml:"port"`
	User           string `mapstructure:"user"            yaml:"user"`
	Password       string `mapstructure:"password"        yaml:"password"`
	Name           string `mapstructure:"name"            yaml:"name"`
	SSLMode        string `mapstructure:"sslmode"         yaml:"sslmode"`
	Schema         string `mapstructure:"schema"          yaml:"schema"`
	MaxConnections int    `mapstructure:"max_connections" yaml:"max_connections"`
}

// DSN returns the database connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// NATSConfig holds NATS configuration.
type NATSConfig struct {
	URL           string        `mapstructure:"url"            yaml:"url"`
	MaxReconnects int           `mapstructure:"max_reconnects" yaml:"max_reconnects"`
	ReconnectWait time.Duration `mapstructure:"reconnect_wait" yaml:"reconnect_wait"`
	SubjectPrefix string        `mapstructure:"subject_prefix" yaml:"subject_prefix"`
	QueueGroup    string        `mapstructure:"queue_group"    yaml:"queue_group"`
}

// MetricsConfig holds OpenTelemetry metrics configuration.
type MetricsConfig struct {
	Enabled     bool   `mapstructure:"enabled"      yaml:"enabled"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
	Addr        string `mapstructure:"addr"         yaml:"addr"` // served by long-running commands
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("extraction.strict", false)
	v.SetDefault("extraction.depth_aware_params", false)
	v.SetDefault("extraction.include_selectors", false)
	v.SetDefault("extraction.max_source_bytes", 4<<20)

	v.SetDefault("output.format", "json")
	v.SetDefault("output.path", "")
	v.SetDefault("output.pretty", true)

	v.SetDefault("batch.concurrency", 4)
	v.SetDefault("batch.pattern", "*.rs")

	v.SetDefault("watch.debounce", "300ms")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "contractabi")
	v.SetDefault("database.name", "contractabi")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.schema", "contractabi")
	v.SetDefault("database.max_connections", 10)

	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("nats.max_reconnects", 5)
	v.SetDefault("nats.reconnect_wait", "2s")
	v.SetDefault("nats.subject_prefix", "abi")
	v.SetDefault("nats.queue_group", "abi-workers")

	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.service_name", "contractabi")
	v.SetDefault("metrics.addr", ":9464")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// New creates a new Config instance from Viper.
func New(v *viper.Viper) *Config {
	config, err := Load(v)
	if err != nil {
		panic(err)
	}
	return config
}

// Load decodes and validates the configuration held by v.
func Load(v *viper.Viper) (*Config, error) {
	var config Config

	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Extraction.MaxSourceBytes < 0 {
		return errors.New("extraction.max_source_bytes cannot be negative")
	}

	if !slices.Contains([]string{"json", "yaml"}, strings.ToLower(c.Output.Format)) {
		return fmt.Errorf("output.format must be json or yaml, got %q", c.Output.Format)
	}

	if c.Batch.Concurrency < 1 {
		return errors.New("batch.concurrency must be at least 1")
	}

	if c.Watch.Debounce < 0 {
		return errors.New("watch.debounce cannot be negative")
	}

	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return errors.New("database.port must be between 1 and 65535")
	}

	if c.NATS.SubjectPrefix == "" {
		return errors.New("nats.subject_prefix is required")
	}

	if !slices.Contains([]string{"debug", "info", "warn", "error"}, strings.ToLower(c.Log.Level)) {
		return fmt.Errorf("log.level must be one of debug, info, warn, error, got %q", c.Log.Level)
	}

	return nil
}

// Dump renders the configuration as YAML with the database password masked.
func (c *Config) Dump() ([]byte, error) {
	masked := *c
	if masked.Database.Password != "" {
		masked.Database.Password = "****"
	}
	return yaml.Marshal(masked)
}
