package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"mediasync/internal/domain"
)

const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
)

type Config struct {
	Store     StoreConfig      `yaml:"store"`
	API       APIConfig        `yaml:"api"`
	Telemetry TelemetryConfig  `yaml:"telemetry"`
	Sync      SyncConfig       `yaml:"sync"`
	Channels  []domain.Channel `yaml:"channels"`
	LogLevel  string           `yaml:"log_level"`
}

type StoreConfig struct {
	Backend  string         `yaml:"backend"` // "file" or "postgres"
	File     FileConfig     `yaml:"file"`
	Database DatabaseConfig `yaml:"database"`
}

type FileConfig struct {
	Dir string `yaml:"dir"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// URL renders the connection string form golang-migrate expects.
func (d DatabaseConfig) URL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type APIConfig struct {
	BaseURL string        `yaml:"base_url"`
	Key     string        `yaml:"key"`
	Timeout time.Duration `yaml:"timeout"`
	Retry   RetryConfig   `yaml:"retry"`
}

type RetryConfig struct {
	MaxAttempts    int           `yaml:"max_attempts"`
	InitialBackoff time.Duration `yaml:"initial_backoff"`
	MaxBackoff     time.Duration `yaml:"max_backoff"`
}

// TelemetryConfig is optional; an empty URL disables the sink.
type TelemetryConfig struct {
	URL        string `yaml:"url"`
	Exchange   string `yaml:"exchange"`
	RoutingKey string `yaml:"routing_key"`
	QueueName  string `yaml:"queue_name"`
}

type SyncConfig struct {
	Interval time.Duration `yaml:"interval"`
}

func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.setDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) setDefaults() {
	if c.Store.Backend == "" {
		c.Store.Backend = BackendFile
	}
	if c.Store.File.Dir == "" {
		c.Store.File.Dir = "data"
	}
	if c.Store.Database.SSLMode == "" {
		c.Store.Database.SSLMode = "disable"
	}
	if c.Store.Database.Port == 0 {
		c.Store.Database.Port = 5432
	}
	if c.API.Timeout == 0 {
		c.API.Timeout = 30 * time.Second
	}
	if c.API.Retry.MaxAttempts == 0 {
		c.API.Retry.MaxAttempts = 3
	}
	if c.API.Retry.InitialBackoff == 0 {
		c.API.Retry.InitialBackoff = 1 * time.Second
	}
	if c.API.Retry.MaxBackoff == 0 {
		c.API.Retry.MaxBackoff = 30 * time.Second
	}
	if c.Telemetry.Exchange == "" {
		c.Telemetry.Exchange = "mediasync"
	}
	if c.Telemetry.RoutingKey == "" {
		c.Telemetry.RoutingKey = "sync_events"
	}
	if c.Telemetry.QueueName == "" {
		c.Telemetry.QueueName = "sync_events"
	}
	if c.Sync.Interval == 0 {
		c.Sync.Interval = 6 * time.Hour
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// validate enforces the startup-fatal requirements: an API key and a usable
// store configuration.
func (c *Config) validate() error {
	if c.API.Key == "" {
		return fmt.Errorf("api key not set")
	}

	switch c.Store.Backend {
	case BackendFile:
		// dir is defaulted, nothing else required
	case BackendPostgres:
		if c.Store.Database.Host == "" || c.Store.Database.User == "" || c.Store.Database.DBName == "" {
			return fmt.Errorf("postgres backend requires host, user and dbname")
		}
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}

	for _, ch := range c.Channels {
		if ch.Slug == "" {
			return fmt.Errorf("channel with empty slug")
		}
	}
	return nil
}
