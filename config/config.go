package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config struct to hold the configuration settings
type Config struct {
	Postgres      PostgresConfig      `yaml:"postgres"`
	NATS          NATSConfig          `yaml:"nats"`
	HTTP          HTTPConfig          `yaml:"http"`
	Auth          AuthConfig          `yaml:"auth"`
	Draw          DrawConfig          `yaml:"draw"`
	Broadcast     BroadcastConfig     `yaml:"broadcast"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// PostgresConfig holds Postgres configuration.
type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

// NATSConfig holds NATS configuration. An empty URL keeps broadcasts
// in-process.
type NATSConfig struct {
	URL string `yaml:"url"`
}

// HTTPConfig holds the admin API listener settings.
type HTTPConfig struct {
	Addr      string  `yaml:"addr"`
	RateLimit float64 `yaml:"rate_limit"`
	RateBurst int     `yaml:"rate_burst"`
}

// AuthConfig holds the token signing secret.
type AuthConfig struct {
	SecretKey  string        `yaml:"secret_key"`
	DefaultTTL time.Duration `yaml:"default_ttl"`
}

// DrawConfig holds draw generation settings.
type DrawConfig struct {
	TicketTTL time.Duration `yaml:"ticket_ttl"`
	// Workers bounds concurrent background draw jobs.
	Workers int `yaml:"workers"`
}

// BroadcastConfig holds the change-notification fan-out settings.
type BroadcastConfig struct {
	Capacity int `yaml:"capacity"`
}

// ObservabilityConfig holds configuration for observability components
type ObservabilityConfig struct {
	LogLevel       string `yaml:"log_level"`
	MetricsAddress string `yaml:"metrics_address"`
	Environment    string `yaml:"environment"`
}

const (
	defaultHTTPAddr          = ":8080"
	defaultTicketTTL         = 2 * time.Minute
	defaultTokenTTL          = 24 * time.Hour
	defaultBroadcastCapacity = 1000
	defaultRateLimit         = 10
	defaultRateBurst         = 20
	defaultDrawWorkers       = 4
)

// LoadConfig loads the configuration from a YAML file.
func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		// No file: environment only.
		return loadConfigFromEnv()
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// loadConfigFromEnv loads the configuration from environment variables.
func loadConfigFromEnv() (*Config, error) {
	var cfg Config
	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the required settings.
func (c *Config) Validate() error {
	if c.Postgres.DSN == "" {
		return fmt.Errorf("DATABASE_URL environment variable not set")
	}
	if c.Auth.SecretKey == "" {
		return fmt.Errorf("SECRET_KEY environment variable not set")
	}
	if c.Draw.TicketTTL <= 0 {
		return fmt.Errorf("draw ticket ttl must be positive, got %s", c.Draw.TicketTTL)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Postgres.DSN = v
	}
	if v := os.Getenv("NATS_URL"); v != "" {
		cfg.NATS.URL = v
	}
	if v := os.Getenv("SECRET_KEY"); v != "" {
		cfg.Auth.SecretKey = v
	}
	if v := os.Getenv("TOKEN_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid TOKEN_TTL value: %v", err)
		}
		cfg.Auth.DefaultTTL = d
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Observability.LogLevel = v
	}
	if v := os.Getenv("METRICS_ADDRESS"); v != "" {
		cfg.Observability.MetricsAddress = v
	}
	if v := os.Getenv("ENV"); v != "" {
		cfg.Observability.Environment = v
	}
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		cfg.HTTP.Addr = v
	}
	if v := os.Getenv("API_RATE_LIMIT"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid API_RATE_LIMIT value: %v", err)
		}
		cfg.HTTP.RateLimit = f
	}
	if v := os.Getenv("API_RATE_BURST"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid API_RATE_BURST value: %v", err)
		}
		cfg.HTTP.RateBurst = n
	}
	if v := os.Getenv("DRAW_TICKET_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid DRAW_TICKET_TTL value: %v", err)
		}
		cfg.Draw.TicketTTL = d
	}
	if v := os.Getenv("DRAW_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid DRAW_WORKERS value: %v", err)
		}
		cfg.Draw.Workers = n
	}
	if v := os.Getenv("BROADCAST_CAPACITY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid BROADCAST_CAPACITY value: %v", err)
		}
		cfg.Broadcast.Capacity = n
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = defaultHTTPAddr
	}
	if cfg.HTTP.RateLimit <= 0 {
		cfg.HTTP.RateLimit = defaultRateLimit
	}
	if cfg.HTTP.RateBurst <= 0 {
		cfg.HTTP.RateBurst = defaultRateBurst
	}
	if cfg.Auth.DefaultTTL <= 0 {
		cfg.Auth.DefaultTTL = defaultTokenTTL
	}
	if cfg.Draw.TicketTTL == 0 {
		cfg.Draw.TicketTTL = defaultTicketTTL
	}
	if cfg.Draw.Workers <= 0 {
		cfg.Draw.Workers = defaultDrawWorkers
	}
	if cfg.Broadcast.Capacity <= 0 {
		cfg.Broadcast.Capacity = defaultBroadcastCapacity
	}
	if cfg.Observability.LogLevel == "" {
		cfg.Observability.LogLevel = "info"
	}
}
