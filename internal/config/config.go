package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds everything the service needs at startup. Values come from
// an optional YAML file and can be overridden by environment variables.
type Config struct {
	HTTPAddr string        `yaml:"http_addr"`
	Mongo    MongoConfig   `yaml:"mongo"`
	Logging  LoggingConfig `yaml:"logging"`
	Metrics  MetricsConfig `yaml:"metrics"`
	Auth     AuthConfig    `yaml:"auth"`
}

type MongoConfig struct {
	URI      string `yaml:"uri"`
	Database string `yaml:"database"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "json" (default) or "console"
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

type AuthConfig struct {
	Enabled      bool     `yaml:"enabled"`
	JWTSecret    string   `yaml:"jwt_secret"`
	JWTIssuer    string   `yaml:"jwt_issuer"`
	JWTAudience  string   `yaml:"jwt_audience"`
	JWTExpiry    Duration `yaml:"jwt_expiry"`
	Username     string   `yaml:"username"`
	PasswordHash string   `yaml:"password_hash"` // bcrypt
}

// Duration lets YAML carry values like "24h".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Load reads the config file at path (skipped when path is empty or the
// file does not exist) and applies environment overrides on top of the
// defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{
		HTTPAddr: ":8080",
		Mongo: MongoConfig{
			URI:      "mongodb://localhost:27017",
			Database: "rental_service",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Auth: AuthConfig{
			JWTIssuer:   "rental-inventory-api",
			JWTAudience: "rental-inventory-api",
			JWTExpiry:   Duration(24 * time.Hour),
		},
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	setString(&cfg.HTTPAddr, "HTTP_ADDR")
	setString(&cfg.Mongo.URI, "MONGO_URI")
	setString(&cfg.Mongo.Database, "MONGO_DB")
	setString(&cfg.Logging.Level, "LOG_LEVEL")
	setString(&cfg.Logging.Format, "LOG_FORMAT")
	if v := os.Getenv("ENABLE_METRICS"); v != "" {
		cfg.Metrics.Enabled = v == "true"
	}
	if v := os.Getenv("AUTH_ENABLED"); v != "" {
		cfg.Auth.Enabled = v == "true"
	}
	setString(&cfg.Auth.JWTSecret, "JWT_SECRET")
	setString(&cfg.Auth.JWTIssuer, "JWT_ISS")
	setString(&cfg.Auth.JWTAudience, "JWT_AUD")
	if v := os.Getenv("JWT_EXPIRY"); v != "" {
		if expiry, err := time.ParseDuration(v); err == nil {
			cfg.Auth.JWTExpiry = Duration(expiry)
		}
	}
	setString(&cfg.Auth.Username, "AUTH_USERNAME")
	setString(&cfg.Auth.PasswordHash, "AUTH_PASSWORD_HASH")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// Validate checks the parts of the config that would otherwise fail in
// confusing ways at runtime. Auth settings are only checked when auth is
// enabled.
func (c *Config) Validate() error {
	if c.Mongo.URI == "" {
		return errors.New("mongo URI is required")
	}
	if c.Mongo.Database == "" {
		return errors.New("mongo database name is required")
	}
	if !c.Auth.Enabled {
		return nil
	}
	if len(c.Auth.JWTSecret) < 32 {
		return errors.New("JWT secret must be at least 32 characters when auth is enabled")
	}
	if c.Auth.JWTIssuer == "" {
		return errors.New("JWT issuer is required when auth is enabled")
	}
	if c.Auth.JWTAudience == "" {
		return errors.New("JWT audience is required when auth is enabled")
	}
	expiry := time.Duration(c.Auth.JWTExpiry)
	if expiry < time.Minute {
		return errors.New("JWT expiry must be at least 1 minute")
	}
	if expiry > 30*24*time.Hour {
		return errors.New("JWT expiry must not exceed 30 days")
	}
	if c.Auth.Username == "" || c.Auth.PasswordHash == "" {
		return errors.New("auth username and password hash are required when auth is enabled")
	}
	return nil
}

// LoadAndValidate is the startup path: load then validate.
func LoadAndValidate(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
