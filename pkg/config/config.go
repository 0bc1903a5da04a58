package config

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	MediaLocal  = "local"
	MediaGridFS = "gridfs"

	EnvProduction = "production"
)

// Config represents the complete application configuration
type Config struct {
	Port                    string        `yaml:"port"`
	Env                     string        `yaml:"env"`
	LogLevel                string        `yaml:"log_level"`
	DatabaseDriver          string        `yaml:"database_driver"`
	DatabaseURL             string        `yaml:"database_url"`
	MediaBackend            string        `yaml:"media_backend"`
	MediaRoot               string        `yaml:"media_root"`
	MongoURI                string        `yaml:"mongo_uri"`
	MongoDatabase           string        `yaml:"mongo_database"`
	FirebaseCredentialsPath string        `yaml:"firebase_credentials_path"`
	SessionSecret           string        `yaml:"session_secret"`
	MetricsPort             string        `yaml:"metrics_port"`
	IndexCacheTTL           time.Duration `yaml:"index_cache_ttl"`
	// TemplateDir, when set, serves templates from disk and reloads them on change
	TemplateDir string `yaml:"template_dir"`
}

// Default returns a Config suitable for local development
func Default() *Config {
	return &Config{
		Port:           "8080",
		Env:            "development",
		LogLevel:       "info",
		DatabaseDriver: DriverSQLite,
		DatabaseURL:    "yatube.db?_foreign_keys=1",
		MediaBackend:   MediaLocal,
		MediaRoot:      "media",
		MongoDatabase:  "yatube",
		SessionSecret:  "dev-insecure-session-secret",
		MetricsPort:    "9090",
		IndexCacheTTL:  20 * time.Second,
	}
}

// Load builds the configuration from defaults, then the YAML file at path
// (if any), then .env and the process environment.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file found, assuming environment variables are set.")
	}

	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.Env = getEnv("ENV", cfg.Env)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.DatabaseDriver = getEnv("DATABASE_DRIVER", cfg.DatabaseDriver)
	cfg.DatabaseURL = getEnv("DATABASE_URL", cfg.DatabaseURL)
	cfg.MediaBackend = getEnv("MEDIA_BACKEND", cfg.MediaBackend)
	cfg.MediaRoot = getEnv("MEDIA_ROOT", cfg.MediaRoot)
	cfg.MongoURI = getEnv("MONGO_URI", cfg.MongoURI)
	cfg.MongoDatabase = getEnv("MONGO_DATABASE", cfg.MongoDatabase)
	cfg.FirebaseCredentialsPath = getEnv("FIREBASE_CREDENTIALS_PATH", cfg.FirebaseCredentialsPath)
	cfg.SessionSecret = getEnv("SESSION_SECRET", cfg.SessionSecret)
	cfg.MetricsPort = getEnv("METRICS_PORT", cfg.MetricsPort)
	cfg.TemplateDir = getEnv("TEMPLATE_DIR", cfg.TemplateDir)
	if raw := os.Getenv("INDEX_CACHE_TTL"); raw != "" {
		ttl, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("INDEX_CACHE_TTL: %w", err)
		}
		cfg.IndexCacheTTL = ttl
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the configuration is usable
func (c *Config) Validate() error {
	switch c.DatabaseDriver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("database_driver must be %q or %q, got %q", DriverPostgres, DriverSQLite, c.DatabaseDriver)
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("database_url is required")
	}
	switch c.MediaBackend {
	case MediaLocal:
		if c.MediaRoot == "" {
			return fmt.Errorf("media_root is required for the local media backend")
		}
	case MediaGridFS:
		if c.MongoURI == "" {
			return fmt.Errorf("mongo_uri is required for the gridfs media backend")
		}
	default:
		return fmt.Errorf("media_backend must be %q or %q, got %q", MediaLocal, MediaGridFS, c.MediaBackend)
	}
	if c.SessionSecret == "" || (c.IsProduction() && c.SessionSecret == Default().SessionSecret) {
		return fmt.Errorf("session_secret must be set")
	}
	if c.IndexCacheTTL <= 0 {
		return fmt.Errorf("index_cache_ttl must be positive")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// SlogLevel maps LogLevel onto slog, defaulting to info
func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
