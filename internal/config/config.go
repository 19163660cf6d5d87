package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Config is the runtime configuration read from the environment.
type Config struct {
	Port int

	Store    string
	Database DatabaseConfig

	RedisURL string
	CacheTTL time.Duration

	LogLevel  string
	LogFormat string

	CORSAllowedOrigins []string
	AutoMigrate        bool
}

// DatabaseConfig holds the PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	Database string
	Schema   string
	SSLMode  string
}

// DSN renders the connection string understood by the pgx driver.
func (d DatabaseConfig) DSN() string {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		d.Host, d.Username, d.Password, d.Database, d.Port, d.SSLMode)
	if d.Schema != "" {
		dsn += " search_path=" + d.Schema
	}
	return dsn
}

// Load reads a .env file when present and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from getenv.
func FromEnv(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		Port:      8080,
		Store:     StorePostgres,
		CacheTTL:  5 * time.Minute,
		LogLevel:  "info",
		LogFormat: "text",

		CORSAllowedOrigins: []string{"https://*", "http://*"},
		AutoMigrate:        true,

		Database: DatabaseConfig{
			Host:     getenv("BLUEPRINT_DB_HOST"),
			Port:     getenv("BLUEPRINT_DB_PORT"),
			Username: getenv("BLUEPRINT_DB_USERNAME"),
			Password: getenv("BLUEPRINT_DB_PASSWORD"),
			Database: getenv("BLUEPRINT_DB_DATABASE"),
			Schema:   getenv("BLUEPRINT_DB_SCHEMA"),
			SSLMode:  "disable",
		},
		RedisURL: getenv("REDIS_URL"),
	}

	if v := getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port <= 0 || port > 65535 {
			return nil, fmt.Errorf("invalid PORT %q", v)
		}
		cfg.Port = port
	}

	if v := getenv("DB_SSLMODE"); v != "" {
		cfg.Database.SSLMode = v
	}

	if v := getenv("STORE"); v != "" {
		switch v = strings.ToLower(v); v {
		case StorePostgres, StoreMemory:
			cfg.Store = v
		default:
			return nil, fmt.Errorf("invalid STORE %q: want %q or %q", v, StorePostgres, StoreMemory)
		}
	}

	if v := getenv("CACHE_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 {
			return nil, fmt.Errorf("invalid CACHE_TTL %q", v)
		}
		cfg.CacheTTL = d
	}

	if v := getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	if v := getenv("LOG_FORMAT"); v != "" {
		cfg.LogFormat = strings.ToLower(v)
	}

	if v := getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		cfg.CORSAllowedOrigins = origins
	}

	if v := getenv("AUTO_MIGRATE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid AUTO_MIGRATE %q: %w", v, err)
		}
		cfg.AutoMigrate = b
	}

	return cfg, nil
}
