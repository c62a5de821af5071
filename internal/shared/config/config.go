package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Client   ClientConfig
	Ingest   IngestConfig
}

type ServerConfig struct {
	Port int
	Env  string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Database, d.SSLMode,
	)
}

type AuthConfig struct {
	JWTSecret string
}

// ClientConfig holds settings for the API client used by the importer
// and the case store.
type ClientConfig struct {
	// BaseURL is the service base path, e.g. http://localhost:4000/api/v1
	BaseURL string
	Timeout time.Duration
}

// IngestConfig holds settings for the ingestion pipeline and case store.
type IngestConfig struct {
	// PollInterval is the background refresh period of the case store
	PollInterval time.Duration
}

func Load() (*Config, error) {
	// .env is optional; real env vars win
	_ = godotenv.Load()

	return &Config{
		Server: ServerConfig{
			Port: getEnvInt("SERVER_PORT", 4000),
			Env:  getEnv("ENV", "development"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "rechazos"),
			Password: getEnv("DB_PASSWORD", "rechazos"),
			Database: getEnv("DB_NAME", "rechazos"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			MaxConns: getEnvInt("DB_MAX_CONNS", 10),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", "dev-secret-change-in-prod"),
		},
		Client: ClientConfig{
			BaseURL: getEnv("API_URL", "http://localhost:4000/api/v1"),
			Timeout: getEnvDuration("API_TIMEOUT", 30*time.Second),
		},
		Ingest: IngestConfig{
			PollInterval: getEnvDuration("POLL_INTERVAL", 10*time.Second),
		},
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(strings.TrimSpace(value)); err == nil {
			return d
		}
	}
	return defaultValue
}
