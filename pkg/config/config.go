package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

// Config is built once at startup and only read afterwards.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Storage  StorageConfig
	OpenAI   OpenAIConfig
	Admin    AdminConfig
	Email    EmailConfig
	Cron     CronConfig
}

type ServerConfig struct {
	Port           string
	CORSOrigins    string
	RequestTimeout time.Duration
}

type DatabaseConfig struct {
	URL          string
	MaxIdleConns int
	MaxOpenConns int
}

type StorageConfig struct {
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	Endpoint        string
}

type OpenAIConfig struct {
	APIKey string
	Model  string
}

type AdminConfig struct {
	PasswordHash []byte
	JWTSecret    string
	NotifyEmail  string
}

type EmailConfig struct {
	ResendAPIKey string
	From         string
}

type CronConfig struct {
	ExtractionSpec string
	DigestSpec     string
}

func Load() (*Config, error) {
	// .env is optional outside local development
	_ = godotenv.Load()

	hash, err := bcrypt.GenerateFromPassword([]byte(getEnv("ADMIN_PASSWORD", "changeme")), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("could not hash admin password: %w", err)
	}

	return &Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", "3000"),
			CORSOrigins:    getEnv("CORS_ORIGINS", "http://localhost:3000"),
			RequestTimeout: getDuration("REQUEST_TIMEOUT", 15*time.Second),
		},
		Database: DatabaseConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxIdleConns: getInt("DB_MAX_IDLE_CONNS", 10),
			MaxOpenConns: getInt("DB_MAX_OPEN_CONNS", 100),
		},
		Storage: StorageConfig{
			Region:          getEnv("AWS_REGION", "us-east-1"),
			Bucket:          getEnv("AWS_S3_BUCKET", "blackkeyx-documents"),
			AccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
			Endpoint:        os.Getenv("AWS_S3_ENDPOINT"),
		},
		OpenAI: OpenAIConfig{
			APIKey: os.Getenv("OPENAI_API_KEY"),
			Model:  getEnv("OPENAI_MODEL", "gpt-4o"),
		},
		Admin: AdminConfig{
			PasswordHash: hash,
			JWTSecret:    getEnv("ADMIN_JWT_SECRET", "blackkeyx-dev-secret"),
			NotifyEmail:  os.Getenv("ADMIN_NOTIFY_EMAIL"),
		},
		Email: EmailConfig{
			ResendAPIKey: os.Getenv("RESEND_API_KEY"),
			From:         getEnv("EMAIL_FROM", "BlackKeyX <noreply@blackkeyx.com>"),
		},
		Cron: CronConfig{
			ExtractionSpec: getEnv("CRON_EXTRACTION_SPEC", "*/5 * * * *"),
			DigestSpec:     getEnv("CRON_DIGEST_SPEC", "0 8 * * *"),
		},
	}, nil
}

// AllowedOrigins returns the comma separated CORS origins trimmed.
func (s ServerConfig) AllowedOrigins() string {
	parts := strings.Split(s.CORSOrigins, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return strings.Join(parts, ",")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		slog.Warn("Invalid integer in environment, using default",
			slog.String("key", key), slog.Int("default", defaultValue))
		return defaultValue
	}
	return n
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		slog.Warn("Invalid duration in environment, using default",
			slog.String("key", key), slog.String("default", defaultValue.String()))
		return defaultValue
	}
	return d
}
