package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// PlaceholderJWTSecret is the development default; it is rejected outside development.
const PlaceholderJWTSecret = "change-me-in-production"

// Config holds application configuration loaded from environment.
type Config struct {
	Env      string
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	AWS      AWSConfig
	Auth     AuthConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port               string
	ReadTimeout        int
	WriteTimeout       int
	CORSAllowedOrigins string // comma-separated, or "*" for all
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	URL                string // if set, used as-is
	Host               string
	Port               string
	User               string
	Password           string
	DBName             string
	SSLMode            string
	MaxConns           int
	ConnectTimeoutSec  int
	StatementTimeoutMs int
}

// RedisConfig holds Redis connection settings. An empty Addr disables notifications.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// JWTConfig holds the token signing secret.
type JWTConfig struct {
	Secret string
}

// AWSConfig holds AWS credentials and the logo bucket. An empty bucket disables logo upload.
type AWSConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	LogosBucket     string
}

// AuthConfig holds account recovery settings.
type AuthConfig struct {
	PasswordResetTTLMin int
}

// DSN returns the PostgreSQL connection string.
// If URL is set (DATABASE_URL) it is used as-is; otherwise it is built from components.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

// ConnectTimeout returns the pool connect timeout.
func (c DatabaseConfig) ConnectTimeout() time.Duration {
	return time.Duration(c.ConnectTimeoutSec) * time.Second
}

// PasswordResetTTL returns the lifetime of a reset token.
func (c AuthConfig) PasswordResetTTL() time.Duration {
	return time.Duration(c.PasswordResetTTLMin) * time.Minute
}

// IsDevelopment reports whether APP_ENV is development.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Validate rejects configurations that must not reach production.
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.JWT.Secret == PlaceholderJWTSecret && !c.IsDevelopment() {
		return errors.New("JWT_SECRET must be changed outside development")
	}
	if c.Database.MaxConns <= 0 {
		return errors.New("DB_MAX_CONNS must be positive")
	}
	return nil
}

// Load reads configuration from environment, with optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()      // .env
	_ = godotenv.Load("env") // env (no leading dot)

	cfg := &Config{
		Env: getEnv("APP_ENV", "production"),
		Server: ServerConfig{
			Port:               getEnv("PORT", "8080"),
			ReadTimeout:        getEnvInt("READ_TIMEOUT_SEC", 30),
			WriteTimeout:       getEnvInt("WRITE_TIMEOUT_SEC", 30),
			CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173"),
		},
		Database: DatabaseConfig{
			URL:                os.Getenv("DATABASE_URL"),
			Host:               getEnv("DB_HOST", "localhost"),
			Port:               getEnv("DB_PORT", "5432"),
			User:               getEnv("DB_USER", "postgres"),
			Password:           getEnv("DB_PASSWORD", "postgres"),
			DBName:             getEnv("DB_NAME", "ukm"),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxConns:           getEnvInt("DB_MAX_CONNS", 10),
			ConnectTimeoutSec:  getEnvInt("DB_CONNECT_TIMEOUT_SEC", 5),
			StatementTimeoutMs: getEnvInt("DB_STATEMENT_TIMEOUT_MS", 5000),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", PlaceholderJWTSecret),
		},
		AWS: AWSConfig{
			Region:          getEnv("AWS_REGION", "ap-southeast-1"),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			LogosBucket:     getEnv("AWS_S3_LOGOS_BUCKET", ""),
		},
		Auth: AuthConfig{
			PasswordResetTTLMin: getEnvInt("PASSWORD_RESET_TTL_MIN", 30),
		},
	}
	return cfg, nil
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
