package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr                         string
	DatabaseURL                  string
	DBMaxConns                   int
	DBMinConns                   int
	DBConnLifetime               time.Duration
	DBConnectAttempts            int
	JWTSecret                    string
	DataEncryptionKey            string
	FrontendDir                  string
	Environment                  string
	Timezone                     string
	SeedAdminEmail               string
	SeedAdminPassword            string
	RunMigrations                bool
	RunSeed                      bool
	MaxBodyBytes                 int64
	RateLimitPerMinute           int
	EstimationRateLimitPerMinute int
	GeminiAPIKey                 string
	GeminiModel                  string
	GeminiBaseURL                string
	EstimationTimeout            time.Duration
	DefaultTotalUsers            int
	SnapshotInterval             time.Duration
	MetricsEnabled               bool
	S3Endpoint                   string
	S3Region                     string
	S3AccessKey                  string
	S3SecretKey                  string
	S3Bucket                     string
	S3PublicBaseURL              string
}

// Load reads an optional .env file and then the process environment.
func Load() Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("dotenv load failed", "err", err)
	}
	return Config{
		Addr:                         getEnv("APP_ADDR", ":8080"),
		DatabaseURL:                  getEnv("DATABASE_URL", ""),
		DBMaxConns:                   getEnvInt("DB_MAX_CONNS", 10),
		DBMinConns:                   getEnvInt("DB_MIN_CONNS", 2),
		DBConnLifetime:               getEnvDuration("DB_CONN_LIFETIME", time.Hour),
		DBConnectAttempts:            getEnvInt("DB_CONNECT_ATTEMPTS", 5),
		JWTSecret:                    getEnv("JWT_SECRET", ""),
		DataEncryptionKey:            getEnv("DATA_ENCRYPTION_KEY", ""),
		FrontendDir:                  getEnv("FRONTEND_DIR", "frontend/dist"),
		Environment:                  getEnv("APP_ENV", "development"),
		Timezone:                     getEnv("MESS_TIMEZONE", "Asia/Kolkata"),
		SeedAdminEmail:               getEnv("SEED_ADMIN_EMAIL", ""),
		SeedAdminPassword:            getEnv("SEED_ADMIN_PASSWORD", ""),
		RunMigrations:                getEnvBool("RUN_MIGRATIONS", true),
		RunSeed:                      getEnvBool("RUN_SEED", true),
		MaxBodyBytes:                 int64(getEnvInt("MAX_BODY_BYTES", 1048576)),
		RateLimitPerMinute:           getEnvInt("RATE_LIMIT_PER_MINUTE", 120),
		EstimationRateLimitPerMinute: getEnvInt("ESTIMATION_RATE_LIMIT_PER_MINUTE", 10),
		GeminiAPIKey:                 getEnv("GEMINI_API_KEY", ""),
		GeminiModel:                  getEnv("GEMINI_MODEL", "gemini-1.5-flash-001"),
		GeminiBaseURL:                getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1"),
		EstimationTimeout:            getEnvDuration("ESTIMATION_TIMEOUT", 20*time.Second),
		DefaultTotalUsers:            getEnvInt("DEFAULT_TOTAL_USERS", 450),
		SnapshotInterval:             getEnvDuration("SNAPSHOT_INTERVAL", 24*time.Hour),
		MetricsEnabled:               getEnvBool("METRICS_ENABLED", true),
		S3Endpoint:                   getEnv("S3_ENDPOINT", ""),
		S3Region:                     getEnv("S3_REGION", "auto"),
		S3AccessKey:                  getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey:                  getEnv("S3_SECRET_KEY", ""),
		S3Bucket:                     getEnv("S3_BUCKET", ""),
		S3PublicBaseURL:              getEnv("S3_PUBLIC_BASE_URL", ""),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

// Location resolves MESS_TIMEZONE, falling back to the host zone.
func (c Config) Location() *time.Location {
	if strings.TrimSpace(c.Timezone) == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		slog.Warn("unknown MESS_TIMEZONE, using local", "timezone", c.Timezone, "err", err)
		return time.Local
	}
	return loc
}

// StorageConfigured reports whether review photo uploads can be served.
func (c Config) StorageConfigured() bool {
	return c.S3Bucket != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.Environment == "production" {
		if strings.TrimSpace(c.JWTSecret) == "" {
			return fmt.Errorf("JWT_SECRET must be set to a strong value in production")
		}
		if c.RunSeed && strings.TrimSpace(c.SeedAdminPassword) == "" {
			return fmt.Errorf("SEED_ADMIN_PASSWORD must be changed or RUN_SEED disabled in production")
		}
	}
	if c.DBMaxConns <= 0 || c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS must be between 0 and DB_MAX_CONNS")
	}
	if c.MaxBodyBytes < 1024 {
		return fmt.Errorf("MAX_BODY_BYTES must be at least 1024")
	}
	if c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive")
	}
	if c.EstimationTimeout < 10*time.Second || c.EstimationTimeout > 30*time.Second {
		return fmt.Errorf("ESTIMATION_TIMEOUT must be between 10s and 30s")
	}
	if c.DefaultTotalUsers <= 0 {
		return fmt.Errorf("DEFAULT_TOTAL_USERS must be positive")
	}
	return nil
}
