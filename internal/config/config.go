package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Application
	AppName string
	AppEnv  string
	Port    string

	// Document store (sqlite, pgx or mongo)
	DBDriver     string
	DBConnection string
	DBDatabase   string // Only used by mongo

	// Credential store and job queues
	RedisURL   string
	SessionTTL time.Duration

	// Content store
	StorageBackend string // "local" or "s3"
	FolderPath     string

	// Storage (S3-compatible: MinIO, AWS S3, Cloudflare R2, etc.)
	S3Region    string
	S3Bucket    string
	S3AccessKey string
	S3SecretKey string
	S3Endpoint  string

	// Worker
	WorkerConcurrency int
	WorkerID          string
	QueueMaxAttempts  int

	// Login throttling per client IP
	LoginRateLimit float64 // requests per second
	LoginRateBurst int
	TrustedProxies []string // peers whose X-Forwarded-For is believed

	// Email
	EmailFrom    string
	ResendAPIKey string

	// Observability (optional)
	SentryDSN   string
	MetricsAddr string
}

func Load() *Config {
	// Load .env file if it exists
	err := godotenv.Load()
	if err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	cfg := &Config{
		AppName: envString("APP_NAME", "Files Manager"),
		AppEnv:  envString("APP_ENV", "development"),
		Port:    envString("PORT", "5000"),

		DBDriver:     envString("DB_DRIVER", "sqlite"),
		DBConnection: envString("DB_CONNECTION", "./data/files_manager.db?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)"),
		DBDatabase:   envString("DB_DATABASE", "files_manager"),

		RedisURL:   envString("REDIS_URL", "redis://localhost:6379/0"),
		SessionTTL: envDuration("SESSION_TTL", 24*time.Hour),

		StorageBackend: envString("STORAGE_BACKEND", "local"),
		FolderPath:     envString("FOLDER_PATH", "/tmp/files_manager"),

		S3Region:    envString("S3_REGION", "us-east-1"),
		S3Bucket:    envString("S3_BUCKET", ""),
		S3AccessKey: envString("S3_ACCESS_KEY", ""),
		S3SecretKey: envString("S3_SECRET_KEY", ""),
		S3Endpoint:  envString("S3_ENDPOINT", ""), // Optional: for non-AWS providers

		WorkerConcurrency: envInt("WORKER_CONCURRENCY", 2),
		WorkerID:          envString("WORKER_ID", hostname()),
		QueueMaxAttempts:  envInt("QUEUE_MAX_ATTEMPTS", 3),

		LoginRateLimit: envFloat("LOGIN_RATE_LIMIT", 1),
		LoginRateBurst: envInt("LOGIN_RATE_BURST", 10),
		TrustedProxies: envList("TRUSTED_PROXIES"),

		EmailFrom:    envString("EMAIL_FROM", "noreply@example.com"),
		ResendAPIKey: envString("RESEND_API_KEY", ""),

		SentryDSN:   envString("SENTRY_DSN", ""),
		MetricsAddr: envString("METRICS_ADDR", ""),
	}

	if cfg.StorageBackend == "s3" {
		validateS3(cfg)
	}

	return cfg
}

// validateS3 ensures the S3 backend has everything it needs before any upload is accepted.
func validateS3(cfg *Config) {
	if cfg.S3Bucket == "" {
		slog.Error("STORAGE_BACKEND=s3 requires S3_BUCKET")
		os.Exit(1)
	}
	if cfg.IsProduction() && (cfg.S3AccessKey == "" || cfg.S3SecretKey == "") {
		slog.Error("production S3 storage requires S3_ACCESS_KEY and S3_SECRET_KEY")
		os.Exit(1)
	}
}

func envString(key, def string) string {
	value := os.Getenv(key)
	if value == "" {
		value = def
	}
	return value
}

func envInt(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("config invalid int, using default", "key", key, "value", v, "default", def)
		return def
	}
	return n
}

func envFloat(key string, def float64) float64 {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		slog.Warn("config invalid float, using default", "key", key, "value", v, "default", def)
		return def
	}
	return f
}

func envList(key string) []string {
	var values []string
	for _, v := range strings.Split(os.Getenv(key), ",") {
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}
	return values
}

func envDuration(key string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("config invalid duration, using default", "key", key, "value", v, "default", def)
		return def
	}
	return d
}

func hostname() string {
	name, err := os.Hostname()
	if err != nil || name == "" {
		return "worker"
	}
	return name
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}
