package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ListenAddr    string
	Env           string
	AdminPassword string

	OpenAIAPIKey  string
	OpenAIBaseURL string
	ImageModel    string
	ImageSize     string

	DefaultLimitCount int
	DefaultLimitHours int

	RateLimit       int
	RateLimitWindow time.Duration

	PostgresUser     string
	PostgresPassword string
	PostgresHost     string
	PostgresPort     string
	PostgresDatabase string
	PostgresSSLMode  string

	S3Bucket    string
	S3Region    string
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string

	ArchiveTTL         time.Duration
	AccessLogRetention time.Duration
}

func Load() *Config {
	// A missing .env is fine, real deployments set the environment directly.
	_ = godotenv.Load()

	return &Config{
		ListenAddr:    getEnv("LISTEN_ADDR", ":8080"),
		Env:           getEnv("APP_ENV", "development"),
		AdminPassword: getEnv("ADMIN_PASSWORD", "admin123"),

		OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", "https://api.openai.com"),
		ImageModel:    getEnv("IMAGE_MODEL", "dall-e-2"),
		ImageSize:     getEnv("IMAGE_SIZE", "1024x1024"),

		DefaultLimitCount: getEnvInt("DEFAULT_LIMIT_COUNT", 1),
		DefaultLimitHours: getEnvInt("DEFAULT_LIMIT_HOURS", 24),

		RateLimit:       getEnvInt("RATE_LIMIT", 10),
		RateLimitWindow: getEnvDuration("RATE_LIMIT_WINDOW", time.Minute),

		PostgresUser:     getEnv("POSTGRES_USER", "dreamcanvas"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "password"),
		PostgresHost:     getEnv("POSTGRES_HOST", ""),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresDatabase: getEnv("POSTGRES_DATABASE", "dreamcanvas"),
		PostgresSSLMode:  getEnv("POSTGRES_SSL_MODE", "disable"),

		S3Bucket:    getEnv("S3_BUCKET", ""),
		S3Region:    getEnv("AWS_REGION", "us-east-1"),
		S3Endpoint:  getEnv("S3_ENDPOINT", ""),
		S3AccessKey: getEnv("AWS_ACCESS_KEY_ID", ""),
		S3SecretKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),

		ArchiveTTL:         getEnvDuration("ARCHIVE_TTL", 30*24*time.Hour),
		AccessLogRetention: getEnvDuration("ACCESS_LOG_RETENTION", 7*24*time.Hour),
	}
}

// DatabaseEnabled reports whether a postgres host was configured. Everything
// database-backed (access log rows, gallery, archive metadata) is optional.
func (c *Config) DatabaseEnabled() bool {
	return c.PostgresHost != ""
}

// ArchiveEnabled reports whether generated images should be mirrored to S3.
func (c *Config) ArchiveEnabled() bool {
	return c.S3Bucket != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

func (c *Config) Production() bool {
	return c.Env == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
