package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from environment.
type Config struct {
	Server  ServerConfig
	Backend BackendConfig
	Redis   RedisConfig
	Session SessionConfig
	AWS     AWSConfig
	Upload  UploadConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port               string
	ReadTimeout        int
	WriteTimeout       int
	CORSAllowedOrigins string // comma-separated, or "*" for all (e.g. http://localhost:3000)
	StaticDir          string // directory with the built web shell; empty disables static serving
}

// BackendConfig holds the platform API location and client settings.
type BackendConfig struct {
	BaseURL        string // may carry a trailing slash or an /api suffix; normalized by the gateway
	RequestTimeout int    // seconds; applies to gateway calls, not the streaming proxy
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// SessionConfig holds cookie and session-cache settings.
type SessionConfig struct {
	TTLHours     int  // server-side session cache lifetime
	CookieMaxAge int  // seconds; applies to the whole cookie set
	CookieSecure bool // Secure attribute on issued cookies
	CookieDomain string
}

// AWSConfig holds S3 credentials for local presign mode. When AccessKeyID is empty the
// upload-url endpoint delegates to the platform API instead.
type AWSConfig struct {
	Region               string
	AccessKeyID          string
	SecretAccessKey      string
	VideosBucket         string
	PresignExpireMinutes int
}

// UploadConfig holds rate limits for the presign and import endpoints.
type UploadConfig struct {
	RatePerMinute int
	RateBurst     int
}

// Load reads configuration from environment, with optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	readTimeout, _ := strconv.Atoi(getEnv("READ_TIMEOUT_SEC", "30"))
	writeTimeout, _ := strconv.Atoi(getEnv("WRITE_TIMEOUT_SEC", "0")) // 0: streaming responses must not be cut off
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))

	cfg := &Config{
		Server: ServerConfig{
			Port:               getEnv("PORT", "8080"),
			ReadTimeout:        readTimeout,
			WriteTimeout:       writeTimeout,
			CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000"),
			StaticDir:          getEnv("STATIC_DIR", ""),
		},
		Backend: BackendConfig{
			BaseURL:        getEnv("BACKEND_BASE_URL", "http://localhost:9000/api"),
			RequestTimeout: getEnvInt("BACKEND_TIMEOUT_SEC", 30),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Session: SessionConfig{
			TTLHours:     getEnvInt("SESSION_TTL_HOURS", 8),
			CookieMaxAge: getEnvInt("SESSION_COOKIE_MAX_AGE_SEC", 24*3600),
			CookieSecure: getEnv("SESSION_COOKIE_SECURE", "false") == "true",
			CookieDomain: getEnv("SESSION_COOKIE_DOMAIN", ""),
		},
		AWS: AWSConfig{
			Region:               getEnv("AWS_REGION", "us-east-1"),
			AccessKeyID:          getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey:      getEnv("AWS_SECRET_ACCESS_KEY", ""),
			VideosBucket:         getEnv("AWS_S3_VIDEOS_BUCKET", "mentora-course-videos"),
			PresignExpireMinutes: getEnvInt("AWS_PRESIGN_EXPIRE_MINUTES", 15),
		},
		Upload: UploadConfig{
			RatePerMinute: getEnvInt("UPLOAD_RATE_PER_MINUTE", 30),
			RateBurst:     getEnvInt("UPLOAD_RATE_BURST", 10),
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
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
