package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	AppName          string
	AppVersion       string
	Environment      string
	ListenAddr       string
	AuthCookieSecure bool

	OTLPEndpoint string

	DBType     string
	DBHost     string
	DBPort     string
	DBName     string
	DBUser     string
	DBPassword string
	DBSSLMode  string

	Scan      ScanConfig
	RateLimit RateLimitConfig
	Bootstrap BootstrapConfig

	ChatHistorySize int
}

// ScanConfig configures the vision model used for paper-form extraction.
type ScanConfig struct {
	Provider string
	Endpoint string
	APIKey   string
	Model    string
}

// RateLimitConfig configures the redis-backed scan rate limiter.
type RateLimitConfig struct {
	Enabled       bool
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	ScanRate      float64
	ScanBurst     int
}

// BootstrapConfig controls first-run seeding.
type BootstrapConfig struct {
	EnsureAdminUser bool
	AdminEmail      string
	AdminPassword   string
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	environment := getenv("ENVIRONMENT", "development")
	authCookieSecure := environment == "production"
	if !authCookieSecure {
		authCookieSecure = getenvBool("AUTH_COOKIE_SECURE", false)
	}

	return Config{
		AppName:          getenv("APP_SERVICE", "sito-andrea"),
		AppVersion:       getenv("APP_VERSION", "0.1.0"),
		Environment:      environment,
		ListenAddr:       getenv("LISTEN_ADDR", ":8080"),
		AuthCookieSecure: authCookieSecure,
		OTLPEndpoint:     getenv("OTLP_ENDPOINT", "localhost:4317"),
		DBType:           getenv("DATABASE_TYPE", "postgres"),
		DBHost:           getenv("DATABASE_HOST", "localhost"),
		DBPort:           getenv("DATABASE_PORT", "5432"),
		DBName:           getenv("DATABASE_NAME", "sito"),
		DBUser:           getenv("DATABASE_USER", "postgres"),
		DBPassword:       getenv("DATABASE_PASSWORD", "postgres"),
		DBSSLMode:        getenv("DATABASE_SSLMODE", "disable"),
		Scan: ScanConfig{
			Provider: strings.ToLower(getenv("SCAN_PROVIDER", "gemini")),
			Endpoint: getenv("SCAN_ENDPOINT", "https://generativelanguage.googleapis.com"),
			APIKey:   strings.TrimSpace(getenv("SCAN_API_KEY", "")),
			Model:    getenv("SCAN_MODEL", "gemini-2.0-flash"),
		},
		RateLimit: RateLimitConfig{
			Enabled:       getenvBool("RATE_LIMIT_ENABLED", false),
			RedisAddr:     strings.TrimSpace(getenv("RATE_LIMIT_REDIS_ADDR", "")),
			RedisPassword: getenv("RATE_LIMIT_REDIS_PASSWORD", ""),
			RedisDB:       int(getenvInt64("RATE_LIMIT_REDIS_DB", 0)),
			ScanRate:      getenvFloat("RATE_LIMIT_SCAN_RATE", 0.2),
			ScanBurst:     int(getenvInt64("RATE_LIMIT_SCAN_BURST", 3)),
		},
		Bootstrap: BootstrapConfig{
			EnsureAdminUser: getenvBool("BOOTSTRAP_ADMIN", environment != "production"),
			AdminEmail:      getenv("BOOTSTRAP_ADMIN_EMAIL", "andrea@sito.local"),
			AdminPassword:   getenv("BOOTSTRAP_ADMIN_PASSWORD", "cambiami"),
		},
		ChatHistorySize: int(getenvInt64("CHAT_HISTORY_SIZE", 50)),
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt64(key string, def int64) int64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return def
	}
	return parsed
}

func getenvFloat(key string, def float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return def
	}
	return parsed
}
