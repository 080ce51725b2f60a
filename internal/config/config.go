package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	AppName          string
	AppVersion       string
	Environment      string
	HTTPAddr         string
	AuthCookieSecure bool
	NodeID           int64

	OTLPEndpoint string

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBPath            string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int

	UsageStore string

	Redis     RedisConfig
	AI        AIConfig
	Stripe    StripeConfig
	Scheduler SchedulerConfig

	CatalogConfigPath string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Enabled reports whether a redis server is configured.
func (c RedisConfig) Enabled() bool {
	return strings.TrimSpace(c.Addr) != ""
}

type AIConfig struct {
	GeminiAPIKey string
	GeminiModel  string
	RatePerMin   int64
	Burst        int64
}

type StripeConfig struct {
	SecretKey string
	BaseURL   string
}

type SchedulerConfig struct {
	Enabled     bool
	RunInterval time.Duration
}

const (
	UsageStoreSQL    = "sql"
	UsageStoreMemory = "memory"
)

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	environment := getenv("ENVIRONMENT", "development")
	authCookieSecure := environment == "production"
	if !authCookieSecure {
		authCookieSecure = getenvBool("AUTH_COOKIE_SECURE", false)
	}

	return Config{
		AppName:           getenv("APP_SERVICE", "zyra"),
		AppVersion:        getenv("APP_VERSION", "0.1.0"),
		Environment:       environment,
		HTTPAddr:          getenv("HTTP_ADDR", ":8080"),
		AuthCookieSecure:  authCookieSecure,
		NodeID:            getenvInt64("NODE_ID", 1),
		OTLPEndpoint:      getenv("OTLP_ENDPOINT", "localhost:4317"),
		DBType:            strings.ToLower(strings.TrimSpace(os.Getenv("DATABASE_TYPE"))),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "zyra"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBPath:            getenv("DATABASE_PATH", "zyra.db"),
		DBMaxIdleConn:     int(getenvInt64("DATABASE_MAX_IDLE_CONN", 5)),
		DBMaxOpenConn:     int(getenvInt64("DATABASE_MAX_OPEN_CONN", 20)),
		DBConnMaxLifetime: int(getenvInt64("DATABASE_CONN_MAX_LIFETIME", 300)),
		DBConnMaxIdleTime: int(getenvInt64("DATABASE_CONN_MAX_IDLE_TIME", 60)),
		UsageStore:        strings.ToLower(getenv("USAGE_STORE", UsageStoreSQL)),
		Redis: RedisConfig{
			Addr:     strings.TrimSpace(getenv("REDIS_ADDR", "")),
			Password: getenv("REDIS_PASSWORD", ""),
			DB:       int(getenvInt64("REDIS_DB", 0)),
		},
		AI: AIConfig{
			GeminiAPIKey: strings.TrimSpace(getenv("GEMINI_API_KEY", "")),
			GeminiModel:  getenv("GEMINI_MODEL", "gemini-2.5-flash"),
			RatePerMin:   getenvInt64("AI_RATE_PER_MIN", 20),
			Burst:        getenvInt64("AI_BURST", 5),
		},
		Stripe: StripeConfig{
			SecretKey: strings.TrimSpace(getenv("STRIPE_SECRET_KEY", "")),
			BaseURL:   getenv("STRIPE_BASE_URL", "https://api.stripe.com"),
		},
		Scheduler: SchedulerConfig{
			Enabled:     getenvBool("SCHEDULER_ENABLED", true),
			RunInterval: getenvDuration("SCHEDULER_INTERVAL", time.Hour),
		},
		CatalogConfigPath: strings.TrimSpace(getenv("CATALOG_CONFIG", "")),
	}
}

// Validate fails fast on configuration the process cannot start with.
func (c Config) Validate() error {
	switch c.DBType {
	case "":
		return errors.New("DATABASE_TYPE is required (postgres, mysql or sqlite)")
	case "postgres", "mysql":
		if strings.TrimSpace(c.DBHost) == "" || strings.TrimSpace(c.DBName) == "" {
			return fmt.Errorf("%s requires DATABASE_HOST and DATABASE_NAME", c.DBType)
		}
	case "sqlite":
		if strings.TrimSpace(c.DBPath) == "" {
			return errors.New("sqlite requires DATABASE_PATH")
		}
	default:
		return fmt.Errorf("unsupported DATABASE_TYPE %q", c.DBType)
	}

	switch c.UsageStore {
	case UsageStoreSQL, UsageStoreMemory:
	default:
		return fmt.Errorf("unsupported USAGE_STORE %q", c.UsageStore)
	}
	return nil
}

func (c Config) IsProduction() bool {
	return c.Environment == "production"
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

func getenvDuration(key string, def time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := time.ParseDuration(value)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}
