package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DBDriver string // "postgres" or "sqlite"
	DBDSN    string

	ServerPort    string
	GinMode       string
	SessionSecret string
	CookieSecure  bool
	JWTSecret     string
	TokenTTL      time.Duration

	LogLevel  string
	LogFormat string // "json" or "console"

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration

	AMQPURL string

	SeedFile      string
	AdminEmail    string
	AdminPassword string
}

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DBDriver: strings.ToLower(getEnv("DB_DRIVER", DriverPostgres)),
		DBDSN:    os.Getenv("DB_DSN"),

		ServerPort:    getEnv("SERVER_PORT", "8080"),
		GinMode:       getEnv("GIN_MODE", "release"),
		SessionSecret: os.Getenv("SESSION_SECRET"),
		CookieSecure:  getBoolEnv("COOKIE_SECURE", false),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		TokenTTL:      getDurationEnv("TOKEN_TTL", 24*time.Hour),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getIntEnv("REDIS_DB", 0),
		CacheTTL:      getDurationEnv("CACHE_TTL", 5*time.Minute),

		AMQPURL: os.Getenv("AMQP_URL"),

		SeedFile:      os.Getenv("SEED_FILE"),
		AdminEmail:    getEnv("ADMIN_EMAIL", "admin@projectflow.local"),
		AdminPassword: getEnv("ADMIN_PASSWORD", "Admin123!"),
	}

	switch cfg.DBDriver {
	case DriverPostgres:
		if cfg.DBDSN == "" {
			return nil, errors.New("DB_DSN is not set")
		}
	case DriverSQLite:
		if cfg.DBDSN == "" {
			cfg.DBDSN = "projectflow.db"
		}
	default:
		return nil, errors.New("DB_DRIVER must be postgres or sqlite")
	}

	if cfg.SessionSecret == "" {
		return nil, errors.New("SESSION_SECRET is not set")
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is not set")
	}

	return cfg, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getIntEnv(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getBoolEnv(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func getDurationEnv(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
