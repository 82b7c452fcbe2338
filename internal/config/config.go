package config

import (
	"context"
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
	Env         string
	Port        int
	ServiceName string

	DBURL   string
	Storage string // "postgres" | "memory"

	SessionStore      string // "memory" | "redis"
	SessionSecret     string
	SessionTTL        time.Duration
	SessionPruneEvery time.Duration
	RedisAddr         string
	RedisPassword     string
	RedisDB           int

	AdminEmail string
	AdminName  string

	GoogleClientID     string
	GoogleClientSecret string
	GoogleCallbackURL  string

	DashboardPath string
	LoginPath     string

	CORSOrigins       []string
	OTLPEndpoint      string
	AuthRatePerMinute int
}

const devSessionSecret = "freelancehours-dev-secret"

func Load() Config {
	// a missing .env is normal outside local development
	_ = godotenv.Load()

	return Config{
		Env:         getEnv("APP_ENV", "dev"),
		Port:        getEnvInt("PORT", 3000),
		ServiceName: getEnv("SERVICE_NAME", "freelancehours"),

		DBURL:   buildDBURL(),
		Storage: getEnv("STORAGE", "postgres"),

		SessionStore:      getEnv("SESSION_STORE", "memory"),
		SessionSecret:     getEnv("SESSION_SECRET", devSessionSecret),
		SessionTTL:        time.Duration(getEnvInt("SESSION_TTL_HOURS", 24*7)) * time.Hour,
		SessionPruneEvery: time.Duration(getEnvInt("SESSION_PRUNE_MINUTES", 24*60)) * time.Minute,
		RedisAddr:         getEnv("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPassword:     getEnv("REDIS_PASSWORD", ""),
		RedisDB:           getEnvInt("REDIS_DB", 0),

		AdminEmail: strings.ToLower(strings.TrimSpace(getEnv("ADMIN_EMAIL", ""))),
		AdminName:  getEnv("ADMIN_NAME", "Admin"),

		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleCallbackURL:  getEnv("GOOGLE_CALLBACK_URL", "http://localhost:3000/api/auth/google/callback"),

		DashboardPath: getEnv("DASHBOARD_PATH", "/dashboard"),
		LoginPath:     getEnv("LOGIN_PATH", "/login"),

		CORSOrigins:       getEnvList("CORS_ORIGINS", []string{"http://localhost:5173"}),
		OTLPEndpoint:      getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		AuthRatePerMinute: getEnvInt("AUTH_RATE_LIMIT_PER_MIN", 30),
	}
}

// Validate rejects configurations that would run insecurely or not at all.
func (c Config) Validate() error {
	var errs []error

	switch c.Storage {
	case "postgres", "memory":
	default:
		errs = append(errs, fmt.Errorf("STORAGE must be postgres or memory, got %q", c.Storage))
	}

	switch c.SessionStore {
	case "memory", "redis":
	default:
		errs = append(errs, fmt.Errorf("SESSION_STORE must be memory or redis, got %q", c.SessionStore))
	}

	if c.SessionTTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL_HOURS must be positive"))
	}

	if c.IsProd() {
		if c.SessionSecret == "" || c.SessionSecret == devSessionSecret {
			errs = append(errs, errors.New("SESSION_SECRET must be set in prod"))
		}
		if c.GoogleClientID == "" || c.GoogleClientSecret == "" {
			errs = append(errs, errors.New("GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET must be set in prod"))
		}
		if c.AdminEmail == "" {
			errs = append(errs, errors.New("ADMIN_EMAIL must be set in prod"))
		}
	}

	return errors.Join(errs...)
}

func (c Config) IsProd() bool {
	return c.Env == "prod"
}

func buildDBURL() string {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url
	}

	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "freelance")
	pass := getEnv("DB_PASSWORD", "freelance")
	name := getEnv("DB_NAME", "freelance_tracker")
	ssl := getEnv("DB_SSLMODE", "disable")

	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=" + ssl
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		num, err := strconv.Atoi(v)

		if err != nil {
			slog.Warn("invalid integer env var, using default", "key", key, "value", v, "default", fallback)
			return fallback
		}

		return num
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}

	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}

	return out
}
