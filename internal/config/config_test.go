package config

import (
	"testing"
	"time"
)

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("PORT", "9090")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/x?sslmode=disable")
	t.Setenv("SESSION_TTL_HOURS", "2")
	t.Setenv("ADMIN_EMAIL", "  Boss@Example.com ")
	t.Setenv("CORS_ORIGINS", "http://a.test, http://b.test,")

	cfg := Load()

	if cfg.Env != "test" || cfg.Port != 9090 {
		t.Fatalf("unexpected env/port: %s %d", cfg.Env, cfg.Port)
	}
	if cfg.DBURL != "postgres://u:p@db:5432/x?sslmode=disable" {
		t.Fatalf("DATABASE_URL should win, got %s", cfg.DBURL)
	}
	if cfg.SessionTTL != 2*time.Hour {
		t.Fatalf("got ttl %s", cfg.SessionTTL)
	}
	if cfg.AdminEmail != "boss@example.com" {
		t.Fatalf("admin email should be normalized, got %q", cfg.AdminEmail)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "http://b.test" {
		t.Fatalf("unexpected origins %v", cfg.CORSOrigins)
	}
}

func TestLoadInvalidIntFallsBack(t *testing.T) {
	t.Setenv("PORT", "not-a-number")

	if got := Load().Port; got != 3000 {
		t.Fatalf("got port %d, want fallback 3000", got)
	}
}

func TestBuildDBURLFromParts(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_HOST", "pg")
	t.Setenv("DB_NAME", "hours")

	want := "postgres://freelance:freelance@pg:5432/hours?sslmode=disable"
	if got := buildDBURL(); got != want {
		t.Fatalf("got %s, want %s", got, want)
	}
}

func TestValidate(t *testing.T) {
	cfg := Config{Storage: "memory", SessionStore: "memory", SessionTTL: time.Hour, Env: "dev"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("dev config should validate: %v", err)
	}

	cfg.Env = "prod"
	cfg.SessionSecret = devSessionSecret
	if err := cfg.Validate(); err == nil {
		t.Fatalf("prod with dev secret and no google creds should fail")
	}

	cfg.SessionSecret = "real"
	cfg.GoogleClientID = "id"
	cfg.GoogleClientSecret = "secret"
	cfg.AdminEmail = "boss@example.com"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("complete prod config should validate: %v", err)
	}

	cfg.Storage = "sqlite"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("unknown storage should fail")
	}
}
