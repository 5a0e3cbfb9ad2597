package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

var configEnvKeys = []string{
	"DOTENV_FILE",
	"HTTP_ADDR",
	"PORT",
	"HTTP_READ_TIMEOUT_SEC",
	"HTTP_WRITE_TIMEOUT_SEC",
	"HTTP_SHUTDOWN_TIMEOUT_SEC",
	"DATABASE_URL",
	"JWT_SECRET",
	"AUTH_SESSION_TTL_SEC",
	"AUTH_BCRYPT_COST",
	"AUTH_COOKIE_SECURE",
	"AUTH_RATE_LIMIT_RPS",
	"AUTH_RATE_LIMIT_BURST",
	"CLIENT_ORIGIN",
	"AUDIT_LOG_FILE",
	"LOG_LEVEL",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range configEnvKeys {
		t.Setenv(k, "")
	}
	// keep a stray .env in the package dir from leaking into the test
	t.Setenv("DOTENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.HTTP.Addr != ":5000" {
		t.Fatalf("expected default HTTP addr :5000, got %q", cfg.HTTP.Addr)
	}
	if cfg.HTTP.ReadTimeout != 10*time.Second {
		t.Fatalf("expected default read timeout 10s, got %v", cfg.HTTP.ReadTimeout)
	}
	if cfg.HTTP.WriteTimeout != 15*time.Second {
		t.Fatalf("expected default write timeout 15s, got %v", cfg.HTTP.WriteTimeout)
	}
	if cfg.HTTP.ShutdownTimeout != 20*time.Second {
		t.Fatalf("expected default shutdown timeout 20s, got %v", cfg.HTTP.ShutdownTimeout)
	}
	if cfg.DatabaseURL != "" {
		t.Fatalf("expected default database url to be empty, got %q", cfg.DatabaseURL)
	}
	if cfg.Auth.SessionTTL != time.Hour {
		t.Fatalf("expected default session ttl 1h, got %v", cfg.Auth.SessionTTL)
	}
	if cfg.Auth.BcryptCost != 10 {
		t.Fatalf("expected default bcrypt cost 10, got %d", cfg.Auth.BcryptCost)
	}
	if cfg.Auth.CookieSecure {
		t.Fatalf("expected cookie secure flag off by default")
	}
	if cfg.Auth.RateLimitRPS != 5 || cfg.Auth.RateLimitBurst != 10 {
		t.Fatalf("unexpected rate limit defaults: %d/%d", cfg.Auth.RateLimitRPS, cfg.Auth.RateLimitBurst)
	}
	if cfg.ClientOrigin != "http://localhost:5173" {
		t.Fatalf("expected default client origin, got %q", cfg.ClientOrigin)
	}
	if cfg.AuditLogFile != "./data/audit.log" {
		t.Fatalf("expected default audit log file ./data/audit.log, got %q", cfg.AuditLogFile)
	}
	if cfg.LogLevel != "info" {
		t.Fatalf("expected default log level info, got %q", cfg.LogLevel)
	}
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("PORT", "9000")
	t.Setenv("DATABASE_URL", "postgres://localhost/habits")
	t.Setenv("AUTH_SESSION_TTL_SEC", "120")
	t.Setenv("AUTH_BCRYPT_COST", "12")
	t.Setenv("AUTH_COOKIE_SECURE", "true")
	t.Setenv("CLIENT_ORIGIN", "https://habits.example.com")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.HTTP.Addr != ":9000" {
		t.Fatalf("expected addr :9000, got %q", cfg.HTTP.Addr)
	}
	if cfg.DatabaseURL != "postgres://localhost/habits" {
		t.Fatalf("unexpected database url %q", cfg.DatabaseURL)
	}
	if cfg.Auth.SessionTTL != 2*time.Minute {
		t.Fatalf("expected session ttl 2m, got %v", cfg.Auth.SessionTTL)
	}
	if cfg.Auth.BcryptCost != 12 {
		t.Fatalf("expected bcrypt cost 12, got %d", cfg.Auth.BcryptCost)
	}
	if !cfg.Auth.CookieSecure {
		t.Fatalf("expected cookie secure flag on")
	}
	if cfg.ClientOrigin != "https://habits.example.com" {
		t.Fatalf("unexpected client origin %q", cfg.ClientOrigin)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("expected log level debug, got %q", cfg.LogLevel)
	}
}

func TestHTTPAddrWinsOverPort(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("PORT", "9000")
	t.Setenv("HTTP_ADDR", "127.0.0.1:7000")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.HTTP.Addr != "127.0.0.1:7000" {
		t.Fatalf("expected HTTP_ADDR to win, got %q", cfg.HTTP.Addr)
	}
}

func TestLoadFromDotEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "habits.env")
	content := "JWT_SECRET=from-file\nPORT=6000\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write dotenv: %v", err)
	}
	t.Setenv("DOTENV_FILE", path)
	// godotenv only sets keys that are absent, so drop the empty placeholders.
	os.Unsetenv("JWT_SECRET")
	os.Unsetenv("PORT")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.Auth.JWTSecret != "from-file" {
		t.Fatalf("expected secret from dotenv file, got %q", cfg.Auth.JWTSecret)
	}
	if cfg.HTTP.Addr != ":6000" {
		t.Fatalf("expected addr from dotenv file, got %q", cfg.HTTP.Addr)
	}
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "missing secret", env: map[string]string{}},
		{name: "bad ttl", env: map[string]string{"JWT_SECRET": "s", "AUTH_SESSION_TTL_SEC": "-1"}},
		{name: "bcrypt cost too low", env: map[string]string{"JWT_SECRET": "s", "AUTH_BCRYPT_COST": "2"}},
		{name: "bad log level", env: map[string]string{"JWT_SECRET": "s", "LOG_LEVEL": "verbose"}},
		{name: "bad rate limit", env: map[string]string{"JWT_SECRET": "s", "AUTH_RATE_LIMIT_RPS": "-3"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}
