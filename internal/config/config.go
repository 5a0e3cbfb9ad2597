package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTP         HTTPConfig
	DatabaseURL  string
	Auth         AuthConfig
	ClientOrigin string
	AuditLogFile string
	LogLevel     string
}

type HTTPConfig struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

type AuthConfig struct {
	JWTSecret      string
	SessionTTL     time.Duration
	BcryptCost     int
	CookieSecure   bool
	RateLimitRPS   int
	RateLimitBurst int
}

// Load reads the optional dotenv file first; variables already present in the
// process environment win over the file.
func Load() (Config, error) {
	if err := loadDotEnv(getEnv("DOTENV_FILE", ".env")); err != nil {
		return Config{}, err
	}

	cfg := Config{
		HTTP: HTTPConfig{
			Addr:            listenAddr(),
			ReadTimeout:     time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SEC", 10)) * time.Second,
			WriteTimeout:    time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SEC", 15)) * time.Second,
			ShutdownTimeout: time.Duration(getEnvInt("HTTP_SHUTDOWN_TIMEOUT_SEC", 20)) * time.Second,
		},
		DatabaseURL: getEnv("DATABASE_URL", ""),
		Auth: AuthConfig{
			JWTSecret:      getEnv("JWT_SECRET", ""),
			SessionTTL:     time.Duration(getEnvInt("AUTH_SESSION_TTL_SEC", 3600)) * time.Second,
			BcryptCost:     getEnvInt("AUTH_BCRYPT_COST", 10),
			CookieSecure:   getEnvBool("AUTH_COOKIE_SECURE", false),
			RateLimitRPS:   getEnvInt("AUTH_RATE_LIMIT_RPS", 5),
			RateLimitBurst: getEnvInt("AUTH_RATE_LIMIT_BURST", 10),
		},
		ClientOrigin: getEnv("CLIENT_ORIGIN", "http://localhost:5173"),
		AuditLogFile: getEnv("AUDIT_LOG_FILE", "./data/audit.log"),
		LogLevel:     strings.ToLower(getEnv("LOG_LEVEL", "info")),
	}

	if cfg.HTTP.Addr == "" {
		return Config{}, fmt.Errorf("HTTP_ADDR must not be empty")
	}
	if cfg.Auth.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET must not be empty")
	}
	if cfg.Auth.SessionTTL <= 0 {
		return Config{}, fmt.Errorf("AUTH_SESSION_TTL_SEC must be > 0")
	}
	// bcrypt.MinCost..bcrypt.MaxCost
	if cfg.Auth.BcryptCost < 4 || cfg.Auth.BcryptCost > 31 {
		return Config{}, fmt.Errorf("AUTH_BCRYPT_COST must be between 4 and 31")
	}
	if cfg.Auth.RateLimitRPS <= 0 || cfg.Auth.RateLimitBurst <= 0 {
		return Config{}, fmt.Errorf("AUTH_RATE_LIMIT_RPS and AUTH_RATE_LIMIT_BURST must be > 0")
	}
	if cfg.ClientOrigin == "" {
		return Config{}, fmt.Errorf("CLIENT_ORIGIN must not be empty")
	}
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return Config{}, fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error")
	}

	return cfg, nil
}

// listenAddr honours HTTP_ADDR first and falls back to PORT.
func listenAddr() string {
	if addr := getEnv("HTTP_ADDR", ""); addr != "" {
		return addr
	}
	return ":" + getEnv("PORT", "5000")
}

func loadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load dotenv file %s: %w", path, err)
	}
	return nil
}

func getEnv(key, fallback string) string {
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		return fallback
	}
	return val
}

func getEnvInt(key string, fallback int) int {
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		return fallback
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool) bool {
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		return fallback
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return b
}
