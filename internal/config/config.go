package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	pkgauth "github.com/culthread/backoffice/pkg/auth"
)

type Config struct {
	Server ServerConfig
	Auth   AuthConfig
	Audit  AuditConfig
}

type ServerConfig struct {
	Port           string
	Env            string
	LogLevel       string
	AllowedOrigins []string
}

type AuthConfig struct {
	AdminUsername     string
	AdminRole         string
	AdminPasswordHash string

	TokenSecret string
	TokenExpiry time.Duration

	MaxLoginAttempts int
	LockoutDuration  time.Duration
	SessionTimeout   time.Duration

	TimingDelayBaseMs   int
	TimingDelayRandomMs int

	JanitorInterval time.Duration
}

type AuditConfig struct {
	FilePath   string
	MaxEntries int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	tokenSecret := getEnv("TOKEN_SECRET", "")
	if tokenSecret == "" {
		return nil, fmt.Errorf("TOKEN_SECRET is required")
	}

	env := getEnv("ENV", "development")

	cfg := &Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			Env:            env,
			LogLevel:       getEnv("LOG_LEVEL", "info"),
			AllowedOrigins: parseAllowedOrigins(env),
		},
		Auth: AuthConfig{
			AdminUsername:       getEnv("ADMIN_USERNAME", "admin"),
			AdminRole:           getEnv("ADMIN_ROLE", "admin"),
			AdminPasswordHash:   getEnv("ADMIN_PASSWORD_HASH", ""),
			TokenSecret:         tokenSecret,
			TokenExpiry:         getEnvAsDuration("TOKEN_EXPIRY", 24*time.Hour),
			MaxLoginAttempts:    getEnvAsInt("MAX_LOGIN_ATTEMPTS", 5),
			LockoutDuration:     getEnvAsDuration("LOCKOUT_DURATION", 15*time.Minute),
			SessionTimeout:      getEnvAsDuration("SESSION_TIMEOUT", 30*time.Minute),
			TimingDelayBaseMs:   getEnvAsInt("TIMING_DELAY_BASE_MS", 0),
			TimingDelayRandomMs: getEnvAsInt("TIMING_DELAY_RANDOM_MS", 0),
			JanitorInterval:     getEnvAsDuration("JANITOR_INTERVAL", 1*time.Minute),
		},
		Audit: AuditConfig{
			FilePath:   getEnv("AUDIT_FILE", "backoffice-audit.json"),
			MaxEntries: getEnvAsInt("AUDIT_MAX_ENTRIES", 1000),
		},
	}

	// The admin credential can be supplied pre-hashed, or as plaintext that
	// is hashed once at startup. Plaintext must meet strength requirements.
	if cfg.Auth.AdminPasswordHash == "" {
		adminPassword := getEnv("ADMIN_PASSWORD", "")
		if adminPassword == "" {
			return nil, fmt.Errorf("ADMIN_PASSWORD_HASH or ADMIN_PASSWORD is required")
		}
		if err := pkgauth.ValidatePassword(adminPassword); err != nil {
			return nil, fmt.Errorf("ADMIN_PASSWORD rejected: %w", err)
		}
		hash, err := pkgauth.HashPassword(adminPassword)
		if err != nil {
			return nil, fmt.Errorf("failed to hash ADMIN_PASSWORD: %w", err)
		}
		cfg.Auth.AdminPasswordHash = hash
	}

	if cfg.Audit.MaxEntries <= 0 {
		return nil, fmt.Errorf("AUDIT_MAX_ENTRIES must be positive")
	}

	if err := validateTokenSecret(tokenSecret, env); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validateTokenSecret enforces minimum security standards for the signing secret
func validateTokenSecret(secret, env string) error {
	minLength := 16 // Development minimum
	if env == "production" {
		minLength = 32 // 256 bits
	}

	if len(secret) < minLength {
		return fmt.Errorf("TOKEN_SECRET must be at least %d characters in %s environment (got %d)",
			minLength, env, len(secret))
	}

	weakSecrets := []string{
		"secret", "test", "password", "12345", "changeme",
		"admin", "root", "default", "example",
	}

	secretLower := strings.ToLower(secret)
	for _, weak := range weakSecrets {
		if secretLower == weak {
			return fmt.Errorf("TOKEN_SECRET cannot be a common weak value")
		}
	}

	return nil
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultVal
}

func parseAllowedOrigins(env string) []string {
	if env == "production" {
		originsStr := getEnv("ALLOWED_ORIGINS", "")
		if originsStr == "" {
			return []string{}
		}
		origins := strings.Split(originsStr, ",")
		for i, origin := range origins {
			origins[i] = strings.TrimSpace(origin)
		}
		return origins
	}

	// Development: the dashboard dev server
	return []string{
		"http://localhost:3000",
		"http://localhost:5173",
		"http://127.0.0.1:3000",
		"http://127.0.0.1:5173",
	}
}
