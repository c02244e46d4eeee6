package app

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	BaseURL           string        // Public base URL used in emailed links (default: http://localhost:8080)
	Issuer            string        // Issuer claim for session tokens (default: backdesk-directory)
	DatabaseFile      string        // Path to SQLite database file (default: ./directory.db)
	PepperFile        string        // Path to file containing pepper for password hashing (default: ./pepper)
	SessionSecretFile string        // Path to session signing secret file (default: ./session.key)
	SessionTTL        time.Duration // Session lifetime (default: 12h)
	ResetTokenTTL     time.Duration // Password reset link validity (default: 1h)
	VerifyTokenTTL    time.Duration // Email verification link validity (default: 24h)
	SecureCookies     bool          // Cookie Secure flag; enable behind TLS (default: false)

	SMTPHost     string // SMTP server; empty means log-only mail delivery
	SMTPPort     int    // SMTP port (default: 587)
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string // From address for outgoing mail

	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Housekeeping interval (default: 1h)
}

func LoadConfig() Config {
	return Config{
		BaseURL:           getEnvOrDefault("DIRECTORY_BASE_URL", "http://localhost:8080"),
		Issuer:            getEnvOrDefault("DIRECTORY_ISSUER", "backdesk-directory"),
		DatabaseFile:      getEnvOrDefault("DIRECTORY_DATABASE_FILE", "directory.db"),
		PepperFile:        getEnvOrDefault("DIRECTORY_PEPPER_FILE", "pepper"),
		SessionSecretFile: getEnvOrDefault("DIRECTORY_SESSION_SECRET_FILE", "session.key"),
		SessionTTL:        getEnvDurationOrDefault("DIRECTORY_SESSION_TTL", 12*time.Hour),
		ResetTokenTTL:     getEnvDurationOrDefault("DIRECTORY_RESET_TOKEN_TTL", 1*time.Hour),
		VerifyTokenTTL:    getEnvDurationOrDefault("DIRECTORY_VERIFY_TOKEN_TTL", 24*time.Hour),
		SecureCookies:     getEnvOrDefault("DIRECTORY_SECURE_COOKIES", "false") == "true",

		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPPort:     getEnvIntOrDefault("SMTP_PORT", 587),
		SMTPUsername: os.Getenv("SMTP_USERNAME"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		SMTPFrom:     getEnvOrDefault("SMTP_FROM", "no-reply@backdesk.local"),

		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Try parsing as integer minutes (for backwards compatibility)
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
