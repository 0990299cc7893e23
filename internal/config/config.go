// Package config loads application configuration from environment
// variables.  Required variables halt startup when missing; optional
// ones fall back to sensible defaults so a dev instance runs with a
// near-empty .env.
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
)

// Config holds every runtime setting.  DBDriver selects between the
// production MySQL store and the file-backed SQLite store used for
// local work.
type Config struct {
	Env      string // application environment (development/production)
	Port     string // HTTP port to listen on
	LogLevel string // zap level name
	BaseURL  string // external base URL used in emailed links

	DBDriver string // "mysql" or "sqlite"
	DBUser   string
	DBPass   string
	DBHost   string
	DBPort   string
	DBName   string
	DBPath   string // sqlite database file, used when DBDriver is "sqlite"

	JWTSecret      string
	AccessTTLMin   int // access token time-to-live in minutes
	RefreshTTLDays int // refresh token time-to-live in days
	BcryptCost     int

	InviteTTLDays int // invitation validity window in days

	UploadDir      string // directory for stored upload files
	MaxUploadBytes int64  // per-file upload cap

	EmailProvider string // "sendgrid", "smtp" or "" to disable sending
	EmailAPIKey   string
	EmailEndpoint string // provider API endpoint, overridable for testing
	EmailFrom     string
	SMTPHost      string
	SMTPPort      string
	SMTPUser      string
	SMTPPass      string

	AMQPURL string // activity event broker, empty disables publishing
}

// Load reads the configuration from the environment.  Missing required
// variables cause a fatal log and exit.
func Load() Config {
	cfg := Config{
		Env:      envStr("APP_ENV", "development"),
		Port:     must("APP_PORT"),
		LogLevel: envStr("LOG_LEVEL", "info"),
		BaseURL:  envStr("BASE_URL", "http://localhost:8080"),

		DBDriver: envStr("DB_DRIVER", "mysql"),

		JWTSecret:      must("JWT_SECRET"),
		AccessTTLMin:   envInt("ACCESS_TOKEN_TTL_MIN", 15),
		RefreshTTLDays: envInt("REFRESH_TOKEN_TTL_DAYS", 30),
		BcryptCost:     envInt("BCRYPT_COST", 12),

		InviteTTLDays: envInt("INVITE_TTL_DAYS", 7),

		UploadDir:      envStr("UPLOAD_DIR", "uploads"),
		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 50*1024*1024),

		EmailProvider: os.Getenv("EMAIL_PROVIDER"),
		EmailAPIKey:   os.Getenv("EMAIL_API_KEY"),
		EmailEndpoint: envStr("EMAIL_ENDPOINT", "https://api.sendgrid.com/v3/mail/send"),
		EmailFrom:     envStr("EMAIL_FROM", "noreply@obviu.io"),
		SMTPHost:      os.Getenv("SMTP_HOST"),
		SMTPPort:      envStr("SMTP_PORT", "587"),
		SMTPUser:      os.Getenv("SMTP_USER"),
		SMTPPass:      os.Getenv("SMTP_PASS"),

		AMQPURL: os.Getenv("AMQP_URL"),
	}

	switch cfg.DBDriver {
	case "sqlite":
		cfg.DBPath = envStr("DB_PATH", "data/obview.db")
	case "mysql":
		cfg.DBUser = must("DB_USER")
		cfg.DBPass = os.Getenv("DB_PASS")
		cfg.DBHost = must("DB_HOST")
		cfg.DBPort = must("DB_PORT")
		cfg.DBName = must("DB_NAME")
	default:
		log.Fatalf("unsupported DB_DRIVER: %q", cfg.DBDriver)
	}
	return cfg
}

// DSN returns the data source name for the configured driver.  The
// MySQL DSN deliberately omits parseTime; timestamps travel as strings
// and the repositories parse them.
func (c Config) DSN() string {
	if c.DBDriver == "sqlite" {
		return c.DBPath
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4", c.DBUser, c.DBPass, c.DBHost, c.DBPort, c.DBName)
}

// must retrieves a required environment variable.  An unset or empty
// value logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// envInt64 is envInt for sizes that may exceed 32 bits.
func envInt64(key string, def int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if n, err := strconv.ParseInt(v, 10, 64); err == nil {
		return n
	}
	return def
}
