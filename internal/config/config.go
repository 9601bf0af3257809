package config

import (
	"errors"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Sessions and verification
	JWTSecret            string
	SessionTTL           time.Duration
	VerificationTokenTTL time.Duration
	BcryptCost           int

	// Client
	ClientURL   string
	CORSOrigins string

	// Mail
	MailProvider string
	SMTPHost     string
	SMTPPort     string
	SMTPUser     string
	SMTPPassword string
	MailFrom     string
	MailFromName string
	MailTimeout  time.Duration

	// Account events (optional)
	KafkaBroker   string
	KafkaTopic    string
	KafkaUsername string
	KafkaPassword string

	// ML inference service
	MLServiceURL string
	MLTimeout    time.Duration

	// Sign dictionary
	WLASLDataPath string

	// Admin
	AdminEmails string
	AdminToken  string

	// Server
	Port          string
	AppEnv        string
	LogLevel      string
	AuthRateLimit int
	APIRateLimit  int

	// Maintenance
	LogRetention    time.Duration
	CleanupInterval time.Duration

	SentryDSN string
}

// Load reads configuration from the environment. Outside production a local
// .env file is applied first.
func Load() *Config {
	if os.Getenv("APP_ENV") != "production" {
		if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
			slog.Warn(".env not loaded", "error", err)
		}
	}

	clientURL := strings.TrimRight(getEnv("CLIENT_URL", "http://localhost:3000"), "/")

	return &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "signverse"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		JWTSecret:            getEnv("JWT_SECRET", ""),
		SessionTTL:           parseDuration(getEnv("SESSION_TTL", "720h"), 30*24*time.Hour),
		VerificationTokenTTL: parseDuration(getEnv("VERIFICATION_TOKEN_TTL", "24h"), 24*time.Hour),
		BcryptCost:           parseInt(getEnv("BCRYPT_COST", "10"), 10),

		ClientURL:   clientURL,
		CORSOrigins: getEnv("CORS_ORIGINS", clientURL),

		MailProvider: strings.ToLower(getEnv("MAIL_PROVIDER", "smtp")),
		SMTPHost:     getEnv("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:     getEnv("SMTP_PORT", "587"),
		SMTPUser:     getEnv("SMTP_USER", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		MailFrom:     getEnv("MAIL_FROM", getEnv("SMTP_USER", "")),
		MailFromName: getEnv("MAIL_FROM_NAME", "Sign Language Translation"),
		MailTimeout:  parseDuration(getEnv("MAIL_TIMEOUT", "15s"), 15*time.Second),

		KafkaBroker:   getEnv("KAFKA_BROKER", ""),
		KafkaTopic:    getEnv("KAFKA_TOPIC", "account-events"),
		KafkaUsername: getEnv("KAFKA_USERNAME", ""),
		KafkaPassword: getEnv("KAFKA_PASSWORD", ""),

		MLServiceURL: strings.TrimRight(getEnv("ML_SERVICE_URL", "http://localhost:5001"), "/"),
		MLTimeout:    parseDuration(getEnv("ML_TIMEOUT", "30s"), 30*time.Second),

		WLASLDataPath: getEnv("WLASL_DATA_PATH", "data/wlasl.json"),

		AdminEmails: getEnv("ADMIN_EMAILS", ""),
		AdminToken:  getEnv("ADMIN_TOKEN", ""),

		Port:          getEnv("PORT", "5000"),
		AppEnv:        getEnv("APP_ENV", "development"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		AuthRateLimit: parseInt(getEnv("AUTH_RATE_LIMIT", "10"), 10),
		APIRateLimit:  parseInt(getEnv("API_RATE_LIMIT", "60"), 60),

		LogRetention:    parseDuration(getEnv("LOG_RETENTION", "720h"), 30*24*time.Hour),
		CleanupInterval: parseDuration(getEnv("CLEANUP_INTERVAL", "1h"), time.Hour),

		SentryDSN: getEnv("SENTRY_DSN", ""),
	}
}

// Validate reports settings the server cannot start without.
func (c *Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.DBPassword == "" {
		errs = append(errs, errors.New("DB_PASSWORD is required"))
	}
	switch c.MailProvider {
	case "smtp":
		if c.SMTPHost == "" || c.SMTPUser == "" {
			errs = append(errs, errors.New("SMTP_HOST and SMTP_USER are required for MAIL_PROVIDER=smtp"))
		}
	case "log":
	default:
		errs = append(errs, errors.New("MAIL_PROVIDER must be smtp or log"))
	}
	return errors.Join(errs...)
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func (c *Config) DSN() string {
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort +
		" sslmode=" + c.DBSSLMode +
		" TimeZone=UTC"
}

func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func parseInt(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
