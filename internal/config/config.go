package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// Environment
	Env string // "development", "production", etc.

	// Server
	ServerAddr string
	BaseURL    string

	// Storage backend: "postgres" or "memory"
	StoreDriver string
	DatabaseURL string

	// Session, limiter and bearer tokens
	SessionSecret  string // Used for signing bearer tokens (min 32 chars)
	SessionTTL     time.Duration
	TokenTTL       time.Duration
	RedisURL       string // Optional; sessions and rate limits stay in memory when empty
	RateLimitMax   int    // Requests per window per IP on anonymous write endpoints
	RateLimitEvery time.Duration

	// CORS
	CORSOrigins string // Comma-separated allowed origins

	// OIDC (optional alternative to password login)
	OIDCIssuer       string
	OIDCClientID     string
	OIDCClientSecret string
	OIDCRedirectURL  string

	// SMTP
	SMTPEnabled  bool
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
	SMTPFromName string
	SMTPTLS      string // "none", "tls" or "starttls"

	// reCAPTCHA v3
	RecaptchaSecretKey string
	RecaptchaMinScore  float64
	RecaptchaVerifyURL string

	// Object storage for step images (S3 compatible)
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string
	S3UseSSL    bool
	S3PublicURL string // Base URL under which uploaded objects are served
	MaxUploadMB int

	// Seed file with initial users and catalog
	SeedFile string

	// Site Branding
	SiteTitle string // env: SITE_TITLE, default: "Niet Laden"
}

// Load reads configuration from the environment, after applying a .env file
// when one exists in the working directory.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Env:         getEnv("ENV", "development"),
		ServerAddr:  getEnv("SERVER_ADDR", ":3000"),
		BaseURL:     strings.TrimRight(getEnv("BASE_URL", "http://localhost:3000"), "/"),
		StoreDriver: getEnv("STORE_DRIVER", "postgres"),
		DatabaseURL: getEnv("DATABASE_URL", "postgres://localhost:5432/nietladen?sslmode=disable"),

		SessionSecret:  getEnv("SESSION_SECRET", "change-me-in-production-min-32-chars"),
		SessionTTL:     getEnvDuration("SESSION_TTL", 24*time.Hour),
		TokenTTL:       getEnvDuration("TOKEN_TTL", 12*time.Hour),
		RedisURL:       getEnv("REDIS_URL", ""),
		RateLimitMax:   getEnvInt("RATE_LIMIT_MAX", 20),
		RateLimitEvery: getEnvDuration("RATE_LIMIT_WINDOW", time.Minute),
		CORSOrigins:    getEnv("CORS_ORIGINS", ""),

		OIDCIssuer:       getEnv("OIDC_ISSUER", ""),
		OIDCClientID:     getEnv("OIDC_CLIENT_ID", ""),
		OIDCClientSecret: getEnv("OIDC_CLIENT_SECRET", ""),
		OIDCRedirectURL:  getEnv("OIDC_REDIRECT_URL", "http://localhost:3000/auth/oidc/callback"),

		SMTPEnabled:  getEnvBool("SMTP_ENABLED", false),
		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     getEnvInt("SMTP_PORT", 587),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		SMTPFrom:     getEnv("SMTP_FROM", ""),
		SMTPFromName: getEnv("SMTP_FROM_NAME", "Niet Laden"),
		SMTPTLS:      getEnv("SMTP_TLS", "starttls"),

		RecaptchaSecretKey: getEnv("RECAPTCHA_SECRET_KEY", ""),
		RecaptchaMinScore:  getEnvFloat("RECAPTCHA_MIN_SCORE", 0.5),
		RecaptchaVerifyURL: getEnv("RECAPTCHA_VERIFY_URL", "https://www.google.com/recaptcha/api/siteverify"),

		S3Endpoint:  getEnv("S3_ENDPOINT", ""),
		S3AccessKey: getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey: getEnv("S3_SECRET_KEY", ""),
		S3Bucket:    getEnv("S3_BUCKET", "guide-images"),
		S3UseSSL:    getEnvBool("S3_USE_SSL", true),
		S3PublicURL: strings.TrimRight(getEnv("S3_PUBLIC_URL", ""), "/"),
		MaxUploadMB: getEnvInt("MAX_UPLOAD_MB", 5),

		SeedFile: getEnv("SEED_FILE", ""),

		SiteTitle: getEnv("SITE_TITLE", "Niet Laden"),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return n
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if f, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return f
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if b, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return b
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return d
	}
	return fallback
}

// IsDev returns true if the environment is set to development.
func (c *Config) IsDev() bool {
	return c.Env == "development" || c.Env == "dev"
}

// IsEmailEnabled returns true if SMTP is configured well enough to send mail.
func (c *Config) IsEmailEnabled() bool {
	return c.SMTPEnabled && c.SMTPHost != "" && c.SMTPFrom != ""
}

// IsOIDCEnabled returns true if an OIDC provider is configured.
func (c *Config) IsOIDCEnabled() bool {
	return c.OIDCIssuer != "" && c.OIDCClientID != ""
}

// IsObjectStorageEnabled returns true if step image uploads can be stored.
func (c *Config) IsObjectStorageEnabled() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

// CORSOriginList splits CORSOrigins into trimmed, non-empty entries.
func (c *Config) CORSOriginList() []string {
	var out []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
