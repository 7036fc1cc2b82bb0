package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the application-wide configuration.
// It is loaded once from environment variables at startup and treated
// as immutable afterwards.
type Config struct {
	// Database
	DatabaseURL string

	// Redis (compliance-alert queue)
	RedisAddr     string
	RedisPassword string
	AlertQueueKey string

	// Alert delivery worker
	AlertWebhookURL  string
	AlertHTTPTimeout time.Duration
	AlertMaxAttempts int
	AlertPollTimeout time.Duration

	// Session
	SessionSecret string
	SessionMaxAge int

	// SWMS portal
	SWMSTokenSecret   string
	SWMSTokenTTL      time.Duration
	SWMSStorageDir    string
	SWMSMaxUploadSize int64

	// Rate limits (requests per minute, per client IP)
	RateLimitCheckIn   int
	RateLimitInduction int

	// Server
	ServerPort string
	BaseURL    string

	// Cookie
	CookieSecure bool
	CookieDomain string

	// CORS
	CORSAllowedOrigin string
}

// Load reads the Config from environment variables.
// It returns an error listing every required variable that is unset.
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	cfg.SessionSecret = os.Getenv("SESSION_SECRET")
	if cfg.SessionSecret == "" {
		missing = append(missing, "SESSION_SECRET")
	}

	cfg.SWMSTokenSecret = os.Getenv("SWMS_TOKEN_SECRET")
	if cfg.SWMSTokenSecret == "" {
		missing = append(missing, "SWMS_TOKEN_SECRET")
	}

	cfg.BaseURL = os.Getenv("BASE_URL")
	if cfg.BaseURL == "" {
		missing = append(missing, "BASE_URL")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.RedisAddr = getEnvString("REDIS_ADDR", "localhost:6379")
	cfg.RedisPassword = getEnvString("REDIS_PASSWORD", "")
	cfg.AlertQueueKey = getEnvString("ALERT_QUEUE_KEY", "siteward:compliance_alerts")
	cfg.AlertWebhookURL = getEnvString("ALERT_WEBHOOK_URL", "")
	cfg.AlertHTTPTimeout = getEnvDuration("ALERT_HTTP_TIMEOUT", 10*time.Second)
	cfg.AlertMaxAttempts = getEnvInt("ALERT_MAX_ATTEMPTS", 5)
	cfg.AlertPollTimeout = getEnvDuration("ALERT_POLL_TIMEOUT", 5*time.Second)
	cfg.SessionMaxAge = getEnvInt("SESSION_MAX_AGE", 86400)
	cfg.SWMSTokenTTL = getEnvDuration("SWMS_TOKEN_TTL", 72*time.Hour)
	cfg.SWMSStorageDir = getEnvString("SWMS_STORAGE_DIR", "data/swms")
	cfg.SWMSMaxUploadSize = getEnvInt64("SWMS_MAX_UPLOAD_SIZE", 10485760)
	cfg.RateLimitCheckIn = getEnvInt("RATE_LIMIT_CHECKIN", 30)
	cfg.RateLimitInduction = getEnvInt("RATE_LIMIT_INDUCTION", 10)
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.CookieSecure = strings.HasPrefix(cfg.BaseURL, "https://")
	cfg.CookieDomain = getEnvString("COOKIE_DOMAIN", "")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")

	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvInt64(key string, defaultVal int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
