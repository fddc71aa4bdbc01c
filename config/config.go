package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Version is the release reported by the health endpoint and the CLI.
const Version = "0.3.0"

// DefaultUserAgent identifies the auditor to the sites it visits.
const DefaultUserAgent = "Daily SEO Assistant Bot/1.0 (SEO Analysis)"

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Browser   BrowserConfig
	Audit     AuditConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Cache     CacheConfig
	Log       LogConfig
	Report    ReportConfig
	Mail      MailConfig
	Webhook   WebhookConfig
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8080
	Mode string // "debug", "release", "test"; default: "release"
}

// BrowserConfig controls the Rod browser instance.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// DefaultProxy is the proxy URL for all browser traffic.
	DefaultProxy string

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string

	// Stealth injects the stealth evasion script into every audited page.
	Stealth bool // default: false

	// CloseTimeout bounds disposal of a per-audit browser context.
	CloseTimeout time.Duration // default: 5s
}

// AuditConfig controls page rendering and rule evaluation.
type AuditConfig struct {
	// Timeout is the hard limit for one render, navigation to quiescence.
	Timeout time.Duration // default: 30s

	// UserAgent is sent with every audited request.
	UserAgent string

	// AcceptLanguage is sent as an extra header; empty disables it.
	AcceptLanguage string // default: "en-US,en;q=0.9"

	// IdleWindow is how long the network must stay quiet.
	IdleWindow time.Duration // default: 500ms

	// MaxInflight is the number of requests still tolerated as "quiet".
	MaxInflight int // default: 2

	// RenderMode selects the page renderer: "browser" or "http".
	RenderMode string // default: "browser"

	// ExtendedRules enables the informational rule catalog.
	ExtendedRules bool // default: false

	// BatchConcurrency caps parallel audits in one batch job.
	BatchConcurrency int // default: 4
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	// Enabled toggles API key authentication.
	Enabled bool // default: true

	// APIKeys is the list of valid API keys.
	APIKeys []string
}

// RateLimitConfig controls per-key rate limiting.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per API key.
	RequestsPerSecond float64 // default: 2

	// Burst is the maximum burst size per API key.
	Burst int // default: 5
}

// CacheConfig controls the report cache.
type CacheConfig struct {
	// Backend is "memory" or "redis".
	Backend string // default: "memory"

	// MaxEntries is the maximum number of cached reports (memory backend).
	MaxEntries int // default: 1000

	// TTL bounds how long any report is retained.
	TTL time.Duration // default: 24h

	RedisAddr     string // default: "localhost:6379"
	RedisPassword string
	RedisDB       int
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// ReportConfig controls report rendering.
type ReportConfig struct {
	// GoodMin and WarningMin are the score band thresholds.
	GoodMin    int // default: 80
	WarningMin int // default: 60

	ProductName  string // default: "Daily SEO Assistant"
	DashboardURL string
}

// MailConfig configures the SMTP delivery channel. Empty Host disables it.
type MailConfig struct {
	Host     string
	Port     int // default: 587
	Username string
	Password string
	From     string // default: "reports@localhost"
}

// WebhookConfig configures the webhook delivery channel.
type WebhookConfig struct {
	// Timeout bounds a single webhook POST.
	Timeout time.Duration // default: 10s

	// RetryDelays are the waits before each delivery attempt.
	RetryDelays []time.Duration // default: [0s, 1s, 5s, 30s]

	// AllowPrivate permits webhook targets on loopback and private networks.
	AllowPrivate bool // default: false
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host: envOr("SEOAUDIT_HOST", "0.0.0.0"),
			Port: envIntOr("SEOAUDIT_PORT", 8080),
			Mode: envOr("SEOAUDIT_MODE", "release"),
		},
		Browser: BrowserConfig{
			Headless:     envBoolOr("SEOAUDIT_HEADLESS", true),
			DefaultProxy: os.Getenv("SEOAUDIT_PROXY"),
			NoSandbox:    envBoolOr("SEOAUDIT_NO_SANDBOX", false),
			BrowserBin:   os.Getenv("SEOAUDIT_BROWSER_BIN"),
			Stealth:      envBoolOr("SEOAUDIT_STEALTH", false),
			CloseTimeout: envDurationOr("SEOAUDIT_CLOSE_TIMEOUT", 5*time.Second),
		},
		Audit: AuditConfig{
			Timeout:          envDurationOr("SEOAUDIT_TIMEOUT", 30*time.Second),
			UserAgent:        envOr("SEOAUDIT_USER_AGENT", DefaultUserAgent),
			AcceptLanguage:   envOr("SEOAUDIT_ACCEPT_LANGUAGE", "en-US,en;q=0.9"),
			IdleWindow:       envDurationOr("SEOAUDIT_IDLE_WINDOW", 500*time.Millisecond),
			MaxInflight:      envIntOr("SEOAUDIT_IDLE_MAX_INFLIGHT", 2),
			RenderMode:       envOr("SEOAUDIT_RENDER_MODE", "browser"),
			ExtendedRules:    envBoolOr("SEOAUDIT_EXTENDED_RULES", false),
			BatchConcurrency: envIntOr("SEOAUDIT_BATCH_CONCURRENCY", 4),
		},
		Auth: AuthConfig{
			Enabled: envBoolOr("SEOAUDIT_AUTH_ENABLED", true),
			APIKeys: envSliceOr("SEOAUDIT_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("SEOAUDIT_RATE_RPS", 2.0),
			Burst:             envIntOr("SEOAUDIT_RATE_BURST", 5),
		},
		Cache: CacheConfig{
			Backend:       envOr("SEOAUDIT_CACHE_BACKEND", "memory"),
			MaxEntries:    envIntOr("SEOAUDIT_CACHE_MAX_ENTRIES", 1000),
			TTL:           envDurationOr("SEOAUDIT_CACHE_TTL", 24*time.Hour),
			RedisAddr:     envOr("SEOAUDIT_REDIS_ADDR", "localhost:6379"),
			RedisPassword: os.Getenv("SEOAUDIT_REDIS_PASSWORD"),
			RedisDB:       envIntOr("SEOAUDIT_REDIS_DB", 0),
		},
		Log: LogConfig{
			Level:  envOr("SEOAUDIT_LOG_LEVEL", "info"),
			Format: envOr("SEOAUDIT_LOG_FORMAT", "json"),
		},
		Report: ReportConfig{
			GoodMin:      envIntOr("SEOAUDIT_BAND_GOOD", 80),
			WarningMin:   envIntOr("SEOAUDIT_BAND_WARNING", 60),
			ProductName:  envOr("SEOAUDIT_PRODUCT_NAME", "Daily SEO Assistant"),
			DashboardURL: os.Getenv("SEOAUDIT_DASHBOARD_URL"),
		},
		Mail: MailConfig{
			Host:     os.Getenv("SEOAUDIT_SMTP_HOST"),
			Port:     envIntOr("SEOAUDIT_SMTP_PORT", 587),
			Username: os.Getenv("SEOAUDIT_SMTP_USERNAME"),
			Password: os.Getenv("SEOAUDIT_SMTP_PASSWORD"),
			From:     envOr("SEOAUDIT_SMTP_FROM", "reports@localhost"),
		},
		Webhook: WebhookConfig{
			Timeout:      envDurationOr("SEOAUDIT_WEBHOOK_TIMEOUT", 10*time.Second),
			RetryDelays:  envDurationSliceOr("SEOAUDIT_RETRY_DELAYS", []time.Duration{0, time.Second, 5 * time.Second, 30 * time.Second}),
			AllowPrivate: envBoolOr("SEOAUDIT_WEBHOOK_ALLOW_PRIVATE", false),
		},
	}
}

func envDurationSliceOr(key string, fallback []time.Duration) []time.Duration {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]time.Duration, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				if d, err := time.ParseDuration(trimmed); err == nil {
					result = append(result, d)
				}
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
