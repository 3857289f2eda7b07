package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Browser   BrowserConfig
	Navigator NavigatorConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Cache     CacheConfig
	Log       LogConfig
	Drift     DriftConfig
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

	// ControlURL connects to an already running Chrome (CDP websocket URL)
	// instead of launching one.
	ControlURL string

	// Proxy is the proxy URL for all browser traffic.
	Proxy string

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string

	// BlockedResourceTypes lists resource types to block.
	// default: ["Image", "Stylesheet", "Font", "Media"]
	BlockedResourceTypes []string

	// ExtraHeaders are sent with every request, as "Name=Value" pairs.
	// default: ["Accept-Language=en-US"]
	ExtraHeaders []string
}

// NavigatorConfig controls how booking pages are requested and awaited.
type NavigatorConfig struct {
	// Endpoint is the booking search page.
	Endpoint string // default: "https://www.southwest.com/air/booking/select.html"

	// WaitTimeout bounds each attempt's wait for the fare button.
	WaitTimeout time.Duration // default: 20s

	// MaxAttempts is the total number of page loads before giving up.
	MaxAttempts int // default: 3
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	// Enabled toggles API key authentication.
	Enabled bool // default: true

	// APIKeys is the list of valid API keys.
	APIKeys []string
}

// RateLimitConfig controls per-key rate limiting of the HTTP API.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per API key.
	RequestsPerSecond float64 // default: 0.2

	// Burst is the maximum burst size per API key.
	Burst int // default: 2
}

// CacheConfig controls the round-trip response cache.
type CacheConfig struct {
	// MaxEntries is the maximum number of cached responses.
	MaxEntries int // default: 200

	// TTL is how long an entry survives regardless of the request's max_age.
	TTL time.Duration // default: 1h
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// DriftConfig controls the cash/points page layout comparison.
type DriftConfig struct {
	// Threshold is the fingerprint distance (0-64) above which the two
	// snapshots are reported as structurally different.
	Threshold int // default: 12

	// WebhookURL receives a signed "layout.drift" event when drift is seen.
	WebhookURL string

	// WebhookSecret signs webhook bodies (HMAC-SHA256).
	WebhookSecret string
}

// Load reads configuration from environment variables with sane defaults.
// A .env file in the working directory is applied first if present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Server: ServerConfig{
			Host: envOr("FARESCOUT_HOST", "0.0.0.0"),
			Port: envIntOr("FARESCOUT_PORT", 8080),
			Mode: envOr("FARESCOUT_MODE", "release"),
		},
		Browser: BrowserConfig{
			Headless:   envBoolOr("FARESCOUT_HEADLESS", true),
			ControlURL: os.Getenv("FARESCOUT_CDP_URL"),
			Proxy:      os.Getenv("FARESCOUT_PROXY"),
			NoSandbox:  envBoolOr("FARESCOUT_NO_SANDBOX", false),
			BrowserBin: os.Getenv("FARESCOUT_BROWSER_BIN"),
			BlockedResourceTypes: envSliceOr("FARESCOUT_BLOCKED_RESOURCES", []string{
				"Image", "Stylesheet", "Font", "Media",
			}),
			ExtraHeaders: envSliceOr("FARESCOUT_EXTRA_HEADERS", []string{
				"Accept-Language=en-US",
			}),
		},
		Navigator: NavigatorConfig{
			Endpoint:    envOr("FARESCOUT_ENDPOINT", "https://www.southwest.com/air/booking/select.html"),
			WaitTimeout: envDurationOr("FARESCOUT_WAIT_TIMEOUT", 20*time.Second),
			MaxAttempts: envIntOr("FARESCOUT_MAX_ATTEMPTS", 3),
		},
		Auth: AuthConfig{
			Enabled: envBoolOr("FARESCOUT_AUTH_ENABLED", true),
			APIKeys: envSliceOr("FARESCOUT_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("FARESCOUT_RATE_RPS", 0.2),
			Burst:             envIntOr("FARESCOUT_RATE_BURST", 2),
		},
		Cache: CacheConfig{
			MaxEntries: envIntOr("FARESCOUT_CACHE_MAX_ENTRIES", 200),
			TTL:        envDurationOr("FARESCOUT_CACHE_TTL", time.Hour),
		},
		Log: LogConfig{
			Level:  envOr("FARESCOUT_LOG_LEVEL", "info"),
			Format: envOr("FARESCOUT_LOG_FORMAT", "json"),
		},
		Drift: DriftConfig{
			Threshold:     envIntOr("FARESCOUT_DRIFT_THRESHOLD", 12),
			WebhookURL:    os.Getenv("FARESCOUT_DRIFT_WEBHOOK_URL"),
			WebhookSecret: os.Getenv("FARESCOUT_DRIFT_WEBHOOK_SECRET"),
		},
	}
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
