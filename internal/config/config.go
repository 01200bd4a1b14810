// Package config provides configuration management for the LNP scraper service.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the LNP scraper service.
type Config struct {
	// Server settings
	Port               int
	LogLevel           string
	Debug              bool
	SharedSecret       string // HMAC secret for signed requests; empty disables the check
	RateLimitPerMinute int

	// Browser settings
	Headless           bool
	Interactive        bool   // Wait for a human to clear the challenge in a visible browser
	ProfileDir         string // Persistent Chromium profile (cookies, local storage)
	ChromePath         string
	DisableStealth     bool
	BrowserIdleTimeout time.Duration

	// Credential acquisition settings
	TokenTTL             time.Duration
	CaptureWait          time.Duration
	CaptureRetries       int
	DriverRestartRetries int
	ManualSolveWait      time.Duration

	// Upstream settings
	SiteURL          string
	APIBaseURL       string
	UpstreamTimeout  time.Duration
	StatsConcurrency int

	// Capture journal ("none" disables it)
	JournalPath string
}

// Load creates a Config from environment variables with sensible defaults.
func Load() *Config {
	debug := getEnvBool("DEBUG", false)
	logLevel := getEnv("LOG_LEVEL", "info")
	if debug {
		logLevel = "debug"
	}

	return &Config{
		Port:                 getEnvInt("PORT", 8000),
		LogLevel:             logLevel,
		Debug:                debug,
		SharedSecret:         getEnv("API_SHARED_SECRET", ""),
		RateLimitPerMinute:   getEnvInt("RATE_LIMIT_PER_MINUTE", 120),
		Headless:             getEnvBool("HEADLESS", true),
		Interactive:          getEnvBool("LNP_INTERACTIVE", false),
		ProfileDir:           strings.TrimSpace(getEnv("LNP_USER_DATA_DIR", "./.lnp-profile")),
		ChromePath:           getEnv("CHROME_PATH", ""),
		DisableStealth:       getEnvBool("DISABLE_STEALTH", false),
		BrowserIdleTimeout:   getEnvDuration("BROWSER_IDLE_TIMEOUT", 0),
		TokenTTL:             getEnvMillis("TOKEN_TTL_MS", 15*time.Second),
		CaptureWait:          getEnvMillis("CAPTURE_WAIT_MS", 12*time.Second),
		CaptureRetries:       getEnvInt("CAPTURE_RETRIES", 3),
		DriverRestartRetries: getEnvInt("DRIVER_RESTART_RETRIES", getEnvInt("PLAYWRIGHT_RESTART_RETRIES", 2)),
		ManualSolveWait:      getEnvMillis("MANUAL_SOLVE_WAIT_MS", 60*time.Second),
		SiteURL:              strings.TrimRight(getEnv("LNP_SITE_URL", "https://www.laczynaspilka.pl"), "/"),
		APIBaseURL:           strings.TrimRight(getEnv("LNP_API_URL", "https://competition-api-pro.laczynaspilka.pl/api/bus/competition/v1"), "/"),
		UpstreamTimeout:      getEnvDuration("UPSTREAM_TIMEOUT", 25*time.Second),
		StatsConcurrency:     getEnvInt("STATS_CONCURRENCY", 6),
		JournalPath:          getEnv("JOURNAL_PATH", ":memory:"),
	}
}

// JournalEnabled reports whether capture outcomes should be recorded.
func (c *Config) JournalEnabled() bool {
	return c.JournalPath != "" && c.JournalPath != "none"
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
			return i
		}
	}
	return defaultVal
}

// getEnvBool accepts 1/true/yes/on and 0/false/no/off; anything else keeps the default.
func getEnvBool(key string, defaultVal bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return defaultVal
	}
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

// getEnvMillis reads a plain integer as milliseconds, falling back to a Go duration string.
func getEnvMillis(key string, defaultVal time.Duration) time.Duration {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return defaultVal
	}
	if ms, err := strconv.Atoi(val); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	if d, err := time.ParseDuration(val); err == nil {
		return d
	}
	return defaultVal
}
