package config

import (
	"testing"
	"time"
)

var envVars = []string{
	"PORT", "LOG_LEVEL", "DEBUG", "API_SHARED_SECRET", "RATE_LIMIT_PER_MINUTE",
	"HEADLESS", "LNP_INTERACTIVE", "LNP_USER_DATA_DIR", "CHROME_PATH",
	"DISABLE_STEALTH", "BROWSER_IDLE_TIMEOUT", "TOKEN_TTL_MS", "CAPTURE_WAIT_MS",
	"CAPTURE_RETRIES", "DRIVER_RESTART_RETRIES", "PLAYWRIGHT_RESTART_RETRIES",
	"MANUAL_SOLVE_WAIT_MS", "LNP_SITE_URL", "LNP_API_URL", "UPSTREAM_TIMEOUT",
	"STATS_CONCURRENCY", "JOURNAL_PATH",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, v := range envVars {
		t.Setenv(v, "")
	}
}

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		clearEnv(t)

		cfg := Load()

		if cfg.Port != 8000 {
			t.Errorf("Port = %d, want 8000", cfg.Port)
		}
		if cfg.LogLevel != "info" {
			t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "info")
		}
		if !cfg.Headless {
			t.Error("Headless = false, want true")
		}
		if cfg.Interactive {
			t.Error("Interactive = true, want false")
		}
		if cfg.ProfileDir != "./.lnp-profile" {
			t.Errorf("ProfileDir = %q, want %q", cfg.ProfileDir, "./.lnp-profile")
		}
		if cfg.TokenTTL != 15*time.Second {
			t.Errorf("TokenTTL = %v, want 15s", cfg.TokenTTL)
		}
		if cfg.CaptureWait != 12*time.Second {
			t.Errorf("CaptureWait = %v, want 12s", cfg.CaptureWait)
		}
		if cfg.CaptureRetries != 3 {
			t.Errorf("CaptureRetries = %d, want 3", cfg.CaptureRetries)
		}
		if cfg.DriverRestartRetries != 2 {
			t.Errorf("DriverRestartRetries = %d, want 2", cfg.DriverRestartRetries)
		}
		if cfg.ManualSolveWait != time.Minute {
			t.Errorf("ManualSolveWait = %v, want 1m", cfg.ManualSolveWait)
		}
		if cfg.StatsConcurrency != 6 {
			t.Errorf("StatsConcurrency = %d, want 6", cfg.StatsConcurrency)
		}
		if cfg.UpstreamTimeout != 25*time.Second {
			t.Errorf("UpstreamTimeout = %v, want 25s", cfg.UpstreamTimeout)
		}
		if cfg.SiteURL != "https://www.laczynaspilka.pl" {
			t.Errorf("SiteURL = %q", cfg.SiteURL)
		}
		if cfg.APIBaseURL != "https://competition-api-pro.laczynaspilka.pl/api/bus/competition/v1" {
			t.Errorf("APIBaseURL = %q", cfg.APIBaseURL)
		}
		if !cfg.JournalEnabled() {
			t.Error("JournalEnabled() = false, want true for in-memory default")
		}
		if cfg.BrowserIdleTimeout != 0 {
			t.Errorf("BrowserIdleTimeout = %v, want 0", cfg.BrowserIdleTimeout)
		}
	})

	t.Run("from env", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("PORT", "9000")
		t.Setenv("HEADLESS", "0")
		t.Setenv("LNP_INTERACTIVE", "yes")
		t.Setenv("LNP_USER_DATA_DIR", "  /var/lib/lnp  ")
		t.Setenv("TOKEN_TTL_MS", "30000")
		t.Setenv("CAPTURE_WAIT_MS", "5s")
		t.Setenv("CAPTURE_RETRIES", "5")
		t.Setenv("PLAYWRIGHT_RESTART_RETRIES", "4")
		t.Setenv("STATS_CONCURRENCY", "2")
		t.Setenv("LNP_API_URL", "http://localhost:9999/api/")
		t.Setenv("JOURNAL_PATH", "none")
		t.Setenv("BROWSER_IDLE_TIMEOUT", "10m")

		cfg := Load()

		if cfg.Port != 9000 {
			t.Errorf("Port = %d, want 9000", cfg.Port)
		}
		if cfg.Headless {
			t.Error("Headless = true, want false")
		}
		if !cfg.Interactive {
			t.Error("Interactive = false, want true")
		}
		if cfg.ProfileDir != "/var/lib/lnp" {
			t.Errorf("ProfileDir = %q, want %q", cfg.ProfileDir, "/var/lib/lnp")
		}
		if cfg.TokenTTL != 30*time.Second {
			t.Errorf("TokenTTL = %v, want 30s", cfg.TokenTTL)
		}
		if cfg.CaptureWait != 5*time.Second {
			t.Errorf("CaptureWait = %v, want 5s", cfg.CaptureWait)
		}
		if cfg.CaptureRetries != 5 {
			t.Errorf("CaptureRetries = %d, want 5", cfg.CaptureRetries)
		}
		if cfg.DriverRestartRetries != 4 {
			t.Errorf("DriverRestartRetries = %d, want 4 (legacy variable)", cfg.DriverRestartRetries)
		}
		if cfg.StatsConcurrency != 2 {
			t.Errorf("StatsConcurrency = %d, want 2", cfg.StatsConcurrency)
		}
		if cfg.APIBaseURL != "http://localhost:9999/api" {
			t.Errorf("APIBaseURL = %q, want trailing slash trimmed", cfg.APIBaseURL)
		}
		if cfg.JournalEnabled() {
			t.Error("JournalEnabled() = true, want false")
		}
		if cfg.BrowserIdleTimeout != 10*time.Minute {
			t.Errorf("BrowserIdleTimeout = %v, want 10m", cfg.BrowserIdleTimeout)
		}
	})

	t.Run("debug forces debug level", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("DEBUG", "on")
		t.Setenv("LOG_LEVEL", "warn")

		cfg := Load()

		if !cfg.Debug {
			t.Error("Debug = false, want true")
		}
		if cfg.LogLevel != "debug" {
			t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "debug")
		}
	})

	t.Run("driver restart retries prefers new name", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("DRIVER_RESTART_RETRIES", "1")
		t.Setenv("PLAYWRIGHT_RESTART_RETRIES", "7")

		if got := Load().DriverRestartRetries; got != 1 {
			t.Errorf("DriverRestartRetries = %d, want 1", got)
		}
	})

	t.Run("invalid values use defaults", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("PORT", "not-a-number")
		t.Setenv("TOKEN_TTL_MS", "soon")
		t.Setenv("HEADLESS", "maybe")

		cfg := Load()

		if cfg.Port != 8000 {
			t.Errorf("Port with invalid value = %d, want default 8000", cfg.Port)
		}
		if cfg.TokenTTL != 15*time.Second {
			t.Errorf("TokenTTL with invalid value = %v, want default 15s", cfg.TokenTTL)
		}
		if !cfg.Headless {
			t.Error("Headless with invalid value = false, want default true")
		}
	})
}

func TestGetEnvBool(t *testing.T) {
	tests := []struct {
		value string
		def   bool
		want  bool
	}{
		{"1", false, true},
		{"TRUE", false, true},
		{" on ", false, true},
		{"0", true, false},
		{"Off", true, false},
		{"no", true, false},
		{"", true, true},
		{"", false, false},
		{"garbage", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv("TEST_BOOL", tt.value)
			if got := getEnvBool("TEST_BOOL", tt.def); got != tt.want {
				t.Errorf("getEnvBool(%q, %v) = %v, want %v", tt.value, tt.def, got, tt.want)
			}
		})
	}
}

func TestGetEnvMillis(t *testing.T) {
	t.Setenv("TEST_MS", "1500")
	if got := getEnvMillis("TEST_MS", time.Second); got != 1500*time.Millisecond {
		t.Errorf("getEnvMillis() = %v, want 1.5s", got)
	}

	t.Setenv("TEST_MS", "2m")
	if got := getEnvMillis("TEST_MS", time.Second); got != 2*time.Minute {
		t.Errorf("getEnvMillis() with duration = %v, want 2m", got)
	}

	t.Setenv("TEST_MS", "invalid")
	if got := getEnvMillis("TEST_MS", time.Hour); got != time.Hour {
		t.Errorf("getEnvMillis() with invalid value = %v, want default 1h", got)
	}
}

func TestGetEnvDuration(t *testing.T) {
	t.Setenv("TEST_DUR", "5m")
	if got := getEnvDuration("TEST_DUR", time.Second); got != 5*time.Minute {
		t.Errorf("getEnvDuration() = %v, want %v", got, 5*time.Minute)
	}

	t.Setenv("TEST_DUR", "invalid")
	if got := getEnvDuration("TEST_DUR", time.Hour); got != time.Hour {
		t.Errorf("getEnvDuration() with invalid value = %v, want default %v", got, time.Hour)
	}

	if got := getEnvDuration("NONEXISTENT_VAR", 30*time.Second); got != 30*time.Second {
		t.Errorf("getEnvDuration() for missing var = %v, want %v", got, 30*time.Second)
	}
}
