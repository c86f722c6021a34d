package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/alnah/invoicepdf/internal/config"
)

// mapGetenv returns a getenv function backed by m.
func mapGetenv(m map[string]string) func(string) string {
	return func(key string) string { return m[key] }
}

// ---------------------------------------------------------------------------
// TestLoadEnvConfig - Environment parsing
// ---------------------------------------------------------------------------

func TestLoadEnvConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		env  map[string]string
		want envConfig
	}{
		{
			name: "empty",
			env:  nil,
			want: envConfig{},
		},
		{
			name: "all set",
			env: map[string]string{
				"INVOICEPDF_CONFIG":      "prod",
				"INVOICEPDF_ADDR":        ":9090",
				"INVOICEPDF_STORE_ADDR":  "cache:6379",
				"INVOICEPDF_POOL_SIZE":   "4",
				"INVOICEPDF_TIMEOUT":     "45s",
				"INVOICEPDF_CACHE_TTL":   "5m",
				"INVOICEPDF_LOG_LEVEL":   "debug",
				"INVOICEPDF_LOG_FORMAT":  "console",
				"INVOICEPDF_BROWSER_BIN": "/usr/bin/chromium",
				"INVOICEPDF_NO_SANDBOX":  "true",
			},
			want: envConfig{
				ConfigPath: "prod",
				Addr:       ":9090",
				StoreAddr:  "cache:6379",
				PoolSize:   4,
				Timeout:    "45s",
				CacheTTL:   "5m",
				LogLevel:   "debug",
				LogFormat:  "console",
				BrowserBin: "/usr/bin/chromium",
				NoSandbox:  true,
			},
		},
		{
			name: "invalid pool size ignored",
			env:  map[string]string{"INVOICEPDF_POOL_SIZE": "many"},
			want: envConfig{},
		},
		{
			name: "negative pool size ignored",
			env:  map[string]string{"INVOICEPDF_POOL_SIZE": "-2"},
			want: envConfig{},
		},
		{
			name: "no sandbox as 1",
			env:  map[string]string{"INVOICEPDF_NO_SANDBOX": "1"},
			want: envConfig{NoSandbox: true},
		},
		{
			name: "no sandbox garbage is false",
			env:  map[string]string{"INVOICEPDF_NO_SANDBOX": "maybe"},
			want: envConfig{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := loadEnvConfig(mapGetenv(tt.env))
			if *got != tt.want {
				t.Errorf("loadEnvConfig() = %+v, want %+v", *got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestApplyEnvConfig - Env values override the file
// ---------------------------------------------------------------------------

func TestApplyEnvConfig(t *testing.T) {
	t.Parallel()

	t.Run("overrides set fields", func(t *testing.T) {
		t.Parallel()

		cfg := config.DefaultConfig()
		cfg.Pool.Size = 2
		cfg.Render.Timeout = "10s"
		applyEnvConfig(&envConfig{
			Addr:       ":9090",
			StoreAddr:  "cache:6379",
			PoolSize:   6,
			Timeout:    "1m",
			CacheTTL:   "2m",
			LogLevel:   "warn",
			LogFormat:  "console",
			BrowserBin: "/opt/chrome",
			NoSandbox:  true,
		}, cfg)

		if cfg.Server.Addr != ":9090" || cfg.Store.Addr != "cache:6379" {
			t.Errorf("addresses = %q, %q", cfg.Server.Addr, cfg.Store.Addr)
		}
		if cfg.Pool.Size != 6 {
			t.Errorf("Pool.Size = %d, want 6", cfg.Pool.Size)
		}
		if cfg.Render.Timeout != "1m" || cfg.Cache.TTL != "2m" {
			t.Errorf("durations = %q, %q", cfg.Render.Timeout, cfg.Cache.TTL)
		}
		if cfg.Log.Level != "warn" || cfg.Log.Format != "console" {
			t.Errorf("log = %q/%q", cfg.Log.Level, cfg.Log.Format)
		}
		if cfg.Browser.Bin != "/opt/chrome" || !cfg.Browser.NoSandbox {
			t.Errorf("browser = %q, noSandbox %v", cfg.Browser.Bin, cfg.Browser.NoSandbox)
		}
	})

	t.Run("empty env keeps file values", func(t *testing.T) {
		t.Parallel()

		cfg := config.DefaultConfig()
		cfg.Pool.Size = 2
		cfg.Browser.NoSandbox = true
		applyEnvConfig(&envConfig{}, cfg)

		if cfg.Pool.Size != 2 || !cfg.Browser.NoSandbox || cfg.Server.Addr != ":8080" {
			t.Errorf("config changed by empty env: %+v", cfg)
		}
	})
}

// ---------------------------------------------------------------------------
// TestWarnUnknownEnvVars - Typo detection
// ---------------------------------------------------------------------------

func TestWarnUnknownEnvVars(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	warnUnknownEnvVars(&buf, []string{
		"PATH=/usr/bin",
		"INVOICEPDF_ADDR=:8080",
		"INVOICEPDF_TIMEOUTS=30s",
		"INVOICEPDF_POOLSIZE=2",
	})

	out := buf.String()
	for _, want := range []string{"INVOICEPDF_TIMEOUTS", "INVOICEPDF_POOLSIZE"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing warning for %s: %q", want, out)
		}
	}
	if strings.Contains(out, "INVOICEPDF_ADDR") || strings.Contains(out, "PATH") {
		t.Errorf("output warns about a known variable: %q", out)
	}
}
