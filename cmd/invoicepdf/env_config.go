package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/alnah/invoicepdf/internal/config"
)

// envConfig holds configuration from environment variables.
// Provides container-friendly overrides without requiring YAML files.
type envConfig struct {
	// Tier 1 - Essential
	ConfigPath string // INVOICEPDF_CONFIG: config file path
	Addr       string // INVOICEPDF_ADDR: HTTP listen address
	StoreAddr  string // INVOICEPDF_STORE_ADDR: valkey address

	// Tier 2 - Tuning
	PoolSize int    // INVOICEPDF_POOL_SIZE: pages in the pool
	Timeout  string // INVOICEPDF_TIMEOUT: render timeout
	CacheTTL string // INVOICEPDF_CACHE_TTL: result cache TTL

	// Tier 3 - Operations
	LogLevel   string // INVOICEPDF_LOG_LEVEL: debug, info, warn, error
	LogFormat  string // INVOICEPDF_LOG_FORMAT: json, console
	BrowserBin string // INVOICEPDF_BROWSER_BIN: Chrome binary
	NoSandbox  bool   // INVOICEPDF_NO_SANDBOX: disable Chrome sandbox
}

// knownEnvVars lists valid INVOICEPDF_* environment variables.
// Used to detect typos and warn users about unknown variables.
var knownEnvVars = map[string]bool{
	"INVOICEPDF_CONFIG":      true,
	"INVOICEPDF_ADDR":        true,
	"INVOICEPDF_STORE_ADDR":  true,
	"INVOICEPDF_POOL_SIZE":   true,
	"INVOICEPDF_TIMEOUT":     true,
	"INVOICEPDF_CACHE_TTL":   true,
	"INVOICEPDF_LOG_LEVEL":   true,
	"INVOICEPDF_LOG_FORMAT":  true,
	"INVOICEPDF_BROWSER_BIN": true,
	"INVOICEPDF_NO_SANDBOX":  true,
}

// loadEnvConfig reads configuration from environment variables.
// Unparsable numbers are ignored; durations are validated with the config.
func loadEnvConfig(getenv func(string) string) *envConfig {
	cfg := &envConfig{
		ConfigPath: getenv("INVOICEPDF_CONFIG"),
		Addr:       getenv("INVOICEPDF_ADDR"),
		StoreAddr:  getenv("INVOICEPDF_STORE_ADDR"),
		Timeout:    getenv("INVOICEPDF_TIMEOUT"),
		CacheTTL:   getenv("INVOICEPDF_CACHE_TTL"),
		LogLevel:   getenv("INVOICEPDF_LOG_LEVEL"),
		LogFormat:  getenv("INVOICEPDF_LOG_FORMAT"),
		BrowserBin: getenv("INVOICEPDF_BROWSER_BIN"),
	}

	if size := getenv("INVOICEPDF_POOL_SIZE"); size != "" {
		if n, err := strconv.Atoi(size); err == nil && n > 0 {
			cfg.PoolSize = n
		}
	}
	if v := getenv("INVOICEPDF_NO_SANDBOX"); v != "" {
		cfg.NoSandbox, _ = strconv.ParseBool(v)
	}

	return cfg
}

// warnUnknownEnvVars logs warnings for unrecognized INVOICEPDF_* variables.
func warnUnknownEnvVars(w io.Writer, environ []string) {
	for _, env := range environ {
		if strings.HasPrefix(env, "INVOICEPDF_") {
			name := strings.SplitN(env, "=", 2)[0]
			if !knownEnvVars[name] {
				fmt.Fprintf(w, "warning: unknown environment variable %s (typo?)\n", name)
			}
		}
	}
}

// applyEnvConfig applies environment variable values to config.
// Env values override the file; CLI flags are applied afterwards.
// Precedence: CLI flags > env vars > config file > defaults.
func applyEnvConfig(env *envConfig, cfg *config.Config) {
	if env.Addr != "" {
		cfg.Server.Addr = env.Addr
	}
	if env.StoreAddr != "" {
		cfg.Store.Addr = env.StoreAddr
	}
	if env.PoolSize > 0 {
		cfg.Pool.Size = env.PoolSize
	}
	if env.Timeout != "" {
		cfg.Render.Timeout = config.Duration(env.Timeout)
	}
	if env.CacheTTL != "" {
		cfg.Cache.TTL = config.Duration(env.CacheTTL)
	}
	if env.LogLevel != "" {
		cfg.Log.Level = env.LogLevel
	}
	if env.LogFormat != "" {
		cfg.Log.Format = env.LogFormat
	}
	if env.BrowserBin != "" {
		cfg.Browser.Bin = env.BrowserBin
	}
	if env.NoSandbox {
		cfg.Browser.NoSandbox = true
	}
}
