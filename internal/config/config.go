package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alnah/invoicepdf/internal/yamlutil"
)

var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrFieldTooLong    = errors.New("field exceeds maximum length")
	ErrInvalidValue    = errors.New("invalid config value")
)

// Field length limits.
const (
	MaxNameLength        = 200  // Business name
	MaxEmailLength       = 254  // RFC 5321
	MaxURLLength         = 2048 // Logo URL or path
	MaxAddressLength     = 500
	MaxTextLength        = 200 // Footer text
	MaxPageSizeLength    = 10  // "letter", "a4", "legal"
	MaxOrientationLength = 10  // "portrait", "landscape"
	MaxAddrLength        = 255 // host:port
)

// appDirName is the directory under the user config dir searched for configs.
const appDirName = "invoicepdf"

// Config holds all configuration for the rendering service.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Browser  BrowserConfig  `yaml:"browser"`
	Pool     PoolConfig     `yaml:"pool"`
	Cache    CacheConfig    `yaml:"cache"`
	Store    StoreConfig    `yaml:"store"`
	Render   RenderConfig   `yaml:"render"`
	Page     PageConfig     `yaml:"page"`
	Footer   FooterConfig   `yaml:"footer"`
	Business BusinessConfig `yaml:"business"`
	Assets   AssetsConfig   `yaml:"assets"`
	Log      LogConfig      `yaml:"log"`
}

// Duration is a Go duration string such as "30s" or "10m". Empty means the
// component default.
type Duration string

// Or returns the parsed duration, or def when empty or unparsable.
func (d Duration) Or(def time.Duration) time.Duration {
	if d == "" {
		return def
	}
	v, err := time.ParseDuration(string(d))
	if err != nil || v <= 0 {
		return def
	}
	return v
}

func (d Duration) validate(field string) error {
	if d == "" {
		return nil
	}
	v, err := time.ParseDuration(string(d))
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidValue, field, err)
	}
	if v <= 0 {
		return fmt.Errorf("%w: %s: must be positive, got %s", ErrInvalidValue, field, d)
	}
	return nil
}

// ServerConfig defines the HTTP listener.
type ServerConfig struct {
	Addr            string   `yaml:"addr"`            // default ":8080"
	ReadTimeout     Duration `yaml:"readTimeout"`     // default 10s
	WriteTimeout    Duration `yaml:"writeTimeout"`    // default 60s
	ShutdownTimeout Duration `yaml:"shutdownTimeout"` // default 15s
	MaxBodyBytes    int64    `yaml:"maxBodyBytes"`    // default 1 MiB
}

// BrowserConfig defines the headless browser process.
type BrowserConfig struct {
	Bin            string   `yaml:"bin"` // empty = ROD_BROWSER_BIN or rod's managed download
	NoSandbox      bool     `yaml:"noSandbox"`
	LaunchTimeout  Duration `yaml:"launchTimeout"`  // default 30s
	HealthInterval Duration `yaml:"healthInterval"` // default 30s; "0s" is rejected, omit to use default
}

// PoolConfig defines the page pool.
type PoolConfig struct {
	Size        int      `yaml:"size"`        // 0 = derived from GOMAXPROCS
	AcquireWait Duration `yaml:"acquireWait"` // default 50ms
}

// CacheConfig defines the in-process result cache.
type CacheConfig struct {
	TTL  Duration `yaml:"ttl"`  // default 10m
	Size int      `yaml:"size"` // default 20 entries
}

// StoreConfig defines the optional shared cache tier on valkey.
type StoreConfig struct {
	Addr     string   `yaml:"addr"` // empty = disabled
	Username string   `yaml:"username"`
	Password string   `yaml:"password"`
	DB       int      `yaml:"db"`
	TTL      Duration `yaml:"ttl"` // default: cache.ttl
}

// RenderConfig defines document composition and export.
type RenderConfig struct {
	Timeout         Duration `yaml:"timeout"`  // default 30s
	Style           string   `yaml:"style"`    // style name, path or CSS content
	Template        string   `yaml:"template"` // template name (default "invoice")
	DateFormat      string   `yaml:"dateFormat"`
	AllowLocalLogos bool     `yaml:"allowLocalLogos"` // let requests reference local files
	NoMinify        bool     `yaml:"noMinify"`
}

// PageConfig holds the page defaults applied when a request sends none.
type PageConfig struct {
	Size        string  `yaml:"size"`        // letter (default), a4, legal
	Orientation string  `yaml:"orientation"` // portrait (default), landscape
	Margin      float64 `yaml:"margin"`      // inches, 0.25 to 3.0; 0 means 0.5
}

// FooterConfig controls the footer printed on every page.
type FooterConfig struct {
	Enabled        bool   `yaml:"enabled"`
	Position       string `yaml:"position"` // left, center, right (default)
	ShowPageNumber bool   `yaml:"showPageNumber"`
	ShowNumber     bool   `yaml:"showNumber"` // invoice number
	Text           string `yaml:"text"`
}

// BusinessConfig is the default issuer profile used when a request omits it.
type BusinessConfig struct {
	Name    string `yaml:"name"`
	Address string `yaml:"address"`
	Phone   string `yaml:"phone"`
	Email   string `yaml:"email"`
	Logo    string `yaml:"logo"` // URL, data URI or local path (inlined at startup)
	TaxID   string `yaml:"taxId"`
}

// AssetsConfig points at a directory overriding the built-in template and
// styles.
type AssetsConfig struct {
	BasePath string `yaml:"basePath"`
}

// LogConfig defines logging output.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error (default: info)
	Format string `yaml:"format"` // "json" or "console" (default: json)
}

// Validate checks enumerations, bounds, durations and field lengths.
// LoadConfig calls it; callers that build a Config in code should too.
func (c *Config) Validate() error {
	if err := validateFieldLength("server.addr", c.Server.Addr, MaxAddrLength); err != nil {
		return err
	}
	if c.Server.MaxBodyBytes < 0 {
		return fmt.Errorf("%w: server.maxBodyBytes: must not be negative", ErrInvalidValue)
	}
	if c.Pool.Size < 0 {
		return fmt.Errorf("%w: pool.size: must not be negative, got %d", ErrInvalidValue, c.Pool.Size)
	}
	if c.Cache.Size < 0 {
		return fmt.Errorf("%w: cache.size: must not be negative, got %d", ErrInvalidValue, c.Cache.Size)
	}
	if c.Store.DB < 0 {
		return fmt.Errorf("%w: store.db: must not be negative, got %d", ErrInvalidValue, c.Store.DB)
	}
	if err := validateFieldLength("store.addr", c.Store.Addr, MaxAddrLength); err != nil {
		return err
	}

	durations := []struct {
		field string
		value Duration
	}{
		{"server.readTimeout", c.Server.ReadTimeout},
		{"server.writeTimeout", c.Server.WriteTimeout},
		{"server.shutdownTimeout", c.Server.ShutdownTimeout},
		{"browser.launchTimeout", c.Browser.LaunchTimeout},
		{"browser.healthInterval", c.Browser.HealthInterval},
		{"pool.acquireWait", c.Pool.AcquireWait},
		{"cache.ttl", c.Cache.TTL},
		{"store.ttl", c.Store.TTL},
		{"render.timeout", c.Render.Timeout},
	}
	for _, d := range durations {
		if err := d.value.validate(d.field); err != nil {
			return err
		}
	}

	if err := validateFieldLength("page.size", c.Page.Size, MaxPageSizeLength); err != nil {
		return err
	}
	if err := validateFieldLength("page.orientation", c.Page.Orientation, MaxOrientationLength); err != nil {
		return err
	}
	if err := validateOneOf("page.size", c.Page.Size, "letter", "a4", "legal"); err != nil {
		return err
	}
	if err := validateOneOf("page.orientation", c.Page.Orientation, "portrait", "landscape"); err != nil {
		return err
	}
	if c.Page.Margin != 0 && (c.Page.Margin < 0.25 || c.Page.Margin > 3.0) {
		return fmt.Errorf("%w: page.margin: must be between 0.25 and 3.0, got %.2f", ErrInvalidValue, c.Page.Margin)
	}

	if err := validateFieldLength("footer.text", c.Footer.Text, MaxTextLength); err != nil {
		return err
	}
	if err := validateOneOf("footer.position", c.Footer.Position, "left", "center", "right"); err != nil {
		return err
	}

	if err := validateFieldLength("business.name", c.Business.Name, MaxNameLength); err != nil {
		return err
	}
	if err := validateFieldLength("business.address", c.Business.Address, MaxAddressLength); err != nil {
		return err
	}
	if err := validateFieldLength("business.email", c.Business.Email, MaxEmailLength); err != nil {
		return err
	}
	if err := validateFieldLength("business.logo", c.Business.Logo, MaxURLLength); err != nil {
		return err
	}

	if err := validateOneOf("log.level", c.Log.Level, "debug", "info", "warn", "error"); err != nil {
		return err
	}
	return validateOneOf("log.format", c.Log.Format, "json", "console")
}

func validateFieldLength(field, value string, limit int) error {
	if n := len(value); n > limit {
		return fmt.Errorf("%w: %s is %d bytes, limit %d", ErrFieldTooLong, field, n, limit)
	}
	return nil
}

// validateOneOf accepts "" or one of allowed (case-insensitive).
func validateOneOf(fieldName, value string, allowed ...string) error {
	if value == "" {
		return nil
	}
	for _, a := range allowed {
		if strings.EqualFold(value, a) {
			return nil
		}
	}
	return fmt.Errorf("%w: %s: %q (must be one of %s)", ErrInvalidValue, fieldName, value, strings.Join(allowed, ", "))
}

// DefaultConfig returns a configuration where every component uses its
// built-in default.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{Addr: ":8080"},
		Log:    LogConfig{Level: "info", Format: "json"},
	}
}

// LoadConfig reads, strictly decodes and validates a config file. An
// argument with a path separator is opened as is; a bare name is looked up
// with SearchPaths. Missing files are an error, never a silent default.
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	path := nameOrPath
	if !strings.ContainsAny(nameOrPath, `/\`) {
		candidates := SearchPaths(nameOrPath)
		path = ""
		for _, c := range candidates {
			if info, err := os.Stat(c); err == nil && info.Mode().IsRegular() {
				path = c
				break
			}
		}
		if path == "" {
			return nil, fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(candidates, ", "))
		}
	}

	data, err := os.ReadFile(path) // #nosec G304 -- operator-chosen config path
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
	case err != nil:
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	cfg := DefaultConfig()
	if err := yamlutil.UnmarshalStrict(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrConfigParse, path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SearchPaths lists the files a bare config name resolves to, in lookup
// order: name.yaml and name.yml in the working directory, then the same
// under <user config dir>/invoicepdf.
func SearchPaths(name string) []string {
	dirs := []string{""}
	if home, err := os.UserConfigDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, appDirName))
	}
	var paths []string
	for _, dir := range dirs {
		for _, ext := range []string{".yaml", ".yml"} {
			paths = append(paths, filepath.Join(dir, name+ext))
		}
	}
	return paths
}
