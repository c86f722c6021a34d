package invoicepdf

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// defaultTimeout bounds document load plus PDF export.
const defaultTimeout = 30 * time.Second

// ResultStore is a shared cache tier consulted after an in-process miss.
// Errors are logged and never fail a render.
type ResultStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, pdf []byte, ttl time.Duration) error
	Clear(ctx context.Context) (int, error)
}

// Option configures a Renderer.
type Option func(*rendererConfig)

// rendererConfig holds the settings collected from options.
type rendererConfig struct {
	timeout       time.Duration
	launchTimeout time.Duration
	acquireWait   time.Duration
	poolSize      int
	cacheTTL      time.Duration
	cacheSize     int
	storeTTL      time.Duration

	browserBin string
	noSandbox  bool

	assetPath   string
	assetLoader AssetLoader
	style       string
	template    string
	dateFormat  string
	localLogos  bool
	noMinify    bool

	page   *PageSettings
	footer *Footer

	store  ResultStore
	logger zerolog.Logger
	engine browserEngine
}

func defaultRendererConfig() rendererConfig {
	return rendererConfig{
		timeout:       defaultTimeout,
		launchTimeout: defaultLaunchTimeout,
		acquireWait:   defaultAcquireWait,
		cacheTTL:      DefaultCacheTTL,
		cacheSize:     DefaultCacheSize,
		style:         DefaultStyle,
		template:      DefaultTemplate,
		logger:        zerolog.Nop(),
	}
}

// WithTimeout bounds document load plus PDF export for one render.
// Panics if d <= 0 (programmer error, similar to time.NewTicker).
func WithTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("invoicepdf: WithTimeout duration must be positive")
	}
	return func(c *rendererConfig) {
		c.timeout = d
	}
}

// WithLaunchTimeout bounds a browser launch.
// Panics if d <= 0.
func WithLaunchTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("invoicepdf: WithLaunchTimeout duration must be positive")
	}
	return func(c *rendererConfig) {
		c.launchTimeout = d
	}
}

// WithAcquireWait sets how long a render waits for a pooled page before
// opening a transient one.
// Panics if d <= 0.
func WithAcquireWait(d time.Duration) Option {
	if d <= 0 {
		panic("invoicepdf: WithAcquireWait duration must be positive")
	}
	return func(c *rendererConfig) {
		c.acquireWait = d
	}
}

// WithPoolSize sets the number of pre-opened pages. Zero or negative uses
// ResolvePoolSize's CPU-based default.
func WithPoolSize(n int) Option {
	return func(c *rendererConfig) {
		c.poolSize = n
	}
}

// WithCacheTTL sets how long rendered PDFs stay cached. Zero disables the
// in-process cache.
// Panics if d < 0.
func WithCacheTTL(d time.Duration) Option {
	if d < 0 {
		panic("invoicepdf: WithCacheTTL duration must not be negative")
	}
	return func(c *rendererConfig) {
		c.cacheTTL = d
	}
}

// WithCacheSize sets the maximum number of cached PDFs.
// Panics if n <= 0.
func WithCacheSize(n int) Option {
	if n <= 0 {
		panic("invoicepdf: WithCacheSize must be positive")
	}
	return func(c *rendererConfig) {
		c.cacheSize = n
	}
}

// WithStore adds a shared cache tier. ttl of zero reuses the cache TTL.
func WithStore(s ResultStore, ttl time.Duration) Option {
	return func(c *rendererConfig) {
		c.store = s
		c.storeTTL = ttl
	}
}

// WithBrowserBin uses a pre-installed Chrome instead of ROD_BROWSER_BIN or
// rod's managed download.
func WithBrowserBin(path string) Option {
	return func(c *rendererConfig) {
		c.browserBin = path
	}
}

// WithNoSandbox disables the Chrome sandbox (containers, CI).
func WithNoSandbox() Option {
	return func(c *rendererConfig) {
		c.noSandbox = true
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l zerolog.Logger) Option {
	return func(c *rendererConfig) {
		c.logger = l
	}
}

// WithAssetPath loads styles and templates from dir, falling back to the
// embedded ones.
func WithAssetPath(dir string) Option {
	return func(c *rendererConfig) {
		c.assetPath = dir
	}
}

// WithAssetLoader sets a custom asset backend. Takes precedence over
// WithAssetPath.
func WithAssetLoader(l AssetLoader) Option {
	return func(c *rendererConfig) {
		c.assetLoader = l
	}
}

// WithStyle selects the stylesheet: a style name, a CSS file path, or CSS
// content.
func WithStyle(style string) Option {
	return func(c *rendererConfig) {
		c.style = style
	}
}

// WithTemplate selects the invoice template by name.
func WithTemplate(name string) Option {
	return func(c *rendererConfig) {
		c.template = name
	}
}

// WithDateFormat sets the date format (a preset such as "iso" or a pattern
// such as "DD/MM/YYYY").
func WithDateFormat(format string) Option {
	return func(c *rendererConfig) {
		c.dateFormat = format
	}
}

// WithPageSettings sets the default page layout. A request's own page
// settings take precedence.
func WithPageSettings(p *PageSettings) Option {
	return func(c *rendererConfig) {
		c.page = p
	}
}

// WithFooter prints Chrome's native footer on every page.
func WithFooter(f *Footer) Option {
	return func(c *rendererConfig) {
		c.footer = f
	}
}

// WithLocalLogos lets Business.Logo name a local image file. Leave it off
// when business data comes from untrusted callers.
func WithLocalLogos() Option {
	return func(c *rendererConfig) {
		c.localLogos = true
	}
}

// WithoutMinify keeps the composed document as the template produced it.
func WithoutMinify() Option {
	return func(c *rendererConfig) {
		c.noMinify = true
	}
}

// withEngine substitutes the browser engine (tests).
func withEngine(e browserEngine) Option {
	return func(c *rendererConfig) {
		c.engine = e
	}
}
