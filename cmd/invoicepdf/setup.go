package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/alnah/invoicepdf"
	"github.com/alnah/invoicepdf/internal/config"
	"github.com/alnah/invoicepdf/internal/fileutil"
	"github.com/alnah/invoicepdf/internal/logging"
	"github.com/alnah/invoicepdf/internal/pipeline"
	"github.com/alnah/invoicepdf/internal/store"
)

// storePingTimeout bounds the startup connectivity check of the shared cache.
const storePingTimeout = 3 * time.Second

// storeError carries the address of an unreachable shared cache for hints.
type storeError struct {
	addr string
	err  error
}

func (e *storeError) Error() string { return e.err.Error() }
func (e *storeError) Unwrap() error { return e.err }

// loadConfig resolves the configuration: --config, then INVOICEPDF_CONFIG,
// then built-in defaults. Environment overrides are applied on top.
// Callers apply flags afterwards and then validate.
func loadConfig(flagPath string, env *Environment) (*config.Config, error) {
	warnUnknownEnvVars(env.Stderr, env.Environ())
	envCfg := loadEnvConfig(env.Getenv)

	path := flagPath
	if path == "" {
		path = envCfg.ConfigPath
	}

	cfg := config.DefaultConfig()
	if path != "" {
		loaded, err := config.LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	applyEnvConfig(envCfg, cfg)
	return cfg, nil
}

// configSearchPaths lists where the default config name is looked up.
func configSearchPaths() []string {
	return config.SearchPaths("config")
}

// newLogger builds the process logger from the config.
func newLogger(cfg *config.Config, env *Environment) (zerolog.Logger, error) {
	lc := logging.DefaultConfig()
	if cfg.Log.Level != "" {
		lc.Level = cfg.Log.Level
	}
	if cfg.Log.Format != "" {
		lc.Format = cfg.Log.Format
	}
	logger, err := logging.New(lc, env.Stderr)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("%w: %v", config.ErrInvalidValue, err)
	}
	return logger, nil
}

// rendererOptions translates the config into renderer options.
// Durations were validated by config.Validate, so Or never falls back here.
func rendererOptions(cfg *config.Config, logger zerolog.Logger) []invoicepdf.Option {
	opts := []invoicepdf.Option{
		invoicepdf.WithLogger(logger),
		invoicepdf.WithPoolSize(cfg.Pool.Size),
	}

	if d := cfg.Render.Timeout; d != "" {
		opts = append(opts, invoicepdf.WithTimeout(d.Or(time.Second)))
	}
	if d := cfg.Browser.LaunchTimeout; d != "" {
		opts = append(opts, invoicepdf.WithLaunchTimeout(d.Or(time.Second)))
	}
	if d := cfg.Pool.AcquireWait; d != "" {
		opts = append(opts, invoicepdf.WithAcquireWait(d.Or(time.Millisecond)))
	}
	if d := cfg.Cache.TTL; d != "" {
		opts = append(opts, invoicepdf.WithCacheTTL(d.Or(invoicepdf.DefaultCacheTTL)))
	}
	if cfg.Cache.Size > 0 {
		opts = append(opts, invoicepdf.WithCacheSize(cfg.Cache.Size))
	}

	if cfg.Browser.Bin != "" {
		opts = append(opts, invoicepdf.WithBrowserBin(cfg.Browser.Bin))
	}
	if cfg.Browser.NoSandbox {
		opts = append(opts, invoicepdf.WithNoSandbox())
	}

	if cfg.Assets.BasePath != "" {
		opts = append(opts, invoicepdf.WithAssetPath(cfg.Assets.BasePath))
	}
	if cfg.Render.Style != "" {
		opts = append(opts, invoicepdf.WithStyle(cfg.Render.Style))
	}
	if cfg.Render.Template != "" {
		opts = append(opts, invoicepdf.WithTemplate(cfg.Render.Template))
	}
	if cfg.Render.DateFormat != "" {
		opts = append(opts, invoicepdf.WithDateFormat(cfg.Render.DateFormat))
	}
	if cfg.Render.AllowLocalLogos {
		opts = append(opts, invoicepdf.WithLocalLogos())
	}
	if cfg.Render.NoMinify {
		opts = append(opts, invoicepdf.WithoutMinify())
	}

	opts = append(opts, invoicepdf.WithPageSettings(&invoicepdf.PageSettings{
		Size:        cfg.Page.Size,
		Orientation: cfg.Page.Orientation,
		Margin:      cfg.Page.Margin,
	}))
	if cfg.Footer.Enabled {
		opts = append(opts, invoicepdf.WithFooter(&invoicepdf.Footer{
			Position:       cfg.Footer.Position,
			Text:           cfg.Footer.Text,
			ShowPageNumber: cfg.Footer.ShowPageNumber,
			ShowNumber:     cfg.Footer.ShowNumber,
		}))
	}

	return opts
}

// openStore connects to the shared cache when one is configured.
// Returns nil when store.addr is empty.
func openStore(ctx context.Context, cfg *config.Config) (*store.ValkeyStore, error) {
	if cfg.Store.Addr == "" {
		return nil, nil
	}

	s, err := store.New(store.Options{
		Addr:     cfg.Store.Addr,
		Username: cfg.Store.Username,
		Password: cfg.Store.Password,
		DB:       cfg.Store.DB,
		TTL:      cfg.Store.TTL.Or(0),
	})
	if err != nil {
		return nil, &storeError{addr: cfg.Store.Addr, err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, storePingTimeout)
	defer cancel()
	if err := s.Ping(ctx); err != nil {
		_ = s.Close()
		return nil, &storeError{addr: cfg.Store.Addr, err: err}
	}
	return s, nil
}

// businessProfile returns the configured issuer. A local logo file is
// inlined once here so requests never need file access.
func businessProfile(cfg *config.Config) (invoicepdf.Business, error) {
	b := cfg.Business
	biz := invoicepdf.Business{
		Name:    b.Name,
		Address: b.Address,
		Phone:   b.Phone,
		Email:   b.Email,
		Logo:    b.Logo,
		TaxID:   b.TaxID,
	}
	if b.Logo == "" || fileutil.IsURL(b.Logo) || fileutil.IsDataURI(b.Logo) {
		return biz, nil
	}

	uri, err := pipeline.InlineLogo(b.Logo)
	if err != nil {
		return invoicepdf.Business{}, fmt.Errorf("%w: business.logo: %v", invoicepdf.ErrInvalidLogo, err)
	}
	biz.Logo = string(uri)
	return biz, nil
}
