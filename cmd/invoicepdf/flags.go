package main

import (
	"io"

	flag "github.com/spf13/pflag"

	"github.com/alnah/invoicepdf/internal/config"
)

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config    string
	logLevel  string
	logFormat string
}

// browserFlags holds browser and pool flags.
type browserFlags struct {
	bin       string
	noSandbox bool
	poolSize  int
	timeout   string
}

// pageFlags holds page layout flags.
type pageFlags struct {
	size        string
	orientation string
	margin      float64
}

// serveFlags holds all flags for the serve command.
type serveFlags struct {
	common    commonFlags
	browser   browserFlags
	addr      string
	storeAddr string
	noWarmup  bool
}

// renderFlags holds all flags for the render command.
type renderFlags struct {
	common   commonFlags
	browser  browserFlags
	page     pageFlags
	output   string
	style    string
	noFooter bool
}

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.StringVar(&f.logLevel, "log-level", "", "log level: debug, info, warn, error")
	fs.StringVar(&f.logFormat, "log-format", "", "log format: json, console")
}

// addBrowserFlags adds browser flags to a FlagSet.
func addBrowserFlags(fs *flag.FlagSet, f *browserFlags) {
	fs.StringVar(&f.bin, "browser-bin", "", "Chrome/Chromium binary")
	fs.BoolVar(&f.noSandbox, "no-sandbox", false, "disable the Chrome sandbox")
	fs.IntVarP(&f.poolSize, "pool-size", "w", 0, "pages kept open (0 = auto)")
	fs.StringVarP(&f.timeout, "timeout", "t", "", "render timeout (e.g., 10s, 1m)")
}

// addPageFlags adds page layout flags to a FlagSet.
func addPageFlags(fs *flag.FlagSet, f *pageFlags) {
	fs.StringVarP(&f.size, "page-size", "p", "", "page size: letter, a4, legal")
	fs.StringVar(&f.orientation, "orientation", "", "page orientation: portrait, landscape")
	fs.Float64Var(&f.margin, "margin", 0, "page margin in inches (0.25-3.0)")
}

// parseServeFlags parses serve command flags.
func parseServeFlags(args []string, usage io.Writer) (*serveFlags, error) {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(usage)
	f := &serveFlags{}

	fs.StringVarP(&f.addr, "addr", "a", "", "listen address (default :8080)")
	fs.StringVar(&f.storeAddr, "store-addr", "", "valkey address for the shared cache")
	fs.BoolVar(&f.noWarmup, "no-warmup", false, "launch the browser on first request")
	addCommonFlags(fs, &f.common)
	addBrowserFlags(fs, &f.browser)

	fs.Usage = func() { printServeUsage(usage) }

	if err := fs.Parse(args); err != nil {
		return nil, usageError(err)
	}
	if fs.NArg() > 0 {
		return nil, usageErrorf("serve takes no arguments, got %q", fs.Args())
	}
	return f, nil
}

// parseRenderFlags parses render command flags and returns positional args.
func parseRenderFlags(args []string, usage io.Writer) (*renderFlags, []string, error) {
	fs := flag.NewFlagSet("render", flag.ContinueOnError)
	fs.SetOutput(usage)
	f := &renderFlags{}

	fs.StringVarP(&f.output, "output", "o", "", "output PDF path (default <number>.pdf)")
	fs.StringVar(&f.style, "style", "", "CSS style name or file path")
	fs.BoolVar(&f.noFooter, "no-footer", false, "disable footer")
	addCommonFlags(fs, &f.common)
	addBrowserFlags(fs, &f.browser)
	addPageFlags(fs, &f.page)

	fs.Usage = func() { printRenderUsage(usage) }

	if err := fs.Parse(args); err != nil {
		return nil, nil, usageError(err)
	}
	return f, fs.Args(), nil
}

// applyCommonFlags applies flag values over the config.
func applyCommonFlags(f *commonFlags, cfg *config.Config) {
	if f.logLevel != "" {
		cfg.Log.Level = f.logLevel
	}
	if f.logFormat != "" {
		cfg.Log.Format = f.logFormat
	}
}

// applyBrowserFlags applies flag values over the config.
func applyBrowserFlags(f *browserFlags, cfg *config.Config) {
	if f.bin != "" {
		cfg.Browser.Bin = f.bin
	}
	if f.noSandbox {
		cfg.Browser.NoSandbox = true
	}
	if f.poolSize > 0 {
		cfg.Pool.Size = f.poolSize
	}
	if f.timeout != "" {
		cfg.Render.Timeout = config.Duration(f.timeout)
	}
}

// applyPageFlags applies flag values over the config.
func applyPageFlags(f *pageFlags, cfg *config.Config) {
	if f.size != "" {
		cfg.Page.Size = f.size
	}
	if f.orientation != "" {
		cfg.Page.Orientation = f.orientation
	}
	if f.margin != 0 {
		cfg.Page.Margin = f.margin
	}
}
