package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alnah/invoicepdf"
	"github.com/alnah/invoicepdf/internal/fileutil"
	"github.com/alnah/invoicepdf/internal/yamlutil"
)

// Sentinel errors for the render command.
var (
	ErrReadInput  = errors.New("failed to read invoice file")
	ErrParseInput = errors.New("failed to parse invoice file")
	ErrWritePDF   = errors.New("failed to write PDF")
)

// runRender renders one invoice file to PDF.
func runRender(ctx context.Context, args []string, env *Environment) error {
	flags, positional, err := parseRenderFlags(args, env.Stderr)
	if err != nil {
		return err
	}
	if len(positional) != 1 {
		return usageErrorf("render needs exactly one invoice file, got %d", len(positional))
	}
	inputPath := positional[0]

	cfg, err := loadConfig(flags.common.config, env)
	if err != nil {
		return err
	}
	// The CLI prints its own result line; keep the logger quiet by default.
	if flags.common.logLevel == "" {
		cfg.Log.Level = "warn"
	}
	if flags.common.logFormat == "" {
		cfg.Log.Format = "console"
	}
	applyCommonFlags(&flags.common, cfg)
	applyBrowserFlags(&flags.browser, cfg)
	applyPageFlags(&flags.page, cfg)
	if flags.style != "" {
		cfg.Render.Style = flags.style
	}
	if flags.noFooter {
		cfg.Footer.Enabled = false
	}
	// Files named on the command line are trusted.
	cfg.Render.AllowLocalLogos = true
	if err := cfg.Validate(); err != nil {
		return err
	}

	input, err := readRenderInput(inputPath)
	if err != nil {
		return err
	}

	biz, err := businessProfile(cfg)
	if err != nil {
		return err
	}
	if input.Business != nil {
		biz = *input.Business
		if biz.Logo != "" && !fileutil.IsURL(biz.Logo) && !fileutil.IsDataURI(biz.Logo) && !filepath.IsAbs(biz.Logo) {
			biz.Logo = filepath.Join(filepath.Dir(inputPath), biz.Logo)
		}
	}

	logger, err := newLogger(cfg, env)
	if err != nil {
		return err
	}

	r, err := invoicepdf.NewRenderer(rendererOptions(cfg, logger)...)
	if err != nil {
		return err
	}
	defer func() { _ = r.Close() }()

	start := env.Now()
	pdf, err := r.RenderWithOptions(ctx, invoicepdf.RenderRequest{
		Invoice:  input.Invoice,
		Business: biz,
		Page:     input.Page,
	})
	if err != nil {
		return err
	}

	outputPath := resolveOutputPath(flags.output, inputPath, input.Invoice.Number)
	if dir := filepath.Dir(outputPath); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("%w: %v", ErrWritePDF, err)
		}
	}
	if err := fileutil.WriteFileAtomic(outputPath, pdf, 0o644); err != nil {
		return fmt.Errorf("%w: %v", ErrWritePDF, err)
	}

	fmt.Fprintf(env.Stdout, "%s -> %s (%d bytes, %s)\n", inputPath, outputPath, len(pdf), env.Now().Sub(start).Round(time.Millisecond))
	return nil
}

// readRenderInput reads an invoice file. JSON files are decoded directly;
// anything else is treated as YAML and converted to JSON first so json tags
// and decimal parsing apply the same way as on the HTTP API.
func readRenderInput(path string) (*renderBody, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- user-provided input path
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReadInput, err)
	}

	if !strings.EqualFold(filepath.Ext(path), ".json") {
		data, err = yamlutil.ToJSON(data)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrParseInput, path, err)
		}
	}

	var body renderBody
	if err := json.Unmarshal(data, &body); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrParseInput, path, err)
	}
	return &body, nil
}

// resolveOutputPath returns the PDF path: the -o flag, or <number>.pdf next
// to the input. A flag ending in a separator names a directory.
func resolveOutputPath(flagOutput, inputPath, number string) string {
	name := safeFilename(number) + ".pdf"
	switch {
	case flagOutput == "":
		return filepath.Join(filepath.Dir(inputPath), name)
	case strings.HasSuffix(flagOutput, "/") || strings.HasSuffix(flagOutput, string(filepath.Separator)):
		return filepath.Join(flagOutput, name)
	default:
		return flagOutput
	}
}
