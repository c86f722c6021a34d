package main

import (
	"errors"
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/alnah/invoicepdf"
	"github.com/alnah/invoicepdf/internal/assets"
	"github.com/alnah/invoicepdf/internal/config"
	"github.com/alnah/invoicepdf/internal/hints"
	"github.com/alnah/invoicepdf/internal/store"
)

// Exit codes for the invoicepdf CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess = 0 // Successful run
	ExitGeneral = 1 // General/unexpected error
	ExitUsage   = 2 // Invalid flags, config, or validation
	ExitIO      = 3 // File not found, permission denied
	ExitBrowser = 4 // Browser/Chrome errors
)

// ErrUsage marks invalid command lines.
var ErrUsage = errors.New("invalid usage")

// usageError wraps a flag parsing error. Help requests pass through unchanged.
func usageError(err error) error {
	if errors.Is(err, flag.ErrHelp) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrUsage, err)
}

func usageErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrUsage, fmt.Sprintf(format, args...))
}

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil || errors.Is(err, flag.ErrHelp) {
		return ExitSuccess
	}

	// Browser errors (exit 4)
	if errors.Is(err, invoicepdf.ErrBrowserLaunch) ||
		errors.Is(err, invoicepdf.ErrPageAcquisition) ||
		errors.Is(err, invoicepdf.ErrRenderTimeout) ||
		errors.Is(err, invoicepdf.ErrExport) {
		return ExitBrowser
	}

	// I/O errors (exit 3)
	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, ErrReadInput) ||
		errors.Is(err, ErrWritePDF) ||
		errors.Is(err, store.ErrUnavailable) {
		return ExitIO
	}

	// Usage/config/validation errors (exit 2)
	if errors.Is(err, ErrUsage) ||
		errors.Is(err, ErrParseInput) ||
		errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrFieldTooLong) ||
		errors.Is(err, config.ErrInvalidValue) ||
		errors.Is(err, invoicepdf.ErrEmptyInvoiceNumber) ||
		errors.Is(err, invoicepdf.ErrNoLineItems) ||
		errors.Is(err, invoicepdf.ErrInvalidCurrency) ||
		errors.Is(err, invoicepdf.ErrFieldTooLong) ||
		errors.Is(err, invoicepdf.ErrInvalidPageSize) ||
		errors.Is(err, invoicepdf.ErrInvalidOrientation) ||
		errors.Is(err, invoicepdf.ErrInvalidMargin) ||
		errors.Is(err, invoicepdf.ErrInvalidFooterPosition) ||
		errors.Is(err, invoicepdf.ErrInvalidLogo) ||
		errors.Is(err, invoicepdf.ErrStyleNotFound) ||
		errors.Is(err, invoicepdf.ErrTemplateNotFound) ||
		errors.Is(err, invoicepdf.ErrInvalidAssetPath) {
		return ExitUsage
	}

	return ExitGeneral
}

// hintFor returns an actionable hint for err, or "".
func hintFor(err error) string {
	switch {
	case errors.Is(err, invoicepdf.ErrBrowserLaunch):
		return hints.ForBrowserLaunch(hints.DetectBrowserEnv())
	case errors.Is(err, invoicepdf.ErrRenderTimeout):
		return hints.ForTimeout()
	case errors.Is(err, invoicepdf.ErrInvalidLogo):
		return hints.ForLogo()
	case errors.Is(err, invoicepdf.ErrStyleNotFound):
		return hints.ForStyleNotFound(assets.StyleNames())
	case errors.Is(err, config.ErrConfigNotFound):
		return hints.ForConfigNotFound(configSearchPaths())
	case errors.Is(err, ErrWritePDF):
		return hints.ForOutputDirectory()
	}
	var se *storeError
	if errors.As(err, &se) {
		return hints.ForStore(se.addr)
	}
	return ""
}
