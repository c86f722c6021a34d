package invoicepdf

import "errors"

// Sentinel errors for rendering operations.
var (
	ErrBrowserLaunch   = errors.New("failed to launch browser")
	ErrPageAcquisition = errors.New("failed to acquire browser page")
	ErrRenderTimeout   = errors.New("PDF rendering timed out")
	ErrExport          = errors.New("PDF export failed")
	ErrClosed          = errors.New("renderer is closed")
	ErrCompose         = errors.New("document composition failed")

	// Invoice validation errors.
	ErrEmptyInvoiceNumber = errors.New("invoice number cannot be empty")
	ErrNoLineItems        = errors.New("invoice must have at least one line item")
	ErrInvalidCurrency    = errors.New("invalid currency code")
	ErrFieldTooLong       = errors.New("field exceeds maximum length")

	// Page settings validation errors.
	ErrInvalidPageSize    = errors.New("invalid page size")
	ErrInvalidOrientation = errors.New("invalid orientation")
	ErrInvalidMargin      = errors.New("invalid margin")

	// Footer validation errors.
	ErrInvalidFooterPosition = errors.New("invalid footer position")

	// Logo errors: the logo reference is unusable (not an image, too large,
	// unreadable, or a local path where only URLs are accepted).
	ErrInvalidLogo = errors.New("invalid logo")

	// Asset loading errors.
	ErrStyleNotFound    = errors.New("style not found")
	ErrTemplateNotFound = errors.New("template not found")
	ErrInvalidAssetPath = errors.New("invalid asset path")
)
