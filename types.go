package invoicepdf

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Page size constants.
const (
	PageSizeLetter = "letter"
	PageSizeA4     = "a4"
	PageSizeLegal  = "legal"
)

// Orientation constants.
const (
	OrientationPortrait  = "portrait"
	OrientationLandscape = "landscape"
)

// Margin bounds in inches.
const (
	MinMargin     = 0.25
	MaxMargin     = 3.0
	DefaultMargin = 0.5
)

// Field length limits. Invoice data usually comes from a web form, so the
// renderer refuses oversized values instead of laying out megabytes of text.
const (
	MaxNumberLength      = 64
	MaxNameLength        = 200
	MaxAddressLength     = 500
	MaxDescriptionLength = 1000
	MaxNotesLength       = 10000
	MaxLineItems         = 500
)

// PageSettings configures PDF page dimensions.
type PageSettings struct {
	Size        string  `json:"size" yaml:"size"`               // "letter", "a4", "legal"
	Orientation string  `json:"orientation" yaml:"orientation"` // "portrait", "landscape"
	Margin      float64 `json:"margin" yaml:"margin"`           // inches, applied to all sides
}

// DefaultPageSettings returns page settings with default values.
func DefaultPageSettings() *PageSettings {
	return &PageSettings{
		Size:        PageSizeLetter,
		Orientation: OrientationPortrait,
		Margin:      DefaultMargin,
	}
}

// Validate checks that page settings are valid.
// Returns nil if p is nil (nil means use defaults). Empty fields and a zero
// margin also fall back to the defaults.
// Does not mutate - uses case-insensitive comparison.
func (p *PageSettings) Validate() error {
	if p == nil {
		return nil
	}

	if p.Size != "" && !isValidPageSize(p.Size) {
		return fmt.Errorf("%w: %q", ErrInvalidPageSize, p.Size)
	}

	if p.Orientation != "" && !isValidOrientation(p.Orientation) {
		return fmt.Errorf("%w: %q", ErrInvalidOrientation, p.Orientation)
	}

	if p.Margin != 0 && (p.Margin < MinMargin || p.Margin > MaxMargin) {
		return fmt.Errorf("%w: %.2f (must be between %.2f and %.2f)", ErrInvalidMargin, p.Margin, MinMargin, MaxMargin)
	}

	return nil
}

// normalized returns a copy of p with defaults filled in and names lowercased.
func (p *PageSettings) normalized() PageSettings {
	out := *DefaultPageSettings()
	if p == nil {
		return out
	}
	if p.Size != "" {
		out.Size = strings.ToLower(p.Size)
	}
	if p.Orientation != "" {
		out.Orientation = strings.ToLower(p.Orientation)
	}
	if p.Margin != 0 {
		out.Margin = p.Margin
	}
	return out
}

// isValidPageSize checks if size is a known page size (case-insensitive).
func isValidPageSize(size string) bool {
	switch strings.ToLower(size) {
	case PageSizeLetter, PageSizeA4, PageSizeLegal:
		return true
	}
	return false
}

// isValidOrientation checks if orientation is valid (case-insensitive).
func isValidOrientation(orientation string) bool {
	switch strings.ToLower(orientation) {
	case OrientationPortrait, OrientationLandscape:
		return true
	}
	return false
}

// Business is the issuer printed in the invoice header.
type Business struct {
	Name    string `json:"name" yaml:"name"`
	Address string `json:"address,omitempty" yaml:"address"`
	Phone   string `json:"phone,omitempty" yaml:"phone"`
	Email   string `json:"email,omitempty" yaml:"email"`
	Logo    string `json:"logo,omitempty" yaml:"logo"` // URL, data URI or local file path
	TaxID   string `json:"taxId,omitempty" yaml:"taxId"`
}

// Customer is the billed party.
type Customer struct {
	Name    string `json:"name" yaml:"name"`
	Email   string `json:"email,omitempty" yaml:"email"`
	Phone   string `json:"phone,omitempty" yaml:"phone"`
	Address string `json:"address,omitempty" yaml:"address"`
	TaxID   string `json:"taxId,omitempty" yaml:"taxId"`
}

// LineItem is one billed row. Amounts are already resolved by the caller.
type LineItem struct {
	Description string          `json:"description" yaml:"description"`
	Quantity    decimal.Decimal `json:"quantity" yaml:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice" yaml:"unitPrice"`
	Amount      decimal.Decimal `json:"amount" yaml:"amount"`
}

// Invoice carries the data printed on the document. Totals are not
// recomputed: the invoicing backend owns the arithmetic.
type Invoice struct {
	Number    string          `json:"number" yaml:"number"`
	Status    string          `json:"status,omitempty" yaml:"status"`
	IssueDate time.Time       `json:"issueDate" yaml:"issueDate"`
	DueDate   time.Time       `json:"dueDate,omitempty" yaml:"dueDate"`
	Currency  string          `json:"currency,omitempty" yaml:"currency"`
	Customer  Customer        `json:"customer" yaml:"customer"`
	Items     []LineItem      `json:"items" yaml:"items"`
	Subtotal  decimal.Decimal `json:"subtotal" yaml:"subtotal"`
	Discount  decimal.Decimal `json:"discount,omitempty" yaml:"discount"`
	Tax       decimal.Decimal `json:"tax,omitempty" yaml:"tax"`
	Total     decimal.Decimal `json:"total" yaml:"total"`
	Notes     string          `json:"notes,omitempty" yaml:"notes"` // Markdown
	Terms     string          `json:"terms,omitempty" yaml:"terms"` // Markdown
}

// Validate checks the invoice fields the document depends on.
func (inv *Invoice) Validate() error {
	if strings.TrimSpace(inv.Number) == "" {
		return ErrEmptyInvoiceNumber
	}
	if len(inv.Items) == 0 {
		return ErrNoLineItems
	}
	if len(inv.Items) > MaxLineItems {
		return fmt.Errorf("%w: items (%d, max %d)", ErrFieldTooLong, len(inv.Items), MaxLineItems)
	}
	if inv.Currency != "" && !isCurrencyCode(inv.Currency) {
		return fmt.Errorf("%w: %q (want ISO 4217 code like USD)", ErrInvalidCurrency, inv.Currency)
	}

	fields := []struct {
		name  string
		value string
		max   int
	}{
		{"invoice.number", inv.Number, MaxNumberLength},
		{"invoice.status", inv.Status, MaxNumberLength},
		{"customer.name", inv.Customer.Name, MaxNameLength},
		{"customer.email", inv.Customer.Email, MaxNameLength},
		{"customer.address", inv.Customer.Address, MaxAddressLength},
		{"invoice.notes", inv.Notes, MaxNotesLength},
		{"invoice.terms", inv.Terms, MaxNotesLength},
	}
	for _, f := range fields {
		if err := validateFieldLength(f.name, f.value, f.max); err != nil {
			return err
		}
	}
	for i, item := range inv.Items {
		if err := validateFieldLength(fmt.Sprintf("items[%d].description", i), item.Description, MaxDescriptionLength); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks business field lengths.
func (b *Business) Validate() error {
	if err := validateFieldLength("business.name", b.Name, MaxNameLength); err != nil {
		return err
	}
	if err := validateFieldLength("business.address", b.Address, MaxAddressLength); err != nil {
		return err
	}
	return validateFieldLength("business.email", b.Email, MaxNameLength)
}

// RenderRequest is one render call: invoice, issuer and optional page layout.
type RenderRequest struct {
	Invoice  Invoice       `json:"invoice" yaml:"invoice"`
	Business Business      `json:"business" yaml:"business"`
	Page     *PageSettings `json:"page,omitempty" yaml:"page"`
}

// Validate checks that the request can be rendered.
func (r *RenderRequest) Validate() error {
	if err := r.Invoice.Validate(); err != nil {
		return err
	}
	if err := r.Business.Validate(); err != nil {
		return err
	}
	return r.Page.Validate()
}

func isCurrencyCode(s string) bool {
	if len(s) != 3 {
		return false
	}
	for _, c := range s {
		if c < 'A' || c > 'Z' {
			return false
		}
	}
	return true
}

func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}
