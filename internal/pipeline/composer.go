package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/Masterminds/sprig/v3"
	"github.com/shopspring/decimal"

	"github.com/alnah/invoicepdf/internal/dateutil"
)

// ErrTemplate indicates the invoice template failed to parse or execute.
var ErrTemplate = errors.New("invoice template failed")

// PartyData is an issuer or customer block.
type PartyData struct {
	Name    string
	Address string
	Email   string
	Phone   string
	TaxID   string
}

// ItemData is one line item.
type ItemData struct {
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	Amount      decimal.Decimal
}

// InvoiceData is the invoice as the template sees it.
type InvoiceData struct {
	Number    string
	Status    string
	IssueDate time.Time
	DueDate   time.Time
	Customer  PartyData
	Items     []ItemData
	Subtotal  decimal.Decimal
	Discount  decimal.Decimal
	Tax       decimal.Decimal
	Total     decimal.Decimal
	Notes     string // Markdown
	Terms     string // Markdown
}

// Input is everything one composition needs.
type Input struct {
	Invoice  InvoiceData
	Business PartyData
	Logo     string // URL, data URI or file path
	Currency string
}

// document is the template's root value.
type document struct {
	Invoice  InvoiceData
	Business PartyData
	Currency string
	Logo     template.URL
	CSS      template.CSS
	Notes    template.HTML
	Terms    template.HTML
}

// ComposerConfig configures a Composer.
type ComposerConfig struct {
	Template   string // html/template source
	CSS        string
	DateFormat string // dateutil format or preset; "" uses the default
	Logos      LogoResolver
	NoMinify   bool
}

// Composer renders invoice data into a self-contained HTML document.
// Safe for concurrent use.
type Composer struct {
	tmpl     *template.Template
	css      template.CSS
	markdown *MarkdownRenderer
	minifier *Minifier
	logos    LogoResolver
}

// NewComposer parses the template and prepares the helpers.
func NewComposer(cfg ComposerConfig) (*Composer, error) {
	dates, err := dateutil.NewFormatter(cfg.DateFormat)
	if err != nil {
		return nil, err
	}

	// No clock, env or randomness: equal invoices compose equal documents.
	funcs := sprig.HermeticHtmlFuncMap()
	funcs["money"] = formatMoney
	funcs["qty"] = formatQuantity
	funcs["fmtDate"] = dates.Format
	funcs["nl2br"] = nl2br

	tmpl, err := template.New("invoice").Funcs(funcs).Parse(cfg.Template)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing: %v", ErrTemplate, err)
	}

	c := &Composer{
		tmpl: tmpl,
		// #nosec G203 -- operator-supplied stylesheet, closing tags escaped
		css:      template.CSS(sanitizeCSS(cfg.CSS)),
		markdown: NewMarkdownRenderer(),
		logos:    cfg.Logos,
	}
	if !cfg.NoMinify {
		c.minifier = NewMinifier()
	}
	return c, nil
}

// Compose renders in to HTML. The output is deterministic for equal input.
func (c *Composer) Compose(ctx context.Context, in Input) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	logo, err := c.logos.Resolve(in.Logo)
	if err != nil {
		return "", err
	}
	notes, err := c.markdown.Render(ctx, in.Invoice.Notes)
	if err != nil {
		return "", err
	}
	terms, err := c.markdown.Render(ctx, in.Invoice.Terms)
	if err != nil {
		return "", err
	}

	doc := document{
		Invoice:  in.Invoice,
		Business: in.Business,
		Currency: strings.ToUpper(in.Currency),
		Logo:     logo,
		CSS:      c.css,
		Notes:    notes,
		Terms:    terms,
	}

	var buf bytes.Buffer
	if err := c.tmpl.Execute(&buf, doc); err != nil {
		return "", fmt.Errorf("%w: %v", ErrTemplate, err)
	}

	if c.minifier == nil {
		return buf.String(), nil
	}
	return c.minifier.HTML(buf.String())
}

// formatMoney prints an amount with two decimals and the currency code.
// Locale-specific grouping is left to the template author.
func formatMoney(d decimal.Decimal, currency string) string {
	amount := d.StringFixed(2)
	if currency == "" {
		return amount
	}
	return amount + " " + currency
}

// formatQuantity prints a quantity without trailing zeros.
func formatQuantity(d decimal.Decimal) string {
	return d.String()
}

// nl2br escapes s and turns newlines into <br> tags.
func nl2br(s string) template.HTML {
	escaped := template.HTMLEscapeString(strings.TrimSpace(s))
	// #nosec G203 -- input escaped above
	return template.HTML(strings.ReplaceAll(escaped, "\n", "<br>"))
}
