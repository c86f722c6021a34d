package invoicepdf

import (
	"fmt"
	"html"
	"strings"

	"github.com/go-rod/rod/lib/proto"
)

// footerMarginExtra is added to the bottom margin when the footer is shown.
const footerMarginExtra = 0.25

// footerFontFamily is the font stack of Chrome's native footer.
const footerFontFamily = "sans-serif"

// pageDimensions holds paper width and height in inches (portrait).
type pageDimensions struct {
	width  float64
	height float64
}

var paperSizes = map[string]pageDimensions{
	PageSizeLetter: {8.5, 11},
	PageSizeA4:     {8.27, 11.69},
	PageSizeLegal:  {8.5, 14},
}

// Footer configures Chrome's native page footer.
type Footer struct {
	ShowPageNumber bool   `json:"showPageNumber" yaml:"showPageNumber"`
	ShowNumber     bool   `json:"showNumber" yaml:"showNumber"` // invoice number
	Text           string `json:"text,omitempty" yaml:"text"`
	Position       string `json:"position,omitempty" yaml:"position"` // "left", "center", "right"
}

// Validate checks footer settings. Returns nil if f is nil.
func (f *Footer) Validate() error {
	if f == nil {
		return nil
	}
	switch f.Position {
	case "", "left", "center", "right":
	default:
		return fmt.Errorf("%w: %q (must be left, center or right)", ErrInvalidFooterPosition, f.Position)
	}
	return validateFieldLength("footer.text", f.Text, MaxNameLength)
}

// buildPDFOptions constructs proto.PagePrintToPDF for the page settings,
// adding a footer when footer is non-nil.
func buildPDFOptions(page *PageSettings, footer *Footer, invoiceNumber string) *proto.PagePrintToPDF {
	ps := page.normalized()

	dims, ok := paperSizes[ps.Size]
	if !ok {
		dims = paperSizes[PageSizeLetter]
	}
	width, height := dims.width, dims.height
	if ps.Orientation == OrientationLandscape {
		width, height = height, width
	}

	margin := ps.Margin
	marginBottom := margin
	if footer != nil {
		marginBottom += footerMarginExtra
	}

	opts := &proto.PagePrintToPDF{
		PaperWidth:        floatPtr(width),
		PaperHeight:       floatPtr(height),
		MarginTop:         floatPtr(margin),
		MarginBottom:      floatPtr(marginBottom),
		MarginLeft:        floatPtr(margin),
		MarginRight:       floatPtr(margin),
		PrintBackground:   true,
		PreferCSSPageSize: false,
	}

	if footer != nil {
		opts.DisplayHeaderFooter = true
		opts.HeaderTemplate = "<span></span>" // Empty header
		opts.FooterTemplate = buildFooterTemplate(footer, invoiceNumber)
	}
	return opts
}

// buildFooterTemplate generates an HTML template for Chrome's native footer.
// pageNumber and totalPages are filled in by Chrome via CSS classes.
func buildFooterTemplate(f *Footer, invoiceNumber string) string {
	if f == nil {
		return "<span></span>"
	}

	var parts []string
	if f.ShowNumber && invoiceNumber != "" {
		parts = append(parts, html.EscapeString(invoiceNumber))
	}
	if f.Text != "" {
		parts = append(parts, html.EscapeString(f.Text))
	}
	if f.ShowPageNumber {
		parts = append(parts, `<span class="pageNumber"></span>/<span class="totalPages"></span>`)
	}

	if len(parts) == 0 {
		return "<span></span>"
	}

	textAlign := "right"
	switch f.Position {
	case "left":
		textAlign = "left"
	case "center":
		textAlign = "center"
	}

	return fmt.Sprintf(`<div style="font-size: 9px; font-family: %s; color: #888; width: 100%%; text-align: %s; padding: 0 0.5in;">%s</div>`,
		footerFontFamily, textAlign, strings.Join(parts, " - "))
}

// footerKey summarizes footer settings for the fingerprint.
func footerKey(f *Footer) string {
	if f == nil {
		return ""
	}
	return fmt.Sprintf("%t|%t|%s|%s", f.ShowPageNumber, f.ShowNumber, f.Text, f.Position)
}

// pageKey summarizes page settings for the fingerprint.
func pageKey(p *PageSettings) string {
	ps := p.normalized()
	return fmt.Sprintf("%s|%s|%.2f", ps.Size, ps.Orientation, ps.Margin)
}

// floatPtr returns a pointer to a float64 value.
func floatPtr(v float64) *float64 {
	return &v
}
