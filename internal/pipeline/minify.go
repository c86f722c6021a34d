package pipeline

import (
	"fmt"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	minhtml "github.com/tdewolff/minify/v2/html"
)

const (
	mimeHTML = "text/html"
	mimeCSS  = "text/css"
)

// Minifier strips insignificant whitespace from the composed document so
// formatting-only template changes do not change the fingerprint, and the
// browser parses less markup.
type Minifier struct {
	m *minify.M
}

// NewMinifier creates a Minifier for HTML with inline CSS.
func NewMinifier() *Minifier {
	m := minify.New()
	m.AddFunc(mimeCSS, css.Minify)
	m.Add(mimeHTML, &minhtml.Minifier{
		KeepDocumentTags: true,
		KeepEndTags:      true,
		KeepQuotes:       true,
		KeepWhitespace:   false,
	})
	return &Minifier{m: m}
}

// HTML minifies a complete HTML document.
func (n *Minifier) HTML(doc string) (string, error) {
	out, err := n.m.String(mimeHTML, doc)
	if err != nil {
		return "", fmt.Errorf("minifying document: %w", err)
	}
	return out, nil
}
