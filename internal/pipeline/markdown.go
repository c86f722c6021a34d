package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// ErrMarkdown indicates notes or terms could not be rendered.
var ErrMarkdown = errors.New("markdown conversion failed")

// MarkdownRenderer converts the free-text invoice fields (notes, payment
// terms) from Markdown to HTML fragments.
type MarkdownRenderer struct {
	md goldmark.Markdown
}

// NewMarkdownRenderer creates a MarkdownRenderer with GFM extensions.
func NewMarkdownRenderer() *MarkdownRenderer {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM, // Tables, strikethrough, autolinks, task lists
		),
		goldmark.WithRendererOptions(
			html.WithHardWraps(), // Treat newlines as <br>
			html.WithXHTML(),
			// WithUnsafe is not set: raw HTML in invoice text is dropped.
		),
	)
	return &MarkdownRenderer{md: md}
}

// Render converts src to an HTML fragment. Empty input yields "".
// The result is safe to embed: goldmark escapes text and omits raw HTML.
func (r *MarkdownRenderer) Render(ctx context.Context, src string) (template.HTML, error) {
	if src == "" {
		return "", nil
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := r.md.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMarkdown, err)
	}
	// #nosec G203 -- goldmark output without WithUnsafe
	return template.HTML(buf.String()), nil
}
