// Package dateutil turns the date formats accepted in config (token strings
// such as "DD/MM/YYYY" and a few named presets) into Go time layouts for the
// issue and due dates printed on invoices.
package dateutil

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrInvalidDateFormat = errors.New("invalid date format")

// MaxDateFormatLength bounds config-supplied formats.
const MaxDateFormatLength = 50

// DefaultDateFormat is used when no date format is configured.
const DefaultDateFormat = "long"

// Longest tokens first: "MMMM" must win over "MM".
var tokens = [...]struct{ in, layout string }{
	{"YYYY", "2006"},
	{"MMMM", "January"},
	{"MMM", "Jan"},
	{"YY", "06"},
	{"MM", "01"},
	{"DD", "02"},
	{"M", "1"},
	{"D", "2"},
}

// Presets maps preset names to token formats.
var Presets = map[string]string{
	"iso":      "YYYY-MM-DD",
	"european": "DD/MM/YYYY",
	"us":       "MM/DD/YYYY",
	"long":     "MMMM D, YYYY",
}

// Layout converts a preset name (case-insensitive) or a token format to a Go
// layout. Text inside brackets is copied literally, so "[Due] D MMM" keeps
// "Due"; any other character outside a token is kept as is.
func Layout(format string) (string, error) {
	if preset, ok := Presets[strings.ToLower(format)]; ok {
		format = preset
	}
	switch {
	case format == "":
		return "", fmt.Errorf("%w: empty", ErrInvalidDateFormat)
	case len(format) > MaxDateFormatLength:
		return "", fmt.Errorf("%w: longer than %d characters", ErrInvalidDateFormat, MaxDateFormatLength)
	}

	var b strings.Builder
	rest := format
	for rest != "" {
		if rest[0] == '[' {
			literal, after, ok := strings.Cut(rest[1:], "]")
			if !ok {
				return "", fmt.Errorf("%w: unclosed bracket at offset %d", ErrInvalidDateFormat, len(format)-len(rest))
			}
			b.WriteString(literal)
			rest = after
			continue
		}
		n := 1
		out := rest[:1]
		for _, tok := range tokens {
			if strings.HasPrefix(rest, tok.in) {
				n, out = len(tok.in), tok.layout
				break
			}
		}
		b.WriteString(out)
		rest = rest[n:]
	}
	return b.String(), nil
}

// Formatter prints dates with a layout resolved once at startup.
type Formatter struct {
	layout string
}

// NewFormatter resolves format with Layout; "" means DefaultDateFormat.
func NewFormatter(format string) (*Formatter, error) {
	if format == "" {
		format = DefaultDateFormat
	}
	layout, err := Layout(format)
	if err != nil {
		return nil, err
	}
	return &Formatter{layout: layout}, nil
}

// Format renders t, or "" for the zero time so optional dates print blank.
func (f *Formatter) Format(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(f.layout)
}
