package invoicepdf

import (
	"errors"
	"strings"
	"testing"
)

func TestBuildPDFOptions_Dimensions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		page       *PageSettings
		wantWidth  float64
		wantHeight float64
		wantMargin float64
	}{
		{
			name:       "nil uses letter portrait",
			page:       nil,
			wantWidth:  8.5,
			wantHeight: 11,
			wantMargin: DefaultMargin,
		},
		{
			name:       "a4 portrait",
			page:       &PageSettings{Size: "a4", Orientation: "portrait", Margin: 1},
			wantWidth:  8.27,
			wantHeight: 11.69,
			wantMargin: 1,
		},
		{
			name:       "legal landscape swaps dimensions",
			page:       &PageSettings{Size: "LEGAL", Orientation: "Landscape", Margin: 0.75},
			wantWidth:  14,
			wantHeight: 8.5,
			wantMargin: 0.75,
		},
		{
			name:       "unknown size falls back to letter",
			page:       &PageSettings{Size: "tabloid", Orientation: "portrait", Margin: 0.5},
			wantWidth:  8.5,
			wantHeight: 11,
			wantMargin: 0.5,
		},
		{
			name:       "zero margin uses default",
			page:       &PageSettings{Size: "letter", Orientation: "portrait"},
			wantWidth:  8.5,
			wantHeight: 11,
			wantMargin: DefaultMargin,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			opts := buildPDFOptions(tt.page, nil, "INV-1")

			if *opts.PaperWidth != tt.wantWidth {
				t.Errorf("PaperWidth = %v, want %v", *opts.PaperWidth, tt.wantWidth)
			}
			if *opts.PaperHeight != tt.wantHeight {
				t.Errorf("PaperHeight = %v, want %v", *opts.PaperHeight, tt.wantHeight)
			}
			for name, got := range map[string]float64{
				"MarginTop":    *opts.MarginTop,
				"MarginBottom": *opts.MarginBottom,
				"MarginLeft":   *opts.MarginLeft,
				"MarginRight":  *opts.MarginRight,
			} {
				if got != tt.wantMargin {
					t.Errorf("%s = %v, want %v", name, got, tt.wantMargin)
				}
			}
			if !opts.PrintBackground {
				t.Error("PrintBackground = false, want true")
			}
			if opts.DisplayHeaderFooter {
				t.Error("DisplayHeaderFooter = true without footer")
			}
		})
	}
}

func TestBuildPDFOptions_Footer(t *testing.T) {
	t.Parallel()

	footer := &Footer{ShowPageNumber: true, ShowNumber: true, Position: "center"}
	opts := buildPDFOptions(DefaultPageSettings(), footer, "INV-9")

	if !opts.DisplayHeaderFooter {
		t.Fatal("DisplayHeaderFooter = false with footer")
	}
	if want := DefaultMargin + footerMarginExtra; *opts.MarginBottom != want {
		t.Errorf("MarginBottom = %v, want %v", *opts.MarginBottom, want)
	}
	if !strings.Contains(opts.FooterTemplate, "INV-9") {
		t.Errorf("footer template missing invoice number: %q", opts.FooterTemplate)
	}
	if !strings.Contains(opts.FooterTemplate, "pageNumber") {
		t.Errorf("footer template missing page number: %q", opts.FooterTemplate)
	}
	if !strings.Contains(opts.FooterTemplate, "text-align: center") {
		t.Errorf("footer template not centered: %q", opts.FooterTemplate)
	}
}

func TestBuildFooterTemplate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		footer      *Footer
		number      string
		contains    []string
		notContains []string
	}{
		{
			name:     "nil footer",
			footer:   nil,
			contains: []string{"<span></span>"},
		},
		{
			name:     "nothing to show",
			footer:   &Footer{},
			number:   "INV-1",
			contains: []string{"<span></span>"},
		},
		{
			name:        "text is escaped",
			footer:      &Footer{Text: "<b>Paid</b> & thanks"},
			contains:    []string{"&lt;b&gt;Paid&lt;/b&gt; &amp; thanks"},
			notContains: []string{"<b>"},
		},
		{
			name:        "number hidden unless requested",
			footer:      &Footer{ShowPageNumber: true},
			number:      "INV-1",
			contains:    []string{"totalPages", "text-align: right"},
			notContains: []string{"INV-1"},
		},
		{
			name:     "left aligned number",
			footer:   &Footer{ShowNumber: true, Position: "left"},
			number:   "INV-<2>",
			contains: []string{"INV-&lt;2&gt;", "text-align: left"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := buildFooterTemplate(tt.footer, tt.number)
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("template %q missing %q", got, want)
				}
			}
			for _, unwanted := range tt.notContains {
				if strings.Contains(got, unwanted) {
					t.Errorf("template %q contains %q", got, unwanted)
				}
			}
		})
	}
}

func TestFooter_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		footer  *Footer
		wantErr error
	}{
		{"nil is valid", nil, nil},
		{"empty position", &Footer{}, nil},
		{"right", &Footer{Position: "right"}, nil},
		{"bad position", &Footer{Position: "top"}, ErrInvalidFooterPosition},
		{"text too long", &Footer{Text: strings.Repeat("x", MaxNameLength+1)}, ErrFieldTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.footer.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestFingerprintKeys(t *testing.T) {
	t.Parallel()

	if pageKey(nil) != pageKey(DefaultPageSettings()) {
		t.Error("nil page settings should key like the defaults")
	}
	if pageKey(&PageSettings{Size: "A4", Orientation: "Portrait", Margin: 0.5}) !=
		pageKey(&PageSettings{Size: "a4", Orientation: "portrait", Margin: 0.5}) {
		t.Error("pageKey should be case-insensitive")
	}
	if footerKey(nil) != "" {
		t.Error("footerKey(nil) should be empty")
	}
	if footerKey(&Footer{ShowPageNumber: true}) == footerKey(&Footer{ShowNumber: true}) {
		t.Error("different footers share a key")
	}
}
