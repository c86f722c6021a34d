package pipeline

import (
	"strings"
	"testing"
)

func TestSanitizeCSS(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain rules", ".total { font-weight: 700; }", ".total { font-weight: 700; }"},
		{"empty", "", ""},
		{"closing style tag", ".a{}</style><script>x()</script>", `.a{}<\/style><script>x()<\/script>`},
		{"upper case tag", "</STYLE>", `<\/STYLE>`},
		{"repeated", "</</p>", `<\/<\/p>`},
		{"less-than in a selector stays", "td:not(.x) > b {}", "td:not(.x) > b {}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := sanitizeCSS(tt.in)
			if got != tt.want {
				t.Errorf("sanitizeCSS(%q) = %q, want %q", tt.in, got, tt.want)
			}
			if strings.Contains(strings.ToLower(got), "</style") {
				t.Errorf("sanitizeCSS(%q) still closes the style block", tt.in)
			}
		})
	}
}
