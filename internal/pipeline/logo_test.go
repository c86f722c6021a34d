package pipeline

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// tinyPNG is a valid 1x1 transparent PNG.
var tinyPNG = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4, 0x89, 0x00, 0x00, 0x00,
	0x0d, 0x49, 0x44, 0x41, 0x54, 0x78, 0x9c, 0x63, 0x00, 0x01, 0x00, 0x00,
	0x05, 0x00, 0x01, 0x0d, 0x0a, 0x2d, 0xb4, 0x00, 0x00, 0x00, 0x00, 0x49,
	0x45, 0x4e, 0x44, 0xae, 0x42, 0x60, 0x82,
}

func TestLogoResolver_Resolve(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	pngPath := filepath.Join(dir, "logo.png")
	if err := os.WriteFile(pngPath, tinyPNG, 0o644); err != nil {
		t.Fatalf("failed to write logo: %v", err)
	}
	txtPath := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(txtPath, []byte("not an image"), 0o644); err != nil {
		t.Fatalf("failed to write text file: %v", err)
	}

	tests := []struct {
		name       string
		allowFiles bool
		src        string
		wantPrefix string
		wantErr    error
	}{
		{name: "empty", src: "", wantPrefix: ""},
		{name: "https passes through", src: "https://cdn.test/logo.svg", wantPrefix: "https://cdn.test/logo.svg"},
		{name: "image data URI passes through", src: "data:image/png;base64,AAAA", wantPrefix: "data:image/png;base64,AAAA"},
		{name: "non-image data URI rejected", src: "data:text/html,<b>x</b>", wantErr: ErrLogoNotImage},
		{name: "file refused when not allowed", src: pngPath, wantErr: ErrLogoNotAllowed},
		{name: "file inlined when allowed", allowFiles: true, src: pngPath, wantPrefix: "data:image/png;base64,"},
		{name: "non-image file rejected", allowFiles: true, src: txtPath, wantErr: ErrLogoNotImage},
		{name: "missing file", allowFiles: true, src: filepath.Join(dir, "missing.png"), wantErr: ErrLogoRead},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := LogoResolver{AllowFiles: tt.allowFiles}
			got, err := r.Resolve(tt.src)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Resolve(%q) error = %v, want %v", tt.src, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve(%q) unexpected error: %v", tt.src, err)
			}
			if !strings.HasPrefix(string(got), tt.wantPrefix) {
				t.Errorf("Resolve(%q) = %.60q, want prefix %q", tt.src, got, tt.wantPrefix)
			}
		})
	}
}

func TestInlineLogo_TooLarge(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "huge.png")
	data := make([]byte, MaxLogoBytes+10)
	copy(data, tinyPNG)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("failed to write logo: %v", err)
	}

	_, err := InlineLogo(path)
	if !errors.Is(err, ErrLogoTooLarge) {
		t.Errorf("InlineLogo() error = %v, want ErrLogoTooLarge", err)
	}
}
