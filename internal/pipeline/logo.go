package pipeline

import (
	"encoding/base64"
	"errors"
	"fmt"
	"html/template"
	"io"
	"os"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/alnah/invoicepdf/internal/fileutil"
)

// MaxLogoBytes caps inlined logo files.
const MaxLogoBytes = 2 << 20

// Logo resolution errors.
var (
	ErrLogoNotImage   = errors.New("logo is not an image")
	ErrLogoTooLarge   = errors.New("logo file too large")
	ErrLogoRead       = errors.New("failed to read logo")
	ErrLogoNotAllowed = errors.New("local logo files are not allowed")
)

// LogoResolver turns the business logo reference into a URL the browser can
// load without touching the filesystem.
type LogoResolver struct {
	// AllowFiles permits local file paths. Disable it when logo values come
	// from untrusted requests.
	AllowFiles bool
}

// Resolve returns src as a template.URL:
//   - "" stays empty
//   - http(s) URLs pass through
//   - data:image/ URIs pass through
//   - anything else is read as a local file and inlined as a data URI
func (r LogoResolver) Resolve(src string) (template.URL, error) {
	src = strings.TrimSpace(src)
	switch {
	case src == "":
		return "", nil
	case fileutil.IsURL(src):
		return template.URL(src), nil // #nosec G203 -- scheme checked
	case fileutil.IsDataURI(src):
		if !strings.HasPrefix(src, "data:image/") {
			return "", fmt.Errorf("%w: %.40q", ErrLogoNotImage, src)
		}
		return template.URL(src), nil // #nosec G203 -- image data URI
	}

	if !r.AllowFiles {
		return "", fmt.Errorf("%w: %q", ErrLogoNotAllowed, src)
	}
	return InlineLogo(src)
}

// InlineLogo reads an image file and returns it as a base64 data URI.
func InlineLogo(path string) (template.URL, error) {
	f, err := os.Open(path) // #nosec G304 -- operator-configured logo path
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrLogoRead, err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, MaxLogoBytes+1))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrLogoRead, err)
	}
	if len(data) > MaxLogoBytes {
		return "", fmt.Errorf("%w: %s (max %d bytes)", ErrLogoTooLarge, path, MaxLogoBytes)
	}

	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return "", fmt.Errorf("%w: %s is %s", ErrLogoNotImage, path, mt.String())
	}

	// Drop parameters such as "; charset=utf-8" from SVG detection.
	mediaType, _, _ := strings.Cut(mt.String(), ";")
	uri := "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(data)
	return template.URL(uri), nil // #nosec G203 -- detected image content
}
