package invoicepdf

import (
	"errors"

	"github.com/alnah/invoicepdf/internal/assets"
)

// Names of the built-in style and invoice template.
const (
	DefaultStyle    = assets.DefaultStyleName
	DefaultTemplate = assets.DefaultTemplateName
)

// AssetLoader supplies CSS styles and html/template invoice layouts by name.
// Names carry no extension. Unknown names return ErrStyleNotFound or
// ErrTemplateNotFound; implement it to serve assets from another backend.
type AssetLoader interface {
	LoadStyle(name string) (string, error)
	LoadTemplate(name string) (string, error)
}

// NewAssetLoader returns the built-in assets, overridden by files under dir
// when dir is set. The directory holds styles/<name>.css and
// templates/<name>.html; a name it lacks falls back to the built-in one.
// A dir that is not a readable directory returns ErrInvalidAssetPath.
func NewAssetLoader(dir string) (AssetLoader, error) {
	r, err := assets.NewResolver(dir)
	if err != nil {
		return nil, publicAssetError(err)
	}
	return publicLoader{r}, nil
}

// publicLoader translates internal asset errors for callers of this package.
type publicLoader struct {
	r *assets.Resolver
}

func (p publicLoader) LoadStyle(name string) (string, error) {
	s, err := p.r.LoadStyle(name)
	return s, publicAssetError(err)
}

func (p publicLoader) LoadTemplate(name string) (string, error) {
	s, err := p.r.LoadTemplate(name)
	return s, publicAssetError(err)
}

// publicAssetError keeps err's message and makes errors.Is match the
// exported sentinel for its category.
func publicAssetError(err error) error {
	var sentinel error
	switch {
	case err == nil:
		return nil
	case errors.Is(err, assets.ErrStyleNotFound):
		sentinel = ErrStyleNotFound
	case errors.Is(err, assets.ErrTemplateNotFound):
		sentinel = ErrTemplateNotFound
	case errors.Is(err, assets.ErrInvalidBasePath),
		errors.Is(err, assets.ErrPathTraversal),
		errors.Is(err, assets.ErrInvalidAssetName):
		sentinel = ErrInvalidAssetPath
	default:
		return err
	}
	return &assetError{sentinel: sentinel, cause: err}
}

type assetError struct {
	sentinel error
	cause    error
}

func (e *assetError) Error() string { return e.cause.Error() }
func (e *assetError) Unwrap() error { return e.sentinel }
