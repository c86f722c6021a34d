package assets

import (
	"errors"
)

var (
	ErrStyleNotFound    = errors.New("style not found")
	ErrTemplateNotFound = errors.New("template not found")
	ErrInvalidAssetName = errors.New("invalid asset name")
	ErrInvalidBasePath  = errors.New("invalid base path")
	ErrAssetRead        = errors.New("failed to read asset")
	ErrPathTraversal    = errors.New("path traversal detected")
)

// Names of the built-in template and style.
const (
	DefaultTemplateName = "invoice"
	DefaultStyleName    = "default"
)

var builtin = NewEmbeddedLoader()

// LoadStyle returns a built-in style.
func LoadStyle(name string) (string, error) { return builtin.LoadStyle(name) }

// LoadTemplate returns a built-in template.
func LoadTemplate(name string) (string, error) { return builtin.LoadTemplate(name) }

// Resolver asks its layers in order and moves to the next layer only when an
// asset is missing. Invalid names, traversal attempts and read errors stop
// the lookup, so a broken override is reported instead of masked.
type Resolver struct {
	layers []AssetLoader
}

// NewResolver returns a resolver over the embedded assets, with overrideDir
// layered on top when it is not empty.
func NewResolver(overrideDir string) (*Resolver, error) {
	r := &Resolver{}
	if overrideDir != "" {
		fsl, err := NewFilesystemLoader(overrideDir)
		if err != nil {
			return nil, err
		}
		r.layers = append(r.layers, fsl)
	}
	r.layers = append(r.layers, builtin)
	return r, nil
}

// Layers reports how many loaders the resolver consults.
func (r *Resolver) Layers() int { return len(r.layers) }

func (r *Resolver) LoadStyle(name string) (string, error) {
	return r.first(func(l AssetLoader) (string, error) { return l.LoadStyle(name) })
}

func (r *Resolver) LoadTemplate(name string) (string, error) {
	return r.first(func(l AssetLoader) (string, error) { return l.LoadTemplate(name) })
}

func (r *Resolver) first(load func(AssetLoader) (string, error)) (string, error) {
	var err error
	for _, l := range r.layers {
		var content string
		content, err = load(l)
		if err == nil {
			return content, nil
		}
		if !errors.Is(err, ErrStyleNotFound) && !errors.Is(err, ErrTemplateNotFound) {
			return "", err
		}
	}
	return "", err
}

var _ AssetLoader = (*Resolver)(nil)
