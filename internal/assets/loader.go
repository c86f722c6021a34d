package assets

import "path"

// AssetLoader loads invoice styles and templates by name.
// Names carry no extension and no path components; see ValidateAssetName.
type AssetLoader interface {
	LoadStyle(name string) (string, error)
	LoadTemplate(name string) (string, error)
}

// kind is one asset family: where it lives, its extension, and the error
// returned for an unknown name.
type kind struct {
	dir      string
	ext      string
	notFound error
}

var (
	styleKind    = kind{dir: "styles", ext: ".css", notFound: ErrStyleNotFound}
	templateKind = kind{dir: "templates", ext: ".html", notFound: ErrTemplateNotFound}
)

// file returns the slash-separated path of name inside an asset tree.
func (k kind) file(name string) string {
	return path.Join(k.dir, name+k.ext)
}
