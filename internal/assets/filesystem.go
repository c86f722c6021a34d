package assets

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// FilesystemLoader reads assets from an operator-provided directory laid out
// like the embedded tree: styles/<name>.css and templates/<name>.html.
type FilesystemLoader struct {
	root string
}

// NewFilesystemLoader checks that dir is a readable directory and returns a
// loader rooted at its resolved absolute path. Failures wrap ErrInvalidBasePath.
func NewFilesystemLoader(dir string) (*FilesystemLoader, error) {
	if dir == "" {
		return nil, fmt.Errorf("%w: empty path", ErrInvalidBasePath)
	}

	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBasePath, err)
	}
	// Containment checks compare resolved paths.
	if real, err := filepath.EvalSymlinks(root); err == nil {
		root = real
	}

	info, err := os.Stat(root)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("%w: directory does not exist: %s", ErrInvalidBasePath, root)
	case err != nil:
		return nil, fmt.Errorf("%w: %v", ErrInvalidBasePath, err)
	case !info.IsDir():
		return nil, fmt.Errorf("%w: not a directory: %s", ErrInvalidBasePath, root)
	}
	if _, err := os.ReadDir(root); err != nil {
		return nil, fmt.Errorf("%w: cannot read directory: %v", ErrInvalidBasePath, err)
	}

	return &FilesystemLoader{root: root}, nil
}

// LoadStyle reads styles/<name>.css under the root.
func (f *FilesystemLoader) LoadStyle(name string) (string, error) {
	return f.load(styleKind, name)
}

// LoadTemplate reads templates/<name>.html under the root.
func (f *FilesystemLoader) LoadTemplate(name string) (string, error) {
	return f.load(templateKind, name)
}

func (f *FilesystemLoader) load(k kind, name string) (string, error) {
	if err := ValidateAssetName(name); err != nil {
		return "", err
	}

	p := filepath.Join(f.root, filepath.FromSlash(k.file(name)))
	if err := f.contain(p); err != nil {
		return "", err
	}

	data, err := os.ReadFile(p) // #nosec G304 -- validated name, contained path
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("%w: %q", k.notFound, name)
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAssetRead, err)
	}
	return string(data), nil
}

// contain rejects p when its resolved location is outside the root, which
// catches symlinks planted inside the asset tree.
func (f *FilesystemLoader) contain(p string) error {
	if real, err := filepath.EvalSymlinks(p); err == nil {
		p = real
	}
	if !strings.HasPrefix(p, f.root+string(filepath.Separator)) {
		return fmt.Errorf("%w: path escapes base directory", ErrPathTraversal)
	}
	return nil
}

var _ AssetLoader = (*FilesystemLoader)(nil)
