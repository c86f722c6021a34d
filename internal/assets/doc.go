// Package assets serves the invoice HTML template and its CSS styles.
//
// Three loaders implement AssetLoader:
//
//	EmbeddedLoader    built-in files compiled into the binary
//	FilesystemLoader  an operator directory with the same layout
//	Resolver          layers an override directory over the built-ins
//
// Both trees use one layout:
//
//	styles/<name>.css
//	templates/<name>.html
//
// Names are plain identifiers (see ValidateAssetName). FilesystemLoader also
// resolves symlinks and refuses files outside its root.
package assets
