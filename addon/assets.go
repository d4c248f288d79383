package addon

import (
	"bytes"
	"embed"
	"html/template"
	"io"
	"io/fs"
	"path"
)

//go:embed templates config static
var embeddedAssets embed.FS

// AssetFile is one embedded asset, ready to be read.
type AssetFile struct {
	Name   string
	Reader io.Reader
	Length int
}

// EmbeddedFS abstracts the embedded filesystem so tests can substitute
// their own asset trees.
type EmbeddedFS interface {
	Open(name string) (fs.File, error)
	ReadDir(name string) ([]fs.DirEntry, error)
	ReadFile(name string) ([]byte, error)
}

// EmbeddedAssets locates templates and config defaults under a root.
type EmbeddedAssets struct {
	Root  string
	Files EmbeddedFS
}

// DefaultAssets returns the assets compiled into the binary.
func DefaultAssets() EmbeddedAssets {
	return EmbeddedAssets{Files: embeddedAssets}
}

func (ea EmbeddedAssets) MustFindRootAssetFile(filename string) (AssetFile, error) {
	var result AssetFile
	name := path.Join(ea.Root, filename)
	contents, err := ea.Files.ReadFile(name)
	if err == nil {
		result.Name = name
		result.Reader = bytes.NewReader(contents)
		result.Length = len(contents)
	}
	return result, err
}

// MustFindConfigDefaults returns the embedded configuration defaults.
func (ea EmbeddedAssets) MustFindConfigDefaults() (AssetFile, error) {
	return ea.MustFindRootAssetFile("config/defaults.yaml")
}

// MustFindDialogTemplate returns the embedded generator dialog page.
func (ea EmbeddedAssets) MustFindDialogTemplate() (AssetFile, error) {
	return ea.MustFindRootAssetFile("templates/dialog.html.tmpl")
}

// EmbeddedDefaults is a shorthand for the compiled-in config defaults.
func EmbeddedDefaults() (AssetFile, error) {
	return DefaultAssets().MustFindConfigDefaults()
}

// DialogTemplate parses the embedded dialog page template.
func DialogTemplate() (*template.Template, error) {
	asset, err := DefaultAssets().MustFindDialogTemplate()
	if err != nil {
		return nil, err
	}
	contents, err := io.ReadAll(asset.Reader)
	if err != nil {
		return nil, err
	}
	return template.New("dialog").Parse(string(contents))
}
