package registry

import (
	"embed"
	"io/fs"
	"os"
)

// builtinFS holds the template catalog shipped with the binary.
//
//go:embed all:builtin
var builtinFS embed.FS

// Builtin returns the embedded template catalog as a source.
func Builtin() Source {
	sub, err := fs.Sub(builtinFS, "builtin")
	if err != nil {
		panic("registry: embedded catalog missing: " + err.Error())
	}
	return Source{Name: "builtin", FS: sub}
}

// DirSource returns a source backed by a directory on disk.
func DirSource(name, dir string) Source {
	return Source{Name: name, FS: os.DirFS(dir)}
}

// DefaultSources returns the sources in priority order: the user template
// directory, when set, followed by the builtin catalog.
func DefaultSources(templatesDir string) []Source {
	var sources []Source
	if templatesDir != "" {
		if info, err := os.Stat(templatesDir); err == nil && info.IsDir() {
			sources = append(sources, DirSource("user", templatesDir))
		}
	}
	return append(sources, Builtin())
}
