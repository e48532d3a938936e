// Package assets maps rooted virtual paths such as "/post_processing/gamma.wgsl"
// to file contents.
package assets

import (
	"io/fs"
	"iter"
	"maps"
	"path"
	"slices"
	"strings"
)

// Assets is a read-only table of files keyed by rooted virtual path.
type Assets interface {
	Get(path string) ([]byte, bool)
	// Iter yields every path in the table in lexical order.
	Iter() iter.Seq[string]
}

// Root makes p absolute and clean. The empty path is the root itself.
func Root(p string) string {
	return path.Clean("/" + p)
}

// Map is an in-memory asset table.
type Map map[string][]byte

// MapOf builds a Map from textual files, rooting every key.
func MapOf(files map[string]string) Map {
	m := make(Map, len(files))
	for p, src := range files {
		m[Root(p)] = []byte(src)
	}
	return m
}

func (m Map) Get(p string) ([]byte, bool) {
	data, ok := m[Root(p)]
	return data, ok
}

func (m Map) Iter() iter.Seq[string] {
	return slices.Values(slices.Sorted(maps.Keys(m)))
}

// FS serves assets out of an fs.FS, typically an embed.FS.
type FS struct {
	fsys fs.FS
}

// FromFS serves the tree under dir of fsys. An empty dir or "." serves the whole file system.
func FromFS(fsys fs.FS, dir string) (*FS, error) {
	if dir != "" && dir != "." {
		sub, err := fs.Sub(fsys, dir)
		if err != nil {
			return nil, err
		}
		fsys = sub
	}
	return &FS{fsys: fsys}, nil
}

func (f *FS) Get(p string) ([]byte, bool) {
	name := strings.TrimPrefix(Root(p), "/")
	if name == "" {
		return nil, false
	}
	data, err := fs.ReadFile(f.fsys, name)
	if err != nil {
		return nil, false
	}
	return data, true
}

func (f *FS) Iter() iter.Seq[string] {
	return func(yield func(string) bool) {
		_ = fs.WalkDir(f.fsys, ".", func(name string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return nil
			}
			if !yield("/" + name) {
				return fs.SkipAll
			}
			return nil
		})
	}
}

// Overlay looks paths up in each table in turn, so earlier tables shadow later ones.
type Overlay []Assets

func (o Overlay) Get(p string) ([]byte, bool) {
	for _, a := range o {
		if data, ok := a.Get(p); ok {
			return data, true
		}
	}
	return nil, false
}

func (o Overlay) Iter() iter.Seq[string] {
	seen := map[string]bool{}
	for _, a := range o {
		for p := range a.Iter() {
			seen[p] = true
		}
	}
	return slices.Values(slices.Sorted(maps.Keys(seen)))
}
