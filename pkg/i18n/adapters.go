package i18n

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path"
)

// TranslationAdapter loads catalogs keyed by language.
type TranslationAdapter interface {
	Load(ctx context.Context) (map[string]map[string]any, error)
}

// MapAdapter serves an in-memory catalog.
type MapAdapter struct {
	Data map[string]map[string]any
}

// Load returns the map as is.
func (a *MapAdapter) Load(context.Context) (map[string]map[string]any, error) {
	if a.Data == nil {
		return make(map[string]map[string]any), nil
	}
	return a.Data, nil
}

// FSAdapter loads every .yaml, .yml and .json file of a directory inside a
// file system (embed.FS, os.DirFS, fstest.MapFS). fs.ReadDir yields name
// order; later files override earlier keys of the same language.
type FSAdapter struct {
	fsys fs.FS
	dir  string
}

// NewFSAdapter creates an adapter for dir inside fsys. Use "." for the root.
func NewFSAdapter(fsys fs.FS, dir string) *FSAdapter {
	if dir == "" {
		dir = "."
	}
	return &FSAdapter{fsys: fsys, dir: dir}
}

// NewDirectoryAdapter reads catalogs from a directory on disk.
func NewDirectoryAdapter(dir string) *FSAdapter {
	return NewFSAdapter(os.DirFS(dir), ".")
}

// Load parses and merges the catalog files.
func (a *FSAdapter) Load(ctx context.Context) (map[string]map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Join(ErrLoadingCancelled, err)
	}

	entries, err := fs.ReadDir(a.fsys, a.dir)
	if err != nil {
		return nil, errors.Join(ErrFailedToReadDir, err)
	}

	all := make(map[string]map[string]any)
	found := false
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		parser := NewParserForFile(entry.Name())
		if parser == nil {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, errors.Join(ErrLoadingCancelled, err)
		}

		name := path.Join(a.dir, entry.Name())
		content, err := fs.ReadFile(a.fsys, name)
		if err != nil {
			return nil, errors.Join(ErrFailedToReadFile, err)
		}
		catalog, err := parser.Parse(ctx, content)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		for lang, messages := range catalog {
			if all[lang] == nil {
				all[lang] = make(map[string]any)
			}
			merge(all[lang], messages)
		}
		found = true
	}

	if !found {
		return nil, fmt.Errorf("%w in %q", ErrNoCatalogFiles, a.dir)
	}
	return all, nil
}

// merge copies src into dst, descending into nested maps.
func merge(dst, src map[string]any) {
	for k, v := range src {
		sub, ok := v.(map[string]any)
		if !ok {
			dst[k] = v
			continue
		}
		existing, ok := dst[k].(map[string]any)
		if !ok {
			existing = make(map[string]any, len(sub))
			dst[k] = existing
		}
		merge(existing, sub)
	}
}

// ChainAdapter merges several adapters; later ones override earlier ones.
type ChainAdapter []TranslationAdapter

// Load loads and merges every adapter.
func (c ChainAdapter) Load(ctx context.Context) (map[string]map[string]any, error) {
	all := make(map[string]map[string]any)
	for _, a := range c {
		if a == nil {
			continue
		}
		catalog, err := a.Load(ctx)
		if err != nil {
			return nil, err
		}
		for lang, messages := range catalog {
			if all[lang] == nil {
				all[lang] = make(map[string]any)
			}
			merge(all[lang], maps.Clone(messages))
		}
	}
	return all, nil
}
