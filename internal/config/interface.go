package config

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// Loader is the interface for a format-specific configuration loader.
type Loader interface {
	// Load reads a single configuration file and translates it into the
	// format-agnostic model.
	Load(ctx context.Context, path string) (*Model, error)
}

// Loaders maps lower-case file extensions (".hcl", ".yaml") to loaders.
type Loaders map[string]Loader

// For returns the loader responsible for path based on its extension.
func (l Loaders) For(path string) (Loader, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if loader, ok := l[ext]; ok {
		return loader, nil
	}

	known := make([]string, 0, len(l))
	for k := range l {
		known = append(known, k)
	}
	sort.Strings(known)
	return nil, fmt.Errorf("unsupported config file %s: extension must be one of %s", path, strings.Join(known, ", "))
}

// Load selects the loader for path, loads it and resolves relative paths
// against the file's directory.
func (l Loaders) Load(ctx context.Context, path string) (*Model, error) {
	loader, err := l.For(path)
	if err != nil {
		return nil, err
	}
	model, err := loader.Load(ctx, path)
	if err != nil {
		return nil, err
	}
	model.ResolvePaths(filepath.Dir(path))
	return model, nil
}
