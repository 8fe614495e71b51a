// Package loader provides configuration file loading for natan.
//
// The loader package turns configuration files (JSON with comments, YAML,
// TOML) into ordered trees and supplies the environment reader used by the
// rest of the load pipeline.
package loader

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/dshills/natan/internal/config/tree"
)

// Parser turns file content into a configuration tree.
type Parser interface {
	// Parse parses data. name is used in error messages only.
	// Empty or whitespace-only input yields an empty map.
	Parse(name string, data []byte) (*tree.Map, error)
}

// ParserFunc adapts a function to the Parser interface.
type ParserFunc func(name string, data []byte) (*tree.Map, error)

// Parse calls f(name, data).
func (f ParserFunc) Parse(name string, data []byte) (*tree.Map, error) {
	return f(name, data)
}

// Registry selects a parser by file extension.
type Registry struct {
	byExt    map[string]Parser
	fallback Parser
}

// NewRegistry creates a registry with the built-in parsers:
// .json, .jsonc and .config use JSON with comments, .yaml and .yml use YAML,
// .toml uses TOML. Unknown extensions fall back to JSON with comments.
func NewRegistry() *Registry {
	jsonParser := JSONParser{}
	yamlParser := YAMLParser{}
	return &Registry{
		byExt: map[string]Parser{
			".json":   jsonParser,
			".jsonc":  jsonParser,
			".config": jsonParser,
			".yaml":   yamlParser,
			".yml":    yamlParser,
			".toml":   TOMLParser{},
		},
		fallback: jsonParser,
	}
}

// Register sets the parser for ext (with or without the leading dot).
func (r *Registry) Register(ext string, p Parser) {
	r.byExt[normalizeExt(ext)] = p
}

// SetFallback sets the parser used for unknown extensions.
func (r *Registry) SetFallback(p Parser) {
	r.fallback = p
}

// For returns the parser for path. A trailing ".local" extension is looked
// through, so "app.yaml.local" is parsed as YAML.
func (r *Registry) For(path string) Parser {
	base := filepath.Base(path)
	ext := strings.ToLower(filepath.Ext(base))
	if ext == ".local" {
		ext = strings.ToLower(filepath.Ext(strings.TrimSuffix(base, filepath.Ext(base))))
	}
	if p, ok := r.byExt[ext]; ok {
		return p
	}
	return r.fallback
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(ext)
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// FileLoader reads and parses configuration files from a file system.
type FileLoader struct {
	fs      afero.Fs
	parsers *Registry
}

// NewFileLoader creates a loader reading from the OS file system with the
// built-in parsers.
func NewFileLoader() *FileLoader {
	return NewFileLoaderWithFS(DefaultFS(), NewRegistry())
}

// NewFileLoaderWithFS creates a loader with a custom file system and parser
// registry.
func NewFileLoaderWithFS(fsys afero.Fs, parsers *Registry) *FileLoader {
	if fsys == nil {
		fsys = DefaultFS()
	}
	if parsers == nil {
		parsers = NewRegistry()
	}
	return &FileLoader{fs: fsys, parsers: parsers}
}

// LoadFrom reads and parses the file at path.
// Returns nil, nil if the file doesn't exist (not an error).
func (l *FileLoader) LoadFrom(path string) (*tree.Map, error) {
	data, err := afero.ReadFile(l.fs, path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil // File doesn't exist, not an error
		}
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	return l.parsers.For(path).Parse(path, data)
}

// DefaultFS returns the default file system (OS).
func DefaultFS() afero.Fs {
	return afero.NewOsFs()
}
