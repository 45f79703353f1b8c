// CLAUDE:SUMMARY Registry of term-list formats (csv, json, yaml) selectable by name or file extension.
package importer

import (
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
	"sync"
)

// Row is one canonical term with the variants to merge into it.
type Row struct {
	Canonical string
	Variants  []string
	Line      int // 1-based source line or record number, 0 when unknown
}

// Format parses one kind of term list.
type Format interface {
	// Name returns the identifier used on the command line (e.g. "csv").
	Name() string
	// Extensions returns the lowercase file extensions handled, dot included.
	Extensions() []string
	// Parse reads UTF-8 input and returns its rows in source order.
	Parse(r io.Reader) ([]Row, error)
}

var (
	registryMu sync.RWMutex
	formats    = make(map[string]Format)
)

// Register adds a format to the global registry.
func Register(f Format) {
	registryMu.Lock()
	defer registryMu.Unlock()
	formats[f.Name()] = f
}

// Get returns a registered format by name, or an error if not found.
func Get(name string) (Format, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	f, ok := formats[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown import format: %q", name)
	}
	return f, nil
}

// All returns all registered formats sorted by name.
func All() []Format {
	registryMu.RLock()
	defer registryMu.RUnlock()
	result := make([]Format, 0, len(formats))
	for _, f := range formats {
		result = append(result, f)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name() < result[j].Name() })
	return result
}

// ForPath picks the format whose extensions match p (a file path or URL path).
func ForPath(p string) (Format, error) {
	ext := strings.ToLower(path.Ext(p))
	for _, f := range All() {
		for _, e := range f.Extensions() {
			if e == ext {
				return f, nil
			}
		}
	}
	return nil, fmt.Errorf("no import format for extension %q", ext)
}
