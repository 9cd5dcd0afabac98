// Package source reads service records from spreadsheet exports and
// converted JSON documents.
package source

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ppiankov/canonica/internal/model"
)

// Adapter reads one input format.
type Adapter interface {
	// Name returns the adapter name
	Name() string

	// CanHandle checks if this adapter can read the file, by extension
	CanHandle(path string) bool

	// Read returns the raw records of the file in file order
	Read(ctx context.Context, path string) ([]model.RawRecord, error)
}

// Registry manages input adapters
type Registry struct {
	adapters []Adapter
}

// NewRegistry creates a registry with the JSON, CSV and XLSX adapters.
func NewRegistry() *Registry {
	registry := &Registry{}

	registry.Register(NewJSONAdapter())
	registry.Register(NewCSVAdapter())
	registry.Register(NewXLSXAdapter())

	return registry
}

// Register registers a new adapter
func (r *Registry) Register(adapter Adapter) {
	r.adapters = append(r.adapters, adapter)
}

// FindAdapter finds the adapter for path. Files without a known extension
// are sniffed by their first bytes.
func (r *Registry) FindAdapter(path string) (Adapter, error) {
	for _, adapter := range r.adapters {
		if adapter.CanHandle(path) {
			return adapter, nil
		}
	}

	name, err := sniff(path)
	if err != nil {
		return nil, err
	}
	for _, adapter := range r.adapters {
		if adapter.Name() == name {
			return adapter, nil
		}
	}
	return nil, fmt.Errorf("no adapter for %s", path)
}

// Load reads path with the matching adapter.
func (r *Registry) Load(ctx context.Context, path string) ([]model.RawRecord, error) {
	adapter, err := r.FindAdapter(path)
	if err != nil {
		return nil, err
	}
	records, err := adapter.Read(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("%s adapter: %w", adapter.Name(), err)
	}
	return records, nil
}

// Discover expands inputs into the list of readable files. Directories
// are walked recursively; hidden files and spreadsheet lock files
// ("~$...") are ignored. The result is sorted and free of duplicates.
func (r *Registry) Discover(inputs []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string

	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			files = append(files, path)
		}
	}

	for _, input := range inputs {
		info, err := os.Stat(input)
		if err != nil {
			return nil, fmt.Errorf("stat input: %w", err)
		}
		if !info.IsDir() {
			add(input)
			continue
		}

		err = filepath.WalkDir(input, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			name := d.Name()
			if d.IsDir() {
				if path != input && strings.HasPrefix(name, ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "~$") {
				return nil
			}
			for _, adapter := range r.adapters {
				if adapter.CanHandle(path) {
					add(path)
					break
				}
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", input, err)
		}
	}

	sort.Strings(files)
	return files, nil
}

// provenanceOf derives provenance from the file location: the file name
// and the name of its parent folder.
func provenanceOf(path string) model.Provenance {
	dir := filepath.Dir(path)
	if abs, err := filepath.Abs(path); err == nil {
		dir = filepath.Dir(abs)
	}
	folder := filepath.Base(dir)
	if folder == "." || folder == string(filepath.Separator) {
		folder = ""
	}
	return model.Provenance{
		SourceFile: filepath.Base(path),
		YearFolder: folder,
	}
}

func hasExt(path string, exts ...string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}

func sniff(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open: %w", err)
	}
	defer func() { _ = f.Close() }()

	head := make([]byte, 512)
	n, _ := f.Read(head)
	head = bytes.TrimLeft(bytes.TrimPrefix(head[:n], utf8BOM), " \t\r\n")

	switch {
	case len(head) == 0:
		return "", fmt.Errorf("empty file: %s", path)
	case bytes.HasPrefix(head, []byte("PK\x03\x04")):
		return "xlsx", nil
	case head[0] == '{' || head[0] == '[':
		return "json", nil
	default:
		return "csv", nil
	}
}
