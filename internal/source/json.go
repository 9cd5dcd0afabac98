package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/ppiankov/canonica/internal/model"
)

// JSONAdapter reads converted documents: a bare array of records, an
// object with a "data" array, or a per-file document that also names
// its "source_file" and "year_folder". Records may carry their own
// provenance keys, as consolidated exports do.
type JSONAdapter struct{}

// NewJSONAdapter creates a new JSON adapter
func NewJSONAdapter() *JSONAdapter {
	return &JSONAdapter{}
}

// Name returns the adapter name
func (a *JSONAdapter) Name() string {
	return "json"
}

// CanHandle checks for a .json extension
func (a *JSONAdapter) CanHandle(path string) bool {
	return hasExt(path, ".json")
}

type jsonDocument struct {
	SourceFile string           `json:"source_file"`
	YearFolder string           `json:"year_folder"`
	Data       []map[string]any `json:"data"`
}

// Read parses the document and maps record keys to fields.
func (a *JSONAdapter) Read(ctx context.Context, path string) ([]model.RawRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	base := provenanceOf(path)
	var items []map[string]any

	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) > 0 && trimmed[0] == '[' {
		if err := decode(data, &items); err != nil {
			return nil, fmt.Errorf("decode array: %w", err)
		}
	} else {
		var doc jsonDocument
		if err := decode(data, &doc); err != nil {
			return nil, fmt.Errorf("decode document: %w", err)
		}
		if doc.SourceFile != "" {
			base.SourceFile = doc.SourceFile
		}
		if doc.YearFolder != "" {
			base.YearFolder = doc.YearFolder
		}
		items = doc.Data
	}

	out := make([]model.RawRecord, 0, len(items))
	for i, item := range items {
		if i%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		keys := make([]string, 0, len(item))
		for k := range item {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		prov := base
		fields := make(map[string]any, len(item))
		for _, k := range keys {
			v := item[k]
			switch k {
			case "source_file":
				if s, ok := v.(string); ok && s != "" {
					prov.SourceFile = s
				}
				continue
			case "year_folder":
				if s, ok := v.(string); ok && s != "" {
					prov.YearFolder = s
				}
				continue
			case "sheet_name", "sheet":
				if s, ok := v.(string); ok {
					prov.Sheet = s
				}
				continue
			}
			if field, ok := ColumnFor(k); ok && v != nil {
				if _, exists := fields[field]; !exists {
					fields[field] = v
				}
			}
		}

		if isBlank(fields) || isSummary(fields) {
			continue
		}
		out = append(out, model.RawRecord{Fields: fields, Provenance: prov})
	}
	return out, nil
}

// decode keeps numbers as json.Number so long identifiers are not
// rounded through float64.
func decode(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(v)
}
