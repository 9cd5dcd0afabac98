// Package refdata loads the master reference tables: canonical insurer and
// municipality names, their known variants and the neighbourhood gazetteer.
package refdata

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/canonica/internal/model"
	"gopkg.in/yaml.v3"
)

//go:embed masters.yaml
var defaultMasters []byte

// Default returns the built-in master tables.
func Default() (*model.MasterTables, error) {
	return Parse(defaultMasters)
}

// Load reads master tables from a YAML file. An empty path yields the
// built-in tables.
func Load(path string) (*model.MasterTables, error) {
	if path == "" {
		return Default()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read masters: %w", err)
	}

	tables, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return tables, nil
}

// Parse decodes and validates master tables.
func Parse(data []byte) (*model.MasterTables, error) {
	var tables model.MasterTables
	if err := yaml.Unmarshal(data, &tables); err != nil {
		return nil, fmt.Errorf("parse masters: %w", err)
	}

	if err := validateTable("insurers", &tables.Insurers); err != nil {
		return nil, err
	}
	if err := validateTable("municipalities", &tables.Municipalities); err != nil {
		return nil, err
	}

	return &tables, nil
}

func validateTable(name string, t *model.MasterTable) error {
	if len(t.Canonical) == 0 {
		return fmt.Errorf("%s: canonical list is empty", name)
	}

	seen := make(map[string]bool, len(t.Canonical))
	for _, c := range t.Canonical {
		key := strings.TrimSpace(c)
		if key == "" {
			return fmt.Errorf("%s: blank canonical name", name)
		}
		if seen[key] {
			return fmt.Errorf("%s: duplicate canonical name %q", name, key)
		}
		seen[key] = true
	}

	for variant, target := range t.Variants {
		if strings.TrimSpace(target) == "" {
			return fmt.Errorf("%s: variant %q has no target (list it under invalid instead)", name, variant)
		}
	}

	if t.Variants == nil {
		t.Variants = map[string]string{}
	}
	return nil
}

// Marshal renders master tables as YAML.
func Marshal(tables *model.MasterTables) ([]byte, error) {
	return yaml.Marshal(tables)
}
