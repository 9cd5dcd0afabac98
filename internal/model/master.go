package model

import "sort"

// FieldKind selects the master table a categorical value is resolved against.
type FieldKind string

const (
	KindInsurer      FieldKind = "insurer"
	KindMunicipality FieldKind = "municipality"
)

// MasterTable is the canonical list for one field kind plus its known
// spelling variants. Invalid lists literals that are known not to be a
// member of the kind at all (a sector name in the municipality column).
type MasterTable struct {
	Canonical []string          `yaml:"canonical" json:"canonical"`
	Variants  map[string]string `yaml:"variants" json:"variants"`
	Invalid   []string          `yaml:"invalid,omitempty" json:"invalid,omitempty"`
}

// MasterEntry is a canonical name with its known literal variants.
type MasterEntry struct {
	Canonical string   `json:"canonical"`
	Variants  []string `json:"variants,omitempty"`
}

// Entries groups the variant dictionary under each canonical name.
// Variants pointing at names outside the canonical list get their own entry.
func (t MasterTable) Entries() []MasterEntry {
	byName := make(map[string]*MasterEntry, len(t.Canonical))
	entries := make([]*MasterEntry, 0, len(t.Canonical))
	for _, name := range t.Canonical {
		e := &MasterEntry{Canonical: name}
		byName[name] = e
		entries = append(entries, e)
	}

	variants := make([]string, 0, len(t.Variants))
	for v := range t.Variants {
		variants = append(variants, v)
	}
	sort.Strings(variants)

	for _, v := range variants {
		target := t.Variants[v]
		e, ok := byName[target]
		if !ok {
			e = &MasterEntry{Canonical: target}
			byName[target] = e
			entries = append(entries, e)
		}
		e.Variants = append(e.Variants, v)
	}

	out := make([]MasterEntry, len(entries))
	for i, e := range entries {
		out[i] = *e
	}
	return out
}

// MasterTables holds every static reference list used during a run.
// Loaded once and never mutated afterwards.
type MasterTables struct {
	Insurers       MasterTable         `yaml:"insurers" json:"insurers"`
	Municipalities MasterTable         `yaml:"municipalities" json:"municipalities"`
	Neighbourhoods map[string][]string `yaml:"neighbourhoods,omitempty" json:"neighbourhoods,omitempty"`
}

// Table returns the master table for a field kind.
func (m *MasterTables) Table(kind FieldKind) *MasterTable {
	switch kind {
	case KindInsurer:
		return &m.Insurers
	case KindMunicipality:
		return &m.Municipalities
	default:
		return nil
	}
}
