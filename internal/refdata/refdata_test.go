package refdata

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefault(t *testing.T) {
	tables, err := Default()
	if err != nil {
		t.Fatalf("Default() error: %v", err)
	}

	if len(tables.Municipalities.Canonical) != 30 {
		t.Errorf("Expected 30 municipalities, got %d", len(tables.Municipalities.Canonical))
	}
	if got := tables.Municipalities.Variants["MOTERIA"]; got != "MONTERIA" {
		t.Errorf("Expected MOTERIA variant to map to MONTERIA, got %q", got)
	}
	if len(tables.Insurers.Canonical) == 0 {
		t.Error("Expected insurer list to be populated")
	}
	if len(tables.Neighbourhoods["MONTERIA"]) == 0 {
		t.Error("Expected MONTERIA neighbourhoods in gazetteer")
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		desc    string
		yaml    string
		wantErr string
	}{
		{
			desc:    "empty insurers",
			yaml:    "municipalities:\n  canonical: [MONTERIA]\n",
			wantErr: "insurers: canonical list is empty",
		},
		{
			desc:    "duplicate canonical",
			yaml:    "insurers:\n  canonical: [SURA, SURA]\nmunicipalities:\n  canonical: [MONTERIA]\n",
			wantErr: "duplicate canonical",
		},
		{
			desc:    "variant without target",
			yaml:    "insurers:\n  canonical: [SURA]\nmunicipalities:\n  canonical: [MONTERIA]\n  variants:\n    ARACHE: \"\"\n",
			wantErr: "no target",
		},
		{
			desc:    "malformed yaml",
			yaml:    "insurers: [",
			wantErr: "parse masters",
		},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil {
				t.Fatalf("Expected error containing %q, got nil", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestLoad_FileRoundTrip(t *testing.T) {
	tables, err := Default()
	if err != nil {
		t.Fatal(err)
	}
	data, err := Marshal(tables)
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "masters.yaml")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(loaded.Insurers.Canonical) != len(tables.Insurers.Canonical) {
		t.Errorf("Expected %d insurers after reload, got %d", len(tables.Insurers.Canonical), len(loaded.Insurers.Canonical))
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Expected error for missing file")
	}
}
