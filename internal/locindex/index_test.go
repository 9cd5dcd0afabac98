package locindex

import (
	"reflect"
	"testing"

	"github.com/ppiankov/canonica/internal/model"
)

func TestExtractor_Tokens(t *testing.T) {
	ex := NewExtractor(3)

	tests := []struct {
		address  string
		expected []string
		desc     string
	}{
		{"CRA 5 # 3-20 BARRIO LA GRANJA", []string{"LA GRANJA"}, "Barrio at end"},
		{"Barrio La Granja Calle 12", []string{"LA GRANJA"}, "Barrio before street designator"},
		{"B/ Villa Cielo Mz 4 Lt 2", []string{"VILLA CIELO"}, "Slash abbreviation"},
		{"VEREDA EL TAMBO KM 3 VIA CERETE", []string{"EL TAMBO"}, "Vereda before kilometre marker"},
		{"Corregimiento Santa Lucía", []string{"SANTA LUCIA"}, "Accents folded"},
		{"SECTOR LOS PINOS BARRIO CANTACLARO", []string{"LOS PINOS", "CANTACLARO"}, "Two markers in order"},
		{"BARRIO EL", nil, "Too short"},
		{"CALLE 41 # 8-15", nil, "No locality marker"},
		{"URB. Furatena, casa 3", []string{"FURATENA"}, "Urbanizacion abbreviation"},
		{"", nil, "Empty address"},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			got := ex.Tokens(tt.address)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Tokens(%q) = %v, expected %v", tt.address, got, tt.expected)
			}
		})
	}
}

func rec(address, municipality string) *model.Record {
	return &model.Record{
		Address:      model.StringPtr(address),
		Municipality: model.StringPtr(municipality),
	}
}

func TestBuild_MajorityAndFloor(t *testing.T) {
	valid := []*model.Record{
		rec("BARRIO LA GRANJA CALLE 1", "MONTERIA"),
		rec("BARRIO LA GRANJA CALLE 2", "MONTERIA"),
		rec("BARRIO LA GRANJA CALLE 3", "MONTERIA"),
		rec("BARRIO LA GRANJA CALLE 4", "CERETE"),
		rec("VEREDA EL TAMBO", "CERETE"),
		rec("VEREDA EL TAMBO", "MONTERIA"),
		rec("SECTOR SAN ISIDRO", "SAHAGUN"),
		{Address: model.StringPtr("BARRIO SIN MUNICIPIO")},
	}

	idx := Build(valid, NewExtractor(3), 0.70)

	e, ok := lookup(idx, "LA GRANJA")
	if !ok {
		t.Fatal("Expected LA GRANJA to be indexed")
	}
	if e.Municipality != "MONTERIA" || e.Support != 3 || e.Total != 4 {
		t.Errorf("Unexpected entry %+v", e)
	}
	if e.Confidence != 0.75 {
		t.Errorf("Expected confidence 0.75, got %v", e.Confidence)
	}

	if _, ok := lookup(idx, "EL TAMBO"); ok {
		t.Error("Expected 50% token to be dropped below the floor")
	}
	if _, ok := lookup(idx, "SIN MUNICIPIO"); ok {
		t.Error("Expected records without municipality to be ignored")
	}

	stats := idx.Stats()
	if stats.Tokens != 3 || stats.Confident != 2 {
		t.Errorf("Expected 3 observed and 2 confident tokens, got %+v", stats)
	}
	if len(stats.Entries) != 2 || stats.Entries[0].Token != "LA GRANJA" || stats.Entries[1].Token != "SAN ISIDRO" {
		t.Errorf("Expected entries LA GRANJA and SAN ISIDRO in token order, got %+v", stats.Entries)
	}
}

// lookup finds a confident entry through the sorted entry list.
func lookup(idx *Index, token string) (Entry, bool) {
	for _, e := range idx.Entries() {
		if e.Token == token {
			return e, true
		}
	}
	return Entry{}, false
}

func TestBuild_TieBrokenByFirstSeen(t *testing.T) {
	valid := []*model.Record{
		rec("SECTOR EL CARMEN", "CERETE"),
		rec("SECTOR EL CARMEN", "MONTERIA"),
	}

	idx := Build(valid, NewExtractor(3), 0.5)
	e, ok := lookup(idx, "EL CARMEN")
	if !ok || e.Municipality != "CERETE" {
		t.Errorf("Expected first-seen CERETE on tie, got %+v (ok=%v)", e, ok)
	}
}

func TestIndex_Resolve(t *testing.T) {
	valid := []*model.Record{
		rec("BARRIO CANTACLARO", "MONTERIA"),
	}
	idx := Build(valid, NewExtractor(3), 0.70)

	e, ok := idx.Resolve("Sector Desconocido barrio Cantaclaro mz 2")
	if !ok || e.Municipality != "MONTERIA" {
		t.Errorf("Expected MONTERIA via second token, got %+v (ok=%v)", e, ok)
	}

	if _, ok := idx.Resolve("CALLE 5 # 4-20"); ok {
		t.Error("Expected no resolution without locality tokens")
	}
	if len(idx.Entries()) != 1 {
		t.Errorf("Expected 1 entry, got %d", len(idx.Entries()))
	}
}

func TestGazetteer_Find(t *testing.T) {
	g := NewGazetteer(map[string][]string{
		"MONTERIA": {"Villa Cielo", "Cantaclaro", "La Castellana"},
		"CERETE":   {"Cielo"},
	})

	tests := []struct {
		address string
		name    string
		muni    string
		ok      bool
	}{
		{"Mz 3 lote 4 villa cielo", "VILLA CIELO", "MONTERIA", true},
		{"calle 2 cielo abierto", "CIELO", "CERETE", true},
		{"CRA 7, LA CASTELLANA.", "LA CASTELLANA", "MONTERIA", true},
		{"CANTACLAROS", "", "", false},
		{"", "", "", false},
	}

	for _, tt := range tests {
		name, muni, ok := g.Find(tt.address)
		if ok != tt.ok || name != tt.name || muni != tt.muni {
			t.Errorf("Find(%q) = (%q, %q, %v), expected (%q, %q, %v)", tt.address, name, muni, ok, tt.name, tt.muni, tt.ok)
		}
	}

	if g.Len() != 4 {
		t.Errorf("Expected 4 places, got %d", g.Len())
	}
}
