package locindex

import (
	"sort"
	"strings"

	"github.com/ppiankov/canonica/internal/util"
)

type place struct {
	name         string
	municipality string
}

// Gazetteer is a static list of neighbourhood names per municipality,
// matched on whole words of an address.
type Gazetteer struct {
	places []place
}

// NewGazetteer builds a gazetteer from municipality -> neighbourhoods.
// Longer names are tried first so "VILLA CIELO" wins over "CIELO".
func NewGazetteer(byMunicipality map[string][]string) *Gazetteer {
	g := &Gazetteer{}
	seen := make(map[string]bool)
	for muni, names := range byMunicipality {
		for _, n := range names {
			f := util.Fold(n)
			if f == "" || seen[f] {
				continue
			}
			seen[f] = true
			g.places = append(g.places, place{name: f, municipality: muni})
		}
	}

	sort.Slice(g.places, func(a, b int) bool {
		pa, pb := g.places[a], g.places[b]
		if len(pa.name) != len(pb.name) {
			return len(pa.name) > len(pb.name)
		}
		return pa.name < pb.name
	})
	return g
}

// Find returns the first known neighbourhood contained in the address.
func (g *Gazetteer) Find(address string) (name, municipality string, ok bool) {
	addr := util.Fold(address)
	if addr == "" {
		return "", "", false
	}
	padded := " " + strings.Join(strings.Fields(nonWord.ReplaceAllString(addr, " ")), " ") + " "

	for _, p := range g.places {
		if strings.Contains(padded, " "+p.name+" ") {
			return p.name, p.municipality, true
		}
	}
	return "", "", false
}

// Len returns the number of distinct neighbourhood names.
func (g *Gazetteer) Len() int {
	return len(g.places)
}
