package locindex

import (
	"regexp"
	"strings"

	"github.com/ppiankov/canonica/internal/util"
)

// Locality markers introduce a neighbourhood, sector, village or township name.
var markerPattern = regexp.MustCompile(`\b(?:BARRIO|BRR|SECTOR|VEREDA|VDA|CORREGIMIENTO|CORREG|URBANIZACION|URB)\b\.?|\bB[/.]`)

// A locality name ends at a street designator, another marker, a number or punctuation.
var terminatorPattern = regexp.MustCompile(`\b(?:CRA|CARRERA|CALLE|CLL|CL|KR|CR|DIAGONAL|DG|TRANSVERSAL|TV|AVENIDA|AV|MZ|MANZANA|LOTE|LT|CASA|APTO|NO|NRO|KM|VIA|BARRIO|BRR|SECTOR|VEREDA|VDA|CORREGIMIENTO|CORREG|URBANIZACION|URB)\b|[#,.;:\-\d/()]`)

var (
	namePattern = regexp.MustCompile(`^[A-Z][A-Z ]*$`)
	nonWord     = regexp.MustCompile(`[^A-Z0-9 ]+`)
)

// Extractor pulls locality tokens out of free-text addresses.
type Extractor struct {
	minLength int
}

// NewExtractor creates an extractor that drops tokens shorter than minLength.
func NewExtractor(minLength int) *Extractor {
	if minLength <= 0 {
		minLength = 3
	}
	return &Extractor{minLength: minLength}
}

// Tokens returns the locality names found in an address, in order of
// appearance and without duplicates. "CRA 5 # 3-20 BARRIO LA GRANJA" yields
// ["LA GRANJA"].
func (e *Extractor) Tokens(address string) []string {
	addr := util.Fold(address)
	if addr == "" {
		return nil
	}

	var tokens []string
	seen := make(map[string]bool)

	for _, loc := range markerPattern.FindAllStringIndex(addr, -1) {
		rest := addr[loc[1]:]
		if end := terminatorPattern.FindStringIndex(rest); end != nil {
			rest = rest[:end[0]]
		}

		name := strings.TrimSpace(rest)
		if len(name) < e.minLength || !namePattern.MatchString(name) || seen[name] {
			continue
		}
		seen[name] = true
		tokens = append(tokens, name)
	}

	return tokens
}
