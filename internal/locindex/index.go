// Package locindex maps locality tokens found in addresses to the
// municipality they most often belong to among valid records.
package locindex

import (
	"sort"

	"github.com/ppiankov/canonica/internal/model"
)

// Entry is the majority municipality for one token.
type Entry = model.IndexEntry

// Index is built once from a snapshot of valid records and is read-only
// afterwards, so concurrent lookups are safe.
type Index struct {
	extractor *Extractor
	floor     float64
	entries   map[string]Entry
	observed  int // tokens seen before applying the floor
}

type tally struct {
	count     int
	firstSeen int
}

// Build counts, for every token, how often each municipality appears and
// keeps the majority municipality when its share reaches floor. Ties are
// broken by the municipality encountered first in record order.
func Build(valid []*model.Record, extractor *Extractor, floor float64) *Index {
	counts := make(map[string]map[string]*tally)
	order := 0

	for _, r := range valid {
		if r.Municipality == nil || r.Address == nil {
			continue
		}
		for _, token := range extractor.Tokens(*r.Address) {
			byMuni, ok := counts[token]
			if !ok {
				byMuni = make(map[string]*tally)
				counts[token] = byMuni
			}
			t, ok := byMuni[*r.Municipality]
			if !ok {
				t = &tally{firstSeen: order}
				byMuni[*r.Municipality] = t
			}
			t.count++
			order++
		}
	}

	idx := &Index{
		extractor: extractor,
		floor:     floor,
		entries:   make(map[string]Entry),
		observed:  len(counts),
	}

	for token, byMuni := range counts {
		var best string
		var bestTally *tally
		total := 0
		for muni, t := range byMuni {
			total += t.count
			if bestTally == nil || t.count > bestTally.count ||
				(t.count == bestTally.count && t.firstSeen < bestTally.firstSeen) {
				best, bestTally = muni, t
			}
		}

		confidence := float64(bestTally.count) / float64(total)
		if confidence+1e-9 < floor {
			continue
		}
		idx.entries[token] = Entry{
			Token:        token,
			Municipality: best,
			Support:      bestTally.count,
			Total:        total,
			Confidence:   confidence,
		}
	}

	return idx
}

// Resolve extracts tokens from an address and returns the entry of the
// first token present in the index.
func (i *Index) Resolve(address string) (Entry, bool) {
	for _, token := range i.extractor.Tokens(address) {
		if e, ok := i.entries[token]; ok {
			return e, true
		}
	}
	return Entry{}, false
}

// Entries returns the confident entries sorted by token.
func (i *Index) Entries() []Entry {
	out := make([]Entry, 0, len(i.entries))
	for _, e := range i.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Token < out[b].Token })
	return out
}

// Stats summarizes the index for the run report.
func (i *Index) Stats() model.IndexStats {
	return model.IndexStats{
		Tokens:    i.observed,
		Confident: len(i.entries),
		Floor:     i.floor,
		Entries:   i.Entries(),
	}
}
