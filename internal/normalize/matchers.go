package normalize

import (
	"github.com/ppiankov/canonica/internal/model"
	"github.com/ppiankov/canonica/internal/util"
)

// Matcher is one step of the resolution chain. It returns ok=false to let
// the next step try; ok=true ends the chain, with or without a canonical value.
type Matcher func(folded string, t *table) (Resolution, bool)

// DefaultChain is variant lookup, then exact match, then fuzzy match.
func DefaultChain() []Matcher {
	return []Matcher{matchVariant, matchExact, matchFuzzy}
}

// candidate is one literal the fuzzy step compares against.
type candidate struct {
	folded    string
	canonical string
}

// table is a master table folded for lookup.
type table struct {
	cutoff     float64
	variants   map[string]string
	invalid    map[string]bool
	exact      map[string]string
	candidates []candidate
}

func newTable(mt *model.MasterTable, cutoff float64) *table {
	t := &table{
		cutoff:   cutoff,
		variants: make(map[string]string),
		invalid:  make(map[string]bool),
		exact:    make(map[string]string),
	}
	if mt == nil {
		return t
	}

	for _, name := range mt.Canonical {
		f := util.Fold(name)
		if _, dup := t.exact[f]; dup {
			continue
		}
		t.exact[f] = name
		t.candidates = append(t.candidates, candidate{folded: f, canonical: name})
	}

	for _, entry := range mt.Entries() {
		for _, v := range entry.Variants {
			f := util.Fold(v)
			t.variants[f] = entry.Canonical
			if _, isCanonical := t.exact[f]; !isCanonical {
				t.candidates = append(t.candidates, candidate{folded: f, canonical: entry.Canonical})
			}
		}
	}

	for _, v := range mt.Invalid {
		t.invalid[util.Fold(v)] = true
	}

	return t
}

func matchVariant(folded string, t *table) (Resolution, bool) {
	if t.invalid[folded] {
		return Resolution{Method: MethodInvalid}, true
	}
	if canonical, ok := t.variants[folded]; ok {
		return Resolution{Canonical: canonical, Method: MethodVariant, Score: 1}, true
	}
	return Resolution{}, false
}

func matchExact(folded string, t *table) (Resolution, bool) {
	if canonical, ok := t.exact[folded]; ok {
		return Resolution{Canonical: canonical, Method: MethodExact, Score: 1}, true
	}
	return Resolution{}, false
}

// matchFuzzy accepts the best-scoring candidate only when it clears the
// cutoff and no candidate of a different canonical name ties with it.
// Candidates are scored as the first sequence, the input as the second.
func matchFuzzy(folded string, t *table) (Resolution, bool) {
	const epsilon = 1e-9

	best := -1.0
	var winner string
	ambiguous := false

	for _, c := range t.candidates {
		score := util.Ratio(c.folded, folded)
		switch {
		case score > best+epsilon:
			best = score
			winner = c.canonical
			ambiguous = false
		case score > best-epsilon && c.canonical != winner:
			ambiguous = true
		}
	}

	if winner == "" || best < t.cutoff-epsilon || ambiguous {
		return Resolution{}, false
	}
	return Resolution{Canonical: winner, Method: MethodFuzzy, Score: best}, true
}
