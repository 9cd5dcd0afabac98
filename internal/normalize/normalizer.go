// Package normalize resolves free-text categorical values (insurer,
// municipality) against the master tables.
package normalize

import (
	"unicode/utf8"

	"github.com/ppiankov/canonica/internal/cache"
	"github.com/ppiankov/canonica/internal/model"
	"github.com/ppiankov/canonica/internal/util"
	"github.com/ppiankov/canonica/internal/validate"
)

// Method names the step that produced a resolution.
type Method string

const (
	MethodEmpty    Method = "empty"
	MethodRejected Method = "rejected" // too short, numeric or date-shaped
	MethodVariant  Method = "variant"
	MethodExact    Method = "exact"
	MethodFuzzy    Method = "fuzzy"
	MethodInvalid  Method = "invalid" // known not to belong to the kind
	MethodNone     Method = "unresolved"
)

// Resolution is the outcome of normalizing one raw value.
type Resolution struct {
	Canonical string  `json:"canonical,omitempty"` // empty when unresolved
	Method    Method  `json:"method"`
	Score     float64 `json:"score,omitempty"`
	Folded    string  `json:"folded"`
}

// Resolved reports whether a canonical value was found.
func (r Resolution) Resolved() bool {
	return r.Canonical != ""
}

// Normalizer resolves categorical values. Resolutions are deterministic
// for the lifetime of the Normalizer and are memoized per folded value.
type Normalizer struct {
	tables     map[model.FieldKind]*table
	minLength  int
	classifier *validate.FieldClassifier
	chain      []Matcher
	memo       cache.Cache[Resolution]
}

// NewNormalizer builds lookup tables from the masters. memo may be nil.
func NewNormalizer(masters *model.MasterTables, cfg model.NormalizeConfig, memo cache.Cache[Resolution]) *Normalizer {
	minLength := cfg.MinLength
	if minLength <= 0 {
		minLength = 3
	}

	n := &Normalizer{
		tables:     make(map[model.FieldKind]*table, 2),
		minLength:  minLength,
		classifier: validate.NewFieldClassifier(nil),
		chain:      DefaultChain(),
		memo:       memo,
	}

	for _, kind := range []model.FieldKind{model.KindInsurer, model.KindMunicipality} {
		n.tables[kind] = newTable(masters.Table(kind), cfg.Cutoff(kind))
	}

	return n
}

// Normalize returns the canonical value for raw, or false when unresolved.
func (n *Normalizer) Normalize(raw string, kind model.FieldKind) (string, bool) {
	res := n.Resolve(raw, kind)
	return res.Canonical, res.Resolved()
}

// Resolve runs the matcher chain and reports which step decided.
func (n *Normalizer) Resolve(raw string, kind model.FieldKind) Resolution {
	folded := util.Fold(raw)
	if folded == "" {
		return Resolution{Method: MethodEmpty}
	}

	t, ok := n.tables[kind]
	if !ok {
		return Resolution{Method: MethodNone, Folded: folded}
	}

	key := cache.Key(string(kind), folded)
	if n.memo != nil {
		if res, ok := n.memo.Get(key); ok {
			return res
		}
	}

	res := n.resolve(folded, t)
	if n.memo != nil {
		n.memo.Set(key, res, 0)
	}
	return res
}

func (n *Normalizer) resolve(folded string, t *table) Resolution {
	if utf8.RuneCountInString(folded) < n.minLength || n.classifier.IsNumber(folded) || n.classifier.IsDate(folded) {
		return Resolution{Method: MethodRejected, Folded: folded}
	}

	for _, match := range n.chain {
		if res, ok := match(folded, t); ok {
			res.Folded = folded
			return res
		}
	}

	return Resolution{Method: MethodNone, Folded: folded}
}
