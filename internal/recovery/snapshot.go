package recovery

import (
	"github.com/ppiankov/canonica/internal/locindex"
	"github.com/ppiankov/canonica/internal/model"
	"github.com/ppiankov/canonica/internal/util"
	"github.com/ppiankov/canonica/internal/validate"
)

// person groups valid records sharing one normalized name key.
type person struct {
	given   string
	family  string
	records []*model.Record
}

// Snapshot is the frozen view of the valid partition that every recovery
// strategy reads from. It is never updated during a pass, so records
// recovered in the pass cannot vote for each other.
type Snapshot struct {
	byID      map[string][]*model.Record
	byName    map[string]*person
	people    []*person // first-appearance order
	index     *locindex.Index
	gazetteer *locindex.Gazetteer
}

// NewSnapshot indexes valid records by identifier and by name. index and
// gazetteer may be nil to disable the address strategies.
func NewSnapshot(valid []*model.Record, index *locindex.Index, gazetteer *locindex.Gazetteer) *Snapshot {
	s := &Snapshot{
		byID:      make(map[string][]*model.Record),
		byName:    make(map[string]*person),
		index:     index,
		gazetteer: gazetteer,
	}

	for _, r := range valid {
		if id := identifierKey(r); id != "" {
			s.byID[id] = append(s.byID[id], r)
		}

		given, family, ok := nameParts(r)
		if !ok {
			continue
		}
		key := given + "|" + family
		p, exists := s.byName[key]
		if !exists {
			p = &person{given: given, family: family}
			s.byName[key] = p
			s.people = append(s.people, p)
		}
		p.records = append(p.records, r)
	}

	return s
}

func identifierKey(r *model.Record) string {
	if r.Identifier == nil {
		return ""
	}
	if id, ok := validate.NormalizeIdentifier(*r.Identifier); ok {
		return id
	}
	return ""
}

func nameParts(r *model.Record) (given, family string, ok bool) {
	given = util.Fold(model.Deref(r.GivenName))
	family = util.Fold(model.Deref(r.FamilyName))
	return given, family, given != "" && family != ""
}

// majority returns the most frequent non-empty value among records; ties
// go to the value encountered first.
func majority(records []*model.Record, get func(*model.Record) *string) (string, bool) {
	counts := make(map[string]int)
	var order []string
	for _, r := range records {
		v := get(r)
		if v == nil || *v == "" {
			continue
		}
		if counts[*v] == 0 {
			order = append(order, *v)
		}
		counts[*v]++
	}

	best, bestCount := "", 0
	for _, v := range order {
		if counts[v] > bestCount {
			best, bestCount = v, counts[v]
		}
	}
	return best, bestCount > 0
}
