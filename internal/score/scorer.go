package score

import (
	"fmt"
	"sort"

	"github.com/ppiankov/canonica/internal/model"
	"github.com/ppiankov/canonica/internal/util"
)

// topN is the number of most frequent canonical values kept per field.
const topN = 10

// Input is everything the scorer reads about a finished run.
type Input struct {
	Partitions *model.Partitions
	// Methods counts normalizer resolution methods per categorical kind,
	// collected while records were prepared.
	Methods map[model.FieldKind]map[string]int
	Index   model.IndexStats
}

// Result carries the statistics and diagnostic signals of a run.
type Result struct {
	Totals  model.Totals
	Quality model.Quality
	Signals []model.Signal
}

// Scorer calculates run statistics and generates signals
type Scorer struct{}

// NewScorer creates a new scorer
func NewScorer() *Scorer {
	return &Scorer{}
}

// Calculate computes totals, quality statistics and signals.
func (s *Scorer) Calculate(in Input) Result {
	parts := in.Partitions
	if parts == nil {
		parts = &model.Partitions{}
	}

	totals := model.Totals{
		Input:          parts.Total(),
		ValidOriginal:  len(parts.ValidOriginal),
		ValidRecovered: len(parts.ValidRecovered),
		Rejected:       len(parts.Rejected),
		DiscardedEmpty: len(parts.DiscardedEmpty),
	}

	quality := model.Quality{
		RejectionReasons:   s.countReasons(parts),
		RecoveryByStrategy: make(map[model.Strategy]int),
		RecoveredFields:    make(map[string]map[model.Strategy]int),
		Categorical:        make(map[model.FieldKind]model.CategoricalStats),
		Dates:              s.countDates(parts),
		Mismatches:         s.countMismatches(parts),
		LocationIndex:      in.Index,
	}

	for _, r := range parts.ValidRecovered {
		for _, st := range r.Strategies() {
			quality.RecoveryByStrategy[st]++
		}
		for _, fr := range r.Recovery {
			if quality.RecoveredFields[fr.Field] == nil {
				quality.RecoveredFields[fr.Field] = make(map[model.Strategy]int)
			}
			quality.RecoveredFields[fr.Field][fr.Strategy]++
		}
	}

	for _, kind := range []model.FieldKind{model.KindInsurer, model.KindMunicipality} {
		quality.Categorical[kind] = s.categorical(parts, kind, in.Methods[kind])
	}

	var signals []model.Signal

	// 1. Acceptance
	signals = append(signals, s.acceptanceSignal(totals))

	// 2. Recovery
	if totals.Input > totals.ValidOriginal {
		signals = append(signals, s.recoverySignal(totals))
	}

	// 3. Consolidation and unresolved values per categorical field
	for _, kind := range []model.FieldKind{model.KindInsurer, model.KindMunicipality} {
		stats := quality.Categorical[kind]
		signals = append(signals, s.consolidationSignal(kind, stats))
		if stats.Unresolved > 0 {
			signals = append(signals, s.unresolvedSignal(kind, stats, totals.Input))
		}
	}

	// 4. Date corruption
	if sig, ok := s.dateSignal(quality.Dates, totals.Input); ok {
		signals = append(signals, sig)
	}

	// 5. Type mismatches
	if sig, ok := s.mismatchSignal(quality.Mismatches); ok {
		signals = append(signals, sig)
	}

	// 6. Empty records
	if totals.DiscardedEmpty > 0 {
		signals = append(signals, model.Signal{
			Type:        model.SignalEmptyRecords,
			Severity:    model.SeverityWarning,
			Description: fmt.Sprintf("%d records without identifier, name or address discarded", totals.DiscardedEmpty),
			Data: map[string]interface{}{
				"discarded": totals.DiscardedEmpty,
				"ratio":     ratio(totals.DiscardedEmpty, totals.Input),
			},
		})
	}

	return Result{Totals: totals, Quality: quality, Signals: signals}
}

func (s *Scorer) countReasons(parts *model.Partitions) map[model.ReasonCode]int {
	out := make(map[model.ReasonCode]int)
	for _, group := range [][]*model.Record{parts.Rejected, parts.DiscardedEmpty} {
		for _, r := range group {
			for _, reason := range r.Reasons {
				out[reason.Code]++
			}
		}
	}
	return out
}

func (s *Scorer) countDates(parts *model.Partitions) map[string]map[model.DateStatus]int {
	out := map[string]map[model.DateStatus]int{
		model.FieldAdmission: {},
		model.FieldDischarge: {},
	}
	for _, name := range model.AllPartitions {
		for _, r := range parts.Get(name) {
			out[model.FieldAdmission][statusOrEmpty(r.AdmissionStatus)]++
			out[model.FieldDischarge][statusOrEmpty(r.DischargeStatus)]++
		}
	}
	return out
}

func (s *Scorer) countMismatches(parts *model.Partitions) map[string]map[string]int {
	out := make(map[string]map[string]int)
	for _, name := range model.AllPartitions {
		for _, r := range parts.Get(name) {
			for _, m := range r.Mismatches {
				if out[m.Field] == nil {
					out[m.Field] = make(map[string]int)
				}
				out[m.Field][m.Class]++
			}
		}
	}
	return out
}

// categorical compares raw and canonical values of one field. Raw values
// are counted after folding so that case and accent variants of the same
// spelling are not reported as distinct.
func (s *Scorer) categorical(parts *model.Partitions, kind model.FieldKind, methods map[string]int) model.CategoricalStats {
	raw := make(map[string]bool)
	canonical := make(map[string]bool)
	unresolved := 0

	for _, name := range model.AllPartitions {
		for _, r := range parts.Get(name) {
			rawValue, value := r.InsurerRaw, r.Insurer
			if kind == model.KindMunicipality {
				rawValue, value = r.MunicipalityRaw, r.Municipality
			}
			if f := util.Fold(rawValue); f != "" {
				raw[f] = true
			}
			if value == nil {
				unresolved++
				continue
			}
			canonical[*value] = true
		}
	}

	counts := make(map[string]int)
	for _, r := range parts.Valid() {
		value := r.Insurer
		if kind == model.KindMunicipality {
			value = r.Municipality
		}
		if value != nil {
			counts[*value]++
		}
	}

	m := make(map[string]int, len(methods))
	for k, v := range methods {
		m[k] = v
	}

	return model.CategoricalStats{
		DistinctRaw:       len(raw),
		DistinctCanonical: len(canonical),
		Unresolved:        unresolved,
		Methods:           m,
		Top:               top(counts, topN),
	}
}

func (s *Scorer) acceptanceSignal(t model.Totals) model.Signal {
	valid := t.ValidOriginal + t.ValidRecovered
	r := ratio(valid, t.Input)

	severity := model.SeverityInfo
	if t.Input > 0 && r < 0.5 {
		severity = model.SeverityCritical
	} else if t.Input > 0 && r < 0.8 {
		severity = model.SeverityWarning
	}

	return model.Signal{
		Type:        model.SignalAcceptance,
		Severity:    severity,
		Description: fmt.Sprintf("Accepted %d/%d records (%.1f%%)", valid, t.Input, r*100),
		Data: map[string]interface{}{
			"valid_original":  t.ValidOriginal,
			"valid_recovered": t.ValidRecovered,
			"input":           t.Input,
			"ratio":           r,
			"formula":         "(valid_original + valid_recovered) / input",
		},
	}
}

func (s *Scorer) recoverySignal(t model.Totals) model.Signal {
	candidates := t.Input - t.ValidOriginal
	r := ratio(t.ValidRecovered, candidates)

	severity := model.SeverityInfo
	if r < 0.25 {
		severity = model.SeverityWarning
	}

	return model.Signal{
		Type:        model.SignalRecovery,
		Severity:    severity,
		Description: fmt.Sprintf("Recovered %d/%d initially rejected records", t.ValidRecovered, candidates),
		Data: map[string]interface{}{
			"recovered":  t.ValidRecovered,
			"candidates": candidates,
			"ratio":      r,
			"formula":    "valid_recovered / (input - valid_original)",
		},
	}
}

func (s *Scorer) consolidationSignal(kind model.FieldKind, st model.CategoricalStats) model.Signal {
	return model.Signal{
		Type:        model.SignalConsolidation,
		Severity:    model.SeverityInfo,
		Description: fmt.Sprintf("%s: %d distinct raw values consolidated into %d canonical values", kind, st.DistinctRaw, st.DistinctCanonical),
		Data: map[string]interface{}{
			"field":              string(kind),
			"distinct_raw":       st.DistinctRaw,
			"distinct_canonical": st.DistinctCanonical,
			"ratio":              ratio(st.DistinctCanonical, st.DistinctRaw),
			"formula":            "distinct_canonical / distinct_raw",
		},
	}
}

func (s *Scorer) unresolvedSignal(kind model.FieldKind, st model.CategoricalStats, input int) model.Signal {
	r := ratio(st.Unresolved, input)

	severity := model.SeverityWarning
	if r > 0.2 {
		severity = model.SeverityCritical
	}

	return model.Signal{
		Type:        model.SignalUnresolved,
		Severity:    severity,
		Description: fmt.Sprintf("%s: %d records left without a canonical value", kind, st.Unresolved),
		Data: map[string]interface{}{
			"field":      string(kind),
			"unresolved": st.Unresolved,
			"input":      input,
			"ratio":      r,
		},
	}
}

func (s *Scorer) dateSignal(dates map[string]map[model.DateStatus]int, input int) (model.Signal, bool) {
	sentinel, failed := 0, 0
	for _, counts := range dates {
		sentinel += counts[model.DateSentinel]
		failed += counts[model.DateFailed]
	}
	if sentinel+failed == 0 {
		return model.Signal{}, false
	}

	r := ratio(sentinel+failed, input)
	severity := model.SeverityWarning
	if r > 0.1 {
		severity = model.SeverityCritical
	}

	return model.Signal{
		Type:        model.SignalDateCorruption,
		Severity:    severity,
		Description: fmt.Sprintf("%d sentinel and %d unreconstructable dates", sentinel, failed),
		Data: map[string]interface{}{
			"sentinel": sentinel,
			"failed":   failed,
			"ratio":    r,
			"formula":  "(sentinel + failed) / input",
		},
	}, true
}

func (s *Scorer) mismatchSignal(mismatches map[string]map[string]int) (model.Signal, bool) {
	total := 0
	byField := make(map[string]int, len(mismatches))
	for field, classes := range mismatches {
		for _, n := range classes {
			total += n
			byField[field] += n
		}
	}
	if total == 0 {
		return model.Signal{}, false
	}

	return model.Signal{
		Type:        model.SignalTypeMismatch,
		Severity:    model.SeverityInfo,
		Description: fmt.Sprintf("%d values nulled as field type mismatches across %d fields", total, len(byField)),
		Data: map[string]interface{}{
			"total":    total,
			"by_field": byField,
		},
	}, true
}

func ratio(n, d int) float64 {
	if d == 0 {
		return 0
	}
	return float64(n) / float64(d)
}

func statusOrEmpty(s model.DateStatus) model.DateStatus {
	if s == "" {
		return model.DateEmpty
	}
	return s
}

// top returns the n most frequent values, ties ordered by value.
func top(counts map[string]int, n int) []model.ValueCount {
	out := make([]model.ValueCount, 0, len(counts))
	for v, c := range counts {
		out = append(out, model.ValueCount{Value: v, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Value < out[j].Value
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}
