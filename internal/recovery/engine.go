// Package recovery fills the missing canonical fields of rejected records
// from valid records of the same person, trying matching strategies of
// increasing tolerance.
package recovery

import (
	"context"
	"sync"

	"github.com/ppiankov/canonica/internal/model"
	"github.com/ppiankov/canonica/internal/util"
	"github.com/ppiankov/canonica/internal/validate"
)

// Outcome is the disposition of a rejected record after recovery.
type Outcome string

const (
	OutcomeRecovered Outcome = "recovered"
	OutcomeRejected  Outcome = "rejected"
	OutcomeDiscarded Outcome = "discarded"
)

// Result pairs the (copied) record with its outcome.
type Result struct {
	Record  *model.Record
	Outcome Outcome
}

// slot is a recoverable canonical field.
type slot struct {
	name string
	get  func(*model.Record) *string
	set  func(*model.Record, string)
}

var slots = []slot{
	{
		name: model.FieldInsurer,
		get:  func(r *model.Record) *string { return r.Insurer },
		set:  func(r *model.Record, v string) { r.Insurer = model.StringPtr(v) },
	},
	{
		name: model.FieldMunicipality,
		get:  func(r *model.Record) *string { return r.Municipality },
		set:  func(r *model.Record, v string) { r.Municipality = model.StringPtr(v) },
	},
}

// strategy proposes a value for a missing field, or returns false.
type strategy struct {
	name    model.Strategy
	propose func(r *model.Record, s slot) (string, bool)
}

// Engine runs the recovery cascade against a frozen snapshot.
type Engine struct {
	snapshot   *Snapshot
	threshold  float64
	strategies []strategy
	gate       *validate.Gate
}

// NewEngine creates an engine over snapshot. The gazetteer strategy runs
// only when enabled in cfg and the snapshot carries one.
func NewEngine(snapshot *Snapshot, cfg model.RecoveryConfig) *Engine {
	threshold := cfg.FuzzyNameThreshold
	if threshold <= 0 {
		threshold = 0.85
	}

	e := &Engine{
		snapshot:  snapshot,
		threshold: threshold,
		gate:      validate.NewGate(),
	}

	e.strategies = []strategy{
		{model.StrategyIdentifier, e.byIdentifier},
		{model.StrategyExactName, e.byExactName},
		{model.StrategyFuzzyName, e.byFuzzyName},
		{model.StrategyAddress, e.byAddressToken},
	}
	if cfg.Gazetteer && snapshot.gazetteer != nil {
		e.strategies = append(e.strategies, strategy{model.StrategyGazetteer, e.byGazetteer})
	}

	return e
}

// Recover runs the cascade on a copy of r. For each missing field the
// first strategy that proposes a value wins; fields that already hold a
// value are never touched. A record with no identity at all is discarded
// without entering the cascade.
func (e *Engine) Recover(r *model.Record) Result {
	out := r.Clone()

	if !out.HasIdentity() {
		out.Reasons = append(out.Reasons, model.Reason{
			Code:    model.ReasonNoIdentity,
			Message: "no identifier, name or address",
		})
		out.Reason = validate.FormatReasons(out.Reasons)
		return Result{Record: out, Outcome: OutcomeDiscarded}
	}

	for _, st := range e.strategies {
		for _, s := range slots {
			if s.get(out) != nil {
				continue
			}
			if v, ok := st.propose(out, s); ok {
				s.set(out, v)
				out.Recovery = append(out.Recovery, model.FieldRecovery{
					Field:    s.name,
					Strategy: st.name,
					Value:    v,
				})
			}
		}
	}

	if e.gate.Apply(out) {
		return Result{Record: out, Outcome: OutcomeRecovered}
	}
	return Result{Record: out, Outcome: OutcomeRejected}
}

// RecoverAll recovers records concurrently. Results keep input order.
func (e *Engine) RecoverAll(ctx context.Context, rejected []*model.Record, workers int) ([]Result, error) {
	if workers <= 0 {
		workers = 1
	}

	results := make([]Result, len(rejected))
	var wg sync.WaitGroup
	semaphore := make(chan struct{}, workers)

	for i, r := range rejected {
		if err := ctx.Err(); err != nil {
			wg.Wait()
			return nil, err
		}
		select {
		case <-ctx.Done():
			wg.Wait()
			return nil, ctx.Err()
		case semaphore <- struct{}{}:
		}

		wg.Add(1)
		go func(idx int, rec *model.Record) {
			defer wg.Done()
			defer func() { <-semaphore }()
			results[idx] = e.Recover(rec)
		}(i, r)
	}

	wg.Wait()
	return results, nil
}

func (e *Engine) byIdentifier(r *model.Record, s slot) (string, bool) {
	id := identifierKey(r)
	if id == "" {
		return "", false
	}
	return majority(e.snapshot.byID[id], s.get)
}

func (e *Engine) byExactName(r *model.Record, s slot) (string, bool) {
	given, family, ok := nameParts(r)
	if !ok {
		return "", false
	}
	p, ok := e.snapshot.byName[given+"|"+family]
	if !ok {
		return "", false
	}
	return majority(p.records, s.get)
}

// byFuzzyName scores every known person by the mean of given-name and
// family-name similarity. The best score must reach the threshold; when
// several people tie at the best score they must agree on the value.
func (e *Engine) byFuzzyName(r *model.Record, s slot) (string, bool) {
	const epsilon = 1e-9

	given, family, ok := nameParts(r)
	if !ok {
		return "", false
	}

	best := -1.0
	var tied []*person
	for _, p := range e.snapshot.people {
		score := (util.Ratio(given, p.given) + util.Ratio(family, p.family)) / 2
		switch {
		case score > best+epsilon:
			best = score
			tied = []*person{p}
		case score > best-epsilon:
			tied = append(tied, p)
		}
	}

	if best < e.threshold-epsilon {
		return "", false
	}

	value := ""
	for _, p := range tied {
		v, ok := majority(p.records, s.get)
		if !ok {
			continue
		}
		if value != "" && v != value {
			return "", false
		}
		value = v
	}
	return value, value != ""
}

func (e *Engine) byAddressToken(r *model.Record, s slot) (string, bool) {
	if s.name != model.FieldMunicipality || r.Address == nil || e.snapshot.index == nil {
		return "", false
	}
	entry, ok := e.snapshot.index.Resolve(*r.Address)
	if !ok {
		return "", false
	}
	return entry.Municipality, true
}

func (e *Engine) byGazetteer(r *model.Record, s slot) (string, bool) {
	if s.name != model.FieldMunicipality || r.Address == nil {
		return "", false
	}
	_, muni, ok := e.snapshot.gazetteer.Find(*r.Address)
	return muni, ok
}
