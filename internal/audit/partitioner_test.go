package audit

import (
	"context"
	"testing"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/ppiankov/canonica/internal/locindex"
	"github.com/ppiankov/canonica/internal/model"
	"github.com/ppiankov/canonica/internal/recovery"
	"github.com/ppiankov/canonica/internal/validate"
)

var municipalities = []string{"MONTERIA", "CERETE", "SAHAGUN", "SANTA CRUZ DE LORICA"}
var insurers = []string{"SURA", "NUEVA EPS", "COOSALUD", "MUTUAL SER"}

func fakeRecord(f *gofakeit.Faker, seq int) *model.Record {
	r := &model.Record{Seq: seq, AdmissionStatus: model.DateParsed, DischargeStatus: model.DateEmpty}
	if f.Bool() {
		r.Identifier = model.StringPtr(f.Numerify("1#######"))
	}
	if f.Bool() {
		r.GivenName = model.StringPtr(f.FirstName())
		r.FamilyName = model.StringPtr(f.LastName())
	}
	if f.Bool() {
		r.Address = model.StringPtr("BARRIO " + f.RandomString([]string{"CANTACLARO", "LA GRANJA", "EL CARMEN"}) + " " + f.Street())
	}
	if f.Number(0, 3) > 0 {
		r.Insurer = model.StringPtr(f.RandomString(insurers))
	}
	if f.Number(0, 3) > 0 {
		r.Municipality = model.StringPtr(f.RandomString(municipalities))
	}
	if f.Number(0, 9) == 0 {
		r.AdmissionStatus = model.DateFailed
	}
	return r
}

// run mirrors the pipeline's gate, recovery and partition stages.
func run(t *testing.T, records []*model.Record) *model.Partitions {
	t.Helper()

	gate := validate.NewGate()
	var accepted, rejected []*model.Record
	for _, r := range records {
		if gate.Apply(r) {
			accepted = append(accepted, r)
		} else {
			rejected = append(rejected, r)
		}
	}

	cfg := model.DefaultConfig().Recovery
	idx := locindex.Build(accepted, locindex.NewExtractor(cfg.MinTokenLength), cfg.IndexConfidence)
	engine := recovery.NewEngine(recovery.NewSnapshot(accepted, idx, nil), cfg)

	results, err := engine.RecoverAll(context.Background(), rejected, 4)
	if err != nil {
		t.Fatalf("RecoverAll failed: %v", err)
	}
	return NewPartitioner().Partition(accepted, results)
}

func TestPartition_TotalityAndDisjointness(t *testing.T) {
	for _, seed := range []int64{1, 7, 42, 2024} {
		f := gofakeit.New(seed)
		n := f.Number(50, 400)

		records := make([]*model.Record, n)
		for i := range records {
			records[i] = fakeRecord(f, i)
		}

		parts := run(t, records)
		if err := Check(n, parts); err != nil {
			t.Errorf("seed %d: %v", seed, err)
		}
	}
}

func TestPartition_Invariants(t *testing.T) {
	f := gofakeit.New(99)
	records := make([]*model.Record, 300)
	for i := range records {
		records[i] = fakeRecord(f, i)
	}

	parts := run(t, records)

	for _, r := range parts.Valid() {
		if r.Insurer == nil || r.Municipality == nil {
			t.Errorf("Expected valid record %d to hold insurer and municipality", r.Seq)
		}
		if r.AdmissionStatus.Unrecoverable() || r.DischargeStatus.Unrecoverable() {
			t.Errorf("Expected valid record %d to have usable dates", r.Seq)
		}
	}
	for _, r := range parts.ValidRecovered {
		if len(r.Recovery) == 0 {
			t.Errorf("Expected recovered record %d to carry strategy tags", r.Seq)
		}
	}
	for _, r := range parts.Rejected {
		if r.Reason == "" {
			t.Errorf("Expected rejected record %d to carry a reason", r.Seq)
		}
	}
	for _, r := range parts.DiscardedEmpty {
		if r.HasIdentity() {
			t.Errorf("Expected discarded record %d to have no identity", r.Seq)
		}
	}
}

func TestPartition_Routing(t *testing.T) {
	accepted := []*model.Record{{Seq: 0}}
	results := []recovery.Result{
		{Record: &model.Record{Seq: 1}, Outcome: recovery.OutcomeRecovered},
		{Record: &model.Record{Seq: 2}, Outcome: recovery.OutcomeRejected},
		{Record: &model.Record{Seq: 3}, Outcome: recovery.OutcomeDiscarded},
		{Record: &model.Record{Seq: 4}, Outcome: recovery.OutcomeRejected},
	}

	parts := NewPartitioner().Partition(accepted, results)

	tests := []struct {
		partition model.Partition
		expected  []int
	}{
		{model.PartitionValidOriginal, []int{0}},
		{model.PartitionValidRecovered, []int{1}},
		{model.PartitionRejected, []int{2, 4}},
		{model.PartitionDiscardedEmpty, []int{3}},
	}

	for _, tt := range tests {
		t.Run(string(tt.partition), func(t *testing.T) {
			got := parts.Get(tt.partition)
			if len(got) != len(tt.expected) {
				t.Fatalf("Expected %d records, got %d", len(tt.expected), len(got))
			}
			for i, seq := range tt.expected {
				if got[i].Seq != seq {
					t.Errorf("Expected seq %d at %d, got %d", seq, i, got[i].Seq)
				}
			}
		})
	}
}

func TestCheck_DetectsViolations(t *testing.T) {
	dup := &model.Record{Seq: 1}
	parts := &model.Partitions{
		ValidOriginal: []*model.Record{dup},
		Rejected:      []*model.Record{dup},
	}

	if err := Check(2, parts); err == nil {
		t.Error("Expected overlap to be reported")
	}
	if err := Check(3, parts); err == nil {
		t.Error("Expected totality mismatch to be reported")
	}
}
