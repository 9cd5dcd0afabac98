package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"github.com/ppiankov/canonica/internal/model"
	"github.com/ppiankov/canonica/internal/worker"
)

func samplePartitions() *model.Partitions {
	recovered := &model.Record{
		Seq:          1,
		Insurer:      model.StringPtr("SURA"),
		Municipality: model.StringPtr("MONTERIA"),
		Provenance:   model.Provenance{SourceFile: "03 MARZO.xlsx", YearFolder: "2021"},
		Recovery: []model.FieldRecovery{
			{Field: model.FieldMunicipality, Strategy: model.StrategyIdentifier, Value: "MONTERIA"},
			{Field: model.FieldInsurer, Strategy: model.StrategyExactName, Value: "SURA"},
		},
	}
	return &model.Partitions{
		ValidOriginal:  []*model.Record{{Seq: 0, Insurer: model.StringPtr("SURA"), Municipality: model.StringPtr("CERETE")}},
		ValidRecovered: []*model.Record{recovered},
		Rejected:       []*model.Record{{Seq: 2, InsurerRaw: "XYZ", Reason: "insurer unresolved: XYZ"}},
		DiscardedEmpty: []*model.Record{{Seq: 3, Reason: "no identifier, name or address"}},
	}
}

func TestRows(t *testing.T) {
	rows := Rows("run-1", samplePartitions())

	if len(rows) != 4 {
		t.Fatalf("Expected 4 rows, got %d", len(rows))
	}
	for i, name := range model.AllPartitions {
		if rows[i].Partition != name {
			t.Errorf("Expected %s at %d, got %s", name, i, rows[i].Partition)
		}
		if rows[i].RunID != "run-1" {
			t.Errorf("Expected run id on every row, got %q", rows[i].RunID)
		}
	}
	if tags := rows[1].StrategyTags(); tags != "identifier,exact_name" {
		t.Errorf("Expected strategy tags, got %q", tags)
	}
	if rows[2].Reason != "insurer unresolved: XYZ" {
		t.Errorf("Expected reason on rejected row, got %q", rows[2].Reason)
	}
}

func TestJSONDirSink(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	sink := NewJSONDirSink(dir)
	defer func() { _ = sink.Close() }()

	parts := samplePartitions()
	parts.DiscardedEmpty = nil

	if err := sink.Write(context.Background(), "run-2", parts); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	for _, name := range model.AllPartitions {
		if _, err := os.Stat(filepath.Join(dir, string(name)+".json")); err != nil {
			t.Errorf("Expected file for %s: %v", name, err)
		}
	}

	rows, err := ReadPartition(dir, model.PartitionValidRecovered)
	if err != nil {
		t.Fatalf("ReadPartition failed: %v", err)
	}
	if len(rows) != 1 || model.Deref(rows[0].Record.Municipality) != "MONTERIA" {
		t.Errorf("Unexpected recovered rows %+v", rows)
	}

	empty, err := ReadPartition(dir, model.PartitionDiscardedEmpty)
	if err != nil {
		t.Fatalf("ReadPartition failed: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("Expected empty partition file, got %d rows", len(empty))
	}
}

func TestSQLiteSink(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "db", "canonica.db")

	sink, err := NewSQLiteSink(ctx, path, "records", 2, worker.NewLimiter(0, 1))
	if err != nil {
		t.Fatalf("NewSQLiteSink failed: %v", err)
	}
	defer func() { _ = sink.Close() }()

	runID := uuid.NewString()
	if err := sink.Write(ctx, runID, samplePartitions()); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	counts, err := sink.Counts(ctx, runID)
	if err != nil {
		t.Fatalf("Counts failed: %v", err)
	}
	for _, name := range model.AllPartitions {
		if counts[name] != 1 {
			t.Errorf("Expected 1 row in %s, got %d", name, counts[name])
		}
	}

	var tags, source string
	q := "SELECT strategies, source_file FROM records WHERE run_id = ? AND seq = 1"
	if err := sink.db.QueryRowContext(ctx, q, runID).Scan(&tags, &source); err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if tags != "identifier,exact_name" || source != "03 MARZO.xlsx" {
		t.Errorf("Unexpected stored tags %q and source %q", tags, source)
	}

	if err := sink.Write(ctx, runID, samplePartitions()); err == nil {
		t.Error("Expected duplicate run rows to be rejected")
	}
}

func TestNew(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	tests := []struct {
		desc    string
		cfg     model.SinkConfig
		name    string
		wantErr bool
	}{
		{"Default is json", model.SinkConfig{}, "json", false},
		{"SQLite under out dir", model.SinkConfig{Kind: "sqlite"}, "sqlite", false},
		{"Postgres needs a DSN", model.SinkConfig{Kind: "postgres"}, "", true},
		{"Unknown kind", model.SinkConfig{Kind: "parquet"}, "", true},
		{"Invalid table", model.SinkConfig{Kind: "sqlite", Table: "records; DROP"}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			sink, err := New(ctx, tt.cfg, dir)
			if tt.wantErr {
				if err == nil {
					t.Error("Expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("New failed: %v", err)
			}
			defer func() { _ = sink.Close() }()
			if sink.Name() != tt.name {
				t.Errorf("Expected %s sink, got %s", tt.name, sink.Name())
			}
		})
	}
}
