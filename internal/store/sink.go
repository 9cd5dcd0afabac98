// Package store persists the partitions of a run.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ppiankov/canonica/internal/model"
	"github.com/ppiankov/canonica/internal/worker"
)

// Sink writes the four partitions of a run to a destination.
type Sink interface {
	// Name returns the sink kind
	Name() string

	// Write persists every record of parts under runID
	Write(ctx context.Context, runID string, parts *model.Partitions) error

	// Close releases the destination
	Close() error
}

// Row is one persisted record with its audit tags.
type Row struct {
	RunID      string           `json:"run_id"`
	Partition  model.Partition  `json:"partition"`
	Seq        int              `json:"seq"`
	Reason     string           `json:"reason,omitempty"`
	Strategies []model.Strategy `json:"strategies,omitempty"`
	Record     *model.Record    `json:"record"`
}

// Strategy tags joined for columnar storage, e.g. "identifier,address_token".
func (r Row) StrategyTags() string {
	tags := make([]string, len(r.Strategies))
	for i, s := range r.Strategies {
		tags[i] = string(s)
	}
	return strings.Join(tags, ",")
}

// RecordJSON returns the full record as JSON.
func (r Row) RecordJSON() ([]byte, error) {
	return json.Marshal(r.Record)
}

// Rows flattens partitions into rows in partition order.
func Rows(runID string, parts *model.Partitions) []Row {
	rows := make([]Row, 0, parts.Total())
	for _, name := range model.AllPartitions {
		for _, r := range parts.Get(name) {
			rows = append(rows, Row{
				RunID:      runID,
				Partition:  name,
				Seq:        r.Seq,
				Reason:     r.Reason,
				Strategies: r.Strategies(),
				Record:     r,
			})
		}
	}
	return rows
}

var tablePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,62}$`)

func checkTable(table string) error {
	if !tablePattern.MatchString(table) {
		return fmt.Errorf("invalid table name %q", table)
	}
	return nil
}

// New opens the sink selected by cfg. outDir is the json sink's target
// and the default location of the sqlite database.
func New(ctx context.Context, cfg model.SinkConfig, outDir string) (Sink, error) {
	table := cfg.Table
	if table == "" {
		table = "canonica_records"
	}
	batch := cfg.BatchSize
	if batch <= 0 {
		batch = 500
	}
	limiter := worker.NewLimiter(cfg.RatePerSecond, 1)

	switch strings.ToLower(cfg.Kind) {
	case "", "json":
		return NewJSONDirSink(outDir), nil
	case "sqlite":
		dsn := cfg.DSN
		if dsn == "" {
			dsn = filepath.Join(outDir, "canonica.db")
		}
		return NewSQLiteSink(ctx, dsn, table, batch, limiter)
	case "postgres", "postgresql":
		if cfg.DSN == "" {
			return nil, fmt.Errorf("postgres sink requires a DSN")
		}
		return NewPostgresSink(ctx, cfg.DSN, table, batch, limiter)
	default:
		return nil, fmt.Errorf("unknown sink kind %q", cfg.Kind)
	}
}
