package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/ppiankov/canonica/internal/model"
	"github.com/ppiankov/canonica/internal/worker"
)

// SQLiteSink stores rows in a single table of a SQLite database file.
type SQLiteSink struct {
	db      *sql.DB
	table   string
	batch   int
	limiter *worker.Limiter
}

// NewSQLiteSink opens (creating if needed) the database at path and
// ensures the table exists.
func NewSQLiteSink(ctx context.Context, path, table string, batch int, limiter *worker.Limiter) (*SQLiteSink, error) {
	if err := checkTable(table); err != nil {
		return nil, err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		run_id         TEXT NOT NULL,
		seq            INTEGER NOT NULL,
		partition_name TEXT NOT NULL,
		reason         TEXT,
		strategies     TEXT,
		source_file    TEXT,
		record         TEXT NOT NULL,
		created_at     TEXT NOT NULL,
		PRIMARY KEY (run_id, seq)
	)`, table)
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create table: %w", err)
	}

	return &SQLiteSink{db: db, table: table, batch: batch, limiter: limiter}, nil
}

// Name returns the sink kind
func (s *SQLiteSink) Name() string {
	return "sqlite"
}

// Write inserts rows in transactions of at most batch rows.
func (s *SQLiteSink) Write(ctx context.Context, runID string, parts *model.Partitions) error {
	rows := Rows(runID, parts)
	stmt := fmt.Sprintf(`INSERT INTO %s (run_id, seq, partition_name, reason, strategies, source_file, record, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`, s.table)
	now := time.Now().UTC().Format(time.RFC3339)

	for start := 0; start < len(rows); start += s.batch {
		end := start + s.batch
		if end > len(rows) {
			end = len(rows)
		}
		if err := s.limiter.Wait(ctx, s.table); err != nil {
			return err
		}
		if err := s.insert(ctx, stmt, now, rows[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteSink) insert(ctx context.Context, stmt, now string, rows []Row) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	prepared, err := tx.PrepareContext(ctx, stmt)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer func() { _ = prepared.Close() }()

	for _, row := range rows {
		data, err := row.RecordJSON()
		if err != nil {
			return fmt.Errorf("marshal record %d: %w", row.Seq, err)
		}
		if _, err := prepared.ExecContext(ctx,
			row.RunID, row.Seq, string(row.Partition), row.Reason, row.StrategyTags(),
			row.Record.Provenance.SourceFile, string(data), now,
		); err != nil {
			return fmt.Errorf("insert record %d: %w", row.Seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Counts returns the number of stored rows per partition for a run.
func (s *SQLiteSink) Counts(ctx context.Context, runID string) (map[model.Partition]int, error) {
	q := fmt.Sprintf(`SELECT partition_name, COUNT(*) FROM %s WHERE run_id = ? GROUP BY partition_name`, s.table)
	rows, err := s.db.QueryContext(ctx, q, runID)
	if err != nil {
		return nil, fmt.Errorf("count rows: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make(map[model.Partition]int)
	for rows.Next() {
		var name string
		var n int
		if err := rows.Scan(&name, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		out[model.Partition(name)] = n
	}
	return out, rows.Err()
}

// Close closes the database
func (s *SQLiteSink) Close() error {
	return s.db.Close()
}
