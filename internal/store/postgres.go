package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ppiankov/canonica/internal/model"
	"github.com/ppiankov/canonica/internal/worker"
)

// PostgresSink stores rows in a Postgres table with the record as JSONB.
type PostgresSink struct {
	pool    *pgxpool.Pool
	table   string
	batch   int
	limiter *worker.Limiter
}

// NewPostgresSink connects to dsn and ensures the table exists.
func NewPostgresSink(ctx context.Context, dsn, table string, batch int, limiter *worker.Limiter) (*PostgresSink, error) {
	if err := checkTable(table); err != nil {
		return nil, err
	}

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse connection: %w", err)
	}
	poolConfig.MaxConns = 4

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		run_id         UUID NOT NULL,
		seq            INTEGER NOT NULL,
		partition_name TEXT NOT NULL,
		reason         TEXT,
		strategies     TEXT[],
		source_file    TEXT,
		record         JSONB NOT NULL,
		created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (run_id, seq)
	)`, table)
	if _, err := pool.Exec(ctx, ddl); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create table: %w", err)
	}

	return &PostgresSink{pool: pool, table: table, batch: batch, limiter: limiter}, nil
}

// Name returns the sink kind
func (s *PostgresSink) Name() string {
	return "postgres"
}

// Write sends rows in pipelined batches, one transaction per batch.
func (s *PostgresSink) Write(ctx context.Context, runID string, parts *model.Partitions) error {
	rows := Rows(runID, parts)
	stmt := fmt.Sprintf(`INSERT INTO %s (run_id, seq, partition_name, reason, strategies, source_file, record)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`, s.table)

	for start := 0; start < len(rows); start += s.batch {
		end := start + s.batch
		if end > len(rows) {
			end = len(rows)
		}
		if err := s.limiter.Wait(ctx, s.table); err != nil {
			return err
		}
		if err := s.insert(ctx, stmt, rows[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (s *PostgresSink) insert(ctx context.Context, stmt string, rows []Row) error {
	batch := &pgx.Batch{}
	for _, row := range rows {
		data, err := row.RecordJSON()
		if err != nil {
			return fmt.Errorf("marshal record %d: %w", row.Seq, err)
		}
		strategies := make([]string, len(row.Strategies))
		for i, st := range row.Strategies {
			strategies[i] = string(st)
		}
		batch.Queue(stmt, row.RunID, row.Seq, string(row.Partition), row.Reason, strategies,
			row.Record.Provenance.SourceFile, data)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert batch: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Counts returns the number of stored rows per partition for a run.
func (s *PostgresSink) Counts(ctx context.Context, runID string) (map[model.Partition]int, error) {
	q := fmt.Sprintf(`SELECT partition_name, COUNT(*) FROM %s WHERE run_id = $1 GROUP BY partition_name`, s.table)
	rows, err := s.pool.Query(ctx, q, runID)
	if err != nil {
		return nil, fmt.Errorf("count rows: %w", err)
	}
	defer rows.Close()

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

// Close closes the pool
func (s *PostgresSink) Close() error {
	s.pool.Close()
	return nil
}
