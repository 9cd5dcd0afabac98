package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ppiankov/canonica/internal/model"
)

// JSONDirSink writes one <partition>.json file per partition.
type JSONDirSink struct {
	dir string
}

// NewJSONDirSink creates a sink writing into dir.
func NewJSONDirSink(dir string) *JSONDirSink {
	return &JSONDirSink{dir: dir}
}

// Name returns the sink kind
func (s *JSONDirSink) Name() string {
	return "json"
}

type partitionFile struct {
	RunID     string          `json:"run_id"`
	Partition model.Partition `json:"partition"`
	Count     int             `json:"count"`
	Rows      []Row           `json:"rows"`
}

// Write writes all four files, including empty partitions.
func (s *JSONDirSink) Write(ctx context.Context, runID string, parts *model.Partitions) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	byPartition := make(map[model.Partition][]Row)
	for _, row := range Rows(runID, parts) {
		byPartition[row.Partition] = append(byPartition[row.Partition], row)
	}

	for _, name := range model.AllPartitions {
		if err := ctx.Err(); err != nil {
			return err
		}

		rows := byPartition[name]
		if rows == nil {
			rows = []Row{}
		}
		data, err := json.MarshalIndent(partitionFile{
			RunID:     runID,
			Partition: name,
			Count:     len(rows),
			Rows:      rows,
		}, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal %s: %w", name, err)
		}

		path := filepath.Join(s.dir, string(name)+".json")
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	return nil
}

// Close is a no-op
func (s *JSONDirSink) Close() error {
	return nil
}

// ReadPartition loads a partition file written by Write.
func ReadPartition(dir string, name model.Partition) ([]Row, error) {
	data, err := os.ReadFile(filepath.Join(dir, string(name)+".json"))
	if err != nil {
		return nil, fmt.Errorf("read partition: %w", err)
	}
	var f partitionFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode partition: %w", err)
	}
	return f.Rows, nil
}
