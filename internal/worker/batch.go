package worker

import (
	"context"
	"fmt"

	"github.com/ppiankov/canonica/internal/model"
)

// Loader reads the raw records of one input file.
type Loader interface {
	Load(ctx context.Context, path string) ([]model.RawRecord, error)
}

// LoadJob represents one input file to read
type LoadJob struct {
	Path   string
	Loader Loader
}

// Execute executes the load job
func (j *LoadJob) Execute(ctx context.Context) Result {
	records, err := j.Loader.Load(ctx, j.Path)
	if err != nil {
		return &LoadResult{Path: j.Path, Error: fmt.Errorf("load %s: %w", j.Path, err)}
	}
	return &LoadResult{Path: j.Path, Records: records}
}

// LoadResult represents the result of a load job
type LoadResult struct {
	Path    string
	Records []model.RawRecord
	Error   error
}

// GetError returns the error from the load result
func (r *LoadResult) GetError() error {
	return r.Error
}

// BatchLoader reads many input files concurrently
type BatchLoader struct {
	loader      Loader
	concurrency int
}

// NewBatchLoader creates a new batch loader
func NewBatchLoader(loader Loader, concurrency int) *BatchLoader {
	return &BatchLoader{
		loader:      loader,
		concurrency: concurrency,
	}
}

// LoadFiles loads every path and returns one result per path, in the
// order of paths. A failing file does not stop the others.
func (b *BatchLoader) LoadFiles(ctx context.Context, paths []string) []*LoadResult {
	if len(paths) == 0 {
		return []*LoadResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	for _, path := range paths {
		pool.Submit(&LoadJob{Path: path, Loader: b.loader})
	}

	results := pool.Wait()

	out := make([]*LoadResult, len(paths))
	for i, path := range paths {
		if i < len(results) && results[i] != nil {
			out[i] = results[i].(*LoadResult)
			continue
		}
		out[i] = &LoadResult{Path: path, Error: fmt.Errorf("load %s: %w", path, context.Canceled)}
	}

	return out
}

// Flatten concatenates the records of successful results and returns the
// failed results separately.
func Flatten(results []*LoadResult) ([]model.RawRecord, []*LoadResult) {
	var records []model.RawRecord
	var failed []*LoadResult
	for _, r := range results {
		if r.Error != nil {
			failed = append(failed, r)
			continue
		}
		records = append(records, r.Records...)
	}
	return records, failed
}
