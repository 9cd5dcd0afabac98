// Package pipeline wires the cleaning stages into a single batch run:
// load, prepare, index, recover, partition, score and persist.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ppiankov/canonica/internal/audit"
	"github.com/ppiankov/canonica/internal/cache"
	"github.com/ppiankov/canonica/internal/dates"
	"github.com/ppiankov/canonica/internal/locindex"
	"github.com/ppiankov/canonica/internal/logging"
	"github.com/ppiankov/canonica/internal/model"
	"github.com/ppiankov/canonica/internal/normalize"
	"github.com/ppiankov/canonica/internal/recovery"
	"github.com/ppiankov/canonica/internal/score"
	"github.com/ppiankov/canonica/internal/source"
	"github.com/ppiankov/canonica/internal/store"
	"github.com/ppiankov/canonica/internal/worker"
	"go.uber.org/zap"
)

// Pipeline orchestrates the complete cleaning run
type Pipeline struct {
	registry    *source.Registry
	loader      *worker.BatchLoader
	preparer    *Preparer
	extractor   *locindex.Extractor
	gazetteer   *locindex.Gazetteer
	partitioner *audit.Partitioner
	scorer      *score.Scorer
	renderer    *Renderer
	config      *model.Config
	logger      *zap.Logger
}

// NewPipeline creates a pipeline over the given master tables. A nil
// logger disables stage logging.
func NewPipeline(cfg *model.Config, masters *model.MasterTables, logger *zap.Logger) *Pipeline {
	registry := source.NewRegistry()
	memo := cache.NewMemoryCache[normalize.Resolution](cfg.Normalize.CacheTTL, 10*time.Minute)

	var gazetteer *locindex.Gazetteer
	if len(masters.Neighbourhoods) > 0 {
		gazetteer = locindex.NewGazetteer(masters.Neighbourhoods)
	}

	return &Pipeline{
		registry: registry,
		loader:   worker.NewBatchLoader(registry, cfg.Concurrency.Workers),
		preparer: NewPreparer(
			normalize.NewNormalizer(masters, cfg.Normalize, memo),
			dates.NewReconstructor(cfg.Dates),
		),
		extractor:   locindex.NewExtractor(cfg.Recovery.MinTokenLength),
		gazetteer:   gazetteer,
		partitioner: audit.NewPartitioner(),
		scorer:      score.NewScorer(),
		renderer:    NewRenderer(cfg.Output.IncludeFooter),
		config:      cfg,
		logger:      logging.OrNop(logger),
	}
}

// RunResult contains the complete run result
type RunResult struct {
	Report     *model.Report
	Partitions *model.Partitions
	Index      *locindex.Index
}

// Run loads every input, cleans the records and writes the partitions to
// sink. Unreadable files are skipped and listed in the report; the run
// fails only when nothing could be read or a stage fails. sink may be nil.
func (p *Pipeline) Run(ctx context.Context, inputs []string, sink store.Sink) (*RunResult, error) {
	startedAt := time.Now().UTC()

	// 1. Discover and load inputs
	loaded, err := p.load(ctx, inputs)
	if err != nil {
		return nil, err
	}

	// 2-6. Clean
	result, err := p.Process(ctx, loaded.raws)
	if err != nil {
		return nil, err
	}

	// 7. Persist partitions
	report := result.Report
	report.StartedAt = startedAt
	report.Inputs = loaded.paths
	report.Skipped = loaded.skipped

	if sink != nil {
		if err := sink.Write(ctx, report.RunID, result.Partitions); err != nil {
			return nil, fmt.Errorf("sink %s: %w", sink.Name(), err)
		}
		p.logger.Info("partitions written", zap.String("sink", sink.Name()), zap.String("run_id", report.RunID))
	}

	report.FinishedAt = time.Now().UTC()
	return result, nil
}

// loadResult is the outcome of the discovery and load stage.
type loadResult struct {
	paths   []string
	skipped []string
	raws    []model.RawRecord
}

// load discovers and reads inputs. Unreadable files are logged and
// skipped; it fails when nothing is left to read.
func (p *Pipeline) load(ctx context.Context, inputs []string) (*loadResult, error) {
	paths, err := p.registry.Discover(inputs)
	if err != nil {
		return nil, fmt.Errorf("discover: %w", err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("discover: no readable inputs in %v", inputs)
	}

	raws, failed := worker.Flatten(p.loader.LoadFiles(ctx, paths))
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}

	out := &loadResult{paths: paths, raws: raws}
	for _, f := range failed {
		p.logger.Warn("input skipped", zap.String("path", f.Path), zap.Error(f.Error))
		out.skipped = append(out.skipped, f.Path)
	}
	if len(failed) == len(paths) {
		return nil, fmt.Errorf("load: all %d inputs failed: %w", len(paths), failed[0].Error)
	}
	p.logger.Info("inputs loaded", zap.Int("files", len(paths)-len(failed)), zap.Int("records", len(raws)))
	return out, nil
}

// Process cleans records that are already loaded. Records keep the order
// of raws; seq numbers are their positions.
func (p *Pipeline) Process(ctx context.Context, raws []model.RawRecord) (*RunResult, error) {
	startedAt := time.Now().UTC()
	workers := p.config.Concurrency.Workers

	// 2. Classify, normalize, reconstruct dates and gate
	prepared, err := p.preparer.PrepareAll(ctx, raws, workers, p.config.Concurrency.ChunkSize)
	if err != nil {
		return nil, fmt.Errorf("prepare: %w", err)
	}
	p.logger.Info("records prepared",
		zap.Int("accepted", len(prepared.Accepted)),
		zap.Int("rejected", len(prepared.Rejected)))

	// 3. Build the location index from the frozen valid snapshot
	index := locindex.Build(prepared.Accepted, p.extractor, p.config.Recovery.IndexConfidence)
	stats := index.Stats()
	p.logger.Debug("location index built", zap.Int("tokens", stats.Tokens), zap.Int("confident", stats.Confident))

	// 4. Recover rejected records against the same snapshot
	engine := recovery.NewEngine(recovery.NewSnapshot(prepared.Accepted, index, p.gazetteer), p.config.Recovery)
	results, err := engine.RecoverAll(ctx, prepared.Rejected, workers)
	if err != nil {
		return nil, fmt.Errorf("recover: %w", err)
	}

	// 5. Partition and check totality
	parts := p.partitioner.Partition(prepared.Accepted, results)
	if err := audit.Check(len(raws), parts); err != nil {
		return nil, fmt.Errorf("partition: %w", err)
	}

	// 6. Score
	scored := p.scorer.Calculate(score.Input{
		Partitions: parts,
		Methods:    prepared.Methods,
		Index:      stats,
	})

	report := &model.Report{
		RunID:      uuid.NewString(),
		StartedAt:  startedAt,
		FinishedAt: time.Now().UTC(),
		Totals:     scored.Totals,
		Quality:    scored.Quality,
		Signals:    scored.Signals,
	}

	p.logger.Info("run scored",
		zap.String("run_id", report.RunID),
		zap.Int("valid_original", report.Totals.ValidOriginal),
		zap.Int("valid_recovered", report.Totals.ValidRecovered),
		zap.Int("rejected", report.Totals.Rejected),
		zap.Int("discarded_empty", report.Totals.DiscardedEmpty))

	return &RunResult{Report: report, Partitions: parts, Index: index}, nil
}

// RenderReport renders the report to the specified outputs
func (p *Pipeline) RenderReport(report *model.Report, jsonPath string, mdPath string) error {
	if jsonPath != "" {
		if err := p.renderer.RenderJSON(report, jsonPath); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
		p.logger.Debug("wrote JSON report", zap.String("path", jsonPath))
	}

	if mdPath != "" {
		if err := p.renderer.RenderMarkdown(report, mdPath); err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
		p.logger.Debug("wrote Markdown report", zap.String("path", mdPath))
	}

	return nil
}

// Renderer returns the pipeline's report renderer.
func (p *Pipeline) Renderer() *Renderer {
	return p.renderer
}
