package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ppiankov/canonica/internal/logging"
	"github.com/ppiankov/canonica/internal/pipeline"
	"github.com/ppiankov/canonica/internal/sentryutil"
	"github.com/ppiankov/canonica/internal/store"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var runTimeout time.Duration

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run <input>...",
	Short: "Clean and reconcile records from files or directories",
	Long: `Run reads every .json, .csv and .xlsx file under the given inputs and:
- Nulls values that do not fit their column (dates in name columns, ...)
- Resolves insurer and municipality spellings against the master tables
- Rebuilds day-only and sentinel-year dates from the document name and folder
- Recovers missing insurer and municipality values from other records of the
  same person (identifier, name, fuzzy name, address neighbourhood)
- Writes the four partitions plus report.json to the output directory

Example:
  canonica run ./data/2021
  canonica run ./data --md report.md --workers 8
  canonica run ./data --sink postgres --dsn postgres://localhost:5432/canonica`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	// Output flags
	runCmd.Flags().String("out-dir", "", "output directory for partitions and reports (default: out)")
	runCmd.Flags().String("md", "", "output Markdown report path (optional)")

	// Processing flags
	runCmd.Flags().Int("workers", 0, "number of concurrent workers (default: 4)")
	runCmd.Flags().String("masters", "", "master tables YAML (default: built-in)")
	runCmd.Flags().DurationVar(&runTimeout, "timeout", 30*time.Minute, "overall run timeout")

	// Sink flags
	runCmd.Flags().String("sink", "", "partition sink: json, sqlite or postgres (default: json)")
	runCmd.Flags().String("dsn", "", "sink connection string (sqlite path or postgres URL)")

	_ = viper.BindPFlag("output.dir", runCmd.Flags().Lookup("out-dir"))
	_ = viper.BindPFlag("output.markdown", runCmd.Flags().Lookup("md"))
	_ = viper.BindPFlag("concurrency.workers", runCmd.Flags().Lookup("workers"))
	_ = viper.BindPFlag("masters_file", runCmd.Flags().Lookup("masters"))
	_ = viper.BindPFlag("sink.kind", runCmd.Flags().Lookup("sink"))
	_ = viper.BindPFlag("sink.dsn", runCmd.Flags().Lookup("dsn"))
}

func runRun(cmd *cobra.Command, args []string) (err error) {
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Output.Verbose)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	if sentryutil.Init(cfg.Sentry, logger) {
		defer sentryutil.Flush()
		defer func() {
			if err != nil {
				sentryutil.CaptureError(err, map[string]string{"command": "run", "sink": cfg.Sink.Kind})
			}
		}()
	}

	masters, err := loadMasters(cfg)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  canonica run\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Inputs:       %s\n", strings.Join(args, ", "))
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", cfg.Concurrency.Workers)
	fmt.Fprintf(os.Stderr, "  Output dir:   %s\n", cfg.Output.Dir)
	fmt.Fprintf(os.Stderr, "  Sink:         %s\n", cfg.Sink.Kind)
	fmt.Fprintf(os.Stderr, "  Timeout:      %v\n", runTimeout)
	fmt.Fprintf(os.Stderr, "\n")

	if err := os.MkdirAll(cfg.Output.Dir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	sink, err := store.New(ctx, cfg.Sink, cfg.Output.Dir)
	if err != nil {
		return fmt.Errorf("open sink: %w", err)
	}
	defer func() {
		if closeErr := sink.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close sink: %w", closeErr)
		}
	}()

	p := pipeline.NewPipeline(cfg, masters, logger)

	fmt.Fprintf(os.Stderr, "⚙️  Loading and cleaning records...\n")
	result, err := p.Run(ctx, args, sink)
	if err != nil {
		return fmt.Errorf("run failed: %w", err)
	}
	report := result.Report

	for _, path := range report.Skipped {
		fmt.Fprintf(os.Stderr, "✗ skipped unreadable input: %s\n", path)
		sentryutil.CaptureWarning("input skipped", map[string]string{"path": path, "run_id": report.RunID})
	}
	fmt.Fprintf(os.Stderr, "✓ Read %d records from %d file(s)\n", report.Totals.Input, len(report.Inputs)-len(report.Skipped))
	fmt.Fprintf(os.Stderr, "✓ Wrote partitions to %s sink\n", sink.Name())

	jsonPath := filepath.Join(cfg.Output.Dir, "report.json")
	if err := p.RenderReport(report, jsonPath, cfg.Output.Markdown); err != nil {
		return fmt.Errorf("render failed: %w", err)
	}
	fmt.Fprintf(os.Stderr, "✓ Wrote JSON: %s\n", jsonPath)
	if cfg.Output.Markdown != "" {
		fmt.Fprintf(os.Stderr, "✓ Wrote Markdown: %s\n", cfg.Output.Markdown)
	}

	logger.Debug("run finished", zap.String("run_id", report.RunID), zap.Duration("elapsed", report.FinishedAt.Sub(report.StartedAt)))
	p.Renderer().RenderSummary(os.Stderr, report, cfg.Output.Dir)

	return nil
}
