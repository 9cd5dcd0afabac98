package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/ppiankov/canonica/internal/logging"
	"github.com/ppiankov/canonica/internal/pipeline"
	"github.com/spf13/cobra"
)

var (
	inspectJSON    bool
	inspectTimeout time.Duration
)

// inspectCmd represents the inspect command
var inspectCmd = &cobra.Command{
	Use:   "inspect <input>...",
	Short: "Audit field types of input records without cleaning them",
	Long: `Inspect loads records and classifies every value against the type its
column should hold. It reports, per field, how many values are dates,
numbers or free text where something else was expected, with examples.

Nothing is normalized or written.

Example:
  canonica inspect ./data/2021
  canonica inspect "03 INGRESOS MARZO 2021.xlsx" --json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)

	inspectCmd.Flags().BoolVar(&inspectJSON, "json", false, "print the audit as JSON")
	inspectCmd.Flags().DurationVar(&inspectTimeout, "timeout", 5*time.Minute, "overall timeout")
}

func runInspect(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), inspectTimeout)
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

	masters, err := loadMasters(cfg)
	if err != nil {
		return err
	}

	p := pipeline.NewPipeline(cfg, masters, logger)
	report, err := p.Inspect(ctx, args)
	if err != nil {
		return fmt.Errorf("inspect failed: %w", err)
	}

	if inspectJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	p.Renderer().RenderInspect(os.Stdout, report)
	return nil
}
