package cli

import (
	"fmt"
	"os"

	"github.com/ppiankov/canonica/internal/refdata"
	"github.com/spf13/cobra"
)

// mastersCmd represents the masters command
var mastersCmd = &cobra.Command{
	Use:   "masters",
	Short: "Inspect the master reference tables",
}

var mastersShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective master tables as YAML",
	Long: `Print the canonical insurer and municipality lists, their known variants
and the neighbourhood gazetteer. The tables come from masters_file when
configured, otherwise from the built-in copy.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if path, _ := cmd.Flags().GetString("masters"); path != "" {
			cfg.MastersFile = path
		}
		masters, err := loadMasters(cfg)
		if err != nil {
			return err
		}

		data, err := refdata.Marshal(masters)
		if err != nil {
			return fmt.Errorf("marshal masters: %w", err)
		}

		if cfg.MastersFile != "" {
			fmt.Fprintf(os.Stderr, "Master tables: %s\n\n", cfg.MastersFile)
		} else {
			fmt.Fprintf(os.Stderr, "Master tables: built-in\n\n")
		}
		fmt.Print(string(data))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(mastersCmd)
	mastersCmd.AddCommand(mastersShowCmd)
	mastersShowCmd.Flags().String("masters", "", "master tables YAML (default: built-in)")
}
