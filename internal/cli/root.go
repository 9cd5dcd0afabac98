package cli

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/ppiankov/canonica/internal/model"
	"github.com/ppiankov/canonica/internal/refdata"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Version is the canonica release, overridden at build time.
var Version = "v0.1.0"

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "canonica",
	Short: "Canonica - patient record normalization and reconciliation",
	Long: `Canonica cleans patient and therapy service records exported from
spreadsheets, JSON and CSV files.

It resolves insurer and municipality spellings against master tables,
rebuilds truncated admission and discharge dates from the document they
came from, and fills missing values from other records of the same
person.

Every input record ends in exactly one of four partitions: valid,
valid after recovery, rejected with reasons, or discarded as empty.
Nothing is guessed.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Display the version number of canonica.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("canonica %s\n", Version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.canonica/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Bind flags to viper
	_ = viper.BindPFlag("output.verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
}

// initConfig layers .env, the config file and CANONICA_* variables over
// the built-in defaults.
func initConfig() {
	if err := godotenv.Load(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Loaded .env\n")
	}

	// Defaults first so every key is known to AutomaticEnv
	defaults, err := yaml.Marshal(model.DefaultConfig())
	if err == nil {
		viper.SetConfigType("yaml")
		_ = viper.ReadConfig(bytes.NewReader(defaults))
	}

	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		// Search for config in home directory
		viper.AddConfigPath(home + "/.canonica")
		viper.SetConfigName("config")
	}

	// Read in environment variables that match CANONICA_*, e.g.
	// CANONICA_SINK_DSN for sink.dsn
	viper.SetEnvPrefix("CANONICA")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// If a config file is found, merge it over the defaults
	if err := viper.MergeInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	} else if err != nil && cfgFile != "" {
		fmt.Fprintf(os.Stderr, "Warning: cannot read config file %s: %v\n", cfgFile, err)
	}
}

// loadConfig returns the effective configuration.
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

// loadMasters returns the master tables named by the config, or the
// built-in ones.
func loadMasters(cfg *model.Config) (*model.MasterTables, error) {
	masters, err := refdata.Load(cfg.MastersFile)
	if err != nil {
		return nil, fmt.Errorf("load masters: %w", err)
	}
	return masters, nil
}
