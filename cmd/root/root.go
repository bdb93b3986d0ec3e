// Package root contains the root command for the application
package root

import (
	"fmt"

	"fjacquet/txn-recon/internal/config"
	"fjacquet/txn-recon/internal/container"
	"fjacquet/txn-recon/internal/logging"

	"github.com/spf13/cobra"
)

// CommonFlags represents the flags that are common to multiple commands
type CommonFlags struct {
	ConfigFile   string
	LogLevel     string
	LogFormat    string
	CSVDelimiter string
	OutputDir    string
}

var (
	// Log is the shared logger instance for commands
	Log logging.Logger = logging.Discard()

	// AppContainer holds the dependencies built in PersistentPreRunE
	AppContainer *container.Container

	// SharedFlags are accessible to all commands
	SharedFlags = CommonFlags{}

	// Cmd is the root command
	Cmd = &cobra.Command{
		Use:   "txn-recon",
		Short: "Find duplicate transactions and reconcile bank and book ledgers.",
		Long: `txn-recon groups likely duplicate transactions inside a ledger, records
keep/remove decisions in an append-only audit log, and matches a bank ledger
against a books ledger.

Ledgers are CSV files with the columns id, date, amount, type and description,
plus the optional category, bank_reference_id, check_number and created_at.`,
		SilenceUsage:      true,
		PersistentPreRunE: initialize,
	}
)

func init() {
	flags := Cmd.PersistentFlags()
	flags.StringVar(&SharedFlags.ConfigFile, "config", "", "Config file (default searches $HOME/.txn-recon, .txn-recon and .)")
	flags.StringVar(&SharedFlags.LogLevel, "log-level", "", "Log level (trace, debug, info, warn, error)")
	flags.StringVar(&SharedFlags.LogFormat, "log-format", "", "Log format (text or json)")
	flags.StringVar(&SharedFlags.CSVDelimiter, "csv-delimiter", "", "CSV delimiter for input and output files")
	flags.StringVarP(&SharedFlags.OutputDir, "output", "o", ".", "Output directory")
}

// initialize loads .env and configuration, applies flag overrides and builds
// the container.
func initialize(cmd *cobra.Command, args []string) error {
	envFile, envErr := config.LoadEnv()

	cfg, err := config.InitializeConfigFromFile(SharedFlags.ConfigFile)
	if err != nil {
		return err
	}
	if err := ApplyFlagOverrides(cfg, SharedFlags); err != nil {
		return err
	}

	c, err := container.NewContainer(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	AppContainer = c
	Log = c.GetLogger()

	if envErr != nil {
		Log.Warn("Error loading .env file", logging.F(logging.FieldFile, envFile), logging.F("error", envErr))
	} else if envFile != "" {
		Log.Debug("Loaded environment variables", logging.F(logging.FieldFile, envFile))
	}
	return nil
}

// ApplyFlagOverrides copies non-empty command line flags onto cfg.
func ApplyFlagOverrides(cfg *config.Config, flags CommonFlags) error {
	if flags.LogLevel != "" {
		cfg.Log.Level = flags.LogLevel
	}
	if flags.LogFormat != "" {
		cfg.Log.Format = flags.LogFormat
	}
	if flags.CSVDelimiter != "" {
		if len([]rune(flags.CSVDelimiter)) != 1 {
			return fmt.Errorf("--csv-delimiter must be a single character, got: %s", flags.CSVDelimiter)
		}
		cfg.CSV.Delimiter = flags.CSVDelimiter
	}
	return nil
}

// GetContainer returns the container built for the running command.
func GetContainer() (*container.Container, error) {
	if AppContainer == nil {
		return nil, fmt.Errorf("container not initialized")
	}
	return AppContainer, nil
}
