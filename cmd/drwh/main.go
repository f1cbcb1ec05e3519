package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/clinicaldwh/drwh/internal/config"
	"github.com/clinicaldwh/drwh/internal/logging"
	"github.com/clinicaldwh/drwh/internal/storage"
)

var (
	configPath string
	dbPath     string
	logLevel   string

	cfg    *config.Config
	logger *zap.Logger
	store  storage.Storage
)

var rootCmd = &cobra.Command{
	Use:   "drwh",
	Short: "Clinical data warehouse loader",
	Long: `drwh loads a patient export spreadsheet and the clinical documents that go
with it into the warehouse.

Patient rows describing the same person (same last name, first name and birth
date) are merged into one patient. Every original row is kept in the identifier
history so documents filed under any hospital identifier of a patient can be
attached to the right record.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		// Flags win over the config file and the environment.
		if cmd.Flags().Changed("db") {
			loaded.Database.Path = dbPath
		}
		if cmd.Flags().Changed("log-level") {
			loaded.Log.Level = logLevel
		}
		if err := loaded.Validate(); err != nil {
			return err
		}
		cfg = loaded

		logger, err = logging.New(cfg.Log.Level, cfg.Log.Format)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if store != nil {
			_ = store.Close()
			store = nil
		}
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultFile, "Config file (YAML)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Warehouse database path (default: $DRWH_DB_PATH or drwh.db)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn, error")
}

// openStore opens the configured warehouse once per command.
func openStore(ctx context.Context) (storage.Storage, error) {
	if store != nil {
		return store, nil
	}
	s, err := storage.NewStorage(ctx, &storage.Config{Path: cfg.Database.Path})
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", cfg.Database.Path, err)
	}
	store = s
	return store, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		red := color.New(color.FgRed).SprintFunc()
		fmt.Fprintf(os.Stderr, "%s %v\n", red("Error:"), err)
		if store != nil {
			_ = store.Close()
		}
		os.Exit(1)
	}
}
