package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"pemakaian/internal/cli"
	"pemakaian/internal/config"
	"pemakaian/internal/core"
	"pemakaian/internal/log"
	"pemakaian/internal/storage"
)

var (
	dbPath        string
	missingValues string
	logLevel      string

	cfg    *config.Config
	logger *log.Logger
)

var rootCmd = &cobra.Command{
	Use:   "pemakaian-cli",
	Short: "Import and export PLTGU PRIOK GT #3.1 machine usage data",
	Long: `pemakaian-cli manages the transaction data behind the usage dashboard.
It imports a workbook into the local SQLite snapshot and exports filtered
rows as CSV or XLSX.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cli.LoadEnvFile()
		cfg = config.Load()

		level, err := log.ParseLevel(logLevel)
		if err != nil {
			return err
		}
		// Logs go to stderr so exports can be piped from stdout.
		logger = log.New(log.Config{Level: level, Component: log.ComponentCLI, Output: os.Stderr})

		if dbPath == "" {
			dbPath = cfg.SQLiteDBPath
		}
		if missingValues == "" {
			missingValues = cfg.MissingValues
		}
		if _, err := core.ParseMissingPolicy(missingValues); err != nil {
			return fmt.Errorf("--missing: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite snapshot path (default is $SQLITE_DB_PATH)")
	rootCmd.PersistentFlags().StringVar(&missingValues, "missing", "", "missing value policy: skip, zero or error (default is $MISSING_VALUES)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn or error")
}

// missingPolicy returns the validated --missing value.
func missingPolicy() core.MissingPolicy {
	p, _ := core.ParseMissingPolicy(missingValues)
	return p
}

// openDB opens the snapshot database, creating it when needed.
func openDB() (*storage.SQLiteRepository, error) {
	return cli.InitSQLite(logger, dbPath)
}
