package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"pemakaian/internal/storage"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the SQLite snapshot status",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	repo, err := openDB()
	if err != nil {
		return err
	}
	defer repo.Close()

	out := cmd.OutOrStdout()
	version, dirty, err := storage.SchemaVersion(dbPath)
	if err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}
	fmt.Fprintf(out, "Database:       %s\n", dbPath)
	fmt.Fprintf(out, "Schema version: %d (dirty=%t)\n", version, dirty)

	imp, err := repo.LastImport(cmd.Context())
	if errors.Is(err, storage.ErrNoSnapshot) {
		fmt.Fprintln(out, "No import yet")
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading last import: %w", err)
	}
	fmt.Fprintf(out, "Last import:    #%d %s, %d rows at %s\n", imp.ID, imp.Source, imp.RowCount, imp.ImportedAt)
	return nil
}
