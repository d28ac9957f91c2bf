package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"pemakaian/internal/amqp"
	"pemakaian/internal/dataset"
	"pemakaian/internal/log"
	"pemakaian/internal/sheets/xlsx"
)

var (
	importXLSX    string
	importSheet   string
	importNotify  bool
	importTimeout time.Duration
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import a workbook into the SQLite snapshot",
	Long: `Reads the transaction workbook, validates every row, and replaces the
SQLite snapshot with it. When AMQP_URL is set, running dashboards are
notified to reload.`,
	RunE: runImport,
}

func init() {
	importCmd.Flags().StringVar(&importXLSX, "xlsx", "", "workbook to import (default is $XLSX_PATH)")
	importCmd.Flags().StringVar(&importSheet, "sheet", "", "sheet name (default is the first sheet)")
	importCmd.Flags().BoolVar(&importNotify, "notify", true, "publish a reload notification when AMQP is configured")
	importCmd.Flags().DurationVar(&importTimeout, "timeout", 2*time.Minute, "overall timeout")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), importTimeout)
	defer cancel()

	path := importXLSX
	if path == "" {
		path = cfg.XLSXPath
	}
	sheet := importSheet
	if sheet == "" {
		sheet = cfg.XLSXSheet
	}

	reader := xlsx.New(path, sheet)
	table, err := reader.ReadTable(ctx)
	if err != nil {
		return err
	}

	// Refuse to store a table the dashboard could not load.
	ds, err := dataset.Parse(table, dataset.Options{Policy: missingPolicy(), Source: reader.Path()})
	if err != nil {
		return fmt.Errorf("validating %s: %w", reader.Path(), err)
	}

	repo, err := openDB()
	if err != nil {
		return err
	}
	defer repo.Close()

	source := filepath.Base(reader.Path())
	imp, err := repo.ImportTable(ctx, table, source)
	if err != nil {
		return fmt.Errorf("importing %s: %w", reader.Path(), err)
	}
	logger.InfoContext(ctx, "Workbook imported",
		log.FieldOperation, log.OpImport,
		log.FieldSource, source,
		log.FieldRows, ds.Len(),
		"import_id", imp.ID,
		"db", dbPath)
	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d rows from %s (import #%d)\n", ds.Len(), source, imp.ID)

	if !importNotify || !cfg.AMQPEnabled() {
		return nil
	}
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		// The snapshot is stored; dashboards pick it up on their next reload.
		logger.WarnContext(ctx, "Reload notification skipped", log.FieldError, err)
		return nil
	}
	defer client.Close()

	msg := amqp.NewDatasetImportedMessage(source, ds.Len())
	if err := client.PublishDatasetImported(ctx, msg); err != nil {
		return fmt.Errorf("publishing reload notification: %w", err)
	}
	logger.InfoContext(ctx, "Reload notification published", log.FieldMessageID, msg.ID, log.FieldOperation, log.OpPublish)
	return nil
}
