package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"pemakaian/internal/backend"
	"pemakaian/internal/core"
	"pemakaian/internal/dataset"
	"pemakaian/internal/log"
	"pemakaian/internal/report"
	"pemakaian/internal/sheets/xlsx"
)

var (
	exportSource    string
	exportSuppliers []string
	exportMachines  []string
	exportMonth     int
	exportYear      int
	exportFormat    string
	exportOut       string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export filtered rows as CSV or XLSX",
	Long: `Loads the dataset from the configured backend, applies the filters and
writes the matching rows with Month and Year appended. Omitted filters fall
back to the dashboard defaults: every supplier and machine, and the first
month and year in the data.`,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportSource, "source", "", "backend to read: "+backendNames()+" (default is $DATA_BACKEND)")
	exportCmd.Flags().StringArrayVar(&exportSuppliers, "supplier", nil, "supplier to include (repeatable)")
	exportCmd.Flags().StringArrayVar(&exportMachines, "machine", nil, "machine name to include (repeatable)")
	exportCmd.Flags().IntVar(&exportMonth, "month", 0, "month 1-12")
	exportCmd.Flags().IntVar(&exportYear, "year", 0, "year")
	exportCmd.Flags().StringVar(&exportFormat, "format", "csv", "output format: csv or xlsx")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output file (default is stdout)")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	format, err := parseExportFormat(exportFormat)
	if err != nil {
		return err
	}
	if err := validateSource(exportSource); err != nil {
		return err
	}

	ds, err := loadDataset(ctx)
	if err != nil {
		return err
	}

	sel, err := buildSelection(ds, exportSuppliers, exportMachines, exportMonth, exportYear)
	if err != nil {
		return err
	}
	res := report.Run(ds, sel, missingPolicy())
	if res.Empty {
		return errors.New(res.Message)
	}

	if exportOut == "" {
		err = writeExport(cmd.OutOrStdout(), format, ds.Headers(), res.Rows)
	} else {
		err = writeExportFile(exportOut, format, ds.Headers(), res.Rows)
	}
	if err != nil {
		return err
	}
	logger.InfoContext(ctx, "Export written",
		append(log.NewFields().
			WithOperation(log.OpExport).
			WithSelection(sel.Suppliers, sel.Month, sel.Year, sel.Machines).
			ToSlice(), log.FieldRows, len(res.Rows), "format", format)...)
	return nil
}

// loadDataset reads the dataset from --source or the configured backend.
func loadDataset(ctx context.Context) (*core.Dataset, error) {
	appCfg := *cfg
	if exportSource != "" {
		appCfg.DataBackend = exportSource
	}
	appCfg.SQLiteDBPath = dbPath

	bcfg, err := backend.FromAppConfig(&appCfg)
	if err != nil {
		return nil, err
	}
	res, err := backend.NewFactory(logger).CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, err
	}
	if res.Cleanup != nil {
		defer res.Cleanup()
	}
	return dataset.Load(ctx, res.Backend, dataset.Options{Policy: missingPolicy(), Source: appCfg.DataBackend})
}

// buildSelection applies explicit filters over the default selection.
func buildSelection(ds *core.Dataset, suppliers, machines []string, month, year int) (core.Selection, error) {
	sel := report.DefaultSelection(ds)
	if len(suppliers) > 0 {
		sel.Suppliers = trimAll(suppliers)
	}
	if len(machines) > 0 {
		sel.Machines = trimAll(machines)
	}
	if month != 0 {
		if month < 1 || month > 12 {
			return core.Selection{}, fmt.Errorf("%w: %d", core.ErrInvalidMonth, month)
		}
		sel.Month = month
	}
	if year != 0 {
		sel.Year = year
	}
	return sel, nil
}

// validateSource checks a --source value; empty keeps $DATA_BACKEND.
func validateSource(source string) error {
	if source == "" || backend.BackendType(source).IsValid() {
		return nil
	}
	return fmt.Errorf("unknown source %q: must be one of %s", source, backendNames())
}

func backendNames() string {
	types := backend.GetBackendTypes()
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}

func parseExportFormat(format string) (string, error) {
	switch f := strings.ToLower(strings.TrimSpace(format)); f {
	case "csv", "xlsx":
		return f, nil
	default:
		return "", fmt.Errorf("unsupported format %q: must be csv or xlsx", format)
	}
}

// writeExportFile writes the export to path. A failed write leaves no file
// behind.
func writeExportFile(path, format string, headers []string, rows []core.Transaction) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := writeExport(f, format, headers, rows); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	return nil
}

func writeExport(w io.Writer, format string, headers []string, rows []core.Transaction) error {
	switch strings.ToLower(format) {
	case "csv":
		return report.WriteCSV(w, headers, rows)
	case "xlsx":
		return xlsx.Write(w, "filtered_data", report.ExportHeaders(headers), report.TypedRecords(headers, rows))
	default:
		return fmt.Errorf("unsupported format %q: must be csv or xlsx", format)
	}
}

func trimAll(in []string) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(v)
	}
	return out
}
