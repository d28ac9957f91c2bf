package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"pemakaian/internal/core"
	"pemakaian/internal/dataset"
)

const (
	// ExportFilename is the suggested name of a CSV download.
	ExportFilename = "filtered_data.csv"
	// ExportContentType is the MIME type of a CSV download.
	ExportContentType = "text/csv"
)

// ExportHeaders returns the export column order: the source headers
// followed by Month and Year.
func ExportHeaders(headers []string) []string {
	out := make([]string, 0, len(headers)+2)
	out = append(out, headers...)
	return append(out, core.ColMonth, core.ColYear)
}

// Records renders rows as strings in ExportHeaders order.
func Records(headers []string, rows []core.Transaction) [][]string {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		rec := make([]string, 0, len(headers)+2)
		for _, h := range headers {
			rec = append(rec, cell(r, h))
		}
		rec = append(rec, strconv.Itoa(r.Month()), strconv.Itoa(r.Year()))
		out = append(out, rec)
	}
	return out
}

// TypedRecords is like Records but keeps dates as time.Time and numbers as
// float64 for spreadsheet output. Missing values are nil.
func TypedRecords(headers []string, rows []core.Transaction) [][]any {
	out := make([][]any, 0, len(rows))
	for _, r := range rows {
		rec := make([]any, 0, len(headers)+2)
		for _, h := range headers {
			switch h {
			case core.ColPeriod:
				rec = append(rec, r.Period.Time)
			case core.ColAmount, core.ColCostPerVolume:
				v := r.Amount
				if h == core.ColCostPerVolume {
					v = r.CostPerVolume
				}
				if v.Valid {
					rec = append(rec, v.Decimal.InexactFloat64())
				} else {
					rec = append(rec, nil)
				}
			default:
				rec = append(rec, cell(r, h))
			}
		}
		rec = append(rec, r.Month(), r.Year())
		out = append(out, rec)
	}
	return out
}

// WriteCSV encodes rows with a header row and no index column. Output is
// deterministic for the same input.
func WriteCSV(w io.Writer, headers []string, rows []core.Transaction) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ExportHeaders(headers)); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	if err := cw.WriteAll(Records(headers, rows)); err != nil {
		return fmt.Errorf("write csv rows: %w", err)
	}
	return nil
}

// ReadCSV decodes a CSV written by WriteCSV, or any CSV carrying the
// required columns, into a Dataset.
func ReadCSV(r io.Reader, opts dataset.Options) (*core.Dataset, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("read csv: no header row")
	}
	headers := rows[0]
	headers[0] = strings.TrimPrefix(headers[0], "\ufeff")
	return dataset.Parse(core.Table{Headers: headers, Records: rows[1:]}, opts)
}

func cell(r core.Transaction, header string) string {
	switch header {
	case core.ColPeriod:
		return r.Period.String()
	case core.ColSupplier:
		return r.Supplier
	case core.ColMachineName:
		return r.MachineName
	case core.ColTransactionType:
		return r.TransactionType
	case core.ColPrimaryEnergy:
		return r.PrimaryEnergy
	case core.ColAmount:
		return core.FormatQuantity(r.Amount)
	case core.ColCostPerVolume:
		return core.FormatQuantity(r.CostPerVolume)
	default:
		return r.Extra[header]
	}
}
