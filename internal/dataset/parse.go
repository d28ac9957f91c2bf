// Package dataset turns raw source tables into immutable transaction
// datasets and keeps the current one available to request handlers.
package dataset

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"pemakaian/internal/core"
	"pemakaian/internal/sheets"
)

// Options control how a table is parsed.
type Options struct {
	Policy core.MissingPolicy
	// Source labels the dataset in logs and status output.
	Source string
	// Now stamps the load time; defaults to time.Now.
	Now func() time.Time
}

// periodLayouts are tried in order for textual Periode cells. Slash dates
// are read month first.
var periodLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"01/02/2006",
	"1/2/2006",
	"01/02/2006 15:04:05",
	"1/2/06",
	"2006/01/02",
	"02-01-2006",
	"20060102",
}

// Excel cannot represent dates past 9999-12-31 (serial 2958465).
const maxExcelSerial = 2958466

// Load reads a table from r and parses it.
func Load(ctx context.Context, r sheets.TableReader, opts Options) (*core.Dataset, error) {
	t, err := r.ReadTable(ctx)
	if err != nil {
		return nil, fmt.Errorf("read table: %w", err)
	}
	ds, err := Parse(t, opts)
	if err != nil {
		return nil, fmt.Errorf("parse table: %w", err)
	}
	return ds, nil
}

// Parse converts a raw table into a Dataset. It fails on the first row
// whose Periode or numeric cells cannot be parsed; there is no partial load.
// Month and Year columns in the input are ignored since they are derived.
func Parse(t core.Table, opts Options) (*core.Dataset, error) {
	if opts.Policy == "" {
		opts.Policy = core.MissingSkip
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	idx := map[string]int{}
	var headers []string
	for i, h := range t.Headers {
		h = strings.TrimSpace(h)
		if h == "" || h == core.ColMonth || h == core.ColYear {
			continue
		}
		if _, dup := idx[h]; dup {
			continue
		}
		idx[h] = i
		headers = append(headers, h)
	}

	var missing []string
	for _, c := range core.RequiredColumns {
		if _, ok := idx[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s (got headers=%v)", core.ErrMissingColumn, strings.Join(missing, ", "), t.Headers)
	}

	required := map[string]bool{}
	for _, c := range core.RequiredColumns {
		required[c] = true
	}

	rows := make([]core.Transaction, 0, len(t.Records))
	for i, rec := range t.Records {
		if blank(rec) {
			continue
		}
		line := i + 2 // 1-based, after the header row
		get := func(col string) string {
			return strings.TrimSpace(safeGet(rec, idx[col]))
		}

		period, err := ParsePeriod(get(core.ColPeriod), t.Date1904)
		if err != nil {
			return nil, fmt.Errorf("row %d, column %q: %w", line, core.ColPeriod, err)
		}
		amount, err := parseNumber(get(core.ColAmount), opts.Policy)
		if err != nil {
			return nil, fmt.Errorf("row %d, column %q: %w", line, core.ColAmount, err)
		}
		cost, err := parseNumber(get(core.ColCostPerVolume), opts.Policy)
		if err != nil {
			return nil, fmt.Errorf("row %d, column %q: %w", line, core.ColCostPerVolume, err)
		}

		tx := core.Transaction{
			Period:          period,
			Supplier:        get(core.ColSupplier),
			MachineName:     get(core.ColMachineName),
			TransactionType: get(core.ColTransactionType),
			PrimaryEnergy:   get(core.ColPrimaryEnergy),
			Amount:          amount,
			CostPerVolume:   cost,
		}
		for _, h := range headers {
			if required[h] {
				continue
			}
			if tx.Extra == nil {
				tx.Extra = make(map[string]string)
			}
			tx.Extra[h] = safeGet(rec, idx[h])
		}
		rows = append(rows, tx)
	}

	return core.NewDataset(headers, rows, opts.Source, opts.Now()), nil
}

// ParsePeriod parses a Periode cell: an Excel serial number or one of the
// accepted text layouts. A bare four digit number is a year and maps to
// 1 January. The result is truncated to the calendar day.
func ParsePeriod(s string, date1904 bool) (core.Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return core.Date{}, fmt.Errorf("%w: empty", core.ErrInvalidPeriod)
	}
	if isYear(s) {
		t, err := time.Parse("2006", s)
		if err != nil {
			return core.Date{}, fmt.Errorf("%w: %q: %v", core.ErrInvalidPeriod, s, err)
		}
		return core.DateOf(t), nil
	}
	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial > 0 && serial < maxExcelSerial && !math.IsNaN(serial) {
		t, err := excelize.ExcelDateToTime(serial, date1904)
		if err != nil {
			return core.Date{}, fmt.Errorf("%w: %q: %v", core.ErrInvalidPeriod, s, err)
		}
		return core.DateOf(t), nil
	}
	for _, layout := range periodLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return core.DateOf(t), nil
		}
	}
	return core.Date{}, fmt.Errorf("%w: %q", core.ErrInvalidPeriod, s)
}

func parseNumber(s string, policy core.MissingPolicy) (v decimal.NullDecimal, err error) {
	v, err = core.ParseQuantity(s)
	if err != nil {
		return v, err
	}
	if !v.Valid && policy == core.MissingError {
		return v, core.ErrMissingValue
	}
	return v, nil
}

func isYear(s string) bool {
	if len(s) != 4 || s[0] == '0' {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func safeGet(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return rec[i]
}

func blank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
