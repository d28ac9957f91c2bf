// Package xlsx reads and writes transaction tables as Excel workbooks.
package xlsx

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"pemakaian/internal/core"
	ports "pemakaian/internal/sheets"
)

var _ ports.TableReader = (*Reader)(nil)

// Reader loads the transaction table from a workbook on disk.
type Reader struct {
	path  string
	sheet string
}

// New returns a Reader for path. An empty sheet selects the first sheet.
func New(path, sheet string) *Reader {
	return &Reader{path: path, sheet: strings.TrimSpace(sheet)}
}

// Path returns the workbook location.
func (r *Reader) Path() string {
	return r.path
}

// ReadTable implements sheets.TableReader. Cells are read raw, so dates
// come back as Excel serial numbers and numbers without display formatting.
func (r *Reader) ReadTable(ctx context.Context) (core.Table, error) {
	if err := ctx.Err(); err != nil {
		return core.Table{}, err
	}
	f, err := excelize.OpenFile(r.path)
	if err != nil {
		return core.Table{}, fmt.Errorf("open workbook %s: %w", r.path, err)
	}
	defer f.Close()

	sheet := r.sheet
	if sheet == "" {
		list := f.GetSheetList()
		if len(list) == 0 {
			return core.Table{}, fmt.Errorf("workbook %s has no sheets", r.path)
		}
		sheet = list[0]
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return core.Table{}, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return core.Table{}, fmt.Errorf("sheet %q is empty", sheet)
	}

	props, err := f.GetWorkbookProps()
	if err != nil {
		return core.Table{}, fmt.Errorf("read workbook properties: %w", err)
	}

	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = strings.TrimSpace(h)
	}
	return core.Table{
		Headers:  headers,
		Records:  rows[1:],
		Date1904: props.Date1904 != nil && *props.Date1904,
	}, nil
}

// Write encodes headers and typed records into a single-sheet workbook.
// time.Time values are written as dates, nil as empty cells.
func Write(w io.Writer, sheet string, headers []string, records [][]any) error {
	if sheet == "" {
		return errors.New("sheet name is required")
	}
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"DDEBF7"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	dateStyle, err := f.NewStyle(&excelize.Style{NumFmt: 14})
	if err != nil {
		return fmt.Errorf("create date style: %w", err)
	}

	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return fmt.Errorf("write header %q: %w", h, err)
		}
		if err := f.SetCellStyle(sheet, cell, cell, headerStyle); err != nil {
			return fmt.Errorf("style header %q: %w", h, err)
		}
	}

	for r, rec := range records {
		for c, v := range rec {
			if v == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return fmt.Errorf("write row %d: %w", r+2, err)
			}
			if _, isDate := v.(time.Time); isDate {
				if err := f.SetCellStyle(sheet, cell, cell, dateStyle); err != nil {
					return fmt.Errorf("style row %d: %w", r+2, err)
				}
			}
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
