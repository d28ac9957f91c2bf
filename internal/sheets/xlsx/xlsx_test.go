package xlsx

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"pemakaian/internal/core"
	"pemakaian/internal/dataset"
)

func writeWorkbook(t *testing.T, headers []string, rows [][]any) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, "Data", headers, rows))

	path := filepath.Join(t.TempDir(), "GT_merged.xlsx")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func TestReadTableReturnsRawCells(t *testing.T) {
	path := writeWorkbook(t, core.RequiredColumns, [][]any{
		{time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), "PGN", "GT 3.1", "Pemakaian", "Gas", 1500.5, 12.25},
		{time.Date(2024, 1, 6, 0, 0, 0, 0, time.UTC), "Pertamina", "GT 3.1", "Start", "HSD", nil, 3},
	})

	table, err := New(path, "").ReadTable(context.Background())
	require.NoError(t, err)

	assert.Equal(t, core.RequiredColumns, table.Headers)
	require.Len(t, table.Records, 2)
	assert.Equal(t, "1500.5", table.Records[0][5])
	assert.False(t, table.Date1904)

	ds, err := dataset.Parse(table, dataset.Options{})
	require.NoError(t, err)
	rows := ds.Rows()
	assert.Equal(t, "2024-01-05", rows[0].Period.String())
	assert.Equal(t, "2024-01-06", rows[1].Period.String())
	assert.False(t, rows[1].Amount.Valid)
	assert.Equal(t, "12.25", rows[0].CostPerVolume.Decimal.String())
}

func TestReadTableNamedSheet(t *testing.T) {
	path := writeWorkbook(t, []string{"Periode"}, nil)

	_, err := New(path, "Data").ReadTable(context.Background())
	require.NoError(t, err)

	_, err = New(path, "Missing").ReadTable(context.Background())
	assert.Error(t, err)
}

func TestReadTableErrors(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "none.xlsx"), "").ReadTable(context.Background())
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = New("whatever.xlsx", "").ReadTable(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWriteStylesHeaderAndDates(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, "Out", []string{"Periode", "Jumlah"}, [][]any{
		{time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), 7.5},
	}))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Out"}, f.GetSheetList())
	v, err := f.GetCellValue("Out", "B2")
	require.NoError(t, err)
	assert.Equal(t, "7.5", v)

	assert.Error(t, Write(&bytes.Buffer{}, "", nil, nil))
}
