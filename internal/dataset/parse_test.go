package dataset

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pemakaian/internal/core"
	"pemakaian/internal/sheets/memory"
)

var headers = []string{"Periode", "Supplier", "Nama Mesin", "Tipe Transaksi", "Energi Primer", "Jumlah", "Biaya Rp/Volume"}

func fixedNow() time.Time { return time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC) }

func TestParseBuildsTransactions(t *testing.T) {
	tbl := core.Table{
		Headers: append(append([]string{}, headers...), "Keterangan", "Month"),
		Records: [][]string{
			{"45296", "A", "M1", "X", "Gas", "10", "1500", "first", "99"},
			{"2024-01-05", " B ", "M1", "X", "HSD", "20.5", "", "", ""},
			{"", "", "", "", "", "", "", "", ""},
		},
	}
	ds, err := Parse(tbl, Options{Source: "test", Now: fixedNow})
	require.NoError(t, err)
	require.Equal(t, 2, ds.Len())

	rows := ds.Rows()
	assert.Equal(t, "2024-01-05", rows[0].Period.String())
	assert.Equal(t, 1, rows[0].Month())
	assert.Equal(t, 2024, rows[0].Year())
	assert.Equal(t, "10", rows[0].Amount.Decimal.String())
	assert.Equal(t, "first", rows[0].Extra["Keterangan"])

	assert.Equal(t, "B", rows[1].Supplier)
	assert.Equal(t, "20.5", rows[1].Amount.Decimal.String())
	assert.False(t, rows[1].CostPerVolume.Valid)

	// Month is derived, so the source column is dropped.
	assert.Equal(t, append(append([]string{}, headers...), "Keterangan"), ds.Headers())
	assert.Equal(t, "test", ds.Source())
	assert.Equal(t, fixedNow(), ds.LoadedAt())
}

func TestParseMissingColumn(t *testing.T) {
	_, err := Parse(core.Table{Headers: headers[:3]}, Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrMissingColumn))
	assert.Contains(t, err.Error(), "Tipe Transaksi")
}

func TestParseRejectsBadCells(t *testing.T) {
	cases := map[string]struct {
		row  []string
		want error
	}{
		"bad period":       {[]string{"soon", "A", "M1", "X", "Gas", "1", "1"}, core.ErrInvalidPeriod},
		"bad amount":       {[]string{"2024-01-05", "A", "M1", "X", "Gas", "ten", "1"}, core.ErrInvalidNumber},
		"bad cost":         {[]string{"2024-01-05", "A", "M1", "X", "Gas", "1", "n/a"}, core.ErrInvalidNumber},
		"grouped amount":   {[]string{"2024-01-05", "A", "M1", "X", "Gas", "1,500", "1"}, core.ErrInvalidNumber},
		"dotted thousands": {[]string{"2024-01-05", "A", "M1", "X", "Gas", "1", "1.500.000"}, core.ErrInvalidNumber},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(core.Table{Headers: headers, Records: [][]string{tc.row}}, Options{})
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.want)
			assert.Contains(t, err.Error(), "row 2")
		})
	}
}

func TestParseErrorPolicyRejectsMissing(t *testing.T) {
	tbl := core.Table{Headers: headers, Records: [][]string{{"2024-01-05", "A", "M1", "X", "Gas", "", "1"}}}

	_, err := Parse(tbl, Options{Policy: core.MissingError})
	assert.ErrorIs(t, err, core.ErrMissingValue)

	ds, err := Parse(tbl, Options{Policy: core.MissingSkip})
	require.NoError(t, err)
	assert.False(t, ds.Rows()[0].Amount.Valid)
}

func TestParsePeriod(t *testing.T) {
	cases := []struct {
		in       string
		date1904 bool
		want     string
	}{
		{"45296", false, "2024-01-05"},
		{"45296.75", false, "2024-01-05"},
		{"43834", true, "2024-01-05"},
		{"2024-01-05", false, "2024-01-05"},
		{"2024-01-05 13:30:00", false, "2024-01-05"},
		{"2024-01-05T13:30:00Z", false, "2024-01-05"},
		{"01/05/2024", false, "2024-01-05"},
		{"1/5/2024", false, "2024-01-05"},
		{"20240105", false, "2024-01-05"},
		{"2024", false, "2024-01-01"},
		{"45296.0", false, "2024-01-05"},
	}
	for _, tc := range cases {
		got, err := ParsePeriod(tc.in, tc.date1904)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got.String(), tc.in)
	}

	for _, bad := range []string{"", "  ", "yesterday", "-4", "2024-13-40"} {
		_, err := ParsePeriod(bad, false)
		assert.ErrorIs(t, err, core.ErrInvalidPeriod, bad)
	}
}

func TestLoadFromReader(t *testing.T) {
	src := memory.New(core.Table{Headers: headers, Records: [][]string{{"2024-01-05", "A", "M1", "X", "Gas", "1", "2"}}})
	ds, err := Load(context.Background(), src, Options{Source: "memory"})
	require.NoError(t, err)
	assert.Equal(t, 1, ds.Len())
}
