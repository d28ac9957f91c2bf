package charts

import (
	"bytes"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pemakaian/internal/core"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func sampleSummary() core.Summary {
	d1, d2 := core.NewDate(2024, 1, 5), core.NewDate(2024, 1, 6)
	return core.Summary{
		ByTransactionType: []core.CategoryAmount{
			{Name: "Pemakaian", Amount: dec("1200.5")},
			{Name: "Penerimaan", Amount: dec("800")},
		},
		EnergyDistribution: []core.CategoryCount{
			{Name: "Gas", Count: 3},
			{Name: "HSD", Count: 1},
		},
		MeanCostBySupplier: []core.CategoryMean{
			{Name: "A", Mean: decimal.NewNullDecimal(dec("15000"))},
			{Name: "B"},
			{Name: "C", Mean: decimal.NewNullDecimal(dec("9000.25"))},
		},
		DailyTotals: []core.DailyAmount{
			{Date: d1, Amount: dec("30")},
			{Date: d2, Amount: dec("45")},
		},
		SupplierBreakdown: []core.SupplierDailyAmount{
			{Date: d1, Supplier: "A", Amount: dec("10")},
			{Date: d1, Supplier: "B", Amount: dec("20")},
			{Date: d2, Supplier: "A", Amount: dec("45")},
		},
	}
}

func TestRenderAllCharts(t *testing.T) {
	r := New()
	s := sampleSummary()
	for _, name := range All {
		t.Run(string(name), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, r.Render(&buf, name, s))
			out := buf.String()
			assert.Contains(t, out, "<svg")
			assert.Contains(t, out, name.Title())
		})
	}
}

func TestRenderSingleDay(t *testing.T) {
	r := New()
	d := core.NewDate(2024, 1, 5)

	var buf bytes.Buffer
	require.NoError(t, r.Daily(&buf, []core.DailyAmount{{Date: d, Amount: dec("30")}}))
	assert.Contains(t, buf.String(), "<svg")

	buf.Reset()
	require.NoError(t, r.SupplierBreakdown(&buf, []core.SupplierDailyAmount{{Date: d, Supplier: "A", Amount: dec("10")}}))
	assert.Contains(t, buf.String(), "<svg")
}

func TestRenderEmptyViews(t *testing.T) {
	r := New()
	var buf bytes.Buffer
	assert.ErrorIs(t, r.TransactionTypes(&buf, nil), ErrNoData)
	assert.ErrorIs(t, r.Energy(&buf, nil), ErrNoData)
	assert.ErrorIs(t, r.CostBySupplier(&buf, []core.CategoryMean{{Name: "A"}}), ErrNoData)
	assert.ErrorIs(t, r.Daily(&buf, nil), ErrNoData)
	assert.ErrorIs(t, r.SupplierBreakdown(&buf, nil), ErrNoData)
}

func TestSupplierBreakdownKeepsNegativeAndZeroAmounts(t *testing.T) {
	r := New()
	d1, d2 := core.NewDate(2024, 1, 5), core.NewDate(2024, 1, 6)

	var buf bytes.Buffer
	require.NoError(t, r.SupplierBreakdown(&buf, []core.SupplierDailyAmount{
		{Date: d1, Supplier: "Alpha", Amount: dec("-10")},
		{Date: d1, Supplier: "Beta", Amount: dec("20")},
	}))
	assert.Contains(t, buf.String(), "Alpha")
	assert.Contains(t, buf.String(), "Beta")

	buf.Reset()
	require.NoError(t, r.SupplierBreakdown(&buf, []core.SupplierDailyAmount{
		{Date: d1, Supplier: "Alpha", Amount: decimal.Zero},
		{Date: d2, Supplier: "Beta", Amount: decimal.Zero},
	}))
	assert.Contains(t, buf.String(), "<svg")
	assert.Contains(t, buf.String(), "Beta")
}

func TestStackSuppliers(t *testing.T) {
	d1, d2 := core.NewDate(2024, 1, 5), core.NewDate(2024, 1, 6)
	series, days := stackSuppliers([]core.SupplierDailyAmount{
		{Date: d1, Supplier: "A", Amount: dec("10")},
		{Date: d1, Supplier: "B", Amount: dec("-4")},
		{Date: d1, Supplier: "C", Amount: dec("5")},
		{Date: d1, Supplier: "", Amount: dec("-1")},
		{Date: d2, Supplier: "B", Amount: dec("7")},
	})

	require.Equal(t, []core.Date{d1, d2}, days)
	require.Len(t, series, 4)
	assert.Equal(t, "A", series[0].Name)
	assert.Equal(t, "(kosong)", series[3].Name)

	assert.Equal(t, []segment{{X: 0, Lo: 0, Hi: 10}}, series[0].Segments)
	assert.Equal(t, []segment{{X: 0, Lo: -4, Hi: 0}, {X: 1, Lo: 0, Hi: 7}}, series[1].Segments)
	assert.Equal(t, []segment{{X: 0, Lo: 10, Hi: 15}}, series[2].Segments)
	assert.Equal(t, []segment{{X: 0, Lo: -5, Hi: -4}}, series[3].Segments)
	assert.NotEqual(t, series[0].Style.FillColor, series[1].Style.FillColor)
}

func TestParseName(t *testing.T) {
	for _, n := range All {
		got, err := ParseName(string(n))
		require.NoError(t, err)
		assert.Equal(t, n, got)
		assert.NotEmpty(t, n.Title())
	}
	_, err := ParseName("radar")
	assert.ErrorIs(t, err, ErrUnknownChart)

	err = New().Render(&bytes.Buffer{}, Name("radar"), core.Summary{})
	assert.ErrorIs(t, err, ErrUnknownChart)
}

func TestYRange(t *testing.T) {
	cases := []struct {
		in     []float64
		lo, hi float64
	}{
		{[]float64{0, 0}, 0, 1.1},
		{[]float64{5}, 0, 5.5},
		{[]float64{-10, 0}, -11, 0},
		{[]float64{-10, 10}, -12, 12},
	}
	for _, tc := range cases {
		lo, hi := yRange(tc.in)
		assert.InDelta(t, tc.lo, lo, 1e-9, "%v", tc.in)
		assert.InDelta(t, tc.hi, hi, 1e-9, "%v", tc.in)
		assert.Less(t, lo, hi)
	}
}
