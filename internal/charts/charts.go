// Package charts renders the dashboard summary views as SVG with go-chart.
package charts

import (
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"pemakaian/internal/core"
)

// Name identifies one of the dashboard charts.
type Name string

const (
	TransactionTypes  Name = "transaction-types"
	Energy            Name = "energy"
	CostBySupplier    Name = "cost-by-supplier"
	Daily             Name = "daily"
	SupplierBreakdown Name = "supplier-breakdown"
)

// All lists the charts in display order.
var All = []Name{TransactionTypes, Energy, CostBySupplier, Daily, SupplierBreakdown}

// ContentType is the MIME type of rendered charts.
const ContentType = chart.ContentTypeSVG

var (
	ErrUnknownChart = errors.New("unknown chart")
	ErrNoData       = errors.New("no data to chart")
)

var titles = map[Name]string{
	TransactionTypes:  "Total Pemakaian Mesin Berdasarkan Tipe Transaksi",
	Energy:            "Distribusi Energi Primer",
	CostBySupplier:    "Biaya per Volume per Supplier",
	Daily:             "Jumlah Pemakaian Mesin Harian",
	SupplierBreakdown: "Rincian Pemakaian Mesin per Supplier",
}

// Palettes.
var (
	barBlue   = color("636EFA")
	barGreen  = color("00CC96")
	lineRed   = color("EF553B")
	rdBu      = colors("67001F", "B2182B", "D6604D", "F4A582", "FDDBC7", "F7F7F7", "D1E5F0", "92C5DE", "4393C3", "2166AC", "053061")
	pastel    = colors("66C5CC", "F6CF71", "F89C74", "DCB0F2", "87C55F", "9EB9F3", "FE88B1", "C9DB74", "8BE0A4", "B497E7", "D3B484", "B3B3B3")
	textColor = color("2A3F5F")
)

// ParseName validates a chart name from a URL.
func ParseName(s string) (Name, error) {
	for _, n := range All {
		if string(n) == s {
			return n, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownChart, s)
}

// Title returns the heading shown above a chart.
func (n Name) Title() string {
	return titles[n]
}

// Renderer draws charts at a fixed size.
type Renderer struct {
	Width  int
	Height int
}

func New() *Renderer {
	return &Renderer{Width: 720, Height: 400}
}

// Render writes chart name for summary s as SVG.
func (r *Renderer) Render(w io.Writer, name Name, s core.Summary) error {
	switch name {
	case TransactionTypes:
		return r.TransactionTypes(w, s.ByTransactionType)
	case Energy:
		return r.Energy(w, s.EnergyDistribution)
	case CostBySupplier:
		return r.CostBySupplier(w, s.MeanCostBySupplier)
	case Daily:
		return r.Daily(w, s.DailyTotals)
	case SupplierBreakdown:
		return r.SupplierBreakdown(w, s.SupplierBreakdown)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownChart, name)
	}
}

// TransactionTypes is a bar per transaction type.
func (r *Renderer) TransactionTypes(w io.Writer, data []core.CategoryAmount) error {
	values := make([]float64, len(data))
	labels := make([]string, len(data))
	for i, d := range data {
		values[i] = d.Amount.InexactFloat64()
		labels[i] = d.Name
	}
	return r.bars(w, TransactionTypes, labels, values, barBlue)
}

// CostBySupplier is a bar per supplier; suppliers without a mean are left
// out.
func (r *Renderer) CostBySupplier(w io.Writer, data []core.CategoryMean) error {
	var labels []string
	var values []float64
	for _, d := range data {
		if !d.Mean.Valid {
			continue
		}
		labels = append(labels, d.Name)
		values = append(values, d.Mean.Decimal.InexactFloat64())
	}
	return r.bars(w, CostBySupplier, labels, values, barGreen)
}

// Energy is a pie of row counts per primary energy.
func (r *Renderer) Energy(w io.Writer, data []core.CategoryCount) error {
	var values []chart.Value
	for i, d := range data {
		if d.Count <= 0 {
			continue
		}
		c := rdBu[i%len(rdBu)]
		values = append(values, chart.Value{
			Value: float64(d.Count),
			Label: fmt.Sprintf("%s (%d)", label(d.Name), d.Count),
			Style: chart.Style{FillColor: c, StrokeColor: drawing.ColorWhite, StrokeWidth: 1, FontColor: contrast(c)},
		})
	}
	if len(values) == 0 {
		return ErrNoData
	}
	pie := chart.PieChart{
		Title:      Energy.Title(),
		TitleStyle: titleStyle(),
		Width:      r.Width,
		Height:     r.Height,
		Values:     values,
	}
	return pie.Render(chart.SVG, w)
}

// Daily is a line of totals per date. A single date is widened by a day
// so the time axis has a range.
func (r *Renderer) Daily(w io.Writer, data []core.DailyAmount) error {
	if len(data) == 0 {
		return ErrNoData
	}
	xs := make([]time.Time, len(data))
	ys := make([]float64, len(data))
	for i, d := range data {
		xs[i] = d.Date.Time
		ys[i] = d.Amount.InexactFloat64()
	}
	if len(xs) == 1 {
		xs = append(xs, xs[0].Add(24*time.Hour))
		ys = append(ys, ys[0])
	}
	lo, hi := yRange(ys)

	ch := chart.Chart{
		Title:      Daily.Title(),
		TitleStyle: titleStyle(),
		Width:      r.Width,
		Height:     r.Height,
		Background: chart.Style{Padding: chart.Box{Top: 50, Left: 20, Right: 20, Bottom: 20}},
		XAxis: chart.XAxis{
			Name:           core.ColPeriod,
			ValueFormatter: chart.TimeDateValueFormatter,
		},
		YAxis: chart.YAxis{
			Name:           core.ColAmount,
			Range:          &chart.ContinuousRange{Min: lo, Max: hi},
			ValueFormatter: numberFormatter,
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    core.ColAmount,
				XValues: xs,
				YValues: ys,
				Style: chart.Style{
					StrokeColor: lineRed,
					StrokeWidth: 2,
					DotColor:    lineRed,
					DotWidth:    3,
				},
			},
		},
	}
	return ch.Render(chart.SVG, w)
}

// SupplierBreakdown stacks supplier amounts per date. Positive amounts
// stack up from zero and negative ones down from zero, one legend entry per
// supplier.
func (r *Renderer) SupplierBreakdown(w io.Writer, data []core.SupplierDailyAmount) error {
	if len(data) == 0 {
		return ErrNoData
	}
	series, days := stackSuppliers(data)

	var ends []float64
	for _, s := range series {
		for _, seg := range s.Segments {
			ends = append(ends, seg.Lo, seg.Hi)
		}
	}
	lo, hi := yRange(ends)

	ticks := make([]chart.Tick, 0, len(days)+2)
	ticks = append(ticks, chart.Tick{Value: -0.5})
	for i, d := range days {
		ticks = append(ticks, chart.Tick{Value: float64(i), Label: d.Format("02 Jan")})
	}
	ticks = append(ticks, chart.Tick{Value: float64(len(days)) - 0.5})

	ch := chart.Chart{
		Title:      SupplierBreakdown.Title(),
		TitleStyle: titleStyle(),
		Width:      r.Width,
		Height:     r.Height,
		Background: chart.Style{Padding: chart.Box{Top: 50, Left: 20, Right: 20, Bottom: 20}},
		XAxis: chart.XAxis{
			Name:  core.ColPeriod,
			Ticks: ticks,
		},
		YAxis: chart.YAxis{
			Name:           core.ColAmount,
			Range:          &chart.ContinuousRange{Min: lo, Max: hi},
			ValueFormatter: numberFormatter,
		},
	}
	for _, s := range series {
		ch.Series = append(ch.Series, s)
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}
	return ch.Render(chart.SVG, w)
}

func (r *Renderer) bars(w io.Writer, name Name, labels []string, values []float64, c drawing.Color) error {
	if len(values) == 0 {
		return ErrNoData
	}
	bars := make([]chart.Value, len(values))
	for i, v := range values {
		bars[i] = chart.Value{
			Value: v,
			Label: label(labels[i]),
			Style: chart.Style{FillColor: c, StrokeColor: c},
		}
	}
	lo, hi := yRange(values)
	bc := chart.BarChart{
		Title:        name.Title(),
		TitleStyle:   titleStyle(),
		Width:        r.Width,
		Height:       r.Height,
		Background:   chart.Style{Padding: chart.Box{Top: 50}},
		BarWidth:     barWidth(len(values), r.Width),
		BarSpacing:   barSpacing(len(values), r.Width),
		UseBaseValue: true,
		YAxis: chart.YAxis{
			Range:          &chart.ContinuousRange{Min: lo, Max: hi},
			ValueFormatter: numberFormatter,
		},
		Bars: bars,
	}
	return bc.Render(chart.SVG, w)
}

// yRange returns axis bounds that include zero and are never empty.
func yRange(values []float64) (lo, hi float64) {
	lo, hi = 0, 0
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if hi <= lo {
		hi = lo + 1
	}
	pad := (hi - lo) * 0.1
	if hi > 0 {
		hi += pad
	}
	if lo < 0 {
		lo -= pad
	}
	return lo, hi
}

func barWidth(n, width int) int {
	bw := (width - 120) / (2 * n)
	return max(8, min(60, bw))
}

func barSpacing(n, width int) int {
	sp := (width - 120) / (3 * n)
	return max(4, min(40, sp))
}

func numberFormatter(v interface{}) string {
	f, ok := v.(float64)
	if !ok {
		return fmt.Sprint(v)
	}
	switch {
	case math.Abs(f) >= 1e6:
		return fmt.Sprintf("%.1fM", f/1e6)
	case math.Abs(f) >= 1e3:
		return fmt.Sprintf("%.1fk", f/1e3)
	default:
		return fmt.Sprintf("%.2f", f)
	}
}

func titleStyle() chart.Style {
	return chart.Style{FontColor: textColor, FontSize: 13}
}

// label keeps blank category values visible on axes and legends.
func label(s string) string {
	if s == "" {
		return "(kosong)"
	}
	return s
}

func color(hex string) drawing.Color {
	return drawing.ColorFromHex(hex)
}

func colors(hex ...string) []drawing.Color {
	out := make([]drawing.Color, len(hex))
	for i, h := range hex {
		out[i] = color(h)
	}
	return out
}

// contrast picks black or white text for a fill.
func contrast(c drawing.Color) drawing.Color {
	lum := 0.299*float64(c.R) + 0.587*float64(c.G) + 0.114*float64(c.B)
	if lum > 150 {
		return textColor
	}
	return drawing.ColorWhite
}
