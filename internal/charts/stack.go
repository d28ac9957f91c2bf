package charts

import (
	"github.com/wcharczuk/go-chart/v2"

	"pemakaian/internal/core"
)

// stackBarWidth is the bar width in date slots.
const stackBarWidth = 0.6

type segment struct {
	X, Lo, Hi float64
}

// stackSeries draws one supplier's share of every stacked bar.
type stackSeries struct {
	Name     string
	Style    chart.Style
	Segments []segment
}

var _ chart.Series = stackSeries{}

func (s stackSeries) GetName() string           { return s.Name }
func (s stackSeries) GetYAxis() chart.YAxisType { return chart.YAxisPrimary }
func (s stackSeries) GetStyle() chart.Style     { return s.Style }
func (s stackSeries) Validate() error           { return nil }

func (s stackSeries) Render(r chart.Renderer, canvasBox chart.Box, xrange, yrange chart.Range, defaults chart.Style) {
	style := s.Style.InheritFrom(defaults)
	for _, seg := range s.Segments {
		box := chart.Box{
			Left:   canvasBox.Left + xrange.Translate(seg.X-stackBarWidth/2),
			Right:  canvasBox.Left + xrange.Translate(seg.X+stackBarWidth/2),
			Top:    canvasBox.Bottom - yrange.Translate(seg.Hi),
			Bottom: canvasBox.Bottom - yrange.Translate(seg.Lo),
		}
		chart.Draw.Box(r, box, style)
	}
}

// stackSuppliers lays out the breakdown as one series per supplier, in
// order of first appearance. data must be sorted by date. Each date gets a
// slot; positive amounts build upward from zero, negative amounts downward.
func stackSuppliers(data []core.SupplierDailyAmount) ([]stackSeries, []core.Date) {
	var (
		series []stackSeries
		days   []core.Date
		pos    float64
		neg    float64
	)
	index := map[string]int{}

	for _, d := range data {
		if len(days) == 0 || !d.Date.Equal(days[len(days)-1].Time) {
			days = append(days, d.Date)
			pos, neg = 0, 0
		}
		i, ok := index[d.Supplier]
		if !ok {
			c := pastel[len(series)%len(pastel)]
			i = len(series)
			index[d.Supplier] = i
			series = append(series, stackSeries{
				Name:  label(d.Supplier),
				Style: chart.Style{FillColor: c, StrokeColor: c, StrokeWidth: 1},
			})
		}

		seg := segment{X: float64(len(days) - 1)}
		v := d.Amount.InexactFloat64()
		if v >= 0 {
			seg.Lo, seg.Hi = pos, pos+v
			pos = seg.Hi
		} else {
			seg.Lo, seg.Hi = neg+v, neg
			neg = seg.Lo
		}
		series[i].Segments = append(series[i].Segments, seg)
	}
	return series, days
}
