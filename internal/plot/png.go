package plot

import (
	"fmt"
	"io"
	"math"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/KaramelBytes/leaseup/internal/dataset"
)

// RenderPNG draws a static scatter. An empty table renders empty axes over [0, 1].
func RenderPNG(w io.Writer, t *dataset.Table, opt Options) error {
	opt = opt.withDefaults()
	groups := Group(t)

	series := make([]chart.Series, 0, len(groups)+1)
	for _, cp := range groups {
		series = append(series, chart.ContinuousSeries{
			Name:    cp.Name(),
			XValues: cp.X,
			YValues: cp.Y,
			Style:   pointStyle(drawingColor(cp.Cluster)),
		})
	}
	xr, yr := axisRange(groups, func(c ClusterPoints) []float64 { return c.X }), axisRange(groups, func(c ClusterPoints) []float64 { return c.Y })
	if len(series) == 0 {
		// go-chart refuses to render without a series; draw a single invisible point.
		series = append(series, chart.ContinuousSeries{
			XValues: []float64{xr.Min},
			YValues: []float64{yr.Min},
			Style:   chart.Style{StrokeWidth: chart.Disabled, DotWidth: chart.Disabled},
		})
	}

	grid := chart.Style{StrokeColor: drawing.ColorFromHex("dddddd"), StrokeWidth: 1}
	title := opt.Title
	if opt.Subtitle != "" {
		title += " - " + opt.Subtitle
	}
	ch := chart.Chart{
		Title:      title,
		Width:      opt.Width,
		Height:     opt.Height,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		XAxis:      chart.XAxis{Name: xAxisName, Range: xr, GridMajorStyle: grid},
		YAxis:      chart.YAxis{Name: yAxisName, Range: yr, GridMajorStyle: grid},
		Series:     series,
	}
	if len(groups) > 0 {
		ch.Elements = []chart.Renderable{chart.Legend(&ch)}
	}
	if err := ch.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("render scatter png: %w", err)
	}
	return nil
}

// pointStyle renders points only, with no connecting line.
func pointStyle(col drawing.Color) chart.Style {
	return chart.Style{
		StrokeWidth: chart.Disabled,
		DotWidth:    4,
		DotColor:    col,
	}
}

// axisRange spans all values with 5% padding. Degenerate spans are widened by 1.
func axisRange(groups []ClusterPoints, pick func(ClusterPoints) []float64) *chart.ContinuousRange {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, g := range groups {
		for _, v := range pick(g) {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}
	if math.IsInf(lo, 0) || math.IsInf(hi, 0) {
		return &chart.ContinuousRange{Min: 0, Max: 1}
	}
	if hi == lo {
		return &chart.ContinuousRange{Min: lo - 1, Max: hi + 1}
	}
	pad := (hi - lo) * 0.05
	return &chart.ContinuousRange{Min: lo - pad, Max: hi + pad}
}
