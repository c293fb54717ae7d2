package plot

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/KaramelBytes/leaseup/internal/dataset"
)

// NewScatter builds an interactive echarts scatter with one series per cluster.
func NewScatter(t *dataset.Table, opt Options) *charts.Scatter {
	opt = opt.withDefaults()
	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: opt.Title,
			Width:     fmt.Sprintf("%dpx", opt.Width),
			Height:    fmt.Sprintf("%dpx", opt.Height),
		}),
		charts.WithTitleOpts(opts.Title{Title: opt.Title, Subtitle: opt.Subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: pointer(true), Trigger: "item"}),
		charts.WithLegendOpts(opts.Legend{Show: pointer(true), Right: "10"}),
		charts.WithXAxisOpts(opts.XAxis{
			Name:      xAxisName,
			Type:      "value",
			SplitLine: &opts.SplitLine{Show: pointer(true)},
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Name:      yAxisName,
			Type:      "value",
			SplitLine: &opts.SplitLine{Show: pointer(true)},
		}),
	)

	for _, cp := range Group(t) {
		points := make([]opts.ScatterData, len(cp.X))
		for i := range cp.X {
			points[i] = opts.ScatterData{Name: cp.Labels[i], Value: []interface{}{cp.X[i], cp.Y[i]}, SymbolSize: 8}
		}
		// SetSeriesOptions would restyle every series added so far.
		scatter.AddSeries(cp.Name(), points,
			charts.WithItemStyleOpts(opts.ItemStyle{Color: cp.Color}),
			charts.WithLabelOpts(opts.Label{Show: pointer(false)}),
		)
	}
	return scatter
}

// RenderHTML writes a standalone HTML page with the scatter.
func RenderHTML(w io.Writer, t *dataset.Table, opt Options) error {
	if err := NewScatter(t, opt).Render(w); err != nil {
		return fmt.Errorf("render scatter html: %w", err)
	}
	return nil
}

func pointer(b bool) *bool {
	return &b
}
