// Package plot renders the t-SNE scatter colored by cluster id.
package plot

import (
	"fmt"
	"sort"
	"strings"

	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/KaramelBytes/leaseup/internal/dataset"
)

// Tab10 is matplotlib's tab10 qualitative palette.
var Tab10 = []string{
	"#1f77b4", "#ff7f0e", "#2ca02c", "#d62728", "#9467bd",
	"#8c564b", "#e377c2", "#7f7f7f", "#bcbd22", "#17becf",
}

// ColorFor returns the palette color for a cluster id. The mapping depends only
// on the id, so a cluster keeps its color across filters.
func ColorFor(id int) string {
	if id < 0 {
		id = -id
	}
	return Tab10[id%len(Tab10)]
}

func drawingColor(id int) drawing.Color {
	return drawing.ColorFromHex(strings.TrimPrefix(ColorFor(id), "#"))
}

// ClusterPoints holds the coordinates of one cluster in row order.
type ClusterPoints struct {
	Cluster int
	Color   string
	Labels  []string
	X       []float64
	Y       []float64
}

// Name is the legend label of the cluster.
func (c ClusterPoints) Name() string { return fmt.Sprintf("Cluster %d", c.Cluster) }

// Group splits the table into per-cluster point sets ordered by cluster id.
func Group(t *dataset.Table) []ClusterPoints {
	byID := map[int]*ClusterPoints{}
	for _, r := range t.Records() {
		cp, ok := byID[r.Cluster]
		if !ok {
			cp = &ClusterPoints{Cluster: r.Cluster, Color: ColorFor(r.Cluster)}
			byID[r.Cluster] = cp
		}
		cp.Labels = append(cp.Labels, r.ProjID)
		cp.X = append(cp.X, r.TSNE1)
		cp.Y = append(cp.Y, r.TSNE2)
	}
	out := make([]ClusterPoints, 0, len(byID))
	for _, cp := range byID {
		out = append(out, *cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Cluster < out[j].Cluster })
	return out
}

// Options are shared by the HTML and PNG renderers.
type Options struct {
	Title    string
	Subtitle string
	Width    int
	Height   int
}

func (o Options) withDefaults() Options {
	if o.Title == "" {
		o.Title = "Property Clusters (t-SNE)"
	}
	if o.Width <= 0 {
		o.Width = 900
	}
	if o.Height <= 0 {
		o.Height = 600
	}
	return o
}

const (
	xAxisName = "t-SNE 1"
	yAxisName = "t-SNE 2"
)
