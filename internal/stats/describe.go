package stats

import (
	"math"
	"sort"

	"github.com/KaramelBytes/leaseup/internal/dataset"
)

// ColumnStats is one column of a describe table. Values are rounded to 2 decimals.
type ColumnStats struct {
	Column dataset.Column `json:"column"`
	Count  int            `json:"count"`
	Mean   Number         `json:"mean"`
	Std    Number         `json:"std"`
	Min    Number         `json:"min"`
	P25    Number         `json:"p25"`
	P50    Number         `json:"p50"`
	P75    Number         `json:"p75"`
	Max    Number         `json:"max"`
}

// Description is the describe table of a subset.
type Description struct {
	Rows    int           `json:"rows"`
	Columns []ColumnStats `json:"columns"`
}

// Describe summarizes the given numeric columns, or all of dataset.NumericColumns
// when none are passed.
func Describe(t *dataset.Table, cols ...dataset.Column) Description {
	if len(cols) == 0 {
		cols = dataset.NumericColumns
	}
	d := Description{Rows: t.Len()}
	for _, col := range cols {
		d.Columns = append(d.Columns, describeColumn(col, t.Column(col)))
	}
	return d
}

func describeColumn(col dataset.Column, vals []float64) ColumnStats {
	sorted := make([]float64, 0, len(vals))
	for _, x := range vals {
		if !math.IsNaN(x) {
			sorted = append(sorted, x)
		}
	}
	sort.Float64s(sorted)
	nan := Number(math.NaN())
	cs := ColumnStats{Column: col, Count: len(sorted), Mean: nan, Std: nan, Min: nan, P25: nan, P50: nan, P75: nan, Max: nan}
	if len(sorted) == 0 {
		return cs
	}
	ms := meanStd(sorted)
	cs.Mean = Number(round2(ms.Mean.Float()))
	cs.Std = Number(round2(ms.Std.Float()))
	cs.Min = Number(round2(sorted[0]))
	cs.P25 = Number(round2(quantile(sorted, 0.25)))
	cs.P50 = Number(round2(quantile(sorted, 0.50)))
	cs.P75 = Number(round2(quantile(sorted, 0.75)))
	cs.Max = Number(round2(sorted[len(sorted)-1]))
	return cs
}

// quantile interpolates linearly between closest ranks of sorted.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}
