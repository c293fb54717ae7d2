// Package stats computes per-cluster summaries over a filtered property table.
package stats

import (
	"math"
	"sort"

	"github.com/KaramelBytes/leaseup/internal/dataset"
)

// NotAvailable is the dominant season of an empty subset.
const NotAvailable = "N/A"

// MeanStd holds the mean and sample standard deviation of a column.
type MeanStd struct {
	Mean Number `json:"mean"`
	Std  Number `json:"std"`
}

// Summary aggregates one cluster of a (possibly filtered) table.
type Summary struct {
	Cluster        int     `json:"cluster"`
	Size           int     `json:"size"`
	Age            MeanStd `json:"age"`
	Competition    MeanStd `json:"competition"`
	Rent           MeanStd `json:"rent"`
	Occupancy      MeanStd `json:"occupancy"`
	DominantSeason string  `json:"dominant_season"`
}

// Summarize computes the summary of rows whose cluster equals id. An empty
// subset yields size 0, NaN statistics and NotAvailable for the season.
func Summarize(t *dataset.Table, id int) Summary {
	sub := t.FilterCluster(id)
	seasons := make([]string, 0, sub.Len())
	for _, r := range sub.Records() {
		seasons = append(seasons, r.SeasonOfDelivery)
	}
	return Summary{
		Cluster:        id,
		Size:           sub.Len(),
		Age:            meanStd(sub.Column(dataset.ColAge)),
		Competition:    meanStd(sub.Column(dataset.ColCompetition)),
		Rent:           meanStd(sub.Column(dataset.ColRent)),
		Occupancy:      meanStd(sub.Column(dataset.ColOccupancy)),
		DominantSeason: Mode(seasons),
	}
}

// meanStd runs Welford over the non-NaN values. Std uses n-1 and is NaN for n <= 1.
func meanStd(vals []float64) MeanStd {
	var n int
	var mean, m2 float64
	for _, x := range vals {
		if math.IsNaN(x) {
			continue
		}
		n++
		delta := x - mean
		mean += delta / float64(n)
		m2 += delta * (x - mean)
	}
	out := MeanStd{Mean: Number(math.NaN()), Std: Number(math.NaN())}
	if n > 0 {
		out.Mean = Number(mean)
	}
	if n > 1 {
		out.Std = Number(math.Sqrt(m2 / float64(n-1)))
	}
	return out
}

// Mode returns the most frequent non-empty value. Ties go to the lexically
// smallest value; no values gives NotAvailable.
func Mode(values []string) string {
	counts := map[string]int{}
	for _, v := range values {
		if v == "" {
			continue
		}
		counts[v]++
	}
	if len(counts) == 0 {
		return NotAvailable
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	best := keys[0]
	for _, k := range keys[1:] {
		if counts[k] > counts[best] {
			best = k
		}
	}
	return best
}

// ResolveCluster returns requested when it is one of ids. Otherwise it falls
// back to the first id and reports reset. With no ids, requested is returned
// unchanged.
func ResolveCluster(ids []int, requested int) (id int, reset bool) {
	if len(ids) == 0 {
		return requested, false
	}
	for _, x := range ids {
		if x == requested {
			return requested, false
		}
	}
	return ids[0], true
}
