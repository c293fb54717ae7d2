package dataset

import (
	"math"
	"sort"

	"github.com/samber/lo"
)

// AllSeasons is the season selector value that disables filtering.
const AllSeasons = "All"

// Column names a field of a property record.
type Column string

const (
	ColProjID      Column = "ProjID"
	ColRent        Column = "RentAtDelivery"
	ColAge         Column = "AgeAtDelivery"
	ColSeason      Column = "SeasonOfDelivery"
	ColCompetition Column = "SubmarketCompetition"
	ColOccupancy   Column = "AvgOcc_3Mo_PostDelivery"
	ColTSNE1       Column = "tSNE1"
	ColTSNE2       Column = "tSNE2"
	ColCluster     Column = "Cluster"
)

// NumericColumns lists the numeric columns in file order.
var NumericColumns = []Column{ColRent, ColAge, ColCompetition, ColOccupancy, ColTSNE1, ColTSNE2, ColCluster}

// Record is one property row. Missing optional numerics are NaN.
type Record struct {
	ProjID               string  `json:"proj_id"`
	RentAtDelivery       float64 `json:"rent_at_delivery"`
	AgeAtDelivery        float64 `json:"age_at_delivery"`
	SeasonOfDelivery     string  `json:"season_of_delivery"`
	SubmarketCompetition float64 `json:"submarket_competition"`
	AvgOcc3Mo            float64 `json:"avg_occ_3mo_post_delivery"`
	TSNE1                float64 `json:"tsne1"`
	TSNE2                float64 `json:"tsne2"`
	Cluster              int     `json:"cluster"`
}

// Value returns the numeric value of col, or NaN for non-numeric columns.
func (r Record) Value(col Column) float64 {
	switch col {
	case ColRent:
		return r.RentAtDelivery
	case ColAge:
		return r.AgeAtDelivery
	case ColCompetition:
		return r.SubmarketCompetition
	case ColOccupancy:
		return r.AvgOcc3Mo
	case ColTSNE1:
		return r.TSNE1
	case ColTSNE2:
		return r.TSNE2
	case ColCluster:
		return float64(r.Cluster)
	default:
		return math.NaN()
	}
}

// Table is an immutable, ordered set of records. Derivations return new tables.
type Table struct {
	records []Record
}

// NewTable copies records into a new table.
func NewTable(records []Record) *Table {
	cp := make([]Record, len(records))
	copy(cp, records)
	return &Table{records: cp}
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.records)
}

// Records returns a copy of the rows.
func (t *Table) Records() []Record {
	if t == nil {
		return nil
	}
	cp := make([]Record, len(t.records))
	copy(cp, t.records)
	return cp
}

// Column returns the values of a numeric column in row order.
func (t *Table) Column(col Column) []float64 {
	if t == nil {
		return nil
	}
	return lo.Map(t.records, func(r Record, _ int) float64 { return r.Value(col) })
}

// FilterSeason keeps rows whose season equals season exactly. An empty season
// or AllSeasons returns the table unchanged.
func (t *Table) FilterSeason(season string) *Table {
	if t == nil {
		return NewTable(nil)
	}
	if season == "" || season == AllSeasons {
		return t
	}
	return &Table{records: lo.Filter(t.records, func(r Record, _ int) bool {
		return r.SeasonOfDelivery == season
	})}
}

// FilterCluster keeps rows belonging to the given cluster id.
func (t *Table) FilterCluster(id int) *Table {
	if t == nil {
		return NewTable(nil)
	}
	return &Table{records: lo.Filter(t.records, func(r Record, _ int) bool {
		return r.Cluster == id
	})}
}

// Seasons returns distinct seasons in order of first appearance.
func (t *Table) Seasons() []string {
	if t == nil {
		return nil
	}
	return lo.Uniq(lo.Map(t.records, func(r Record, _ int) string { return r.SeasonOfDelivery }))
}

// ClusterIDs returns the sorted distinct cluster ids.
func (t *Table) ClusterIDs() []int {
	if t == nil {
		return nil
	}
	ids := lo.Uniq(lo.Map(t.records, func(r Record, _ int) int { return r.Cluster }))
	sort.Ints(ids)
	return ids
}

// CategoryCount pairs a categorical value with its frequency.
type CategoryCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// SeasonCounts returns season frequencies, most frequent first. Ties keep
// first-appearance order.
func (t *Table) SeasonCounts() []CategoryCount {
	if t == nil {
		return nil
	}
	counts := map[string]int{}
	for _, r := range t.records {
		counts[r.SeasonOfDelivery]++
	}
	out := lo.Map(t.Seasons(), func(s string, _ int) CategoryCount {
		return CategoryCount{Value: s, Count: counts[s]}
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}

// ClusterSizes returns the row count per cluster id, ordered by id.
func (t *Table) ClusterSizes() []ClusterSize {
	if t == nil {
		return nil
	}
	groups := lo.GroupBy(t.records, func(r Record) int { return r.Cluster })
	return lo.Map(t.ClusterIDs(), func(id int, _ int) ClusterSize {
		return ClusterSize{Cluster: id, Size: len(groups[id])}
	})
}

// ClusterSize is the number of rows in one cluster.
type ClusterSize struct {
	Cluster int `json:"cluster"`
	Size    int `json:"size"`
}
