package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/leaseup/internal/dataset"
)

func TestDescribe(t *testing.T) {
	tbl := dataset.NewTable([]dataset.Record{
		{RentAtDelivery: 1, Cluster: 2},
		{RentAtDelivery: 2, Cluster: 2},
		{RentAtDelivery: 3, Cluster: 2},
		{RentAtDelivery: 4, Cluster: 2},
		{RentAtDelivery: math.NaN(), Cluster: 2},
	})
	d := Describe(tbl, dataset.ColRent, dataset.ColCluster)
	assert.Equal(t, 5, d.Rows)
	require.Len(t, d.Columns, 2)

	rent := d.Columns[0]
	assert.Equal(t, dataset.ColRent, rent.Column)
	assert.Equal(t, 4, rent.Count)
	assert.Equal(t, 2.5, rent.Mean.Float())
	assert.Equal(t, 1.29, rent.Std.Float())
	assert.Equal(t, 1.0, rent.Min.Float())
	assert.Equal(t, 1.75, rent.P25.Float())
	assert.Equal(t, 2.5, rent.P50.Float())
	assert.Equal(t, 3.25, rent.P75.Float())
	assert.Equal(t, 4.0, rent.Max.Float())

	cl := d.Columns[1]
	assert.Equal(t, 5, cl.Count)
	assert.Equal(t, 0.0, cl.Std.Float())
}

func TestDescribeDefaultsAndEmpty(t *testing.T) {
	d := Describe(dataset.NewTable(nil))
	assert.Equal(t, 0, d.Rows)
	require.Len(t, d.Columns, len(dataset.NumericColumns))
	for _, c := range d.Columns {
		assert.Equal(t, 0, c.Count)
		assert.False(t, c.Mean.Valid())
		assert.False(t, c.Max.Valid())
	}
}

func TestQuantile(t *testing.T) {
	s := []float64{10, 20, 30}
	assert.Equal(t, 10.0, quantile(s, 0))
	assert.Equal(t, 15.0, quantile(s, 0.25))
	assert.Equal(t, 20.0, quantile(s, 0.5))
	assert.Equal(t, 30.0, quantile(s, 1))
	assert.True(t, math.IsNaN(quantile(nil, 0.5)))
}
