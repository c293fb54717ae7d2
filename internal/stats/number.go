package stats

import (
	"math"
	"strconv"
)

// Number is a float64 that encodes NaN and ±Inf as JSON null.
type Number float64

// Float returns the underlying value.
func (n Number) Float() float64 { return float64(n) }

// Valid reports whether n is a finite number.
func (n Number) Valid() bool {
	f := float64(n)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func (n Number) MarshalJSON() ([]byte, error) {
	if !n.Valid() {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, float64(n), 'f', -1, 64), nil
}

func (n Number) String() string {
	if !n.Valid() {
		return "NaN"
	}
	return strconv.FormatFloat(float64(n), 'f', 2, 64)
}

func round2(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	return math.Round(x*100) / 100
}
