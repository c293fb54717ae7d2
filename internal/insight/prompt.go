// Package insight turns a cluster summary into a prompt and asks an LLM runtime
// for a narrative about the cluster's lease-up behavior.
package insight

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/KaramelBytes/leaseup/internal/stats"
)

const promptTemplate = `You are a real estate analyst specializing in property lease-up trends.
Based on the following summary statistics for a cluster of properties:
- Age at Delivery (years): Mean = %s, Std = %s
- Submarket Competition (number of nearby deliveries): Mean = %s, Std = %s
- Rent at Delivery ($): Mean = %s, Std = %s
- Average Occupancy in First 3 Months: Mean = %s, Std = %s
- Dominant Season of Delivery: %s
Provide an insight describing the lease-up behavior of this cluster, focusing on how these features influence performance.`

// BuildPrompt renders the fixed analyst prompt for s. Undefined statistics print as nan.
func BuildPrompt(s stats.Summary) string {
	season := strings.TrimSpace(s.DominantSeason)
	if season == "" {
		season = stats.NotAvailable
	}
	return fmt.Sprintf(promptTemplate,
		fixed2(s.Age.Mean), fixed2(s.Age.Std),
		fixed2(s.Competition.Mean), fixed2(s.Competition.Std),
		fixed2(s.Rent.Mean), fixed2(s.Rent.Std),
		fixed2(s.Occupancy.Mean), fixed2(s.Occupancy.Std),
		season,
	)
}

func fixed2(n stats.Number) string {
	x := n.Float()
	switch {
	case math.IsNaN(x):
		return "nan"
	case math.IsInf(x, 1):
		return "inf"
	case math.IsInf(x, -1):
		return "-inf"
	}
	return strconv.FormatFloat(x, 'f', 2, 64)
}
