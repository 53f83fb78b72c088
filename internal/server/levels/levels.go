// Package levels maps a point total onto a reputation tier.
package levels

import (
	"fmt"
	"strings"
)

type Level string

const (
	Silver    Level = "Silver"
	Gold      Level = "Gold"
	Diamond   Level = "Diamond"
	Legendary Level = "Legendary"
)

// Threshold is the minimum point total at which Level applies.
type Threshold struct {
	MinPoints int64
	Level     Level
}

// table is ordered by MinPoints descending. 1000 re-affirms Silver.
var table = []Threshold{
	{MinPoints: 4000, Level: Legendary},
	{MinPoints: 3000, Level: Diamond},
	{MinPoints: 2000, Level: Gold},
	{MinPoints: 1000, Level: Silver},
	{MinPoints: 0, Level: Silver},
}

// Lowest is assigned to freshly created accounts.
const Lowest = Silver

// PointsPerUpload is the fixed award for an accepted upload.
const PointsPerUpload int64 = 50

// Thresholds returns a copy of the tier table, highest first.
func Thresholds() []Threshold {
	out := make([]Threshold, len(table))
	copy(out, table)
	return out
}

// ForPoints returns the highest tier whose threshold points reaches.
// Negative totals are clamped to the lowest tier.
func ForPoints(points int64) Level {
	for _, t := range table {
		if points >= t.MinPoints {
			return t.Level
		}
	}
	return Lowest
}

// SQLCase renders a CASE expression assigning the level for the given
// column expression, e.g. SQLCase("points + $2").
func SQLCase(expr string) string {
	var b strings.Builder
	b.WriteString("CASE")
	for _, t := range table {
		if t.MinPoints == 0 {
			continue
		}
		fmt.Fprintf(&b, " WHEN %s >= %d THEN '%s'", expr, t.MinPoints, t.Level)
	}
	fmt.Fprintf(&b, " ELSE '%s' END", Lowest)
	return b.String()
}
