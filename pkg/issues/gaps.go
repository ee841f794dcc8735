// Package issues flags underperformance: dietitians on a zero-sales streak
// and front-line managers far below their daily target.
package issues

import (
	"cmp"
	"slices"
	"strings"

	"github.com/fitelo/sales-dashboard/pkg/sheets"
	"github.com/samber/lo"
)

// Gaps table columns.
const (
	colGapName     = 1  // B
	colGapOwner    = 8  // I
	colGapTarget   = 9  // J
	colGapAchieved = 10 // K
	colGapZeroDays = 11 // L
	colGapPercent  = 15 // P
)

// MinZeroDays is the streak length from which a dietitian is flagged.
const MinZeroDays = 3

// Unassigned replaces a blank owner cell.
const Unassigned = "Not Assigned"

// Gap is a dietitian with a streak of zero-sales days.
type Gap struct {
	DietitianName       string  `json:"dietitianName"`
	SMName              string  `json:"smName"`
	ConsecutiveZeroDays float64 `json:"consecutiveZeroDays"`
	SalesTarget         float64 `json:"salesTarget"`
	SalesAchieved       float64 `json:"salesAchieved"`
	PercentAchieved     float64 `json:"percentAchieved"`
}

// Gaps returns the flagged rows of the Gaps table, longest streak first,
// then by dietitian name and owner.
func Gaps(rows []sheets.Row) []Gap {
	out := []Gap{}
	for _, row := range rows {
		name := row.Text(colGapName)
		zeroDays := row.Number(colGapZeroDays)
		if name == "" || zeroDays < MinZeroDays {
			continue
		}
		owner := row.Text(colGapOwner)
		if owner == "" {
			owner = Unassigned
		}
		out = append(out, Gap{
			DietitianName:       name,
			SMName:              owner,
			ConsecutiveZeroDays: zeroDays,
			SalesTarget:         row.Number(colGapTarget),
			SalesAchieved:       row.Number(colGapAchieved),
			PercentAchieved:     row.Number(colGapPercent),
		})
	}

	slices.SortStableFunc(out, func(a, b Gap) int {
		return cmp.Or(
			cmp.Compare(b.ConsecutiveZeroDays, a.ConsecutiveZeroDays),
			strings.Compare(a.DietitianName, b.DietitianName),
			strings.Compare(a.SMName, b.SMName),
		)
	})
	return out
}

// GapsFor keeps the gaps owned by owner (trimmed, case-insensitive).
func GapsFor(gaps []Gap, owner string) []Gap {
	key := strings.TrimSpace(owner)
	return lo.Filter(gaps, func(g Gap, _ int) bool {
		return strings.EqualFold(g.SMName, key)
	})
}
