package issues

import (
	"cmp"
	"slices"
	"strings"

	"github.com/fitelo/sales-dashboard/pkg/hierarchy"
	"github.com/fitelo/sales-dashboard/pkg/period"
	"github.com/samber/lo"
)

// UnderperformancePct is the inclusive ceiling of yesterday's service
// attainment below which an AM or FLAP is flagged.
const UnderperformancePct = 25

// Underperformer is a flagged AM or FLAP.
type Underperformer struct {
	ID      string                  `json:"id"`
	Name    string                  `json:"name"`
	Role    hierarchy.Role          `json:"role"`
	Ratio   float64                 `json:"ratio"`
	Service hierarchy.PeriodMetrics `json:"service"`
}

// Underperforming walks the subtree of sm and returns every AM/FLAP whose
// yesterday service attainment is at most UnderperformancePct, worst first.
// An entity reachable through more than one manager is reported once.
func Underperforming(sm *hierarchy.Node) []Underperformer {
	if sm == nil {
		return []Underperformer{}
	}

	flagged := lo.FilterMap(sm.Leaves(), func(n *hierarchy.Node, _ int) (Underperformer, bool) {
		ratio := n.Ratio(hierarchy.Service, period.Yesterday)
		if ratio > UnderperformancePct {
			return Underperformer{}, false
		}
		return Underperformer{
			ID:      n.ID,
			Name:    n.Name,
			Role:    n.Role,
			Ratio:   ratio,
			Service: n.Metrics.Service,
		}, true
	})

	if flagged == nil {
		flagged = []Underperformer{}
	}
	slices.SortStableFunc(flagged, func(a, b Underperformer) int {
		return cmp.Or(cmp.Compare(a.Ratio, b.Ratio), strings.Compare(a.Name, b.Name))
	})
	return flagged
}
