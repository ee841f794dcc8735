package sheets

import "github.com/fitelo/sales-dashboard/pkg/utils"

// Ranges names the four logical tables consumed by the dashboard.
type Ranges struct {
	Targets string
	Revenue string
	Funnel  string
	Gaps    string
}

// DefaultRanges matches the production spreadsheet: header on row 1, data
// from row 2 onwards.
func DefaultRanges() Ranges {
	return Ranges{
		Targets: "Targets!A2:T",
		Revenue: "Dietitian Revenue!A2:T",
		Funnel:  "Dietitian Funnel!A2:AH",
		Gaps:    "Dietitian Gaps!A2:Q",
	}
}

// RangesFromEnv returns DefaultRanges overridden by RANGE_TARGETS,
// RANGE_REVENUE, RANGE_FUNNEL and RANGE_GAPS.
func RangesFromEnv() Ranges {
	d := DefaultRanges()
	return Ranges{
		Targets: utils.Env("RANGE_TARGETS", d.Targets),
		Revenue: utils.Env("RANGE_REVENUE", d.Revenue),
		Funnel:  utils.Env("RANGE_FUNNEL", d.Funnel),
		Gaps:    utils.Env("RANGE_GAPS", d.Gaps),
	}
}
