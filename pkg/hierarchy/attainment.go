package hierarchy

import (
	"github.com/fitelo/sales-dashboard/pkg/numeric"
	"github.com/fitelo/sales-dashboard/pkg/period"
)

// Metric is achieved vs target for one category and period.
type Metric struct {
	Achieved float64 `json:"achieved"`
	Target   float64 `json:"target"`
	Pct      float64 `json:"pct"`
}

// PeriodMetrics holds a Metric per period.
type PeriodMetrics struct {
	Y Metric `json:"y"`
	W Metric `json:"w"`
	M Metric `json:"m"`
}

// Get returns the Metric for p.
func (pm PeriodMetrics) Get(p period.Period) Metric {
	switch p {
	case period.WeekToDate:
		return pm.W
	case period.MonthToDate:
		return pm.M
	default:
		return pm.Y
	}
}

// Attainment is the per-category attainment of an entity.
type Attainment struct {
	Service  PeriodMetrics `json:"service"`
	Commerce PeriodMetrics `json:"commerce"`
}

// Metric returns achieved, target and whole-percent attainment for c in p.
func (e *Entity) Metric(c Category, p period.Period) Metric {
	m := Metric{
		Achieved: e.Achieved.Get(c).Get(p),
		Target:   e.Target(c, p),
	}
	if m.Target != 0 {
		m.Pct = numeric.Round(m.Achieved / m.Target * 100)
	}
	return m
}

// Metrics returns the attainment of c across all periods.
func (e *Entity) Metrics(c Category) PeriodMetrics {
	return PeriodMetrics{
		Y: e.Metric(c, period.Yesterday),
		W: e.Metric(c, period.WeekToDate),
		M: e.Metric(c, period.MonthToDate),
	}
}

// Attainment returns the full attainment block for e.
func (e *Entity) Attainment() Attainment {
	return Attainment{Service: e.Metrics(Service), Commerce: e.Metrics(Commerce)}
}
