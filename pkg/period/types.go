package period

// Period identifies one of the three reporting windows.
type Period string

const (
	Yesterday   Period = "y"
	WeekToDate  Period = "w"
	MonthToDate Period = "m"
)

// All lists the periods in display order.
var All = []Period{Yesterday, WeekToDate, MonthToDate}

// Scaled is a figure broken down by period. It is used both for targets and
// for achieved revenue.
type Scaled struct {
	Y float64 `json:"y"`
	W float64 `json:"w"`
	M float64 `json:"m"`
}

// Get returns the value for p.
func (s Scaled) Get(p Period) float64 {
	switch p {
	case WeekToDate:
		return s.W
	case MonthToDate:
		return s.M
	default:
		return s.Y
	}
}

// Add returns the element-wise sum of s and o.
func (s Scaled) Add(o Scaled) Scaled {
	return Scaled{Y: s.Y + o.Y, W: s.W + o.W, M: s.M + o.M}
}
