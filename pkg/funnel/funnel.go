// Package funnel aggregates the dietitian call funnel for one person and
// derives the per-period conversion metrics shown on the dashboard.
package funnel

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fitelo/sales-dashboard/pkg/numeric"
	"github.com/fitelo/sales-dashboard/pkg/period"
	"github.com/fitelo/sales-dashboard/pkg/sheets"
)

// ErrInvalidQuery is returned for a missing name or role, or an unknown role.
var ErrInvalidQuery = errors.New("invalid funnel query")

// Funnel table layout.
const (
	colValidity   = 4  // E
	colYesterday  = 10 // K
	colWTD        = 18 // S
	colMTD        = 26 // AA
	secondsInHour = 3600
)

// Offsets inside a period block.
const (
	offCalls = iota
	offConnected
	offTalktime
	offLeads
	offLinks
	offConv
	offSalesLinks
	offSalesConv
)

// roleColumns maps the role token of a query to the name column it filters
// on. Tokens are case-sensitive.
var roleColumns = map[string]int{
	"FLAP":    6, // G
	"AM":      7, // H
	"M":       8, // I
	"Manager": 8, // I
	"SM":      9, // J
}

// Query selects the rows of one person.
type Query struct {
	Name string
	Role string
}

// Validate checks q and returns the name column to filter on.
func (q Query) Validate() (int, error) {
	if strings.TrimSpace(q.Name) == "" || q.Role == "" {
		return 0, fmt.Errorf("%w: name and role are required", ErrInvalidQuery)
	}
	col, ok := roleColumns[q.Role]
	if !ok {
		return 0, fmt.Errorf("%w: unknown role %q", ErrInvalidQuery, q.Role)
	}
	return col, nil
}

// Tally is the summed funnel counters of one period. Talktime is in hours.
type Tally struct {
	Calls      float64 `json:"calls"`
	Connected  float64 `json:"connected"`
	Talktime   float64 `json:"talktime"`
	Leads      float64 `json:"leads"`
	TotalLinks float64 `json:"totalLinks"`
	SalesLinks float64 `json:"salesLinks"`
	Conv       float64 `json:"conv"`
	SalesConv  float64 `json:"salesConv"`
}

func (t *Tally) add(row sheets.Row, start int) {
	links := row.Number(start + offLinks)
	salesLinks := row.Number(start + offSalesLinks)
	salesConv := row.Number(start + offSalesConv)

	t.Calls += row.Number(start + offCalls)
	t.Connected += row.Number(start + offConnected)
	t.Talktime += row.Number(start+offTalktime) / secondsInHour
	t.Leads += row.Number(start + offLeads)
	t.TotalLinks += links + salesLinks
	t.SalesLinks += salesLinks
	t.Conv += row.Number(start+offConv) + salesConv
	t.SalesConv += salesConv
}

// Metrics are the derived ratios of one period, rounded to three decimals.
type Metrics struct {
	CallsPerDtPerDay   float64 `json:"callsPerDtPerDay"`
	Connectivity       float64 `json:"connectivity"`
	TTPerConnectedCall float64 `json:"ttPerConnectedCall"`
	LeadsPerDtPerDay   float64 `json:"leadsPerDtPerDay"`
	LeadVsConnected    float64 `json:"leadVsConnected"`
	MightPay           float64 `json:"mightPay"`
	ConvPercent        float64 `json:"convPercent"`
	SalesTeamConv      float64 `json:"salesTeamConv"`
}

// Derive computes the metrics of t for a team of teamSize over days.
func Derive(t Tally, teamSize, days int) Metrics {
	perHead := float64(teamSize * days)
	return Metrics{
		CallsPerDtPerDay:   numeric.Round3(numeric.SafeDivide(t.Calls, perHead)),
		Connectivity:       numeric.Round3(numeric.SafeDivide(t.Connected, t.Calls)),
		TTPerConnectedCall: numeric.Round3(numeric.SafeDivide(t.Talktime*60, t.Connected)),
		LeadsPerDtPerDay:   numeric.Round3(numeric.SafeDivide(t.Leads, perHead)),
		LeadVsConnected:    numeric.Round3(numeric.SafeDivide(t.Leads, t.Connected)),
		MightPay:           numeric.Round3(numeric.SafeDivide(t.TotalLinks, t.Leads)),
		ConvPercent:        numeric.Round3(numeric.SafeDivide(t.Conv, t.TotalLinks)),
		SalesTeamConv:      numeric.Round3(numeric.SafeDivide(t.SalesConv, t.SalesLinks)),
	}
}

// Tallies groups the three period tallies.
type Tallies struct {
	YTD Tally `json:"ytd"`
	WTD Tally `json:"wtd"`
	MTD Tally `json:"mtd"`
}

// PeriodMetrics groups the three period metric sets.
type PeriodMetrics struct {
	YTD Metrics `json:"ytd"`
	WTD Metrics `json:"wtd"`
	MTD Metrics `json:"mtd"`
}

// Report is the funnel response for one person.
type Report struct {
	TeamSize   int           `json:"teamSize"`
	RawTallies Tallies       `json:"rawTallies"`
	Metrics    PeriodMetrics `json:"metrics"`
}

// matches reports whether row belongs to name and has a valid, non-negative
// validity cell. Only rows passing this count towards team size and tallies.
func matches(row sheets.Row, col int, name string) bool {
	rowName := row.Text(col)
	if rowName == "" || !strings.EqualFold(rowName, name) {
		return false
	}
	raw := row.Raw(colValidity)
	return numeric.IsNumeric(raw) && numeric.Parse(raw) >= 0
}

// Compute aggregates rows for q using the windows of cal.
func Compute(q Query, rows []sheets.Row, cal period.Calendar) (*Report, error) {
	col, err := q.Validate()
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(q.Name)

	report := &Report{}
	for _, row := range rows {
		if matches(row, col, name) {
			report.TeamSize++
		}
	}

	if report.TeamSize > 0 {
		for _, row := range rows {
			if !matches(row, col, name) {
				continue
			}
			report.RawTallies.YTD.add(row, colYesterday)
			report.RawTallies.WTD.add(row, colWTD)
			report.RawTallies.MTD.add(row, colMTD)
		}
	}

	report.Metrics = PeriodMetrics{
		YTD: Derive(report.RawTallies.YTD, report.TeamSize, cal.Days(period.Yesterday)),
		WTD: Derive(report.RawTallies.WTD, report.TeamSize, cal.Days(period.WeekToDate)),
		MTD: Derive(report.RawTallies.MTD, report.TeamSize, cal.Days(period.MonthToDate)),
	}
	return report, nil
}
