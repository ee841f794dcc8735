package funnel

import (
	"testing"
	"time"

	"github.com/fitelo/sales-dashboard/pkg/period"
	"github.com/fitelo/sales-dashboard/pkg/sheets"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Saturday 2026-10-17: yesterday is Friday, so WTD covers 5 days and MTD 16.
var saturday = period.New(time.Date(2026, 10, 17, 8, 0, 0, 0, time.UTC))

// funnelRow builds a row for the AM column with the given validity cell and
// the same eight counters in every period block.
func funnelRow(am, validity string, counters ...string) sheets.Row {
	row := make(sheets.Row, 34)
	row[roleColumns["AM"]] = am
	row[colValidity] = validity
	for _, start := range []int{colYesterday, colWTD, colMTD} {
		copy(row[start:start+8], counters)
	}
	return row
}

func TestQueryValidate(t *testing.T) {
	tests := []struct {
		name    string
		q       Query
		wantCol int
		wantErr bool
	}{
		{name: "flap", q: Query{Name: "Asha", Role: "FLAP"}, wantCol: 6},
		{name: "am", q: Query{Name: "Asha", Role: "AM"}, wantCol: 7},
		{name: "m", q: Query{Name: "Asha", Role: "M"}, wantCol: 8},
		{name: "manager alias", q: Query{Name: "Asha", Role: "Manager"}, wantCol: 8},
		{name: "sm", q: Query{Name: "Asha", Role: "SM"}, wantCol: 9},
		{name: "lowercase role", q: Query{Name: "Asha", Role: "am"}, wantErr: true},
		{name: "unknown role", q: Query{Name: "Asha", Role: "CEO"}, wantErr: true},
		{name: "missing name", q: Query{Name: "  ", Role: "AM"}, wantErr: true},
		{name: "missing role", q: Query{Name: "Asha"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			col, err := tt.q.Validate()
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidQuery)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantCol, col)
		})
	}
}

func TestComputeScenario(t *testing.T) {
	rows := []sheets.Row{
		funnelRow("Kiran", "1", "60", "30", "7200", "20", "8", "2", "4", "1"),
		funnelRow(" kiran ", "0", "40", "20", "3600", "10", "2", "1", "6", "3"),
	}

	report, err := Compute(Query{Name: "KIRAN", Role: "AM"}, rows, saturday)
	require.NoError(t, err)
	assert.Equal(t, 2, report.TeamSize)

	want := Tally{
		Calls:      100,
		Connected:  50,
		Talktime:   3,
		Leads:      30,
		TotalLinks: 20,
		SalesLinks: 10,
		Conv:       7,
		SalesConv:  4,
	}
	assert.Equal(t, want, report.RawTallies.WTD)
	assert.Equal(t, want, report.RawTallies.YTD)

	wtd := report.Metrics.WTD
	assert.Equal(t, 10.0, wtd.CallsPerDtPerDay)
	assert.Equal(t, 0.5, wtd.Connectivity)
	assert.Equal(t, 3.6, wtd.TTPerConnectedCall)
	assert.Equal(t, 3.0, wtd.LeadsPerDtPerDay)
	assert.Equal(t, 0.6, wtd.LeadVsConnected)
	assert.Equal(t, 0.667, wtd.MightPay)
	assert.Equal(t, 0.35, wtd.ConvPercent)
	assert.Equal(t, 0.4, wtd.SalesTeamConv)

	assert.Equal(t, 50.0, report.Metrics.YTD.CallsPerDtPerDay, "yesterday covers one day")
	assert.Equal(t, 3.125, report.Metrics.MTD.CallsPerDtPerDay)
}

func TestComputeValidityColumn(t *testing.T) {
	rows := []sheets.Row{
		funnelRow("Kiran", "", "100"),
		funnelRow("Kiran", "-1", "100"),
		funnelRow("Kiran", "n/a", "100"),
		funnelRow("Kiran", "1,000", "100"),
		funnelRow("Kiran", " ", "5"),
		funnelRow("Kiran", "2.5", "7"),
		funnelRow("Lata", "1", "1000"),
	}

	report, err := Compute(Query{Name: "Kiran", Role: "AM"}, rows, saturday)
	require.NoError(t, err)
	assert.Equal(t, 2, report.TeamSize)
	assert.Equal(t, 12.0, report.RawTallies.YTD.Calls)
}

func TestComputeNoMatches(t *testing.T) {
	report, err := Compute(Query{Name: "Nobody", Role: "SM"}, []sheets.Row{funnelRow("Kiran", "1", "10")}, saturday)
	require.NoError(t, err)
	assert.Zero(t, report.TeamSize)
	assert.Equal(t, Tallies{}, report.RawTallies)
	assert.Equal(t, PeriodMetrics{}, report.Metrics, "all divisions by zero yield zero")
}

func TestComputeInvalidQuery(t *testing.T) {
	_, err := Compute(Query{Name: "Kiran", Role: "Boss"}, nil, saturday)
	require.ErrorIs(t, err, ErrInvalidQuery)
}

func TestDeriveSafeDivision(t *testing.T) {
	m := Derive(Tally{Calls: 10, Leads: 5}, 0, 5)
	assert.Zero(t, m.CallsPerDtPerDay)
	assert.Zero(t, m.LeadsPerDtPerDay)
	assert.Zero(t, m.Connectivity)
	assert.Zero(t, m.LeadVsConnected)
	assert.Zero(t, m.MightPay)

	m = Derive(Tally{Calls: 10}, 3, 0)
	assert.Zero(t, m.CallsPerDtPerDay)
}
