package dashboard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fitelo/sales-dashboard/pkg/funnel"
	"github.com/fitelo/sales-dashboard/pkg/sheets"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func targetsGrid() sheets.Grid {
	row := func(sm, mgr, mgrSM, am, amService, amMgr, amSM string) []string {
		r := make([]string, 20)
		r[0] = sm
		r[6], r[8] = mgr, mgrSM
		r[12], r[13], r[14], r[15] = am, amService, amMgr, amSM
		return r
	}
	return sheets.Grid{
		row("Asha", "Ravi", "Asha", "Kiran", "260000", "Ravi", "Asha"),
		row("Bela", "", "", "Lata", "260000", "", "Bela"),
		row("", "", "", "Nia", "260000", "", "Asha"),
	}
}

func revenueGrid() sheets.Grid {
	row := func(am, y string) []string {
		r := make([]string, 20)
		r[10] = am
		r[14] = y
		return r
	}
	return sheets.Grid{row("Kiran", "9000"), row("Nia", "1000"), row("Lata", "2000")}
}

func gapsGrid() sheets.Grid {
	row := func(name, owner, zeroDays string) []string {
		r := make([]string, 17)
		r[1], r[8], r[11] = name, owner, zeroDays
		return r
	}
	return sheets.Grid{row("Meera", "Asha", "4"), row("Zoya", "Bela", "6"), row("Ok", "Asha", "1")}
}

func funnelGrid() sheets.Grid {
	r := make([]string, 34)
	r[7], r[4] = "Kiran", "1"
	r[10], r[11] = "40", "10"
	return sheets.Grid{r}
}

func newTestService(t *testing.T, src *sheets.StaticSource) *Service {
	t.Helper()
	loc, err := time.LoadLocation(DefaultLocation)
	require.NoError(t, err)
	svc := New(Opts{
		Source:   src,
		Ranges:   sheets.DefaultRanges(),
		Logger:   zaptest.NewLogger(t),
		Location: loc,
		// 20:00 UTC on the 14th is already the 15th in Kolkata.
		Now:     func() time.Time { return time.Date(2026, 10, 14, 20, 0, 0, 0, time.UTC) },
		Workers: 2,
	})
	t.Cleanup(svc.Close)
	return svc
}

func fullSource() *sheets.StaticSource {
	r := sheets.DefaultRanges()
	return &sheets.StaticSource{Grids: map[string]sheets.Grid{
		r.Targets: targetsGrid(),
		r.Revenue: revenueGrid(),
		r.Gaps:    gapsGrid(),
		r.Funnel:  funnelGrid(),
	}}
}

func TestCalendarUsesLocation(t *testing.T) {
	svc := newTestService(t, fullSource())
	cal := svc.Calendar()
	assert.Equal(t, 14, cal.Yesterday.Day())
	assert.Equal(t, DefaultLocation, cal.Yesterday.Location().String())
	assert.Equal(t, 3, cal.DaysWTD)
	assert.Equal(t, 14, cal.DaysMTD)
}

func TestHierarchy(t *testing.T) {
	src := fullSource()
	svc := newTestService(t, src)

	res, err := svc.Hierarchy(context.Background())
	require.NoError(t, err)
	assert.Len(t, res.SMs, 2)
	assert.Len(t, res.Managers, 1)
	assert.Len(t, res.AMs, 3)
	require.Len(t, res.Tree, 2)
	require.Len(t, res.Tree[0].Children, 2, "manager plus direct reports")
	assert.Equal(t, "virtual-m-sm-asha", res.Tree[0].Children[1].ID)
	assert.Equal(t, 9000.0, res.AMs[0].Achieved.Service.Y)

	r := sheets.DefaultRanges()
	assert.Equal(t, 1, src.Calls(r.Targets))
	assert.Equal(t, 1, src.Calls(r.Revenue))
	assert.Zero(t, src.Calls(r.Gaps))

	_, err = svc.Hierarchy(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, src.Calls(r.Targets), "nothing is cached between requests")
}

func TestFetchFailureFailsWholeRequest(t *testing.T) {
	src := fullSource()
	boom := errors.New("quota exceeded")
	src.Errs = map[string]error{sheets.DefaultRanges().Revenue: boom}
	svc := newTestService(t, src)

	res, err := svc.Hierarchy(context.Background())
	require.ErrorIs(t, err, ErrFetch)
	require.ErrorIs(t, err, boom)
	assert.Nil(t, res)

	_, err = svc.Revenue(context.Background())
	require.ErrorIs(t, err, ErrFetch)
}

func TestRevenue(t *testing.T) {
	svc := newTestService(t, fullSource())
	book, err := svc.Revenue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1000.0, book["am-nia"].Service.Y)
}

func TestFunnel(t *testing.T) {
	src := fullSource()
	svc := newTestService(t, src)

	report, err := svc.Funnel(context.Background(), funnel.Query{Name: "kiran", Role: "AM"})
	require.NoError(t, err)
	assert.Equal(t, 1, report.TeamSize)
	assert.Equal(t, 0.25, report.Metrics.YTD.Connectivity)

	_, err = svc.Funnel(context.Background(), funnel.Query{Name: "kiran", Role: "boss"})
	require.ErrorIs(t, err, funnel.ErrInvalidQuery)
	assert.Equal(t, 1, src.Calls(sheets.DefaultRanges().Funnel), "invalid queries never reach the source")
}

func TestGaps(t *testing.T) {
	svc := newTestService(t, fullSource())
	gaps, err := svc.Gaps(context.Background())
	require.NoError(t, err)
	require.Len(t, gaps, 2)
	assert.Equal(t, "Zoya", gaps[0].DietitianName)
}

func TestUnderperformers(t *testing.T) {
	svc := newTestService(t, fullSource())

	sm, flagged, err := svc.Underperformers(context.Background(), "sm-asha")
	require.NoError(t, err)
	assert.Equal(t, "Asha", sm.Name)
	require.Len(t, flagged, 1)
	assert.Equal(t, "Nia", flagged[0].Name)
	assert.Equal(t, 10.0, flagged[0].Ratio)

	_, _, err = svc.Underperformers(context.Background(), "sm-nobody")
	require.ErrorIs(t, err, ErrSMNotFound)
}

func TestDigest(t *testing.T) {
	svc := newTestService(t, fullSource())

	d, err := svc.Digest(context.Background())
	require.NoError(t, err)
	require.Len(t, d.SMs, 2)
	assert.Equal(t, "sm-asha", d.SMs[0].SMID)
	require.Len(t, d.SMs[0].Underperformers, 1)
	require.Len(t, d.SMs[0].Gaps, 1)
	assert.Equal(t, "Meera", d.SMs[0].Gaps[0].DietitianName)
	assert.Len(t, d.SMs[1].Underperformers, 1, "Lata is at 20%")

	u, g := d.Counts()
	assert.Equal(t, 2, u)
	assert.Equal(t, 2, g)
}
