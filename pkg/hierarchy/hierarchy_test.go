package hierarchy

import (
	"testing"
	"time"

	"github.com/fitelo/sales-dashboard/pkg/period"
	"github.com/fitelo/sales-dashboard/pkg/sheets"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 2026-10-15 is a Thursday: yesterday is Wednesday the 14th, WTD 3 days, MTD 14.
var testCal = period.New(time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC))

// targetRow lays out one Targets row. Empty strings leave a level blank.
type targetRow struct {
	sm, smService, smCommerce                      string
	mgr, mgrService, mgrSM, mgrCommerce            string
	am, amService, amMgr, amSM, amRole, amCommerce string
}

func (r targetRow) row() sheets.Row {
	row := make(sheets.Row, 20)
	row[colSMName], row[colSMService], row[colSMCommerce] = r.sm, r.smService, r.smCommerce
	row[colMgrName], row[colMgrService], row[colMgrReportingSM], row[colMgrCommerce] = r.mgr, r.mgrService, r.mgrSM, r.mgrCommerce
	row[colAMName], row[colAMService], row[colAMReportingMgr], row[colAMReportingSM] = r.am, r.amService, r.amMgr, r.amSM
	row[colAMRole], row[colAMCommerce] = r.amRole, r.amCommerce
	return row
}

func rows(in ...targetRow) []sheets.Row {
	out := make([]sheets.Row, len(in))
	for i, r := range in {
		out[i] = r.row()
	}
	return out
}

// revenueRow lays out one revenue row: owner names then six figures.
func revenueRow(flap, am, mgr, sm string, figures ...string) sheets.Row {
	row := make(sheets.Row, 20)
	row[colRevFLAP], row[colRevAM], row[colRevManager], row[colRevSM] = flap, am, mgr, sm
	copy(row[colRevServiceY:], figures)
	return row
}

func TestID(t *testing.T) {
	assert.Equal(t, "sm-asha-rao", ID(RoleSM, "Asha  Rao"))
	assert.Equal(t, "m-ravi", ID(RoleManager, "RAVI"))
	assert.Equal(t, "flap-meera-k-s", ID(RoleFLAP, "Meera\tK S"))
	assert.NotEqual(t, ID(RoleAM, "Ravi"), ID(RoleManager, "Ravi"))
}

func TestNameResolver(t *testing.T) {
	r := NewNameResolver()
	r.Register(&Entity{ID: "sm-asha", Name: "Asha", Role: RoleSM})
	r.Register(&Entity{ID: "sm-asha-2", Name: "ASHA", Role: RoleSM})

	id, ok := r.Resolve(RoleSM, "  asha ")
	require.True(t, ok)
	assert.Equal(t, "sm-asha", id, "first registration wins")

	_, ok = r.Resolve(RoleManager, "Asha")
	assert.False(t, ok, "roles are separate namespaces")
	_, ok = r.Resolve(RoleSM, "")
	assert.False(t, ok)
	_, ok = r.Resolve(RoleSM, "Asha R")
	assert.False(t, ok, "no fuzzy matching")
}

func TestBuildDedup(t *testing.T) {
	res := Build(testCal, rows(
		targetRow{sm: "Asha", smService: "2,60,000", am: "Kiran", amService: "26000", amSM: "Asha"},
		targetRow{sm: "Asha ", smService: "999", am: "kiran", amService: "1"},
		targetRow{sm: "asha"},
	), nil)

	require.Len(t, res.SMs, 1)
	assert.Equal(t, "Asha", res.SMs[0].Name)
	assert.Equal(t, 260000.0, res.SMs[0].Targets.Service, "first occurrence fixes targets")

	require.Len(t, res.AMs, 1)
	assert.Equal(t, "Kiran", res.AMs[0].Name)
	assert.Equal(t, "sm-asha", res.AMs[0].SMID)

	require.Len(t, res.Tree, 1)
	require.Len(t, res.Tree[0].Children, 1)
	assert.Len(t, res.Tree[0].Children[0].Children, 1, "no duplicated tree nodes")
}

func TestBuildDedupFillsLinks(t *testing.T) {
	res := Build(testCal, rows(
		targetRow{sm: "Asha", mgr: "Ravi", mgrSM: "Asha"},
		targetRow{am: "Kiran", amService: "26000"},
		targetRow{am: "Kiran", amService: "52000", amMgr: "ravi", amSM: "asha"},
	), nil)

	require.Len(t, res.AMs, 1)
	am := res.AMs[0]
	assert.Equal(t, 26000.0, am.Targets.Service)
	assert.Equal(t, "m-ravi", am.ManagerID)
	assert.Equal(t, "sm-asha", am.SMID)
}

func TestBuildSkipsBlankNames(t *testing.T) {
	res := Build(testCal, rows(
		targetRow{sm: "   ", smService: "100"},
		targetRow{mgr: "", mgrSM: "Asha"},
		targetRow{am: "\t", amSM: "Asha"},
	), nil)
	assert.Empty(t, res.SMs)
	assert.Empty(t, res.Managers)
	assert.Empty(t, res.AMs)
	assert.Empty(t, res.Tree)
}

func TestBuildFlapMarker(t *testing.T) {
	res := Build(testCal, rows(
		targetRow{sm: "Asha", am: "Kiran", amSM: "Asha", amRole: "FLAP"},
		targetRow{am: "Lata", amSM: "Asha", amRole: "flap"},
		targetRow{am: "Nia", amSM: "Asha", amRole: "AM"},
	), nil)

	require.Len(t, res.AMs, 3)
	assert.Equal(t, RoleFLAP, res.AMs[0].Role)
	assert.Equal(t, "flap-kiran", res.AMs[0].ID)
	assert.Equal(t, RoleAM, res.AMs[1].Role, "marker is case-sensitive")
	assert.Equal(t, RoleAM, res.AMs[2].Role)
}

func TestSyntheticManagerReuse(t *testing.T) {
	res := Build(testCal, rows(
		targetRow{sm: "Asha", am: "A1", amSM: "Asha"},
		targetRow{am: "A2", amSM: "ASHA"},
		targetRow{am: "A3", amSM: "asha", amMgr: "Nobody"},
	), nil)

	require.Len(t, res.Tree, 1)
	sm := res.Tree[0]
	require.Len(t, sm.Children, 1, "exactly one synthetic manager")
	direct := sm.Children[0]
	assert.True(t, direct.Synthetic)
	assert.Equal(t, "virtual-m-sm-asha", direct.ID)
	assert.Equal(t, DirectReportsName, direct.Name)
	assert.Equal(t, RoleManager, direct.Role)
	assert.Zero(t, direct.Targets)
	assert.Zero(t, direct.Achieved)
	require.Len(t, direct.Children, 3)
	assert.Equal(t, []string{"am-a1", "am-a2", "am-a3"}, []string{
		direct.Children[0].ID, direct.Children[1].ID, direct.Children[2].ID,
	})
	assert.Empty(t, res.Managers, "synthetic managers stay out of the flat list")
}

func TestTreeLinksCaseInsensitive(t *testing.T) {
	res := Build(testCal, rows(
		targetRow{sm: "Asha Rao", mgr: "Ravi", mgrSM: "asha rao"},
		targetRow{sm: "Bela", mgr: "Orphan", mgrSM: "Unknown"},
		targetRow{am: "Kiran", amMgr: " RAVI ", amSM: "Bela"},
		targetRow{am: "Lost", amMgr: "Nobody", amSM: "Nobody"},
	), nil)

	require.Len(t, res.Tree, 2)
	asha := res.Tree[0]
	require.Len(t, asha.Children, 1)
	assert.Equal(t, "m-ravi", asha.Children[0].ID)
	require.Len(t, asha.Children[0].Children, 1, "resolved manager wins over the SM link")
	assert.Equal(t, "am-kiran", asha.Children[0].Children[0].ID)

	assert.Empty(t, res.Tree[1].Children)
	assert.Len(t, res.Managers, 2)
	assert.Len(t, res.AMs, 2, "unplaced entities stay in the flat lists")
}

func TestScanRevenue(t *testing.T) {
	book := ScanRevenue([]sheets.Row{
		revenueRow("", "Kiran", "Ravi", "Asha", "100", "300", "1,000", "10", "30", "100"),
		revenueRow("", "kiran ", "", "Asha", "50", "50", "50", "5", "5", "5"),
		revenueRow("Lata", "", "Ravi", "", "7", "", "x", "", "", ""),
		revenueRow("", "", "", ""),
	})

	assert.Equal(t, Figures{
		Service:  period.Scaled{Y: 150, W: 350, M: 1050},
		Commerce: period.Scaled{Y: 15, W: 35, M: 105},
	}, book["am-kiran"])
	assert.Equal(t, Figures{
		Service:  period.Scaled{Y: 107, W: 300, M: 1000},
		Commerce: period.Scaled{Y: 10, W: 30, M: 100},
	}, book["m-ravi"], "a row credits every level it names")
	assert.Equal(t, 150.0, book["sm-asha"].Service.Y)
	assert.Equal(t, 7.0, book["flap-lata"].Service.Y)
	assert.Len(t, book, 4)
}

func TestBuildAttainment(t *testing.T) {
	res := Build(testCal,
		rows(targetRow{sm: "Asha", am: "Kiran", amService: "260000", amSM: "Asha"}),
		[]sheets.Row{revenueRow("", "Kiran", "", "", "5000", "15000", "70000", "0", "0", "0")},
	)

	require.Len(t, res.AMs, 1)
	am := res.AMs[0]
	assert.Equal(t, period.Scaled{Y: 10000, W: 30000, M: 117419}, am.ScaledTargets.Service)

	node := res.Tree[0].Children[0].Children[0]
	assert.Equal(t, Metric{Achieved: 5000, Target: 10000, Pct: 50}, node.Metrics.Service.Y)
	assert.Equal(t, Metric{Achieved: 15000, Target: 30000, Pct: 50}, node.Metrics.Service.W)
	assert.Equal(t, 60.0, node.Metrics.Service.M.Pct)
	assert.Equal(t, Metric{}, node.Metrics.Commerce.Y)

	sm := res.Tree[0]
	assert.Zero(t, sm.Achieved, "missing revenue bucket yields zeros")
}

func TestEntityTargetFallback(t *testing.T) {
	e := &Entity{
		Targets:  Targets{Service: 20},
		Achieved: Figures{Service: period.Scaled{Y: 5}},
	}
	assert.Equal(t, 20.0, e.Target(Service, period.Yesterday))
	assert.Equal(t, 25.0, e.Ratio(Service, period.Yesterday))
	assert.Equal(t, 0.0, e.Ratio(Commerce, period.Yesterday), "zero target yields zero")
	assert.Equal(t, Metric{Achieved: 5, Target: 20, Pct: 25}, e.Metric(Service, period.Yesterday))
}

func TestLeavesAndFilter(t *testing.T) {
	res := Build(testCal, rows(
		targetRow{sm: "Asha", mgr: "Ravi", mgrSM: "Asha", am: "Kiran", amMgr: "Ravi"},
		targetRow{sm: "Bela", am: "Lata", amSM: "Bela"},
		targetRow{am: "Nia", amSM: "Asha"},
	), nil)

	asha, ok := res.FindSM("sm-asha")
	require.True(t, ok)
	leaves := asha.Leaves()
	require.Len(t, leaves, 2)
	assert.Equal(t, "am-kiran", leaves[0].ID)
	assert.Equal(t, "am-nia", leaves[1].ID)

	_, ok = res.FindSM("sm-nobody")
	assert.False(t, ok)

	scoped := res.FilterSM(" bela ")
	require.Len(t, scoped.Tree, 1)
	assert.Equal(t, "sm-bela", scoped.Tree[0].ID)
	require.Len(t, scoped.SMs, 1)
	assert.Empty(t, scoped.Managers)
	require.Len(t, scoped.AMs, 1)
	assert.Equal(t, "am-lata", scoped.AMs[0].ID)

	assert.Empty(t, res.FilterSM("nobody").Tree)
}
