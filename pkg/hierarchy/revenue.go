package hierarchy

import (
	"github.com/fitelo/sales-dashboard/pkg/period"
	"github.com/fitelo/sales-dashboard/pkg/sheets"
)

// Revenue table columns.
const (
	colRevFLAP      = 9  // J
	colRevAM        = 10 // K
	colRevManager   = 11 // L
	colRevSM        = 12 // M
	colRevServiceY  = 14 // O
	colRevServiceW  = 15 // P
	colRevServiceM  = 16 // Q
	colRevCommerceY = 17 // R
	colRevCommerceW = 18 // S
	colRevCommerceM = 19 // T
)

// revenueOwners lists the name columns of a revenue row. One row usually
// encodes a whole rollup chain, so it credits every level it names.
var revenueOwners = []struct {
	col  int
	role Role
}{
	{colRevFLAP, RoleFLAP},
	{colRevAM, RoleAM},
	{colRevManager, RoleManager},
	{colRevSM, RoleSM},
}

// RevenueBook maps entity ids to summed achieved figures.
type RevenueBook map[string]Figures

// ScanRevenue sums the revenue rows into buckets keyed by (role, name) id.
func ScanRevenue(rows []sheets.Row) RevenueBook {
	book := RevenueBook{}
	for _, row := range rows {
		figures := Figures{
			Service: period.Scaled{
				Y: row.Number(colRevServiceY),
				W: row.Number(colRevServiceW),
				M: row.Number(colRevServiceM),
			},
			Commerce: period.Scaled{
				Y: row.Number(colRevCommerceY),
				W: row.Number(colRevCommerceW),
				M: row.Number(colRevCommerceM),
			},
		}
		for _, owner := range revenueOwners {
			name := row.Text(owner.col)
			if name == "" {
				continue
			}
			id := ID(owner.role, name)
			book[id] = book[id].Add(figures)
		}
	}
	return book
}
