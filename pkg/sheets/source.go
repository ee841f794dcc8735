package sheets

import (
	"context"
	"errors"
	"strings"

	"github.com/fitelo/sales-dashboard/pkg/numeric"
)

// ErrRangeNotFound is returned when a sheet named in a range does not exist.
var ErrRangeNotFound = errors.New("range not found")

// Source fetches a rectangular block of cells addressed by an A1 range such as
// "Targets!A2:T". Rows may be ragged: trailing empty cells are usually
// omitted by the backend.
type Source interface {
	Values(ctx context.Context, a1Range string) (Grid, error)
}

// Checker is implemented by sources that can verify their backend is reachable.
type Checker interface {
	Check(ctx context.Context) error
}

// Grid is the untyped result of a range fetch.
type Grid [][]string

// Rows wraps every line of the grid in a Row accessor.
func (g Grid) Rows() []Row {
	out := make([]Row, len(g))
	for i, r := range g {
		out[i] = Row(r)
	}
	return out
}

// Row is one line of a grid. Accessors never fail on short rows.
type Row []string

// Raw returns the cell at i as stored, or "" when the row is shorter.
func (r Row) Raw(i int) string {
	if i < 0 || i >= len(r) {
		return ""
	}
	return r[i]
}

// Text returns the trimmed cell at i.
func (r Row) Text(i int) string {
	return strings.TrimSpace(r.Raw(i))
}

// Number returns the normalized numeric value of the cell at i.
func (r Row) Number(i int) float64 {
	return numeric.Parse(r.Raw(i))
}
