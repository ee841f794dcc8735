package sheets

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"

	"github.com/xuri/excelize/v2"
)

// Workbook serves ranges out of a local .xlsx export of the spreadsheet.
// The file is reopened on every call so an updated export is picked up
// without a restart.
type Workbook struct {
	Path string
}

// NewWorkbook checks that path exists and returns a Workbook source.
func NewWorkbook(path string) (*Workbook, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("workbook: %w", err)
	}
	return &Workbook{Path: path}, nil
}

// Check opens the workbook once.
func (w *Workbook) Check(_ context.Context) error {
	f, err := excelize.OpenFile(w.Path)
	if err != nil {
		return fmt.Errorf("open workbook: %w", err)
	}
	return f.Close()
}

// Values reads a1Range from the workbook.
func (w *Workbook) Values(ctx context.Context, a1Range string) (Grid, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ref, err := ParseA1(a1Range)
	if err != nil {
		return nil, err
	}

	f, err := excelize.OpenFile(w.Path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	if idx, err := f.GetSheetIndex(ref.Sheet); err != nil || idx < 0 {
		return nil, fmt.Errorf("%w: %s", ErrRangeNotFound, a1Range)
	}
	rows, err := f.GetRows(ref.Sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", ref.Sheet, err)
	}
	return ref.Slice(rows), nil
}

// A1 is a parsed A1-notation range. Zero end bounds mean "to the end".
// Rows and columns are 1-based.
type A1 struct {
	Sheet    string
	StartCol int
	StartRow int
	EndCol   int
	EndRow   int
}

// ParseA1 parses ranges like "Targets!A2:T", "'Dietitian Gaps'!B2:Q40" or a
// bare sheet name.
func ParseA1(s string) (A1, error) {
	sheet, cells := s, ""
	if i := strings.LastIndex(s, "!"); i >= 0 {
		sheet, cells = s[:i], s[i+1:]
	}
	if len(sheet) >= 2 && strings.HasPrefix(sheet, "'") && strings.HasSuffix(sheet, "'") {
		sheet = strings.ReplaceAll(sheet[1:len(sheet)-1], "''", "'")
	}
	if sheet == "" {
		return A1{}, fmt.Errorf("range %q: missing sheet name", s)
	}

	ref := A1{Sheet: sheet, StartCol: 1, StartRow: 1}
	if cells == "" {
		return ref, nil
	}

	from, to, _ := strings.Cut(cells, ":")
	col, row, err := parseCell(from)
	if err != nil {
		return A1{}, fmt.Errorf("range %q: %w", s, err)
	}
	if col > 0 {
		ref.StartCol = col
	}
	if row > 0 {
		ref.StartRow = row
	}
	if to == "" {
		// single cell
		ref.EndCol, ref.EndRow = ref.StartCol, ref.StartRow
		if col == 0 {
			ref.EndCol = 0
		}
		if row == 0 {
			ref.EndRow = 0
		}
		return ref, nil
	}
	ref.EndCol, ref.EndRow, err = parseCell(to)
	if err != nil {
		return A1{}, fmt.Errorf("range %q: %w", s, err)
	}
	return ref, nil
}

// parseCell splits "AH12" into column 34 and row 12. Either half may be absent.
func parseCell(s string) (col, row int, err error) {
	s = strings.ToUpper(strings.TrimSpace(strings.ReplaceAll(s, "$", "")))
	i := strings.IndexFunc(s, unicode.IsDigit)
	letters, digits := s, ""
	if i >= 0 {
		letters, digits = s[:i], s[i:]
	}
	if letters != "" {
		if col, err = excelize.ColumnNameToNumber(letters); err != nil {
			return 0, 0, err
		}
	}
	if digits != "" {
		if row, err = strconv.Atoi(digits); err != nil || row < 1 {
			return 0, 0, fmt.Errorf("invalid row %q", digits)
		}
	}
	return col, row, nil
}

// Slice cuts the ref's window out of a full sheet. Trailing empty cells and
// rows are dropped, matching what the Sheets API returns.
func (a A1) Slice(rows [][]string) Grid {
	start := a.StartRow - 1
	end := len(rows)
	if a.EndRow > 0 && a.EndRow < end {
		end = a.EndRow
	}
	if start >= end {
		return Grid{}
	}

	out := make(Grid, 0, end-start)
	for _, row := range rows[start:end] {
		out = append(out, a.sliceCols(row))
	}
	for len(out) > 0 && len(out[len(out)-1]) == 0 {
		out = out[:len(out)-1]
	}
	return out
}

func (a A1) sliceCols(row []string) []string {
	from := a.StartCol - 1
	to := len(row)
	if a.EndCol > 0 && a.EndCol < to {
		to = a.EndCol
	}
	if from >= to {
		return []string{}
	}
	cells := append([]string(nil), row[from:to]...)
	for len(cells) > 0 && cells[len(cells)-1] == "" {
		cells = cells[:len(cells)-1]
	}
	if cells == nil {
		cells = []string{}
	}
	return cells
}
