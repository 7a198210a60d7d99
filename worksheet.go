package sheetcalc

import "sort"

// SheetState is the visibility state of a worksheet (§6 round-trip
// contract: "state visible/hidden/veryHidden").
type SheetState int

const (
	SheetVisible SheetState = iota
	SheetHidden
	SheetVeryHidden
)

// Worksheet is the sparse per-sheet cell store (§3 "Sheet data is a
// sparse mapping row -> (column -> Cell)"). Both levels are Go maps
// (unordered), but every iteration helper below walks them in row-major
// ascending order, the order §3 requires for deterministic
// serialisation.
type Worksheet struct {
	ID   uint32
	Name string

	State          SheetState
	TabColor       string
	FrozenRows     uint32
	FrozenColumns  uint32
	MergedRanges   []RangeAddress
	Comments       map[CellAddress]string
	DefaultStyle   uint32
	columnWidths   []columnWidthRun // sorted, non-overlapping, ascending StartColumn

	rows map[uint32]map[uint32]*Cell

	maxRow uint32
	maxCol uint32

	// Formulas is this sheet's shared-formula pool (§3 "Shared-formula
	// pool"): cells store only an integer index into it, and identical
	// formulas authored in different cells share one entry.
	Formulas *FormulaTable
}

// columnWidthRun is a run of contiguous columns sharing one width,
// mirroring a document container's column-span runs (§8 scenario 8).
type columnWidthRun struct {
	StartColumn uint32
	EndColumn   uint32
	Width       float64
}

// DefaultColumnWidth is used for any column not covered by an explicit
// run.
const DefaultColumnWidth = 8.43

// NewWorksheet creates an empty worksheet with the given id/name.
func NewWorksheet(id uint32, name string) *Worksheet {
	return &Worksheet{
		ID:       id,
		Name:     name,
		State:    SheetVisible,
		Comments: make(map[CellAddress]string),
		rows:     make(map[uint32]map[uint32]*Cell),
		Formulas: NewFormulaTable(),
		columnWidths: []columnWidthRun{
			{StartColumn: 1, EndColumn: MaxColumns, Width: DefaultColumnWidth},
		},
	}
}

// GetCell returns the cell at (row, col), or nil if unpopulated.
func (w *Worksheet) GetCell(row, col uint32) *Cell {
	cols, ok := w.rows[row]
	if !ok {
		return nil
	}
	return cols[col]
}

// SetCell stores cell at (row, col), replacing any existing content.
func (w *Worksheet) SetCell(row, col uint32, cell *Cell) {
	cols, ok := w.rows[row]
	if !ok {
		cols = make(map[uint32]*Cell)
		w.rows[row] = cols
	}
	cell.Row = row
	cell.Col = col
	cols[col] = cell
	if row > w.maxRow {
		w.maxRow = row
	}
	if col > w.maxCol {
		w.maxCol = col
	}
}

// DeleteCell removes the entry at (row, col) entirely (§4.3
// "delete_cell": remove the entry).
func (w *Worksheet) DeleteCell(row, col uint32) {
	cols, ok := w.rows[row]
	if !ok {
		return
	}
	delete(cols, col)
	if len(cols) == 0 {
		delete(w.rows, row)
	}
}

// SetCellEmpty blanks (row, col) while preserving its style index (§4.3
// "set_cell_empty": blank it while keeping its style).
func (w *Worksheet) SetCellEmpty(row, col uint32) {
	style := uint32(0)
	if cell := w.GetCell(row, col); cell != nil {
		style = cell.Style
	}
	w.SetCell(row, col, &Cell{Kind: CellKindEmpty, Style: style})
}

// PopulatedBounds returns the highest row and column ever stored on the
// sheet (DeleteCell does not lower them), or ok=false for an empty sheet.
// No evaluator code calls it, and the lexer does not accept whole-column
// or whole-row ranges such as A:A, so SUM(A:A) is not optimised.
func (w *Worksheet) PopulatedBounds() (maxRow, maxCol uint32, ok bool) {
	if len(w.rows) == 0 {
		return 0, 0, false
	}
	return w.maxRow, w.maxCol, true
}

// SortedRows returns the worksheet's populated row indices in ascending
// order, the row-major iteration order §3 mandates.
func (w *Worksheet) SortedRows() []uint32 {
	rows := make([]uint32, 0, len(w.rows))
	for r := range w.rows {
		rows = append(rows, r)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i] < rows[j] })
	return rows
}

// SortedColumnsInRow returns the populated column indices of row r in
// ascending order.
func (w *Worksheet) SortedColumnsInRow(r uint32) []uint32 {
	cols, ok := w.rows[r]
	if !ok {
		return nil
	}
	result := make([]uint32, 0, len(cols))
	for c := range cols {
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result
}

// AllCells iterates every populated cell in row-major order.
func (w *Worksheet) AllCells(yield func(row, col uint32, cell *Cell) bool) {
	for _, row := range w.SortedRows() {
		for _, col := range w.SortedColumnsInRow(row) {
			if !yield(row, col, w.rows[row][col]) {
				return
			}
		}
	}
}

// SetColumnWidth sets the width of a single column, splitting the run it
// falls within (§8 scenario 8: "splits the range").
func (w *Worksheet) SetColumnWidth(col uint32, width float64) {
	var result []columnWidthRun
	for _, run := range w.columnWidths {
		if col < run.StartColumn || col > run.EndColumn {
			result = append(result, run)
			continue
		}
		if run.StartColumn < col {
			result = append(result, columnWidthRun{StartColumn: run.StartColumn, EndColumn: col - 1, Width: run.Width})
		}
		result = append(result, columnWidthRun{StartColumn: col, EndColumn: col, Width: width})
		if col < run.EndColumn {
			result = append(result, columnWidthRun{StartColumn: col + 1, EndColumn: run.EndColumn, Width: run.Width})
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].StartColumn < result[j].StartColumn })
	w.columnWidths = result
}

// GetColumnWidth returns the width in effect for col, or
// DefaultColumnWidth if no explicit run covers it.
func (w *Worksheet) GetColumnWidth(col uint32) float64 {
	for _, run := range w.columnWidths {
		if col >= run.StartColumn && col <= run.EndColumn {
			return run.Width
		}
	}
	return DefaultColumnWidth
}
