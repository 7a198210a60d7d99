package sheetcalc

// ResolveContext is the information the resolver needs to turn a parsed
// ReferencePart into a fully-qualified CellAddress (§4.4): which cell is
// evaluating (for R1C1 relative offsets and an implicit sheet), and
// which dialect the reference was authored in.
type ResolveContext struct {
	Dialect Dialect
	Current CellAddress
}

// ResolveReference turns ref into a CellAddress, applying R1C1 relative
// arithmetic, sheet-name lookup (case-insensitive) and bounds checking
// (§4.4). Out-of-bounds or an unknown sheet name yields #REF!.
func (wb *Workbook) ResolveReference(ref ReferencePart, ctx ResolveContext) (CellAddress, *SpreadsheetError) {
	sheetID := ctx.Current.WorksheetID
	if ref.HasSheet {
		id, ok := wb.SheetIDByName(ref.Sheet)
		if !ok {
			return CellAddress{}, NewSpreadsheetError(ErrorCodeRef, "unknown sheet: "+ref.Sheet)
		}
		sheetID = id
	}

	row, col := ref.Row, ref.Column
	if ctx.Dialect == DialectR1C1 {
		if !ref.AbsRow {
			signed := int64(ctx.Current.Row) + int64(ref.RowOffset)
			if signed < 1 {
				return CellAddress{}, NewSpreadsheetError(ErrorCodeRef, "row offset out of range")
			}
			row = uint32(signed)
		}
		if !ref.AbsCol {
			signed := int64(ctx.Current.Column) + int64(ref.ColOffset)
			if signed < 1 {
				return CellAddress{}, NewSpreadsheetError(ErrorCodeRef, "column offset out of range")
			}
			col = uint32(signed)
		}
	}

	if row < 1 || row > MaxRows || col < 1 || col > MaxColumns {
		return CellAddress{}, NewSpreadsheetError(ErrorCodeRef, "reference out of bounds")
	}
	return CellAddress{WorksheetID: sheetID, Row: row, Column: col}, nil
}

// ResolveRange resolves a Range node's two endpoints into a normalized
// RangeAddress. A left/right sheet mismatch is caught earlier by the
// parser (NodeWrongReference); here only bounds/sheet-lookup failures
// can still occur.
func (wb *Workbook) ResolveRange(left, right ReferencePart, ctx ResolveContext) (RangeAddress, *SpreadsheetError) {
	a, err := wb.ResolveReference(left, ctx)
	if err != nil {
		return RangeAddress{}, err
	}
	// the end reference is resolved against the same sheet/offsets base
	// as the start, per §4.4; an explicit sheet on the end repeats the
	// start's (the parser already unified them).
	endCtx := ctx
	b, err := wb.ResolveReference(right, endCtx)
	if err != nil {
		return RangeAddress{}, err
	}
	if a.WorksheetID != b.WorksheetID {
		return RangeAddress{}, NewSpreadsheetError(ErrorCodeValue, "range cannot span two sheets")
	}
	return RangeAddress{
		WorksheetID: a.WorksheetID,
		StartRow:    a.Row,
		StartColumn: a.Column,
		EndRow:      b.Row,
		EndColumn:   b.Column,
	}.Normalized(), nil
}

// RowColToA1 renders a coordinate plus absoluteness flags as A1 text
// (sheet-less); used by the formatter seam and by transform.go.
func RowColToA1(row, col uint32, absRow, absCol bool) string {
	return stringifyReferencePart(ReferencePart{Row: row, Column: col, AbsRow: absRow, AbsCol: absCol})
}

// RowColToR1C1 renders a coordinate plus absoluteness flags as R1C1
// text, relative to base when a component is not absolute.
func RowColToR1C1(row, col uint32, absRow, absCol bool, base CellAddress) string {
	r := "R"
	if absRow {
		r += itoa(int64(row))
	} else if off := int64(row) - int64(base.Row); off != 0 {
		r += "[" + itoa(off) + "]"
	}
	c := "C"
	if absCol {
		c += itoa(int64(col))
	} else if off := int64(col) - int64(base.Column); off != 0 {
		c += "[" + itoa(off) + "]"
	}
	return r + c
}

func itoa(v int64) string {
	if v == 0 {
		return "0"
	}
	neg := v < 0
	if neg {
		v = -v
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
