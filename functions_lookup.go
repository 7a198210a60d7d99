package sheetcalc

func init() {
	register("VLOOKUP", 3, 4, fnVlookup)
	register("HLOOKUP", 3, 4, fnHlookup)
	register("MATCH", 2, 3, fnMatch)
	register("INDEX", 2, 3, fnIndex)
	register("LOOKUP", 2, 3, fnLookup)
	register("XLOOKUP", 3, 6, fnXlookup)
	register("OFFSET", 3, 5, fnOffset)
	register("INDIRECT", 1, 2, fnIndirect)
	register("ROW", 0, 1, fnRow)
	register("ROWS", 1, 1, fnRows)
	register("COLUMN", 0, 1, fnColumn)
	register("COLUMNS", 1, 1, fnColumns)
	register("ADDRESS", 2, 5, fnAddress)
}

// fnVlookup implements VLOOKUP(lookup_value, table_array, col_index_num,
// [range_lookup]) (§4.6): an approximate-match search requires the
// table's first column be sorted ascending, same as Excel's own
// contract; this engine does not re-sort or validate that order.
func fnVlookup(fc *FuncCall) Primitive {
	target := fc.Eval(0)
	if e, ok := target.(*SpreadsheetError); ok {
		return e
	}
	table, err := fc.RangeOf(1)
	if err != nil {
		return err
	}
	colIndex, errv := fc.Number(2)
	if errv != nil {
		return errv
	}
	approximate := true
	if fc.Count() >= 4 {
		b, errv := fc.Bool(3)
		if errv != nil {
			return errv
		}
		approximate = b
	}
	n := table.Addr.Normalized()
	col := int(colIndex)
	if col < 1 || uint32(col) > n.EndColumn-n.StartColumn+1 {
		return NewSpreadsheetError(ErrorCodeRef, "col_index_num out of range")
	}
	rowIdx, errv := findLookupRow(fc, n, 0, target, approximate)
	if errv != nil {
		return errv
	}
	if rowIdx < 0 {
		return NewSpreadsheetError(ErrorCodeNA, "no match")
	}
	addr := CellAddress{WorksheetID: n.WorksheetID, Row: n.StartRow + uint32(rowIdx), Column: n.StartColumn + uint32(col) - 1}
	return fc.ev.EvaluateCell(addr)
}

func fnHlookup(fc *FuncCall) Primitive {
	target := fc.Eval(0)
	if e, ok := target.(*SpreadsheetError); ok {
		return e
	}
	table, err := fc.RangeOf(1)
	if err != nil {
		return err
	}
	rowIndex, errv := fc.Number(2)
	if errv != nil {
		return errv
	}
	approximate := true
	if fc.Count() >= 4 {
		b, errv := fc.Bool(3)
		if errv != nil {
			return errv
		}
		approximate = b
	}
	n := table.Addr.Normalized()
	row := int(rowIndex)
	if row < 1 || uint32(row) > n.EndRow-n.StartRow+1 {
		return NewSpreadsheetError(ErrorCodeRef, "row_index_num out of range")
	}
	colIdx, errv := findLookupColumn(fc, n, target, approximate)
	if errv != nil {
		return errv
	}
	if colIdx < 0 {
		return NewSpreadsheetError(ErrorCodeNA, "no match")
	}
	addr := CellAddress{WorksheetID: n.WorksheetID, Row: n.StartRow + uint32(row) - 1, Column: n.StartColumn + uint32(colIdx)}
	return fc.ev.EvaluateCell(addr)
}

// findLookupRow scans n's colOffset-th column (0-based from the left
// edge) for target, returning the matching row offset (0-based from the
// top edge), or -1. approximate=true finds the largest value <= target
// assuming ascending order (VLOOKUP's default); approximate=false
// requires exact equality.
func findLookupRow(fc *FuncCall, n RangeAddress, colOffset int, target Primitive, approximate bool) (int, *SpreadsheetError) {
	best := -1
	for row := n.StartRow; row <= n.EndRow; row++ {
		addr := CellAddress{WorksheetID: n.WorksheetID, Row: row, Column: n.StartColumn + uint32(colOffset)}
		v := fc.ev.EvaluateCell(addr)
		if e, ok := v.(*SpreadsheetError); ok {
			return -1, e
		}
		cmp := fc.ev.compareValues(v, target)
		if cmp == 0 {
			return int(row - n.StartRow), nil
		}
		if approximate && cmp < 0 {
			best = int(row - n.StartRow)
		} else if approximate && cmp > 0 {
			break
		}
	}
	if approximate {
		return best, nil
	}
	return -1, nil
}

func findLookupColumn(fc *FuncCall, n RangeAddress, target Primitive, approximate bool) (int, *SpreadsheetError) {
	best := -1
	for col := n.StartColumn; col <= n.EndColumn; col++ {
		addr := CellAddress{WorksheetID: n.WorksheetID, Row: n.StartRow, Column: col}
		v := fc.ev.EvaluateCell(addr)
		if e, ok := v.(*SpreadsheetError); ok {
			return -1, e
		}
		cmp := fc.ev.compareValues(v, target)
		if cmp == 0 {
			return int(col - n.StartColumn), nil
		}
		if approximate && cmp < 0 {
			best = int(col - n.StartColumn)
		} else if approximate && cmp > 0 {
			break
		}
	}
	if approximate {
		return best, nil
	}
	return -1, nil
}

// fnMatch implements MATCH(lookup_value, lookup_array, [match_type])
// (§4.6): match_type 1 (default) finds the largest value <= target in
// an ascending array, -1 the smallest value >= target in a descending
// array, 0 an exact match anywhere; returns a 1-based position.
func fnMatch(fc *FuncCall) Primitive {
	target := fc.Eval(0)
	if e, ok := target.(*SpreadsheetError); ok {
		return e
	}
	r, err := fc.RangeOf(1)
	if err != nil {
		return err
	}
	matchType := 1
	if fc.Count() >= 3 {
		v, errv := fc.Number(2)
		if errv != nil {
			return errv
		}
		matchType = int(v)
	}
	addrs := rangeAddrList(r.Addr)
	switch matchType {
	case 0:
		for i, addr := range addrs {
			v := fc.ev.EvaluateCell(addr)
			if e, ok := v.(*SpreadsheetError); ok {
				return e
			}
			if fc.ev.compareValues(v, target) == 0 {
				return float64(i + 1)
			}
		}
	case 1:
		best := -1
		for i, addr := range addrs {
			v := fc.ev.EvaluateCell(addr)
			if e, ok := v.(*SpreadsheetError); ok {
				return e
			}
			cmp := fc.ev.compareValues(v, target)
			if cmp <= 0 {
				best = i
			} else {
				break
			}
		}
		if best >= 0 {
			return float64(best + 1)
		}
	case -1:
		best := -1
		for i, addr := range addrs {
			v := fc.ev.EvaluateCell(addr)
			if e, ok := v.(*SpreadsheetError); ok {
				return e
			}
			cmp := fc.ev.compareValues(v, target)
			if cmp >= 0 {
				best = i
			} else {
				break
			}
		}
		if best >= 0 {
			return float64(best + 1)
		}
	}
	return NewSpreadsheetError(ErrorCodeNA, "no match")
}

// fnIndex implements INDEX(array, row_num, [col_num]) (§4.6): row_num
// or col_num of 0 selects the entire corresponding row/column, which
// this engine returns as a RangeValue rather than a scalar.
func fnIndex(fc *FuncCall) Primitive {
	r, err := fc.RangeOf(0)
	if err != nil {
		return err
	}
	rowNum, errv := fc.Number(1)
	if errv != nil {
		return errv
	}
	colNum := 0.0
	if fc.Count() >= 3 {
		colNum, errv = fc.Number(2)
		if errv != nil {
			return errv
		}
	}
	n := r.Addr.Normalized()
	row, col := int(rowNum), int(colNum)
	if row < 0 || col < 0 {
		return NewSpreadsheetError(ErrorCodeValue, "")
	}
	width := int(n.EndColumn-n.StartColumn) + 1
	height := int(n.EndRow-n.StartRow) + 1
	if row > height || col > width {
		return NewSpreadsheetError(ErrorCodeRef, "INDEX out of range")
	}
	switch {
	case row == 0 && col == 0:
		return r
	case row == 0:
		return RangeValue{Worksheet: r.Worksheet, Addr: RangeAddress{
			WorksheetID: n.WorksheetID, StartRow: n.StartRow, EndRow: n.EndRow,
			StartColumn: n.StartColumn + uint32(col) - 1, EndColumn: n.StartColumn + uint32(col) - 1,
		}}
	case col == 0:
		return RangeValue{Worksheet: r.Worksheet, Addr: RangeAddress{
			WorksheetID: n.WorksheetID, StartColumn: n.StartColumn, EndColumn: n.EndColumn,
			StartRow: n.StartRow + uint32(row) - 1, EndRow: n.StartRow + uint32(row) - 1,
		}}
	default:
		addr := CellAddress{WorksheetID: n.WorksheetID, Row: n.StartRow + uint32(row) - 1, Column: n.StartColumn + uint32(col) - 1}
		return fc.ev.EvaluateCell(addr)
	}
}

// fnLookup implements the vector form of LOOKUP(lookup_value,
// lookup_vector, [result_vector]) (§3 SUPPLEMENTED FEATURES): an
// ascending approximate match against lookup_vector, returning the
// corresponding position in result_vector (or lookup_vector itself when
// no result_vector is given).
func fnLookup(fc *FuncCall) Primitive {
	target := fc.Eval(0)
	if e, ok := target.(*SpreadsheetError); ok {
		return e
	}
	lookupRange, err := fc.RangeOf(1)
	if err != nil {
		return err
	}
	resultRange := lookupRange
	if fc.Count() >= 3 {
		resultRange, err = fc.RangeOf(2)
		if err != nil {
			return err
		}
	}
	lookupAddrs := rangeAddrList(lookupRange.Addr)
	resultAddrs := rangeAddrList(resultRange.Addr)
	best := -1
	for i, addr := range lookupAddrs {
		v := fc.ev.EvaluateCell(addr)
		if e, ok := v.(*SpreadsheetError); ok {
			return e
		}
		if fc.ev.compareValues(v, target) <= 0 {
			best = i
		} else {
			break
		}
	}
	if best < 0 || best >= len(resultAddrs) {
		return NewSpreadsheetError(ErrorCodeNA, "no match")
	}
	return fc.ev.EvaluateCell(resultAddrs[best])
}

// fnXlookup implements a simplified XLOOKUP(lookup_value, lookup_array,
// return_array, [if_not_found], [match_mode], [search_mode]) (§3
// SUPPLEMENTED FEATURES): exact match only (match_mode/search_mode
// arguments are accepted for arity compatibility but only exact-match
// semantics, match_mode 0, are implemented).
func fnXlookup(fc *FuncCall) Primitive {
	target := fc.Eval(0)
	if e, ok := target.(*SpreadsheetError); ok {
		return e
	}
	lookupRange, err := fc.RangeOf(1)
	if err != nil {
		return err
	}
	returnRange, err := fc.RangeOf(2)
	if err != nil {
		return err
	}
	lookupAddrs := rangeAddrList(lookupRange.Addr)
	returnAddrs := rangeAddrList(returnRange.Addr)
	for i, addr := range lookupAddrs {
		v := fc.ev.EvaluateCell(addr)
		if e, ok := v.(*SpreadsheetError); ok {
			return e
		}
		if fc.ev.compareValues(v, target) == 0 {
			if i >= len(returnAddrs) {
				return NewSpreadsheetError(ErrorCodeRef, "return_array shorter than lookup_array")
			}
			return fc.ev.EvaluateCell(returnAddrs[i])
		}
	}
	if fc.Count() >= 4 {
		return fc.Eval(3)
	}
	return NewSpreadsheetError(ErrorCodeNA, "no match")
}

// fnOffset implements OFFSET(reference, rows, cols, [height], [width])
// (§4.6): returns a RangeValue shifted from reference by rows/cols, with
// height/width defaulting to reference's own extent.
func fnOffset(fc *FuncCall) Primitive {
	base, err := fc.RangeOf(0)
	if err != nil {
		return err
	}
	rows, errv := fc.Number(1)
	if errv != nil {
		return errv
	}
	cols, errv := fc.Number(2)
	if errv != nil {
		return errv
	}
	n := base.Addr.Normalized()
	height := int64(n.EndRow-n.StartRow) + 1
	width := int64(n.EndColumn-n.StartColumn) + 1
	if fc.Count() >= 4 {
		h, errv := fc.Number(3)
		if errv != nil {
			return errv
		}
		height = int64(h)
	}
	if fc.Count() >= 5 {
		w, errv := fc.Number(4)
		if errv != nil {
			return errv
		}
		width = int64(w)
	}
	if height < 1 || width < 1 {
		return NewSpreadsheetError(ErrorCodeValue, "")
	}
	newStartRow := int64(n.StartRow) + int64(rows)
	newStartCol := int64(n.StartColumn) + int64(cols)
	newEndRow := newStartRow + height - 1
	newEndCol := newStartCol + width - 1
	if newStartRow < 1 || newEndRow > int64(MaxRows) || newStartCol < 1 || newEndCol > int64(MaxColumns) {
		return NewSpreadsheetError(ErrorCodeRef, "OFFSET out of bounds")
	}
	result := RangeAddress{
		WorksheetID: n.WorksheetID,
		StartRow:    uint32(newStartRow), EndRow: uint32(newEndRow),
		StartColumn: uint32(newStartCol), EndColumn: uint32(newEndCol),
	}
	return RangeValue{Worksheet: fc.ev.wb.sheets[n.WorksheetID], Addr: result}
}

// fnIndirect implements INDIRECT(ref_text, [a1]) by reparsing ref_text
// as a standalone formula fragment and evaluating it exactly as if it
// had been written at the calling cell — the same mechanism used for
// every literal reference node, so a single-cell text yields a value and
// a range text yields a RangeValue (§4.6). The optional a1 argument is
// accepted for arity compatibility; R1C1-as-text is not supported since
// the workbook dialect is fixed at construction (§9 Open Question 1).
func fnIndirect(fc *FuncCall) Primitive {
	text := fc.Text(0)
	parsed := Parse(text, fc.ev.wb.parserContext())
	if !parsed.Ok {
		return NewSpreadsheetError(ErrorCodeRef, "INDIRECT: invalid reference text").WithOrigin(fc.cur)
	}
	switch parsed.Root.Kind {
	case NodeReference, NodeRange:
		return fc.ev.evalNode(parsed.Root, fc.cur)
	default:
		return NewSpreadsheetError(ErrorCodeRef, "INDIRECT: not a reference").WithOrigin(fc.cur)
	}
}

func fnRow(fc *FuncCall) Primitive {
	if fc.Count() == 0 {
		return float64(fc.cur.Row)
	}
	r, err := fc.RangeOf(0)
	if err != nil {
		return err
	}
	return float64(r.Addr.Normalized().StartRow)
}

func fnRows(fc *FuncCall) Primitive {
	r, err := fc.RangeOf(0)
	if err != nil {
		return err
	}
	return float64(r.Addr.Rows())
}

func fnColumn(fc *FuncCall) Primitive {
	if fc.Count() == 0 {
		return float64(fc.cur.Column)
	}
	r, err := fc.RangeOf(0)
	if err != nil {
		return err
	}
	return float64(r.Addr.Normalized().StartColumn)
}

func fnColumns(fc *FuncCall) Primitive {
	r, err := fc.RangeOf(0)
	if err != nil {
		return err
	}
	return float64(r.Addr.Columns())
}

// fnAddress implements ADDRESS(row_num, column_num, [abs_num], [a1],
// [sheet_text]) (§3 SUPPLEMENTED FEATURES): builds an A1-style reference
// string. abs_num: 1 absolute (default), 2 absolute row/relative col, 3
// relative row/absolute col, 4 relative.
func fnAddress(fc *FuncCall) Primitive {
	rowNum, errv := fc.Number(0)
	if errv != nil {
		return errv
	}
	colNum, errv := fc.Number(1)
	if errv != nil {
		return errv
	}
	absNum := 1
	if fc.Count() >= 3 {
		v, errv := fc.Number(2)
		if errv != nil {
			return errv
		}
		absNum = int(v)
	}
	if rowNum < 1 || colNum < 1 {
		return NewSpreadsheetError(ErrorCodeValue, "")
	}
	absRow := absNum == 1 || absNum == 2
	absCol := absNum == 1 || absNum == 3
	text := RowColToA1(uint32(rowNum), uint32(colNum), absRow, absCol)
	if fc.Count() >= 5 {
		sheet := fc.Text(4)
		text = "'" + sheet + "'!" + text
	}
	return text
}
