package sheetcalc

func init() {
	register("ISNUMBER", 1, 1, fnIsType(func(v Primitive) bool { _, ok := v.(float64); return ok }))
	register("ISTEXT", 1, 1, fnIsType(func(v Primitive) bool { _, ok := v.(string); return ok }))
	register("ISLOGICAL", 1, 1, fnIsType(func(v Primitive) bool { _, ok := v.(bool); return ok }))
	register("ISBLANK", 1, 1, fnIsblank)
	register("ISERR", 1, 1, fnIserr)
	register("ISERROR", 1, 1, fnIserror)
	register("ISNA", 1, 1, fnIsna)
	register("ISREF", 1, 1, fnIsref)
	register("ISFORMULA", 1, 1, fnIsformula)
	register("ISODD", 1, 1, fnIsParity(1))
	register("ISEVEN", 1, 1, fnIsParity(0))
	register("TYPE", 1, 1, fnType)
	register("ERROR.TYPE", 1, 1, fnErrorType)
	register("NA", 0, 0, func(fc *FuncCall) Primitive { return NewSpreadsheetError(ErrorCodeNA, "") })
	register("SHEET", 0, 1, fnSheet)
}

// fnIsType builds an IS*-family predicate over the evaluated value of its
// single argument (§4.6 Information group): an error argument yields
// FALSE rather than propagating, so ISNUMBER(A1/0) is FALSE; only
// ISERROR/ISERR/ISNA look at which error it is.
func fnIsType(pred func(Primitive) bool) func(*FuncCall) Primitive {
	return func(fc *FuncCall) Primitive {
		v := fc.Eval(0)
		if _, ok := v.(*SpreadsheetError); ok {
			return false
		}
		return pred(v)
	}
}

// fnIsblank implements ISBLANK: true only for a genuinely empty cell
// reference, not for a formula that evaluates to an empty string (§4.6).
func fnIsblank(fc *FuncCall) Primitive {
	n := fc.Raw(0)
	if n == nil {
		return true
	}
	if n.Kind == NodeEmpty {
		return true
	}
	if n.Kind != NodeReference {
		v := fc.Eval(0)
		return v == nil
	}
	addr, err := fc.ev.wb.ResolveReference(n.Ref, ResolveContext{Dialect: dialectForWorkbook, Current: fc.cur})
	if err != nil {
		return false
	}
	ws := fc.ev.wb.sheets[addr.WorksheetID]
	if ws == nil {
		return false
	}
	return ws.GetCell(addr.Row, addr.Column).IsEmpty()
}

func fnIserr(fc *FuncCall) Primitive {
	v := fc.Eval(0)
	e, ok := v.(*SpreadsheetError)
	return ok && e.ErrorCode != ErrorCodeNA
}

func fnIserror(fc *FuncCall) Primitive {
	_, ok := fc.Eval(0).(*SpreadsheetError)
	return ok
}

func fnIsna(fc *FuncCall) Primitive {
	v := fc.Eval(0)
	e, ok := v.(*SpreadsheetError)
	return ok && e.ErrorCode == ErrorCodeNA
}

// fnIsref implements ISREF: true iff the argument node is syntactically a
// reference/range/defined-name, regardless of whether it resolves to a
// valid coordinate (§4.6; this is a shape check over Raw, not Eval).
func fnIsref(fc *FuncCall) Primitive {
	n := fc.Raw(0)
	if n == nil {
		return false
	}
	switch n.Kind {
	case NodeReference, NodeRange, NodeDefinedName:
		return true
	}
	return false
}

// fnIsformula implements ISFORMULA (stringified "_xlfn.ISFORMULA" on
// write, functions.go's xlfnFunctions table): true iff the referenced
// cell holds a formula, not whether it currently errors.
func fnIsformula(fc *FuncCall) Primitive {
	n := fc.Raw(0)
	if n == nil || n.Kind != NodeReference {
		return NewSpreadsheetError(ErrorCodeValue, "ISFORMULA requires a reference")
	}
	addr, err := fc.ev.wb.ResolveReference(n.Ref, ResolveContext{Dialect: dialectForWorkbook, Current: fc.cur})
	if err != nil {
		return err
	}
	ws := fc.ev.wb.sheets[addr.WorksheetID]
	if ws == nil {
		return false
	}
	return ws.GetCell(addr.Row, addr.Column).IsFormula()
}

func fnIsParity(remainder int) func(*FuncCall) Primitive {
	return func(fc *FuncCall) Primitive {
		n, errv := fc.Number(0)
		if errv != nil {
			return errv
		}
		i := int64(n)
		if i < 0 {
			i = -i
		}
		return i%2 == int64(remainder)
	}
}

// fnType implements TYPE: 1 number, 2 text, 4 boolean, 16 error, 64
// array/range (§4.6).
func fnType(fc *FuncCall) Primitive {
	v := fc.Eval(0)
	switch v.(type) {
	case float64, nil:
		return 1.0
	case string:
		return 2.0
	case bool:
		return 4.0
	case *SpreadsheetError:
		return 16.0
	case RangeValue:
		return 64.0
	}
	return 1.0
}

// errorTypeCodes maps each ErrorCode to the number ERROR.TYPE reports
// for it (§4.6); the numbering is ERROR.TYPE's own table (#ERROR! in
// slot 1, then #DIV/0!, #VALUE!, #REF!, #NAME?, #NUM!, #N/A), not the
// order of cell.go's ErrorMapper.
var errorTypeCodes = map[ErrorCode]float64{
	ErrorCodeNum:   6,
	ErrorCodeValue: 3,
	ErrorCodeRef:   4,
	ErrorCodeDiv0:  2,
	ErrorCodeName:  5,
	ErrorCodeNA:    7,
	ErrorCodeOther: 1,
	ErrorCodeCirc:  8,
	ErrorCodeSpill: 9,
	ErrorCodeCalc:  10,
}

func fnErrorType(fc *FuncCall) Primitive {
	v := fc.Eval(0)
	e, ok := v.(*SpreadsheetError)
	if !ok {
		return NewSpreadsheetError(ErrorCodeNA, "ERROR.TYPE requires an error value")
	}
	if code, ok := errorTypeCodes[e.ErrorCode]; ok {
		return code
	}
	return NewSpreadsheetError(ErrorCodeNA, "")
}

// fnSheet implements SHEET([value]) (stringified "_xlfn.SHEET"): with no
// argument, the 1-based position of the evaluating cell's own sheet;
// with a reference argument, that reference's sheet; with a text
// argument, the named sheet's position; unresolvable ⇒ #N/A (§4.6).
func fnSheet(fc *FuncCall) Primitive {
	wb := fc.ev.wb
	if fc.Count() == 0 {
		return float64(sheetPosition(wb, fc.cur.WorksheetID))
	}
	n := fc.Raw(0)
	if n != nil && n.Kind == NodeReference {
		addr, err := wb.ResolveReference(n.Ref, ResolveContext{Dialect: dialectForWorkbook, Current: fc.cur})
		if err != nil {
			return err
		}
		return float64(sheetPosition(wb, addr.WorksheetID))
	}
	name := fc.Text(0)
	id, ok := wb.SheetIDByName(name)
	if !ok {
		return NewSpreadsheetError(ErrorCodeNA, "unknown sheet: "+name)
	}
	return float64(sheetPosition(wb, id))
}

func sheetPosition(wb *Workbook, id uint32) int {
	for i, ws := range wb.Sheets() {
		if ws.ID == id {
			return i + 1
		}
	}
	return 0
}
