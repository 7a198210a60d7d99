package sheetcalc

func init() {
	register("IF", 2, 3, fnIf)
	register("IFERROR", 2, 2, fnIferror)
	register("IFNA", 2, 2, fnIfna)
	register("IFS", 2, -1, fnIfs)
	register("SWITCH", 3, -1, fnSwitch)
	register("AND", 1, -1, fnAnd)
	register("OR", 1, -1, fnOr)
	register("XOR", 1, -1, fnXor)
	register("NOT", 1, 1, fnNot)
	register("TRUE", 0, 0, func(fc *FuncCall) Primitive { return true })
	register("FALSE", 0, 0, func(fc *FuncCall) Primitive { return false })
}

// fnIf implements IF(condition, value_if_true, [value_if_false])
// lazily: only the selected branch is evaluated (§4.6 "IF is the one
// builtin that does not evaluate every argument").
func fnIf(fc *FuncCall) Primitive {
	cond, errv := fc.Bool(0)
	if errv != nil {
		return errv
	}
	if cond {
		return fc.Eval(1)
	}
	if fc.Count() < 3 {
		return false
	}
	return fc.Eval(2)
}

func fnIferror(fc *FuncCall) Primitive {
	v := fc.Eval(0)
	if _, ok := v.(*SpreadsheetError); ok {
		return fc.Eval(1)
	}
	return v
}

func fnIfna(fc *FuncCall) Primitive {
	v := fc.Eval(0)
	if e, ok := v.(*SpreadsheetError); ok && e.ErrorCode == ErrorCodeNA {
		return fc.Eval(1)
	}
	return v
}

// fnIfs evaluates condition/value pairs left to right, returning the
// first true condition's value; no true condition is #N/A (§4.6).
func fnIfs(fc *FuncCall) Primitive {
	if fc.Count()%2 != 0 {
		return NewSpreadsheetError(ErrorCodeValue, "IFS requires condition/value pairs")
	}
	for i := 0; i+1 < fc.Count(); i += 2 {
		cond, errv := fc.Bool(i)
		if errv != nil {
			return errv
		}
		if cond {
			return fc.Eval(i + 1)
		}
	}
	return NewSpreadsheetError(ErrorCodeNA, "no IFS condition matched")
}

// fnSwitch compares its first argument against each value/result pair,
// returning the matching result, an optional trailing default, or
// #N/A (§4.6).
func fnSwitch(fc *FuncCall) Primitive {
	expr := fc.Eval(0)
	if e, ok := expr.(*SpreadsheetError); ok {
		return e
	}
	i := 1
	for ; i+1 < fc.Count(); i += 2 {
		candidate := fc.Eval(i)
		if fc.ev.compareValues(expr, candidate) == 0 {
			return fc.Eval(i + 1)
		}
	}
	if i < fc.Count() {
		return fc.Eval(i)
	}
	return NewSpreadsheetError(ErrorCodeNA, "no SWITCH case matched")
}

func fnAnd(fc *FuncCall) Primitive {
	result := true
	any := false
	for _, v := range fc.FlattenAll() {
		if v == nil {
			continue
		}
		b, errv := fc.ev.toBool(v, fc.cur)
		if errv != nil {
			return errv
		}
		any = true
		result = result && b
	}
	if !any {
		return NewSpreadsheetError(ErrorCodeValue, "AND requires at least one logical value")
	}
	return result
}

func fnOr(fc *FuncCall) Primitive {
	result := false
	any := false
	for _, v := range fc.FlattenAll() {
		if v == nil {
			continue
		}
		b, errv := fc.ev.toBool(v, fc.cur)
		if errv != nil {
			return errv
		}
		any = true
		result = result || b
	}
	if !any {
		return NewSpreadsheetError(ErrorCodeValue, "OR requires at least one logical value")
	}
	return result
}

func fnXor(fc *FuncCall) Primitive {
	result := false
	for _, v := range fc.FlattenAll() {
		if v == nil {
			continue
		}
		b, errv := fc.ev.toBool(v, fc.cur)
		if errv != nil {
			return errv
		}
		if b {
			result = !result
		}
	}
	return result
}

func fnNot(fc *FuncCall) Primitive {
	b, errv := fc.Bool(0)
	if errv != nil {
		return errv
	}
	return !b
}
