package sheetcalc

import (
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/collate"
)

// RangeValue is the lattice member produced by a Range/DefinedName node
// before a function or operator reduces it to a scalar (§4.5 "a range is
// a first-class intermediate value, not auto-flattened at parse time").
type RangeValue struct {
	Worksheet *Worksheet
	Addr      RangeAddress
}

// Evaluator holds the transient state of one full recalculation pass
// over a Workbook (§4.5, §9 "no materialised dependency graph — a stack
// of addresses currently being evaluated detects cycles instead").
type Evaluator struct {
	wb        *Workbook
	stack     map[CellAddress]int // addr -> depth, for cycle detection
	evaluated map[CellAddress]bool
	collator  *collate.Collator
}

// NewEvaluator creates an evaluator for a single recalculation pass over
// wb.
func NewEvaluator(wb *Workbook) *Evaluator {
	return &Evaluator{
		wb:        wb,
		stack:     make(map[CellAddress]int),
		evaluated: make(map[CellAddress]bool),
		collator:  collate.New(wb.Env.Locale.collatorTag()),
	}
}

// Recalculate evaluates every formula cell in every sheet exactly once,
// in sheet-then-row-major order, writing each cached result back into
// its Cell (§4.5 "memoisation: a cell's cached result is reused for the
// rest of the pass and invalidated only by the next full Recalculate").
func (wb *Workbook) Recalculate() {
	ev := NewEvaluator(wb)
	for _, ws := range wb.Sheets() {
		ws.AllCells(func(row, col uint32, cell *Cell) bool {
			if cell.IsFormula() {
				ev.EvaluateCell(CellAddress{WorksheetID: ws.ID, Row: row, Column: col})
			}
			return true
		})
	}
}

// GetCellValue evaluates (if necessary) and returns the logical value at
// addr (§4.3 "get_cell_value_by_index"). Non-formula cells return their
// stored value directly without needing a full Recalculate.
func (wb *Workbook) GetCellValue(addr CellAddress) Primitive {
	ws := wb.sheets[addr.WorksheetID]
	if ws == nil {
		return NewSpreadsheetError(ErrorCodeRef, "no such sheet")
	}
	cell := ws.GetCell(addr.Row, addr.Column)
	if cell == nil || !cell.IsFormula() {
		return wb.cellScalarValue(cell)
	}
	ev := NewEvaluator(wb)
	return ev.EvaluateCell(addr)
}

func (wb *Workbook) cellScalarValue(cell *Cell) Primitive {
	if cell.IsEmpty() {
		return nil
	}
	if cell.Kind == CellKindSharedString {
		s, _ := wb.Strings.GetString(cell.StringID)
		return s
	}
	return cell.Value()
}

// EvaluateCell evaluates the formula cell at addr, using the cycle stack
// and the pass-local memo set, and writes the result back into the Cell
// (§4.5).
func (ev *Evaluator) EvaluateCell(addr CellAddress) Primitive {
	ws := ev.wb.sheets[addr.WorksheetID]
	if ws == nil {
		return NewSpreadsheetError(ErrorCodeRef, "no such sheet")
	}
	cell := ws.GetCell(addr.Row, addr.Column)
	if cell == nil {
		return nil
	}
	if !cell.IsFormula() {
		return ev.wb.cellScalarValue(cell)
	}
	if ev.evaluated[addr] {
		return ev.wb.cellScalarValue(cell)
	}
	if _, cycling := ev.stack[addr]; cycling {
		return NewSpreadsheetError(ErrorCodeCirc, "circular reference").WithOrigin(addr)
	}

	ast, ok := ws.Formulas.GetAST(cell.FormulaID)
	if !ok {
		ev.evaluated[addr] = true
		return NewSpreadsheetError(ErrorCodeOther, "missing formula")
	}

	ev.stack[addr] = len(ev.stack)
	result := ev.evalNode(ast, addr)
	delete(ev.stack, addr)
	ev.evaluated[addr] = true

	ev.storeResult(ws, cell, result)
	return result
}

// storeResult writes an evaluated result back into cell, transitioning
// it to the matching Formula* cached kind.
func (ev *Evaluator) storeResult(ws *Worksheet, cell *Cell, result Primitive) {
	switch v := result.(type) {
	case nil:
		cell.Kind = CellKindFormulaString
		cell.InlineString = ""
	case float64:
		cell.Kind = CellKindFormulaNumber
		cell.Number = v
	case bool:
		cell.Kind = CellKindFormulaBoolean
		cell.Bool = v
	case string:
		cell.Kind = CellKindFormulaString
		cell.InlineString = v
	case *SpreadsheetError:
		cell.Kind = CellKindFormulaError
		cell.ErrorCode = v.ErrorCode
		cell.ErrorMessage = v.Message
		cell.ErrorOrigin = v.Origin
	case RangeValue:
		// A formula whose top-level result is a bare range reduces to the
		// value of the range's top-left cell (§4.5 implicit intersection).
		addr := CellAddress{WorksheetID: v.Addr.WorksheetID, Row: v.Addr.StartRow, Column: v.Addr.StartColumn}
		ev.storeResult(ws, cell, ev.EvaluateCell(addr))
	}
}

// evalNode recursively reduces n to a scalar Primitive, a RangeValue, or
// a *SpreadsheetError (§4.5). cur is the address of the cell currently
// being evaluated, used to resolve R1C1-relative references and to stamp
// error origins.
func (ev *Evaluator) evalNode(n *Node, cur CellAddress) Primitive {
	if n == nil {
		return nil
	}
	switch n.Kind {
	case NodeNumber:
		return n.Number
	case NodeString:
		return n.Str
	case NodeBoolean:
		return n.Bool
	case NodeError:
		return NewSpreadsheetError(n.ErrorCode, "").WithOrigin(cur)
	case NodeEmpty:
		return nil
	case NodeParseError:
		return NewSpreadsheetError(ErrorCodeOther, n.Message).WithOrigin(cur)
	case NodeWrongReference:
		return NewSpreadsheetError(n.ErrorCode, n.Message).WithOrigin(cur)
	case NodeReference:
		return ev.evalReference(n.Ref, cur)
	case NodeRange:
		return ev.evalRange(n.Ref, n.RangeEnd, cur)
	case NodeDefinedName:
		return ev.evalDefinedName(n.Name, cur)
	case NodeInvalidFunction:
		return NewSpreadsheetError(ErrorCodeName, "unknown function: "+n.FuncName).WithOrigin(cur)
	case NodeFunctionCall:
		return ev.evalFunctionCall(n, cur)
	case NodeOpUnary:
		return ev.evalUnary(n, cur)
	case NodeOpSum:
		return ev.evalArith(n, cur)
	case NodeOpProduct:
		return ev.evalArith(n, cur)
	case NodeOpPower:
		return ev.evalArith(n, cur)
	case NodeOpConcat:
		return ev.evalConcat(n, cur)
	case NodeOpCompare:
		return ev.evalCompare(n, cur)
	}
	return nil
}

func (ev *Evaluator) evalReference(ref ReferencePart, cur CellAddress) Primitive {
	addr, err := ev.wb.ResolveReference(ref, ResolveContext{Dialect: dialectForWorkbook, Current: cur})
	if err != nil {
		return err.WithOrigin(cur)
	}
	if _, cycling := ev.stack[addr]; cycling {
		return NewSpreadsheetError(ErrorCodeCirc, "circular reference").WithOrigin(addr)
	}
	return ev.EvaluateCell(addr)
}

func (ev *Evaluator) evalRange(left, right ReferencePart, cur CellAddress) Primitive {
	addr, err := ev.wb.ResolveRange(left, right, ResolveContext{Dialect: dialectForWorkbook, Current: cur})
	if err != nil {
		return err.WithOrigin(cur)
	}
	return RangeValue{Worksheet: ev.wb.sheets[addr.WorksheetID], Addr: addr}
}

func (ev *Evaluator) evalDefinedName(name string, cur CellAddress) Primitive {
	addr, ok := ev.wb.Names.GetRangeAddressByName(name)
	if !ok {
		return NewSpreadsheetError(ErrorCodeName, "undefined name: "+name).WithOrigin(cur)
	}
	return RangeValue{Worksheet: ev.wb.sheets[addr.WorksheetID], Addr: addr}
}

func (ev *Evaluator) evalUnary(n *Node, cur CellAddress) Primitive {
	operand := ev.evalNode(n.Operand, cur)
	switch n.UnaryOp {
	case UnaryPlus:
		return operand
	case UnaryNegate:
		v, errv := ev.toNumber(operand, cur)
		if errv != nil {
			return errv
		}
		return -v
	case UnaryPercent:
		v, errv := ev.toNumber(operand, cur)
		if errv != nil {
			return errv
		}
		return v / 100
	}
	return nil
}

func (ev *Evaluator) evalArith(n *Node, cur CellAddress) Primitive {
	lhs := ev.evalNode(n.Lhs, cur)
	if e, ok := lhs.(*SpreadsheetError); ok {
		return e
	}
	rhs := ev.evalNode(n.Rhs, cur)
	if e, ok := rhs.(*SpreadsheetError); ok {
		return e
	}
	l, errl := ev.toNumber(lhs, cur)
	if errl != nil {
		return errl
	}
	r, errr := ev.toNumber(rhs, cur)
	if errr != nil {
		return errr
	}
	switch n.Kind {
	case NodeOpSum:
		if n.SumOp == SumMinus {
			return ev.numResult(l-r, cur)
		}
		return ev.numResult(l+r, cur)
	case NodeOpProduct:
		if n.ProductOp == ProductDivide {
			if r == 0 {
				return NewSpreadsheetError(ErrorCodeDiv0, "").WithOrigin(cur)
			}
			return ev.numResult(l/r, cur)
		}
		return ev.numResult(l*r, cur)
	case NodeOpPower:
		if l == 0 && r == 0 {
			return NewSpreadsheetError(ErrorCodeNum, "").WithOrigin(cur)
		}
		return ev.numResult(math.Pow(l, r), cur)
	}
	return nil
}

// numResult implements §4.5's "numeric NaN/±∞ results ⇒ #NUM!" rule for
// the core arithmetic operators, the evaluator-level counterpart to
// checkNumResult (functions_math.go), which the function library funnels
// its own results through.
func (ev *Evaluator) numResult(v float64, cur CellAddress) Primitive {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return NewSpreadsheetError(ErrorCodeNum, "").WithOrigin(cur)
	}
	return v
}

func (ev *Evaluator) evalConcat(n *Node, cur CellAddress) Primitive {
	lhs := ev.evalNode(n.Lhs, cur)
	if e, ok := lhs.(*SpreadsheetError); ok {
		return e
	}
	rhs := ev.evalNode(n.Rhs, cur)
	if e, ok := rhs.(*SpreadsheetError); ok {
		return e
	}
	return ev.toText(lhs) + ev.toText(rhs)
}

func (ev *Evaluator) evalCompare(n *Node, cur CellAddress) Primitive {
	lhs := ev.evalNode(n.Lhs, cur)
	if e, ok := lhs.(*SpreadsheetError); ok {
		return e
	}
	rhs := ev.evalNode(n.Rhs, cur)
	if e, ok := rhs.(*SpreadsheetError); ok {
		return e
	}
	cmp := ev.compareValues(lhs, rhs)
	switch n.CompareOp {
	case CompareEq:
		return cmp == 0
	case CompareNe:
		return cmp != 0
	case CompareLt:
		return cmp < 0
	case CompareLe:
		return cmp <= 0
	case CompareGt:
		return cmp > 0
	case CompareGe:
		return cmp >= 0
	}
	return false
}

// valueRank orders the three scalar type groups for cross-type
// comparison (§4.5 "numbers < text < booleans, empty sorts as its peer's
// zero value").
func valueRank(v Primitive) int {
	switch v.(type) {
	case nil:
		return 0
	case float64:
		return 0
	case string:
		return 1
	case bool:
		return 2
	}
	return 3
}

// compareValues implements the cross-type ordering used by comparison
// operators and by sort-dependent lookup functions: same-rank values
// compare natively (locale-aware, case-insensitive for strings via
// golang.org/x/text/collate); different ranks compare by rank.
func (ev *Evaluator) compareValues(a, b Primitive) int {
	ra, rb := valueRank(a), valueRank(b)
	if ra != rb {
		if ra < rb {
			return -1
		}
		return 1
	}
	switch av := a.(type) {
	case nil:
		bf, _ := toFloatOrZero(b)
		switch {
		case bf < 0:
			return 1
		case bf > 0:
			return -1
		default:
			return 0
		}
	case float64:
		bf, _ := toFloatOrZero(b)
		switch {
		case av < bf:
			return -1
		case av > bf:
			return 1
		default:
			return 0
		}
	case string:
		bv, _ := b.(string)
		return ev.collator.CompareString(av, bv)
	case bool:
		bv, _ := b.(bool)
		if av == bv {
			return 0
		}
		if !av {
			return -1
		}
		return 1
	}
	return 0
}

func toFloatOrZero(v Primitive) (float64, bool) {
	switch x := v.(type) {
	case nil:
		return 0, true
	case float64:
		return x, true
	}
	return 0, false
}

// toNumber coerces v to a number for arithmetic: numbers pass through,
// empty is 0, booleans are 0/1, strings parse as locale-sensitive
// numbers or fail as #VALUE!, ranges reduce via single-cell implicit
// intersection (§4.5 "coercion rules").
func (ev *Evaluator) toNumber(v Primitive, cur CellAddress) (float64, *SpreadsheetError) {
	switch x := v.(type) {
	case nil:
		return 0, nil
	case float64:
		return x, nil
	case bool:
		if x {
			return 1, nil
		}
		return 0, nil
	case string:
		if n, ok := parseLocaleNumber(x, ev.wb.Env.Locale); ok {
			return n, nil
		}
		return 0, NewSpreadsheetError(ErrorCodeValue, "cannot coerce text to number").WithOrigin(cur)
	case *SpreadsheetError:
		return 0, x
	case RangeValue:
		scalar, err := ev.reduceToScalar(x, cur)
		if err != nil {
			return 0, err
		}
		return ev.toNumber(scalar, cur)
	}
	return 0, NewSpreadsheetError(ErrorCodeValue, "").WithOrigin(cur)
}

// toText coerces v to display text (§4.5): used by concatenation and by
// TEXT()-adjacent functions. Errors are not expected here; evalConcat
// short-circuits on *SpreadsheetError before calling toText.
func (ev *Evaluator) toText(v Primitive) string {
	switch x := v.(type) {
	case nil:
		return ""
	case float64:
		return formatNumberLiteral(x)
	case string:
		return x
	case bool:
		if x {
			return "TRUE"
		}
		return "FALSE"
	case *SpreadsheetError:
		return x.Literal()
	case RangeValue:
		scalar, err := ev.reduceToScalar(x, CellAddress{})
		if err != nil {
			return err.Literal()
		}
		return ev.toText(scalar)
	}
	return ""
}

// toBool coerces v for use as a condition (IF, AND/OR args, criterion
// matching of TRUE/FALSE): numbers are truthy iff nonzero, strings
// parse as boolean words, empty is FALSE.
func (ev *Evaluator) toBool(v Primitive, cur CellAddress) (bool, *SpreadsheetError) {
	switch x := v.(type) {
	case nil:
		return false, nil
	case bool:
		return x, nil
	case float64:
		return x != 0, nil
	case string:
		if ev.wb.Env.Language.IsBooleanTrue(x) {
			return true, nil
		}
		if ev.wb.Env.Language.IsBooleanFalse(x) {
			return false, nil
		}
		return false, NewSpreadsheetError(ErrorCodeValue, "cannot coerce text to boolean").WithOrigin(cur)
	case *SpreadsheetError:
		return false, x
	case RangeValue:
		scalar, err := ev.reduceToScalar(x, cur)
		if err != nil {
			return false, err
		}
		return ev.toBool(scalar, cur)
	}
	return false, NewSpreadsheetError(ErrorCodeValue, "").WithOrigin(cur)
}

// reduceToScalar implements implicit intersection: a single-cell range
// reduces to that cell's value; a multi-cell range used where a scalar
// is required is a #VALUE! error (§4.5).
func (ev *Evaluator) reduceToScalar(r RangeValue, cur CellAddress) (Primitive, *SpreadsheetError) {
	n := r.Addr.Normalized()
	if n.StartRow != n.EndRow || n.StartColumn != n.EndColumn {
		return nil, NewSpreadsheetError(ErrorCodeValue, "range used where a single value is required").WithOrigin(cur)
	}
	addr := CellAddress{WorksheetID: n.WorksheetID, Row: n.StartRow, Column: n.StartColumn}
	return ev.EvaluateCell(addr), nil
}

// evalFunctionCall dispatches n to its registered implementation,
// looked up once at parse time into n.FuncName (§4.6).
func (ev *Evaluator) evalFunctionCall(n *Node, cur CellAddress) Primitive {
	spec, ok := LookupFunction(n.FuncName)
	if !ok {
		return NewSpreadsheetError(ErrorCodeName, "unknown function: "+n.FuncName).WithOrigin(cur)
	}
	if len(n.Args) < spec.MinArgs || (spec.MaxArgs >= 0 && len(n.Args) > spec.MaxArgs) {
		return NewSpreadsheetError(ErrorCodeValue, "wrong number of arguments to "+n.FuncName).WithOrigin(cur)
	}
	fc := &FuncCall{ev: ev, cur: cur, args: n.Args}
	result := spec.Fn(fc)
	if e, ok := result.(*SpreadsheetError); ok && !e.HasOrigin {
		return e.WithOrigin(cur)
	}
	return result
}

// FuncCall is the interface a builtin function implementation sees: it
// can evaluate an argument eagerly (Eval), inspect an argument's raw
// node without evaluating (Raw, for ISBLANK/COLUMNS-style functions that
// care about shape, not value), or flatten its arguments into one list
// of values (Flatten/FlattenAll) for the common SUM/AVERAGE-shaped
// aggregates.
type FuncCall struct {
	ev   *Evaluator
	cur  CellAddress
	args []*Node
}

func (fc *FuncCall) Count() int { return len(fc.args) }

func (fc *FuncCall) Raw(i int) *Node {
	if i < 0 || i >= len(fc.args) {
		return nil
	}
	return fc.args[i]
}

func (fc *FuncCall) Current() CellAddress { return fc.cur }

func (fc *FuncCall) Env() *Environment { return fc.ev.wb.Env }

func (fc *FuncCall) Eval(i int) Primitive {
	if i < 0 || i >= len(fc.args) {
		return nil
	}
	return fc.ev.evalNode(fc.args[i], fc.cur)
}

func (fc *FuncCall) EvalNode(n *Node) Primitive { return fc.ev.evalNode(n, fc.cur) }

func (fc *FuncCall) Number(i int) (float64, *SpreadsheetError) {
	return fc.ev.toNumber(fc.Eval(i), fc.cur)
}

func (fc *FuncCall) Text(i int) string { return fc.ev.toText(fc.Eval(i)) }

func (fc *FuncCall) Bool(i int) (bool, *SpreadsheetError) {
	return fc.ev.toBool(fc.Eval(i), fc.cur)
}

// Flatten evaluates arg and, if it is a range, yields every cell's raw
// value (including nils for empty cells); otherwise it yields the single
// scalar. This is the building block for SUM/AVERAGE/COUNT-family
// aggregation across mixed scalar/range argument lists (§4.6).
func (fc *FuncCall) Flatten(arg *Node) []Primitive {
	v := fc.ev.evalNode(arg, fc.cur)
	return fc.flattenValue(v)
}

func (fc *FuncCall) flattenValue(v Primitive) []Primitive {
	r, ok := v.(RangeValue)
	if !ok {
		return []Primitive{v}
	}
	var out []Primitive
	for addr := range CellIterator(r.Worksheet, r.Addr) {
		out = append(out, fc.ev.EvaluateCell(addr))
	}
	return out
}

// FlattenAll flattens every argument in order, the shape SUM/COUNT/etc
// need for a mixed argument list like SUM(A1:A10, 5, B1).
func (fc *FuncCall) FlattenAll() []Primitive {
	var out []Primitive
	for _, a := range fc.args {
		out = append(out, fc.Flatten(a)...)
	}
	return out
}

// RangeOf evaluates arg and returns its RangeValue, reducing a
// single-cell scalar reference to a degenerate one-cell range so
// criterion-matching functions (SUMIF et al) can treat "a cell" and "a
// range" uniformly; anything else is an error.
func (fc *FuncCall) RangeOf(i int) (RangeValue, *SpreadsheetError) {
	if i < 0 || i >= len(fc.args) {
		return RangeValue{}, NewSpreadsheetError(ErrorCodeValue, "missing argument")
	}
	n := fc.args[i]
	switch n.Kind {
	case NodeRange:
		v := fc.ev.evalRange(n.Ref, n.RangeEnd, fc.cur)
		if r, ok := v.(RangeValue); ok {
			return r, nil
		}
		if e, ok := v.(*SpreadsheetError); ok {
			return RangeValue{}, e
		}
	case NodeReference:
		addr, err := fc.ev.wb.ResolveReference(n.Ref, ResolveContext{Dialect: dialectForWorkbook, Current: fc.cur})
		if err != nil {
			return RangeValue{}, err
		}
		return RangeValue{Worksheet: fc.ev.wb.sheets[addr.WorksheetID], Addr: RangeAddress{WorksheetID: addr.WorksheetID, StartRow: addr.Row, EndRow: addr.Row, StartColumn: addr.Column, EndColumn: addr.Column}}, nil
	case NodeDefinedName:
		v := fc.ev.evalDefinedName(n.Name, fc.cur)
		if r, ok := v.(RangeValue); ok {
			return r, nil
		}
	}
	return RangeValue{}, NewSpreadsheetError(ErrorCodeValue, "expected a range argument")
}

// numberOrSkip coerces v for aggregate functions that treat text and
// booleans as "skip" rather than "error": every string or boolean value
// (and an empty cell) is reported as skipped, whether it came from a
// range or a literal argument.
func numberOrSkip(v Primitive) (n float64, skip bool, err *SpreadsheetError) {
	switch x := v.(type) {
	case nil:
		return 0, true, nil
	case float64:
		return x, false, nil
	case bool, string:
		return 0, true, nil
	case *SpreadsheetError:
		return 0, false, x
	}
	return 0, true, nil
}

// parseNumberStrict is used by functions that must reject a non-numeric
// text argument outright (unlike aggregate ranges, which merely skip
// text).
func parseNumberStrict(v Primitive, locale *Locale) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	case string:
		return parseLocaleNumber(x, locale)
	case nil:
		return 0, true
	}
	return 0, false
}

func atoiOr(s string, fallback int) int {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return fallback
	}
	return v
}
