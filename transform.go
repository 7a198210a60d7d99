package sheetcalc

// The reference transformer (§4.7) rewrites the reference components of
// a parsed formula tree when a cell's content moves — by a fill-handle
// drag/copy-paste (Transform, keyed off a linear row/column delta) or by
// row/column insert-delete and move-area operations, which only rewrite
// references that fall inside a specific rectangle (transformWithinArea).
// Both walk the Node tree built by parser.go and return a new tree;
// the input tree is never mutated in place, matching the rest of this
// package's value-semantics treatment of *Node as an immutable AST once
// built.

// Transform produces the formula that results from copying node's
// formula from src to dst: every reference whose row (resp. column) is
// not anchored ($-free) is shifted by dst-src along that axis; anchored
// components are left untouched. A shift that would move a relative
// component out of the grid produces a WrongReference (#REF!) node in
// its place, matching a spreadsheet fill-handle producing #REF! when it
// drags a relative reference off the sheet.
func Transform(n *Node, src, dst CellAddress) *Node {
	if n == nil {
		return nil
	}
	deltaRow := int64(dst.Row) - int64(src.Row)
	deltaCol := int64(dst.Column) - int64(src.Column)
	return transformDelta(n, deltaRow, deltaCol)
}

func transformDelta(n *Node, deltaRow, deltaCol int64) *Node {
	if n == nil {
		return nil
	}
	clone := *n
	switch n.Kind {
	case NodeReference:
		ref, bad := shiftReferencePart(n.Ref, deltaRow, deltaCol)
		if bad {
			return &Node{Kind: NodeWrongReference, Pos: n.Pos, ErrorCode: ErrorCodeRef, Message: "reference shifted out of range"}
		}
		clone.Ref = ref
		return &clone
	case NodeRange:
		left, badLeft := shiftReferencePart(n.Ref, deltaRow, deltaCol)
		right, badRight := shiftReferencePart(n.RangeEnd, deltaRow, deltaCol)
		if badLeft || badRight {
			return &Node{Kind: NodeWrongReference, Pos: n.Pos, ErrorCode: ErrorCodeRef, Message: "reference shifted out of range"}
		}
		clone.Ref = left
		clone.RangeEnd = right
		return &clone
	case NodeOpSum, NodeOpProduct, NodeOpPower, NodeOpConcat, NodeOpCompare:
		clone.Lhs = transformDelta(n.Lhs, deltaRow, deltaCol)
		clone.Rhs = transformDelta(n.Rhs, deltaRow, deltaCol)
		return &clone
	case NodeOpUnary:
		clone.Operand = transformDelta(n.Operand, deltaRow, deltaCol)
		return &clone
	case NodeFunctionCall, NodeInvalidFunction:
		args := make([]*Node, len(n.Args))
		for i, a := range n.Args {
			args[i] = transformDelta(a, deltaRow, deltaCol)
		}
		clone.Args = args
		return &clone
	default:
		return &clone
	}
}

// shiftReferencePart shifts ref's unanchored row/column by the given
// delta (A1 semantics: Row/Column always hold the literal coordinate,
// AbsRow/AbsCol record only the $-anchor, §3). bad is true iff a shifted
// component leaves the valid grid.
func shiftReferencePart(ref ReferencePart, deltaRow, deltaCol int64) (result ReferencePart, bad bool) {
	result = ref
	if !ref.AbsRow {
		shifted := int64(ref.Row) + deltaRow
		if shifted < 1 || shifted > int64(MaxRows) {
			return ReferencePart{}, true
		}
		result.Row = uint32(shifted)
	}
	if !ref.AbsCol {
		shifted := int64(ref.Column) + deltaCol
		if shifted < 1 || shifted > int64(MaxColumns) {
			return ReferencePart{}, true
		}
		result.Column = uint32(shifted)
	}
	return result, false
}

// transformWithinArea rewrites only the references that fall inside area
// (regardless of anchoring — a moved rectangle carries every reference
// inside it along, anchored or not), leaving references outside area
// completely untouched (§4.7 "move_cell_value_to_area": "rewrite
// references inside the moved rectangle; leave references outside it
// alone").
func transformWithinArea(n *Node, area RangeAddress, deltaRow, deltaCol int64) *Node {
	if n == nil {
		return nil
	}
	shift := func(ref ReferencePart) (ReferencePart, bool) {
		free := ref
		free.AbsRow, free.AbsCol = false, false
		shifted, bad := shiftReferencePart(free, deltaRow, deltaCol)
		shifted.AbsRow, shifted.AbsCol = ref.AbsRow, ref.AbsCol
		return shifted, bad
	}
	clone := *n
	switch n.Kind {
	case NodeReference:
		if !referenceInArea(n.Ref, area) {
			return &clone
		}
		ref, bad := shift(n.Ref)
		if bad {
			return &Node{Kind: NodeWrongReference, Pos: n.Pos, ErrorCode: ErrorCodeRef, Message: "moved reference out of range"}
		}
		clone.Ref = ref
		return &clone
	case NodeRange:
		left, right := n.Ref, n.RangeEnd
		leftIn, rightIn := referenceInArea(left, area), referenceInArea(right, area)
		if leftIn {
			shifted, bad := shift(left)
			if bad {
				return &Node{Kind: NodeWrongReference, Pos: n.Pos, ErrorCode: ErrorCodeRef, Message: "moved reference out of range"}
			}
			left = shifted
		}
		if rightIn {
			shifted, bad := shift(right)
			if bad {
				return &Node{Kind: NodeWrongReference, Pos: n.Pos, ErrorCode: ErrorCodeRef, Message: "moved reference out of range"}
			}
			right = shifted
		}
		clone.Ref = left
		clone.RangeEnd = right
		return &clone
	case NodeOpSum, NodeOpProduct, NodeOpPower, NodeOpConcat, NodeOpCompare:
		clone.Lhs = transformWithinArea(n.Lhs, area, deltaRow, deltaCol)
		clone.Rhs = transformWithinArea(n.Rhs, area, deltaRow, deltaCol)
		return &clone
	case NodeOpUnary:
		clone.Operand = transformWithinArea(n.Operand, area, deltaRow, deltaCol)
		return &clone
	case NodeFunctionCall, NodeInvalidFunction:
		args := make([]*Node, len(n.Args))
		for i, a := range n.Args {
			args[i] = transformWithinArea(a, area, deltaRow, deltaCol)
		}
		clone.Args = args
		return &clone
	default:
		return &clone
	}
}

// referenceInArea reports whether ref (interpreted without sheet
// qualification, against area's sheet) names a coordinate inside area.
// A sheet-qualified reference to a different sheet is never "inside".
func referenceInArea(ref ReferencePart, area RangeAddress) bool {
	if ref.HasSheet {
		return false
	}
	n := area.Normalized()
	return ref.Row >= n.StartRow && ref.Row <= n.EndRow &&
		ref.Column >= n.StartColumn && ref.Column <= n.EndColumn
}

// StringifyContext supplies the dialect and (for R1C1) the evaluating
// cell a formula tree should be re-serialised relative to (§4.1, §4.7).
type StringifyContext struct {
	Dialect Dialect
	Base    CellAddress
}

// Stringify renders n back to formula-source text in ctx's dialect. The
// A1 form is identical to Node.String(); the R1C1 form additionally
// needs ctx.Base to express a reference's offset from the evaluating
// cell.
func Stringify(n *Node, ctx StringifyContext) string {
	if n == nil {
		return ""
	}
	if ctx.Dialect == DialectA1 {
		return n.String()
	}
	switch n.Kind {
	case NodeReference:
		return RowColToR1C1(n.Ref.Row, n.Ref.Column, n.Ref.AbsRow, n.Ref.AbsCol, ctx.Base)
	case NodeRange:
		return RowColToR1C1(n.Ref.Row, n.Ref.Column, n.Ref.AbsRow, n.Ref.AbsCol, ctx.Base) + ":" +
			RowColToR1C1(n.RangeEnd.Row, n.RangeEnd.Column, n.RangeEnd.AbsRow, n.RangeEnd.AbsCol, ctx.Base)
	case NodeOpSum:
		op := "+"
		if n.SumOp == SumMinus {
			op = "-"
		}
		return Stringify(n.Lhs, ctx) + op + Stringify(n.Rhs, ctx)
	case NodeOpProduct:
		op := "*"
		if n.ProductOp == ProductDivide {
			op = "/"
		}
		return Stringify(n.Lhs, ctx) + op + Stringify(n.Rhs, ctx)
	case NodeOpPower:
		return Stringify(n.Lhs, ctx) + "^" + Stringify(n.Rhs, ctx)
	case NodeOpConcat:
		return Stringify(n.Lhs, ctx) + "&" + Stringify(n.Rhs, ctx)
	case NodeOpCompare:
		return Stringify(n.Lhs, ctx) + compareOpString(n.CompareOp) + Stringify(n.Rhs, ctx)
	case NodeOpUnary:
		switch n.UnaryOp {
		case UnaryNegate:
			return "-" + Stringify(n.Operand, ctx)
		case UnaryPlus:
			return "+" + Stringify(n.Operand, ctx)
		default:
			return Stringify(n.Operand, ctx) + "%"
		}
	case NodeFunctionCall, NodeInvalidFunction:
		parts := make([]string, len(n.Args))
		for i, a := range n.Args {
			parts[i] = Stringify(a, ctx)
		}
		out := stringifyFunctionName(n.FuncName) + "("
		for i, p := range parts {
			if i > 0 {
				out += ","
			}
			out += p
		}
		return out + ")"
	default:
		return n.String()
	}
}
