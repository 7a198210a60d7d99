package sheetcalc

import "testing"

func parseA1(formula string) ParseResult {
	return Parse(formula, ParserContext{Dialect: DialectA1})
}

func TestParserOperatorPrecedence(t *testing.T) {
	res := parseA1("1+2*3")
	if !res.Ok {
		t.Fatalf("expected ok parse")
	}
	root := res.Root
	if root.Kind != NodeOpSum {
		t.Fatalf("expected top-level sum, got %v", root.Kind)
	}
	if root.Rhs.Kind != NodeOpProduct {
		t.Fatalf("expected right side to be the product, got %v", root.Rhs.Kind)
	}
}

func TestParserExponentIsRightAssociative(t *testing.T) {
	res := parseA1("2^3^2")
	root := res.Root
	if root.Kind != NodeOpPower {
		t.Fatalf("expected power node, got %v", root.Kind)
	}
	if root.Rhs.Kind != NodeOpPower {
		t.Fatalf("expected right-associative nesting (2^(3^2)), got lhs=%v rhs=%v", root.Lhs.Kind, root.Rhs.Kind)
	}
}

func TestParserParenthesesOverridePrecedence(t *testing.T) {
	res := parseA1("(1+2)*3")
	root := res.Root
	if root.Kind != NodeOpProduct {
		t.Fatalf("expected top-level product, got %v", root.Kind)
	}
	if root.Lhs.Kind != NodeOpSum {
		t.Fatalf("expected parenthesised sum on the left, got %v", root.Lhs.Kind)
	}
}

func TestParserUnaryBindsTighterThanBinary(t *testing.T) {
	res := parseA1("-2^2")
	root := res.Root
	// Excel-style precedence: unary minus binds tighter than ^, so this is (-2)^2.
	if root.Kind != NodeOpPower {
		t.Fatalf("expected top-level power, got %v", root.Kind)
	}
	if root.Lhs.Kind != NodeOpUnary || root.Lhs.UnaryOp != UnaryNegate {
		t.Fatalf("expected negated base, got %v", root.Lhs.Kind)
	}
}

func TestParserFunctionCallResolvesRegisteredName(t *testing.T) {
	res := parseA1("SUM(A1,A2,A3)")
	root := res.Root
	if root.Kind != NodeFunctionCall || root.FuncName != "SUM" {
		t.Fatalf("expected resolved SUM call, got %+v", root)
	}
	if len(root.Args) != 3 {
		t.Fatalf("expected 3 args, got %d", len(root.Args))
	}
}

func TestParserUnknownFunctionIsInvalidFunction(t *testing.T) {
	res := parseA1("NOTAREALFUNCTION(1)")
	if res.Ok {
		t.Fatalf("expected parse to report not-ok for an unresolved function")
	}
	if res.Root.Kind != NodeInvalidFunction {
		t.Fatalf("expected NodeInvalidFunction, got %v", res.Root.Kind)
	}
}

func TestParserRangeDisambiguation(t *testing.T) {
	res := parseA1("A1:B10")
	if res.Root.Kind != NodeRange {
		t.Fatalf("expected NodeRange, got %v", res.Root.Kind)
	}

	// two explicit, distinct sheet names spanning a range is a #REF! shape.
	res = parseA1("Sheet1!A1:Sheet2!B10")
	if res.Root.Kind != NodeWrongReference {
		t.Fatalf("expected NodeWrongReference for cross-sheet range, got %v", res.Root.Kind)
	}
}

func TestParserEmbedsParseErrorOnUnclosedParen(t *testing.T) {
	res := parseA1("(1+2")
	if res.Ok {
		t.Fatalf("expected not-ok parse for unclosed paren")
	}
	if res.Root.Kind != NodeParseError {
		t.Fatalf("expected embedded ParseError node, got %v", res.Root.Kind)
	}
}

func TestParserDefinedName(t *testing.T) {
	res := parseA1("MyRange")
	if res.Root.Kind != NodeDefinedName || res.Root.Name != "MyRange" {
		t.Fatalf("expected defined name node, got %+v", res.Root)
	}
}

func TestParserStringRoundTrip(t *testing.T) {
	cases := []string{"1+2", "A1:B2", `"hi""there"`, "SUM(A1,A2)", "-A1%"}
	for _, c := range cases {
		res := parseA1(c)
		if got := res.Root.String(); got != c {
			t.Errorf("round-trip %q: got %q", c, got)
		}
	}
}
