package sheetcalc

import "testing"

func lexAll(t *testing.T, input string, dialect Dialect) []Token {
	t.Helper()
	lex := NewLexer(input, LexerConfig{Dialect: dialect})
	var toks []Token
	for {
		tok := lex.NextToken()
		toks = append(toks, tok)
		if tok.Kind == TokenEOF {
			return toks
		}
	}
}

func TestLexerNumbers(t *testing.T) {
	cases := []struct {
		input string
		want  float64
	}{
		{"42", 42},
		{"3.14", 3.14},
		{"1e3", 1000},
		{"1.5e-2", 0.015},
		{"0", 0},
	}
	for _, c := range cases {
		toks := lexAll(t, c.input, DialectA1)
		if toks[0].Kind != TokenNumber {
			t.Fatalf("%q: want TokenNumber, got %v", c.input, toks[0].Kind)
		}
		if toks[0].Number != c.want {
			t.Fatalf("%q: want %v, got %v", c.input, c.want, toks[0].Number)
		}
	}
}

func TestLexerA1References(t *testing.T) {
	toks := lexAll(t, "A1", DialectA1)
	if toks[0].Kind != TokenReference {
		t.Fatalf("want TokenReference, got %v", toks[0].Kind)
	}
	ref := toks[0].Ref
	if ref.Row != 1 || ref.Column != 1 || ref.AbsRow || ref.AbsCol {
		t.Fatalf("unexpected ref: %+v", ref)
	}

	toks = lexAll(t, "$B$2", DialectA1)
	ref = toks[0].Ref
	if ref.Row != 2 || ref.Column != 2 || !ref.AbsRow || !ref.AbsCol {
		t.Fatalf("unexpected anchored ref: %+v", ref)
	}

	toks = lexAll(t, "Sheet2!A1", DialectA1)
	ref = toks[0].Ref
	if !ref.HasSheet || ref.Sheet != "Sheet2" {
		t.Fatalf("expected sheet-qualified ref, got %+v", ref)
	}

	toks = lexAll(t, "'My Sheet'!A1", DialectA1)
	ref = toks[0].Ref
	if !ref.HasSheet || ref.Sheet != "My Sheet" {
		t.Fatalf("expected quoted sheet name, got %+v", ref)
	}
}

func TestLexerRange(t *testing.T) {
	toks := lexAll(t, "A1:B10", DialectA1)
	if toks[0].Kind != TokenRange {
		t.Fatalf("want TokenRange, got %v", toks[0].Kind)
	}
	if toks[0].Ref.Row != 1 || toks[0].RangeEnd.Row != 10 || toks[0].RangeEnd.Column != 2 {
		t.Fatalf("unexpected range bounds: %+v .. %+v", toks[0].Ref, toks[0].RangeEnd)
	}
}

func TestLexerR1C1Coordinates(t *testing.T) {
	toks := lexAll(t, "R1C1", DialectR1C1)
	if toks[0].Kind != TokenReference {
		t.Fatalf("want TokenReference, got %v", toks[0].Kind)
	}
	ref := toks[0].Ref
	if !ref.AbsRow || !ref.AbsCol || ref.Row != 1 || ref.Column != 1 {
		t.Fatalf("unexpected absolute R1C1 ref: %+v", ref)
	}

	toks = lexAll(t, "R[-1]C[2]", DialectR1C1)
	ref = toks[0].Ref
	if ref.AbsRow || ref.AbsCol || ref.RowOffset != -1 || ref.ColOffset != 2 {
		t.Fatalf("unexpected relative R1C1 ref: %+v", ref)
	}
}

// R1C1-shaped literals are rejected in A1 mode but valid R1C1 mode tokens —
// the two dialects' grammars are disjoint by construction (open question 2).
func TestLexerDialectsAreDisjoint(t *testing.T) {
	toks := lexAll(t, "R1C1", DialectA1)
	if toks[0].Kind != TokenIllegal {
		t.Fatalf("expected R1C1 literal to be illegal in A1 mode, got %v", toks[0].Kind)
	}

	toks = lexAll(t, "A1", DialectR1C1)
	if toks[0].Kind == TokenReference {
		t.Fatalf("A1-shaped text should not lex as an R1C1 reference")
	}
}

func TestLexerXlfnPrefixStripped(t *testing.T) {
	toks := lexAll(t, "_xlfn.IFS", DialectA1)
	if toks[0].Kind != TokenIdent || toks[0].Text != "IFS" {
		t.Fatalf("expected stripped ident IFS, got %+v", toks[0])
	}

	// a nested _xlfn._xlws. prefix is left untouched (open question 2).
	toks = lexAll(t, "_xlfn._xlws.SOMETHING", DialectA1)
	if toks[0].Text != "_xlws.SOMETHING" {
		t.Fatalf("expected only the outer _xlfn. stripped, got %q", toks[0].Text)
	}
}

func TestLexerErrorLiterals(t *testing.T) {
	toks := lexAll(t, "#DIV/0!", DialectA1)
	if toks[0].Kind != TokenErrorLiteral || toks[0].ErrorCode != ErrorCodeDiv0 {
		t.Fatalf("expected #DIV/0! literal, got %+v", toks[0])
	}
}

func TestLexerStringEscaping(t *testing.T) {
	toks := lexAll(t, `"a""b"`, DialectA1)
	if toks[0].Kind != TokenString || toks[0].Text != `a"b` {
		t.Fatalf("expected unescaped quote inside string, got %+v", toks[0])
	}
}

func TestLexerOperators(t *testing.T) {
	toks := lexAll(t, "<=<>>=", DialectA1)
	wants := []CompareOp{CompareLe, CompareNe, CompareGe}
	for i, w := range wants {
		if toks[i].Kind != TokenCompare || toks[i].CompareOp != w {
			t.Fatalf("token %d: want %v, got %+v", i, w, toks[i])
		}
	}
}
