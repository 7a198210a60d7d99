package sheetcalc

// Dialect selects which reference grammar the lexer accepts: column-letter
// A1 style or row/column R1C1 style (§4.1).
type Dialect int

const (
	DialectA1 Dialect = iota
	DialectR1C1
)

// TokenKind enumerates the lexer's token kinds (§4.1 "Output").
type TokenKind int

const (
	TokenEOF TokenKind = iota
	TokenNumber
	TokenString
	TokenBoolean
	TokenErrorLiteral
	TokenReference
	TokenRange
	TokenIdent
	TokenSum      // + or -
	TokenProduct  // * or /
	TokenPower    // ^
	TokenPercent  // postfix %
	TokenAmpersand
	TokenCompare // = <> < <= > >=
	TokenLParen
	TokenRParen
	TokenComma
	TokenIllegal
)

// SumOp distinguishes the two additive operators.
type SumOp int

const (
	SumAdd SumOp = iota
	SumMinus
)

// ProductOp distinguishes the two multiplicative operators.
type ProductOp int

const (
	ProductTimes ProductOp = iota
	ProductDivide
)

// CompareOp enumerates the six comparison operators.
type CompareOp int

const (
	CompareEq CompareOp = iota
	CompareNe
	CompareLt
	CompareLe
	CompareGt
	CompareGe
)

// ReferencePart is a single parsed cell reference: a coordinate plus two
// absoluteness flags and an optional explicit sheet name (§3).
//
// In A1 dialect, Row/Column always hold the literal coordinate and
// AbsRow/AbsCol record only whether a '$' anchor was present (meaningful
// to the reference transformer, §4.7, not to initial resolution).
//
// In R1C1 dialect, an absolute component (AbsRow/AbsCol true) is a
// literal coordinate in Row/Column; a relative component (false) is a
// signed offset from the evaluating cell in RowOffset/ColOffset.
type ReferencePart struct {
	HasSheet bool
	Sheet    string
	Row      uint32
	Column   uint32
	AbsRow   bool
	AbsCol   bool
	RowOffset int32
	ColOffset int32
}

// Token is a single lexical token, tagged by Kind; only the fields
// relevant to Kind are populated.
type Token struct {
	Kind TokenKind
	Pos  int

	Number    float64
	Text      string // STRING contents, IDENT name, or ILLEGAL message
	Bool      bool
	ErrorCode ErrorCode

	Ref      ReferencePart // REFERENCE, and the left side of a RANGE
	RangeEnd ReferencePart // right side of a RANGE

	SumOp     SumOp
	ProductOp ProductOp
	CompareOp CompareOp
}

// isASCIILetter reports whether r is an ASCII letter, the alphabet used by
// column letters, identifiers and the R/C markers.
func isASCIILetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isASCIIDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

// columnLettersToIndex converts an A1 column-letter string ("A".."XFD")
// into its 1-based column index, or ok=false if out of range or malformed.
func columnLettersToIndex(letters string) (uint32, bool) {
	if letters == "" || len(letters) > 3 {
		return 0, false
	}
	var col uint32
	for _, r := range letters {
		var d uint32
		switch {
		case r >= 'A' && r <= 'Z':
			d = uint32(r-'A') + 1
		case r >= 'a' && r <= 'z':
			d = uint32(r-'a') + 1
		default:
			return 0, false
		}
		col = col*26 + d
	}
	if col < 1 || col > MaxColumns {
		return 0, false
	}
	return col, true
}

// columnIndexToLetters converts a 1-based column index into its A1 letters.
func columnIndexToLetters(col uint32) string {
	if col < 1 {
		return ""
	}
	var buf [3]byte
	i := len(buf)
	for col > 0 {
		col--
		i--
		buf[i] = byte('A' + col%26)
		col /= 26
	}
	return string(buf[i:])
}

// Grid limits (§6).
const (
	MaxColumns uint32 = 16384
	MaxRows    uint32 = 1048576
)
