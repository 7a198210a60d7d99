package sheetcalc

// Primitive is the dynamic value carried by a cell or produced while
// evaluating an expression node. It is one of: float64, bool, string, nil
// (an empty cell), *SpreadsheetError, or RangeValue (a sub-expression not yet
// reduced to a scalar by the function consuming it).
type Primitive any

// ErrorCode enumerates the ten canonical spreadsheet error values (§4.1,
// §6). There is no #NULL! in this dialect; the catch-all bucket is
// #ERROR!.
type ErrorCode uint8

const (
	ErrorCodeDiv0 ErrorCode = iota + 1
	ErrorCodeNA
	ErrorCodeName
	ErrorCodeNum
	ErrorCodeValue
	ErrorCodeOther
	ErrorCodeRef
	ErrorCodeCirc
	ErrorCodeSpill
	ErrorCodeCalc
)

// ErrorMapper maps an ErrorCode to its canonical wire literal.
var ErrorMapper = map[ErrorCode]string{
	ErrorCodeDiv0:  "#DIV/0!",
	ErrorCodeNA:    "#N/A",
	ErrorCodeName:  "#NAME?",
	ErrorCodeNum:   "#NUM!",
	ErrorCodeValue: "#VALUE!",
	ErrorCodeOther: "#ERROR!",
	ErrorCodeRef:   "#REF!",
	ErrorCodeCirc:  "#CIRC!",
	ErrorCodeSpill: "#SPILL!",
	ErrorCodeCalc:  "#CALC!",
}

var errorLiterals = map[string]ErrorCode{
	"#DIV/0!": ErrorCodeDiv0,
	"#N/A":    ErrorCodeNA,
	"#NAME?":  ErrorCodeName,
	"#NUM!":   ErrorCodeNum,
	"#VALUE!": ErrorCodeValue,
	"#ERROR!": ErrorCodeOther,
	"#REF!":   ErrorCodeRef,
	"#CIRC!":  ErrorCodeCirc,
	"#SPILL!": ErrorCodeSpill,
	"#CALC!":  ErrorCodeCalc,
}

// errorCodeFromLiteral looks up the ErrorCode for one of the ten canonical
// error-literal strings recognised by the lexer.
func errorCodeFromLiteral(literal string) (ErrorCode, bool) {
	code, ok := errorLiterals[literal]
	return code, ok
}

// SpreadsheetError is the error-value member of the value lattice. Origin
// is attached the first time the error is produced (by an operator or
// function) and left untouched as the error propagates through enclosing
// operators, so a chain like A3=A2+1, A2=A1/0 reports A2 as the origin of
// both cells' #DIV/0!.
type SpreadsheetError struct {
	ErrorCode ErrorCode
	Message   string
	Origin    CellAddress
	HasOrigin bool
}

func (e *SpreadsheetError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return ErrorMapper[e.ErrorCode]
}

// Literal returns the canonical wire form, e.g. "#DIV/0!".
func (e *SpreadsheetError) Literal() string {
	return ErrorMapper[e.ErrorCode]
}

// NewSpreadsheetError creates an error value with no origin attached yet.
func NewSpreadsheetError(code ErrorCode, message string) *SpreadsheetError {
	if message == "" {
		message = ErrorMapper[code]
	}
	return &SpreadsheetError{ErrorCode: code, Message: message}
}

// WithOrigin stamps the coordinate the error first appeared at, unless one
// is already stamped.
func (e *SpreadsheetError) WithOrigin(addr CellAddress) *SpreadsheetError {
	if e.HasOrigin {
		return e
	}
	clone := *e
	clone.Origin = addr
	clone.HasOrigin = true
	return &clone
}

// CellType identifies the logical type of a calculated cell value, exposed
// to callers through CellValue (the host-language-binding surface, §6).
type CellType uint8

const (
	CellValueTypeEmpty   CellType = 0
	CellValueTypeNumber  CellType = 1
	CellValueTypeString  CellType = 2
	CellValueTypeDate    CellType = 3
	CellValueTypeBoolean CellType = 4
	CellValueTypeError   CellType = 5
)

// CellValue is the calculated, display-ready form of a cell: the logical
// value plus enough type information for a host binding or the formatter
// collaborator to render it.
type CellValue struct {
	Type    CellType
	Value   Primitive
	Error   *ErrorCode
	Formula string
}

// CellAddress identifies a single cell: a worksheet id plus a 1-based row
// and column. Row 0 / column 0 are never valid (§3).
type CellAddress struct {
	WorksheetID uint32
	Row         uint32
	Column      uint32
}

// CellKind is the tagged-variant discriminant for Cell (§3): exactly one
// group of fields is meaningful for a given Kind, mirroring the sum type's
// empty/b/n/e/s/u/fb/fn/str/fe members.
type CellKind uint8

const (
	CellKindEmpty CellKind = iota
	CellKindBoolean
	CellKindNumber
	CellKindError
	CellKindSharedString
	CellKindFormula        // not yet evaluated; only FormulaID is meaningful
	CellKindFormulaBoolean // evaluated formula, cached boolean result
	CellKindFormulaNumber  // evaluated formula, cached number result
	CellKindFormulaString  // evaluated formula, cached inline string result
	CellKindFormulaError   // evaluated formula, cached error result
)

// Cell is a single spreadsheet cell. Every variant carries Style; only the
// fields relevant to Kind are meaningful.
type Cell struct {
	Kind  CellKind
	Row   uint32
	Col   uint32
	Style uint32

	Bool      bool
	Number    float64
	ErrorCode ErrorCode

	StringID  uint32 // shared-string id, valid when Kind == CellKindSharedString
	FormulaID uint32 // shared-formula id, valid for the Formula* kinds

	InlineString string      // valid when Kind == CellKindFormulaString
	ErrorOrigin  CellAddress // valid when Kind == CellKindFormulaError
	ErrorMessage string      // valid when Kind == CellKindFormulaError
}

// IsEmpty reports whether the cell carries no content; a nil *Cell, as
// returned for unpopulated coordinates, also counts as empty.
func (c *Cell) IsEmpty() bool {
	return c == nil || c.Kind == CellKindEmpty
}

// IsFormula reports whether the cell's contents are backed by a shared
// formula entry, evaluated or not.
func (c *Cell) IsFormula() bool {
	switch c.Kind {
	case CellKindFormula, CellKindFormulaBoolean, CellKindFormulaNumber, CellKindFormulaString, CellKindFormulaError:
		return true
	}
	return false
}

// Value returns the cell's logical Primitive without triggering
// evaluation; a formula cell not yet evaluated this pass returns nil.
func (c *Cell) Value() Primitive {
	if c == nil {
		return nil
	}
	switch c.Kind {
	case CellKindEmpty, CellKindFormula:
		return nil
	case CellKindBoolean, CellKindFormulaBoolean:
		return c.Bool
	case CellKindNumber, CellKindFormulaNumber:
		return c.Number
	case CellKindFormulaString:
		return c.InlineString
	case CellKindError:
		return NewSpreadsheetError(c.ErrorCode, "")
	case CellKindFormulaError:
		err := NewSpreadsheetError(c.ErrorCode, c.ErrorMessage)
		return err.WithOrigin(c.ErrorOrigin)
	}
	return nil
}
