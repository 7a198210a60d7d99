package sheetcalc

import (
	"strconv"
	"strings"

	"github.com/mohae/deepcopy"
)

// reservedSheetNames mirrors a document container's reserved sheet
// names (§4.3 "sheet name validation"): names a host application treats
// specially and therefore refuses as a user-chosen name.
var reservedSheetNames = map[string]struct{}{
	"history": {},
}

// forbiddenSheetNameChars are the characters no sheet name may contain,
// taken from the same worksheet-naming contract (§4.3).
const forbiddenSheetNameChars = ":\\/?*[]"

// WorkbookSettings holds the workbook-wide configuration an Environment
// seeds at construction (§5, §6 "Host environment contract").
type WorkbookSettings struct {
	LocaleTag   string
	LanguageTag string
	TimeZone    string
}

// WorkbookMetadata is opaque descriptive information carried through a
// round-trip but never interpreted by the calculation core (§6 "document
// metadata").
type WorkbookMetadata struct {
	Application string
	AppVersion  string
	Author      string
}

// Workbook is the top-level facade (§4.3): an ordered list of sheets,
// workbook-scoped string and defined-name pools, and the Environment
// every evaluation runs against. There is no package-level mutable
// state; every Workbook is independent (§9).
type Workbook struct {
	Settings WorkbookSettings
	Metadata WorkbookMetadata
	Env      *Environment

	sheetOrder []uint32 // position -> sheet id
	sheets     map[uint32]*Worksheet
	nameToID   map[string]uint32 // lower-cased sheet name -> id
	nextSheet  uint32

	Strings *StringTable
	Names   *NamedRangeTable
}

// NewWorkbook creates a workbook with one visible sheet named "Sheet1",
// using env (DefaultEnvironment() if nil).
func NewWorkbook(env *Environment) *Workbook {
	if env == nil {
		env = DefaultEnvironment()
	}
	wb := &Workbook{
		Env:      env,
		sheets:   make(map[uint32]*Worksheet),
		nameToID: make(map[string]uint32),
		Strings:  NewStringTable(),
		Names:    NewNamedRangeTable(),
		Settings: WorkbookSettings{LocaleTag: env.Locale.Tag, LanguageTag: env.Language.Tag, TimeZone: env.TZName},
	}
	// AddSheet cannot fail for this literal name.
	_, _ = wb.AddSheet("Sheet1")
	return wb
}

// validateSheetName applies §4.3's naming contract: non-empty, at most
// 31 characters (the container format's historical limit), none of the
// forbidden characters, not a reserved word, case-insensitively unique.
func (wb *Workbook) validateSheetName(name string, renamingID uint32) *EngineError {
	if name == "" || len(name) > 31 {
		return NewEngineError(AppErrorInvalidSheetName, "sheet name must be 1-31 characters")
	}
	if strings.ContainsAny(name, forbiddenSheetNameChars) {
		return NewEngineError(AppErrorInvalidSheetName, "sheet name contains a forbidden character")
	}
	lower := strings.ToLower(name)
	if _, reserved := reservedSheetNames[lower]; reserved {
		return NewEngineError(AppErrorInvalidSheetName, "sheet name is reserved: "+name)
	}
	if existingID, exists := wb.nameToID[lower]; exists && existingID != renamingID {
		return NewEngineError(AppErrorDuplicateSheetName, "sheet name already in use: "+name)
	}
	return nil
}

// AddSheet appends a new visible sheet named name and returns its id.
func (wb *Workbook) AddSheet(name string) (uint32, error) {
	if err := wb.validateSheetName(name, 0); err != nil {
		return 0, err
	}
	wb.nextSheet++
	id := wb.nextSheet
	ws := NewWorksheet(id, name)
	wb.sheets[id] = ws
	wb.nameToID[strings.ToLower(name)] = id
	wb.sheetOrder = append(wb.sheetOrder, id)
	return id, nil
}

// RenameSheet renames the sheet with id to newName, re-validating
// uniqueness against every other sheet.
func (wb *Workbook) RenameSheet(id uint32, newName string) error {
	ws, ok := wb.sheets[id]
	if !ok {
		return NewEngineError(AppErrorSheetNotFound, "no such sheet")
	}
	if err := wb.validateSheetName(newName, id); err != nil {
		return err
	}
	delete(wb.nameToID, strings.ToLower(ws.Name))
	ws.Name = newName
	wb.nameToID[strings.ToLower(newName)] = id
	return nil
}

// DeleteSheetByID removes the sheet with id, failing if it is the last
// visible sheet (§4.3 "a workbook must always retain at least one
// visible sheet").
func (wb *Workbook) DeleteSheetByID(id uint32) error {
	ws, ok := wb.sheets[id]
	if !ok {
		return NewEngineError(AppErrorSheetNotFound, "no such sheet")
	}
	if ws.State == SheetVisible {
		visible := 0
		for _, other := range wb.sheets {
			if other.State == SheetVisible {
				visible++
			}
		}
		if visible <= 1 {
			return NewEngineError(AppErrorLastVisibleSheet, "cannot delete the last visible sheet")
		}
	}
	for _, row := range ws.SortedRows() {
		for _, col := range ws.SortedColumnsInRow(row) {
			if cell := ws.GetCell(row, col); cell.Kind == CellKindSharedString {
				wb.Strings.RemoveReference(cell.StringID)
			}
		}
	}
	delete(wb.sheets, id)
	delete(wb.nameToID, strings.ToLower(ws.Name))
	for i, sid := range wb.sheetOrder {
		if sid == id {
			wb.sheetOrder = append(wb.sheetOrder[:i], wb.sheetOrder[i+1:]...)
			break
		}
	}
	return nil
}

// CopySheet duplicates the sheet named from under the new name newName.
// Every cell is deep-copied (via deepcopy.Copy, so the new sheet never
// aliases the source's *Cell pointers) and re-interned into the
// destination's own shared-formula pool, and sheet metadata (state, tab
// color, frozen panes, merged ranges, comments, column widths) is carried
// across (mirrors a document container's worksheet-duplication contract:
// cells and formulas round-trip, but drawings/tables/charts are out of
// scope here just as they are there).
func (wb *Workbook) CopySheet(from, newName string) (uint32, error) {
	srcID, ok := wb.SheetIDByName(from)
	if !ok {
		return 0, NewEngineError(AppErrorSheetNotFound, "no such sheet: "+from)
	}
	if err := wb.validateSheetName(newName, 0); err != nil {
		return 0, err
	}
	src := wb.sheets[srcID]

	wb.nextSheet++
	id := wb.nextSheet
	dst := NewWorksheet(id, newName)
	dst.State = src.State
	dst.TabColor = src.TabColor
	dst.FrozenRows = src.FrozenRows
	dst.FrozenColumns = src.FrozenColumns
	dst.DefaultStyle = src.DefaultStyle
	dst.columnWidths = append([]columnWidthRun(nil), src.columnWidths...)
	dst.MergedRanges = append([]RangeAddress(nil), src.MergedRanges...)
	for addr, text := range src.Comments {
		addr.WorksheetID = id
		dst.Comments[addr] = text
	}

	for _, row := range src.SortedRows() {
		for _, col := range src.SortedColumnsInRow(row) {
			srcCell := src.GetCell(row, col)
			dstCell := deepcopy.Copy(srcCell).(*Cell)
			switch {
			case srcCell.IsFormula():
				if ast, ok := src.Formulas.GetAST(srcCell.FormulaID); ok {
					dstCell.FormulaID = dst.Formulas.InternFormula(ast, CellAddress{WorksheetID: id, Row: row, Column: col})
				}
			case srcCell.Kind == CellKindSharedString:
				wb.Strings.AddReference(srcCell.StringID)
			}
			dst.SetCell(row, col, dstCell)
		}
	}

	wb.sheets[id] = dst
	wb.nameToID[strings.ToLower(newName)] = id
	wb.sheetOrder = append(wb.sheetOrder, id)
	return id, nil
}

// SheetIDByName resolves a sheet name to its id, case-insensitively
// (§4.4 "sheet-name lookup is case-insensitive").
func (wb *Workbook) SheetIDByName(name string) (uint32, bool) {
	id, ok := wb.nameToID[strings.ToLower(name)]
	return id, ok
}

// SheetByID returns the worksheet with id, or nil if none exists.
func (wb *Workbook) SheetByID(id uint32) *Worksheet {
	return wb.sheets[id]
}

// SheetByPosition returns the worksheet at 0-based position pos in tab
// order, or nil if pos is out of range.
func (wb *Workbook) SheetByPosition(pos int) *Worksheet {
	if pos < 0 || pos >= len(wb.sheetOrder) {
		return nil
	}
	return wb.sheets[wb.sheetOrder[pos]]
}

// Sheets returns every worksheet in tab order.
func (wb *Workbook) Sheets() []*Worksheet {
	result := make([]*Worksheet, 0, len(wb.sheetOrder))
	for _, id := range wb.sheetOrder {
		result = append(result, wb.sheets[id])
	}
	return result
}

// dialectForWorkbook is A1 for every workbook this package currently
// constructs; R1C1 entry is by calling Parse with a ParserContext whose
// Dialect is DialectR1C1, for callers exercising
// that dialect directly (§4.1 "the two dialects are never mixed in a
// single document").
const dialectForWorkbook = DialectA1

// parserContext builds the ParserContext a SetUserInput/formula-parse
// call should use.
func (wb *Workbook) parserContext() ParserContext {
	return ParserContext{Dialect: dialectForWorkbook, Locale: wb.Env.Locale, Language: wb.Env.Language}
}

// releaseCellContents releases addr's hold on whatever pool-backed
// content (shared formula or shared string) it currently carries, ahead
// of overwriting, blanking or deleting it, so a formula or string
// entry's reference count never outlives every cell that pointed at it
// (§3 "a cell's cached evaluation result is invalidated whenever any of
// its inputs change").
func (wb *Workbook) releaseCellContents(ws *Worksheet, addr CellAddress) {
	cell := ws.GetCell(addr.Row, addr.Column)
	if cell == nil {
		return
	}
	if cell.IsFormula() {
		ws.Formulas.ReleaseCell(addr)
	} else if cell.Kind == CellKindSharedString {
		wb.Strings.RemoveReference(cell.StringID)
	}
}

// SetUserInput classifies and stores raw user-typed text at addr,
// following §4.3's left-to-right classification order: leading apostrophe
// forces text; leading '=' parses and interns a formula; otherwise the
// engine tries boolean, then number, then a date literal, then an error
// literal, and finally falls back to a shared string.
func (wb *Workbook) SetUserInput(addr CellAddress, text string) error {
	ws, ok := wb.sheets[addr.WorksheetID]
	if !ok {
		return NewEngineError(AppErrorSheetNotFound, "no such sheet")
	}
	if addr.Row < 1 || addr.Row > MaxRows || addr.Column < 1 || addr.Column > MaxColumns {
		return NewEngineError(AppErrorCellOutOfRange, "cell address out of range")
	}

	if text == "" {
		wb.releaseCellContents(ws, addr)
		ws.SetCellEmpty(addr.Row, addr.Column)
		return nil
	}

	style := uint32(0)
	if existing := ws.GetCell(addr.Row, addr.Column); existing != nil {
		style = existing.Style
	}
	wb.releaseCellContents(ws, addr)

	if strings.HasPrefix(text, "'") {
		id := wb.Strings.Intern(text[1:])
		ws.SetCell(addr.Row, addr.Column, &Cell{Kind: CellKindSharedString, Style: style, StringID: id})
		return nil
	}

	if strings.HasPrefix(text, "=") {
		result := Parse(text[1:], wb.parserContext())
		formulaID := ws.Formulas.InternFormula(result.Root, addr)
		ws.SetCell(addr.Row, addr.Column, &Cell{Kind: CellKindFormula, Style: style, FormulaID: formulaID})
		return nil
	}

	if wb.Env.Language.IsBooleanTrue(text) {
		ws.SetCell(addr.Row, addr.Column, &Cell{Kind: CellKindBoolean, Style: style, Bool: true})
		return nil
	}
	if wb.Env.Language.IsBooleanFalse(text) {
		ws.SetCell(addr.Row, addr.Column, &Cell{Kind: CellKindBoolean, Style: style, Bool: false})
		return nil
	}

	if n, ok := parseLocaleNumber(text, wb.Env.Locale); ok {
		ws.SetCell(addr.Row, addr.Column, &Cell{Kind: CellKindNumber, Style: style, Number: n})
		return nil
	}

	if serial, ok := parseDateLiteral(text); ok {
		ws.SetCell(addr.Row, addr.Column, &Cell{Kind: CellKindNumber, Style: style, Number: serial})
		return nil
	}

	if strings.HasPrefix(text, "#") {
		if code, ok := errorCodeFromLiteral(strings.ToUpper(text)); ok {
			ws.SetCell(addr.Row, addr.Column, &Cell{Kind: CellKindError, Style: style, ErrorCode: code})
			return nil
		}
	}

	id := wb.Strings.Intern(text)
	ws.SetCell(addr.Row, addr.Column, &Cell{Kind: CellKindSharedString, Style: style, StringID: id})
	return nil
}

// parseLocaleNumber parses text as a number using locale's decimal and
// thousands separators (§4.3 "number literals are locale-sensitive on
// input exactly as they are on the lexer").
func parseLocaleNumber(text string, locale *Locale) (float64, bool) {
	if text == "" {
		return 0, false
	}
	normalized := text
	if locale.ThousandsSeparator != 0 {
		normalized = strings.ReplaceAll(normalized, string(locale.ThousandsSeparator), "")
	}
	if locale.DecimalSeparator != '.' {
		normalized = strings.ReplaceAll(normalized, string(locale.DecimalSeparator), ".")
	}
	percent := false
	if strings.HasSuffix(normalized, "%") {
		percent = true
		normalized = strings.TrimSuffix(normalized, "%")
	}
	v, err := strconv.ParseFloat(normalized, 64)
	if err != nil {
		return 0, false
	}
	if percent {
		v /= 100
	}
	return v, true
}

// parseDateLiteral recognises the two unambiguous plain-text date shapes
// (§3 WorkbookMetadata supplement "date literal on input"): ISO
// "YYYY-MM-DD" and US "M/D/YYYY". Anything else is left to fall through
// to a shared string rather than guess a locale-ambiguous shape.
func parseDateLiteral(text string) (float64, bool) {
	if len(text) == 10 && text[4] == '-' && text[7] == '-' {
		y, ok1 := atoiStrict(text[0:4])
		m, ok2 := atoiStrict(text[5:7])
		d, ok3 := atoiStrict(text[8:10])
		if ok1 && ok2 && ok3 && m >= 1 && m <= 12 && d >= 1 && d <= 31 {
			return civilToSerial(y, m, d), true
		}
		return 0, false
	}
	if slashParts := strings.Split(text, "/"); len(slashParts) == 3 {
		m, ok1 := atoiStrict(slashParts[0])
		d, ok2 := atoiStrict(slashParts[1])
		y, ok3 := atoiStrict(slashParts[2])
		if ok1 && ok2 && ok3 && m >= 1 && m <= 12 && d >= 1 && d <= 31 && y >= 1900 {
			return civilToSerial(y, m, d), true
		}
	}
	return 0, false
}

func atoiStrict(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return v, true
}

// DeleteCell removes the entry at addr entirely.
func (wb *Workbook) DeleteCell(addr CellAddress) error {
	ws, ok := wb.sheets[addr.WorksheetID]
	if !ok {
		return NewEngineError(AppErrorSheetNotFound, "no such sheet")
	}
	wb.releaseCellContents(ws, addr)
	ws.DeleteCell(addr.Row, addr.Column)
	return nil
}

// SetCellEmpty blanks addr while preserving its style.
func (wb *Workbook) SetCellEmpty(addr CellAddress) error {
	ws, ok := wb.sheets[addr.WorksheetID]
	if !ok {
		return NewEngineError(AppErrorSheetNotFound, "no such sheet")
	}
	wb.releaseCellContents(ws, addr)
	ws.SetCellEmpty(addr.Row, addr.Column)
	return nil
}

// MoveCellValueToArea moves the content at src to dst, shifting any
// in-formula references that fall inside area by the same src-to-dst
// offset and leaving references outside it untouched (§4.7
// "move_cell_value_to_area").
func (wb *Workbook) MoveCellValueToArea(src CellAddress, area RangeAddress, dst CellAddress) error {
	if !area.Contains(src) {
		return NewEngineError(AppErrorInvalidReference, "source cell is not inside area")
	}
	if area.WorksheetID != dst.WorksheetID {
		return NewEngineError(AppErrorInvalidReference, "move cannot cross sheets in this call")
	}
	srcWS, ok := wb.sheets[src.WorksheetID]
	if !ok {
		return NewEngineError(AppErrorSheetNotFound, "no such sheet")
	}
	dstWS, ok := wb.sheets[dst.WorksheetID]
	if !ok {
		return NewEngineError(AppErrorSheetNotFound, "no such sheet")
	}

	cell := srcWS.GetCell(src.Row, src.Column)
	if cell == nil {
		wb.releaseCellContents(dstWS, dst)
		dstWS.DeleteCell(dst.Row, dst.Column)
		srcWS.DeleteCell(src.Row, src.Column)
		return nil
	}

	deltaRow := int64(dst.Row) - int64(src.Row)
	deltaCol := int64(dst.Column) - int64(src.Column)

	wb.releaseCellContents(dstWS, dst)

	moved := *cell
	if cell.IsFormula() {
		ast, ok := srcWS.Formulas.GetAST(cell.FormulaID)
		srcWS.Formulas.ReleaseCell(src)
		if ok {
			rewritten := transformWithinArea(ast, area, deltaRow, deltaCol)
			moved.FormulaID = dstWS.Formulas.InternFormula(rewritten, dst)
		}
	}
	dstWS.SetCell(dst.Row, dst.Column, &moved)
	srcWS.DeleteCell(src.Row, src.Column)
	return nil
}
