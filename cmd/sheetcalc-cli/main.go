// Example: building a workbook, entering formulas, and recalculating it
package main

import (
	"fmt"

	"github.com/ashgrove/sheetcalc"
)

func main() {
	wb := sheetcalc.NewWorkbook(nil)
	sheetID, _ := wb.SheetIDByName("Sheet1")

	entries := []struct {
		addr string
		text string
	}{
		{"A1", "10"},
		{"A2", "20"},
		{"A3", "30"},
		{"A4", "=SUM(A1:A3)"},
		{"A5", "=AVERAGE(A1:A3)"},
		{"B1", "=IF(A4>50, \"big\", \"small\")"},
		{"B2", "=PMT(0.05/12, 60, -15000)"},
		{"B3", "=TEXTJOIN(\", \", TRUE, A1:A3)"},
		{"B4", "=A4/0"},
		{"B5", "=B5"}, // self-reference: #CIRC!
	}

	for _, e := range entries {
		addr, err := cellAddress(wb, sheetID, e.addr)
		if err != nil {
			fmt.Println("address error:", err)
			continue
		}
		if err := wb.SetUserInput(addr, e.text); err != nil {
			fmt.Printf("%s: set error: %v\n", e.addr, err)
		}
	}

	wb.Recalculate()

	fmt.Println("=== sheetcalc demo ===")
	for _, e := range entries {
		addr, err := cellAddress(wb, sheetID, e.addr)
		if err != nil {
			continue
		}
		v := wb.GetCellValue(addr)
		fmt.Printf("%-4s %-32s => %v\n", e.addr, e.text, v)
	}
}

// cellAddress resolves a plain A1 reference string (no sheet prefix,
// the demo stays on Sheet1) into a CellAddress via the same lexer and
// resolver the workbook uses for formula text.
func cellAddress(wb *sheetcalc.Workbook, sheetID uint32, a1 string) (sheetcalc.CellAddress, error) {
	lexer := sheetcalc.NewLexer(a1, sheetcalc.LexerConfig{Dialect: sheetcalc.DialectA1})
	tok := lexer.NextToken()
	if tok.Kind != sheetcalc.TokenReference {
		return sheetcalc.CellAddress{}, fmt.Errorf("not a cell reference: %q", a1)
	}
	cur := sheetcalc.CellAddress{WorksheetID: sheetID, Row: 1, Column: 1}
	addr, errv := wb.ResolveReference(tok.Ref, sheetcalc.ResolveContext{Dialect: sheetcalc.DialectA1, Current: cur})
	if errv != nil {
		return sheetcalc.CellAddress{}, fmt.Errorf("%s", errv.Error())
	}
	return addr, nil
}
