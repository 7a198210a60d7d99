package sheetcalc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStringTableReferenceCountingReleasesOnOverwrite(t *testing.T) {
	wb, sheet := newTestWorkbook(t)
	setCell(t, wb, sheet, 1, 1, "shared")
	setCell(t, wb, sheet, 2, 1, "shared")

	id, ok := wb.Strings.strings["shared"]
	assert.True(t, ok)
	assert.Equal(t, 2, wb.Strings.GetReferenceCount(id))
	assert.Equal(t, 1, wb.Strings.Count())

	setCell(t, wb, sheet, 1, 1, "42")
	assert.Equal(t, 1, wb.Strings.GetReferenceCount(id))

	setCell(t, wb, sheet, 2, 1, "42")
	_, stillInterned := wb.Strings.GetString(id)
	assert.False(t, stillInterned, "string should be evicted once its last reference is released")
}

func TestFormulaTableDeduplicatesAndReleasesOnDeleteAndEmpty(t *testing.T) {
	wb, sheet := newTestWorkbook(t)
	setCell(t, wb, sheet, 1, 1, "=1+1")
	setCell(t, wb, sheet, 2, 1, "=1+1")

	ws := wb.SheetByID(sheet)
	c1 := ws.GetCell(1, 1)
	c2 := ws.GetCell(2, 1)
	assert.Equal(t, c1.FormulaID, c2.FormulaID, "identical formulas should share one pool entry")
	assert.Equal(t, 2, ws.Formulas.GetReferenceCount(c1.FormulaID))
	assert.Equal(t, 1, ws.Formulas.Count())

	assert.NoError(t, wb.DeleteCell(CellAddress{WorksheetID: sheet, Row: 1, Column: 1}))
	assert.Equal(t, 1, ws.Formulas.GetReferenceCount(c2.FormulaID))

	assert.NoError(t, wb.SetCellEmpty(CellAddress{WorksheetID: sheet, Row: 2, Column: 1}))
	_, stillInterned := ws.Formulas.GetAST(c2.FormulaID)
	assert.False(t, stillInterned, "formula should be evicted once its last reference is released")
}
