package sheetcalc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCopySheetDuplicatesCellsAndFormulasIndependently(t *testing.T) {
	wb, sheet := newTestWorkbook(t)
	setCell(t, wb, sheet, 1, 1, "10")
	setCell(t, wb, sheet, 2, 1, "20")
	setCell(t, wb, sheet, 3, 1, "=SUM(A1:A2)")
	wb.Recalculate()

	copyID, err := wb.CopySheet("Sheet1", "Sheet1 Copy")
	require.NoError(t, err)

	wb.Recalculate()
	assert.Equal(t, float64(30), wb.GetCellValue(CellAddress{WorksheetID: copyID, Row: 3, Column: 1}))

	setCell(t, wb, copyID, 1, 1, "100")
	wb.Recalculate()

	assert.Equal(t, float64(10), wb.GetCellValue(CellAddress{WorksheetID: sheet, Row: 1, Column: 1}),
		"editing the copy must not mutate the source cell")
	assert.Equal(t, float64(120), wb.GetCellValue(CellAddress{WorksheetID: copyID, Row: 3, Column: 1}))
}

func TestCopySheetRejectsDuplicateName(t *testing.T) {
	wb, _ := newTestWorkbook(t)
	_, err := wb.CopySheet("Sheet1", "Sheet1")
	assert.Error(t, err)
}

func TestCopySheetRejectsUnknownSource(t *testing.T) {
	wb, _ := newTestWorkbook(t)
	_, err := wb.CopySheet("NoSuchSheet", "Copy")
	assert.Error(t, err)
}
