package sheetcalc

import "testing"

func newTestWorkbook(t *testing.T) (*Workbook, uint32) {
	t.Helper()
	wb := NewWorkbook(nil)
	id, ok := wb.SheetIDByName("Sheet1")
	if !ok {
		t.Fatalf("expected default Sheet1")
	}
	return wb, id
}

func setCell(t *testing.T, wb *Workbook, sheet uint32, row, col uint32, text string) {
	t.Helper()
	if err := wb.SetUserInput(CellAddress{WorksheetID: sheet, Row: row, Column: col}, text); err != nil {
		t.Fatalf("SetUserInput(%q): %v", text, err)
	}
}

func TestEvaluatorSumOfLiterals(t *testing.T) {
	wb, sheet := newTestWorkbook(t)
	setCell(t, wb, sheet, 1, 1, "10")
	setCell(t, wb, sheet, 2, 1, "20")
	setCell(t, wb, sheet, 3, 1, "30")
	setCell(t, wb, sheet, 4, 1, "=SUM(A1:A3)")

	wb.Recalculate()
	got := wb.GetCellValue(CellAddress{WorksheetID: sheet, Row: 4, Column: 1})
	if got != 60.0 {
		t.Fatalf("SUM(A1:A3) = %v, want 60", got)
	}
}

func TestEvaluatorErrorPropagationPreservesOrigin(t *testing.T) {
	wb, sheet := newTestWorkbook(t)
	setCell(t, wb, sheet, 1, 1, "=1/0")  // A1: #DIV/0! originates here
	setCell(t, wb, sheet, 2, 1, "=A1+1") // A2: propagates

	wb.Recalculate()
	v := wb.GetCellValue(CellAddress{WorksheetID: sheet, Row: 2, Column: 1})
	e, ok := v.(*SpreadsheetError)
	if !ok {
		t.Fatalf("expected *SpreadsheetError, got %T (%v)", v, v)
	}
	if e.ErrorCode != ErrorCodeDiv0 {
		t.Fatalf("expected #DIV/0!, got %v", e.Literal())
	}
	if !e.HasOrigin || e.Origin.Row != 1 || e.Origin.Column != 1 {
		t.Fatalf("expected origin stamped at A1, got %+v", e.Origin)
	}
}

func TestEvaluatorCycleDetection(t *testing.T) {
	wb, sheet := newTestWorkbook(t)
	setCell(t, wb, sheet, 1, 1, "=A2")
	setCell(t, wb, sheet, 2, 1, "=A1")

	wb.Recalculate()
	v := wb.GetCellValue(CellAddress{WorksheetID: sheet, Row: 1, Column: 1})
	e, ok := v.(*SpreadsheetError)
	if !ok || e.ErrorCode != ErrorCodeCirc {
		t.Fatalf("expected #CIRC!, got %v (%T)", v, v)
	}
}

func TestEvaluatorMemoizationReturnsSameResultWithoutRecompute(t *testing.T) {
	wb, sheet := newTestWorkbook(t)
	setCell(t, wb, sheet, 1, 1, "5")
	setCell(t, wb, sheet, 2, 1, "=A1*2")
	setCell(t, wb, sheet, 3, 1, "=A2+A2")

	wb.Recalculate()
	got := wb.GetCellValue(CellAddress{WorksheetID: sheet, Row: 3, Column: 1})
	if got != 20.0 {
		t.Fatalf("A2+A2 = %v, want 20", got)
	}
}

func TestEvaluatorWideRangeMatchesExplicitBounds(t *testing.T) {
	wb, sheet := newTestWorkbook(t)
	setCell(t, wb, sheet, 1, 1, "1")
	setCell(t, wb, sheet, 2, 1, "2")
	setCell(t, wb, sheet, 3, 1, "3")
	setCell(t, wb, sheet, 4, 1, "=SUM(A1:A3)")
	setCell(t, wb, sheet, 5, 1, "=SUM(A1:A1000)")

	wb.Recalculate()
	explicit := wb.GetCellValue(CellAddress{WorksheetID: sheet, Row: 4, Column: 1})
	wide := wb.GetCellValue(CellAddress{WorksheetID: sheet, Row: 5, Column: 1})
	if explicit != wide {
		t.Fatalf("SUM(A1:A3)=%v but SUM(A1:A1000)=%v with empty cells treated as 0", explicit, wide)
	}
}

func TestEvaluatorStringConcatenation(t *testing.T) {
	wb, sheet := newTestWorkbook(t)
	setCell(t, wb, sheet, 1, 1, "hello")
	setCell(t, wb, sheet, 2, 1, `=A1&" world"`)

	wb.Recalculate()
	got := wb.GetCellValue(CellAddress{WorksheetID: sheet, Row: 2, Column: 1})
	if got != "hello world" {
		t.Fatalf("concat = %v, want %q", got, "hello world")
	}
}

func TestEvaluatorZeroToZeroPowerIsNum(t *testing.T) {
	wb, sheet := newTestWorkbook(t)
	setCell(t, wb, sheet, 1, 1, "0")
	setCell(t, wb, sheet, 2, 1, "=A1^0")
	setCell(t, wb, sheet, 3, 1, "=POWER(0,0)")

	wb.Recalculate()
	for _, addr := range []CellAddress{
		{WorksheetID: sheet, Row: 2, Column: 1},
		{WorksheetID: sheet, Row: 3, Column: 1},
	} {
		v := wb.GetCellValue(addr)
		e, ok := v.(*SpreadsheetError)
		if !ok || e.ErrorCode != ErrorCodeNum {
			t.Fatalf("0^0 at %+v = %v, want #NUM!", addr, v)
		}
	}
}

func TestEvaluatorOverflowToInfinityIsNum(t *testing.T) {
	wb, sheet := newTestWorkbook(t)
	setCell(t, wb, sheet, 1, 1, "1E308")
	setCell(t, wb, sheet, 2, 1, "=A1*10")

	wb.Recalculate()
	got := wb.GetCellValue(CellAddress{WorksheetID: sheet, Row: 2, Column: 1})
	e, ok := got.(*SpreadsheetError)
	if !ok || e.ErrorCode != ErrorCodeNum {
		t.Fatalf("overflowing multiply = %v, want #NUM!", got)
	}
}

func TestEvaluatorComparisonCrossType(t *testing.T) {
	wb, sheet := newTestWorkbook(t)
	setCell(t, wb, sheet, 1, 1, "1")
	setCell(t, wb, sheet, 2, 1, "abc")
	setCell(t, wb, sheet, 3, 1, "=A1<A2") // number < text always true by rank

	wb.Recalculate()
	got := wb.GetCellValue(CellAddress{WorksheetID: sheet, Row: 3, Column: 1})
	if got != true {
		t.Fatalf("number<text = %v, want true", got)
	}
}
