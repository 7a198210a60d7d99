package sheetcalc

// ASTKey is a normalized-AST key used to deduplicate formulas: two
// formulas with the same structure (ignoring surface whitespace) share
// one ASTKey, and therefore one pool entry.
type ASTKey string

// FormulaTable is a worksheet's shared-formula pool (§3 "Shared-formula
// pool": "an ordered sequence of parsed expression trees... identical
// formulas across cells may share an index"). It interns parsed trees by
// normalized form, reference-counts them by the cells currently pointing
// at each one, and removes an entry once its count reaches zero.
type FormulaTable struct {
	astIndex  map[ASTKey]uint32 // normalized AST -> formula ID
	astCache  map[uint32]*Node  // formula ID -> cached parsed AST
	refCounts map[uint32]int    // formula ID -> reference count

	cellsUsingFormula map[uint32]map[CellAddress]struct{} // formula ID -> cells using it
	formulaAtCell     map[CellAddress]uint32              // cell -> formula ID (reverse index)

	nextID uint32
}

// NewFormulaTable creates an empty formula table.
func NewFormulaTable() *FormulaTable {
	return &FormulaTable{
		astIndex:          make(map[ASTKey]uint32),
		astCache:          make(map[uint32]*Node),
		refCounts:         make(map[uint32]int),
		cellsUsingFormula: make(map[uint32]map[CellAddress]struct{}),
		formulaAtCell:     make(map[CellAddress]uint32),
		nextID:            1, // reserve 0 for "no formula"
	}
}

// normalizeAST converts an AST to its normalized string key.
func (ft *FormulaTable) normalizeAST(ast *Node) ASTKey {
	if ast == nil {
		return ""
	}
	return ASTKey(ast.String())
}

// InternFormula adds ast to the pool, or increments its reference count
// if an identical tree is already interned, and records that cell now
// holds it. If cell previously held a different formula, that formula's
// reference is released first, so a cell's formula reference is always
// counted exactly once. Returns the formula ID.
func (ft *FormulaTable) InternFormula(ast *Node, cell CellAddress) uint32 {
	key := ft.normalizeAST(ast)

	id, exists := ft.astIndex[key]
	if !exists {
		id = ft.nextID
		ft.astIndex[key] = id
		ft.astCache[id] = ast
		ft.nextID++
	}

	if oldID, hadFormula := ft.formulaAtCell[cell]; hadFormula && oldID != id {
		ft.releaseReference(oldID, cell)
	}

	ft.refCounts[id]++
	if ft.cellsUsingFormula[id] == nil {
		ft.cellsUsingFormula[id] = make(map[CellAddress]struct{})
	}
	ft.cellsUsingFormula[id][cell] = struct{}{}
	ft.formulaAtCell[cell] = id

	return id
}

// ReleaseCell releases cell's hold on whatever formula it currently
// points at (called by DeleteCell/SetCellEmpty, and by SetUserInput
// before overwriting a formula cell with non-formula content). Returns
// true if the released formula's reference count reached zero and it was
// removed from the pool.
func (ft *FormulaTable) ReleaseCell(cell CellAddress) bool {
	id, exists := ft.formulaAtCell[cell]
	if !exists {
		return false
	}
	return ft.releaseReference(id, cell)
}

// releaseReference decrements formulaID's reference count for cell,
// removing the formula from the pool once nothing references it.
func (ft *FormulaTable) releaseReference(formulaID uint32, cell CellAddress) bool {
	if cells, exists := ft.cellsUsingFormula[formulaID]; exists {
		delete(cells, cell)
		if len(cells) == 0 {
			delete(ft.cellsUsingFormula, formulaID)
		}
	}
	delete(ft.formulaAtCell, cell)

	ft.refCounts[formulaID]--
	if ft.refCounts[formulaID] <= 0 {
		ft.removeFormula(formulaID)
		return true
	}
	return false
}

// removeFormula deletes a formula and all its tracking data from the pool.
func (ft *FormulaTable) removeFormula(formulaID uint32) {
	if ast, exists := ft.astCache[formulaID]; exists {
		delete(ft.astIndex, ft.normalizeAST(ast))
	}
	delete(ft.astCache, formulaID)
	delete(ft.refCounts, formulaID)
	delete(ft.cellsUsingFormula, formulaID)
}

// GetAST retrieves the cached AST for a formula ID.
func (ft *FormulaTable) GetAST(id uint32) (*Node, bool) {
	ast, exists := ft.astCache[id]
	return ast, exists
}

// GetFormulaID returns the pool ID for an already-parsed AST, if any cell
// currently holds an equivalent tree.
func (ft *FormulaTable) GetFormulaID(ast *Node) (uint32, bool) {
	id, exists := ft.astIndex[ft.normalizeAST(ast)]
	return id, exists
}

// GetCellsUsingFormula returns every cell currently sharing formula id.
func (ft *FormulaTable) GetCellsUsingFormula(id uint32) []CellAddress {
	cells := ft.cellsUsingFormula[id]
	result := make([]CellAddress, 0, len(cells))
	for cell := range cells {
		result = append(result, cell)
	}
	return result
}

// GetReferenceCount returns how many cells currently share formula id.
func (ft *FormulaTable) GetReferenceCount(id uint32) int {
	return ft.refCounts[id]
}

// Count returns the number of distinct formulas currently interned.
func (ft *FormulaTable) Count() int {
	return len(ft.astIndex)
}
