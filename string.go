package sheetcalc

// StringTable interns the shared-string pool a workbook's cells point
// into by index (§3 "Shared string": "a string pool-interned to save
// space and enable equality as integer comparison"). Reference counts
// track how many cells across the workbook currently point at each
// entry, across every sheet, since the pool is workbook- not
// sheet-scoped: SetUserInput interns on write, CopySheet bumps the
// count when a duplicated cell starts pointing at the same entry, and
// DeleteCell/SetCellEmpty/overwrite release it, removing the entry once
// nothing references it any more.
type StringTable struct {
	strings    map[string]uint32
	reverseMap map[uint32]string
	refCounts  map[uint32]int
	nextID     uint32
}

// NewStringTable creates an empty string table.
func NewStringTable() *StringTable {
	return &StringTable{
		strings:    make(map[string]uint32),
		reverseMap: make(map[uint32]string),
		refCounts:  make(map[uint32]int),
		nextID:     1, // reserve 0 for "no string"
	}
}

// Intern adds s to the table, or increments its reference count if it is
// already present, and returns its id.
func (st *StringTable) Intern(s string) uint32 {
	if id, exists := st.strings[s]; exists {
		st.refCounts[id]++
		return id
	}
	id := st.nextID
	st.strings[s] = id
	st.reverseMap[id] = s
	st.refCounts[id] = 1
	st.nextID++
	return id
}

// GetString retrieves the string stored under id.
func (st *StringTable) GetString(id uint32) (string, bool) {
	s, exists := st.reverseMap[id]
	return s, exists
}

// AddReference bumps id's reference count for an additional cell that now
// points at it (used when a cell pointing at id is duplicated, e.g.
// Workbook.CopySheet, rather than re-interned from its text).
func (st *StringTable) AddReference(id uint32) bool {
	if _, exists := st.reverseMap[id]; !exists {
		return false
	}
	st.refCounts[id]++
	return true
}

// RemoveReference releases one cell's hold on id, deleting the entry once
// its count reaches zero. Returns true if the entry was removed.
func (st *StringTable) RemoveReference(id uint32) bool {
	s, exists := st.reverseMap[id]
	if !exists {
		return false
	}
	st.refCounts[id]--
	if st.refCounts[id] <= 0 {
		delete(st.strings, s)
		delete(st.reverseMap, id)
		delete(st.refCounts, id)
		return true
	}
	return false
}

// GetReferenceCount returns how many cells currently point at id.
func (st *StringTable) GetReferenceCount(id uint32) int {
	return st.refCounts[id]
}

// Count returns the number of distinct strings currently interned.
func (st *StringTable) Count() int {
	return len(st.strings)
}
