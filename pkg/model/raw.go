package model

// RawTable is the delimited-text record set as extracted, before any
// cleaning. It is kept verbatim for the raw archive.
type RawTable struct {
	Columns []string
	Rows    [][]string
}

// Len returns the number of data rows
func (t *RawTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// ColumnIndex returns the position of a column or -1 when absent
func (t *RawTable) ColumnIndex(name string) int {
	for i, col := range t.Columns {
		if col == name {
			return i
		}
	}
	return -1
}

// Cell returns the value at row i for the given column index, or "" when
// the row is shorter than the header
func (t *RawTable) Cell(i, col int) string {
	row := t.Rows[i]
	if col < 0 || col >= len(row) {
		return ""
	}
	return row[col]
}

// Clone returns a deep copy of the table
func (t *RawTable) Clone() *RawTable {
	if t == nil {
		return nil
	}

	out := &RawTable{
		Columns: append([]string(nil), t.Columns...),
		Rows:    make([][]string, len(t.Rows)),
	}
	for i, row := range t.Rows {
		out.Rows[i] = append([]string(nil), row...)
	}
	return out
}
