package model

import "strings"

// Profile summarises a record set: shape, missing values and duplicates
type Profile struct {
	Rows       int
	Columns    int
	Missing    map[string]int
	Duplicates int
}

// Profile computes the summary of a typed record set
func (rs RecordSet) Profile() Profile {
	p := Profile{
		Rows:    len(rs),
		Columns: len(RecordColumns),
		Missing: make(map[string]int, len(RecordColumns)),
	}

	for _, col := range RecordColumns {
		p.Missing[col] = rs.MissingCount(col)
	}

	seen := make(map[string]struct{}, len(rs))
	for i := range rs {
		k := rs[i].key()
		if _, dup := seen[k]; dup {
			p.Duplicates++
			continue
		}
		seen[k] = struct{}{}
	}
	return p
}

// Profile computes the summary of a raw table. A cell is missing when it is blank.
func (t *RawTable) Profile() Profile {
	p := Profile{
		Rows:    t.Len(),
		Columns: len(t.Columns),
		Missing: make(map[string]int, len(t.Columns)),
	}

	seen := make(map[string]struct{}, t.Len())
	for i, row := range t.Rows {
		for c, col := range t.Columns {
			if strings.TrimSpace(t.Cell(i, c)) == "" {
				p.Missing[col]++
			}
		}
		k := strings.Join(row, "\x1f")
		if _, dup := seen[k]; dup {
			p.Duplicates++
			continue
		}
		seen[k] = struct{}{}
	}
	return p
}

// TotalMissing returns the sum of missing values across all columns
func (p Profile) TotalMissing() int {
	total := 0
	for _, n := range p.Missing {
		total += n
	}
	return total
}
