// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package benchlog

// A Table is the canonical form of a parsed log: a fixed list of
// column names and one row of string cells per benchmark record.
// A missing value is the empty string.
type Table struct {
	Columns []string
	Rows    [][]string
}

// Len returns the number of rows in t.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// ColumnIndex returns the index of column name in t, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, col := range t.Columns {
		if col == name {
			return i
		}
	}
	return -1
}

// Column returns a copy of the cells of column name, or nil if t has
// no such column.
func (t *Table) Column(name string) []string {
	i := t.ColumnIndex(name)
	if i < 0 {
		return nil
	}
	out := make([]string, len(t.Rows))
	for j, row := range t.Rows {
		out[j] = row[i]
	}
	return out
}

// dedupRows drops rows that repeat an earlier row in the columns at
// keyCols, or in every column if keyCols is nil. The first occurrence
// is kept and the relative order of the rest is preserved.
func dedupRows(rows [][]string, keyCols []int) [][]string {
	seen := make(map[string]bool, len(rows))
	out := rows[:0]
	var key []string
	for _, row := range rows {
		cells := row
		if keyCols != nil {
			key = key[:0]
			for _, i := range keyCols {
				key = append(key, row[i])
			}
			cells = key
		}
		k := rowKey(cells)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, row)
	}
	return out
}

// rowKey joins cells with a separator that cannot appear in log text.
func rowKey(cells []string) string {
	n := 0
	for _, c := range cells {
		n += len(c) + 1
	}
	b := make([]byte, 0, n)
	for _, c := range cells {
		b = append(b, c...)
		b = append(b, 0)
	}
	return string(b)
}
