// Package table holds the in-memory tabular value and its CSV codec.
//
// A Table is an ordered sequence of named columns. Every mutating
// transformation consumes a Table and returns a new one; no operation
// mutates a Table the caller still holds.
package table

import "github.com/loomworks/loom/internal/errors"

// Type is the inferred value type of a column.
type Type string

const (
	TypeString   Type = "str"
	TypeInt      Type = "int"
	TypeFloat    Type = "float"
	TypeBool     Type = "bool"
	TypeDatetime Type = "datetime"
)

// Cell is a single table value. Missing cells keep an empty Raw string
// and round-trip back to an empty CSV field.
type Cell struct {
	Raw     string
	Missing bool
}

// BlankCell is the placeholder written into rows created by addRow.
// A single space, not a missing value: the row exists but is empty.
var BlankCell = Cell{Raw: " "}

// MissingCell is an absent value.
var MissingCell = Cell{Missing: true}

// Column is a named, typed sequence of cells.
type Column struct {
	Name  string
	Type  Type
	Cells []Cell
}

// Table is an ordered set of columns. Invariant: all columns have the
// same number of cells, and column names are unique.
type Table struct {
	Columns []Column
}

// RowCount returns the number of rows.
func (t *Table) RowCount() int {
	if len(t.Columns) == 0 {
		return 0
	}
	return len(t.Columns[0].Cells)
}

// ColCount returns the number of columns.
func (t *Table) ColCount() int {
	return len(t.Columns)
}

// ColumnIndex returns the position of the named column, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Column returns the named column or a TRANSFORMATION_FAILED error.
func (t *Table) Column(name string) (*Column, error) {
	idx := t.ColumnIndex(name)
	if idx < 0 {
		return nil, errors.NewTransformation("column %q not found", name)
	}
	return &t.Columns[idx], nil
}

// Names returns the column names in order.
func (t *Table) Names() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Row returns the cells of row i in column order.
func (t *Table) Row(i int) []Cell {
	row := make([]Cell, len(t.Columns))
	for j, c := range t.Columns {
		row[j] = c.Cells[i]
	}
	return row
}

// Clone returns a deep copy. Transformations clone before mutating so the
// caller's value stays intact on error.
func (t *Table) Clone() *Table {
	out := &Table{Columns: make([]Column, len(t.Columns))}
	for i, c := range t.Columns {
		cells := make([]Cell, len(c.Cells))
		copy(cells, c.Cells)
		out.Columns[i] = Column{Name: c.Name, Type: c.Type, Cells: cells}
	}
	return out
}

// Select returns a new table containing only the rows whose indices are
// listed in keep, in that order.
func (t *Table) Select(keep []int) *Table {
	out := &Table{Columns: make([]Column, len(t.Columns))}
	for i, c := range t.Columns {
		cells := make([]Cell, len(keep))
		for j, idx := range keep {
			cells[j] = c.Cells[idx]
		}
		out.Columns[i] = Column{Name: c.Name, Type: c.Type, Cells: cells}
	}
	return out
}

// Preview is the boundary-facing snapshot of a table: column names,
// stringified rows, and a name→dtype map.
type Preview struct {
	Columns  []string          `json:"columns"`
	Rows     [][]string        `json:"rows"`
	RowCount int               `json:"row_count"`
	Dtypes   map[string]string `json:"dtypes"`
}

// ToPreview converts the table for API responses. Missing cells render
// as empty strings.
func (t *Table) ToPreview() *Preview {
	p := &Preview{
		Columns:  t.Names(),
		RowCount: t.RowCount(),
		Dtypes:   make(map[string]string, len(t.Columns)),
	}
	for _, c := range t.Columns {
		p.Dtypes[c.Name] = string(c.Type)
	}
	p.Rows = make([][]string, t.RowCount())
	for i := 0; i < t.RowCount(); i++ {
		row := make([]string, len(t.Columns))
		for j, c := range t.Columns {
			if c.Cells[i].Missing {
				row[j] = ""
			} else {
				row[j] = c.Cells[i].Raw
			}
		}
		p.Rows[i] = row
	}
	return p
}
