package transform

import (
	"github.com/loomworks/loom/internal/errors"
	"github.com/loomworks/loom/internal/table"
)

// AddRow inserts one row of blank placeholder cells at index. The index
// may equal the row count (append).
func AddRow(t *table.Table, index int) (*table.Table, error) {
	n := t.RowCount()
	if index < 0 || index > n {
		return nil, errors.NewTransformation("row index %d out of range (0-%d)", index, n)
	}

	out := t.Clone()
	for i := range out.Columns {
		cells := out.Columns[i].Cells
		cells = append(cells, table.Cell{})
		copy(cells[index+1:], cells[index:])
		cells[index] = table.BlankCell
		out.Columns[i].Cells = cells
		out.Columns[i].Reinfer() // a blank placeholder demotes typed columns to text
	}
	return out, nil
}

// DeleteRow removes the row at index.
func DeleteRow(t *table.Table, index int) (*table.Table, error) {
	n := t.RowCount()
	if index < 0 || index >= n {
		return nil, errors.NewTransformation("row index %d out of range (0-%d)", index, n-1)
	}

	keep := make([]int, 0, n-1)
	for i := 0; i < n; i++ {
		if i != index {
			keep = append(keep, i)
		}
	}
	out := t.Select(keep)
	for i := range out.Columns {
		out.Columns[i].Reinfer()
	}
	return out, nil
}

// ChangeCellValue sets a single cell. ColIndex arrives 1-based from the
// UI (its leading ordinal column occupies position 0), so the real
// column is colIndex-1. The value is coerced to the column's current
// type; a value that cannot be coerced is an error.
func ChangeCellValue(t *table.Table, p *CellEditParams) (*table.Table, error) {
	if p.RowIndex < 0 || p.RowIndex >= t.RowCount() || p.ColIndex < 1 || p.ColIndex >= t.ColCount()+1 {
		return nil, errors.NewTransformation("row or column index out of bounds")
	}

	out := t.Clone()
	col := &out.Columns[p.ColIndex-1]

	cell := table.Cell{Raw: p.Value}
	if p.Value == "" {
		cell = table.MissingCell
	} else {
		switch col.Type {
		case table.TypeInt:
			if _, ok := table.ParseInt(p.Value); !ok {
				return nil, errors.NewTransformation("cannot coerce %q to integer column %q", p.Value, col.Name)
			}
		case table.TypeFloat:
			if _, ok := table.ParseFloat(p.Value); !ok {
				return nil, errors.NewTransformation("cannot coerce %q to float column %q", p.Value, col.Name)
			}
		case table.TypeBool:
			v, ok := table.ParseBool(p.Value)
			if !ok {
				return nil, errors.NewTransformation("cannot coerce %q to boolean column %q", p.Value, col.Name)
			}
			cell.Raw = table.FormatBool(v)
		}
	}

	col.Cells[p.RowIndex] = cell
	col.Reinfer()
	return out, nil
}

// FillEmpty replaces missing values with a fill value, in one column or
// in every column when no index is given.
func FillEmpty(t *table.Table, p *FillEmptyParams) (*table.Table, error) {
	out := t.Clone()

	fillColumn := func(col *table.Column) {
		changed := false
		for i := range col.Cells {
			if col.Cells[i].Missing {
				col.Cells[i] = table.Cell{Raw: p.Value}
				changed = true
			}
		}
		if changed {
			col.Reinfer()
		}
	}

	if p.Index != nil {
		idx := *p.Index
		if idx < 0 || idx >= out.ColCount() {
			return nil, errors.NewTransformation("column index %d out of range", idx)
		}
		fillColumn(&out.Columns[idx])
		return out, nil
	}
	for i := range out.Columns {
		fillColumn(&out.Columns[i])
	}
	return out, nil
}
