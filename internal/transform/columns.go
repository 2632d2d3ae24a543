package transform

import (
	"strings"

	"github.com/loomworks/loom/internal/errors"
	"github.com/loomworks/loom/internal/table"
)

// AddColumn inserts a new column of entirely-missing values at index.
// The index may equal the column count (append).
func AddColumn(t *table.Table, index int, name string) (*table.Table, error) {
	n := t.ColCount()
	if index < 0 || index > n {
		return nil, errors.NewTransformation("column index %d out of range (0-%d)", index, n)
	}
	if strings.TrimSpace(name) == "" {
		return nil, errors.NewTransformation("column name must not be empty")
	}
	if t.ColumnIndex(name) >= 0 {
		return nil, errors.NewTransformation("column %q already exists", name)
	}

	cells := make([]table.Cell, t.RowCount())
	for i := range cells {
		cells[i] = table.MissingCell
	}
	newCol := table.Column{Name: name, Type: table.TypeString, Cells: cells}

	out := t.Clone()
	out.Columns = append(out.Columns, table.Column{})
	copy(out.Columns[index+1:], out.Columns[index:])
	out.Columns[index] = newCol
	return out, nil
}

// DeleteColumn removes the column at index.
func DeleteColumn(t *table.Table, index int) (*table.Table, error) {
	n := t.ColCount()
	if index < 0 || index >= n {
		return nil, errors.NewTransformation("column index %d out of range (0-%d)", index, n-1)
	}

	out := t.Clone()
	out.Columns = append(out.Columns[:index], out.Columns[index+1:]...)
	return out, nil
}

// RenameColumn renames the column at index.
func RenameColumn(t *table.Table, index int, newName string) (*table.Table, error) {
	n := t.ColCount()
	if index < 0 || index >= n {
		return nil, errors.NewTransformation("column index %d out of range (0-%d)", index, n-1)
	}
	trimmed := strings.TrimSpace(newName)
	if trimmed == "" {
		return nil, errors.NewTransformation("new column name must not be empty")
	}
	if existing := t.ColumnIndex(trimmed); existing >= 0 && existing != index {
		return nil, errors.NewTransformation("column %q already exists", trimmed)
	}

	out := t.Clone()
	out.Columns[index].Name = trimmed
	return out, nil
}

// TrimWhitespace strips leading and trailing whitespace from the
// column's present values.
func TrimWhitespace(t *table.Table, column string) (*table.Table, error) {
	idx := t.ColumnIndex(column)
	if idx < 0 {
		return nil, errors.NewTransformation("column %q not found", column)
	}

	out := t.Clone()
	col := &out.Columns[idx]
	for i := range col.Cells {
		if !col.Cells[i].Missing {
			col.Cells[i].Raw = strings.TrimSpace(col.Cells[i].Raw)
		}
	}
	col.Reinfer()
	return out, nil
}

// CastDataType converts a column to the target type. Numeric and
// datetime casts are lenient: values that do not parse become missing,
// never an error. Boolean casts recognize the truthy/falsy token sets
// (true/1/yes/y/on and false/0/no/n/off, case-insensitive, trimmed).
func CastDataType(t *table.Table, column, targetType string) (*table.Table, error) {
	idx := t.ColumnIndex(column)
	if idx < 0 {
		return nil, errors.NewTransformation("column %q not found", column)
	}

	out := t.Clone()
	col := &out.Columns[idx]

	switch targetType {
	case "string":
		col.Type = table.TypeString
	case "integer":
		for i := range col.Cells {
			if col.Cells[i].Missing {
				continue
			}
			if v, ok := table.ParseInt(col.Cells[i].Raw); ok {
				col.Cells[i].Raw = table.FormatInt(v)
			} else if f, ok := table.ParseFloat(col.Cells[i].Raw); ok {
				col.Cells[i].Raw = table.FormatInt(int64(f))
			} else {
				col.Cells[i] = table.MissingCell
			}
		}
		col.Type = table.TypeInt
	case "float":
		for i := range col.Cells {
			if col.Cells[i].Missing {
				continue
			}
			if v, ok := table.ParseFloat(col.Cells[i].Raw); ok {
				col.Cells[i].Raw = table.FormatFloat(v)
			} else {
				col.Cells[i] = table.MissingCell
			}
		}
		col.Type = table.TypeFloat
	case "boolean":
		for i := range col.Cells {
			if col.Cells[i].Missing {
				continue
			}
			if v, ok := table.ParseBool(col.Cells[i].Raw); ok {
				col.Cells[i].Raw = table.FormatBool(v)
			} else {
				col.Cells[i] = table.MissingCell
			}
		}
		col.Type = table.TypeBool
	case "datetime":
		for i := range col.Cells {
			if col.Cells[i].Missing {
				continue
			}
			if v, ok := table.ParseTime(col.Cells[i].Raw); ok {
				col.Cells[i].Raw = v.Format("2006-01-02 15:04:05")
			} else {
				col.Cells[i] = table.MissingCell
			}
		}
		col.Type = table.TypeDatetime
	default:
		return nil, errors.NewTransformation("unsupported target type: %s", targetType)
	}
	return out, nil
}
