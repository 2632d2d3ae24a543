package transform

import (
	"sort"
	"strings"

	"github.com/loomworks/loom/internal/errors"
	"github.com/loomworks/loom/internal/table"
)

// Filter keeps the rows matching a column condition. For numeric
// columns the comparison value is cast to a number up front; a value
// that does not parse is an error, not an empty result.
func Filter(t *table.Table, p *FilterParams) (*table.Table, error) {
	col, err := t.Column(p.Column)
	if err != nil {
		return nil, err
	}

	numeric := col.Type.IsNumeric()
	var target float64
	if numeric {
		v, ok := table.ParseFloat(p.Value)
		if !ok {
			return nil, errors.NewTransformation("invalid numeric value: %s", p.Value)
		}
		target = v
	}

	switch p.Condition {
	case "=", "!=", ">", "<", ">=", "<=", "contains":
	default:
		return nil, errors.NewTransformation("unsupported filter condition: %s", p.Condition)
	}
	if p.Condition == "contains" && numeric {
		return nil, errors.NewTransformation("contains is only supported on text columns")
	}

	keep := make([]int, 0, t.RowCount())
	for i := 0; i < t.RowCount(); i++ {
		cell := col.Cells[i]
		if cell.Missing {
			continue // missing values never match
		}

		var match bool
		if numeric {
			v, ok := col.Float(i)
			if !ok {
				continue
			}
			switch p.Condition {
			case "=":
				match = v == target
			case "!=":
				match = v != target
			case ">":
				match = v > target
			case "<":
				match = v < target
			case ">=":
				match = v >= target
			case "<=":
				match = v <= target
			}
		} else {
			raw := cell.Raw
			switch p.Condition {
			case "=":
				match = raw == p.Value
			case "!=":
				match = raw != p.Value
			case ">":
				match = raw > p.Value
			case "<":
				match = raw < p.Value
			case ">=":
				match = raw >= p.Value
			case "<=":
				match = raw <= p.Value
			case "contains":
				match = strings.Contains(raw, p.Value)
			}
		}
		if match {
			keep = append(keep, i)
		}
	}
	return t.Select(keep), nil
}

// Sort orders the rows by one column. The sort is stable, so equal keys
// keep their current relative order. Missing values always sort last.
func Sort(t *table.Table, p *SortParams) (*table.Table, error) {
	col, err := t.Column(p.Column)
	if err != nil {
		return nil, err
	}

	idx := make([]int, t.RowCount())
	for i := range idx {
		idx[i] = i
	}

	less := lessFunc(col)
	sort.SliceStable(idx, func(a, b int) bool {
		ra, rb := idx[a], idx[b]
		ma, mb := col.Cells[ra].Missing, col.Cells[rb].Missing
		if ma || mb {
			return !ma && mb // present before missing, both directions
		}
		if p.Ascending {
			return less(ra, rb)
		}
		return less(rb, ra)
	})
	return t.Select(idx), nil
}

// lessFunc returns a typed row comparator for the column.
func lessFunc(col *table.Column) func(a, b int) bool {
	switch col.Type {
	case table.TypeInt, table.TypeFloat:
		return func(a, b int) bool {
			va, oka := col.Float(a)
			vb, okb := col.Float(b)
			if !oka || !okb {
				return oka && !okb
			}
			return va < vb
		}
	case table.TypeBool:
		return func(a, b int) bool {
			va, _ := col.Bool(a)
			vb, _ := col.Bool(b)
			return !va && vb
		}
	case table.TypeDatetime:
		return func(a, b int) bool {
			va, oka := col.Time(a)
			vb, okb := col.Time(b)
			if !oka || !okb {
				return oka && !okb
			}
			return va.Before(vb)
		}
	default:
		return func(a, b int) bool {
			return col.Cells[a].Raw < col.Cells[b].Raw
		}
	}
}
