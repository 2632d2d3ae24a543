package transform

import (
	"sort"

	"github.com/loomworks/loom/internal/errors"
	"github.com/loomworks/loom/internal/table"
)

// Pivot aggregates the value column grouped by the index columns, with
// an optional pivot column that fans each distinct value out into its
// own result column. Groups and pivoted columns appear in first-seen
// row order; result column names are plain strings and the index
// columns lead the result as ordinary columns.
func Pivot(t *table.Table, p *PivotParams) (*table.Table, error) {
	indexCols := splitColumns(p.Index)
	if len(indexCols) == 0 {
		return nil, errors.NewTransformation("pivot requires at least one index column")
	}

	required := append([]string{}, indexCols...)
	if p.Column != "" {
		required = append(required, p.Column)
	}
	required = append(required, p.Value)
	for _, name := range required {
		if t.ColumnIndex(name) < 0 {
			return nil, errors.NewTransformation("column %q not found", name)
		}
	}

	agg, err := aggregator(p.AggFunc)
	if err != nil {
		return nil, err
	}

	idxCols := make([]*table.Column, len(indexCols))
	for i, name := range indexCols {
		idxCols[i], _ = t.Column(name)
	}
	valCol, _ := t.Column(p.Value)
	var pivCol *table.Column
	if p.Column != "" {
		pivCol, _ = t.Column(p.Column)
	}

	type group struct {
		keys   []table.Cell         // index cell per index column
		values map[string][]float64 // pivot label -> collected values
	}

	groups := make([]*group, 0)
	groupIdx := make(map[string]*group)
	pivotLabels := make([]string, 0)
	pivotSeen := make(map[string]bool)

	for row := 0; row < t.RowCount(); row++ {
		gk := ""
		for _, col := range idxCols {
			gk += cellKey(col.Cells[row]) + "\x1f"
		}
		g, ok := groupIdx[gk]
		if !ok {
			keys := make([]table.Cell, len(idxCols))
			for i, col := range idxCols {
				keys[i] = col.Cells[row]
			}
			g = &group{keys: keys, values: make(map[string][]float64)}
			groupIdx[gk] = g
			groups = append(groups, g)
		}

		label := p.Value
		if pivCol != nil {
			label = cellKey(pivCol.Cells[row])
			if !pivotSeen[label] {
				pivotSeen[label] = true
				pivotLabels = append(pivotLabels, label)
			}
		}

		// count tallies every present cell, numeric or not; the other
		// aggregations fold only values that parse as numbers.
		if p.AggFunc == "count" {
			if !valCol.Cells[row].Missing {
				g.values[label] = append(g.values[label], 1)
			}
		} else if v, ok := valCol.Float(row); ok {
			g.values[label] = append(g.values[label], v)
		}
	}

	if pivCol == nil {
		pivotLabels = []string{p.Value}
	}

	out := &table.Table{Columns: make([]table.Column, 0, len(idxCols)+len(pivotLabels))}
	for i, name := range indexCols {
		cells := make([]table.Cell, len(groups))
		for j, g := range groups {
			cells[j] = g.keys[i]
		}
		out.Columns = append(out.Columns, table.Column{Name: name, Cells: cells})
	}
	for _, label := range pivotLabels {
		cells := make([]table.Cell, len(groups))
		for j, g := range groups {
			vals := g.values[label]
			if len(vals) == 0 {
				cells[j] = table.MissingCell
				continue
			}
			cells[j] = table.Cell{Raw: table.FormatFloat(agg(vals))}
		}
		out.Columns = append(out.Columns, table.Column{Name: label, Cells: cells})
	}

	for i := range out.Columns {
		out.Columns[i].Reinfer()
	}
	return out, nil
}

// cellKey renders a cell for grouping and column labeling.
func cellKey(c table.Cell) string {
	if c.Missing {
		return ""
	}
	return c.Raw
}

// aggregator resolves an aggregation name to its fold over collected
// float values. The input slice is never empty.
func aggregator(name string) (func([]float64) float64, error) {
	switch name {
	case "sum":
		return func(vs []float64) float64 {
			total := 0.0
			for _, v := range vs {
				total += v
			}
			return total
		}, nil
	case "mean":
		return func(vs []float64) float64 {
			total := 0.0
			for _, v := range vs {
				total += v
			}
			return total / float64(len(vs))
		}, nil
	case "median":
		return func(vs []float64) float64 {
			sorted := append([]float64{}, vs...)
			sort.Float64s(sorted)
			mid := len(sorted) / 2
			if len(sorted)%2 == 0 {
				return (sorted[mid-1] + sorted[mid]) / 2
			}
			return sorted[mid]
		}, nil
	case "min":
		return func(vs []float64) float64 {
			m := vs[0]
			for _, v := range vs[1:] {
				if v < m {
					m = v
				}
			}
			return m
		}, nil
	case "max":
		return func(vs []float64) float64 {
			m := vs[0]
			for _, v := range vs[1:] {
				if v > m {
					m = v
				}
			}
			return m
		}, nil
	case "count":
		return func(vs []float64) float64 {
			return float64(len(vs))
		}, nil
	default:
		return nil, errors.NewTransformation("unsupported aggregation: %s", name)
	}
}
