package transform

import (
	"strings"

	"github.com/loomworks/loom/internal/errors"
	"github.com/loomworks/loom/internal/table"
)

// DropDuplicates removes duplicate rows judged by a comma-separated
// column subset. Keep selects which occurrence survives: "first",
// "last", or "none" to drop every duplicated row. Kept rows stay in
// their original order.
func DropDuplicates(t *table.Table, columns, keep string) (*table.Table, error) {
	names := splitColumns(columns)
	if len(names) == 0 {
		return nil, errors.NewTransformation("no columns given for duplicate check")
	}

	cols := make([]*table.Column, len(names))
	for i, name := range names {
		col, err := t.Column(name)
		if err != nil {
			return nil, err
		}
		cols[i] = col
	}

	if keep != "first" && keep != "last" && keep != "none" {
		return nil, errors.NewTransformation("keep must be one of: first, last, none")
	}

	key := func(row int) string {
		var b strings.Builder
		for _, col := range cols {
			if col.Cells[row].Missing {
				b.WriteString("\x00m")
			} else {
				b.WriteString(col.Cells[row].Raw)
			}
			b.WriteByte('\x1f')
		}
		return b.String()
	}

	n := t.RowCount()
	counts := make(map[string]int, n)
	for i := 0; i < n; i++ {
		counts[key(i)]++
	}

	keepRows := make([]int, 0, n)
	seen := make(map[string]int, n)
	for i := 0; i < n; i++ {
		k := key(i)
		seen[k]++
		switch keep {
		case "first":
			if seen[k] == 1 {
				keepRows = append(keepRows, i)
			}
		case "last":
			if seen[k] == counts[k] {
				keepRows = append(keepRows, i)
			}
		case "none":
			if counts[k] == 1 {
				keepRows = append(keepRows, i)
			}
		}
	}
	return t.Select(keepRows), nil
}

// splitColumns parses a comma-separated column list, trimming each name.
func splitColumns(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
