package table

import (
	"strconv"
	"strings"
	"time"
)

// Truthy and falsy token sets recognized by boolean casts, matched
// case-insensitively after trimming.
var (
	truthyTokens = map[string]bool{"true": true, "1": true, "yes": true, "y": true, "on": true}
	falsyTokens  = map[string]bool{"false": true, "0": true, "no": true, "n": true, "off": true}
)

// datetimeLayouts are tried in order by ParseTime.
var datetimeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
}

// ParseInt parses a cell as an integer. "1.0" is not an integer.
func ParseInt(raw string) (int64, bool) {
	v, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	return v, err == nil
}

// ParseFloat parses a cell as a float.
func ParseFloat(raw string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	return v, err == nil
}

// ParseBool maps recognized truthy/falsy tokens to a boolean.
func ParseBool(raw string) (bool, bool) {
	tok := strings.ToLower(strings.TrimSpace(raw))
	if truthyTokens[tok] {
		return true, true
	}
	if falsyTokens[tok] {
		return false, true
	}
	return false, false
}

// ParseTime parses a cell against the known datetime layouts.
func ParseTime(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	for _, layout := range datetimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FormatBool renders a boolean cell.
func FormatBool(v bool) string {
	return strconv.FormatBool(v)
}

// FormatInt renders an integer cell.
func FormatInt(v int64) string {
	return strconv.FormatInt(v, 10)
}

// FormatFloat renders a float cell with the shortest exact representation.
func FormatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// InferType determines a column type from its cells. Numeric columns
// prefer int and fall back to float on any non-integer value. A column
// is boolean only when every present cell is a literal true/false —
// CSV itself carries no type information, so this is the one shape that
// unambiguously marks an explicit boolean column (castDataType writes
// exactly this shape back). Datetime wins only when every present cell
// parses against a known layout.
func InferType(cells []Cell) Type {
	allInt := true
	allFloat := true
	allBool := true
	allTime := true
	present := 0

	for _, c := range cells {
		if c.Missing {
			continue
		}
		present++
		raw := strings.TrimSpace(c.Raw)

		if _, ok := ParseInt(raw); !ok {
			allInt = false
		}
		if _, ok := ParseFloat(raw); !ok {
			allFloat = false
		}
		lower := strings.ToLower(raw)
		if lower != "true" && lower != "false" {
			allBool = false
		}
		if _, ok := ParseTime(raw); !ok {
			allTime = false
		}
	}

	if present == 0 {
		return TypeString
	}
	switch {
	case allBool:
		return TypeBool
	case allInt:
		return TypeInt
	case allFloat:
		return TypeFloat
	case allTime:
		return TypeDatetime
	default:
		return TypeString
	}
}

// IsNumeric reports whether the type supports numeric comparison.
func (t Type) IsNumeric() bool {
	return t == TypeInt || t == TypeFloat
}

// Float returns the cell at row i as a float64.
func (c *Column) Float(i int) (float64, bool) {
	if c.Cells[i].Missing {
		return 0, false
	}
	return ParseFloat(c.Cells[i].Raw)
}

// Bool returns the cell at row i as a boolean.
func (c *Column) Bool(i int) (bool, bool) {
	if c.Cells[i].Missing {
		return false, false
	}
	return ParseBool(c.Cells[i].Raw)
}

// Time returns the cell at row i as a time.Time.
func (c *Column) Time(i int) (time.Time, bool) {
	if c.Cells[i].Missing {
		return time.Time{}, false
	}
	return ParseTime(c.Cells[i].Raw)
}

// Reinfer recomputes the column type from its current cells. Called
// after cell-level edits that may change the column's shape.
func (c *Column) Reinfer() {
	c.Type = InferType(c.Cells)
}
