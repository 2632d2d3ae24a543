// Package transform implements the closed set of table transformations
// and the replayable serialized form of their parameters.
//
// Each operation is a pure function: table and typed params in, new
// table or error out. The Operation envelope is what the change log
// stores; it must round-trip losslessly through JSON because the replay
// engine re-applies exactly what was recorded.
package transform

import (
	"encoding/json"

	"github.com/loomworks/loom/internal/errors"
)

// Kind identifies a transformation operation.
type Kind string

const (
	KindFilter          Kind = "filter"
	KindSort            Kind = "sort"
	KindAddRow          Kind = "addRow"
	KindDelRow          Kind = "delRow"
	KindAddCol          Kind = "addCol"
	KindDelCol          Kind = "delCol"
	KindChangeCellValue Kind = "changeCellValue"
	KindFillEmpty       Kind = "fillEmpty"
	KindRenameCol       Kind = "renameCol"
	KindCastDataType    Kind = "castDataType"
	KindTrimWhitespace  Kind = "trimWhitespace"
	KindDropDuplicate   Kind = "dropDuplicate"
	KindAdvQueryFilter  Kind = "advQueryFilter"
	KindPivotTables     Kind = "pivotTables"
)

// AllKinds lists every operation kind.
var AllKinds = []Kind{
	KindFilter, KindSort, KindAddRow, KindDelRow, KindAddCol, KindDelCol,
	KindChangeCellValue, KindFillEmpty, KindRenameCol, KindCastDataType,
	KindTrimWhitespace, KindDropDuplicate, KindAdvQueryFilter, KindPivotTables,
}

// Valid reports whether k is a known operation kind.
func (k Kind) Valid() bool {
	for _, known := range AllKinds {
		if k == known {
			return true
		}
	}
	return false
}

// FilterParams selects rows by a column condition.
type FilterParams struct {
	Column    string `json:"column"`
	Condition string `json:"condition"` // =, !=, >, <, >=, <=, contains
	Value     string `json:"value"`
}

// SortParams orders rows by a column.
type SortParams struct {
	Column    string `json:"column"`
	Ascending bool   `json:"ascending"`
}

// RowParams addresses a row by index for addRow/delRow.
type RowParams struct {
	Index int `json:"index"`
}

// ColParams addresses a column position for addCol/delCol. Name is only
// used by addCol.
type ColParams struct {
	Index int    `json:"index"`
	Name  string `json:"name,omitempty"`
}

// CellEditParams updates a single cell. ColIndex is 1-based: the UI
// prepends an ordinal column, so position colIndex-1 is the real column.
// Changing this silently breaks replay of historical log entries.
type CellEditParams struct {
	RowIndex int    `json:"row_index"`
	ColIndex int    `json:"col_index"`
	Value    string `json:"fill_value"`
}

// FillEmptyParams replaces missing values. A nil Index means all columns.
type FillEmptyParams struct {
	Index *int   `json:"index,omitempty"`
	Value string `json:"fill_value"`
}

// RenameColParams renames a column by position.
type RenameColParams struct {
	ColIndex int    `json:"col_index"`
	NewName  string `json:"new_name"`
}

// CastParams converts a column to a target type.
type CastParams struct {
	Column     string `json:"column"`
	TargetType string `json:"target_type"` // string, integer, float, boolean, datetime
}

// TrimParams strips surrounding whitespace from a column's values.
type TrimParams struct {
	Column string `json:"column"`
}

// DedupeParams removes duplicate rows over a column subset.
type DedupeParams struct {
	Columns string `json:"columns"` // comma-separated
	Keep    string `json:"keep"`    // first, last, none
}

// QueryParams holds a free-form boolean row filter expression.
type QueryParams struct {
	Query string `json:"query"`
}

// PivotParams aggregates a value column grouped by index columns.
type PivotParams struct {
	Index   string `json:"index"` // comma-separated
	Column  string `json:"column,omitempty"`
	Value   string `json:"value"`
	AggFunc string `json:"aggfunc"` // sum, mean, median, min, max, count
}

// Operation is the tagged union stored in the change log: one kind plus
// the matching params payload. Exactly one params field is set for a
// well-formed operation.
type Operation struct {
	Kind Kind `json:"operation_type"`

	Filter   *FilterParams    `json:"filter_params,omitempty"`
	Sort     *SortParams      `json:"sort_params,omitempty"`
	Row      *RowParams       `json:"row_params,omitempty"`
	Col      *ColParams       `json:"col_params,omitempty"`
	CellEdit *CellEditParams  `json:"change_cell_value,omitempty"`
	Fill     *FillEmptyParams `json:"fill_empty_params,omitempty"`
	Rename   *RenameColParams `json:"rename_col_params,omitempty"`
	Cast     *CastParams      `json:"cast_data_type_params,omitempty"`
	Trim     *TrimParams      `json:"trim_whitespace_params,omitempty"`
	Dedupe   *DedupeParams    `json:"drop_duplicate,omitempty"`
	Query    *QueryParams     `json:"adv_query,omitempty"`
	Pivot    *PivotParams     `json:"pivot_query,omitempty"`
}

// Marshal serializes the operation for the change log.
func (op *Operation) Marshal() ([]byte, error) {
	data, err := json.Marshal(op)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return data, nil
}

// Unmarshal restores an operation from its logged form.
func Unmarshal(data []byte) (*Operation, error) {
	var op Operation
	if err := json.Unmarshal(data, &op); err != nil {
		return nil, errors.NewInternal(err)
	}
	if !op.Kind.Valid() {
		return nil, errors.NewInvalidRequest("unknown operation type: " + string(op.Kind))
	}
	return &op, nil
}
