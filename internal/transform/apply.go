package transform

import (
	"github.com/loomworks/loom/internal/errors"
	"github.com/loomworks/loom/internal/table"
)

// Apply dispatches an operation to its implementation. The switch is
// exhaustive over Kind; a missing params payload for the given kind is
// an INVALID_REQUEST, everything the operation itself rejects is a
// TRANSFORMATION_FAILED.
func Apply(t *table.Table, op *Operation) (*table.Table, error) {
	switch op.Kind {
	case KindFilter:
		if op.Filter == nil {
			return nil, errors.NewInvalidRequest("filter parameters required")
		}
		return Filter(t, op.Filter)
	case KindSort:
		if op.Sort == nil {
			return nil, errors.NewInvalidRequest("sort parameters required")
		}
		return Sort(t, op.Sort)
	case KindAddRow:
		if op.Row == nil {
			return nil, errors.NewInvalidRequest("row parameters required")
		}
		return AddRow(t, op.Row.Index)
	case KindDelRow:
		if op.Row == nil {
			return nil, errors.NewInvalidRequest("row parameters required")
		}
		return DeleteRow(t, op.Row.Index)
	case KindAddCol:
		if op.Col == nil {
			return nil, errors.NewInvalidRequest("column parameters required")
		}
		return AddColumn(t, op.Col.Index, op.Col.Name)
	case KindDelCol:
		if op.Col == nil {
			return nil, errors.NewInvalidRequest("column parameters required")
		}
		return DeleteColumn(t, op.Col.Index)
	case KindChangeCellValue:
		if op.CellEdit == nil {
			return nil, errors.NewInvalidRequest("cell value parameters required")
		}
		return ChangeCellValue(t, op.CellEdit)
	case KindFillEmpty:
		if op.Fill == nil {
			return nil, errors.NewInvalidRequest("fill parameters required")
		}
		return FillEmpty(t, op.Fill)
	case KindRenameCol:
		if op.Rename == nil {
			return nil, errors.NewInvalidRequest("rename column parameters required")
		}
		return RenameColumn(t, op.Rename.ColIndex, op.Rename.NewName)
	case KindCastDataType:
		if op.Cast == nil {
			return nil, errors.NewInvalidRequest("cast data type parameters required")
		}
		return CastDataType(t, op.Cast.Column, op.Cast.TargetType)
	case KindTrimWhitespace:
		if op.Trim == nil {
			return nil, errors.NewInvalidRequest("trim whitespace parameters required")
		}
		return TrimWhitespace(t, op.Trim.Column)
	case KindDropDuplicate:
		if op.Dedupe == nil {
			return nil, errors.NewInvalidRequest("drop duplicate parameters required")
		}
		return DropDuplicates(t, op.Dedupe.Columns, op.Dedupe.Keep)
	case KindAdvQueryFilter:
		if op.Query == nil {
			return nil, errors.NewInvalidRequest("query parameter required")
		}
		return Query(t, op.Query.Query)
	case KindPivotTables:
		if op.Pivot == nil {
			return nil, errors.NewInvalidRequest("pivot parameters required")
		}
		return Pivot(t, op.Pivot)
	default:
		return nil, errors.NewInvalidRequest("unsupported operation: " + string(op.Kind))
	}
}
