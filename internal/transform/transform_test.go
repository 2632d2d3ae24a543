package transform

import (
	"testing"

	"github.com/loomworks/loom/internal/errors"
	"github.com/loomworks/loom/internal/table"
)

const peopleCSV = `name,age,city
Alice,30,New York
Bob,25,Los Angeles
Charlie,35,New York
`

func mustDecode(t *testing.T, csv string) *table.Table {
	t.Helper()
	tbl, err := table.Decode([]byte(csv))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	return tbl
}

func columnRaw(t *testing.T, tbl *table.Table, name string) []string {
	t.Helper()
	col, err := tbl.Column(name)
	if err != nil {
		t.Fatalf("Column(%q) failed: %v", name, err)
	}
	out := make([]string, len(col.Cells))
	for i, c := range col.Cells {
		if c.Missing {
			out[i] = ""
		} else {
			out[i] = c.Raw
		}
	}
	return out
}

func TestFilter_NumericGreaterThan(t *testing.T) {
	tbl := mustDecode(t, peopleCSV)

	out, err := Filter(tbl, &FilterParams{Column: "age", Condition: ">", Value: "28"})
	if err != nil {
		t.Fatalf("Filter failed: %v", err)
	}

	names := columnRaw(t, out, "name")
	if len(names) != 2 || names[0] != "Alice" || names[1] != "Charlie" {
		t.Errorf("filtered names = %v, want [Alice Charlie]", names)
	}
}

func TestFilter_InvalidNumericValue(t *testing.T) {
	tbl := mustDecode(t, peopleCSV)

	_, err := Filter(tbl, &FilterParams{Column: "age", Condition: ">", Value: "abc"})
	if !errors.Is(err, errors.ErrTransformation) {
		t.Errorf("expected TRANSFORMATION_FAILED, got %v", err)
	}
}

func TestFilter_ContainsOnText(t *testing.T) {
	tbl := mustDecode(t, peopleCSV)

	out, err := Filter(tbl, &FilterParams{Column: "city", Condition: "contains", Value: "York"})
	if err != nil {
		t.Fatalf("Filter failed: %v", err)
	}
	if out.RowCount() != 2 {
		t.Errorf("RowCount = %d, want 2", out.RowCount())
	}

	_, err = Filter(tbl, &FilterParams{Column: "age", Condition: "contains", Value: "3"})
	if !errors.Is(err, errors.ErrTransformation) {
		t.Errorf("contains on a numeric column should fail, got %v", err)
	}
}

func TestFilter_MissingNeverMatches(t *testing.T) {
	tbl := mustDecode(t, "v\n1\n\"\"\n3\n")

	out, err := Filter(tbl, &FilterParams{Column: "v", Condition: "!=", Value: "1"})
	if err != nil {
		t.Fatalf("Filter failed: %v", err)
	}
	got := columnRaw(t, out, "v")
	if len(got) != 1 || got[0] != "3" {
		t.Errorf("filtered = %v, want [3]", got)
	}
}

func TestFilter_UnknownColumn(t *testing.T) {
	tbl := mustDecode(t, peopleCSV)
	_, err := Filter(tbl, &FilterParams{Column: "nope", Condition: "=", Value: "x"})
	if !errors.Is(err, errors.ErrTransformation) {
		t.Errorf("expected TRANSFORMATION_FAILED, got %v", err)
	}
}

func TestSort_NumericAscending(t *testing.T) {
	tbl := mustDecode(t, peopleCSV)

	out, err := Sort(tbl, &SortParams{Column: "age", Ascending: true})
	if err != nil {
		t.Fatalf("Sort failed: %v", err)
	}
	ages := columnRaw(t, out, "age")
	if ages[0] != "25" || ages[1] != "30" || ages[2] != "35" {
		t.Errorf("sorted ages = %v, want [25 30 35]", ages)
	}
}

func TestSort_MissingLastBothDirections(t *testing.T) {
	tbl := mustDecode(t, "v\n3\n\"\"\n1\n")

	asc, err := Sort(tbl, &SortParams{Column: "v", Ascending: true})
	if err != nil {
		t.Fatalf("Sort failed: %v", err)
	}
	if got := columnRaw(t, asc, "v"); got[2] != "" {
		t.Errorf("ascending sort = %v, missing should be last", got)
	}

	desc, err := Sort(tbl, &SortParams{Column: "v", Ascending: false})
	if err != nil {
		t.Fatalf("Sort failed: %v", err)
	}
	if got := columnRaw(t, desc, "v"); got[2] != "" {
		t.Errorf("descending sort = %v, missing should be last", got)
	}
}

func TestSort_Stable(t *testing.T) {
	tbl := mustDecode(t, "k,v\n1,a\n1,b\n0,c\n")

	out, err := Sort(tbl, &SortParams{Column: "k", Ascending: true})
	if err != nil {
		t.Fatalf("Sort failed: %v", err)
	}
	vs := columnRaw(t, out, "v")
	if vs[0] != "c" || vs[1] != "a" || vs[2] != "b" {
		t.Errorf("sorted v = %v, equal keys must keep order", vs)
	}
}

func TestAddRow_InsertsBlanks(t *testing.T) {
	tbl := mustDecode(t, peopleCSV)

	out, err := AddRow(tbl, 0)
	if err != nil {
		t.Fatalf("AddRow failed: %v", err)
	}
	if out.RowCount() != 4 {
		t.Errorf("RowCount = %d, want 4", out.RowCount())
	}
	for _, col := range out.Columns {
		if col.Cells[0] != table.BlankCell {
			t.Errorf("column %q row 0 = %+v, want blank placeholder", col.Name, col.Cells[0])
		}
	}
	// Blank placeholder is text, so the int column demotes.
	age, _ := out.Column("age")
	if age.Type != table.TypeString {
		t.Errorf("age type after AddRow = %q, want str", age.Type)
	}
}

func TestAddRow_AppendAndBounds(t *testing.T) {
	tbl := mustDecode(t, peopleCSV)

	out, err := AddRow(tbl, 3)
	if err != nil {
		t.Fatalf("AddRow at row count failed: %v", err)
	}
	if out.RowCount() != 4 {
		t.Errorf("RowCount = %d, want 4", out.RowCount())
	}

	if _, err := AddRow(tbl, 4); !errors.Is(err, errors.ErrTransformation) {
		t.Errorf("AddRow past the end should fail, got %v", err)
	}
	if _, err := AddRow(tbl, -1); !errors.Is(err, errors.ErrTransformation) {
		t.Errorf("AddRow at -1 should fail, got %v", err)
	}
}

func TestDeleteRow(t *testing.T) {
	tbl := mustDecode(t, peopleCSV)

	out, err := DeleteRow(tbl, 1)
	if err != nil {
		t.Fatalf("DeleteRow failed: %v", err)
	}
	names := columnRaw(t, out, "name")
	if len(names) != 2 || names[0] != "Alice" || names[1] != "Charlie" {
		t.Errorf("names after delete = %v", names)
	}

	if _, err := DeleteRow(tbl, 3); !errors.Is(err, errors.ErrTransformation) {
		t.Errorf("DeleteRow out of range should fail, got %v", err)
	}
}

func TestAddColumn(t *testing.T) {
	tbl := mustDecode(t, peopleCSV)

	out, err := AddColumn(tbl, 1, "country")
	if err != nil {
		t.Fatalf("AddColumn failed: %v", err)
	}
	names := out.Names()
	if names[1] != "country" {
		t.Errorf("column order = %v, want country at 1", names)
	}
	col, _ := out.Column("country")
	for i, c := range col.Cells {
		if !c.Missing {
			t.Errorf("new column cell %d = %+v, want missing", i, c)
		}
	}

	if _, err := AddColumn(tbl, 0, "name"); !errors.Is(err, errors.ErrTransformation) {
		t.Errorf("duplicate column name should fail, got %v", err)
	}
	if _, err := AddColumn(tbl, 0, "  "); !errors.Is(err, errors.ErrTransformation) {
		t.Errorf("blank column name should fail, got %v", err)
	}
}

func TestDeleteColumn(t *testing.T) {
	tbl := mustDecode(t, peopleCSV)

	out, err := DeleteColumn(tbl, 2)
	if err != nil {
		t.Fatalf("DeleteColumn failed: %v", err)
	}
	if out.ColCount() != 2 || out.ColumnIndex("city") >= 0 {
		t.Errorf("columns after delete = %v", out.Names())
	}
}

func TestRenameColumn(t *testing.T) {
	tbl := mustDecode(t, peopleCSV)

	out, err := RenameColumn(tbl, 1, "years")
	if err != nil {
		t.Fatalf("RenameColumn failed: %v", err)
	}
	if out.Names()[1] != "years" {
		t.Errorf("columns = %v, want years at 1", out.Names())
	}

	if _, err := RenameColumn(tbl, 1, "name"); !errors.Is(err, errors.ErrTransformation) {
		t.Errorf("rename onto an existing name should fail, got %v", err)
	}
	// Renaming a column to its own name is a no-op, not a collision.
	if _, err := RenameColumn(tbl, 1, "age"); err != nil {
		t.Errorf("self-rename failed: %v", err)
	}
}

func TestChangeCellValue_OneBasedColumnOffset(t *testing.T) {
	tbl := mustDecode(t, peopleCSV)

	// ColIndex 1 addresses position 0: the name column.
	out, err := ChangeCellValue(tbl, &CellEditParams{RowIndex: 0, ColIndex: 1, Value: "Dana"})
	if err != nil {
		t.Fatalf("ChangeCellValue failed: %v", err)
	}
	if got := columnRaw(t, out, "name")[0]; got != "Dana" {
		t.Errorf("name[0] = %q, want Dana", got)
	}

	// ColIndex equal to the column count still addresses the last column.
	out, err = ChangeCellValue(tbl, &CellEditParams{RowIndex: 2, ColIndex: 3, Value: "Boston"})
	if err != nil {
		t.Fatalf("ChangeCellValue failed: %v", err)
	}
	if got := columnRaw(t, out, "city")[2]; got != "Boston" {
		t.Errorf("city[2] = %q, want Boston", got)
	}
}

func TestChangeCellValue_Bounds(t *testing.T) {
	tbl := mustDecode(t, peopleCSV)

	if _, err := ChangeCellValue(tbl, &CellEditParams{RowIndex: 0, ColIndex: 0, Value: "x"}); !errors.Is(err, errors.ErrTransformation) {
		t.Errorf("ColIndex 0 should be out of bounds, got %v", err)
	}
	if _, err := ChangeCellValue(tbl, &CellEditParams{RowIndex: 0, ColIndex: 4, Value: "x"}); !errors.Is(err, errors.ErrTransformation) {
		t.Errorf("ColIndex past the width should fail, got %v", err)
	}
	if _, err := ChangeCellValue(tbl, &CellEditParams{RowIndex: 3, ColIndex: 1, Value: "x"}); !errors.Is(err, errors.ErrTransformation) {
		t.Errorf("RowIndex past the end should fail, got %v", err)
	}
}

func TestChangeCellValue_TypeCoercion(t *testing.T) {
	tbl := mustDecode(t, peopleCSV)

	if _, err := ChangeCellValue(tbl, &CellEditParams{RowIndex: 0, ColIndex: 2, Value: "abc"}); !errors.Is(err, errors.ErrTransformation) {
		t.Errorf("non-numeric value into an int column should fail, got %v", err)
	}

	out, err := ChangeCellValue(tbl, &CellEditParams{RowIndex: 0, ColIndex: 2, Value: "31"})
	if err != nil {
		t.Fatalf("ChangeCellValue failed: %v", err)
	}
	if got := columnRaw(t, out, "age")[0]; got != "31" {
		t.Errorf("age[0] = %q, want 31", got)
	}
}

func TestChangeCellValue_EmptyMeansMissing(t *testing.T) {
	tbl := mustDecode(t, peopleCSV)

	out, err := ChangeCellValue(tbl, &CellEditParams{RowIndex: 1, ColIndex: 2, Value: ""})
	if err != nil {
		t.Fatalf("ChangeCellValue failed: %v", err)
	}
	col, _ := out.Column("age")
	if !col.Cells[1].Missing {
		t.Error("empty value should clear the cell to missing")
	}
	// Remaining present values are still integers.
	if col.Type != table.TypeInt {
		t.Errorf("age type = %q, want int", col.Type)
	}
}

func TestFillEmpty_SingleColumn(t *testing.T) {
	tbl := mustDecode(t, "a,b\n1,\n,\n")

	idx := 0
	out, err := FillEmpty(tbl, &FillEmptyParams{Index: &idx, Value: "0"})
	if err != nil {
		t.Fatalf("FillEmpty failed: %v", err)
	}
	if got := columnRaw(t, out, "a"); got[1] != "0" {
		t.Errorf("a = %v, want filled", got)
	}
	col, _ := out.Column("b")
	if !col.Cells[0].Missing {
		t.Error("column b should be untouched")
	}
}

func TestFillEmpty_AllColumns(t *testing.T) {
	tbl := mustDecode(t, "a,b\n1,\n,2\n")

	out, err := FillEmpty(tbl, &FillEmptyParams{Value: "x"})
	if err != nil {
		t.Fatalf("FillEmpty failed: %v", err)
	}
	for _, name := range out.Names() {
		for i, raw := range columnRaw(t, out, name) {
			if raw == "" {
				t.Errorf("column %q row %d still missing", name, i)
			}
		}
	}
}

func TestFillEmpty_IndexOutOfRange(t *testing.T) {
	tbl := mustDecode(t, "a\n1\n")
	idx := 5
	if _, err := FillEmpty(tbl, &FillEmptyParams{Index: &idx, Value: "x"}); !errors.Is(err, errors.ErrTransformation) {
		t.Errorf("expected TRANSFORMATION_FAILED, got %v", err)
	}
}

func TestTrimWhitespace(t *testing.T) {
	tbl := mustDecode(t, "v\n  42 \n 7\n")

	out, err := TrimWhitespace(tbl, "v")
	if err != nil {
		t.Fatalf("TrimWhitespace failed: %v", err)
	}
	got := columnRaw(t, out, "v")
	if got[0] != "42" || got[1] != "7" {
		t.Errorf("trimmed = %v", got)
	}
}

func TestCastDataType_Integer(t *testing.T) {
	tbl := mustDecode(t, "v\n1\n2.7\nabc\n")

	out, err := CastDataType(tbl, "v", "integer")
	if err != nil {
		t.Fatalf("CastDataType failed: %v", err)
	}
	col, _ := out.Column("v")
	if col.Type != table.TypeInt {
		t.Errorf("type = %q, want int", col.Type)
	}
	got := columnRaw(t, out, "v")
	if got[0] != "1" || got[1] != "2" {
		t.Errorf("cast values = %v, want [1 2 ...]", got)
	}
	if !col.Cells[2].Missing {
		t.Error("unparseable value should become missing")
	}
}

func TestCastDataType_Boolean(t *testing.T) {
	tbl := mustDecode(t, "v\nyes\nOFF\nmaybe\n")

	out, err := CastDataType(tbl, "v", "boolean")
	if err != nil {
		t.Fatalf("CastDataType failed: %v", err)
	}
	got := columnRaw(t, out, "v")
	if got[0] != "true" || got[1] != "false" || got[2] != "" {
		t.Errorf("cast values = %v, want [true false '']", got)
	}
}

func TestCastDataType_Datetime(t *testing.T) {
	tbl := mustDecode(t, "v\n2024-01-15\nnot a date\n")

	out, err := CastDataType(tbl, "v", "datetime")
	if err != nil {
		t.Fatalf("CastDataType failed: %v", err)
	}
	got := columnRaw(t, out, "v")
	if got[0] != "2024-01-15 00:00:00" {
		t.Errorf("cast value = %q, want canonical datetime form", got[0])
	}
	if got[1] != "" {
		t.Errorf("unparseable date = %q, want missing", got[1])
	}
}

func TestCastDataType_UnknownTarget(t *testing.T) {
	tbl := mustDecode(t, "v\n1\n")
	if _, err := CastDataType(tbl, "v", "complex"); !errors.Is(err, errors.ErrTransformation) {
		t.Errorf("expected TRANSFORMATION_FAILED, got %v", err)
	}
}

func TestDropDuplicates_KeepVariants(t *testing.T) {
	tbl := mustDecode(t, "k,v\na,1\nb,2\na,3\n")

	first, err := DropDuplicates(tbl, "k", "first")
	if err != nil {
		t.Fatalf("DropDuplicates failed: %v", err)
	}
	if got := columnRaw(t, first, "v"); len(got) != 2 || got[0] != "1" || got[1] != "2" {
		t.Errorf("keep=first v = %v, want [1 2]", got)
	}

	last, err := DropDuplicates(tbl, "k", "last")
	if err != nil {
		t.Fatalf("DropDuplicates failed: %v", err)
	}
	if got := columnRaw(t, last, "v"); len(got) != 2 || got[0] != "2" || got[1] != "3" {
		t.Errorf("keep=last v = %v, want [2 3]", got)
	}

	none, err := DropDuplicates(tbl, "k", "none")
	if err != nil {
		t.Fatalf("DropDuplicates failed: %v", err)
	}
	if got := columnRaw(t, none, "v"); len(got) != 1 || got[0] != "2" {
		t.Errorf("keep=none v = %v, want [2]", got)
	}
}

func TestDropDuplicates_InvalidKeep(t *testing.T) {
	tbl := mustDecode(t, "k\na\n")
	if _, err := DropDuplicates(tbl, "k", "middle"); !errors.Is(err, errors.ErrTransformation) {
		t.Errorf("expected TRANSFORMATION_FAILED, got %v", err)
	}
}

func TestApply_NilParams(t *testing.T) {
	tbl := mustDecode(t, peopleCSV)

	_, err := Apply(tbl, &Operation{Kind: KindFilter})
	if !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("expected INVALID_REQUEST for missing params, got %v", err)
	}
	_, err = Apply(tbl, &Operation{Kind: Kind("explode")})
	if !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("expected INVALID_REQUEST for unknown kind, got %v", err)
	}
}

func TestOperation_JSONRoundTrip(t *testing.T) {
	op := &Operation{
		Kind:     KindChangeCellValue,
		CellEdit: &CellEditParams{RowIndex: 2, ColIndex: 1, Value: "hello"},
	}
	data, err := op.Marshal()
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	restored, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if restored.Kind != KindChangeCellValue || restored.CellEdit == nil {
		t.Fatalf("restored = %+v", restored)
	}
	if *restored.CellEdit != *op.CellEdit {
		t.Errorf("params = %+v, want %+v", *restored.CellEdit, *op.CellEdit)
	}
}

func TestUnmarshal_UnknownKind(t *testing.T) {
	_, err := Unmarshal([]byte(`{"operation_type":"detonate"}`))
	if !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("expected INVALID_REQUEST, got %v", err)
	}
}
