package table

import "testing"

func cells(raws ...string) []Cell {
	out := make([]Cell, len(raws))
	for i, r := range raws {
		if r == "" {
			out[i] = MissingCell
		} else {
			out[i] = Cell{Raw: r}
		}
	}
	return out
}

func TestInferType_IntBeforeFloat(t *testing.T) {
	if got := InferType(cells("1", "2", "3")); got != TypeInt {
		t.Errorf("InferType = %q, want int", got)
	}
	if got := InferType(cells("1", "2.5")); got != TypeFloat {
		t.Errorf("InferType = %q, want float", got)
	}
}

func TestInferType_BoolBeatsString(t *testing.T) {
	if got := InferType(cells("true", "False", "TRUE")); got != TypeBool {
		t.Errorf("InferType = %q, want bool", got)
	}
	if got := InferType(cells("true", "maybe")); got != TypeString {
		t.Errorf("InferType = %q, want str", got)
	}
}

func TestInferType_Datetime(t *testing.T) {
	if got := InferType(cells("2024-01-15", "2024/02/20")); got != TypeDatetime {
		t.Errorf("InferType = %q, want datetime", got)
	}
}

func TestInferType_AllMissing(t *testing.T) {
	if got := InferType(cells("", "")); got != TypeString {
		t.Errorf("InferType = %q, want str for an all-missing column", got)
	}
}

func TestParseInt_RejectsFloatForm(t *testing.T) {
	if _, ok := ParseInt("1.0"); ok {
		t.Error("ParseInt accepted 1.0")
	}
	if v, ok := ParseInt(" 42 "); !ok || v != 42 {
		t.Errorf("ParseInt(\" 42 \") = %d, %v", v, ok)
	}
}

func TestParseBool_TokenSets(t *testing.T) {
	for _, tok := range []string{"true", "1", "yes", "Y", "ON"} {
		if v, ok := ParseBool(tok); !ok || !v {
			t.Errorf("ParseBool(%q) = %v, %v, want true", tok, v, ok)
		}
	}
	for _, tok := range []string{"false", "0", "no", "N", "off"} {
		if v, ok := ParseBool(tok); !ok || v {
			t.Errorf("ParseBool(%q) = %v, %v, want false", tok, v, ok)
		}
	}
	if _, ok := ParseBool("maybe"); ok {
		t.Error("ParseBool accepted an unknown token")
	}
}

func TestFormatFloat_ShortestForm(t *testing.T) {
	if got := FormatFloat(250); got != "250" {
		t.Errorf("FormatFloat(250) = %q, want 250", got)
	}
	if got := FormatFloat(88.25); got != "88.25" {
		t.Errorf("FormatFloat(88.25) = %q, want 88.25", got)
	}
}
