package sqltype

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestDatumNull(t *testing.T) {
	d := Null()
	if !d.IsNull() {
		t.Fatal("Null() should report IsNull")
	}
	if d.Kind() != DatumNull {
		t.Fatalf("Kind() = %v, want DatumNull", d.Kind())
	}
}

func TestDatumIntegerWidening(t *testing.T) {
	for _, d := range []Datum{FromInt16(7), FromInt32(7), FromInt64(7)} {
		n, ok := d.Number()
		if !ok {
			t.Fatalf("%#v.Number() not ok", d)
		}
		if !n.Equal(decimal.NewFromInt(7)) {
			t.Errorf("%#v.Number() = %v, want 7", d, n)
		}
	}
}

func TestDatumBoolString(t *testing.T) {
	b, ok := FromBool(true).Bool()
	if !ok || !b {
		t.Errorf("FromBool(true).Bool() = (%v, %v)", b, ok)
	}
	if _, ok := FromString("x").Bool(); ok {
		t.Error("String datum should not report Bool ok")
	}
	s, ok := FromString("hi").String()
	if !ok || s != "hi" {
		t.Errorf("FromString(hi).String() = (%q, %v)", s, ok)
	}
}

func TestDatumGeneral(t *testing.T) {
	if FromBool(true).General() != GeneralBool {
		t.Error("bool datum should classify as GeneralBool")
	}
	if FromString("x").General() != GeneralString {
		t.Error("string datum should classify as GeneralString")
	}
	if FromInt32(1).General() != GeneralNumber {
		t.Error("int datum should classify as GeneralNumber")
	}
	if FromFloat64(1.5).General() != GeneralNumber {
		t.Error("float datum should classify as GeneralNumber")
	}
}

func TestHasFractionalPart(t *testing.T) {
	if FromInt32(5).HasFractionalPart() {
		t.Error("integer datum should have no fractional part")
	}
	if !FromFloat64(5.2).HasFractionalPart() {
		t.Error("5.2 should have a fractional part")
	}
	if FromFloat64(5.0).HasFractionalPart() {
		t.Error("5.0 should have no fractional part")
	}
	if FromString("x").HasFractionalPart() {
		t.Error("non-numeric datum should report no fractional part")
	}
}
