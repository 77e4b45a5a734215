package sqltype

import "testing"

func TestTypeIDRoundTrip(t *testing.T) {
	cases := []SqlType{
		Bool, SmallInt, Integer, BigInt, Real, DoublePrecision,
		Char(10), VarChar(40), Char(0), VarChar(0),
	}
	for _, want := range cases {
		chars, _ := want.CharsLen()
		got, err := FromTypeID(want.TypeID(), chars)
		if err != nil {
			t.Fatalf("FromTypeID(%v): %v", want, err)
		}
		if !got.Equal(want) {
			t.Errorf("FromTypeID(%d, %d) = %v, want %v", want.TypeID(), chars, got, want)
		}
	}
}

func TestFromTypeIDUnknown(t *testing.T) {
	if _, err := FromTypeID(255, 0); err == nil {
		t.Fatal("expected error for unknown type id")
	}
}

func TestCharDefaultLength(t *testing.T) {
	if chars, _ := Char(0).CharsLen(); chars != defaultCharsLen {
		t.Errorf("Char(0) length = %d, want %d", chars, defaultCharsLen)
	}
	if chars, _ := VarChar(0).CharsLen(); chars != defaultCharsLen {
		t.Errorf("VarChar(0) length = %d, want %d", chars, defaultCharsLen)
	}
}

func TestString(t *testing.T) {
	cases := map[SqlType]string{
		Bool:            "bool",
		SmallInt:        "smallint",
		Integer:         "integer",
		BigInt:          "bigint",
		Real:            "real",
		DoublePrecision: "double precision",
		Char(5):         "char(5)",
		VarChar(10):     "varchar(10)",
	}
	for typ, want := range cases {
		if got := typ.String(); got != want {
			t.Errorf("%#v.String() = %q, want %q", typ, got, want)
		}
	}
}

func TestGeneral(t *testing.T) {
	if Bool.General() != GeneralBool {
		t.Errorf("Bool.General() = %v, want Bool", Bool.General())
	}
	if Integer.General() != GeneralNumber {
		t.Errorf("Integer.General() = %v, want Number", Integer.General())
	}
	if VarChar(5).General() != GeneralString {
		t.Errorf("VarChar.General() = %v, want String", VarChar(5).General())
	}
}

func TestIsInteger(t *testing.T) {
	for _, typ := range []SqlType{SmallInt, Integer, BigInt} {
		if !typ.IsInteger() {
			t.Errorf("%v.IsInteger() = false, want true", typ)
		}
	}
	for _, typ := range []SqlType{Bool, Real, DoublePrecision, VarChar(1)} {
		if typ.IsInteger() {
			t.Errorf("%v.IsInteger() = true, want false", typ)
		}
	}
}

func TestLessTotalOrder(t *testing.T) {
	if !Bool.Less(SmallInt) {
		t.Error("Bool should sort before SmallInt")
	}
	if !Char(5).Less(Char(10)) {
		t.Error("Char(5) should sort before Char(10)")
	}
	if Char(10).Less(Char(5)) {
		t.Error("Char(10) should not sort before Char(5)")
	}
}

func TestFromParsedDataType(t *testing.T) {
	cases := []struct {
		raw    string
		length uint64
		want   SqlType
	}{
		{"bool", 0, Bool},
		{"int2", 0, SmallInt},
		{"int4", 0, Integer},
		{"int8", 0, BigInt},
		{"bpchar", 8, Char(8)},
		{"varchar", 16, VarChar(16)},
		{"float4", 0, Real},
		{"float8", 0, DoublePrecision},
	}
	for _, c := range cases {
		got, ok := FromParsedDataType(c.raw, c.length)
		if !ok {
			t.Errorf("FromParsedDataType(%q): ok = false", c.raw)
			continue
		}
		if !got.Equal(c.want) {
			t.Errorf("FromParsedDataType(%q) = %v, want %v", c.raw, got, c.want)
		}
	}
	if _, ok := FromParsedDataType("jsonb", 0); ok {
		t.Error("FromParsedDataType(jsonb) should not be ok")
	}
}
