package sqltype

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// DatumKind tags the variant held by a Datum.
type DatumKind uint8

const (
	DatumNull DatumKind = iota
	DatumBool
	DatumInt16
	DatumInt32
	DatumInt64
	DatumNumber
	DatumString
)

// Datum is a single typed scalar value: the row-cell representation shared
// by storage, the evaluator, and bound parameters. The zero value is NULL.
type Datum struct {
	kind   DatumKind
	b      bool
	i      int64
	num    decimal.Decimal
	s      string
}

func Null() Datum                 { return Datum{kind: DatumNull} }
func FromBool(v bool) Datum       { return Datum{kind: DatumBool, b: v} }
func FromInt16(v int16) Datum     { return Datum{kind: DatumInt16, i: int64(v)} }
func FromInt32(v int32) Datum     { return Datum{kind: DatumInt32, i: int64(v)} }
func FromInt64(v int64) Datum     { return Datum{kind: DatumInt64, i: v} }
func FromUint64(v uint64) Datum   { return Datum{kind: DatumInt64, i: int64(v)} }
func FromString(v string) Datum   { return Datum{kind: DatumString, s: v} }

// FromNumber wraps an arbitrary-precision value, the evaluator's Number
// general type.
func FromNumber(v decimal.Decimal) Datum { return Datum{kind: DatumNumber, num: v} }

// FromFloat64 constructs a Number datum from a float64 literal.
func FromFloat64(v float64) Datum {
	return Datum{kind: DatumNumber, num: decimal.NewFromFloat(v)}
}

func (d Datum) Kind() DatumKind { return d.kind }
func (d Datum) IsNull() bool    { return d.kind == DatumNull }

func (d Datum) Bool() (bool, bool) {
	if d.kind != DatumBool {
		return false, false
	}
	return d.b, true
}

// Int returns the widened int64 value for any fixed-width integer kind.
func (d Datum) Int() (int64, bool) {
	switch d.kind {
	case DatumInt16, DatumInt32, DatumInt64:
		return d.i, true
	default:
		return 0, false
	}
}

func (d Datum) String() (string, bool) {
	if d.kind != DatumString {
		return "", false
	}
	return d.s, true
}

// Number returns the arbitrary-precision value, widening fixed-width
// integer kinds to a decimal.Decimal so callers can treat Number and
// integer kinds uniformly wherever GeneralType is Number.
func (d Datum) Number() (decimal.Decimal, bool) {
	switch d.kind {
	case DatumNumber:
		return d.num, true
	case DatumInt16, DatumInt32, DatumInt64:
		return decimal.NewFromInt(d.i), true
	default:
		return decimal.Decimal{}, false
	}
}

// General classifies the datum for operator typing, mirroring SqlType's
// own classification.
func (d Datum) General() GeneralType {
	switch d.kind {
	case DatumString:
		return GeneralString
	case DatumBool:
		return GeneralBool
	default:
		return GeneralNumber
	}
}

// HasFractionalPart reports whether a Number datum carries a non-zero
// fractional component, the check the evaluator uses to reject bitwise
// operands that aren't really integers.
func (d Datum) HasFractionalPart() bool {
	n, ok := d.Number()
	if !ok {
		return false
	}
	return !n.Equal(n.Truncate(0))
}

func (d Datum) GoString() string {
	switch d.kind {
	case DatumNull:
		return "NULL"
	case DatumBool:
		return fmt.Sprintf("%v", d.b)
	case DatumInt16, DatumInt32, DatumInt64:
		return fmt.Sprintf("%d", d.i)
	case DatumNumber:
		return d.num.String()
	case DatumString:
		return d.s
	default:
		return "?"
	}
}
