// Package sqltype defines the closed enumeration of supported SQL column
// types and the typed scalar value (Datum) that flows through storage,
// the analyzer, and the expression evaluator.
package sqltype

import "fmt"

// SqlType is a closed, totally-ordered enumeration of supported column
// types. TypeID is the stable on-disk tag; order matches TypeID order.
type SqlType struct {
	kind  typeKind
	chars uint64
}

type typeKind uint8

const (
	KindBool typeKind = iota
	KindChar
	KindVarChar
	KindSmallInt
	KindInteger
	KindBigInt
	KindReal
	KindDoublePrecision
)

const defaultCharsLen = 255

var (
	Bool            = SqlType{kind: KindBool}
	SmallInt        = SqlType{kind: KindSmallInt}
	Integer         = SqlType{kind: KindInteger}
	BigInt          = SqlType{kind: KindBigInt}
	Real            = SqlType{kind: KindReal}
	DoublePrecision = SqlType{kind: KindDoublePrecision}
)

// Char constructs a fixed-length character type, defaulting length to 255
// (the parser's DataType carries no explicit length for bare CHAR).
func Char(length uint64) SqlType {
	if length == 0 {
		length = defaultCharsLen
	}
	return SqlType{kind: KindChar, chars: length}
}

// VarChar constructs a variable-length character type with the same
// default-length rule as Char.
func VarChar(length uint64) SqlType {
	if length == 0 {
		length = defaultCharsLen
	}
	return SqlType{kind: KindVarChar, chars: length}
}

// TypeID returns the stable 0..7 on-disk tag for t.
func (t SqlType) TypeID() uint8 { return uint8(t.kind) }

// CharsLen returns the character-length argument for Char/VarChar, and
// (0, false) for every other kind.
func (t SqlType) CharsLen() (uint64, bool) {
	switch t.kind {
	case KindChar, KindVarChar:
		return t.chars, true
	default:
		return 0, false
	}
}

// FromTypeID reconstructs a SqlType from its TypeID and a chars length
// (ignored for non-character kinds). FromTypeID(t.TypeID(), charsOr0)
// reproduces t for every t, per the round-trip invariant.
func FromTypeID(typeID uint8, charsLen uint64) (SqlType, error) {
	switch typeKind(typeID) {
	case KindBool:
		return Bool, nil
	case KindChar:
		return Char(charsLen), nil
	case KindVarChar:
		return VarChar(charsLen), nil
	case KindSmallInt:
		return SmallInt, nil
	case KindInteger:
		return Integer, nil
	case KindBigInt:
		return BigInt, nil
	case KindReal:
		return Real, nil
	case KindDoublePrecision:
		return DoublePrecision, nil
	default:
		return SqlType{}, fmt.Errorf("sqltype: unknown type id %d", typeID)
	}
}

// GeneralType classifies a SqlType for operator typing purposes.
type GeneralType uint8

const (
	GeneralString GeneralType = iota
	GeneralNumber
	GeneralBool
)

func (g GeneralType) String() string {
	switch g {
	case GeneralString:
		return "STRING"
	case GeneralNumber:
		return "NUMBER"
	case GeneralBool:
		return "BOOL"
	default:
		return "UNKNOWN"
	}
}

// General returns t's GeneralType classification.
func (t SqlType) General() GeneralType {
	switch t.kind {
	case KindChar, KindVarChar:
		return GeneralString
	case KindBool:
		return GeneralBool
	default:
		return GeneralNumber
	}
}

// IsInteger reports whether t is one of the fixed-width signed integer
// kinds (used by the planner's numeric literal coercion).
func (t SqlType) IsInteger() bool {
	switch t.kind {
	case KindSmallInt, KindInteger, KindBigInt:
		return true
	default:
		return false
	}
}

// String renders the canonical, lowercase SQL spelling of the type.
func (t SqlType) String() string {
	switch t.kind {
	case KindBool:
		return "bool"
	case KindChar:
		return fmt.Sprintf("char(%d)", t.chars)
	case KindVarChar:
		return fmt.Sprintf("varchar(%d)", t.chars)
	case KindSmallInt:
		return "smallint"
	case KindInteger:
		return "integer"
	case KindBigInt:
		return "bigint"
	case KindReal:
		return "real"
	case KindDoublePrecision:
		return "double precision"
	default:
		return "unknown"
	}
}

// Less provides the total order SqlType is specified to carry: by TypeID,
// then by character length for the two string kinds.
func (t SqlType) Less(other SqlType) bool {
	if t.kind != other.kind {
		return t.kind < other.kind
	}
	return t.chars < other.chars
}

// Equal reports structural equality, including the chars length for
// character kinds.
func (t SqlType) Equal(other SqlType) bool {
	return t.kind == other.kind && t.chars == other.chars
}

// FromParsedDataType maps a raw column type name as surfaced by the SQL
// parser's DataType node (pg_query's ColumnDef.TypeName.Names, lowercased,
// last component) plus an optional declared length, to a SqlType. Anything
// unrecognized returns ok=false so the analyzer can raise
// type_is_not_supported carrying the raw name.
func FromParsedDataType(rawName string, length uint64) (SqlType, bool) {
	switch rawName {
	case "bool", "boolean":
		return Bool, true
	case "int2", "smallint":
		return SmallInt, true
	case "int4", "int", "integer":
		return Integer, true
	case "int8", "bigint":
		return BigInt, true
	case "bpchar", "char", "character":
		return Char(length), true
	case "varchar", "character varying":
		return VarChar(length), true
	case "float4", "real":
		return Real, true
	case "float8", "double precision":
		return DoublePrecision, true
	default:
		return SqlType{}, false
	}
}
