package pgwire

import (
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/tolledo/database/pkg/sqltype"
)

// PostgreSqlValueKind tags the closed set of decoded wire values.
type PostgreSqlValueKind uint8

const (
	ValueNull PostgreSqlValueKind = iota
	ValueBool
	ValueInt16
	ValueInt32
	ValueInt64
	ValueFloat32
	ValueFloat64
	ValueString
)

// PostgreSqlValue is a decoded bind parameter: NULL, bool, an integer of
// 16/32/64 bits, a floating value of 32/64 bits, or text.
type PostgreSqlValue struct {
	Kind PostgreSqlValueKind
	B    bool
	I    int64
	F    float64
	S    string
}

// PgType projects a SqlType onto the wire type system and decodes raw
// parameter bytes for a given (type, format) pair, delegating the actual
// text/binary codec to pgx's own OID-keyed implementation rather than
// hand-rolling one.
type PgType struct {
	OID uint32
}

var (
	pgTypeBool    = PgType{OID: pgtype.BoolOID}
	pgTypeInt2    = PgType{OID: pgtype.Int2OID}
	pgTypeInt4    = PgType{OID: pgtype.Int4OID}
	pgTypeInt8    = PgType{OID: pgtype.Int8OID}
	pgTypeText    = PgType{OID: pgtype.TextOID}
	pgTypeVarchar = PgType{OID: pgtype.VarcharOID}
)

// ProjectPgType maps a SqlType to its wire OID. Real and DoublePrecision
// are rejected by the analyzer when a column of that type is declared (see
// internal/analyzer), so no analyzed table carries them; ProjectPgType still
// returns an error rather than panicking if it is called on one.
func ProjectPgType(t sqltype.SqlType) (PgType, error) {
	switch t.TypeID() {
	case sqltype.Bool.TypeID():
		return pgTypeBool, nil
	case sqltype.SmallInt.TypeID():
		return pgTypeInt2, nil
	case sqltype.Integer.TypeID():
		return pgTypeInt4, nil
	case sqltype.BigInt.TypeID():
		return pgTypeInt8, nil
	case sqltype.VarChar(0).TypeID():
		return pgTypeVarchar, nil
	case sqltype.Char(0).TypeID():
		return pgTypeText, nil
	default:
		return PgType{}, fmt.Errorf("pgwire: %s has no wire projection", t)
	}
}

// Decode interprets raw bytes as this PgType under the given format,
// using pgx's own codecs so the byte-level rules (binary int width,
// text numeral grammar) match a real PostgreSQL wire implementation.
func (pt PgType) Decode(format PostgreSqlFormat, raw []byte) (PostgreSqlValue, error) {
	if raw == nil {
		return PostgreSqlValue{Kind: ValueNull}, nil
	}

	m := pgtype.NewMap()
	wireFormat := int16(pgtype.TextFormatCode)
	if format == FormatBinary {
		wireFormat = pgtype.BinaryFormatCode
	}

	switch pt.OID {
	case pgtype.BoolOID:
		var v bool
		if err := m.Scan(pgtype.BoolOID, wireFormat, raw, &v); err != nil {
			return PostgreSqlValue{}, err
		}
		return PostgreSqlValue{Kind: ValueBool, B: v}, nil
	case pgtype.Int2OID:
		var v int16
		if err := m.Scan(pgtype.Int2OID, wireFormat, raw, &v); err != nil {
			return PostgreSqlValue{}, err
		}
		return PostgreSqlValue{Kind: ValueInt16, I: int64(v)}, nil
	case pgtype.Int4OID:
		var v int32
		if err := m.Scan(pgtype.Int4OID, wireFormat, raw, &v); err != nil {
			return PostgreSqlValue{}, err
		}
		return PostgreSqlValue{Kind: ValueInt32, I: int64(v)}, nil
	case pgtype.Int8OID:
		var v int64
		if err := m.Scan(pgtype.Int8OID, wireFormat, raw, &v); err != nil {
			return PostgreSqlValue{}, err
		}
		return PostgreSqlValue{Kind: ValueInt64, I: v}, nil
	case pgtype.TextOID, pgtype.VarcharOID:
		var v string
		if err := m.Scan(pt.OID, wireFormat, raw, &v); err != nil {
			return PostgreSqlValue{}, err
		}
		return PostgreSqlValue{Kind: ValueString, S: v}, nil
	default:
		return PostgreSqlValue{}, fmt.Errorf("pgwire: no decoder for oid %d", pt.OID)
	}
}

// ToDatum converts a decoded wire value into the internal Datum
// representation, widening to the column's declared SqlType.
func (v PostgreSqlValue) ToDatum(target sqltype.SqlType) sqltype.Datum {
	switch v.Kind {
	case ValueNull:
		return sqltype.Null()
	case ValueBool:
		return sqltype.FromBool(v.B)
	case ValueInt16:
		return sqltype.FromInt16(int16(v.I))
	case ValueInt32:
		return sqltype.FromInt32(int32(v.I))
	case ValueInt64:
		return sqltype.FromInt64(v.I)
	case ValueFloat32, ValueFloat64:
		return sqltype.FromFloat64(v.F)
	case ValueString:
		return sqltype.FromString(v.S)
	default:
		return sqltype.Null()
	}
}

// FromDatum converts a stored Datum into its wire representation for a
// row sent back to the client, the inverse direction of ToDatum.
func FromDatum(d sqltype.Datum) PostgreSqlValue {
	switch d.Kind() {
	case sqltype.DatumNull:
		return PostgreSqlValue{Kind: ValueNull}
	case sqltype.DatumBool:
		b, _ := d.Bool()
		return PostgreSqlValue{Kind: ValueBool, B: b}
	case sqltype.DatumInt16:
		i, _ := d.Int()
		return PostgreSqlValue{Kind: ValueInt16, I: i}
	case sqltype.DatumInt32:
		i, _ := d.Int()
		return PostgreSqlValue{Kind: ValueInt32, I: i}
	case sqltype.DatumInt64:
		i, _ := d.Int()
		return PostgreSqlValue{Kind: ValueInt64, I: i}
	case sqltype.DatumNumber:
		n, _ := d.Number()
		f, _ := n.Float64()
		return PostgreSqlValue{Kind: ValueFloat64, F: f}
	case sqltype.DatumString:
		s, _ := d.String()
		return PostgreSqlValue{Kind: ValueString, S: s}
	default:
		return PostgreSqlValue{Kind: ValueNull}
	}
}
