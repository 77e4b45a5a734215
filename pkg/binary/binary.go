// Package binary packs and unpacks ordered tuples of sqltype.Datum values
// into the opaque, length-prefixed byte sequences used as storage keys and
// values. Packed bytes of a leading monotonic uint64 record-id sort in the
// same order as the id itself, which is what makes a table's key space
// iterate in insertion order without a separate index.
package binary

import (
	"encoding/binary"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/tolledo/database/pkg/sqltype"
)

// Binary is an opaque packed tuple: a storage key or value.
type Binary []byte

const (
	tagNull byte = iota
	tagBool
	tagInt16
	tagInt32
	tagInt64
	tagNumber
	tagString
)

// Pack serializes an ordered slice of Datums into a single Binary. Each
// field is framed as [tag byte][4-byte big-endian length][payload]; fixed
// width integers fold their value into the length-prefixed payload too so
// every field has a uniform frame shape.
func Pack(values []sqltype.Datum) Binary {
	out := make([]byte, 0, 16*len(values))
	for _, v := range values {
		out = appendField(out, v)
	}
	return out
}

// PackRecordID packs a single uint64 as the canonical monotonic record key:
// fixed-width big-endian so lexicographic byte order equals numeric order.
func PackRecordID(id uint64) Binary {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, id)
	return buf
}

func appendField(out []byte, v sqltype.Datum) []byte {
	switch v.Kind() {
	case sqltype.DatumNull:
		return appendFrame(out, tagNull, nil)
	case sqltype.DatumBool:
		b, _ := v.Bool()
		if b {
			return appendFrame(out, tagBool, []byte{1})
		}
		return appendFrame(out, tagBool, []byte{0})
	case sqltype.DatumInt16:
		i, _ := v.Int()
		buf := make([]byte, 2)
		binary.BigEndian.PutUint16(buf, uint16(int16(i)))
		return appendFrame(out, tagInt16, buf)
	case sqltype.DatumInt32:
		i, _ := v.Int()
		buf := make([]byte, 4)
		binary.BigEndian.PutUint32(buf, uint32(int32(i)))
		return appendFrame(out, tagInt32, buf)
	case sqltype.DatumInt64:
		i, _ := v.Int()
		buf := make([]byte, 8)
		binary.BigEndian.PutUint64(buf, uint64(i))
		return appendFrame(out, tagInt64, buf)
	case sqltype.DatumNumber:
		n, _ := v.Number()
		return appendFrame(out, tagNumber, []byte(n.String()))
	case sqltype.DatumString:
		s, _ := v.String()
		return appendFrame(out, tagString, []byte(s))
	default:
		return appendFrame(out, tagNull, nil)
	}
}

func appendFrame(out []byte, tag byte, payload []byte) []byte {
	out = append(out, tag)
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(payload)))
	out = append(out, lenBuf[:]...)
	return append(out, payload...)
}

// Unpack is the inverse of Pack: it decodes frames back into Datums until
// the input is exhausted, so the field count comes from the bytes alone.
func Unpack(b Binary) ([]sqltype.Datum, error) {
	var out []sqltype.Datum
	buf := []byte(b)
	for len(buf) > 0 {
		if len(buf) < 5 {
			return nil, fmt.Errorf("binary: truncated frame header")
		}
		tag := buf[0]
		length := binary.BigEndian.Uint32(buf[1:5])
		buf = buf[5:]
		if uint32(len(buf)) < length {
			return nil, fmt.Errorf("binary: truncated frame payload")
		}
		payload := buf[:length]
		buf = buf[length:]

		d, err := decodeField(tag, payload)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

func decodeField(tag byte, payload []byte) (sqltype.Datum, error) {
	switch tag {
	case tagNull:
		return sqltype.Null(), nil
	case tagBool:
		if len(payload) != 1 {
			return sqltype.Datum{}, fmt.Errorf("binary: bad bool payload length %d", len(payload))
		}
		return sqltype.FromBool(payload[0] != 0), nil
	case tagInt16:
		if len(payload) != 2 {
			return sqltype.Datum{}, fmt.Errorf("binary: bad int16 payload length %d", len(payload))
		}
		return sqltype.FromInt16(int16(binary.BigEndian.Uint16(payload))), nil
	case tagInt32:
		if len(payload) != 4 {
			return sqltype.Datum{}, fmt.Errorf("binary: bad int32 payload length %d", len(payload))
		}
		return sqltype.FromInt32(int32(binary.BigEndian.Uint32(payload))), nil
	case tagInt64:
		if len(payload) != 8 {
			return sqltype.Datum{}, fmt.Errorf("binary: bad int64 payload length %d", len(payload))
		}
		return sqltype.FromInt64(int64(binary.BigEndian.Uint64(payload))), nil
	case tagNumber:
		n, err := decimal.NewFromString(string(payload))
		if err != nil {
			return sqltype.Datum{}, fmt.Errorf("binary: bad number payload: %w", err)
		}
		return sqltype.FromNumber(n), nil
	case tagString:
		return sqltype.FromString(string(payload)), nil
	default:
		return sqltype.Datum{}, fmt.Errorf("binary: unknown field tag %d", tag)
	}
}
