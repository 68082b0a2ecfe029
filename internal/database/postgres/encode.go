package postgres

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/kadirbelkuyu/unisql/internal/dberr"
	"github.com/kadirbelkuyu/unisql/internal/value"
)

// Encode converts v into a parameter pgx can bind. Every variant has a
// PostgreSQL representation.
func (c *Codec) Encode(v value.Value) (any, error) {
	switch v.Kind() {
	case value.KindNil:
		return nil, nil
	case value.KindTinyint:
		n, _ := value.As[int16](v)
		return n, nil
	case value.KindDecimal:
		d, _ := value.As[decimal.Decimal](v)
		return pgtype.Numeric{Int: d.Coefficient(), Exp: d.Exponent(), Valid: true}, nil
	case value.KindImageURI:
		uri, _ := value.As[string](v)
		b, err := value.DecodeImageURI(uri)
		if err != nil {
			return nil, &dberr.ConvertError{Source: "ImageUri", Target: "bytea", Err: err}
		}
		return b, nil
	case value.KindChar:
		s, _ := value.As[string](v)
		return s, nil
	case value.KindUUID:
		u, _ := value.As[uuid.UUID](v)
		return pgtype.UUID{Bytes: u, Valid: true}, nil
	case value.KindDate:
		t, _ := value.As[time.Time](v)
		return pgtype.Date{Time: t, Valid: true}, nil
	case value.KindTime:
		t, _ := value.As[time.Time](v)
		midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
		return pgtype.Time{Microseconds: t.Sub(midnight).Microseconds(), Valid: true}, nil
	case value.KindDateTime:
		t, _ := value.As[time.Time](v)
		return pgtype.Timestamp{Time: t, Valid: true}, nil
	case value.KindTimestamp:
		t, _ := value.As[time.Time](v)
		return pgtype.Timestamptz{Time: t, Valid: true}, nil
	case value.KindInterval:
		iv, _ := value.As[value.Interval](v)
		return pgtype.Interval{Microseconds: iv.Microseconds, Days: iv.Days, Months: iv.Months, Valid: true}, nil
	case value.KindPoint:
		p, _ := value.As[value.Point](v)
		return pgtype.Point{P: pgtype.Vec2{X: p.X, Y: p.Y}, Valid: true}, nil
	case value.KindArray:
		arr, _ := value.As[value.Array](v)
		switch arr.Kind() {
		case value.ArrayInt:
			return arr.Ints(), nil
		case value.ArrayFloat:
			return arr.Floats(), nil
		default:
			return arr.Texts(), nil
		}
	}
	// Bool, integers, floats, Blob, Text and Json carry their pgx-native Go
	// type already.
	return v.Raw(), nil
}

// OIDFor is the wire type a value encodes to by default.
func OIDFor(v value.Value) uint32 {
	switch v.Kind() {
	case value.KindBool:
		return pgtype.BoolOID
	case value.KindTinyint, value.KindSmallint:
		return pgtype.Int2OID
	case value.KindInt:
		return pgtype.Int4OID
	case value.KindBigint:
		return pgtype.Int8OID
	case value.KindFloat:
		return pgtype.Float4OID
	case value.KindDouble:
		return pgtype.Float8OID
	case value.KindDecimal:
		return pgtype.NumericOID
	case value.KindBlob, value.KindImageURI:
		return pgtype.ByteaOID
	case value.KindChar:
		return pgtype.BPCharOID
	case value.KindJSON:
		return pgtype.JSONBOID
	case value.KindUUID:
		return pgtype.UUIDOID
	case value.KindDate:
		return pgtype.DateOID
	case value.KindTime:
		return pgtype.TimeOID
	case value.KindDateTime:
		return pgtype.TimestampOID
	case value.KindTimestamp:
		return pgtype.TimestamptzOID
	case value.KindInterval:
		return pgtype.IntervalOID
	case value.KindPoint:
		return pgtype.PointOID
	case value.KindArray:
		arr, _ := value.As[value.Array](v)
		switch arr.Kind() {
		case value.ArrayInt:
			return pgtype.Int4ArrayOID
		case value.ArrayFloat:
			return pgtype.Float4ArrayOID
		}
		return pgtype.TextArrayOID
	}
	return pgtype.TextOID
}
