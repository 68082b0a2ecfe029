package sqltype

import (
	"errors"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/kadirbelkuyu/unisql/internal/dberr"
	"github.com/kadirbelkuyu/unisql/internal/value"
)

var (
	errInexact    = errors.New("value is not an exact integer")
	errNotOneRune = errors.New("text is not exactly one character")
	errOutOfRange = errors.New("value out of range")
)

// CastType coerces v to the column type t. Nil and values that already match
// are returned unchanged, so casting twice equals casting once.
func CastType(v value.Value, t SqlType) (value.Value, error) {
	if SameType(v, t) {
		return v, nil
	}

	switch v.Kind() {
	case value.KindTinyint, value.KindSmallint, value.KindInt, value.KindBigint:
		n, _ := value.As[int64](v)
		switch {
		case t.IsInteger():
			return integerOf(v, n, t)
		case t.Kind == Bool:
			// MySQL stores booleans as tinyint(1).
			if n != 0 && n != 1 {
				return value.Nil(), &dberr.ConvertError{Source: v.GoString(), Target: t.String(), Err: errOutOfRange}
			}
			return value.Bool(n == 1), nil
		case t.Kind == Numeric:
			d, err := decimal.NewFromString(strconv.FormatInt(n, 10))
			if err != nil {
				return value.Nil(), &dberr.ConvertError{Source: v.GoString(), Target: t.String(), Err: err}
			}
			return value.Decimal(d), nil
		case t.Kind == Varchar || t.Kind == Text:
			return value.Text(strconv.FormatInt(n, 10)), nil
		}

	case value.KindDecimal:
		d, _ := value.As[decimal.Decimal](v)
		switch {
		case t.IsInteger():
			if !d.IsInteger() || !d.BigInt().IsInt64() {
				return value.Nil(), &dberr.ConvertError{Source: v.GoString(), Target: t.String(), Err: errInexact}
			}
			return integerOf(v, d.IntPart(), t)
		case t.Kind == Varchar || t.Kind == Text:
			return value.Text(d.String()), nil
		}

	case value.KindText:
		s, _ := value.As[string](v)
		switch {
		case t.IsTimestamp():
			ts, err := value.ParseTimestamp(s)
			if err != nil {
				return value.Nil(), err
			}
			if t.Kind == TimestampTz {
				return value.Timestamp(ts), nil
			}
			return value.DateTime(ts), nil
		case t.Kind == Char:
			r, ok := value.SingleRune(s)
			if !ok {
				return value.Nil(), &dberr.ConvertError{Source: v.GoString(), Target: t.String(), Err: errNotOneRune}
			}
			return value.Char(r), nil
		case t.IsInteger():
			n, err := strconv.ParseInt(s, 10, bitSize(t.Kind))
			if err != nil {
				return value.Nil(), &dberr.ConvertError{Source: v.GoString(), Target: t.String(), Err: err}
			}
			return integerOf(v, n, t)
		case t.Kind == Enum || t.Kind == TsVector:
			return v, nil
		}
	}

	return value.Nil(), dberr.NotSupported(v.GoString(), t.String())
}

func bitSize(k Kind) int {
	switch k {
	case Tinyint:
		return 8
	case Smallint:
		return 16
	case Int:
		return 32
	default:
		return 64
	}
}

// integerOf narrows n to the integer kind of t. Values outside the range of
// t are an error, never wrapped.
func integerOf(src value.Value, n int64, t SqlType) (value.Value, error) {
	bits := bitSize(t.Kind)
	if bits < 64 {
		limit := int64(1) << (bits - 1)
		if n < -limit || n >= limit {
			return value.Nil(), &dberr.ConvertError{Source: src.GoString(), Target: t.String(), Err: errOutOfRange}
		}
	}
	switch t.Kind {
	case Tinyint:
		return value.Tinyint(int8(n)), nil
	case Smallint:
		return value.Smallint(int16(n)), nil
	case Int:
		return value.Int(int32(n)), nil
	default:
		return value.Bigint(n), nil
	}
}
