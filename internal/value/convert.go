package value

import (
	"fmt"
	"math"
	"reflect"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kadirbelkuyu/unisql/internal/dberr"
)

// From converts any Go scalar into a Value. It never fails: nil and nil
// pointers become Nil and types without a dedicated kind become Text.
func From(x any) Value {
	// A nil pointer must not reach the fmt.Stringer case.
	if rv := reflect.ValueOf(x); rv.Kind() == reflect.Pointer && rv.IsNil() {
		return Nil()
	}

	switch t := x.(type) {
	case nil:
		return Nil()
	case Value:
		return t
	case bool:
		return Bool(t)
	case int8:
		return Tinyint(t)
	case int16:
		return Smallint(t)
	case int32:
		return Int(t)
	case int64:
		return Bigint(t)
	case int:
		return Bigint(int64(t))
	case uint8:
		return Smallint(int16(t))
	case uint16:
		return Int(int32(t))
	case uint32:
		return Bigint(int64(t))
	case uint:
		return fromUint64(uint64(t))
	case uint64:
		return fromUint64(t)
	case float32:
		return Float(t)
	case float64:
		return Double(t)
	case decimal.Decimal:
		return Decimal(t)
	case []byte:
		if t == nil {
			return Nil()
		}
		return Blob(t)
	case string:
		return Text(t)
	case uuid.UUID:
		return UUID(t)
	case time.Time:
		return Timestamp(t)
	case time.Duration:
		return NewInterval(t.Microseconds(), 0, 0)
	case Interval:
		return Value{kind: KindInterval, v: t}
	case Point:
		return Value{kind: KindPoint, v: t}
	case Array:
		return NewArray(t)
	case []int32:
		return NewArray(IntArray(t))
	case []float32:
		return NewArray(FloatArray(t))
	case []string:
		return NewArray(TextArray(t))
	case fmt.Stringer:
		return Text(t.String())
	}

	rv := reflect.ValueOf(x)
	if rv.Kind() == reflect.Pointer {
		return From(rv.Elem().Interface())
	}
	return Text(fmt.Sprint(x))
}

func fromUint64(n uint64) Value {
	if n > math.MaxInt64 {
		return Decimal(decimal.NewFromUint64(n))
	}
	return Bigint(int64(n))
}

// As converts v to T when the variant is declared compatible with T.
// Integer variants widen, never narrow.
func As[T any](v Value) (T, error) {
	var out T
	if err := assign(v, &out); err != nil {
		return out, err
	}
	return out, nil
}

// AsOptional is As with Nil mapped to a nil pointer.
func AsOptional[T any](v Value) (*T, error) {
	if v.IsNil() {
		return nil, nil
	}
	out, err := As[T](v)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// AsRune accepts only a Char variant. rune and int32 share a type, so As
// cannot tell them apart.
func AsRune(v Value) (rune, error) {
	if v.kind == KindChar {
		return v.v.(rune), nil
	}
	return 0, dberr.NotSupported(v.GoString(), "rune")
}

func assign(v Value, dst any) error {
	ok := true
	switch p := dst.(type) {
	case *bool:
		*p, ok = v.v.(bool)
	case *int8:
		*p, ok = v.v.(int8)
	case *int16:
		switch v.kind {
		case KindTinyint:
			*p = int16(v.v.(int8))
		case KindSmallint:
			*p = v.v.(int16)
		default:
			ok = false
		}
	case *int32:
		switch v.kind {
		case KindTinyint:
			*p = int32(v.v.(int8))
		case KindSmallint:
			*p = int32(v.v.(int16))
		case KindInt:
			*p = v.v.(int32)
		default:
			ok = false
		}
	case *int64:
		*p, ok = v.widenInt()
	case *int:
		var n int64
		n, ok = v.widenInt()
		*p = int(n)
	case *float32:
		*p, ok = v.v.(float32)
	case *float64:
		switch v.kind {
		case KindFloat:
			*p = float64(v.v.(float32))
		case KindDouble:
			*p = v.v.(float64)
		default:
			ok = false
		}
	case *decimal.Decimal:
		*p, ok = v.v.(decimal.Decimal)
	case *string:
		switch v.kind {
		case KindText, KindJSON, KindImageURI:
			*p = v.v.(string)
		case KindChar:
			*p = string(v.v.(rune))
		default:
			ok = false
		}
	case *[]byte:
		*p, ok = v.v.([]byte)
	case *uuid.UUID:
		switch v.kind {
		case KindUUID:
			*p = v.v.(uuid.UUID)
		case KindText:
			u, err := uuid.Parse(v.v.(string))
			if err != nil {
				return &dberr.ConvertError{Source: v.GoString(), Target: "uuid.UUID", Err: err}
			}
			*p = u
		default:
			ok = false
		}
	case *time.Time:
		switch v.kind {
		case KindDate, KindTime, KindDateTime, KindTimestamp:
			*p = v.v.(time.Time)
		default:
			ok = false
		}
	case *Interval:
		*p, ok = v.v.(Interval)
	case *Point:
		*p, ok = v.v.(Point)
	case *Array:
		*p, ok = v.v.(Array)
	case *[]int32:
		ok = v.kind == KindArray && v.v.(Array).kind == ArrayInt
		if ok {
			*p = v.v.(Array).ints
		}
	case *[]float32:
		ok = v.kind == KindArray && v.v.(Array).kind == ArrayFloat
		if ok {
			*p = v.v.(Array).floats
		}
	case *[]string:
		ok = v.kind == KindArray && v.v.(Array).kind == ArrayText
		if ok {
			*p = v.v.(Array).texts
		}
	case *Value:
		*p = v
	default:
		ok = false
	}
	if !ok {
		return dberr.NotSupported(v.GoString(), targetName(dst))
	}
	return nil
}

func (v Value) widenInt() (int64, bool) {
	switch v.kind {
	case KindTinyint:
		return int64(v.v.(int8)), true
	case KindSmallint:
		return int64(v.v.(int16)), true
	case KindInt:
		return int64(v.v.(int32)), true
	case KindBigint:
		return v.v.(int64), true
	}
	return 0, false
}

func targetName(dst any) string {
	return reflect.TypeOf(dst).Elem().String()
}

// SingleRune reports the only rune of s, if s holds exactly one.
func SingleRune(s string) (rune, bool) {
	if utf8.RuneCountInString(s) != 1 {
		return 0, false
	}
	r, _ := utf8.DecodeRuneInString(s)
	return r, true
}
