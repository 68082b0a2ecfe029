// Package value defines the backend independent representation of every SQL
// scalar and array this module transports.
package value

import (
	"bytes"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Kind int

const (
	KindNil Kind = iota
	KindBool
	KindTinyint
	KindSmallint
	KindInt
	KindBigint
	KindFloat
	KindDouble
	KindDecimal
	KindBlob
	KindImageURI
	KindChar
	KindText
	KindJSON
	KindUUID
	KindDate
	KindTime
	KindDateTime
	KindTimestamp
	KindInterval
	KindPoint
	KindArray
)

var kindNames = [...]string{
	KindNil:       "Nil",
	KindBool:      "Bool",
	KindTinyint:   "Tinyint",
	KindSmallint:  "Smallint",
	KindInt:       "Int",
	KindBigint:    "Bigint",
	KindFloat:     "Float",
	KindDouble:    "Double",
	KindDecimal:   "Decimal",
	KindBlob:      "Blob",
	KindImageURI:  "ImageUri",
	KindChar:      "Char",
	KindText:      "Text",
	KindJSON:      "Json",
	KindUUID:      "Uuid",
	KindDate:      "Date",
	KindTime:      "Time",
	KindDateTime:  "DateTime",
	KindTimestamp: "Timestamp",
	KindInterval:  "Interval",
	KindPoint:     "Point",
	KindArray:     "Array",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Interval mirrors the three independent fields of a SQL interval. The fields
// are never folded into one another.
type Interval struct {
	Microseconds int64
	Days         int32
	Months       int32
}

type Point struct {
	X float64
	Y float64
}

// Value holds exactly one payload. The zero Value is Nil, the only NULL.
type Value struct {
	kind Kind
	v    any
}

func Nil() Value { return Value{} }
func Bool(b bool) Value { return Value{kind: KindBool, v: b} }
func Tinyint(n int8) Value { return Value{kind: KindTinyint, v: n} }
func Smallint(n int16) Value { return Value{kind: KindSmallint, v: n} }
func Int(n int32) Value { return Value{kind: KindInt, v: n} }
func Bigint(n int64) Value { return Value{kind: KindBigint, v: n} }
func Float(f float32) Value { return Value{kind: KindFloat, v: f} }
func Double(f float64) Value { return Value{kind: KindDouble, v: f} }
func Decimal(d decimal.Decimal) Value { return Value{kind: KindDecimal, v: d} }
func Blob(b []byte) Value { return Value{kind: KindBlob, v: b} }
func ImageURI(uri string) Value { return Value{kind: KindImageURI, v: uri} }
func Char(r rune) Value { return Value{kind: KindChar, v: r} }
func Text(s string) Value { return Value{kind: KindText, v: s} }
func JSON(s string) Value { return Value{kind: KindJSON, v: s} }
func UUID(u uuid.UUID) Value { return Value{kind: KindUUID, v: u} }

// Date keeps only the calendar day of t, at midnight UTC.
func Date(t time.Time) Value {
	return Value{kind: KindDate, v: time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)}
}

// Time keeps only the wall clock part of t.
func Time(t time.Time) Value {
	return Value{kind: KindTime, v: time.Date(0, 1, 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)}
}

// DateTime is a timestamp without time zone.
func DateTime(t time.Time) Value { return Value{kind: KindDateTime, v: t} }

// Timestamp is a timestamp with time zone, normalized to UTC.
func Timestamp(t time.Time) Value { return Value{kind: KindTimestamp, v: t.UTC()} }

func NewInterval(microseconds int64, days, months int32) Value {
	return Value{kind: KindInterval, v: Interval{Microseconds: microseconds, Days: days, Months: months}}
}

func NewPoint(x, y float64) Value { return Value{kind: KindPoint, v: Point{X: x, Y: y}} }

func NewArray(a Array) Value { return Value{kind: KindArray, v: a} }

func (v Value) Kind() Kind { return v.kind }
func (v Value) IsNil() bool { return v.kind == KindNil }

// Raw returns the payload as its Go type, or nil for Nil.
func (v Value) Raw() any { return v.v }

// Equal compares kind and payload. Decimals compare numerically and times
// compare by instant.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNil:
		return true
	case KindDecimal:
		return v.v.(decimal.Decimal).Equal(o.v.(decimal.Decimal))
	case KindBlob:
		return bytes.Equal(v.v.([]byte), o.v.([]byte))
	case KindDate, KindTime, KindDateTime, KindTimestamp:
		return v.v.(time.Time).Equal(o.v.(time.Time))
	case KindArray:
		return v.v.(Array).Equal(o.v.(Array))
	default:
		return v.v == o.v
	}
}

// String renders the value for display. Nil renders as NULL.
func (v Value) String() string {
	switch v.kind {
	case KindNil:
		return "NULL"
	case KindChar:
		return string(v.v.(rune))
	case KindBlob:
		return fmt.Sprintf("\\x%x", v.v.([]byte))
	case KindDate:
		return v.v.(time.Time).Format(DateLayout)
	case KindTime:
		return v.v.(time.Time).Format(TimeLayout)
	case KindDateTime:
		return v.v.(time.Time).Format(DateTimeLayout)
	case KindTimestamp:
		return v.v.(time.Time).Format(time.RFC3339Nano)
	case KindInterval:
		iv := v.v.(Interval)
		return fmt.Sprintf("%d mons %d days %d us", iv.Months, iv.Days, iv.Microseconds)
	case KindPoint:
		p := v.v.(Point)
		return fmt.Sprintf("(%g,%g)", p.X, p.Y)
	case KindDecimal:
		return v.v.(decimal.Decimal).String()
	default:
		return fmt.Sprint(v.v)
	}
}

// GoString is the debug form used in conversion errors, e.g. Smallint(5).
func (v Value) GoString() string {
	if v.kind == KindNil {
		return "Nil"
	}
	return fmt.Sprintf("%s(%s)", v.kind, v.String())
}

// Array is restricted to Int, Float and Text elements.
type Array struct {
	kind   ArrayKind
	ints   []int32
	floats []float32
	texts  []string
}

type ArrayKind int

const (
	ArrayInt ArrayKind = iota
	ArrayFloat
	ArrayText
)

func (k ArrayKind) String() string {
	switch k {
	case ArrayInt:
		return "Int"
	case ArrayFloat:
		return "Float"
	default:
		return "Text"
	}
}

func IntArray(v []int32) Array { return Array{kind: ArrayInt, ints: v} }
func FloatArray(v []float32) Array { return Array{kind: ArrayFloat, floats: v} }
func TextArray(v []string) Array { return Array{kind: ArrayText, texts: v} }

func (a Array) Kind() ArrayKind { return a.kind }
func (a Array) Ints() []int32 { return a.ints }
func (a Array) Floats() []float32 { return a.floats }
func (a Array) Texts() []string { return a.texts }

func (a Array) Len() int {
	switch a.kind {
	case ArrayInt:
		return len(a.ints)
	case ArrayFloat:
		return len(a.floats)
	default:
		return len(a.texts)
	}
}

func (a Array) Equal(o Array) bool {
	if a.kind != o.kind {
		return false
	}
	switch a.kind {
	case ArrayInt:
		return slices.Equal(a.ints, o.ints)
	case ArrayFloat:
		return slices.Equal(a.floats, o.floats)
	default:
		return slices.Equal(a.texts, o.texts)
	}
}

func (a Array) String() string {
	switch a.kind {
	case ArrayInt:
		return fmt.Sprint(a.ints)
	case ArrayFloat:
		return fmt.Sprint(a.floats)
	default:
		return fmt.Sprintf("%q", a.texts)
	}
}
