// Package sqltype is the logical column type catalog shared by the reflectors
// and the codecs.
package sqltype

import (
	"fmt"
	"slices"
	"strings"

	"github.com/kadirbelkuyu/unisql/internal/value"
)

type Kind int

const (
	Bool Kind = iota
	Tinyint
	Smallint
	Int
	Bigint
	Real
	Float
	Double
	Numeric
	Tinyblob
	Mediumblob
	Blob
	Longblob
	Varbinary
	Char
	Varchar
	Tinytext
	Mediumtext
	Text
	JSON
	TsVector
	UUID
	Date
	Timestamp
	TimestampTz
	Time
	TimeTz
	Interval
	IPAddress
	Point
	Enum
	Array
)

var kindNames = map[Kind]string{
	Bool:        "bool",
	Tinyint:     "tinyint",
	Smallint:    "smallint",
	Int:         "int",
	Bigint:      "bigint",
	Real:        "real",
	Float:       "float",
	Double:      "double",
	Numeric:     "numeric",
	Tinyblob:    "tinyblob",
	Mediumblob:  "mediumblob",
	Blob:        "blob",
	Longblob:    "longblob",
	Varbinary:   "varbinary",
	Char:        "char",
	Varchar:     "varchar",
	Tinytext:    "tinytext",
	Mediumtext:  "mediumtext",
	Text:        "text",
	JSON:        "json",
	TsVector:    "tsvector",
	UUID:        "uuid",
	Date:        "date",
	Timestamp:   "timestamp",
	TimestampTz: "timestamptz",
	Time:        "time",
	TimeTz:      "timetz",
	Interval:    "interval",
	IPAddress:   "inet",
	Point:       "point",
	Enum:        "enum",
	Array:       "array",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// SqlType is a logical column type. EnumName and EnumChoices are set for Enum,
// Elem for Array.
type SqlType struct {
	Kind        Kind
	EnumName    string
	EnumChoices []string
	Elem        *SqlType
}

func Of(k Kind) SqlType { return SqlType{Kind: k} }

func NewEnum(name string, choices []string) SqlType {
	return SqlType{Kind: Enum, EnumName: name, EnumChoices: choices}
}

func NewArray(elem SqlType) SqlType {
	return SqlType{Kind: Array, Elem: &elem}
}

func (t SqlType) Equal(o SqlType) bool {
	if t.Kind != o.Kind || t.EnumName != o.EnumName || !slices.Equal(t.EnumChoices, o.EnumChoices) {
		return false
	}
	if t.Elem == nil || o.Elem == nil {
		return t.Elem == o.Elem
	}
	return t.Elem.Equal(*o.Elem)
}

func (t SqlType) String() string {
	switch t.Kind {
	case Enum:
		if t.EnumName != "" {
			return fmt.Sprintf("enum(%s)", t.EnumName)
		}
		return fmt.Sprintf("enum(%s)", strings.Join(t.EnumChoices, ","))
	case Array:
		if t.Elem != nil {
			return t.Elem.String() + "[]"
		}
	}
	return t.Kind.String()
}

// IsInteger reports the Tinyint..Bigint family.
func (t SqlType) IsInteger() bool {
	switch t.Kind {
	case Tinyint, Smallint, Int, Bigint:
		return true
	}
	return false
}

func (t SqlType) IsFloating() bool {
	switch t.Kind {
	case Real, Float, Double, Numeric:
		return true
	}
	return false
}

func (t SqlType) IsText() bool {
	switch t.Kind {
	case Char, Varchar, Tinytext, Mediumtext, Text, IPAddress:
		return true
	}
	return false
}

func (t SqlType) IsBlob() bool {
	switch t.Kind {
	case Tinyblob, Mediumblob, Blob, Longblob, Varbinary:
		return true
	}
	return false
}

func (t SqlType) IsTimestamp() bool {
	return t.Kind == Timestamp || t.Kind == TimestampTz
}

// TypeOf infers the logical type of a value. Nil has none.
func TypeOf(v value.Value) (SqlType, bool) {
	switch v.Kind() {
	case value.KindBool:
		return Of(Bool), true
	case value.KindTinyint:
		return Of(Tinyint), true
	case value.KindSmallint:
		return Of(Smallint), true
	case value.KindInt:
		return Of(Int), true
	case value.KindBigint:
		return Of(Bigint), true
	case value.KindFloat:
		return Of(Float), true
	case value.KindDouble:
		return Of(Double), true
	case value.KindDecimal:
		return Of(Numeric), true
	case value.KindBlob, value.KindImageURI:
		return Of(Blob), true
	case value.KindChar:
		return Of(Char), true
	case value.KindText:
		return Of(Text), true
	case value.KindJSON:
		return Of(JSON), true
	case value.KindUUID:
		return Of(UUID), true
	case value.KindDate:
		return Of(Date), true
	case value.KindTime:
		return Of(Time), true
	case value.KindDateTime:
		return Of(Timestamp), true
	case value.KindTimestamp:
		return Of(TimestampTz), true
	case value.KindInterval:
		return Of(Interval), true
	case value.KindPoint:
		return Of(Point), true
	case value.KindArray:
		arr, _ := value.As[value.Array](v)
		switch arr.Kind() {
		case value.ArrayInt:
			return NewArray(Of(Int)), true
		case value.ArrayFloat:
			return NewArray(Of(Float)), true
		default:
			return NewArray(Of(Text)), true
		}
	}
	return SqlType{}, false
}

// SameType reports whether v can be bound to a column of type t without a
// cast. Nil matches everything.
func SameType(v value.Value, t SqlType) bool {
	if v.IsNil() {
		return true
	}
	switch v.Kind() {
	case value.KindBlob, value.KindImageURI:
		return t.IsBlob()
	case value.KindText:
		return t.Kind != Char && t.IsText()
	case value.KindTime:
		return t.Kind == Time || t.Kind == TimeTz
	case value.KindFloat:
		return t.Kind == Float || t.Kind == Real
	}
	inferred, _ := TypeOf(v)
	if inferred.Kind == Array {
		return t.Kind == Array && t.Elem != nil && inferred.Elem.Kind == elemFamily(*t.Elem)
	}
	return inferred.Kind == t.Kind
}

func elemFamily(t SqlType) Kind {
	switch {
	case t.IsInteger():
		return Int
	case t.Kind == Real || t.Kind == Float:
		return Float
	case t.IsText() || t.Kind == Enum:
		return Text
	}
	return t.Kind
}
