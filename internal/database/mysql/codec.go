// Package mysql is the MySQL platform over go-sql-driver/mysql. Cells arrive
// as []byte from the text protocol or as native Go values from the binary
// protocol; both decode to the same values.
package mysql

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kadirbelkuyu/unisql/internal/dberr"
	"github.com/kadirbelkuyu/unisql/internal/value"
)

// ColumnType tags a result column. Name is the driver's database type name,
// e.g. "VARCHAR" or "UNSIGNED INT". Length is the declared display width.
// The driver does not report widths, so result sets leave it zero and a
// tinyint(1) cell decodes as Tinyint; sqltype.CastType with the reflected
// column type turns it back into Bool.
type ColumnType struct {
	Name   string
	Length int64
}

type Codec struct{}

func NewCodec() *Codec { return &Codec{} }

// Decode maps one cell of a column tagged with tag. A nil cell is NULL.
func (c *Codec) Decode(cell any, tag ColumnType) (value.Value, error) {
	if cell == nil {
		return value.Nil(), nil
	}
	name := strings.ToUpper(strings.TrimSpace(tag.Name))

	switch name {
	case "BOOL", "BOOLEAN":
		n, err := integer(cell)
		if err != nil {
			return value.Nil(), err
		}
		return value.Bool(n != 0), nil
	case "TINYINT":
		n, err := integer(cell)
		if err != nil {
			return value.Nil(), err
		}
		if tag.Length == 1 {
			return value.Bool(n != 0), nil
		}
		return value.Tinyint(int8(n)), nil
	case "UNSIGNED TINYINT", "SMALLINT", "YEAR":
		n, err := integer(cell)
		if err != nil {
			return value.Nil(), err
		}
		return value.Smallint(int16(n)), nil
	case "UNSIGNED SMALLINT", "MEDIUMINT", "UNSIGNED MEDIUMINT", "INT":
		n, err := integer(cell)
		if err != nil {
			return value.Nil(), err
		}
		return value.Int(int32(n)), nil
	case "UNSIGNED INT", "BIGINT":
		n, err := integer(cell)
		if err != nil {
			return value.Nil(), err
		}
		return value.Bigint(n), nil
	case "UNSIGNED BIGINT":
		switch x := cell.(type) {
		case uint64:
			return value.From(x), nil
		case int64:
			return value.Bigint(x), nil
		}
		s := text(cell)
		n, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return value.Nil(), malformed(name, s)
		}
		return value.From(n), nil
	case "FLOAT":
		switch x := cell.(type) {
		case float32:
			return value.Float(x), nil
		case float64:
			return value.Float(float32(x)), nil
		}
		f, err := strconv.ParseFloat(text(cell), 32)
		if err != nil {
			return value.Nil(), malformed(name, text(cell))
		}
		return value.Float(float32(f)), nil
	case "DOUBLE":
		if f, ok := cell.(float64); ok {
			return value.Double(f), nil
		}
		f, err := strconv.ParseFloat(text(cell), 64)
		if err != nil {
			return value.Nil(), malformed(name, text(cell))
		}
		return value.Double(f), nil
	case "DECIMAL":
		d, err := decimal.NewFromString(text(cell))
		if err != nil {
			return value.Nil(), malformed(name, text(cell))
		}
		return value.Decimal(d), nil
	case "BIT":
		b := bytesOf(cell)
		var n int64
		for _, x := range b {
			n = n<<8 | int64(x)
		}
		if len(b) == 1 && n <= 1 {
			return value.Bool(n == 1), nil
		}
		return value.Bigint(n), nil
	case "CHAR":
		return value.FromFixedChar(text(cell)), nil
	case "VARCHAR", "TEXT", "TINYTEXT", "MEDIUMTEXT", "LONGTEXT", "ENUM", "SET":
		return value.Text(text(cell)), nil
	case "JSON":
		s, err := value.NormalizeJSON(bytesOf(cell))
		if err != nil {
			return value.Nil(), fmt.Errorf("%w: %v", dberr.ErrMalformedValue, err)
		}
		return value.JSON(s), nil
	case "BLOB", "TINYBLOB", "MEDIUMBLOB", "LONGBLOB", "BINARY", "VARBINARY", "GEOMETRY":
		return value.SniffBlob(append([]byte(nil), bytesOf(cell)...)), nil
	case "DATE":
		t, err := timeOf(cell, value.DateLayout)
		if err != nil {
			return value.Nil(), err
		}
		return value.Date(t), nil
	case "TIME":
		t, err := timeOf(cell, value.TimeLayout)
		if err != nil {
			return value.Nil(), err
		}
		return value.Time(t), nil
	case "DATETIME":
		t, err := timeOf(cell, value.DateTimeLayout)
		if err != nil {
			return value.Nil(), err
		}
		return value.DateTime(t), nil
	case "TIMESTAMP":
		t, err := timeOf(cell, value.DateTimeLayout)
		if err != nil {
			return value.Nil(), err
		}
		return value.Timestamp(t), nil
	case "NULL":
		return value.Nil(), nil
	}

	return value.Nil(), fmt.Errorf("%w: mysql type %q", dberr.ErrUnrecognizedType, tag.Name)
}

// Encode converts v into a parameter the driver binds. UUIDs travel as their
// text form; intervals, points and arrays have no MySQL representation.
func (c *Codec) Encode(v value.Value) (any, error) {
	switch v.Kind() {
	case value.KindNil:
		return nil, nil
	case value.KindDecimal, value.KindUUID, value.KindChar:
		return v.String(), nil
	case value.KindImageURI:
		uri, _ := value.As[string](v)
		b, err := value.DecodeImageURI(uri)
		if err != nil {
			return nil, &dberr.ConvertError{Source: "ImageUri", Target: "blob", Err: err}
		}
		return b, nil
	case value.KindDate:
		t, _ := value.As[time.Time](v)
		return t.Format(value.DateLayout), nil
	case value.KindTime:
		t, _ := value.As[time.Time](v)
		return t.Format(value.TimeLayout), nil
	case value.KindDateTime:
		t, _ := value.As[time.Time](v)
		return t.Format(value.DateTimeLayout), nil
	case value.KindTimestamp:
		t, _ := value.As[time.Time](v)
		return t.UTC().Format(value.DateTimeLayout), nil
	case value.KindInterval, value.KindPoint, value.KindArray:
		return nil, &dberr.UnsupportedDataTypeError{Platform: Name, Type: v.Kind().String(), Context: "parameter"}
	}
	return v.Raw(), nil
}

func malformed(typ, s string) error {
	return fmt.Errorf("%w: %s cell %q", dberr.ErrMalformedValue, typ, s)
}

func bytesOf(cell any) []byte {
	switch x := cell.(type) {
	case []byte:
		return x
	case string:
		return []byte(x)
	}
	return []byte(fmt.Sprint(cell))
}

func text(cell any) string {
	switch x := cell.(type) {
	case []byte:
		return string(x)
	case string:
		return x
	}
	return fmt.Sprint(cell)
}

func integer(cell any) (int64, error) {
	switch x := cell.(type) {
	case bool:
		if x {
			return 1, nil
		}
		return 0, nil
	case int64:
		return x, nil
	case int32:
		return int64(x), nil
	case int16:
		return int64(x), nil
	case int8:
		return int64(x), nil
	case uint64:
		return int64(x), nil
	case uint32:
		return int64(x), nil
	case uint16:
		return int64(x), nil
	case uint8:
		return int64(x), nil
	}
	s := text(cell)
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, malformed("integer", s)
	}
	return n, nil
}

func timeOf(cell any, layout string) (time.Time, error) {
	if t, ok := cell.(time.Time); ok {
		return t, nil
	}
	s := text(cell)
	t, err := time.Parse(layout, s)
	if err != nil {
		return time.Time{}, malformed(layout, s)
	}
	return t, nil
}
