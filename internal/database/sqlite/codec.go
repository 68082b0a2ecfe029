// Package sqlite is the embedded SQLite platform over modernc.org/sqlite.
// SQLite values are dynamically typed, so decoding combines the declared
// column type with the storage class of each cell.
package sqlite

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kadirbelkuyu/unisql/internal/dberr"
	"github.com/kadirbelkuyu/unisql/internal/sqltype"
	"github.com/kadirbelkuyu/unisql/internal/value"
)

type Codec struct{}

func NewCodec() *Codec { return &Codec{} }

// Decode maps one cell of a column declared as declared. The driver hands
// over int64, float64, string, []byte, time.Time or nil. A cell whose
// storage class does not fit the declared type decodes by storage class.
func (c *Codec) Decode(cell any, declared string) (value.Value, error) {
	if cell == nil {
		return value.Nil(), nil
	}
	if strings.TrimSpace(declared) == "" {
		return dynamic(cell)
	}
	bare, _ := splitDeclared(declared)
	t := lookupType(bare)

	switch x := cell.(type) {
	case int64:
		switch {
		case t.Kind == sqltype.Bool:
			return value.Bool(x != 0), nil
		case t.IsInteger():
			return narrow(x, t.Kind), nil
		case t.Kind == sqltype.Numeric:
			return value.Decimal(decimal.NewFromInt(x)), nil
		case t.IsFloating():
			return value.Double(float64(x)), nil
		}
	case float64:
		switch {
		case t.Kind == sqltype.Numeric:
			return value.Decimal(decimal.NewFromFloat(x)), nil
		case t.IsFloating():
			return value.Double(x), nil
		}
	case string:
		return decodeText(x, t)
	case []byte:
		if t.Kind == sqltype.UUID && len(x) == 16 {
			u, _ := uuid.FromBytes(x)
			return value.UUID(u), nil
		}
		if t.IsText() || t.Kind == sqltype.JSON {
			return decodeText(string(x), t)
		}
	case time.Time:
		switch t.Kind {
		case sqltype.Date:
			return value.Date(x), nil
		case sqltype.Timestamp:
			return value.DateTime(x.UTC()), nil
		}
		return value.Timestamp(x), nil
	}
	return dynamic(cell)
}

func decodeText(s string, t sqltype.SqlType) (value.Value, error) {
	switch {
	case t.Kind == sqltype.Char:
		return value.FromFixedChar(s), nil
	case t.Kind == sqltype.JSON:
		norm, err := value.NormalizeJSON([]byte(s))
		if err != nil {
			return value.Nil(), fmt.Errorf("%w: %v", dberr.ErrMalformedValue, err)
		}
		return value.JSON(norm), nil
	case t.Kind == sqltype.UUID:
		if u, err := uuid.Parse(s); err == nil {
			return value.UUID(u), nil
		}
	case t.Kind == sqltype.Numeric:
		if d, err := decimal.NewFromString(s); err == nil {
			return value.Decimal(d), nil
		}
	case t.Kind == sqltype.Bool:
		switch strings.ToLower(s) {
		case "true", "t", "1":
			return value.Bool(true), nil
		case "false", "f", "0":
			return value.Bool(false), nil
		}
	case t.Kind == sqltype.Date:
		if d, err := time.Parse(value.DateLayout, s); err == nil {
			return value.Date(d), nil
		}
	case t.Kind == sqltype.Time:
		if tm, err := time.Parse(value.TimeLayout, s); err == nil {
			return value.Time(tm), nil
		}
	case t.IsTimestamp():
		ts, err := value.ParseTimestamp(s)
		if err != nil {
			return value.Nil(), err
		}
		return value.DateTime(ts), nil
	}
	return value.Text(s), nil
}

// dynamic decodes by storage class alone.
func dynamic(cell any) (value.Value, error) {
	switch x := cell.(type) {
	case int64:
		return value.Bigint(x), nil
	case float64:
		return value.Double(x), nil
	case string:
		return value.Text(x), nil
	case []byte:
		return value.SniffBlob(append([]byte(nil), x...)), nil
	case time.Time:
		return value.Timestamp(x), nil
	}
	return value.Nil(), fmt.Errorf("%w: sqlite cell of type %T", dberr.ErrUnrecognizedType, cell)
}

func narrow(n int64, k sqltype.Kind) value.Value {
	switch {
	case k == sqltype.Tinyint && n >= -1<<7 && n < 1<<7:
		return value.Tinyint(int8(n))
	case k == sqltype.Smallint && n >= -1<<15 && n < 1<<15:
		return value.Smallint(int16(n))
	case k == sqltype.Int && n >= -1<<31 && n < 1<<31:
		return value.Int(int32(n))
	}
	return value.Bigint(n)
}

// Encode converts v into a driver argument. Date and time kinds are stored
// as text in the layouts SQLite's date functions read.
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
		return t.UTC(), nil
	case value.KindInterval, value.KindPoint, value.KindArray:
		return nil, &dberr.UnsupportedDataTypeError{Platform: Name, Type: v.Kind().String(), Context: "parameter"}
	}
	return v.Raw(), nil
}
