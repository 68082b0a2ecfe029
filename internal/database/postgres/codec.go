// Package postgres is the PostgreSQL platform: a binary wire codec over pgx,
// the catalog reflector and the connection that ties them together.
package postgres

import (
	"encoding/binary"
	"fmt"
	"math"
	"math/big"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/kadirbelkuyu/unisql/internal/dberr"
	"github.com/kadirbelkuyu/unisql/internal/value"
)

const (
	numericPositive = 0x0000
	numericNegative = 0x4000
	numericNaN      = 0xC000
	numericPosInf   = 0xD000
	numericNegInf   = 0xF000
)

// Microseconds between the Unix epoch and 2000-01-01, the PostgreSQL epoch.
const epochOffsetMicros = 946684800 * 1_000_000

var pgEpoch = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

// Codec maps PostgreSQL wire cells to values and values to pgx parameters.
// Enum types are registered per database since their OIDs are not fixed.
type Codec struct {
	mu         sync.RWMutex
	enums      map[uint32]struct{}
	enumArrays map[uint32]struct{}
}

func NewCodec() *Codec {
	return &Codec{
		enums:      make(map[uint32]struct{}),
		enumArrays: make(map[uint32]struct{}),
	}
}

func (c *Codec) RegisterEnum(oid, arrayOID uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.enums[oid] = struct{}{}
	if arrayOID != 0 {
		c.enumArrays[arrayOID] = struct{}{}
	}
}

func (c *Codec) isEnum(oid uint32) (enum, array bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, enum = c.enums[oid]
	_, array = c.enumArrays[oid]
	return enum, array
}

// Decode turns one raw cell into a value. A nil cell is NULL. raw may be
// reused by the driver after the call, so nothing keeps a reference to it.
func (c *Codec) Decode(raw []byte, oid uint32, format int16) (value.Value, error) {
	if raw == nil {
		return value.Nil(), nil
	}
	enum, enumArray := c.isEnum(oid)
	if format == pgtype.TextFormatCode {
		return c.decodeText(raw, oid, enum, enumArray)
	}

	switch {
	case enum:
		return value.Text(string(raw)), nil
	case enumArray:
		return decodeArray(raw, oid, true)
	}

	switch oid {
	case pgtype.BoolOID:
		if len(raw) != 1 {
			return malformed("bool", raw)
		}
		return value.Bool(raw[0] != 0), nil
	case pgtype.Int2OID:
		if len(raw) != 2 {
			return malformed("int2", raw)
		}
		return value.Smallint(int16(binary.BigEndian.Uint16(raw))), nil
	case pgtype.Int4OID:
		if len(raw) != 4 {
			return malformed("int4", raw)
		}
		return value.Int(int32(binary.BigEndian.Uint32(raw))), nil
	case pgtype.Int8OID:
		if len(raw) != 8 {
			return malformed("int8", raw)
		}
		return value.Bigint(int64(binary.BigEndian.Uint64(raw))), nil
	case pgtype.OIDOID:
		if len(raw) != 4 {
			return malformed("oid", raw)
		}
		return value.Bigint(int64(binary.BigEndian.Uint32(raw))), nil
	case pgtype.Float4OID:
		if len(raw) != 4 {
			return malformed("float4", raw)
		}
		return value.Float(math.Float32frombits(binary.BigEndian.Uint32(raw))), nil
	case pgtype.Float8OID:
		if len(raw) != 8 {
			return malformed("float8", raw)
		}
		return value.Double(math.Float64frombits(binary.BigEndian.Uint64(raw))), nil
	case pgtype.NumericOID:
		return decodeNumeric(raw)
	case pgtype.ByteaOID:
		return value.SniffBlob(append([]byte(nil), raw...)), nil
	case pgtype.QCharOID, pgtype.BPCharOID:
		return value.FromFixedChar(string(raw)), nil
	case pgtype.VarcharOID, pgtype.TextOID, pgtype.NameOID, pgtype.UnknownOID:
		return value.Text(string(raw)), nil
	case pgtype.JSONOID:
		return decodeJSON(raw)
	case pgtype.JSONBOID:
		if len(raw) == 0 || raw[0] != 1 {
			return malformed("jsonb", raw)
		}
		return decodeJSON(raw[1:])
	case pgtype.UUIDOID:
		u, err := uuid.FromBytes(raw)
		if err != nil {
			return malformed("uuid", raw)
		}
		return value.UUID(u), nil
	case pgtype.DateOID:
		if len(raw) != 4 {
			return malformed("date", raw)
		}
		days := int32(binary.BigEndian.Uint32(raw))
		if days == math.MaxInt32 || days == math.MinInt32 {
			return value.Nil(), fmt.Errorf("%w: infinite date", dberr.ErrMalformedValue)
		}
		return value.Date(pgEpoch.AddDate(0, 0, int(days))), nil
	case pgtype.TimeOID:
		if len(raw) != 8 {
			return malformed("time", raw)
		}
		us := int64(binary.BigEndian.Uint64(raw))
		return value.Time(time.Date(0, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(us) * time.Microsecond)), nil
	case pgtype.TimestampOID, pgtype.TimestamptzOID:
		if len(raw) != 8 {
			return malformed("timestamp", raw)
		}
		us := int64(binary.BigEndian.Uint64(raw))
		if us == math.MaxInt64 || us == math.MinInt64 {
			return value.Nil(), fmt.Errorf("%w: infinite timestamp", dberr.ErrMalformedValue)
		}
		t := time.UnixMicro(us + epochOffsetMicros).UTC()
		if oid == pgtype.TimestampOID {
			return value.DateTime(t), nil
		}
		return value.Timestamp(t), nil
	case pgtype.IntervalOID:
		if len(raw) != 16 {
			return malformed("interval", raw)
		}
		return value.NewInterval(
			int64(binary.BigEndian.Uint64(raw[0:8])),
			int32(binary.BigEndian.Uint32(raw[8:12])),
			int32(binary.BigEndian.Uint32(raw[12:16])),
		), nil
	case pgtype.PointOID:
		if len(raw) != 16 {
			return malformed("point", raw)
		}
		return value.NewPoint(
			math.Float64frombits(binary.BigEndian.Uint64(raw[0:8])),
			math.Float64frombits(binary.BigEndian.Uint64(raw[8:16])),
		), nil
	case pgtype.InetOID, pgtype.CIDROID:
		return decodeInet(raw)
	case pgtype.Int2ArrayOID, pgtype.Int4ArrayOID, pgtype.Float4ArrayOID,
		pgtype.TextArrayOID, pgtype.VarcharArrayOID, pgtype.BPCharArrayOID, pgtype.NameArrayOID:
		return decodeArray(raw, oid, false)
	}

	return value.Nil(), fmt.Errorf("%w: oid %d", dberr.ErrUnrecognizedType, oid)
}

func (c *Codec) decodeText(raw []byte, oid uint32, enum, enumArray bool) (value.Value, error) {
	s := string(raw)
	switch {
	case enum:
		return value.Text(s), nil
	case enumArray:
		items, err := parseTextArray(s)
		if err != nil {
			return value.Nil(), err
		}
		return value.NewArray(value.TextArray(items)), nil
	}

	switch oid {
	case pgtype.BoolOID:
		return value.Bool(s == "t"), nil
	case pgtype.Int2OID, pgtype.Int4OID, pgtype.Int8OID, pgtype.OIDOID:
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return malformed("integer", raw)
		}
		switch oid {
		case pgtype.Int2OID:
			return value.Smallint(int16(n)), nil
		case pgtype.Int4OID:
			return value.Int(int32(n)), nil
		}
		return value.Bigint(n), nil
	case pgtype.Float4OID:
		f, err := strconv.ParseFloat(s, 32)
		if err != nil {
			return malformed("float4", raw)
		}
		return value.Float(float32(f)), nil
	case pgtype.Float8OID:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return malformed("float8", raw)
		}
		return value.Double(f), nil
	case pgtype.NumericOID:
		d, err := decimal.NewFromString(s)
		if err != nil {
			return value.Nil(), fmt.Errorf("%w: numeric %q", dberr.ErrMalformedValue, s)
		}
		return value.Decimal(d), nil
	case pgtype.QCharOID, pgtype.BPCharOID:
		return value.FromFixedChar(s), nil
	case pgtype.VarcharOID, pgtype.TextOID, pgtype.NameOID, pgtype.UnknownOID, pgtype.InetOID, pgtype.CIDROID:
		return value.Text(s), nil
	case pgtype.JSONOID, pgtype.JSONBOID:
		return decodeJSON(raw)
	case pgtype.UUIDOID:
		u, err := uuid.Parse(s)
		if err != nil {
			return malformed("uuid", raw)
		}
		return value.UUID(u), nil
	case pgtype.TextArrayOID, pgtype.VarcharArrayOID, pgtype.BPCharArrayOID, pgtype.NameArrayOID:
		items, err := parseTextArray(s)
		if err != nil {
			return value.Nil(), err
		}
		return value.NewArray(value.TextArray(items)), nil
	}

	return value.Nil(), fmt.Errorf("%w: oid %d in text format", dberr.ErrUnrecognizedType, oid)
}

func malformed(typ string, raw []byte) (value.Value, error) {
	return value.Nil(), fmt.Errorf("%w: %s cell of %d bytes", dberr.ErrMalformedValue, typ, len(raw))
}

func decodeJSON(raw []byte) (value.Value, error) {
	s, err := value.NormalizeJSON(raw)
	if err != nil {
		return value.Nil(), fmt.Errorf("%w: %v", dberr.ErrMalformedValue, err)
	}
	return value.JSON(s), nil
}

// decodeNumeric reads the base-10000 numeric layout: ndigits, weight, sign,
// dscale, then ndigits groups. The value is the digit sequence times
// 10000^(weight-ndigits+1), rounded to dscale.
func decodeNumeric(raw []byte) (value.Value, error) {
	if len(raw) < 8 {
		return malformed("numeric", raw)
	}
	ndigits := int(binary.BigEndian.Uint16(raw[0:2]))
	weight := int16(binary.BigEndian.Uint16(raw[2:4]))
	sign := binary.BigEndian.Uint16(raw[4:6])
	dscale := binary.BigEndian.Uint16(raw[6:8])

	switch sign {
	case numericPositive, numericNegative:
	case numericNaN:
		return value.Nil(), fmt.Errorf("%w: numeric NaN is not supported", dberr.ErrMalformedValue)
	case numericPosInf, numericNegInf:
		return value.Nil(), fmt.Errorf("%w: numeric infinity is not supported", dberr.ErrMalformedValue)
	default:
		return value.Nil(), fmt.Errorf("%w: numeric sign 0x%04x", dberr.ErrMalformedValue, sign)
	}
	if len(raw) != 8+2*ndigits {
		return malformed("numeric", raw)
	}

	coefficient := new(big.Int)
	base := big.NewInt(10000)
	for i := 0; i < ndigits; i++ {
		digit := binary.BigEndian.Uint16(raw[8+2*i:])
		if digit > 9999 {
			return malformed("numeric", raw)
		}
		coefficient.Mul(coefficient, base)
		coefficient.Add(coefficient, big.NewInt(int64(digit)))
	}

	exp := 4 * (int32(weight) - int32(ndigits) + 1)
	d := decimal.NewFromBigInt(coefficient, exp)
	if sign == numericNegative {
		d = d.Neg()
	}
	return value.Decimal(d.Round(int32(dscale))), nil
}

func decodeInet(raw []byte) (value.Value, error) {
	if len(raw) < 4 || len(raw) != 4+int(raw[3]) {
		return malformed("inet", raw)
	}
	bits := int(raw[1])
	isCIDR := raw[2] == 1
	ip := net.IP(append([]byte(nil), raw[4:]...))
	if isCIDR || bits != len(raw[4:])*8 {
		return value.Text(fmt.Sprintf("%s/%d", ip, bits)), nil
	}
	return value.Text(ip.String()), nil
}

// decodeArray reads the binary array layout. Multi-dimensional arrays are
// flattened; NULL elements are rejected since the array variants carry none.
func decodeArray(raw []byte, oid uint32, asText bool) (value.Value, error) {
	if len(raw) < 12 {
		return malformed("array", raw)
	}
	ndim := int(int32(binary.BigEndian.Uint32(raw[0:4])))
	elemOID := binary.BigEndian.Uint32(raw[8:12])
	pos := 12

	count := 0
	if ndim > 0 {
		count = 1
	}
	for i := 0; i < ndim; i++ {
		if len(raw) < pos+8 {
			return malformed("array", raw)
		}
		count *= int(int32(binary.BigEndian.Uint32(raw[pos:])))
		pos += 8
	}

	if !asText {
		switch oid {
		case pgtype.Int2ArrayOID, pgtype.Int4ArrayOID:
		case pgtype.Float4ArrayOID:
		default:
			asText = true
		}
	}

	ints := make([]int32, 0, count)
	floats := make([]float32, 0, count)
	texts := make([]string, 0, count)
	for i := 0; i < count; i++ {
		if len(raw) < pos+4 {
			return malformed("array", raw)
		}
		n := int(int32(binary.BigEndian.Uint32(raw[pos:])))
		pos += 4
		if n < 0 {
			return value.Nil(), fmt.Errorf("%w: NULL array element", dberr.ErrMalformedValue)
		}
		if len(raw) < pos+n {
			return malformed("array", raw)
		}
		elem := raw[pos : pos+n]
		pos += n

		switch {
		case asText:
			texts = append(texts, strings.TrimRight(string(elem), " "))
		case elemOID == pgtype.Int2OID && n == 2:
			ints = append(ints, int32(int16(binary.BigEndian.Uint16(elem))))
		case elemOID == pgtype.Int4OID && n == 4:
			ints = append(ints, int32(binary.BigEndian.Uint32(elem)))
		case elemOID == pgtype.Float4OID && n == 4:
			floats = append(floats, math.Float32frombits(binary.BigEndian.Uint32(elem)))
		default:
			return malformed("array element", elem)
		}
	}

	switch {
	case asText:
		return value.NewArray(value.TextArray(texts)), nil
	case oid == pgtype.Float4ArrayOID:
		return value.NewArray(value.FloatArray(floats)), nil
	default:
		return value.NewArray(value.IntArray(ints)), nil
	}
}

// parseTextArray reads the one-dimensional text form {a,"b c",d}.
func parseTextArray(s string) ([]string, error) {
	if len(s) < 2 || s[0] != '{' || s[len(s)-1] != '}' {
		return nil, fmt.Errorf("%w: array literal %q", dberr.ErrMalformedValue, s)
	}
	body := s[1 : len(s)-1]
	items := []string{}
	if body == "" {
		return items, nil
	}

	var (
		cur    strings.Builder
		quoted bool
		wasQ   bool
	)
	for i := 0; i < len(body); i++ {
		ch := body[i]
		switch {
		case quoted && ch == '\\' && i+1 < len(body):
			i++
			cur.WriteByte(body[i])
		case ch == '"':
			quoted = !quoted
			wasQ = true
		case ch == ',' && !quoted:
			if !wasQ && strings.EqualFold(cur.String(), "NULL") {
				return nil, fmt.Errorf("%w: NULL array element", dberr.ErrMalformedValue)
			}
			items = append(items, cur.String())
			cur.Reset()
			wasQ = false
		default:
			cur.WriteByte(ch)
		}
	}
	if quoted {
		return nil, fmt.Errorf("%w: array literal %q", dberr.ErrMalformedValue, s)
	}
	if !wasQ && strings.EqualFold(cur.String(), "NULL") {
		return nil, fmt.Errorf("%w: NULL array element", dberr.ErrMalformedValue)
	}
	return append(items, cur.String()), nil
}
