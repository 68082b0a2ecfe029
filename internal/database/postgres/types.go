package postgres

import (
	"strings"

	"github.com/kadirbelkuyu/unisql/internal/sqltype"
)

var typeNames = map[string]sqltype.Kind{
	"bool":                        sqltype.Bool,
	"boolean":                     sqltype.Bool,
	"smallint":                    sqltype.Smallint,
	"int2":                        sqltype.Smallint,
	"smallserial":                 sqltype.Smallint,
	"integer":                     sqltype.Int,
	"int":                         sqltype.Int,
	"int4":                        sqltype.Int,
	"serial":                      sqltype.Int,
	"bigint":                      sqltype.Bigint,
	"int8":                        sqltype.Bigint,
	"bigserial":                   sqltype.Bigint,
	"real":                        sqltype.Real,
	"float4":                      sqltype.Real,
	"double precision":            sqltype.Double,
	"float8":                      sqltype.Double,
	"numeric":                     sqltype.Numeric,
	"decimal":                     sqltype.Numeric,
	"bytea":                       sqltype.Blob,
	"\"char\"":                    sqltype.Char,
	"char":                        sqltype.Char,
	"character":                   sqltype.Char,
	"bpchar":                      sqltype.Char,
	"character varying":           sqltype.Varchar,
	"varchar":                     sqltype.Varchar,
	"text":                        sqltype.Text,
	"name":                        sqltype.Text,
	"citext":                      sqltype.Text,
	"json":                        sqltype.JSON,
	"jsonb":                       sqltype.JSON,
	"tsvector":                    sqltype.TsVector,
	"uuid":                        sqltype.UUID,
	"date":                        sqltype.Date,
	"timestamp":                   sqltype.Timestamp,
	"timestamp without time zone": sqltype.Timestamp,
	"timestamptz":                 sqltype.TimestampTz,
	"timestamp with time zone":    sqltype.TimestampTz,
	"time":                        sqltype.Time,
	"time without time zone":      sqltype.Time,
	"timetz":                      sqltype.TimeTz,
	"time with time zone":         sqltype.TimeTz,
	"interval":                    sqltype.Interval,
	"inet":                        sqltype.IPAddress,
	"cidr":                        sqltype.IPAddress,
	"point":                       sqltype.Point,
}

// lookupType maps a bare format_type name, with an optional [] suffix, to a
// logical type.
func lookupType(bare string) (sqltype.SqlType, bool) {
	bare = strings.ToLower(strings.TrimSpace(bare))
	if elem, ok := strings.CutSuffix(bare, "[]"); ok {
		t, ok := lookupType(elem)
		if !ok {
			return sqltype.SqlType{}, false
		}
		return sqltype.NewArray(t), true
	}
	if strings.HasPrefix(bare, "interval") {
		return sqltype.Of(sqltype.Interval), true
	}
	kind, ok := typeNames[bare]
	if !ok {
		return sqltype.SqlType{}, false
	}
	return sqltype.Of(kind), true
}
