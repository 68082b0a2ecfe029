package sqlite

import (
	"strings"

	"github.com/kadirbelkuyu/unisql/internal/schema"
	"github.com/kadirbelkuyu/unisql/internal/sqltype"
)

var typeNames = map[string]sqltype.Kind{
	"bool":              sqltype.Bool,
	"boolean":           sqltype.Bool,
	"tinyint":           sqltype.Tinyint,
	"smallint":          sqltype.Smallint,
	"int2":              sqltype.Smallint,
	"mediumint":         sqltype.Int,
	"int":               sqltype.Int,
	"int4":              sqltype.Int,
	"integer":           sqltype.Bigint,
	"bigint":            sqltype.Bigint,
	"int8":              sqltype.Bigint,
	"unsigned big int":  sqltype.Bigint,
	"real":              sqltype.Double,
	"double":            sqltype.Double,
	"double precision":  sqltype.Double,
	"float":             sqltype.Double,
	"numeric":           sqltype.Numeric,
	"decimal":           sqltype.Numeric,
	"blob":              sqltype.Blob,
	"character":         sqltype.Char,
	"char":              sqltype.Char,
	"nchar":             sqltype.Char,
	"varchar":           sqltype.Varchar,
	"varying character": sqltype.Varchar,
	"nvarchar":          sqltype.Varchar,
	"text":              sqltype.Text,
	"clob":              sqltype.Text,
	"json":              sqltype.JSON,
	"uuid":              sqltype.UUID,
	"date":              sqltype.Date,
	"time":              sqltype.Time,
	"datetime":          sqltype.Timestamp,
	"timestamp":         sqltype.Timestamp,
}

func splitDeclared(declared string) (string, *sqltype.Capacity) {
	return schema.ExtractDatatypeWithCapacity(declared)
}

// lookupType maps a declared type to a logical type. Names outside the table
// follow SQLite's affinity rules, so every declaration has a type; an empty
// declaration has BLOB affinity.
func lookupType(bare string) sqltype.SqlType {
	bare = strings.ToLower(strings.TrimSpace(bare))
	if kind, ok := typeNames[bare]; ok {
		return sqltype.Of(kind)
	}
	switch {
	case strings.Contains(bare, "int"):
		return sqltype.Of(sqltype.Bigint)
	case strings.Contains(bare, "char"), strings.Contains(bare, "clob"), strings.Contains(bare, "text"):
		return sqltype.Of(sqltype.Text)
	case bare == "" || strings.Contains(bare, "blob"):
		return sqltype.Of(sqltype.Blob)
	case strings.Contains(bare, "real"), strings.Contains(bare, "floa"), strings.Contains(bare, "doub"):
		return sqltype.Of(sqltype.Double)
	}
	return sqltype.Of(sqltype.Numeric)
}
