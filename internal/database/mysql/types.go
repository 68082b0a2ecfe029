package mysql

import (
	"strings"

	"github.com/kadirbelkuyu/unisql/internal/sqltype"
)

var typeNames = map[string]sqltype.Kind{
	"bool":       sqltype.Bool,
	"boolean":    sqltype.Bool,
	"bit":        sqltype.Bool,
	"tinyint":    sqltype.Tinyint,
	"smallint":   sqltype.Smallint,
	"year":       sqltype.Smallint,
	"mediumint":  sqltype.Int,
	"int":        sqltype.Int,
	"integer":    sqltype.Int,
	"bigint":     sqltype.Bigint,
	"float":      sqltype.Float,
	"real":       sqltype.Double,
	"double":     sqltype.Double,
	"decimal":    sqltype.Numeric,
	"numeric":    sqltype.Numeric,
	"tinyblob":   sqltype.Tinyblob,
	"mediumblob": sqltype.Mediumblob,
	"blob":       sqltype.Blob,
	"longblob":   sqltype.Longblob,
	"binary":     sqltype.Varbinary,
	"varbinary":  sqltype.Varbinary,
	"char":       sqltype.Char,
	"varchar":    sqltype.Varchar,
	"tinytext":   sqltype.Tinytext,
	"mediumtext": sqltype.Mediumtext,
	"text":       sqltype.Text,
	"longtext":   sqltype.Text,
	"set":        sqltype.Text,
	"json":       sqltype.JSON,
	"date":       sqltype.Date,
	"time":       sqltype.Time,
	"datetime":   sqltype.Timestamp,
	"timestamp":  sqltype.TimestampTz,
}

// lookupType maps information_schema DATA_TYPE plus COLUMN_TYPE to a logical
// type. tinyint(1) is the MySQL boolean; unsigned integers widen one step.
// MySQL enums are anonymous, so the caller names them.
func lookupType(dataType, columnType string) (sqltype.SqlType, bool) {
	dataType = strings.ToLower(strings.TrimSpace(dataType))
	if dataType == "enum" {
		return sqltype.NewEnum("", enumChoices(columnType)), true
	}
	columnType = strings.ToLower(strings.TrimSpace(columnType))
	if dataType == "tinyint" && strings.HasPrefix(columnType, "tinyint(1)") {
		return sqltype.Of(sqltype.Bool), true
	}
	kind, ok := typeNames[dataType]
	if !ok {
		return sqltype.SqlType{}, false
	}
	if strings.Contains(columnType, "unsigned") {
		switch kind {
		case sqltype.Tinyint:
			kind = sqltype.Smallint
		case sqltype.Smallint:
			kind = sqltype.Int
		case sqltype.Int:
			kind = sqltype.Bigint
		case sqltype.Bigint:
			kind = sqltype.Numeric
		}
	}
	return sqltype.Of(kind), true
}

// enumChoices reads the labels of enum('a','b''c').
func enumChoices(columnType string) []string {
	open := strings.IndexByte(columnType, '(')
	closing := strings.LastIndexByte(columnType, ')')
	if open < 0 || closing < open {
		return nil
	}
	body := columnType[open+1 : closing]

	var (
		choices []string
		cur     strings.Builder
		quoted  bool
	)
	for i := 0; i < len(body); i++ {
		ch := body[i]
		switch {
		case ch == '\'' && quoted && i+1 < len(body) && body[i+1] == '\'':
			cur.WriteByte('\'')
			i++
		case ch == '\'':
			quoted = !quoted
			if !quoted {
				choices = append(choices, cur.String())
				cur.Reset()
			}
		case quoted:
			cur.WriteByte(ch)
		}
	}
	return choices
}
