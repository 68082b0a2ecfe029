package postgres

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadirbelkuyu/unisql/internal/dao"
	"github.com/kadirbelkuyu/unisql/internal/dberr"
	"github.com/kadirbelkuyu/unisql/internal/literal"
	"github.com/kadirbelkuyu/unisql/internal/schema"
	"github.com/kadirbelkuyu/unisql/internal/sqltype"
	"github.com/kadirbelkuyu/unisql/internal/value"
)

func columnRow(name, dataType string, notNull bool, def any) dao.Dao {
	d := dao.Dao{
		"name":          value.Text(name),
		"data_type":     value.Text(dataType),
		"not_null":      value.Bool(notNull),
		"default_value": value.From(def),
		"comment":       value.Nil(),
		"is_enum":       value.Bool(false),
		"is_enum_array": value.Bool(false),
		"udt_name":      value.Text(""),
		"udt_schema":    value.Text("pg_catalog"),
		"identity":      value.Text(""),
		"avg_width":     value.Nil(),
		"n_distinct":    value.Nil(),
	}
	return d
}

func textArray(items ...string) value.Value {
	return value.NewArray(value.TextArray(items))
}

func TestBuildActorTable(t *testing.T) {
	id := columnRow("actor_id", "integer", true, "nextval('actor_actor_id_seq'::regclass)")
	first := columnRow("first_name", "character varying(45)", true, nil)
	first.Insert("avg_width", value.Int(6))
	first.Insert("n_distinct", value.Float(-0.64))
	updated := columnRow("last_update", "timestamp without time zone", true, "now()")

	columns, err := buildColumns("actor", []dao.Dao{id, first, updated}, nil)
	require.NoError(t, err)

	keys, err := buildKeys([]dao.Dao{{
		"name":           value.Text("actor_pkey"),
		"kind":           value.Text("p"),
		"columns":        textArray("actor_id"),
		"foreign_schema": value.Nil(),
		"foreign_table":  value.Nil(),
	}}, []dao.Dao{{
		"name":    value.Text("idx_actor_last_name"),
		"columns": textArray("last_name"),
	}}, nil)
	require.NoError(t, err)

	meta := dao.Dao{"relkind": value.Text("r"), "comment": value.Text("cast")}
	table, err := buildTable(schema.NewTableName("public", "actor"), meta, columns, keys)
	require.NoError(t, err)

	assert.False(t, table.IsView)
	assert.Equal(t, "cast", table.Comment)
	assert.Equal(t, "public.actor", table.Name.CompleteName())

	primary := table.PrimaryColumns()
	require.Len(t, primary, 1)
	assert.Equal(t, "actor_id", primary[0].Name)
	assert.True(t, primary[0].IsAutoIncrement())
	assert.Nil(t, primary[0].Default())

	firstName := table.Column("first_name")
	require.NotNil(t, firstName)
	assert.Equal(t, sqltype.Of(sqltype.Varchar), firstName.Specification.SQLType)
	require.NotNil(t, firstName.Specification.Capacity)
	limit, ok := firstName.Specification.Capacity.Limit()
	require.True(t, ok)
	assert.Equal(t, 45, limit)
	assert.True(t, firstName.IsNotNull())
	require.NotNil(t, firstName.Stat)
	assert.Equal(t, int32(6), firstName.Stat.AvgWidth)

	lastUpdate := table.Column("last_update")
	require.NotNil(t, lastUpdate)
	require.NotNil(t, lastUpdate.Default())
	assert.Equal(t, literal.CurrentTimestamp, lastUpdate.Default().Kind)

	require.Len(t, table.Keys, 2)
	assert.Equal(t, schema.Key, table.Keys[1].Kind)
	assert.Equal(t, []string{"last_name"}, table.Keys[1].Columns)
}

func TestBuildEnumColumns(t *testing.T) {
	rating := columnRow("rating", "mpaa_rating", false, "'G'::mpaa_rating")
	rating.Insert("is_enum", value.Bool(true))
	rating.Insert("udt_name", value.Text("mpaa_rating"))
	rating.Insert("udt_schema", value.Text("public"))

	features := columnRow("features", "mpaa_rating[]", false, nil)
	features.Insert("is_enum_array", value.Bool(true))
	features.Insert("udt_name", value.Text("mpaa_rating"))
	features.Insert("udt_schema", value.Text("public"))

	choices := map[string][]string{"public.mpaa_rating": {"G", "PG", "PG-13", "R", "NC-17"}}
	columns, err := buildColumns("film", []dao.Dao{rating, features}, choices)
	require.NoError(t, err)
	require.Len(t, columns, 2)

	typ := columns[0].Specification.SQLType
	assert.Equal(t, sqltype.Enum, typ.Kind)
	assert.Equal(t, "mpaa_rating", typ.EnumName)
	assert.Equal(t, choices["public.mpaa_rating"], typ.EnumChoices)

	def := columns[0].Default()
	require.NotNil(t, def)
	assert.Equal(t, literal.String, def.Kind)
	assert.Equal(t, "'G'::mpaa_rating", def.Text)

	arr := columns[1].Specification.SQLType
	assert.Equal(t, sqltype.Array, arr.Kind)
	require.NotNil(t, arr.Elem)
	assert.Equal(t, sqltype.Enum, arr.Elem.Kind)
}

func TestBuildEnumColumnsPerSchema(t *testing.T) {
	rating := columnRow("rating", "mpaa_rating", false, nil)
	rating.Insert("is_enum", value.Bool(true))
	rating.Insert("udt_name", value.Text("mpaa_rating"))
	rating.Insert("udt_schema", value.Text("archive"))

	choices := map[string][]string{
		"public.mpaa_rating":  {"G", "PG", "PG-13", "R", "NC-17"},
		"archive.mpaa_rating": {"U", "X"},
	}
	columns, err := buildColumns("film", []dao.Dao{rating}, choices)
	require.NoError(t, err)
	require.Len(t, columns, 1)
	assert.Equal(t, "mpaa_rating", columns[0].Specification.SQLType.EnumName)
	assert.Equal(t, []string{"U", "X"}, columns[0].Specification.SQLType.EnumChoices)
}

func TestBuildColumnsCollapsesRepeatedStats(t *testing.T) {
	own := columnRow("title", "character varying(255)", true, nil)
	own.Insert("avg_width", value.Int(15))
	own.Insert("n_distinct", value.Float(-1))
	inherited := columnRow("title", "character varying(255)", true, nil)
	inherited.Insert("avg_width", value.Int(17))
	inherited.Insert("n_distinct", value.Float(-1))
	year := columnRow("release_year", "integer", false, nil)

	columns, err := buildColumns("film", []dao.Dao{own, inherited, year}, nil)
	require.NoError(t, err)
	require.Len(t, columns, 2)
	assert.Equal(t, "title", columns[0].Name)
	assert.Equal(t, "release_year", columns[1].Name)
	require.NotNil(t, columns[0].Stat)
	assert.Equal(t, int32(15), columns[0].Stat.AvgWidth)

	table, err := buildTable(schema.NewTableName("public", "film"), dao.Dao{"relkind": value.Text("r"), "comment": value.Nil()}, columns, nil)
	require.NoError(t, err)
	script := schema.NewCreator(schema.Dialect{}).CreateTableSQL(table)
	assert.Equal(t, 1, strings.Count(script, `"title"`))
}

func TestBuildColumnUnsupportedType(t *testing.T) {
	_, err := buildColumns("geo", []dao.Dao{columnRow("shape", "polygon", false, nil)}, nil)

	var unsupported *dberr.UnsupportedDataTypeError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, "polygon", unsupported.Type)
	assert.Equal(t, "geo.shape", unsupported.Context)
}

func TestBuildForeignKey(t *testing.T) {
	keys, err := buildKeys([]dao.Dao{{
		"name":           value.Text("film_language_id_fkey"),
		"kind":           value.Text("f"),
		"columns":        textArray("language_id"),
		"foreign_schema": value.Text("public"),
		"foreign_table":  value.Text("language"),
	}}, nil, map[string][]string{"film_language_id_fkey": {"language_id"}})
	require.NoError(t, err)
	require.Len(t, keys, 1)

	fk := keys[0]
	assert.Equal(t, schema.ForeignKey, fk.Kind)
	assert.Equal(t, "public.language", fk.ForeignTable.CompleteName())
	assert.Equal(t, []string{"language_id"}, fk.ReferredColumns)
}

func TestBuildViewTable(t *testing.T) {
	table, err := buildTable(schema.NewTableName("public", "film_list"),
		dao.Dao{"relkind": value.Text("v"), "comment": value.Nil()}, nil, nil)
	require.NoError(t, err)
	assert.True(t, table.IsView)
	assert.Empty(t, table.Comment)
}

func TestGroupTables(t *testing.T) {
	row := func(schemaName, name string, view bool) dao.Dao {
		return dao.Dao{"schema": value.Text(schemaName), "name": value.Text(name), "is_view": value.Bool(view)}
	}
	groups, err := groupTables([]dao.Dao{
		row("audit", "log", false),
		row("public", "actor", false),
		row("public", "actor_info", true),
		row("public", "film", false),
	})
	require.NoError(t, err)
	require.Len(t, groups, 2)

	assert.Equal(t, "audit", groups[0].Schema)
	assert.Equal(t, []string{"log"}, groups[0].Tablenames)
	assert.Equal(t, []string{"actor", "film"}, groups[1].Tablenames)
	assert.Equal(t, []string{"actor_info"}, groups[1].Views)
}

func TestBuildUser(t *testing.T) {
	until := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	d := dao.Dao{
		"username":       value.Text("app"),
		"rolsuper":       value.Bool(false),
		"rolinherit":     value.Bool(true),
		"rolcreatedb":    value.Bool(true),
		"rolcreaterole":  value.Bool(false),
		"rolcanlogin":    value.Bool(true),
		"rolreplication": value.Bool(false),
		"rolbypassrls":   value.Bool(false),
		"rolvaliduntil":  value.Timestamp(until),
		"rolconnlimit":   value.Int(-1),
	}

	user, err := buildUser(d)
	require.NoError(t, err)
	assert.Equal(t, "app", user.Username)
	assert.True(t, user.IsInherit)
	assert.True(t, user.CanCreateDB)
	assert.True(t, user.CanLogin)
	assert.False(t, user.IsSuperuser)
	require.NotNil(t, user.ValidUntil)
	assert.True(t, until.Equal(*user.ValidUntil))
	assert.Equal(t, int32(-1), user.ConnLimit)

	d.Insert("rolvaliduntil", value.Nil())
	user, err = buildUser(d)
	require.NoError(t, err)
	assert.Nil(t, user.ValidUntil)
}
