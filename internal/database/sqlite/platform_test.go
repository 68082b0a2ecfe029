package sqlite_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadirbelkuyu/unisql/internal/dao"
	"github.com/kadirbelkuyu/unisql/internal/database/sqlite"
	"github.com/kadirbelkuyu/unisql/internal/dberr"
	"github.com/kadirbelkuyu/unisql/internal/literal"
	"github.com/kadirbelkuyu/unisql/internal/schema"
	"github.com/kadirbelkuyu/unisql/internal/sqltype"
	"github.com/kadirbelkuyu/unisql/internal/value"
)

const sakila = `
CREATE TABLE language (
	language_id INTEGER PRIMARY KEY,
	name CHAR(20) NOT NULL
);
CREATE TABLE actor (
	actor_id INTEGER PRIMARY KEY AUTOINCREMENT,
	first_name VARCHAR(45) NOT NULL,
	last_name VARCHAR(45) NOT NULL,
	last_update TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX idx_actor_last_name ON actor (last_name);
CREATE TABLE film (
	film_id INTEGER PRIMARY KEY,
	title VARCHAR(255) NOT NULL,
	rental_rate DECIMAL(4,2) NOT NULL DEFAULT 4.99,
	rating TEXT DEFAULT 'G',
	language_id INTEGER NOT NULL REFERENCES language (language_id),
	UNIQUE (title)
);
CREATE VIEW actor_names AS SELECT first_name, last_name FROM actor;
`

func openMemory(t *testing.T) (*sqlite.Platform, context.Context) {
	t.Helper()
	ctx := context.Background()
	p, err := sqlite.Open(ctx, "sqlite::memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })
	return p, ctx
}

func load(t *testing.T, p *sqlite.Platform, ctx context.Context) {
	t.Helper()
	for _, stmt := range strings.Split(sakila, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		_, err := p.Execute(ctx, stmt, nil)
		require.NoError(t, err, stmt)
	}
}

func TestOpenAndRoundTrip(t *testing.T) {
	p, ctx := openMemory(t)
	_, err := p.Execute(ctx, `CREATE TABLE t (
		b BOOLEAN, i INT, d DECIMAL(10,2), s VARCHAR(10), u UUID, day DATE, at DATETIME, j JSON, raw BLOB
	)`, nil)
	require.NoError(t, err)

	id := uuid.New()
	day := time.Date(2018, 1, 29, 0, 0, 0, 0, time.UTC)
	at := time.Date(2018, 1, 29, 13, 14, 15, 0, time.UTC)
	params := []value.Value{
		value.Bool(true),
		value.Int(42),
		value.Decimal(decimal.RequireFromString("4.99")),
		value.Text("lemonade"),
		value.UUID(id),
		value.Date(day),
		value.DateTime(at),
		value.JSON(`{"b":1,"a":2}`),
		value.Blob([]byte{0, 1, 2}),
	}
	_, err = p.Execute(ctx, `INSERT INTO t VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`, params)
	require.NoError(t, err)

	rows, err := p.Execute(ctx, `SELECT b, i, d, s, u, day, at, j, raw FROM t`, nil)
	require.NoError(t, err)
	require.Equal(t, 1, rows.Len())
	row := rows.Daos()[0]

	want := map[string]value.Value{
		"b":   value.Bool(true),
		"i":   value.Int(42),
		"d":   value.Decimal(decimal.RequireFromString("4.99")),
		"s":   value.Text("lemonade"),
		"u":   value.UUID(id),
		"day": value.Date(day),
		"at":  value.DateTime(at),
		"j":   value.JSON(`{"a":2,"b":1}`),
		"raw": value.Blob([]byte{0, 1, 2}),
	}
	for key, v := range want {
		assert.True(t, v.Equal(row.Get(key)), "column %s: %#v", key, row.Get(key))
	}
}

func TestNullAndExpressions(t *testing.T) {
	p, ctx := openMemory(t)

	rows, err := p.Execute(ctx, `SELECT NULL AS n, 1 + 1 AS two, 'x' AS s, 0.5 AS f`, nil)
	require.NoError(t, err)
	row := rows.Daos()[0]
	assert.True(t, row.Get("n").IsNil())
	assert.True(t, row.Get("two").Equal(value.Bigint(2)))
	assert.True(t, row.Get("s").Equal(value.Text("x")))
	assert.True(t, row.Get("f").Equal(value.Double(0.5)))
}

func TestReflectActor(t *testing.T) {
	p, ctx := openMemory(t)
	load(t, p, ctx)

	table, err := p.GetTable(ctx, schema.TableName{Name: "actor"})
	require.NoError(t, err)
	assert.Equal(t, "main.actor", table.Name.CompleteName())
	assert.False(t, table.IsView)

	primary := table.PrimaryColumns()
	require.Len(t, primary, 1)
	assert.Equal(t, "actor_id", primary[0].Name)
	assert.True(t, primary[0].IsAutoIncrement())

	first := table.Column("first_name")
	require.NotNil(t, first)
	assert.Equal(t, sqltype.Varchar, first.Specification.SQLType.Kind)
	assert.True(t, first.IsNotNull())
	require.NotNil(t, first.Specification.Capacity)
	limit, ok := first.Specification.Capacity.Limit()
	require.True(t, ok)
	assert.Equal(t, 45, limit)

	updated := table.Column("last_update")
	require.NotNil(t, updated.Default())
	assert.Equal(t, literal.CurrentTimestamp, updated.Default().Kind)

	var index *schema.TableKey
	for i := range table.Keys {
		if table.Keys[i].Kind == schema.Key {
			index = &table.Keys[i]
		}
	}
	require.NotNil(t, index)
	assert.Equal(t, "idx_actor_last_name", index.Name)
	assert.Equal(t, []string{"last_name"}, index.Columns)
}

func TestReflectFilmKeys(t *testing.T) {
	p, ctx := openMemory(t)
	load(t, p, ctx)

	table, err := p.GetTable(ctx, schema.NewTableName("main", "film"))
	require.NoError(t, err)

	fks := table.ForeignKeys()
	require.Len(t, fks, 1)
	assert.Equal(t, []string{"language_id"}, fks[0].Columns)
	assert.Equal(t, "language", fks[0].ForeignTable.Name)
	assert.Equal(t, []string{"language_id"}, fks[0].ReferredColumns)

	var unique bool
	for _, key := range table.Keys {
		if key.Kind == schema.UniqueKey {
			unique = true
			assert.Equal(t, []string{"title"}, key.Columns)
		}
	}
	assert.True(t, unique)

	rate := table.Column("rental_rate")
	assert.Equal(t, sqltype.Numeric, rate.Specification.SQLType.Kind)
	assert.Equal(t, literal.DoubleLiteral(4.99), *rate.Default())
	assert.Equal(t, literal.StringLiteral("'G'"), *table.Column("rating").Default())
}

func TestReflectViewAndMissing(t *testing.T) {
	p, ctx := openMemory(t)
	load(t, p, ctx)

	view, err := p.GetTable(ctx, schema.TableName{Name: "actor_names"})
	require.NoError(t, err)
	assert.True(t, view.IsView)
	assert.Len(t, view.Columns, 2)

	_, err = p.GetTable(ctx, schema.TableName{Name: "missing"})
	var dataErr *dberr.DataError
	require.ErrorAs(t, err, &dataErr)
	assert.Equal(t, dberr.ZeroRecordReturned, dataErr.Kind)
}

func TestGroupedTablesAndAccounts(t *testing.T) {
	p, ctx := openMemory(t)
	load(t, p, ctx)

	groups, err := p.GetGroupedTables(ctx)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "main", groups[0].Schema)
	assert.Equal(t, []string{"actor", "film", "language"}, groups[0].Tablenames)
	assert.Equal(t, []string{"actor_names"}, groups[0].Views)

	name, err := p.GetDatabaseName(ctx)
	require.NoError(t, err)
	assert.Equal(t, "main", name)

	_, err = p.GetUsers(ctx)
	require.ErrorIs(t, err, dberr.ErrUnsupportedOperation)
	_, err = p.GetRoles(ctx, "anyone")
	require.ErrorIs(t, err, dberr.ErrUnsupportedOperation)
}

func TestForeignKeysEnforced(t *testing.T) {
	p, ctx := openMemory(t)
	load(t, p, ctx)

	_, err := p.Execute(ctx, `INSERT INTO film (title, language_id) VALUES (?, ?)`,
		[]value.Value{value.Text("ACADEMY DINOSAUR"), value.Int(99)})
	var platformErr *dberr.PlatformError
	require.ErrorAs(t, err, &platformErr)
	assert.Equal(t, sqlite.Name, platformErr.Platform)
}

func TestDaoAccess(t *testing.T) {
	p, ctx := openMemory(t)
	load(t, p, ctx)

	_, err := p.Execute(ctx, `INSERT INTO actor (first_name, last_name) VALUES (?, ?), (?, ?)`, []value.Value{
		value.Text("PENELOPE"), value.Text("GUINESS"), value.Text("NICK"), value.Text("WAHLBERG"),
	})
	require.NoError(t, err)

	rows, err := p.Execute(ctx, `SELECT actor_id, first_name FROM actor ORDER BY actor_id`, nil)
	require.NoError(t, err)

	var names []string
	for d := range rows.All() {
		id, err := dao.Get[int64](d, "actor_id")
		require.NoError(t, err)
		assert.Positive(t, id)
		name, err := dao.Get[string](d, "first_name")
		require.NoError(t, err)
		names = append(names, name)
	}
	assert.Equal(t, []string{"PENELOPE", "NICK"}, names)
}
