package database_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadirbelkuyu/unisql/internal/dao"
	"github.com/kadirbelkuyu/unisql/internal/database"
	"github.com/kadirbelkuyu/unisql/internal/dberr"
	"github.com/kadirbelkuyu/unisql/internal/schema"
	"github.com/kadirbelkuyu/unisql/internal/value"
	"github.com/kadirbelkuyu/unisql/pkg/logger"
)

func TestScheme(t *testing.T) {
	cases := map[string]string{
		"postgres://u:p@localhost/sakila":    "postgres",
		"postgresql://localhost/sakila":      "postgres",
		"mysql://root@127.0.0.1:3306/sakila": "mysql",
		"sqlite::memory:":                    "sqlite",
		"sqlite3:sakila.db":                  "sqlite",
		"file:sakila.db?mode=ro":             "sqlite",
	}
	for url, want := range cases {
		got, err := database.Scheme(url)
		require.NoError(t, err, url)
		assert.Equal(t, want, got, url)
	}
}

func TestOpenRejectsUnknownScheme(t *testing.T) {
	for _, url := range []string{"mongodb://localhost/db", "no-scheme-here"} {
		_, err := database.Open(context.Background(), url)
		var connectErr *dberr.ConnectError
		require.ErrorAs(t, err, &connectErr, url)
		assert.Equal(t, dberr.UnsupportedScheme, connectErr.Kind)
	}
}

func TestConnectErrorHidesPassword(t *testing.T) {
	err := &dberr.ConnectError{Kind: dberr.ConnectFailed, URL: "postgres://app:hunter2@db/sakila"}
	assert.NotContains(t, err.Error(), "hunter2")
	assert.Contains(t, err.Error(), "app:xxxxx@db")
}

func newConnection(t *testing.T) (*database.Connection, context.Context) {
	t.Helper()
	ctx := context.Background()
	conn, err := database.Connect(ctx, "sqlite::memory:", logger.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	for _, stmt := range []string{
		`CREATE TABLE category (category_id INTEGER PRIMARY KEY, name VARCHAR(25) NOT NULL)`,
		`CREATE TABLE film_category (film_id INTEGER NOT NULL, category_id INTEGER NOT NULL REFERENCES category (category_id), PRIMARY KEY (film_id, category_id))`,
		`INSERT INTO category (name) VALUES ('Action'), ('Animation')`,
	} {
		_, err := conn.ExecuteSQLWithReturn(ctx, stmt)
		require.NoError(t, err, stmt)
	}
	return conn, ctx
}

func TestConnectionSingleRowHelpers(t *testing.T) {
	conn, ctx := newConnection(t)
	assert.Equal(t, "sqlite", conn.Name())

	row, err := conn.ExecuteSQLWithOneReturn(ctx, `SELECT name FROM category WHERE category_id = ?`, value.Int(2))
	require.NoError(t, err)
	name, err := dao.Get[string](row, "name")
	require.NoError(t, err)
	assert.Equal(t, "Animation", name)

	_, err = conn.ExecuteSQLWithOneReturn(ctx, `SELECT name FROM category WHERE category_id = ?`, value.Int(99))
	var dataErr *dberr.DataError
	require.ErrorAs(t, err, &dataErr)
	assert.Equal(t, dberr.ZeroRecordReturned, dataErr.Kind)

	_, err = conn.ExecuteSQLWithOneReturn(ctx, `SELECT name FROM category`)
	require.ErrorAs(t, err, &dataErr)
	assert.Equal(t, dberr.MoreThanOneRecordReturned, dataErr.Kind)

	row, err = conn.ExecuteSQLWithMaybeOneReturn(ctx, `SELECT name FROM category WHERE name = ?`, value.Text("Drama"))
	require.NoError(t, err)
	assert.Nil(t, row)

	_, err = conn.ExecuteSQLWithMaybeOneReturn(ctx, `SELECT name FROM category`)
	require.ErrorAs(t, err, &dataErr)
}

func TestConnectionReflection(t *testing.T) {
	conn, ctx := newConnection(t)

	names, err := conn.GetTableNames(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []schema.TableName{
		schema.NewTableName("main", "category"),
		schema.NewTableName("main", "film_category"),
	}, names)

	none, err := conn.GetTableNames(ctx, "archive")
	require.NoError(t, err)
	assert.Empty(t, none)

	var seen []string
	tables, err := conn.GetAllTables(ctx, "", func(name schema.TableName) {
		seen = append(seen, name.Name)
	})
	require.NoError(t, err)
	require.Len(t, tables, 2)
	assert.Equal(t, []string{"category", "film_category"}, seen)
	assert.Equal(t, []string{"film_id", "category_id"}, tables[1].PrimaryColumnNames())
	assert.Len(t, tables[1].ForeignKeys(), 1)

	dbName, err := conn.GetDatabaseName(ctx)
	require.NoError(t, err)
	assert.Equal(t, "main", dbName)

	_, err = conn.GetTable(ctx, schema.TableName{Name: "rental"})
	var dataErr *dberr.DataError
	require.ErrorAs(t, err, &dataErr)
}

func TestPool(t *testing.T) {
	ctx := context.Background()
	pool := database.NewPool(0, logger.Discard())
	const url = "sqlite::memory:"

	_, err := pool.Connect(ctx, url)
	var connectErr *dberr.ConnectError
	require.ErrorAs(t, err, &connectErr)
	assert.Equal(t, dberr.NoSuchPool, connectErr.Kind)

	first, err := pool.Ensure(ctx, url)
	require.NoError(t, err)
	again, err := pool.Ensure(ctx, url)
	require.NoError(t, err)
	assert.Same(t, first, again)

	conn, err := pool.Connect(ctx, url)
	require.NoError(t, err)
	assert.Same(t, first, conn)

	_, err = pool.Ensure(ctx, "oracle://scott@tiger/orcl")
	require.ErrorAs(t, err, &connectErr)
	assert.Equal(t, dberr.UnsupportedScheme, connectErr.Kind)

	require.NoError(t, pool.Close())
	_, err = pool.Connect(ctx, url)
	require.ErrorAs(t, err, &connectErr)
}
