package app_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadirbelkuyu/unisql/internal/app"
	"github.com/kadirbelkuyu/unisql/internal/database"
	"github.com/kadirbelkuyu/unisql/internal/dberr"
	"github.com/kadirbelkuyu/unisql/internal/schema"
	"github.com/kadirbelkuyu/unisql/pkg/logger"
)

func newSakila(t *testing.T) (*database.Connection, context.Context) {
	t.Helper()
	ctx := context.Background()
	conn, err := database.Connect(ctx, "sqlite::memory:", logger.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	for _, stmt := range []string{
		`CREATE TABLE category (category_id INTEGER PRIMARY KEY, name VARCHAR(25) NOT NULL)`,
		`CREATE TABLE film_category (film_id INTEGER NOT NULL, category_id INTEGER NOT NULL REFERENCES category (category_id), PRIMARY KEY (film_id, category_id))`,
		`CREATE VIEW category_names AS SELECT name FROM category`,
		`INSERT INTO category (name) VALUES ('Action'), ('Animation')`,
	} {
		_, err := conn.ExecuteSQLWithReturn(ctx, stmt)
		require.NoError(t, err, stmt)
	}
	return conn, ctx
}

func TestParseTableName(t *testing.T) {
	assert.True(t, schema.NewTableName("public", "film").Equal(app.ParseTableName("public.film")))
	assert.True(t, schema.NewTableName("public", "film").Equal(app.ParseTableName(` "public"."film" `)))
	assert.True(t, schema.TableName{Name: "film"}.Equal(app.ParseTableName("film")))
	assert.True(t, schema.TableName{Name: "odd.name"}.Equal(app.ParseTableName(`"odd.name"`)))
}

func TestServiceListTables(t *testing.T) {
	conn, ctx := newSakila(t)
	var out bytes.Buffer
	svc := app.NewService(&out, nil)

	require.NoError(t, svc.ListTables(ctx, conn, ""))
	assert.Contains(t, out.String(), "main")
	assert.Contains(t, out.String(), "  category\n")
	assert.Contains(t, out.String(), "  category_names (view)")
	assert.Contains(t, out.String(), "Total tables: 3")

	out.Reset()
	require.NoError(t, svc.ListTables(ctx, conn, "archive"))
	assert.Contains(t, out.String(), "Total tables: 0")
}

func TestServiceDescribe(t *testing.T) {
	conn, ctx := newSakila(t)
	var out bytes.Buffer
	svc := app.NewService(&out, nil)

	require.NoError(t, svc.Describe(ctx, conn, schema.NewTableName("main", "film_category"), false))
	assert.Contains(t, out.String(), "Table main.film_category")
	assert.Contains(t, out.String(), "REFERENCES main.category (category_id)")

	out.Reset()
	require.NoError(t, svc.Describe(ctx, conn, app.ParseTableName("main.film_category"), true))
	assert.Contains(t, out.String(), `CREATE TABLE "main"."film_category"`)
	assert.Contains(t, out.String(), `PRIMARY KEY ("film_id", "category_id")`)
	assert.Contains(t, out.String(), `FOREIGN KEY ("category_id") REFERENCES "main"."category" ("category_id");`)

	err := svc.Describe(ctx, conn, app.ParseTableName("main.missing"), false)
	var dataErr *dberr.DataError
	assert.ErrorAs(t, err, &dataErr)
}

func TestServiceDescribeAll(t *testing.T) {
	conn, ctx := newSakila(t)
	var out bytes.Buffer
	svc := app.NewService(&out, nil).WithoutProgress()

	require.NoError(t, svc.DescribeAll(ctx, conn, "", false))
	assert.Contains(t, out.String(), "Table main.category")
	assert.Contains(t, out.String(), "Table main.film_category")
}

func TestServiceQuery(t *testing.T) {
	conn, ctx := newSakila(t)
	var out bytes.Buffer
	svc := app.NewService(&out, nil)

	require.NoError(t, svc.Query(ctx, conn, `SELECT category_id, name FROM category WHERE name = ?`, []string{"Animation"}))
	assert.Contains(t, out.String(), "category_id")
	assert.Contains(t, out.String(), "Animation")
	assert.Contains(t, out.String(), "(1 rows)")

	assert.Error(t, svc.Query(ctx, conn, `SELEC 1`, nil))
}

func TestServiceUsersUnsupported(t *testing.T) {
	conn, ctx := newSakila(t)
	svc := app.NewService(&bytes.Buffer{}, nil)

	assert.ErrorIs(t, svc.Users(ctx, conn), dberr.ErrUnsupportedOperation)
	assert.ErrorIs(t, svc.Roles(ctx, conn, "root"), dberr.ErrUnsupportedOperation)
}

func TestShell(t *testing.T) {
	conn, ctx := newSakila(t)
	var out bytes.Buffer
	script := strings.Join([]string{
		`\dt`,
		`SELECT name`,
		`FROM category`,
		`WHERE category_id = 1;`,
		`SELEC broken;`,
		`\d`,
		`\d main.category`,
		`\nope`,
		`\q`,
		`SELECT 'never reached';`,
	}, "\n")

	shell := app.NewShell(conn, app.NewService(&out, nil), strings.NewReader(script), &out)
	require.NoError(t, shell.Run(ctx))

	got := out.String()
	assert.Contains(t, got, "Total tables: 3")
	assert.Contains(t, got, "Action")
	assert.Contains(t, got, "(1 rows)")
	assert.Contains(t, got, "ERROR:")
	assert.Contains(t, got, `usage: \d <table>`)
	assert.Contains(t, got, "Table main.category")
	assert.Contains(t, got, `unknown command \nope`)
	assert.NotContains(t, got, "never reached")
}

func TestShellStopsAtEndOfInput(t *testing.T) {
	conn, ctx := newSakila(t)
	var out bytes.Buffer

	shell := app.NewShell(conn, app.NewService(&out, nil), strings.NewReader("SELECT COUNT(*) AS n FROM category;"), &out)
	require.NoError(t, shell.Run(ctx))
	assert.Contains(t, out.String(), "(1 rows)")
}

func TestApplicationManualSQLite(t *testing.T) {
	dir := t.TempDir()
	var out bytes.Buffer
	input := strings.Join([]string{
		"3", // sqlite
		"",  // :memory:
		"y", // save
		"local-db",
		"2", // list tables
		"9", // invalid
		"6", // exit
	}, "\n") + "\n"

	application := app.NewApplication(strings.NewReader(input), &out, dir, nil, nil)
	require.NoError(t, application.RunInteractive(context.Background()))

	got := out.String()
	assert.Contains(t, got, "Connected to sqlite")
	assert.Contains(t, got, "Total tables: 0")
	assert.Contains(t, got, "Invalid selection")
	assert.Contains(t, got, "Exiting interactive mode.")

	_, err := os.Stat(filepath.Join(dir, "local-db.yaml"))
	assert.NoError(t, err)
}

func TestApplicationUsesSavedProfile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "scratch.yaml"), []byte("database:\n  type: sqlite\n  path: \":memory:\"\n"), 0o600))

	var out bytes.Buffer
	application := app.NewApplication(strings.NewReader("1\n4\n"), &out, dir, nil, nil)
	require.NoError(t, application.RunInteractive(context.Background()))

	got := out.String()
	assert.Contains(t, got, "1) scratch")
	assert.Contains(t, got, "Operation failed")
	assert.Contains(t, got, "Exiting interactive mode.")
}
