package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	driver "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/kadirbelkuyu/unisql/internal/dao"
	"github.com/kadirbelkuyu/unisql/internal/dberr"
	"github.com/kadirbelkuyu/unisql/internal/schema"
	"github.com/kadirbelkuyu/unisql/internal/value"
)

const Name = "sqlite"

const memory = ":memory:"

// Platform holds a single connection: an in-memory database lives and dies
// with its connection, and SQLite serializes writers anyway.
type Platform struct {
	db    *sql.DB
	codec *Codec
}

// DSN turns sqlite:path, sqlite:///abs/path, sqlite::memory: or a file: URI
// into a driver DSN with foreign keys enforced.
func DSN(rawURL string) (string, error) {
	var dsn string
	switch {
	case strings.HasPrefix(rawURL, "file:"):
		dsn = rawURL
	case strings.HasPrefix(rawURL, Name+":"):
		dsn = strings.TrimPrefix(rawURL, Name+":")
		if strings.HasPrefix(dsn, "//") {
			dsn = strings.TrimPrefix(dsn, "//")
		}
		if dsn == "" {
			dsn = memory
		}
	default:
		return "", fmt.Errorf("unexpected sqlite url %q", rawURL)
	}

	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=foreign_keys(1)", nil
}

func Open(ctx context.Context, rawURL string) (*Platform, error) {
	dsn, err := DSN(rawURL)
	if err != nil {
		return nil, &dberr.ConnectError{Kind: dberr.ConnectFailed, URL: rawURL, Err: err}
	}
	db, err := sql.Open(Name, dsn)
	if err != nil {
		return nil, &dberr.ConnectError{Kind: dberr.ConnectFailed, URL: rawURL, Err: err}
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, &dberr.ConnectError{Kind: dberr.ConnectFailed, URL: rawURL, Err: fmt.Errorf("failed to open SQLite database: %w", err)}
	}
	return &Platform{db: db, codec: NewCodec()}, nil
}

func (p *Platform) Name() string { return Name }

func (p *Platform) Codec() *Codec { return p.codec }

func (p *Platform) Execute(ctx context.Context, query string, params []value.Value) (*dao.Rows, error) {
	args := make([]any, len(params))
	for i, param := range params {
		native, err := p.codec.Encode(param)
		if err != nil {
			return nil, p.wrap(query, fmt.Errorf("parameter %d: %w", i+1, err))
		}
		args[i] = native
	}

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, p.wrap(query, err)
	}
	defer rows.Close()

	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, p.wrap(query, err)
	}
	columns := make([]string, len(types))
	declared := make([]string, len(types))
	for i, ct := range types {
		columns[i] = ct.Name()
		declared[i] = ct.DatabaseTypeName()
	}

	result := dao.NewRows(columns)
	cells := make([]any, len(types))
	dest := make([]any, len(types))
	for i := range cells {
		dest[i] = &cells[i]
	}
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, p.wrap(query, err)
		}
		row := make([]value.Value, len(types))
		for i, cell := range cells {
			v, err := p.codec.Decode(cell, declared[i])
			if err != nil {
				return nil, p.wrap(query, fmt.Errorf("column %q: %w", columns[i], err))
			}
			row[i] = v
		}
		result.Push(row)
	}
	if err := rows.Err(); err != nil {
		return nil, p.wrap(query, err)
	}
	return result, nil
}

func (p *Platform) wrap(query string, err error) error {
	var sqliteErr *driver.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY {
		err = fmt.Errorf("%w (foreign key constraint)", err)
	}
	return &dberr.PlatformError{Platform: Name, SQL: query, Err: err}
}

// QuoteIdent quotes ident with double quotes, doubling embedded ones.
func QuoteIdent(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

// Dialect has no auto-increment clause: an INTEGER PRIMARY KEY column already
// aliases the rowid.
func (p *Platform) Dialect() schema.Dialect {
	return schema.Dialect{Quote: QuoteIdent}
}

func (p *Platform) Close() error {
	return p.db.Close()
}
