// Package database selects a backend from a connection URL and puts a single
// interface in front of the three platforms.
package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/kadirbelkuyu/unisql/internal/dao"
	"github.com/kadirbelkuyu/unisql/internal/database/mysql"
	"github.com/kadirbelkuyu/unisql/internal/database/postgres"
	"github.com/kadirbelkuyu/unisql/internal/database/sqlite"
	"github.com/kadirbelkuyu/unisql/internal/dberr"
	"github.com/kadirbelkuyu/unisql/internal/schema"
	"github.com/kadirbelkuyu/unisql/internal/value"
)

// Platform is what every backend offers: statement execution through its
// codec plus catalog reflection.
type Platform interface {
	Name() string
	Execute(ctx context.Context, sql string, params []value.Value) (*dao.Rows, error)
	GetTable(ctx context.Context, name schema.TableName) (schema.Table, error)
	GetGroupedTables(ctx context.Context) ([]schema.SchemaContent, error)
	GetUsers(ctx context.Context) ([]schema.User, error)
	GetRoles(ctx context.Context, user string) ([]schema.Role, error)
	GetDatabaseName(ctx context.Context) (string, error)
	Dialect() schema.Dialect
	Close() error
}

var (
	_ Platform = (*postgres.Platform)(nil)
	_ Platform = (*mysql.Platform)(nil)
	_ Platform = (*sqlite.Platform)(nil)
)

// Scheme returns the normalized platform name for a connection URL.
func Scheme(rawURL string) (string, error) {
	scheme, _, ok := strings.Cut(rawURL, ":")
	if !ok || scheme == "" {
		return "", &dberr.ConnectError{Kind: dberr.UnsupportedScheme, URL: rawURL, Err: fmt.Errorf("missing scheme")}
	}
	switch strings.ToLower(scheme) {
	case "postgres", "postgresql":
		return postgres.Name, nil
	case "mysql":
		return mysql.Name, nil
	case "sqlite", "sqlite3", "file":
		return sqlite.Name, nil
	}
	return "", &dberr.ConnectError{Kind: dberr.UnsupportedScheme, URL: rawURL, Err: fmt.Errorf("unsupported scheme %q", scheme)}
}

// Open connects to the backend named by the URL scheme.
func Open(ctx context.Context, rawURL string) (Platform, error) {
	name, err := Scheme(rawURL)
	if err != nil {
		return nil, err
	}

	// Each branch checks err itself so a failed open never yields a non-nil
	// interface around a nil pointer.
	switch name {
	case postgres.Name:
		p, err := postgres.Open(ctx, rawURL)
		if err != nil {
			return nil, err
		}
		return p, nil
	case mysql.Name:
		p, err := mysql.Open(ctx, rawURL)
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		if strings.HasPrefix(rawURL, "sqlite3:") {
			rawURL = sqlite.Name + strings.TrimPrefix(rawURL, "sqlite3")
		}
		p, err := sqlite.Open(ctx, rawURL)
		if err != nil {
			return nil, err
		}
		return p, nil
	}
}
