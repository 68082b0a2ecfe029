package database

import (
	"context"
	"fmt"

	"github.com/kadirbelkuyu/unisql/internal/dao"
	"github.com/kadirbelkuyu/unisql/internal/dberr"
	"github.com/kadirbelkuyu/unisql/internal/schema"
	"github.com/kadirbelkuyu/unisql/internal/value"
	"github.com/kadirbelkuyu/unisql/pkg/logger"
)

// Connection wraps a Platform with statement logging, single-row helpers
// and the multi-table reflection calls.
type Connection struct {
	platform  Platform
	logger    *logger.Logger
	extractor *schema.Extractor
}

func NewConnection(platform Platform, log *logger.Logger) *Connection {
	if log == nil {
		log = logger.Discard()
	}
	return &Connection{
		platform:  platform,
		logger:    log,
		extractor: schema.NewExtractor(platform, log),
	}
}

// Connect opens the platform named by the URL scheme and wraps it.
func Connect(ctx context.Context, rawURL string, log *logger.Logger) (*Connection, error) {
	platform, err := Open(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	conn := NewConnection(platform, log)
	conn.logger.WithPlatform(platform.Name()).Debugf("Connected to %s", dberr.Redact(rawURL))
	return conn, nil
}

func (c *Connection) Platform() Platform {
	return c.platform
}

func (c *Connection) Name() string {
	return c.platform.Name()
}

func (c *Connection) Dialect() schema.Dialect {
	return c.platform.Dialect()
}

func (c *Connection) Close() error {
	return c.platform.Close()
}

// ExecuteSQLWithReturn runs sql and materializes every row.
func (c *Connection) ExecuteSQLWithReturn(ctx context.Context, sql string, params ...value.Value) (*dao.Rows, error) {
	c.logger.WithPlatform(c.platform.Name()).WithField("sql", sql).Debug("Executing statement")
	rows, err := c.platform.Execute(ctx, sql, params)
	if err != nil {
		return nil, err
	}
	c.logger.WithPlatform(c.platform.Name()).Debugf("%d rows returned", rows.Len())
	return rows, nil
}

// ExecuteSQLWithOneReturn expects exactly one row.
func (c *Connection) ExecuteSQLWithOneReturn(ctx context.Context, sql string, params ...value.Value) (dao.Dao, error) {
	row, err := c.ExecuteSQLWithMaybeOneReturn(ctx, sql, params...)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, &dberr.DataError{Kind: dberr.ZeroRecordReturned, SQL: sql}
	}
	return row, nil
}

// ExecuteSQLWithMaybeOneReturn returns a nil Dao when sql yields no row.
func (c *Connection) ExecuteSQLWithMaybeOneReturn(ctx context.Context, sql string, params ...value.Value) (dao.Dao, error) {
	rows, err := c.ExecuteSQLWithReturn(ctx, sql, params...)
	if err != nil {
		return nil, err
	}
	daos := rows.Daos()
	switch len(daos) {
	case 0:
		return nil, nil
	case 1:
		return daos[0], nil
	}
	return nil, &dberr.DataError{Kind: dberr.MoreThanOneRecordReturned, SQL: sql}
}

func (c *Connection) GetTable(ctx context.Context, name schema.TableName) (schema.Table, error) {
	c.logger.WithPlatform(c.platform.Name()).Debugf("Reflecting %s", name.CompleteName())
	table, err := c.platform.GetTable(ctx, name)
	if err != nil {
		return schema.Table{}, fmt.Errorf("failed to reflect %s: %w", name.CompleteName(), err)
	}
	return table, nil
}

// GetTableNames lists tables and views, restricted to schemaFilter when it is
// not empty.
func (c *Connection) GetTableNames(ctx context.Context, schemaFilter string) ([]schema.TableName, error) {
	return c.extractor.ExtractTableNames(ctx, schemaFilter)
}

// GetAllTables reflects every table. Tables that fail are reported in the
// joined error while the rest are still returned.
func (c *Connection) GetAllTables(ctx context.Context, schemaFilter string, onTable func(schema.TableName)) ([]schema.Table, error) {
	return c.extractor.ExtractTables(ctx, schemaFilter, onTable)
}

func (c *Connection) GetGroupedTables(ctx context.Context) ([]schema.SchemaContent, error) {
	return c.platform.GetGroupedTables(ctx)
}

func (c *Connection) GetUsers(ctx context.Context) ([]schema.User, error) {
	return c.platform.GetUsers(ctx)
}

func (c *Connection) GetRoles(ctx context.Context, user string) ([]schema.Role, error) {
	return c.platform.GetRoles(ctx, user)
}

func (c *Connection) GetDatabaseName(ctx context.Context) (string, error) {
	return c.platform.GetDatabaseName(ctx)
}
