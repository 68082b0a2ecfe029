package sqlite

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kadirbelkuyu/unisql/internal/dao"
	"github.com/kadirbelkuyu/unisql/internal/dberr"
	"github.com/kadirbelkuyu/unisql/internal/literal"
	"github.com/kadirbelkuyu/unisql/internal/schema"
	"github.com/kadirbelkuyu/unisql/internal/value"
)

const defaultSchema = "main"

const (
	columnsSQL = `
		SELECT name, type, "notnull" AS not_null, dflt_value AS default_value, pk
		FROM pragma_table_info(?, ?)
		ORDER BY cid`

	indexListSQL = `
		SELECT name, "unique" AS is_unique, origin
		FROM pragma_index_list(?, ?)
		ORDER BY name`

	indexInfoSQL = `
		SELECT name
		FROM pragma_index_info(?, ?)
		ORDER BY seqno`

	foreignKeysSQL = `
		SELECT id, "table" AS foreign_table, "from" AS from_column, "to" AS to_column
		FROM pragma_foreign_key_list(?, ?)
		ORDER BY id, seq`

	databasesSQL = `SELECT name, file FROM pragma_database_list ORDER BY seq`
)

func masterSQL(schemaName string) string {
	return fmt.Sprintf(`SELECT type, sql FROM %s.sqlite_master WHERE name = ? AND type IN ('table', 'view')`, QuoteIdent(schemaName))
}

func tablesSQL(schemaName string) string {
	return fmt.Sprintf(`
		SELECT name, type FROM %s.sqlite_master
		WHERE type IN ('table', 'view') AND name NOT LIKE 'sqlite_%%'
		ORDER BY name`, QuoteIdent(schemaName))
}

// indexKey is one entry of pragma_index_list with its columns.
type indexKey struct {
	Name    string
	Unique  bool
	Origin  string
	Columns []string
}

// GetTable reflects one table or view. A schema-less name is looked up in
// main.
func (p *Platform) GetTable(ctx context.Context, name schema.TableName) (schema.Table, error) {
	schemaName := name.SchemaOr(defaultSchema)
	qualified := schema.NewTableName(schemaName, name.Name)
	params := []value.Value{value.Text(name.Name), value.Text(schemaName)}

	master, err := p.Execute(ctx, masterSQL(schemaName), []value.Value{value.Text(name.Name)})
	if err != nil {
		return schema.Table{}, err
	}
	metaRows := master.Daos()
	if len(metaRows) == 0 {
		return schema.Table{}, fmt.Errorf("table %s: %w", qualified.CompleteName(), &dberr.DataError{Kind: dberr.ZeroRecordReturned, SQL: masterSQL(schemaName)})
	}
	kind, err := dao.Get[string](metaRows[0], "type")
	if err != nil {
		return schema.Table{}, err
	}

	columnRows, err := p.Execute(ctx, columnsSQL, params)
	if err != nil {
		return schema.Table{}, err
	}
	columns, primary, err := buildColumns(name.Name, columnRows.Daos())
	if err != nil {
		return schema.Table{}, fmt.Errorf("table %s: %w", qualified.CompleteName(), err)
	}

	indexes, err := p.indexes(ctx, schemaName, params)
	if err != nil {
		return schema.Table{}, err
	}
	fkRows, err := p.Execute(ctx, foreignKeysSQL, params)
	if err != nil {
		return schema.Table{}, err
	}
	keys, err := buildKeys(name.Name, schemaName, primary, indexes, fkRows.Daos())
	if err != nil {
		return schema.Table{}, fmt.Errorf("table %s: %w", qualified.CompleteName(), err)
	}

	return schema.Table{
		Name:    qualified,
		Columns: columns,
		IsView:  kind == "view",
		Keys:    keys,
	}, nil
}

func (p *Platform) indexes(ctx context.Context, schemaName string, params []value.Value) ([]indexKey, error) {
	list, err := p.Execute(ctx, indexListSQL, params)
	if err != nil {
		return nil, err
	}
	var indexes []indexKey
	for d := range list.All() {
		idx, err := buildIndex(d)
		if err != nil {
			return nil, err
		}
		info, err := p.Execute(ctx, indexInfoSQL, []value.Value{value.Text(idx.Name), value.Text(schemaName)})
		if err != nil {
			return nil, err
		}
		for cd := range info.All() {
			col, err := dao.Get[string](cd, "name")
			if err != nil {
				return nil, err
			}
			idx.Columns = append(idx.Columns, col)
		}
		indexes = append(indexes, idx)
	}
	return indexes, nil
}

func buildIndex(d dao.Dao) (indexKey, error) {
	name, err := dao.Get[string](d, "name")
	if err != nil {
		return indexKey{}, err
	}
	unique, err := dao.Get[int64](d, "is_unique")
	if err != nil {
		return indexKey{}, err
	}
	origin, _ := dao.Get[string](d, "origin")
	return indexKey{Name: name, Unique: unique != 0, Origin: origin}, nil
}

// buildColumns also returns the primary key columns in key order.
func buildColumns(table string, rows []dao.Dao) ([]schema.Column, []string, error) {
	type pkColumn struct {
		name  string
		order int64
		typ   string
	}
	var pks []pkColumn
	columns := make([]schema.Column, 0, len(rows))

	for _, d := range rows {
		name, err := dao.Get[string](d, "name")
		if err != nil {
			return nil, nil, err
		}
		declared, err := dao.Get[string](d, "type")
		if err != nil {
			return nil, nil, err
		}
		notNull, _ := dao.Get[int64](d, "not_null")
		pk, _ := dao.Get[int64](d, "pk")

		bare, capacity := splitDeclared(declared)
		typ := lookupType(bare)
		col := schema.Column{
			Table: table,
			Name:  name,
			Specification: schema.ColumnSpecification{
				SQLType:  typ,
				Capacity: capacity,
			},
		}
		if notNull != 0 {
			col.Specification.Constraints = append(col.Specification.Constraints, literal.NotNullConstraint())
		}
		if def, _ := dao.GetOptional[string](d, "default_value"); def != nil {
			constraint, err := literal.ParseDefault(*def, typ)
			if err != nil {
				return nil, nil, fmt.Errorf("default of %s.%s: %w", table, name, err)
			}
			col.Specification.Constraints = append(col.Specification.Constraints, constraint)
		}
		if pk > 0 {
			pks = append(pks, pkColumn{name: name, order: pk, typ: declared})
		}
		columns = append(columns, col)
	}

	sort.Slice(pks, func(i, j int) bool { return pks[i].order < pks[j].order })
	primary := make([]string, len(pks))
	for i, pk := range pks {
		primary[i] = pk.name
	}

	// A lone INTEGER PRIMARY KEY aliases the rowid and is filled in on insert.
	if len(pks) == 1 && strings.EqualFold(strings.TrimSpace(pks[0].typ), "integer") {
		for i := range columns {
			if columns[i].Name == pks[0].name {
				columns[i].Specification.Constraints = append(columns[i].Specification.Constraints, literal.AutoIncrementConstraint())
			}
		}
	}
	return columns, primary, nil
}

func buildKeys(table, schemaName string, primary []string, indexes []indexKey, fkRows []dao.Dao) ([]schema.TableKey, error) {
	var keys []schema.TableKey
	if len(primary) > 0 {
		keys = append(keys, schema.TableKey{Kind: schema.PrimaryKey, Name: table + "_pkey", Columns: primary})
	}
	for _, idx := range indexes {
		switch {
		case idx.Origin == "pk":
			continue
		case idx.Unique:
			keys = append(keys, schema.TableKey{Kind: schema.UniqueKey, Name: idx.Name, Columns: idx.Columns})
		default:
			keys = append(keys, schema.TableKey{Kind: schema.Key, Name: idx.Name, Columns: idx.Columns})
		}
	}

	byID := make(map[int64]int)
	for _, d := range fkRows {
		id, err := dao.Get[int64](d, "id")
		if err != nil {
			return nil, err
		}
		foreignTable, err := dao.Get[string](d, "foreign_table")
		if err != nil {
			return nil, err
		}
		from, err := dao.Get[string](d, "from_column")
		if err != nil {
			return nil, err
		}
		to, _ := dao.GetOptional[string](d, "to_column")

		pos, ok := byID[id]
		if !ok {
			keys = append(keys, schema.TableKey{
				Kind:         schema.ForeignKey,
				Name:         fmt.Sprintf("%s_fkey_%d", table, id),
				ForeignTable: schema.NewTableName(schemaName, foreignTable),
			})
			pos = len(keys) - 1
			byID[id] = pos
		}
		keys[pos].Columns = append(keys[pos].Columns, from)
		if to != nil {
			keys[pos].ReferredColumns = append(keys[pos].ReferredColumns, *to)
		}
	}
	return keys, nil
}

func (p *Platform) GetGroupedTables(ctx context.Context) ([]schema.SchemaContent, error) {
	databases, err := p.Execute(ctx, databasesSQL, nil)
	if err != nil {
		return nil, err
	}
	var groups []schema.SchemaContent
	for d := range databases.All() {
		schemaName, err := dao.Get[string](d, "name")
		if err != nil {
			return nil, err
		}
		if schemaName == "temp" {
			continue
		}
		rows, err := p.Execute(ctx, tablesSQL(schemaName), nil)
		if err != nil {
			return nil, err
		}
		group, err := groupTables(schemaName, rows.Daos())
		if err != nil {
			return nil, err
		}
		groups = append(groups, group)
	}
	return groups, nil
}

func groupTables(schemaName string, rows []dao.Dao) (schema.SchemaContent, error) {
	group := schema.SchemaContent{Schema: schemaName}
	for _, d := range rows {
		name, err := dao.Get[string](d, "name")
		if err != nil {
			return group, err
		}
		kind, _ := dao.Get[string](d, "type")
		if kind == "view" {
			group.Views = append(group.Views, name)
		} else {
			group.Tablenames = append(group.Tablenames, name)
		}
	}
	return group, nil
}

// GetUsers is not available: SQLite has no accounts.
func (p *Platform) GetUsers(ctx context.Context) ([]schema.User, error) {
	return nil, fmt.Errorf("sqlite users: %w", dberr.ErrUnsupportedOperation)
}

func (p *Platform) GetRoles(ctx context.Context, user string) ([]schema.Role, error) {
	return nil, fmt.Errorf("sqlite roles: %w", dberr.ErrUnsupportedOperation)
}

// GetDatabaseName is the base name of the main database file, or "main" for
// an in-memory database.
func (p *Platform) GetDatabaseName(ctx context.Context) (string, error) {
	rows, err := p.Execute(ctx, databasesSQL, nil)
	if err != nil {
		return "", err
	}
	for d := range rows.All() {
		name, _ := dao.Get[string](d, "name")
		if name != defaultSchema {
			continue
		}
		file, _ := dao.GetOptional[string](d, "file")
		if file == nil || *file == "" {
			return defaultSchema, nil
		}
		base := filepath.Base(*file)
		return strings.TrimSuffix(base, filepath.Ext(base)), nil
	}
	return "", &dberr.DataError{Kind: dberr.ZeroRecordReturned, SQL: databasesSQL}
}
