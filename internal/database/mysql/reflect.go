package mysql

import (
	"context"
	"fmt"
	"strings"

	"github.com/kadirbelkuyu/unisql/internal/dao"
	"github.com/kadirbelkuyu/unisql/internal/dberr"
	"github.com/kadirbelkuyu/unisql/internal/literal"
	"github.com/kadirbelkuyu/unisql/internal/schema"
	"github.com/kadirbelkuyu/unisql/internal/sqltype"
	"github.com/kadirbelkuyu/unisql/internal/value"
)

// information_schema column names come back upper-cased on MySQL 8, so every
// selected column is aliased.
const (
	tableSQL = `
		SELECT table_schema AS table_schema, table_type AS table_type, table_comment AS comment
		FROM information_schema.tables
		WHERE table_schema = COALESCE(?, DATABASE()) AND table_name = ?`

	columnsSQL = `
		SELECT
			column_name AS name,
			data_type AS data_type,
			column_type AS column_type,
			is_nullable AS is_nullable,
			column_default AS default_value,
			column_comment AS comment,
			extra AS extra
		FROM information_schema.columns
		WHERE table_schema = COALESCE(?, DATABASE()) AND table_name = ?
		ORDER BY ordinal_position`

	keysSQL = `
		SELECT
			tc.constraint_name AS name,
			tc.constraint_type AS kind,
			GROUP_CONCAT(k.column_name ORDER BY k.ordinal_position SEPARATOR ',') AS columns,
			MAX(k.referenced_table_schema) AS foreign_schema,
			MAX(k.referenced_table_name) AS foreign_table,
			GROUP_CONCAT(k.referenced_column_name ORDER BY k.ordinal_position SEPARATOR ',') AS referred_columns
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage k
			ON k.constraint_schema = tc.constraint_schema
			AND k.constraint_name = tc.constraint_name
			AND k.table_name = tc.table_name
		WHERE tc.table_schema = COALESCE(?, DATABASE()) AND tc.table_name = ?
			AND tc.constraint_type IN ('PRIMARY KEY', 'UNIQUE', 'FOREIGN KEY')
		GROUP BY tc.constraint_name, tc.constraint_type
		ORDER BY FIELD(tc.constraint_type, 'PRIMARY KEY', 'UNIQUE', 'FOREIGN KEY'), tc.constraint_name`

	indexesSQL = `
		SELECT
			index_name AS name,
			GROUP_CONCAT(column_name ORDER BY seq_in_index SEPARATOR ',') AS columns
		FROM information_schema.statistics
		WHERE table_schema = COALESCE(?, DATABASE()) AND table_name = ? AND non_unique = 1
		GROUP BY index_name
		ORDER BY index_name`

	groupedTablesSQL = `
		SELECT table_schema AS schema_name, table_name AS name, table_type AS table_type
		FROM information_schema.tables
		WHERE table_schema NOT IN ('mysql', 'information_schema', 'performance_schema', 'sys')
		ORDER BY table_schema, table_name`

	usersSQL = `
		SELECT
			user AS username,
			super_priv AS super_priv,
			create_priv AS create_priv,
			create_user_priv AS create_user_priv,
			repl_slave_priv AS repl_priv,
			account_locked AS account_locked,
			max_user_connections AS max_connections
		FROM mysql.user
		ORDER BY user`

	rolesSQL = `
		SELECT from_user AS role_name
		FROM mysql.role_edges
		WHERE to_user = ?
		ORDER BY from_user`

	databaseNameSQL = `SELECT DATABASE() AS name`
)

func schemaParam(name schema.TableName) value.Value {
	if name.Schema == nil {
		return value.Nil()
	}
	return value.Text(*name.Schema)
}

// GetTable reflects one table or view. A schema-less name is looked up in
// the connection's current database.
func (p *Platform) GetTable(ctx context.Context, name schema.TableName) (schema.Table, error) {
	params := []value.Value{schemaParam(name), value.Text(name.Name)}

	meta, err := p.Execute(ctx, tableSQL, params)
	if err != nil {
		return schema.Table{}, err
	}
	metaRows := meta.Daos()
	if len(metaRows) == 0 {
		return schema.Table{}, fmt.Errorf("table %s: %w", name.CompleteName(), &dberr.DataError{Kind: dberr.ZeroRecordReturned, SQL: tableSQL})
	}
	schemaName, err := dao.Get[string](metaRows[0], "table_schema")
	if err != nil {
		return schema.Table{}, err
	}
	qualified := schema.NewTableName(schemaName, name.Name)

	columnRows, err := p.Execute(ctx, columnsSQL, params)
	if err != nil {
		return schema.Table{}, err
	}
	columns, err := buildColumns(name.Name, columnRows.Daos())
	if err != nil {
		return schema.Table{}, fmt.Errorf("table %s: %w", qualified.CompleteName(), err)
	}

	keyRows, err := p.Execute(ctx, keysSQL, params)
	if err != nil {
		return schema.Table{}, err
	}
	indexRows, err := p.Execute(ctx, indexesSQL, params)
	if err != nil {
		return schema.Table{}, err
	}
	keys, err := buildKeys(keyRows.Daos(), indexRows.Daos())
	if err != nil {
		return schema.Table{}, fmt.Errorf("table %s: %w", qualified.CompleteName(), err)
	}

	return buildTable(qualified, metaRows[0], columns, keys)
}

func buildTable(name schema.TableName, meta dao.Dao, columns []schema.Column, keys []schema.TableKey) (schema.Table, error) {
	tableType, err := dao.Get[string](meta, "table_type")
	if err != nil {
		return schema.Table{}, err
	}
	comment, _ := dao.GetOptional[string](meta, "comment")

	table := schema.Table{
		Name:    name,
		Columns: columns,
		IsView:  tableType == "VIEW",
		Keys:    keys,
	}
	if comment != nil {
		table.Comment = *comment
	}
	return table, nil
}

func buildColumns(table string, rows []dao.Dao) ([]schema.Column, error) {
	columns := make([]schema.Column, 0, len(rows))
	for _, d := range rows {
		col, err := buildColumn(table, d)
		if err != nil {
			return nil, err
		}
		columns = append(columns, col)
	}
	return columns, nil
}

func buildColumn(table string, d dao.Dao) (schema.Column, error) {
	name, err := dao.Get[string](d, "name")
	if err != nil {
		return schema.Column{}, err
	}
	dataType, err := dao.Get[string](d, "data_type")
	if err != nil {
		return schema.Column{}, err
	}
	columnType, err := dao.Get[string](d, "column_type")
	if err != nil {
		return schema.Column{}, err
	}
	nullable, _ := dao.Get[string](d, "is_nullable")
	extra, _ := dao.Get[string](d, "extra")

	typ, ok := lookupType(dataType, columnType)
	if !ok {
		return schema.Column{}, &dberr.UnsupportedDataTypeError{Platform: Name, Type: columnType, Context: table + "." + name}
	}
	if typ.Kind == sqltype.Enum {
		typ.EnumName = name
	}

	col := schema.Column{
		Table: table,
		Name:  name,
		Specification: schema.ColumnSpecification{
			SQLType: typ,
		},
	}
	if typ.IsText() || typ.IsBlob() || typ.Kind == sqltype.Char || typ.Kind == sqltype.Numeric {
		_, col.Specification.Capacity = schema.ExtractDatatypeWithCapacity(columnType)
	}
	if comment, _ := dao.GetOptional[string](d, "comment"); comment != nil {
		col.Comment = *comment
	}

	if nullable == "NO" {
		col.Specification.Constraints = append(col.Specification.Constraints, literal.NotNullConstraint())
	}
	if strings.Contains(strings.ToLower(extra), "auto_increment") {
		col.Specification.Constraints = append(col.Specification.Constraints, literal.AutoIncrementConstraint())
	}
	if def, _ := dao.GetOptional[string](d, "default_value"); def != nil {
		constraint, err := literal.ParseDefault(*def, typ)
		if err != nil {
			return schema.Column{}, fmt.Errorf("default of %s.%s: %w", table, name, err)
		}
		col.Specification.Constraints = append(col.Specification.Constraints, constraint)
	}
	return col, nil
}

func splitList(d dao.Dao, key string) ([]string, error) {
	s, err := dao.GetOptional[string](d, key)
	if err != nil || s == nil || *s == "" {
		return nil, err
	}
	return strings.Split(*s, ","), nil
}

func buildKeys(constraintRows, indexRows []dao.Dao) ([]schema.TableKey, error) {
	var keys []schema.TableKey
	for _, d := range constraintRows {
		name, err := dao.Get[string](d, "name")
		if err != nil {
			return nil, err
		}
		kind, err := dao.Get[string](d, "kind")
		if err != nil {
			return nil, err
		}
		columns, err := splitList(d, "columns")
		if err != nil {
			return nil, err
		}

		key := schema.TableKey{Name: name, Columns: columns}
		switch kind {
		case "PRIMARY KEY":
			key.Kind = schema.PrimaryKey
		case "UNIQUE":
			key.Kind = schema.UniqueKey
		case "FOREIGN KEY":
			key.Kind = schema.ForeignKey
			foreignSchema, _ := dao.Get[string](d, "foreign_schema")
			foreignTable, err := dao.Get[string](d, "foreign_table")
			if err != nil {
				return nil, err
			}
			key.ForeignTable = schema.NewTableName(foreignSchema, foreignTable)
			if key.ReferredColumns, err = splitList(d, "referred_columns"); err != nil {
				return nil, err
			}
		default:
			continue
		}
		keys = append(keys, key)
	}

	for _, d := range indexRows {
		name, err := dao.Get[string](d, "name")
		if err != nil {
			return nil, err
		}
		columns, err := splitList(d, "columns")
		if err != nil {
			return nil, err
		}
		keys = append(keys, schema.TableKey{Kind: schema.Key, Name: name, Columns: columns})
	}
	return keys, nil
}

func (p *Platform) GetGroupedTables(ctx context.Context) ([]schema.SchemaContent, error) {
	rows, err := p.Execute(ctx, groupedTablesSQL, nil)
	if err != nil {
		return nil, err
	}
	return groupTables(rows.Daos())
}

func groupTables(rows []dao.Dao) ([]schema.SchemaContent, error) {
	var groups []schema.SchemaContent
	for _, d := range rows {
		schemaName, err := dao.Get[string](d, "schema_name")
		if err != nil {
			return nil, err
		}
		name, err := dao.Get[string](d, "name")
		if err != nil {
			return nil, err
		}
		tableType, _ := dao.Get[string](d, "table_type")

		if len(groups) == 0 || groups[len(groups)-1].Schema != schemaName {
			groups = append(groups, schema.SchemaContent{Schema: schemaName})
		}
		group := &groups[len(groups)-1]
		if tableType == "VIEW" {
			group.Views = append(group.Views, name)
		} else {
			group.Tablenames = append(group.Tablenames, name)
		}
	}
	return groups, nil
}

func (p *Platform) GetUsers(ctx context.Context) ([]schema.User, error) {
	rows, err := p.Execute(ctx, usersSQL, nil)
	if err != nil {
		return nil, err
	}
	users := make([]schema.User, 0, rows.Len())
	for d := range rows.All() {
		user, err := buildUser(d)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

// buildUser reads a mysql.user row. Privilege columns hold 'Y' or 'N'.
func buildUser(d dao.Dao) (schema.User, error) {
	username, err := dao.Get[string](d, "username")
	if err != nil {
		return schema.User{}, err
	}
	yes := func(key string) bool {
		s, _ := dao.Get[string](d, key)
		return strings.EqualFold(s, "Y")
	}
	maxConnections, err := dao.Get[int64](d, "max_connections")
	if err != nil {
		return schema.User{}, err
	}

	return schema.User{
		Username:       username,
		IsSuperuser:    yes("super_priv"),
		CanCreateDB:    yes("create_priv"),
		CanCreateRole:  yes("create_user_priv"),
		CanLogin:       !yes("account_locked"),
		CanReplication: yes("repl_priv"),
		ConnLimit:      int32(maxConnections),
	}, nil
}

func (p *Platform) GetRoles(ctx context.Context, user string) ([]schema.Role, error) {
	rows, err := p.Execute(ctx, rolesSQL, []value.Value{value.Text(user)})
	if err != nil {
		return nil, err
	}
	roles := make([]schema.Role, 0, rows.Len())
	for d := range rows.All() {
		name, err := dao.Get[string](d, "role_name")
		if err != nil {
			return nil, err
		}
		roles = append(roles, schema.Role{RoleName: name})
	}
	return roles, nil
}

func (p *Platform) GetDatabaseName(ctx context.Context) (string, error) {
	rows, err := p.Execute(ctx, databaseNameSQL, nil)
	if err != nil {
		return "", err
	}
	for d := range rows.All() {
		name, err := dao.GetOptional[string](d, "name")
		if err != nil {
			return "", err
		}
		if name == nil {
			return "", fmt.Errorf("no database selected: %w", &dberr.DataError{Kind: dberr.ZeroRecordReturned, SQL: databaseNameSQL})
		}
		return *name, nil
	}
	return "", &dberr.DataError{Kind: dberr.ZeroRecordReturned, SQL: databaseNameSQL}
}
