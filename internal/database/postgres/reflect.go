package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/kadirbelkuyu/unisql/internal/dao"
	"github.com/kadirbelkuyu/unisql/internal/dberr"
	"github.com/kadirbelkuyu/unisql/internal/literal"
	"github.com/kadirbelkuyu/unisql/internal/schema"
	"github.com/kadirbelkuyu/unisql/internal/sqltype"
	"github.com/kadirbelkuyu/unisql/internal/value"
)

const defaultSchema = "public"

const (
	enumTypesSQL = `SELECT t.oid, t.typarray FROM pg_catalog.pg_type t WHERE t.typtype = 'e'`

	tableSQL = `
		SELECT c.relkind::text AS relkind, obj_description(c.oid, 'pg_class') AS comment
		FROM pg_catalog.pg_class c
		JOIN pg_catalog.pg_namespace n ON n.oid = c.relnamespace
		WHERE n.nspname = $1 AND c.relname = $2 AND c.relkind IN ('r', 'p', 'v', 'm', 'f')`

	columnsSQL = `
		SELECT
			a.attname::text AS name,
			format_type(a.atttypid, a.atttypmod) AS data_type,
			a.attnotnull AS not_null,
			pg_get_expr(d.adbin, d.adrelid) AS default_value,
			col_description(c.oid, a.attnum) AS comment,
			t.typtype = 'e' AS is_enum,
			COALESCE(et.typtype = 'e', false) AS is_enum_array,
			COALESCE(et.typname, t.typname)::text AS udt_name,
			COALESCE(etn.nspname, tn.nspname)::text AS udt_schema,
			a.attidentity::text AS identity,
			s.avg_width,
			s.n_distinct
		FROM pg_catalog.pg_attribute a
		JOIN pg_catalog.pg_class c ON c.oid = a.attrelid
		JOIN pg_catalog.pg_namespace n ON n.oid = c.relnamespace
		JOIN pg_catalog.pg_type t ON t.oid = a.atttypid
		JOIN pg_catalog.pg_namespace tn ON tn.oid = t.typnamespace
		LEFT JOIN pg_catalog.pg_type et ON et.oid = t.typelem AND t.typcategory = 'A'
		LEFT JOIN pg_catalog.pg_namespace etn ON etn.oid = et.typnamespace
		LEFT JOIN pg_catalog.pg_attrdef d ON d.adrelid = a.attrelid AND d.adnum = a.attnum
		LEFT JOIN pg_catalog.pg_stats s ON s.schemaname = n.nspname AND s.tablename = c.relname AND s.attname = a.attname
			AND s.inherited = (c.relkind = 'p')
		WHERE n.nspname = $1 AND c.relname = $2 AND a.attnum > 0 AND NOT a.attisdropped
		ORDER BY a.attnum`

	enumLabelsSQL = `
		SELECT e.enumlabel::text AS label
		FROM pg_catalog.pg_enum e
		JOIN pg_catalog.pg_type t ON t.oid = e.enumtypid
		JOIN pg_catalog.pg_namespace n ON n.oid = t.typnamespace
		WHERE n.nspname = $1 AND t.typname = $2
		ORDER BY e.enumsortorder`

	keysSQL = `
		SELECT
			con.conname::text AS name,
			con.contype::text AS kind,
			ARRAY(
				SELECT a.attname::text
				FROM unnest(con.conkey) WITH ORDINALITY k(attnum, ord)
				JOIN pg_catalog.pg_attribute a ON a.attrelid = con.conrelid AND a.attnum = k.attnum
				ORDER BY k.ord
			) AS columns,
			fn.nspname::text AS foreign_schema,
			fc.relname::text AS foreign_table
		FROM pg_catalog.pg_constraint con
		JOIN pg_catalog.pg_class c ON c.oid = con.conrelid
		JOIN pg_catalog.pg_namespace n ON n.oid = c.relnamespace
		LEFT JOIN pg_catalog.pg_class fc ON fc.oid = con.confrelid
		LEFT JOIN pg_catalog.pg_namespace fn ON fn.oid = fc.relnamespace
		WHERE n.nspname = $1 AND c.relname = $2 AND con.contype IN ('p', 'u', 'f')
		ORDER BY con.contype, con.conname`

	referredColumnsSQL = `
		SELECT ARRAY(
			SELECT a.attname::text
			FROM unnest(con.confkey) WITH ORDINALITY k(attnum, ord)
			JOIN pg_catalog.pg_attribute a ON a.attrelid = con.confrelid AND a.attnum = k.attnum
			ORDER BY k.ord
		) AS columns
		FROM pg_catalog.pg_constraint con
		JOIN pg_catalog.pg_class c ON c.oid = con.conrelid
		JOIN pg_catalog.pg_namespace n ON n.oid = c.relnamespace
		WHERE n.nspname = $1 AND c.relname = $2 AND con.conname = $3`

	indexesSQL = `
		SELECT
			i.relname::text AS name,
			ARRAY(
				SELECT a.attname::text
				FROM unnest(ix.indkey) WITH ORDINALITY k(attnum, ord)
				JOIN pg_catalog.pg_attribute a ON a.attrelid = ix.indrelid AND a.attnum = k.attnum
				ORDER BY k.ord
			) AS columns
		FROM pg_catalog.pg_index ix
		JOIN pg_catalog.pg_class i ON i.oid = ix.indexrelid
		JOIN pg_catalog.pg_class c ON c.oid = ix.indrelid
		JOIN pg_catalog.pg_namespace n ON n.oid = c.relnamespace
		WHERE n.nspname = $1 AND c.relname = $2 AND NOT ix.indisunique AND NOT ix.indisprimary
		ORDER BY i.relname`

	groupedTablesSQL = `
		SELECT n.nspname::text AS schema, c.relname::text AS name, c.relkind IN ('v', 'm') AS is_view
		FROM pg_catalog.pg_class c
		JOIN pg_catalog.pg_namespace n ON n.oid = c.relnamespace
		WHERE c.relkind IN ('r', 'p', 'v', 'm', 'f')
			AND n.nspname NOT IN ('pg_catalog', 'information_schema')
			AND n.nspname NOT LIKE 'pg_toast%'
		ORDER BY n.nspname, c.relname`

	usersSQL = `
		SELECT rolname::text AS username, rolsuper, rolinherit, rolcreatedb, rolcreaterole,
			rolcanlogin, rolreplication, rolbypassrls, rolvaliduntil, rolconnlimit
		FROM pg_catalog.pg_roles
		WHERE rolname !~ '^pg_'
		ORDER BY rolname`

	rolesSQL = `
		SELECT r.rolname::text AS role_name
		FROM pg_catalog.pg_auth_members m
		JOIN pg_catalog.pg_roles r ON r.oid = m.roleid
		JOIN pg_catalog.pg_roles u ON u.oid = m.member
		WHERE u.rolname = $1
		ORDER BY r.rolname`

	databaseNameSQL = `SELECT current_database()::text AS name`
)

// GetTable reflects one table or view. A schema-less name is looked up in
// public.
func (p *Platform) GetTable(ctx context.Context, name schema.TableName) (schema.Table, error) {
	schemaName := name.SchemaOr(defaultSchema)
	params := []value.Value{value.Text(schemaName), value.Text(name.Name)}
	qualified := schema.NewTableName(schemaName, name.Name)

	meta, err := p.Execute(ctx, tableSQL, params)
	if err != nil {
		return schema.Table{}, err
	}
	metaRows := meta.Daos()
	if len(metaRows) == 0 {
		return schema.Table{}, fmt.Errorf("table %s: %w", qualified.CompleteName(), &dberr.DataError{Kind: dberr.ZeroRecordReturned, SQL: tableSQL})
	}

	columnRows, err := p.Execute(ctx, columnsSQL, params)
	if err != nil {
		return schema.Table{}, err
	}
	enums, err := p.enumChoices(ctx, columnRows.Daos())
	if err != nil {
		return schema.Table{}, err
	}
	columns, err := buildColumns(name.Name, columnRows.Daos(), enums)
	if err != nil {
		return schema.Table{}, fmt.Errorf("table %s: %w", qualified.CompleteName(), err)
	}

	keyRows, err := p.Execute(ctx, keysSQL, params)
	if err != nil {
		return schema.Table{}, err
	}
	referred := make(map[string][]string)
	for d := range keyRows.All() {
		kind, _ := dao.Get[string](d, "kind")
		if kind != "f" {
			continue
		}
		keyName, err := dao.Get[string](d, "name")
		if err != nil {
			return schema.Table{}, err
		}
		rows, err := p.Execute(ctx, referredColumnsSQL, append(params, value.Text(keyName)))
		if err != nil {
			return schema.Table{}, err
		}
		for rd := range rows.All() {
			cols, err := dao.Get[[]string](rd, "columns")
			if err != nil {
				return schema.Table{}, err
			}
			referred[keyName] = cols
		}
	}

	indexRows, err := p.Execute(ctx, indexesSQL, params)
	if err != nil {
		return schema.Table{}, err
	}
	keys, err := buildKeys(keyRows.Daos(), indexRows.Daos(), referred)
	if err != nil {
		return schema.Table{}, fmt.Errorf("table %s: %w", qualified.CompleteName(), err)
	}

	return buildTable(qualified, metaRows[0], columns, keys)
}

func (p *Platform) enumChoices(ctx context.Context, columnRows []dao.Dao) (map[string][]string, error) {
	enums := make(map[string][]string)
	for _, d := range columnRows {
		isEnum, _ := dao.Get[bool](d, "is_enum")
		isEnumArray, _ := dao.Get[bool](d, "is_enum_array")
		if !isEnum && !isEnumArray {
			continue
		}
		udt, err := dao.Get[string](d, "udt_name")
		if err != nil {
			return nil, err
		}
		udtSchema, err := dao.Get[string](d, "udt_schema")
		if err != nil {
			return nil, err
		}
		key := enumKey(udtSchema, udt)
		if _, seen := enums[key]; seen {
			continue
		}
		rows, err := p.Execute(ctx, enumLabelsSQL, []value.Value{value.Text(udtSchema), value.Text(udt)})
		if err != nil {
			return nil, err
		}
		labels := []string{}
		for ld := range rows.All() {
			label, err := dao.Get[string](ld, "label")
			if err != nil {
				return nil, err
			}
			labels = append(labels, label)
		}
		enums[key] = labels
	}
	return enums, nil
}

// enumKey qualifies an enum type name; equal names may live in several
// schemas.
func enumKey(schemaName, typeName string) string {
	return schemaName + "." + typeName
}

func buildTable(name schema.TableName, meta dao.Dao, columns []schema.Column, keys []schema.TableKey) (schema.Table, error) {
	relkind, err := dao.Get[string](meta, "relkind")
	if err != nil {
		return schema.Table{}, err
	}
	comment, err := dao.GetOptional[string](meta, "comment")
	if err != nil {
		return schema.Table{}, err
	}

	table := schema.Table{
		Name:    name,
		Columns: columns,
		IsView:  relkind == "v" || relkind == "m",
		Keys:    keys,
	}
	if comment != nil {
		table.Comment = *comment
	}
	return table, nil
}

func buildColumns(table string, rows []dao.Dao, enums map[string][]string) ([]schema.Column, error) {
	columns := make([]schema.Column, 0, len(rows))
	seen := make(map[string]bool, len(rows))
	for _, d := range rows {
		col, err := buildColumn(table, d, enums)
		if err != nil {
			return nil, err
		}
		// One attribute per name, even if pg_stats holds several rows for it.
		if seen[col.Name] {
			continue
		}
		seen[col.Name] = true
		columns = append(columns, col)
	}
	return columns, nil
}

func buildColumn(table string, d dao.Dao, enums map[string][]string) (schema.Column, error) {
	name, err := dao.Get[string](d, "name")
	if err != nil {
		return schema.Column{}, err
	}
	dataType, err := dao.Get[string](d, "data_type")
	if err != nil {
		return schema.Column{}, err
	}
	notNull, _ := dao.Get[bool](d, "not_null")
	isEnum, _ := dao.Get[bool](d, "is_enum")
	isEnumArray, _ := dao.Get[bool](d, "is_enum_array")
	udt, _ := dao.Get[string](d, "udt_name")
	udtSchema, _ := dao.Get[string](d, "udt_schema")
	identity, _ := dao.Get[string](d, "identity")

	bare, capacity := schema.ExtractDatatypeWithCapacity(dataType)
	var typ sqltype.SqlType
	switch {
	case isEnum:
		typ = sqltype.NewEnum(udt, enums[enumKey(udtSchema, udt)])
	case isEnumArray:
		typ = sqltype.NewArray(sqltype.NewEnum(udt, enums[enumKey(udtSchema, udt)]))
	default:
		var ok bool
		typ, ok = lookupType(bare)
		if !ok {
			return schema.Column{}, &dberr.UnsupportedDataTypeError{Platform: Name, Type: dataType, Context: table + "." + name}
		}
	}

	col := schema.Column{
		Table: table,
		Name:  name,
		Specification: schema.ColumnSpecification{
			SQLType:  typ,
			Capacity: capacity,
		},
	}
	if comment, _ := dao.GetOptional[string](d, "comment"); comment != nil {
		col.Comment = *comment
	}

	if notNull {
		col.Specification.Constraints = append(col.Specification.Constraints, literal.NotNullConstraint())
	}
	if identity == "a" || identity == "d" {
		col.Specification.Constraints = append(col.Specification.Constraints, literal.AutoIncrementConstraint())
	}
	if def, _ := dao.GetOptional[string](d, "default_value"); def != nil {
		constraint, err := literal.ParseDefault(*def, typ)
		if err != nil {
			return schema.Column{}, fmt.Errorf("default of %s.%s: %w", table, name, err)
		}
		col.Specification.Constraints = append(col.Specification.Constraints, constraint)
	}

	avgWidth, _ := dao.GetOptional[int32](d, "avg_width")
	nDistinct, _ := dao.GetOptional[float32](d, "n_distinct")
	if avgWidth != nil && nDistinct != nil {
		col.Stat = &schema.ColumnStat{AvgWidth: *avgWidth, NDistinct: *nDistinct}
	}
	return col, nil
}

func buildKeys(constraintRows, indexRows []dao.Dao, referred map[string][]string) ([]schema.TableKey, error) {
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
		columns, err := dao.Get[[]string](d, "columns")
		if err != nil {
			return nil, err
		}

		key := schema.TableKey{Name: name, Columns: columns}
		switch kind {
		case "p":
			key.Kind = schema.PrimaryKey
		case "u":
			key.Kind = schema.UniqueKey
		case "f":
			key.Kind = schema.ForeignKey
			foreignSchema, _ := dao.Get[string](d, "foreign_schema")
			foreignTable, err := dao.Get[string](d, "foreign_table")
			if err != nil {
				return nil, err
			}
			key.ForeignTable = schema.NewTableName(foreignSchema, foreignTable)
			key.ReferredColumns = referred[name]
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
		columns, err := dao.Get[[]string](d, "columns")
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
		schemaName, err := dao.Get[string](d, "schema")
		if err != nil {
			return nil, err
		}
		name, err := dao.Get[string](d, "name")
		if err != nil {
			return nil, err
		}
		isView, _ := dao.Get[bool](d, "is_view")

		if len(groups) == 0 || groups[len(groups)-1].Schema != schemaName {
			groups = append(groups, schema.SchemaContent{Schema: schemaName})
		}
		group := &groups[len(groups)-1]
		if isView {
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

func buildUser(d dao.Dao) (schema.User, error) {
	username, err := dao.Get[string](d, "username")
	if err != nil {
		return schema.User{}, err
	}
	flag := func(key string) bool {
		b, _ := dao.Get[bool](d, key)
		return b
	}
	validUntil, err := dao.GetOptional[time.Time](d, "rolvaliduntil")
	if err != nil {
		return schema.User{}, err
	}
	connLimit, err := dao.Get[int32](d, "rolconnlimit")
	if err != nil {
		return schema.User{}, err
	}

	return schema.User{
		Username:       username,
		IsSuperuser:    flag("rolsuper"),
		IsInherit:      flag("rolinherit"),
		CanCreateDB:    flag("rolcreatedb"),
		CanCreateRole:  flag("rolcreaterole"),
		CanLogin:       flag("rolcanlogin"),
		CanReplication: flag("rolreplication"),
		CanBypassRLS:   flag("rolbypassrls"),
		ValidUntil:     validUntil,
		ConnLimit:      connLimit,
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
		return dao.Get[string](d, "name")
	}
	return "", &dberr.DataError{Kind: dberr.ZeroRecordReturned, SQL: databaseNameSQL}
}
