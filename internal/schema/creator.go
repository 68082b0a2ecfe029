package schema

import (
	"fmt"
	"strings"

	"github.com/kadirbelkuyu/unisql/internal/literal"
)

// Dialect is what the DDL renderer needs to know about a backend.
type Dialect struct {
	Quote         func(ident string) string
	AutoIncrement string
}

// Creator renders reflected tables back into DDL text.
type Creator struct {
	dialect Dialect
}

func NewCreator(dialect Dialect) *Creator {
	if dialect.Quote == nil {
		dialect.Quote = func(ident string) string {
			return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
		}
	}
	return &Creator{dialect: dialect}
}

func (c *Creator) tableName(name TableName) string {
	if name.Schema != nil && *name.Schema != "" {
		return c.dialect.Quote(*name.Schema) + "." + c.dialect.Quote(name.Name)
	}
	return c.dialect.Quote(name.Name)
}

func (c *Creator) columnList(columns []string) string {
	quoted := make([]string, len(columns))
	for i, col := range columns {
		quoted[i] = c.dialect.Quote(col)
	}
	return strings.Join(quoted, ", ")
}

// CreateTableSQL renders the table with its columns, primary and unique keys.
// Plain keys and foreign keys are rendered separately.
func (c *Creator) CreateTableSQL(table Table) string {
	var defs []string
	for _, col := range table.Columns {
		def := fmt.Sprintf("%s %s", c.dialect.Quote(col.Name), col.TypeString())
		for _, cc := range col.Specification.Constraints {
			switch cc.Kind {
			case literal.NotNull:
				def += " NOT NULL"
			case literal.DefaultValue:
				def += " DEFAULT " + cc.Default.SQL()
			case literal.AutoIncrement:
				if c.dialect.AutoIncrement != "" {
					def += " " + c.dialect.AutoIncrement
				}
			}
		}
		defs = append(defs, def)
	}

	for _, key := range table.Keys {
		switch key.Kind {
		case PrimaryKey:
			defs = append(defs, fmt.Sprintf("PRIMARY KEY (%s)", c.columnList(key.Columns)))
		case UniqueKey:
			defs = append(defs, fmt.Sprintf("CONSTRAINT %s UNIQUE (%s)", c.dialect.Quote(key.Name), c.columnList(key.Columns)))
		}
	}

	return fmt.Sprintf("CREATE TABLE %s (\n  %s\n)", c.tableName(table.Name), strings.Join(defs, ",\n  "))
}

func (c *Creator) CreateIndexSQL(table Table, key TableKey) string {
	return fmt.Sprintf("CREATE INDEX %s ON %s (%s)", c.dialect.Quote(key.Name), c.tableName(table.Name), c.columnList(key.Columns))
}

func (c *Creator) ForeignKeySQL(table Table, key TableKey) string {
	return fmt.Sprintf(
		"ALTER TABLE %s ADD CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s (%s)",
		c.tableName(table.Name),
		c.dialect.Quote(key.Name),
		c.columnList(key.Columns),
		c.tableName(key.ForeignTable),
		c.columnList(key.ReferredColumns),
	)
}

// Script renders the full DDL for a table, one statement per entry. Views
// have no DDL here.
func (c *Creator) Script(table Table) []string {
	if table.IsView {
		return nil
	}
	statements := []string{c.CreateTableSQL(table)}
	for _, key := range table.Keys {
		switch key.Kind {
		case Key:
			statements = append(statements, c.CreateIndexSQL(table, key))
		case ForeignKey:
			statements = append(statements, c.ForeignKeySQL(table, key))
		}
	}
	return statements
}
