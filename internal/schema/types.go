package schema

import (
	"strings"
	"time"

	"github.com/kadirbelkuyu/unisql/internal/literal"
	"github.com/kadirbelkuyu/unisql/internal/sqltype"
)

type TableName struct {
	Name   string
	Schema *string
	Alias  *string
}

func NewTableName(schemaName, name string) TableName {
	tn := TableName{Name: name}
	if schemaName != "" {
		tn.Schema = &schemaName
	}
	return tn
}

// SchemaOr returns the schema qualifier, or fallback when there is none.
func (t TableName) SchemaOr(fallback string) string {
	if t.Schema == nil || *t.Schema == "" {
		return fallback
	}
	return *t.Schema
}

func (t TableName) CompleteName() string {
	if t.Schema != nil && *t.Schema != "" {
		return *t.Schema + "." + t.Name
	}
	return t.Name
}

func (t TableName) SafeName() string {
	return escapeKeyword(t.Name)
}

func (t TableName) SafeCompleteName() string {
	if t.Schema != nil && *t.Schema != "" {
		return escapeKeyword(*t.Schema) + "." + escapeKeyword(t.Name)
	}
	return escapeKeyword(t.Name)
}

func (t TableName) Equal(o TableName) bool {
	return t.Name == o.Name && equalOpt(t.Schema, o.Schema) && equalOpt(t.Alias, o.Alias)
}

func (t TableName) String() string {
	if t.Alias != nil {
		return t.CompleteName() + " AS " + *t.Alias
	}
	return t.CompleteName()
}

type ColumnName struct {
	Name  string
	Table *string
	Alias *string
}

func (c ColumnName) CompleteName() string {
	if c.Table != nil && *c.Table != "" {
		return *c.Table + "." + c.Name
	}
	return c.Name
}

func (c ColumnName) SafeName() string {
	return escapeKeyword(c.Name)
}

func (c ColumnName) SafeCompleteName() string {
	if c.Table != nil && *c.Table != "" {
		return escapeKeyword(*c.Table) + "." + escapeKeyword(c.Name)
	}
	return escapeKeyword(c.Name)
}

func (c ColumnName) Equal(o ColumnName) bool {
	return c.Name == o.Name && equalOpt(c.Table, o.Table) && equalOpt(c.Alias, o.Alias)
}

func equalOpt(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// escapeKeyword quotes identifiers that collide with reserved words.
func escapeKeyword(name string) string {
	switch strings.ToLower(name) {
	case "all", "alter", "and", "as", "asc", "between", "by", "case", "check",
		"column", "constraint", "create", "cross", "default", "delete", "desc",
		"distinct", "drop", "else", "end", "from", "grant", "group", "having",
		"in", "index", "inner", "insert", "into", "is", "join", "key", "left",
		"like", "limit", "not", "null", "offset", "on", "or", "order", "outer",
		"primary", "references", "right", "role", "select", "set", "table",
		"then", "to", "union", "unique", "update", "user", "using", "values",
		"when", "where", "with":
		return `"` + name + `"`
	}
	return name
}

type ColumnSpecification struct {
	SQLType     sqltype.SqlType
	Capacity    *sqltype.Capacity
	Constraints []literal.ColumnConstraint
}

// ColumnStat is the planner estimate for a column, when the backend keeps one.
type ColumnStat struct {
	AvgWidth  int32
	NDistinct float32
}

type Column struct {
	Table         string
	Name          string
	Comment       string
	Specification ColumnSpecification
	Stat          *ColumnStat
}

func (c Column) IsNotNull() bool {
	return c.hasConstraint(literal.NotNull)
}

func (c Column) IsAutoIncrement() bool {
	return c.hasConstraint(literal.AutoIncrement)
}

// Default returns the default literal, or nil when the column has none.
func (c Column) Default() *literal.Literal {
	for _, cc := range c.Specification.Constraints {
		if cc.Kind == literal.DefaultValue {
			def := cc.Default
			return &def
		}
	}
	return nil
}

func (c Column) hasConstraint(kind literal.ConstraintKind) bool {
	for _, cc := range c.Specification.Constraints {
		if cc.Kind == kind {
			return true
		}
	}
	return false
}

// TypeString renders the type with its capacity, e.g. varchar(45).
func (c Column) TypeString() string {
	s := c.Specification.SQLType.String()
	if c.Specification.Capacity != nil {
		s += c.Specification.Capacity.String()
	}
	return s
}

type KeyKind int

const (
	PrimaryKey KeyKind = iota
	UniqueKey
	Key
	ForeignKey
)

func (k KeyKind) String() string {
	switch k {
	case PrimaryKey:
		return "PRIMARY KEY"
	case UniqueKey:
		return "UNIQUE"
	case ForeignKey:
		return "FOREIGN KEY"
	default:
		return "KEY"
	}
}

// TableKey is a key over Columns. ForeignTable and ReferredColumns are set
// only for ForeignKey.
type TableKey struct {
	Kind            KeyKind
	Name            string
	Columns         []string
	ForeignTable    TableName
	ReferredColumns []string
}

type Table struct {
	Name    TableName
	Comment string
	Columns []Column
	IsView  bool
	Keys    []TableKey
}

func (t Table) PrimaryColumnNames() []string {
	for _, key := range t.Keys {
		if key.Kind == PrimaryKey {
			return key.Columns
		}
	}
	return nil
}

func (t Table) PrimaryColumns() []Column {
	names := t.PrimaryColumnNames()
	columns := make([]Column, 0, len(names))
	for _, name := range names {
		if col := t.Column(name); col != nil {
			columns = append(columns, *col)
		}
	}
	return columns
}

func (t Table) ForeignKeys() []TableKey {
	var keys []TableKey
	for _, key := range t.Keys {
		if key.Kind == ForeignKey {
			keys = append(keys, key)
		}
	}
	return keys
}

func (t Table) Column(name string) *Column {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			return &t.Columns[i]
		}
	}
	return nil
}

type SchemaContent struct {
	Schema     string
	Tablenames []string
	Views      []string
}

type User struct {
	Username       string
	IsSuperuser    bool
	IsInherit      bool
	CanCreateDB    bool
	CanCreateRole  bool
	CanLogin       bool
	CanReplication bool
	CanBypassRLS   bool
	ValidUntil     *time.Time
	ConnLimit      int32
}

type Role struct {
	RoleName string
}
