// Package literal turns the default-value expressions reported by each
// backend catalog into one portable set of constants.
package literal

import (
	"fmt"

	"github.com/google/uuid"
)

type Kind int

const (
	Null Kind = iota
	Bool
	Integer
	Double
	UUIDGenerateV4
	UUID
	String
	Blob
	CurrentTime
	CurrentDate
	CurrentTimestamp
)

// Literal is a portable default value. Only the field matching Kind is set.
type Literal struct {
	Kind    Kind
	Bool    bool
	Integer int64
	Double  float64
	UUID    uuid.UUID
	Text    string
	Blob    []byte
}

func NullLiteral() Literal { return Literal{Kind: Null} }
func BoolLiteral(b bool) Literal { return Literal{Kind: Bool, Bool: b} }
func IntegerLiteral(n int64) Literal { return Literal{Kind: Integer, Integer: n} }
func DoubleLiteral(f float64) Literal { return Literal{Kind: Double, Double: f} }
func UUIDLiteral(u uuid.UUID) Literal { return Literal{Kind: UUID, UUID: u} }
func StringLiteral(s string) Literal { return Literal{Kind: String, Text: s} }
func BlobLiteral(b []byte) Literal { return Literal{Kind: Blob, Blob: b} }
func Generated(k Kind) Literal { return Literal{Kind: k} }

func (l Literal) String() string {
	switch l.Kind {
	case Null:
		return "NULL"
	case Bool:
		return fmt.Sprint(l.Bool)
	case Integer:
		return fmt.Sprint(l.Integer)
	case Double:
		return fmt.Sprint(l.Double)
	case UUIDGenerateV4:
		return "uuid_generate_v4()"
	case UUID:
		return l.UUID.String()
	case String:
		return l.Text
	case Blob:
		return fmt.Sprintf("x'%x'", l.Blob)
	case CurrentTime:
		return "CURRENT_TIME"
	case CurrentDate:
		return "CURRENT_DATE"
	default:
		return "CURRENT_TIMESTAMP"
	}
}

// SQL renders the literal as it would appear after DEFAULT. String literals
// are kept verbatim, quotes included.
func (l Literal) SQL() string {
	switch l.Kind {
	case Bool:
		if l.Bool {
			return "TRUE"
		}
		return "FALSE"
	case UUID:
		return "'" + l.UUID.String() + "'"
	default:
		return l.String()
	}
}

type ConstraintKind int

const (
	NotNull ConstraintKind = iota
	DefaultValue
	AutoIncrement
)

// ColumnConstraint is NotNull, AutoIncrement, or DefaultValue carrying
// Default.
type ColumnConstraint struct {
	Kind    ConstraintKind
	Default Literal
}

func NotNullConstraint() ColumnConstraint { return ColumnConstraint{Kind: NotNull} }
func AutoIncrementConstraint() ColumnConstraint { return ColumnConstraint{Kind: AutoIncrement} }

func DefaultConstraint(l Literal) ColumnConstraint {
	return ColumnConstraint{Kind: DefaultValue, Default: l}
}

func (c ColumnConstraint) String() string {
	switch c.Kind {
	case NotNull:
		return "NOT NULL"
	case AutoIncrement:
		return "AUTO_INCREMENT"
	default:
		return "DEFAULT " + c.Default.String()
	}
}
