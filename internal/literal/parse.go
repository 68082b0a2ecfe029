package literal

import (
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/kadirbelkuyu/unisql/internal/dberr"
	"github.com/kadirbelkuyu/unisql/internal/sqltype"
)

var castSuffix = regexp.MustCompile(`::[A-Za-z_][A-Za-z0-9_ ]*(\(\d+(,\s*\d+)?\))?(\[\])?$`)

var (
	timestampDefaults = []string{
		"now()",
		"timezone('utc'::text, now())",
		"current_timestamp",
		"current_timestamp()",
		"localtimestamp",
		"datetime('now')",
	}
	dateDefaults = []string{
		"today()",
		"now()",
		"('now'::text)::date",
		"current_date",
		"curdate()",
		"date('now')",
	}
	timeDefaults = []string{
		"current_time",
		"curtime()",
		"time('now')",
	}
	fractionalNow = regexp.MustCompile(`^(current_timestamp|now)\(\d\)$`)
)

var errUnrecognizedDefault = errors.New("unrecognized default expression")

// ParseDefault maps the raw default text of a column of type t to a
// constraint.
func ParseDefault(text string, t sqltype.SqlType) (ColumnConstraint, error) {
	text = strings.TrimSpace(text)
	if strings.EqualFold(text, "null") {
		return DefaultConstraint(NullLiteral()), nil
	}
	if strings.HasPrefix(text, "nextval") {
		return AutoIncrementConstraint(), nil
	}

	lit, err := parseTyped(text, t)
	if err != nil {
		return ColumnConstraint{}, err
	}
	return DefaultConstraint(lit), nil
}

func parseTyped(text string, t sqltype.SqlType) (Literal, error) {
	fail := func(err error) (Literal, error) {
		return Literal{}, &dberr.ConvertError{Source: text, Target: t.String(), Err: err}
	}

	switch {
	case t.Kind == sqltype.Bool:
		s := strings.ToLower(unwrap(text))
		switch s {
		case "b'1'":
			return BoolLiteral(true), nil
		case "b'0'":
			return BoolLiteral(false), nil
		}
		b, err := strconv.ParseBool(s)
		if err != nil {
			return fail(err)
		}
		return BoolLiteral(b), nil

	case t.IsInteger():
		s := unwrap(text)
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return IntegerLiteral(n), nil
		}
		f, err := Evaluate(s)
		if err != nil {
			return fail(err)
		}
		if f != float64(int64(f)) {
			return fail(fmt.Errorf("%q is not an integer", s))
		}
		return IntegerLiteral(int64(f)), nil

	case t.IsFloating():
		s := unwrap(text)
		if strings.EqualFold(s, "null") {
			return NullLiteral(), nil
		}
		f, err := Evaluate(s)
		if err != nil {
			return fail(err)
		}
		return DoubleLiteral(f), nil

	case t.Kind == sqltype.UUID:
		lower := strings.ToLower(text)
		if lower == "uuid_generate_v4()" || lower == "gen_random_uuid()" || lower == "uuid()" {
			return Generated(UUIDGenerateV4), nil
		}
		u, err := uuid.Parse(unwrap(text))
		if err != nil {
			return fail(err)
		}
		return UUIDLiteral(u), nil

	case t.IsTimestamp():
		if matches(text, timestampDefaults) || fractionalNow.MatchString(strings.ToLower(text)) {
			return Generated(CurrentTimestamp), nil
		}
		return fail(errUnrecognizedDefault)

	case t.Kind == sqltype.Date:
		if matches(text, dateDefaults) {
			return Generated(CurrentDate), nil
		}
		return fail(errUnrecognizedDefault)

	case t.Kind == sqltype.Time || t.Kind == sqltype.TimeTz:
		if matches(text, timeDefaults) {
			return Generated(CurrentTime), nil
		}
		return fail(errUnrecognizedDefault)

	case t.IsText(), t.Kind == sqltype.Enum, t.Kind == sqltype.JSON, t.Kind == sqltype.TsVector:
		return StringLiteral(text), nil

	case t.IsBlob():
		s := text
		if len(s) > 3 && (s[0] == 'x' || s[0] == 'X') && s[1] == '\'' && s[len(s)-1] == '\'' {
			b, err := hex.DecodeString(s[2 : len(s)-1])
			if err != nil {
				return fail(err)
			}
			return BlobLiteral(b), nil
		}
		return fail(errUnrecognizedDefault)
	}

	return Literal{}, &dberr.UnsupportedDataTypeError{Type: t.String(), Context: "default " + text}
}

func matches(text string, vocabulary []string) bool {
	lower := strings.ToLower(strings.TrimSpace(text))
	for _, candidate := range vocabulary {
		if lower == candidate {
			return true
		}
	}
	return false
}

// unwrap peels cast suffixes, one enclosing parenthesis layer at a time and
// surrounding single quotes until the text stops changing.
func unwrap(text string) string {
	for {
		s := strings.TrimSpace(text)
		s = castSuffix.ReplaceAllString(s, "")
		if enclosed(s) {
			s = s[1 : len(s)-1]
		}
		if len(s) >= 2 && s[0] == '\'' && s[len(s)-1] == '\'' {
			s = s[1 : len(s)-1]
		}
		s = strings.TrimSpace(s)
		if s == text {
			return s
		}
		text = s
	}
}

// enclosed reports whether the first parenthesis of s closes at its last
// byte.
func enclosed(s string) bool {
	if len(s) < 2 || s[0] != '(' || s[len(s)-1] != ')' {
		return false
	}
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i == len(s)-1
			}
		}
	}
	return false
}
