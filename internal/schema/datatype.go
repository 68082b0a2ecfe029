package schema

import (
	"strconv"
	"strings"

	"github.com/kadirbelkuyu/unisql/internal/sqltype"
)

// ExtractDatatypeWithCapacity splits "varchar(45)" into ("varchar",
// Limit(45)) and "numeric(4,2)" into ("numeric", Range(4,2)). Text after the
// closing parenthesis stays in the bare name. A suffix that does not hold
// numbers yields a nil capacity.
func ExtractDatatypeWithCapacity(s string) (string, *sqltype.Capacity) {
	s = strings.TrimSpace(s)
	start := strings.IndexByte(s, '(')
	if start < 0 {
		return s, nil
	}
	end := strings.LastIndexByte(s, ')')
	if end < start {
		return strings.TrimSpace(s[:start]), nil
	}

	bare := strings.Join(strings.Fields(s[:start]+" "+s[end+1:]), " ")
	inner := s[start+1 : end]

	if p, sc, found := strings.Cut(inner, ","); found {
		precision, err1 := strconv.Atoi(strings.TrimSpace(p))
		scale, err2 := strconv.Atoi(strings.TrimSpace(sc))
		if err1 != nil || err2 != nil {
			return bare, nil
		}
		capacity := sqltype.Range(precision, scale)
		return bare, &capacity
	}

	n, err := strconv.Atoi(strings.TrimSpace(inner))
	if err != nil {
		return bare, nil
	}
	capacity := sqltype.Limit(n)
	return bare, &capacity
}
