package sqltype

import "fmt"

// Capacity is the declared size of a column type: Limit(n) for lengths,
// Range(p, s) for precision and scale.
type Capacity struct {
	isRange   bool
	limit     int
	precision int
	scale     int
}

func Limit(n int) Capacity { return Capacity{limit: n} }

func Range(precision, scale int) Capacity {
	return Capacity{isRange: true, precision: precision, scale: scale}
}

func (c Capacity) Limit() (int, bool) {
	return c.limit, !c.isRange
}

func (c Capacity) Range() (precision, scale int, ok bool) {
	return c.precision, c.scale, c.isRange
}

func (c Capacity) String() string {
	if c.isRange {
		return fmt.Sprintf("(%d,%d)", c.precision, c.scale)
	}
	return fmt.Sprintf("(%d)", c.limit)
}
