// Package dao materializes columnar result sets into named records.
package dao

import (
	"errors"
	"iter"
	"maps"
	"slices"

	"github.com/kadirbelkuyu/unisql/internal/dberr"
	"github.com/kadirbelkuyu/unisql/internal/value"
)

// Dao is one result row keyed by column name.
type Dao map[string]value.Value

// Get returns the cell for key. A missing key reads as Nil.
func (d Dao) Get(key string) value.Value {
	return d[key]
}

func (d Dao) Insert(key string, v value.Value) {
	d[key] = v
}

func (d Dao) Remove(key string) (value.Value, bool) {
	v, ok := d[key]
	delete(d, key)
	return v, ok
}

func (d Dao) Keys() []string {
	return slices.Sorted(maps.Keys(d))
}

// Get converts the cell for key to T.
func Get[T any](d Dao, key string) (T, error) {
	out, err := value.As[T](d.Get(key))
	if err != nil {
		return out, &dberr.ConvertError{Source: key, Target: targetOf(err), Err: err}
	}
	return out, nil
}

// GetOptional is Get with NULL and missing keys mapped to nil.
func GetOptional[T any](d Dao, key string) (*T, error) {
	out, err := value.AsOptional[T](d.Get(key))
	if err != nil {
		return nil, &dberr.ConvertError{Source: key, Target: targetOf(err), Err: err}
	}
	return out, nil
}

func targetOf(err error) string {
	var ce *dberr.ConvertError
	if errors.As(err, &ce) {
		return ce.Target
	}
	return "value"
}

// Rows is a column list plus a row matrix. Count optionally carries a total
// row count reported alongside a page of Data.
type Rows struct {
	Columns []string
	Data    [][]value.Value
	Count   *int
}

func NewRows(columns []string) *Rows {
	return &Rows{Columns: columns}
}

func (r *Rows) Push(row []value.Value) {
	r.Data = append(r.Data, row)
}

// Len is the size hint: the number of rows in Data.
func (r *Rows) Len() int {
	return len(r.Data)
}

// Iter starts a fresh pass over the rows. Every call restarts from the top.
func (r *Rows) Iter() *Iterator {
	return &Iterator{rows: r}
}

// All ranges over the rows as Dao, stopping where Iter stops.
func (r *Rows) All() iter.Seq[Dao] {
	return func(yield func(Dao) bool) {
		it := r.Iter()
		for {
			d, ok := it.Next()
			if !ok || !yield(d) {
				return
			}
		}
	}
}

func (r *Rows) Daos() []Dao {
	out := make([]Dao, 0, r.Len())
	for d := range r.All() {
		out = append(out, d)
	}
	return out
}

type Iterator struct {
	rows *Rows
	pos  int
}

// Next zips the next row with the column names. A zero-length row ends the
// iteration, as does the end of Data.
func (it *Iterator) Next() (Dao, bool) {
	if it.pos >= len(it.rows.Data) {
		return nil, false
	}
	row := it.rows.Data[it.pos]
	if len(row) == 0 {
		it.pos = len(it.rows.Data)
		return nil, false
	}
	it.pos++

	d := make(Dao, len(it.rows.Columns))
	for i, name := range it.rows.Columns {
		if i < len(row) {
			d[name] = row[i]
		} else {
			d[name] = value.Nil()
		}
	}
	return d, true
}
