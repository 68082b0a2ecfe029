package dao_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadirbelkuyu/unisql/internal/dao"
	"github.com/kadirbelkuyu/unisql/internal/value"
)

func fixture() *dao.Rows {
	rows := dao.NewRows([]string{"id", "username"})
	rows.Push([]value.Value{value.Int(1), value.Text("a")})
	rows.Push([]value.Value{value.Int(2), value.Text("b")})
	return rows
}

func TestRowsMaterializeInOrder(t *testing.T) {
	daos := fixture().Daos()
	require.Len(t, daos, 2)

	for i, want := range []struct {
		id   int32
		name string
	}{{1, "a"}, {2, "b"}} {
		assert.Equal(t, []string{"id", "username"}, daos[i].Keys())

		id, err := dao.Get[int32](daos[i], "id")
		require.NoError(t, err)
		assert.Equal(t, want.id, id)

		name, err := dao.Get[string](daos[i], "username")
		require.NoError(t, err)
		assert.Equal(t, want.name, name)
	}
}

func TestIterIsRestartable(t *testing.T) {
	rows := fixture()
	require.Equal(t, 2, rows.Len())

	for pass := 0; pass < 2; pass++ {
		it := rows.Iter()
		count := 0
		for _, ok := it.Next(); ok; _, ok = it.Next() {
			count++
		}
		assert.Equal(t, 2, count, "pass %d", pass)
	}
}

func TestEmptyRowStopsIteration(t *testing.T) {
	rows := fixture()
	rows.Data = append(rows.Data[:1], []value.Value{}, rows.Data[1])

	daos := rows.Daos()
	require.Len(t, daos, 1)
	assert.Equal(t, 3, rows.Len())
}

func TestDaoAccessors(t *testing.T) {
	d := fixture().Daos()[0]

	assert.True(t, d.Get("missing").IsNil())

	opt, err := dao.GetOptional[string](d, "missing")
	require.NoError(t, err)
	assert.Nil(t, opt)

	_, err = dao.Get[bool](d, "username")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "username")

	d.Insert("email", value.Text("a@example.com"))
	removed, ok := d.Remove("email")
	require.True(t, ok)
	assert.True(t, removed.Equal(value.Text("a@example.com")))
}
