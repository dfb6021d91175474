package mapping

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type itemID int32

func TestMapping_DefaultValue(t *testing.T) {
	m := New[itemID, float64](4)
	require.Equal(t, 4, m.Len())
	for i := range itemID(4) {
		assert.Zero(t, m.Get(i))
	}
}

func TestMapping_SetGet(t *testing.T) {
	m := New[itemID, string](3)
	m.Set(1, "plate")
	m.Set(2, "gear")
	m.Set(1, "ore")

	assert.Equal(t, "", m.Get(0))
	assert.Equal(t, "ore", m.Get(1))
	assert.Equal(t, "gear", m.Get(2))
}

func TestMapping_NewFunc(t *testing.T) {
	m := NewFunc(5, func(k itemID) int { return int(k) * 10 })
	for k, v := range m.All() {
		assert.Equal(t, int(k)*10, v)
	}
}

func TestMapping_ValueSemanticsShareStorage(t *testing.T) {
	m := New[itemID, int](2)
	alias := m
	alias.Set(0, 7)
	assert.Equal(t, 7, m.Get(0), "copies of a Mapping share the backing array")

	clone := m.Clone()
	clone.Set(0, 9)
	assert.Equal(t, 7, m.Get(0), "Clone must not alias")
}

func TestMapping_PtrAndFill(t *testing.T) {
	type slot struct{ hits int }
	m := New[itemID, slot](2)
	m.Ptr(1).hits++
	m.Ptr(1).hits++
	assert.Equal(t, 2, m.Get(1).hits)

	m.Fill(slot{hits: 3})
	assert.Equal(t, 3, m.Get(0).hits)
}

func TestMapping_AllStopsEarly(t *testing.T) {
	m := New[itemID, int](10)
	visited := 0
	for k := range m.All() {
		visited++
		if k == 2 {
			break
		}
	}
	assert.Equal(t, 3, visited)
}

func TestMapping_OutOfRangePanics(t *testing.T) {
	m := New[itemID, int](2)
	assert.Panics(t, func() { m.Get(2) })
	assert.Panics(t, func() { m.Set(-1, 1) })
}
