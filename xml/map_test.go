package xml

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderedMapGetPathWalksNestedMaps(t *testing.T) {
	child := NewMap()
	child.Put("@id", "7")
	child.Put("#text", "hi")

	root := NewMap()
	root.Put("item", child)

	assert.Equal(t, "7", root.GetPath("item/@id"))
	assert.Equal(t, "hi", root.GetPath("item/#text"))
	assert.Nil(t, root.GetPath("item/missing"))
	assert.Nil(t, root.GetPath("missing/@id"))
}

func TestOrderedMapGetPathStopsAtNonMapValue(t *testing.T) {
	root := NewMap()
	root.Put("#text", "leaf")
	assert.Nil(t, root.GetPath("#text/deeper"))
}

func TestOrderedMapDumpPreservesInsertionOrder(t *testing.T) {
	m := NewMap()
	m.Put("b", "2")
	m.Put("a", "1")
	m.Put("c", "3")

	out := m.Dump()
	ib := indexOf(t, out, `"b"`)
	ia := indexOf(t, out, `"a"`)
	ic := indexOf(t, out, `"c"`)
	require.True(t, ib < ia)
	require.True(t, ia < ic)
}

func TestOrderedMapPutOverwritesWithoutReordering(t *testing.T) {
	m := NewMap()
	m.Put("x", "1")
	m.Put("y", "2")
	m.Put("x", "3")

	assert.Equal(t, []string{"x", "y"}, m.keys)
	assert.Equal(t, "3", m.Get("x"))
}

func indexOf(t *testing.T, s, substr string) int {
	t.Helper()
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return i
		}
	}
	t.Fatalf("substring %q not found in %q", substr, s)
	return -1
}
