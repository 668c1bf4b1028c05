package egraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modelica-tools/eqsat/pkgs/lang"
)

func TestUnionFindMakeSet(t *testing.T) {
	var u UnionFind
	for i := 0; i < 5; i++ {
		id := u.MakeSet()
		assert.Equal(t, lang.Id(i), id)
		assert.Equal(t, id, u.Find(id), "fresh set should be its own root")
	}
	assert.Equal(t, 5, u.Len())
}

func TestUnionFindUnion(t *testing.T) {
	var u UnionFind
	a := u.MakeSet()
	b := u.MakeSet()
	c := u.MakeSet()

	root, changed := u.Union(a, b)
	require.True(t, changed)
	assert.Equal(t, u.Find(a), u.Find(b))
	assert.Equal(t, root, u.Find(a))
	assert.NotEqual(t, u.Find(a), u.Find(c))

	// idempotent on already-equivalent operands
	root2, changed := u.Union(b, a)
	assert.False(t, changed)
	assert.Equal(t, root, root2)
}

func TestUnionFindTransitivity(t *testing.T) {
	var u UnionFind
	ids := make([]lang.Id, 8)
	for i := range ids {
		ids[i] = u.MakeSet()
	}
	u.Union(ids[0], ids[1])
	u.Union(ids[2], ids[3])
	u.Union(ids[1], ids[3])

	root := u.Find(ids[0])
	for _, id := range ids[:4] {
		assert.Equal(t, root, u.Find(id))
	}
	for _, id := range ids[4:] {
		assert.NotEqual(t, root, u.Find(id))
	}
}

func TestUnionFindDeterministicTieBreak(t *testing.T) {
	// Equal ranks: the lower id survives, regardless of operand order.
	var u UnionFind
	a := u.MakeSet()
	b := u.MakeSet()
	root, _ := u.Union(b, a)
	assert.Equal(t, a, root)

	var v UnionFind
	a = v.MakeSet()
	b = v.MakeSet()
	root, _ = v.Union(a, b)
	assert.Equal(t, a, root)
}
