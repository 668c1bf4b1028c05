package egraph

import "github.com/modelica-tools/eqsat/pkgs/lang"

// UnionFind is a disjoint-set forest over dense ids with union by rank and
// path compression. It is the canonical-id substrate of the e-graph: every
// lang.Id is created by MakeSet and Find resolves it to the representative
// of its equivalence class.
type UnionFind struct {
	parent []lang.Id
	rank   []uint8
}

// Len returns the number of ids ever created.
func (u *UnionFind) Len() int {
	return len(u.parent)
}

// MakeSet allocates a fresh singleton class and returns its id.
func (u *UnionFind) MakeSet() lang.Id {
	id := lang.Id(len(u.parent))
	u.parent = append(u.parent, id)
	u.rank = append(u.rank, 0)
	return id
}

// Find returns the canonical id of id, compressing the path as it goes.
func (u *UnionFind) Find(id lang.Id) lang.Id {
	for u.parent[id] != id {
		// path halving
		u.parent[id] = u.parent[u.parent[id]]
		id = u.parent[id]
	}
	return id
}

// Union merges the classes of a and b and returns the surviving canonical id
// and whether anything changed. Already-equivalent operands are a no-op.
// The tie-break is deterministic: higher rank wins, lower id on equal rank.
func (u *UnionFind) Union(a, b lang.Id) (lang.Id, bool) {
	ra, rb := u.Find(a), u.Find(b)
	if ra == rb {
		return ra, false
	}
	if u.rank[ra] < u.rank[rb] || (u.rank[ra] == u.rank[rb] && rb < ra) {
		ra, rb = rb, ra
	}
	u.parent[rb] = ra
	if u.rank[ra] == u.rank[rb] {
		u.rank[ra]++
	}
	return ra, true
}
