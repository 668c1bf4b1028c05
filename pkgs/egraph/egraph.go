// Package egraph implements a congruence-closed e-graph: hash-consed
// e-nodes grouped into equivalence classes over a union-find, with an
// optional per-class analysis.
//
// The structure grows monotonically. Add and Union may temporarily break the
// congruence and canonicalization invariants; Rebuild restores them. Class
// access, matching and extraction are only defined on a freshly rebuilt
// graph.
package egraph

import (
	"slices"

	"github.com/modelica-tools/eqsat/pkgs/invariant"
	"github.com/modelica-tools/eqsat/pkgs/lang"
)

// EGraph maintains the union-find, the hash-cons map from canonical e-nodes
// to class ids, the classes themselves, and a worklist of classes whose
// invariants may have been broken by recent unions.
type EGraph struct {
	uf       UnionFind
	memo     map[lang.ENode]lang.Id
	classes  map[lang.Id]*EClass
	pending  []lang.Id
	analysis Analysis

	// added counts hash-cons misses. It is monotone, which makes it the
	// right signal for saturation detection (NodeCount can shrink when a
	// rebuild deduplicates).
	added uint64
}

// New creates an empty e-graph with the given analysis. A nil analysis is
// allowed and disables per-class data.
func New(a Analysis) *EGraph {
	return &EGraph{
		memo:     make(map[lang.ENode]lang.Id),
		classes:  make(map[lang.Id]*EClass),
		analysis: a,
	}
}

// Analysis returns the analysis the graph was created with.
func (g *EGraph) Analysis() Analysis {
	return g.analysis
}

// Find resolves id to its canonical representative.
func (g *EGraph) Find(id lang.Id) lang.Id {
	return g.uf.Find(id)
}

// Canonicalize returns n with every child id replaced by its canonical
// representative.
func (g *EGraph) Canonicalize(n lang.ENode) lang.ENode {
	return n.MapChildren(g.uf.Find)
}

// Class returns the class of id. The id may be non-canonical; it is resolved
// through the union-find first.
func (g *EGraph) Class(id lang.Id) *EClass {
	invariant.Precondition(int(id) < g.uf.Len(), "id %d out of range", id)
	cls := g.classes[g.uf.Find(id)]
	invariant.Invariant(cls != nil, "canonical id %d has no class", g.uf.Find(id))
	return cls
}

// ClassIDs returns all canonical class ids in ascending order. The order is
// the deterministic iteration order used by the matcher and the extractor.
func (g *EGraph) ClassIDs() []lang.Id {
	ids := make([]lang.Id, 0, len(g.classes))
	for id := range g.classes {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// ClassCount returns the number of live (canonical) classes.
func (g *EGraph) ClassCount() int {
	return len(g.classes)
}

// NodeCount returns the number of e-nodes currently stored across all
// classes.
func (g *EGraph) NodeCount() int {
	n := 0
	for _, cls := range g.classes {
		n += len(cls.Nodes)
	}
	return n
}

// NodesAdded returns the monotone count of distinct e-nodes ever created by
// Add. It never decreases, unlike NodeCount.
func (g *EGraph) NodesAdded() uint64 {
	return g.added
}

// Add inserts an e-node. Children are canonicalized before the hash-cons
// lookup; a hit returns the existing class id, a miss allocates a new class,
// registers parent links and computes the initial analysis datum.
func (g *EGraph) Add(n lang.ENode) lang.Id {
	for _, ch := range n.Children() {
		invariant.Precondition(int(ch) < g.uf.Len(), "child id %d out of range", ch)
	}
	n = g.Canonicalize(n)
	if id, ok := g.memo[n]; ok {
		return g.uf.Find(id)
	}

	id := g.uf.MakeSet()
	cls := &EClass{ID: id, Nodes: []lang.ENode{n}}
	g.classes[id] = cls
	if g.analysis != nil {
		cls.Data = g.analysis.Make(g, n)
	}
	for _, ch := range n.Children() {
		child := g.classes[g.uf.Find(ch)]
		child.Parents = append(child.Parents, Parent{Node: n, Class: id})
	}
	g.memo[n] = id
	g.added++
	g.pending = append(g.pending, id)
	return id
}

// AddExpr inserts a whole term tree bottom-up and returns the root class id.
func (g *EGraph) AddExpr(e *lang.Expr) lang.Id {
	switch e.Op {
	case lang.OpConstant:
		return g.Add(lang.ConstantNode(e.Num))
	case lang.OpSymbol:
		return g.Add(lang.SymbolNode(e.Sym))
	}
	switch e.Op.Arity() {
	case 1:
		return g.Add(lang.Unary(e.Op, g.AddExpr(e.Args[0])))
	default:
		return g.Add(lang.Binary(e.Op, g.AddExpr(e.Args[0]), g.AddExpr(e.Args[1])))
	}
}

// Union merges the classes of a and b. It returns the surviving canonical id
// and whether a change occurred. The survivor absorbs the other class's
// nodes, parents and analysis datum and is enqueued for repair.
func (g *EGraph) Union(a, b lang.Id) (lang.Id, bool) {
	a, b = g.uf.Find(a), g.uf.Find(b)
	if a == b {
		return a, false
	}

	root, _ := g.uf.Union(a, b)
	loser := a
	if root == a {
		loser = b
	}
	win := g.classes[root]
	lose := g.classes[loser]
	win.Nodes = append(win.Nodes, lose.Nodes...)
	win.Parents = append(win.Parents, lose.Parents...)
	if g.analysis != nil {
		before := win.Data
		merged, changedWin := g.analysis.Merge(win.Data, lose.Data)
		_, changedLose := g.analysis.Merge(lose.Data, before)
		win.Data = merged
		// If the surviving datum differs from what either side's parents
		// last observed, their data must be re-made during rebuild.
		if changedWin || changedLose {
			for _, p := range win.Parents {
				g.pending = append(g.pending, p.Class)
			}
		}
	}
	delete(g.classes, loser)
	g.pending = append(g.pending, root)
	return root, true
}

// Rebuild restores the canonicalization, congruence, hash-cons, parent and
// analysis invariants after any sequence of Add and Union. It returns the
// number of unions performed during restoration.
//
// While the worklist is non-empty it takes each distinct class of it, re-canonicalizes its
// parent e-nodes through the hash-cons (uniting classes whose parents
// collide), recomputes the class's analysis datum, and lets the analysis
// modify the class. A final sweep canonicalizes the stored node and parent
// lists of every class.
func (g *EGraph) Rebuild() int {
	unions := 0
	for len(g.pending) > 0 {
		// Take the worklist one round at a time and repair each canonical
		// class at most once per round; ids enqueued meanwhile wait for the
		// next round.
		todo := g.pending
		g.pending = nil
		seen := make(map[lang.Id]bool, len(todo))
		for _, id := range todo {
			id = g.uf.Find(id)
			if seen[id] {
				continue
			}
			seen[id] = true
			if _, ok := g.classes[id]; !ok {
				continue
			}
			unions += g.repairParents(id)
			// The class may have been merged away while repairing; follow it.
			id = g.uf.Find(id)
			g.repairData(id)
		}
	}
	g.rebuildClasses()
	return unions
}

// repairParents re-canonicalizes every parent e-node of the class, removing
// stale hash-cons entries and re-inserting the canonical form. A collision
// with an entry in another class means the two parents became congruent;
// they are unioned.
func (g *EGraph) repairParents(id lang.Id) int {
	cls := g.classes[id]
	parents := cls.Parents
	cls.Parents = nil

	unions := 0
	seen := make(map[lang.ENode]bool, len(parents))
	repaired := make([]Parent, 0, len(parents))
	for _, p := range parents {
		delete(g.memo, p.Node)
		node := g.Canonicalize(p.Node)
		pclass := g.uf.Find(p.Class)
		if existing, ok := g.memo[node]; ok && g.uf.Find(existing) != pclass {
			root, changed := g.Union(existing, pclass)
			if changed {
				unions++
			}
			pclass = root
		}
		g.memo[node] = pclass
		if !seen[node] {
			seen[node] = true
			repaired = append(repaired, Parent{Node: node, Class: pclass})
		}
	}

	// Unions above may have merged this class into another, or appended new
	// parents to it; graft the repaired list onto whoever survived.
	surv := g.classes[g.uf.Find(id)]
	surv.Parents = append(repaired, surv.Parents...)
	return unions
}

// repairData recomputes the class's analysis datum as the join of Make over
// its current nodes. If the datum changed, every parent is enqueued so the
// change propagates upward. Finally the analysis may modify the class
// (e.g. materialize a constant).
func (g *EGraph) repairData(id lang.Id) {
	if g.analysis == nil {
		return
	}
	cls := g.classes[id]
	var fresh any
	for i, n := range cls.Nodes {
		d := g.analysis.Make(g, g.Canonicalize(n))
		if i == 0 {
			fresh = d
		} else {
			fresh, _ = g.analysis.Merge(fresh, d)
		}
	}
	merged, changed := g.analysis.Merge(cls.Data, fresh)
	cls.Data = merged
	if changed {
		for _, p := range cls.Parents {
			g.pending = append(g.pending, p.Class)
		}
	}
	g.analysis.Modify(g, id)
}

// rebuildClasses canonicalizes the node and parent lists of every class,
// deduplicating while preserving insertion order.
func (g *EGraph) rebuildClasses() {
	for _, cls := range g.classes {
		seen := make(map[lang.ENode]bool, len(cls.Nodes))
		nodes := cls.Nodes[:0]
		for _, n := range cls.Nodes {
			n = g.Canonicalize(n)
			if !seen[n] {
				seen[n] = true
				nodes = append(nodes, n)
			}
		}
		cls.Nodes = nodes

		pseen := make(map[lang.ENode]bool, len(cls.Parents))
		parents := cls.Parents[:0]
		for _, p := range cls.Parents {
			p.Node = g.Canonicalize(p.Node)
			p.Class = g.uf.Find(p.Class)
			if !pseen[p.Node] {
				pseen[p.Node] = true
				parents = append(parents, p)
			}
		}
		cls.Parents = parents
	}
}

// CheckInvariants verifies the five e-graph invariants that must hold after
// a rebuild. It panics (via the invariant package) on violation; an engine
// that trips it must be discarded. Intended for tests and debugging, not the
// hot path.
func (g *EGraph) CheckInvariants() {
	invariant.Invariant(len(g.pending) == 0, "worklist not drained")

	distinct := make(map[lang.ENode]lang.Id)
	for id, cls := range g.classes {
		invariant.Invariant(g.uf.Find(id) == id, "class key %d is not canonical", id)
		for _, n := range cls.Nodes {
			invariant.Invariant(n == g.Canonicalize(n), "node %v in class %d has non-canonical children", n, id)
			if prev, ok := distinct[n]; ok {
				invariant.Invariant(prev == id, "congruent node %v in classes %d and %d", n, prev, id)
			}
			distinct[n] = id
			memoID, ok := g.memo[n]
			invariant.Invariant(ok, "node %v of class %d missing from hash-cons", n, id)
			invariant.Invariant(g.uf.Find(memoID) == id, "hash-cons maps %v to %d, stored in %d", n, memoID, id)
			for _, ch := range n.Children() {
				child := g.classes[g.uf.Find(ch)]
				found := false
				for _, p := range child.Parents {
					if p.Node == n && g.uf.Find(p.Class) == id {
						found = true
						break
					}
				}
				invariant.Invariant(found, "class %d missing parent link for %v", g.uf.Find(ch), n)
			}
		}
	}
	invariant.Invariant(len(g.memo) == len(distinct), "hash-cons has %d entries for %d distinct nodes", len(g.memo), len(distinct))

	if g.analysis != nil {
		for id, cls := range g.classes {
			var fresh any
			for i, n := range cls.Nodes {
				d := g.analysis.Make(g, n)
				if i == 0 {
					fresh = d
				} else {
					fresh, _ = g.analysis.Merge(fresh, d)
				}
			}
			_, changed := g.analysis.Merge(cls.Data, fresh)
			invariant.Invariant(!changed, "analysis datum of class %d is stale", id)
		}
	}
}
