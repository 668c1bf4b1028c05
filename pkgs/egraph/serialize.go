package egraph

import (
	"encoding/json"
	"fmt"
	"io"
	"math"

	"github.com/klauspost/compress/gzip"

	"github.com/modelica-tools/eqsat/pkgs/lang"
)

// The persisted form of an e-graph: the union-find parent array, the classes
// with their e-nodes, and the per-class constant datum. Symbols are stored
// by name so snapshots survive process boundaries. The stream is
// gzip-framed JSON.

type graphSnapshot struct {
	UnionFind []lang.Id       `json:"unionfind"`
	Classes   []classSnapshot `json:"classes"`
}

type classSnapshot struct {
	ID       lang.Id        `json:"id"`
	Nodes    []nodeSnapshot `json:"nodes"`
	Constant *float64       `json:"constant,omitempty"`
}

type nodeSnapshot struct {
	Op       string    `json:"op"`
	Children []lang.Id `json:"children,omitempty"`
	Constant *float64  `json:"constant,omitempty"`
	Symbol   string    `json:"symbol,omitempty"`
}

// Save writes a snapshot of the graph. The graph should be rebuilt first so
// the snapshot holds only canonical ids.
func (g *EGraph) Save(w io.Writer) error {
	snap := graphSnapshot{
		UnionFind: append([]lang.Id(nil), g.uf.parent...),
		Classes:   make([]classSnapshot, 0, len(g.classes)),
	}
	for _, id := range g.ClassIDs() {
		cls := g.classes[id]
		cs := classSnapshot{ID: id, Nodes: make([]nodeSnapshot, 0, len(cls.Nodes))}
		if v, ok := Fold(cls.Data); ok {
			cs.Constant = &v
		}
		for _, n := range cls.Nodes {
			cs.Nodes = append(cs.Nodes, snapshotNode(n))
		}
		snap.Classes = append(snap.Classes, cs)
	}

	zw := gzip.NewWriter(w)
	if err := json.NewEncoder(zw).Encode(&snap); err != nil {
		zw.Close()
		return fmt.Errorf("encoding e-graph: %w", err)
	}
	return zw.Close()
}

// Load reads a snapshot written by Save into a fresh e-graph using the given
// analysis, and rebuilds it before returning.
func Load(r io.Reader, a Analysis) (*EGraph, error) {
	zr, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("reading e-graph: %w", err)
	}
	defer zr.Close()

	var snap graphSnapshot
	if err := json.NewDecoder(zr).Decode(&snap); err != nil {
		return nil, fmt.Errorf("decoding e-graph: %w", err)
	}

	g := New(a)
	g.uf.parent = append([]lang.Id(nil), snap.UnionFind...)
	g.uf.rank = make([]uint8, len(snap.UnionFind))
	for i, p := range g.uf.parent {
		if int(p) >= len(g.uf.parent) {
			return nil, fmt.Errorf("union-find parent %d of id %d out of range", p, i)
		}
	}

	for _, cs := range snap.Classes {
		if int(cs.ID) >= g.uf.Len() {
			return nil, fmt.Errorf("class id %d out of range", cs.ID)
		}
		cls := &EClass{ID: cs.ID}
		if cs.Constant != nil {
			cls.Data = *cs.Constant
		}
		for _, ns := range cs.Nodes {
			n, err := restoreNode(ns, g.uf.Len())
			if err != nil {
				return nil, err
			}
			cls.Nodes = append(cls.Nodes, n)
			g.memo[g.Canonicalize(n)] = cs.ID
			g.added++
		}
		g.classes[cs.ID] = cls
		g.pending = append(g.pending, cs.ID)
	}

	// Reconstruct parent links from the child ids of every stored node.
	for id, cls := range g.classes {
		for _, n := range cls.Nodes {
			for _, ch := range n.Children() {
				child, ok := g.classes[g.uf.Find(ch)]
				if !ok {
					return nil, fmt.Errorf("node %v of class %d references missing class %d", n, id, ch)
				}
				child.Parents = append(child.Parents, Parent{Node: n, Class: id})
			}
		}
	}

	g.Rebuild()
	return g, nil
}

func snapshotNode(n lang.ENode) nodeSnapshot {
	ns := nodeSnapshot{Op: n.Op.String()}
	switch n.Op {
	case lang.OpConstant:
		v := n.Num
		ns.Constant = &v
	case lang.OpSymbol:
		ns.Symbol = n.Sym.String()
	default:
		ns.Children = n.Children()
	}
	return ns
}

func restoreNode(ns nodeSnapshot, maxID int) (lang.ENode, error) {
	if ns.Op == "const" {
		if ns.Constant == nil || math.IsNaN(*ns.Constant) {
			return lang.ENode{}, fmt.Errorf("constant node without a finite payload")
		}
		return lang.ConstantNode(*ns.Constant), nil
	}
	if ns.Op == "sym" {
		return lang.SymbolNode(lang.Intern(ns.Symbol)), nil
	}

	op, ok := lang.LookupOp(ns.Op)
	if !ok {
		return lang.ENode{}, fmt.Errorf("unknown operator %q", ns.Op)
	}
	if len(ns.Children) != op.Arity() {
		return lang.ENode{}, fmt.Errorf("operator %q expects %d children, got %d", ns.Op, op.Arity(), len(ns.Children))
	}
	for _, ch := range ns.Children {
		if int(ch) >= maxID {
			return lang.ENode{}, fmt.Errorf("child id %d out of range", ch)
		}
	}
	if op.Arity() == 1 {
		return lang.Unary(op, ns.Children[0]), nil
	}
	return lang.Binary(op, ns.Children[0], ns.Children[1]), nil
}
