// Package extract reifies a minimum-cost term tree from a saturated
// e-graph.
package extract

import (
	"errors"
	"math"

	"github.com/modelica-tools/eqsat/pkgs/egraph"
	"github.com/modelica-tools/eqsat/pkgs/invariant"
	"github.com/modelica-tools/eqsat/pkgs/lang"
)

// ErrExtractionBlocked reports that no finite term is reachable from the
// queried class. This cannot happen for roots that came from AddExpr.
var ErrExtractionBlocked = errors.New("extract: no finite term reachable from class")

// CostFunc scores one e-node given the best costs of its child classes.
// It must be monotone in the child costs for the extraction to be optimal.
type CostFunc func(n lang.ENode, childCosts []float64) float64

// AstSize is the default cost function: leaves cost 1, non-leaves cost
// 1 plus the sum of their children.
func AstSize(n lang.ENode, childCosts []float64) float64 {
	c := 1.0
	for _, cc := range childCosts {
		c += cc
	}
	return c
}

type choice struct {
	cost float64
	node lang.ENode
	ok   bool
}

// Extractor computes, for every class of a rebuilt e-graph, the cheapest
// term under a cost function. Construction runs the fixed point; FindBest
// reconstructs trees.
type Extractor struct {
	g    *egraph.EGraph
	cost CostFunc
	best map[lang.Id]choice
}

// New computes best costs for every class by fixed-point iteration:
// repeatedly score every e-node against the current best child costs and
// keep strict improvements, until nothing changes. Ties keep the earlier
// node in insertion order, which makes reconstruction deterministic.
func New(g *egraph.EGraph, cost CostFunc) *Extractor {
	e := &Extractor{g: g, cost: cost, best: make(map[lang.Id]choice, g.ClassCount())}

	ids := g.ClassIDs()
	for changed := true; changed; {
		changed = false
		for _, id := range ids {
			cls := g.Class(id)
			cur := e.best[id]
			for _, n := range cls.Nodes {
				c, ok := e.nodeCost(n)
				if !ok {
					continue
				}
				if !cur.ok || c < cur.cost {
					cur = choice{cost: c, node: n, ok: true}
					changed = true
				}
			}
			e.best[id] = cur
		}
	}
	return e
}

// nodeCost scores a node if all its children already have finite best costs.
func (e *Extractor) nodeCost(n lang.ENode) (float64, bool) {
	children := n.Children()
	costs := make([]float64, len(children))
	for i, ch := range children {
		b := e.best[e.g.Find(ch)]
		if !b.ok {
			return math.Inf(1), false
		}
		costs[i] = b.cost
	}
	return e.cost(n, costs), true
}

// BestCost returns the minimal cost of any term in the class of id.
func (e *Extractor) BestCost(id lang.Id) (float64, error) {
	b := e.best[e.g.Find(id)]
	if !b.ok {
		return 0, ErrExtractionBlocked
	}
	return b.cost, nil
}

// FindBest reconstructs the cheapest term rooted at the class of id.
func (e *Extractor) FindBest(id lang.Id) (*lang.Expr, float64, error) {
	id = e.g.Find(id)
	b := e.best[id]
	if !b.ok {
		return nil, 0, ErrExtractionBlocked
	}
	return e.build(id), b.cost, nil
}

func (e *Extractor) build(id lang.Id) *lang.Expr {
	b := e.best[e.g.Find(id)]
	invariant.Invariant(b.ok, "class %d chosen during reconstruction has no best node", id)
	n := b.node
	switch n.Op {
	case lang.OpConstant:
		return lang.Constant(n.Num)
	case lang.OpSymbol:
		return lang.SymbolExpr(n.Sym)
	}
	args := make([]*lang.Expr, 0, n.Op.Arity())
	for _, ch := range n.Children() {
		args = append(args, e.build(ch))
	}
	return lang.Apply(n.Op, args...)
}
