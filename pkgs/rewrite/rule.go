package rewrite

import (
	"fmt"

	"github.com/modelica-tools/eqsat/pkgs/egraph"
	"github.com/modelica-tools/eqsat/pkgs/invariant"
	"github.com/modelica-tools/eqsat/pkgs/lang"
)

// Rule is a rewrite rule: wherever LHS matches a class, RHS is instantiated
// under the bindings and unioned with that class. Rules are value types and
// immutable after construction, so a rule set can be shared across simplify
// calls.
type Rule struct {
	Name string
	LHS  Pattern
	RHS  Pattern
}

// NewRule compiles a rule from pattern sources. Every variable of the
// right-hand side must be bound by the left-hand side.
func NewRule(name, lhs, rhs string) (Rule, error) {
	l, err := ParsePattern(lhs)
	if err != nil {
		return Rule{}, fmt.Errorf("rule %s: %w", name, err)
	}
	r, err := ParsePattern(rhs)
	if err != nil {
		return Rule{}, fmt.Errorf("rule %s: %w", name, err)
	}
	for _, v := range r.vars {
		if !l.hasVar(v) {
			return Rule{}, fmt.Errorf("rule %s: variable ?%s unbound on the left-hand side", name, v)
		}
	}
	return Rule{Name: name, LHS: l, RHS: r}, nil
}

// MustRule compiles a rule and panics on error. For the static catalogue.
func MustRule(name, lhs, rhs string) Rule {
	r, err := NewRule(name, lhs, rhs)
	if err != nil {
		panic(err)
	}
	return r
}

// Search collects all matches of the rule's left-hand side. It performs no
// mutation, so a saturation iteration can snapshot all matches before
// applying any of them.
func (r Rule) Search(g *egraph.EGraph) []Match {
	return r.LHS.Search(g)
}

// Apply instantiates the right-hand side under the match's bindings and
// unions the result with the matched class. Returns the surviving canonical
// id and whether the union changed anything.
func (r Rule) Apply(g *egraph.EGraph, m Match) (lang.Id, bool) {
	id := instantiate(g, &r.RHS.root, m.Subst)
	return g.Union(m.Class, id)
}

func instantiate(g *egraph.EGraph, pn *patNode, s Subst) lang.Id {
	if pn.Var != "" {
		id, ok := s[pn.Var]
		invariant.Precondition(ok, "variable ?%s unbound during instantiation", pn.Var)
		return id
	}
	switch pn.Op {
	case lang.OpConstant:
		return g.Add(lang.ConstantNode(pn.Num))
	case lang.OpSymbol:
		return g.Add(lang.SymbolNode(pn.Sym))
	}
	if pn.Op.Arity() == 1 {
		return g.Add(lang.Unary(pn.Op, instantiate(g, &pn.Children[0], s)))
	}
	a := instantiate(g, &pn.Children[0], s)
	b := instantiate(g, &pn.Children[1], s)
	return g.Add(lang.Binary(pn.Op, a, b))
}
