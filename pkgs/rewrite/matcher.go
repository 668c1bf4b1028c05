package rewrite

import (
	"sort"
	"strconv"
	"strings"

	"github.com/modelica-tools/eqsat/pkgs/egraph"
	"github.com/modelica-tools/eqsat/pkgs/lang"
)

// Subst maps pattern variables to canonical e-class ids.
type Subst map[Var]lang.Id

func (s Subst) clone() Subst {
	ns := make(Subst, len(s)+1)
	for k, v := range s {
		ns[k] = v
	}
	return ns
}

// Match is one place a pattern matched: the class of the pattern root and
// the variable bindings that make it match.
type Match struct {
	Class lang.Id
	Subst Subst
}

// Search enumerates every distinct substitution at every class where the
// pattern root matches. The result is ordered by (class id, binding tuple),
// which keeps the saturation driver deterministic for a fixed rule set and
// input. The graph must be rebuilt.
func (p Pattern) Search(g *egraph.EGraph) []Match {
	var out []Match
	for _, id := range g.ClassIDs() {
		for _, s := range p.SearchClass(g, id) {
			out = append(out, Match{Class: id, Subst: s})
		}
	}
	return out
}

// SearchClass enumerates the distinct substitutions under which the pattern
// matches at the given class, sorted by binding tuple.
func (p Pattern) SearchClass(g *egraph.EGraph, id lang.Id) []Subst {
	substs := matchNode(g, &p.root, id, Subst{})
	if len(substs) == 0 {
		return nil
	}

	// Distinct bindings only: several e-nodes of a class can yield the same
	// substitution.
	keyed := make(map[string]Subst, len(substs))
	keys := make([]string, 0, len(substs))
	for _, s := range substs {
		k := p.substKey(s)
		if _, dup := keyed[k]; !dup {
			keyed[k] = s
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	out := make([]Subst, 0, len(keys))
	for _, k := range keys {
		out = append(out, keyed[k])
	}
	return out
}

// substKey renders the bindings in variable declaration order, giving a
// stable sort key for substitutions of the same pattern.
func (p Pattern) substKey(s Subst) string {
	var b strings.Builder
	for _, v := range p.vars {
		b.WriteString(string(v))
		b.WriteByte('=')
		b.WriteString(strconv.FormatUint(uint64(s[v]), 10))
		b.WriteByte(';')
	}
	return b.String()
}

// matchNode matches one pattern node against one class, threading the
// substitution through child positions. Every e-node of the class is
// considered, so no match under the congruence closure is missed.
func matchNode(g *egraph.EGraph, pn *patNode, id lang.Id, s Subst) []Subst {
	id = g.Find(id)

	if pn.Var != "" {
		if bound, ok := s[pn.Var]; ok {
			if g.Find(bound) == id {
				return []Subst{s}
			}
			return nil
		}
		ns := s.clone()
		ns[pn.Var] = id
		return []Subst{ns}
	}

	var out []Subst
	for _, n := range g.Class(id).Nodes {
		if n.Op != pn.Op {
			continue
		}
		switch pn.Op {
		case lang.OpConstant:
			if n.Num != pn.Num {
				continue
			}
		case lang.OpSymbol:
			if n.Sym != pn.Sym {
				continue
			}
		}

		states := []Subst{s}
		for i := range pn.Children {
			var next []Subst
			for _, st := range states {
				next = append(next, matchNode(g, &pn.Children[i], n.Child(i), st)...)
			}
			states = next
			if len(states) == 0 {
				break
			}
		}
		out = append(out, states...)
	}
	return out
}
