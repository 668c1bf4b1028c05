// Package rewrite implements patterns over the term language, the e-graph
// matcher, and rewrite rules built from a left- and right-hand pattern.
//
// Patterns share the expression surface syntax; a leaf whose name starts
// with '?' is a pattern variable. Variables bind e-class ids, and a variable
// that occurs twice must bind the same canonical id (non-linear matching).
package rewrite

import (
	"fmt"
	"strings"

	"github.com/modelica-tools/eqsat/pkgs/lang"
	"github.com/modelica-tools/eqsat/pkgs/parser"
)

// Var is a pattern variable name, without the leading '?'.
type Var string

// patNode is one node of a compiled pattern: either a variable leaf or an
// operator (possibly a literal leaf) with sub-patterns per child position.
type patNode struct {
	Var      Var // non-empty for a variable leaf
	Op       lang.Op
	Num      float64
	Sym      lang.Symbol
	Children []patNode
}

// Pattern is a compiled pattern tree.
type Pattern struct {
	src  string
	root patNode
	vars []Var // first-occurrence order
}

// ParsePattern compiles a pattern from S-expression source.
func ParsePattern(src string) (Pattern, error) {
	expr, err := parser.Parse(src)
	if err != nil {
		return Pattern{}, fmt.Errorf("pattern %q: %w", src, err)
	}
	p := Pattern{src: src}
	p.root = p.compile(expr)
	return p, nil
}

// MustPattern compiles a pattern and panics on error. For statically known
// pattern sources such as the rule catalogue.
func MustPattern(src string) Pattern {
	p, err := ParsePattern(src)
	if err != nil {
		panic(err)
	}
	return p
}

func (p *Pattern) compile(e *lang.Expr) patNode {
	switch e.Op {
	case lang.OpConstant:
		return patNode{Op: lang.OpConstant, Num: e.Num}
	case lang.OpSymbol:
		name := e.Sym.String()
		if strings.HasPrefix(name, "?") {
			v := Var(name[1:])
			if !p.hasVar(v) {
				p.vars = append(p.vars, v)
			}
			return patNode{Var: v}
		}
		return patNode{Op: lang.OpSymbol, Sym: e.Sym}
	}
	n := patNode{Op: e.Op, Children: make([]patNode, 0, len(e.Args))}
	for _, a := range e.Args {
		n.Children = append(n.Children, p.compile(a))
	}
	return n
}

func (p *Pattern) hasVar(v Var) bool {
	for _, have := range p.vars {
		if have == v {
			return true
		}
	}
	return false
}

// Vars returns the pattern's variables in first-occurrence order.
func (p Pattern) Vars() []Var {
	return p.vars
}

func (p Pattern) String() string {
	return p.src
}
