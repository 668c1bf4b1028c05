package egraph

import (
	"math"

	"github.com/modelica-tools/eqsat/pkgs/lang"
)

// ConstantFold is the default analysis: the datum of a class is either nil
// (unknown) or a finite float64 every member of the class evaluates to.
// NaN and infinities never enter the datum; arithmetic that would produce
// them declines to fold.
type ConstantFold struct{}

// Fold reads a class datum as a constant.
func Fold(d any) (float64, bool) {
	v, ok := d.(float64)
	return v, ok
}

// Make folds an e-node when every child class has a known constant and the
// operator is defined at those values.
func (ConstantFold) Make(g *EGraph, n lang.ENode) any {
	switch n.Op {
	case lang.OpConstant:
		return n.Num
	case lang.OpSymbol:
		return nil
	}

	a, ok := Fold(g.Class(n.A).Data)
	if !ok {
		return nil
	}
	if n.Op == lang.OpDer {
		// The derivative of a constant is zero.
		return float64(0)
	}
	if n.Op == lang.OpSin {
		return finite(math.Sin(a))
	}

	b, ok := Fold(g.Class(n.B).Data)
	if !ok {
		return nil
	}
	switch n.Op {
	case lang.OpAdd:
		return finite(a + b)
	case lang.OpSub:
		return finite(a - b)
	case lang.OpMul:
		return finite(a * b)
	case lang.OpDiv:
		if b == 0 {
			return nil
		}
		return finite(a / b)
	case lang.OpPow:
		return finite(math.Pow(a, b))
	}
	return nil
}

// Merge joins two data. Both unknown stays unknown, one known wins, and two
// known constants keep the larger one (a maximum merge, so merging is
// deterministic and monotone). When two known constants actually differ the
// classes are contradictory; Modify then materializes the surviving constant
// and the subsequent union collapses the contradiction into a single class,
// so the choice of survivor is not observable in a rebuilt graph. Test
// oracles mirror the max tie-break.
func (ConstantFold) Merge(to, from any) (any, bool) {
	a, aok := Fold(to)
	b, bok := Fold(from)
	switch {
	case !bok:
		return to, false
	case !aok:
		return from, true
	case b > a:
		return from, true
	default:
		return to, false
	}
}

// Modify materializes the class's constant: when the datum is known, a
// Constant e-node for it is added and unioned with the class.
func (ConstantFold) Modify(g *EGraph, id lang.Id) {
	if v, ok := Fold(g.Class(id).Data); ok {
		g.Union(id, g.Add(lang.ConstantNode(v)))
	}
}

// finite returns v as a datum, or unknown if the arithmetic left the finite
// doubles.
func finite(v float64) any {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return v
}
