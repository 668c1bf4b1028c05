package lang

import (
	"fmt"
	"math"
	"strconv"
)

// ENode is one concrete term shape: an operator applied to ordered child
// e-class ids, or a leaf payload. ENode is a comparable value type so it can
// key the e-graph's hash-cons map directly; constructors zero the unused
// fields to keep that comparison meaningful.
type ENode struct {
	Op   Op
	A, B Id      // child slots, valid up to Op.Arity()
	Num  float64 // payload when Op == OpConstant
	Sym  Symbol  // payload when Op == OpSymbol
}

// Binary builds a two-child e-node.
func Binary(op Op, a, b Id) ENode {
	if op.Arity() != 2 {
		panic(fmt.Sprintf("lang: %s is not a binary operator", op))
	}
	return ENode{Op: op, A: a, B: b}
}

// Unary builds a one-child e-node.
func Unary(op Op, a Id) ENode {
	if op.Arity() != 1 {
		panic(fmt.Sprintf("lang: %s is not a unary operator", op))
	}
	return ENode{Op: op, A: a}
}

// ConstantNode builds a constant leaf. NaN is forbidden by construction.
func ConstantNode(c float64) ENode {
	if math.IsNaN(c) {
		panic("lang: NaN constant")
	}
	return ENode{Op: OpConstant, Num: c}
}

// SymbolNode builds a symbol leaf.
func SymbolNode(s Symbol) ENode {
	return ENode{Op: OpSymbol, Sym: s}
}

// IsLeaf reports whether the node carries a payload instead of children.
func (n ENode) IsLeaf() bool {
	return n.Op.IsLeaf()
}

// Children returns the child ids in order. The result is nil for leaves.
func (n ENode) Children() []Id {
	switch n.Op.Arity() {
	case 1:
		return []Id{n.A}
	case 2:
		return []Id{n.A, n.B}
	}
	return nil
}

// Child returns the i-th child id.
func (n ENode) Child(i int) Id {
	switch {
	case i == 0 && n.Op.Arity() >= 1:
		return n.A
	case i == 1 && n.Op.Arity() >= 2:
		return n.B
	}
	panic(fmt.Sprintf("lang: child %d out of range for %s", i, n.Op))
}

// MapChildren returns a copy of the node with every child id passed through
// f. Leaves are returned unchanged.
func (n ENode) MapChildren(f func(Id) Id) ENode {
	switch n.Op.Arity() {
	case 1:
		n.A = f(n.A)
	case 2:
		n.A = f(n.A)
		n.B = f(n.B)
	}
	return n
}

func (n ENode) String() string {
	switch n.Op {
	case OpConstant:
		return strconv.FormatFloat(n.Num, 'g', -1, 64)
	case OpSymbol:
		return n.Sym.String()
	}
	switch n.Op.Arity() {
	case 1:
		return fmt.Sprintf("(%s %d)", n.Op, n.A)
	default:
		return fmt.Sprintf("(%s %d %d)", n.Op, n.A, n.B)
	}
}
