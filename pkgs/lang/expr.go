package lang

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Expr is a term tree, the parsed form of a surface expression and the
// output of extraction. Args holds exactly Op.Arity() children.
type Expr struct {
	Op   Op
	Args []*Expr
	Num  float64 // payload when Op == OpConstant
	Sym  Symbol  // payload when Op == OpSymbol
}

// Constant builds a constant leaf expression. NaN is forbidden by construction.
func Constant(c float64) *Expr {
	if math.IsNaN(c) {
		panic("lang: NaN constant")
	}
	return &Expr{Op: OpConstant, Num: c}
}

// SymbolExpr builds a symbol leaf expression.
func SymbolExpr(s Symbol) *Expr {
	return &Expr{Op: OpSymbol, Sym: s}
}

// Apply builds a compound expression, checking the operator's arity.
func Apply(op Op, args ...*Expr) *Expr {
	if op.IsLeaf() {
		panic(fmt.Sprintf("lang: %s takes a payload, not children", op))
	}
	if len(args) != op.Arity() {
		panic(fmt.Sprintf("lang: %s expects %d arguments, got %d", op, op.Arity(), len(args)))
	}
	return &Expr{Op: op, Args: args}
}

// Size returns the AST size: 1 per node, leaves included.
func (e *Expr) Size() int {
	n := 1
	for _, a := range e.Args {
		n += a.Size()
	}
	return n
}

// String renders the expression in S-expression prefix notation, the same
// surface syntax the parser accepts.
func (e *Expr) String() string {
	var b strings.Builder
	e.write(&b)
	return b.String()
}

func (e *Expr) write(b *strings.Builder) {
	switch e.Op {
	case OpConstant:
		b.WriteString(strconv.FormatFloat(e.Num, 'g', -1, 64))
	case OpSymbol:
		b.WriteString(e.Sym.String())
	default:
		b.WriteByte('(')
		b.WriteString(e.Op.String())
		for _, a := range e.Args {
			b.WriteByte(' ')
			a.write(b)
		}
		b.WriteByte(')')
	}
}
