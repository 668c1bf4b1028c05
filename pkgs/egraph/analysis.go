package egraph

import "github.com/modelica-tools/eqsat/pkgs/lang"

// Analysis attaches a monotone lattice datum to every e-class and keeps it
// consistent across unions and rebuilds. The e-graph consumes the three
// capabilities and is otherwise agnostic to what the datum means; a nil
// Analysis disables the mechanism entirely.
//
// Contract:
//
//   - Make computes the datum of a single e-node from the data of its child
//     classes (read through g.Class).
//   - Merge joins two data and reports whether the result differs from `to`.
//     It must be monotone: repeated merging reaches a fixed point.
//   - Modify may rewrite the class based on its datum, typically by adding
//     nodes and unioning them with the class. It runs during Rebuild, after
//     the datum of the class has been recomputed.
type Analysis interface {
	Make(g *EGraph, n lang.ENode) any
	Merge(to, from any) (any, bool)
	Modify(g *EGraph, id lang.Id)
}
