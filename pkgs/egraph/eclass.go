package egraph

import "github.com/modelica-tools/eqsat/pkgs/lang"

// Parent is a parent link: an e-node stored in another class that mentions
// this class as a child, kept together with that parent's class id.
type Parent struct {
	Node  lang.ENode
	Class lang.Id
}

// EClass is a set of e-nodes held to be equivalent, the parent links of the
// class, and its analysis datum. Nodes keeps insertion order; extraction
// relies on that order for deterministic tie-breaking.
type EClass struct {
	ID      lang.Id
	Nodes   []lang.ENode
	Parents []Parent
	Data    any
}
