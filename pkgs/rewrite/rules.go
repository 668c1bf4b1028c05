package rewrite

// Default returns the default rule catalogue for Modelica-style arithmetic.
// The set is deliberately bidirectional where growth helps later shrinking
// (distribution, subtraction re-association); constant folding runs as an
// e-graph analysis, not as rules.
func Default() []Rule {
	return []Rule{
		MustRule("add-commute", "(+ ?a ?b)", "(+ ?b ?a)"),
		MustRule("add-associate", "(+ (+ ?a ?b) ?c)", "(+ ?a (+ ?b ?c))"),
		MustRule("add-neutral", "(+ ?a 0)", "?a"),
		MustRule("add-inverse", "(- ?a ?a)", "0"),

		MustRule("sub-associate", "(+ ?a (- ?b ?c))", "(- (+ ?a ?b) ?c)"),
		MustRule("sub-associate2", "(- (+ ?a ?b) ?c)", "(+ ?a (- ?b ?c))"),

		MustRule("mul-commute", "(* ?a ?b)", "(* ?b ?a)"),
		MustRule("mul-associate", "(* (* ?a ?b) ?c)", "(* ?a (* ?b ?c))"),
		MustRule("mul-neutral", "(* ?a 1)", "?a"),
		MustRule("mul-zero", "(* ?a 0)", "0"),

		MustRule("div-associate", "(* (/ ?a ?b) ?c)", "(* ?a (/ ?c ?b))"),
		MustRule("div-inverse", "(/ ?a ?a)", "1"),

		MustRule("distribute", "(* ?a (+ ?b ?c))", "(+ (* ?a ?b) (* ?a ?c))"),
		MustRule("factor", "(+ (* ?a ?b) (* ?a ?c))", "(* ?a (+ ?b ?c))"),

		MustRule("add-same-base", "(+ ?a ?a)", "(* ?a 2)"),
		MustRule("add-same", "(+ ?a (* ?a ?n))", "(* ?a (+ ?n 1))"),

		MustRule("mul-same-base", "(* ?a ?a)", "(^ ?a 2)"),
		MustRule("mul-same", "(* ?a (^ ?a ?n))", "(^ ?a (+ ?n 1))"),

		MustRule("pow-zero", "(^ ?a 0)", "1"),
		MustRule("pow-one", "(^ 1 ?a)", "1"),
		MustRule("pow-distribute", "(^ (* ?a ?b) ?n)", "(* (^ ?a ?n) (^ ?b ?n))"),

		MustRule("sin-zero", "(sin 0)", "0"),
	}
}
