package engine

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/modelica-tools/eqsat/pkgs/logging"
	"github.com/modelica-tools/eqsat/pkgs/parser"
	"github.com/modelica-tools/eqsat/pkgs/runner"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// testEngine builds an engine with a generous time limit so results do not
// depend on machine speed.
func testEngine(opts ...Option) *Engine {
	base := []Option{
		WithTimeLimit(time.Minute),
		WithLogger(logging.Discard()),
	}
	return MakeEngine(append(base, opts...)...)
}

func TestSimplifyScenarios(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string // any of these is acceptable
	}{
		{
			name:  "factor repeated addend",
			input: "(+ x (+ y (* 2 x)))",
			want:  []string{"(+ y (* x 3))", "(+ y (* 3 x))", "(+ (* x 3) y)", "(+ (* 3 x) y)"},
		},
		{
			name:  "cancel subtraction",
			input: "(- (+ x0 (+ x1 (+ x2 x3))) (+ x3 x1))",
			want:  []string{"(+ x0 x2)", "(+ x2 x0)"},
		},
		{
			name:  "times zero",
			input: "(* 0 42)",
			want:  []string{"0"},
		},
		{
			name:  "strip identities",
			input: "(+ 0 (* 1 foo))",
			want:  []string{"foo"},
		},
		{
			name:  "sine of zero",
			input: "(sin 0)",
			want:  []string{"0"},
		},
		{
			name:  "derivative of constant",
			input: "(der 3.5)",
			want:  []string{"0"},
		},
		{
			name:  "already minimal",
			input: "x",
			want:  []string{"x"},
		},
		{
			name:  "fold closed expression",
			input: "(+ (* 2 3) (/ 8 2))",
			want:  []string{"10"},
		},
		{
			name:  "divide by itself",
			input: "(/ x x)",
			want:  []string{"1"},
		},
		{
			name:  "power of zero",
			input: "(^ (* a b) 0)",
			want:  []string{"1"},
		},
		{
			name:  "subtract itself",
			input: "(- (sin q) (sin q))",
			want:  []string{"0"},
		},
	}

	rules := MakeRules()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eng := testEngine(WithNodeLimit(5000), WithIterLimit(15))
			defer Release(eng)

			got, err := eng.Simplify(rules, tt.input)
			require.NoError(t, err)
			assert.Contains(t, tt.want, got)
		})
	}
}

func TestSimplifyNeverGrowsCost(t *testing.T) {
	inputs := []string{
		"(+ x y)",
		"(* (+ a b) (+ a b))",
		"(- (+ x y) y)",
		"(/ (* x y) (* x y))",
		"(^ (* a b) 2)",
		"(der (sin x))",
	}
	rules := MakeRules()
	for _, input := range inputs {
		eng := testEngine()
		res, err := eng.SimplifyExpr(rules, input)
		require.NoError(t, err, "input %q", input)
		assert.LessOrEqual(t, res.Cost, res.InputCost, "simplify grew %q to %q", input, res.Expr)
		Release(eng)
	}
}

func TestSimplifyDeterminism(t *testing.T) {
	const input = "(+ x (+ y (* 2 x)))"
	rules := MakeRules()

	eng := testEngine()
	first, err := eng.Simplify(rules, input)
	require.NoError(t, err)
	Release(eng)

	for i := 0; i < 5; i++ {
		eng := testEngine()
		got, err := eng.Simplify(rules, input)
		require.NoError(t, err)
		assert.Equal(t, first, got, "run %d diverged", i)
		Release(eng)
	}
}

func TestSimplifyIdempotent(t *testing.T) {
	rules := MakeRules()
	eng := testEngine()
	defer Release(eng)

	out, err := eng.Simplify(rules, "(+ x (+ y (* 2 x)))")
	require.NoError(t, err)

	eng2 := testEngine()
	defer Release(eng2)
	res, err := eng2.SimplifyExpr(rules, out)
	require.NoError(t, err)
	assert.Equal(t, res.InputCost, res.Cost, "simplified form must be a fixed point")
}

func TestSimplifyParseErrorLeavesEngineUsable(t *testing.T) {
	rules := MakeRules()
	eng := testEngine()
	defer Release(eng)

	_, err := eng.Simplify(rules, "(+ x")
	require.Error(t, err)
	var perr *parser.ParseError
	require.ErrorAs(t, err, &perr)

	nodes := eng.Graph().NodeCount()
	assert.Zero(t, nodes, "failed parse must not touch the graph")

	got, err := eng.Simplify(rules, "(* 1 z)")
	require.NoError(t, err)
	assert.Equal(t, "z", got)
}

func TestSimplifyReusesGraphAcrossCalls(t *testing.T) {
	rules := MakeRules()
	eng := testEngine()
	defer Release(eng)

	first, err := eng.SimplifyExpr(rules, "(+ x (* 2 x))")
	require.NoError(t, err)

	added := eng.Graph().NodesAdded()
	second, err := eng.SimplifyExpr(rules, "(+ x (* 2 x))")
	require.NoError(t, err)
	assert.Equal(t, first.Expr, second.Expr)
	assert.Equal(t, added, eng.Graph().NodesAdded(),
		"a repeated expression is already saturated in the shared graph")
}

func TestSimplifyEquation(t *testing.T) {
	rules := MakeRules()
	eng := testEngine()
	defer Release(eng)

	lhs, rhs, err := eng.SimplifyEquation(rules, "(+ foo 0)", "(* 1 bar)")
	require.NoError(t, err)
	assert.Equal(t, "foo", lhs)
	assert.Equal(t, "bar", rhs)
}

func TestSimplifyResourceExhaustionIsNotAnError(t *testing.T) {
	rules := MakeRules()
	eng := testEngine(WithNodeLimit(15), WithIterLimit(3))
	defer Release(eng)

	res, err := eng.SimplifyExpr(rules, "(+ a (+ b (+ c d)))")
	require.NoError(t, err, "hitting a limit must not fail the call")
	assert.Contains(t, []runner.StopReason{runner.NodeLimit, runner.IterationLimit}, res.Stop)
	assert.LessOrEqual(t, res.Cost, res.InputCost)

	// best-so-far output still parses and is equivalent in size or smaller
	_, err = parser.Parse(res.Expr)
	assert.NoError(t, err)
}

func TestSaveLoadGraph(t *testing.T) {
	rules := MakeRules()
	eng := testEngine()

	want, err := eng.Simplify(rules, "(+ x (* 2 x))")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, eng.SaveGraph(&buf))
	Release(eng)

	eng2 := testEngine()
	defer Release(eng2)
	require.NoError(t, eng2.LoadGraph(&buf))

	got, err := eng2.Simplify(rules, "(+ x (* 2 x))")
	require.NoError(t, err)
	assert.Equal(t, want, got, "reloaded graph must extract the same result")
}

func TestReleaseIdempotentOnNil(t *testing.T) {
	Release(nil)

	eng := testEngine()
	Release(eng)
	Release(eng)
}

func TestTimingsRecorded(t *testing.T) {
	rules := MakeRules()
	eng := testEngine()
	defer Release(eng)

	res, err := eng.SimplifyExpr(rules, "(+ x (* 2 x))")
	require.NoError(t, err)
	assert.Greater(t, res.Timings.Run, time.Duration(0))
	assert.Greater(t, res.Timings.Extract, time.Duration(0))
}
