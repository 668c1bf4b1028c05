package runner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modelica-tools/eqsat/pkgs/lang"
	"github.com/modelica-tools/eqsat/pkgs/logging"
	"github.com/modelica-tools/eqsat/pkgs/parser"
	"github.com/modelica-tools/eqsat/pkgs/rewrite"
)

func mustParse(t *testing.T, src string) *lang.Expr {
	t.Helper()
	expr, err := parser.Parse(src)
	require.NoError(t, err)
	return expr
}

func newRunner(t *testing.T, opts ...Option) *Runner {
	t.Helper()
	return New(append([]Option{WithLogger(logging.Discard())}, opts...)...)
}

func TestRunSaturates(t *testing.T) {
	r := newRunner(t)
	r.WithExpr(mustParse(t, "(sin 0)"))

	reason := r.Run(rewrite.Default())
	assert.Equal(t, Saturated, reason)
	assert.Equal(t, reason, r.StopReason())
	assert.NotEmpty(t, r.Iterations)
}

func TestSaturatedIsAFixedPoint(t *testing.T) {
	r := newRunner(t, WithTimeLimit(time.Minute))
	r.WithExpr(mustParse(t, "(/ x x)"))
	rules := rewrite.Default()
	require.Equal(t, Saturated, r.Run(rules))

	// a further run adds nothing and merges nothing
	added := r.Graph.NodesAdded()
	classes := r.Graph.ClassCount()
	r.ClearStop()
	assert.Equal(t, Saturated, r.Run(rules))
	assert.Equal(t, added, r.Graph.NodesAdded())
	assert.Equal(t, classes, r.Graph.ClassCount())
}

func TestRunIterationLimit(t *testing.T) {
	r := newRunner(t,
		WithIterLimit(1),
		WithNodeLimit(1<<20),
		WithTimeLimit(time.Minute),
	)
	r.WithExpr(mustParse(t, "(+ x (+ y (+ z w)))"))

	assert.Equal(t, IterationLimit, r.Run(rewrite.Default()))
	assert.Len(t, r.Iterations, 1)
}

func TestRunNodeLimit(t *testing.T) {
	r := newRunner(t,
		WithIterLimit(1000),
		WithNodeLimit(20),
		WithTimeLimit(time.Minute),
	)
	r.WithExpr(mustParse(t, "(+ x (+ y (+ z w)))"))

	assert.Equal(t, NodeLimit, r.Run(rewrite.Default()))
	// the iteration that crossed the limit is kept
	assert.Greater(t, r.Graph.NodeCount(), 20)
}

func TestRunTimeLimit(t *testing.T) {
	r := newRunner(t,
		WithIterLimit(1<<20),
		WithNodeLimit(1<<20),
		WithTimeLimit(0),
	)
	r.WithExpr(mustParse(t, "(+ x (+ y (+ z w)))"))

	assert.Equal(t, TimeLimit, r.Run(rewrite.Default()))
}

func TestRunIsReentrant(t *testing.T) {
	r := newRunner(t, WithIterLimit(1))
	r.WithExpr(mustParse(t, "(+ x y)"))
	rules := rewrite.Default()
	require.Equal(t, IterationLimit, r.Run(rules))

	// stopped runners stay stopped
	assert.Equal(t, IterationLimit, r.Run(rules))

	// clearing re-arms the loop on the same graph
	r.ClearStop()
	r.WithExpr(mustParse(t, "(* x y)"))
	reason := r.Run(rules)
	assert.NotEqual(t, StopNone, reason)
	assert.Len(t, r.Roots, 2)
}

func TestStopWith(t *testing.T) {
	r := newRunner(t)
	r.WithExpr(mustParse(t, "(+ x y)"))
	r.StopWith("host requested shutdown")

	assert.Equal(t, Other, r.Run(rewrite.Default()))
	assert.Equal(t, "host requested shutdown", r.OtherReason())
	assert.Empty(t, r.Iterations, "a stopped runner must not iterate")
}

func TestWithExprFoldsConstants(t *testing.T) {
	r := newRunner(t)
	root := r.WithExpr(mustParse(t, "(der 3.5)"))

	// analysis already folded the derivative during insertion
	data := r.Graph.Class(root).Data
	folded, known := data.(float64)
	require.True(t, known)
	assert.Equal(t, 0.0, folded)
}

func TestStopReasonString(t *testing.T) {
	assert.Equal(t, "saturated", Saturated.String())
	assert.Equal(t, "iteration limit", IterationLimit.String())
	assert.Equal(t, "node limit", NodeLimit.String())
	assert.Equal(t, "time limit", TimeLimit.String())
	assert.Equal(t, "other", Other.String())
	assert.Equal(t, "none", StopNone.String())
}
