// Package runner drives equality saturation: it repeatedly searches all
// rules against the e-graph, applies the collected matches, rebuilds, and
// stops at a fixed point or a resource limit.
package runner

import (
	"log/slog"
	"time"

	"github.com/modelica-tools/eqsat/pkgs/egraph"
	"github.com/modelica-tools/eqsat/pkgs/lang"
	"github.com/modelica-tools/eqsat/pkgs/rewrite"
)

// Default resource limits.
const (
	DefaultIterLimit = 10
	DefaultNodeLimit = 1000
	DefaultTimeLimit = 500 * time.Millisecond
)

// StopReason records why the saturation loop exited.
type StopReason int

const (
	StopNone StopReason = iota
	Saturated
	IterationLimit
	NodeLimit
	TimeLimit
	Other
)

var stopNames = [...]string{
	StopNone:       "none",
	Saturated:      "saturated",
	IterationLimit: "iteration limit",
	NodeLimit:      "node limit",
	TimeLimit:      "time limit",
	Other:          "other",
}

func (s StopReason) String() string {
	if int(s) < len(stopNames) && int(s) >= 0 {
		return stopNames[s]
	}
	return "unknown"
}

// Iteration is the report of one saturation iteration.
type Iteration struct {
	Matches       int
	Unions        int
	RebuildUnions int
	Nodes         int
	Classes       int
	Duration      time.Duration
}

// Runner owns an e-graph and a set of roots and runs the saturation loop
// under iteration, node-count and wall-clock limits. A stopped runner can be
// re-armed with ClearStop and run again against the same graph, so an engine
// can amortize congruence-closure work across many expressions.
type Runner struct {
	Graph *egraph.EGraph
	Roots []lang.Id

	IterLimit int
	NodeLimit int
	TimeLimit time.Duration

	Iterations []Iteration

	reason      StopReason
	otherReason string
	logger      *slog.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithGraph supplies an existing e-graph instead of a fresh one.
func WithGraph(g *egraph.EGraph) Option {
	return func(r *Runner) { r.Graph = g }
}

// WithIterLimit caps the number of iterations.
func WithIterLimit(n int) Option {
	return func(r *Runner) { r.IterLimit = n }
}

// WithNodeLimit caps the number of e-nodes in the graph.
func WithNodeLimit(n int) Option {
	return func(r *Runner) { r.NodeLimit = n }
}

// WithTimeLimit caps the wall-clock duration of a Run call.
func WithTimeLimit(d time.Duration) Option {
	return func(r *Runner) { r.TimeLimit = d }
}

// WithLogger sets the logger for per-iteration progress and stop reasons.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// New creates a runner with default limits, a constant-folding e-graph, and
// any overrides applied.
func New(opts ...Option) *Runner {
	r := &Runner{
		IterLimit: DefaultIterLimit,
		NodeLimit: DefaultNodeLimit,
		TimeLimit: DefaultTimeLimit,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.Graph == nil {
		r.Graph = egraph.New(egraph.ConstantFold{})
	}
	return r
}

// WithExpr inserts an expression, records its class as a root, and rebuilds
// so the analysis folds the new subterms. Returns the root class id.
func (r *Runner) WithExpr(e *lang.Expr) lang.Id {
	id := r.Graph.AddExpr(e)
	r.Graph.Rebuild()
	id = r.Graph.Find(id)
	r.Roots = append(r.Roots, id)
	return id
}

// StopReason returns why the last Run exited, or StopNone if it has not run.
func (r *Runner) StopReason() StopReason {
	return r.reason
}

// OtherReason returns the externally supplied reason when StopReason is
// Other.
func (r *Runner) OtherReason() string {
	return r.otherReason
}

// StopWith sets an external stop condition. The loop honors it at the next
// iteration boundary; a stopped runner stays stopped until ClearStop.
func (r *Runner) StopWith(reason string) {
	r.reason = Other
	r.otherReason = reason
}

// ClearStop re-arms the runner after a stop so Run can be invoked again on
// the same e-graph with more expressions or rules.
func (r *Runner) ClearStop() {
	r.reason = StopNone
	r.otherReason = ""
}

// Run iterates search, apply, rebuild until a stop condition fires, and
// returns the stop reason. Search is a snapshot: no rewrite observes the
// intermediate graph produced by another rewrite of the same iteration.
func (r *Runner) Run(rules []rewrite.Rule) StopReason {
	if r.reason != StopNone {
		return r.reason
	}

	start := time.Now()
	iters := 0
	for {
		iterStart := time.Now()
		addedBefore := r.Graph.NodesAdded()

		// Search phase: collect all matches with no mutation.
		matches := make([][]rewrite.Match, len(rules))
		for i, rule := range rules {
			matches[i] = rule.Search(r.Graph)
		}

		// Apply phase.
		applied := 0
		unions := 0
		for i, rule := range rules {
			for _, m := range matches[i] {
				if _, changed := rule.Apply(r.Graph, m); changed {
					unions++
				}
				applied++
			}
		}

		// Rebuild phase.
		rebuildUnions := r.Graph.Rebuild()

		iter := Iteration{
			Matches:       applied,
			Unions:        unions,
			RebuildUnions: rebuildUnions,
			Nodes:         r.Graph.NodeCount(),
			Classes:       r.Graph.ClassCount(),
			Duration:      time.Since(iterStart),
		}
		r.Iterations = append(r.Iterations, iter)
		iters++
		r.logger.Debug("saturation iteration",
			slog.Int("iteration", len(r.Iterations)),
			slog.Int("matches", iter.Matches),
			slog.Int("unions", iter.Unions+iter.RebuildUnions),
			slog.Int("nodes", iter.Nodes),
			slog.Int("classes", iter.Classes),
			slog.Duration("duration", iter.Duration),
		)

		// Stop conditions, checked in order. The iteration that crossed a
		// limit is kept.
		switch {
		case unions == 0 && rebuildUnions == 0 && r.Graph.NodesAdded() == addedBefore:
			r.reason = Saturated
		case iters >= r.IterLimit:
			r.reason = IterationLimit
		case r.Graph.NodeCount() > r.NodeLimit:
			r.reason = NodeLimit
		case time.Since(start) > r.TimeLimit:
			r.reason = TimeLimit
		default:
			continue
		}

		r.logger.Debug("saturation stopped",
			slog.String("reason", r.reason.String()),
			slog.Int("iterations", len(r.Iterations)),
			slog.Int("nodes", r.Graph.NodeCount()),
		)
		return r.reason
	}
}
