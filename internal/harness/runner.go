// Package harness runs suites of checks outside the go test runner, with
// lifecycle hooks, conditional execution, assumptions, repetition and
// parameterized cases.
package harness

import (
	"context"
	"fmt"
	"time"
)

// Suite groups cases that share lifecycle hooks. BeforeAll and AfterAll run
// once around the suite; BeforeEach and AfterEach run around every invocation.
// Hooks may be nil.
type Suite struct {
	Name       string
	BeforeAll  func(*T)
	BeforeEach func(*T)
	AfterEach  func(*T)
	AfterAll   func(*T)
	Cases      []Case
}

// FailedError is returned by callers that turn a run with failures into an error.
type FailedError struct {
	Failed int
	Total  int
}

func (e *FailedError) Error() string {
	return fmt.Sprintf("%d of %d checks failed", e.Failed, e.Total)
}

// Skip reasons reported by the runner itself.
const (
	ReasonFiltered        = "excluded by filter parameters"
	ReasonBeforeAllFailed = "before-all hook failed"
	ReasonCancelled       = "cancelled"
	ReasonNoParameters    = "no parameters"
)

// Runner executes suites sequentially on the calling goroutine.
type Runner struct {
	env      Environment
	filter   Filter
	reporter Reporter
	now      func() time.Time
}

// Option configures a Runner.
type Option func(*Runner)

// NewRunner creates a Runner for the current OS with no environment name,
// no filter and a NopReporter.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		env:      DefaultEnvironment(""),
		reporter: NopReporter{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// WithEnvironment sets the environment conditions and assumptions see.
func WithEnvironment(env Environment) Option {
	return func(r *Runner) { r.env = env }
}

// WithFilter restricts which checks run.
func WithFilter(f Filter) Option {
	return func(r *Runner) { r.filter = f }
}

// WithReporter sets the progress reporter.
func WithReporter(rep Reporter) Option {
	return func(r *Runner) {
		if rep != nil {
			r.reporter = rep
		}
	}
}

// Run executes the suites in order and returns every result. Once ctx is
// done, remaining checks are reported skipped; AfterAll hooks of started
// suites still run.
func (r *Runner) Run(ctx context.Context, suites ...*Suite) Results {
	var results Results
	for _, s := range suites {
		r.runSuite(ctx, s, &results)
	}
	return results
}

func (r *Runner) runSuite(ctx context.Context, s *Suite, results *Results) {
	sid := TestID{Path: []string{s.Name}}
	container := newT(sid, r.env, r.reporter)
	start := r.now()

	if s.BeforeAll != nil {
		container.stage(s.BeforeAll)
	}
	setupReason := ""
	if container.stopped() {
		setupReason = ReasonBeforeAllFailed
		if !container.failed && container.reason != "" {
			setupReason = container.reason
		}
	}

	for _, c := range s.Cases {
		cid := sid.Child(c.Name)
		switch {
		case ctx.Err() != nil:
			r.skip(cid, c.title(), ReasonCancelled, results)
			continue
		case setupReason != "":
			r.skip(cid, c.title(), setupReason, results)
			continue
		}
		if ok, reason := c.enabled(r.env); !ok {
			r.skip(cid, c.title(), reason, results)
			continue
		}
		r.runCase(ctx, s, c, cid, results)
	}

	if s.AfterAll != nil {
		container.stage(s.AfterAll)
	}
	if container.failed {
		res := Result{
			ID:          sid,
			DisplayName: s.Name + " (all-cases hooks)",
			Status:      StatusFailed,
			Errors:      container.errors,
			Output:      container.output,
			Duration:    r.now().Sub(start),
		}
		r.reporter.TestFinished(res)
		results.add(res)
	}
}

func (r *Runner) runCase(ctx context.Context, s *Suite, c Case, cid TestID, results *Results) {
	invs := c.invocations()
	if !c.expands() {
		inv := invs[0]
		if r.filter != nil && !r.filter(cid) {
			r.skip(cid, inv.displayName, ReasonFiltered, results)
			return
		}
		r.invoke(s, cid, inv, results)
		return
	}
	if len(invs) == 0 {
		r.skip(cid, c.title(), ReasonNoParameters, results)
		return
	}
	for _, inv := range invs {
		id := cid.Child(inv.name)
		if ctx.Err() != nil {
			r.skip(id, inv.displayName, ReasonCancelled, results)
			continue
		}
		if r.filter != nil && !r.filter(id) {
			r.skip(id, inv.displayName, ReasonFiltered, results)
			continue
		}
		r.invoke(s, id, inv, results)
	}
}

// invoke runs one invocation: BeforeEach, the body if BeforeEach left the
// check running, then AfterEach regardless.
func (r *Runner) invoke(s *Suite, id TestID, inv invocation, results *Results) {
	r.reporter.TestStarted(id, inv.displayName)
	start := r.now()
	t := newT(id, r.env, r.reporter)

	if s.BeforeEach != nil {
		t.stage(s.BeforeEach)
	}
	if !t.stopped() && inv.body != nil {
		t.stage(inv.body)
	}
	if s.AfterEach != nil {
		t.stage(s.AfterEach)
	}

	res := Result{
		ID:          id,
		DisplayName: inv.displayName,
		Status:      t.status(),
		Reason:      t.reason,
		Errors:      t.errors,
		Output:      t.output,
		Duration:    r.now().Sub(start),
	}
	r.reporter.TestFinished(res)
	results.add(res)
}

func (r *Runner) skip(id TestID, displayName, reason string, results *Results) {
	res := Result{
		ID:          id,
		DisplayName: displayName,
		Status:      StatusSkipped,
		Reason:      reason,
	}
	r.reporter.TestFinished(res)
	results.add(res)
}
