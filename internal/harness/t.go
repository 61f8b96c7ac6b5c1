package harness

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
)

// Environment describes where checks run. Conditions and assumptions
// are evaluated against it.
type Environment struct {
	GOOS string // Operating system, as in runtime.GOOS.
	Name string // Deployment environment, e.g. "DEV".
}

// DefaultEnvironment returns the environment of the running process with the given name.
func DefaultEnvironment(name string) Environment {
	return Environment{GOOS: runtime.GOOS, Name: name}
}

// T is the context passed to hooks and check bodies.
//
// It offers the subset of testing.T that testify's assert and require
// packages need, so checks can pass a *T wherever they would pass a
// *testing.T. Calls that end the check (FailNow, Skip, Assume) unwind the
// current stage only; the runner still executes the remaining hooks.
type T struct {
	id       TestID
	env      Environment
	reporter Reporter

	failed  bool
	skipped bool
	aborted bool
	reason  string
	errors  []error
	output  []string
}

// halt is the panic value used to unwind a stage.
type halt struct{ t *T }

func newT(id TestID, env Environment, reporter Reporter) *T {
	return &T{id: id, env: env, reporter: reporter}
}

// Name returns the slash-separated ID of the running check.
func (t *T) Name() string {
	return t.id.String()
}

// Environment returns the environment the check runs in.
func (t *T) Environment() Environment {
	return t.env
}

// Helper is a no-op; it exists so testify can treat T as a helper-aware TestingT.
func (t *T) Helper() {}

// Errorf records a failure and continues.
func (t *T) Errorf(format string, args ...any) {
	t.failed = true
	err := fmt.Errorf(format, args...)
	t.errors = append(t.errors, err)
	t.reporter.TestError(t.id, err)
}

// FailNow marks the check failed and stops the current stage.
func (t *T) FailNow() {
	t.failed = true
	panic(halt{t})
}

// Fatalf is Errorf followed by FailNow.
func (t *T) Fatalf(format string, args ...any) {
	t.Errorf(format, args...)
	t.FailNow()
}

// Failed reports whether the check has failed.
func (t *T) Failed() bool {
	return t.failed
}

// Skip marks the check skipped and stops the current stage.
func (t *T) Skip() {
	t.skipped = true
	panic(halt{t})
}

// SkipWithReason is Skip with an explanation shown in results.
func (t *T) SkipWithReason(reason string) {
	t.reason = reason
	t.Skip()
}

// Assume aborts the check when cond is false. An aborted check is neither
// passed nor failed.
func (t *T) Assume(cond bool, reason string) {
	if cond {
		return
	}
	t.aborted = true
	t.reason = reason
	panic(halt{t})
}

// Logf captures a line of output for the check's result.
func (t *T) Logf(format string, args ...any) {
	t.output = append(t.output, fmt.Sprintf(format, args...))
}

// stopped reports whether a stage ended the check early.
func (t *T) stopped() bool {
	return t.failed || t.skipped || t.aborted
}

func (t *T) status() Status {
	switch {
	case t.failed:
		return StatusFailed
	case t.aborted:
		return StatusAborted
	case t.skipped:
		return StatusSkipped
	default:
		return StatusPassed
	}
}

// stage runs fn, converting halts into T state and panics into failures.
func (t *T) stage(fn func(*T)) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		if h, ok := r.(halt); ok && h.t == t {
			if t.failed && len(t.errors) == 0 {
				t.Errorf("check failed with no failure message")
			}
			return
		}
		t.Errorf("unexpected panic: %v\n%s", r, strings.TrimSpace(string(debug.Stack())))
	}()
	fn(t)
}
