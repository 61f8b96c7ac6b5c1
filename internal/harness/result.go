package harness

import (
	"strings"
	"time"
)

// Status is the outcome of a single check invocation.
type Status string

const (
	StatusPassed  Status = "passed"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
	StatusAborted Status = "aborted"
)

// TestID identifies a check by its path of suite, case and invocation names.
type TestID struct {
	Path []string
}

func (id TestID) String() string {
	return strings.Join(id.Path, "/")
}

// Child returns the ID of a nested check.
func (id TestID) Child(name string) TestID {
	path := make([]string, len(id.Path), len(id.Path)+1)
	copy(path, id.Path)
	return TestID{Path: append(path, name)}
}

// Result records the outcome of one invocation, or of a suite's
// all-cases hooks when those fail.
type Result struct {
	ID          TestID
	DisplayName string
	Status      Status
	Reason      string   // Why the check was skipped or aborted.
	Errors      []error  // Failures reported through Errorf or panics.
	Output      []string // Lines written with Logf.
	Duration    time.Duration
}

// Results collects every result of a run in execution order.
type Results struct {
	Tests []Result
}

// OK reports whether no check failed.
func (r Results) OK() bool {
	return r.Count(StatusFailed) == 0
}

// Count returns the number of results with the given status.
func (r Results) Count(s Status) int {
	n := 0
	for _, t := range r.Tests {
		if t.Status == s {
			n++
		}
	}
	return n
}

// Failures returns the failed results.
func (r Results) Failures() []Result {
	var out []Result
	for _, t := range r.Tests {
		if t.Status == StatusFailed {
			out = append(out, t)
		}
	}
	return out
}

func (r *Results) add(res Result) {
	r.Tests = append(r.Tests, res)
}
