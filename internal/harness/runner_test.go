package harness

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingReporter captures reporter events in order.
type recordingReporter struct {
	started  []string
	errs     []string
	finished []Result
}

func (r *recordingReporter) TestStarted(id TestID, _ string) {
	r.started = append(r.started, id.String())
}

func (r *recordingReporter) TestError(id TestID, err error) {
	r.errs = append(r.errs, id.String()+": "+err.Error())
}

func (r *recordingReporter) TestFinished(res Result) {
	r.finished = append(r.finished, res)
}

func statuses(res Results) map[string]Status {
	out := make(map[string]Status, len(res.Tests))
	for _, t := range res.Tests {
		out[t.ID.String()] = t.Status
	}
	return out
}

func TestRunner_LifecycleOrder(t *testing.T) {
	// Given a suite that records every hook call
	var calls []string
	rec := func(name string) func(*T) {
		return func(*T) { calls = append(calls, name) }
	}
	s := &Suite{
		Name:       "s",
		BeforeAll:  rec("beforeAll"),
		BeforeEach: rec("beforeEach"),
		AfterEach:  rec("afterEach"),
		AfterAll:   rec("afterAll"),
		Cases: []Case{
			{Name: "a", Body: rec("a")},
			{Name: "b", Body: rec("b")},
		},
	}

	// When the suite runs
	res := NewRunner().Run(context.Background(), s)

	// Then hooks wrap each case and the suite
	want := []string{
		"beforeAll",
		"beforeEach", "a", "afterEach",
		"beforeEach", "b", "afterEach",
		"afterAll",
	}
	if !reflect.DeepEqual(calls, want) {
		t.Errorf("calls = %v, want %v", calls, want)
	}
	if !res.OK() {
		t.Errorf("OK() = false, failures = %+v", res.Failures())
	}
	if got := res.Count(StatusPassed); got != 2 {
		t.Errorf("passed = %d, want 2", got)
	}
}

func TestRunner_Statuses(t *testing.T) {
	s := &Suite{
		Name: "s",
		Cases: []Case{
			{Name: "pass", Body: func(*T) {}},
			{Name: "errorf", Body: func(t *T) { t.Errorf("boom %d", 1) }},
			{Name: "failnow", Body: func(t *T) { t.FailNow() }},
			{Name: "fatalf", Body: func(t *T) { t.Fatalf("fatal") }},
			{Name: "skip", Body: func(t *T) { t.SkipWithReason("not today") }},
			{Name: "assume", Body: func(t *T) { t.Assume(false, "needs DEV") }},
			{Name: "assume-ok", Body: func(t *T) { t.Assume(true, "unused") }},
			{Name: "panic", Body: func(*T) { panic("kaboom") }},
		},
	}

	res := NewRunner().Run(context.Background(), s)

	want := map[string]Status{
		"s/pass":      StatusPassed,
		"s/errorf":    StatusFailed,
		"s/failnow":   StatusFailed,
		"s/fatalf":    StatusFailed,
		"s/skip":      StatusSkipped,
		"s/assume":    StatusAborted,
		"s/assume-ok": StatusPassed,
		"s/panic":     StatusFailed,
	}
	if got := statuses(res); !reflect.DeepEqual(got, want) {
		t.Errorf("statuses = %v, want %v", got, want)
	}

	for _, r := range res.Tests {
		switch r.ID.String() {
		case "s/skip":
			if r.Reason != "not today" {
				t.Errorf("skip reason = %q", r.Reason)
			}
		case "s/assume":
			if r.Reason != "needs DEV" {
				t.Errorf("assume reason = %q", r.Reason)
			}
		case "s/failnow":
			if len(r.Errors) != 1 {
				t.Errorf("failnow errors = %v, want one placeholder error", r.Errors)
			}
		case "s/panic":
			if len(r.Errors) == 0 || !strings.Contains(r.Errors[0].Error(), "kaboom") {
				t.Errorf("panic errors = %v", r.Errors)
			}
		}
	}
}

func TestRunner_BeforeEachFailureSkipsBodyButRunsAfterEach(t *testing.T) {
	var bodyRan, afterRan bool
	s := &Suite{
		Name:       "s",
		BeforeEach: func(t *T) { t.Fatalf("setup broke") },
		AfterEach:  func(*T) { afterRan = true },
		Cases:      []Case{{Name: "a", Body: func(*T) { bodyRan = true }}},
	}

	res := NewRunner().Run(context.Background(), s)

	if bodyRan {
		t.Error("body should not run after BeforeEach fails")
	}
	if !afterRan {
		t.Error("AfterEach should run after BeforeEach fails")
	}
	if res.Tests[0].Status != StatusFailed {
		t.Errorf("status = %q, want failed", res.Tests[0].Status)
	}
}

func TestRunner_AssumptionInBeforeEachAbortsAndRunsAfterEach(t *testing.T) {
	var afterRan bool
	s := &Suite{
		Name:       "s",
		BeforeEach: func(t *T) { t.Assume(false, "offline") },
		AfterEach:  func(*T) { afterRan = true },
		Cases:      []Case{{Name: "a", Body: func(t *T) { t.Errorf("should not run") }}},
	}

	res := NewRunner().Run(context.Background(), s)

	if !afterRan {
		t.Error("AfterEach should run after an aborted BeforeEach")
	}
	if got := res.Tests[0].Status; got != StatusAborted {
		t.Errorf("status = %q, want aborted", got)
	}
}

func TestRunner_BeforeAllFailureSkipsCases(t *testing.T) {
	var afterAll bool
	s := &Suite{
		Name:      "s",
		BeforeAll: func(t *T) { t.Fatalf("no database") },
		AfterAll:  func(*T) { afterAll = true },
		Cases: []Case{
			{Name: "a", Body: func(*T) {}},
			{Name: "b", Body: func(*T) {}},
		},
	}

	res := NewRunner().Run(context.Background(), s)

	if !afterAll {
		t.Error("AfterAll should run even when BeforeAll fails")
	}
	want := map[string]Status{
		"s/a": StatusSkipped,
		"s/b": StatusSkipped,
		"s":   StatusFailed,
	}
	if got := statuses(res); !reflect.DeepEqual(got, want) {
		t.Errorf("statuses = %v, want %v", got, want)
	}
	if res.Tests[0].Reason != ReasonBeforeAllFailed {
		t.Errorf("reason = %q, want %q", res.Tests[0].Reason, ReasonBeforeAllFailed)
	}
	if res.OK() {
		t.Error("OK() = true, want false")
	}
}

func TestRunner_AfterAllFailureRecorded(t *testing.T) {
	s := &Suite{
		Name:     "s",
		AfterAll: func(t *T) { t.Errorf("teardown leaked") },
		Cases:    []Case{{Name: "a", Body: func(*T) {}}},
	}

	res := NewRunner().Run(context.Background(), s)

	if got := res.Count(StatusFailed); got != 1 {
		t.Fatalf("failed = %d, want 1", got)
	}
	f := res.Failures()[0]
	if f.ID.String() != "s" {
		t.Errorf("failure ID = %q, want %q", f.ID, "s")
	}
}

func TestRunner_Conditions(t *testing.T) {
	var ran []string
	body := func(name string) func(*T) {
		return func(*T) { ran = append(ran, name) }
	}
	var beforeEach int
	s := &Suite{
		Name:       "s",
		BeforeEach: func(*T) { beforeEach++ },
		Cases: []Case{
			{Name: "mac-only", Conditions: []Condition{EnabledOnOS("Enabled only on MAC OS", "darwin")}, Body: body("mac-only")},
			{Name: "not-windows", Conditions: []Condition{DisabledOnOS("Disabled on Windows OS", "windows")}, Body: body("not-windows")},
			{Name: "dev-only", Conditions: []Condition{EnabledIf("needs DEV", func(e Environment) bool { return e.Name == "DEV" })}, Body: body("dev-only")},
		},
	}

	tests := []struct {
		name           string
		env            Environment
		wantRan        []string
		wantBeforeEach int
		wantReason     map[string]string
	}{
		{
			name:           "linux without env",
			env:            Environment{GOOS: "linux"},
			wantRan:        []string{"not-windows"},
			wantBeforeEach: 1,
			wantReason:     map[string]string{"s/mac-only": "Enabled only on MAC OS", "s/dev-only": "needs DEV"},
		},
		{
			name:           "darwin in DEV",
			env:            Environment{GOOS: "darwin", Name: "DEV"},
			wantRan:        []string{"mac-only", "not-windows", "dev-only"},
			wantBeforeEach: 3,
		},
		{
			name:           "windows",
			env:            Environment{GOOS: "windows"},
			wantRan:        nil,
			wantBeforeEach: 0,
			wantReason:     map[string]string{"s/not-windows": "Disabled on Windows OS"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ran = nil
			beforeEach = 0

			res := NewRunner(WithEnvironment(tt.env)).Run(context.Background(), s)

			if !reflect.DeepEqual(ran, tt.wantRan) {
				t.Errorf("ran = %v, want %v", ran, tt.wantRan)
			}
			if beforeEach != tt.wantBeforeEach {
				t.Errorf("BeforeEach calls = %d, want %d", beforeEach, tt.wantBeforeEach)
			}
			for _, r := range res.Tests {
				if want, ok := tt.wantReason[r.ID.String()]; ok {
					if r.Status != StatusSkipped || r.Reason != want {
						t.Errorf("%s: status %q reason %q, want skipped %q", r.ID, r.Status, r.Reason, want)
					}
				}
			}
		})
	}
}

func TestRunner_Repeat(t *testing.T) {
	var beforeEach, runs int
	s := &Suite{
		Name:       "s",
		BeforeEach: func(*T) { beforeEach++ },
		Cases: []Case{{
			Name:        "again",
			DisplayName: "Repeat Me",
			Repeat:      3,
			RepeatName:  "Repeating {currentRepetition} of {totalRepetitions}",
			Body:        func(*T) { runs++ },
		}},
	}
	rep := &recordingReporter{}

	res := NewRunner(WithReporter(rep)).Run(context.Background(), s)

	if runs != 3 || beforeEach != 3 {
		t.Errorf("runs = %d, beforeEach = %d, want 3 and 3", runs, beforeEach)
	}
	wantIDs := []string{"s/again/1", "s/again/2", "s/again/3"}
	if !reflect.DeepEqual(rep.started, wantIDs) {
		t.Errorf("started = %v, want %v", rep.started, wantIDs)
	}
	if got := res.Tests[1].DisplayName; got != "Repeating 2 of 3" {
		t.Errorf("DisplayName = %q, want %q", got, "Repeating 2 of 3")
	}
}

func TestRunner_RepeatDefaultName(t *testing.T) {
	s := &Suite{
		Name:  "s",
		Cases: []Case{{Name: "again", DisplayName: "Again", Repeat: 2, Body: func(*T) {}}},
	}

	res := NewRunner().Run(context.Background(), s)

	if got := res.Tests[0].DisplayName; got != "Again repetition 1 of 2" {
		t.Errorf("DisplayName = %q", got)
	}
}

func TestRunner_Parameterized(t *testing.T) {
	var seen []string
	c := Parameterized("names", "Names", []string{"ann", "bob", ""},
		func(s string) string { return "name=" + s },
		func(t *T, s string) {
			seen = append(seen, s)
			if s == "" {
				t.Errorf("empty name")
			}
		})
	s := &Suite{Name: "s", Cases: []Case{c}}

	res := NewRunner().Run(context.Background(), s)

	if !reflect.DeepEqual(seen, []string{"ann", "bob", ""}) {
		t.Errorf("seen = %v", seen)
	}
	want := map[string]Status{
		"s/names/1": StatusPassed,
		"s/names/2": StatusPassed,
		"s/names/3": StatusFailed,
	}
	if got := statuses(res); !reflect.DeepEqual(got, want) {
		t.Errorf("statuses = %v, want %v", got, want)
	}
	if got := res.Tests[0].DisplayName; got != "Names [1] name=ann" {
		t.Errorf("DisplayName = %q", got)
	}
}

func TestRunner_ParameterizedEmpty(t *testing.T) {
	c := Parameterized[int]("none", "", nil, nil, func(*T, int) {})
	s := &Suite{Name: "s", Cases: []Case{c}}

	res := NewRunner().Run(context.Background(), s)

	if len(res.Tests) != 1 || res.Tests[0].Reason != ReasonNoParameters {
		t.Errorf("results = %+v, want one skipped with %q", res.Tests, ReasonNoParameters)
	}
}

func TestRunner_Filter(t *testing.T) {
	must, err := ParseRegexList([]string{"create"})
	if err != nil {
		t.Fatal(err)
	}
	mustNot, err := ParseRegexList([]string{"repeat.*/2$"})
	if err != nil {
		t.Fatal(err)
	}
	filters := RegexFilters{MustMatch: must, MustNotMatch: mustNot}
	s := &Suite{
		Name: "s",
		Cases: []Case{
			{Name: "create", Body: func(*T) {}},
			{Name: "reject", Body: func(*T) {}},
			{Name: "create-repeat", Repeat: 2, Body: func(*T) {}},
		},
	}

	res := NewRunner(WithFilter(filters.AsFilter)).Run(context.Background(), s)

	want := map[string]Status{
		"s/create":          StatusPassed,
		"s/reject":          StatusSkipped,
		"s/create-repeat/1": StatusPassed,
		"s/create-repeat/2": StatusSkipped,
	}
	if got := statuses(res); !reflect.DeepEqual(got, want) {
		t.Errorf("statuses = %v, want %v", got, want)
	}
}

func TestRunner_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var afterAll bool
	s := &Suite{
		Name:     "s",
		AfterAll: func(*T) { afterAll = true },
		Cases: []Case{
			{Name: "first", Body: func(*T) { cancel() }},
			{Name: "second", Body: func(t *T) { t.Errorf("should not run") }},
		},
	}

	res := NewRunner().Run(ctx, s)

	want := map[string]Status{"s/first": StatusPassed, "s/second": StatusSkipped}
	if got := statuses(res); !reflect.DeepEqual(got, want) {
		t.Errorf("statuses = %v, want %v", got, want)
	}
	if !afterAll {
		t.Error("AfterAll should run after cancellation")
	}
}

func TestRunner_ReporterEvents(t *testing.T) {
	rep := &recordingReporter{}
	s := &Suite{
		Name: "s",
		Cases: []Case{
			{Name: "bad", Body: func(t *T) { t.Errorf("oops") }},
			{Name: "off", Conditions: []Condition{EnabledOnOS("never", "plan9")}, Body: func(*T) {}},
		},
	}

	NewRunner(WithReporter(rep), WithEnvironment(Environment{GOOS: "linux"})).Run(context.Background(), s)

	if !reflect.DeepEqual(rep.started, []string{"s/bad"}) {
		t.Errorf("started = %v, want only s/bad (skipped cases do not start)", rep.started)
	}
	if !reflect.DeepEqual(rep.errs, []string{"s/bad: oops"}) {
		t.Errorf("errs = %v", rep.errs)
	}
	if len(rep.finished) != 2 {
		t.Errorf("finished = %d events, want 2", len(rep.finished))
	}
}

func TestT_WorksWithTestify(t *testing.T) {
	s := &Suite{
		Name: "s",
		Cases: []Case{
			{Name: "assert", Body: func(t *T) {
				assert.Equal(t, 1, 2)
				assert.True(t, true)
			}},
			{Name: "require", Body: func(t *T) {
				require.NoError(t, errors.New("nope"))
				t.Errorf("unreachable")
			}},
			{Name: "ok", Body: func(t *T) {
				require.Len(t, []int{1}, 1)
			}},
		},
	}

	res := NewRunner().Run(context.Background(), s)

	require.Len(t, res.Tests, 3)
	assert.Equal(t, StatusFailed, res.Tests[0].Status)
	assert.Len(t, res.Tests[0].Errors, 1)
	assert.Equal(t, StatusFailed, res.Tests[1].Status)
	assert.Len(t, res.Tests[1].Errors, 1, "require should stop before the second Errorf")
	assert.Equal(t, StatusPassed, res.Tests[2].Status)
}

func TestT_Logf(t *testing.T) {
	s := &Suite{
		Name: "s",
		Cases: []Case{{Name: "log", Body: func(t *T) {
			t.Logf("hello %s", "world")
			if t.Name() != "s/log" {
				t.Errorf("Name() = %q", t.Name())
			}
		}}},
	}

	res := NewRunner().Run(context.Background(), s)

	if got := res.Tests[0].Output; !reflect.DeepEqual(got, []string{"hello world"}) {
		t.Errorf("Output = %v", got)
	}
	if res.Tests[0].Status != StatusPassed {
		t.Errorf("status = %q", res.Tests[0].Status)
	}
}

func TestFailedError(t *testing.T) {
	err := &FailedError{Failed: 2, Total: 9}
	if got, want := err.Error(), "2 of 9 checks failed"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
