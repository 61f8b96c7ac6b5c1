package harness

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Condition decides whether a case runs in an environment.
// It returns false and a reason when the case should be skipped.
type Condition func(Environment) (bool, string)

// EnabledOnOS runs the case only on the listed operating systems.
func EnabledOnOS(reason string, goos ...string) Condition {
	return func(env Environment) (bool, string) {
		if slices.Contains(goos, env.GOOS) {
			return true, ""
		}
		return false, reason
	}
}

// DisabledOnOS skips the case on the listed operating systems.
func DisabledOnOS(reason string, goos ...string) Condition {
	return func(env Environment) (bool, string) {
		if slices.Contains(goos, env.GOOS) {
			return false, reason
		}
		return true, ""
	}
}

// EnabledIf runs the case only when pred holds for the environment.
func EnabledIf(reason string, pred func(Environment) bool) Condition {
	return func(env Environment) (bool, string) {
		if pred(env) {
			return true, ""
		}
		return false, reason
	}
}

// DefaultRepeatName names repetitions when Case.RepeatName is empty.
const DefaultRepeatName = "{displayName} repetition {currentRepetition} of {totalRepetitions}"

// Case is one check of a suite. A case expands into one or more
// invocations: a single run of Body, Repeat runs of Body, or one run per
// parameter when built with Parameterized. Each invocation gets its own
// BeforeEach and AfterEach.
type Case struct {
	Name        string
	DisplayName string
	Conditions  []Condition
	Repeat      int
	RepeatName  string
	Body        func(*T)

	params []invocation
}

type invocation struct {
	name        string
	displayName string
	body        func(*T)
}

// Parameterized builds a case that runs body once per element of params.
// Invocations are displayed with their 1-based position and, when label
// is non-nil, the label of their parameter.
func Parameterized[P any](name, displayName string, params []P, label func(P) string, body func(*T, P)) Case {
	title := displayName
	if title == "" {
		title = name
	}
	invs := make([]invocation, len(params))
	for i, p := range params {
		p := p
		display := fmt.Sprintf("%s [%d]", title, i+1)
		if label != nil {
			display = fmt.Sprintf("%s [%d] %s", title, i+1, label(p))
		}
		invs[i] = invocation{
			name:        strconv.Itoa(i + 1),
			displayName: display,
			body:        func(t *T) { body(t, p) },
		}
	}
	return Case{Name: name, DisplayName: displayName, params: invs}
}

// expands reports whether the case runs as nested invocations.
func (c Case) expands() bool {
	return c.params != nil || c.Repeat > 1
}

// invocations lists the runs of the case in order.
func (c Case) invocations() []invocation {
	if c.params != nil {
		return c.params
	}
	if c.Repeat <= 1 {
		return []invocation{{name: c.Name, displayName: c.title(), body: c.Body}}
	}
	tmpl := c.RepeatName
	if tmpl == "" {
		tmpl = DefaultRepeatName
	}
	total := strconv.Itoa(c.Repeat)
	invs := make([]invocation, c.Repeat)
	for i := range invs {
		cur := strconv.Itoa(i + 1)
		r := strings.NewReplacer(
			"{currentRepetition}", cur,
			"{totalRepetitions}", total,
			"{displayName}", c.title(),
		)
		invs[i] = invocation{
			name:        cur,
			displayName: r.Replace(tmpl),
			body:        c.Body,
		}
	}
	return invs
}

// enabled evaluates the case's conditions in order; the first unmet one wins.
func (c Case) enabled(env Environment) (bool, string) {
	for _, cond := range c.Conditions {
		if ok, reason := cond(env); !ok {
			return false, reason
		}
	}
	return true, ""
}

func (c Case) title() string {
	if c.DisplayName != "" {
		return c.DisplayName
	}
	return c.Name
}
