// Package report records verify runs as JSON files.
package report

import (
	"time"

	"github.com/smileynet/contacts/internal/harness"
)

// Report is the persisted outcome of one verify run.
type Report struct {
	RunID       string    `json:"run_id"`
	Environment string    `json:"environment"`
	GOOS        string    `json:"goos"`
	StartedAt   time.Time `json:"started_at"`
	Summary     Summary   `json:"summary"`
	Checks      []Check   `json:"checks"`
}

// Summary counts checks by status.
type Summary struct {
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
	Aborted int `json:"aborted"`
}

// Check is the recorded result of one check.
type Check struct {
	ID          string        `json:"id"`
	DisplayName string        `json:"display_name"`
	Status      string        `json:"status"`
	Reason      string        `json:"reason,omitempty"`
	Errors      []string      `json:"errors,omitempty"`
	Output      []string      `json:"output,omitempty"`
	Duration    time.Duration `json:"duration_ns"`
}

// New builds a Report from run results.
func New(runID string, env harness.Environment, startedAt time.Time, res harness.Results) Report {
	r := Report{
		RunID:       runID,
		Environment: env.Name,
		GOOS:        env.GOOS,
		StartedAt:   startedAt,
		Summary: Summary{
			Passed:  res.Count(harness.StatusPassed),
			Failed:  res.Count(harness.StatusFailed),
			Skipped: res.Count(harness.StatusSkipped),
			Aborted: res.Count(harness.StatusAborted),
		},
		Checks: make([]Check, 0, len(res.Tests)),
	}
	for _, t := range res.Tests {
		c := Check{
			ID:          t.ID.String(),
			DisplayName: t.DisplayName,
			Status:      string(t.Status),
			Reason:      t.Reason,
			Output:      t.Output,
			Duration:    t.Duration,
		}
		for _, err := range t.Errors {
			c.Errors = append(c.Errors, err.Error())
		}
		r.Checks = append(r.Checks, c)
	}
	return r
}

// OK reports whether no check failed.
func (r Report) OK() bool {
	return r.Summary.Failed == 0
}
