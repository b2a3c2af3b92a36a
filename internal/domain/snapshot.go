package domain

import "time"

// RunTrigger records what started an evaluation run.
type RunTrigger string

const (
	TriggerScheduled RunTrigger = "scheduled"
	TriggerManual    RunTrigger = "manual"
)

// Report is the result of evaluating a ticket set.
type Report struct {
	Examined int              `json:"examined"`
	Skipped  map[string]int   `json:"skipped"`
	Summary  AggregateSummary `json:"summary"`
	Outcomes []SLAOutcome     `json:"outcomes"`
}

// Snapshot is a persisted report over a creation window.
type Snapshot struct {
	ID         string     `json:"id"`
	RunAt      time.Time  `json:"run_at"`
	Trigger    RunTrigger `json:"trigger"`
	WindowFrom time.Time  `json:"window_from"`
	WindowTo   time.Time  `json:"window_to"`
	Report
}

// Breaches returns the outcomes that missed their goal.
func (r Report) Breaches() []SLAOutcome {
	var out []SLAOutcome
	for _, o := range r.Outcomes {
		if !o.Met {
			out = append(out, o)
		}
	}
	return out
}
