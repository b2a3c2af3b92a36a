package domain

import "time"

// Shift is one on-call assignment in the resolved timeline.
type Shift struct {
	ActorID string    `json:"actor_id"`
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
}

// Contains reports whether t lies within [Start, End].
func (s Shift) Contains(t time.Time) bool {
	return !t.Before(s.Start) && !t.After(s.End)
}

// GapKind names why no actor was on call at an instant.
type GapKind string

const (
	GapNone                GapKind = ""
	GapBeforeScheduleStart GapKind = "before-schedule-start"
	GapWeekend             GapKind = "weekend"
	GapAfterHours          GapKind = "after-hours"
	GapNoCoverage          GapKind = "no-coverage"
)

// IsGap reports whether the kind denotes a coverage gap.
func (g GapKind) IsGap() bool {
	return g != GapNone
}
