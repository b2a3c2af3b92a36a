package domain

import "time"

// Ticket is the SLA view of an issue-tracker ticket. Values are produced by the
// ticket source and never mutated by the engine.
type Ticket struct {
	Key                     string
	CreatedAt               time.Time
	ResolvedAt              *time.Time
	AssignedAt              *time.Time
	OwnerCommentAt          *time.Time
	FirstResponderCommentAt *time.Time
	FirstResponderAssignAt  *time.Time
	FirstResponder          string
	CurrentOwner            string
	GoalMinutes             *int
}

// HasGoal reports whether the ticket carries a usable SLA goal.
func (t Ticket) HasGoal() bool {
	return t.GoalMinutes != nil && *t.GoalMinutes > 0
}

// FirstResponderAction returns the earliest responder action, if any.
func (t Ticket) FirstResponderAction() *time.Time {
	return earliest(t.FirstResponderCommentAt, t.FirstResponderAssignAt)
}

// SLAGoal is a single goal entry as reported by the issue tracker.
type SLAGoal struct {
	Name    string `json:"name"`
	Minutes int    `json:"minutes"`
}

// SelectGoalMinutes picks the goal applied to a ticket. Trackers may report several
// goals; the first entry always wins.
func SelectGoalMinutes(goals []SLAGoal) *int {
	if len(goals) == 0 || goals[0].Minutes <= 0 {
		return nil
	}
	minutes := goals[0].Minutes
	return &minutes
}

func earliest(a, b *time.Time) *time.Time {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	case b.Before(*a):
		return b
	default:
		return a
	}
}
