// Package evaluator classifies tickets into SLA outcomes on the on-call and
// assignee pathways.
package evaluator

import (
	"errors"
	"time"

	"github.com/spec-kit/sla-tracker/internal/accountability"
	"github.com/spec-kit/sla-tracker/internal/calendar"
	"github.com/spec-kit/sla-tracker/internal/domain"
)

// Skip reasons. A pathway that returns one of these produces no outcome; none of
// them is fatal to a run.
var (
	ErrMissingGoal           = errors.New("ticket has no sla goal")
	ErrMissingCreatedAt      = errors.New("ticket has no creation time")
	ErrUnrecognizedResponder = errors.New("responder is not a recognized on-call responder")
	ErrMissingAssignment     = errors.New("ticket has no formal assignment")
	ErrUnrecognizedOwner     = errors.New("owner is not a recognized sla responder")
)

// SkipReason returns a stable label for a skip error, used as a counter key.
func SkipReason(err error) string {
	switch {
	case errors.Is(err, ErrMissingGoal):
		return "missing_goal"
	case errors.Is(err, ErrMissingCreatedAt):
		return "missing_created_at"
	case errors.Is(err, ErrUnrecognizedResponder):
		return "unrecognized_responder"
	case errors.Is(err, ErrMissingAssignment):
		return "missing_assignment"
	case errors.Is(err, ErrUnrecognizedOwner):
		return "unrecognized_owner"
	default:
		return "other"
	}
}

// Dependencies bundles the read-only inputs of an evaluator.
type Dependencies struct {
	Calendar *calendar.Calendar
	Timeline *accountability.Timeline
	Roster   *domain.Roster
	// Workers bounds EvaluateBatch concurrency; values below 1 mean 1.
	Workers int
}

// Evaluator is safe for concurrent use as long as its dependencies are not mutated.
type Evaluator struct {
	cal      *calendar.Calendar
	timeline *accountability.Timeline
	roster   *domain.Roster
	workers  int
}

// New constructs an evaluator.
func New(deps Dependencies) *Evaluator {
	workers := deps.Workers
	if workers < 1 {
		workers = 1
	}
	return &Evaluator{
		cal:      deps.Calendar,
		timeline: deps.Timeline,
		roster:   deps.Roster,
		workers:  workers,
	}
}

// Result is the evaluation of a single ticket.
type Result struct {
	Outcomes []domain.SLAOutcome
	Skipped  []error
}

// Evaluate classifies a ticket on both pathways as of now.
func (e *Evaluator) Evaluate(t domain.Ticket, now time.Time) Result {
	if !t.HasGoal() {
		return Result{Skipped: []error{ErrMissingGoal}}
	}

	var res Result
	if o, err := e.OnCall(t, now); err != nil {
		res.Skipped = append(res.Skipped, err)
	} else {
		res.Outcomes = append(res.Outcomes, o)
	}
	if o, err := e.Assignee(t, now); err != nil {
		res.Skipped = append(res.Skipped, err)
	} else {
		res.Outcomes = append(res.Outcomes, o)
	}
	return res
}

// OnCall evaluates the first-responder pathway.
func (e *Evaluator) OnCall(t domain.Ticket, now time.Time) (domain.SLAOutcome, error) {
	if !t.HasGoal() {
		return domain.SLAOutcome{}, ErrMissingGoal
	}
	if t.CreatedAt.IsZero() {
		return domain.SLAOutcome{}, ErrMissingCreatedAt
	}
	if t.FirstResponder != "" && !e.roster.IsOnCallResponder(t.FirstResponder) {
		return domain.SLAOutcome{}, ErrUnrecognizedResponder
	}

	goal := *t.GoalMinutes
	match := e.timeline.Match(t.CreatedAt)
	if match.Shift == nil {
		return e.gapOutcome(t, match.Gap, goal, now), nil
	}

	shift := *match.Shift
	if !e.roster.IsOnCallResponder(shift.ActorID) {
		return domain.SLAOutcome{}, ErrUnrecognizedResponder
	}

	start := accountability.AccountabilityStart(t.CreatedAt, shift.Start)
	out := domain.SLAOutcome{
		TicketKey:       t.Key,
		Pathway:         domain.PathwayOnCall,
		Responsible:     shift.ActorID,
		GoalMinutes:     goal,
		CreatedAt:       t.CreatedAt,
		AccountableFrom: start,
	}

	if action := t.FirstResponderAction(); action != nil {
		if action.After(shift.End) {
			// Answering after one's own shift ended is a breach whatever the count.
			out.Status = domain.StatusRespondedAfterShift
			out.BusinessMinutes = e.cal.ElapsedBusinessMinutes(start, shift.End, shift.ActorID)
			out.Met = false
			return out, nil
		}
		out.Status = domain.StatusResponded
		out.BusinessMinutes = e.cal.ElapsedBusinessMinutes(start, *action, shift.ActorID)
		out.Met = out.BusinessMinutes <= goal
		return out, nil
	}

	out.Status = domain.StatusPending
	if now.After(shift.End) {
		out.ShiftEnded = true
		out.BusinessMinutes = e.cal.ElapsedBusinessMinutes(start, shift.End, shift.ActorID)
		out.Met = false
		return out, nil
	}
	out.BusinessMinutes = e.cal.ElapsedBusinessMinutes(start, now, shift.ActorID)
	out.Met = out.BusinessMinutes <= goal
	return out, nil
}

// gapOutcome measures a ticket nobody was on call for against the default window.
// There is no shift end, so no forced breach applies.
func (e *Evaluator) gapOutcome(t domain.Ticket, gap domain.GapKind, goal int, now time.Time) domain.SLAOutcome {
	out := domain.SLAOutcome{
		TicketKey:       t.Key,
		Pathway:         domain.PathwayOnCall,
		Responsible:     string(gap),
		Gap:             gap,
		GoalMinutes:     goal,
		CreatedAt:       t.CreatedAt,
		AccountableFrom: t.CreatedAt,
	}
	end := now
	out.Status = domain.StatusPending
	if action := t.FirstResponderAction(); action != nil {
		end = *action
		out.Status = domain.StatusResponded
	}
	out.BusinessMinutes = e.cal.ElapsedBusinessMinutes(t.CreatedAt, end, "")
	out.Met = out.BusinessMinutes <= goal
	return out
}

// Assignee evaluates the formal-owner pathway, measured from assignment.
func (e *Evaluator) Assignee(t domain.Ticket, now time.Time) (domain.SLAOutcome, error) {
	if !t.HasGoal() {
		return domain.SLAOutcome{}, ErrMissingGoal
	}
	if t.AssignedAt == nil || t.AssignedAt.IsZero() || t.CurrentOwner == "" {
		return domain.SLAOutcome{}, ErrMissingAssignment
	}
	if !e.roster.IsSLAResponder(t.CurrentOwner) {
		return domain.SLAOutcome{}, ErrUnrecognizedOwner
	}

	goal := *t.GoalMinutes
	assigned := *t.AssignedAt
	out := domain.SLAOutcome{
		TicketKey:       t.Key,
		Pathway:         domain.PathwayAssignee,
		Responsible:     t.CurrentOwner,
		GoalMinutes:     goal,
		CreatedAt:       t.CreatedAt,
		AccountableFrom: assigned,
	}

	var end time.Time
	switch {
	case t.OwnerCommentAt != nil:
		out.Status = domain.StatusResponded
		end = *t.OwnerCommentAt
	case t.ResolvedAt != nil:
		out.Status = domain.StatusResolvedNoComment
		end = *t.ResolvedAt
	default:
		out.Status = domain.StatusNoResponse
		end = now
	}
	out.BusinessMinutes = e.cal.ElapsedBusinessMinutes(assigned, end, t.CurrentOwner)
	out.Met = out.BusinessMinutes <= goal
	return out, nil
}
