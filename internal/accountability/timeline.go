// Package accountability resolves which on-call actor, or which kind of coverage
// gap, was accountable at a given instant.
package accountability

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/spec-kit/sla-tracker/internal/calendar"
	"github.com/spec-kit/sla-tracker/internal/domain"
)

var (
	// ErrOverlappingShifts is returned when two shifts in a timeline overlap.
	ErrOverlappingShifts = errors.New("overlapping shifts in timeline")
	// ErrInvalidShift is returned for shifts that end before they start or lack an actor.
	ErrInvalidShift = errors.New("invalid shift")
)

// Options configures gap classification.
type Options struct {
	// ScheduleStart is the first instant the timeline is authoritative for.
	ScheduleStart time.Time
	// Coverage is the on-call window used to tell after-hours gaps apart. Nil means
	// domain.DefaultWorkingHours; {0, 0} is a full-day window.
	Coverage *domain.WorkingHours
}

func (o Options) coverage() domain.WorkingHours {
	if o.Coverage == nil {
		return domain.DefaultWorkingHours
	}
	return *o.Coverage
}

// Match is the accountability resolved for an instant: a shift, or a gap.
type Match struct {
	Shift *domain.Shift
	Gap   domain.GapKind
}

// Responsible returns the actor id, or the gap label for gaps.
func (m Match) Responsible() string {
	if m.Shift != nil {
		return m.Shift.ActorID
	}
	return string(m.Gap)
}

// Timeline is an ordered, non-overlapping list of shifts. It is immutable after
// construction and safe for concurrent lookups.
type Timeline struct {
	shifts []domain.Shift
	cal    *calendar.Calendar
	opts   Options
}

// NewTimeline validates and indexes the shifts. The input slice is not retained.
func NewTimeline(shifts []domain.Shift, cal *calendar.Calendar, opts Options) (*Timeline, error) {
	if cal == nil {
		cal = calendar.New(time.UTC, nil)
	}
	coverage := opts.coverage()
	opts.Coverage = &coverage

	sorted := make([]domain.Shift, len(shifts))
	copy(sorted, shifts)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Start.Before(sorted[j].Start)
	})

	for i, s := range sorted {
		if s.ActorID == "" || s.End.Before(s.Start) {
			return nil, fmt.Errorf("%w: actor %q %s-%s", ErrInvalidShift, s.ActorID, s.Start, s.End)
		}
		if i > 0 && s.Start.Before(sorted[i-1].End) {
			return nil, fmt.Errorf("%w: %q starting %s overlaps %q ending %s",
				ErrOverlappingShifts, s.ActorID, s.Start, sorted[i-1].ActorID, sorted[i-1].End)
		}
	}

	return &Timeline{shifts: sorted, cal: cal, opts: opts}, nil
}

// Len returns the number of shifts.
func (tl *Timeline) Len() int {
	return len(tl.shifts)
}

// Resolve returns the shift whose [Start, End] contains t. At a handoff instant the
// incoming shift wins. Outside every shift a gap kind is returned in priority order:
// before-schedule-start, weekend, after-hours, no-coverage.
func (tl *Timeline) Resolve(t time.Time) Match {
	next := tl.firstStartingAfter(t)
	if idx := next - 1; idx >= 0 && tl.shifts[idx].Contains(t) {
		shift := tl.shifts[idx]
		return Match{Shift: &shift}
	}
	return Match{Gap: tl.classifyGap(t)}
}

// Match returns the accountability for a ticket created at t. A ticket created in a
// gap is picked up by the next shift to start, unless it predates the schedule or no
// later shift exists.
func (tl *Timeline) Match(t time.Time) Match {
	m := tl.Resolve(t)
	if m.Shift != nil || m.Gap == domain.GapBeforeScheduleStart {
		return m
	}
	if next := tl.firstStartingAfter(t); next < len(tl.shifts) {
		shift := tl.shifts[next]
		return Match{Shift: &shift}
	}
	return m
}

// AccountabilityStart returns when the actor became accountable for a ticket.
// Nobody is accountable for time before their shift began.
func AccountabilityStart(ticketCreatedAt, shiftStart time.Time) time.Time {
	if ticketCreatedAt.Before(shiftStart) {
		return shiftStart
	}
	return ticketCreatedAt
}

func (tl *Timeline) firstStartingAfter(t time.Time) int {
	return sort.Search(len(tl.shifts), func(i int) bool {
		return tl.shifts[i].Start.After(t)
	})
}

func (tl *Timeline) classifyGap(t time.Time) domain.GapKind {
	switch {
	case !tl.opts.ScheduleStart.IsZero() && t.Before(tl.opts.ScheduleStart):
		return domain.GapBeforeScheduleStart
	case tl.cal.IsWeekend(t):
		return domain.GapWeekend
	case !tl.cal.InWindow(t, *tl.opts.Coverage):
		return domain.GapAfterHours
	default:
		return domain.GapNoCoverage
	}
}
