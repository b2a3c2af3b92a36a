// Package calendar computes elapsed working time inside per-actor working-hours
// windows. Saturdays and Sundays are never working days. All day and hour boundaries
// are taken in the calendar's reference location.
package calendar

import (
	"math"
	"time"

	"github.com/spec-kit/sla-tracker/internal/domain"
)

// maxAdvanceSteps bounds NextWorkingInstant. A week of weekend and window skips
// needs at most five steps.
const maxAdvanceSteps = 8

// WindowSource resolves working hours per actor.
type WindowSource interface {
	WindowFor(actorID string) domain.WorkingHours
	DefaultWindow() domain.WorkingHours
}

// Calendar is immutable and safe for concurrent use.
type Calendar struct {
	loc     *time.Location
	windows WindowSource
}

// New builds a calendar. A nil location means UTC; a nil source applies
// domain.DefaultWorkingHours to everyone.
func New(loc *time.Location, windows WindowSource) *Calendar {
	if loc == nil {
		loc = time.UTC
	}
	if windows == nil {
		windows = domain.NewRoster(domain.DefaultWorkingHours, nil)
	}
	return &Calendar{loc: loc, windows: windows}
}

// Location returns the reference location.
func (c *Calendar) Location() *time.Location {
	return c.loc
}

// Window returns the working hours for actorID; empty means the default window.
func (c *Calendar) Window(actorID string) domain.WorkingHours {
	if actorID == "" {
		return c.windows.DefaultWindow()
	}
	return c.windows.WindowFor(actorID)
}

// IsWeekend reports whether t falls on a Saturday or Sunday.
func (c *Calendar) IsWeekend(t time.Time) bool {
	switch t.In(c.loc).Weekday() {
	case time.Saturday, time.Sunday:
		return true
	default:
		return false
	}
}

// InWindow reports whether t's hour of day lies inside w, ignoring weekends.
func (c *Calendar) InWindow(t time.Time, w domain.WorkingHours) bool {
	return w.Contains(t.In(c.loc).Hour())
}

// IsWorkingInstant reports whether t is a working instant for the actor.
func (c *Calendar) IsWorkingInstant(t time.Time, actorID string) bool {
	return c.isWorking(t, c.Window(actorID))
}

// NextWorkingInstant returns the smallest working instant at or after t.
func (c *Calendar) NextWorkingInstant(t time.Time, actorID string) time.Time {
	return c.nextWorking(t, c.Window(actorID))
}

// ElapsedBusinessMinutes returns working minutes between start and end for the
// actor, rounded to the nearest minute. The result is never negative and never
// decreases as end moves later.
func (c *Calendar) ElapsedBusinessMinutes(start, end time.Time, actorID string) int {
	return c.elapsed(start, end, c.Window(actorID))
}

func (c *Calendar) isWorking(t time.Time, w domain.WorkingHours) bool {
	return !c.IsWeekend(t) && c.InWindow(t, w)
}

func (c *Calendar) nextWorking(t time.Time, w domain.WorkingHours) time.Time {
	local := t.In(c.loc)
	for i := 0; i < maxAdvanceSteps; i++ {
		if c.IsWeekend(local) {
			local = c.dayStart(local).AddDate(0, 0, 1)
			continue
		}
		if w.Contains(local.Hour()) {
			return local
		}
		local = c.nextWindowStart(local, w)
	}
	return local
}

// nextWindowStart returns the next time the window opens after local, which is
// known to be outside the window.
func (c *Calendar) nextWindowStart(local time.Time, w domain.WorkingHours) time.Time {
	day := c.dayStart(local)
	open := c.at(day, w.StartHour)
	if local.Before(open) {
		return open
	}
	return c.at(day.AddDate(0, 0, 1), w.StartHour)
}

func (c *Calendar) elapsed(start, end time.Time, w domain.WorkingHours) int {
	if !end.After(start) {
		return 0
	}
	pointer := c.nextWorking(start, w)
	if !end.After(pointer) {
		return 0
	}

	var total time.Duration
	for day := c.dayStart(pointer); day.Before(end); day = day.AddDate(0, 0, 1) {
		if c.IsWeekend(day) {
			continue
		}
		for _, seg := range c.segments(day, w) {
			from := later(seg.from, pointer)
			to := earlier(seg.to, end)
			if to.After(from) {
				total += to.Sub(from)
			}
		}
	}
	return int(math.Round(total.Minutes()))
}

type segment struct {
	from, to time.Time
}

// segments returns the working spans that belong to the given calendar day.
func (c *Calendar) segments(day time.Time, w domain.WorkingHours) []segment {
	next := day.AddDate(0, 0, 1)
	switch {
	case w.FullDay():
		return []segment{{from: day, to: next}}
	case w.Wraps():
		return []segment{
			{from: day, to: c.at(day, w.EndHour)},
			{from: c.at(day, w.StartHour), to: next},
		}
	default:
		return []segment{{from: c.at(day, w.StartHour), to: c.at(day, w.EndHour)}}
	}
}

func (c *Calendar) dayStart(t time.Time) time.Time {
	local := t.In(c.loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, c.loc)
}

// at returns hour o'clock on day; hour 24 is midnight of the following day.
func (c *Calendar) at(day time.Time, hour int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), hour, 0, 0, 0, c.loc)
}

func later(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func earlier(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
