package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/sla-tracker/internal/domain"
)

// 2024-06-03 is a Monday.
func at(day, hour, minute int) time.Time {
	return time.Date(2024, time.June, day, hour, minute, 0, 0, time.UTC)
}

func newTestCalendar(actors ...domain.Actor) *Calendar {
	return New(time.UTC, domain.NewRoster(domain.DefaultWorkingHours, actors))
}

func TestElapsedBusinessMinutes(t *testing.T) {
	night := domain.WorkingHours{StartHour: 22, EndHour: 6}
	cal := newTestCalendar(domain.Actor{ID: "owl", Window: &night})

	tests := []struct {
		name  string
		start time.Time
		end   time.Time
		actor string
		want  int
	}{
		{name: "start before window end after window", start: at(3, 10, 0), end: at(3, 23, 0), want: 540},
		{name: "inside window", start: at(3, 14, 0), end: at(3, 15, 30), want: 90},
		{name: "crosses to next day", start: at(3, 21, 30), end: at(4, 14, 0), want: 90},
		{name: "end before start", start: at(3, 15, 0), end: at(3, 14, 0), want: 0},
		{name: "both before window", start: at(3, 8, 0), end: at(3, 12, 59), want: 0},
		{name: "friday into monday", start: at(7, 21, 0), end: at(10, 14, 0), want: 120},
		{name: "whole saturday", start: at(8, 0, 0), end: at(9, 0, 0), want: 0},
		{name: "whole week", start: at(3, 0, 0), end: at(10, 0, 0), want: 5 * 540},
		{name: "rounds to nearest minute", start: at(3, 14, 0), end: at(3, 14, 0).Add(90 * time.Second), want: 2},
		{name: "wrapping window overnight", start: at(3, 21, 0), end: at(4, 7, 0), actor: "owl", want: 480},
		{name: "wrapping window friday night stops at saturday", start: at(7, 22, 0), end: at(8, 6, 0), actor: "owl", want: 120},
		{name: "unknown actor uses default", start: at(3, 10, 0), end: at(3, 23, 0), actor: "nobody", want: 540},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cal.ElapsedBusinessMinutes(tt.start, tt.end, tt.actor)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsWorkingInstant(t *testing.T) {
	night := domain.WorkingHours{StartHour: 22, EndHour: 6}
	cal := newTestCalendar(domain.Actor{ID: "owl", Window: &night})

	assert.True(t, cal.IsWorkingInstant(at(3, 13, 0), ""))
	assert.True(t, cal.IsWorkingInstant(at(3, 21, 59), ""))
	assert.False(t, cal.IsWorkingInstant(at(3, 22, 0), ""))
	assert.False(t, cal.IsWorkingInstant(at(3, 12, 59), ""))
	assert.False(t, cal.IsWorkingInstant(at(8, 15, 0), ""), "saturday")
	assert.False(t, cal.IsWorkingInstant(at(9, 15, 0), ""), "sunday")

	assert.True(t, cal.IsWorkingInstant(at(3, 23, 0), "owl"))
	assert.True(t, cal.IsWorkingInstant(at(4, 5, 59), "owl"))
	assert.False(t, cal.IsWorkingInstant(at(4, 6, 0), "owl"))
	assert.False(t, cal.IsWorkingInstant(at(4, 12, 0), "owl"))
}

func TestNextWorkingInstant(t *testing.T) {
	cal := newTestCalendar()

	tests := []struct {
		name string
		in   time.Time
		want time.Time
	}{
		{name: "already working", in: at(3, 14, 5), want: at(3, 14, 5)},
		{name: "morning", in: at(3, 9, 0), want: at(3, 13, 0)},
		{name: "after hours", in: at(3, 22, 30), want: at(4, 13, 0)},
		{name: "friday evening", in: at(7, 23, 0), want: at(10, 13, 0)},
		{name: "saturday", in: at(8, 10, 0), want: at(10, 13, 0)},
		{name: "sunday late", in: at(9, 23, 59), want: at(10, 13, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cal.NextWorkingInstant(tt.in, "")
			assert.True(t, tt.want.Equal(got), "want %s got %s", tt.want, got)
			assert.True(t, cal.IsWorkingInstant(got, ""))
		})
	}
}

func TestOffWindowMinuteIsZero(t *testing.T) {
	cal := newTestCalendar()
	for ts := at(3, 0, 0); ts.Before(at(10, 0, 0)); ts = ts.Add(7 * time.Minute) {
		if cal.IsWorkingInstant(ts, "") || cal.IsWorkingInstant(ts.Add(time.Minute-time.Nanosecond), "") {
			continue
		}
		require.Zero(t, cal.ElapsedBusinessMinutes(ts, ts.Add(time.Minute), ""), "at %s", ts)
	}
}

func TestElapsedIsMonotonicInEnd(t *testing.T) {
	night := domain.WorkingHours{StartHour: 20, EndHour: 4}
	cal := newTestCalendar(domain.Actor{ID: "owl", Window: &night})

	for _, actor := range []string{"", "owl"} {
		start := at(5, 17, 23)
		prev := 0
		for end := start; end.Before(at(12, 0, 0)); end = end.Add(11 * time.Minute) {
			got := cal.ElapsedBusinessMinutes(start, end, actor)
			require.GreaterOrEqual(t, got, prev, "actor %q end %s", actor, end)
			prev = got
		}
	}
}

func TestNonUTCReferenceLocation(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*60*60)
	cal := New(loc, domain.NewRoster(domain.WorkingHours{StartHour: 9, EndHour: 17}, nil))

	// 14:00 UTC is 09:00 local on Monday.
	start := time.Date(2024, time.June, 3, 14, 0, 0, 0, time.UTC)
	end := start.Add(10 * time.Hour)
	assert.Equal(t, 480, cal.ElapsedBusinessMinutes(start, end, ""))
}
