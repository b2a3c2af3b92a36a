package aggregate

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/sla-tracker/internal/domain"
)

// 2024-06-03 is a Monday.
func at(day, hour int) time.Time {
	return time.Date(2024, time.June, day, hour, 0, 0, 0, time.UTC)
}

func outcome(key string, pathway domain.Pathway, actor string, status domain.Status, minutes int, met bool, created time.Time) domain.SLAOutcome {
	return domain.SLAOutcome{
		TicketKey:       key,
		Pathway:         pathway,
		Responsible:     actor,
		Status:          status,
		BusinessMinutes: minutes,
		Met:             met,
		GoalMinutes:     240,
		CreatedAt:       created,
	}
}

func sampleOutcomes() []domain.SLAOutcome {
	gap := outcome("T-5", domain.PathwayOnCall, string(domain.GapWeekend), domain.StatusResponded, 30, true, at(8, 10))
	gap.Gap = domain.GapWeekend

	return []domain.SLAOutcome{
		outcome("T-1", domain.PathwayOnCall, "alice", domain.StatusResponded, 45, true, at(3, 14)),
		outcome("T-1", domain.PathwayAssignee, "bob", domain.StatusResponded, 90, true, at(3, 14)),
		outcome("T-2", domain.PathwayOnCall, "alice", domain.StatusRespondedAfterShift, 300, false, at(3, 21)),
		outcome("T-2", domain.PathwayAssignee, "alice", domain.StatusNoResponse, 600, false, at(3, 21)),
		outcome("T-3", domain.PathwayOnCall, "bob", domain.StatusPending, 20, true, at(4, 15)),
		outcome("T-4", domain.PathwayOnCall, "carol", domain.StatusPending, 120, false, at(4, 15)),
		outcome("T-4", domain.PathwayAssignee, "carol", domain.StatusResolvedNoComment, 100, true, at(4, 15)),
		gap,
	}
}

func findActor(t *testing.T, rows []domain.ActorCompliance, id string) domain.ActorCompliance {
	t.Helper()
	for _, row := range rows {
		if row.ActorID == id {
			return row
		}
	}
	require.Failf(t, "actor not found", "%s", id)
	return domain.ActorCompliance{}
}

func TestSummarize_Overall(t *testing.T) {
	s := Summarize(sampleOutcomes(), time.UTC)

	assert.Equal(t, 8, s.Overall.Total)
	assert.Equal(t, 5, s.Overall.Met)
	assert.Equal(t, 3, s.Overall.Breached)
	assert.Equal(t, 2, s.Overall.Pending)
	assert.Equal(t, 62.5, s.Overall.Rate)

	assert.Equal(t, 5, s.OnCall.Total)
	assert.Equal(t, 3, s.Assignee.Total)
	assert.Equal(t, 66.7, s.Assignee.Rate)
}

func TestSummarize_ActorTables(t *testing.T) {
	s := Summarize(sampleOutcomes(), time.UTC)

	// The weekend gap outcome is not an actor.
	require.Len(t, s.ByActor.OnCall, 3)
	ids := []string{s.ByActor.OnCall[0].ActorID, s.ByActor.OnCall[1].ActorID, s.ByActor.OnCall[2].ActorID}
	assert.Equal(t, []string{"alice", "bob", "carol"}, ids)

	alice := findActor(t, s.ByActor.OnCall, "alice")
	assert.Equal(t, 2, alice.Total)
	assert.Equal(t, 50.0, alice.Rate)
	require.NotNil(t, alice.AvgResponseMinutes)
	assert.Equal(t, 172.5, *alice.AvgResponseMinutes)

	bob := findActor(t, s.ByActor.OnCall, "bob")
	assert.Equal(t, 1, bob.Pending)
	assert.Nil(t, bob.AvgResponseMinutes, "pending outcomes have no response time")

	combinedAlice := findActor(t, s.ByActor.Combined, "alice")
	assert.Equal(t, 3, combinedAlice.Total)
	assert.Equal(t, 1, combinedAlice.Met)
	assert.Equal(t, 33.3, combinedAlice.Rate)

	combinedBob := findActor(t, s.ByActor.Combined, "bob")
	assert.Equal(t, 2, combinedBob.Total)
	require.NotNil(t, combinedBob.AvgResponseMinutes)
	assert.Equal(t, 90.0, *combinedBob.AvgResponseMinutes)
}

func TestSummarize_TimeBuckets(t *testing.T) {
	s := Summarize(sampleOutcomes(), time.UTC)

	require.Len(t, s.ByWeekday, 7)
	require.Len(t, s.ByHour, 24)

	monday := s.ByWeekday[0]
	assert.Equal(t, "Monday", monday.Label)
	assert.Equal(t, 2, monday.Total)
	assert.Equal(t, 1, monday.Met)

	saturday := s.ByWeekday[5]
	assert.Equal(t, "Saturday", saturday.Label)
	assert.Equal(t, 1, saturday.Total)

	assert.Equal(t, "15", s.ByHour[15].Label)
	assert.Equal(t, 2, s.ByHour[15].Total)
	assert.Equal(t, 50.0, s.ByHour[15].Rate)
	assert.Zero(t, s.ByHour[3].Total)
}

func TestSummarize_Histogram(t *testing.T) {
	s := Summarize(sampleOutcomes(), time.UTC)

	got := map[domain.ResponseBucket]int{}
	for _, h := range s.Histogram {
		got[h.Bucket] = h.Count
	}
	assert.Equal(t, map[domain.ResponseBucket]int{
		domain.BucketUnder1h:    2,
		domain.Bucket1hTo2h:     1,
		domain.Bucket2hTo4h:     0,
		domain.Bucket4hTo8h:     1,
		domain.BucketOver8h:     0,
		domain.BucketNoResponse: 4,
	}, got)
}

func TestBucketFor_Boundaries(t *testing.T) {
	tests := []struct {
		minutes int
		want    domain.ResponseBucket
	}{
		{0, domain.BucketUnder1h},
		{59, domain.BucketUnder1h},
		{60, domain.Bucket1hTo2h},
		{119, domain.Bucket1hTo2h},
		{120, domain.Bucket2hTo4h},
		{240, domain.Bucket4hTo8h},
		{479, domain.Bucket4hTo8h},
		{480, domain.BucketOver8h},
	}
	for _, tt := range tests {
		o := domain.SLAOutcome{Status: domain.StatusResponded, BusinessMinutes: tt.minutes}
		assert.Equal(t, tt.want, BucketFor(o), "minutes %d", tt.minutes)
	}
	assert.Equal(t, domain.BucketNoResponse, BucketFor(domain.SLAOutcome{Status: domain.StatusNoResponse, BusinessMinutes: 10}))
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil, time.UTC)

	assert.Equal(t, 0.0, s.Overall.Rate)
	assert.False(t, math.IsNaN(s.Overall.Rate))
	assert.Empty(t, s.ByActor.Combined)
	assert.Equal(t, 0.0, Rate(0, 0))
}

func TestAccumulator_MergeMatchesWholeSet(t *testing.T) {
	outcomes := sampleOutcomes()
	whole := Summarize(outcomes, time.UTC)

	// Re-aggregating is idempotent.
	assert.Equal(t, whole, Summarize(outcomes, time.UTC))

	for split := 0; split <= len(outcomes); split++ {
		left := NewAccumulator(time.UTC)
		left.AddAll(outcomes[:split])
		right := NewAccumulator(time.UTC)
		right.AddAll(outcomes[split:])

		ab := NewAccumulator(time.UTC)
		ab.Merge(left)
		ab.Merge(right)
		assert.Equal(t, whole, ab.Summary(), "split %d", split)

		ba := NewAccumulator(time.UTC)
		ba.Merge(right)
		ba.Merge(left)
		assert.Equal(t, whole, ba.Summary(), "split %d reversed", split)
	}
}
