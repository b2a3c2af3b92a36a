// Package aggregate reduces SLA outcomes into compliance statistics.
//
// An Accumulator only holds integer tallies, so accumulating partitions of an
// outcome set independently and merging them yields exactly the summary of the
// whole set, in any order.
package aggregate

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/spec-kit/sla-tracker/internal/domain"
)

type counts struct {
	met      int
	breached int
	pending  int
	total    int
}

func (c *counts) add(o domain.SLAOutcome) {
	c.total++
	if o.Met {
		c.met++
	} else {
		c.breached++
	}
	if o.Status == domain.StatusPending {
		c.pending++
	}
}

func (c *counts) merge(other counts) {
	c.met += other.met
	c.breached += other.breached
	c.pending += other.pending
	c.total += other.total
}

func (c counts) compliance() domain.ComplianceCounts {
	return domain.ComplianceCounts{
		Met:      c.met,
		Breached: c.breached,
		Pending:  c.pending,
		Total:    c.total,
		Rate:     Rate(c.met, c.total),
	}
}

type actorCounts struct {
	counts
	responses       int
	responseMinutes int
}

func (a *actorCounts) add(o domain.SLAOutcome) {
	a.counts.add(o)
	if o.Status.HasResponse() {
		a.responses++
		a.responseMinutes += o.BusinessMinutes
	}
}

func (a *actorCounts) merge(other actorCounts) {
	a.counts.merge(other.counts)
	a.responses += other.responses
	a.responseMinutes += other.responseMinutes
}

type bucketCounts struct {
	met   int
	total int
}

// Accumulator collects outcomes. The zero value is not usable; call NewAccumulator.
// It is not safe for concurrent use; give each worker its own and Merge.
type Accumulator struct {
	loc       *time.Location
	overall   counts
	onCall    counts
	assignee  counts
	byOnCall  map[string]actorCounts
	byOwner   map[string]actorCounts
	weekday   [7]bucketCounts
	hour      [24]bucketCounts
	histogram map[domain.ResponseBucket]int
}

// NewAccumulator returns an empty accumulator bucketing creation times in loc.
func NewAccumulator(loc *time.Location) *Accumulator {
	if loc == nil {
		loc = time.UTC
	}
	return &Accumulator{
		loc:       loc,
		byOnCall:  make(map[string]actorCounts),
		byOwner:   make(map[string]actorCounts),
		histogram: make(map[domain.ResponseBucket]int),
	}
}

// Add records one outcome.
func (a *Accumulator) Add(o domain.SLAOutcome) {
	a.overall.add(o)
	a.histogram[BucketFor(o)]++

	switch o.Pathway {
	case domain.PathwayOnCall:
		a.onCall.add(o)
		if !o.IsGap() {
			addActor(a.byOnCall, o)
		}
		if !o.CreatedAt.IsZero() {
			created := o.CreatedAt.In(a.loc)
			a.weekday[weekdayIndex(created.Weekday())].add(o.Met)
			a.hour[created.Hour()].add(o.Met)
		}
	case domain.PathwayAssignee:
		a.assignee.add(o)
		if !o.IsGap() {
			addActor(a.byOwner, o)
		}
	}
}

// AddAll records every outcome in outcomes.
func (a *Accumulator) AddAll(outcomes []domain.SLAOutcome) {
	for _, o := range outcomes {
		a.Add(o)
	}
}

// Merge folds other into a. other is left unchanged.
func (a *Accumulator) Merge(other *Accumulator) {
	if other == nil {
		return
	}
	a.overall.merge(other.overall)
	a.onCall.merge(other.onCall)
	a.assignee.merge(other.assignee)
	mergeActors(a.byOnCall, other.byOnCall)
	mergeActors(a.byOwner, other.byOwner)
	for i := range a.weekday {
		a.weekday[i].merge(other.weekday[i])
	}
	for i := range a.hour {
		a.hour[i].merge(other.hour[i])
	}
	for bucket, n := range other.histogram {
		a.histogram[bucket] += n
	}
}

// Summary renders the accumulated tallies. Tables are sorted by actor id.
func (a *Accumulator) Summary() domain.AggregateSummary {
	combined := make(map[string]actorCounts, len(a.byOnCall)+len(a.byOwner))
	mergeActors(combined, a.byOnCall)
	mergeActors(combined, a.byOwner)

	summary := domain.AggregateSummary{
		Overall:  a.overall.compliance(),
		OnCall:   a.onCall.compliance(),
		Assignee: a.assignee.compliance(),
		ByActor: domain.ActorTables{
			OnCall:   actorTable(a.byOnCall),
			Assignee: actorTable(a.byOwner),
			Combined: actorTable(combined),
		},
		ByWeekday: make([]domain.TimeBucketCompliance, 0, len(a.weekday)),
		ByHour:    make([]domain.TimeBucketCompliance, 0, len(a.hour)),
		Histogram: make([]domain.HistogramCount, 0, len(domain.ResponseBuckets())),
	}
	for i, b := range a.weekday {
		summary.ByWeekday = append(summary.ByWeekday, b.row(weekdayLabels[i]))
	}
	for h, b := range a.hour {
		summary.ByHour = append(summary.ByHour, b.row(fmt.Sprintf("%02d", h)))
	}
	for _, bucket := range domain.ResponseBuckets() {
		summary.Histogram = append(summary.Histogram, domain.HistogramCount{Bucket: bucket, Count: a.histogram[bucket]})
	}
	return summary
}

// Summarize aggregates outcomes in one pass.
func Summarize(outcomes []domain.SLAOutcome, loc *time.Location) domain.AggregateSummary {
	acc := NewAccumulator(loc)
	acc.AddAll(outcomes)
	return acc.Summary()
}

// Rate returns met/total as a percentage rounded to one decimal, or 0 when total is 0.
func Rate(met, total int) float64 {
	if total <= 0 {
		return 0
	}
	return round1(float64(met) / float64(total) * 100)
}

// BucketFor places an outcome in the response-time histogram.
func BucketFor(o domain.SLAOutcome) domain.ResponseBucket {
	if !o.Status.HasResponse() {
		return domain.BucketNoResponse
	}
	switch m := o.BusinessMinutes; {
	case m < 60:
		return domain.BucketUnder1h
	case m < 120:
		return domain.Bucket1hTo2h
	case m < 240:
		return domain.Bucket2hTo4h
	case m < 480:
		return domain.Bucket4hTo8h
	default:
		return domain.BucketOver8h
	}
}

var weekdayLabels = [7]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// weekdayIndex maps Monday to 0 and Sunday to 6.
func weekdayIndex(d time.Weekday) int {
	return (int(d) + 6) % 7
}

func (b *bucketCounts) add(met bool) {
	b.total++
	if met {
		b.met++
	}
}

func (b *bucketCounts) merge(other bucketCounts) {
	b.met += other.met
	b.total += other.total
}

func (b bucketCounts) row(label string) domain.TimeBucketCompliance {
	return domain.TimeBucketCompliance{Label: label, Met: b.met, Total: b.total, Rate: Rate(b.met, b.total)}
}

func addActor(table map[string]actorCounts, o domain.SLAOutcome) {
	c := table[o.Responsible]
	c.add(o)
	table[o.Responsible] = c
}

func mergeActors(dst, src map[string]actorCounts) {
	for id, c := range src {
		merged := dst[id]
		merged.merge(c)
		dst[id] = merged
	}
}

func actorTable(table map[string]actorCounts) []domain.ActorCompliance {
	ids := make([]string, 0, len(table))
	for id := range table {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	rows := make([]domain.ActorCompliance, 0, len(ids))
	for _, id := range ids {
		c := table[id]
		row := domain.ActorCompliance{
			ActorID:          id,
			ComplianceCounts: c.compliance(),
			Responses:        c.responses,
		}
		if c.responses > 0 {
			avg := round1(float64(c.responseMinutes) / float64(c.responses))
			row.AvgResponseMinutes = &avg
		}
		rows = append(rows, row)
	}
	return rows
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
