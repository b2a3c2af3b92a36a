package domain

// ComplianceCounts holds met/breached/pending tallies and the derived rate.
// Pending overlaps the other two: a pending outcome is also met or breached.
type ComplianceCounts struct {
	Met      int     `json:"met"`
	Breached int     `json:"breached"`
	Pending  int     `json:"pending"`
	Total    int     `json:"total"`
	Rate     float64 `json:"rate"`
}

// ActorCompliance is one row of a per-actor table.
type ActorCompliance struct {
	ActorID string `json:"actor_id"`
	ComplianceCounts
	Responses          int      `json:"responses"`
	AvgResponseMinutes *float64 `json:"avg_response_minutes"`
}

// TimeBucketCompliance is one row of the weekday or hour-of-day breakdown.
type TimeBucketCompliance struct {
	Label string  `json:"label"`
	Met   int     `json:"met"`
	Total int     `json:"total"`
	Rate  float64 `json:"rate"`
}

// ResponseBucket names a histogram bucket.
type ResponseBucket string

const (
	BucketUnder1h    ResponseBucket = "under_1h"
	Bucket1hTo2h     ResponseBucket = "1h_2h"
	Bucket2hTo4h     ResponseBucket = "2h_4h"
	Bucket4hTo8h     ResponseBucket = "4h_8h"
	BucketOver8h     ResponseBucket = "over_8h"
	BucketNoResponse ResponseBucket = "no_response"
)

// ResponseBuckets lists histogram buckets in display order.
func ResponseBuckets() []ResponseBucket {
	return []ResponseBucket{BucketUnder1h, Bucket1hTo2h, Bucket2hTo4h, Bucket4hTo8h, BucketOver8h, BucketNoResponse}
}

// HistogramCount is one histogram bar.
type HistogramCount struct {
	Bucket ResponseBucket `json:"bucket"`
	Count  int            `json:"count"`
}

// ActorTables groups the per-actor breakdowns.
type ActorTables struct {
	OnCall   []ActorCompliance `json:"on_call"`
	Assignee []ActorCompliance `json:"assignee"`
	Combined []ActorCompliance `json:"combined"`
}

// AggregateSummary is the reporting view over a set of outcomes.
type AggregateSummary struct {
	Overall   ComplianceCounts       `json:"overall"`
	OnCall    ComplianceCounts       `json:"on_call"`
	Assignee  ComplianceCounts       `json:"assignee"`
	ByActor   ActorTables            `json:"by_actor"`
	ByWeekday []TimeBucketCompliance `json:"by_weekday"`
	ByHour    []TimeBucketCompliance `json:"by_hour"`
	Histogram []HistogramCount       `json:"histogram"`
}
