package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/spec-kit/sla-tracker/internal/domain"
)

// Metrics provides basic in-memory counters.
type Metrics struct {
	mu             sync.Mutex
	requestCount   map[string]int64
	errorCount     map[string]int64
	runCount       map[string]int64
	outcomeCount   map[string]int64
	skipCount      map[string]int64
	lastRunLatency time.Duration
}

// MetricsSnapshot is a point-in-time copy of the counters.
type MetricsSnapshot struct {
	Requests         map[string]int64 `json:"requests"`
	Errors           map[string]int64 `json:"errors"`
	Runs             map[string]int64 `json:"runs"`
	Outcomes         map[string]int64 `json:"outcomes"`
	Skips            map[string]int64 `json:"skips"`
	LastRunLatencyMS int64            `json:"last_run_latency_ms"`
}

// NewMetrics initializes metrics storage. Outcome counters start at zero for every
// pathway and status so a snapshot always carries the full series.
func NewMetrics() *Metrics {
	outcomes := make(map[string]int64)
	for _, pathway := range []domain.Pathway{domain.PathwayOnCall, domain.PathwayAssignee} {
		for _, status := range domain.Statuses() {
			outcomes[outcomeKey(pathway, status)] = 0
		}
	}
	return &Metrics{
		requestCount: make(map[string]int64),
		errorCount:   make(map[string]int64),
		runCount:     make(map[string]int64),
		outcomeCount: outcomes,
		skipCount:    make(map[string]int64),
	}
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := pathKey(path, method, status)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount[key]++
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + code
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCount[key]++
}

// RecordRun counts an evaluation run by trigger and tallies its outcomes and skips.
func (m *Metrics) RecordRun(trigger string, outcomes []domain.SLAOutcome, skipped map[string]int, duration time.Duration) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runCount[trigger]++
	m.lastRunLatency = duration
	for _, o := range outcomes {
		m.outcomeCount[outcomeKey(o.Pathway, o.Status)]++
	}
	for reason, n := range skipped {
		m.skipCount[reason] += int64(n)
	}
}

// RecordRunFailure counts a run that did not complete.
func (m *Metrics) RecordRunFailure(trigger string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runCount[trigger+"|failed"]++
}

// Snapshot copies the current counters.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil {
		return MetricsSnapshot{}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return MetricsSnapshot{
		Requests:         copyCounts(m.requestCount),
		Errors:           copyCounts(m.errorCount),
		Runs:             copyCounts(m.runCount),
		Outcomes:         copyCounts(m.outcomeCount),
		Skips:            copyCounts(m.skipCount),
		LastRunLatencyMS: m.lastRunLatency.Milliseconds(),
	}
}

func copyCounts(src map[string]int64) map[string]int64 {
	dst := make(map[string]int64, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func outcomeKey(pathway domain.Pathway, status domain.Status) string {
	return string(pathway) + "|" + status.String()
}

func pathKey(path, method string, status int) string {
	return path + "|" + method + "|" + strconv.Itoa(status)
}
