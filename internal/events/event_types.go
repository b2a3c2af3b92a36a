package events

import (
	"time"

	"github.com/spec-kit/sla-tracker/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventSLABreached      EventType = "sla.breached"
	EventSnapshotRecorded  EventType = "sla.snapshot_recorded"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID         string      `json:"id"`
	Type       EventType   `json:"type"`
	SnapshotID string      `json:"snapshot_id"`
	Timestamp  time.Time   `json:"timestamp"`
	Payload    interface{} `json:"payload"`
}

// SLABreachedPayload describes one outcome that missed its goal.
type SLABreachedPayload struct {
	TicketKey       string         `json:"ticket_key"`
	Pathway         domain.Pathway `json:"pathway"`
	Responsible     string         `json:"responsible"`
	Status          domain.Status  `json:"status"`
	BusinessMinutes int            `json:"business_minutes"`
	GoalMinutes     int            `json:"goal_minutes"`
	ShiftEnded      bool           `json:"shift_ended,omitempty"`
}

// SnapshotRecordedPayload summarizes a persisted run.
type SnapshotRecordedPayload struct {
	Trigger     domain.RunTrigger `json:"trigger"`
	WindowFrom  time.Time         `json:"window_from"`
	WindowTo    time.Time         `json:"window_to"`
	Examined    int               `json:"examined"`
	Outcomes    int               `json:"outcomes"`
	Breaches    int               `json:"breaches"`
	OverallRate float64           `json:"overall_rate"`
}

// BreachedPayload builds the payload for a breached outcome.
func BreachedPayload(o domain.SLAOutcome) SLABreachedPayload {
	return SLABreachedPayload{
		TicketKey:       o.TicketKey,
		Pathway:         o.Pathway,
		Responsible:     o.Responsible,
		Status:          o.Status,
		BusinessMinutes: o.BusinessMinutes,
		GoalMinutes:     o.GoalMinutes,
		ShiftEnded:      o.ShiftEnded,
	}
}
