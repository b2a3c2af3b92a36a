package dto

import (
	"fmt"
	"strings"
	"time"

	"github.com/spec-kit/sla-tracker/internal/domain"
)

// EvaluateRequest payload. Timestamps are RFC3339 strings.
type EvaluateRequest struct {
	Now     *string       `json:"now"`
	Tickets []TicketInput `json:"tickets"`
	Shifts  []ShiftInput  `json:"shifts"`
}

// TicketInput is one ticket of an ad hoc evaluation. Unparseable timestamps are
// treated as absent.
type TicketInput struct {
	Key                     string           `json:"key"`
	CreatedAt               *string          `json:"created_at"`
	ResolvedAt              *string          `json:"resolved_at"`
	AssignedAt              *string          `json:"assigned_at"`
	OwnerCommentAt          *string          `json:"owner_comment_at"`
	FirstResponderCommentAt *string          `json:"first_responder_comment_at"`
	FirstResponderAssignAt  *string          `json:"first_responder_assign_at"`
	FirstResponder          string           `json:"first_responder"`
	CurrentOwner            string           `json:"current_owner"`
	Goals                   []domain.SLAGoal `json:"goals"`
}

// ShiftInput is one on-call shift.
type ShiftInput struct {
	ActorID string `json:"actor_id"`
	Start   string `json:"start"`
	End     string `json:"end"`
}

// RunRequest payload for a manual run.
type RunRequest struct {
	From *string `json:"from"`
	To   *string `json:"to"`
}

// SnapshotHeader is a snapshot without its outcome list.
type SnapshotHeader struct {
	ID         string                  `json:"id"`
	RunAt      time.Time               `json:"run_at"`
	Trigger    domain.RunTrigger       `json:"trigger"`
	WindowFrom time.Time               `json:"window_from"`
	WindowTo   time.Time               `json:"window_to"`
	Examined   int                     `json:"examined"`
	Skipped    map[string]int          `json:"skipped"`
	Overall    domain.ComplianceCounts `json:"overall"`
}

// ToDomain converts the ticket. Unparseable or empty timestamps become missing values.
func (t TicketInput) ToDomain() domain.Ticket {
	ticket := domain.Ticket{
		Key:                     t.Key,
		ResolvedAt:              ParseOptionalTime(t.ResolvedAt),
		AssignedAt:              ParseOptionalTime(t.AssignedAt),
		OwnerCommentAt:          ParseOptionalTime(t.OwnerCommentAt),
		FirstResponderCommentAt: ParseOptionalTime(t.FirstResponderCommentAt),
		FirstResponderAssignAt:  ParseOptionalTime(t.FirstResponderAssignAt),
		FirstResponder:          strings.TrimSpace(t.FirstResponder),
		CurrentOwner:            strings.TrimSpace(t.CurrentOwner),
		GoalMinutes:             domain.SelectGoalMinutes(t.Goals),
	}
	if created := ParseOptionalTime(t.CreatedAt); created != nil {
		ticket.CreatedAt = *created
	}
	return ticket
}

// ToDomain converts the shift. Shift bounds are required.
func (s ShiftInput) ToDomain() (domain.Shift, error) {
	start, err := time.Parse(time.RFC3339, s.Start)
	if err != nil {
		return domain.Shift{}, fmt.Errorf("shift %q start: %w", s.ActorID, err)
	}
	end, err := time.Parse(time.RFC3339, s.End)
	if err != nil {
		return domain.Shift{}, fmt.Errorf("shift %q end: %w", s.ActorID, err)
	}
	return domain.Shift{ActorID: strings.TrimSpace(s.ActorID), Start: start, End: end}, nil
}

// ParseOptionalTime parses an RFC3339 timestamp, returning nil when absent or invalid.
func ParseOptionalTime(v *string) *time.Time {
	if v == nil || strings.TrimSpace(*v) == "" {
		return nil
	}
	parsed, err := time.Parse(time.RFC3339, strings.TrimSpace(*v))
	if err != nil {
		return nil
	}
	return &parsed
}

// NewSnapshotHeader builds a list entry from a snapshot.
func NewSnapshotHeader(s domain.Snapshot) SnapshotHeader {
	skipped := s.Skipped
	if skipped == nil {
		skipped = map[string]int{}
	}
	return SnapshotHeader{
		ID:         s.ID,
		RunAt:      s.RunAt,
		Trigger:    s.Trigger,
		WindowFrom: s.WindowFrom,
		WindowTo:   s.WindowTo,
		Examined:   s.Examined,
		Skipped:    skipped,
		Overall:    s.Summary.Overall,
	}
}
