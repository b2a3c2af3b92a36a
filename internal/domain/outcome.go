package domain

import (
	"fmt"
	"time"
)

// Pathway is one of the two independent measurement tracks.
type Pathway string

const (
	PathwayOnCall   Pathway = "on-call"
	PathwayAssignee Pathway = "assignee"
)

// Status classifies an outcome. The set is closed: values outside the declared
// constants are rejected when decoding.
type Status uint8

const (
	StatusResponded Status = iota + 1
	StatusPending
	StatusResolvedNoComment
	StatusNoResponse
	StatusRespondedAfterShift
)

var statusNames = map[Status]string{
	StatusResponded:           "responded",
	StatusPending:             "pending",
	StatusResolvedNoComment:   "resolved-no-comment",
	StatusNoResponse:          "no-response",
	StatusRespondedAfterShift: "responded-after-shift",
}

// Statuses lists every status in declaration order.
func Statuses() []Status {
	return []Status{
		StatusResponded,
		StatusPending,
		StatusResolvedNoComment,
		StatusNoResponse,
		StatusRespondedAfterShift,
	}
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("status(%d)", uint8(s))
}

// Valid reports whether s is a declared status.
func (s Status) Valid() bool {
	_, ok := statusNames[s]
	return ok
}

// HasResponse reports whether the status records an actual response time.
func (s Status) HasResponse() bool {
	switch s {
	case StatusResponded, StatusRespondedAfterShift:
		return true
	case StatusPending, StatusResolvedNoComment, StatusNoResponse:
		return false
	default:
		return false
	}
}

// ParseStatus converts a status name.
func ParseStatus(name string) (Status, error) {
	for s, n := range statusNames {
		if n == name {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown sla status %q", name)
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid sla status %d", uint8(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(text []byte) error {
	parsed, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// SLAOutcome is the classification of one ticket on one pathway.
type SLAOutcome struct {
	TicketKey       string    `json:"ticket_key"`
	Pathway         Pathway   `json:"pathway"`
	Responsible     string    `json:"responsible"`
	Gap             GapKind   `json:"gap,omitempty"`
	Status          Status    `json:"status"`
	ShiftEnded      bool      `json:"shift_ended,omitempty"`
	BusinessMinutes int       `json:"business_minutes"`
	Met             bool      `json:"met"`
	GoalMinutes     int       `json:"goal_minutes"`
	CreatedAt       time.Time `json:"created_at"`
	AccountableFrom time.Time `json:"accountable_from"`
}

// IsGap reports whether the outcome was resolved against a coverage gap.
func (o SLAOutcome) IsGap() bool {
	return o.Gap.IsGap()
}
