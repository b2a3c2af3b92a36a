package domain

import "fmt"

// WorkingHours is a daily window expressed in hours of the calendar's reference
// location. StartHour > EndHour wraps past midnight; StartHour == EndHour covers the
// whole day.
type WorkingHours struct {
	StartHour int `yaml:"start_hour" json:"start_hour"`
	EndHour   int `yaml:"end_hour" json:"end_hour"`
}

// DefaultWorkingHours is applied to actors without their own window.
var DefaultWorkingHours = WorkingHours{StartHour: 13, EndHour: 22}

// Validate checks hour bounds.
func (w WorkingHours) Validate() error {
	if w.StartHour < 0 || w.StartHour > 23 {
		return fmt.Errorf("start hour %d out of range", w.StartHour)
	}
	if w.EndHour < 0 || w.EndHour > 24 {
		return fmt.Errorf("end hour %d out of range", w.EndHour)
	}
	return nil
}

// FullDay reports whether the window covers every hour.
func (w WorkingHours) FullDay() bool {
	return w.StartHour == w.EndHour || (w.StartHour == 0 && w.EndHour == 24)
}

// Wraps reports whether the window crosses midnight.
func (w WorkingHours) Wraps() bool {
	return w.StartHour > w.EndHour
}

// Contains reports whether the given hour of day falls inside the window.
func (w WorkingHours) Contains(hour int) bool {
	if w.FullDay() {
		return true
	}
	if w.Wraps() {
		return hour >= w.StartHour || hour < w.EndHour
	}
	return hour >= w.StartHour && hour < w.EndHour
}

// Actor is a person who can be held accountable for a ticket.
type Actor struct {
	ID              string        `yaml:"id" json:"id"`
	DisplayName     string        `yaml:"display_name" json:"display_name"`
	Window          *WorkingHours `yaml:"window,omitempty" json:"window,omitempty"`
	OnCallResponder bool          `yaml:"on_call" json:"on_call"`
	SLAResponder    bool          `yaml:"sla_responder" json:"sla_responder"`
}

// Roster is the read-only actor table for a run.
type Roster struct {
	defaultWindow WorkingHours
	actors        map[string]Actor
}

// NewRoster builds a roster. A zero default window falls back to DefaultWorkingHours.
func NewRoster(defaultWindow WorkingHours, actors []Actor) *Roster {
	byID := make(map[string]Actor, len(actors))
	for _, a := range actors {
		if a.ID == "" {
			continue
		}
		byID[a.ID] = a
	}
	return &Roster{defaultWindow: defaultWindow, actors: byID}
}

// DefaultWindow returns the window used for unknown actors.
func (r *Roster) DefaultWindow() WorkingHours {
	if r == nil {
		return DefaultWorkingHours
	}
	return r.defaultWindow
}

// Lookup returns the actor registered under id.
func (r *Roster) Lookup(id string) (Actor, bool) {
	if r == nil {
		return Actor{}, false
	}
	a, ok := r.actors[id]
	return a, ok
}

// WindowFor returns the actor's working hours, or the default window.
func (r *Roster) WindowFor(id string) WorkingHours {
	if a, ok := r.Lookup(id); ok && a.Window != nil {
		return *a.Window
	}
	return r.DefaultWindow()
}

// IsOnCallResponder reports membership in the on-call responder set.
func (r *Roster) IsOnCallResponder(id string) bool {
	a, ok := r.Lookup(id)
	return ok && a.OnCallResponder
}

// IsSLAResponder reports membership in the broader SLA responder set.
func (r *Roster) IsSLAResponder(id string) bool {
	a, ok := r.Lookup(id)
	return ok && (a.SLAResponder || a.OnCallResponder)
}

// DisplayName returns the actor's display name, or the id when unknown.
func (r *Roster) DisplayName(id string) string {
	if a, ok := r.Lookup(id); ok && a.DisplayName != "" {
		return a.DisplayName
	}
	return id
}

// Size returns the number of registered actors.
func (r *Roster) Size() int {
	if r == nil {
		return 0
	}
	return len(r.actors)
}
