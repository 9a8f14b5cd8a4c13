package event

import "time"

// State is the cross-process transfer representation of a stored event.
// Memoized caches (payload, interfaces, group, project, hashes) are
// deliberately absent: cached derived views can embed representations other
// runtime versions cannot decode, so receivers always recompute them.
// Snapshot-backed events are ephemeral per-query views and are never
// transferred.
type State struct {
	ID        int64     `json:"id"`
	EventID   string    `json:"event_id"`
	ProjectID int64     `json:"project_id"`
	GroupID   int64     `json:"group_id"`
	Datetime  time.Time `json:"datetime"`
	Platform  string    `json:"platform,omitempty"`
	Message   string    `json:"message,omitempty"`
	TimeSpent *int64    `json:"time_spent,omitempty"`
}

// State extracts the transfer representation of this event.
func (e *Event) State() State {
	return State{
		ID:        e.ID,
		EventID:   e.EventID,
		ProjectID: e.ProjectID,
		GroupID:   e.GroupID,
		Datetime:  e.Datetime,
		Platform:  e.Platform,
		Message:   e.Message,
		TimeSpent: e.TimeSpent,
	}
}

// FromState rebuilds a stored-backed event in the receiving process, with
// all derived caches empty.
func FromState(s State, deps Deps, ops StoredOps) *Event {
	return NewStored(StoredRow{
		ID:        s.ID,
		EventID:   s.EventID,
		ProjectID: s.ProjectID,
		GroupID:   s.GroupID,
		Datetime:  s.Datetime,
		Platform:  s.Platform,
		Message:   s.Message,
		TimeSpent: s.TimeSpent,
	}, deps, ops)
}
