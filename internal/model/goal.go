package model

import (
	"time"
)

// Goal is a user-defined intention being tracked. Goals are owned by the
// store's in-memory collection and persisted as a JSON snapshot; field names
// are stable across versions (the persisted schema is additive-only).
type Goal struct {
	ID        string    `json:"id"`
	Intention string    `json:"intention"`
	Tags      []string  `json:"tags"`
	CreatedAt time.Time `json:"created_at"`

	// LastLoggedAt is a historical snapshot kept for schema stability.
	// The aggregate cache is the live source of truth for recency; this
	// field is never re-derived after load.
	LastLoggedAt *time.Time `json:"last_logged_at,omitempty"`

	Streak     int     `json:"streak"`
	ReminderAt *string `json:"reminder_at,omitempty"` // "HH:MM", local time
	Archived   bool    `json:"archived"`
	ImageRef   *string `json:"image_ref,omitempty"`
	Order      int     `json:"order"`
}

// Clone returns a deep copy of the goal.
func (g Goal) Clone() Goal {
	c := g
	c.Tags = append([]string(nil), g.Tags...)
	if g.LastLoggedAt != nil {
		t := *g.LastLoggedAt
		c.LastLoggedAt = &t
	}
	if g.ReminderAt != nil {
		r := *g.ReminderAt
		c.ReminderAt = &r
	}
	if g.ImageRef != nil {
		i := *g.ImageRef
		c.ImageRef = &i
	}
	return c
}
