package model

import (
	"time"
)

// Mood tags a reflection with how the day felt. The empty string means no
// mood was recorded.
const (
	MoodGreat = "great"
	MoodGood  = "good"
	MoodOkay  = "okay"
	MoodLow   = "low"
	MoodRough = "rough"
)

// MoodEmoji maps a mood tag to its presentation emoji. Unknown tags map to
// the empty string.
func MoodEmoji(mood string) string {
	switch mood {
	case MoodGreat:
		return "😄"
	case MoodGood:
		return "🙂"
	case MoodOkay:
		return "😐"
	case MoodLow:
		return "😕"
	case MoodRough:
		return "😞"
	default:
		return ""
	}
}

// ActionResponse is one answered prompt inside a reflection, in the order the
// prompts were presented.
type ActionResponse struct {
	Action   string `json:"action"`
	Response string `json:"response"`
}

// Reflection is a single dated log entry against one goal. Reflections are
// append-only: they are never mutated in place and are removed only as a
// cascade of goal deletion. GoalID references a goal by field equality; no
// relational constraint enforces it.
type Reflection struct {
	ID        string           `json:"id"`
	GoalID    string           `json:"goal_id"`
	LoggedAt  time.Time        `json:"logged_at"`
	Responses []ActionResponse `json:"responses"`
	Mood      string           `json:"mood,omitempty"`
}

// Clone returns a deep copy of the reflection.
func (r Reflection) Clone() Reflection {
	c := r
	c.Responses = append([]ActionResponse(nil), r.Responses...)
	return c
}
