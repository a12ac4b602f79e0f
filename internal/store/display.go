package store

import (
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/tendapp/tend/internal/model"
)

// DisplayStatus is the presentation-ready record for one goal, derived from
// the aggregate cache plus formatting rules.
type DisplayStatus struct {
	LoggedToday    bool
	LastLogged     string // "Today at 3:04 PM", "Yesterday", "Jan 2", ...
	Progress       float64
	ProgressLabel  string // formatted percentage, e.g. "120%"
	HasReflections bool
	MoodEmoji      string
}

// displayCache precomputes a DisplayStatus for every goal. Version 0 means
// valid. Any goal or reflection mutation, including pure reordering,
// invalidates the whole family: renaming goal A forces goal B's status to be
// recomputed on the next read too. Rebuild is O(goals), so the blast radius
// is accepted over per-goal bookkeeping.
type displayCache struct {
	version int64
	status  map[string]DisplayStatus
}

func (c *displayCache) invalidate() {
	c.version++
}

var displayPrinter = message.NewPrinter(language.English)

func formatPercent(v float64) string {
	return displayPrinter.Sprint(number.Percent(v, number.MaxFractionDigits(0)))
}

func emptyDisplayStatus() DisplayStatus {
	return DisplayStatus{ProgressLabel: formatPercent(0)}
}

// rebuildDisplayLocked eagerly recomputes the status of every goal in the
// source collection, pulling aggregate entries (rebuilt first if stale).
func (s *Store) rebuildDisplayLocked() {
	if s.display.version == 0 {
		return
	}
	s.rebuildAggregatesLocked()

	now := s.clock()
	status := make(map[string]DisplayStatus, len(s.goals))
	for _, g := range s.goals {
		st := emptyDisplayStatus()
		if last, ok := s.agg.latest[g.ID]; ok {
			st.HasReflections = true
			st.LoggedToday = sameDay(last.LoggedAt, now)
			st.LastLogged = formatLastLogged(last.LoggedAt, now)
			st.MoodEmoji = model.MoodEmoji(last.Mood)
		}
		st.Progress = s.agg.weekly[g.ID]
		st.ProgressLabel = formatPercent(st.Progress)
		status[g.ID] = st
	}

	s.display = displayCache{version: 0, status: status}
}

// DisplayStatusForGoal never fails: unknown IDs return the empty sentinel
// (not logged today, zero progress, no mood).
func (s *Store) DisplayStatusForGoal(id string) DisplayStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rebuildDisplayLocked()

	st, ok := s.display.status[id]
	if !ok {
		return emptyDisplayStatus()
	}
	return st
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func formatLastLogged(at, now time.Time) string {
	switch {
	case sameDay(at, now):
		return "Today at " + at.Format("3:04 PM")
	case sameDay(at, now.AddDate(0, 0, -1)):
		return "Yesterday"
	case at.Year() == now.Year():
		return at.Format("Jan 2")
	default:
		return at.Format("Jan 2, 2006")
	}
}
