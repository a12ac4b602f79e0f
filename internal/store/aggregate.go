package store

import (
	"sort"
	"time"

	"github.com/tendapp/tend/internal/model"
)

// weeklyTarget is the fixed denominator for the weekly progress ratio. It
// does not consult the goal's tracking options: five logs a week counts as
// complete for every goal, and a sixth log pushes the ratio past 1.0.
const weeklyTarget = 5.0

// aggregateCache holds the per-goal reflection indexes. A version of 0 means
// valid; any other value means rebuild on next read. The three maps are only
// ever swapped in together, so a reader never sees a partial rebuild.
type aggregateCache struct {
	version int64
	grouped map[string][]model.Reflection // newest first
	latest  map[string]model.Reflection
	weekly  map[string]float64
}

func (c *aggregateCache) invalidate() {
	c.version++
}

// rebuildAggregatesLocked groups the entire reflection collection by goal in
// one pass, then sorts each group newest-first. One O(n) pass over all
// reflections, not a per-goal filter, which would be quadratic across goals.
func (s *Store) rebuildAggregatesLocked() {
	if s.agg.version == 0 {
		return
	}

	grouped := make(map[string][]model.Reflection)
	for _, r := range s.reflections {
		grouped[r.GoalID] = append(grouped[r.GoalID], r)
	}

	now := s.clock()
	weekStart := startOfWeek(now)

	latest := make(map[string]model.Reflection, len(grouped))
	weekly := make(map[string]float64, len(grouped))
	for id, list := range grouped {
		sort.SliceStable(list, func(i, j int) bool {
			return list[i].LoggedAt.After(list[j].LoggedAt)
		})
		grouped[id] = list
		latest[id] = list[0]

		count := 0
		for _, r := range list {
			if !r.LoggedAt.Before(weekStart) {
				count++
			}
		}
		weekly[id] = float64(count) / weeklyTarget
	}

	s.agg = aggregateCache{version: 0, grouped: grouped, latest: latest, weekly: weekly}
}

// startOfWeek returns midnight on Monday of t's week, in t's location. The
// boundary deliberately follows the local calendar, so the same reflection
// can fall in different weeks on devices in different timezones.
func startOfWeek(t time.Time) time.Time {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	offset := (int(day.Weekday()) + 6) % 7 // Monday = 0
	return day.AddDate(0, 0, -offset)
}

// ReflectionsForGoal returns the goal's reflections newest-first. Unknown
// IDs yield an empty slice, never an error.
func (s *Store) ReflectionsForGoal(id string) []model.Reflection {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rebuildAggregatesLocked()

	list := s.agg.grouped[id]
	out := make([]model.Reflection, 0, len(list))
	for _, r := range list {
		out = append(out, r.Clone())
	}
	return out
}

// LastReflectionForGoal returns the most recent reflection, or nil.
func (s *Store) LastReflectionForGoal(id string) *model.Reflection {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rebuildAggregatesLocked()

	r, ok := s.agg.latest[id]
	if !ok {
		return nil
	}
	c := r.Clone()
	return &c
}

// WeeklyProgressForGoal returns logged-this-week divided by the fixed weekly
// target. 0 when nothing was logged this week; above 1.0 when the target was
// exceeded.
func (s *Store) WeeklyProgressForGoal(id string) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rebuildAggregatesLocked()

	return s.agg.weekly[id]
}

// ReflectionCountForGoal returns the total number of reflections logged
// against the goal.
func (s *Store) ReflectionCountForGoal(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rebuildAggregatesLocked()

	return len(s.agg.grouped[id])
}
