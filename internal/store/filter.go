package store

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tendapp/tend/internal/model"
)

// Filter selects which goals appear in a filtered list.
type Filter int

const (
	FilterAll Filter = iota
	FilterActive
	FilterArchived
	FilterLoggedToday
	FilterNotLoggedToday
	FilterHasStreak
	FilterNoStreak
	FilterHasReminder
	FilterNoReminder
)

// Sort selects the display order of a filtered list.
type Sort int

const (
	SortManual Sort = iota
	SortNewest
	SortOldest
	SortAlphaAsc
	SortAlphaDesc
	SortStreakHigh
	SortStreakLow
	SortMostActive
	SortLeastActive
)

var filterNames = map[string]Filter{
	"all":              FilterAll,
	"active":           FilterActive,
	"archived":         FilterArchived,
	"logged-today":     FilterLoggedToday,
	"not-logged-today": FilterNotLoggedToday,
	"has-streak":       FilterHasStreak,
	"no-streak":        FilterNoStreak,
	"has-reminder":     FilterHasReminder,
	"no-reminder":      FilterNoReminder,
}

var sortNames = map[string]Sort{
	"manual":       SortManual,
	"newest":       SortNewest,
	"oldest":       SortOldest,
	"alpha":        SortAlphaAsc,
	"alpha-desc":   SortAlphaDesc,
	"streak-high":  SortStreakHigh,
	"streak-low":   SortStreakLow,
	"most-active":  SortMostActive,
	"least-active": SortLeastActive,
}

// ParseFilter maps a name like "logged-today" to its Filter.
func ParseFilter(name string) (Filter, error) {
	f, ok := filterNames[name]
	if !ok {
		return FilterAll, fmt.Errorf("unknown filter: %s", name)
	}
	return f, nil
}

// ParseSort maps a name like "streak-high" to its Sort.
func ParseSort(name string) (Sort, error) {
	s, ok := sortNames[name]
	if !ok {
		return SortManual, fmt.Errorf("unknown sort: %s", name)
	}
	return s, nil
}

// ListOptions configures FilteredGoals. The zero value lists everything in
// manual order.
type ListOptions struct {
	Search string // case-insensitive substring match on intention text
	Filter Filter
	Sort   Sort
}

// FilteredGoals returns the goals matching opts, ordered per the sort key.
// A pure function of the collection, the caches and opts; the result is a
// copy and never aliases store state.
func (s *Store) FilteredGoals(opts ListOptions) []model.Goal {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rebuildDisplayLocked() // rebuilds aggregates first if stale

	search := strings.ToLower(strings.TrimSpace(opts.Search))

	out := make([]model.Goal, 0, len(s.goals))
	for _, g := range s.goals {
		if search != "" && !strings.Contains(strings.ToLower(g.Intention), search) {
			continue
		}
		if !s.matchesFilterLocked(g, opts.Filter) {
			continue
		}
		out = append(out, g.Clone())
	}

	var counts map[string]int
	if opts.Sort == SortMostActive || opts.Sort == SortLeastActive {
		counts = make(map[string]int, len(s.agg.grouped))
		for id, list := range s.agg.grouped {
			counts[id] = len(list)
		}
	}
	sortGoals(out, opts.Sort, counts)
	return out
}

func (s *Store) matchesFilterLocked(g model.Goal, f Filter) bool {
	switch f {
	case FilterActive:
		return !g.Archived
	case FilterArchived:
		return g.Archived
	case FilterLoggedToday:
		return s.display.status[g.ID].LoggedToday
	case FilterNotLoggedToday:
		return !s.display.status[g.ID].LoggedToday
	case FilterHasStreak:
		return g.Streak > 0
	case FilterNoStreak:
		return g.Streak == 0
	case FilterHasReminder:
		return g.ReminderAt != nil
	case FilterNoReminder:
		return g.ReminderAt == nil
	default:
		return true
	}
}

// sortGoals orders goals in place. Manual order sorts by the explicit order
// field with creation time as tiebreak, the stable fallback when order
// fields collide (seen after a buggy migration). Other keys rely on the
// stable sort for ties.
func sortGoals(goals []model.Goal, by Sort, counts map[string]int) {
	var less func(a, b model.Goal) bool

	switch by {
	case SortNewest:
		less = func(a, b model.Goal) bool { return a.CreatedAt.After(b.CreatedAt) }
	case SortOldest:
		less = func(a, b model.Goal) bool { return a.CreatedAt.Before(b.CreatedAt) }
	case SortAlphaAsc:
		less = func(a, b model.Goal) bool {
			return strings.ToLower(a.Intention) < strings.ToLower(b.Intention)
		}
	case SortAlphaDesc:
		less = func(a, b model.Goal) bool {
			return strings.ToLower(a.Intention) > strings.ToLower(b.Intention)
		}
	case SortStreakHigh:
		less = func(a, b model.Goal) bool { return a.Streak > b.Streak }
	case SortStreakLow:
		less = func(a, b model.Goal) bool { return a.Streak < b.Streak }
	case SortMostActive:
		less = func(a, b model.Goal) bool { return counts[a.ID] > counts[b.ID] }
	case SortLeastActive:
		less = func(a, b model.Goal) bool { return counts[a.ID] < counts[b.ID] }
	default: // SortManual
		less = func(a, b model.Goal) bool {
			if a.Order != b.Order {
				return a.Order < b.Order
			}
			return a.CreatedAt.Before(b.CreatedAt)
		}
	}

	sort.SliceStable(goals, func(i, j int) bool { return less(goals[i], goals[j]) })
}
