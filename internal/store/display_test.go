package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendapp/tend/internal/model"
)

func TestDisplayStatusUnknownGoalIsSentinel(t *testing.T) {
	s, _, _ := newTestStore(t)

	st := s.DisplayStatusForGoal("missing")
	assert.False(t, st.LoggedToday)
	assert.False(t, st.HasReflections)
	assert.Empty(t, st.LastLogged)
	assert.Empty(t, st.MoodEmoji)
	assert.Zero(t, st.Progress)
	assert.Equal(t, "0%", st.ProgressLabel)
}

func TestDisplayStatusNoReflectionsYet(t *testing.T) {
	s, _, _ := newTestStore(t)

	g := s.SaveGoal(model.Goal{Intention: "paint"})
	st := s.DisplayStatusForGoal(g.ID)
	assert.False(t, st.HasReflections)
	assert.False(t, st.LoggedToday)
	assert.Equal(t, "0%", st.ProgressLabel)
}

func TestDisplayStatusLoggedToday(t *testing.T) {
	s, _, clock := newTestStore(t)

	g := s.SaveGoal(model.Goal{Intention: "practice guitar"})
	s.SaveReflection(model.Reflection{
		GoalID:   g.ID,
		LoggedAt: clock.Now().Add(-2 * time.Hour), // 10:00 AM
		Mood:     model.MoodGreat,
	})

	st := s.DisplayStatusForGoal(g.ID)
	assert.True(t, st.LoggedToday)
	assert.True(t, st.HasReflections)
	assert.Equal(t, "Today at 10:00 AM", st.LastLogged)
	assert.Equal(t, "😄", st.MoodEmoji)
	assert.InDelta(t, 0.2, st.Progress, 1e-9)
	assert.Equal(t, "20%", st.ProgressLabel)
}

func TestDisplayStatusYesterdayAndOlder(t *testing.T) {
	s, _, clock := newTestStore(t)

	g := s.SaveGoal(model.Goal{Intention: "call home"})
	s.SaveReflection(model.Reflection{GoalID: g.ID, LoggedAt: clock.Now().Add(-24 * time.Hour)})

	st := s.DisplayStatusForGoal(g.ID)
	assert.False(t, st.LoggedToday)
	assert.Equal(t, "Yesterday", st.LastLogged)

	// A newer reflection earlier the same year formats as month + day.
	old := s.SaveGoal(model.Goal{Intention: "old one"})
	s.SaveReflection(model.Reflection{
		GoalID:   old.ID,
		LoggedAt: time.Date(2024, 3, 5, 9, 0, 0, 0, time.Local),
	})
	assert.Equal(t, "Mar 5", s.DisplayStatusForGoal(old.ID).LastLogged)

	// Prior years carry the year.
	ancient := s.SaveGoal(model.Goal{Intention: "ancient"})
	s.SaveReflection(model.Reflection{
		GoalID:   ancient.ID,
		LoggedAt: time.Date(2022, 11, 30, 9, 0, 0, 0, time.Local),
	})
	assert.Equal(t, "Nov 30, 2022", s.DisplayStatusForGoal(ancient.ID).LastLogged)
}

func TestDisplayStatusProgressPastTarget(t *testing.T) {
	s, _, clock := newTestStore(t)
	weekStart := startOfWeek(clock.Now())

	g := s.SaveGoal(model.Goal{Intention: "hydrate"})
	for i := 0; i < 6; i++ {
		s.SaveReflection(model.Reflection{
			GoalID:   g.ID,
			LoggedAt: weekStart.Add(time.Duration(i) * time.Hour),
		})
	}

	st := s.DisplayStatusForGoal(g.ID)
	assert.InDelta(t, 1.2, st.Progress, 1e-9)
	assert.Equal(t, "120%", st.ProgressLabel)
}

func TestDisplayStatusMoodFollowsLatestReflection(t *testing.T) {
	s, _, clock := newTestStore(t)

	g := s.SaveGoal(model.Goal{Intention: "sleep early"})
	s.SaveReflection(model.Reflection{GoalID: g.ID, LoggedAt: clock.Now().Add(-time.Hour), Mood: model.MoodRough})
	s.SaveReflection(model.Reflection{GoalID: g.ID, LoggedAt: clock.Now(), Mood: model.MoodOkay})

	st := s.DisplayStatusForGoal(g.ID)
	assert.Equal(t, "😐", st.MoodEmoji)

	// Append-only mutation moves the latest mood without an explicit
	// invalidation call from the caller.
	s.SaveReflection(model.Reflection{GoalID: g.ID, LoggedAt: clock.Now().Add(time.Minute), Mood: model.MoodGood})
	st = s.DisplayStatusForGoal(g.ID)
	assert.Equal(t, "🙂", st.MoodEmoji)
}

func TestDeletedGoalDropsOutOfDisplayCache(t *testing.T) {
	s, _, clock := newTestStore(t)

	g := s.SaveGoal(model.Goal{Intention: "transient"})
	s.SaveReflection(model.Reflection{GoalID: g.ID, LoggedAt: clock.Now()})
	require.True(t, s.DisplayStatusForGoal(g.ID).LoggedToday)

	s.DeleteGoal(g.ID)
	st := s.DisplayStatusForGoal(g.ID)
	assert.False(t, st.LoggedToday)
	assert.False(t, st.HasReflections)
}
