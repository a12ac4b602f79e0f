package store

import (
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendapp/tend/internal/model"
	"github.com/tendapp/tend/internal/storage"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock(t time.Time) *fakeClock {
	return &fakeClock{t: t}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

// Wednesday, mid-week, noon local time.
var testNow = time.Date(2024, 7, 10, 12, 0, 0, 0, time.Local)

func newTestStore(t *testing.T, opts ...Option) (*Store, *storage.MemoryStore, *fakeClock) {
	t.Helper()
	blobs := storage.NewMemory()
	clock := newFakeClock(testNow)
	opts = append([]Option{
		WithSaveDebounce(30 * time.Millisecond),
		WithNotifyDebounce(20 * time.Millisecond),
		WithClock(clock.Now),
	}, opts...)
	s := Open(blobs, opts...)
	t.Cleanup(s.Close)
	return s, blobs, clock
}

func TestSaveGoalInsertsAtHead(t *testing.T) {
	s, _, _ := newTestStore(t)

	first := s.SaveGoal(model.Goal{Intention: "read more"})
	second := s.SaveGoal(model.Goal{Intention: "run daily"})

	goals := s.Goals()
	require.Len(t, goals, 2)
	assert.Equal(t, second.ID, goals[0].ID)
	assert.Equal(t, 0, goals[0].Order)
	assert.Equal(t, first.ID, goals[1].ID)
	assert.Equal(t, 1, goals[1].Order)
	assert.NotEmpty(t, first.ID)
}

func TestUpdateGoalUnknownIDIsNoop(t *testing.T) {
	s, _, _ := newTestStore(t)

	g := s.SaveGoal(model.Goal{Intention: "meditate"})
	s.UpdateGoal(model.Goal{ID: "does-not-exist", Intention: "hijack"})

	goals := s.Goals()
	require.Len(t, goals, 1)
	assert.Equal(t, g.Intention, goals[0].Intention)
}

func TestUpdateGoalReplacesInPlace(t *testing.T) {
	s, _, _ := newTestStore(t)

	g := s.SaveGoal(model.Goal{Intention: "meditate"})
	g.Intention = "meditate nightly"
	g.Streak = 4
	s.UpdateGoal(g)

	goals := s.Goals()
	require.Len(t, goals, 1)
	assert.Equal(t, "meditate nightly", goals[0].Intention)
	assert.Equal(t, 4, goals[0].Streak)
}

func TestArchiveGoal(t *testing.T) {
	s, _, _ := newTestStore(t)

	g := s.SaveGoal(model.Goal{Intention: "journal"})
	s.ArchiveGoal(g.ID)

	goals := s.Goals()
	require.Len(t, goals, 1)
	assert.True(t, goals[0].Archived)

	// Unknown id must not panic or change anything.
	s.ArchiveGoal("nope")
}

func TestDuplicateGoalResetsDerivedState(t *testing.T) {
	s, _, clock := newTestStore(t)

	reminder := "07:30"
	g := s.SaveGoal(model.Goal{
		Intention:  "stretch",
		Tags:       []string{"daily", "morning"},
		Streak:     9,
		ReminderAt: &reminder,
	})
	s.ArchiveGoal(g.ID)
	s.SaveReflection(model.Reflection{GoalID: g.ID, LoggedAt: clock.Now()})

	clone, ok := s.DuplicateGoal(g.ID)
	require.True(t, ok)
	assert.NotEqual(t, g.ID, clone.ID)
	assert.Equal(t, g.Intention, clone.Intention)
	assert.Equal(t, g.Tags, clone.Tags)
	assert.Equal(t, 0, clone.Streak)
	assert.False(t, clone.Archived)
	assert.Nil(t, clone.LastLoggedAt)
	assert.Equal(t, 0, clone.Order)

	// The clone starts with no history of its own.
	assert.Empty(t, s.ReflectionsForGoal(clone.ID))

	_, ok = s.DuplicateGoal("nope")
	assert.False(t, ok)
}

func TestDeleteGoalCascadesToReflections(t *testing.T) {
	s, _, clock := newTestStore(t)

	keep := s.SaveGoal(model.Goal{Intention: "keep"})
	doomed := s.SaveGoal(model.Goal{Intention: "doomed"})
	s.SaveReflection(model.Reflection{GoalID: keep.ID, LoggedAt: clock.Now()})
	s.SaveReflection(model.Reflection{GoalID: doomed.ID, LoggedAt: clock.Now()})
	s.SaveReflection(model.Reflection{GoalID: doomed.ID, LoggedAt: clock.Now().Add(-time.Hour)})

	s.DeleteGoal(doomed.ID)

	assert.Empty(t, s.ReflectionsForGoal(doomed.ID))
	assert.Len(t, s.ReflectionsForGoal(keep.ID), 1)
	assert.Len(t, s.Goals(), 1)

	// Absent id is a no-op.
	s.DeleteGoal(doomed.ID)
	assert.Len(t, s.Goals(), 1)
}

func seedOrdered(t *testing.T, s *Store, intentions ...string) []model.Goal {
	t.Helper()
	// SaveGoal inserts at the head, so seed in reverse to get the listed
	// display order.
	for i := len(intentions) - 1; i >= 0; i-- {
		s.SaveGoal(model.Goal{Intention: intentions[i]})
	}
	goals := s.Goals()
	require.Len(t, goals, len(intentions))
	for i, g := range goals {
		require.Equal(t, intentions[i], g.Intention)
		require.Equal(t, i, g.Order)
	}
	return goals
}

func TestReorderGoalsAssignsSequentialOrders(t *testing.T) {
	s, _, _ := newTestStore(t)
	seedOrdered(t, s, "a", "b", "c", "d")

	// Move the head in front of offset 2: a lands between b and c.
	s.ReorderGoals([]int{0}, 2)

	goals := s.Goals()
	var got []string
	for i, g := range goals {
		got = append(got, g.Intention)
		assert.Equal(t, i, g.Order)
	}
	assert.Equal(t, []string{"b", "a", "c", "d"}, got)
}

func TestReorderGoalsMultipleIndexes(t *testing.T) {
	s, _, _ := newTestStore(t)
	seedOrdered(t, s, "a", "b", "c", "d")

	s.ReorderGoals([]int{0, 2}, 4)

	goals := s.Goals()
	var got []string
	orders := map[int]bool{}
	for _, g := range goals {
		got = append(got, g.Intention)
		orders[g.Order] = true
	}
	assert.Equal(t, []string{"b", "d", "a", "c"}, got)
	// No gaps, no duplicates.
	assert.Equal(t, map[int]bool{0: true, 1: true, 2: true, 3: true}, orders)
}

func TestReorderGoalsEmptyOrInvalidIsNoop(t *testing.T) {
	s, _, _ := newTestStore(t)
	seedOrdered(t, s, "a", "b")

	s.ReorderGoals(nil, 1)
	s.ReorderGoals([]int{5}, 0)
	s.ReorderGoals([]int{0}, 9)

	goals := s.Goals()
	assert.Equal(t, "a", goals[0].Intention)
	assert.Equal(t, "b", goals[1].Intention)
}

func TestDebounceCoalescesWrites(t *testing.T) {
	s, blobs, _ := newTestStore(t)

	for i := 0; i < 5; i++ {
		s.SaveGoal(model.Goal{Intention: fmt.Sprintf("goal %d", i)})
	}

	// Nothing persists before the debounce interval elapses.
	assert.Equal(t, 0, blobs.Writes(goalsKey))

	require.Eventually(t, func() bool {
		return blobs.Writes(goalsKey) == 1
	}, time.Second, 5*time.Millisecond)

	// The single write reflects the final state, and no stragglers follow.
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 1, blobs.Writes(goalsKey))

	data, err := blobs.Get(goalsKey)
	require.NoError(t, err)
	var persisted []model.Goal
	require.NoError(t, json.Unmarshal(data, &persisted))
	assert.Len(t, persisted, 5)
}

func TestFlushIsSynchronousAndCancelsTimer(t *testing.T) {
	s, blobs, _ := newTestStore(t)

	s.SaveGoal(model.Goal{Intention: "flush me"})
	s.Flush()

	// Persisted state matches in-memory state the moment Flush returns.
	assert.Equal(t, 1, blobs.Writes(goalsKey))
	data, err := blobs.Get(goalsKey)
	require.NoError(t, err)
	var persisted []model.Goal
	require.NoError(t, json.Unmarshal(data, &persisted))
	require.Len(t, persisted, 1)
	assert.Equal(t, "flush me", persisted[0].Intention)

	// The pending timer was cancelled: no duplicate write fires later.
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 1, blobs.Writes(goalsKey))
}

func TestRoundTripPersistence(t *testing.T) {
	blobs := storage.NewMemory()
	clock := newFakeClock(testNow)

	s := Open(blobs, WithClock(clock.Now))
	reminder := "21:00"
	g := s.SaveGoal(model.Goal{
		Intention:  "write",
		Tags:       []string{"evening"},
		Streak:     2,
		ReminderAt: &reminder,
	})
	r := s.SaveReflection(model.Reflection{
		GoalID:    g.ID,
		Responses: []model.ActionResponse{{Action: "What went well?", Response: "shipped"}},
		Mood:      model.MoodGood,
	})
	s.Close()

	// Simulated restart: a fresh store over the same blobs.
	s2 := Open(blobs, WithClock(clock.Now))
	defer s2.Close()

	goals := s2.Goals()
	require.Len(t, goals, 1)
	assert.Equal(t, g.ID, goals[0].ID)
	assert.Equal(t, g.Intention, goals[0].Intention)
	assert.Equal(t, g.Tags, goals[0].Tags)
	assert.Equal(t, g.Streak, goals[0].Streak)
	require.NotNil(t, goals[0].ReminderAt)
	assert.Equal(t, reminder, *goals[0].ReminderAt)
	assert.Equal(t, g.Order, goals[0].Order)
	assert.True(t, goals[0].CreatedAt.Equal(g.CreatedAt))

	reflections := s2.ReflectionsForGoal(g.ID)
	require.Len(t, reflections, 1)
	assert.Equal(t, r.ID, reflections[0].ID)
	assert.Equal(t, r.Responses, reflections[0].Responses)
	assert.Equal(t, r.Mood, reflections[0].Mood)
	assert.True(t, reflections[0].LoggedAt.Equal(r.LoggedAt))
}

func TestOpenBackfillsZeroOrders(t *testing.T) {
	blobs := storage.NewMemory()

	// Three goals as an old version wrote them: every order field zero.
	stale := []model.Goal{
		{ID: "g1", Intention: "one", CreatedAt: testNow},
		{ID: "g2", Intention: "two", CreatedAt: testNow.Add(time.Minute)},
		{ID: "g3", Intention: "three", CreatedAt: testNow.Add(2 * time.Minute)},
	}
	data, err := json.Marshal(stale)
	require.NoError(t, err)
	require.NoError(t, blobs.Set(goalsKey, data))

	s := Open(blobs, WithClock(newFakeClock(testNow).Now))
	defer s.Close()

	goals := s.Goals()
	require.Len(t, goals, 3)
	for i, g := range goals {
		assert.Equal(t, i, g.Order)
	}
	assert.Equal(t, "one", goals[0].Intention)

	// The correction was persisted immediately, not debounced.
	assert.Equal(t, 2, blobs.Writes(goalsKey))

	var persisted []model.Goal
	data, err = blobs.Get(goalsKey)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &persisted))
	assert.Equal(t, 1, persisted[1].Order)
}

func TestOpenSurvivesCorruptBlob(t *testing.T) {
	blobs := storage.NewMemory()
	require.NoError(t, blobs.Set(goalsKey, []byte("{not json")))
	require.NoError(t, blobs.Set(reflectionsKey, []byte("also broken")))

	s := Open(blobs)
	defer s.Close()

	assert.Empty(t, s.Goals())
	assert.Empty(t, s.ReflectionsForGoal("any"))
}

func TestSubscribeDebouncesNotifications(t *testing.T) {
	s, _, _ := newTestStore(t)

	var fired atomic.Int32
	unsubscribe := s.Subscribe(func() { fired.Add(1) })

	for i := 0; i < 4; i++ {
		s.SaveGoal(model.Goal{Intention: fmt.Sprintf("g%d", i)})
	}

	require.Eventually(t, func() bool {
		return fired.Load() == 1
	}, time.Second, 5*time.Millisecond)

	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, int32(1), fired.Load())

	unsubscribe()
	s.SaveGoal(model.Goal{Intention: "silent"})
	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, int32(1), fired.Load())
}

func TestCloseFlushesPendingNotification(t *testing.T) {
	blobs := storage.NewMemory()
	s := Open(blobs,
		WithSaveDebounce(time.Hour),
		WithNotifyDebounce(time.Hour),
	)

	var fired atomic.Int32
	s.Subscribe(func() { fired.Add(1) })

	s.SaveGoal(model.Goal{Intention: "pending"})
	assert.Equal(t, int32(0), fired.Load())
	assert.Equal(t, 0, blobs.Writes(goalsKey))

	s.Close()

	// Close flushed both pending effects synchronously.
	assert.Equal(t, int32(1), fired.Load())
	assert.Equal(t, 1, blobs.Writes(goalsKey))
}
