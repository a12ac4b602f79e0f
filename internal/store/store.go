package store

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tendapp/tend/internal/model"
	"github.com/tendapp/tend/internal/storage"
)

const (
	defaultSaveDebounce   = 500 * time.Millisecond
	defaultNotifyDebounce = 100 * time.Millisecond
)

// Store owns the goal and reflection collections and every cache derived
// from them. One mutex serializes all mutation, cache rebuild and timer
// callbacks, so cache rebuilds are atomic as far as readers can tell.
// Readers get copies; there is no external mutation path.
//
// Mutations follow a fixed sequence: mutate the source collection, bump the
// affected cache versions, then schedule a debounced save and a debounced
// change notification. The synchronous part is always visible to the next
// read, even if the debounced effects have not fired yet.
type Store struct {
	mu    sync.Mutex
	blobs storage.BlobStore

	goals       []model.Goal
	reflections []model.Reflection

	agg     aggregateCache
	display displayCache

	saveDebounce   time.Duration
	notifyDebounce time.Duration
	clock          func() time.Time

	// Single-slot pending timers, one per scheduled-effect kind.
	// Scheduling cancels and replaces any pending instance. The generation
	// counters invalidate a stale callback that already fired and was
	// waiting on the mutex when its timer got replaced.
	saveTimer   *time.Timer
	saveGen     uint64
	notifyTimer *time.Timer
	notifyGen   uint64
	notifyDue   bool

	subs    map[int]func()
	nextSub int
	closed  bool
}

// Option configures a Store at Open time.
type Option func(*Store)

// WithSaveDebounce sets the delay between the last invalidating mutation and
// the persistence write.
func WithSaveDebounce(d time.Duration) Option {
	return func(s *Store) { s.saveDebounce = d }
}

// WithNotifyDebounce sets the delay between the last invalidating mutation
// and the batched change notification.
func WithNotifyDebounce(d time.Duration) Option {
	return func(s *Store) { s.notifyDebounce = d }
}

// WithClock overrides the time source. Tests use this to pin "now".
func WithClock(clock func() time.Time) Option {
	return func(s *Store) { s.clock = clock }
}

// Open loads both collections from the blob store and returns the ready
// repository. A missing or corrupt blob degrades to an empty collection.
// Goals saved by old versions with all-zero order fields are repaired
// (order = index) and the correction is persisted immediately.
func Open(blobs storage.BlobStore, opts ...Option) *Store {
	s := &Store{
		blobs:          blobs,
		saveDebounce:   defaultSaveDebounce,
		notifyDebounce: defaultNotifyDebounce,
		clock:          time.Now,
		subs:           make(map[int]func()),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.goals, s.reflections = loadCollections(blobs)
	if backfillOrders(s.goals) {
		s.persistLocked()
	}

	s.agg.invalidate()
	s.display.invalidate()
	return s
}

// SaveGoal inserts a new goal at the head of the list. Missing identity and
// creation time are filled in. Existing goals shift down one order slot.
func (s *Store) SaveGoal(g model.Goal) model.Goal {
	s.mu.Lock()
	defer s.mu.Unlock()

	if g.ID == "" {
		g.ID = uuid.New().String()
	}
	if g.CreatedAt.IsZero() {
		g.CreatedAt = s.clock()
	}
	g.Order = 0

	for i := range s.goals {
		s.goals[i].Order++
	}
	s.goals = append([]model.Goal{g.Clone()}, s.goals...)

	s.display.invalidate()
	s.scheduleEffectsLocked()
	return g
}

// UpdateGoal replaces the goal with the same ID in place. Unknown IDs are a
// silent no-op.
func (s *Store) UpdateGoal(g model.Goal) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.goals {
		if s.goals[i].ID == g.ID {
			s.goals[i] = g.Clone()
			s.display.invalidate()
			s.scheduleEffectsLocked()
			return
		}
	}
}

// DeleteGoal removes the goal and every reflection logged against it.
// Absent IDs are a no-op.
func (s *Store) DeleteGoal(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i := range s.goals {
		if s.goals[i].ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return
	}

	s.goals = append(s.goals[:idx], s.goals[idx+1:]...)

	kept := s.reflections[:0]
	for _, r := range s.reflections {
		if r.GoalID != id {
			kept = append(kept, r)
		}
	}
	s.reflections = kept

	s.agg.invalidate()
	s.display.invalidate()
	s.scheduleEffectsLocked()
}

// ArchiveGoal marks the goal archived. Unknown IDs are a silent no-op.
func (s *Store) ArchiveGoal(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.goals {
		if s.goals[i].ID == id {
			s.goals[i].Archived = true
			s.display.invalidate()
			s.scheduleEffectsLocked()
			return
		}
	}
}

// DuplicateGoal clones the goal under a fresh identity: new ID, current
// creation time, streak and archive state reset, no logged history. The
// clone is inserted at the head. Returns the clone and whether the source
// existed.
func (s *Store) DuplicateGoal(id string) (model.Goal, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var src *model.Goal
	for i := range s.goals {
		if s.goals[i].ID == id {
			src = &s.goals[i]
			break
		}
	}
	if src == nil {
		return model.Goal{}, false
	}

	clone := src.Clone()
	clone.ID = uuid.New().String()
	clone.CreatedAt = s.clock()
	clone.LastLoggedAt = nil
	clone.Streak = 0
	clone.Archived = false
	clone.Order = 0

	for i := range s.goals {
		s.goals[i].Order++
	}
	s.goals = append([]model.Goal{clone}, s.goals...)

	s.display.invalidate()
	s.scheduleEffectsLocked()
	return clone, true
}

// SaveReflection appends a reflection. Missing identity and log time are
// filled in. The referenced goal is not checked; reflections are matched to
// goals by field equality only.
func (s *Store) SaveReflection(r model.Reflection) model.Reflection {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.LoggedAt.IsZero() {
		r.LoggedAt = s.clock()
	}
	s.reflections = append(s.reflections, r.Clone())

	s.agg.invalidate()
	s.display.invalidate()
	s.scheduleEffectsLocked()
	return r
}

// ReorderGoals moves the elements at the given indexes in front of the
// element at offset to, then reassigns every order field to its new index.
// An empty from set or any out-of-range index is a no-op.
func (s *Store) ReorderGoals(from []int, to int) {
	if len(from) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.goals)
	if to < 0 || to > n {
		return
	}
	moving := make(map[int]bool, len(from))
	for _, i := range from {
		if i < 0 || i >= n {
			return
		}
		moving[i] = true
	}

	moved := make([]model.Goal, 0, len(moving))
	rest := make([]model.Goal, 0, n-len(moving))
	insert := to
	for i, g := range s.goals {
		if moving[i] {
			moved = append(moved, g)
			if i < to {
				insert--
			}
		} else {
			rest = append(rest, g)
		}
	}

	reordered := make([]model.Goal, 0, n)
	reordered = append(reordered, rest[:insert]...)
	reordered = append(reordered, moved...)
	reordered = append(reordered, rest[insert:]...)
	for i := range reordered {
		reordered[i].Order = i
	}
	s.goals = reordered

	s.display.invalidate()
	s.scheduleEffectsLocked()
}

// Goals returns every goal in manual display order: order field ascending,
// creation time ascending as the stable fallback when order fields collide.
func (s *Store) Goals() []model.Goal {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.Goal, 0, len(s.goals))
	for _, g := range s.goals {
		out = append(out, g.Clone())
	}
	sortGoals(out, SortManual, nil)
	return out
}

// Subscribe registers a change observer. Observers fire once per batch of
// mutations, on the notify debounce. The returned func unsubscribes.
func (s *Store) Subscribe(fn func()) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// Flush cancels any pending save timer and persists the current state
// immediately. Hosts call this when the environment signals imminent
// suspension, bounding the data-loss window to the debounce interval.
func (s *Store) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.saveTimer != nil {
		s.saveTimer.Stop()
		s.saveTimer = nil
	}
	s.saveGen++
	s.persistLocked()
}

// Close flushes pending work and stops the store. A pending change
// notification fires synchronously before Close returns; no timers remain
// afterwards. The blob store itself is owned by the caller.
func (s *Store) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true

	if s.saveTimer != nil {
		s.saveTimer.Stop()
		s.saveTimer = nil
	}
	s.saveGen++
	s.persistLocked()

	var fns []func()
	if s.notifyTimer != nil {
		s.notifyTimer.Stop()
		s.notifyTimer = nil
	}
	if s.notifyDue {
		s.notifyDue = false
		fns = make([]func(), 0, len(s.subs))
		for _, fn := range s.subs {
			fns = append(fns, fn)
		}
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

func (s *Store) scheduleEffectsLocked() {
	if s.closed {
		return
	}
	s.scheduleSaveLocked()
	s.scheduleNotifyLocked()
}

// scheduleSaveLocked debounces: a pending timer is cancelled and replaced,
// so only the latest scheduled write fires. Earlier cache invalidations are
// never lost because they already happened synchronously.
func (s *Store) scheduleSaveLocked() {
	if s.saveTimer != nil {
		s.saveTimer.Stop()
	}
	s.saveGen++
	gen := s.saveGen
	s.saveTimer = time.AfterFunc(s.saveDebounce, func() { s.commitSave(gen) })
}

func (s *Store) commitSave(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || gen != s.saveGen {
		// A flush or a newer schedule won the race.
		return
	}
	s.saveTimer = nil
	s.persistLocked()
}

func (s *Store) scheduleNotifyLocked() {
	s.notifyDue = true
	if s.notifyTimer != nil {
		s.notifyTimer.Stop()
	}
	s.notifyGen++
	gen := s.notifyGen
	s.notifyTimer = time.AfterFunc(s.notifyDebounce, func() { s.commitNotify(gen) })
}

func (s *Store) commitNotify(gen uint64) {
	s.mu.Lock()
	if s.closed || gen != s.notifyGen || !s.notifyDue {
		s.mu.Unlock()
		return
	}
	s.notifyTimer = nil
	s.notifyDue = false
	fns := make([]func(), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	// Observers run outside the lock so they can read back into the store.
	for _, fn := range fns {
		fn()
	}
}
