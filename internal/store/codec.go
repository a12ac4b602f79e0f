package store

import (
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/tendapp/tend/internal/model"
	"github.com/tendapp/tend/internal/storage"
)

// Persisted state layout: two independently-keyed JSON arrays. Field names
// inside the arrays are stable across versions; the schema is additive-only.
const (
	goalsKey       = "saved_goals"
	reflectionsKey = "saved_reflections"
)

// loadCollections decodes both persisted arrays. A missing or corrupt blob
// degrades to an empty collection; nothing is surfaced to the caller.
func loadCollections(blobs storage.BlobStore) ([]model.Goal, []model.Reflection) {
	var goals []model.Goal
	if data, ok := read(blobs, goalsKey); ok {
		err := json.Unmarshal(data, &goals)
		if err != nil {
			slog.Warn("failed to decode saved goals, starting empty", "error", err)
			goals = nil
		}
	}

	var reflections []model.Reflection
	if data, ok := read(blobs, reflectionsKey); ok {
		err := json.Unmarshal(data, &reflections)
		if err != nil {
			slog.Warn("failed to decode saved reflections, starting empty", "error", err)
			reflections = nil
		}
	}

	return goals, reflections
}

func read(blobs storage.BlobStore, key string) ([]byte, bool) {
	data, err := blobs.Get(key)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, false
	}
	if err != nil {
		slog.Warn("failed to read blob, treating as absent", "key", key, "error", err)
		return nil, false
	}
	return data, true
}

// persistLocked writes both collections. Encode or write failures are logged
// and dropped with no retry: the persisted state simply stays stale until
// the next successful save.
func (s *Store) persistLocked() {
	write(s.blobs, goalsKey, s.goals)
	write(s.blobs, reflectionsKey, s.reflections)
}

func write(blobs storage.BlobStore, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Warn("failed to encode blob, skipping save", "key", key, "error", err)
		return
	}
	err = blobs.Set(key, data)
	if err != nil {
		slog.Warn("failed to write blob", "key", key, "error", err)
	}
}

// backfillOrders repairs goal lists written by versions that stored zero for
// every order field: a zero order on any non-head element triggers a one-time
// reassignment of order = index across the whole list. Returns whether a
// correction was made (the caller persists it immediately).
func backfillOrders(goals []model.Goal) bool {
	needs := false
	for i, g := range goals {
		if i > 0 && g.Order == 0 {
			needs = true
			break
		}
	}
	if !needs {
		return false
	}

	for i := range goals {
		goals[i].Order = i
	}
	slog.Info("backfilled goal order fields", "count", len(goals))
	return true
}
