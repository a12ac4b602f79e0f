package storage

import (
	"errors"
	"fmt"
	"log/slog"

	cfg "github.com/tendapp/tend/internal/config"
)

// ErrNotFound is returned by Get when no value exists for the key.
var ErrNotFound = errors.New("key not found")

// BlobStore is the local key-value store the persistence layer writes to.
// Values are opaque blobs; the store does no caching or interpretation.
type BlobStore interface {
	// Get returns the value stored under key, or ErrNotFound.
	Get(key string) ([]byte, error)

	// Set stores value under key, replacing any previous value.
	Set(key string, value []byte) error

	Close() error
}

// New creates a blob store from app config based on the configured driver.
// Supported: sqlite (default, sqlx over modernc sqlite or pgx), badger
// (embedded key-value store), memory (ephemeral, for tests and previews).
func New(c *cfg.Config) (BlobStore, error) {
	slog.Info("initializing blob store", "driver", c.StoreDriver)

	switch c.StoreDriver {
	case "sqlite":
		return NewSQL(c.DBDriver, c.DBConnection)
	case "badger":
		return NewBadger(c.BadgerPath)
	case "memory":
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown store driver: %s (supported: sqlite, badger, memory)", c.StoreDriver)
	}
}
