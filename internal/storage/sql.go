package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/tendapp/tend/internal/db"
)

// SQLStore keeps blobs in a single key/value table. The default driver is the
// pure-Go sqlite build; pgx works unchanged because the queries stick to
// $N placeholders and ON CONFLICT upserts.
type SQLStore struct {
	db *sqlx.DB
}

// NewSQL opens the database, runs migrations, and returns the store.
func NewSQL(driver, connection string) (*SQLStore, error) {
	database, err := db.Init(driver, connection)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	err = db.RunMigrations(database.DB, driver)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLStore{db: database}, nil
}

func (s *SQLStore) Get(key string) ([]byte, error) {
	var value []byte
	query := `SELECT value FROM blobs WHERE key = $1`

	err := s.db.Get(&value, query, key)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return value, nil
}

func (s *SQLStore) Set(key string, value []byte) error {
	query := `INSERT INTO blobs (key, value, updated_at) VALUES ($1, $2, $3)
	          ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`

	_, err := s.db.Exec(query, key, value, time.Now())
	return err
}

func (s *SQLStore) Close() error {
	return db.Close(s.db)
}
