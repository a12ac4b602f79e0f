package app

import (
	"fmt"

	"github.com/tendapp/tend/internal/config"
	"github.com/tendapp/tend/internal/storage"
	"github.com/tendapp/tend/internal/store"
)

// App is the composition root: it owns the blob store and the data store and
// hands the store to whatever front end is driving it.
type App struct {
	Cfg   *config.Config
	Blobs storage.BlobStore
	Store *store.Store
}

func New(cfg *config.Config) (*App, error) {
	blobs, err := storage.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize blob store: %w", err)
	}

	st := store.Open(blobs,
		store.WithSaveDebounce(cfg.SaveDebounce),
		store.WithNotifyDebounce(cfg.NotifyDebounce),
	)

	return &App{
		Cfg:   cfg,
		Blobs: blobs,
		Store: st,
	}, nil
}

// Close flushes pending writes and releases the blob store.
func (a *App) Close() error {
	if a.Store != nil {
		a.Store.Close()
	}
	if a.Blobs != nil {
		return a.Blobs.Close()
	}
	return nil
}
