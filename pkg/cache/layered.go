package cache

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LayeredStore puts a fast, lossy front store (usually a MemoryStore) in
// front of a persistent back store.
type LayeredStore struct {
	front  Store
	back   Store
	logger zerolog.Logger
}

// NewLayeredStore combines front and back.
func NewLayeredStore(front, back Store) *LayeredStore {
	if front == nil || back == nil {
		panic("layered store requires front and back stores")
	}
	return &LayeredStore{
		front:  front,
		back:   back,
		logger: log.With().Str("component", "layered-cache").Logger(),
	}
}

// Get consults front first. A back hit is copied into front.
func (l *LayeredStore) Get(ctx context.Context, key Key) (*Record, error) {
	if record, err := l.front.Get(ctx, key); err == nil {
		return record, nil
	}

	record, err := l.back.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	// The back hit is served even when the front refuses it.
	if err := l.front.Put(ctx, key, record); err != nil {
		l.logger.Debug().Err(err).Str("key", key.String()).Msg("Front store backfill failed")
	}
	return record, nil
}

// Put writes back first so front never holds a record the back store lacks.
func (l *LayeredStore) Put(ctx context.Context, key Key, record *Record) error {
	if err := l.back.Put(ctx, key, record); err != nil {
		return err
	}
	if err := l.front.Put(ctx, key, record); err != nil {
		return fmt.Errorf("front store: %w", err)
	}
	return nil
}
