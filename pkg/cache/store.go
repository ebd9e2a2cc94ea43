package cache

import (
	"context"
	"errors"
)

var (
	// ErrCacheMiss indicates the requested key was not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrCorruptRecord indicates stored bytes could not be decoded as a Record
	ErrCorruptRecord = errors.New("corrupt cache record")
)

// Store persists Records by Key.
//
// Get returns ErrCacheMiss when nothing usable is stored for the key, which
// includes corrupt or foreign-version data. Any other error is an I/O
// failure of the backend.
//
// Put fully replaces the previous record for the key. Readers never observe
// a partially written record.
type Store interface {
	Get(ctx context.Context, key Key) (*Record, error)
	Put(ctx context.Context, key Key, record *Record) error
}
