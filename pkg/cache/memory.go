package cache

import (
	"context"
	"errors"

	"github.com/dgraph-io/ristretto"
)

// MemoryConfig sizes a MemoryStore.
type MemoryConfig struct {
	// MaxBytes bounds the summed body size of resident records.
	MaxBytes int64

	// NumCounters is the number of admission counters; ~10x the expected
	// number of resident records.
	NumCounters int64

	// BufferItems is the ristretto Get buffer size.
	BufferItems int64
}

// DefaultMemoryConfig returns a 64 MiB memory layer.
func DefaultMemoryConfig() MemoryConfig {
	return MemoryConfig{
		MaxBytes:    64 << 20,
		NumCounters: 100_000,
		BufferItems: 64,
	}
}

// MemoryStore is an in-process record cache backed by ristretto. It is
// bounded and may drop entries at any time, so it is only meant to sit in
// front of a persistent Store (see LayeredStore).
type MemoryStore struct {
	c *ristretto.Cache
}

// recordOverhead approximates the per-entry cost of the policy state.
const recordOverhead = 512

// NewMemoryStore creates a memory store.
func NewMemoryStore(cfg MemoryConfig) (*MemoryStore, error) {
	if cfg.MaxBytes <= 0 || cfg.NumCounters <= 0 || cfg.BufferItems <= 0 {
		return nil, errors.New("memory cache: invalid config")
	}
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: cfg.NumCounters,
		MaxCost:     cfg.MaxBytes,
		BufferItems: cfg.BufferItems,
	})
	if err != nil {
		return nil, err
	}
	return &MemoryStore{c: c}, nil
}

// Get returns the resident record for key.
func (m *MemoryStore) Get(_ context.Context, key Key) (*Record, error) {
	v, ok := m.c.Get(key.String())
	if !ok {
		CacheMisses.WithLabelValues("memory").Inc()
		return nil, ErrCacheMiss
	}
	record, _ := v.(*Record)
	if record == nil {
		m.c.Del(key.String())
		CacheMisses.WithLabelValues("memory").Inc()
		return nil, ErrCacheMiss
	}
	CacheHits.WithLabelValues("memory").Inc()
	return record, nil
}

// Put admits record. Ristretto may reject the write under pressure, which is
// not an error for a best-effort layer.
func (m *MemoryStore) Put(_ context.Context, key Key, record *Record) error {
	if record == nil {
		return errors.New("record is nil")
	}
	if m.c.Set(key.String(), record, int64(len(record.Body))+recordOverhead) {
		CacheWrites.WithLabelValues("memory").Inc()
	}
	return nil
}

// Wait blocks until buffered writes are applied.
func (m *MemoryStore) Wait() {
	m.c.Wait()
}

// Close releases the cache.
func (m *MemoryStore) Close() {
	m.c.Close()
}
