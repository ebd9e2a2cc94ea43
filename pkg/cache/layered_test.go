package cache

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
)

// mapStore is an in-memory Store used to observe layering.
type mapStore struct {
	mu      sync.Mutex
	records map[Key]*Record
	gets    int
	puts    int
	putErr  error
}

func newMapStore() *mapStore {
	return &mapStore{records: make(map[Key]*Record)}
}

func (m *mapStore) Get(_ context.Context, key Key) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	r, ok := m.records[key]
	if !ok {
		return nil, ErrCacheMiss
	}
	return r, nil
}

func (m *mapStore) Put(_ context.Context, key Key, r *Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.puts++
	if m.putErr != nil {
		return m.putErr
	}
	m.records[key] = r
	return nil
}

func TestMemoryStore(t *testing.T) {
	mem, err := NewMemoryStore(DefaultMemoryConfig())
	if err != nil {
		t.Fatalf("NewMemoryStore() error = %v", err)
	}
	defer mem.Close()
	ctx := context.Background()
	key := KeyFor("https://pokeapi.co/api/v2/pokemon/1")

	if _, err := mem.Get(ctx, key); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Get() before Put error = %v, want ErrCacheMiss", err)
	}

	want := testRecord(`{"id":1}`)
	if err := mem.Put(ctx, key, want); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	mem.Wait()

	got, err := mem.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != want {
		t.Error("Get() did not return the stored record")
	}
}

func TestNewMemoryStore_InvalidConfig(t *testing.T) {
	if _, err := NewMemoryStore(MemoryConfig{}); err == nil {
		t.Error("NewMemoryStore with zero config should fail")
	}
}

func TestLayeredStore_BackfillsFront(t *testing.T) {
	front, back := newMapStore(), newMapStore()
	layered := NewLayeredStore(front, back)
	ctx := context.Background()
	key := KeyFor("https://pokeapi.co/api/v2/pokemon/2")
	record := testRecord(`{"id":2}`)
	back.records[key] = record

	got, err := layered.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != record {
		t.Error("Get() did not return the back record")
	}
	if front.records[key] != record {
		t.Error("back hit was not copied into front")
	}

	backGets := back.gets
	if _, err := layered.Get(ctx, key); err != nil {
		t.Fatal(err)
	}
	if back.gets != backGets {
		t.Error("second Get() reached the back store")
	}
}

func TestLayeredStore_BackfillFailureIsLogged(t *testing.T) {
	front, back := newMapStore(), newMapStore()
	front.putErr = errors.New("front full")
	layered := NewLayeredStore(front, back)
	var buf bytes.Buffer
	layered.logger = zerolog.New(&buf)

	key := KeyFor("https://pokeapi.co/api/v2/pokemon/5")
	record := testRecord(`{"id":5}`)
	back.records[key] = record

	got, err := layered.Get(context.Background(), key)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != record {
		t.Error("Get() did not return the back record")
	}
	if front.puts != 1 {
		t.Errorf("front puts = %d, want 1", front.puts)
	}
	if out := buf.String(); !strings.Contains(out, "Front store backfill failed") || !strings.Contains(out, "front full") {
		t.Errorf("log output = %q, want backfill failure", out)
	}
}

func TestLayeredStore_MissInBoth(t *testing.T) {
	layered := NewLayeredStore(newMapStore(), newMapStore())
	if _, err := layered.Get(context.Background(), KeyFor("none")); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Get() error = %v, want ErrCacheMiss", err)
	}
}

func TestLayeredStore_PutWritesBoth(t *testing.T) {
	front, back := newMapStore(), newMapStore()
	layered := NewLayeredStore(front, back)
	key := KeyFor("https://pokeapi.co/api/v2/pokemon/3")
	record := testRecord(`{"id":3}`)

	if err := layered.Put(context.Background(), key, record); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if back.records[key] != record || front.records[key] != record {
		t.Error("Put() did not write both layers")
	}
}

func TestLayeredStore_BackFailureSkipsFront(t *testing.T) {
	front, back := newMapStore(), newMapStore()
	back.putErr = errors.New("disk full")
	layered := NewLayeredStore(front, back)
	key := KeyFor("https://pokeapi.co/api/v2/pokemon/4")

	if err := layered.Put(context.Background(), key, testRecord(`{}`)); err == nil {
		t.Fatal("Put() error = nil, want back failure")
	}
	if _, ok := front.records[key]; ok {
		t.Error("front holds a record the back store rejected")
	}
}

func TestNewLayeredStore_Panic(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("NewLayeredStore should panic with nil store")
		}
	}()
	NewLayeredStore(nil, newMapStore())
}
