package cache

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	// DefaultDir is the cache root used when none is configured.
	DefaultDir = ".pokecache"

	defaultDirPerm  = 0o755
	defaultFilePerm = 0o644
)

// DiskStore keeps one file per Key below root/<version>/.
// Entries are published with write-then-rename, so concurrent readers and
// writers (also across processes) only ever see complete records.
type DiskStore struct {
	root   string
	logger zerolog.Logger
}

// NewDiskStore creates a disk store rooted at dir. The directory is created
// lazily on the first Put.
func NewDiskStore(dir string) (*DiskStore, error) {
	if dir == "" {
		return nil, errors.New("cache dir is empty")
	}
	return &DiskStore{
		root:   dir,
		logger: log.With().Str("component", "disk-cache").Logger(),
	}, nil
}

// Root returns the configured cache root.
func (s *DiskStore) Root() string {
	return s.root
}

// Get reads and decodes the record stored for key.
func (s *DiskStore) Get(ctx context.Context, key Key) (*Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := key.Path(s.root)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			CacheMisses.WithLabelValues("disk").Inc()
			return nil, ErrCacheMiss
		}
		CacheErrors.WithLabelValues("disk", "get").Inc()
		return nil, fmt.Errorf("read cache file: %w", err)
	}

	record, err := DecodeRecord(data)
	if err != nil {
		CorruptRecords.WithLabelValues("disk").Inc()
		CacheMisses.WithLabelValues("disk").Inc()
		s.logger.Debug().Err(err).Str("key", key.String()).Msg("Ignoring undecodable cache file")
		return nil, ErrCacheMiss
	}

	CacheHits.WithLabelValues("disk").Inc()
	return record, nil
}

// Put encodes record and atomically replaces the file for key.
func (s *DiskStore) Put(ctx context.Context, key Key, record *Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := EncodeRecord(record)
	if err != nil {
		CacheErrors.WithLabelValues("disk", "put").Inc()
		return err
	}

	if err := writeFileAtomic(key.Path(s.root), data); err != nil {
		CacheErrors.WithLabelValues("disk", "put").Inc()
		return err
	}

	CacheWrites.WithLabelValues("disk").Inc()
	CacheWriteBytes.WithLabelValues("disk").Add(float64(len(data)))
	return nil
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, defaultDirPerm); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp cache file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write cache file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("sync cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close cache file: %w", err)
	}
	if err := os.Chmod(tmpPath, defaultFilePerm); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("chmod cache file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename cache file: %w", err)
	}
	return nil
}
