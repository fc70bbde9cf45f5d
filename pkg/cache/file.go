package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// FileCache persists rendered artifacts on disk, one JSON entry per key.
// Entries are sharded into subdirectories by the leading hash byte so a
// busy cache never piles thousands of files into one directory.
type FileCache struct {
	root string
}

// NewFileCache opens (and if needed creates) an artifact cache rooted at
// the given directory.
func NewFileCache(root string) (Cache, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &FileCache{root: root}, nil
}

// fileEntry is the on-disk format. Expiry is a unix timestamp in
// seconds; zero means the entry never expires.
type fileEntry struct {
	Payload []byte `json:"payload"`
	Expiry  int64  `json:"expiry,omitempty"`
}

func (c *FileCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	path := c.entryPath(key)
	raw, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil, false, nil
	case err != nil:
		return nil, false, err
	}

	var e fileEntry
	if err := json.Unmarshal(raw, &e); err != nil {
		// Unreadable entries are evicted, not surfaced.
		_ = os.Remove(path)
		return nil, false, nil
	}
	if e.Expiry != 0 && time.Now().Unix() > e.Expiry {
		_ = os.Remove(path)
		return nil, false, nil
	}
	return e.Payload, true, nil
}

func (c *FileCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	e := fileEntry{Payload: data}
	if ttl != 0 {
		e.Expiry = time.Now().Add(ttl).Unix()
	}
	raw, err := json.Marshal(e)
	if err != nil {
		return err
	}

	path := c.entryPath(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o644)
}

func (c *FileCache) Delete(ctx context.Context, key string) error {
	err := os.Remove(c.entryPath(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func (c *FileCache) Close() error { return nil }

// entryPath shards entries by hash prefix: <root>/ab/cdef....json.
func (c *FileCache) entryPath(key string) string {
	sum := Hash([]byte(key))
	return filepath.Join(c.root, sum[:2], sum[2:]+".json")
}

var _ Cache = (*FileCache)(nil)
