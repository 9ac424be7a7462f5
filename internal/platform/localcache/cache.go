// Package localcache is a durable key/value snapshot store backed by JSON
// files on disk. Services write their full collection through it after every
// mutation and hydrate from it at startup or when the remote store is
// unreachable.
package localcache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// ErrMiss is returned by Get when no snapshot exists for the key.
var ErrMiss = errors.New("localcache: no snapshot for key")

// Cache stores one JSON file per key under a directory.
type Cache struct {
	mu  sync.Mutex
	dir string
}

// New creates the cache directory if needed and returns a Cache over it.
func New(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &Cache{dir: dir}, nil
}

// Put replaces the snapshot for key. The file is written to a temporary path
// and renamed so a crash mid-write never leaves a torn snapshot behind.
func (c *Cache) Put(key string, v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot %q: %w", key, err)
	}

	path := c.path(key)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write snapshot %q: %w", key, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to replace snapshot %q: %w", key, err)
	}
	return nil
}

// Get unmarshals the snapshot for key into v.
func (c *Cache) Get(key string, v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := os.ReadFile(c.path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %q", ErrMiss, key)
		}
		return fmt.Errorf("failed to read snapshot %q: %w", key, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to unmarshal snapshot %q: %w", key, err)
	}
	return nil
}

func (c *Cache) path(key string) string {
	return filepath.Join(c.dir, key+".json")
}
