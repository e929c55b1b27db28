package driver

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/vmihailenco/msgpack/v5"
)

// Cache remembers the verdicts of jobs by content hash.
type Cache interface {
	Lookup(hash string) (interesting, ok bool)
	Store(hash string, interesting bool)
}

// MemoryCache is a Cache that lives for one run.
type MemoryCache struct {
	mu       sync.RWMutex
	verdicts map[string]bool
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{verdicts: map[string]bool{}}
}

func (c *MemoryCache) Lookup(hash string) (bool, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.verdicts[hash]
	return v, ok
}

func (c *MemoryCache) Store(hash string, interesting bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.verdicts[hash] = interesting
}

// Len returns the number of remembered verdicts.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.verdicts)
}

// Current schema version - increment when the payload format changes.
const cacheSchemaVersion uint16 = 1

// cachePayload is the on-disk form of a FileCache.
type cachePayload struct {
	Schema   uint16
	Verdicts map[string]bool
}

// FileCache is a MemoryCache persisted with msgpack, so that a reduction
// resumed with the same judge skips candidates it has already judged.
type FileCache struct {
	*MemoryCache
	path string
}

// OpenFileCache loads the cache at path. A missing file, or one written
// with another schema, gives an empty cache.
func OpenFileCache(path string) (*FileCache, error) {
	c := &FileCache{MemoryCache: NewMemoryCache(), path: path}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return c, nil
		}
		return nil, err
	}
	defer f.Close()

	var payload cachePayload
	if err := msgpack.NewDecoder(f).Decode(&payload); err != nil {
		return nil, fmt.Errorf("reading verdict cache %s: %w", path, err)
	}
	if payload.Schema == cacheSchemaVersion {
		for h, v := range payload.Verdicts {
			c.verdicts[h] = v
		}
	}
	return c, nil
}

// Save writes the cache back to its file.
func (c *FileCache) Save() error {
	if c == nil {
		return nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, "tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(f.Name())

	payload := cachePayload{Schema: cacheSchemaVersion, Verdicts: c.verdicts}
	if err := msgpack.NewEncoder(f).Encode(&payload); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), c.path)
}
