package indicator

import (
	"crypto/md5"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// fileCache is a file-based TTL cache for fetched report tables. Report data
// only changes when a new quarterly report lands, so the TTL is long (weeks).
// Expired entries stay on disk so callers can fall back to stale data when
// the provider is unreachable.
type fileCache struct {
	dir string
	ttl time.Duration
	mu  sync.RWMutex
}

type cacheEntry struct {
	Key       string    `json:"key"`
	Data      []byte    `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

func newFileCache(dir string, ttl time.Duration) *fileCache {
	if dir == "" {
		dir = "data_cache"
	}
	os.MkdirAll(dir, 0755)
	return &fileCache{dir: dir, ttl: ttl}
}

// get returns the cached bytes if the entry exists and is fresh.
func (c *fileCache) get(key string) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	path := c.filePath(key)
	info, err := os.Stat(path)
	if err != nil {
		return nil, false
	}
	if time.Since(info.ModTime()) > c.ttl {
		return nil, false
	}
	return c.read(path)
}

// getStale returns the cached bytes regardless of age.
func (c *fileCache) getStale(key string) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.read(c.filePath(key))
}

func (c *fileCache) read(path string) ([]byte, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	var entry cacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, false
	}
	return entry.Data, true
}

func (c *fileCache) set(key string, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry := cacheEntry{Key: key, Data: data, Timestamp: time.Now()}
	entryData, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return os.WriteFile(c.filePath(key), entryData, 0644)
}

func (c *fileCache) delete(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	err := os.Remove(c.filePath(key))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func (c *fileCache) filePath(key string) string {
	hash := md5.Sum([]byte(key))
	return filepath.Join(c.dir, fmt.Sprintf("%x.json", hash))
}
