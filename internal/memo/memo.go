// Package memo provides per-key memoization of loaded datasets.
//
// Datasets are keyed by their canonical source path: the first request for a
// key constructs the value, every later request returns the same instance.
// A failed construction is never memoized, so a corrected file can be loaded
// on a later attempt. There is no eviction; entries live for the process
// lifetime, which is acceptable because the datasets are small and static.
package memo

import (
	"path/filepath"
	"sync"

	"github.com/rotisserie/eris"
)

// Cache memoizes one value per canonical key.
type Cache[T any] struct {
	mu      sync.Mutex
	entries map[string]T
}

// New creates an empty Cache.
func New[T any]() *Cache[T] {
	return &Cache[T]{entries: make(map[string]T)}
}

// CanonicalPath normalizes a file path so that equivalent spellings of the
// same path share one cache entry.
func CanonicalPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", eris.Wrapf(err, "memo: canonicalize %s", path)
	}
	return filepath.Clean(abs), nil
}

// GetOrCreate returns the memoized value for key, constructing it with build
// on first use. The lock is held across build, so concurrent requests for
// the same key never construct twice.
func (c *Cache[T]) GetOrCreate(key string, build func() (T, error)) (T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if v, ok := c.entries[key]; ok {
		return v, nil
	}

	v, err := build()
	if err != nil {
		var zero T
		return zero, err
	}

	c.entries[key] = v
	return v, nil
}

// Len reports the number of memoized entries.
func (c *Cache[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
