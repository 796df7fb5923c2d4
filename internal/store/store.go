// Package store defines the key-value collaborators backing cross-request
// state: a durable property store, a short-TTL cache, and a bounded-wait
// mutual-exclusion lock.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when the requested property does not exist.
var ErrNotFound = errors.New("store: not found")

// Properties is the durable string store. Values survive process restarts;
// callers own serialization.
type Properties interface {
	GetProperty(ctx context.Context, key string) (string, error)
	SetProperty(ctx context.Context, key, value string) error
	DeleteProperty(ctx context.Context, key string) error
}

// Cache is the ephemeral tier. Entries expire on a per-cache TTL and may be
// evicted at any time; correctness never depends on a cache hit.
type Cache interface {
	Get(key string) (string, bool)
	Put(key, value string)
}

// Locker serializes read-modify-write cycles over shared durable state.
// TryLock waits at most the supplied timeout and reports whether the lock
// was acquired; callers that fail to acquire degrade rather than block.
type Locker interface {
	TryLock(timeout time.Duration) bool
	Unlock()
}
