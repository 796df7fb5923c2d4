package store

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// ttlCache adapts an expirable LRU to the Cache interface.
type ttlCache struct {
	lru *expirable.LRU[string, string]
}

// NewTTLCache returns a size-bounded cache whose entries expire after ttl.
func NewTTLCache(size int, ttl time.Duration) Cache {
	if size <= 0 {
		size = 256
	}
	return &ttlCache{lru: expirable.NewLRU[string, string](size, nil, ttl)}
}

func (c *ttlCache) Get(key string) (string, bool) {
	return c.lru.Get(key)
}

func (c *ttlCache) Put(key, value string) {
	c.lru.Add(key, value)
}
