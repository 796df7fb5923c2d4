package store

import (
	"testing"
	"time"
)

func TestTTLCache(t *testing.T) {
	t.Run("stores and retrieves values", func(t *testing.T) {
		cache := NewTTLCache(4, time.Minute)

		cache.Put("key", "value")
		got, ok := cache.Get("key")
		if !ok || got != "value" {
			t.Fatalf("expected cached value, got %q ok=%v", got, ok)
		}
	})

	t.Run("misses unknown keys", func(t *testing.T) {
		cache := NewTTLCache(4, time.Minute)

		if _, ok := cache.Get("missing"); ok {
			t.Fatal("expected miss for unknown key")
		}
	})

	t.Run("overwrites existing entries", func(t *testing.T) {
		cache := NewTTLCache(4, time.Minute)

		cache.Put("key", "first")
		cache.Put("key", "second")
		if got, _ := cache.Get("key"); got != "second" {
			t.Fatalf("expected latest value, got %q", got)
		}
	})

	t.Run("evicts the oldest entry beyond capacity", func(t *testing.T) {
		cache := NewTTLCache(2, time.Minute)

		cache.Put("a", "1")
		cache.Put("b", "2")
		cache.Put("c", "3")

		if _, ok := cache.Get("a"); ok {
			t.Fatal("expected oldest entry to be evicted")
		}
		if _, ok := cache.Get("c"); !ok {
			t.Fatal("expected newest entry to remain")
		}
	})

	t.Run("entries expire", func(t *testing.T) {
		cache := NewTTLCache(4, 20*time.Millisecond)

		cache.Put("key", "value")
		time.Sleep(60 * time.Millisecond)

		if _, ok := cache.Get("key"); ok {
			t.Fatal("expected entry to expire")
		}
	})
}
