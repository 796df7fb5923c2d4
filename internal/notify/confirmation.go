// Package notify delivers booking confirmations over chat with at-most-once
// semantics per booking.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/example/room-booking/internal/calendar"
	"github.com/example/room-booking/internal/store"
)

const (
	// ledgerPropertyKey is where the durable sent-record lives in the
	// property store.
	ledgerPropertyKey = "booking_confirmation_ledger"

	cacheKeyPrefix = "booking_confirmation_"
	cacheSentValue = "1"
)

// Ledger records which bookings already received a confirmation. It is a
// two-tier structure: an in-memory TTL cache answers the common case and a
// JSON document in the durable property store survives restarts. Writes to
// the durable tier serialize through a bounded-wait lock; when the lock
// cannot be acquired the ledger reports "not sent", trading a possible
// duplicate for never losing a confirmation.
type Ledger struct {
	props       store.Properties
	cache       store.Cache
	lock        store.Locker
	lockTimeout time.Duration
	retention   time.Duration
	logger      *slog.Logger
	now         func() time.Time
}

// NewLedger wires the confirmation ledger. retention controls how long sent
// records are kept past the later of mark time and event start.
func NewLedger(props store.Properties, cache store.Cache, lock store.Locker, lockTimeout, retention time.Duration, logger *slog.Logger, now func() time.Time) *Ledger {
	if cache == nil {
		cache = store.NewTTLCache(1024, retention)
	}
	if lock == nil {
		lock = store.NewTimedMutex()
	}
	if logger == nil {
		logger = slog.Default()
	}
	if now == nil {
		now = time.Now
	}
	return &Ledger{
		props:       props,
		cache:       cache,
		lock:        lock,
		lockTimeout: lockTimeout,
		retention:   retention,
		logger:      logger,
		now:         now,
	}
}

// IsSent reports whether a confirmation for the event was already recorded.
// Every identity variant of the event id is checked so recurrence instance
// ids and bare ids converge on the same record.
func (l *Ledger) IsSent(ctx context.Context, eventID string) bool {
	variants := calendar.EventIDVariants(eventID)
	for _, variant := range variants {
		if _, ok := l.cache.Get(cacheKeyPrefix + variant); ok {
			return true
		}
	}

	if !l.lock.TryLock(l.lockTimeout) {
		l.logger.Warn("ledger lock timed out, treating booking as unsent", "event_id", eventID)
		return false
	}
	defer l.lock.Unlock()

	entries := l.loadLocked(ctx)
	now := l.now()
	if l.cleanupLocked(entries, now) > 0 {
		l.saveLocked(ctx, entries)
	}
	for _, variant := range variants {
		if _, ok := entries[variant]; ok {
			l.cache.Put(cacheKeyPrefix+variant, cacheSentValue)
			return true
		}
	}
	return false
}

// MarkSent records the confirmation for the event. The durable entry expires
// at the later of now and the event start, plus the retention window, so a
// record never lapses while its booking is still upcoming. A lock timeout
// drops only the durable write; the cache entry still suppresses duplicates
// within this process.
func (l *Ledger) MarkSent(ctx context.Context, eventID string, eventStart time.Time) {
	canonical := calendar.NormalizeEventID(eventID)
	l.cache.Put(cacheKeyPrefix+canonical, cacheSentValue)

	if !l.lock.TryLock(l.lockTimeout) {
		l.logger.Warn("ledger lock timed out, durable sent-record skipped", "event_id", eventID)
		return
	}
	defer l.lock.Unlock()

	now := l.now()
	anchor := now
	if eventStart.After(anchor) {
		anchor = eventStart
	}

	entries := l.loadLocked(ctx)
	l.cleanupLocked(entries, now)
	entries[canonical] = anchor.Add(l.retention)
	l.saveLocked(ctx, entries)
}

// loadLocked reads and decodes the ledger document. A corrupted document is
// reset to empty so one bad write cannot wedge delivery forever.
func (l *Ledger) loadLocked(ctx context.Context) map[string]time.Time {
	raw, err := l.props.GetProperty(ctx, ledgerPropertyKey)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			l.logger.Warn("ledger read failed", "error", err)
		}
		return make(map[string]time.Time)
	}

	var encoded map[string]string
	if err := json.Unmarshal([]byte(raw), &encoded); err != nil {
		l.logger.Warn("ledger document corrupted, resetting", "error", err)
		return make(map[string]time.Time)
	}

	entries := make(map[string]time.Time, len(encoded))
	for id, value := range encoded {
		expiry, err := time.Parse(time.RFC3339, value)
		if err != nil {
			continue
		}
		entries[id] = expiry
	}
	return entries
}

// cleanupLocked drops expired entries and reports how many were removed.
// Cleanup is lazy: it runs on accesses that already hold the lock.
func (l *Ledger) cleanupLocked(entries map[string]time.Time, now time.Time) int {
	removed := 0
	for id, expiry := range entries {
		if !expiry.After(now) {
			delete(entries, id)
			removed++
		}
	}
	return removed
}

func (l *Ledger) saveLocked(ctx context.Context, entries map[string]time.Time) {
	encoded := make(map[string]string, len(entries))
	for id, expiry := range entries {
		encoded[id] = expiry.UTC().Format(time.RFC3339)
	}
	raw, err := json.Marshal(encoded)
	if err != nil {
		l.logger.Warn("ledger encode failed", "error", err)
		return
	}
	if err := l.props.SetProperty(ctx, ledgerPropertyKey, string(raw)); err != nil {
		l.logger.Warn("ledger write failed", "error", err)
	}
}
