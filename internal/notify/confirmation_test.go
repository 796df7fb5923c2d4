package notify

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/example/room-booking/internal/store"
	"github.com/example/room-booking/internal/testfixtures"
)

type propsStub struct {
	mu     sync.Mutex
	values map[string]string
	getErr error
	setErr error
}

func newPropsStub() *propsStub {
	return &propsStub{values: make(map[string]string)}
}

func (p *propsStub) GetProperty(ctx context.Context, key string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.getErr != nil {
		return "", p.getErr
	}
	value, ok := p.values[key]
	if !ok {
		return "", store.ErrNotFound
	}
	return value, nil
}

func (p *propsStub) SetProperty(ctx context.Context, key, value string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.setErr != nil {
		return p.setErr
	}
	p.values[key] = value
	return nil
}

func (p *propsStub) DeleteProperty(ctx context.Context, key string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.values, key)
	return nil
}

func (p *propsStub) get(key string) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	value, ok := p.values[key]
	return value, ok
}

// heldLock never grants the lock, simulating a contended durable tier.
type heldLock struct{}

func (heldLock) TryLock(time.Duration) bool { return false }
func (heldLock) Unlock()                    {}

func newTestLedger(props store.Properties, now func() time.Time) *Ledger {
	return NewLedger(props, nil, nil, time.Second, 6*time.Hour, nil, now)
}

func TestLedger_MarkAndCheck(t *testing.T) {
	ctx := context.Background()
	now := testfixtures.ReferenceTime()
	clock := testfixtures.NewClock(now)

	t.Run("marked bookings report sent under every id variant", func(t *testing.T) {
		ledger := newTestLedger(newPropsStub(), clock.NowFunc())

		if ledger.IsSent(ctx, "evt-1") {
			t.Fatal("expected unsent before marking")
		}
		ledger.MarkSent(ctx, "evt-1", now)

		if !ledger.IsSent(ctx, "evt-1") {
			t.Fatal("expected sent for the bare id")
		}
		if !ledger.IsSent(ctx, "evt-1@google.com") {
			t.Fatal("expected sent for the qualified id")
		}
	})

	t.Run("sent records survive a process restart", func(t *testing.T) {
		props := newPropsStub()
		newTestLedger(props, clock.NowFunc()).MarkSent(ctx, "evt-1", now)

		restarted := newTestLedger(props, clock.NowFunc())
		if !restarted.IsSent(ctx, "evt-1") {
			t.Fatal("expected durable record to answer after restart")
		}
	})

	t.Run("expiry anchors on the event start when it is later", func(t *testing.T) {
		props := newPropsStub()
		clock := testfixtures.NewClock(now)
		ledger := newTestLedger(props, clock.NowFunc())

		eventStart := now.Add(24 * time.Hour)
		ledger.MarkSent(ctx, "evt-future", eventStart)

		// Past mark-time retention but before the event has started: a fresh
		// ledger over the same store must still see the record.
		clock.Advance(12 * time.Hour)
		fresh := newTestLedger(props, clock.NowFunc())
		if !fresh.IsSent(ctx, "evt-future") {
			t.Fatal("expected record alive while the booking is upcoming")
		}

		clock.Advance(24 * time.Hour)
		expired := newTestLedger(props, clock.NowFunc())
		if expired.IsSent(ctx, "evt-future") {
			t.Fatal("expected record expired after start plus retention")
		}
	})

	t.Run("expired entries are dropped on the next write", func(t *testing.T) {
		props := newPropsStub()
		clock := testfixtures.NewClock(now)
		ledger := newTestLedger(props, clock.NowFunc())

		ledger.MarkSent(ctx, "evt-old", now)
		clock.Advance(7 * time.Hour)
		ledger.MarkSent(ctx, "evt-new", clock.Now())

		raw, ok := props.get("booking_confirmation_ledger")
		if !ok {
			t.Fatal("expected ledger document")
		}
		var entries map[string]string
		if err := json.Unmarshal([]byte(raw), &entries); err != nil {
			t.Fatalf("decode ledger: %v", err)
		}
		if _, ok := entries["evt-old@google.com"]; ok {
			t.Fatal("expected expired entry removed")
		}
		if _, ok := entries["evt-new@google.com"]; !ok {
			t.Fatal("expected fresh entry present")
		}
	})

	t.Run("expired entries are dropped on a durable read", func(t *testing.T) {
		props := newPropsStub()
		clock := testfixtures.NewClock(now)
		newTestLedger(props, clock.NowFunc()).MarkSent(ctx, "evt-old", now)

		clock.Advance(7 * time.Hour)
		fresh := newTestLedger(props, clock.NowFunc())
		if fresh.IsSent(ctx, "evt-old") {
			t.Fatal("expected record expired")
		}

		raw, ok := props.get("booking_confirmation_ledger")
		if !ok {
			t.Fatal("expected ledger document")
		}
		var entries map[string]string
		if err := json.Unmarshal([]byte(raw), &entries); err != nil {
			t.Fatalf("decode ledger: %v", err)
		}
		if _, ok := entries["evt-old@google.com"]; ok {
			t.Fatal("expected the expired entry persisted away on read")
		}
	})
}

func TestLedger_Degradation(t *testing.T) {
	ctx := context.Background()
	now := testfixtures.ReferenceTime()
	clock := testfixtures.NewClock(now)

	t.Run("corrupted documents reset instead of wedging", func(t *testing.T) {
		props := newPropsStub()
		props.values["booking_confirmation_ledger"] = "{not json"
		ledger := newTestLedger(props, clock.NowFunc())

		if ledger.IsSent(ctx, "evt-1") {
			t.Fatal("expected unsent with a corrupted document")
		}

		ledger.MarkSent(ctx, "evt-1", now)
		raw, _ := props.get("booking_confirmation_ledger")
		if !strings.HasPrefix(raw, "{") || strings.Contains(raw, "not json") {
			t.Fatalf("expected document rewritten, got %q", raw)
		}
		if !ledger.IsSent(ctx, "evt-1") {
			t.Fatal("expected sent after the reset write")
		}
	})

	t.Run("lock timeout degrades to unsent", func(t *testing.T) {
		props := newPropsStub()
		newTestLedger(props, clock.NowFunc()).MarkSent(ctx, "evt-1", now)

		contended := NewLedger(props, nil, heldLock{}, 10*time.Millisecond, 6*time.Hour, nil, clock.NowFunc())
		if contended.IsSent(ctx, "evt-1") {
			t.Fatal("expected unsent when the durable tier is unreachable")
		}
	})

	t.Run("lock timeout on mark still suppresses in-process duplicates", func(t *testing.T) {
		props := newPropsStub()
		contended := NewLedger(props, nil, heldLock{}, 10*time.Millisecond, 6*time.Hour, nil, clock.NowFunc())

		contended.MarkSent(ctx, "evt-1", now)
		if _, ok := props.get("booking_confirmation_ledger"); ok {
			t.Fatal("expected no durable write without the lock")
		}
		if !contended.IsSent(ctx, "evt-1") {
			t.Fatal("expected the cache to answer within the process")
		}
	})
}

func TestLedger_Concurrency(t *testing.T) {
	ctx := context.Background()
	now := testfixtures.ReferenceTime()
	ledger := newTestLedger(newPropsStub(), testfixtures.NewClock(now).NowFunc())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ledger.MarkSent(ctx, "evt-1", now)
			_ = ledger.IsSent(ctx, "evt-1")
		}()
	}
	wg.Wait()

	if !ledger.IsSent(ctx, "evt-1") {
		t.Fatal("expected sent after concurrent marking")
	}
}
