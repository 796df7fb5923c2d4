package store

import "time"

// timedMutex is a mutex whose acquisition can time out. Overlapping
// invocations within one process serialize here; across processes the
// durable store's write semantics are the only arbiter.
type timedMutex struct {
	ch chan struct{}
}

// NewTimedMutex returns an unlocked bounded-wait lock.
func NewTimedMutex() Locker {
	m := &timedMutex{ch: make(chan struct{}, 1)}
	m.ch <- struct{}{}
	return m
}

func (m *timedMutex) TryLock(timeout time.Duration) bool {
	if timeout <= 0 {
		select {
		case <-m.ch:
			return true
		default:
			return false
		}
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-m.ch:
		return true
	case <-timer.C:
		return false
	}
}

func (m *timedMutex) Unlock() {
	select {
	case m.ch <- struct{}{}:
	default:
		panic("store: unlock of unlocked timedMutex")
	}
}
