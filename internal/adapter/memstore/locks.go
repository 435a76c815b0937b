package memstore

import (
	"context"
	"sync"
	"time"

	"marketfund/internal/domain"
)

// keyLocks hands out one exclusive lock per key. A lock is a buffered channel
// of capacity one so acquisition can race a timer and the context.
//
// A slot lives only while someone holds or waits for it; refs counts both and
// the slot is dropped when it reaches zero.
type keyLocks struct {
	mu    sync.Mutex
	slots map[string]*lockSlot
}

type lockSlot struct {
	ch   chan struct{}
	refs int
}

func newKeyLocks() *keyLocks {
	return &keyLocks{slots: make(map[string]*lockSlot)}
}

func (k *keyLocks) ref(key string) *lockSlot {
	k.mu.Lock()
	defer k.mu.Unlock()
	s, ok := k.slots[key]
	if !ok {
		s = &lockSlot{ch: make(chan struct{}, 1)}
		k.slots[key] = s
	}
	s.refs++
	return s
}

func (k *keyLocks) unref(key string, s *lockSlot) {
	k.mu.Lock()
	defer k.mu.Unlock()
	s.refs--
	if s.refs == 0 {
		delete(k.slots, key)
	}
}

func (k *keyLocks) acquire(ctx context.Context, key string, timeout time.Duration) error {
	s := k.ref(key)
	select {
	case s.ch <- struct{}{}:
		return nil
	default:
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case s.ch <- struct{}{}:
		return nil
	case <-timer.C:
		k.unref(key, s)
		return domain.ErrLockTimeout
	case <-ctx.Done():
		k.unref(key, s)
		return ctx.Err()
	}
}

// release must follow a successful acquire of the same key.
func (k *keyLocks) release(key string) {
	k.mu.Lock()
	s := k.slots[key]
	k.mu.Unlock()
	<-s.ch
	k.unref(key, s)
}

// size reports how many keys currently have a holder or a waiter.
func (k *keyLocks) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.slots)
}

func productKey(id string) string  { return "product:" + id }
func campaignKey(id string) string { return "campaign:" + id }

const outboxKey = "outbox"
