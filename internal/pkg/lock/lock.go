// Package lock serializes work per key. The simulation service keys it by
// session ID so two requests never drive the same session lanes at once.
package lock

import (
	"context"
	"sync"
	"time"
)

// entry is the mutex behind one key. holders counts current owners.
type entry struct {
	mu      sync.Mutex
	holders int
}

// KeyLock hands out one mutex per key. Entries are created on first use and
// dropped with Forget when the keyed resource goes away.
type KeyLock[K comparable] struct {
	entries sync.Map // map[K]*entry
	free    sync.Pool
}

// New creates an empty KeyLock.
func New[K comparable]() *KeyLock[K] {
	return &KeyLock[K]{
		free: sync.Pool{
			New: func() any { return &entry{} },
		},
	}
}

func (kl *KeyLock[K]) get(key K) *entry {
	if v, ok := kl.entries.Load(key); ok {
		return v.(*entry)
	}

	fresh := kl.free.Get().(*entry)
	fresh.holders = 0

	actual, loaded := kl.entries.LoadOrStore(key, fresh)
	if loaded {
		kl.free.Put(fresh)
	}
	return actual.(*entry)
}

// Lock blocks until key is free.
func (kl *KeyLock[K]) Lock(key K) {
	e := kl.get(key)
	e.mu.Lock()
	e.holders++
}

// Unlock releases key. Unlocking an unknown key is a no-op.
func (kl *KeyLock[K]) Unlock(key K) {
	if v, ok := kl.entries.Load(key); ok {
		e := v.(*entry)
		e.holders--
		e.mu.Unlock()
	}
}

// TryLock takes key only if nobody holds it.
func (kl *KeyLock[K]) TryLock(key K) bool {
	e := kl.get(key)
	if !e.mu.TryLock() {
		return false
	}
	e.holders++
	return true
}

// LockWithTimeout waits for key until timeout elapses or ctx is done and
// reports whether the lock was taken.
func (kl *KeyLock[K]) LockWithTimeout(ctx context.Context, key K, timeout time.Duration) bool {
	if ctx.Err() != nil {
		return false
	}
	e := kl.get(key)

	acquired := make(chan struct{})
	go func() {
		e.mu.Lock()
		close(acquired)
	}()

	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	select {
	case <-acquired:
		e.holders++
		return true
	case <-waitCtx.Done():
		// The pending Lock above still completes; release it as soon as it does.
		go func() {
			<-acquired
			e.mu.Unlock()
		}()
		return false
	}
}

// WithLock runs fn while holding key.
func (kl *KeyLock[K]) WithLock(key K, fn func() error) error {
	kl.Lock(key)
	defer kl.Unlock(key)
	return fn()
}

// WithLockContext runs fn while holding key. It returns ctx.Err() when ctx
// ends first and ErrLockTimeout when the wait limit passes.
func (kl *KeyLock[K]) WithLockContext(ctx context.Context, key K, timeout time.Duration, fn func() error) error {
	if !kl.LockWithTimeout(ctx, key, timeout) {
		if err := ctx.Err(); err != nil {
			return err
		}
		return ErrLockTimeout
	}
	defer kl.Unlock(key)

	if err := ctx.Err(); err != nil {
		return err
	}
	return fn()
}

// IsLocked reports whether key is held right now.
func (kl *KeyLock[K]) IsLocked(key K) bool {
	v, ok := kl.entries.Load(key)
	if !ok {
		return false
	}
	e := v.(*entry)
	if e.mu.TryLock() {
		e.mu.Unlock()
		return false
	}
	return true
}

// Forget drops the entry for key unless someone holds it.
func (kl *KeyLock[K]) Forget(key K) {
	v, ok := kl.entries.Load(key)
	if !ok {
		return
	}
	e := v.(*entry)
	if !e.mu.TryLock() {
		return
	}
	kl.entries.Delete(key)
	e.mu.Unlock()
}
