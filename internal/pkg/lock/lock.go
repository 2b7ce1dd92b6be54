// Package lock serializes work per key. Keys nobody holds or waits on are released.
package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

var ErrLockTimeout = errors.New("lock acquisition timeout")

type keyMutex struct {
	sem  chan struct{}
	refs int
}

type KeyLock struct {
	mu    sync.Mutex
	locks map[string]*keyMutex
}

func NewKeyLock() *KeyLock {
	return &KeyLock{
		locks: make(map[string]*keyMutex),
	}
}

func (that *KeyLock) acquire(key string) *keyMutex {
	that.mu.Lock()
	defer that.mu.Unlock()

	m, ok := that.locks[key]
	if !ok {
		m = &keyMutex{sem: make(chan struct{}, 1)}
		that.locks[key] = m
	}

	m.refs++

	return m
}

func (that *KeyLock) release(key string, m *keyMutex) {
	that.mu.Lock()
	defer that.mu.Unlock()

	m.refs--
	if m.refs == 0 {
		delete(that.locks, key)
	}
}

// Lock blocks until the key is free or ctx is done.
func (that *KeyLock) Lock(ctx context.Context, key string) error {
	m := that.acquire(key)

	select {
	case m.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		that.release(key, m)
		return fmt.Errorf("%w: %s: %w", ErrLockTimeout, key, ctx.Err())
	}
}

// Unlock releases a key taken with Lock. Unlocking a free key panics.
func (that *KeyLock) Unlock(key string) {
	that.mu.Lock()
	m, ok := that.locks[key]
	that.mu.Unlock()

	if !ok {
		panic("lock: unlock of unlocked key " + key)
	}

	select {
	case <-m.sem:
	default:
		panic("lock: unlock of unlocked key " + key)
	}

	that.release(key, m)
}

// WithLock runs fn while holding key.
func (that *KeyLock) WithLock(ctx context.Context, key string, fn func() error) error {
	if err := that.Lock(ctx, key); err != nil {
		return err
	}
	defer that.Unlock(key)

	return fn()
}

// WithLockTimeout is WithLock bounded by timeout.
func (that *KeyLock) WithLockTimeout(ctx context.Context, key string, timeout time.Duration, fn func() error) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	return that.WithLock(ctx, key, fn)
}

// Len is the number of keys currently held or waited on.
func (that *KeyLock) Len() int {
	that.mu.Lock()
	defer that.mu.Unlock()

	return len(that.locks)
}
