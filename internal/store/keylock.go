package store

import (
	"context"
	"sync"
)

// KeyLock is a set of mutexes addressed by string key. Waiting honours
// context cancellation, and idle keys are dropped so the set does not grow
// with every URL ever written.
type KeyLock struct {
	mu    sync.Mutex
	slots map[string]*slot
}

type slot struct {
	ch   chan struct{}
	refs int
}

func NewKeyLock() *KeyLock {
	return &KeyLock{slots: make(map[string]*slot)}
}

// Lock blocks until key is free or ctx is done. The returned function
// releases the key and may be called more than once.
func (l *KeyLock) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	s, ok := l.slots[key]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		l.slots[key] = s
	}
	s.refs++
	l.mu.Unlock()

	select {
	case s.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(key, s)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-s.ch
			l.release(key, s)
		})
	}, nil
}

func (l *KeyLock) release(key string, s *slot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s.refs--
	if s.refs == 0 {
		delete(l.slots, key)
	}
}

// size is the number of keys currently held or awaited.
func (l *KeyLock) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.slots)
}
