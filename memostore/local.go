package memostore

import (
	"context"
	"sync"
	"time"
)

type localEntry[V any] struct {
	e         Entry[V]
	updatedAt time.Time
}

// Local keeps memos in-process (default). Optional cleanup loop prunes
// entries untouched for longer than the retention window.
type Local[V any] struct {
	mu     sync.RWMutex
	memos  map[string]localEntry[V]
	ticker *time.Ticker
	stopCh chan struct{}
	wg     sync.WaitGroup
	once   sync.Once

	retention time.Duration
}

var _ Store[int] = (*Local[int])(nil)

func NewLocal[V any](cleanupInterval, retention time.Duration) *Local[V] {
	s := &Local[V]{
		memos:     make(map[string]localEntry[V]),
		retention: retention,
	}
	if cleanupInterval > 0 && retention > 0 {
		s.ticker = time.NewTicker(cleanupInterval)
		s.stopCh = make(chan struct{})
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			for {
				select {
				case <-s.ticker.C:
					s.cleanup(retention)
				case <-s.stopCh:
					return
				}
			}
		}()
	}
	return s
}

func (s *Local[V]) Get(_ context.Context, id string) (Entry[V], bool, error) {
	s.mu.RLock()
	le, ok := s.memos[id]
	s.mu.RUnlock()
	if !ok {
		return Entry[V]{}, false, nil
	}
	return le.e, true, nil
}

func (s *Local[V]) Set(_ context.Context, id string, e Entry[V], _ time.Duration) error {
	now := time.Now()
	s.mu.Lock()
	s.memos[id] = localEntry[V]{e: e, updatedAt: now}
	s.mu.Unlock()
	return nil
}

func (s *Local[V]) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	delete(s.memos, id)
	s.mu.Unlock()
	return nil
}

func (s *Local[V]) Clear(_ context.Context) error {
	s.mu.Lock()
	s.memos = make(map[string]localEntry[V])
	s.mu.Unlock()
	return nil
}

func (s *Local[V]) cleanup(retention time.Duration) {
	if retention <= 0 {
		return
	}
	cutoff := time.Now().Add(-retention)

	s.mu.Lock()
	for k, le := range s.memos {
		if le.updatedAt.Before(cutoff) {
			delete(s.memos, k)
		}
	}
	s.mu.Unlock()
}

func (s *Local[V]) Close(_ context.Context) error {
	s.once.Do(func() {
		if s.stopCh != nil {
			close(s.stopCh)
			if s.ticker != nil {
				s.ticker.Stop() // stop ticker before waiting
			}
			s.wg.Wait()
		}
	})
	return nil
}
