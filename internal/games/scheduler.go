package games

import (
	"sync"
	"time"
)

// AfterFunc runs f after d and returns a function that cancels it.
type AfterFunc func(d time.Duration, f func()) (stop func())

func realAfterFunc(d time.Duration, f func()) func() {
	t := time.AfterFunc(d, f)
	return func() { t.Stop() }
}

// scheduler keeps at most one pending phase timer per game.
type scheduler struct {
	after AfterFunc

	mu      sync.Mutex
	pending map[string]func()
}

func newScheduler(after AfterFunc) *scheduler {
	if after == nil {
		after = realAfterFunc
	}
	return &scheduler{after: after, pending: make(map[string]func())}
}

func (s *scheduler) schedule(gameID string, d time.Duration, f func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if stop, ok := s.pending[gameID]; ok {
		stop()
	}
	s.pending[gameID] = s.after(d, f)
}

func (s *scheduler) cancel(gameID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if stop, ok := s.pending[gameID]; ok {
		stop()
		delete(s.pending, gameID)
	}
}

func (s *scheduler) stopAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, stop := range s.pending {
		stop()
		delete(s.pending, id)
	}
}
