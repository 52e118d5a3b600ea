package memory

import (
	"context"
	"sync"
	"time"

	"aegis/internal/ratelimit/models"
)

// Store implements fixed-window rate limiting in process memory. Counters are
// swept by the owning service so expired windows do not accumulate.
type Store struct {
	mu      sync.Mutex
	entries map[string]*models.Entry
	now     func() time.Time
}

// New creates an in-memory fixed-window store.
func New() *Store {
	return &Store{
		entries: make(map[string]*models.Entry),
		now:     time.Now,
	}
}

// Increment adds one hit for key in the current window, resetting the window
// first if it has elapsed.
func (s *Store) Increment(_ context.Context, key string, limit int, window time.Duration) (*models.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	entry := s.entries[key]
	if entry == nil || now.After(entry.ResetAt) {
		entry = &models.Entry{ResetAt: now.Add(window)}
		s.entries[key] = entry
	}
	entry.Count++

	remaining := limit - entry.Count
	if remaining < 0 {
		remaining = 0
	}
	return &models.Result{
		Allowed:   entry.Count <= limit,
		Count:     entry.Count,
		Limit:     limit,
		Remaining: remaining,
		ResetAt:   entry.ResetAt,
	}, nil
}

// Reset clears the counter for a key.
func (s *Store) Reset(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

// Sweep removes entries whose window has fully elapsed. Called on a timer off
// the request path.
func (s *Store) Sweep(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for key, entry := range s.entries {
		if now.After(entry.ResetAt) {
			delete(s.entries, key)
			removed++
		}
	}
	return removed, nil
}

// Len returns the number of tracked keys; used by tests and metrics.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// SetClock overrides the time source for tests.
func (s *Store) SetClock(now func() time.Time) { s.now = now }
