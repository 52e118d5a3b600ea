package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

const (
	testLimit  = 5
	testWindow = time.Minute
)

type MemoryStoreSuite struct {
	suite.Suite
	store *Store
	ctx   context.Context
	now   time.Time
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreSuite))
}

func (s *MemoryStoreSuite) SetupTest() {
	s.store = New()
	s.ctx = context.Background()
	s.now = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	s.store.SetClock(func() time.Time { return s.now })
}

func (s *MemoryStoreSuite) TestIncrement() {
	s.Run("first hit allowed", func() {
		result, err := s.store.Increment(s.ctx, "key:first", testLimit, testWindow)
		s.Require().NoError(err)
		s.True(result.Allowed)
		s.Equal(1, result.Count)
		s.Equal(testLimit-1, result.Remaining)
	})

	s.Run("hits over limit denied", func() {
		for range testLimit {
			_, err := s.store.Increment(s.ctx, "key:over", testLimit, testWindow)
			s.Require().NoError(err)
		}
		result, err := s.store.Increment(s.ctx, "key:over", testLimit, testWindow)
		s.Require().NoError(err)
		s.False(result.Allowed)
		s.Equal(0, result.Remaining)
	})

	s.Run("window resets atomically after expiry", func() {
		for range testLimit + 1 {
			_, err := s.store.Increment(s.ctx, "key:reset", testLimit, testWindow)
			s.Require().NoError(err)
		}

		s.now = s.now.Add(testWindow + time.Second)

		result, err := s.store.Increment(s.ctx, "key:reset", testLimit, testWindow)
		s.Require().NoError(err)
		s.True(result.Allowed)
		s.Equal(1, result.Count)
	})
}

func (s *MemoryStoreSuite) TestReset() {
	_, err := s.store.Increment(s.ctx, "key:clear", testLimit, testWindow)
	s.Require().NoError(err)

	s.Require().NoError(s.store.Reset(s.ctx, "key:clear"))

	result, err := s.store.Increment(s.ctx, "key:clear", testLimit, testWindow)
	s.Require().NoError(err)
	s.Equal(1, result.Count)
}

func (s *MemoryStoreSuite) TestSweep() {
	_, err := s.store.Increment(s.ctx, "key:stale", testLimit, testWindow)
	s.Require().NoError(err)
	_, err = s.store.Increment(s.ctx, "key:fresh", testLimit, 2*testWindow)
	s.Require().NoError(err)

	s.now = s.now.Add(testWindow + time.Second)

	removed, err := s.store.Sweep(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, removed)
	s.Equal(1, s.store.Len())
}
