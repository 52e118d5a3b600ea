package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"aegis/internal/ratelimit/store/memory"
)

type ServiceSuite struct {
	suite.Suite
	svc *Service
	ctx context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	svc, err := New(memory.New(), WithLimit(10, time.Minute))
	s.Require().NoError(err)
	s.svc = svc
	s.ctx = context.Background()
}

func (s *ServiceSuite) TestCheckWithinLimit() {
	for range 10 {
		result, err := s.svc.Check(s.ctx, "caller:a")
		s.Require().NoError(err)
		s.True(result.Allowed)
	}
}

func (s *ServiceSuite) TestCheckOverLimit() {
	for range 10 {
		_, err := s.svc.Check(s.ctx, "caller:b")
		s.Require().NoError(err)
	}
	result, err := s.svc.Check(s.ctx, "caller:b")
	s.Require().NoError(err)
	s.False(result.Allowed)
}

func (s *ServiceSuite) TestCheckNIndependentKeys() {
	result, err := s.svc.CheckN(s.ctx, "cmd:export", 1, time.Minute)
	s.Require().NoError(err)
	s.True(result.Allowed)

	result, err = s.svc.CheckN(s.ctx, "cmd:export", 1, time.Minute)
	s.Require().NoError(err)
	s.False(result.Allowed)

	// A different key keeps its own window.
	result, err = s.svc.CheckN(s.ctx, "cmd:render", 1, time.Minute)
	s.Require().NoError(err)
	s.True(result.Allowed)
}

func TestNewRequiresStore(t *testing.T) {
	_, err := New(nil)
	require.Error(t, err)
}
