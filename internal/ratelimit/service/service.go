// Package service exposes fixed-window rate limiting over pluggable stores.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"aegis/internal/ratelimit/models"
)

// Store abstracts the counter backend (in-memory or Redis).
type Store interface {
	Increment(ctx context.Context, key string, limit int, window time.Duration) (*models.Result, error)
	Reset(ctx context.Context, key string) error
	Sweep(ctx context.Context) (int, error)
}

// Service applies fixed-window limits and owns the background sweep so
// cleanup never costs request latency.
type Service struct {
	store  Store
	limit  int
	window time.Duration
	logger *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithLimit overrides the default window limit.
func WithLimit(limit int, window time.Duration) Option {
	return func(s *Service) {
		s.limit = limit
		s.window = window
	}
}

// New constructs a rate limit service around the given store.
func New(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	svc := &Service{
		store:  store,
		limit:  100,
		window: time.Minute,
	}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.logger == nil {
		svc.logger = slog.New(slog.DiscardHandler)
	}
	return svc, nil
}

// Check records one hit for key and reports whether it stays within the
// window limit.
func (s *Service) Check(ctx context.Context, key string) (*models.Result, error) {
	return s.CheckN(ctx, key, s.limit, s.window)
}

// CheckN records one hit against an explicit limit and window, for callers
// carrying per-command limits.
func (s *Service) CheckN(ctx context.Context, key string, limit int, window time.Duration) (*models.Result, error) {
	result, err := s.store.Increment(ctx, key, limit, window)
	if err != nil {
		return nil, fmt.Errorf("failed to check rate limit: %w", err)
	}
	if !result.Allowed {
		s.logger.WarnContext(ctx, "rate limit exceeded",
			"key", key,
			"count", result.Count,
			"limit", result.Limit,
		)
	}
	return result, nil
}

// Reset clears the counter for a key, used when mitigations release a subject.
func (s *Service) Reset(ctx context.Context, key string) error {
	return s.store.Reset(ctx, key)
}

// RunSweeper evicts expired windows on an interval until ctx is done.
func (s *Service) RunSweeper(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			removed, err := s.store.Sweep(ctx)
			if err != nil {
				s.logger.ErrorContext(ctx, "rate limit sweep failed", "error", err)
				continue
			}
			if removed > 0 {
				s.logger.DebugContext(ctx, "rate limit sweep", "removed", removed)
			}
		}
	}
}
