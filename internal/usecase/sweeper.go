package usecase

import (
	"context"
	"log/slog"
	"time"

	"PolicyDigest/internal/ports"
)

// Sweeper wires the ticker driver with session expiry.
type Sweeper struct {
	driver   ports.Scheduler
	sessions ports.SessionStore
	cache    ports.ArticleCache
	ttl      time.Duration
	logger   *slog.Logger
}

// NewSweeper returns a helper to start/stop recurring expiry.
func NewSweeper(driver ports.Scheduler, sessions ports.SessionStore, cache ports.ArticleCache, ttl time.Duration, logger *slog.Logger) *Sweeper {
	return &Sweeper{driver: driver, sessions: sessions, cache: cache, ttl: ttl, logger: logger}
}

// Sweep drops sessions and payloads idle for longer than the TTL.
func (s *Sweeper) Sweep(ctx context.Context, now time.Time) (int, int, error) {
	olderThan := now.Add(-s.ttl)
	payloads := 0
	if s.cache != nil {
		payloads = s.cache.Sweep(olderThan)
	}
	if s.sessions == nil {
		return 0, payloads, nil
	}
	sessions, err := s.sessions.Sweep(ctx, olderThan)
	return sessions, payloads, err
}

// Start registers the sweep with the provided scheduler.
func (s *Sweeper) Start(ctx context.Context) error {
	if s.driver == nil || s.ttl <= 0 {
		return nil
	}

	job := func(trigger time.Time) {
		sessions, payloads, err := s.Sweep(ctx, trigger)
		if s.logger == nil {
			return
		}
		if err != nil {
			s.logger.Warn("session sweep failed", "error", err)
			return
		}
		if sessions > 0 || payloads > 0 {
			s.logger.Info("expired sessions swept", "sessions", sessions, "payloads", payloads)
		}
	}

	return s.driver.Start(ctx, job)
}

// Stop gracefully tears down the underlying scheduler.
func (s *Sweeper) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}
