package services

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shruti-bhere/ai-learning-platform/internal/cache"
	"github.com/shruti-bhere/ai-learning-platform/internal/streak"
)

const (
	streakResetLastRunKey   = "maintenance:streak_reset_last_run"
	sessionSweepLastRunKey  = "maintenance:session_sweep_last_run"
	streakResetInterval     = 1 * time.Hour
	sessionSweepInterval    = 1 * time.Hour
	maintenancePollInterval = 10 * time.Minute
	staleSessionAge         = 12 * time.Hour
)

type StreakResetter interface {
	ResetBrokenStreaks(ctx context.Context, yesterday time.Time) (int64, error)
}

type SessionSweeper interface {
	CloseStale(ctx context.Context, cutoff time.Time) (int64, error)
}

// MaintenanceScheduler zeroes broken streaks and closes abandoned sessions.
// Last-run timestamps live in Redis so several instances do not repeat the
// same sweep.
type MaintenanceScheduler struct {
	users    StreakResetter
	sessions SessionSweeper
	redis    *redis.Client
	cache    *cache.Cache
	stopChan chan struct{}
}

func NewMaintenanceScheduler(users StreakResetter, sessions SessionSweeper, redisClient *redis.Client, c *cache.Cache) *MaintenanceScheduler {
	return &MaintenanceScheduler{
		users:    users,
		sessions: sessions,
		redis:    redisClient,
		cache:    c,
		stopChan: make(chan struct{}),
	}
}

func (s *MaintenanceScheduler) Start() {
	if s.users == nil || s.sessions == nil {
		return
	}

	go s.loop(func(ctx context.Context, now time.Time) {
		s.resetBrokenStreaks(ctx, now)
	})
	go s.loop(func(ctx context.Context, now time.Time) {
		s.closeStaleSessions(ctx, now)
	})

	log.Printf("Maintenance scheduler started")
}

func (s *MaintenanceScheduler) Stop() {
	select {
	case <-s.stopChan:
		return
	default:
		close(s.stopChan)
	}
}

func (s *MaintenanceScheduler) loop(runFn func(ctx context.Context, now time.Time)) {
	// Run on startup as well as by interval.
	runFn(context.Background(), time.Now().UTC())

	ticker := time.NewTicker(maintenancePollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			runFn(context.Background(), time.Now().UTC())
		}
	}
}

func (s *MaintenanceScheduler) resetBrokenStreaks(ctx context.Context, now time.Time) {
	if !s.due(ctx, streakResetLastRunKey, streakResetInterval, now) {
		return
	}

	yesterday := streak.Day(now).AddDate(0, 0, -1)
	n, err := s.users.ResetBrokenStreaks(ctx, yesterday)
	if err != nil {
		log.Printf("streak reset: failed: %v", err)
		return
	}
	if n > 0 {
		log.Printf("streak reset: cleared %d broken streaks", n)
		s.cache.DeletePrefix(ctx, cache.PrefixLeaderboard)
		s.cache.DeletePrefix(ctx, cache.PrefixUserProfile)
		s.cache.Delete(ctx, cache.KeyAdminDashboard)
	}
	s.markRun(ctx, streakResetLastRunKey, now)
}

func (s *MaintenanceScheduler) closeStaleSessions(ctx context.Context, now time.Time) {
	if !s.due(ctx, sessionSweepLastRunKey, sessionSweepInterval, now) {
		return
	}

	n, err := s.sessions.CloseStale(ctx, now.Add(-staleSessionAge))
	if err != nil {
		log.Printf("session sweep: failed: %v", err)
		return
	}
	if n > 0 {
		log.Printf("session sweep: closed %d stale sessions", n)
		s.cache.Delete(ctx, cache.KeyAdminDashboard)
	}
	s.markRun(ctx, sessionSweepLastRunKey, now)
}

// due reads the last run from Redis. An unreachable Redis means the sweep
// runs anyway; both sweeps are idempotent.
func (s *MaintenanceScheduler) due(ctx context.Context, key string, interval time.Duration, now time.Time) bool {
	if s.redis == nil {
		return true
	}
	raw, err := s.redis.Get(ctx, key).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		log.Printf("maintenance: failed to read %s: %v", key, err)
		return true
	}
	return shouldRunByLastRun(raw, interval, now)
}

func (s *MaintenanceScheduler) markRun(ctx context.Context, key string, now time.Time) {
	if s.redis == nil {
		return
	}
	if err := s.redis.Set(ctx, key, now.Format(time.RFC3339), 0).Err(); err != nil {
		log.Printf("maintenance: failed to persist %s: %v", key, err)
	}
}

func shouldRunByLastRun(lastRunRaw string, minInterval time.Duration, now time.Time) bool {
	if lastRunRaw == "" {
		return true
	}

	lastRunAt, err := time.Parse(time.RFC3339, lastRunRaw)
	if err != nil {
		return true
	}

	return now.Sub(lastRunAt) >= minInterval
}
