package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/shruti-bhere/ai-learning-platform/internal/cache"
	"github.com/shruti-bhere/ai-learning-platform/internal/models"
	"github.com/shruti-bhere/ai-learning-platform/internal/streak"
)

const (
	DefaultLeaderboardLimit = 50
	MaxLeaderboardLimit     = 100
)

type LeaderboardStore interface {
	Top(ctx context.Context, since *time.Time, limit int) ([]models.LeaderboardEntry, error)
	RankOf(ctx context.Context, userID uuid.UUID, since *time.Time) (*models.UserRank, error)
}

type LeaderboardService struct {
	store LeaderboardStore
	cache *cache.Cache
	ttl   time.Duration
	now   func() time.Time
}

func NewLeaderboardService(store LeaderboardStore, c *cache.Cache, ttl time.Duration) *LeaderboardService {
	return &LeaderboardService{store: store, cache: c, ttl: ttl, now: time.Now}
}

// periodStart returns the first day counted by period, or nil for all time.
// Weekly covers today and the six days before it, monthly the last 30 days.
func (s *LeaderboardService) periodStart(period string) (*time.Time, error) {
	today := streak.Day(s.now())

	var since time.Time
	switch period {
	case "", models.PeriodAll:
		return nil, nil
	case models.PeriodWeekly:
		since = today.AddDate(0, 0, -6)
	case models.PeriodMonthly:
		since = today.AddDate(0, 0, -29)
	default:
		return nil, &ValidationError{Fields: map[string]string{"period": "period must be one of all, weekly, monthly"}}
	}
	return &since, nil
}

func normalizePeriod(period string) string {
	if period == "" {
		return models.PeriodAll
	}
	return period
}

// NormalizeLimit applies the default and the upper bound to a requested size.
func NormalizeLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLeaderboardLimit
	case limit > MaxLeaderboardLimit:
		return MaxLeaderboardLimit
	default:
		return limit
	}
}

func (s *LeaderboardService) Top(ctx context.Context, period string, limit int) ([]models.LeaderboardEntry, error) {
	since, err := s.periodStart(period)
	if err != nil {
		return nil, err
	}
	period = normalizePeriod(period)
	limit = NormalizeLimit(limit)

	var entries []models.LeaderboardEntry
	err = s.cache.Remember(ctx, cache.LeaderboardKey(period, limit), s.ttl, &entries, func(ctx context.Context) (any, error) {
		return s.store.Top(ctx, since, limit)
	})
	return entries, err
}

func (s *LeaderboardService) RankOf(ctx context.Context, userID uuid.UUID, period string) (*models.UserRank, error) {
	since, err := s.periodStart(period)
	if err != nil {
		return nil, err
	}

	rank, err := s.store.RankOf(ctx, userID, since)
	if err != nil {
		return nil, notFound(err, "User not found")
	}
	rank.Period = normalizePeriod(period)
	return rank, nil
}
