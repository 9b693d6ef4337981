package services

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/shruti-bhere/ai-learning-platform/internal/cache"
	"github.com/shruti-bhere/ai-learning-platform/internal/models"
	"github.com/shruti-bhere/ai-learning-platform/internal/streak"
)

const (
	dashboardTTL        = 60 * time.Second
	defaultActivityDays = 30
	maxActivityDays     = 365
	defaultPageSize     = 20
	maxPageSize         = 100
)

type AdminStore interface {
	UserCounts(ctx context.Context, since time.Time, stats *models.DashboardStats) error
	ContentCounts(ctx context.Context, stats *models.DashboardStats) error
	CompletionCounts(ctx context.Context, stats *models.DashboardStats) error
	ActivityTotals(ctx context.Context, since time.Time) ([]models.ActivityTotal, error)
}

type AdminUserStore interface {
	List(ctx context.Context, search string, limit, offset int) ([]models.User, int, error)
	SetAdmin(ctx context.Context, userID uuid.UUID, isAdmin bool) error
}

type SessionReporter interface {
	CountActive(ctx context.Context) (int, error)
	Recent(ctx context.Context, limit int) ([]models.SessionReport, error)
}

// PresenceCounter reports how many users currently hold a live connection.
type PresenceCounter interface {
	ActiveCount(ctx context.Context) (int64, error)
}

type UserPage struct {
	Users  []models.User `json:"users"`
	Total  int           `json:"total"`
	Limit  int           `json:"limit"`
	Offset int           `json:"offset"`
}

type AdminService struct {
	stats    AdminStore
	users    AdminUserStore
	sessions SessionReporter
	presence PresenceCounter
	cache    *cache.Cache
	now      func() time.Time
}

func NewAdminService(stats AdminStore, users AdminUserStore, sessions SessionReporter, presence PresenceCounter, c *cache.Cache) *AdminService {
	return &AdminService{
		stats:    stats,
		users:    users,
		sessions: sessions,
		presence: presence,
		cache:    c,
		now:      time.Now,
	}
}

// Dashboard collects the platform totals. The aggregate queries run
// concurrently and the result is cached briefly.
func (s *AdminService) Dashboard(ctx context.Context) (*models.DashboardStats, error) {
	var stats models.DashboardStats
	err := s.cache.Remember(ctx, cache.KeyAdminDashboard, dashboardTTL, &stats, func(ctx context.Context) (any, error) {
		return s.loadDashboard(ctx)
	})
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

func (s *AdminService) loadDashboard(ctx context.Context) (*models.DashboardStats, error) {
	now := s.now().UTC()
	stats := &models.DashboardStats{GeneratedAt: now}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.stats.UserCounts(gctx, now.AddDate(0, 0, -7), stats)
	})
	g.Go(func() error {
		return s.stats.ContentCounts(gctx, stats)
	})
	g.Go(func() error {
		return s.stats.CompletionCounts(gctx, stats)
	})
	g.Go(func() error {
		n, err := s.sessions.CountActive(gctx)
		stats.ActiveSessions = n
		return err
	})
	g.Go(func() error {
		if s.presence == nil {
			return nil
		}
		n, err := s.presence.ActiveCount(gctx)
		if err != nil {
			log.Printf("admin dashboard: presence count unavailable: %v", err)
			return nil
		}
		stats.ActiveUsersNow = n
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return stats, nil
}

func (s *AdminService) ListUsers(ctx context.Context, search string, limit, offset int) (*UserPage, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}

	users, total, err := s.users.List(ctx, search, limit, offset)
	if err != nil {
		return nil, err
	}
	return &UserPage{Users: users, Total: total, Limit: limit, Offset: offset}, nil
}

// SetAdmin promotes or demotes a user. Admins cannot demote themselves.
func (s *AdminService) SetAdmin(ctx context.Context, actorID, userID uuid.UUID, isAdmin bool) error {
	if !isAdmin && actorID == userID {
		return &ForbiddenError{Message: "You cannot remove your own admin access"}
	}

	if err := s.users.SetAdmin(ctx, userID, isAdmin); err != nil {
		return notFound(err, "User not found")
	}

	s.cache.Delete(ctx, cache.UserProfileKey(userID), cache.KeyAdminDashboard)
	return nil
}

func (s *AdminService) Sessions(ctx context.Context, limit int) ([]models.SessionReport, error) {
	if limit <= 0 {
		limit = defaultPageSize * 5
	}
	if limit > maxPageSize*5 {
		limit = maxPageSize * 5
	}
	return s.sessions.Recent(ctx, limit)
}

func (s *AdminService) Activity(ctx context.Context, days int) ([]models.ActivityTotal, error) {
	if days <= 0 {
		days = defaultActivityDays
	}
	if days > maxActivityDays {
		days = maxActivityDays
	}

	since := streak.Day(s.now()).AddDate(0, 0, -(days - 1))
	return s.stats.ActivityTotals(ctx, since)
}
