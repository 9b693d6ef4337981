package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/shruti-bhere/ai-learning-platform/internal/cache"
	"github.com/shruti-bhere/ai-learning-platform/internal/database"
	"github.com/shruti-bhere/ai-learning-platform/internal/models"
	"github.com/shruti-bhere/ai-learning-platform/internal/streak"
)

// recentActivityDays is how much daily activity the stats page shows.
const recentActivityDays = 7

type ProfileStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateUsername(ctx context.Context, userID uuid.UUID, username string) error
	UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error
	CompletionCounts(ctx context.Context, userID uuid.UUID) (lessons int, topics int, err error)
	RecentActivity(ctx context.Context, userID uuid.UUID, since time.Time) ([]models.DailyActivity, error)
}

type UserService struct {
	users      ProfileStore
	cache      *cache.Cache
	ttl        time.Duration
	bcryptCost int
	now        func() time.Time
}

func NewUserService(users ProfileStore, c *cache.Cache, ttl time.Duration) *UserService {
	return &UserService{
		users:      users,
		cache:      c,
		ttl:        ttl,
		bcryptCost: defaultBcryptCost,
		now:        time.Now,
	}
}

func (s *UserService) Profile(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	var user models.User
	err := s.cache.Remember(ctx, cache.UserProfileKey(userID), s.ttl, &user, func(ctx context.Context) (any, error) {
		u, err := s.users.GetByID(ctx, userID)
		if err != nil {
			return nil, notFound(err, "User not found")
		}
		return u, nil
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, userID uuid.UUID, req models.UpdateProfileRequest) (*models.User, error) {
	err := s.users.UpdateUsername(ctx, userID, strings.TrimSpace(req.Username))
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, &ConflictError{Message: "Username already taken"}
		}
		return nil, notFound(err, "User not found")
	}

	// Usernames appear on the leaderboard too.
	s.cache.Delete(ctx, cache.UserProfileKey(userID))
	s.cache.DeletePrefix(ctx, cache.PrefixLeaderboard)

	return s.Profile(ctx, userID)
}

func (s *UserService) ChangePassword(ctx context.Context, userID uuid.UUID, req models.ChangePasswordRequest) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return notFound(err, "User not found")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		return &ValidationError{Fields: map[string]string{"current_password": "Current password is incorrect"}}
	}

	if req.CurrentPassword == req.NewPassword {
		return &ValidationError{Fields: map[string]string{"new_password": "New password must be different from the current one"}}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	return s.users.UpdatePassword(ctx, userID, string(hash))
}

func (s *UserService) Stats(ctx context.Context, userID uuid.UUID) (*models.UserStats, error) {
	user, err := s.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}

	lessons, topics, err := s.users.CompletionCounts(ctx, userID)
	if err != nil {
		return nil, err
	}

	since := streak.Day(s.now()).AddDate(0, 0, -(recentActivityDays - 1))
	activity, err := s.users.RecentActivity(ctx, userID, since)
	if err != nil {
		return nil, err
	}

	return &models.UserStats{
		TotalPoints:      user.TotalPoints,
		Currency:         user.Currency,
		CurrentStreak:    user.CurrentStreak,
		LongestStreak:    user.LongestStreak,
		LessonsCompleted: lessons,
		TopicsCompleted:  topics,
		RecentActivity:   activity,
	}, nil
}
