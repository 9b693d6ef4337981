package services

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"

	"github.com/shruti-bhere/ai-learning-platform/internal/cache"
	"github.com/shruti-bhere/ai-learning-platform/internal/models"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func newTestCache(t *testing.T) (*miniredis.Miniredis, *cache.Cache) {
	t.Helper()
	mr, client := newTestRedis(t)
	return mr, cache.New(client)
}

func fixedNow(ts time.Time) func() time.Time {
	return func() time.Time { return ts }
}

// fakeUsers is an in-memory user table.
type fakeUsers struct {
	mu        sync.Mutex
	byID      map[uuid.UUID]*models.User
	createErr error
	getCalls  int
}

func newFakeUsers(users ...*models.User) *fakeUsers {
	f := &fakeUsers{byID: map[uuid.UUID]*models.User{}}
	for _, u := range users {
		f.byID[u.ID] = u
	}
	return f
}

func (f *fakeUsers) Create(_ context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	user.ID = uuid.New()
	user.CreatedAt = time.Now()
	cp := *user
	f.byID[user.ID] = &cp
	return nil
}

func (f *fakeUsers) Exists(_ context.Context, email, username string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if strings.EqualFold(u.Email, email) || strings.EqualFold(u.Username, username) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeUsers) find(match func(*models.User) bool) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls++
	for _, u := range f.byID {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	return f.find(func(u *models.User) bool { return strings.EqualFold(u.Email, email) })
}

func (f *fakeUsers) GetByUsername(_ context.Context, username string) (*models.User, error) {
	return f.find(func(u *models.User) bool { return strings.EqualFold(u.Username, username) })
}

func (f *fakeUsers) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	return f.find(func(u *models.User) bool { return u.ID == id })
}

func (f *fakeUsers) UpdateLastLogin(context.Context, uuid.UUID) error { return nil }

func (f *fakeUsers) UpdateUsername(_ context.Context, userID uuid.UUID, username string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, u := range f.byID {
		if id != userID && strings.EqualFold(u.Username, username) {
			return &pgconn.PgError{Code: "23505", ConstraintName: "users_username_key"}
		}
	}
	u, ok := f.byID[userID]
	if !ok {
		return pgx.ErrNoRows
	}
	u.Username = username
	return nil
}

func (f *fakeUsers) UpdatePassword(_ context.Context, userID uuid.UUID, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[userID]
	if !ok {
		return pgx.ErrNoRows
	}
	u.PasswordHash = hash
	return nil
}

func (f *fakeUsers) CompletionCounts(context.Context, uuid.UUID) (int, int, error) {
	return 3, 7, nil
}

func (f *fakeUsers) RecentActivity(_ context.Context, _ uuid.UUID, since time.Time) ([]models.DailyActivity, error) {
	return []models.DailyActivity{{Date: since, PointsEarned: 10, LessonsCompleted: 1}}, nil
}

func (f *fakeUsers) List(_ context.Context, search string, limit, offset int) ([]models.User, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.User
	for _, u := range f.byID {
		if strings.Contains(strings.ToLower(u.Username), strings.ToLower(search)) {
			out = append(out, *u)
		}
	}
	return out, len(out), nil
}

func (f *fakeUsers) SetAdmin(_ context.Context, userID uuid.UUID, isAdmin bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[userID]
	if !ok {
		return pgx.ErrNoRows
	}
	u.IsAdmin = isAdmin
	return nil
}

type fakeSessions struct {
	mu      sync.Mutex
	started []models.Session
	ended   []uuid.UUID
}

func (f *fakeSessions) Start(_ context.Context, s *models.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s.ID = uuid.New()
	s.LoginAt = time.Now()
	f.started = append(f.started, *s)
	return nil
}

func (f *fakeSessions) End(_ context.Context, sessionID, _ uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ended = append(f.ended, sessionID)
	return nil
}
