package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shruti-bhere/ai-learning-platform/internal/cache"
	"github.com/shruti-bhere/ai-learning-platform/internal/models"
)

type fakeAdminStats struct {
	calls   int
	since   time.Time
	failing bool
}

func (f *fakeAdminStats) UserCounts(_ context.Context, _ time.Time, stats *models.DashboardStats) error {
	if f.failing {
		return errors.New("db down")
	}
	stats.TotalUsers = 12
	stats.AdminUsers = 1
	return nil
}

func (f *fakeAdminStats) ContentCounts(_ context.Context, stats *models.DashboardStats) error {
	f.calls++
	stats.TotalCourses = 3
	stats.TotalLessons = 20
	return nil
}

func (f *fakeAdminStats) CompletionCounts(_ context.Context, stats *models.DashboardStats) error {
	stats.LessonCompletions = 42
	return nil
}

func (f *fakeAdminStats) ActivityTotals(_ context.Context, since time.Time) ([]models.ActivityTotal, error) {
	f.since = since
	return []models.ActivityTotal{}, nil
}

type fakeSessionReports struct {
	limit int
}

func (f *fakeSessionReports) CountActive(context.Context) (int, error) { return 4, nil }

func (f *fakeSessionReports) Recent(_ context.Context, limit int) ([]models.SessionReport, error) {
	f.limit = limit
	return []models.SessionReport{}, nil
}

type fakePresence struct {
	n   int64
	err error
}

func (f fakePresence) ActiveCount(context.Context) (int64, error) { return f.n, f.err }

func newAdminFixture(t *testing.T, presence PresenceCounter) (*AdminService, *fakeAdminStats, *fakeUsers, *fakeSessionReports) {
	t.Helper()
	stats := &fakeAdminStats{}
	users := newFakeUsers()
	sessions := &fakeSessionReports{}
	_, c := newTestCache(t)
	svc := NewAdminService(stats, users, sessions, presence, c)
	svc.now = fixedNow(time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC))
	return svc, stats, users, sessions
}

func TestDashboard(t *testing.T) {
	svc, stats, _, _ := newAdminFixture(t, fakePresence{n: 5})

	d, err := svc.Dashboard(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 12, d.TotalUsers)
	assert.Equal(t, 3, d.TotalCourses)
	assert.Equal(t, 42, d.LessonCompletions)
	assert.Equal(t, 4, d.ActiveSessions)
	assert.Equal(t, int64(5), d.ActiveUsersNow)

	_, err = svc.Dashboard(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.calls)
}

func TestDashboard_PresenceUnavailable(t *testing.T) {
	svc, _, _, _ := newAdminFixture(t, fakePresence{err: errors.New("redis down")})

	d, err := svc.Dashboard(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), d.ActiveUsersNow)
	assert.Equal(t, 12, d.TotalUsers)
}

func TestDashboard_QueryFailure(t *testing.T) {
	svc, stats, _, _ := newAdminFixture(t, nil)
	stats.failing = true

	_, err := svc.Dashboard(context.Background())
	assert.Error(t, err)

	var dst models.DashboardStats
	assert.False(t, svc.cache.GetJSON(context.Background(), cache.KeyAdminDashboard, &dst))
}

func TestSetAdmin(t *testing.T) {
	svc, _, users, _ := newAdminFixture(t, nil)
	actor := uuid.New()
	target := &models.User{ID: uuid.New(), Username: "carol"}
	users.byID[target.ID] = target
	ctx := context.Background()

	require.NoError(t, svc.SetAdmin(ctx, actor, target.ID, true))
	assert.True(t, users.byID[target.ID].IsAdmin)

	require.NoError(t, svc.SetAdmin(ctx, actor, target.ID, false))
	assert.False(t, users.byID[target.ID].IsAdmin)

	var nf *NotFoundError
	assert.ErrorAs(t, svc.SetAdmin(ctx, actor, uuid.New(), true), &nf)
}

func TestSetAdmin_CannotDemoteSelf(t *testing.T) {
	svc, _, _, _ := newAdminFixture(t, nil)
	self := uuid.New()

	err := svc.SetAdmin(context.Background(), self, self, false)

	var forbidden *ForbiddenError
	assert.ErrorAs(t, err, &forbidden)
}

func TestListUsers_Bounds(t *testing.T) {
	svc, _, users, _ := newAdminFixture(t, nil)
	users.byID[uuid.New()] = &models.User{Username: "dave"}

	page, err := svc.ListUsers(context.Background(), "da", 0, -4)
	require.NoError(t, err)
	assert.Equal(t, 20, page.Limit)
	assert.Equal(t, 0, page.Offset)
	assert.Equal(t, 1, page.Total)

	page, err = svc.ListUsers(context.Background(), "", 5000, 10)
	require.NoError(t, err)
	assert.Equal(t, 100, page.Limit)
}

func TestSessionsAndActivity_Bounds(t *testing.T) {
	svc, stats, _, sessions := newAdminFixture(t, nil)
	ctx := context.Background()

	_, err := svc.Sessions(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 100, sessions.limit)

	_, err = svc.Sessions(ctx, 10000)
	require.NoError(t, err)
	assert.Equal(t, 500, sessions.limit)

	_, err = svc.Activity(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC), stats.since)

	_, err = svc.Activity(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), stats.since)
}
