package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shruti-bhere/ai-learning-platform/internal/cache"
	"github.com/shruti-bhere/ai-learning-platform/internal/models"
)

type fakeProgress struct {
	events    []models.ProgressEvent
	lessons   []models.LessonProgress
	forCourse []models.LessonProgress
}

func (f *fakeProgress) apply(ev models.ProgressEvent, known bool) (*models.ProgressResult, error) {
	if !known {
		return nil, pgx.ErrNoRows
	}
	f.events = append(f.events, ev)
	return &models.ProgressResult{ProgressPercentage: ev.Percentage, Completed: ev.Percentage == 100}, nil
}

func (f *fakeProgress) ApplyLesson(_ context.Context, ev models.ProgressEvent) (*models.ProgressResult, error) {
	return f.apply(ev, ev.LessonID == 10)
}

func (f *fakeProgress) ApplyTopic(_ context.Context, ev models.ProgressEvent) (*models.ProgressResult, error) {
	return f.apply(ev, ev.TopicID == 1)
}

func (f *fakeProgress) ListLessons(context.Context, uuid.UUID) ([]models.LessonProgress, error) {
	return f.lessons, nil
}

func (f *fakeProgress) ListTopics(context.Context, uuid.UUID) ([]models.TopicProgress, error) {
	return []models.TopicProgress{}, nil
}

func (f *fakeProgress) ForCourse(context.Context, uuid.UUID, int64) ([]models.LessonProgress, error) {
	return f.forCourse, nil
}

func newProgressFixture(t *testing.T) (*ProgressService, *fakeProgress) {
	t.Helper()
	store := &fakeProgress{}
	courses := &fakeCourses{courses: map[int64]*models.Course{1: {ID: 1, Name: "Python"}}}
	_, c := newTestCache(t)
	svc := NewProgressService(store, courses, c)
	svc.now = fixedNow(time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC))
	return svc, store
}

func intPtr(n int) *int { return &n }

func TestRecordLesson(t *testing.T) {
	svc, store := newProgressFixture(t)
	userID := uuid.New()

	res, err := svc.RecordLesson(context.Background(), userID, models.LessonProgressRequest{LessonID: 10, ProgressPercentage: intPtr(100)})
	require.NoError(t, err)
	assert.True(t, res.Completed)

	require.Len(t, store.events, 1)
	ev := store.events[0]
	assert.Equal(t, userID, ev.UserID)
	assert.Equal(t, 100, ev.Percentage)
	assert.Equal(t, time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC), ev.Today)
}

func TestRecordLesson_ClampsPercentage(t *testing.T) {
	svc, store := newProgressFixture(t)

	_, err := svc.RecordLesson(context.Background(), uuid.New(), models.LessonProgressRequest{LessonID: 10, ProgressPercentage: intPtr(250)})
	require.NoError(t, err)
	_, err = svc.RecordLesson(context.Background(), uuid.New(), models.LessonProgressRequest{LessonID: 10, ProgressPercentage: intPtr(-5)})
	require.NoError(t, err)

	assert.Equal(t, 100, store.events[0].Percentage)
	assert.Equal(t, 0, store.events[1].Percentage)
}

func TestRecordLesson_UnknownLesson(t *testing.T) {
	svc, _ := newProgressFixture(t)

	_, err := svc.RecordLesson(context.Background(), uuid.New(), models.LessonProgressRequest{LessonID: 99, ProgressPercentage: intPtr(50)})

	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "Lesson not found", nf.Message)
}

func TestRecordTopic(t *testing.T) {
	svc, store := newProgressFixture(t)

	_, err := svc.RecordTopic(context.Background(), uuid.New(), models.TopicProgressRequest{TopicID: 1, Completed: true})
	require.NoError(t, err)
	assert.Equal(t, 100, store.events[0].Percentage)

	_, err = svc.RecordTopic(context.Background(), uuid.New(), models.TopicProgressRequest{TopicID: 2, Completed: true})
	var nf *NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestRecordLesson_InvalidatesCaches(t *testing.T) {
	svc, _ := newProgressFixture(t)
	ctx := context.Background()
	userID := uuid.New()

	svc.cache.SetJSON(ctx, cache.UserProfileKey(userID), models.User{ID: userID}, time.Minute)
	svc.cache.SetJSON(ctx, cache.LeaderboardKey("weekly", 10), []models.LeaderboardEntry{}, time.Minute)
	svc.cache.SetJSON(ctx, cache.KeyAdminDashboard, models.DashboardStats{}, time.Minute)

	_, err := svc.RecordLesson(ctx, userID, models.LessonProgressRequest{LessonID: 10, ProgressPercentage: intPtr(40)})
	require.NoError(t, err)

	var dst any
	assert.False(t, svc.cache.GetJSON(ctx, cache.UserProfileKey(userID), &dst))
	assert.False(t, svc.cache.GetJSON(ctx, cache.LeaderboardKey("weekly", 10), &dst))
	assert.False(t, svc.cache.GetJSON(ctx, cache.KeyAdminDashboard, &dst))
}

func TestCourseProgress(t *testing.T) {
	svc, store := newProgressFixture(t)
	store.forCourse = []models.LessonProgress{
		{LessonID: 10, Completed: true, ProgressPercentage: 100},
		{LessonID: 11, ProgressPercentage: 50},
		{LessonID: 12},
	}

	cp, err := svc.Course(context.Background(), uuid.New(), 1)
	require.NoError(t, err)
	assert.Equal(t, 3, cp.TotalLessons)
	assert.Equal(t, 1, cp.CompletedLessons)
	assert.Equal(t, 33, cp.CompletionPercent)

	_, err = svc.Course(context.Background(), uuid.New(), 99)
	var nf *NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestCourseProgress_EmptyCourse(t *testing.T) {
	svc, _ := newProgressFixture(t)

	cp, err := svc.Course(context.Background(), uuid.New(), 1)
	require.NoError(t, err)
	assert.Equal(t, 0, cp.CompletionPercent)
}
