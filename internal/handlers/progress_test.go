package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shruti-bhere/ai-learning-platform/internal/middleware"
	"github.com/shruti-bhere/ai-learning-platform/internal/models"
	"github.com/shruti-bhere/ai-learning-platform/internal/services"
)

type stubProgress struct {
	userID uuid.UUID
	lesson models.LessonProgressRequest
	period string
	limit  int
}

func (s *stubProgress) RecordLesson(_ context.Context, userID uuid.UUID, req models.LessonProgressRequest) (*models.ProgressResult, error) {
	s.userID = userID
	s.lesson = req
	return &models.ProgressResult{Completed: *req.ProgressPercentage == 100}, nil
}

func (s *stubProgress) RecordTopic(context.Context, uuid.UUID, models.TopicProgressRequest) (*models.ProgressResult, error) {
	return &models.ProgressResult{}, nil
}

func (s *stubProgress) All(context.Context, uuid.UUID) (*models.UserProgress, error) {
	return &models.UserProgress{}, nil
}

func (s *stubProgress) Course(_ context.Context, _ uuid.UUID, courseID int64) (*models.CourseProgress, error) {
	return &models.CourseProgress{CourseID: courseID}, nil
}

func (s *stubProgress) Top(_ context.Context, period string, limit int) ([]models.LeaderboardEntry, error) {
	if period == "yearly" {
		return nil, &services.ValidationError{Fields: map[string]string{"period": "bad"}}
	}
	s.period = period
	s.limit = limit
	return nil, nil
}

func (s *stubProgress) RankOf(_ context.Context, userID uuid.UUID, period string) (*models.UserRank, error) {
	return &models.UserRank{UserID: userID, Period: period, Rank: 1}, nil
}

func withUser(req *http.Request, userID uuid.UUID) *http.Request {
	return req.WithContext(middleware.WithUserID(req.Context(), userID))
}

func TestProgressHandler_RecordLesson(t *testing.T) {
	stub := &stubProgress{}
	h := NewProgressHandler(stub)
	userID := uuid.New()

	rr := httptest.NewRecorder()
	h.RecordLesson(rr, withUser(jsonRequest(t, http.MethodPost, "/api/progress/lesson", map[string]int{
		"lesson_id": 3, "progress_percentage": 100,
	}), userID))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, userID, stub.userID)
	assert.Equal(t, int64(3), stub.lesson.LessonID)
}

func TestProgressHandler_RecordLessonValidation(t *testing.T) {
	h := NewProgressHandler(&stubProgress{})

	tests := []map[string]int{
		{"lesson_id": 3, "progress_percentage": 101},
		{"lesson_id": 3, "progress_percentage": -1},
		{"lesson_id": 3},
		{"progress_percentage": 50},
	}
	for _, body := range tests {
		rr := httptest.NewRecorder()
		h.RecordLesson(rr, withUser(jsonRequest(t, http.MethodPost, "/api/progress/lesson", body), uuid.New()))
		assert.Equal(t, http.StatusBadRequest, rr.Code, body)
	}
}

func TestProgressHandler_AllReturnsArrays(t *testing.T) {
	h := NewProgressHandler(&stubProgress{})

	rr := httptest.NewRecorder()
	h.All(rr, withUser(httptest.NewRequest(http.MethodGet, "/api/progress", nil), uuid.New()))

	assert.JSONEq(t, `{"lessons":[],"topics":[]}`, rr.Body.String())
}

func TestProgressHandler_Course(t *testing.T) {
	h := NewProgressHandler(&stubProgress{})

	req := withUser(httptest.NewRequest(http.MethodGet, "/api/progress/course/4", nil), uuid.New())
	rr := serve("/api/progress/course/{courseId}", http.MethodGet, h.Course, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"course_id":4`)
}

func TestLeaderboardHandler(t *testing.T) {
	stub := &stubProgress{}
	h := NewLeaderboardHandler(stub)

	rr := httptest.NewRecorder()
	h.Top(rr, httptest.NewRequest(http.MethodGet, "/api/leaderboard?period=weekly&limit=5", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "weekly", stub.period)
	assert.Equal(t, 5, stub.limit)
	assert.JSONEq(t, `{"period":"weekly","entries":[]}`, rr.Body.String())

	rr = httptest.NewRecorder()
	h.Top(rr, httptest.NewRequest(http.MethodGet, "/api/leaderboard", nil))
	assert.JSONEq(t, `{"period":"all","entries":[]}`, rr.Body.String())

	rr = httptest.NewRecorder()
	h.Top(rr, httptest.NewRequest(http.MethodGet, "/api/leaderboard?period=yearly", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = httptest.NewRecorder()
	h.Me(rr, withUser(httptest.NewRequest(http.MethodGet, "/api/leaderboard/me?period=monthly", nil), uuid.New()))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"period":"monthly"`)
}
