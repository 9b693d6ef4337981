package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shruti-bhere/ai-learning-platform/internal/models"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

var today = time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)

func expectActivity(mock pgxmock.PgxPoolIface, userID uuid.UUID, points, topics, lessons int, current, longest int, last *time.Time, next, newLongest, total int) {
	mock.ExpectExec("INSERT INTO daily_activity").
		WithArgs(userID, today, points, topics, lessons).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectQuery("SELECT current_streak, longest_streak, last_activity_date").
		WithArgs(userID).
		WillReturnRows(pgxmock.NewRows([]string{"current_streak", "longest_streak", "last_activity_date"}).
			AddRow(current, longest, last))
	mock.ExpectQuery("UPDATE users").
		WithArgs(userID, points, next, newLongest, today).
		WillReturnRows(pgxmock.NewRows([]string{"total_points", "currency"}).AddRow(total, total))
}

func TestApplyLesson_FirstCompletionAwardsPointsAndExtendsStreak(t *testing.T) {
	mock := newMock(t)
	repo := NewProgressRepo(mock)
	userID := uuid.New()
	yesterday := today.AddDate(0, 0, -1)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT difficulty FROM lessons").
		WithArgs(int64(7)).
		WillReturnRows(pgxmock.NewRows([]string{"difficulty"}).AddRow("intermediate"))
	mock.ExpectExec("INSERT INTO lesson_progress").
		WithArgs(userID, int64(7)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectQuery("SELECT completed FROM lesson_progress").
		WithArgs(userID, int64(7)).
		WillReturnRows(pgxmock.NewRows([]string{"completed"}).AddRow(false))
	mock.ExpectQuery("UPDATE lesson_progress").
		WithArgs(userID, int64(7), 100, true, 20).
		WillReturnRows(pgxmock.NewRows([]string{"completed", "progress_percentage"}).AddRow(true, 100))
	expectActivity(mock, userID, 20, 0, 1, 3, 3, &yesterday, 4, 4, 120)
	mock.ExpectCommit()

	res, err := repo.ApplyLesson(context.Background(), models.ProgressEvent{
		UserID: userID, LessonID: 7, Percentage: 100, Today: today.Add(15 * time.Hour),
	})
	require.NoError(t, err)

	assert.True(t, res.Completed)
	assert.Equal(t, 20, res.PointsAwarded)
	assert.Equal(t, 120, res.TotalPoints)
	assert.Equal(t, 4, res.CurrentStreak)
	assert.Equal(t, 4, res.LongestStreak)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyLesson_AlreadyCompletedAwardsNothing(t *testing.T) {
	mock := newMock(t)
	repo := NewProgressRepo(mock)
	userID := uuid.New()
	sameDay := today

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT difficulty FROM lessons").
		WithArgs(int64(7)).
		WillReturnRows(pgxmock.NewRows([]string{"difficulty"}).AddRow("advanced"))
	mock.ExpectExec("INSERT INTO lesson_progress").
		WithArgs(userID, int64(7)).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))
	mock.ExpectQuery("SELECT completed FROM lesson_progress").
		WithArgs(userID, int64(7)).
		WillReturnRows(pgxmock.NewRows([]string{"completed"}).AddRow(true))
	mock.ExpectQuery("UPDATE lesson_progress").
		WithArgs(userID, int64(7), 100, false, 0).
		WillReturnRows(pgxmock.NewRows([]string{"completed", "progress_percentage"}).AddRow(true, 100))
	expectActivity(mock, userID, 0, 0, 0, 6, 9, &sameDay, 6, 9, 300)
	mock.ExpectCommit()

	res, err := repo.ApplyLesson(context.Background(), models.ProgressEvent{
		UserID: userID, LessonID: 7, Percentage: 100, Today: today,
	})
	require.NoError(t, err)

	assert.Equal(t, 0, res.PointsAwarded)
	assert.Equal(t, 6, res.CurrentStreak, "streak unchanged when already active today")
	assert.Equal(t, 9, res.LongestStreak)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyLesson_PartialProgressResetsOldStreak(t *testing.T) {
	mock := newMock(t)
	repo := NewProgressRepo(mock)
	userID := uuid.New()
	longAgo := today.AddDate(0, 0, -5)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT difficulty FROM lessons").
		WithArgs(int64(2)).
		WillReturnRows(pgxmock.NewRows([]string{"difficulty"}).AddRow("beginner"))
	mock.ExpectExec("INSERT INTO lesson_progress").
		WithArgs(userID, int64(2)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectQuery("SELECT completed FROM lesson_progress").
		WithArgs(userID, int64(2)).
		WillReturnRows(pgxmock.NewRows([]string{"completed"}).AddRow(false))
	mock.ExpectQuery("UPDATE lesson_progress").
		WithArgs(userID, int64(2), 40, false, 0).
		WillReturnRows(pgxmock.NewRows([]string{"completed", "progress_percentage"}).AddRow(false, 40))
	expectActivity(mock, userID, 0, 0, 0, 8, 8, &longAgo, 1, 8, 50)
	mock.ExpectCommit()

	res, err := repo.ApplyLesson(context.Background(), models.ProgressEvent{
		UserID: userID, LessonID: 2, Percentage: 40, Today: today,
	})
	require.NoError(t, err)

	assert.False(t, res.Completed)
	assert.Equal(t, 40, res.ProgressPercentage)
	assert.Equal(t, 1, res.CurrentStreak)
	assert.Equal(t, 8, res.LongestStreak)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyLesson_UnknownLessonRollsBack(t *testing.T) {
	mock := newMock(t)
	repo := NewProgressRepo(mock)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT difficulty FROM lessons").
		WithArgs(int64(99)).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectRollback()

	_, err := repo.ApplyLesson(context.Background(), models.ProgressEvent{
		UserID: uuid.New(), LessonID: 99, Percentage: 100, Today: today,
	})
	assert.True(t, errors.Is(err, pgx.ErrNoRows))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyTopic_CompletionCountsTopic(t *testing.T) {
	mock := newMock(t)
	repo := NewProgressRepo(mock)
	userID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(int64(11)).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectExec("INSERT INTO topic_progress").
		WithArgs(userID, int64(11)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectQuery("SELECT completed FROM topic_progress").
		WithArgs(userID, int64(11)).
		WillReturnRows(pgxmock.NewRows([]string{"completed"}).AddRow(false))
	mock.ExpectQuery("UPDATE topic_progress").
		WithArgs(userID, int64(11), 100, true, models.TopicPoints).
		WillReturnRows(pgxmock.NewRows([]string{"completed", "progress_percentage"}).AddRow(true, 100))
	expectActivity(mock, userID, models.TopicPoints, 1, 0, 0, 0, nil, 1, 1, 5)
	mock.ExpectCommit()

	res, err := repo.ApplyTopic(context.Background(), models.ProgressEvent{
		UserID: userID, TopicID: 11, Percentage: 100, Today: today,
	})
	require.NoError(t, err)

	assert.Equal(t, models.TopicPoints, res.PointsAwarded)
	assert.Equal(t, 1, res.CurrentStreak)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyTopic_UnknownTopic(t *testing.T) {
	mock := newMock(t)
	repo := NewProgressRepo(mock)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(int64(5)).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectRollback()

	_, err := repo.ApplyTopic(context.Background(), models.ProgressEvent{UserID: uuid.New(), TopicID: 5, Today: today})
	assert.True(t, errors.Is(err, pgx.ErrNoRows))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestForCourse_FillsUntouchedLessons(t *testing.T) {
	mock := newMock(t)
	repo := NewProgressRepo(mock)
	userID := uuid.New()
	done := today

	mock.ExpectQuery("FROM lessons l").
		WithArgs(int64(3), userID).
		WillReturnRows(pgxmock.NewRows([]string{"id", "completed", "progress_percentage", "points_earned", "completed_at", "updated_at"}).
			AddRow(int64(1), true, 100, 10, &done, today).
			AddRow(int64(2), false, 0, 0, nil, today))

	progress, err := repo.ForCourse(context.Background(), userID, 3)
	require.NoError(t, err)
	require.Len(t, progress, 2)

	assert.True(t, progress[0].Completed)
	assert.NotNil(t, progress[0].CompletedAt)
	assert.Nil(t, progress[1].CompletedAt)
	assert.Equal(t, userID, progress[1].UserID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
