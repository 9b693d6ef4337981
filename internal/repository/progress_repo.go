package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/shruti-bhere/ai-learning-platform/internal/database"
	"github.com/shruti-bhere/ai-learning-platform/internal/models"
	"github.com/shruti-bhere/ai-learning-platform/internal/streak"
)

type ProgressRepo struct {
	db database.DB
}

func NewProgressRepo(db database.DB) *ProgressRepo {
	return &ProgressRepo{db: db}
}

// ApplyLesson records lesson progress for ev.UserID. Points for the lesson's
// difficulty are added the first time the lesson reaches 100%. The progress
// row, the day's activity and the user's points and streak are written in one
// transaction. Returns pgx.ErrNoRows if the lesson does not exist.
func (r *ProgressRepo) ApplyLesson(ctx context.Context, ev models.ProgressEvent) (*models.ProgressResult, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	var difficulty string
	if err := tx.QueryRow(ctx, "SELECT difficulty FROM lessons WHERE id = $1", ev.LessonID).Scan(&difficulty); err != nil {
		return nil, err
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO lesson_progress (user_id, lesson_id) VALUES ($1, $2)
		ON CONFLICT (user_id, lesson_id) DO NOTHING`, ev.UserID, ev.LessonID); err != nil {
		return nil, fmt.Errorf("ensure lesson progress: %w", err)
	}

	var wasCompleted bool
	if err := tx.QueryRow(ctx, `
		SELECT completed FROM lesson_progress
		WHERE user_id = $1 AND lesson_id = $2
		FOR UPDATE`, ev.UserID, ev.LessonID).Scan(&wasCompleted); err != nil {
		return nil, fmt.Errorf("lock lesson progress: %w", err)
	}

	completing := ev.Percentage >= 100 && !wasCompleted
	points := 0
	lessonsDone := 0
	if completing {
		points = models.LessonPoints(difficulty)
		lessonsDone = 1
	}

	result := &models.ProgressResult{PointsAwarded: points}
	if err := tx.QueryRow(ctx, `
		UPDATE lesson_progress
		SET progress_percentage = GREATEST(progress_percentage, $3),
			completed = completed OR $4,
			points_earned = points_earned + $5,
			completed_at = CASE WHEN $4 AND completed_at IS NULL THEN NOW() ELSE completed_at END,
			updated_at = NOW()
		WHERE user_id = $1 AND lesson_id = $2
		RETURNING completed, progress_percentage`,
		ev.UserID, ev.LessonID, ev.Percentage, completing, points,
	).Scan(&result.Completed, &result.ProgressPercentage); err != nil {
		return nil, fmt.Errorf("update lesson progress: %w", err)
	}

	if err := applyActivity(ctx, tx, ev.UserID, ev.Today, points, 0, lessonsDone, result); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return result, nil
}

// ApplyTopic records a topic as completed or not. Completing it the first
// time is worth models.TopicPoints. Returns pgx.ErrNoRows if the topic does
// not exist.
func (r *ProgressRepo) ApplyTopic(ctx context.Context, ev models.ProgressEvent) (*models.ProgressResult, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	var exists bool
	if err := tx.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM topics WHERE id = $1)", ev.TopicID).Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return nil, pgx.ErrNoRows
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO topic_progress (user_id, topic_id) VALUES ($1, $2)
		ON CONFLICT (user_id, topic_id) DO NOTHING`, ev.UserID, ev.TopicID); err != nil {
		return nil, fmt.Errorf("ensure topic progress: %w", err)
	}

	var wasCompleted bool
	if err := tx.QueryRow(ctx, `
		SELECT completed FROM topic_progress
		WHERE user_id = $1 AND topic_id = $2
		FOR UPDATE`, ev.UserID, ev.TopicID).Scan(&wasCompleted); err != nil {
		return nil, fmt.Errorf("lock topic progress: %w", err)
	}

	completing := ev.Percentage >= 100 && !wasCompleted
	points := 0
	topicsDone := 0
	if completing {
		points = models.TopicPoints
		topicsDone = 1
	}

	result := &models.ProgressResult{PointsAwarded: points}
	if err := tx.QueryRow(ctx, `
		UPDATE topic_progress
		SET progress_percentage = GREATEST(progress_percentage, $3),
			completed = completed OR $4,
			points_earned = points_earned + $5,
			completed_at = CASE WHEN $4 AND completed_at IS NULL THEN NOW() ELSE completed_at END,
			updated_at = NOW()
		WHERE user_id = $1 AND topic_id = $2
		RETURNING completed, progress_percentage`,
		ev.UserID, ev.TopicID, ev.Percentage, completing, points,
	).Scan(&result.Completed, &result.ProgressPercentage); err != nil {
		return nil, fmt.Errorf("update topic progress: %w", err)
	}

	if err := applyActivity(ctx, tx, ev.UserID, ev.Today, points, topicsDone, 0, result); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return result, nil
}

// applyActivity upserts today's activity row and moves the user's points,
// currency and streak forward. It fills the totals of result.
func applyActivity(ctx context.Context, tx pgx.Tx, userID uuid.UUID, today time.Time, points, topicsDone, lessonsDone int, result *models.ProgressResult) error {
	today = streak.Day(today)

	if _, err := tx.Exec(ctx, `
		INSERT INTO daily_activity (user_id, activity_date, points_earned, topics_completed, lessons_completed)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, activity_date) DO UPDATE
		SET points_earned = daily_activity.points_earned + EXCLUDED.points_earned,
			topics_completed = daily_activity.topics_completed + EXCLUDED.topics_completed,
			lessons_completed = daily_activity.lessons_completed + EXCLUDED.lessons_completed`,
		userID, today, points, topicsDone, lessonsDone); err != nil {
		return fmt.Errorf("upsert daily activity: %w", err)
	}

	var (
		current, longest int
		lastActivity     *time.Time
	)
	if err := tx.QueryRow(ctx, `
		SELECT current_streak, longest_streak, last_activity_date
		FROM users WHERE id = $1
		FOR UPDATE`, userID).Scan(&current, &longest, &lastActivity); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("user %s vanished mid-update: %w", userID, err)
		}
		return fmt.Errorf("lock user: %w", err)
	}

	next := streak.Next(lastActivity, current, today)
	longest = streak.Longest(longest, next)

	if err := tx.QueryRow(ctx, `
		UPDATE users
		SET total_points = total_points + $2,
			currency = currency + $2,
			current_streak = $3,
			longest_streak = $4,
			last_activity_date = $5
		WHERE id = $1
		RETURNING total_points, currency`,
		userID, points, next, longest, today,
	).Scan(&result.TotalPoints, &result.Currency); err != nil {
		return fmt.Errorf("update user totals: %w", err)
	}

	result.CurrentStreak = next
	result.LongestStreak = longest
	return nil
}

func (r *ProgressRepo) ListLessons(ctx context.Context, userID uuid.UUID) ([]models.LessonProgress, error) {
	rows, err := r.db.Query(ctx, `
		SELECT lesson_id, completed, progress_percentage, points_earned, completed_at, updated_at
		FROM lesson_progress WHERE user_id = $1
		ORDER BY lesson_id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	progress := make([]models.LessonProgress, 0)
	for rows.Next() {
		p := models.LessonProgress{UserID: userID}
		if err := rows.Scan(&p.LessonID, &p.Completed, &p.ProgressPercentage, &p.PointsEarned, &p.CompletedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		progress = append(progress, p)
	}
	return progress, rows.Err()
}

func (r *ProgressRepo) ListTopics(ctx context.Context, userID uuid.UUID) ([]models.TopicProgress, error) {
	rows, err := r.db.Query(ctx, `
		SELECT topic_id, completed, progress_percentage, points_earned, completed_at, updated_at
		FROM topic_progress WHERE user_id = $1
		ORDER BY topic_id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	progress := make([]models.TopicProgress, 0)
	for rows.Next() {
		p := models.TopicProgress{UserID: userID}
		if err := rows.Scan(&p.TopicID, &p.Completed, &p.ProgressPercentage, &p.PointsEarned, &p.CompletedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		progress = append(progress, p)
	}
	return progress, rows.Err()
}

// ForCourse returns one entry per lesson of the course, in lesson order.
// Lessons the user never touched come back with zero progress.
func (r *ProgressRepo) ForCourse(ctx context.Context, userID uuid.UUID, courseID int64) ([]models.LessonProgress, error) {
	rows, err := r.db.Query(ctx, `
		SELECT l.id,
			COALESCE(p.completed, FALSE),
			COALESCE(p.progress_percentage, 0),
			COALESCE(p.points_earned, 0),
			p.completed_at,
			COALESCE(p.updated_at, l.updated_at)
		FROM lessons l
		LEFT JOIN lesson_progress p ON p.lesson_id = l.id AND p.user_id = $2
		WHERE l.course_id = $1
		ORDER BY l.order_index, l.id`, courseID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	progress := make([]models.LessonProgress, 0)
	for rows.Next() {
		p := models.LessonProgress{UserID: userID}
		if err := rows.Scan(&p.LessonID, &p.Completed, &p.ProgressPercentage, &p.PointsEarned, &p.CompletedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		progress = append(progress, p)
	}
	return progress, rows.Err()
}
