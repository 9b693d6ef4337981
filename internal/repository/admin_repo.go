package repository

import (
	"context"
	"time"

	"github.com/shruti-bhere/ai-learning-platform/internal/database"
	"github.com/shruti-bhere/ai-learning-platform/internal/models"
)

// AdminRepo holds the aggregate queries behind the admin dashboard. Each
// method is a single round trip so callers can run them concurrently.
type AdminRepo struct {
	db database.DB
}

func NewAdminRepo(db database.DB) *AdminRepo {
	return &AdminRepo{db: db}
}

func (r *AdminRepo) UserCounts(ctx context.Context, since time.Time, stats *models.DashboardStats) error {
	return r.db.QueryRow(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE is_admin),
			COUNT(*) FILTER (WHERE created_at >= $1),
			COALESCE(SUM(total_points), 0)::BIGINT
		FROM users`, since,
	).Scan(&stats.TotalUsers, &stats.AdminUsers, &stats.NewUsersThisWeek, &stats.TotalPoints)
}

func (r *AdminRepo) ContentCounts(ctx context.Context, stats *models.DashboardStats) error {
	return r.db.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM courses),
			(SELECT COUNT(*) FROM lessons),
			(SELECT COUNT(*) FROM topics)`,
	).Scan(&stats.TotalCourses, &stats.TotalLessons, &stats.TotalTopics)
}

func (r *AdminRepo) CompletionCounts(ctx context.Context, stats *models.DashboardStats) error {
	return r.db.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM lesson_progress WHERE completed),
			(SELECT COUNT(*) FROM topic_progress WHERE completed)`,
	).Scan(&stats.LessonCompletions, &stats.TopicCompletions)
}

// ActivityTotals sums daily_activity per day from since onwards.
func (r *AdminRepo) ActivityTotals(ctx context.Context, since time.Time) ([]models.ActivityTotal, error) {
	rows, err := r.db.Query(ctx, `
		SELECT activity_date,
			COUNT(DISTINCT user_id),
			COALESCE(SUM(points_earned), 0)::INT,
			COALESCE(SUM(topics_completed), 0)::INT,
			COALESCE(SUM(lessons_completed), 0)::INT
		FROM daily_activity
		WHERE activity_date >= $1
		GROUP BY activity_date
		ORDER BY activity_date`, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	totals := make([]models.ActivityTotal, 0)
	for rows.Next() {
		var t models.ActivityTotal
		if err := rows.Scan(&t.Date, &t.ActiveUsers, &t.PointsEarned, &t.TopicsCompleted, &t.LessonsCompleted); err != nil {
			return nil, err
		}
		totals = append(totals, t)
	}
	return totals, rows.Err()
}
