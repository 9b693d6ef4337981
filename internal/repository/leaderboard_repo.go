package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/shruti-bhere/ai-learning-platform/internal/database"
	"github.com/shruti-bhere/ai-learning-platform/internal/models"
)

// allTimeScores ranks every user by points plus a streak bonus.
// Ties fall back to signup order.
const allTimeScores = `
	SELECT id, username, total_points, current_streak,
		total_points + current_streak * 10 AS score,
		ROW_NUMBER() OVER (ORDER BY total_points + current_streak * 10 DESC, created_at, id) AS rank
	FROM users`

// periodScores ranks users by the points they earned since $1.
const periodScores = `
	SELECT u.id, u.username, u.total_points, u.current_streak,
		COALESCE(SUM(d.points_earned), 0)::INT AS score,
		ROW_NUMBER() OVER (ORDER BY COALESCE(SUM(d.points_earned), 0) DESC, u.created_at, u.id) AS rank
	FROM users u
	LEFT JOIN daily_activity d ON d.user_id = u.id AND d.activity_date >= $1
	GROUP BY u.id`

type LeaderboardRepo struct {
	db database.DB
}

func NewLeaderboardRepo(db database.DB) *LeaderboardRepo {
	return &LeaderboardRepo{db: db}
}

func scoresQuery(since *time.Time) (string, []any) {
	if since == nil {
		return allTimeScores, nil
	}
	return periodScores, []any{*since}
}

// Top returns the first limit users. A nil since ranks by all-time score.
func (r *LeaderboardRepo) Top(ctx context.Context, since *time.Time, limit int) ([]models.LeaderboardEntry, error) {
	scores, args := scoresQuery(since)
	args = append(args, limit)

	query := `SELECT rank, id, username, score, total_points, current_streak FROM (` + scores + `) ranked`
	if since != nil {
		query += ` WHERE score > 0 ORDER BY rank LIMIT $2`
	} else {
		query += ` ORDER BY rank LIMIT $1`
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]models.LeaderboardEntry, 0)
	for rows.Next() {
		var e models.LeaderboardEntry
		if err := rows.Scan(&e.Rank, &e.UserID, &e.Username, &e.Score, &e.TotalPoints, &e.CurrentStreak); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// RankOf returns the user's position among all users. Returns pgx.ErrNoRows
// for an unknown user.
func (r *LeaderboardRepo) RankOf(ctx context.Context, userID uuid.UUID, since *time.Time) (*models.UserRank, error) {
	scores, args := scoresQuery(since)
	args = append(args, userID)

	placeholder := "$1"
	if since != nil {
		placeholder = "$2"
	}

	rank := &models.UserRank{UserID: userID}
	err := r.db.QueryRow(ctx, `
		WITH ranked AS (`+scores+`)
		SELECT rank, score, (SELECT COUNT(*) FROM ranked) AS total
		FROM ranked WHERE id = `+placeholder, args...,
	).Scan(&rank.Rank, &rank.Score, &rank.TotalUsers)
	if err != nil {
		return nil, err
	}
	return rank, nil
}
