package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/shruti-bhere/ai-learning-platform/internal/database"
	"github.com/shruti-bhere/ai-learning-platform/internal/models"
)

const userColumns = `id, username, email, password_hash, currency, total_points, current_streak,
	longest_streak, last_activity_date, is_admin, created_at, last_login_at`

type UserRepo struct {
	db database.DB
}

func NewUserRepo(db database.DB) *UserRepo {
	return &UserRepo{db: db}
}

func scanUser(row pgx.Row) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(
		&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.Currency, &user.TotalPoints,
		&user.CurrentStreak, &user.LongestStreak, &user.LastActivityDate, &user.IsAdmin,
		&user.CreatedAt, &user.LastLoginAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *UserRepo) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, username, email, password_hash, is_admin)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`

	user.ID = uuid.New()

	return r.db.QueryRow(ctx, query,
		user.ID, user.Username, user.Email, user.PasswordHash, user.IsAdmin,
	).Scan(&user.CreatedAt)
}

// Exists reports whether the email or the username is already taken,
// case-insensitively.
func (r *UserRepo) Exists(ctx context.Context, email, username string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE LOWER(email) = LOWER($1) OR LOWER(username) = LOWER($2))`,
		email, username,
	).Scan(&exists)
	return exists, err
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return scanUser(r.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE LOWER(email) = LOWER($1)`, email))
}

func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return scanUser(r.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE LOWER(username) = LOWER($1)`, username))
}

func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (r *UserRepo) IsAdmin(ctx context.Context, id uuid.UUID) (bool, error) {
	var isAdmin bool
	err := r.db.QueryRow(ctx, "SELECT is_admin FROM users WHERE id = $1", id).Scan(&isAdmin)
	return isAdmin, err
}

func (r *UserRepo) UpdateLastLogin(ctx context.Context, userID uuid.UUID) error {
	_, err := r.db.Exec(ctx, "UPDATE users SET last_login_at = $1 WHERE id = $2", time.Now(), userID)
	return err
}

func (r *UserRepo) UpdateUsername(ctx context.Context, userID uuid.UUID, username string) error {
	tag, err := r.db.Exec(ctx, "UPDATE users SET username = $1 WHERE id = $2", username, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *UserRepo) UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error {
	_, err := r.db.Exec(ctx, "UPDATE users SET password_hash = $1 WHERE id = $2", passwordHash, userID)
	return err
}

func (r *UserRepo) SetAdmin(ctx context.Context, userID uuid.UUID, isAdmin bool) error {
	tag, err := r.db.Exec(ctx, "UPDATE users SET is_admin = $1 WHERE id = $2", isAdmin, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// List pages through users, newest first. search matches username or email.
func (r *UserRepo) List(ctx context.Context, search string, limit, offset int) ([]models.User, int, error) {
	pattern := "%" + search + "%"

	var total int
	if err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM users WHERE username ILIKE $1 OR email ILIKE $1`,
		pattern,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.Query(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE username ILIKE $1 OR email ILIKE $1
		ORDER BY created_at DESC, id
		LIMIT $2 OFFSET $3`, pattern, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	users := make([]models.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, *u)
	}
	return users, total, rows.Err()
}

// CompletionCounts returns how many lessons and topics the user has completed.
func (r *UserRepo) CompletionCounts(ctx context.Context, userID uuid.UUID) (lessons int, topics int, err error) {
	err = r.db.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM lesson_progress WHERE user_id = $1 AND completed) AS lessons,
			(SELECT COUNT(*) FROM topic_progress WHERE user_id = $1 AND completed) AS topics
	`, userID).Scan(&lessons, &topics)
	return
}

// RecentActivity returns the user's daily activity since the given date, oldest first.
func (r *UserRepo) RecentActivity(ctx context.Context, userID uuid.UUID, since time.Time) ([]models.DailyActivity, error) {
	rows, err := r.db.Query(ctx, `
		SELECT activity_date, points_earned, topics_completed, lessons_completed
		FROM daily_activity
		WHERE user_id = $1 AND activity_date >= $2
		ORDER BY activity_date`, userID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	activity := make([]models.DailyActivity, 0)
	for rows.Next() {
		var a models.DailyActivity
		if err := rows.Scan(&a.Date, &a.PointsEarned, &a.TopicsCompleted, &a.LessonsCompleted); err != nil {
			return nil, err
		}
		activity = append(activity, a)
	}
	return activity, rows.Err()
}

// ResetBrokenStreaks zeroes current_streak for everyone whose last activity
// is older than yesterday.
func (r *UserRepo) ResetBrokenStreaks(ctx context.Context, yesterday time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE users SET current_streak = 0
		WHERE current_streak > 0
		  AND (last_activity_date IS NULL OR last_activity_date < $1)`, yesterday)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
