package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/shruti-bhere/ai-learning-platform/internal/database"
	"github.com/shruti-bhere/ai-learning-platform/internal/models"
)

// maxSessionSeconds caps how long a session is reported to have lasted.
const maxSessionSeconds = 43200

type SessionRepo struct {
	db database.DB
}

func NewSessionRepo(db database.DB) *SessionRepo {
	return &SessionRepo{db: db}
}

func (r *SessionRepo) Start(ctx context.Context, s *models.Session) error {
	s.ID = uuid.New()

	query := `
		INSERT INTO sessions (id, user_id, ip_address, user_agent)
		VALUES ($1, $2, $3, $4)
		RETURNING login_at
	`

	return r.db.QueryRow(ctx, query, s.ID, s.UserID, s.IPAddress, s.UserAgent).Scan(&s.LoginAt)
}

// End stamps logout_at once; later calls are no-ops.
func (r *SessionRepo) End(ctx context.Context, sessionID, userID uuid.UUID) error {
	_, err := r.db.Exec(ctx, `
		UPDATE sessions
		SET logout_at = NOW()
		WHERE id = $1
		  AND user_id = $2
		  AND logout_at IS NULL
	`, sessionID, userID)
	return err
}

// CloseStale ends sessions that never logged out and started before cutoff.
func (r *SessionRepo) CloseStale(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE sessions
		SET logout_at = login_at + make_interval(secs => $2)
		WHERE logout_at IS NULL
		  AND login_at < $1
	`, cutoff, maxSessionSeconds)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *SessionRepo) CountActive(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM sessions WHERE logout_at IS NULL").Scan(&n)
	return n, err
}

// Recent lists the latest sessions with their duration; open sessions are
// measured up to now.
func (r *SessionRepo) Recent(ctx context.Context, limit int) ([]models.SessionReport, error) {
	rows, err := r.db.Query(ctx, `
		SELECT s.id, s.user_id, u.username, s.login_at, s.logout_at,
			GREATEST(0, LEAST($2, EXTRACT(EPOCH FROM (COALESCE(s.logout_at, NOW()) - s.login_at))::BIGINT)) AS duration_seconds,
			s.ip_address, s.user_agent
		FROM sessions s
		JOIN users u ON u.id = s.user_id
		ORDER BY s.login_at DESC
		LIMIT $1
	`, limit, maxSessionSeconds)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reports := make([]models.SessionReport, 0)
	for rows.Next() {
		var s models.SessionReport
		if err := rows.Scan(&s.ID, &s.UserID, &s.Username, &s.LoginAt, &s.LogoutAt,
			&s.DurationSeconds, &s.IPAddress, &s.UserAgent); err != nil {
			return nil, err
		}
		reports = append(reports, s)
	}
	return reports, rows.Err()
}
