package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/shruti-bhere/ai-learning-platform/internal/database"
	"github.com/shruti-bhere/ai-learning-platform/internal/models"
)

type TopicRepo struct {
	db database.DB
}

func NewTopicRepo(db database.DB) *TopicRepo {
	return &TopicRepo{db: db}
}

func (r *TopicRepo) ListByLesson(ctx context.Context, lessonID int64) ([]models.Topic, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, lesson_id, title, content, order_index, created_at, updated_at
		FROM topics WHERE lesson_id = $1
		ORDER BY order_index, id`, lessonID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	topics := make([]models.Topic, 0)
	for rows.Next() {
		var t models.Topic
		if err := rows.Scan(&t.ID, &t.LessonID, &t.Title, &t.Content, &t.OrderIndex, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		topics = append(topics, t)
	}
	return topics, rows.Err()
}

func (r *TopicRepo) GetByID(ctx context.Context, id int64) (*models.Topic, error) {
	t := &models.Topic{}
	err := r.db.QueryRow(ctx, `
		SELECT id, lesson_id, title, content, order_index, created_at, updated_at
		FROM topics WHERE id = $1`, id,
	).Scan(&t.ID, &t.LessonID, &t.Title, &t.Content, &t.OrderIndex, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (r *TopicRepo) Create(ctx context.Context, t *models.Topic) error {
	return r.db.QueryRow(ctx, `
		INSERT INTO topics (lesson_id, title, content, order_index)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`,
		t.LessonID, t.Title, t.Content, t.OrderIndex,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
}

func (r *TopicRepo) Update(ctx context.Context, t *models.Topic) error {
	return r.db.QueryRow(ctx, `
		UPDATE topics SET lesson_id = $1, title = $2, content = $3, order_index = $4, updated_at = NOW()
		WHERE id = $5
		RETURNING created_at, updated_at`,
		t.LessonID, t.Title, t.Content, t.OrderIndex, t.ID,
	).Scan(&t.CreatedAt, &t.UpdatedAt)
}

func (r *TopicRepo) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, "DELETE FROM topics WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
