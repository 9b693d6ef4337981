package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/shruti-bhere/ai-learning-platform/internal/database"
	"github.com/shruti-bhere/ai-learning-platform/internal/models"
)

const defaultCourseIcon = "📘"

type CourseRepo struct {
	db database.DB
}

func NewCourseRepo(db database.DB) *CourseRepo {
	return &CourseRepo{db: db}
}

func (r *CourseRepo) List(ctx context.Context) ([]models.Course, error) {
	rows, err := r.db.Query(ctx, `
		SELECT c.id, c.name, c.description, c.icon, COUNT(l.id) AS lesson_count, c.created_at, c.updated_at
		FROM courses c
		LEFT JOIN lessons l ON l.course_id = c.id
		GROUP BY c.id
		ORDER BY c.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	courses := make([]models.Course, 0)
	for rows.Next() {
		var c models.Course
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.Icon, &c.LessonCount, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		courses = append(courses, c)
	}
	return courses, rows.Err()
}

func (r *CourseRepo) GetByID(ctx context.Context, id int64) (*models.Course, error) {
	c := &models.Course{}
	err := r.db.QueryRow(ctx, `
		SELECT c.id, c.name, c.description, c.icon,
			(SELECT COUNT(*) FROM lessons WHERE course_id = c.id) AS lesson_count,
			c.created_at, c.updated_at
		FROM courses c WHERE c.id = $1`, id,
	).Scan(&c.ID, &c.Name, &c.Description, &c.Icon, &c.LessonCount, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *CourseRepo) Create(ctx context.Context, c *models.Course) error {
	if c.Icon == "" {
		c.Icon = defaultCourseIcon
	}

	return r.db.QueryRow(ctx, `
		INSERT INTO courses (name, description, icon)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at`,
		c.Name, c.Description, c.Icon,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
}

// Update returns pgx.ErrNoRows when the course does not exist.
func (r *CourseRepo) Update(ctx context.Context, c *models.Course) error {
	if c.Icon == "" {
		c.Icon = defaultCourseIcon
	}

	return r.db.QueryRow(ctx, `
		UPDATE courses SET name = $1, description = $2, icon = $3, updated_at = NOW()
		WHERE id = $4
		RETURNING created_at, updated_at`,
		c.Name, c.Description, c.Icon, c.ID,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
}

// Delete removes the course; lessons, topics and their progress go with it.
func (r *CourseRepo) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, "DELETE FROM courses WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
