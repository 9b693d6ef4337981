package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/shruti-bhere/ai-learning-platform/internal/database"
	"github.com/shruti-bhere/ai-learning-platform/internal/models"
)

const lessonColumns = `id, course_id, title, content, code_example, code_language, difficulty,
	order_index, created_at, updated_at`

type LessonRepo struct {
	db database.DB
}

func NewLessonRepo(db database.DB) *LessonRepo {
	return &LessonRepo{db: db}
}

func scanLesson(row pgx.Row) (*models.Lesson, error) {
	l := &models.Lesson{}
	err := row.Scan(&l.ID, &l.CourseID, &l.Title, &l.Content, &l.CodeExample, &l.CodeLanguage,
		&l.Difficulty, &l.OrderIndex, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return l, nil
}

func (r *LessonRepo) ListByCourse(ctx context.Context, courseID int64) ([]models.Lesson, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+lessonColumns+` FROM lessons WHERE course_id = $1 ORDER BY order_index, id`, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	lessons := make([]models.Lesson, 0)
	for rows.Next() {
		l, err := scanLesson(rows)
		if err != nil {
			return nil, err
		}
		lessons = append(lessons, *l)
	}
	return lessons, rows.Err()
}

func (r *LessonRepo) GetByID(ctx context.Context, id int64) (*models.Lesson, error) {
	return scanLesson(r.db.QueryRow(ctx, `SELECT `+lessonColumns+` FROM lessons WHERE id = $1`, id))
}

func (r *LessonRepo) Create(ctx context.Context, l *models.Lesson) error {
	if l.Difficulty == "" {
		l.Difficulty = models.DifficultyBeginner
	}

	return r.db.QueryRow(ctx, `
		INSERT INTO lessons (course_id, title, content, code_example, code_language, difficulty, order_index)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`,
		l.CourseID, l.Title, l.Content, l.CodeExample, l.CodeLanguage, l.Difficulty, l.OrderIndex,
	).Scan(&l.ID, &l.CreatedAt, &l.UpdatedAt)
}

// Update returns pgx.ErrNoRows when the lesson does not exist.
func (r *LessonRepo) Update(ctx context.Context, l *models.Lesson) error {
	if l.Difficulty == "" {
		l.Difficulty = models.DifficultyBeginner
	}

	return r.db.QueryRow(ctx, `
		UPDATE lessons
		SET course_id = $1, title = $2, content = $3, code_example = $4, code_language = $5,
			difficulty = $6, order_index = $7, updated_at = NOW()
		WHERE id = $8
		RETURNING created_at, updated_at`,
		l.CourseID, l.Title, l.Content, l.CodeExample, l.CodeLanguage, l.Difficulty, l.OrderIndex, l.ID,
	).Scan(&l.CreatedAt, &l.UpdatedAt)
}

func (r *LessonRepo) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, "DELETE FROM lessons WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
