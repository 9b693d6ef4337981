package models

import "time"

type Course struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Icon        string    `json:"icon"`
	LessonCount int       `json:"lesson_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type CourseDetail struct {
	Course
	Lessons []Lesson `json:"lessons"`
}

type Lesson struct {
	ID           int64     `json:"id"`
	CourseID     int64     `json:"course_id"`
	Title        string    `json:"title"`
	Content      string    `json:"content"`
	CodeExample  *string   `json:"code_example"`
	CodeLanguage *string   `json:"code_language"`
	Difficulty   string    `json:"difficulty"`
	OrderIndex   int       `json:"order_index"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type LessonDetail struct {
	Lesson
	Topics []Topic `json:"topics"`
}

type Topic struct {
	ID         int64     `json:"id"`
	LessonID   int64     `json:"lesson_id"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	OrderIndex int       `json:"order_index"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

const (
	DifficultyBeginner     = "beginner"
	DifficultyIntermediate = "intermediate"
	DifficultyAdvanced     = "advanced"
)

// LessonPoints is what completing a lesson of the given difficulty is worth.
func LessonPoints(difficulty string) int {
	switch difficulty {
	case DifficultyAdvanced:
		return 30
	case DifficultyIntermediate:
		return 20
	default:
		return 10
	}
}

// TopicPoints is what completing a single topic is worth.
const TopicPoints = 5

type CourseRequest struct {
	Name        string `json:"name" validate:"required,max=200"`
	Description string `json:"description" validate:"max=5000"`
	Icon        string `json:"icon" validate:"max=16"`
}

type LessonRequest struct {
	CourseID     int64   `json:"course_id" validate:"required,gt=0"`
	Title        string  `json:"title" validate:"required,max=200"`
	Content      string  `json:"content"`
	CodeExample  *string `json:"code_example"`
	CodeLanguage *string `json:"code_language" validate:"omitempty,max=20"`
	Difficulty   string  `json:"difficulty" validate:"omitempty,oneof=beginner intermediate advanced"`
	OrderIndex   int     `json:"order_index" validate:"gte=0"`
}

type TopicRequest struct {
	LessonID   int64  `json:"lesson_id" validate:"required,gt=0"`
	Title      string `json:"title" validate:"required,max=200"`
	Content    string `json:"content"`
	OrderIndex int    `json:"order_index" validate:"gte=0"`
}
