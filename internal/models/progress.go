package models

import (
	"time"

	"github.com/google/uuid"
)

type LessonProgress struct {
	LessonID           int64      `json:"lesson_id"`
	UserID             uuid.UUID  `json:"user_id"`
	Completed          bool       `json:"completed"`
	ProgressPercentage int        `json:"progress_percentage"`
	PointsEarned       int        `json:"points_earned"`
	CompletedAt        *time.Time `json:"completed_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

type TopicProgress struct {
	TopicID            int64      `json:"topic_id"`
	UserID             uuid.UUID  `json:"user_id"`
	Completed          bool       `json:"completed"`
	ProgressPercentage int        `json:"progress_percentage"`
	PointsEarned       int        `json:"points_earned"`
	CompletedAt        *time.Time `json:"completed_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

type DailyActivity struct {
	Date             time.Time `json:"date"`
	PointsEarned     int       `json:"points_earned"`
	TopicsCompleted  int       `json:"topics_completed"`
	LessonsCompleted int       `json:"lessons_completed"`
}

type LessonProgressRequest struct {
	LessonID           int64 `json:"lesson_id" validate:"required,gt=0"`
	ProgressPercentage *int  `json:"progress_percentage" validate:"required,gte=0,lte=100"`
}

type TopicProgressRequest struct {
	TopicID   int64 `json:"topic_id" validate:"required,gt=0"`
	Completed bool  `json:"completed"`
}

// ProgressEvent is one progress submission as the repository applies it.
type ProgressEvent struct {
	UserID     uuid.UUID
	LessonID   int64
	TopicID    int64
	Percentage int
	Points     int
	Today      time.Time
}

// ProgressResult is returned for every progress submission.
type ProgressResult struct {
	Completed          bool `json:"completed"`
	ProgressPercentage int  `json:"progress_percentage"`
	PointsAwarded      int  `json:"points_awarded"`
	TotalPoints        int  `json:"total_points"`
	Currency           int  `json:"currency"`
	CurrentStreak      int  `json:"current_streak"`
	LongestStreak      int  `json:"longest_streak"`
}

type UserProgress struct {
	Lessons []LessonProgress `json:"lessons"`
	Topics  []TopicProgress  `json:"topics"`
}

type CourseProgress struct {
	CourseID          int64            `json:"course_id"`
	TotalLessons      int              `json:"total_lessons"`
	CompletedLessons  int              `json:"completed_lessons"`
	CompletionPercent int              `json:"completion_percentage"`
	Lessons           []LessonProgress `json:"lessons"`
}
