package models

import (
	"time"

	"github.com/google/uuid"
)

type DashboardStats struct {
	TotalUsers        int       `json:"total_users"`
	AdminUsers        int       `json:"admin_users"`
	NewUsersThisWeek  int       `json:"new_users_this_week"`
	TotalCourses      int       `json:"total_courses"`
	TotalLessons      int       `json:"total_lessons"`
	TotalTopics       int       `json:"total_topics"`
	LessonCompletions int       `json:"lesson_completions"`
	TopicCompletions  int       `json:"topic_completions"`
	TotalPoints       int64     `json:"total_points"`
	ActiveSessions    int       `json:"active_sessions"`
	ActiveUsersNow    int64     `json:"active_users_now"`
	GeneratedAt       time.Time `json:"generated_at"`
}

type SessionReport struct {
	ID              uuid.UUID  `json:"id"`
	UserID          uuid.UUID  `json:"user_id"`
	Username        string     `json:"username"`
	LoginAt         time.Time  `json:"login_at"`
	LogoutAt        *time.Time `json:"logout_at"`
	DurationSeconds int64      `json:"duration_seconds"`
	IPAddress       string     `json:"ip_address"`
	UserAgent       string     `json:"user_agent"`
}

type ActivityTotal struct {
	Date             time.Time `json:"date"`
	ActiveUsers      int       `json:"active_users"`
	PointsEarned     int       `json:"points_earned"`
	TopicsCompleted  int       `json:"topics_completed"`
	LessonsCompleted int       `json:"lessons_completed"`
}
