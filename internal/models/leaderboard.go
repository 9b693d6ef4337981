package models

import "github.com/google/uuid"

const (
	PeriodAll     = "all"
	PeriodWeekly  = "weekly"
	PeriodMonthly = "monthly"
)

type LeaderboardEntry struct {
	Rank          int       `json:"rank"`
	UserID        uuid.UUID `json:"user_id"`
	Username      string    `json:"username"`
	Score         int       `json:"score"`
	TotalPoints   int       `json:"total_points"`
	CurrentStreak int       `json:"current_streak"`
}

type UserRank struct {
	UserID     uuid.UUID `json:"user_id"`
	Period     string    `json:"period"`
	Rank       int       `json:"rank"`
	Score      int       `json:"score"`
	TotalUsers int       `json:"total_users"`
}
