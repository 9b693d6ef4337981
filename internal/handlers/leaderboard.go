package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/shruti-bhere/ai-learning-platform/internal/middleware"
	"github.com/shruti-bhere/ai-learning-platform/internal/models"
)

type LeaderboardAPI interface {
	Top(ctx context.Context, period string, limit int) ([]models.LeaderboardEntry, error)
	RankOf(ctx context.Context, userID uuid.UUID, period string) (*models.UserRank, error)
}

type LeaderboardHandler struct {
	leaderboardService LeaderboardAPI
}

func NewLeaderboardHandler(leaderboardService LeaderboardAPI) *LeaderboardHandler {
	return &LeaderboardHandler{leaderboardService: leaderboardService}
}

// Top answers GET /leaderboard?period=all|weekly|monthly&limit=N.
func (h *LeaderboardHandler) Top(w http.ResponseWriter, r *http.Request) {
	period := r.URL.Query().Get("period")

	entries, err := h.leaderboardService.Top(r.Context(), period, queryInt(r, "limit"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if entries == nil {
		entries = []models.LeaderboardEntry{}
	}
	if period == "" {
		period = models.PeriodAll
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"period":  period,
		"entries": entries,
	})
}

func (h *LeaderboardHandler) Me(w http.ResponseWriter, r *http.Request) {
	rank, err := h.leaderboardService.RankOf(r.Context(), middleware.GetUserID(r.Context()), r.URL.Query().Get("period"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rank)
}
