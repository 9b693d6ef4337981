package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/shruti-bhere/ai-learning-platform/internal/middleware"
	"github.com/shruti-bhere/ai-learning-platform/internal/models"
	"github.com/shruti-bhere/ai-learning-platform/internal/services"
)

type AdminAPI interface {
	Dashboard(ctx context.Context) (*models.DashboardStats, error)
	ListUsers(ctx context.Context, search string, limit, offset int) (*services.UserPage, error)
	SetAdmin(ctx context.Context, actorID, userID uuid.UUID, isAdmin bool) error
	Sessions(ctx context.Context, limit int) ([]models.SessionReport, error)
	Activity(ctx context.Context, days int) ([]models.ActivityTotal, error)
}

type AdminHandler struct {
	adminService AdminAPI
}

func NewAdminHandler(adminService AdminAPI) *AdminHandler {
	return &AdminHandler{adminService: adminService}
}

func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.adminService.Dashboard(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	page, err := h.adminService.ListUsers(r.Context(), r.URL.Query().Get("search"), queryInt(r, "limit"), queryInt(r, "offset"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if page.Users == nil {
		page.Users = []models.User{}
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *AdminHandler) Promote(w http.ResponseWriter, r *http.Request) {
	h.setAdmin(w, r, true)
}

func (h *AdminHandler) Demote(w http.ResponseWriter, r *http.Request) {
	h.setAdmin(w, r, false)
}

func (h *AdminHandler) setAdmin(w http.ResponseWriter, r *http.Request, isAdmin bool) {
	userID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid user id", r))
		return
	}

	if err := h.adminService.SetAdmin(r.Context(), middleware.GetUserID(r.Context()), userID, isAdmin); err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user_id":  userID,
		"is_admin": isAdmin,
	})
}

func (h *AdminHandler) Sessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.adminService.Sessions(r.Context(), queryInt(r, "limit"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if sessions == nil {
		sessions = []models.SessionReport{}
	}
	writeJSON(w, http.StatusOK, sessions)
}

func (h *AdminHandler) Activity(w http.ResponseWriter, r *http.Request) {
	totals, err := h.adminService.Activity(r.Context(), queryInt(r, "days"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if totals == nil {
		totals = []models.ActivityTotal{}
	}
	writeJSON(w, http.StatusOK, totals)
}
