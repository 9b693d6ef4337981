package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shruti-bhere/ai-learning-platform/internal/models"
	"github.com/shruti-bhere/ai-learning-platform/internal/services"
)

type stubUsers struct {
	renamedTo string
}

func (s *stubUsers) Profile(_ context.Context, userID uuid.UUID) (*models.User, error) {
	return &models.User{ID: userID, Username: "ada"}, nil
}

func (s *stubUsers) UpdateProfile(_ context.Context, userID uuid.UUID, req models.UpdateProfileRequest) (*models.User, error) {
	if req.Username == "taken" {
		return nil, &services.ConflictError{Message: "Username already taken"}
	}
	s.renamedTo = req.Username
	return &models.User{ID: userID, Username: req.Username}, nil
}

func (s *stubUsers) ChangePassword(_ context.Context, _ uuid.UUID, req models.ChangePasswordRequest) error {
	if req.CurrentPassword != "old-secret" {
		return &services.UnauthorizedError{Message: "Current password is incorrect"}
	}
	return nil
}

func (s *stubUsers) Stats(context.Context, uuid.UUID) (*models.UserStats, error) {
	return &models.UserStats{TotalPoints: 40, RecentActivity: []models.DailyActivity{}}, nil
}

func TestUserHandler_UpdateProfile(t *testing.T) {
	stub := &stubUsers{}
	h := NewUserHandler(stub)

	rr := httptest.NewRecorder()
	h.UpdateProfile(rr, withUser(jsonRequest(t, http.MethodPut, "/api/user/profile", map[string]string{"username": "grace_h"}), uuid.New()))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "grace_h", stub.renamedTo)

	rr = httptest.NewRecorder()
	h.UpdateProfile(rr, withUser(jsonRequest(t, http.MethodPut, "/api/user/profile", map[string]string{"username": "no spaces"}), uuid.New()))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, decodeError(t, rr).Fields, "username")

	rr = httptest.NewRecorder()
	h.UpdateProfile(rr, withUser(jsonRequest(t, http.MethodPut, "/api/user/profile", map[string]string{"username": "taken"}), uuid.New()))
	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestUserHandler_ChangePassword(t *testing.T) {
	h := NewUserHandler(&stubUsers{})

	rr := httptest.NewRecorder()
	h.ChangePassword(rr, withUser(jsonRequest(t, http.MethodPut, "/api/user/password", map[string]string{
		"current_password": "old-secret", "new_password": "new-secret",
	}), uuid.New()))
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	h.ChangePassword(rr, withUser(jsonRequest(t, http.MethodPut, "/api/user/password", map[string]string{
		"current_password": "wrong", "new_password": "new-secret",
	}), uuid.New()))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = httptest.NewRecorder()
	h.ChangePassword(rr, withUser(jsonRequest(t, http.MethodPut, "/api/user/password", map[string]string{
		"current_password": "old-secret", "new_password": "123",
	}), uuid.New()))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, decodeError(t, rr).Fields, "new_password")
}

func TestUserHandler_Stats(t *testing.T) {
	h := NewUserHandler(&stubUsers{})

	rr := httptest.NewRecorder()
	h.Stats(rr, withUser(httptest.NewRequest(http.MethodGet, "/api/user/stats", nil), uuid.New()))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"total_points":40`)
}
