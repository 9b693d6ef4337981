package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shruti-bhere/ai-learning-platform/internal/middleware"
	"github.com/shruti-bhere/ai-learning-platform/internal/models"
	"github.com/shruti-bhere/ai-learning-platform/internal/services"
)

func jsonRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) models.APIError {
	t.Helper()
	var resp models.ErrorResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	return resp.Error
}

// ─── Shared helpers ───

func TestHandleServiceError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation", &services.ValidationError{Fields: map[string]string{"x": "bad"}}, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"conflict", &services.ConflictError{Message: "User already exists"}, http.StatusConflict, "CONFLICT"},
		{"not found", &services.NotFoundError{Message: "nope"}, http.StatusNotFound, "NOT_FOUND"},
		{"unauthorized", &services.UnauthorizedError{Message: "no"}, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"forbidden", &services.ForbiddenError{Message: "no"}, http.StatusForbidden, "FORBIDDEN"},
		{"rate limited", &services.RateLimitError{Message: "slow down"}, http.StatusTooManyRequests, "RATE_LIMITED"},
		{"wrapped", errors.Join(errors.New("ctx"), &services.NotFoundError{Message: "deep"}), http.StatusNotFound, "NOT_FOUND"},
		{"unknown", errors.New("pq: connection refused"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set(middleware.RequestIDHeader, "req-1")
			rr := httptest.NewRecorder()

			handleServiceError(rr, req, tc.err)

			assert.Equal(t, tc.status, rr.Code)
			apiErr := decodeError(t, rr)
			assert.Equal(t, tc.code, apiErr.Code)
			assert.Equal(t, "req-1", apiErr.RequestID)
			if tc.code == "INTERNAL_ERROR" {
				assert.NotContains(t, apiErr.Message, "pq")
			}
		})
	}
}

func TestDecodeAndValidate(t *testing.T) {
	t.Run("malformed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{"))
		rr := httptest.NewRecorder()

		var dst models.RegisterRequest
		assert.False(t, decodeAndValidate(rr, req, &dst))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("empty", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
		rr := httptest.NewRecorder()

		var dst models.RegisterRequest
		assert.False(t, decodeAndValidate(rr, req, &dst))
		assert.Equal(t, "Request body is required", decodeError(t, rr).Message)
	})

	t.Run("missing fields", func(t *testing.T) {
		req := jsonRequest(t, http.MethodPost, "/", map[string]string{"username": "al"})
		rr := httptest.NewRecorder()

		var dst models.RegisterRequest
		assert.False(t, decodeAndValidate(rr, req, &dst))
		apiErr := decodeError(t, rr)
		assert.Contains(t, apiErr.Fields, "email")
		assert.Contains(t, apiErr.Fields, "password")
		assert.Contains(t, apiErr.Fields, "username")
	})

	t.Run("too large", func(t *testing.T) {
		big := `{"code":"` + strings.Repeat("x", maxBodyBytes+1) + `","language":"python"}`
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(big))
		rr := httptest.NewRecorder()

		var dst models.ExecRequest
		assert.False(t, decodeAndValidate(rr, req, &dst))
		assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
	})

	t.Run("valid", func(t *testing.T) {
		req := jsonRequest(t, http.MethodPost, "/", map[string]string{"username": "alice", "email": "a@b.co", "password": "secret1"})
		rr := httptest.NewRecorder()

		var dst models.RegisterRequest
		assert.True(t, decodeAndValidate(rr, req, &dst))
		assert.Equal(t, "alice", dst.Username)
	})
}

// ─── Auth ───

type stubAuth struct {
	registerErr error
	lastClient  services.ClientInfo
	loggedOut   uuid.UUID
}

func (s *stubAuth) Register(_ context.Context, req models.RegisterRequest, client services.ClientInfo) (*models.AuthResponse, error) {
	s.lastClient = client
	if s.registerErr != nil {
		return nil, s.registerErr
	}
	return &models.AuthResponse{
		AuthTokens: models.AuthTokens{AccessToken: "access", RefreshToken: "refresh", ExpiresIn: 900},
		User:       &models.User{ID: uuid.New(), Username: req.Username, Email: req.Email},
	}, nil
}

func (s *stubAuth) Login(context.Context, models.LoginRequest, services.ClientInfo) (*models.AuthResponse, error) {
	return nil, &services.UnauthorizedError{Message: "Invalid credentials"}
}

func (s *stubAuth) Refresh(context.Context, string) (*models.AuthTokens, error) {
	return &models.AuthTokens{AccessToken: "new"}, nil
}

func (s *stubAuth) Logout(_ context.Context, userID uuid.UUID, _ models.LogoutRequest) error {
	s.loggedOut = userID
	return nil
}

func (s *stubAuth) Me(_ context.Context, userID uuid.UUID) (*models.User, error) {
	return &models.User{ID: userID}, nil
}

func TestAuthHandler_Register(t *testing.T) {
	stub := &stubAuth{}
	h := NewAuthHandler(stub)

	req := jsonRequest(t, http.MethodPost, "/api/auth/register", map[string]string{
		"username": "alice",
		"email":    "alice@example.com",
		"password": "secret123",
	})
	req.RemoteAddr = "203.0.113.9:51234"
	req.Header.Set("User-Agent", "test-agent")
	rr := httptest.NewRecorder()

	h.Register(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code)
	var resp models.AuthResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "access", resp.AccessToken)
	assert.Equal(t, "alice", resp.User.Username)
	assert.Equal(t, "203.0.113.9", stub.lastClient.IPAddress)
	assert.Equal(t, "test-agent", stub.lastClient.UserAgent)
}

func TestAuthHandler_RegisterConflict(t *testing.T) {
	h := NewAuthHandler(&stubAuth{registerErr: &services.ConflictError{Message: "User already exists"}})

	req := jsonRequest(t, http.MethodPost, "/api/auth/register", map[string]string{
		"username": "alice",
		"email":    "alice@example.com",
		"password": "secret123",
	})
	rr := httptest.NewRecorder()

	h.Register(rr, req)

	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, "User already exists", decodeError(t, rr).Message)
}

func TestAuthHandler_LoginNeedsIdentifier(t *testing.T) {
	h := NewAuthHandler(&stubAuth{})

	req := jsonRequest(t, http.MethodPost, "/api/auth/login", map[string]string{"password": "x"})
	rr := httptest.NewRecorder()

	h.Login(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestAuthHandler_LoginInvalid(t *testing.T) {
	h := NewAuthHandler(&stubAuth{})

	req := jsonRequest(t, http.MethodPost, "/api/auth/login", map[string]string{"email": "a@b.co", "password": "x"})
	rr := httptest.NewRecorder()

	h.Login(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestAuthHandler_LogoutUsesCaller(t *testing.T) {
	stub := &stubAuth{}
	h := NewAuthHandler(stub)
	userID := uuid.New()

	req := jsonRequest(t, http.MethodPost, "/api/auth/logout", map[string]string{"refresh_token": "abc"})
	req = req.WithContext(middleware.WithUserID(req.Context(), userID))
	rr := httptest.NewRecorder()

	h.Logout(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, userID, stub.loggedOut)
}

// ─── Health ───

func TestHealth(t *testing.T) {
	up := PingFunc(func(context.Context) error { return nil })
	down := PingFunc(func(context.Context) error { return errors.New("refused") })

	rr := httptest.NewRecorder()
	NewHealthHandler(map[string]Pinger{"postgres": up, "redis": up}).Health(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	NewHealthHandler(map[string]Pinger{"postgres": up, "redis": down}).Health(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)

	var body struct {
		Status     string            `json:"status"`
		Components map[string]string `json:"components"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	assert.Equal(t, "degraded", body.Status)
	assert.Equal(t, "down", body.Components["redis"])
}

// serve routes req through a chi router so URL parameters resolve.
func serve(pattern string, method string, h http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.Method(method, pattern, h)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}
