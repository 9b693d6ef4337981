package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/shruti-bhere/ai-learning-platform/internal/database"
	"github.com/shruti-bhere/ai-learning-platform/internal/middleware"
	"github.com/shruti-bhere/ai-learning-platform/internal/models"
)

const (
	refreshTokenTTL   = 7 * 24 * time.Hour
	defaultBcryptCost = 12
)

type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	Exists(ctx context.Context, email, username string) (bool, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateLastLogin(ctx context.Context, userID uuid.UUID) error
}

type SessionStore interface {
	Start(ctx context.Context, s *models.Session) error
	End(ctx context.Context, sessionID, userID uuid.UUID) error
}

// ClientInfo describes where a login came from.
type ClientInfo struct {
	IPAddress string
	UserAgent string
}

type AuthService struct {
	users      UserStore
	sessions   SessionStore
	redis      *redis.Client
	jwt        *middleware.JWTAuth
	adminEmail string
	bcryptCost int
}

func NewAuthService(users UserStore, sessions SessionStore, redisClient *redis.Client, jwt *middleware.JWTAuth, adminEmail string) *AuthService {
	return &AuthService{
		users:      users,
		sessions:   sessions,
		redis:      redisClient,
		jwt:        jwt,
		adminEmail: strings.ToLower(strings.TrimSpace(adminEmail)),
		bcryptCost: defaultBcryptCost,
	}
}

func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest, client ClientInfo) (*models.AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	username := strings.TrimSpace(req.Username)

	exists, err := s.users.Exists(ctx, email, username)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, &ConflictError{Message: "User already exists"}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		IsAdmin:      s.adminEmail != "" && email == s.adminEmail,
	}

	if err := s.users.Create(ctx, user); err != nil {
		// Lost a race with a concurrent registration.
		if database.IsUniqueViolation(err) {
			return nil, &ConflictError{Message: "User already exists"}
		}
		return nil, err
	}

	return s.startSession(ctx, user, client)
}

func (s *AuthService) Login(ctx context.Context, req models.LoginRequest, client ClientInfo) (*models.AuthResponse, error) {
	var (
		user *models.User
		err  error
	)
	if req.Email != "" {
		user, err = s.users.GetByEmail(ctx, strings.TrimSpace(req.Email))
	} else {
		user, err = s.users.GetByUsername(ctx, strings.TrimSpace(req.Username))
	}
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &UnauthorizedError{Message: "Invalid credentials"}
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, &UnauthorizedError{Message: "Invalid credentials"}
	}

	if err := s.users.UpdateLastLogin(ctx, user.ID); err != nil {
		log.Printf("login: failed to stamp last login for %s: %v", user.ID, err)
	}

	return s.startSession(ctx, user, client)
}

// Refresh trades a refresh token for a new token pair. The old refresh token
// stops working.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*models.AuthTokens, error) {
	key := "refresh:" + refreshToken

	value, err := s.redis.GetDel(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, &UnauthorizedError{Message: "Invalid or expired refresh token. Please log in again."}
		}
		return nil, fmt.Errorf("failed to read refresh token: %w", err)
	}

	userID, sessionID, err := parseRefreshValue(value)
	if err != nil {
		return nil, &UnauthorizedError{Message: "Invalid or expired refresh token. Please log in again."}
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &UnauthorizedError{Message: "Account no longer exists"}
		}
		return nil, err
	}

	return s.issueTokens(ctx, user, sessionID)
}

// Logout revokes the refresh token and closes the session. Both are optional
// in the request; whatever is given is cleaned up.
func (s *AuthService) Logout(ctx context.Context, userID uuid.UUID, req models.LogoutRequest) error {
	sessionID := uuid.Nil
	if req.SessionID != nil {
		sessionID = *req.SessionID
	}

	if req.RefreshToken != "" {
		key := "refresh:" + req.RefreshToken
		value, err := s.redis.Get(ctx, key).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return fmt.Errorf("failed to read refresh token: %w", err)
		}
		if owner, sid, perr := parseRefreshValue(value); err == nil && perr == nil && owner == userID {
			if err := s.redis.Del(ctx, key).Err(); err != nil {
				return fmt.Errorf("failed to revoke refresh token: %w", err)
			}
			if sessionID == uuid.Nil {
				sessionID = sid
			}
		}
	}

	if sessionID != uuid.Nil {
		if err := s.sessions.End(ctx, sessionID, userID); err != nil {
			return err
		}
	}
	return nil
}

func (s *AuthService) Me(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, notFound(err, "User not found")
	}
	return user, nil
}

func (s *AuthService) startSession(ctx context.Context, user *models.User, client ClientInfo) (*models.AuthResponse, error) {
	session := &models.Session{
		UserID:    user.ID,
		IPAddress: client.IPAddress,
		UserAgent: client.UserAgent,
	}
	if err := s.sessions.Start(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to start session: %w", err)
	}

	tokens, err := s.issueTokens(ctx, user, session.ID)
	if err != nil {
		return nil, err
	}

	return &models.AuthResponse{AuthTokens: *tokens, User: user}, nil
}

func (s *AuthService) issueTokens(ctx context.Context, user *models.User, sessionID uuid.UUID) (*models.AuthTokens, error) {
	accessToken, err := s.jwt.GenerateAccessToken(user.ID, user.Email, user.IsAdmin)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := generateToken(64)
	if err != nil {
		return nil, err
	}

	err = s.redis.Set(ctx, "refresh:"+refreshToken, user.ID.String()+":"+sessionID.String(), refreshTokenTTL).Err()
	if err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &models.AuthTokens{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(middleware.AccessTokenTTL.Seconds()),
		SessionID:    sessionID,
	}, nil
}

func parseRefreshValue(value string) (userID, sessionID uuid.UUID, err error) {
	userPart, sessionPart, ok := strings.Cut(value, ":")
	if !ok {
		return uuid.Nil, uuid.Nil, fmt.Errorf("malformed refresh value")
	}
	if userID, err = uuid.Parse(userPart); err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	if sessionID, err = uuid.Parse(sessionPart); err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	return userID, sessionID, nil
}

func generateToken(bytes int) (string, error) {
	b := make([]byte, bytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
