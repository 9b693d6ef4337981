package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/shruti-bhere/ai-learning-platform/internal/handlers"
	"github.com/shruti-bhere/ai-learning-platform/internal/middleware"
	"github.com/shruti-bhere/ai-learning-platform/internal/websocket"
)

func New(
	jwtAuth *middleware.JWTAuth,
	adminChecker middleware.AdminChecker,
	authLimiter *middleware.RateLimiter,
	execLimiter *middleware.RateLimiter,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	courseHandler *handlers.CourseHandler,
	progressHandler *handlers.ProgressHandler,
	leaderboardHandler *handlers.LeaderboardHandler,
	adminHandler *handlers.AdminHandler,
	executeHandler *handlers.ExecuteHandler,
	healthHandler *handlers.HealthHandler,
	wsHub *websocket.Hub,
	frontendURL string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(frontendURL))

	adminOnly := middleware.AdminOnly(adminChecker)

	r.Get("/health", healthHandler.Health)

	r.Route("/api", func(r chi.Router) {

		// ──── Auth Routes ────
		r.Route("/auth", func(r chi.Router) {
			r.Use(authLimiter.Middleware)
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/refresh", authHandler.Refresh)

			r.Group(func(r chi.Router) {
				r.Use(jwtAuth.Middleware)
				r.Post("/logout", authHandler.Logout)
				r.Get("/me", authHandler.Me)
			})
		})

		// ──── User Routes ────
		r.Route("/user", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/profile", userHandler.GetProfile)
			r.Put("/profile", userHandler.UpdateProfile)
			r.Put("/password", userHandler.ChangePassword)
			r.Get("/stats", userHandler.Stats)
		})

		// ──── Course Routes (reads public, writes admin) ────
		r.Route("/courses", func(r chi.Router) {
			r.Get("/", courseHandler.List)
			r.Get("/{id}", courseHandler.Get)

			r.Group(func(r chi.Router) {
				r.Use(jwtAuth.Middleware, adminOnly)
				r.Post("/", courseHandler.Create)
				r.Put("/{id}", courseHandler.Update)
				r.Delete("/{id}", courseHandler.Delete)
			})
		})

		// ──── Lesson Routes ────
		r.Route("/lessons", func(r chi.Router) {
			r.Get("/course/{courseId}", courseHandler.LessonsByCourse)
			r.Get("/{id}", courseHandler.GetLesson)

			r.Group(func(r chi.Router) {
				r.Use(jwtAuth.Middleware, adminOnly)
				r.Post("/", courseHandler.CreateLesson)
				r.Put("/{id}", courseHandler.UpdateLesson)
				r.Delete("/{id}", courseHandler.DeleteLesson)
			})
		})

		// ──── Topic Routes ────
		r.Route("/topics", func(r chi.Router) {
			r.Use(jwtAuth.Middleware, adminOnly)
			r.Post("/", courseHandler.CreateTopic)
			r.Put("/{id}", courseHandler.UpdateTopic)
			r.Delete("/{id}", courseHandler.DeleteTopic)
		})

		// ──── Progress Routes ────
		r.Route("/progress", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/", progressHandler.All)
			r.Post("/lesson", progressHandler.RecordLesson)
			r.Post("/topic", progressHandler.RecordTopic)
			r.Get("/course/{courseId}", progressHandler.Course)
		})

		// ──── Leaderboard Routes ────
		r.Route("/leaderboard", func(r chi.Router) {
			r.Get("/", leaderboardHandler.Top)

			r.Group(func(r chi.Router) {
				r.Use(jwtAuth.Middleware)
				r.Get("/me", leaderboardHandler.Me)
			})
		})

		// ──── Admin Routes ────
		r.Route("/admin", func(r chi.Router) {
			r.Use(jwtAuth.Middleware, adminOnly)
			r.Get("/dashboard", adminHandler.Dashboard)
			r.Get("/users", adminHandler.ListUsers)
			r.Put("/users/{id}/promote", adminHandler.Promote)
			r.Put("/users/{id}/demote", adminHandler.Demote)
			r.Get("/sessions", adminHandler.Sessions)
			r.Get("/activity", adminHandler.Activity)
		})

		// ──── Code Execution Routes ────
		r.Route("/execute", func(r chi.Router) {
			r.Get("/languages", executeHandler.Languages)

			r.Group(func(r chi.Router) {
				r.Use(jwtAuth.Middleware, execLimiter.Middleware)
				r.Post("/", executeHandler.Run)
				r.Post("/terminal", executeHandler.Terminal)
				r.Post("/async", executeHandler.Submit)
				r.Get("/jobs/{id}", executeHandler.Job)
			})
		})

		r.With(jwtAuth.Middleware, execLimiter.Middleware).Post("/analyze", executeHandler.Analyze)

		// ──── WebSocket (token in query string) ────
		r.Get("/ws", wsHub.HandleWebSocket)
	})

	return r
}
