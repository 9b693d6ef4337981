package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shruti-bhere/ai-learning-platform/internal/cache"
	"github.com/shruti-bhere/ai-learning-platform/internal/config"
	"github.com/shruti-bhere/ai-learning-platform/internal/database"
	"github.com/shruti-bhere/ai-learning-platform/internal/handlers"
	"github.com/shruti-bhere/ai-learning-platform/internal/middleware"
	"github.com/shruti-bhere/ai-learning-platform/internal/repository"
	"github.com/shruti-bhere/ai-learning-platform/internal/router"
	"github.com/shruti-bhere/ai-learning-platform/internal/sandbox"
	"github.com/shruti-bhere/ai-learning-platform/internal/services"
	"github.com/shruti-bhere/ai-learning-platform/internal/websocket"
	"github.com/shruti-bhere/ai-learning-platform/internal/worker"
)

func main() {
	log.Println("🚀 Starting learning platform backend...")

	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	log.Println("✓ Environment variables loaded")

	// ──── Step 2: Initialize PostgreSQL Connection Pool ────
	pool, err := database.NewPostgresPool(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("✗ PostgreSQL connection failed: %v", err)
	}
	defer pool.Close()
	log.Println("✓ PostgreSQL pool created")

	// ──── Step 3: Initialize Redis Clients ────
	redisClients, err := database.NewRedisClients(cfg.RedisURL)
	if err != nil {
		log.Fatalf("✗ Redis configuration invalid: %v", err)
	}
	defer redisClients.Close()
	log.Println("✓ Redis clients created")

	// ──── Step 4: Run Database Migrations ────
	bgCtx, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()

	migrateCtx, cancelMigrate := context.WithTimeout(bgCtx, 30*time.Second)
	if err := database.RunMigrations(migrateCtx, pool); err != nil {
		// Serve anyway; requests fail until the database comes back.
		log.Printf("⚠ Database migration failed, retrying in background: %v", err)
		go database.RetryMigrations(bgCtx, pool, 10*time.Second)
	} else {
		log.Println("✓ Database migrations applied")
	}
	cancelMigrate()

	// ──── Initialize Repositories ────
	userRepo := repository.NewUserRepo(pool)
	sessionRepo := repository.NewSessionRepo(pool)
	courseRepo := repository.NewCourseRepo(pool)
	lessonRepo := repository.NewLessonRepo(pool)
	topicRepo := repository.NewTopicRepo(pool)
	progressRepo := repository.NewProgressRepo(pool)
	leaderboardRepo := repository.NewLeaderboardRepo(pool)
	adminRepo := repository.NewAdminRepo(pool)
	jobRepo := repository.NewJobRepo(redisClients.Main)

	appCache := cache.New(redisClients.Main)
	presence := websocket.NewPresence(redisClients.Main)

	// ──── Step 5: Initialize Gemini Reviewer (optional) ────
	var reviewer sandbox.Reviewer
	if cfg.GeminiAPIKey != "" {
		codeReviewer, err := services.NewCodeReviewer(cfg.GeminiAPIKey, cfg.GeminiModel, 2)
		if err != nil {
			log.Printf("⚠ Gemini reviewer unavailable, analysis runs without AI review: %v", err)
		} else {
			defer codeReviewer.Close()
			reviewer = codeReviewer
			log.Println("✓ Gemini reviewer initialized")
		}
	} else {
		log.Println("⚠ GEMINI_API_KEY not set, analysis runs without AI review")
	}

	// ──── Initialize Services ────
	jwtAuth := middleware.NewJWTAuth(cfg.JWTSecret)
	runner := sandbox.NewRunner(sandbox.Config{
		WorkDir:         cfg.ExecWorkDir,
		Timeout:         cfg.ExecTimeout,
		TerminalTimeout: cfg.TerminalTimeout,
		MaxConcurrent:   cfg.ExecMaxConcurrent,
	})

	authService := services.NewAuthService(userRepo, sessionRepo, redisClients.Main, jwtAuth, cfg.AdminEmail)
	userService := services.NewUserService(userRepo, appCache, cfg.CacheTTL)
	courseService := services.NewCourseService(courseRepo, lessonRepo, topicRepo, appCache, cfg.CacheTTL)
	progressService := services.NewProgressService(progressRepo, courseRepo, appCache)
	leaderboardService := services.NewLeaderboardService(leaderboardRepo, appCache, cfg.LeaderboardTTL)
	adminService := services.NewAdminService(adminRepo, userRepo, sessionRepo, presence, appCache)
	executionService := services.NewExecutionService(runner, jobRepo, reviewer)

	// ──── Initialize Handlers ────
	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService)
	courseHandler := handlers.NewCourseHandler(courseService)
	progressHandler := handlers.NewProgressHandler(progressService)
	leaderboardHandler := handlers.NewLeaderboardHandler(leaderboardService)
	adminHandler := handlers.NewAdminHandler(adminService)
	executeHandler := handlers.NewExecuteHandler(executionService)
	healthHandler := handlers.NewHealthHandler(map[string]handlers.Pinger{
		"postgres": pool,
		"redis": handlers.PingFunc(func(ctx context.Context) error {
			return redisClients.Main.Ping(ctx).Err()
		}),
	})

	// ──── Step 6: Start Execution Worker Pool ────
	workerPool := worker.NewPool(redisClients.Main, jobRepo, runner, cfg.ExecWorkers)
	workerPool.Start()
	log.Printf("✓ Worker pool started (%d goroutines)", cfg.ExecWorkers)

	maintenance := services.NewMaintenanceScheduler(userRepo, sessionRepo, redisClients.Main, appCache)
	maintenance.Start()
	log.Println("✓ Maintenance scheduler started")

	// ──── Step 7: Start WebSocket Hub ────
	wsHub := websocket.NewHub(redisClients.PubSub, jwtAuth, presence)
	log.Println("✓ WebSocket hub started")

	// ──── Step 8: Start HTTP Server ────
	r := router.New(
		jwtAuth,
		userRepo,
		middleware.NewRateLimiter(redisClients.Main, "auth", 10, time.Minute),
		middleware.NewRateLimiter(redisClients.Main, "exec", 30, time.Minute),
		authHandler,
		userHandler,
		courseHandler,
		progressHandler,
		leaderboardHandler,
		adminHandler,
		executeHandler,
		healthHandler,
		wsHub,
		cfg.FrontendURL,
	)

	server := &http.Server{
		Addr:        fmt.Sprintf(":%s", cfg.Port),
		Handler:     r,
		ReadTimeout: 15 * time.Second,
		// Compile plus run can take close to two execution timeouts.
		WriteTimeout: 2*cfg.ExecTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	idle := make(chan struct{})
	go func() {
		defer close(idle)

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			log.Printf("HTTP shutdown: %v", err)
		}

		wsHub.Close()
		workerPool.Stop()
		maintenance.Stop()
		stopBackground()
	}()

	log.Printf("✓ Backend ready on http://localhost:%s", cfg.Port)
	log.Printf("  API: http://localhost:%s/api", cfg.Port)
	log.Printf("  WS:  ws://localhost:%s/api/ws", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
	<-idle
	log.Println("✓ Shutdown complete")
}
