package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/shruti-bhere/ai-learning-platform/internal/middleware"
	"github.com/shruti-bhere/ai-learning-platform/internal/models"
)

type ProgressAPI interface {
	RecordLesson(ctx context.Context, userID uuid.UUID, req models.LessonProgressRequest) (*models.ProgressResult, error)
	RecordTopic(ctx context.Context, userID uuid.UUID, req models.TopicProgressRequest) (*models.ProgressResult, error)
	All(ctx context.Context, userID uuid.UUID) (*models.UserProgress, error)
	Course(ctx context.Context, userID uuid.UUID, courseID int64) (*models.CourseProgress, error)
}

type ProgressHandler struct {
	progressService ProgressAPI
}

func NewProgressHandler(progressService ProgressAPI) *ProgressHandler {
	return &ProgressHandler{progressService: progressService}
}

func (h *ProgressHandler) RecordLesson(w http.ResponseWriter, r *http.Request) {
	var req models.LessonProgressRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.progressService.RecordLesson(r.Context(), middleware.GetUserID(r.Context()), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *ProgressHandler) RecordTopic(w http.ResponseWriter, r *http.Request) {
	var req models.TopicProgressRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.progressService.RecordTopic(r.Context(), middleware.GetUserID(r.Context()), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *ProgressHandler) All(w http.ResponseWriter, r *http.Request) {
	progress, err := h.progressService.All(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if progress.Lessons == nil {
		progress.Lessons = []models.LessonProgress{}
	}
	if progress.Topics == nil {
		progress.Topics = []models.TopicProgress{}
	}
	writeJSON(w, http.StatusOK, progress)
}

func (h *ProgressHandler) Course(w http.ResponseWriter, r *http.Request) {
	courseID, ok := pathID(w, r, "courseId")
	if !ok {
		return
	}

	progress, err := h.progressService.Course(r.Context(), middleware.GetUserID(r.Context()), courseID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if progress.Lessons == nil {
		progress.Lessons = []models.LessonProgress{}
	}
	writeJSON(w, http.StatusOK, progress)
}
