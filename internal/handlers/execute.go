package handlers

import (
	"context"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/shruti-bhere/ai-learning-platform/internal/middleware"
	"github.com/shruti-bhere/ai-learning-platform/internal/models"
	"github.com/shruti-bhere/ai-learning-platform/internal/sandbox"
)

type ExecutionAPI interface {
	Languages() []sandbox.Language
	Run(ctx context.Context, req models.ExecRequest) (models.ExecResult, error)
	Terminal(ctx context.Context, req models.TerminalRequest) (models.ExecResult, error)
	Analyze(ctx context.Context, req models.AnalyzeRequest) (*models.AnalysisResult, error)
	Submit(ctx context.Context, userID uuid.UUID, req models.ExecRequest) (*models.ExecJob, error)
	Job(ctx context.Context, userID, jobID uuid.UUID) (*models.ExecJob, error)
}

// ExecuteHandler exposes the sandbox. A program that fails still gets a 200
// with success=false; 500 is reserved for runs that never started.
type ExecuteHandler struct {
	execService ExecutionAPI
}

func NewExecuteHandler(execService ExecutionAPI) *ExecuteHandler {
	return &ExecuteHandler{execService: execService}
}

func (h *ExecuteHandler) Languages(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.execService.Languages())
}

func (h *ExecuteHandler) Run(w http.ResponseWriter, r *http.Request) {
	var req models.ExecRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.execService.Run(r.Context(), req)
	if err != nil {
		h.writeSetupFailure(w, r, result, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *ExecuteHandler) Terminal(w http.ResponseWriter, r *http.Request) {
	var req models.TerminalRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.execService.Terminal(r.Context(), req)
	if err != nil {
		h.writeSetupFailure(w, r, result, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *ExecuteHandler) writeSetupFailure(w http.ResponseWriter, r *http.Request, result models.ExecResult, err error) {
	log.Printf("[%s] execution setup failed: %v", middleware.GetRequestID(r), err)
	result.Success = false
	result.Error = "Failed to start execution"
	writeJSON(w, http.StatusInternalServerError, result)
}

func (h *ExecuteHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req models.AnalyzeRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	analysis, err := h.execService.Analyze(r.Context(), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, analysis)
}

func (h *ExecuteHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req models.ExecRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	job, err := h.execService.Submit(r.Context(), middleware.GetUserID(r.Context()), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"job_id": job.ID,
		"status": job.Status,
	})
}

func (h *ExecuteHandler) Job(w http.ResponseWriter, r *http.Request) {
	jobID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid job id", r))
		return
	}

	job, err := h.execService.Job(r.Context(), middleware.GetUserID(r.Context()), jobID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}
