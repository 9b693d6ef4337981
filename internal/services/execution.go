package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/shruti-bhere/ai-learning-platform/internal/models"
	"github.com/shruti-bhere/ai-learning-platform/internal/repository"
	"github.com/shruti-bhere/ai-learning-platform/internal/sandbox"
)

type CodeRunner interface {
	Execute(ctx context.Context, req models.ExecRequest) (models.ExecResult, error)
	Terminal(ctx context.Context, line string) (models.ExecResult, error)
	Analyze(ctx context.Context, req models.AnalyzeRequest, reviewer sandbox.Reviewer) (models.AnalysisResult, error)
}

type JobQueue interface {
	Enqueue(ctx context.Context, userID uuid.UUID, req models.ExecRequest) (*models.ExecJob, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.ExecJob, error)
}

// ExecutionService fronts the sandbox for the HTTP layer. A sandbox result
// describing a failed program is not an error; only failures before the
// child process started come back as one.
type ExecutionService struct {
	runner   CodeRunner
	jobs     JobQueue
	reviewer sandbox.Reviewer
}

// NewExecutionService wires the sandbox. reviewer may be nil, in which case
// analysis skips the AI review.
func NewExecutionService(runner CodeRunner, jobs JobQueue, reviewer sandbox.Reviewer) *ExecutionService {
	return &ExecutionService{
		runner:   runner,
		jobs:     jobs,
		reviewer: reviewer,
	}
}

func (s *ExecutionService) Languages() []sandbox.Language {
	return sandbox.Languages()
}

func (s *ExecutionService) Run(ctx context.Context, req models.ExecRequest) (models.ExecResult, error) {
	res, err := s.runner.Execute(ctx, req)
	if err != nil {
		return res, fmt.Errorf("execute %s: %w", req.Language, err)
	}
	return res, nil
}

func (s *ExecutionService) Terminal(ctx context.Context, req models.TerminalRequest) (models.ExecResult, error) {
	res, err := s.runner.Terminal(ctx, req.Command)
	if err != nil {
		return res, fmt.Errorf("terminal: %w", err)
	}
	return res, nil
}

func (s *ExecutionService) Analyze(ctx context.Context, req models.AnalyzeRequest) (*models.AnalysisResult, error) {
	if _, ok := sandbox.Lookup(req.Language); !ok {
		return nil, unsupportedLanguage(req.Language)
	}

	res, err := s.runner.Analyze(ctx, req, s.reviewer)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// Submit queues req for the worker pool.
func (s *ExecutionService) Submit(ctx context.Context, userID uuid.UUID, req models.ExecRequest) (*models.ExecJob, error) {
	if _, ok := sandbox.Lookup(req.Language); !ok {
		return nil, unsupportedLanguage(req.Language)
	}
	return s.jobs.Enqueue(ctx, userID, req)
}

// Job returns a queued job. Jobs of other users are reported as missing.
func (s *ExecutionService) Job(ctx context.Context, userID, jobID uuid.UUID) (*models.ExecJob, error) {
	j, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, repository.ErrJobNotFound) {
			return nil, &NotFoundError{Message: "Job not found"}
		}
		return nil, err
	}
	if j.UserID != userID {
		return nil, &NotFoundError{Message: "Job not found"}
	}
	return j, nil
}

func unsupportedLanguage(language string) error {
	return &ValidationError{Fields: map[string]string{
		"language": fmt.Sprintf("Unsupported language: %s", language),
	}}
}
