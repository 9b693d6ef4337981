package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/shruti-bhere/ai-learning-platform/internal/models"
)

const (
	// ExecQueue is the Redis list async executions are pushed onto.
	ExecQueue = "queue:exec"
	jobTTL    = time.Hour
)

// ErrJobNotFound is returned for unknown or expired jobs.
var ErrJobNotFound = errors.New("job not found")

// JobRepo keeps async execution jobs in Redis under exec_job:<id>.
type JobRepo struct {
	redis *redis.Client
}

func NewJobRepo(client *redis.Client) *JobRepo {
	return &JobRepo{redis: client}
}

func jobKey(id uuid.UUID) string {
	return fmt.Sprintf("exec_job:%s", id.String())
}

// Enqueue stores a new pending job and pushes it onto ExecQueue.
func (r *JobRepo) Enqueue(ctx context.Context, userID uuid.UUID, req models.ExecRequest) (*models.ExecJob, error) {
	j := &models.ExecJob{
		ID:        uuid.New(),
		UserID:    userID,
		Request:   req,
		Status:    models.JobStatusPending,
		CreatedAt: time.Now().UTC(),
	}

	data, err := json.Marshal(j)
	if err != nil {
		return nil, err
	}

	pipe := r.redis.TxPipeline()
	pipe.Set(ctx, jobKey(j.ID), data, jobTTL)
	pipe.RPush(ctx, ExecQueue, j.ID.String())
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("enqueue job: %w", err)
	}
	return j, nil
}

func (r *JobRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.ExecJob, error) {
	data, err := r.redis.Get(ctx, jobKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrJobNotFound
		}
		return nil, err
	}

	var j models.ExecJob
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("decode job %s: %w", id, err)
	}
	return &j, nil
}

func (r *JobRepo) Save(ctx context.Context, j *models.ExecJob) error {
	data, err := json.Marshal(j)
	if err != nil {
		return err
	}
	return r.redis.Set(ctx, jobKey(j.ID), data, jobTTL).Err()
}

func (r *JobRepo) MarkRunning(ctx context.Context, j *models.ExecJob) error {
	j.Status = models.JobStatusRunning
	return r.Save(ctx, j)
}

func (r *JobRepo) Complete(ctx context.Context, j *models.ExecJob, result models.ExecResult) error {
	now := time.Now().UTC()
	j.Status = models.JobStatusCompleted
	j.Result = &result
	j.CompletedAt = &now
	return r.Save(ctx, j)
}
