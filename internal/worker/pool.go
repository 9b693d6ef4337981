package worker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/shruti-bhere/ai-learning-platform/internal/models"
	"github.com/shruti-bhere/ai-learning-platform/internal/repository"
	"github.com/shruti-bhere/ai-learning-platform/internal/websocket"
)

// Runner executes one queued snippet.
type Runner interface {
	Execute(ctx context.Context, req models.ExecRequest) (models.ExecResult, error)
}

// JobStore is the Redis-backed job record.
type JobStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.ExecJob, error)
	MarkRunning(ctx context.Context, j *models.ExecJob) error
	Complete(ctx context.Context, j *models.ExecJob, result models.ExecResult) error
}

const (
	popTimeout = time.Second
	lockTTL    = 2 * time.Minute
)

// Pool drains repository.ExecQueue with a fixed number of goroutines.
// Several server instances may share a queue; the per-job lock keeps a job
// from running twice.
type Pool struct {
	redis       *redis.Client
	jobs        JobStore
	runner      Runner
	workerCount int
	stopChan    chan struct{}
	stopOnce    sync.Once
	wg          sync.WaitGroup
}

func NewPool(redisClient *redis.Client, jobs JobStore, runner Runner, workerCount int) *Pool {
	if workerCount <= 0 {
		workerCount = 1
	}
	return &Pool{
		redis:       redisClient,
		jobs:        jobs,
		runner:      runner,
		workerCount: workerCount,
		stopChan:    make(chan struct{}),
	}
}

func (p *Pool) Start() {
	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}

	log.Printf("Started %d execution workers", p.workerCount)
}

// Stop signals the workers and waits for in-flight jobs to finish.
func (p *Pool) Stop() {
	p.stopOnce.Do(func() { close(p.stopChan) })
	p.wg.Wait()
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-p.stopChan
		cancel()
	}()

	for {
		select {
		case <-p.stopChan:
			log.Printf("Worker %d shutting down", id)
			return
		default:
		}

		result, err := p.redis.BLPop(ctx, popTimeout, repository.ExecQueue).Result()
		if err != nil {
			if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
				log.Printf("Worker %d: queue read failed: %v", id, err)
				time.Sleep(time.Second)
			}
			continue
		}
		if len(result) < 2 {
			continue
		}

		jobID, err := uuid.Parse(result[1])
		if err != nil {
			log.Printf("Worker %d: dropping malformed job id %q", id, result[1])
			continue
		}

		// In-flight jobs finish even when Stop is called mid-run.
		p.process(context.Background(), id, jobID)
	}
}

func (p *Pool) process(ctx context.Context, workerID int, jobID uuid.UUID) {
	lockKey := fmt.Sprintf("exec_job_lock:%s", jobID.String())
	locked, err := p.redis.SetNX(ctx, lockKey, workerID, lockTTL).Result()
	if err != nil || !locked {
		return
	}
	defer p.redis.Del(ctx, lockKey)

	job, err := p.jobs.GetByID(ctx, jobID)
	if err != nil {
		// Expired before a worker got to it.
		log.Printf("Worker %d: job %s unavailable: %v", workerID, jobID, err)
		return
	}
	if job.Status == models.JobStatusCompleted {
		return
	}

	if err := p.jobs.MarkRunning(ctx, job); err != nil {
		log.Printf("Worker %d: mark job %s running: %v", workerID, jobID, err)
	}
	p.publish(ctx, job.UserID, models.WSMessage{
		Type:    "exec_status",
		Payload: map[string]interface{}{"job_id": job.ID, "status": job.Status},
	})

	res, err := p.runner.Execute(ctx, job.Request)
	if err != nil {
		log.Printf("Worker %d: job %s failed to start: %v", workerID, jobID, err)
		res.Success = false
		res.Error = "Failed to start execution"
		if res.ErrorType == "" {
			res.ErrorType = models.ExecErrorInternal
		}
	}

	if err := p.jobs.Complete(ctx, job, res); err != nil {
		log.Printf("Worker %d: store result of job %s: %v", workerID, jobID, err)
	}

	p.publish(ctx, job.UserID, models.WSMessage{
		Type: "exec_result",
		Payload: map[string]interface{}{
			"job_id": job.ID,
			"result": res,
		},
	})

	log.Printf("Worker %d: job %s completed (success=%v, %dms)", workerID, jobID, res.Success, res.DurationMs)
}

func (p *Pool) publish(ctx context.Context, userID uuid.UUID, msg models.WSMessage) {
	if err := websocket.Publish(ctx, p.redis, userID, msg); err != nil {
		log.Printf("publish update for user %s: %v", userID, err)
	}
}
