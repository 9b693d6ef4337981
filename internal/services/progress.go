package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/shruti-bhere/ai-learning-platform/internal/cache"
	"github.com/shruti-bhere/ai-learning-platform/internal/models"
)

type ProgressStore interface {
	ApplyLesson(ctx context.Context, ev models.ProgressEvent) (*models.ProgressResult, error)
	ApplyTopic(ctx context.Context, ev models.ProgressEvent) (*models.ProgressResult, error)
	ListLessons(ctx context.Context, userID uuid.UUID) ([]models.LessonProgress, error)
	ListTopics(ctx context.Context, userID uuid.UUID) ([]models.TopicProgress, error)
	ForCourse(ctx context.Context, userID uuid.UUID, courseID int64) ([]models.LessonProgress, error)
}

type CourseLookup interface {
	GetByID(ctx context.Context, id int64) (*models.Course, error)
}

type ProgressService struct {
	progress ProgressStore
	courses  CourseLookup
	cache    *cache.Cache
	now      func() time.Time
}

func NewProgressService(progress ProgressStore, courses CourseLookup, c *cache.Cache) *ProgressService {
	return &ProgressService{
		progress: progress,
		courses:  courses,
		cache:    c,
		now:      time.Now,
	}
}

// invalidate drops everything a points or streak change can make stale.
func (s *ProgressService) invalidate(ctx context.Context, userID uuid.UUID) {
	s.cache.Delete(ctx, cache.UserProfileKey(userID), cache.KeyAdminDashboard)
	s.cache.DeletePrefix(ctx, cache.PrefixLeaderboard)
}

func (s *ProgressService) RecordLesson(ctx context.Context, userID uuid.UUID, req models.LessonProgressRequest) (*models.ProgressResult, error) {
	pct := 0
	if req.ProgressPercentage != nil {
		pct = clampPercentage(*req.ProgressPercentage)
	}

	result, err := s.progress.ApplyLesson(ctx, models.ProgressEvent{
		UserID:     userID,
		LessonID:   req.LessonID,
		Percentage: pct,
		Today:      s.now(),
	})
	if err != nil {
		return nil, notFound(err, "Lesson not found")
	}

	s.invalidate(ctx, userID)
	return result, nil
}

func (s *ProgressService) RecordTopic(ctx context.Context, userID uuid.UUID, req models.TopicProgressRequest) (*models.ProgressResult, error) {
	pct := 0
	if req.Completed {
		pct = 100
	}

	result, err := s.progress.ApplyTopic(ctx, models.ProgressEvent{
		UserID:     userID,
		TopicID:    req.TopicID,
		Percentage: pct,
		Today:      s.now(),
	})
	if err != nil {
		return nil, notFound(err, "Topic not found")
	}

	s.invalidate(ctx, userID)
	return result, nil
}

func (s *ProgressService) All(ctx context.Context, userID uuid.UUID) (*models.UserProgress, error) {
	lessons, err := s.progress.ListLessons(ctx, userID)
	if err != nil {
		return nil, err
	}
	topics, err := s.progress.ListTopics(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &models.UserProgress{Lessons: lessons, Topics: topics}, nil
}

func (s *ProgressService) Course(ctx context.Context, userID uuid.UUID, courseID int64) (*models.CourseProgress, error) {
	if _, err := s.courses.GetByID(ctx, courseID); err != nil {
		return nil, notFound(err, "Course not found")
	}

	lessons, err := s.progress.ForCourse(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}

	cp := &models.CourseProgress{
		CourseID:     courseID,
		TotalLessons: len(lessons),
		Lessons:      lessons,
	}
	for _, l := range lessons {
		if l.Completed {
			cp.CompletedLessons++
		}
	}
	if cp.TotalLessons > 0 {
		cp.CompletionPercent = cp.CompletedLessons * 100 / cp.TotalLessons
	}
	return cp, nil
}

func clampPercentage(p int) int {
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	default:
		return p
	}
}
