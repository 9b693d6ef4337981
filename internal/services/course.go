package services

import (
	"context"
	"strings"
	"time"

	"github.com/shruti-bhere/ai-learning-platform/internal/cache"
	"github.com/shruti-bhere/ai-learning-platform/internal/database"
	"github.com/shruti-bhere/ai-learning-platform/internal/models"
)

type CourseStore interface {
	List(ctx context.Context) ([]models.Course, error)
	GetByID(ctx context.Context, id int64) (*models.Course, error)
	Create(ctx context.Context, c *models.Course) error
	Update(ctx context.Context, c *models.Course) error
	Delete(ctx context.Context, id int64) error
}

type LessonStore interface {
	ListByCourse(ctx context.Context, courseID int64) ([]models.Lesson, error)
	GetByID(ctx context.Context, id int64) (*models.Lesson, error)
	Create(ctx context.Context, l *models.Lesson) error
	Update(ctx context.Context, l *models.Lesson) error
	Delete(ctx context.Context, id int64) error
}

type TopicStore interface {
	ListByLesson(ctx context.Context, lessonID int64) ([]models.Topic, error)
	Create(ctx context.Context, t *models.Topic) error
	Update(ctx context.Context, t *models.Topic) error
	Delete(ctx context.Context, id int64) error
}

// CourseService serves the course catalogue. Reads go through the cache;
// every write drops the course and lesson key families.
type CourseService struct {
	courses CourseStore
	lessons LessonStore
	topics  TopicStore
	cache   *cache.Cache
	ttl     time.Duration
}

func NewCourseService(courses CourseStore, lessons LessonStore, topics TopicStore, c *cache.Cache, ttl time.Duration) *CourseService {
	return &CourseService{
		courses: courses,
		lessons: lessons,
		topics:  topics,
		cache:   c,
		ttl:     ttl,
	}
}

func (s *CourseService) invalidate(ctx context.Context) {
	s.cache.DeletePrefix(ctx, cache.PrefixCourses)
	s.cache.DeletePrefix(ctx, cache.PrefixLessons)
	s.cache.Delete(ctx, cache.KeyAdminDashboard)
}

// contentError maps constraint violations from catalogue writes.
func contentError(err error, missing string) error {
	switch {
	case database.IsUniqueViolation(err):
		switch database.ConstraintName(err) {
		case "lessons_course_title_key":
			return &ConflictError{Message: "A lesson with this title already exists in the course"}
		case "topics_lesson_title_key":
			return &ConflictError{Message: "A topic with this title already exists in the lesson"}
		default:
			return &ConflictError{Message: "A course with this name already exists"}
		}
	case database.IsForeignKeyViolation(err):
		switch database.ConstraintName(err) {
		case "topics_lesson_id_fkey":
			return &NotFoundError{Message: "Lesson not found"}
		default:
			return &NotFoundError{Message: "Course not found"}
		}
	default:
		return notFound(err, missing)
	}
}

func (s *CourseService) ListCourses(ctx context.Context) ([]models.Course, error) {
	var courses []models.Course
	err := s.cache.Remember(ctx, cache.KeyCourseList, s.ttl, &courses, func(ctx context.Context) (any, error) {
		return s.courses.List(ctx)
	})
	return courses, err
}

func (s *CourseService) GetCourse(ctx context.Context, id int64) (*models.CourseDetail, error) {
	var detail models.CourseDetail
	err := s.cache.Remember(ctx, cache.CourseKey(id), s.ttl, &detail, func(ctx context.Context) (any, error) {
		course, err := s.courses.GetByID(ctx, id)
		if err != nil {
			return nil, notFound(err, "Course not found")
		}
		lessons, err := s.lessons.ListByCourse(ctx, id)
		if err != nil {
			return nil, err
		}
		return models.CourseDetail{Course: *course, Lessons: lessons}, nil
	})
	if err != nil {
		return nil, err
	}
	return &detail, nil
}

func (s *CourseService) CreateCourse(ctx context.Context, req models.CourseRequest) (*models.Course, error) {
	course := &models.Course{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Icon:        req.Icon,
	}
	if err := s.courses.Create(ctx, course); err != nil {
		return nil, contentError(err, "Course not found")
	}
	s.invalidate(ctx)
	return course, nil
}

func (s *CourseService) UpdateCourse(ctx context.Context, id int64, req models.CourseRequest) (*models.Course, error) {
	course := &models.Course{
		ID:          id,
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Icon:        req.Icon,
	}
	if err := s.courses.Update(ctx, course); err != nil {
		return nil, contentError(err, "Course not found")
	}
	s.invalidate(ctx)
	return course, nil
}

func (s *CourseService) DeleteCourse(ctx context.Context, id int64) error {
	if err := s.courses.Delete(ctx, id); err != nil {
		return notFound(err, "Course not found")
	}
	s.invalidate(ctx)
	return nil
}

func (s *CourseService) LessonsByCourse(ctx context.Context, courseID int64) ([]models.Lesson, error) {
	var lessons []models.Lesson
	err := s.cache.Remember(ctx, cache.CourseLessonsKey(courseID), s.ttl, &lessons, func(ctx context.Context) (any, error) {
		if _, err := s.courses.GetByID(ctx, courseID); err != nil {
			return nil, notFound(err, "Course not found")
		}
		return s.lessons.ListByCourse(ctx, courseID)
	})
	return lessons, err
}

func (s *CourseService) GetLesson(ctx context.Context, id int64) (*models.LessonDetail, error) {
	var detail models.LessonDetail
	err := s.cache.Remember(ctx, cache.LessonKey(id), s.ttl, &detail, func(ctx context.Context) (any, error) {
		lesson, err := s.lessons.GetByID(ctx, id)
		if err != nil {
			return nil, notFound(err, "Lesson not found")
		}
		topics, err := s.topics.ListByLesson(ctx, id)
		if err != nil {
			return nil, err
		}
		return models.LessonDetail{Lesson: *lesson, Topics: topics}, nil
	})
	if err != nil {
		return nil, err
	}
	return &detail, nil
}

func lessonFromRequest(id int64, req models.LessonRequest) *models.Lesson {
	return &models.Lesson{
		ID:           id,
		CourseID:     req.CourseID,
		Title:        strings.TrimSpace(req.Title),
		Content:      req.Content,
		CodeExample:  req.CodeExample,
		CodeLanguage: req.CodeLanguage,
		Difficulty:   req.Difficulty,
		OrderIndex:   req.OrderIndex,
	}
}

func (s *CourseService) CreateLesson(ctx context.Context, req models.LessonRequest) (*models.Lesson, error) {
	lesson := lessonFromRequest(0, req)
	if err := s.lessons.Create(ctx, lesson); err != nil {
		return nil, contentError(err, "Course not found")
	}
	s.invalidate(ctx)
	return lesson, nil
}

func (s *CourseService) UpdateLesson(ctx context.Context, id int64, req models.LessonRequest) (*models.Lesson, error) {
	lesson := lessonFromRequest(id, req)
	if err := s.lessons.Update(ctx, lesson); err != nil {
		return nil, contentError(err, "Lesson not found")
	}
	s.invalidate(ctx)
	return lesson, nil
}

func (s *CourseService) DeleteLesson(ctx context.Context, id int64) error {
	if err := s.lessons.Delete(ctx, id); err != nil {
		return notFound(err, "Lesson not found")
	}
	s.invalidate(ctx)
	return nil
}

func (s *CourseService) CreateTopic(ctx context.Context, req models.TopicRequest) (*models.Topic, error) {
	topic := &models.Topic{
		LessonID:   req.LessonID,
		Title:      strings.TrimSpace(req.Title),
		Content:    req.Content,
		OrderIndex: req.OrderIndex,
	}
	if err := s.topics.Create(ctx, topic); err != nil {
		return nil, contentError(err, "Lesson not found")
	}
	s.invalidate(ctx)
	return topic, nil
}

func (s *CourseService) UpdateTopic(ctx context.Context, id int64, req models.TopicRequest) (*models.Topic, error) {
	topic := &models.Topic{
		ID:         id,
		LessonID:   req.LessonID,
		Title:      strings.TrimSpace(req.Title),
		Content:    req.Content,
		OrderIndex: req.OrderIndex,
	}
	if err := s.topics.Update(ctx, topic); err != nil {
		return nil, contentError(err, "Topic not found")
	}
	s.invalidate(ctx)
	return topic, nil
}

func (s *CourseService) DeleteTopic(ctx context.Context, id int64) error {
	if err := s.topics.Delete(ctx, id); err != nil {
		return notFound(err, "Topic not found")
	}
	s.invalidate(ctx)
	return nil
}
