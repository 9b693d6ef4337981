package handlers

import (
	"context"
	"net/http"

	"github.com/shruti-bhere/ai-learning-platform/internal/models"
)

type CourseAPI interface {
	ListCourses(ctx context.Context) ([]models.Course, error)
	GetCourse(ctx context.Context, id int64) (*models.CourseDetail, error)
	CreateCourse(ctx context.Context, req models.CourseRequest) (*models.Course, error)
	UpdateCourse(ctx context.Context, id int64, req models.CourseRequest) (*models.Course, error)
	DeleteCourse(ctx context.Context, id int64) error

	LessonsByCourse(ctx context.Context, courseID int64) ([]models.Lesson, error)
	GetLesson(ctx context.Context, id int64) (*models.LessonDetail, error)
	CreateLesson(ctx context.Context, req models.LessonRequest) (*models.Lesson, error)
	UpdateLesson(ctx context.Context, id int64, req models.LessonRequest) (*models.Lesson, error)
	DeleteLesson(ctx context.Context, id int64) error

	CreateTopic(ctx context.Context, req models.TopicRequest) (*models.Topic, error)
	UpdateTopic(ctx context.Context, id int64, req models.TopicRequest) (*models.Topic, error)
	DeleteTopic(ctx context.Context, id int64) error
}

// CourseHandler serves courses, lessons and topics. Reads are public, writes
// sit behind the admin guard in the router.
type CourseHandler struct {
	courseService CourseAPI
}

func NewCourseHandler(courseService CourseAPI) *CourseHandler {
	return &CourseHandler{courseService: courseService}
}

func (h *CourseHandler) List(w http.ResponseWriter, r *http.Request) {
	courses, err := h.courseService.ListCourses(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if courses == nil {
		courses = []models.Course{}
	}
	writeJSON(w, http.StatusOK, courses)
}

func (h *CourseHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	course, err := h.courseService.GetCourse(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, course)
}

func (h *CourseHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CourseRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	course, err := h.courseService.CreateCourse(r.Context(), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, course)
}

func (h *CourseHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req models.CourseRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	course, err := h.courseService.UpdateCourse(r.Context(), id, req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, course)
}

func (h *CourseHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.courseService.DeleteCourse(r.Context(), id); err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Course deleted"})
}

func (h *CourseHandler) LessonsByCourse(w http.ResponseWriter, r *http.Request) {
	courseID, ok := pathID(w, r, "courseId")
	if !ok {
		return
	}

	lessons, err := h.courseService.LessonsByCourse(r.Context(), courseID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if lessons == nil {
		lessons = []models.Lesson{}
	}
	writeJSON(w, http.StatusOK, lessons)
}

func (h *CourseHandler) GetLesson(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	lesson, err := h.courseService.GetLesson(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, lesson)
}

func (h *CourseHandler) CreateLesson(w http.ResponseWriter, r *http.Request) {
	var req models.LessonRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	lesson, err := h.courseService.CreateLesson(r.Context(), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, lesson)
}

func (h *CourseHandler) UpdateLesson(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req models.LessonRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	lesson, err := h.courseService.UpdateLesson(r.Context(), id, req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, lesson)
}

func (h *CourseHandler) DeleteLesson(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.courseService.DeleteLesson(r.Context(), id); err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Lesson deleted"})
}

func (h *CourseHandler) CreateTopic(w http.ResponseWriter, r *http.Request) {
	var req models.TopicRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	topic, err := h.courseService.CreateTopic(r.Context(), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, topic)
}

func (h *CourseHandler) UpdateTopic(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req models.TopicRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	topic, err := h.courseService.UpdateTopic(r.Context(), id, req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, topic)
}

func (h *CourseHandler) DeleteTopic(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.courseService.DeleteTopic(r.Context(), id); err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Topic deleted"})
}
