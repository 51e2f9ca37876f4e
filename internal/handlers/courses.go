package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"coursetaker-backend/internal/middleware"
	"coursetaker-backend/internal/models"
)

type courseSegmenter interface {
	SegmentCourse(ctx context.Context, rawURL string) (*models.Course, error)
}

type courseRepository interface {
	Create(ctx context.Context, course *models.Course) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Course, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.CourseSummary, error)
	UpdateSegment(ctx context.Context, courseID uuid.UUID, position int, completed *bool, notes *string) error
	Delete(ctx context.Context, id, userID uuid.UUID) error
}

type noteSaver interface {
	Queue(courseID uuid.UUID, position int, notes string)
	Forget(courseID uuid.UUID)
}

type eventPublisher interface {
	PublishCourseEvent(ctx context.Context, eventType string, courseID, userID uuid.UUID)
}

type CourseHandler struct {
	segmenter  courseSegmenter
	courseRepo courseRepository
	saver      noteSaver
	events     eventPublisher
}

func NewCourseHandler(segmenter courseSegmenter, courseRepo courseRepository, saver noteSaver, events eventPublisher) *CourseHandler {
	return &CourseHandler{
		segmenter:  segmenter,
		courseRepo: courseRepo,
		saver:      saver,
		events:     events,
	}
}

// Preview segments a video without saving anything. It backs the guest
// mode, so it requires no authentication and never touches the database.
func (h *CourseHandler) Preview(w http.ResponseWriter, r *http.Request) {
	var req models.CreateCourseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}
	if fields := validateRequest(req); fields != nil {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed", fields, r))
		return
	}

	course, err := h.segmenter.SegmentCourse(r.Context(), req.URL)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, models.CoursePreview{
		VideoID:  course.VideoID,
		Title:    course.Title,
		Segments: course.Segments,
	})
}

func (h *CourseHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		writeJSON(w, http.StatusUnauthorized, errorResp("UNAUTHORIZED", "Authentication required", r))
		return
	}

	var req models.CreateCourseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}
	if fields := validateRequest(req); fields != nil {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed", fields, r))
		return
	}

	course, err := h.segmenter.SegmentCourse(r.Context(), req.URL)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	course.UserID = &userID
	if err := h.courseRepo.Create(r.Context(), course); err != nil {
		handleServiceError(w, r, err)
		return
	}

	h.events.PublishCourseEvent(r.Context(), "course.created", course.ID, userID)
	writeJSON(w, http.StatusCreated, course)
}

func (h *CourseHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		writeJSON(w, http.StatusUnauthorized, errorResp("UNAUTHORIZED", "Authentication required", r))
		return
	}

	courses, err := h.courseRepo.ListByUser(r.Context(), userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if courses == nil {
		courses = []*models.CourseSummary{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"courses": courses,
		"total":   len(courses),
	})
}

func (h *CourseHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		writeJSON(w, http.StatusUnauthorized, errorResp("UNAUTHORIZED", "Authentication required", r))
		return
	}

	course := h.loadOwnedCourse(w, r, userID)
	if course == nil {
		return
	}

	writeJSON(w, http.StatusOK, course)
}

func (h *CourseHandler) UpdateSegment(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		writeJSON(w, http.StatusUnauthorized, errorResp("UNAUTHORIZED", "Authentication required", r))
		return
	}

	course := h.loadOwnedCourse(w, r, userID)
	if course == nil {
		return
	}

	position, err := strconv.Atoi(chi.URLParam(r, "position"))
	if err != nil || position < 0 || position >= len(course.Segments) {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Segment not found", r))
		return
	}

	var req models.UpdateSegmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	segment := &course.Segments[position]

	// Completion toggles are written through immediately. Notes go via
	// the debounced saver so each keystroke does not hit the database.
	changed := false
	if req.Completed != nil && *req.Completed != segment.Completed {
		if err := h.courseRepo.UpdateSegment(r.Context(), course.ID, position, req.Completed, nil); err != nil {
			handleServiceError(w, r, err)
			return
		}
		segment.Completed = *req.Completed
		changed = true
	}
	if req.Notes != nil && *req.Notes != segment.Notes {
		h.saver.Queue(course.ID, position, *req.Notes)
		segment.Notes = *req.Notes
		changed = true
	}

	if changed {
		h.events.PublishCourseEvent(r.Context(), "course.updated", course.ID, userID)
	}
	writeJSON(w, http.StatusOK, segment)
}

func (h *CourseHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		writeJSON(w, http.StatusUnauthorized, errorResp("UNAUTHORIZED", "Authentication required", r))
		return
	}

	courseID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid course ID", r))
		return
	}

	if err := h.courseRepo.Delete(r.Context(), courseID, userID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Course not found or you do not have permission to view it.", r))
			return
		}
		handleServiceError(w, r, err)
		return
	}

	h.saver.Forget(courseID)
	h.events.PublishCourseEvent(r.Context(), "course.deleted", courseID, userID)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Course deleted successfully"})
}

// loadOwnedCourse fetches the course from the id route param and enforces
// ownership. A missing course and someone else's course both come back as
// 404 so course IDs cannot be probed. Returns nil after writing the error
// response.
func (h *CourseHandler) loadOwnedCourse(w http.ResponseWriter, r *http.Request, userID uuid.UUID) *models.Course {
	courseID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid course ID", r))
		return nil
	}

	course, err := h.courseRepo.GetByID(r.Context(), courseID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Course not found or you do not have permission to view it.", r))
			return nil
		}
		handleServiceError(w, r, err)
		return nil
	}

	if course.UserID == nil || *course.UserID != userID {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Course not found or you do not have permission to view it.", r))
		return nil
	}

	return course
}
