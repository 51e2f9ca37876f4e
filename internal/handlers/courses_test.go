package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"coursetaker-backend/internal/middleware"
	"coursetaker-backend/internal/models"
	"coursetaker-backend/internal/segmenter"
)

type fakeSegmenter struct {
	course *models.Course
	err    error
	calls  int
}

func (f *fakeSegmenter) SegmentCourse(ctx context.Context, rawURL string) (*models.Course, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	c := *f.course
	return &c, nil
}

type segmentUpdate struct {
	courseID  uuid.UUID
	position  int
	completed *bool
	notes     *string
}

type fakeCourseRepo struct {
	courses map[uuid.UUID]*models.Course
	created []*models.Course
	updates []segmentUpdate
	deleted []uuid.UUID
}

func newFakeCourseRepo() *fakeCourseRepo {
	return &fakeCourseRepo{courses: make(map[uuid.UUID]*models.Course)}
}

func (f *fakeCourseRepo) Create(ctx context.Context, course *models.Course) error {
	course.ID = uuid.New()
	f.created = append(f.created, course)
	f.courses[course.ID] = course
	return nil
}

func (f *fakeCourseRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Course, error) {
	course, ok := f.courses[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return course, nil
}

func (f *fakeCourseRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.CourseSummary, error) {
	var out []*models.CourseSummary
	for _, c := range f.courses {
		if c.UserID != nil && *c.UserID == userID {
			out = append(out, &models.CourseSummary{ID: c.ID, VideoID: c.VideoID, Title: c.Title, SegmentCount: len(c.Segments)})
		}
	}
	return out, nil
}

func (f *fakeCourseRepo) UpdateSegment(ctx context.Context, courseID uuid.UUID, position int, completed *bool, notes *string) error {
	f.updates = append(f.updates, segmentUpdate{courseID, position, completed, notes})
	return nil
}

func (f *fakeCourseRepo) Delete(ctx context.Context, id, userID uuid.UUID) error {
	course, ok := f.courses[id]
	if !ok || course.UserID == nil || *course.UserID != userID {
		return pgx.ErrNoRows
	}
	delete(f.courses, id)
	f.deleted = append(f.deleted, id)
	return nil
}

type queuedNote struct {
	courseID uuid.UUID
	position int
	notes    string
}

type fakeSaver struct {
	queued    []queuedNote
	forgotten []uuid.UUID
}

func (f *fakeSaver) Queue(courseID uuid.UUID, position int, notes string) {
	f.queued = append(f.queued, queuedNote{courseID, position, notes})
}

func (f *fakeSaver) Forget(courseID uuid.UUID) {
	f.forgotten = append(f.forgotten, courseID)
}

type fakeEvents struct {
	published []string
}

func (f *fakeEvents) PublishCourseEvent(ctx context.Context, eventType string, courseID, userID uuid.UUID) {
	f.published = append(f.published, eventType)
}

func newTestRouter(h *CourseHandler) chi.Router {
	r := chi.NewRouter()
	r.Post("/courses/preview", h.Preview)
	r.Post("/courses", h.Create)
	r.Get("/courses", h.List)
	r.Get("/courses/{id}", h.Get)
	r.Patch("/courses/{id}/segments/{position}", h.UpdateSegment)
	r.Delete("/courses/{id}", h.Delete)
	return r
}

func authedRequest(method, target string, body []byte, userID uuid.UUID) *http.Request {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	ctx := context.WithValue(req.Context(), middleware.UserIDKey, userID)
	return req.WithContext(ctx)
}

func sampleCourse() *models.Course {
	return &models.Course{
		VideoID: "dQw4w9WgXcQ",
		Title:   "Lecture 1",
		Segments: []models.Segment{
			{StartSeconds: 0, EndSeconds: 150, DurationSeconds: 150, Title: "Intro"},
			{StartSeconds: 150, EndSeconds: 600, DurationSeconds: 450, Title: "Main"},
		},
	}
}

func decodeErrorCode(t *testing.T, body *bytes.Buffer) string {
	t.Helper()
	var resp models.ErrorResponse
	if err := json.Unmarshal(body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding error response: %v", err)
	}
	return resp.Error.Code
}

func TestPreviewReturnsSegmentsWithoutPersisting(t *testing.T) {
	seg := &fakeSegmenter{course: sampleCourse()}
	repo := newFakeCourseRepo()
	h := NewCourseHandler(seg, repo, &fakeSaver{}, &fakeEvents{})

	body := []byte(`{"url": "https://youtu.be/dQw4w9WgXcQ"}`)
	req := httptest.NewRequest(http.MethodPost, "/courses/preview", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	newTestRouter(h).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body: %s", rec.Code, rec.Body.String())
	}
	var got models.CoursePreview
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(got.Segments) != 2 {
		t.Errorf("segments = %d, want 2", len(got.Segments))
	}

	// The ephemeral course must not leak identity or ownership fields.
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &raw); err != nil {
		t.Fatalf("decoding raw response: %v", err)
	}
	for _, field := range []string{"id", "user_id", "created_at"} {
		if _, present := raw[field]; present {
			t.Errorf("preview response contains %q: %s", field, raw[field])
		}
	}

	if len(repo.created) != 0 {
		t.Errorf("preview persisted %d courses", len(repo.created))
	}
}

func TestPreviewMapsPipelineErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"invalid url", &segmenter.InvalidURLError{URL: "nope"}, http.StatusBadRequest, "INVALID_URL"},
		{"video not found", &segmenter.VideoNotFoundError{VideoID: "dQw4w9WgXcQ"}, http.StatusNotFound, "VIDEO_NOT_FOUND"},
		{"no chapters", &segmenter.NoChaptersFoundError{VideoID: "dQw4w9WgXcQ"}, http.StatusBadRequest, "NO_CHAPTERS_FOUND"},
		{"upstream down", &segmenter.UpstreamUnavailableError{Cause: fmt.Errorf("timeout")}, http.StatusBadGateway, "UPSTREAM_UNAVAILABLE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewCourseHandler(&fakeSegmenter{err: tt.err}, newFakeCourseRepo(), &fakeSaver{}, &fakeEvents{})
			body := []byte(`{"url": "https://youtu.be/dQw4w9WgXcQ"}`)
			req := httptest.NewRequest(http.MethodPost, "/courses/preview", bytes.NewReader(body))
			rec := httptest.NewRecorder()
			newTestRouter(h).ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if code := decodeErrorCode(t, rec.Body); code != tt.wantCode {
				t.Errorf("error code = %q, want %q", code, tt.wantCode)
			}
		})
	}
}

func TestPreviewRejectsMissingURL(t *testing.T) {
	seg := &fakeSegmenter{course: sampleCourse()}
	h := NewCourseHandler(seg, newFakeCourseRepo(), &fakeSaver{}, &fakeEvents{})

	req := httptest.NewRequest(http.MethodPost, "/courses/preview", bytes.NewReader([]byte(`{}`)))
	rec := httptest.NewRecorder()
	newTestRouter(h).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if seg.calls != 0 {
		t.Errorf("segmenter called %d times for an empty request", seg.calls)
	}
}

func TestCreatePersistsCourseForUser(t *testing.T) {
	seg := &fakeSegmenter{course: sampleCourse()}
	repo := newFakeCourseRepo()
	events := &fakeEvents{}
	h := NewCourseHandler(seg, repo, &fakeSaver{}, events)
	userID := uuid.New()

	body := []byte(`{"url": "https://youtu.be/dQw4w9WgXcQ"}`)
	req := authedRequest(http.MethodPost, "/courses", body, userID)
	rec := httptest.NewRecorder()
	newTestRouter(h).ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201, body: %s", rec.Code, rec.Body.String())
	}
	if len(repo.created) != 1 {
		t.Fatalf("created %d courses, want 1", len(repo.created))
	}
	saved := repo.created[0]
	if saved.UserID == nil || *saved.UserID != userID {
		t.Errorf("saved course owner = %v, want %s", saved.UserID, userID)
	}
	if len(events.published) != 1 || events.published[0] != "course.created" {
		t.Errorf("published events = %v, want [course.created]", events.published)
	}
}

func TestGetHidesCoursesOwnedByOthers(t *testing.T) {
	repo := newFakeCourseRepo()
	owner := uuid.New()
	course := sampleCourse()
	course.ID = uuid.New()
	course.UserID = &owner
	repo.courses[course.ID] = course

	h := NewCourseHandler(&fakeSegmenter{}, repo, &fakeSaver{}, &fakeEvents{})

	req := authedRequest(http.MethodGet, "/courses/"+course.ID.String(), nil, uuid.New())
	rec := httptest.NewRecorder()
	newTestRouter(h).ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if code := decodeErrorCode(t, rec.Body); code != "NOT_FOUND" {
		t.Errorf("error code = %q, want NOT_FOUND", code)
	}
}

func TestUpdateSegmentCompletionWritesThrough(t *testing.T) {
	repo := newFakeCourseRepo()
	userID := uuid.New()
	course := sampleCourse()
	course.ID = uuid.New()
	course.UserID = &userID
	repo.courses[course.ID] = course

	saver := &fakeSaver{}
	h := NewCourseHandler(&fakeSegmenter{}, repo, saver, &fakeEvents{})

	body := []byte(`{"completed": true}`)
	req := authedRequest(http.MethodPatch, "/courses/"+course.ID.String()+"/segments/1", body, userID)
	rec := httptest.NewRecorder()
	newTestRouter(h).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body: %s", rec.Code, rec.Body.String())
	}
	if len(repo.updates) != 1 {
		t.Fatalf("repo updates = %d, want 1", len(repo.updates))
	}
	update := repo.updates[0]
	if update.position != 1 || update.completed == nil || !*update.completed {
		t.Errorf("unexpected update: %+v", update)
	}
	if len(saver.queued) != 0 {
		t.Errorf("completion toggle queued %d note saves", len(saver.queued))
	}
}

func TestUpdateSegmentNotesAreDebounced(t *testing.T) {
	repo := newFakeCourseRepo()
	userID := uuid.New()
	course := sampleCourse()
	course.ID = uuid.New()
	course.UserID = &userID
	repo.courses[course.ID] = course

	saver := &fakeSaver{}
	h := NewCourseHandler(&fakeSegmenter{}, repo, saver, &fakeEvents{})

	body := []byte(`{"notes": "remember the proof"}`)
	req := authedRequest(http.MethodPatch, "/courses/"+course.ID.String()+"/segments/0", body, userID)
	rec := httptest.NewRecorder()
	newTestRouter(h).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body: %s", rec.Code, rec.Body.String())
	}
	if len(repo.updates) != 0 {
		t.Errorf("note edit hit the repository directly: %+v", repo.updates)
	}
	if len(saver.queued) != 1 || saver.queued[0].notes != "remember the proof" {
		t.Fatalf("queued saves = %+v, want one note save", saver.queued)
	}

	var got models.Segment
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if got.Notes != "remember the proof" {
		t.Errorf("response notes = %q, want the new draft", got.Notes)
	}
}

func TestUpdateSegmentNoOpPublishesNothing(t *testing.T) {
	repo := newFakeCourseRepo()
	userID := uuid.New()
	course := sampleCourse()
	course.ID = uuid.New()
	course.UserID = &userID
	repo.courses[course.ID] = course

	saver := &fakeSaver{}
	events := &fakeEvents{}
	h := NewCourseHandler(&fakeSegmenter{}, repo, saver, events)

	// An empty body and a body restating the current values both change
	// nothing, so neither may reach the store or the dashboard.
	for _, body := range []string{`{}`, `{"completed": false, "notes": ""}`} {
		req := authedRequest(http.MethodPatch, "/courses/"+course.ID.String()+"/segments/0", []byte(body), userID)
		rec := httptest.NewRecorder()
		newTestRouter(h).ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("body %s: status = %d, want 200", body, rec.Code)
		}
	}
	if len(repo.updates) != 0 {
		t.Errorf("no-op updates hit the repository: %+v", repo.updates)
	}
	if len(saver.queued) != 0 {
		t.Errorf("no-op updates queued note saves: %+v", saver.queued)
	}
	if len(events.published) != 0 {
		t.Errorf("no-op updates published events: %v", events.published)
	}
}

func TestUpdateSegmentRejectsBadPosition(t *testing.T) {
	repo := newFakeCourseRepo()
	userID := uuid.New()
	course := sampleCourse()
	course.ID = uuid.New()
	course.UserID = &userID
	repo.courses[course.ID] = course

	h := NewCourseHandler(&fakeSegmenter{}, repo, &fakeSaver{}, &fakeEvents{})

	for _, position := range []string{"5", "-1", "abc"} {
		body := []byte(`{"completed": true}`)
		req := authedRequest(http.MethodPatch, "/courses/"+course.ID.String()+"/segments/"+position, body, userID)
		rec := httptest.NewRecorder()
		newTestRouter(h).ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("position %q: status = %d, want 404", position, rec.Code)
		}
	}
}

func TestDeleteRemovesCourseAndPublishes(t *testing.T) {
	repo := newFakeCourseRepo()
	userID := uuid.New()
	course := sampleCourse()
	course.ID = uuid.New()
	course.UserID = &userID
	repo.courses[course.ID] = course

	saver := &fakeSaver{}
	events := &fakeEvents{}
	h := NewCourseHandler(&fakeSegmenter{}, repo, saver, events)

	req := authedRequest(http.MethodDelete, "/courses/"+course.ID.String(), nil, userID)
	rec := httptest.NewRecorder()
	newTestRouter(h).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body: %s", rec.Code, rec.Body.String())
	}
	if len(repo.deleted) != 1 {
		t.Errorf("deleted %d courses, want 1", len(repo.deleted))
	}
	if len(events.published) != 1 || events.published[0] != "course.deleted" {
		t.Errorf("published events = %v, want [course.deleted]", events.published)
	}
	if len(saver.forgotten) != 1 || saver.forgotten[0] != course.ID {
		t.Errorf("saver forgotten = %v, want [%s]", saver.forgotten, course.ID)
	}

	// Deleting again reports not found.
	req = authedRequest(http.MethodDelete, "/courses/"+course.ID.String(), nil, userID)
	rec = httptest.NewRecorder()
	newTestRouter(h).ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", rec.Code)
	}
}
