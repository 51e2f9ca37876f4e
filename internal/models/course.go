package models

import (
	"time"

	"github.com/google/uuid"
)

// Segment is one contiguous slice of a video treated as a unit of the
// course. Boundaries and title are fixed when the course is built; only
// Completed and Notes change afterwards.
type Segment struct {
	StartSeconds    int    `json:"start_seconds"`
	EndSeconds      int    `json:"end_seconds"`
	DurationSeconds int    `json:"duration_seconds"`
	Title           string `json:"title"`
	Completed       bool   `json:"completed"`
	Notes           string `json:"notes"`
}

// Course is the persisted unit: one video split into ordered segments.
// UserID is nil for guest sessions, which live only in the response body and
// are never handed to the store.
type Course struct {
	ID        uuid.UUID  `json:"id"`
	UserID    *uuid.UUID `json:"user_id,omitempty"`
	VideoID   string     `json:"video_id"`
	Title     string     `json:"title"`
	Segments  []Segment  `json:"segments"`
	CreatedAt time.Time  `json:"created_at"`
}

// CoursePreview is the guest-mode response body. Nothing was stored, so it
// carries no id, owner or timestamp.
type CoursePreview struct {
	VideoID  string    `json:"video_id"`
	Title    string    `json:"title"`
	Segments []Segment `json:"segments"`
}

// CourseSummary is a dashboard row: the course plus its progress counts.
type CourseSummary struct {
	ID             uuid.UUID `json:"id"`
	VideoID        string    `json:"video_id"`
	Title          string    `json:"title"`
	SegmentCount   int       `json:"segment_count"`
	CompletedCount int       `json:"completed_count"`
	CreatedAt      time.Time `json:"created_at"`
}

type CreateCourseRequest struct {
	// Only presence is validated here; whether the string contains a usable
	// video ID is the pipeline's call.
	URL string `json:"url" validate:"required"`
}

// UpdateSegmentRequest carries the mutable segment fields. Pointers
// distinguish "leave unchanged" from an explicit value.
type UpdateSegmentRequest struct {
	Completed *bool   `json:"completed"`
	Notes     *string `json:"notes"`
}
