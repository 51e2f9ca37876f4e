package models

import "github.com/google/uuid"

// API error response
type APIError struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id"`
}

type ErrorResponse struct {
	Error APIError `json:"error"`
}

// CourseEvent is pushed over the websocket to a user's open sessions
// whenever one of their courses changes, so dashboards stay live.
type CourseEvent struct {
	Type     string    `json:"type"` // "course.created" | "course.updated" | "course.deleted"
	CourseID uuid.UUID `json:"course_id"`
	UserID   uuid.UUID `json:"user_id"`
}
