package segmenter

import "fmt"

// Every pipeline step fails fast with one of these types so the HTTP layer
// can map each kind to its own status code and user-facing message.

// InvalidURLError means no recognizable video ID was found in the input.
type InvalidURLError struct{ URL string }

func (e *InvalidURLError) Error() string { return "no YouTube video ID found in URL" }

// VideoNotFoundError means the metadata provider has no such video.
type VideoNotFoundError struct{ VideoID string }

func (e *VideoNotFoundError) Error() string {
	return fmt.Sprintf("video %q not found", e.VideoID)
}

// UpstreamUnavailableError means the metadata provider call failed or
// returned something unusable. Not user-correctable.
type UpstreamUnavailableError struct{ Cause error }

func (e *UpstreamUnavailableError) Error() string {
	return fmt.Sprintf("video metadata provider unavailable: %v", e.Cause)
}

func (e *UpstreamUnavailableError) Unwrap() error { return e.Cause }

// MalformedDurationError means the provider's ISO-8601 duration string did
// not match PT#H#M#S at all.
type MalformedDurationError struct{ Duration string }

func (e *MalformedDurationError) Error() string {
	return fmt.Sprintf("duration %q does not match PT#H#M#S", e.Duration)
}

// NoChaptersFoundError means the description scanned cleanly but contained
// no chapter markers. User-correctable: pick a video with timestamps.
type NoChaptersFoundError struct{ VideoID string }

func (e *NoChaptersFoundError) Error() string {
	return "no timestamps found in the video description"
}
