package segmenter

import (
	"context"
	"log"

	"coursetaker-backend/internal/models"
)

// VideoMetadata is what the metadata provider hands back for one video.
type VideoMetadata struct {
	Title       string
	Description string
	ISODuration string
}

// MetadataProvider resolves a video ID to its title, description and
// ISO-8601 duration. Implementations signal a missing video with
// *VideoNotFoundError and anything transient with *UpstreamUnavailableError.
type MetadataProvider interface {
	VideoMetadata(ctx context.Context, videoID string) (*VideoMetadata, error)
}

type Service struct {
	provider MetadataProvider
}

func NewService(provider MetadataProvider) *Service {
	return &Service{provider: provider}
}

// SegmentCourse runs the whole pipeline for one URL: extract the video ID,
// fetch metadata, scan the description for chapter markers and derive
// segment boundaries from the video duration. Each step is a hard gate;
// there are no partial results. The metadata fetch is the only network call
// and is made exactly once, with no retry.
func (s *Service) SegmentCourse(ctx context.Context, rawURL string) (*models.Course, error) {
	videoID, ok := ExtractVideoID(rawURL)
	if !ok {
		return nil, &InvalidURLError{URL: rawURL}
	}

	meta, err := s.provider.VideoMetadata(ctx, videoID)
	if err != nil {
		return nil, err
	}

	candidates := ScanDescription(meta.Description)
	if len(candidates) == 0 {
		return nil, &NoChaptersFoundError{VideoID: videoID}
	}

	totalDuration, err := ParseISODuration(meta.ISODuration)
	if err != nil {
		// An unreadable duration is an upstream data problem, not a user
		// mistake. Log the raw value so it stays distinguishable from a
		// plain outage, then surface it as unavailable.
		log.Printf("malformed duration for video %s: %v", videoID, err)
		return nil, &UpstreamUnavailableError{Cause: err}
	}

	return &models.Course{
		VideoID:  videoID,
		Title:    meta.Title,
		Segments: BuildSegments(candidates, totalDuration),
	}, nil
}
