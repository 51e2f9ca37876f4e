package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	yt "github.com/kkdai/youtube/v2"
	"google.golang.org/api/option"
	youtubeapi "google.golang.org/api/youtube/v3"

	"coursetaker-backend/internal/segmenter"
)

// YouTubeService resolves video metadata for the segmentation pipeline.
// With an API key it asks the YouTube Data API v3 for snippet and
// contentDetails; without one it falls back to the keyless player client,
// which needs no quota but is slower and scrape-adjacent.
type YouTubeService struct {
	data     *youtubeapi.Service
	ytClient *yt.Client
}

var _ segmenter.MetadataProvider = (*YouTubeService)(nil)

func NewYouTubeService(apiKey string) (*YouTubeService, error) {
	s := &YouTubeService{
		ytClient: &yt.Client{
			HTTPClient: &http.Client{Timeout: 30 * time.Second},
		},
	}

	if apiKey != "" {
		data, err := youtubeapi.NewService(context.Background(), option.WithAPIKey(apiKey))
		if err != nil {
			return nil, fmt.Errorf("failed to create YouTube Data API client: %w", err)
		}
		s.data = data
	} else {
		log.Println("YOUTUBE_API_KEY not set, using keyless metadata fallback")
	}

	return s, nil
}

// VideoMetadata fetches title, description and ISO-8601 duration for one
// video. Called exactly once per pipeline run; failures are typed so the
// pipeline can surface not-found separately from an outage.
func (s *YouTubeService) VideoMetadata(ctx context.Context, videoID string) (*segmenter.VideoMetadata, error) {
	if s.data != nil {
		return s.fromDataAPI(ctx, videoID)
	}
	return s.fromPlayerClient(ctx, videoID)
}

func (s *YouTubeService) fromDataAPI(ctx context.Context, videoID string) (*segmenter.VideoMetadata, error) {
	resp, err := s.data.Videos.List([]string{"snippet", "contentDetails"}).Id(videoID).Context(ctx).Do()
	if err != nil {
		return nil, &segmenter.UpstreamUnavailableError{Cause: err}
	}
	if len(resp.Items) == 0 {
		return nil, &segmenter.VideoNotFoundError{VideoID: videoID}
	}

	item := resp.Items[0]
	if item.Snippet == nil || item.ContentDetails == nil {
		return nil, &segmenter.UpstreamUnavailableError{
			Cause: fmt.Errorf("video %s response missing snippet or contentDetails", videoID),
		}
	}

	return &segmenter.VideoMetadata{
		Title:       item.Snippet.Title,
		Description: item.Snippet.Description,
		ISODuration: item.ContentDetails.Duration,
	}, nil
}

func (s *YouTubeService) fromPlayerClient(ctx context.Context, videoID string) (*segmenter.VideoMetadata, error) {
	video, err := s.ytClient.GetVideoContext(ctx, videoID)
	if err != nil {
		return nil, classifyPlayerError(videoID, err)
	}

	// The player client reports duration as time.Duration; re-encode it so
	// the pipeline sees the same ISO-8601 shape the Data API returns.
	total := int(video.Duration.Seconds())
	iso := fmt.Sprintf("PT%dH%dM%dS", total/3600, (total%3600)/60, total%60)

	return &segmenter.VideoMetadata{
		Title:       video.Title,
		Description: video.Description,
		ISODuration: iso,
	}, nil
}

// classifyPlayerError separates "this video does not exist or cannot be
// played" from everything else the keyless client can fail with.
func classifyPlayerError(videoID string, err error) error {
	var playability *yt.ErrPlayabiltyStatus
	if errors.As(err, &playability) {
		return &segmenter.VideoNotFoundError{VideoID: videoID}
	}
	return &segmenter.UpstreamUnavailableError{Cause: err}
}
