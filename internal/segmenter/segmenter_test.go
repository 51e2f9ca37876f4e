package segmenter

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"
)

type fakeProvider struct {
	meta  *VideoMetadata
	err   error
	calls int
}

func (f *fakeProvider) VideoMetadata(ctx context.Context, videoID string) (*VideoMetadata, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.meta, nil
}

const watchURL = "https://www.youtube.com/watch?v=dQw4w9WgXcQ"

func TestSegmentCourse_EndToEnd(t *testing.T) {
	provider := &fakeProvider{meta: &VideoMetadata{
		Title:       "A Lecture",
		Description: "0:00 Intro\n2:30 Deep Dive\n10:00 Outro",
		ISODuration: "PT15M0S",
	}}
	svc := NewService(provider)

	course, err := svc.SegmentCourse(context.Background(), watchURL)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if course.VideoID != "dQw4w9WgXcQ" {
		t.Errorf("Expected video ID dQw4w9WgXcQ, got %q", course.VideoID)
	}
	if course.Title != "A Lecture" {
		t.Errorf("Expected title 'A Lecture', got %q", course.Title)
	}
	if len(course.Segments) != 3 {
		t.Fatalf("Expected 3 segments, got %d", len(course.Segments))
	}

	bounds := [][2]int{{0, 150}, {150, 600}, {600, 900}}
	for i, b := range bounds {
		seg := course.Segments[i]
		if seg.StartSeconds != b[0] || seg.EndSeconds != b[1] {
			t.Errorf("Segment %d: expected [%d,%d), got [%d,%d)",
				i, b[0], b[1], seg.StartSeconds, seg.EndSeconds)
		}
	}

	if provider.calls != 1 {
		t.Errorf("Expected exactly one metadata fetch, got %d", provider.calls)
	}
}

func TestSegmentCourse_InvalidURL(t *testing.T) {
	provider := &fakeProvider{}
	svc := NewService(provider)

	_, err := svc.SegmentCourse(context.Background(), "not a url")

	var invalid *InvalidURLError
	if !errors.As(err, &invalid) {
		t.Fatalf("Expected *InvalidURLError, got %T (%v)", err, err)
	}
	if provider.calls != 0 {
		t.Errorf("Expected no metadata fetch for an invalid URL, got %d", provider.calls)
	}
}

func TestSegmentCourse_VideoNotFound(t *testing.T) {
	svc := NewService(&fakeProvider{err: &VideoNotFoundError{VideoID: "dQw4w9WgXcQ"}})

	_, err := svc.SegmentCourse(context.Background(), watchURL)

	var notFound *VideoNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("Expected *VideoNotFoundError, got %T (%v)", err, err)
	}
}

func TestSegmentCourse_UpstreamUnavailable(t *testing.T) {
	svc := NewService(&fakeProvider{err: &UpstreamUnavailableError{Cause: fmt.Errorf("timeout")}})

	_, err := svc.SegmentCourse(context.Background(), watchURL)

	var unavailable *UpstreamUnavailableError
	if !errors.As(err, &unavailable) {
		t.Fatalf("Expected *UpstreamUnavailableError, got %T (%v)", err, err)
	}
}

func TestSegmentCourse_NoChapters(t *testing.T) {
	svc := NewService(&fakeProvider{meta: &VideoMetadata{
		Title:       "No Chapters Here",
		Description: "just a description with no timestamps",
		ISODuration: "PT10M",
	}})

	course, err := svc.SegmentCourse(context.Background(), watchURL)

	var noChapters *NoChaptersFoundError
	if !errors.As(err, &noChapters) {
		t.Fatalf("Expected *NoChaptersFoundError, got %T (%v)", err, err)
	}
	if course != nil {
		t.Error("Expected no partial course on failure")
	}
}

func TestSegmentCourse_MalformedDuration(t *testing.T) {
	svc := NewService(&fakeProvider{meta: &VideoMetadata{
		Title:       "Broken Duration",
		Description: "0:00 Intro",
		ISODuration: "ten minutes",
	}})

	_, err := svc.SegmentCourse(context.Background(), watchURL)

	// Surfaced as upstream-unavailable, but the malformed-duration cause
	// stays reachable for logging and tests.
	var unavailable *UpstreamUnavailableError
	if !errors.As(err, &unavailable) {
		t.Fatalf("Expected *UpstreamUnavailableError, got %T (%v)", err, err)
	}
	var malformed *MalformedDurationError
	if !errors.As(err, &malformed) {
		t.Errorf("Expected the cause to be *MalformedDurationError, got %v", err)
	}
}

func TestSegmentCourse_Idempotent(t *testing.T) {
	provider := &fakeProvider{meta: &VideoMetadata{
		Title:       "A Lecture",
		Description: "0:00 Intro\n2:30 Deep Dive",
		ISODuration: "PT10M",
	}}
	svc := NewService(provider)

	first, err := svc.SegmentCourse(context.Background(), watchURL)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	second, err := svc.SegmentCourse(context.Background(), watchURL)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if !reflect.DeepEqual(first.Segments, second.Segments) {
		t.Errorf("Expected identical segment sequences, got %+v vs %+v", first.Segments, second.Segments)
	}
}
