package worker

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// segmentWriter is the slice of the course store the saver needs.
type segmentWriter interface {
	UpdateSegment(ctx context.Context, courseID uuid.UUID, position int, completed *bool, notes *string) error
}

type noteKey struct {
	courseID uuid.UUID
	position int
}

type pendingNote struct {
	notes    string
	queuedAt time.Time
}

// SegmentSaver batches note edits behind a debounce window: a note is
// written only after the user stops typing for the configured delay, and
// only if it actually changed since the last write. Persistence is
// best-effort; a failed flush is logged and dropped, never retried, and the
// caller's in-memory state is not rolled back.
type SegmentSaver struct {
	store segmentWriter
	delay time.Duration

	mu        sync.Mutex
	pending   map[noteKey]pendingNote
	lastSaved map[noteKey]string

	stopChan chan struct{}
	doneChan chan struct{}
}

func NewSegmentSaver(store segmentWriter, delay time.Duration) *SegmentSaver {
	return &SegmentSaver{
		store:     store,
		delay:     delay,
		pending:   make(map[noteKey]pendingNote),
		lastSaved: make(map[noteKey]string),
		stopChan:  make(chan struct{}),
		doneChan:  make(chan struct{}),
	}
}

func (s *SegmentSaver) Start() {
	go s.loop()
}

// Stop shuts the flush loop down and writes whatever is still pending.
func (s *SegmentSaver) Stop() {
	select {
	case <-s.stopChan:
		return
	default:
		close(s.stopChan)
	}
	<-s.doneChan
}

// Queue records a note edit for one segment. Re-queueing the same segment
// resets its debounce window; queueing a value identical to the last saved
// one clears any pending write instead.
func (s *SegmentSaver) Queue(courseID uuid.UUID, position int, notes string) {
	key := noteKey{courseID: courseID, position: position}

	s.mu.Lock()
	defer s.mu.Unlock()

	if saved, ok := s.lastSaved[key]; ok && saved == notes {
		delete(s.pending, key)
		return
	}
	s.pending[key] = pendingNote{notes: notes, queuedAt: time.Now()}
}

// Forget drops all state for a course. Called on deletion so pending notes
// are not written for rows that no longer exist and the saved-value cache
// does not outlive the course.
func (s *SegmentSaver) Forget(courseID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key := range s.pending {
		if key.courseID == courseID {
			delete(s.pending, key)
		}
	}
	for key := range s.lastSaved {
		if key.courseID == courseID {
			delete(s.lastSaved, key)
		}
	}
}

func (s *SegmentSaver) loop() {
	defer close(s.doneChan)

	tick := s.delay / 5
	if tick < 10*time.Millisecond {
		tick = 10 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			s.flush(time.Time{})
			return
		case now := <-ticker.C:
			s.flush(now)
		}
	}
}

// flush writes every pending note older than the debounce delay. A zero
// cutoff flushes everything regardless of age (shutdown).
func (s *SegmentSaver) flush(now time.Time) {
	s.mu.Lock()
	due := make(map[noteKey]string)
	for key, p := range s.pending {
		if now.IsZero() || now.Sub(p.queuedAt) >= s.delay {
			due[key] = p.notes
			delete(s.pending, key)
		}
	}
	s.mu.Unlock()

	for key, notes := range due {
		n := notes
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := s.store.UpdateSegment(ctx, key.courseID, key.position, nil, &n)
		cancel()
		if err != nil {
			log.Printf("failed to save notes for course %s segment %d: %v", key.courseID, key.position, err)
			continue
		}

		s.mu.Lock()
		s.lastSaved[key] = notes
		s.mu.Unlock()
	}
}
