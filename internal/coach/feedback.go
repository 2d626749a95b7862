package coach

import "sync"

// FeedbackStore caches computed advice keyed by frame number so the
// playback UI can render feedback instantly on pause without re-querying
// the model. It also tracks which frames have analysis in flight.
type FeedbackStore struct {
	mu         sync.RWMutex
	advice     map[int]StoredAdvice
	inProgress map[int]struct{}
	stride     int
}

func NewFeedbackStore(stride int) *FeedbackStore {
	if stride <= 0 {
		stride = DefaultStride
	}
	return &FeedbackStore{
		advice:     make(map[int]StoredAdvice),
		inProgress: make(map[int]struct{}),
		stride:     stride,
	}
}

// Put stores advice for its frame number, replacing any previous record.
func (s *FeedbackStore) Put(advice StoredAdvice) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.advice[advice.FrameNumber] = advice
}

// Get returns advice for the frame, falling back to a symmetric expanding
// search up to 2x the sampling stride in each direction. Nearer offsets
// win; at equal offset the earlier frame is preferred, which keeps lookups
// deterministic. A miss returns false and means "no feedback yet", not an
// error.
func (s *FeedbackStore) Get(frameNumber int) (StoredAdvice, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if advice, ok := s.advice[frameNumber]; ok {
		return advice, true
	}

	maxDistance := s.stride * 2
	for offset := 1; offset <= maxDistance; offset++ {
		if advice, ok := s.advice[frameNumber-offset]; ok {
			return advice, true
		}
		if advice, ok := s.advice[frameNumber+offset]; ok {
			return advice, true
		}
	}

	return StoredAdvice{}, false
}

// Has reports whether exact advice exists for the frame.
func (s *FeedbackStore) Has(frameNumber int) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.advice[frameNumber]
	return ok
}

// IsInProgress reports whether analysis is currently in flight for the
// frame.
func (s *FeedbackStore) IsInProgress(frameNumber int) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.inProgress[frameNumber]
	return ok
}

// TryMarkInProgress atomically claims a frame for analysis. It returns
// false when the frame already has advice or is already in flight, which
// is how the buffered path deduplicates requests.
func (s *FeedbackStore) TryMarkInProgress(frameNumber int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.advice[frameNumber]; ok {
		return false
	}
	if _, ok := s.inProgress[frameNumber]; ok {
		return false
	}
	s.inProgress[frameNumber] = struct{}{}
	return true
}

// ClearInProgress releases a frame's in-flight marker.
func (s *FeedbackStore) ClearInProgress(frameNumber int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inProgress, frameNumber)
}

// Len reports how many advice records are cached.
func (s *FeedbackStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.advice)
}

// All returns every cached advice record, in no particular order.
func (s *FeedbackStore) All() []StoredAdvice {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]StoredAdvice, 0, len(s.advice))
	for _, advice := range s.advice {
		out = append(out, advice)
	}
	return out
}

// Clear drops all advice and in-flight markers, used on session reset.
func (s *FeedbackStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.advice = make(map[int]StoredAdvice)
	s.inProgress = make(map[int]struct{})
}
