package coach

import (
	"context"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mlevkov/shotcoach/internal/ai"
	"github.com/mlevkov/shotcoach/internal/pose"
)

// Archive persists computed advice so repeat sessions over the same video
// reuse paid model calls instead of re-issuing them. Implementations live
// in the database package; a nil archive disables persistence.
type Archive interface {
	SaveAdvice(ctx context.Context, videoID string, advice []StoredAdvice) error
	LoadAdvice(ctx context.Context, videoID string) ([]StoredAdvice, error)
}

// realtimeItem is one queued single-frame analysis request, tagged with
// the generation it was enqueued under so stale results are discarded
// after a reset.
type realtimeItem struct {
	vitals     FrameVitals
	generation uint64
}

// Session owns all per-video analysis state: the vitals window, the batch
// pipeline, the feedback cache, and the relevance gate. One session maps
// to one uploaded video; Reset reinitializes everything for a new one.
type Session struct {
	ID        string
	VideoID   string
	StartedAt time.Time

	cfg      Config
	analyzer *ai.Analyzer
	archive  Archive

	ctx    context.Context
	cancel context.CancelFunc

	// mu guards everything below. The check-then-set of processingBatch
	// must be atomic so two drain triggers cannot both pick up work.
	mu           sync.Mutex
	generation   uint64
	analysisMode bool
	framesSeen   int

	history   *VitalsBuffer
	assembler *BatchAssembler
	gate      *RelevanceGate
	ball      *pose.BallTracker

	pendingBatches   []*FrameBatch
	processingBatch  *FrameBatch
	completedBatches []*FrameBatch
	failedBatches    []*FrameBatch
	summary          string
	currentAdvice    *StoredAdvice

	feedback *FeedbackStore

	// notify wakes the batch worker on enqueue; the drain ticker is only
	// a safety net.
	notify        chan struct{}
	realtimeQueue chan realtimeItem

	updates chan SessionUpdate
}

func newSession(ctx context.Context, videoID string, analyzer *ai.Analyzer, archive Archive, cfg Config) *Session {
	cfg = cfg.withDefaults()
	sessCtx, cancel := context.WithCancel(ctx)

	s := &Session{
		ID:           uuid.New().String(),
		VideoID:      videoID,
		StartedAt:    time.Now(),
		cfg:          cfg,
		analyzer:     analyzer,
		archive:      archive,
		ctx:          sessCtx,
		cancel:       cancel,
		analysisMode: true,
		history:      NewVitalsBuffer(cfg.HistorySize),
		assembler:    NewBatchAssembler(cfg.BatchSize),
		gate:         NewRelevanceGate(cfg.GateFrames, cfg.GateThreshold),
		ball:         pose.NewBallTracker(cfg.HistorySize),
		feedback:     NewFeedbackStore(cfg.Stride),
		notify:       make(chan struct{}, 1),
		// Sized so a stall in the realtime workers drops frames instead
		// of blocking frame intake.
		realtimeQueue: make(chan realtimeItem, cfg.MaxConcurrent*8),
		updates:       make(chan SessionUpdate, 100),
	}

	if archive != nil {
		cached, err := archive.LoadAdvice(sessCtx, videoID)
		if err != nil {
			log.Printf("[COACH] Failed to load archived advice for video %s: %v", videoID, err)
		} else if len(cached) > 0 {
			for _, advice := range cached {
				s.feedback.Put(advice)
			}
			log.Printf("[COACH] Reusing %d archived advice records for video %s", len(cached), videoID)
		}
	}

	go s.runBatchWorker()
	for i := 0; i < cfg.MaxConcurrent; i++ {
		go s.runRealtimeWorker()
	}

	return s
}

// AddFrame ingests one per-frame snapshot from the client: it feeds the
// relevance gate, derives vitals, extends the rolling history, advances
// the batch assembler, and schedules buffered single-frame analysis at the
// sampling stride. It returns the advice currently applicable to the
// frame, if any.
func (s *Session) AddFrame(input FrameInput) (GateStatus, *StoredAdvice) {
	s.mu.Lock()

	status := s.gate.Observe(input.Landmarks)
	if status == GateNotRelevant {
		if s.analysisMode {
			s.analysisMode = false
			s.assembler.Reset()
			// Queued batches are dropped too; nothing collected before the
			// decision is worth a model call.
			s.pendingBatches = nil
			log.Printf("[GATE] Session %s: video classified not relevant (rate %.2f), pausing analysis",
				s.ID, s.gate.DetectionRate())
			s.publishLocked(SessionUpdate{Type: "not_relevant", Data: map[string]interface{}{
				"detectionRate": s.gate.DetectionRate(),
			}})
		}
		s.mu.Unlock()
		return status, nil
	}

	s.framesSeen++

	vitals := FrameVitals{
		FrameNumber:  input.FrameNumber,
		Timestamp:    input.Timestamp,
		Angles:       pose.ComputeShootingAngles(input.Landmarks),
		BallPosition: pose.FindBall(input.Detections),
	}
	s.ball.Observe(vitals.BallPosition, vitals.Timestamp)
	vitals.BallSpeed = s.ball.Speed()

	var batchReady bool
	if s.analysisMode {
		s.history.Append(vitals)
		if batch := s.assembler.Add(vitals); batch != nil {
			s.pendingBatches = append(s.pendingBatches, batch)
			batchReady = true
		}
	}

	// Frame-feedback lookup so the UI sees pre-computed advice the moment
	// the user pauses.
	var current *StoredAdvice
	if advice, ok := s.feedback.Get(input.FrameNumber); ok {
		current = &advice
		s.currentAdvice = &advice
	} else {
		s.currentAdvice = nil
	}

	generation := s.generation
	s.mu.Unlock()

	if batchReady {
		s.signalWorker()
	}

	s.maybeQueueRealtime(vitals, generation)

	return status, current
}

// maybeQueueRealtime schedules the buffered single-frame path: every Nth
// frame, skipping frames already cached or already in flight. A full queue
// drops the frame; it will be picked up again on a later pass.
func (s *Session) maybeQueueRealtime(vitals FrameVitals, generation uint64) {
	if vitals.FrameNumber%s.cfg.Stride != 0 {
		return
	}
	if !s.feedback.TryMarkInProgress(vitals.FrameNumber) {
		return
	}

	select {
	case s.realtimeQueue <- realtimeItem{vitals: vitals, generation: generation}:
	default:
		s.feedback.ClearInProgress(vitals.FrameNumber)
	}
}

// Advice is the playback lookup: exact hit or nearest within the search
// radius.
func (s *Session) Advice(frameNumber int) (StoredAdvice, bool) {
	return s.feedback.Get(frameNumber)
}

// AllAdvice returns every cached advice record, ordered by frame number.
func (s *Session) AllAdvice() []StoredAdvice {
	advice := s.feedback.All()
	sort.Slice(advice, func(i, j int) bool {
		return advice[i].FrameNumber < advice[j].FrameNumber
	})
	return advice
}

// IsFrameInProgress reports whether the buffered path is currently
// computing advice for the frame.
func (s *Session) IsFrameInProgress(frameNumber int) bool {
	return s.feedback.IsInProgress(frameNumber)
}

// Summary returns the running session summary (last-write-wins across
// batch responses).
func (s *Session) Summary() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.summary
}

// History returns a copy of the rolling vitals window.
func (s *Session) History() []FrameVitals {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.Frames()
}

// SetAnalysisMode toggles batch collection. Turning it off discards the
// partial accumulator; only full batches are ever queued.
func (s *Session) SetAnalysisMode(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.analysisMode == enabled {
		return
	}
	s.analysisMode = enabled
	if !enabled {
		s.assembler.Reset()
	}
}

// Reset clears every store and queue for a new video. The generation bump
// invalidates in-flight requests: their results are discarded on arrival
// instead of being written into state that no longer matches the video.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.generation++
	s.analysisMode = true
	s.framesSeen = 0
	s.history.Clear()
	s.assembler.Reset()
	s.gate.Reset()
	s.ball.Reset()
	s.pendingBatches = nil
	s.processingBatch = nil
	s.completedBatches = nil
	s.failedBatches = nil
	s.summary = ""
	s.currentAdvice = nil
	s.feedback.Clear()

	log.Printf("[COACH] Session %s reset (generation %d)", s.ID, s.generation)
}

// Close cancels the session's workers. Pending updates stay readable until
// the SSE consumer observes Done.
func (s *Session) Close() {
	s.cancel()
}

// Done exposes the session lifetime to SSE consumers.
func (s *Session) Done() <-chan struct{} {
	return s.ctx.Done()
}

// Updates is the event stream consumed by the SSE handler.
func (s *Session) Updates() <-chan SessionUpdate {
	return s.updates
}

// Status is a point-in-time snapshot for the status endpoint.
type Status struct {
	ID             string    `json:"id"`
	VideoID        string    `json:"videoId"`
	StartedAt      time.Time `json:"startedAt"`
	AnalysisMode   bool      `json:"analysisMode"`
	Gate           string    `json:"gate"`
	DetectionRate  float64   `json:"detectionRate"`
	FramesSeen     int       `json:"framesSeen"`
	PendingBatches int       `json:"pendingBatches"`
	Processing     bool      `json:"processing"`
	Completed      int       `json:"completedBatches"`
	Failed         int       `json:"failedBatches"`
	AdviceCount    int       `json:"adviceCount"`
	Summary        string    `json:"summary,omitempty"`
}

func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Status{
		ID:             s.ID,
		VideoID:        s.VideoID,
		StartedAt:      s.StartedAt,
		AnalysisMode:   s.analysisMode,
		Gate:           s.gate.Status().String(),
		DetectionRate:  s.gate.DetectionRate(),
		FramesSeen:     s.framesSeen,
		PendingBatches: len(s.pendingBatches),
		Processing:     s.processingBatch != nil,
		Completed:      len(s.completedBatches),
		Failed:         len(s.failedBatches),
		AdviceCount:    s.feedback.Len(),
		Summary:        s.summary,
	}
}

func (s *Session) signalWorker() {
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

// publishLocked emits an update without blocking frame intake; a slow or
// absent SSE consumer loses events rather than stalling the pipeline.
func (s *Session) publishLocked(update SessionUpdate) {
	select {
	case s.updates <- update:
	default:
	}
}
