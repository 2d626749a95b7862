package coach

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mlevkov/shotcoach/internal/ai"
)

// scriptedClient answers batch (JSON) and realtime (text) requests
// separately and can fail or block the batch path on demand.
type scriptedClient struct {
	mu sync.Mutex

	batchResponse string
	batchFailures int

	block chan struct{}

	batchCalls    int
	inFlightBatch int
	maxInFlight   int
	realtimeCalls int
}

func (c *scriptedClient) Generate(ctx context.Context, req ai.GenerateRequest) (string, error) {
	if !req.Config.JSONResponse {
		c.mu.Lock()
		c.realtimeCalls++
		c.mu.Unlock()
		return "Keep your shooting elbow tucked in.", nil
	}

	c.mu.Lock()
	c.batchCalls++
	c.inFlightBatch++
	if c.inFlightBatch > c.maxInFlight {
		c.maxInFlight = c.inFlightBatch
	}
	fail := c.batchFailures > 0
	if fail {
		c.batchFailures--
	}
	block := c.block
	c.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			c.mu.Lock()
			c.inFlightBatch--
			c.mu.Unlock()
			return "", ctx.Err()
		}
	}

	c.mu.Lock()
	c.inFlightBatch--
	c.mu.Unlock()

	if fail {
		return "", errors.New("simulated transport failure")
	}
	return c.batchResponse, nil
}

func testConfig() Config {
	return Config{
		BatchSize:     60,
		Stride:        10,
		DrainInterval: 10 * time.Millisecond,
		MaxRetries:    5,
		RetryBackoff:  time.Millisecond,
	}
}

func newTestSession(t *testing.T, client ai.Client, cfg Config) *Session {
	t.Helper()
	session := newSession(context.Background(), "video-1", ai.NewAnalyzer(client), nil, cfg)
	t.Cleanup(session.Close)
	return session
}

func feedFrames(s *Session, start, count int) {
	for i := start; i < start+count; i++ {
		s.AddFrame(FrameInput{
			FrameNumber: i,
			Timestamp:   float64(i) / 60,
			Landmarks:   visibleLandmarks(),
		})
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestSessionBatchDemux(t *testing.T) {
	client := &scriptedClient{
		batchResponse: `{
			"feedback": "Decent sequence",
			"confidence": 0.9,
			"keyPoints": ["Balance"],
			"summary": "Solid base, work on the release.",
			"frameAnalysis": [
				{"frameNumber": 12, "feedback": "Nice knee bend", "confidence": 0.85, "keyPoints": ["Knees"]},
				{"frameNumber": 48, "feedback": "Elbow drifts wide", "confidence": 0.9, "keyPoints": ["Elbow"]},
				{"frameNumber": 9999, "feedback": "unknown frame", "confidence": 0.5, "keyPoints": []}
			]
		}`,
	}
	session := newTestSession(t, client, testConfig())

	feedFrames(session, 0, 60)

	waitFor(t, "batch completion", func() bool {
		return session.Status().Completed == 1
	})

	got, ok := session.Advice(12)
	if !ok || got.Advice != "Nice knee bend" {
		t.Errorf("Advice(12) = %+v, %v", got, ok)
	}
	if got.Timestamp != float64(12)/60 {
		t.Errorf("advice timestamp = %v, want frame 12's timestamp", got.Timestamp)
	}

	if _, ok := session.Advice(48); !ok {
		t.Error("Advice(48) missing")
	}

	// Items referencing frames outside the batch are dropped.
	if session.feedback.Has(9999) {
		t.Error("advice stored for a frame number not in the batch")
	}

	if session.Summary() != "Solid base, work on the release." {
		t.Errorf("summary = %q", session.Summary())
	}
}

func TestSessionMiddleFrameFallback(t *testing.T) {
	client := &scriptedClient{
		batchResponse: `{"feedback": "Overall smooth motion", "confidence": 0.8, "keyPoints": ["Rhythm"]}`,
	}
	cfg := testConfig()
	cfg.Stride = 61 // keep the single-frame path away from frame 30
	session := newTestSession(t, client, cfg)

	feedFrames(session, 0, 60)

	waitFor(t, "batch completion", func() bool {
		return session.Status().Completed == 1
	})

	// No per-frame breakdown: the single feedback lands on the middle
	// frame, index floor(60/2) = frame 30.
	if !session.feedback.Has(30) {
		t.Fatal("fallback advice not stored at the middle frame")
	}
	got, _ := session.Advice(30)
	if got.Advice != "Overall smooth motion" {
		t.Errorf("middle-frame advice = %q", got.Advice)
	}
}

func TestSessionSingleFlight(t *testing.T) {
	client := &scriptedClient{
		batchResponse: `{"feedback": "ok", "confidence": 0.8}`,
		block:         make(chan struct{}),
	}
	session := newTestSession(t, client, testConfig())

	// Two full batches.
	feedFrames(session, 0, 120)

	waitFor(t, "first batch in flight", func() bool {
		return session.Status().Processing
	})

	status := session.Status()
	if status.PendingBatches != 1 {
		t.Errorf("pending batches = %d, want 1 queued behind the in-flight batch", status.PendingBatches)
	}

	close(client.block)

	waitFor(t, "both batches completed", func() bool {
		return session.Status().Completed == 2
	})

	client.mu.Lock()
	defer client.mu.Unlock()
	if client.maxInFlight > 1 {
		t.Errorf("observed %d concurrent batch requests, single-flight requires 1", client.maxInFlight)
	}
}

func TestSessionRetryAtHead(t *testing.T) {
	client := &scriptedClient{
		batchResponse: `{"feedback": "recovered", "confidence": 0.8}`,
		batchFailures: 2,
	}
	session := newTestSession(t, client, testConfig())

	feedFrames(session, 0, 60)

	// The failed batch reappears at the head of the queue and is retried
	// on a later drain until it succeeds.
	waitFor(t, "batch completion after retries", func() bool {
		return session.Status().Completed == 1
	})

	client.mu.Lock()
	calls := client.batchCalls
	client.mu.Unlock()
	if calls != 3 {
		t.Errorf("batch attempts = %d, want 3 (2 failures + 1 success)", calls)
	}

	if !session.feedback.Has(30) {
		t.Error("advice missing after recovery")
	}
}

func TestSessionRetryCap(t *testing.T) {
	client := &scriptedClient{
		batchResponse: `{"feedback": "never", "confidence": 0.8}`,
		batchFailures: 100,
	}
	cfg := testConfig()
	cfg.MaxRetries = 3
	session := newTestSession(t, client, cfg)

	feedFrames(session, 0, 60)

	waitFor(t, "batch parked as failed", func() bool {
		return session.Status().Failed == 1
	})

	status := session.Status()
	if status.PendingBatches != 0 || status.Processing {
		t.Errorf("failed batch still queued: %+v", status)
	}

	client.mu.Lock()
	calls := client.batchCalls
	client.mu.Unlock()
	if calls != 3 {
		t.Errorf("batch attempts = %d, want exactly MaxRetries (3)", calls)
	}
}

func TestSessionResetDiscardsInFlightResult(t *testing.T) {
	client := &scriptedClient{
		batchResponse: `{"feedback": "stale result", "confidence": 0.8, "summary": "stale"}`,
		block:         make(chan struct{}),
	}
	session := newTestSession(t, client, testConfig())

	feedFrames(session, 0, 60)

	waitFor(t, "batch in flight", func() bool {
		return session.Status().Processing
	})

	session.Reset()
	close(client.block)

	// The response arrives after the reset; its generation no longer
	// matches, so nothing may be written.
	time.Sleep(50 * time.Millisecond)

	if n := session.feedback.Len(); n != 0 {
		t.Errorf("stale result wrote %d advice records into the reset store", n)
	}
	if session.Summary() != "" {
		t.Errorf("stale summary written: %q", session.Summary())
	}
	if session.Status().Completed != 0 {
		t.Error("stale batch counted as completed")
	}
}

func TestSessionRealtimeStride(t *testing.T) {
	client := &scriptedClient{
		batchResponse: `{"feedback": "ok", "confidence": 0.8}`,
	}
	cfg := testConfig()
	cfg.BatchSize = 1000 // keep the batch path quiet
	session := newTestSession(t, client, cfg)

	feedFrames(session, 0, 60)

	// Frames 0, 10, 20, 30, 40, 50 are sampled.
	waitFor(t, "realtime advice for sampled frames", func() bool {
		for f := 0; f < 60; f += 10 {
			if !session.feedback.Has(f) {
				return false
			}
		}
		return true
	})

	// Off-stride frames never get exact advice from this path.
	for _, f := range []int{5, 13, 57} {
		if session.feedback.Has(f) {
			t.Errorf("off-stride frame %d has exact advice", f)
		}
	}

	// Re-feeding the same frames must not re-request cached ones.
	client.mu.Lock()
	callsBefore := client.realtimeCalls
	client.mu.Unlock()

	feedFrames(session, 0, 60)
	time.Sleep(50 * time.Millisecond)

	client.mu.Lock()
	callsAfter := client.realtimeCalls
	client.mu.Unlock()
	if callsAfter != callsBefore {
		t.Errorf("cached frames were re-requested: %d -> %d calls", callsBefore, callsAfter)
	}
}

func TestNotRelevantDropsQueuedBatches(t *testing.T) {
	client := &scriptedClient{
		batchResponse: `{"feedback": "ok", "confidence": 0.8}`,
		block:         make(chan struct{}),
	}
	cfg := testConfig()
	cfg.BatchSize = 5
	cfg.GateFrames = 20
	cfg.Stride = 1000
	session := newTestSession(t, client, cfg)

	// Shoulders hidden throughout: the gate is still observing, so frames
	// flow into the assembler until the decision lands.
	for i := 0; i < 5; i++ {
		session.AddFrame(FrameInput{FrameNumber: i, Timestamp: float64(i) / 60, Landmarks: hiddenLandmarks()})
	}
	waitFor(t, "first batch in flight", func() bool {
		return session.Status().Processing
	})

	for i := 5; i < 15; i++ {
		session.AddFrame(FrameInput{FrameNumber: i, Timestamp: float64(i) / 60, Landmarks: hiddenLandmarks()})
	}
	if got := session.Status().PendingBatches; got != 2 {
		t.Fatalf("pending batches before decision = %d, want 2", got)
	}

	// Frame 19 is the 20th observation and triggers the NotRelevant
	// decision, which must drop the queued batches too.
	for i := 15; i < 20; i++ {
		session.AddFrame(FrameInput{FrameNumber: i, Timestamp: float64(i) / 60, Landmarks: hiddenLandmarks()})
	}
	if got := session.Status().PendingBatches; got != 0 {
		t.Errorf("pending batches after NotRelevant = %d, want 0", got)
	}

	close(client.block)
	waitFor(t, "in-flight batch completion", func() bool {
		return session.Status().Completed == 1
	})
	time.Sleep(50 * time.Millisecond)

	client.mu.Lock()
	calls := client.batchCalls
	client.mu.Unlock()
	if calls != 1 {
		t.Errorf("batch requests = %d, want only the one already in flight", calls)
	}
}

func TestSessionNotRelevantStopsIntake(t *testing.T) {
	client := &scriptedClient{
		batchResponse: `{"feedback": "ok", "confidence": 0.8}`,
	}
	cfg := testConfig()
	cfg.GateFrames = 20
	session := newTestSession(t, client, cfg)

	for i := 0; i < 20; i++ {
		session.AddFrame(FrameInput{FrameNumber: i, Timestamp: float64(i) / 60, Landmarks: hiddenLandmarks()})
	}

	status, _ := session.AddFrame(FrameInput{FrameNumber: 20, Timestamp: 20.0 / 60, Landmarks: visibleLandmarks()})
	if status != GateNotRelevant {
		t.Fatalf("gate status = %v, want NotRelevant", status)
	}

	snap := session.Status()
	if snap.AnalysisMode {
		t.Error("analysis mode still on after NotRelevant decision")
	}

	// Reset gives the next video a fresh Unknown gate.
	session.Reset()
	if session.Status().Gate != "unknown" {
		t.Errorf("gate after reset = %q, want unknown", session.Status().Gate)
	}
}
