package coach

import (
	"context"
	"log"
	"time"

	"github.com/mlevkov/shotcoach/internal/ai"
)

// runBatchWorker drives the full-batch path. Enqueues wake it through the
// notify channel; the ticker is a safety net so a missed signal only
// delays a batch by one interval. Batches are processed strictly in FIFO
// order with single-flight semantics: feedback for earlier video segments
// is always computed before later ones.
func (s *Session) runBatchWorker() {
	ticker := time.NewTicker(s.cfg.DrainInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-s.notify:
		case <-ticker.C:
		}
		s.drainBatches()
	}
}

// drainBatches pops and processes pending batches until the queue is
// empty, a batch is still backing off, or a failure occurs. The
// check-then-set of processingBatch happens under the session lock so two
// concurrent triggers can never both claim work.
func (s *Session) drainBatches() {
	for {
		s.mu.Lock()
		if s.processingBatch != nil || len(s.pendingBatches) == 0 {
			s.mu.Unlock()
			return
		}

		batch := s.pendingBatches[0]
		if time.Now().Before(batch.nextAttempt) {
			s.mu.Unlock()
			return
		}

		s.pendingBatches = s.pendingBatches[1:]
		s.processingBatch = batch
		generation := s.generation
		s.mu.Unlock()

		if !s.processBatch(batch, generation) {
			return
		}
	}
}

// processBatch sends one batch to the model and demultiplexes the
// response. Returns true when the worker should immediately attempt the
// next pending batch.
func (s *Session) processBatch(batch *FrameBatch, generation uint64) bool {
	ctx, cancel := context.WithTimeout(s.ctx, s.cfg.RequestTimeout)
	defer cancel()

	resp, err := s.analyzer.AnalyzeForm(ctx, ai.FormAnalysisRequest{
		Frames:         framePayloads(batch.Frames),
		RequestSummary: true,
		Context: &ai.BatchContext{
			StartFrame: batch.StartFrame,
			EndFrame:   batch.EndFrame,
			BatchSize:  len(batch.Frames),
		},
	})

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.generation != generation {
		// Session was reset while the request was in flight; the result
		// belongs to a previous video and must not be written anywhere.
		log.Printf("[BATCH] Session %s: discarding stale result for frames %d-%d",
			s.ID, batch.StartFrame, batch.EndFrame)
		return false
	}

	if err != nil {
		return s.handleBatchFailureLocked(batch, err)
	}

	advice := demuxBatchResponse(batch, resp)
	for _, a := range advice {
		s.feedback.Put(a)
	}
	if resp.Summary != "" {
		// Last write wins; the summary tracks the most recent batch.
		s.summary = resp.Summary
	}

	batch.Processed = true
	s.completedBatches = append(s.completedBatches, batch)
	s.processingBatch = nil

	s.publishLocked(SessionUpdate{Type: "advice", Data: map[string]interface{}{
		"startFrame": batch.StartFrame,
		"endFrame":   batch.EndFrame,
		"advice":     advice,
		"summary":    s.summary,
	}})

	log.Printf("[BATCH] Session %s: frames %d-%d analyzed, %d advice records",
		s.ID, batch.StartFrame, batch.EndFrame, len(advice))

	if s.archive != nil && len(advice) > 0 {
		// Persist outside the lock; archive failures only cost a cache.
		go s.archiveAdvice(advice)
	}

	return true
}

// handleBatchFailureLocked requeues the failed batch at the head of the
// queue so FIFO order is preserved across retries, with exponential
// backoff. After the retry cap the batch is parked as failed instead of
// flooding the model service forever.
func (s *Session) handleBatchFailureLocked(batch *FrameBatch, err error) bool {
	batch.attempts++
	s.processingBatch = nil

	if batch.attempts >= s.cfg.MaxRetries {
		s.failedBatches = append(s.failedBatches, batch)
		log.Printf("[BATCH] Session %s: frames %d-%d failed permanently after %d attempts: %v",
			s.ID, batch.StartFrame, batch.EndFrame, batch.attempts, err)
		s.publishLocked(SessionUpdate{Type: "batch_failed", Data: map[string]interface{}{
			"startFrame": batch.StartFrame,
			"endFrame":   batch.EndFrame,
		}})
		return false
	}

	backoff := retryBackoff(s.cfg.RetryBackoff, batch.attempts)
	batch.nextAttempt = time.Now().Add(backoff)
	s.pendingBatches = append([]*FrameBatch{batch}, s.pendingBatches...)

	log.Printf("[BATCH] Session %s: frames %d-%d failed (attempt %d), retrying in %v: %v",
		s.ID, batch.StartFrame, batch.EndFrame, batch.attempts, backoff, err)
	return false
}

// maxRetryBackoff caps the delay between attempts on the same batch.
const maxRetryBackoff = 30 * time.Second

// retryBackoff doubles the base delay per prior attempt. Doubling stops at
// the cap rather than shifting, so a large configured retry count cannot
// overflow into a zero or negative delay.
func retryBackoff(base time.Duration, attempts int) time.Duration {
	backoff := base
	for i := 1; i < attempts; i++ {
		if backoff >= maxRetryBackoff {
			return maxRetryBackoff
		}
		backoff *= 2
	}
	if backoff > maxRetryBackoff {
		backoff = maxRetryBackoff
	}
	return backoff
}

// demuxBatchResponse maps the combined model response back onto specific
// frames. Per-frame items are matched by frame number; items referencing
// unknown frames are dropped. When the model returned only an overall
// feedback string, it is attributed to the batch's middle frame.
func demuxBatchResponse(batch *FrameBatch, resp *ai.FormAnalysisResponse) []StoredAdvice {
	var advice []StoredAdvice

	if len(resp.FrameAnalysis) > 0 {
		for _, item := range resp.FrameAnalysis {
			frame, ok := findFrame(batch.Frames, item.FrameNumber)
			if !ok {
				continue
			}
			confidence := item.Confidence
			if confidence == 0 {
				confidence = 0.7
			}
			advice = append(advice, StoredAdvice{
				FrameNumber: frame.FrameNumber,
				Timestamp:   frame.Timestamp,
				Advice:      item.Feedback,
				Confidence:  confidence,
				KeyPoints:   item.KeyPoints,
			})
		}
	}

	if len(advice) == 0 && resp.Feedback != "" {
		middle := batch.Frames[len(batch.Frames)/2]
		confidence := resp.Confidence
		if confidence == 0 {
			confidence = 0.7
		}
		advice = append(advice, StoredAdvice{
			FrameNumber: middle.FrameNumber,
			Timestamp:   middle.Timestamp,
			Advice:      resp.Feedback,
			Confidence:  confidence,
			KeyPoints:   resp.KeyPoints,
		})
	}

	return advice
}

func findFrame(frames []FrameVitals, frameNumber int) (FrameVitals, bool) {
	for _, f := range frames {
		if f.FrameNumber == frameNumber {
			return f, true
		}
	}
	return FrameVitals{}, false
}

func framePayloads(frames []FrameVitals) []ai.FramePayload {
	payloads := make([]ai.FramePayload, len(frames))
	for i, f := range frames {
		payloads[i] = f.payload()
	}
	return payloads
}

func (s *Session) archiveAdvice(advice []StoredAdvice) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.archive.SaveAdvice(ctx, s.VideoID, advice); err != nil {
		log.Printf("[COACH] Failed to archive advice for video %s: %v", s.VideoID, err)
	}
}

// runRealtimeWorker serves the buffered single-frame path. Up to
// MaxConcurrent workers pull queued frames with no ordering guarantee
// between completions; results are keyed by frame number, never by
// arrival order. Failures drop the frame silently; it simply never gets
// cached feedback.
func (s *Session) runRealtimeWorker() {
	for {
		select {
		case <-s.ctx.Done():
			return
		case item := <-s.realtimeQueue:
			s.processRealtimeFrame(item)
		}
	}
}

func (s *Session) processRealtimeFrame(item realtimeItem) {
	defer s.feedback.ClearInProgress(item.vitals.FrameNumber)

	ctx, cancel := context.WithTimeout(s.ctx, s.cfg.RequestTimeout)
	defer cancel()

	text, err := s.analyzer.RealtimeFeedback(ctx, item.vitals.payload())
	if err != nil {
		log.Printf("[REALTIME] Session %s: frame %d feedback failed: %v",
			s.ID, item.vitals.FrameNumber, err)
		return
	}

	s.mu.Lock()
	stale := s.generation != item.generation
	s.mu.Unlock()
	if stale {
		return
	}

	s.feedback.Put(StoredAdvice{
		FrameNumber: item.vitals.FrameNumber,
		Timestamp:   item.vitals.Timestamp,
		Advice:      text,
		Confidence:  0.8,
	})
}
