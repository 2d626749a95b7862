package coach

// BatchAssembler accumulates appended frame vitals and cuts a FrameBatch
// once exactly batchSize entries have collected. Only full batches are
// ever produced; a partial accumulator is discarded on Reset (analysis
// mode turned off or new video), never flushed short.
// Not safe for concurrent use; the owning session serializes access.
type BatchAssembler struct {
	pending   []FrameVitals
	batchSize int
}

func NewBatchAssembler(batchSize int) *BatchAssembler {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &BatchAssembler{batchSize: batchSize}
}

// Add appends one record to the accumulator. When the accumulator reaches
// the batch size, the whole run moves into a new FrameBatch, the
// accumulator is cleared, and the batch is returned; otherwise Add returns
// nil.
func (a *BatchAssembler) Add(v FrameVitals) *FrameBatch {
	a.pending = append(a.pending, v)
	if len(a.pending) < a.batchSize {
		return nil
	}

	frames := a.pending
	a.pending = nil

	return &FrameBatch{
		StartFrame: frames[0].FrameNumber,
		EndFrame:   frames[len(frames)-1].FrameNumber,
		Frames:     frames,
	}
}

// Pending reports how many frames are accumulated toward the next batch.
func (a *BatchAssembler) Pending() int {
	return len(a.pending)
}

// Reset discards the partial accumulator.
func (a *BatchAssembler) Reset() {
	a.pending = nil
}
