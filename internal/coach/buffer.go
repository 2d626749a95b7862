package coach

// VitalsBuffer keeps the most recent window of frame vitals for the
// comprehensive end-of-session analysis. Eviction is FIFO: when the buffer
// is full the oldest record goes, regardless of how often it was read.
// Not safe for concurrent use; the owning session serializes access.
type VitalsBuffer struct {
	frames []FrameVitals
	cap    int
}

func NewVitalsBuffer(capacity int) *VitalsBuffer {
	if capacity <= 0 {
		capacity = DefaultHistorySize
	}
	return &VitalsBuffer{cap: capacity}
}

// Append adds a record, evicting the oldest when over capacity.
func (b *VitalsBuffer) Append(v FrameVitals) {
	b.frames = append(b.frames, v)
	if len(b.frames) > b.cap {
		b.frames = b.frames[len(b.frames)-b.cap:]
	}
}

func (b *VitalsBuffer) Len() int {
	return len(b.frames)
}

// Frames returns a copy of the current window, oldest first.
func (b *VitalsBuffer) Frames() []FrameVitals {
	out := make([]FrameVitals, len(b.frames))
	copy(out, b.frames)
	return out
}

// Last returns the most recent record, or false when empty.
func (b *VitalsBuffer) Last() (FrameVitals, bool) {
	if len(b.frames) == 0 {
		return FrameVitals{}, false
	}
	return b.frames[len(b.frames)-1], true
}

func (b *VitalsBuffer) Clear() {
	b.frames = nil
}
