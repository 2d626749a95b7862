package pose

import "math"

// BallSample is one observed ball position with its video timestamp.
type BallSample struct {
	Position  BallPosition
	Timestamp float64
}

// BallTracker keeps a short trajectory of recent ball positions and derives
// simple kinematics from it. It is not safe for concurrent use; the session
// that owns it serializes access.
type BallTracker struct {
	samples []BallSample
	maxLen  int
}

// NewBallTracker returns a tracker that retains the most recent maxLen
// samples. A maxLen of 0 falls back to a small default window.
func NewBallTracker(maxLen int) *BallTracker {
	if maxLen <= 0 {
		maxLen = 30
	}
	return &BallTracker{maxLen: maxLen}
}

// Observe records a ball position for a frame. A nil position (ball not
// detected) is ignored rather than breaking the trajectory.
func (t *BallTracker) Observe(pos *BallPosition, timestamp float64) {
	if pos == nil {
		return
	}
	t.samples = append(t.samples, BallSample{Position: *pos, Timestamp: timestamp})
	if len(t.samples) > t.maxLen {
		t.samples = t.samples[len(t.samples)-t.maxLen:]
	}
}

// Speed returns the ball speed in normalized image units per second, based
// on the two most recent samples. Fewer than 2 samples, or samples with no
// time separation, yield 0.
func (t *BallTracker) Speed() float64 {
	if len(t.samples) < 2 {
		return 0
	}
	a := t.samples[len(t.samples)-2]
	b := t.samples[len(t.samples)-1]
	dt := b.Timestamp - a.Timestamp
	if dt <= 0 {
		return 0
	}
	dx := b.Position[0] - a.Position[0]
	dy := b.Position[1] - a.Position[1]
	dz := b.Position[2] - a.Position[2]
	return math.Sqrt(dx*dx+dy*dy+dz*dz) / dt
}

// Len reports how many samples are currently retained.
func (t *BallTracker) Len() int {
	return len(t.samples)
}

// Reset drops the trajectory, e.g. when a new video is loaded.
func (t *BallTracker) Reset() {
	t.samples = nil
}
