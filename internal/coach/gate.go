package coach

import "github.com/mlevkov/shotcoach/internal/pose"

// GateStatus is the relevance decision for a session's video.
type GateStatus int

const (
	// GateUnknown means not enough frames have been observed yet.
	GateUnknown GateStatus = iota
	// GateRelevant means the video plausibly contains a basketball shot.
	GateRelevant
	// GateNotRelevant is terminal: automatic analysis stops until a new
	// video is uploaded.
	GateNotRelevant
)

func (s GateStatus) String() string {
	switch s {
	case GateRelevant:
		return "relevant"
	case GateNotRelevant:
		return "not_relevant"
	default:
		return "unknown"
	}
}

// RelevanceGate samples the opening frames of pose detections to decide
// whether the video plausibly shows a person at all before spending model
// calls on it. A frame counts as "person visible" when both shoulder
// landmarks clear the visibility threshold. The decision is made exactly
// once, after the observation window fills, and is sticky from then on.
// Not safe for concurrent use; the owning session serializes access.
type RelevanceGate struct {
	window    int
	threshold float64
	processed int
	detected  int
	status    GateStatus
}

func NewRelevanceGate(window int, threshold float64) *RelevanceGate {
	if window <= 0 {
		window = DefaultGateFrames
	}
	if threshold <= 0 {
		threshold = DefaultGateThreshold
	}
	return &RelevanceGate{window: window, threshold: threshold}
}

// Observe feeds one frame of landmarks through the gate and returns the
// current status. Frames observed after the decision do not revisit it.
func (g *RelevanceGate) Observe(landmarks []pose.Landmark) GateStatus {
	if g.status != GateUnknown {
		return g.status
	}

	g.processed++
	if personVisible(landmarks) {
		g.detected++
	}

	if g.processed >= g.window {
		rate := float64(g.detected) / float64(g.processed)
		if rate < g.threshold {
			g.status = GateNotRelevant
		} else {
			g.status = GateRelevant
		}
	}

	return g.status
}

// Status returns the current decision without observing a frame.
func (g *RelevanceGate) Status() GateStatus {
	return g.status
}

// DetectionRate returns the fraction of observed frames with a visible
// person, for diagnostics.
func (g *RelevanceGate) DetectionRate() float64 {
	if g.processed == 0 {
		return 0
	}
	return float64(g.detected) / float64(g.processed)
}

// Reset returns the gate to Unknown for a newly uploaded video.
func (g *RelevanceGate) Reset() {
	g.processed = 0
	g.detected = 0
	g.status = GateUnknown
}

func personVisible(landmarks []pose.Landmark) bool {
	if len(landmarks) <= pose.RightShoulder {
		return false
	}
	left := landmarks[pose.LeftShoulder]
	right := landmarks[pose.RightShoulder]
	return left.Visibility > pose.MinVisibility && right.Visibility > pose.MinVisibility
}
