package coach

import (
	"time"

	"github.com/mlevkov/shotcoach/internal/ai"
	"github.com/mlevkov/shotcoach/internal/pose"
)

// FrameVitals is one frame's worth of derived measurements: the joint
// angles plus ball kinematics. Immutable once created.
type FrameVitals struct {
	FrameNumber  int                `json:"frameNumber"`
	Timestamp    float64            `json:"timestamp"`
	Angles       pose.JointAngles   `json:"angles"`
	BallPosition *pose.BallPosition `json:"ballPosition,omitempty"`
	BallSpeed    float64            `json:"ballSpeed,omitempty"`
}

func (v FrameVitals) payload() ai.FramePayload {
	return ai.FramePayload{
		FrameNumber:  v.FrameNumber,
		Timestamp:    v.Timestamp,
		Angles:       v.Angles,
		BallPosition: v.BallPosition,
		BallSpeed:    v.BallSpeed,
	}
}

// FrameBatch is a fixed-size ordered run of frame vitals submitted to the
// model together. Processed flips to true after a successful round-trip
// and the batch is never mutated after that.
type FrameBatch struct {
	StartFrame int
	EndFrame   int
	Frames     []FrameVitals
	Processed  bool

	// Retry bookkeeping, owned by the batch worker.
	attempts    int
	nextAttempt time.Time
}

// StoredAdvice is a computed coaching record keyed by frame number,
// retained for the session lifetime.
type StoredAdvice struct {
	FrameNumber int      `json:"frameNumber"`
	Timestamp   float64  `json:"timestamp"`
	Advice      string   `json:"advice"`
	Confidence  float64  `json:"confidence"`
	KeyPoints   []string `json:"keyPoints,omitempty"`
}

// FrameInput is the per-frame snapshot the browser client posts: raw pose
// landmarks and detector boxes for one rendered frame.
type FrameInput struct {
	FrameNumber int              `json:"frameNumber"`
	Timestamp   float64          `json:"timestamp"`
	Landmarks   []pose.Landmark  `json:"landmarks"`
	Detections  []pose.Detection `json:"detections"`
}

// SessionUpdate is one event published to the session's SSE stream.
type SessionUpdate struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Config tunes the coaching pipeline. Zero values fall back to the
// defaults below.
type Config struct {
	// BatchSize frames form one analysis batch (~1 second at 60fps).
	BatchSize int
	// HistorySize bounds the rolling vitals window (~5 seconds at 60fps).
	HistorySize int
	// Stride selects every Nth frame for the buffered single-frame path.
	Stride int
	// MaxConcurrent bounds in-flight single-frame requests.
	MaxConcurrent int
	// DrainInterval is the safety-net poll for pending batches; enqueues
	// signal the worker directly.
	DrainInterval time.Duration
	// MaxRetries caps how often a failed batch is re-attempted before it
	// is parked as failed.
	MaxRetries int
	// RetryBackoff is the base delay before a failed batch becomes
	// eligible again; doubles per attempt.
	RetryBackoff time.Duration
	// RequestTimeout bounds each model call so a hung request cannot
	// starve the single-flight slot.
	RequestTimeout time.Duration
	// GateFrames is how many initial frames the relevance gate observes
	// before deciding.
	GateFrames int
	// GateThreshold is the minimum person-detection rate for a video to
	// count as basketball-relevant.
	GateThreshold float64
}

const (
	DefaultBatchSize      = 60
	DefaultHistorySize    = 300
	DefaultStride         = 10
	DefaultMaxConcurrent  = 2
	DefaultDrainInterval  = 2 * time.Second
	DefaultMaxRetries     = 5
	DefaultRetryBackoff   = 2 * time.Second
	DefaultRequestTimeout = 30 * time.Second
	DefaultGateFrames     = 120
	DefaultGateThreshold  = 0.5
)

func (c Config) withDefaults() Config {
	if c.BatchSize <= 0 {
		c.BatchSize = DefaultBatchSize
	}
	if c.HistorySize <= 0 {
		c.HistorySize = DefaultHistorySize
	}
	if c.Stride <= 0 {
		c.Stride = DefaultStride
	}
	if c.MaxConcurrent <= 0 {
		c.MaxConcurrent = DefaultMaxConcurrent
	}
	if c.DrainInterval <= 0 {
		c.DrainInterval = DefaultDrainInterval
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = DefaultMaxRetries
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = DefaultRetryBackoff
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = DefaultRequestTimeout
	}
	if c.GateFrames <= 0 {
		c.GateFrames = DefaultGateFrames
	}
	if c.GateThreshold <= 0 {
		c.GateThreshold = DefaultGateThreshold
	}
	return c
}
