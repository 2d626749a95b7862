package ai

import (
	"github.com/mlevkov/shotcoach/internal/pose"
)

// FramePayload is the reduced per-frame data sent to the model: numbers
// only, no imagery, to keep batch payloads small.
type FramePayload struct {
	FrameNumber  int                `json:"frameNumber"`
	Timestamp    float64            `json:"timestamp"`
	Angles       pose.JointAngles   `json:"angles"`
	BallPosition *pose.BallPosition `json:"ballPosition,omitempty"`
	BallSpeed    float64            `json:"ballSpeed,omitempty"`
}

// BatchContext describes where a batch sits in the video, embedded in the
// prompt so the model can reference frame ranges.
type BatchContext struct {
	StartFrame       int
	EndFrame         int
	BatchSize        int
	IsSummaryRequest bool
	TotalFrames      int
	SelectedFrames   int
}

// FormAnalysisRequest is one shooting-form analysis call: a run of frame
// payloads plus options controlling the response shape.
type FormAnalysisRequest struct {
	Frames         []FramePayload
	RequestSummary bool
	Context        *BatchContext
}

// FrameFeedback is the model's feedback for one specific frame of a batch.
type FrameFeedback struct {
	FrameNumber int      `json:"frameNumber"`
	Feedback    string   `json:"feedback"`
	Confidence  float64  `json:"confidence"`
	KeyPoints   []string `json:"keyPoints"`
}

// FormAnalysisResponse is the parsed JSON the model returns for batch and
// single-frame coaching requests.
type FormAnalysisResponse struct {
	Feedback      string          `json:"feedback"`
	Confidence    float64         `json:"confidence"`
	KeyPoints     []string        `json:"keyPoints"`
	Summary       string          `json:"summary,omitempty"`
	FrameAnalysis []FrameFeedback `json:"frameAnalysis,omitempty"`
}

// TimestampedFeedback is one event of a full-video report.
type TimestampedFeedback struct {
	Timestamp float64 `json:"timestamp"`
	Category  string  `json:"category"`
	Feedback  string  `json:"feedback"`
}

// AnalysisResult is the full-video analysis report: a short summary plus
// feedback events sorted ascending by timestamp.
type AnalysisResult struct {
	Summary string                `json:"summary"`
	Events  []TimestampedFeedback `json:"events"`
}
