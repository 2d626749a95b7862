package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/mlevkov/shotcoach/internal/pose"
)

type fakeClient struct {
	response string
	err      error
	requests []GenerateRequest
}

func (f *fakeClient) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	f.requests = append(f.requests, req)
	return f.response, f.err
}

func framePayload(n int, elbow float64) FramePayload {
	return FramePayload{
		FrameNumber: n,
		Timestamp:   float64(n) / 60,
		Angles:      pose.JointAngles{RightElbowAngle: elbow, KneeAngle: 140, TrunkAngle: 5},
	}
}

func TestAnalyzeFormParsesResponse(t *testing.T) {
	client := &fakeClient{
		response: "```json\n" + `{"feedback": "Tuck the elbow", "confidence": 0.9, "keyPoints": ["Elbow"], "frameAnalysis": [{"frameNumber": 5, "feedback": "ok", "confidence": 0.8, "keyPoints": []}]}` + "\n```",
	}
	analyzer := NewAnalyzer(client)

	resp, err := analyzer.AnalyzeForm(context.Background(), FormAnalysisRequest{
		Frames:         []FramePayload{framePayload(5, 95)},
		RequestSummary: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Feedback != "Tuck the elbow" {
		t.Errorf("feedback = %q", resp.Feedback)
	}

	if len(client.requests) != 1 {
		t.Fatalf("expected 1 request, got %d", len(client.requests))
	}
	req := client.requests[0]
	if !req.Config.JSONResponse {
		t.Error("batch request must ask for JSON")
	}
	if req.Config.Temperature != modelTemperature {
		t.Errorf("temperature = %v, want %v", req.Config.Temperature, modelTemperature)
	}
}

func TestAnalyzeFormMalformed(t *testing.T) {
	client := &fakeClient{response: "sorry, I cannot help with that"}
	analyzer := NewAnalyzer(client)

	_, err := analyzer.AnalyzeForm(context.Background(), FormAnalysisRequest{
		Frames: []FramePayload{framePayload(1, 95)},
	})
	if !errors.Is(err, ErrMalformedResponse) {
		t.Errorf("expected ErrMalformedResponse, got %v", err)
	}
}

func TestAnalyzeFormMockFallback(t *testing.T) {
	analyzer := NewAnalyzer(nil)

	frames := make([]FramePayload, 60)
	for i := range frames {
		frames[i] = framePayload(i, 95)
	}

	resp, err := analyzer.AnalyzeForm(context.Background(), FormAnalysisRequest{
		Frames:         frames,
		RequestSummary: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Feedback == "" || resp.Summary == "" {
		t.Errorf("mock response incomplete: %+v", resp)
	}
	if len(resp.FrameAnalysis) == 0 {
		t.Error("mock response has no frame analysis")
	}
	for _, fa := range resp.FrameAnalysis {
		if fa.FrameNumber < 0 || fa.FrameNumber >= 60 {
			t.Errorf("mock frame analysis references unknown frame %d", fa.FrameNumber)
		}
	}
}

func TestRealtimeFeedbackMockRules(t *testing.T) {
	analyzer := NewAnalyzer(nil)

	tests := []struct {
		name   string
		angles pose.JointAngles
		want   string
	}{
		{
			name:   "elbow too bent",
			angles: pose.JointAngles{RightElbowAngle: 50, KneeAngle: 140},
			want:   "Your shooting elbow is too bent. Try to form closer to a 90-degree angle with your elbow.",
		},
		{
			name:   "knees too straight",
			angles: pose.JointAngles{RightElbowAngle: 95, KneeAngle: 170},
			want:   "Bend your knees more to generate proper shooting power from your legs.",
		},
		{
			name:   "good form",
			angles: pose.JointAngles{RightElbowAngle: 95, KneeAngle: 140, TrunkAngle: 5},
			want:   "Good form. Maintain your balance and follow through completely.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := analyzer.RealtimeFeedback(context.Background(), FramePayload{Angles: tt.angles})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("feedback = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFullVideoRequiresClient(t *testing.T) {
	analyzer := NewAnalyzer(nil)

	_, err := analyzer.AnalyzeFullVideo(context.Background(), []string{"abc"}, nil, 3.5)
	if !errors.Is(err, ErrNoAPIKey) {
		t.Errorf("expected ErrNoAPIKey, got %v", err)
	}
}

func TestIsVideoRelevant(t *testing.T) {
	tests := []struct {
		response string
		want     bool
	}{
		{"Yes", true},
		{"yes, this is a basketball shot", true},
		{"No", false},
		{"no.", false},
	}

	for _, tt := range tests {
		client := &fakeClient{response: tt.response}
		analyzer := NewAnalyzer(client)

		got, err := analyzer.IsVideoRelevant(context.Background(), []string{"abc"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != tt.want {
			t.Errorf("IsVideoRelevant(%q) = %v, want %v", tt.response, got, tt.want)
		}
	}
}
