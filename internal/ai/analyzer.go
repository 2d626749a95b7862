package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
)

// Analyzer wraps the generative client with the coaching-specific request
// shapes. When no client is configured (missing API key), the realtime and
// batch paths fall back to rule-based mock feedback so the pipeline keeps
// working during development; the user-initiated full-video paths fail fast
// instead.
type Analyzer struct {
	client Client
}

func NewAnalyzer(client Client) *Analyzer {
	if client == nil {
		log.Printf("[AI] No generative client configured, using mock coaching feedback")
	}
	return &Analyzer{client: client}
}

// HasClient reports whether a real generative client is wired in.
func (a *Analyzer) HasClient() bool {
	return a.client != nil
}

// RealtimeFeedback returns short free-form advice for a single frame.
func (a *Analyzer) RealtimeFeedback(ctx context.Context, frame FramePayload) (string, error) {
	if a.client == nil {
		return mockRealtimeFeedback(frame), nil
	}

	text, err := a.client.Generate(ctx, GenerateRequest{
		Prompt: RealtimePrompt(frame),
		Config: GenerateConfig{
			Temperature:     modelTemperature,
			MaxOutputTokens: 100,
		},
	})
	if err != nil {
		return "", fmt.Errorf("realtime feedback: %w", err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "No feedback available at this time.", nil
	}
	return text, nil
}

// AnalyzeForm runs a batch (or single-frame) coaching analysis and parses
// the structured response.
func (a *Analyzer) AnalyzeForm(ctx context.Context, req FormAnalysisRequest) (*FormAnalysisResponse, error) {
	if len(req.Frames) == 0 {
		return nil, fmt.Errorf("no frames to analyze")
	}

	if a.client == nil {
		return mockFormAnalysis(req), nil
	}

	text, err := a.client.Generate(ctx, GenerateRequest{
		Prompt: BatchPrompt(req),
		Config: GenerateConfig{
			Temperature:     modelTemperature,
			MaxOutputTokens: 1000,
			JSONResponse:    true,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("form analysis: %w", err)
	}

	return ParseFormAnalysisResponse(text)
}

// AnalyzeFullVideo sends sampled base64 JPEG frames plus their vitals in a
// single request and returns the timestamped report. Requires a configured
// client; this path is user-initiated and has no mock fallback.
func (a *Analyzer) AnalyzeFullVideo(ctx context.Context, frames []string, vitals []FramePayload, duration float64) (*AnalysisResult, error) {
	if a.client == nil {
		return nil, ErrNoAPIKey
	}
	if len(frames) == 0 {
		return nil, fmt.Errorf("no frames extracted from video")
	}

	vitalsJSON := make([]string, 0, len(vitals))
	for _, v := range vitals {
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal vitals: %w", err)
		}
		vitalsJSON = append(vitalsJSON, string(b))
	}

	text, err := a.client.Generate(ctx, GenerateRequest{
		Prompt: FullVideoPrompt(duration, vitalsJSON),
		Images: frames,
		Config: GenerateConfig{
			Temperature:  modelTemperature,
			JSONResponse: true,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("full video analysis: %w", err)
	}

	return ParseAnalysisResult(text)
}

// IsVideoRelevant asks the model whether the sampled frames plausibly show
// a basketball shot.
func (a *Analyzer) IsVideoRelevant(ctx context.Context, frames []string) (bool, error) {
	if a.client == nil {
		return false, ErrNoAPIKey
	}

	text, err := a.client.Generate(ctx, GenerateRequest{
		Prompt: RelevancePrompt(),
		Images: frames,
	})
	if err != nil {
		return false, fmt.Errorf("relevance check: %w", err)
	}

	return strings.Contains(strings.ToLower(strings.TrimSpace(text)), "yes"), nil
}
