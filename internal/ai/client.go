package ai

import (
	"context"
	"errors"
)

// ErrNoAPIKey is returned before any network call when the generative
// client has no credentials configured.
var ErrNoAPIKey = errors.New("generative API key is not configured")

// GenerateConfig carries the generation parameters for one request.
type GenerateConfig struct {
	// Temperature is kept low (0.3) for coaching so repeated analysis of
	// the same motion stays consistent.
	Temperature     float64
	MaxOutputTokens int
	// JSONResponse asks the model to emit application/json instead of
	// free-form text.
	JSONResponse bool
}

// GenerateRequest is a single prompt to the generative model, optionally
// accompanied by base64-encoded JPEG frames.
type GenerateRequest struct {
	Prompt string
	Images []string
	Config GenerateConfig
}

// Client is the external generative-model service. Implementations must be
// safe for concurrent use; the coaching pipeline issues requests from
// multiple goroutines.
type Client interface {
	Generate(ctx context.Context, req GenerateRequest) (string, error)
}
