package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// ErrMalformedResponse marks a model reply that was not valid JSON after
// fence stripping or lacked the required fields. Callers surface it as an
// "unexpected response, please retry" condition.
var ErrMalformedResponse = errors.New("unexpected response from model")

// Models frequently wrap JSON output in a markdown code block even when
// asked not to. Matches an optional language tag after the opening fence.
var fenceRegex = regexp.MustCompile("(?s)^```(\\w*)?\\s*\n?(.*?)\n?\\s*```$")

// StripCodeFence removes a single leading/trailing markdown code fence
// from s, if present, and trims whitespace.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if match := fenceRegex.FindStringSubmatch(s); match != nil {
		return strings.TrimSpace(match[2])
	}
	return s
}

// ParseFormAnalysisResponse decodes a coaching response. A response with no
// feedback field is malformed; frameAnalysis and summary are optional.
func ParseFormAnalysisResponse(text string) (*FormAnalysisResponse, error) {
	jsonStr := StripCodeFence(text)

	var resp FormAnalysisResponse
	if err := json.Unmarshal([]byte(jsonStr), &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	if resp.Feedback == "" {
		return nil, fmt.Errorf("%w: missing feedback field", ErrMalformedResponse)
	}

	return &resp, nil
}

// ParseAnalysisResult decodes a full-video report. Summary and events are
// both required; events are sorted ascending by timestamp regardless of the
// order the model produced them in.
func ParseAnalysisResult(text string) (*AnalysisResult, error) {
	jsonStr := StripCodeFence(text)

	var result AnalysisResult
	if err := json.Unmarshal([]byte(jsonStr), &result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	if result.Summary == "" || result.Events == nil {
		return nil, fmt.Errorf("%w: missing summary or events", ErrMalformedResponse)
	}

	sort.SliceStable(result.Events, func(i, j int) bool {
		return result.Events[i].Timestamp < result.Events[j].Timestamp
	})

	return &result, nil
}
