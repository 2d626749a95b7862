package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	defaultGeminiEndpoint = "https://generativelanguage.googleapis.com/v1beta/models"
	defaultGeminiModel    = "gemini-2.5-flash"
)

// GeminiClient talks to the Gemini generateContent endpoint over plain
// HTTP.
type GeminiClient struct {
	apiKey     string
	model      string
	endpoint   string
	httpClient *http.Client
}

type GeminiOption func(*GeminiClient)

// WithModel overrides the default model name.
func WithModel(model string) GeminiOption {
	return func(c *GeminiClient) {
		if model != "" {
			c.model = model
		}
	}
}

// WithEndpoint overrides the API base URL, used by tests to point the
// client at a local server.
func WithEndpoint(endpoint string) GeminiOption {
	return func(c *GeminiClient) {
		if endpoint != "" {
			c.endpoint = endpoint
		}
	}
}

// WithTimeout overrides the per-request HTTP timeout. A hung model call
// would otherwise hold the single-flight batch slot for the full default
// timeout.
func WithTimeout(d time.Duration) GeminiOption {
	return func(c *GeminiClient) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

func NewGeminiClient(apiKey string, opts ...GeminiOption) *GeminiClient {
	c := &GeminiClient{
		apiKey:   apiKey,
		model:    defaultGeminiModel,
		endpoint: defaultGeminiEndpoint,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type geminiRequest struct {
	Contents         []geminiContent         `json:"contents"`
	GenerationConfig *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inlineData,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type geminiGenerationConfig struct {
	Temperature      float64 `json:"temperature"`
	MaxOutputTokens  int     `json:"maxOutputTokens,omitempty"`
	ResponseMimeType string  `json:"responseMimeType,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

func (c *GeminiClient) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	if c.apiKey == "" {
		return "", ErrNoAPIKey
	}

	parts := []geminiPart{{Text: req.Prompt}}
	for _, img := range req.Images {
		parts = append(parts, geminiPart{
			InlineData: &geminiInlineData{
				MimeType: "image/jpeg",
				Data:     img,
			},
		})
	}

	body := geminiRequest{
		Contents: []geminiContent{{Role: "user", Parts: parts}},
		GenerationConfig: &geminiGenerationConfig{
			Temperature:     req.Config.Temperature,
			MaxOutputTokens: req.Config.MaxOutputTokens,
		},
	}
	if req.Config.JSONResponse {
		body.GenerationConfig.ResponseMimeType = "application/json"
	}

	jsonData, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/%s:generateContent", c.endpoint, c.model)
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	var geminiResp geminiResponse
	if err := json.Unmarshal(respBody, &geminiResp); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if geminiResp.Error != nil {
		return "", fmt.Errorf("gemini API error: %s", geminiResp.Error.Message)
	}

	if len(geminiResp.Candidates) == 0 || len(geminiResp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no response from Gemini")
	}

	var text string
	for _, part := range geminiResp.Candidates[0].Content.Parts {
		text += part.Text
	}
	return text, nil
}
