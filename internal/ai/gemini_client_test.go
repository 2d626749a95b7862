package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestGeminiClientGenerate(t *testing.T) {
	var gotRequest geminiRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-goog-api-key") != "test-key" {
			t.Errorf("missing api key header")
		}
		if !strings.HasSuffix(r.URL.Path, ":generateContent") {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotRequest); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}

		resp := map[string]interface{}{
			"candidates": []map[string]interface{}{
				{
					"content": map[string]interface{}{
						"parts": []map[string]string{{"text": "Bend your knees more."}},
					},
				},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewGeminiClient("test-key", WithEndpoint(server.URL))

	text, err := client.Generate(context.Background(), GenerateRequest{
		Prompt: "analyze this",
		Images: []string{"aGVsbG8="},
		Config: GenerateConfig{Temperature: 0.3, MaxOutputTokens: 100, JSONResponse: true},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "Bend your knees more." {
		t.Errorf("text = %q", text)
	}

	if len(gotRequest.Contents) != 1 {
		t.Fatalf("expected 1 content, got %d", len(gotRequest.Contents))
	}
	parts := gotRequest.Contents[0].Parts
	if len(parts) != 2 {
		t.Fatalf("expected text + image parts, got %d", len(parts))
	}
	if parts[0].Text != "analyze this" {
		t.Errorf("prompt part = %q", parts[0].Text)
	}
	if parts[1].InlineData == nil || parts[1].InlineData.MimeType != "image/jpeg" {
		t.Errorf("image part = %+v", parts[1])
	}
	if gotRequest.GenerationConfig.ResponseMimeType != "application/json" {
		t.Errorf("responseMimeType = %q", gotRequest.GenerationConfig.ResponseMimeType)
	}
	if gotRequest.GenerationConfig.Temperature != 0.3 {
		t.Errorf("temperature = %v", gotRequest.GenerationConfig.Temperature)
	}
}

func TestGeminiClientAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error": {"code": 400, "message": "API key not valid", "status": "INVALID_ARGUMENT"}}`))
	}))
	defer server.Close()

	client := NewGeminiClient("bad-key", WithEndpoint(server.URL))

	_, err := client.Generate(context.Background(), GenerateRequest{Prompt: "hi"})
	if err == nil || !strings.Contains(err.Error(), "API key not valid") {
		t.Errorf("expected API error, got %v", err)
	}
}

func TestGeminiClientNoKey(t *testing.T) {
	client := NewGeminiClient("")

	_, err := client.Generate(context.Background(), GenerateRequest{Prompt: "hi"})
	if !errors.Is(err, ErrNoAPIKey) {
		t.Errorf("expected ErrNoAPIKey, got %v", err)
	}
}
