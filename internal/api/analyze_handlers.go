package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/mlevkov/shotcoach/internal/ai"
)

// analyzeFrameSize bounds the longer dimension of sampled frames so the
// model payload stays small.
const analyzeFrameSize = 640

// fullVideoTimeout covers extraction plus one large multimodal request.
const fullVideoTimeout = 2 * time.Minute

// FrameExtractor samples still frames out of a stored video file.
// Satisfied by ai.FrameExtractor.
type FrameExtractor interface {
	Duration(videoPath string) (float64, error)
	ExtractAtRate(videoPath string, fps float64, size int) ([][]byte, float64, error)
}

type analyzeRequest struct {
	// Vitals are optional client-computed per-frame measurements included
	// alongside the sampled imagery.
	Vitals []ai.FramePayload `json:"vitals,omitempty"`
}

type analyzeResponse struct {
	ReportID  string            `json:"reportId"`
	VideoID   string            `json:"videoId"`
	Result    ai.AnalysisResult `json:"result"`
	CreatedAt time.Time         `json:"createdAt"`
}

// AnalyzeVideoHandler runs the full-video analysis: sample frames at 2fps,
// check that they actually show a basketball shot, then send them with the
// vitals to the model and persist and return the timestamped report. This
// path is user-initiated, so model errors surface to the caller instead of
// being retried.
func (app *App) AnalyzeVideoHandler(w http.ResponseWriter, r *http.Request) {
	video, ok := app.lookupVideo(w, r)
	if !ok {
		return
	}

	if app.FrameExtractor == nil {
		respondError(w, http.StatusServiceUnavailable, "Frame extraction is not available")
		return
	}
	if !app.Analyzer.HasClient() {
		respondError(w, http.StatusServiceUnavailable, "Analysis service is not configured")
		return
	}

	var req analyzeRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	path, err := app.Storage.FilePath(video.Filename)
	if err != nil {
		respondError(w, http.StatusNotFound, "Video file not found")
		return
	}

	frames, duration, err := app.FrameExtractor.ExtractAtRate(path, ai.TargetFramesPerSecond, analyzeFrameSize)
	if err != nil {
		log.Printf("[API] Frame extraction failed for video %s: %v", video.ID, err)
		respondError(w, http.StatusInternalServerError, "Failed to extract frames from video")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), fullVideoTimeout)
	defer cancel()

	encoded := ai.EncodeFrames(frames)

	// Cheap relevance check before the large multimodal request.
	relevant, err := app.Analyzer.IsVideoRelevant(ctx, encoded)
	if err != nil {
		log.Printf("[API] Relevance check failed for video %s: %v", video.ID, err)
		respondError(w, http.StatusBadGateway, "Analysis failed, please retry")
		return
	}
	if !relevant {
		log.Printf("[API] Video %s rejected: no basketball shot detected", video.ID)
		respondError(w, http.StatusUnprocessableEntity, "The video does not appear to show a basketball shot")
		return
	}

	result, err := app.Analyzer.AnalyzeFullVideo(ctx, encoded, req.Vitals, duration)
	if err != nil {
		log.Printf("[API] Full-video analysis failed for video %s: %v", video.ID, err)
		if errors.Is(err, ai.ErrMalformedResponse) {
			respondError(w, http.StatusBadGateway, "Unexpected response from the analysis service, please retry")
			return
		}
		respondError(w, http.StatusBadGateway, "Analysis failed, please retry")
		return
	}

	if video.Duration == 0 && duration > 0 {
		if err := app.VideoRepo.SetDuration(r.Context(), video.ID, duration); err != nil {
			log.Printf("[API] Failed to store duration for video %s: %v", video.ID, err)
		}
	}

	resp := analyzeResponse{VideoID: video.ID, Result: *result}
	if app.ReportRepo != nil {
		report, err := app.ReportRepo.SaveReport(r.Context(), video.ID, result)
		if err != nil {
			log.Printf("[API] Failed to persist report for video %s: %v", video.ID, err)
		} else {
			resp.ReportID = report.ID
			resp.CreatedAt = report.CreatedAt
		}
	}

	respondJSON(w, http.StatusOK, resp)
}

// GetReportHandler returns the most recent persisted report for a video.
func (app *App) GetReportHandler(w http.ResponseWriter, r *http.Request) {
	video, ok := app.lookupVideo(w, r)
	if !ok {
		return
	}

	if app.ReportRepo == nil {
		respondError(w, http.StatusNotFound, "No report available")
		return
	}

	report, err := app.ReportRepo.GetLatestByVideoID(r.Context(), video.ID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to load report")
		return
	}
	if report == nil {
		respondError(w, http.StatusNotFound, "No report available")
		return
	}

	respondJSON(w, http.StatusOK, analyzeResponse{
		ReportID:  report.ID,
		VideoID:   report.VideoID,
		Result:    report.Result,
		CreatedAt: report.CreatedAt,
	})
}
