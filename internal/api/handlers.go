package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mlevkov/shotcoach/internal/ai"
	"github.com/mlevkov/shotcoach/internal/coach"
	"github.com/mlevkov/shotcoach/internal/database"
	"github.com/mlevkov/shotcoach/internal/models"
	"github.com/mlevkov/shotcoach/internal/storage"
)

type App struct {
	Storage        storage.Storage
	DB             *database.DB
	VideoRepo      *database.VideoRepository
	AdviceRepo     *database.AdviceRepo
	ReportRepo     *database.ReportRepo
	Analyzer       *ai.Analyzer
	FrameExtractor FrameExtractor
	Coach          *coach.Manager
	MaxUploadSize  int64
}

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		if err := json.NewEncoder(w).Encode(v); err != nil {
			log.Printf("[API] Failed to encode response: %v", err)
		}
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

func PingHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("pong"))
}

type videoResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	ContentType string    `json:"contentType"`
	Size        int64     `json:"size"`
	Duration    float64   `json:"duration,omitempty"`
	UploadTime  time.Time `json:"uploadTime"`
}

func toVideoResponse(v *models.Video) videoResponse {
	return videoResponse{
		ID:          v.ID,
		Title:       v.Title,
		Description: v.Description,
		ContentType: v.ContentType,
		Size:        v.Size,
		Duration:    v.Duration,
		UploadTime:  v.UploadTime,
	}
}

func (app *App) UploadVideoHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, app.MaxUploadSize)

	if err := r.ParseMultipartForm(app.MaxUploadSize); err != nil {
		respondError(w, http.StatusRequestEntityTooLarge, "File too large")
		return
	}

	file, header, err := r.FormFile("video")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Failed to get file")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "video/") && contentType != "application/octet-stream" {
		ext := strings.ToLower(filepath.Ext(header.Filename))
		if ext != ".mp4" {
			respondError(w, http.StatusUnsupportedMediaType, "Only MP4 video files are allowed")
			return
		}
		contentType = "video/mp4"
	}

	title := r.FormValue("title")
	if title == "" {
		respondError(w, http.StatusBadRequest, "Title is required")
		return
	}

	description := r.FormValue("description")

	filename, err := app.Storage.SaveFile(file, storage.FileInfo{
		Filename:    header.Filename,
		ContentType: contentType,
		Size:        header.Size,
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to save file")
		return
	}

	video := models.NewVideo(title, description, filename, contentType, header.Size)
	if err := app.VideoRepo.InsertVideo(r.Context(), video); err != nil {
		app.Storage.DeleteFile(filename)
		respondError(w, http.StatusInternalServerError, "Failed to save video information")
		return
	}

	// Probe the duration off the request path; the row is usable without it.
	if app.FrameExtractor != nil {
		go app.probeDuration(video.ID, filename)
	}

	respondJSON(w, http.StatusCreated, toVideoResponse(video))
}

func (app *App) probeDuration(videoID, filename string) {
	path, err := app.Storage.FilePath(filename)
	if err != nil {
		log.Printf("[API] Cannot resolve path for video %s: %v", videoID, err)
		return
	}
	duration, err := app.FrameExtractor.Duration(path)
	if err != nil {
		log.Printf("[API] Failed to probe duration for video %s: %v", videoID, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := app.VideoRepo.SetDuration(ctx, videoID, duration); err != nil {
		log.Printf("[API] Failed to store duration for video %s: %v", videoID, err)
	}
}

func (app *App) ListVideosHandler(w http.ResponseWriter, r *http.Request) {
	videos, err := app.VideoRepo.SearchVideos(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to list videos")
		return
	}

	responses := make([]videoResponse, 0, len(videos))
	for i := range videos {
		responses = append(responses, toVideoResponse(&videos[i]))
	}
	respondJSON(w, http.StatusOK, responses)
}

func (app *App) GetVideoHandler(w http.ResponseWriter, r *http.Request) {
	video, ok := app.lookupVideo(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, toVideoResponse(video))
}

func (app *App) StreamVideoHandler(w http.ResponseWriter, r *http.Request) {
	video, ok := app.lookupVideo(w, r)
	if !ok {
		return
	}

	file, err := app.Storage.OpenFile(video.Filename)
	if err != nil {
		respondError(w, http.StatusNotFound, "Video file not found")
		return
	}
	defer file.Close()

	stat, err := file.(interface{ Stat() (os.FileInfo, error) }).Stat()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Error accessing video file")
		return
	}

	w.Header().Set("Content-Type", video.ContentType)

	// ServeContent handles Range requests, Accept-Ranges, and 206 responses.
	http.ServeContent(w, r, video.Filename, stat.ModTime(), file)
}

func (app *App) DeleteVideoHandler(w http.ResponseWriter, r *http.Request) {
	video, ok := app.lookupVideo(w, r)
	if !ok {
		return
	}

	ctx := r.Context()
	if app.AdviceRepo != nil {
		if err := app.AdviceRepo.DeleteByVideoID(ctx, video.ID); err != nil {
			log.Printf("[API] Failed to delete advice for video %s: %v", video.ID, err)
		}
	}
	if app.ReportRepo != nil {
		if err := app.ReportRepo.DeleteByVideoID(ctx, video.ID); err != nil {
			log.Printf("[API] Failed to delete reports for video %s: %v", video.ID, err)
		}
	}

	if err := app.VideoRepo.DeleteVideo(ctx, video.ID); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to delete video")
		return
	}
	if err := app.Storage.DeleteFile(video.Filename); err != nil {
		log.Printf("[API] Failed to delete file for video %s: %v", video.ID, err)
	}

	w.WriteHeader(http.StatusNoContent)
}

func (app *App) lookupVideo(w http.ResponseWriter, r *http.Request) (*models.Video, bool) {
	videoID := chi.URLParam(r, "id")
	if videoID == "" {
		respondError(w, http.StatusBadRequest, "Missing video id")
		return nil, false
	}

	video, err := app.VideoRepo.GetVideoByID(r.Context(), videoID)
	if err == database.ErrVideoNotFound {
		respondError(w, http.StatusNotFound, "Video not found")
		return nil, false
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to load video")
		return nil, false
	}
	return video, true
}
