package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mlevkov/shotcoach/internal/coach"
	"github.com/mlevkov/shotcoach/internal/database"
)

type SessionHandlers struct {
	manager   *coach.Manager
	videoRepo *database.VideoRepository
}

func NewSessionHandlers(manager *coach.Manager, videoRepo *database.VideoRepository) *SessionHandlers {
	return &SessionHandlers{
		manager:   manager,
		videoRepo: videoRepo,
	}
}

type startSessionRequest struct {
	VideoID string `json:"videoId"`
}

func (h *SessionHandlers) StartSessionHandler(w http.ResponseWriter, r *http.Request) {
	var req startSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.VideoID == "" {
		respondError(w, http.StatusBadRequest, "videoId is required")
		return
	}

	if h.videoRepo != nil {
		if _, err := h.videoRepo.GetVideoByID(r.Context(), req.VideoID); err != nil {
			if err == database.ErrVideoNotFound {
				respondError(w, http.StatusNotFound, "Video not found")
				return
			}
			respondError(w, http.StatusInternalServerError, "Failed to load video")
			return
		}
	}

	// The session outlives this request; its lifetime is bounded by Close.
	session := h.manager.Start(context.Background(), req.VideoID)
	respondJSON(w, http.StatusCreated, session.Status())
}

type frameResponse struct {
	Gate       string              `json:"gate"`
	Advice     *coach.StoredAdvice `json:"advice,omitempty"`
	InProgress bool                `json:"inProgress,omitempty"`
}

// FrameHandler is the per-frame intake: the browser posts the landmarks and
// detector boxes it computed for one rendered frame, and gets back whatever
// advice currently applies to that frame.
func (h *SessionHandlers) FrameHandler(w http.ResponseWriter, r *http.Request) {
	session, ok := h.lookupSession(w, r)
	if !ok {
		return
	}

	var input coach.FrameInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid frame payload")
		return
	}

	gate, advice := session.AddFrame(input)

	respondJSON(w, http.StatusOK, frameResponse{
		Gate:       gate.String(),
		Advice:     advice,
		InProgress: session.IsFrameInProgress(input.FrameNumber),
	})
}

func (h *SessionHandlers) AdviceHandler(w http.ResponseWriter, r *http.Request) {
	session, ok := h.lookupSession(w, r)
	if !ok {
		return
	}

	frameStr := r.URL.Query().Get("frame")
	if frameStr == "" {
		// No frame selected: dump every cached record, ordered by frame.
		respondJSON(w, http.StatusOK, session.AllAdvice())
		return
	}

	frame, err := strconv.Atoi(frameStr)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid frame parameter")
		return
	}

	advice, found := session.Advice(frame)
	if !found {
		respondJSON(w, http.StatusOK, frameResponse{
			InProgress: session.IsFrameInProgress(frame),
		})
		return
	}
	respondJSON(w, http.StatusOK, frameResponse{Advice: &advice})
}

// VitalsHandler returns the rolling window of derived per-frame vitals,
// oldest first.
func (h *SessionHandlers) VitalsHandler(w http.ResponseWriter, r *http.Request) {
	session, ok := h.lookupSession(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, session.History())
}

func (h *SessionHandlers) StatusHandler(w http.ResponseWriter, r *http.Request) {
	session, ok := h.lookupSession(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, session.Status())
}

type analysisModeRequest struct {
	Enabled bool `json:"enabled"`
}

func (h *SessionHandlers) AnalysisModeHandler(w http.ResponseWriter, r *http.Request) {
	session, ok := h.lookupSession(w, r)
	if !ok {
		return
	}

	var req analysisModeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	session.SetAnalysisMode(req.Enabled)
	respondJSON(w, http.StatusOK, session.Status())
}

func (h *SessionHandlers) ResetHandler(w http.ResponseWriter, r *http.Request) {
	session, ok := h.lookupSession(w, r)
	if !ok {
		return
	}
	session.Reset()
	respondJSON(w, http.StatusOK, session.Status())
}

func (h *SessionHandlers) DeleteSessionHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")
	if err := h.manager.Stop(sessionID); err != nil {
		respondError(w, http.StatusNotFound, "Session not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// StreamHandler pushes session updates (advice ready, batch failed, gate
// decisions) to the browser over SSE.
func (h *SessionHandlers) StreamHandler(w http.ResponseWriter, r *http.Request) {
	session, ok := h.lookupSession(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	clientGone := r.Context().Done()

	for {
		select {
		case update := <-session.Updates():
			data, err := json.Marshal(update.Data)
			if err != nil {
				log.Printf("[API] Error marshaling update: %v", err)
				continue
			}

			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", update.Type, string(data))
			flusher.Flush()

		case <-session.Done():
			return

		case <-clientGone:
			return
		}
	}
}

func (h *SessionHandlers) lookupSession(w http.ResponseWriter, r *http.Request) (*coach.Session, bool) {
	sessionID := chi.URLParam(r, "id")
	session, ok := h.manager.Get(sessionID)
	if !ok {
		respondError(w, http.StatusNotFound, "Session not found")
		return nil, false
	}
	return session, true
}
