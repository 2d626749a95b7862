package integration

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/mlevkov/shotcoach/internal/ai"
	"github.com/mlevkov/shotcoach/internal/api"
	"github.com/mlevkov/shotcoach/internal/coach"
	"github.com/mlevkov/shotcoach/internal/database"
	"github.com/mlevkov/shotcoach/internal/pose"
	"github.com/mlevkov/shotcoach/internal/storage"
)

type TestServer struct {
	Server     *httptest.Server
	App        *api.App
	DB         *database.DB
	VideoRepo  *database.VideoRepository
	AdviceRepo *database.AdviceRepo
	Coach      *coach.Manager
	Storage    storage.Storage
}

func setupTestServer(t *testing.T) *TestServer {
	t.Helper()

	tempDir := t.TempDir()

	localStorage, err := storage.NewLocalStorage(filepath.Join(tempDir, "uploads"))
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}

	db, err := database.NewDB(database.Config{
		Type:       "sqlite",
		SQLitePath: filepath.Join(tempDir, "test.db"),
	})
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	videoRepo := database.NewVideoRepository(db)
	adviceRepo := database.NewAdviceRepo(db)
	reportRepo := database.NewReportRepo(db)

	// No API key in tests: the analyzer serves rule-based mock feedback.
	analyzer := ai.NewAnalyzer(nil)
	manager := coach.NewManager(analyzer, adviceRepo, coach.Config{
		DrainInterval: 10 * time.Millisecond,
		RetryBackoff:  time.Millisecond,
	})

	app := &api.App{
		Storage:       localStorage,
		DB:            db,
		VideoRepo:     videoRepo,
		AdviceRepo:    adviceRepo,
		ReportRepo:    reportRepo,
		Analyzer:      analyzer,
		Coach:         manager,
		MaxUploadSize: 10 * 1024 * 1024, // 10MB
	}

	server := httptest.NewServer(api.NewRouter(app, api.NewSessionHandlers(manager, videoRepo)))
	t.Cleanup(server.Close)

	return &TestServer{
		Server:     server,
		App:        app,
		DB:         db,
		VideoRepo:  videoRepo,
		AdviceRepo: adviceRepo,
		Coach:      manager,
		Storage:    localStorage,
	}
}

func createMultipartUpload(title, description, filename string, content []byte) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("video", filename)
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, bytes.NewReader(content)); err != nil {
		return nil, "", err
	}

	if err := writer.WriteField("title", title); err != nil {
		return nil, "", err
	}
	if err := writer.WriteField("description", description); err != nil {
		return nil, "", err
	}

	if err := writer.Close(); err != nil {
		return nil, "", err
	}

	return body, writer.FormDataContentType(), nil
}

func countVideosInDB(db *sql.DB) (int, error) {
	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM videos").Scan(&count)
	return count, err
}

func countAdviceInDB(db *sql.DB) (int, error) {
	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM stored_advice").Scan(&count)
	return count, err
}

func uploadTestVideo(t *testing.T, server string, title, description string) *http.Response {
	t.Helper()

	content := []byte("fake mp4 content for testing")
	body, contentType, err := createMultipartUpload(title, description, "test.mp4", content)
	if err != nil {
		t.Fatalf("Failed to create multipart upload: %v", err)
	}

	req, err := http.NewRequest("POST", server+"/api/videos", body)
	if err != nil {
		t.Fatalf("Failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Failed to upload video: %v", err)
	}

	return resp
}

func uploadTestVideoID(t *testing.T, server string, title string) string {
	t.Helper()

	resp := uploadTestVideo(t, server, title, "integration test video")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("Upload returned status %d", resp.StatusCode)
	}

	var video struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&video); err != nil {
		t.Fatalf("Failed to decode upload response: %v", err)
	}
	return video.ID
}

func postJSON(t *testing.T, url string, body interface{}) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("Failed to encode body: %v", err)
		}
	}

	resp, err := http.Post(url, "application/json", &buf)
	if err != nil {
		t.Fatalf("POST %s failed: %v", url, err)
	}
	return resp
}

func visibleFrameInput(frameNumber int) coach.FrameInput {
	landmarks := make([]pose.Landmark, pose.LandmarkCount)
	for i := range landmarks {
		landmarks[i] = pose.Landmark{X: 0.5, Y: 0.5, Visibility: 0.9}
	}
	return coach.FrameInput{
		FrameNumber: frameNumber,
		Timestamp:   float64(frameNumber) / 60,
		Landmarks:   landmarks,
	}
}

func waitUntil(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}
