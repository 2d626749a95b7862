package integration

import (
	"io"
	"net/http"
	"strings"
	"testing"
)

func TestVideoUpload(t *testing.T) {
	ts := setupTestServer(t)

	tests := []struct {
		name           string
		title          string
		description    string
		filename       string
		expectedStatus int
		expectSuccess  bool
	}{
		{
			name:           "Valid video upload",
			title:          "Test Video",
			description:    "This is a test video",
			filename:       "test.mp4",
			expectedStatus: http.StatusCreated,
			expectSuccess:  true,
		},
		{
			name:           "Upload without title",
			title:          "",
			description:    "No title video",
			filename:       "test.mp4",
			expectedStatus: http.StatusBadRequest,
			expectSuccess:  false,
		},
		{
			name:           "Upload with long description",
			title:          "Long Description Video",
			description:    strings.Repeat("This is a very long description. ", 50),
			filename:       "test.mp4",
			expectedStatus: http.StatusCreated,
			expectSuccess:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			countBefore, err := countVideosInDB(ts.DB.Conn())
			if err != nil {
				t.Fatalf("Failed to count videos: %v", err)
			}

			content := []byte("fake mp4 content")
			body, contentType, err := createMultipartUpload(tt.title, tt.description, tt.filename, content)
			if err != nil {
				t.Fatalf("Failed to create upload: %v", err)
			}

			req, err := http.NewRequest("POST", ts.Server.URL+"/api/videos", body)
			if err != nil {
				t.Fatalf("Failed to create request: %v", err)
			}
			req.Header.Set("Content-Type", contentType)

			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatalf("Failed to perform request: %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tt.expectedStatus {
				body, _ := io.ReadAll(resp.Body)
				t.Errorf("Expected status %d, got %d. Body: %s", tt.expectedStatus, resp.StatusCode, body)
			}

			countAfter, err := countVideosInDB(ts.DB.Conn())
			if err != nil {
				t.Fatalf("Failed to count videos after: %v", err)
			}

			if tt.expectSuccess {
				if countAfter != countBefore+1 {
					t.Errorf("Expected video count to increase by 1, but got %d -> %d", countBefore, countAfter)
				}
			} else {
				if countAfter != countBefore {
					t.Errorf("Expected video count to remain the same, but got %d -> %d", countBefore, countAfter)
				}
			}
		})
	}
}

func TestMultipleUploads(t *testing.T) {
	ts := setupTestServer(t)

	videos := []struct {
		title       string
		description string
	}{
		{"First Video", "Description 1"},
		{"Second Video", "Description 2"},
		{"Third Video", "Description 3"},
	}

	for _, v := range videos {
		resp := uploadTestVideo(t, ts.Server.URL, v.title, v.description)
		if resp.StatusCode != http.StatusCreated {
			t.Errorf("Failed to upload video '%s': status %d", v.title, resp.StatusCode)
		}
		resp.Body.Close()
	}

	count, err := countVideosInDB(ts.DB.Conn())
	if err != nil {
		t.Fatalf("Failed to count videos: %v", err)
	}

	if count != len(videos) {
		t.Errorf("Expected %d videos, but found %d", len(videos), count)
	}
}
