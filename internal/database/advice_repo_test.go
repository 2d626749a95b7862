package database

import (
	"context"
	"testing"

	"github.com/mlevkov/shotcoach/internal/coach"
	"github.com/mlevkov/shotcoach/internal/models"
)

func insertTestVideo(t *testing.T, db *DB) *models.Video {
	t.Helper()
	video := models.NewVideo("Test Video", "Test", "test.mp4", "video/mp4", 1024)
	if err := NewVideoRepository(db).InsertVideo(context.Background(), video); err != nil {
		t.Fatalf("Failed to insert video: %v", err)
	}
	return video
}

func TestAdviceRepo_SaveAndLoad(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAdviceRepo(db)
	ctx := context.Background()
	video := insertTestVideo(t, db)

	advice := []coach.StoredAdvice{
		{FrameNumber: 60, Timestamp: 1.0, Advice: "Keep your elbow in", Confidence: 0.9, KeyPoints: []string{"Elbow"}},
		{FrameNumber: 10, Timestamp: 0.17, Advice: "Bend your knees more", Confidence: 0.8},
	}

	if err := repo.SaveAdvice(ctx, video.ID, advice); err != nil {
		t.Fatalf("Failed to save advice: %v", err)
	}

	loaded, err := repo.LoadAdvice(ctx, video.ID)
	if err != nil {
		t.Fatalf("Failed to load advice: %v", err)
	}

	if len(loaded) != 2 {
		t.Fatalf("Expected 2 advice records, got %d", len(loaded))
	}

	// Ordered by frame number.
	if loaded[0].FrameNumber != 10 || loaded[1].FrameNumber != 60 {
		t.Errorf("Expected frame order 10, 60; got %d, %d", loaded[0].FrameNumber, loaded[1].FrameNumber)
	}
	if loaded[1].Advice != "Keep your elbow in" {
		t.Errorf("Expected elbow advice at frame 60, got %q", loaded[1].Advice)
	}
	if len(loaded[1].KeyPoints) != 1 || loaded[1].KeyPoints[0] != "Elbow" {
		t.Errorf("Key points not round-tripped: %v", loaded[1].KeyPoints)
	}
	if loaded[0].KeyPoints != nil {
		t.Errorf("Expected nil key points for frame 10, got %v", loaded[0].KeyPoints)
	}
}

func TestAdviceRepo_SaveUpserts(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAdviceRepo(db)
	ctx := context.Background()
	video := insertTestVideo(t, db)

	first := []coach.StoredAdvice{
		{FrameNumber: 30, Timestamp: 0.5, Advice: "Original advice", Confidence: 0.7},
	}
	if err := repo.SaveAdvice(ctx, video.ID, first); err != nil {
		t.Fatalf("Failed to save first advice: %v", err)
	}

	second := []coach.StoredAdvice{
		{FrameNumber: 30, Timestamp: 0.5, Advice: "Updated advice", Confidence: 0.9},
	}
	if err := repo.SaveAdvice(ctx, video.ID, second); err != nil {
		t.Fatalf("Failed to upsert advice: %v", err)
	}

	loaded, err := repo.LoadAdvice(ctx, video.ID)
	if err != nil {
		t.Fatalf("Failed to load advice: %v", err)
	}
	if len(loaded) != 1 {
		t.Fatalf("Expected 1 record after upsert, got %d", len(loaded))
	}
	if loaded[0].Advice != "Updated advice" || loaded[0].Confidence != 0.9 {
		t.Errorf("Upsert did not replace the record: %+v", loaded[0])
	}
}

func TestAdviceRepo_EmptySaveIsNoop(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAdviceRepo(db)

	if err := repo.SaveAdvice(context.Background(), "no-such-video", nil); err != nil {
		t.Errorf("Empty save returned error: %v", err)
	}
}

func TestAdviceRepo_DeleteByVideoID(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAdviceRepo(db)
	ctx := context.Background()
	video := insertTestVideo(t, db)

	advice := []coach.StoredAdvice{
		{FrameNumber: 0, Timestamp: 0, Advice: "a", Confidence: 0.8},
		{FrameNumber: 10, Timestamp: 0.17, Advice: "b", Confidence: 0.8},
	}
	if err := repo.SaveAdvice(ctx, video.ID, advice); err != nil {
		t.Fatalf("Failed to save advice: %v", err)
	}

	if err := repo.DeleteByVideoID(ctx, video.ID); err != nil {
		t.Fatalf("Failed to delete advice: %v", err)
	}

	loaded, err := repo.LoadAdvice(ctx, video.ID)
	if err != nil {
		t.Fatalf("Failed to load advice: %v", err)
	}
	if len(loaded) != 0 {
		t.Errorf("Expected 0 records after delete, got %d", len(loaded))
	}
}
