package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/mlevkov/shotcoach/internal/ai"
	"github.com/mlevkov/shotcoach/internal/database"
	"github.com/mlevkov/shotcoach/internal/storage"
)

// analyze-video runs the full-video shot analysis for an uploaded video
// from the command line and prints the timestamped report.
func main() {
	var (
		videoID = flag.String("id", "", "Video ID to analyze")
		save    = flag.Bool("save", true, "Persist the report to the database")
	)
	flag.Parse()

	if *videoID == "" {
		log.Fatal("Please provide video ID with -id flag")
	}

	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		log.Fatal("GEMINI_API_KEY is required for full-video analysis")
	}

	db, err := database.NewDB(databaseConfig())
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	videoRepo := database.NewVideoRepository(db)
	video, err := videoRepo.GetVideoByID(context.Background(), *videoID)
	if err != nil {
		log.Fatal("Failed to get video:", err)
	}

	fmt.Printf("Analyzing video: %s\n", video.Title)

	localStorage, err := storage.NewLocalStorage(getEnv("UPLOAD_DIR", "./uploads"))
	if err != nil {
		log.Fatal("Failed to initialize storage:", err)
	}
	videoPath, err := localStorage.FilePath(video.Filename)
	if err != nil {
		log.Fatal("Video file not found:", err)
	}

	extractor, err := ai.NewFrameExtractor()
	if err != nil {
		log.Fatal("Failed to initialize frame extractor:", err)
	}

	frames, duration, err := extractor.ExtractAtRate(videoPath, ai.TargetFramesPerSecond, 640)
	if err != nil {
		log.Fatal("Failed to extract frames:", err)
	}
	fmt.Printf("Extracted %d frames over %.1fs\n", len(frames), duration)

	analyzer := ai.NewAnalyzer(ai.NewGeminiClient(apiKey))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	result, err := analyzer.AnalyzeFullVideo(ctx, ai.EncodeFrames(frames), nil, duration)
	if err != nil {
		log.Fatal("Analysis failed:", err)
	}

	fmt.Printf("\nSummary: %s\n\n", result.Summary)
	for _, event := range result.Events {
		fmt.Printf("  %6.1fs  [%s]  %s\n", event.Timestamp, event.Category, event.Feedback)
	}

	if *save {
		reportRepo := database.NewReportRepo(db)
		report, err := reportRepo.SaveReport(context.Background(), video.ID, result)
		if err != nil {
			log.Fatal("Failed to save report:", err)
		}
		fmt.Printf("\nReport saved: %s\n", report.ID)
	}
}

func databaseConfig() database.Config {
	cfg := database.Config{
		Type:       getEnv("DB_TYPE", "sqlite"),
		SQLitePath: getEnv("DB_PATH", "./shotcoach.db"),
	}
	if cfg.Type == "postgres" {
		cfg.Host = getEnv("DB_HOST", "localhost")
		cfg.Port = 5432
		cfg.User = getEnv("DB_USER", "shotcoach")
		cfg.Password = getEnv("DB_PASSWORD", "shotcoach_dev")
		cfg.Name = getEnv("DB_NAME", "shotcoach")
	}
	return cfg
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
