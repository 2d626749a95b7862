package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"os"

	_ "github.com/mattn/go-sqlite3"
)

// check-ai inspects the local database and reports whether the coaching
// pipeline has produced any advice or reports yet.
func main() {
	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = "./shotcoach.db"
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		log.Fatal("Failed to open database:", err)
	}
	defer db.Close()

	fmt.Println("Checking coaching analysis results")
	fmt.Println("==================================")

	if os.Getenv("GEMINI_API_KEY") == "" {
		fmt.Println("WARNING: GEMINI_API_KEY not set.")
		fmt.Println("  Live sessions fall back to rule-based mock feedback;")
		fmt.Println("  full-video analysis is disabled.")
	} else {
		fmt.Println("Gemini API key configured.")
	}
	fmt.Println()

	var videoCount int
	if err := db.QueryRow("SELECT COUNT(*) FROM videos").Scan(&videoCount); err != nil {
		log.Fatal("Failed to count videos:", err)
	}
	fmt.Printf("Total videos: %d\n", videoCount)

	var adviceCount int
	if err := db.QueryRow("SELECT COUNT(*) FROM stored_advice").Scan(&adviceCount); err != nil {
		fmt.Println("No stored_advice table found (no sessions run yet)")
		return
	}
	fmt.Printf("Archived advice records: %d\n", adviceCount)

	var reportCount int
	if err := db.QueryRow("SELECT COUNT(*) FROM analysis_reports").Scan(&reportCount); err == nil {
		fmt.Printf("Full-video reports: %d\n", reportCount)
	}
	fmt.Println()

	rows, err := db.Query(`
		SELECT
			v.title,
			sa.frame_number,
			sa.frame_timestamp,
			sa.advice,
			sa.confidence,
			sa.key_points
		FROM stored_advice sa
		JOIN videos v ON sa.video_id = v.id
		ORDER BY sa.created_at DESC
		LIMIT 5
	`)
	if err != nil {
		log.Fatal("Failed to query advice:", err)
	}
	defer rows.Close()

	fmt.Println("Recent advice:")
	fmt.Println("--------------")

	count := 0
	for rows.Next() {
		var title, advice, keyPointsJSON string
		var frameNum int
		var timestamp, confidence float64

		if err := rows.Scan(&title, &frameNum, &timestamp, &advice, &confidence, &keyPointsJSON); err != nil {
			log.Printf("Error scanning row: %v", err)
			continue
		}

		count++
		fmt.Printf("\nVideo: %s (frame %d, %.2fs, confidence %.2f)\n", title, frameNum, timestamp, confidence)
		fmt.Printf("  %s\n", advice)

		if keyPointsJSON != "" && keyPointsJSON != "[]" {
			var keyPoints []string
			if err := json.Unmarshal([]byte(keyPointsJSON), &keyPoints); err == nil && len(keyPoints) > 0 {
				fmt.Printf("  Key points: %v\n", keyPoints)
			}
		}
	}

	if count == 0 {
		fmt.Println("No advice archived yet. Run a coaching session to test.")
	} else {
		fmt.Printf("\nPipeline is working: found %d recent advice records.\n", count)
	}
}
