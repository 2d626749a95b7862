package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mlevkov/shotcoach/internal/ai"
)

// Report is one persisted full-video analysis run.
type Report struct {
	ID        string
	VideoID   string
	Result    ai.AnalysisResult
	CreatedAt time.Time
}

type ReportRepo struct {
	db *DB
}

func NewReportRepo(db *DB) *ReportRepo {
	return &ReportRepo{db: db}
}

func (r *ReportRepo) SaveReport(ctx context.Context, videoID string, result *ai.AnalysisResult) (*Report, error) {
	events := result.Events
	if events == nil {
		events = []ai.TimestampedFeedback{}
	}
	eventsJSON, err := json.Marshal(events)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal report events: %w", err)
	}

	report := &Report{
		ID:        uuid.New().String(),
		VideoID:   videoID,
		Result:    *result,
		CreatedAt: time.Now(),
	}

	query := `
		INSERT INTO analysis_reports (id, video_id, summary, events, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err = r.db.conn.ExecContext(ctx, query,
		report.ID,
		report.VideoID,
		result.Summary,
		string(eventsJSON),
		report.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to save report: %w", err)
	}
	return report, nil
}

// GetLatestByVideoID returns the most recent report for the video, or nil
// when the video has never been analyzed.
func (r *ReportRepo) GetLatestByVideoID(ctx context.Context, videoID string) (*Report, error) {
	query := `
		SELECT id, video_id, summary, events, created_at
		FROM analysis_reports
		WHERE video_id = $1
		ORDER BY created_at DESC
		LIMIT 1`

	report, err := scanReport(r.db.conn.QueryRowContext(ctx, query, videoID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return report, err
}

func (r *ReportRepo) ListByVideoID(ctx context.Context, videoID string) ([]*Report, error) {
	query := `
		SELECT id, video_id, summary, events, created_at
		FROM analysis_reports
		WHERE video_id = $1
		ORDER BY created_at DESC`

	rows, err := r.db.conn.QueryContext(ctx, query, videoID)
	if err != nil {
		return nil, fmt.Errorf("failed to query reports: %w", err)
	}
	defer rows.Close()

	var reports []*Report
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, report)
	}
	return reports, rows.Err()
}

func (r *ReportRepo) DeleteByVideoID(ctx context.Context, videoID string) error {
	_, err := r.db.conn.ExecContext(ctx, `DELETE FROM analysis_reports WHERE video_id = $1`, videoID)
	return err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanReport(row rowScanner) (*Report, error) {
	report := &Report{}
	var eventsStr string
	err := row.Scan(&report.ID, &report.VideoID, &report.Result.Summary, &eventsStr, &report.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan report: %w", err)
	}
	if err := json.Unmarshal([]byte(eventsStr), &report.Result.Events); err != nil {
		return nil, fmt.Errorf("failed to unmarshal report events: %w", err)
	}
	return report, nil
}
