package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mlevkov/shotcoach/internal/coach"
)

// AdviceRepo persists computed coaching advice keyed by (video, frame) so
// repeat sessions over the same video skip the paid model calls. It
// implements coach.Archive.
type AdviceRepo struct {
	db *DB
}

func NewAdviceRepo(db *DB) *AdviceRepo {
	return &AdviceRepo{db: db}
}

func (r *AdviceRepo) SaveAdvice(ctx context.Context, videoID string, advice []coach.StoredAdvice) error {
	if len(advice) == 0 {
		return nil
	}

	tx, err := r.db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var query string
	if r.db.dbType == "postgres" {
		query = `
			INSERT INTO stored_advice (
				id, video_id, frame_number, frame_timestamp, advice, confidence, key_points, created_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (video_id, frame_number)
			DO UPDATE SET
				frame_timestamp = EXCLUDED.frame_timestamp,
				advice = EXCLUDED.advice,
				confidence = EXCLUDED.confidence,
				key_points = EXCLUDED.key_points,
				created_at = EXCLUDED.created_at`
	} else {
		query = `
			INSERT OR REPLACE INTO stored_advice (
				id, video_id, frame_number, frame_timestamp, advice, confidence, key_points, created_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	}

	now := time.Now()
	for _, a := range advice {
		keyPoints := a.KeyPoints
		if keyPoints == nil {
			keyPoints = []string{}
		}
		keyPointsJSON, err := json.Marshal(keyPoints)
		if err != nil {
			return fmt.Errorf("failed to marshal key points: %w", err)
		}

		_, err = tx.ExecContext(ctx, query,
			uuid.New().String(),
			videoID,
			a.FrameNumber,
			a.Timestamp,
			a.Advice,
			a.Confidence,
			string(keyPointsJSON),
			now,
		)
		if err != nil {
			return fmt.Errorf("failed to save advice for frame %d: %w", a.FrameNumber, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit advice: %w", err)
	}
	return nil
}

func (r *AdviceRepo) LoadAdvice(ctx context.Context, videoID string) ([]coach.StoredAdvice, error) {
	query := `
		SELECT frame_number, frame_timestamp, advice, confidence, key_points
		FROM stored_advice
		WHERE video_id = $1
		ORDER BY frame_number`

	rows, err := r.db.conn.QueryContext(ctx, query, videoID)
	if err != nil {
		return nil, fmt.Errorf("failed to query stored advice: %w", err)
	}
	defer rows.Close()

	var advice []coach.StoredAdvice
	for rows.Next() {
		var a coach.StoredAdvice
		var keyPointsStr string
		err := rows.Scan(&a.FrameNumber, &a.Timestamp, &a.Advice, &a.Confidence, &keyPointsStr)
		if err != nil {
			return nil, fmt.Errorf("failed to scan stored advice: %w", err)
		}
		if keyPointsStr != "" {
			if err := json.Unmarshal([]byte(keyPointsStr), &a.KeyPoints); err != nil {
				a.KeyPoints = nil
			}
		}
		if len(a.KeyPoints) == 0 {
			a.KeyPoints = nil
		}
		advice = append(advice, a)
	}

	return advice, rows.Err()
}

func (r *AdviceRepo) DeleteByVideoID(ctx context.Context, videoID string) error {
	_, err := r.db.conn.ExecContext(ctx, `DELETE FROM stored_advice WHERE video_id = $1`, videoID)
	return err
}
