package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mlevkov/shotcoach/internal/models"
)

var ErrVideoNotFound = fmt.Errorf("video not found")

type VideoRepository struct {
	db *DB
}

func NewVideoRepository(db *DB) *VideoRepository {
	return &VideoRepository{db: db}
}

func (r *VideoRepository) InsertVideo(ctx context.Context, video *models.Video) error {
	query := `
		INSERT INTO videos (id, title, description, filename, content_type, size, duration_seconds, upload_time)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.conn.ExecContext(ctx, query,
		video.ID,
		video.Title,
		video.Description,
		video.Filename,
		video.ContentType,
		video.Size,
		video.Duration,
		video.UploadTime,
	)
	if err != nil {
		return fmt.Errorf("failed to insert video: %w", err)
	}
	return nil
}

func (r *VideoRepository) GetVideoByID(ctx context.Context, id string) (*models.Video, error) {
	query := `
		SELECT id, title, description, filename, content_type, size, duration_seconds, upload_time
		FROM videos
		WHERE id = $1`

	video := &models.Video{}
	err := r.db.conn.QueryRowContext(ctx, query, id).Scan(
		&video.ID,
		&video.Title,
		&video.Description,
		&video.Filename,
		&video.ContentType,
		&video.Size,
		&video.Duration,
		&video.UploadTime,
	)
	if err == sql.ErrNoRows {
		return nil, ErrVideoNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get video: %w", err)
	}
	return video, nil
}

func (r *VideoRepository) ListVideos(ctx context.Context) ([]models.Video, error) {
	query := `
		SELECT id, title, description, filename, content_type, size, duration_seconds, upload_time
		FROM videos
		ORDER BY upload_time DESC`

	rows, err := r.db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list videos: %w", err)
	}
	defer rows.Close()

	return scanVideos(rows)
}

func (r *VideoRepository) SearchVideos(ctx context.Context, search string) ([]models.Video, error) {
	if search == "" {
		return r.ListVideos(ctx)
	}

	var query string
	if r.db.dbType == "postgres" {
		query = `
			SELECT id, title, description, filename, content_type, size, duration_seconds, upload_time
			FROM videos
			WHERE title ILIKE $1 OR description ILIKE $1
			ORDER BY upload_time DESC
			LIMIT 20`
	} else {
		query = `
			SELECT id, title, description, filename, content_type, size, duration_seconds, upload_time
			FROM videos
			WHERE LOWER(title) LIKE LOWER($1) OR LOWER(description) LIKE LOWER($1)
			ORDER BY upload_time DESC
			LIMIT 20`
	}

	rows, err := r.db.conn.QueryContext(ctx, query, "%"+search+"%")
	if err != nil {
		return nil, fmt.Errorf("failed to search videos: %w", err)
	}
	defer rows.Close()

	return scanVideos(rows)
}

// SetDuration records the probed duration once the file has been inspected.
func (r *VideoRepository) SetDuration(ctx context.Context, id string, seconds float64) error {
	query := `UPDATE videos SET duration_seconds = $1 WHERE id = $2`
	_, err := r.db.conn.ExecContext(ctx, query, seconds, id)
	if err != nil {
		return fmt.Errorf("failed to update video duration: %w", err)
	}
	return nil
}

func (r *VideoRepository) DeleteVideo(ctx context.Context, id string) error {
	result, err := r.db.conn.ExecContext(ctx, `DELETE FROM videos WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete video: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return ErrVideoNotFound
	}
	return nil
}

func scanVideos(rows *sql.Rows) ([]models.Video, error) {
	var videos []models.Video
	for rows.Next() {
		var video models.Video
		err := rows.Scan(
			&video.ID,
			&video.Title,
			&video.Description,
			&video.Filename,
			&video.ContentType,
			&video.Size,
			&video.Duration,
			&video.UploadTime,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan video: %w", err)
		}
		videos = append(videos, video)
	}
	return videos, rows.Err()
}
