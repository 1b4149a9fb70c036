package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/injuryshield/ppe-monitor/internal/models"
)

func (d *Database) RegisterStream(stream *models.CameraStream) error {
	now := time.Now()
	stream.CreatedAt = now
	stream.UpdatedAt = now

	_, err := d.DB.Exec(
		`INSERT INTO camera_streams (id, action, video_source, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)
			 	ON CONFLICT (id) DO UPDATE SET action = $6, updated_at = NOW()`,
		stream.ID,
		stream.Action,
		stream.VideoSource,
		stream.CreatedAt,
		stream.UpdatedAt,
		models.CommandStart,
	)

	return err
}

func (d *Database) GetStream(streamID string) (*models.CameraStream, error) {
	row := d.DB.QueryRow(`
		SELECT id, action, video_source, created_at, updated_at
		FROM camera_streams
		WHERE id = $1
	`, streamID)

	var stream models.CameraStream
	err := row.Scan(
		&stream.ID,
		&stream.Action,
		&stream.VideoSource,
		&stream.CreatedAt,
		&stream.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Поток не найден - это не ошибка
		}
		return nil, fmt.Errorf("failed to get camera stream: %w", err)
	}

	return &stream, nil
}

// GetInactiveStreams retrieves streams marked for stop
func (d *Database) GetInactiveStreams(ctx context.Context) ([]models.CameraStream, error) {
	rows, err := d.DB.QueryContext(ctx, `
		SELECT id, action, video_source, created_at, updated_at
		FROM camera_streams
		WHERE action = $1
	`, models.CommandStop)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var streams []models.CameraStream
	for rows.Next() {
		var s models.CameraStream
		err := rows.Scan(
			&s.ID,
			&s.Action,
			&s.VideoSource,
			&s.CreatedAt,
			&s.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		streams = append(streams, s)
	}

	return streams, nil
}

func (d *Database) ChangeStreamAction(streamID string, newAction models.CommandAction) error {
	now := time.Now()

	_, err := d.DB.Exec(
		"UPDATE camera_streams SET action = $1, updated_at = $2 WHERE id = $3",
		newAction,
		now,
		streamID,
	)

	return err
}

func (d *Database) TouchStream(streamID string) error {
	now := time.Now()

	_, err := d.DB.Exec(
		"UPDATE camera_streams SET updated_at = $1 WHERE id = $2",
		now,
		streamID,
	)

	return err
}
