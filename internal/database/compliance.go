package database

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/injuryshield/ppe-monitor/internal/models"
)

// SaveComplianceWindow persists one flushed window and returns the new log id.
func (d *Database) SaveComplianceWindow(window models.ComplianceWindow) (int64, error) {
	var id int64
	err := d.DB.QueryRow(
		`INSERT INTO compliance_logs (stream_id, started_at, person_count, ppe_worn_count, violation_count, status, snapshot_path)
			 	VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, '')) RETURNING id`,
		window.StreamID,
		window.StartedAt,
		window.Metrics.PersonCount,
		window.Metrics.PPEWornCount,
		window.Metrics.ViolationCount,
		window.Metrics.Status,
		window.SnapshotPath,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to save compliance log: %w", err)
	}

	return id, nil
}

// SaveViolationEvent persists one violation keyed to its parent compliance log.
func (d *Database) SaveViolationEvent(logID int64, event models.ViolationEvent) (int64, error) {
	var id int64
	err := d.DB.QueryRow(
		`INSERT INTO violation_events (log_id, timestamp, violation_type, location_box, confidence, severity, is_resolved)
			 	VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
		logID,
		event.Timestamp,
		event.ViolationType,
		formatBox(event.Box),
		event.Confidence,
		event.Severity,
		event.Resolved,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to save violation event: %w", err)
	}

	return id, nil
}

// GetRecentComplianceLogs возвращает последние записи соответствия
func (d *Database) GetRecentComplianceLogs(limit int) ([]models.ComplianceWindow, error) {
	rows, err := d.DB.Query(`
		SELECT id, stream_id, started_at, person_count, ppe_worn_count, violation_count, status, snapshot_path
		FROM compliance_logs
		ORDER BY started_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var windows []models.ComplianceWindow
	for rows.Next() {
		var w models.ComplianceWindow
		var snapshotPath sql.NullString
		err := rows.Scan(
			&w.ID,
			&w.StreamID,
			&w.StartedAt,
			&w.Metrics.PersonCount,
			&w.Metrics.PPEWornCount,
			&w.Metrics.ViolationCount,
			&w.Metrics.Status,
			&snapshotPath,
		)
		if err != nil {
			return nil, err
		}
		w.SnapshotPath = snapshotPath.String
		windows = append(windows, w)
	}

	return windows, nil
}

// GetRecentViolations возвращает последние события нарушений
func (d *Database) GetRecentViolations(limit int) ([]models.ViolationEvent, error) {
	rows, err := d.DB.Query(`
		SELECT id, log_id, timestamp, violation_type, location_box, confidence, severity, is_resolved
		FROM violation_events
		ORDER BY timestamp DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []models.ViolationEvent
	for rows.Next() {
		var ev models.ViolationEvent
		var box sql.NullString
		err := rows.Scan(
			&ev.ID,
			&ev.LogID,
			&ev.Timestamp,
			&ev.ViolationType,
			&box,
			&ev.Confidence,
			&ev.Severity,
			&ev.Resolved,
		)
		if err != nil {
			return nil, err
		}
		ev.Box = parseBox(box.String)
		events = append(events, ev)
	}

	return events, nil
}

// ResolveViolation marks one violation event as reviewed.
func (d *Database) ResolveViolation(eventID int64) error {
	res, err := d.DB.Exec(
		"UPDATE violation_events SET is_resolved = TRUE WHERE id = $1",
		eventID,
	)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	return nil
}

// formatBox сериализует координаты рамки в текст "[x1,y1,x2,y2]"
func formatBox(box []float64) string {
	if len(box) == 0 {
		return ""
	}

	parts := make([]string, 0, len(box))
	for _, v := range box {
		parts = append(parts, fmt.Sprintf("%.0f", v))
	}
	return "[" + strings.Join(parts, ",") + "]"
}

func parseBox(s string) []float64 {
	s = strings.Trim(s, "[]")
	if s == "" {
		return nil
	}

	var box []float64
	for _, part := range strings.Split(s, ",") {
		var v float64
		if _, err := fmt.Sscanf(strings.TrimSpace(part), "%f", &v); err != nil {
			return nil
		}
		box = append(box, v)
	}
	return box
}
