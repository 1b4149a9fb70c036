package models

import "time"

type CommandAction string

const (
	CommandStart CommandAction = "start"
	CommandStop  CommandAction = "stop"
)

// Detection представляет структуру одного обнаруженного объекта
type Detection struct {
	Class string    `json:"class"`
	Score float64   `json:"score"`
	Box   []float64 `json:"box"` // [x1, y1, x2, y2]
}

// ComplianceStatus итоговый статус кадра
type ComplianceStatus string

const (
	StatusCompliant          ComplianceStatus = "compliant"
	StatusViolationsDetected ComplianceStatus = "violations_detected"
	StatusNoPersonsDetected  ComplianceStatus = "no_persons_detected"
)

// ComplianceMetrics per-frame summary produced by the analyzer
type ComplianceMetrics struct {
	PersonCount    int              `json:"person_count"`
	PPEWornCount   int              `json:"ppe_worn_count"`
	ViolationCount int              `json:"violation_count"`
	Status         ComplianceStatus `json:"status"`
}

// ViolationEvent one non-compliant detection within a frame
type ViolationEvent struct {
	ID            int64     `json:"id,omitempty"`
	LogID         int64     `json:"log_id,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
	ViolationType string    `json:"violation_type"`
	Box           []float64 `json:"box"`
	Confidence    float64   `json:"confidence"`
	Severity      int       `json:"severity"`
	Resolved      bool      `json:"resolved"`
}

// ComplianceWindow aggregated metrics between two persistence flushes
type ComplianceWindow struct {
	ID           int64             `json:"id,omitempty"`
	StreamID     string            `json:"stream_id"`
	StartedAt    time.Time         `json:"started_at"`
	Metrics      ComplianceMetrics `json:"metrics"`
	SnapshotPath string            `json:"snapshot_path,omitempty"`
	Violations   []ViolationEvent  `json:"violations,omitempty"`
}

// StreamCommand команда управления потоком (из Kafka)
type StreamCommand struct {
	StreamID    string        `json:"stream_id"`
	Action      CommandAction `json:"action"`
	VideoSource string        `json:"video_source"`
	FPS         float64       `json:"fps,omitempty"`
}

type Heartbeat struct {
	StreamID   string        `json:"StreamID"`
	Action     CommandAction `json:"Action"`
	Frame      int64         `json:"Frame"`
	Violations int64         `json:"Violations"`
	TimeStamp  time.Time     `json:"TimeStamp"`
}

// CameraStream Структура для зарегистрированных потоков
type CameraStream struct {
	ID          string        `json:"id"`
	Action      CommandAction `json:"action"`
	VideoSource string        `json:"video_source"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}
