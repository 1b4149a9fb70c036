package api

import (
	"github.com/injuryshield/ppe-monitor/internal/models"
)

// Store is the persistence surface the handlers read from.
type Store interface {
	GetStream(streamID string) (*models.CameraStream, error)
	GetRecentComplianceLogs(limit int) ([]models.ComplianceWindow, error)
	GetRecentViolations(limit int) ([]models.ViolationEvent, error)
	ResolveViolation(eventID int64) error
}

// CommandPublisher forwards stream commands to the monitor.
type CommandPublisher interface {
	SendStreamCommand(cmd models.StreamCommand) error
}

type Handlers struct {
	db       Store
	producer CommandPublisher
}

func NewHandlers(db Store, producer CommandPublisher) *Handlers {
	return &Handlers{db: db, producer: producer}
}
