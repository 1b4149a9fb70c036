package pipeline

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/injuryshield/ppe-monitor/internal/alerts"
	"github.com/injuryshield/ppe-monitor/internal/analyzer"
	"github.com/injuryshield/ppe-monitor/internal/config"
	"github.com/injuryshield/ppe-monitor/internal/database"
	"github.com/injuryshield/ppe-monitor/internal/kafka"
	"github.com/injuryshield/ppe-monitor/internal/models"
	"github.com/injuryshield/ppe-monitor/internal/recorder"
	"github.com/injuryshield/ppe-monitor/internal/s3"
	"github.com/injuryshield/ppe-monitor/internal/snapshot"
	"github.com/injuryshield/ppe-monitor/internal/stream"
	"github.com/samber/lo"
)

const (
	heartbeatInterval       = 5 * time.Second
	checkStopEventsInterval = 10 * time.Second
)

// Monitor управляет жизненным циклом потоков по командам из Kafka.
// Each active stream gets its own Driver with its own snapshot trigger and
// compliance window; the alert dispatcher is shared so cooldowns apply
// site-wide across cameras.
type Monitor struct {
	cfg        *config.Config
	db         *database.Database
	s3Client   *s3.Client
	detector   Detector
	consumer   *kafka.Consumer
	producer   *kafka.Producer
	analyzer   *analyzer.Analyzer
	dispatcher *alerts.Dispatcher

	activeStreams map[string]context.CancelFunc
	mu            sync.Mutex
}

func NewMonitor(
	cfg *config.Config,
	db *database.Database,
	s3Client *s3.Client,
	detector Detector,
	consumer *kafka.Consumer,
	producer *kafka.Producer,
	dispatcher *alerts.Dispatcher,
) *Monitor {
	return &Monitor{
		cfg:           cfg,
		db:            db,
		s3Client:      s3Client,
		detector:      detector,
		consumer:      consumer,
		producer:      producer,
		analyzer:      analyzer.New(cfg.Monitor.WornPPEClasses, cfg.Severity),
		dispatcher:    dispatcher,
		activeStreams: make(map[string]context.CancelFunc),
	}
}

func (m *Monitor) ListenAndRun(ctx context.Context) {
	log.Println("Monitor: listening for Kafka commands")
	for {
		select {
		case <-ctx.Done():
			log.Println("Monitor: shutting down")
			return
		case msg := <-m.consumer.Messages():
			var cmd models.StreamCommand
			if err := json.Unmarshal(msg.Value, &cmd); err != nil {
				log.Printf("Invalid message format: %v", err)
				// Не подтверждаем сообщение при ошибке парсинга
				continue
			}
			log.Printf("Monitor: received stream command %v", cmd)

			var processErr error
			switch cmd.Action {
			case models.CommandStart:
				processErr = m.Start(ctx, cmd)
			case models.CommandStop:
				processErr = m.RegisterStopEvent(cmd.StreamID)
			default:
				log.Printf("Unknown command: %s", cmd.Action)
			}

			if processErr != nil {
				log.Printf("Error processing command: %v", processErr)
				// Не подтверждаем сообщение при ошибке обработки
				continue
			}

			// Подтверждаем сообщение только после успешной обработки
			msg.Session.MarkMessage(msg.Message, "")
		}
	}
}

func (m *Monitor) Start(ctx context.Context, cmd models.StreamCommand) error {
	existing, err := m.db.GetStream(cmd.StreamID)
	if err != nil {
		log.Printf("Database error: %v", err)
		return err
	}
	if existing != nil {
		if existing.Action == models.CommandStart && time.Since(existing.UpdatedAt) < heartbeatInterval*3 {
			log.Printf("Monitor: stream %s already running", cmd.StreamID)
			return nil
		}
	}

	if err := m.db.RegisterStream(&models.CameraStream{
		ID:          cmd.StreamID,
		Action:      cmd.Action,
		VideoSource: cmd.VideoSource,
	}); err != nil {
		log.Printf("Database error: %v", err)
		return err
	}
	log.Printf("Monitor: stream %s registered", cmd.StreamID)

	if err := m.producer.SendHeartbeat(models.Heartbeat{
		StreamID:  cmd.StreamID,
		Action:    models.CommandStart,
		TimeStamp: time.Now().UTC(),
	}); err != nil {
		log.Printf("Monitor %s error sending live heartbeat: %v", cmd.StreamID, err)
		return err
	}

	m.mu.Lock()
	childCtx, cancel := context.WithCancel(ctx)
	m.activeStreams[cmd.StreamID] = cancel
	m.mu.Unlock()

	go func() {
		defer func() {
			m.mu.Lock()
			delete(m.activeStreams, cmd.StreamID)
			m.mu.Unlock()

			log.Printf("Monitor: stream %s finished", cmd.StreamID)
		}()

		if err := m.processStream(childCtx, cmd); err != nil {
			log.Printf("Monitor %s error: %v", cmd.StreamID, err)
		}
	}()

	return nil
}

// processStream прогоняет кадры потока через пайплайн до конца источника
func (m *Monitor) processStream(ctx context.Context, cmd models.StreamCommand) error {
	log.Printf("Monitor %s: downloading frames from %s", cmd.StreamID, cmd.VideoSource)

	source, err := stream.NewS3Source(ctx, m.s3Client, cmd.VideoSource, cmd.FPS)
	if err != nil {
		return err
	}
	log.Printf("Monitor %s: downloaded %d frames", cmd.StreamID, source.Len())

	rec := recorder.New(cmd.StreamID, m.cfg.LogInterval(), m.db)
	defer rec.Close()

	driver := NewDriver(
		cmd.StreamID,
		m.detector,
		m.analyzer,
		snapshot.NewTrigger(m.cfg.Monitor.SnapshotThreshold),
		rec,
		m.dispatcher,
		m.s3Client,
		m.cfg.Monitor.SaveViolationSnapshot,
	)

	heartbeatCtx, stopHeartbeats := context.WithCancel(ctx)
	defer stopHeartbeats()
	go m.heartbeatLoop(heartbeatCtx, cmd.StreamID, driver)

	driver.Run(ctx, source, nil)

	if err := m.producer.SendHeartbeat(models.Heartbeat{
		StreamID:   cmd.StreamID,
		Action:     models.CommandStop,
		Frame:      driver.FrameIndex(),
		Violations: driver.ViolationTotal(),
		TimeStamp:  time.Now().UTC(),
	}); err != nil {
		log.Printf("Monitor %s error sending stop heartbeat: %v", cmd.StreamID, err)
	}
	log.Printf("Monitor %s: finished after %d frames", cmd.StreamID, driver.FrameIndex())
	return nil
}

func (m *Monitor) heartbeatLoop(ctx context.Context, streamID string, driver *Driver) {
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := m.db.TouchStream(streamID); err != nil {
				log.Printf("Monitor %s error updating stream timestamp: %v", streamID, err)
			}

			if err := m.producer.SendHeartbeat(models.Heartbeat{
				StreamID:   streamID,
				Action:     models.CommandStart,
				Frame:      driver.FrameIndex(),
				Violations: driver.ViolationTotal(),
				TimeStamp:  time.Now().UTC(),
			}); err != nil {
				log.Printf("Monitor %s error sending live heartbeat: %v", streamID, err)
			}
		}
	}
}

func (m *Monitor) RegisterStopEvent(streamID string) error {
	if err := m.db.ChangeStreamAction(streamID, models.CommandStop); err != nil {
		log.Printf("Monitor %s error stopping stream: %v", streamID, err)
		return err
	}

	return nil
}

// ProcessStopEvents отменяет драйверы потоков, помеченных stop в базе
func (m *Monitor) ProcessStopEvents(ctx context.Context) {
	ticker := time.NewTicker(checkStopEventsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			streams, err := m.db.GetInactiveStreams(ctx)
			if err != nil {
				log.Printf("Error getting inactive streams: %v", err)
				continue
			}

			streamIDs := lo.Map(streams, func(s models.CameraStream, _ int) string {
				return s.ID
			})

			for _, streamID := range streamIDs {
				if m.Stop(streamID) {
					if err := m.producer.SendHeartbeat(models.Heartbeat{
						StreamID:  streamID,
						Action:    models.CommandStop,
						TimeStamp: time.Now().UTC(),
					}); err != nil {
						log.Printf("Monitor %s error sending stop heartbeat: %v", streamID, err)
					}
				}
			}
		}
	}
}

// Stop cancels the stream's driver; the frame in flight finishes first.
func (m *Monitor) Stop(streamID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if cancel, ok := m.activeStreams[streamID]; ok {
		cancel()
		log.Printf("Monitor: stream %s stopped", streamID)
		return true
	}

	return false
}
