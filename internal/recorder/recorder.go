package recorder

import (
	"log"
	"sync"
	"time"

	"github.com/injuryshield/ppe-monitor/internal/models"
)

const flushQueueSize = 16

// Store is the persistence collaborator for completed windows.
type Store interface {
	SaveComplianceWindow(window models.ComplianceWindow) (int64, error)
	SaveViolationEvent(logID int64, event models.ViolationEvent) (int64, error)
}

// Recorder batches per-frame metrics into a wall-clock window and hands
// completed windows to the store. Metrics inside a window are last-write-wins;
// violation events accumulate until the next flush. Flushes run on a single
// worker goroutine so a slow store never stalls the frame loop, while windows
// are still persisted in start order.
type Recorder struct {
	streamID string
	interval time.Duration
	store    Store

	window models.ComplianceWindow

	queue chan models.ComplianceWindow
	wg    sync.WaitGroup
}

func New(streamID string, interval time.Duration, store Store) *Recorder {
	r := &Recorder{
		streamID: streamID,
		interval: interval,
		store:    store,
		queue:    make(chan models.ComplianceWindow, flushQueueSize),
	}

	r.wg.Add(1)
	go r.flushWorker()

	return r
}

// Observe feeds one frame's metrics into the in-flight window. The first
// non-empty snapshot path within an interval sticks; later ones are ignored so
// an unrelated later capture cannot overwrite the evidence reference. When the
// interval has elapsed the window is queued for persistence and a fresh window
// starts at now, regardless of queue or store failures. Returns the flushed
// window, or nil when the interval is still open.
func (r *Recorder) Observe(metrics models.ComplianceMetrics, violations []models.ViolationEvent, snapshotPath string, now time.Time) *models.ComplianceWindow {
	if r.window.StartedAt.IsZero() {
		r.window.StartedAt = now
		r.window.StreamID = r.streamID
	}

	r.window.Metrics = metrics
	r.window.Violations = append(r.window.Violations, violations...)
	if snapshotPath != "" && r.window.SnapshotPath == "" {
		r.window.SnapshotPath = snapshotPath
	}

	if now.Sub(r.window.StartedAt) < r.interval {
		return nil
	}

	flushed := r.window
	r.window = models.ComplianceWindow{StreamID: r.streamID, StartedAt: now}

	select {
	case r.queue <- flushed:
	default:
		// Бэклог ограничен: при переполнении теряем одно окно, не тормозим кадры
		log.Printf("Recorder %s: flush queue full, dropping window started at %s", r.streamID, flushed.StartedAt.Format(time.RFC3339))
	}

	return &flushed
}

// Close stops accepting frames and waits for queued flushes to drain.
func (r *Recorder) Close() {
	close(r.queue)
	r.wg.Wait()
}

func (r *Recorder) flushWorker() {
	defer r.wg.Done()

	for window := range r.queue {
		r.flush(window)
	}
}

func (r *Recorder) flush(window models.ComplianceWindow) {
	logID, err := r.store.SaveComplianceWindow(window)
	if err != nil {
		// Потеря данных допустима и ограничена одним интервалом
		log.Printf("Recorder %s: error saving compliance window: %v", r.streamID, err)
		return
	}

	for _, event := range window.Violations {
		if _, err := r.store.SaveViolationEvent(logID, event); err != nil {
			log.Printf("Recorder %s: error saving violation event %q: %v", r.streamID, event.ViolationType, err)
		}
	}
}
