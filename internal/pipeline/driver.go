package pipeline

import (
	"context"
	"log"
	"sync/atomic"
	"time"

	"github.com/injuryshield/ppe-monitor/internal/alerts"
	"github.com/injuryshield/ppe-monitor/internal/analyzer"
	"github.com/injuryshield/ppe-monitor/internal/models"
	"github.com/injuryshield/ppe-monitor/internal/recorder"
	"github.com/injuryshield/ppe-monitor/internal/snapshot"
)

// defaultFrameRate used when the source cannot report its own
const defaultFrameRate = 30.0

// FrameSource yields raw frames; a nil frame means end of stream.
type FrameSource interface {
	ReadFrame() []byte
	FrameRateHint() float64
}

// Detector maps one frame to its detections.
type Detector interface {
	Detect(frame []byte, streamID string) ([]models.Detection, error)
}

// EvidenceStore persists violation snapshots.
type EvidenceStore interface {
	SaveSnapshot(ctx context.Context, streamID string, frameIndex int, frame []byte) (string, error)
}

// FrameResult is what the driver yields to its caller for every frame.
type FrameResult struct {
	StreamID   string
	FrameIndex int64
	Frame      []byte
	Detections []models.Detection
	Metrics    models.ComplianceMetrics
}

// FrameSink receives processed frames; may be nil.
type FrameSink func(FrameResult)

// Driver runs the per-frame loop for exactly one stream: read, detect,
// analyze, capture evidence, record, alert, yield, pace. It owns the stream's
// snapshot trigger and compliance window; recorder flushes and alert sends are
// offloaded by those components, so detector latency is the only per-frame
// cost here.
type Driver struct {
	streamID      string
	detector      Detector
	analyzer      *analyzer.Analyzer
	trigger       *snapshot.Trigger
	recorder      *recorder.Recorder
	dispatcher    *alerts.Dispatcher
	evidence      EvidenceStore
	saveSnapshots bool

	frameIndex     atomic.Int64
	violationTotal atomic.Int64
}

func NewDriver(
	streamID string,
	detector Detector,
	an *analyzer.Analyzer,
	trigger *snapshot.Trigger,
	rec *recorder.Recorder,
	dispatcher *alerts.Dispatcher,
	evidence EvidenceStore,
	saveSnapshots bool,
) *Driver {
	return &Driver{
		streamID:      streamID,
		detector:      detector,
		analyzer:      an,
		trigger:       trigger,
		recorder:      rec,
		dispatcher:    dispatcher,
		evidence:      evidence,
		saveSnapshots: saveSnapshots,
	}
}

// FrameIndex returns the number of frames processed so far.
func (d *Driver) FrameIndex() int64 {
	return d.frameIndex.Load()
}

// ViolationTotal returns the running count of violations seen on this stream.
func (d *Driver) ViolationTotal() int64 {
	return d.violationTotal.Load()
}

// Run processes frames until the source is exhausted or ctx is cancelled.
// Cancellation is observed between frames, so the frame in flight always
// completes its full record/alert path. A detector failure degrades the frame
// to "no detections" and the loop continues; source exhaustion is a normal
// return, not an error.
func (d *Driver) Run(ctx context.Context, source FrameSource, sink FrameSink) {
	fps := source.FrameRateHint()
	if fps <= 0 {
		fps = defaultFrameRate
	}
	frameInterval := time.Duration(float64(time.Second) / fps)

	log.Printf("Pipeline %s: started, target interval %v", d.streamID, frameInterval)

	for {
		select {
		case <-ctx.Done():
			log.Printf("Pipeline %s: received stop", d.streamID)
			return
		default:
		}

		frameStart := time.Now()

		frame := source.ReadFrame()
		if frame == nil {
			log.Printf("Pipeline %s: end of stream after %d frames", d.streamID, d.frameIndex.Load())
			return
		}
		index := d.frameIndex.Add(1)

		detections, err := d.detector.Detect(frame, d.streamID)
		if err != nil {
			// Один плохой кадр не должен останавливать живой поток
			log.Printf("Pipeline %s: detection error on frame %d: %v", d.streamID, index, err)
			detections = nil
		}

		now := time.Now()
		metrics, violations := d.analyzer.Analyze(detections, now)
		d.violationTotal.Add(int64(metrics.ViolationCount))

		snapshotPath := ""
		if d.saveSnapshots && d.trigger.OnFrame(metrics.ViolationCount) {
			path, err := d.evidence.SaveSnapshot(ctx, d.streamID, int(index), frame)
			if err != nil {
				log.Printf("Pipeline %s: snapshot capture failed on frame %d: %v", d.streamID, index, err)
			} else {
				log.Printf("Pipeline %s: violation snapshot captured: %s", d.streamID, path)
				snapshotPath = path
			}
		}

		d.recorder.Observe(metrics, violations, snapshotPath, now)
		d.dispatcher.OnViolations(violations, now)

		if sink != nil {
			sink(FrameResult{
				StreamID:   d.streamID,
				FrameIndex: index,
				Frame:      frame,
				Detections: detections,
				Metrics:    metrics,
			})
		}

		if wait := frameInterval - time.Since(frameStart); wait > 0 {
			select {
			case <-ctx.Done():
				log.Printf("Pipeline %s: received stop", d.streamID)
				return
			case <-time.After(wait):
			}
		}
	}
}
