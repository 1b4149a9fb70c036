package analyzer

import (
	"testing"
	"time"

	"github.com/injuryshield/ppe-monitor/internal/config"
	"github.com/injuryshield/ppe-monitor/internal/models"
)

func newTestAnalyzer() *Analyzer {
	return New(
		[]string{"helmet", "vest", "gloves"},
		[]config.SeverityRule{{Contains: "helmet", Level: 4}},
	)
}

func TestAnalyzeNoPersonsNoViolations(t *testing.T) {
	a := newTestAnalyzer()
	now := time.Now()

	metrics, violations := a.Analyze(nil, now)
	if metrics.Status != models.StatusNoPersonsDetected {
		t.Fatalf("expected no_persons_detected for empty frame, got %s", metrics.Status)
	}
	if len(violations) != 0 {
		t.Fatalf("expected no violations, got %d", len(violations))
	}

	metrics, violations = a.Analyze([]models.Detection{
		{Class: "vest", Score: 0.9},
		{Class: "forklift", Score: 0.8},
	}, now)
	if metrics.Status != models.StatusNoPersonsDetected {
		t.Fatalf("expected no_persons_detected without person class, got %s", metrics.Status)
	}
	if metrics.PPEWornCount != 1 {
		t.Fatalf("expected 1 worn PPE item, got %d", metrics.PPEWornCount)
	}
	if len(violations) != 0 {
		t.Fatalf("expected no violations, got %d", len(violations))
	}
}

func TestAnalyzeCompliantFrame(t *testing.T) {
	a := newTestAnalyzer()

	metrics, violations := a.Analyze([]models.Detection{
		{Class: "person", Score: 0.95},
		{Class: "person", Score: 0.91},
		{Class: "helmet", Score: 0.88},
		{Class: "vest", Score: 0.82},
	}, time.Now())

	if metrics.Status != models.StatusCompliant {
		t.Fatalf("expected compliant, got %s", metrics.Status)
	}
	if metrics.PersonCount != 2 {
		t.Fatalf("expected 2 persons, got %d", metrics.PersonCount)
	}
	if metrics.PPEWornCount != 2 {
		t.Fatalf("expected 2 worn PPE items, got %d", metrics.PPEWornCount)
	}
	if len(violations) != 0 {
		t.Fatalf("expected no violations, got %d", len(violations))
	}
}

func TestAnalyzeViolations(t *testing.T) {
	a := newTestAnalyzer()
	now := time.Now()

	metrics, violations := a.Analyze([]models.Detection{
		{Class: "person", Score: 0.95},
		{Class: "no-helmet", Score: 0.87, Box: []float64{10, 20, 110, 220}},
		{Class: "no-gloves", Score: 0.72},
	}, now)

	if metrics.Status != models.StatusViolationsDetected {
		t.Fatalf("expected violations_detected, got %s", metrics.Status)
	}
	if metrics.ViolationCount != 2 {
		t.Fatalf("expected 2 violations, got %d", metrics.ViolationCount)
	}
	if len(violations) != 2 {
		t.Fatalf("expected 2 violation events, got %d", len(violations))
	}

	var helmet, gloves models.ViolationEvent
	for _, ev := range violations {
		switch ev.ViolationType {
		case "no-helmet":
			helmet = ev
		case "no-gloves":
			gloves = ev
		}
	}
	if helmet.Severity <= gloves.Severity {
		t.Fatalf("helmet severity %d should exceed gloves severity %d", helmet.Severity, gloves.Severity)
	}
	if gloves.Severity != 1 {
		t.Fatalf("expected default severity 1 for gloves, got %d", gloves.Severity)
	}
	if helmet.Confidence != 0.87 {
		t.Fatalf("expected confidence carried over, got %v", helmet.Confidence)
	}
	if len(helmet.Box) != 4 {
		t.Fatalf("expected box carried over, got %v", helmet.Box)
	}
}

func TestAnalyzeIsPure(t *testing.T) {
	a := newTestAnalyzer()
	detections := []models.Detection{
		{Class: "person", Score: 0.9},
		{Class: "no-vest", Score: 0.8},
	}
	now := time.Now()

	first, _ := a.Analyze(detections, now)
	second, _ := a.Analyze(detections, now)
	if first != second {
		t.Fatalf("repeated analysis diverged: %+v vs %+v", first, second)
	}
}
