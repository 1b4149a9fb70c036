package analyzer

import (
	"strings"
	"time"

	"github.com/injuryshield/ppe-monitor/internal/config"
	"github.com/injuryshield/ppe-monitor/internal/models"
	"github.com/samber/lo"
)

const violationPrefix = "no-"

const defaultSeverity = 1

// Analyzer classifies one frame's detections into compliance metrics and
// violation events. It holds only static configuration and is safe to share.
type Analyzer struct {
	wornPPE       []string
	severityRules []config.SeverityRule
}

func New(wornPPE []string, severityRules []config.SeverityRule) *Analyzer {
	return &Analyzer{
		wornPPE:       wornPPE,
		severityRules: severityRules,
	}
}

// Analyze counts persons, correctly worn PPE and violations in a single frame.
// A class prefixed "no-" is a violation and yields one ViolationEvent.
// The function has no side effects; it runs once per frame on the hot path.
func (a *Analyzer) Analyze(detections []models.Detection, now time.Time) (models.ComplianceMetrics, []models.ViolationEvent) {
	metrics := models.ComplianceMetrics{}
	var violations []models.ViolationEvent

	for _, det := range detections {
		if det.Class == "person" {
			metrics.PersonCount++
		}

		if lo.Contains(a.wornPPE, det.Class) {
			metrics.PPEWornCount++
		}

		if strings.HasPrefix(det.Class, violationPrefix) {
			metrics.ViolationCount++
			violations = append(violations, models.ViolationEvent{
				Timestamp:     now,
				ViolationType: det.Class,
				Box:           det.Box,
				Confidence:    det.Score,
				Severity:      a.severityFor(det.Class),
			})
		}
	}

	switch {
	case metrics.ViolationCount > 0:
		metrics.Status = models.StatusViolationsDetected
	case metrics.PersonCount == 0:
		metrics.Status = models.StatusNoPersonsDetected
	default:
		metrics.Status = models.StatusCompliant
	}

	return metrics, violations
}

// severityFor matches the violation type against the configured rules.
// Helmet-category violations carry a higher level than the default.
func (a *Analyzer) severityFor(violationType string) int {
	for _, rule := range a.severityRules {
		if strings.Contains(violationType, rule.Contains) {
			return rule.Level
		}
	}
	return defaultSeverity
}
