package alerts

import (
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/injuryshield/ppe-monitor/internal/models"
)

type fakeNotifier struct {
	mu       sync.Mutex
	messages []string
	fail     bool
}

func (f *fakeNotifier) Send(text string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, text)
	return !f.fail
}

func (f *fakeNotifier) sent() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.messages...)
}

func violation(violationType string) models.ViolationEvent {
	return models.ViolationEvent{ViolationType: violationType, Severity: 1}
}

func TestCooldownGatesRepeatAlerts(t *testing.T) {
	notifier := &fakeNotifier{}
	d := NewDispatcher(60*time.Second, notifier)
	base := time.Now()

	first := d.OnViolations([]models.ViolationEvent{violation("no-helmet")}, base)
	if len(first) != 1 {
		t.Fatalf("expected 1 dispatched alert, got %d", len(first))
	}

	second := d.OnViolations([]models.ViolationEvent{violation("no-helmet")}, base.Add(30*time.Second))
	if len(second) != 0 {
		t.Fatalf("expected cooldown to suppress the second alert, got %d", len(second))
	}

	third := d.OnViolations([]models.ViolationEvent{violation("no-helmet")}, base.Add(61*time.Second))
	if len(third) != 1 {
		t.Fatalf("expected alert after cooldown elapsed, got %d", len(third))
	}

	d.Close()
	if got := len(notifier.sent()); got != 2 {
		t.Fatalf("expected exactly 2 sends, got %d", got)
	}
}

func TestFailedSendStillAdvancesCooldown(t *testing.T) {
	notifier := &fakeNotifier{fail: true}
	d := NewDispatcher(60*time.Second, notifier)
	base := time.Now()

	if got := d.OnViolations([]models.ViolationEvent{violation("no-vest")}, base); len(got) != 1 {
		t.Fatalf("expected 1 attempt, got %d", len(got))
	}
	if got := d.OnViolations([]models.ViolationEvent{violation("no-vest")}, base.Add(10*time.Second)); len(got) != 0 {
		t.Fatal("failed send must not reopen the cooldown window")
	}

	d.Close()
	if got := len(notifier.sent()); got != 1 {
		t.Fatalf("expected exactly 1 attempted send, got %d", got)
	}
}

func TestTypesDeduplicatedWithinFrame(t *testing.T) {
	notifier := &fakeNotifier{}
	d := NewDispatcher(60*time.Second, notifier)

	dispatched := d.OnViolations([]models.ViolationEvent{
		violation("no-helmet"),
		violation("no-helmet"),
		violation("no-helmet"),
	}, time.Now())
	if len(dispatched) != 1 {
		t.Fatalf("expected a single alert for a repeated type, got %d", len(dispatched))
	}
	d.Close()
}

func TestIndependentCooldownsPerType(t *testing.T) {
	notifier := &fakeNotifier{}
	d := NewDispatcher(60*time.Second, notifier)
	base := time.Now()

	d.OnViolations([]models.ViolationEvent{violation("no-helmet")}, base)
	dispatched := d.OnViolations([]models.ViolationEvent{violation("no-gloves")}, base.Add(5*time.Second))
	if len(dispatched) != 1 {
		t.Fatalf("a fresh type must not share another type's cooldown, got %d alerts", len(dispatched))
	}
	d.Close()
}

func TestConcurrentDriversShareOneDispatcher(t *testing.T) {
	notifier := &fakeNotifier{}
	d := NewDispatcher(60*time.Second, notifier)
	base := time.Now()

	// Several streams report violations at once; the cooldown table must
	// stay consistent and admit exactly one attempt per type.
	var wg sync.WaitGroup
	var dispatched atomic.Int64
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				events := []models.ViolationEvent{
					violation("no-helmet"),
					violation("no-vest"),
				}
				dispatched.Add(int64(len(d.OnViolations(events, base))))
			}
		}()
	}
	wg.Wait()
	d.Close()

	if got := dispatched.Load(); got != 2 {
		t.Fatalf("expected one attempt per type across all goroutines, got %d", got)
	}
	if got := len(notifier.sent()); got != 2 {
		t.Fatalf("expected exactly 2 sends, got %d", got)
	}
}

func TestFormatMessage(t *testing.T) {
	now := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	message := FormatMessage([]models.ViolationEvent{
		violation("no-helmet"),
		violation("no-helmet"),
		violation("no-gloves"),
	}, now)

	lines := strings.Split(message, "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header, two bullets and a footer, got %d lines", len(lines))
	}
	if !strings.Contains(lines[0], "2025-03-14 09:26:53 UTC") {
		t.Fatalf("header missing timestamp: %q", lines[0])
	}
	if !strings.Contains(message, "- 2x missing helmet") {
		t.Fatalf("message missing helmet bullet: %q", message)
	}
	if !strings.Contains(message, "- 1x missing gloves") {
		t.Fatalf("message missing gloves bullet: %q", message)
	}
	if lines[3] != "Immediate action required." {
		t.Fatalf("unexpected footer: %q", lines[3])
	}
}
