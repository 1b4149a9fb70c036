package alerts

import (
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/injuryshield/ppe-monitor/internal/models"
	"github.com/samber/lo"
)

const sendQueueSize = 8

// Notifier is the outbound message transport (SMS gateway, messenger bot).
type Notifier interface {
	Send(text string) bool
}

// DispatchedAlert records one attempted notification.
type DispatchedAlert struct {
	ViolationType string
	Message       string
	SentAt        time.Time
}

// Dispatcher rate-limits operator notifications with a per-violation-type
// cooldown. The cooldown advances on every attempt, not only on confirmed
// delivery, so a broken channel cannot cause a message storm once it
// recovers. Sends run on a worker goroutine; a slow gateway delays only the
// notification, never the frame loop. One dispatcher is shared by all stream
// drivers, so the cooldown table is guarded by a mutex.
type Dispatcher struct {
	cooldown time.Duration
	notifier Notifier

	// last attempt per violation type; grows one entry per distinct type
	// ever seen, which is fine for the small closed PPE vocabulary
	mu       sync.Mutex
	lastSent map[string]time.Time

	queue chan string
	wg    sync.WaitGroup
}

func NewDispatcher(cooldown time.Duration, notifier Notifier) *Dispatcher {
	d := &Dispatcher{
		cooldown: cooldown,
		notifier: notifier,
		lastSent: make(map[string]time.Time),
		queue:    make(chan string, sendQueueSize),
	}

	d.wg.Add(1)
	go d.sendWorker()

	return d
}

// OnViolations inspects one frame's violations and attempts a notification
// for every type whose cooldown has elapsed. Types are deduplicated within
// the frame; the message aggregates counts for the whole batch.
func (d *Dispatcher) OnViolations(events []models.ViolationEvent, now time.Time) []DispatchedAlert {
	if len(events) == 0 {
		return nil
	}

	types := lo.Uniq(lo.Map(events, func(ev models.ViolationEvent, _ int) string {
		return ev.ViolationType
	}))

	var dispatched []DispatchedAlert
	for _, violationType := range types {
		if !d.takeAttempt(violationType, now) {
			continue
		}

		message := FormatMessage(events, now)
		log.Printf("Alerts: triggering notification for %q", violationType)
		select {
		case d.queue <- message:
		default:
			log.Printf("Alerts: send queue full, dropping notification for %q", violationType)
		}

		dispatched = append(dispatched, DispatchedAlert{
			ViolationType: violationType,
			Message:       message,
			SentAt:        now,
		})
	}

	return dispatched
}

// takeAttempt checks the type's cooldown and, when it has elapsed, stamps the
// attempt in one critical section so concurrent drivers cannot both pass.
func (d *Dispatcher) takeAttempt(violationType string, now time.Time) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if now.Sub(d.lastSent[violationType]) < d.cooldown {
		return false
	}
	d.lastSent[violationType] = now
	return true
}

// Close waits for queued notifications to be attempted.
func (d *Dispatcher) Close() {
	close(d.queue)
	d.wg.Wait()
}

func (d *Dispatcher) sendWorker() {
	defer d.wg.Done()

	for message := range d.queue {
		if !d.notifier.Send(message) {
			// Не повторяем: следующая попытка придёт после кулдауна
			log.Printf("Alerts: notification send failed")
		}
	}
}

// FormatMessage builds the operator-facing text for a batch of violations:
// a timestamped header, one bullet per violation type with its count, and a
// closing call to action. The "no-" prefix reads as "missing ".
func FormatMessage(events []models.ViolationEvent, now time.Time) string {
	counts := lo.CountValuesBy(events, func(ev models.ViolationEvent) string {
		return ev.ViolationType
	})
	types := lo.Uniq(lo.Map(events, func(ev models.ViolationEvent, _ int) string {
		return ev.ViolationType
	}))

	var b strings.Builder
	fmt.Fprintf(&b, "InjuryShield ALERT at %s:\n", now.UTC().Format("2006-01-02 15:04:05 UTC"))
	for _, violationType := range types {
		label := strings.Replace(violationType, "no-", "missing ", 1)
		fmt.Fprintf(&b, "- %dx %s\n", counts[violationType], label)
	}
	b.WriteString("Immediate action required.")

	return b.String()
}
