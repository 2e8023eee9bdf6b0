// Package alert performs threshold-driven notification for finalized,
// scored interaction records.
//
// Records below the threshold terminate immediately. At or above it the
// dispatcher notifies locally (best-effort, never blocking the pipeline)
// and then attempts remote escalation when an endpoint is configured.
// Escalation is fire-and-forget: a failure is logged and terminal, and it
// never rolls back the local notification or the store append that already
// happened.
package alert

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/leakwatch/leakwatch/internal/model"
)

// Outcome is the terminal state reached for a dispatched record, from the
// dispatcher's synchronous point of view.
type Outcome string

const (
	OutcomeBelowThreshold      Outcome = "below_threshold"
	OutcomeEscalationSkipped   Outcome = "escalation_skipped"
	OutcomeEscalationAttempted Outcome = "escalation_attempted"
)

// DefaultThreshold is the risk score at or above which a record alerts.
const DefaultThreshold = 7

// Event is the payload delivered to notifiers and webhook endpoints.
type Event struct {
	Timestamp  string   `json:"timestamp"`
	RecordID   string   `json:"record_id"`
	Provider   string   `json:"provider"`
	URL        string   `json:"url"`
	Direction  string   `json:"direction"`
	RiskScore  int      `json:"risk_score"`
	Categories []string `json:"categories"`
	MatchCount int      `json:"match_count"`
}

// Notifier delivers a local, user-facing notification. Implementations must
// be best-effort and must not block.
type Notifier interface {
	Notify(Event)
}

// StderrNotifier writes alerts to standard error, the default local channel.
type StderrNotifier struct{}

func (StderrNotifier) Notify(ev Event) {
	fmt.Fprintf(os.Stderr, "ALERT risk=%d provider=%s categories=%s id=%s\n",
		ev.RiskScore, ev.Provider, strings.Join(ev.Categories, ","), ev.RecordID)
}

// Dispatcher routes finalized records that cross the threshold.
type Dispatcher struct {
	threshold  int
	notifier   Notifier
	escalation *EscalationConfig
}

// NewDispatcher creates a dispatcher. threshold <= 0 applies
// DefaultThreshold; a nil notifier falls back to stderr; a nil escalation
// config disables remote escalation.
func NewDispatcher(threshold int, notifier Notifier, escalation *EscalationConfig) *Dispatcher {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	if notifier == nil {
		notifier = StderrNotifier{}
	}
	return &Dispatcher{threshold: threshold, notifier: notifier, escalation: escalation}
}

// Threshold returns the active alert threshold.
func (d *Dispatcher) Threshold() int {
	return d.threshold
}

// Dispatch runs the alert state machine for one finalized record. The
// record must already be persisted; nothing here can undo that. Escalation
// runs in its own goroutine and its failure is swallowed after logging.
func (d *Dispatcher) Dispatch(rec model.CanonicalInteraction) Outcome {
	if rec.RiskScore < d.threshold {
		return OutcomeBelowThreshold
	}

	ev := eventFor(rec)
	d.notifier.Notify(ev)

	if d.escalation == nil || d.escalation.URL == "" {
		return OutcomeEscalationSkipped
	}

	cfg := *d.escalation
	go func() {
		if err := Escalate(cfg, ev); err != nil {
			fmt.Fprintf(os.Stderr, "alert: escalation for %s failed: %v\n", ev.RecordID, err)
		}
	}()
	return OutcomeEscalationAttempted
}

func eventFor(rec model.CanonicalInteraction) Event {
	cats := make([]string, len(rec.Analysis.CategoriesPresent))
	for i, c := range rec.Analysis.CategoriesPresent {
		cats[i] = string(c)
	}
	return Event{
		Timestamp:  rec.Timestamp.UTC().Format(time.RFC3339),
		RecordID:   rec.ID,
		Provider:   rec.Provider,
		URL:        rec.URL,
		Direction:  string(rec.Direction),
		RiskScore:  rec.RiskScore,
		Categories: cats,
		MatchCount: rec.Analysis.TotalMatchCount,
	}
}
