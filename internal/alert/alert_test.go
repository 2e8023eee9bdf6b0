package alert

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/leakwatch/leakwatch/internal/model"
)

// recordingNotifier captures local notifications for assertions.
type recordingNotifier struct {
	mu     sync.Mutex
	events []Event
}

func (n *recordingNotifier) Notify(ev Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, ev)
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.events)
}

func scored(score int) model.CanonicalInteraction {
	return model.CanonicalInteraction{
		ID:        "i-test",
		Timestamp: time.Now().UTC(),
		Provider:  "openai",
		URL:       "https://api.openai.com/v1/chat",
		Direction: model.DirectionRequest,
		RiskScore: score,
		Analysis: model.Analysis{
			CategoriesPresent: []model.Category{model.CategoryCredentialLike},
			TotalMatchCount:   1,
			HasSecrets:        true,
		},
	}
}

func TestBelowThresholdIsTerminal(t *testing.T) {
	n := &recordingNotifier{}
	d := NewDispatcher(7, n, &EscalationConfig{URL: "http://127.0.0.1:1/never"})

	if got := d.Dispatch(scored(6)); got != OutcomeBelowThreshold {
		t.Errorf("outcome = %s, want below_threshold", got)
	}
	if n.count() != 0 {
		t.Error("below-threshold record must not notify")
	}
}

func TestAtThresholdNotifies(t *testing.T) {
	n := &recordingNotifier{}
	d := NewDispatcher(7, n, nil)

	if got := d.Dispatch(scored(7)); got != OutcomeEscalationSkipped {
		t.Errorf("outcome = %s, want escalation_skipped", got)
	}
	if n.count() != 1 {
		t.Errorf("expected 1 notification, got %d", n.count())
	}
}

func TestEscalationDelivers(t *testing.T) {
	var called atomic.Int32
	var got Event
	var mu sync.Mutex
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called.Add(1)
		mu.Lock()
		json.NewDecoder(r.Body).Decode(&got)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := &recordingNotifier{}
	d := NewDispatcher(7, n, &EscalationConfig{URL: srv.URL})

	if out := d.Dispatch(scored(9)); out != OutcomeEscalationAttempted {
		t.Fatalf("outcome = %s, want escalation_attempted", out)
	}

	deadline := time.Now().Add(time.Second)
	for called.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if called.Load() != 1 {
		t.Fatalf("expected 1 escalation call, got %d", called.Load())
	}
	mu.Lock()
	defer mu.Unlock()
	if got.RiskScore != 9 || got.Provider != "openai" {
		t.Errorf("unexpected payload: %+v", got)
	}
}

func TestEscalationFailureDoesNotBlockNotification(t *testing.T) {
	n := &recordingNotifier{}
	// Unreachable endpoint: escalation fails, notification already happened.
	d := NewDispatcher(7, n, &EscalationConfig{
		URL:     "http://127.0.0.1:1/unreachable",
		Timeout: 100 * time.Millisecond,
	})

	if out := d.Dispatch(scored(10)); out != OutcomeEscalationAttempted {
		t.Fatalf("outcome = %s, want escalation_attempted", out)
	}
	if n.count() != 1 {
		t.Error("local notification must happen regardless of escalation outcome")
	}
}

func TestEscalateRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	if err := Escalate(EscalationConfig{URL: srv.URL}, Event{RecordID: "i-test"}); err != nil {
		t.Fatalf("expected success after retries: %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("expected 3 attempts, got %d", calls.Load())
	}
}

func TestEscalateRejectsClientErrorImmediately(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	if err := Escalate(EscalationConfig{URL: srv.URL}, Event{}); err == nil {
		t.Fatal("expected error on 4xx")
	}
	if calls.Load() != 1 {
		t.Errorf("4xx must not retry, got %d attempts", calls.Load())
	}
}

func TestEscalateSendsHeaders(t *testing.T) {
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := EscalationConfig{URL: srv.URL, Headers: map[string]string{"Authorization": "Bearer tok"}}
	if err := Escalate(cfg, Event{}); err != nil {
		t.Fatalf("escalate: %v", err)
	}
	if auth != "Bearer tok" {
		t.Errorf("missing header, got %q", auth)
	}
}
