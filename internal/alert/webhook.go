package alert

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const (
	defaultTimeout = 5 * time.Second
	maxAttempts    = 3
)

// EscalationConfig defines the remote escalation endpoint.
type EscalationConfig struct {
	URL     string            `yaml:"url"     json:"url"`
	Headers map[string]string `yaml:"headers" json:"headers"`
	Timeout time.Duration     `yaml:"timeout" json:"timeout"`
}

// Escalate posts an alert event to the escalation endpoint, retrying on
// server errors. Client errors (4xx) fail immediately.
func Escalate(cfg EscalationConfig, ev Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	client := &http.Client{Timeout: timeout}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			time.Sleep(time.Duration(attempt) * 100 * time.Millisecond)
		}

		req, err := http.NewRequest(http.MethodPost, cfg.URL, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		for k, v := range cfg.Headers {
			req.Header.Set(k, v)
		}

		resp, err := client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return nil
		}
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return fmt.Errorf("endpoint rejected: HTTP %d", resp.StatusCode)
		}
		// 5xx is retryable
		lastErr = fmt.Errorf("endpoint server error: HTTP %d", resp.StatusCode)
	}

	return fmt.Errorf("escalation failed after %d attempts: %w", maxAttempts, lastErr)
}
