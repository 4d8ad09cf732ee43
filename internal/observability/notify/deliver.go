package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultTimeout = 5 * time.Second
	defaultBackoff = 200 * time.Millisecond
	errBodyLimit   = 4 << 10
)

// Delivery posts JSON payloads to a webhook-style endpoint with linear backoff between attempts.
type Delivery struct {
	client   *http.Client
	attempts int
	backoff  time.Duration
}

// NewDelivery builds a Delivery that tries 1+retryLimit times. A nil client gets one with the
// given timeout (5s when unset).
func NewDelivery(client *http.Client, timeout time.Duration, retryLimit int) Delivery {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	return Delivery{client: client, attempts: max(retryLimit, 0) + 1, backoff: defaultBackoff}
}

// PostJSON encodes payload once and posts it until a 2xx answer, the attempts run out, or ctx
// ends. The returned error names the sink so logs stay readable when several fire at once.
func (d Delivery) PostJSON(ctx context.Context, sink, endpoint string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%s: encode payload: %w", sink, err)
	}

	var lastErr error
	for attempt := 1; attempt <= d.attempts; attempt++ {
		if lastErr = d.post(ctx, endpoint, body); lastErr == nil {
			return nil
		}
		lastErr = fmt.Errorf("%s: %w", sink, lastErr)
		if attempt == d.attempts {
			break
		}
		timer := time.NewTimer(time.Duration(attempt) * d.backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("%s: %w", sink, ctx.Err())
		case <-timer.C:
		}
	}
	return lastErr
}

func (d Delivery) post(ctx context.Context, endpoint string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("send: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // body fully consumed below; close error carries no signal

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, errBodyLimit))
	return fmt.Errorf("status %s: %s", resp.Status, strings.TrimSpace(string(snippet)))
}
