package notify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDelivery_RetriesUntilSuccess(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		if calls.Add(1) == 1 {
			http.Error(w, "try later", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)

	d := NewDelivery(nil, time.Second, 1)
	d.backoff = time.Millisecond

	require.NoError(t, d.PostJSON(context.Background(), "slack", srv.URL, map[string]string{"text": "hi"}))
	assert.Equal(t, int32(2), calls.Load())
}

func TestDelivery_ReportsLastFailure(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		http.Error(w, "invalid_token", http.StatusForbidden)
	}))
	t.Cleanup(srv.Close)

	d := NewDelivery(srv.Client(), 0, 2)
	d.backoff = time.Millisecond

	err := d.PostJSON(context.Background(), "pagerduty", srv.URL, struct{}{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pagerduty")
	assert.Contains(t, err.Error(), "403")
	assert.Contains(t, err.Error(), "invalid_token")
	assert.Equal(t, int32(3), calls.Load())
}

func TestDelivery_StopsOnCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	d := NewDelivery(nil, time.Second, 5)
	d.backoff = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	err := d.PostJSON(ctx, "slack", srv.URL, struct{}{})
	require.ErrorIs(t, err, context.Canceled)
}

func TestDelivery_UnencodablePayload(t *testing.T) {
	d := NewDelivery(nil, time.Second, 0)
	err := d.PostJSON(context.Background(), "slack", "http://127.0.0.1:1", map[string]any{"bad": make(chan int)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "encode payload")
}
