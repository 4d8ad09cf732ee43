package securityalert

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caquick/caquick-api/internal/observability/notify"
)

func TestServiceNotifySecurityEvent(t *testing.T) {
	var (
		mu       sync.Mutex
		received []notify.SecurityEvent
	)
	capture := notify.SinkFunc(func(_ context.Context, ev notify.SecurityEvent) error {
		mu.Lock()
		defer mu.Unlock()
		received = append(received, ev)
		return nil
	})
	svc := NewService(Options{
		Sinks: []SinkRegistration{
			{Name: "a", Sink: capture},
			{Name: "b", Sink: capture},
			{Name: "nil"},
		},
	})
	require.True(t, svc.Enabled())

	svc.NotifySecurityEvent(context.Background(), notify.SecurityEvent{
		Kind:      notify.KindRefreshTokenReuse,
		AccountID: 42,
	})

	require.Len(t, received, 2)
	for _, ev := range received {
		assert.Equal(t, notify.SeverityCritical, ev.Severity)
		assert.Equal(t, int64(42), ev.AccountID)
	}
}

func TestServiceDeliversAfterCallerCancels(t *testing.T) {
	var ctxErr error
	svc := NewService(Options{
		Sinks: []SinkRegistration{{
			Name: "capture",
			Sink: notify.SinkFunc(func(ctx context.Context, _ notify.SecurityEvent) error {
				ctxErr = ctx.Err()
				return nil
			}),
		}},
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	svc.NotifySecurityEvent(ctx, notify.SecurityEvent{Kind: notify.KindRefreshTokenReuse})

	assert.NoError(t, ctxErr)
}

func TestServiceDisabled(t *testing.T) {
	assert.False(t, NewService(Options{}).Enabled())

	var nilSvc *Service
	assert.False(t, nilSvc.Enabled())
}

func TestServiceLogsErrors(t *testing.T) {
	svc := NewService(Options{
		Sinks: []SinkRegistration{{
			Name: "fail",
			Sink: notify.SinkFunc(func(context.Context, notify.SecurityEvent) error {
				return errors.New("boom")
			}),
		}},
	})

	assert.NotPanics(t, func() {
		svc.NotifySecurityEvent(context.Background(), notify.SecurityEvent{AccountID: 1})
	})
}
