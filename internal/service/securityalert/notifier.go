// Package securityalert fans security events out to every configured notification sink.
package securityalert

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/caquick/caquick-api/internal/observability/notify"
)

// SinkRegistration pairs a sink implementation with a human-readable name for logging.
type SinkRegistration struct {
	Name string
	Sink notify.Sink
}

// Options configures the notifier.
type Options struct {
	Logger *slog.Logger
	Sinks  []SinkRegistration
	// Timeout bounds one delivery round across all sinks. Default 10s.
	Timeout time.Duration
}

// Service dispatches security events to all registered sinks.
type Service struct {
	logger  *slog.Logger
	sinks   []SinkRegistration
	timeout time.Duration
}

// NewService constructs a notifier.
func NewService(opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	var sinks []SinkRegistration
	for _, entry := range opts.Sinks {
		if entry.Sink == nil {
			continue
		}
		name := entry.Name
		if name == "" {
			name = "sink"
		}
		sinks = append(sinks, SinkRegistration{Name: name, Sink: entry.Sink})
	}

	return &Service{
		logger:  logger.With("component", "security_alert"),
		sinks:   sinks,
		timeout: timeout,
	}
}

// NotifySecurityEvent fans the event out to all sinks and waits for every delivery.
// Delivery is detached from ctx cancellation so a finished request does not abort it.
func (s *Service) NotifySecurityEvent(ctx context.Context, event notify.SecurityEvent) {
	if len(s.sinks) == 0 {
		return
	}
	if event.Severity == "" {
		event.Severity = notify.SeverityCritical
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()

	var wg sync.WaitGroup
	for _, entry := range s.sinks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := entry.Sink.SendSecurityEvent(ctx, event); err != nil {
				s.logger.ErrorContext(ctx, "security alert delivery error",
					"sink", entry.Name,
					"kind", event.Kind,
					"account_id", event.AccountID,
					"error", err,
				)
			}
		}()
	}
	wg.Wait()
}

// Enabled reports whether the notifier has any active sinks.
func (s *Service) Enabled() bool {
	return s != nil && len(s.sinks) > 0
}
