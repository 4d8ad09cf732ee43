// Package notify defines security alert payloads and the sinks that deliver them.
package notify

import (
	"context"
	"time"
)

// Severity constants recognised by downstream sinks.
const (
	SeverityCritical = "critical"
	SeverityWarning  = "warning"
)

// Event kinds.
const (
	KindRefreshTokenReuse = "refresh_token_reuse"
)

// SecurityEvent captures the canonical data we emit for security alerts.
type SecurityEvent struct {
	Kind      string
	AccountID int64
	SessionID int64
	IPAddress string
	UserAgent string
	Severity  string
	// Summary is a one-line human description.
	Summary    string
	OccurredAt time.Time
	Metadata   map[string]string
}

// Sink describes a destination capable of consuming security alerts.
type Sink interface {
	SendSecurityEvent(ctx context.Context, event SecurityEvent) error
}

// SinkFunc adapts a function to the Sink interface (useful for tests).
type SinkFunc func(ctx context.Context, event SecurityEvent) error

// SendSecurityEvent implements the Sink interface.
func (f SinkFunc) SendSecurityEvent(ctx context.Context, event SecurityEvent) error {
	if f == nil {
		return nil
	}
	return f(ctx, event)
}
