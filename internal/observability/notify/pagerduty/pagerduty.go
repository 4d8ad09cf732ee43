// Package pagerduty raises incidents through the PagerDuty Events API v2.
package pagerduty

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/caquick/caquick-api/internal/observability/notify"
)

// APIEndpoint is the Events API v2 enqueue URL.
const APIEndpoint = "https://events.pagerduty.com/v2/enqueue"

// Config describes the integration.
type Config struct {
	RoutingKey string
	Source     string
	Component  string
	Timeout    time.Duration
	RetryLimit int
	Client     *http.Client
	// Endpoint overrides APIEndpoint.
	Endpoint string
}

// Client is a notify.Sink that triggers PagerDuty incidents.
type Client struct {
	routingKey string
	source     string
	component  string
	endpoint   string
	delivery   notify.Delivery
}

var _ notify.Sink = (*Client)(nil)

// NewClient requires a routing key; everything else has a default.
func NewClient(cfg Config) (*Client, error) {
	key := strings.TrimSpace(cfg.RoutingKey)
	if key == "" {
		return nil, errors.New("pagerduty routing key is required")
	}
	return &Client{
		routingKey: key,
		source:     orDefault(cfg.Source, "caquick-api"),
		component:  orDefault(cfg.Component, "auth"),
		endpoint:   orDefault(cfg.Endpoint, APIEndpoint),
		delivery:   notify.NewDelivery(cfg.Client, cfg.Timeout, cfg.RetryLimit),
	}, nil
}

// SendSecurityEvent enqueues a trigger event.
func (c *Client) SendSecurityEvent(ctx context.Context, event notify.SecurityEvent) error {
	return c.delivery.PostJSON(ctx, "pagerduty", c.endpoint, c.enqueueRequest(event))
}

type enqueueRequest struct {
	RoutingKey  string       `json:"routing_key"`
	EventAction string       `json:"event_action"`
	DedupKey    string       `json:"dedup_key,omitempty"`
	Payload     eventPayload `json:"payload"`
}

type eventPayload struct {
	Summary       string         `json:"summary"`
	Severity      string         `json:"severity"`
	Source        string         `json:"source"`
	Component     string         `json:"component,omitempty"`
	Class         string         `json:"class,omitempty"`
	Timestamp     string         `json:"timestamp"`
	CustomDetails map[string]any `json:"custom_details,omitempty"`
}

func (c *Client) enqueueRequest(event notify.SecurityEvent) enqueueRequest {
	at := event.OccurredAt
	if at.IsZero() {
		at = time.Now()
	}

	summary := event.Summary
	if summary == "" {
		summary = fmt.Sprintf("%s on account %d", orDefault(event.Kind, "security event"), event.AccountID)
	}

	details := make(map[string]any, len(event.Metadata)+5)
	for k, v := range event.Metadata {
		details[k] = v
	}
	// Built-in fields win over metadata keys with the same name.
	details["kind"] = event.Kind
	details["account_id"] = event.AccountID
	details["session_id"] = event.SessionID
	details["ip_address"] = event.IPAddress
	details["user_agent"] = event.UserAgent

	return enqueueRequest{
		RoutingKey:  c.routingKey,
		EventAction: "trigger",
		// One open incident per account and kind; repeats fold into it.
		DedupKey: strings.Trim(event.Kind+":"+strconv.FormatInt(event.AccountID, 10), ":"),
		Payload: eventPayload{
			Summary:       summary,
			Severity:      orDefault(strings.ToLower(event.Severity), notify.SeverityCritical),
			Source:        c.source,
			Component:     c.component,
			Class:         event.Kind,
			Timestamp:     at.UTC().Format(time.RFC3339),
			CustomDetails: details,
		},
	}
}

func orDefault(value, fallback string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return fallback
}
