package bootstrap

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/caquick/caquick-api/config"
	"github.com/caquick/caquick-api/internal/observability/metrics"
	"github.com/caquick/caquick-api/internal/observability/notify/pagerduty"
	"github.com/caquick/caquick-api/internal/observability/notify/slack"
	"github.com/caquick/caquick-api/internal/observability/prom"
	"github.com/caquick/caquick-api/internal/observability/statsd"
	"github.com/caquick/caquick-api/internal/service/securityalert"
)

// ObservabilityContainer groups shared observability dependencies.
type ObservabilityContainer struct {
	// Metrics fans out to every enabled backend; statsd.Discard when none are.
	Metrics statsd.Sink
	// MetricsHandler serves /metrics when the Prometheus backend is enabled.
	MetricsHandler http.Handler
	Alerts         *securityalert.Service

	statsdClient *statsd.Client
}

// Close releases the StatsD socket.
func (o ObservabilityContainer) Close() error {
	if o.statsdClient == nil {
		return nil
	}
	return o.statsdClient.Close()
}

// buildObservability configures metrics and security alert adapters.
func buildObservability(logger *slog.Logger, cfg config.ObservabilityConfig) ObservabilityContainer {
	obsLogger := logger
	if obsLogger == nil {
		obsLogger = slog.Default()
	}

	out := ObservabilityContainer{Metrics: statsd.Discard}
	var sinks []statsd.Sink

	if cfg.Metrics.StatsdEnabled() {
		client, err := statsd.NewClient(statsd.Config{
			Enabled: true,
			Address: cfg.Metrics.StatsdAddress,
			Prefix:  cfg.Metrics.Namespace,
			Service: cfg.Metrics.Service,
			Logger:  obsLogger,
		})
		if err != nil {
			obsLogger.Error("failed to initialise statsd client", "error", err)
		} else {
			out.statsdClient = client
			sinks = append(sinks, client)
		}
	}

	if cfg.Metrics.PrometheusEnabled() {
		sink := prom.NewSink(prom.Config{
			Namespace: cfg.Metrics.Namespace,
			Labels:    metrics.AuthLabels(),
			Logger:    obsLogger,
		})
		out.MetricsHandler = sink.Handler()
		sinks = append(sinks, sink)
	}

	if len(sinks) > 0 {
		out.Metrics = statsd.Fanout(sinks...)
	}
	out.Alerts = buildSecurityAlerts(obsLogger, cfg.Notifications)
	return out
}

func buildSecurityAlerts(logger *slog.Logger, cfg config.ObservabilityNotificationsConfig) *securityalert.Service {
	baseLogger := logger
	if baseLogger == nil {
		baseLogger = slog.Default()
	}

	if !cfg.Enabled {
		return securityalert.NewService(securityalert.Options{Logger: baseLogger})
	}

	sinks := make([]securityalert.SinkRegistration, 0, 2)

	if cfg.Slack.Enabled {
		client, err := slack.NewClient(slack.Config{
			WebhookURL:       cfg.Slack.WebhookURL,
			Channel:          cfg.Slack.Channel,
			Username:         cfg.Slack.Username,
			Timeout:          cfg.Timeout,
			RetryLimit:       cfg.RetryLimit,
			AccountURLPrefix: cfg.Slack.AccountURLPrefix,
		})
		if err != nil {
			baseLogger.Error("failed to initialise slack notifier", "error", err)
		} else {
			sinks = append(sinks, securityalert.SinkRegistration{
				Name: "slack",
				Sink: client,
			})
		}
	}

	if cfg.PagerDuty.Enabled {
		client, err := pagerduty.NewClient(pagerduty.Config{
			RoutingKey: cfg.PagerDuty.RoutingKey,
			Source:     cfg.PagerDuty.Source,
			Component:  cfg.PagerDuty.Component,
			Timeout:    cfg.Timeout,
			RetryLimit: cfg.RetryLimit,
		})
		if err != nil {
			baseLogger.Error("failed to initialise pagerduty notifier", "error", err)
		} else {
			sinks = append(sinks, securityalert.SinkRegistration{
				Name: "pagerduty",
				Sink: client,
			})
		}
	}

	// Each sink retries internally; the overall budget covers every attempt.
	return securityalert.NewService(securityalert.Options{
		Logger:  baseLogger,
		Sinks:   sinks,
		Timeout: cfg.Timeout * time.Duration(max(cfg.RetryLimit, 0)+2),
	})
}
